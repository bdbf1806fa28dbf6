package goroutine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeGo_RecoversPanic(t *testing.T) {
	log, hook := test.NewNullLogger()
	rh := NewRecoveryHandler(logrus.NewEntry(log))

	var wg sync.WaitGroup
	wg.Add(1)
	rh.SafeGo(func() {
		defer wg.Done()
		panic("boom")
	})
	wg.Wait()

	require.Eventually(t, func() bool { return len(hook.AllEntries()) == 1 }, time.Second, time.Millisecond)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Contains(t, entry.Message, "boom")
	assert.Contains(t, entry.Data, "stack")
}

func TestSafeGoWithContext_PassesContext(t *testing.T) {
	log, _ := test.NewNullLogger()
	rh := NewRecoveryHandler(logrus.NewEntry(log))

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")
	got := make(chan interface{}, 1)

	rh.SafeGoWithContext(ctx, func(ctx context.Context) {
		got <- ctx.Value(key{})
	})

	assert.Equal(t, "v", <-got)
}
