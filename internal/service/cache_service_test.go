package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheService_GetOrSet_CachesValue(t *testing.T) {
	cache := NewCacheService(10, time.Minute)
	ctx := context.Background()
	calls := 0
	load := func(ctx context.Context) (interface{}, error) {
		calls++
		return "value", nil
	}

	v, err := cache.GetOrSet(ctx, "k", load)
	require.NoError(t, err)
	assert.Equal(t, "value", v)

	v, err = cache.GetOrSet(ctx, "k", load)
	require.NoError(t, err)
	assert.Equal(t, "value", v)
	assert.Equal(t, 1, calls)
}

func TestCacheService_GetOrSet_DoesNotCacheErrors(t *testing.T) {
	cache := NewCacheService(10, time.Minute)
	ctx := context.Background()

	_, err := cache.GetOrSet(ctx, "k", func(ctx context.Context) (interface{}, error) {
		return nil, errors.New("boom")
	})
	assert.Error(t, err)

	_, found := cache.Get("k")
	assert.False(t, found)
}

func TestCacheService_GetOrSet_CollapsesConcurrentMisses(t *testing.T) {
	cache := NewCacheService(10, time.Minute)
	ctx := context.Background()
	var calls int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = cache.GetOrSet(ctx, "k", func(ctx context.Context) (interface{}, error) {
				atomic.AddInt32(&calls, 1)
				<-release
				return 1, nil
			})
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(5))
	v, found := cache.Get("k")
	assert.True(t, found)
	assert.Equal(t, 1, v)
}

func TestCacheService_GetOrSet_SharedLoadSurvivesFirstCallerCancel(t *testing.T) {
	cache := NewCacheService(10, time.Minute)
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	load := func(ctx context.Context) (interface{}, error) {
		once.Do(func() { close(started) })
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return "stats", nil
	}

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := cache.GetOrSet(firstCtx, "k", load)
		firstErr <- err
	}()
	<-started

	type result struct {
		value interface{}
		err   error
	}
	second := make(chan result, 1)
	go func() {
		v, err := cache.GetOrSet(context.Background(), "k", load)
		second <- result{v, err}
	}()
	time.Sleep(50 * time.Millisecond)

	// Первый клиент отключился, пока загрузка ещё идёт.
	cancel()
	close(release)

	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, "stats", got.value)
	assert.NoError(t, <-firstErr)

	v, found := cache.Get("k")
	assert.True(t, found)
	assert.Equal(t, "stats", v)
}

func TestCacheService_InvalidateGallery(t *testing.T) {
	cache := NewCacheService(10, time.Minute)
	cache.Set(FilterOptionsCacheKey(), "opts")
	cache.Set(GalleryStatsCacheKey(), "stats")
	cache.Set("other", "keep")

	cache.InvalidateGallery()

	_, found := cache.Get(FilterOptionsCacheKey())
	assert.False(t, found)
	_, found = cache.Get(GalleryStatsCacheKey())
	assert.False(t, found)
	_, found = cache.Get("other")
	assert.True(t, found)
}

func TestCacheService_Expires(t *testing.T) {
	cache := NewCacheService(10, 20*time.Millisecond)
	cache.Set("k", "v")

	assert.Eventually(t, func() bool {
		_, found := cache.Get("k")
		return !found
	}, time.Second, 10*time.Millisecond)
}
