package service

import (
	"context"
	"time"

	"github.com/ignatzorin/rsip-gallery/internal/metrics"
)

// storeCall выполняет обращение к хранилищу с ограничением по времени.
// Истёкший таймаут возвращается как обычная ошибка хранилища.
func storeCall(ctx context.Context, timeout time.Duration, op string, fn func(ctx context.Context) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(ctx)
	metrics.StoreDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StoreFailures.WithLabelValues(op).Inc()
	}
	return err
}
