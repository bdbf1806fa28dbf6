package service

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/ignatzorin/rsip-gallery/internal/metrics"
)

// Префиксы ключей кеша.
const (
	galleryCachePrefix = "gallery:"
)

// CacheService - LRU-кеш с общим TTL и инвалидацией по префиксу.
// Одновременные промахи по одному ключу схлопываются в один вызов загрузчика.
type CacheService struct {
	lru   *expirable.LRU[string, interface{}]
	group singleflight.Group
}

// NewCacheService создаёт кеш на size записей с временем жизни ttl.
func NewCacheService(size int, ttl time.Duration) *CacheService {
	if size <= 0 {
		size = 128
	}
	return &CacheService{
		lru: expirable.NewLRU[string, interface{}](size, nil, ttl),
	}
}

func (cs *CacheService) Get(key string) (interface{}, bool) {
	value, ok := cs.lru.Get(key)
	if ok {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
	} else {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	}
	return value, ok
}

func (cs *CacheService) Set(key string, value interface{}) {
	cs.lru.Add(key, value)
}

func (cs *CacheService) Delete(key string) {
	cs.lru.Remove(key)
}

// InvalidateByPrefix удаляет все ключи с указанным префиксом.
func (cs *CacheService) InvalidateByPrefix(prefix string) {
	for _, key := range cs.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			cs.lru.Remove(key)
		}
	}
}

// InvalidateGallery сбрасывает всё, что зависит от набора опубликованных материалов.
func (cs *CacheService) InvalidateGallery() {
	cs.InvalidateByPrefix(galleryCachePrefix)
}

// GetOrSet возвращает значение из кеша или вычисляет его. Ошибки не кешируются.
// Загрузчик общий для всех ожидающих, поэтому отмена контекста первого вызывающего
// его не прерывает; время ограничивает сам загрузчик.
func (cs *CacheService) GetOrSet(ctx context.Context, key string, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	if value, found := cs.Get(key); found {
		return value, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	value, err, _ := cs.group.Do(key, func() (interface{}, error) {
		v, err := fn(loadCtx)
		if err != nil {
			return nil, err
		}
		cs.Set(key, v)
		return v, nil
	})
	return value, err
}

func FilterOptionsCacheKey() string {
	return galleryCachePrefix + "filter_options"
}

func GalleryStatsCacheKey() string {
	return galleryCachePrefix + "stats"
}
