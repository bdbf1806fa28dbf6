package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/rsip-gallery/internal/models"
	"github.com/ignatzorin/rsip-gallery/internal/repository"
	"github.com/ignatzorin/rsip-gallery/internal/repository/query"
)

func TestSeedService_SeedData(t *testing.T) {
	store := repository.NewMemoryStore()
	seeder := NewSeedService(store, 42)

	items, err := seeder.SeedData(40, 5)
	require.NoError(t, err)
	assert.Len(t, items, 40)

	ctx := context.Background()
	total, err := store.Gallery().Count(ctx, query.New())
	require.NoError(t, err)
	assert.Equal(t, 40, total)

	pending, err := store.Reports().Count(ctx, query.New().Eq("status", "pending"))
	require.NoError(t, err)
	assert.Equal(t, 5, pending)

	for _, it := range items {
		assert.Contains(t, models.ValidCategories, it.ApplicationCategory)
		assert.Contains(t, []string{models.MediaTypeVideo, models.MediaTypeImage}, it.MediaType)
		assert.GreaterOrEqual(t, it.EducationalValue, 1)
		assert.LessOrEqual(t, it.EducationalValue, 5)
	}
}

func TestSeedService_FeedsGallery(t *testing.T) {
	store := repository.NewMemoryStore()
	_, err := NewSeedService(store, 7).SeedData(60, 0)
	require.NoError(t, err)

	svc := NewGalleryService(store.Gallery(), NewCacheService(8, time.Minute), time.Second)
	page, err := svc.FetchItems(context.Background(), models.GalleryFilters{IncludeDemos: true}, 100, 0, models.SortPopular)
	require.NoError(t, err)
	for _, it := range page.Items {
		assert.Equal(t, "approved", it.Status)
	}
}

func TestSeedService_RejectsEmpty(t *testing.T) {
	_, err := NewSeedService(repository.NewMemoryStore(), 1).SeedData(0, 0)
	assert.Error(t, err)
}
