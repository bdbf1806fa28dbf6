package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/rsip-gallery/internal/models"
	"github.com/ignatzorin/rsip-gallery/internal/repository/common"
	"github.com/ignatzorin/rsip-gallery/internal/repository/query"
)

func TestMemoryGallery_ListAndCount(t *testing.T) {
	store := NewMemoryStore()
	store.SeedItems(
		models.GalleryItem{Title: "a", Status: "approved", EducationalValue: 5, ApplicationCategory: models.CategoryServiceRobotics},
		models.GalleryItem{Title: "b", Status: "approved", EducationalValue: 2, ApplicationCategory: models.CategoryServiceRobotics},
		models.GalleryItem{Title: "c", Status: "pending", EducationalValue: 5, ApplicationCategory: models.CategoryServiceRobotics},
	)
	ctx := context.Background()
	gallery := store.Gallery()

	q := query.New().Eq("status", "approved").OrderBy("educational_value", true).Range(0, 1)
	items, total, err := gallery.List(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].Title)

	count, err := gallery.Count(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMemoryGallery_Transition(t *testing.T) {
	store := NewMemoryStore()
	id := uuid.New()
	store.SeedItems(models.GalleryItem{ID: id, Status: "pending"})
	ctx := context.Background()
	gallery := store.Gallery()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	notes := "ok"

	err := gallery.Transition(ctx, id, []string{"pending", "flagged"}, models.ItemReview{Status: "approved", ReviewerNotes: &notes, ReviewedAt: now})
	require.NoError(t, err)

	item, err := gallery.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "approved", item.Status)
	require.NotNil(t, item.ReviewedAt)
	assert.Equal(t, now, *item.ReviewedAt)
	assert.Equal(t, "ok", *item.ReviewerNotes)

	err = gallery.Transition(ctx, id, []string{"pending"}, models.ItemReview{Status: "flagged", ReviewedAt: now})
	assert.ErrorIs(t, err, common.ErrStaleStatus)

	err = gallery.Transition(ctx, uuid.New(), []string{"pending"}, models.ItemReview{Status: "flagged", ReviewedAt: now})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMemoryGallery_IncrementViewCountOnlyApproved(t *testing.T) {
	store := NewMemoryStore()
	approved, pending := uuid.New(), uuid.New()
	store.SeedItems(
		models.GalleryItem{ID: approved, Status: "approved"},
		models.GalleryItem{ID: pending, Status: "pending"},
	)
	ctx := context.Background()

	require.NoError(t, store.Gallery().IncrementViewCount(ctx, approved))
	require.NoError(t, store.Gallery().IncrementViewCount(ctx, pending))
	require.NoError(t, store.Gallery().IncrementViewCount(ctx, uuid.New()))

	a, _ := store.Gallery().GetByID(ctx, approved)
	p, _ := store.Gallery().GetByID(ctx, pending)
	assert.Equal(t, 1, a.ViewCount)
	assert.Equal(t, 0, p.ViewCount)
}

func TestMemoryReports_CreateRequiresItem(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	err := store.Reports().Create(ctx, &models.ContentReport{GalleryItemID: uuid.New(), Reason: "spam"})
	assert.ErrorIs(t, err, common.ErrNotFound)

	itemID := uuid.New()
	store.SeedItems(models.GalleryItem{ID: itemID, Status: "approved"})
	report := &models.ContentReport{GalleryItemID: itemID, Reason: "spam"}
	require.NoError(t, store.Reports().Create(ctx, report))
	assert.NotEqual(t, uuid.Nil, report.ID)
	assert.Equal(t, "pending", report.Status)
}

func TestMemoryReports_PendingItemIDsAndCounts(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	early, late := uuid.New(), uuid.New()
	store.SeedReports(
		models.ContentReport{GalleryItemID: late, Status: "pending", CreatedAt: base.Add(2 * time.Hour)},
		models.ContentReport{GalleryItemID: early, Status: "pending", CreatedAt: base},
		models.ContentReport{GalleryItemID: early, Status: "pending", CreatedAt: base.Add(3 * time.Hour)},
		models.ContentReport{GalleryItemID: early, Status: "dismissed", CreatedAt: base},
	)
	ctx := context.Background()

	ids, err := store.Reports().PendingItemIDs(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{early, late}, ids)

	counts, err := store.Reports().PendingCounts(ctx, []uuid.UUID{early, late, uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]int{early: 2, late: 1}, counts)
}

func TestMemoryReports_ReviewSkipsClosed(t *testing.T) {
	store := NewMemoryStore()
	open, closed := uuid.New(), uuid.New()
	store.SeedReports(
		models.ContentReport{ID: open, Status: "pending"},
		models.ContentReport{ID: closed, Status: "action_taken"},
	)
	ctx := context.Background()
	by := "admin"

	n, err := store.Reports().Review(ctx, []uuid.UUID{open, closed, uuid.New()}, models.ReportReview{
		Status: "dismissed", ReviewedBy: &by, ReviewedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	reports, err := store.Reports().List(ctx, query.New().InIDs("id", []uuid.UUID{closed}))
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "action_taken", reports[0].Status)
}
