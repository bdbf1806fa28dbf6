package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/rsip-gallery/internal/models"
	"github.com/ignatzorin/rsip-gallery/internal/pkg/apperror"
	"github.com/ignatzorin/rsip-gallery/internal/repository"
	"github.com/ignatzorin/rsip-gallery/internal/repository/query"
)

var moderationNow = time.Date(2025, 3, 10, 15, 30, 0, 0, time.Local)

type mockItemStore struct {
	mock.Mock
}

func (m *mockItemStore) List(ctx context.Context, q *query.Query) ([]models.GalleryItem, int, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]models.GalleryItem), args.Int(1), args.Error(2)
}

func (m *mockItemStore) Count(ctx context.Context, q *query.Query) (int, error) {
	args := m.Called(ctx, q)
	return args.Int(0), args.Error(1)
}

func (m *mockItemStore) Transition(ctx context.Context, id uuid.UUID, allowedFrom []string, review models.ItemReview) error {
	return m.Called(ctx, id, allowedFrom, review).Error(0)
}

// failingReviewStore ведёт себя как обычное хранилище жалоб, но пакетное закрытие падает.
type failingReviewStore struct {
	*repository.MemoryReportRepository
}

func (f failingReviewStore) Review(context.Context, []uuid.UUID, models.ReportReview) (int, error) {
	return 0, errors.New("statement timeout")
}

// concurrentReviewStore имитирует жалобу, которую закрыл другой модератор
// между чтением и обновлением.
type concurrentReviewStore struct {
	*repository.MemoryReportRepository
}

func (c concurrentReviewStore) Review(context.Context, []uuid.UUID, models.ReportReview) (int, error) {
	return 0, nil
}

func newTestModerationService(store *repository.MemoryStore) (*ModerationService, *CacheService) {
	cache := NewCacheService(16, time.Minute)
	svc := NewModerationService(store.Gallery(), store.Reports(), cache, time.Second)
	svc.now = func() time.Time { return moderationNow }
	return svc, cache
}

func pendingReport(itemID uuid.UUID, reason string, created time.Time) models.ContentReport {
	return models.ContentReport{
		GalleryItemID: itemID,
		Reason:        reason,
		Status:        "pending",
		CreatedAt:     created,
	}
}

func strPtr(s string) *string { return &s }

func TestModerationService_ApproveMovesBetweenQueues(t *testing.T) {
	store := repository.NewMemoryStore()
	it := item("candidate", withStatus("pending"))
	store.SeedItems(it)
	svc, _ := newTestModerationService(store)
	ctx := context.Background()

	res := svc.Approve(ctx, it.ID, strPtr("  выглядит хорошо "))
	require.True(t, res.Success, res.Error)

	approved, err := svc.ListByStatus(ctx, "approved", 10)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, it.ID, approved[0].ID)
	require.NotNil(t, approved[0].ReviewedAt)
	assert.True(t, approved[0].ReviewedAt.Equal(moderationNow))
	assert.Equal(t, "выглядит хорошо", *approved[0].ReviewerNotes)

	pending, err := svc.ListByStatus(ctx, "pending", 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestModerationService_TransitionRules(t *testing.T) {
	tests := []struct {
		name     string
		from     string
		act      func(s *ModerationService, id uuid.UUID) models.ActionResult
		wantOK   bool
		wantCode apperror.ErrorCode
		wantTo   string
	}{
		{"approve pending", "pending", approveFn, true, "", "approved"},
		{"approve flagged", "flagged", approveFn, true, "", "approved"},
		{"approve approved", "approved", approveFn, false, apperror.ErrCodeInvalidTransition, "approved"},
		{"reject flagged", "flagged", rejectFn, true, "", "rejected"},
		{"reject archived", "archived", rejectFn, false, apperror.ErrCodeInvalidTransition, "archived"},
		{"flag pending", "pending", flagFn, true, "", "flagged"},
		{"flag flagged", "flagged", flagFn, false, apperror.ErrCodeInvalidTransition, "flagged"},
		{"archive flagged", "flagged", archiveFn, true, "", "archived"},
		{"archive rejected", "rejected", archiveFn, false, apperror.ErrCodeInvalidTransition, "rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := repository.NewMemoryStore()
			it := item("subject", withStatus(tt.from))
			store.SeedItems(it)
			svc, _ := newTestModerationService(store)

			res := tt.act(svc, it.ID)
			assert.Equal(t, tt.wantOK, res.Success)
			assert.Equal(t, string(tt.wantCode), res.Code)

			got, err := store.Gallery().GetByID(context.Background(), it.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTo, got.Status)
		})
	}
}

func approveFn(s *ModerationService, id uuid.UUID) models.ActionResult {
	return s.Approve(context.Background(), id, nil)
}

func rejectFn(s *ModerationService, id uuid.UUID) models.ActionResult {
	return s.Reject(context.Background(), id, "низкое качество")
}

func flagFn(s *ModerationService, id uuid.UUID) models.ActionResult {
	return s.Flag(context.Background(), id, "проверить источник")
}

func archiveFn(s *ModerationService, id uuid.UUID) models.ActionResult {
	return s.Archive(context.Background(), id)
}

func TestModerationService_TransitionUnknownItem(t *testing.T) {
	svc, _ := newTestModerationService(repository.NewMemoryStore())

	res := svc.Archive(context.Background(), uuid.New())
	assert.False(t, res.Success)
	assert.Equal(t, string(apperror.ErrCodeNotFound), res.Code)
}

func TestModerationService_RejectStoresReason(t *testing.T) {
	store := repository.NewMemoryStore()
	it := item("subject", withStatus("pending"))
	store.SeedItems(it)
	svc, _ := newTestModerationService(store)

	res := svc.Reject(context.Background(), it.ID, "   ")
	assert.False(t, res.Success)
	assert.Equal(t, string(apperror.ErrCodeValidation), res.Code)

	res = svc.Reject(context.Background(), it.ID, "рекламный ролик")
	require.True(t, res.Success)
	got, _ := store.Gallery().GetByID(context.Background(), it.ID)
	assert.Equal(t, "rejected", got.Status)
	assert.Equal(t, "рекламный ролик", *got.ReviewerNotes)
}

func TestModerationService_FlagRequiresNotes(t *testing.T) {
	store := repository.NewMemoryStore()
	it := item("subject", withStatus("pending"))
	store.SeedItems(it)
	svc, _ := newTestModerationService(store)

	res := svc.Flag(context.Background(), it.ID, " ")
	assert.False(t, res.Success)
	assert.Equal(t, string(apperror.ErrCodeValidation), res.Code)
	got, _ := store.Gallery().GetByID(context.Background(), it.ID)
	assert.Equal(t, "pending", got.Status)

	res = svc.Flag(context.Background(), it.ID, "  сомнительный источник ")
	require.True(t, res.Success, res.Error)
	got, _ = store.Gallery().GetByID(context.Background(), it.ID)
	assert.Equal(t, "flagged", got.Status)
	assert.Equal(t, "сомнительный источник", *got.ReviewerNotes)
}

func TestModerationService_TransitionStoreFailure(t *testing.T) {
	items := new(mockItemStore)
	items.On("Transition", mock.Anything, mock.Anything, []string{"pending", "flagged"}, mock.Anything).
		Return(errors.New("connection reset"))
	svc := NewModerationService(items, repository.NewMemoryStore().Reports(), NewCacheService(4, time.Minute), time.Second)

	res := svc.Approve(context.Background(), uuid.New(), nil)
	assert.False(t, res.Success)
	assert.Equal(t, string(apperror.ErrCodeStoreFailure), res.Code)
	assert.NotEmpty(t, res.Error)
	items.AssertExpectations(t)
}

func TestModerationService_InvalidatesGalleryCache(t *testing.T) {
	store := repository.NewMemoryStore()
	it := item("candidate", withStatus("pending"))
	store.SeedItems(it)
	svc, cache := newTestModerationService(store)

	cache.Set(GalleryStatsCacheKey(), &models.GalleryStats{Total: 1})
	cache.Set("other:key", 1)

	require.True(t, svc.Approve(context.Background(), it.ID, nil).Success)

	_, found := cache.Get(GalleryStatsCacheKey())
	assert.False(t, found)
	_, found = cache.Get("other:key")
	assert.True(t, found)
}

func TestModerationService_ListByStatus_ReportCounts(t *testing.T) {
	store := repository.NewMemoryStore()
	a := item("a", withStatus("pending"))
	b := item("b", withStatus("pending"))
	store.SeedItems(a, b)
	store.SeedReports(
		pendingReport(a.ID, "spam", moderationNow),
		pendingReport(a.ID, "misleading", moderationNow),
		models.ContentReport{GalleryItemID: b.ID, Reason: "other", Status: "dismissed"},
	)
	svc, _ := newTestModerationService(store)

	list, err := svc.ListByStatus(context.Background(), "pending", 10)
	require.NoError(t, err)
	require.Len(t, list, 2)

	counts := map[uuid.UUID]int{}
	for _, m := range list {
		counts[m.ID] = m.ReportsCount
	}
	assert.Equal(t, 2, counts[a.ID])
	assert.Equal(t, 0, counts[b.ID])

	_, err = svc.ListByStatus(context.Background(), "published", 10)
	assert.True(t, apperror.IsValidation(err))
}

func TestModerationService_ListFlagged(t *testing.T) {
	store := repository.NewMemoryStore()
	first := item("first")
	second := item("second")
	quiet := item("quiet")
	store.SeedItems(first, second, quiet)
	store.SeedReports(
		pendingReport(second.ID, "spam", moderationNow.Add(-time.Hour)),
		pendingReport(first.ID, "copyright", moderationNow.Add(-3*time.Hour)),
		pendingReport(first.ID, "spam", moderationNow.Add(-2*time.Hour)),
		models.ContentReport{GalleryItemID: quiet.ID, Reason: "other", Status: "dismissed", CreatedAt: moderationNow},
	)
	svc, _ := newTestModerationService(store)

	flagged, err := svc.ListFlagged(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, flagged, 2)

	assert.Equal(t, first.ID, flagged[0].ID)
	assert.Equal(t, 2, flagged[0].ReportsCount)
	require.Len(t, flagged[0].PendingReports, 2)
	assert.Equal(t, "copyright", flagged[0].PendingReports[0].Reason)

	assert.Equal(t, second.ID, flagged[1].ID)
	assert.Equal(t, 1, flagged[1].ReportsCount)
}

func TestModerationService_ListFlagged_Empty(t *testing.T) {
	svc, _ := newTestModerationService(repository.NewMemoryStore())

	flagged, err := svc.ListFlagged(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, flagged)
	assert.Empty(t, flagged)
}

func TestResolutionNote(t *testing.T) {
	assert.Equal(t, "Action: removed item", ResolutionNote("removed item", nil))
	assert.Equal(t, "Action: removed item", ResolutionNote("removed item", strPtr("  ")))
	assert.Equal(t, "Action: removed item\nNotes: duplicate upload", ResolutionNote("removed item", strPtr("duplicate upload")))
}

func TestModerationService_DismissAndResolve(t *testing.T) {
	store := repository.NewMemoryStore()
	it := item("subject")
	store.SeedItems(it)
	store.SeedReports(pendingReport(it.ID, "spam", moderationNow), pendingReport(it.ID, "copyright", moderationNow))
	svc, _ := newTestModerationService(store)
	ctx := context.Background()

	reports, err := svc.ItemReports(ctx, it.ID)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	res := svc.Dismiss(ctx, reports[0].ID, "admin-1", nil)
	require.True(t, res.Success, res.Error)

	res = svc.Resolve(ctx, reports[1].ID, "admin-2", "archived item", strPtr("confirmed"))
	require.True(t, res.Success, res.Error)

	reports, err = svc.ItemReports(ctx, it.ID)
	require.NoError(t, err)
	byStatus := map[string]models.ContentReport{}
	for _, r := range reports {
		byStatus[r.Status] = r
	}

	dismissed := byStatus["dismissed"]
	require.NotNil(t, dismissed.ReviewedAt)
	assert.Nil(t, dismissed.ReviewerNotes)
	assert.Equal(t, "admin-1", *dismissed.ReviewedBy)

	resolved := byStatus["action_taken"]
	require.NotNil(t, resolved.ReviewedAt)
	assert.Equal(t, "Action: archived item\nNotes: confirmed", *resolved.ReviewerNotes)
	assert.Equal(t, "admin-2", *resolved.ReviewedBy)
}

func TestModerationService_DismissClosedOrMissing(t *testing.T) {
	store := repository.NewMemoryStore()
	it := item("subject")
	store.SeedItems(it)
	store.SeedReports(models.ContentReport{GalleryItemID: it.ID, Reason: "spam", Status: "dismissed"})
	svc, _ := newTestModerationService(store)
	ctx := context.Background()

	reports, err := svc.ItemReports(ctx, it.ID)
	require.NoError(t, err)
	require.Len(t, reports, 1)

	res := svc.Dismiss(ctx, reports[0].ID, "admin", nil)
	assert.False(t, res.Success)
	assert.Equal(t, string(apperror.ErrCodeInvalidTransition), res.Code)

	res = svc.Dismiss(ctx, uuid.New(), "admin", nil)
	assert.False(t, res.Success)
	assert.Equal(t, string(apperror.ErrCodeNotFound), res.Code)

	res = svc.Resolve(ctx, reports[0].ID, "admin", " ", nil)
	assert.Equal(t, string(apperror.ErrCodeValidation), res.Code)
}

func TestModerationService_DismissLostRace(t *testing.T) {
	store := repository.NewMemoryStore()
	it := item("subject")
	store.SeedItems(it)
	report := pendingReport(it.ID, "spam", moderationNow)
	store.SeedReports(report)
	svc := NewModerationService(store.Gallery(), concurrentReviewStore{store.Reports()}, NewCacheService(8, time.Minute), time.Second)

	res := svc.Dismiss(context.Background(), report.ID, "admin", nil)
	assert.False(t, res.Success)
	assert.Equal(t, string(apperror.ErrCodeInvalidTransition), res.Code)
}

func TestModerationService_ListReportsByStatus(t *testing.T) {
	store := repository.NewMemoryStore()
	it := item("subject")
	store.SeedItems(it)
	store.SeedReports(
		pendingReport(it.ID, "spam", moderationNow),
		models.ContentReport{GalleryItemID: it.ID, Reason: "copyright", Status: "dismissed"},
	)
	svc, _ := newTestModerationService(store)
	ctx := context.Background()

	dismissed, err := svc.ListReports(ctx, "dismissed", 0)
	require.NoError(t, err)
	require.Len(t, dismissed, 1)
	assert.Equal(t, "copyright", dismissed[0].Reason)

	pending, err := svc.PendingReports(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "spam", pending[0].Reason)

	_, err = svc.ListReports(ctx, "closed", 0)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestModerationService_BulkDismiss(t *testing.T) {
	store := repository.NewMemoryStore()
	it := item("subject")
	store.SeedItems(it)
	for i := 0; i < 3; i++ {
		store.SeedReports(pendingReport(it.ID, "spam", moderationNow))
	}
	svc, _ := newTestModerationService(store)
	ctx := context.Background()

	reports, err := svc.PendingReports(ctx, 10)
	require.NoError(t, err)
	require.Len(t, reports, 3)
	ids := []uuid.UUID{reports[0].ID, reports[1].ID, reports[2].ID}

	res := svc.BulkDismiss(ctx, ids, "admin", nil)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 3, res.Affected)

	after, err := svc.ItemReports(ctx, it.ID)
	require.NoError(t, err)
	for _, r := range after {
		assert.Equal(t, "dismissed", r.Status)
		require.NotNil(t, r.ReviewedAt)
		assert.Equal(t, "Bulk dismissed", *r.ReviewerNotes)
	}

	res = svc.BulkDismiss(ctx, nil, "admin", nil)
	assert.Equal(t, string(apperror.ErrCodeValidation), res.Code)
}

func TestModerationService_BulkDismiss_StoreFailureLeavesReportsPending(t *testing.T) {
	store := repository.NewMemoryStore()
	it := item("subject")
	store.SeedItems(it)
	for i := 0; i < 3; i++ {
		store.SeedReports(pendingReport(it.ID, "spam", moderationNow))
	}
	svc := NewModerationService(store.Gallery(), failingReviewStore{store.Reports()}, NewCacheService(4, time.Minute), time.Second)
	ctx := context.Background()

	reports, err := svc.PendingReports(ctx, 10)
	require.NoError(t, err)
	ids := []uuid.UUID{reports[0].ID, reports[1].ID, reports[2].ID}

	res := svc.BulkDismiss(ctx, ids, "admin", strPtr("дубликаты"))
	assert.False(t, res.Success)
	assert.Equal(t, string(apperror.ErrCodeStoreFailure), res.Code)

	still, err := svc.PendingReports(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, still, 3)
	for _, r := range still {
		assert.Nil(t, r.ReviewedAt)
	}
}

func TestModerationService_Stats(t *testing.T) {
	store := repository.NewMemoryStore()
	earlier := moderationNow.Add(-time.Hour)
	yesterday := moderationNow.AddDate(0, 0, -1)
	reviewed := func(at time.Time) func(*models.GalleryItem) {
		return func(g *models.GalleryItem) { g.ReviewedAt = &at }
	}
	target := item("reported")
	store.SeedItems(
		item("p1", withStatus("pending")),
		item("p2", withStatus("pending")),
		item("p3", withStatus("pending")),
		item("approved today", reviewed(earlier)),
		item("approved yesterday", reviewed(yesterday)),
		item("rejected yesterday", withStatus("rejected"), reviewed(yesterday)),
		target,
	)
	store.SeedReports(
		pendingReport(target.ID, "spam", earlier),
		pendingReport(target.ID, "other", earlier),
		models.ContentReport{GalleryItemID: target.ID, Reason: "spam", Status: "dismissed"},
	)
	svc, _ := newTestModerationService(store)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ModerationStats{PendingContent: 3, PendingReports: 2, ApprovedToday: 1, RejectedToday: 0}, *stats)
}

func TestModerationService_Stats_StoreFailure(t *testing.T) {
	items := new(mockItemStore)
	items.On("Count", mock.Anything, mock.Anything).Return(0, errors.New("down"))
	svc := NewModerationService(items, repository.NewMemoryStore().Reports(), NewCacheService(4, time.Minute), time.Second)

	stats, err := svc.Stats(context.Background())
	assert.Nil(t, stats)
	assert.True(t, apperror.IsStoreFailure(err))
}

func TestModerationService_SubmitReportRoundTrip(t *testing.T) {
	store := repository.NewMemoryStore()
	it := item("subject")
	store.SeedItems(it)
	svc, _ := newTestModerationService(store)
	ctx := context.Background()

	description := "  Одно и то же видео загружено трижды.\n"
	res := svc.SubmitReport(ctx, models.ReportSubmission{
		GalleryItemID: it.ID,
		Reason:        models.ReportReasonSpam,
		Description:   &description,
		ReporterEmail: strPtr("viewer@example.com"),
	})
	require.True(t, res.Success, res.Error)

	pending, err := svc.PendingReports(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "pending", pending[0].Status)
	assert.Equal(t, "spam", pending[0].Reason)
	assert.Equal(t, description, *pending[0].Description)
	assert.Equal(t, "viewer@example.com", *pending[0].ReporterEmail)
}

func TestModerationService_SubmitReportValidation(t *testing.T) {
	store := repository.NewMemoryStore()
	it := item("subject")
	store.SeedItems(it)
	svc, _ := newTestModerationService(store)
	ctx := context.Background()

	tests := []struct {
		name     string
		sub      models.ReportSubmission
		wantCode apperror.ErrorCode
	}{
		{"unknown reason", models.ReportSubmission{GalleryItemID: it.ID, Reason: "boring"}, apperror.ErrCodeValidation},
		{"bad email", models.ReportSubmission{GalleryItemID: it.ID, Reason: "spam", ReporterEmail: strPtr("nope")}, apperror.ErrCodeValidation},
		{"bad url", models.ReportSubmission{GalleryItemID: it.ID, Reason: "spam", ContentURL: strPtr("javascript:alert(1)")}, apperror.ErrCodeValidation},
		{"no item", models.ReportSubmission{Reason: "spam"}, apperror.ErrCodeValidation},
		{"missing item", models.ReportSubmission{GalleryItemID: uuid.New(), Reason: "spam"}, apperror.ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := svc.SubmitReport(ctx, tt.sub)
			assert.False(t, res.Success)
			assert.Equal(t, string(tt.wantCode), res.Code)
		})
	}
}

func TestModerationService_SubmitDMCARequest(t *testing.T) {
	store := repository.NewMemoryStore()
	svc, _ := newTestModerationService(store)
	ctx := context.Background()

	req := &models.DMCARequest{
		RequesterName:  "Studio Rights",
		RequesterEmail: " Legal@Example.com ",
		ContentURL:     "https://example.com/video/1",
		Reason:         "copyright",
		Description:    "Видео использует наши кадры без разрешения.",
	}
	res := svc.SubmitDMCARequest(ctx, req)
	assert.False(t, res.Success)
	assert.Equal(t, string(apperror.ErrCodeValidation), res.Code)
	assert.Empty(t, store.DMCARequests())

	req.GoodFaithStatement = true
	res = svc.SubmitDMCARequest(ctx, req)
	require.True(t, res.Success, res.Error)
	require.Len(t, store.DMCARequests(), 1)
	assert.Equal(t, "legal@example.com", store.DMCARequests()[0].RequesterEmail)
	assert.Equal(t, "pending", store.DMCARequests()[0].Status)
}
