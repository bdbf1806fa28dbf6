package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/rsip-gallery/internal/domain/valueobject"
	"github.com/ignatzorin/rsip-gallery/internal/models"
	"github.com/ignatzorin/rsip-gallery/internal/repository/common"
	"github.com/ignatzorin/rsip-gallery/internal/repository/query"
)

// MemoryStore - хранилище в памяти с тем же поведением, что и Postgres-репозитории.
// Используется при STORE_DRIVER=memory и в тестах.
type MemoryStore struct {
	mu          sync.RWMutex
	items       map[uuid.UUID]models.GalleryItem
	reports     map[uuid.UUID]models.ContentReport
	suggestions []models.Suggestion
	dmca        []models.DMCARequest
	now         func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:   make(map[uuid.UUID]models.GalleryItem),
		reports: make(map[uuid.UUID]models.ContentReport),
		now:     time.Now,
	}
}

// Gallery возвращает представление хранилища с методами GalleryRepository.
func (s *MemoryStore) Gallery() *MemoryGalleryRepository {
	return &MemoryGalleryRepository{s: s}
}

// Reports возвращает представление хранилища с методами ReportRepository.
func (s *MemoryStore) Reports() *MemoryReportRepository {
	return &MemoryReportRepository{s: s}
}

// SeedItems добавляет материалы как есть. Пустые ID и даты создания заполняются.
func (s *MemoryStore) SeedItems(items ...models.GalleryItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		if item.CreatedAt.IsZero() {
			item.CreatedAt = s.now()
			item.UpdatedAt = item.CreatedAt
		}
		s.items[item.ID] = item
	}
}

// SeedReports добавляет жалобы как есть.
func (s *MemoryStore) SeedReports(reports ...models.ContentReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range reports {
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = s.now()
		}
		s.reports[r.ID] = r
	}
}

// Suggestions возвращает копию сохранённых предложений.
func (s *MemoryStore) Suggestions() []models.Suggestion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Suggestion(nil), s.suggestions...)
}

// DMCARequests возвращает копию сохранённых DMCA-запросов.
func (s *MemoryStore) DMCARequests() []models.DMCARequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.DMCARequest(nil), s.dmca...)
}

func (s *MemoryStore) itemSnapshot() []models.GalleryItem {
	out := make([]models.GalleryItem, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	// Порядок map случаен; фиксируем его, чтобы равные по ключам строки не прыгали.
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

func (s *MemoryStore) reportSnapshot() []models.ContentReport {
	out := make([]models.ContentReport, 0, len(s.reports))
	for _, r := range s.reports {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

type MemoryGalleryRepository struct {
	s *MemoryStore
}

func (r *MemoryGalleryRepository) List(ctx context.Context, q *query.Query) ([]models.GalleryItem, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	items, total := query.Apply(r.s.itemSnapshot(), q)
	return items, total, nil
}

func (r *MemoryGalleryRepository) Count(ctx context.Context, q *query.Query) (int, error) {
	_, total, err := r.List(ctx, q.Unbounded().Range(0, 1))
	return total, err
}

func (r *MemoryGalleryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.GalleryItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	item, ok := r.s.items[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &item, nil
}

func (r *MemoryGalleryRepository) Transition(ctx context.Context, id uuid.UUID, allowedFrom []string, review models.ItemReview) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	item, ok := r.s.items[id]
	if !ok {
		return common.ErrNotFound
	}
	if !contains(allowedFrom, item.Status) {
		return common.ErrStaleStatus
	}

	item.Status = review.Status
	if review.ReviewerNotes != nil {
		notes := *review.ReviewerNotes
		item.ReviewerNotes = &notes
	}
	reviewedAt := review.ReviewedAt
	item.ReviewedAt = &reviewedAt
	item.UpdatedAt = review.ReviewedAt
	r.s.items[id] = item
	return nil
}

func (r *MemoryGalleryRepository) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if item, ok := r.s.items[id]; ok && item.Status == string(valueobject.ItemStatusApproved) {
		item.ViewCount++
		r.s.items[id] = item
	}
	return nil
}

func (r *MemoryGalleryRepository) ContentTypeStats(ctx context.Context) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stats := make(map[string]int)
	for _, item := range r.s.items {
		if item.Status == string(valueobject.ItemStatusApproved) {
			stats[item.ContentType]++
		}
	}
	return stats, nil
}

func (r *MemoryGalleryRepository) FilterOptions(ctx context.Context) (*models.FilterOptions, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	categories, scenes, tasks, makers := newSet(), newSet(), newSet(), newSet()
	for _, item := range r.s.items {
		if item.Status != string(valueobject.ItemStatusApproved) {
			continue
		}
		categories.add(item.ApplicationCategory)
		if item.SceneType != nil {
			scenes.add(*item.SceneType)
		}
		tasks.add(item.TaskTypes...)
		makers.add(item.Manufacturers...)
	}
	return &models.FilterOptions{
		Categories:    categories.sorted(),
		SceneTypes:    scenes.sorted(),
		TaskTypes:     tasks.sorted(),
		Manufacturers: makers.sorted(),
	}, nil
}

func (r *MemoryGalleryRepository) CreateSuggestion(ctx context.Context, s *models.Suggestion) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	s.ID = uuid.New()
	s.Status = models.SubmissionStatusPending
	s.CreatedAt = r.s.now()
	r.s.suggestions = append(r.s.suggestions, *s)
	return nil
}

func (r *MemoryGalleryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

type MemoryReportRepository struct {
	s *MemoryStore
}

func (r *MemoryReportRepository) Create(ctx context.Context, report *models.ContentReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.items[report.GalleryItemID]; !ok {
		return common.ErrNotFound
	}
	report.ID = uuid.New()
	report.Status = string(valueobject.ReportStatusPending)
	report.CreatedAt = r.s.now()
	r.s.reports[report.ID] = *report
	return nil
}

func (r *MemoryReportRepository) List(ctx context.Context, q *query.Query) ([]models.ContentReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	reports, _ := query.Apply(r.s.reportSnapshot(), q)
	return reports, nil
}

func (r *MemoryReportRepository) Count(ctx context.Context, q *query.Query) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, total := query.Apply(r.s.reportSnapshot(), q.Unbounded())
	return total, nil
}

func (r *MemoryReportRepository) PendingItemIDs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	first := make(map[uuid.UUID]time.Time)
	for _, rep := range r.s.reports {
		if rep.Status != string(valueobject.ReportStatusPending) {
			continue
		}
		if t, ok := first[rep.GalleryItemID]; !ok || rep.CreatedAt.Before(t) {
			first[rep.GalleryItemID] = rep.CreatedAt
		}
	}

	ids := make([]uuid.UUID, 0, len(first))
	for id := range first {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ti, tj := first[ids[i]], first[ids[j]]
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return ids[i].String() < ids[j].String()
	})
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (r *MemoryReportRepository) PendingCounts(ctx context.Context, itemIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	wanted := make(map[uuid.UUID]bool, len(itemIDs))
	for _, id := range itemIDs {
		wanted[id] = true
	}
	counts := make(map[uuid.UUID]int)
	for _, rep := range r.s.reports {
		if rep.Status == string(valueobject.ReportStatusPending) && wanted[rep.GalleryItemID] {
			counts[rep.GalleryItemID]++
		}
	}
	return counts, nil
}

func (r *MemoryReportRepository) Review(ctx context.Context, ids []uuid.UUID, review models.ReportReview) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	affected := 0
	for _, id := range ids {
		rep, ok := r.s.reports[id]
		if !ok || rep.Status != string(valueobject.ReportStatusPending) {
			continue
		}
		rep.Status = review.Status
		rep.ReviewerNotes = review.ReviewerNotes
		rep.ReviewedBy = review.ReviewedBy
		reviewedAt := review.ReviewedAt
		rep.ReviewedAt = &reviewedAt
		r.s.reports[id] = rep
		affected++
	}
	return affected, nil
}

func (r *MemoryReportRepository) CreateDMCA(ctx context.Context, d *models.DMCARequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d.ID = uuid.New()
	d.Status = models.SubmissionStatusPending
	d.CreatedAt = r.s.now()
	r.s.dmca = append(r.s.dmca, *d)
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

type stringSet map[string]struct{}

func newSet() stringSet { return make(stringSet) }

func (s stringSet) add(values ...string) {
	for _, v := range values {
		if v != "" {
			s[v] = struct{}{}
		}
	}
}

func (s stringSet) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
