package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ignatzorin/rsip-gallery/internal/domain/valueobject"
	"github.com/ignatzorin/rsip-gallery/internal/logger"
	"github.com/ignatzorin/rsip-gallery/internal/metrics"
	"github.com/ignatzorin/rsip-gallery/internal/models"
	"github.com/ignatzorin/rsip-gallery/internal/pkg/apperror"
	"github.com/ignatzorin/rsip-gallery/internal/repository/common"
	"github.com/ignatzorin/rsip-gallery/internal/repository/query"
	"github.com/ignatzorin/rsip-gallery/internal/validation"
)

const defaultModerationLimit = 50

const msgModerationUnavailable = "хранилище недоступно, попробуйте позже"

// ItemStore - операции над материалами, нужные модерации.
type ItemStore interface {
	List(ctx context.Context, q *query.Query) ([]models.GalleryItem, int, error)
	Count(ctx context.Context, q *query.Query) (int, error)
	Transition(ctx context.Context, id uuid.UUID, allowedFrom []string, review models.ItemReview) error
}

// ReportStore - операции над жалобами.
type ReportStore interface {
	Create(ctx context.Context, report *models.ContentReport) error
	List(ctx context.Context, q *query.Query) ([]models.ContentReport, error)
	Count(ctx context.Context, q *query.Query) (int, error)
	PendingItemIDs(ctx context.Context, limit int) ([]uuid.UUID, error)
	PendingCounts(ctx context.Context, itemIDs []uuid.UUID) (map[uuid.UUID]int, error)
	Review(ctx context.Context, ids []uuid.UUID, review models.ReportReview) (int, error)
	CreateDMCA(ctx context.Context, d *models.DMCARequest) error
}

// ModerationService управляет жизненным циклом материалов и жалоб.
// Действия не возвращают ошибок: результат описывается ActionResult.
type ModerationService struct {
	items   ItemStore
	reports ReportStore
	cache   *CacheService
	timeout time.Duration
	now     func() time.Time
	log     *logrus.Entry
}

func NewModerationService(items ItemStore, reports ReportStore, cache *CacheService, timeout time.Duration) *ModerationService {
	return &ModerationService{
		items:   items,
		reports: reports,
		cache:   cache,
		timeout: timeout,
		now:     time.Now,
		log:     logger.WithComponent("moderation"),
	}
}

// Approve публикует материал.
func (s *ModerationService) Approve(ctx context.Context, id uuid.UUID, notes *string) models.ActionResult {
	return s.transition(ctx, id, valueobject.ActionApprove, notes)
}

// Reject отклоняет материал; причина сохраняется как заметка модератора.
func (s *ModerationService) Reject(ctx context.Context, id uuid.UUID, reason string) models.ActionResult {
	if err := validation.ValidateNonEmpty("причина отклонения", reason); err != nil {
		return failure(apperror.Validation("%s", err.Error()))
	}
	return s.transition(ctx, id, valueobject.ActionReject, &reason)
}

// Flag отправляет материал на дополнительную проверку. Заметка обязательна:
// следующий модератор должен знать, что проверять.
func (s *ModerationService) Flag(ctx context.Context, id uuid.UUID, notes string) models.ActionResult {
	if err := validation.ValidateNonEmpty("заметка", notes); err != nil {
		return failure(apperror.Validation("%s", err.Error()))
	}
	return s.transition(ctx, id, valueobject.ActionFlag, &notes)
}

// Archive снимает материал с модерации без публикации.
func (s *ModerationService) Archive(ctx context.Context, id uuid.UUID) models.ActionResult {
	return s.transition(ctx, id, valueobject.ActionArchive, nil)
}

func (s *ModerationService) transition(ctx context.Context, id uuid.UUID, action valueobject.ItemAction, notes *string) models.ActionResult {
	if err := validation.ValidateOptionalText("заметка", notes, validation.MaxReviewerNotesLength); err != nil {
		return failure(apperror.Validation("%s", err.Error()))
	}
	notes = trimmedOrNil(notes)

	review := models.ItemReview{
		Status:        string(action.Target()),
		ReviewerNotes: notes,
		ReviewedAt:    s.now(),
	}
	err := storeCall(ctx, s.timeout, "item_transition", func(ctx context.Context) error {
		return s.items.Transition(ctx, id, action.AllowedFrom(), review)
	})

	switch {
	case err == nil:
		metrics.ModerationTransitions.WithLabelValues(string(action), "ok").Inc()
		s.cache.InvalidateGallery()
		s.log.WithFields(logrus.Fields{"item_id": id, "action": action}).Info("статус материала изменён")
		return models.ActionResult{Success: true}
	case errors.Is(err, common.ErrNotFound):
		metrics.ModerationTransitions.WithLabelValues(string(action), "not_found").Inc()
		return failure(apperror.ErrItemNotFound)
	case errors.Is(err, common.ErrStaleStatus):
		metrics.ModerationTransitions.WithLabelValues(string(action), "invalid").Inc()
		return failure(apperror.New(apperror.ErrCodeInvalidTransition,
			fmt.Sprintf("действие %q недоступно для текущего статуса материала", action)))
	default:
		metrics.ModerationTransitions.WithLabelValues(string(action), "error").Inc()
		s.log.WithError(err).WithFields(logrus.Fields{"item_id": id, "action": action}).Error("не удалось изменить статус материала")
		return failure(apperror.Wrap(err, apperror.ErrCodeStoreFailure, msgModerationUnavailable))
	}
}

// ListByStatus возвращает очередь модерации с числом открытых жалоб на каждый материал.
func (s *ModerationService) ListByStatus(ctx context.Context, status string, limit int) ([]models.ModerationItem, error) {
	if _, err := valueobject.NewItemStatus(status); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultModerationLimit
	}

	q := query.New().
		Eq("status", status).
		OrderBy("created_at", true).
		OrderBy("id", false).
		Range(0, limit)

	var items []models.GalleryItem
	err := storeCall(ctx, s.timeout, "moderation_list", func(ctx context.Context) error {
		var err error
		items, _, err = s.items.List(ctx, q)
		return err
	})
	if err != nil {
		return nil, s.storeFailure(err, "не удалось получить очередь модерации")
	}

	counts, err := s.pendingCounts(ctx, itemIDs(items))
	if err != nil {
		return nil, s.storeFailure(err, "не удалось посчитать жалобы")
	}

	out := make([]models.ModerationItem, 0, len(items))
	for _, item := range items {
		out = append(out, models.ModerationItem{GalleryItem: item, ReportsCount: counts[item.ID]})
	}
	return out, nil
}

// ListFlagged возвращает материалы с открытыми жалобами вместе со списком этих жалоб.
func (s *ModerationService) ListFlagged(ctx context.Context, limit int) ([]models.ModerationItem, error) {
	if limit <= 0 {
		limit = defaultModerationLimit
	}

	var ids []uuid.UUID
	err := storeCall(ctx, s.timeout, "moderation_flagged_ids", func(ctx context.Context) error {
		var err error
		ids, err = s.reports.PendingItemIDs(ctx, limit)
		return err
	})
	if err != nil {
		return nil, s.storeFailure(err, "не удалось получить материалы с жалобами")
	}
	if len(ids) == 0 {
		return []models.ModerationItem{}, nil
	}

	var (
		items   []models.GalleryItem
		reports []models.ContentReport
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return storeCall(gctx, s.timeout, "moderation_flagged_items", func(ctx context.Context) error {
			var err error
			items, _, err = s.items.List(ctx, query.New().InIDs("id", ids))
			return err
		})
	})
	g.Go(func() error {
		return storeCall(gctx, s.timeout, "moderation_flagged_reports", func(ctx context.Context) error {
			var err error
			reports, err = s.reports.List(ctx, query.New().
				InIDs("gallery_item_id", ids).
				Eq("status", string(valueobject.ReportStatusPending)).
				OrderBy("created_at", false).
				OrderBy("id", false))
			return err
		})
	})
	if err := g.Wait(); err != nil {
		return nil, s.storeFailure(err, "не удалось получить материалы с жалобами")
	}

	byItem := make(map[uuid.UUID][]models.ContentReport, len(ids))
	for _, r := range reports {
		byItem[r.GalleryItemID] = append(byItem[r.GalleryItemID], r)
	}
	found := make(map[uuid.UUID]models.GalleryItem, len(items))
	for _, item := range items {
		found[item.ID] = item
	}

	// Порядок - по самой ранней открытой жалобе.
	out := make([]models.ModerationItem, 0, len(ids))
	for _, id := range ids {
		item, ok := found[id]
		if !ok {
			continue
		}
		pending := byItem[id]
		out = append(out, models.ModerationItem{
			GalleryItem:    item,
			ReportsCount:   len(pending),
			PendingReports: pending,
		})
	}
	return out, nil
}

// Stats возвращает сводку для админ-панели. «Сегодня» начинается в полночь
// по локальному времени сервера.
func (s *ModerationService) Stats(ctx context.Context) (*models.ModerationStats, error) {
	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var stats models.ModerationStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.countItems(gctx, &stats.PendingContent, query.New().Eq("status", string(valueobject.ItemStatusPending)))
	})
	g.Go(func() error {
		return storeCall(gctx, s.timeout, "moderation_count_reports", func(ctx context.Context) error {
			var err error
			stats.PendingReports, err = s.reports.Count(ctx, query.New().Eq("status", string(valueobject.ReportStatusPending)))
			return err
		})
	})
	g.Go(func() error {
		return s.countItems(gctx, &stats.ApprovedToday, query.New().
			Eq("status", string(valueobject.ItemStatusApproved)).
			Gte("reviewed_at", midnight))
	})
	g.Go(func() error {
		return s.countItems(gctx, &stats.RejectedToday, query.New().
			Eq("status", string(valueobject.ItemStatusRejected)).
			Gte("reviewed_at", midnight))
	})
	if err := g.Wait(); err != nil {
		return nil, s.storeFailure(err, "не удалось посчитать статистику модерации")
	}
	return &stats, nil
}

func (s *ModerationService) countItems(ctx context.Context, dst *int, q *query.Query) error {
	return storeCall(ctx, s.timeout, "moderation_count_items", func(ctx context.Context) error {
		var err error
		*dst, err = s.items.Count(ctx, q)
		return err
	})
}

func (s *ModerationService) pendingCounts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]int{}, nil
	}
	var counts map[uuid.UUID]int
	err := storeCall(ctx, s.timeout, "moderation_report_counts", func(ctx context.Context) error {
		var err error
		counts, err = s.reports.PendingCounts(ctx, ids)
		return err
	})
	return counts, err
}

func (s *ModerationService) storeFailure(err error, msg string) error {
	s.log.WithError(err).Error(msg)
	return apperror.Wrap(err, apperror.ErrCodeStoreFailure, msgModerationUnavailable)
}

func itemIDs(items []models.GalleryItem) []uuid.UUID {
	ids := make([]uuid.UUID, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
