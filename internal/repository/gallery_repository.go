package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/rsip-gallery/internal/models"
	"github.com/ignatzorin/rsip-gallery/internal/repository/common"
	"github.com/ignatzorin/rsip-gallery/internal/repository/query"
)

const galleryTable = "application_gallery"

const galleryColumns = `id, external_id, source_type, source_url, source_name,
	title, title_zh, description, description_zh, media_type, thumbnail_url, content_url,
	duration_seconds, published_at, content_type, deployment_maturity, educational_value,
	application_context, application_category, task_types, specific_tasks,
	functional_requirements, scene_type, environment_setting, environment_features,
	robot_names, robot_types, manufacturers, ai_summary, ai_summary_zh, view_count, featured,
	status, reviewed_at, reviewer_notes, created_at, updated_at`

// galleryFilterable - колонки, по которым разрешены фильтры и сортировка.
var galleryFilterable = query.NewColumns(
	"id", "external_id", "source_type", "title", "description", "ai_summary", "media_type",
	"published_at", "content_type", "deployment_maturity", "educational_value",
	"application_category", "task_types", "specific_tasks", "functional_requirements",
	"manufacturers", "scene_type", "environment_setting", "view_count", "featured",
	"status", "reviewed_at", "created_at", "updated_at",
)

type GalleryRepository struct {
	db *sqlx.DB
}

func NewGalleryRepository(db *sqlx.DB) *GalleryRepository {
	return &GalleryRepository{db: db}
}

// List возвращает окно выборки и точное число строк под теми же предикатами.
func (r *GalleryRepository) List(ctx context.Context, q *query.Query) ([]models.GalleryItem, int, error) {
	selectSQL, args, err := q.Select(galleryTable, galleryColumns, galleryFilterable)
	if err != nil {
		return nil, 0, fmt.Errorf("gallery repository: %w", err)
	}

	items := []models.GalleryItem{}
	if err := r.db.SelectContext(ctx, &items, selectSQL, args...); err != nil {
		return nil, 0, fmt.Errorf("gallery repository: list %w", common.TranslatePQ(err))
	}

	total, err := r.Count(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *GalleryRepository) Count(ctx context.Context, q *query.Query) (int, error) {
	countSQL, args, err := q.Count(galleryTable, galleryFilterable)
	if err != nil {
		return 0, fmt.Errorf("gallery repository: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, countSQL, args...); err != nil {
		return 0, fmt.Errorf("gallery repository: count %w", common.TranslatePQ(err))
	}
	return total, nil
}

// GetByID возвращает материал в любом статусе; ограничение публичности - забота сервиса.
func (r *GalleryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.GalleryItem, error) {
	return common.GetByID[models.GalleryItem](ctx, r.db, galleryTable, galleryColumns, id)
}

// Transition меняет статус одним условным UPDATE: строка обновляется, только если
// её текущий статус входит в allowedFrom. Параллельные модераторы не блокируются,
// побеждает последний успешный UPDATE.
func (r *GalleryRepository) Transition(ctx context.Context, id uuid.UUID, allowedFrom []string, review models.ItemReview) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE application_gallery
			SET status = $2,
				reviewer_notes = COALESCE($3, reviewer_notes),
				reviewed_at = $4,
				updated_at = $4
			WHERE id = $1 AND status = ANY($5)
		`, id, review.Status, review.ReviewerNotes, review.ReviewedAt, pq.Array(allowedFrom))
		if err != nil {
			return fmt.Errorf("gallery repository: transition %w", common.TranslatePQ(err))
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("gallery repository: transition rows %w", err)
		}
		if affected > 0 {
			return nil
		}

		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM application_gallery WHERE id = $1)`, id); err != nil {
			return fmt.Errorf("gallery repository: transition lookup %w", err)
		}
		if !exists {
			return common.ErrNotFound
		}
		return common.ErrStaleStatus
	})
}

// IncrementViewCount вызывает атомарный счётчик на стороне БД.
func (r *GalleryRepository) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `SELECT increment_gallery_view($1)`, id); err != nil {
		return fmt.Errorf("gallery repository: increment view %w", common.TranslatePQ(err))
	}
	return nil
}

// ContentTypeStats возвращает число опубликованных материалов по content_type.
// Если функция в БД не развёрнута, ошибка содержит common.ErrProcedureMissing.
func (r *GalleryRepository) ContentTypeStats(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		ContentType string `db:"content_type"`
		Count       int    `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, `SELECT content_type, count FROM get_content_type_stats()`); err != nil {
		return nil, fmt.Errorf("gallery repository: content type stats %w", common.TranslatePQ(err))
	}

	stats := make(map[string]int, len(rows))
	for _, row := range rows {
		stats[row.ContentType] = row.Count
	}
	return stats, nil
}

func (r *GalleryRepository) FilterOptions(ctx context.Context) (*models.FilterOptions, error) {
	var raw []byte
	if err := r.db.GetContext(ctx, &raw, `SELECT get_gallery_filter_options()`); err != nil {
		return nil, fmt.Errorf("gallery repository: filter options %w", common.TranslatePQ(err))
	}

	var opts models.FilterOptions
	if err := json.Unmarshal(raw, &opts); err != nil {
		return nil, fmt.Errorf("gallery repository: decode filter options %w", err)
	}
	return &opts, nil
}

// CreateSuggestion сохраняет предложение материала от посетителя.
func (r *GalleryRepository) CreateSuggestion(ctx context.Context, s *models.Suggestion) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO gallery_suggestions (url, title, description, suggested_category, suggested_tags)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, status, created_at
	`, s.URL, s.Title, s.Description, s.SuggestedCategory, s.SuggestedTags).
		Scan(&s.ID, &s.Status, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("gallery repository: create suggestion %w", common.TranslatePQ(err))
	}
	return nil
}

// Ping проверяет соединение для health-check.
func (r *GalleryRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
