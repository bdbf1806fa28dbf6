package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/rsip-gallery/internal/models"
	"github.com/ignatzorin/rsip-gallery/internal/repository/common"
	"github.com/ignatzorin/rsip-gallery/internal/repository/query"
)

const reportTable = "content_reports"

const reportColumns = `id, gallery_item_id, content_url, content_title, reporter_email, reason,
	description, status, reviewer_notes, reviewed_by, reviewed_at, created_at`

var reportFilterable = query.NewColumns("id", "gallery_item_id", "reason", "status", "reviewed_at", "created_at")

type ReportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create сохраняет жалобу в статусе pending. Несуществующий материал даёт common.ErrNotFound.
func (r *ReportRepository) Create(ctx context.Context, report *models.ContentReport) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO content_reports (gallery_item_id, content_url, content_title, reporter_email, reason, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, status, created_at
	`, report.GalleryItemID, report.ContentURL, report.ContentTitle, report.ReporterEmail, report.Reason, report.Description).
		Scan(&report.ID, &report.Status, &report.CreatedAt)
	if err != nil {
		err = common.TranslatePQ(err)
		if errors.Is(err, common.ErrForeignKey) {
			return common.ErrNotFound
		}
		return fmt.Errorf("report repository: create %w", err)
	}
	return nil
}

func (r *ReportRepository) List(ctx context.Context, q *query.Query) ([]models.ContentReport, error) {
	selectSQL, args, err := q.Select(reportTable, reportColumns, reportFilterable)
	if err != nil {
		return nil, fmt.Errorf("report repository: %w", err)
	}

	reports := []models.ContentReport{}
	if err := r.db.SelectContext(ctx, &reports, selectSQL, args...); err != nil {
		return nil, fmt.Errorf("report repository: list %w", common.TranslatePQ(err))
	}
	return reports, nil
}

func (r *ReportRepository) Count(ctx context.Context, q *query.Query) (int, error) {
	countSQL, args, err := q.Count(reportTable, reportFilterable)
	if err != nil {
		return 0, fmt.Errorf("report repository: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, countSQL, args...); err != nil {
		return 0, fmt.Errorf("report repository: count %w", common.TranslatePQ(err))
	}
	return total, nil
}

// PendingItemIDs возвращает различные id материалов с открытыми жалобами,
// начиная с материалов, на которые пожаловались раньше всех.
func (r *ReportRepository) PendingItemIDs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	err := r.db.SelectContext(ctx, &ids, `
		SELECT gallery_item_id
		FROM content_reports
		WHERE status = 'pending'
		GROUP BY gallery_item_id
		ORDER BY MIN(created_at) ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("report repository: pending item ids %w", err)
	}
	return ids, nil
}

// PendingCounts считает открытые жалобы по набору материалов одним запросом.
// Материалы без жалоб в результат не попадают.
func (r *ReportRepository) PendingCounts(ctx context.Context, itemIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(itemIDs))
	if len(itemIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		ItemID uuid.UUID `db:"gallery_item_id"`
		Count  int       `db:"count"`
	}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT gallery_item_id, COUNT(*) AS count
		FROM content_reports
		WHERE status = 'pending' AND gallery_item_id = ANY($1::uuid[])
		GROUP BY gallery_item_id
	`, pq.Array(idStrings(itemIDs)))
	if err != nil {
		return nil, fmt.Errorf("report repository: pending counts %w", err)
	}

	for _, row := range rows {
		counts[row.ItemID] = row.Count
	}
	return counts, nil
}

// Review закрывает открытые жалобы одним UPDATE. Жалобы не в статусе pending
// не затрагиваются. Возвращает число изменённых строк.
func (r *ReportRepository) Review(ctx context.Context, ids []uuid.UUID, review models.ReportReview) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE content_reports
		SET status = $1, reviewer_notes = $2, reviewed_by = $3, reviewed_at = $4
		WHERE id = ANY($5::uuid[]) AND status = 'pending'
	`, review.Status, review.ReviewerNotes, review.ReviewedBy, review.ReviewedAt, pq.Array(idStrings(ids)))
	if err != nil {
		return 0, fmt.Errorf("report repository: review %w", common.TranslatePQ(err))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("report repository: review rows %w", err)
	}
	return int(affected), nil
}

// CreateDMCA сохраняет запрос правообладателя.
func (r *ReportRepository) CreateDMCA(ctx context.Context, d *models.DMCARequest) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO dmca_requests (requester_name, requester_email, requester_company, content_url, reason, description, good_faith_statement)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, status, created_at
	`, d.RequesterName, d.RequesterEmail, d.RequesterCompany, d.ContentURL, d.Reason, d.Description, d.GoodFaithStatement).
		Scan(&d.ID, &d.Status, &d.CreatedAt)
	if err != nil {
		return fmt.Errorf("report repository: create dmca %w", common.TranslatePQ(err))
	}
	return nil
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
