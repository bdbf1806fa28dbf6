package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ContentReport - жалоба пользователя на материал галереи.
type ContentReport struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	GalleryItemID uuid.UUID  `db:"gallery_item_id" json:"gallery_item_id"`
	ContentURL    *string    `db:"content_url" json:"content_url,omitempty"`
	ContentTitle  *string    `db:"content_title" json:"content_title,omitempty"`
	ReporterEmail *string    `db:"reporter_email" json:"reporter_email,omitempty"`
	Reason        string     `db:"reason" json:"reason"`
	Description   *string    `db:"description" json:"description,omitempty"`
	Status        string     `db:"status" json:"status"`
	ReviewerNotes *string    `db:"reviewer_notes" json:"reviewer_notes,omitempty"`
	ReviewedBy    *string    `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// Field отдаёт значение колонки для выполнения запросов в памяти.
func (r ContentReport) Field(column string) interface{} {
	switch column {
	case "id":
		return r.ID
	case "gallery_item_id":
		return r.GalleryItemID
	case "reason":
		return r.Reason
	case "status":
		return r.Status
	case "reviewed_at":
		return optTime(r.ReviewedAt)
	case "created_at":
		return r.CreatedAt
	}
	return nil
}

// ReportSubmission - данные формы жалобы.
type ReportSubmission struct {
	GalleryItemID uuid.UUID `json:"gallery_item_id"`
	ContentURL    *string   `json:"content_url,omitempty"`
	ContentTitle  *string   `json:"content_title,omitempty"`
	ReporterEmail *string   `json:"reporter_email,omitempty"`
	Reason        string    `json:"reason"`
	Description   *string   `json:"description,omitempty"`
}

// ReportReview - изменения при рассмотрении жалобы.
type ReportReview struct {
	Status        string
	ReviewerNotes *string
	ReviewedBy    *string
	ReviewedAt    time.Time
}

// ModerationItem - материал с метаданными модерации.
type ModerationItem struct {
	GalleryItem
	ReportsCount   int             `json:"reports_count"`
	PendingReports []ContentReport `json:"pending_reports,omitempty"`
}

// MarshalJSON нужен явно: иначе поднимется GalleryItem.MarshalJSON и потеряет поля модерации.
func (m ModerationItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		galleryItemJSON
		ReportsCount   int             `json:"reports_count"`
		PendingReports []ContentReport `json:"pending_reports,omitempty"`
	}{newGalleryItemJSON(m.GalleryItem), m.ReportsCount, m.PendingReports})
}

// ItemReview - изменения при переходе статуса материала.
type ItemReview struct {
	Status        string
	ReviewerNotes *string
	ReviewedAt    time.Time
}

// ModerationStats - сводка для админ-панели.
type ModerationStats struct {
	PendingContent int `json:"pendingContent"`
	PendingReports int `json:"pendingReports"`
	ApprovedToday  int `json:"approvedToday"`
	RejectedToday  int `json:"rejectedToday"`
}

// ActionResult - результат действия модерации. Ошибки не выбрасываются,
// вызывающий проверяет Success.
type ActionResult struct {
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	Code     string `json:"code,omitempty"`
	Affected int    `json:"affected,omitempty"`
}
