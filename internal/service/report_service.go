package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/rsip-gallery/internal/domain/valueobject"
	"github.com/ignatzorin/rsip-gallery/internal/metrics"
	"github.com/ignatzorin/rsip-gallery/internal/models"
	"github.com/ignatzorin/rsip-gallery/internal/pkg/apperror"
	"github.com/ignatzorin/rsip-gallery/internal/repository/common"
	"github.com/ignatzorin/rsip-gallery/internal/repository/query"
	"github.com/ignatzorin/rsip-gallery/internal/validation"
)

const (
	bulkDismissNote   = "Bulk dismissed"
	maxBulkReportIDs  = 500
	maxItemReportsOut = 200
)

// SubmitReport сохраняет жалобу посетителя в статусе pending.
func (s *ModerationService) SubmitReport(ctx context.Context, sub models.ReportSubmission) models.ActionResult {
	if err := validateReport(sub); err != nil {
		return failure(err)
	}

	report := &models.ContentReport{
		GalleryItemID: sub.GalleryItemID,
		ContentURL:    trimmedOrNil(sub.ContentURL),
		ContentTitle:  trimmedOrNil(sub.ContentTitle),
		ReporterEmail: trimmedOrNil(sub.ReporterEmail),
		Reason:        sub.Reason,
		Description:   sub.Description,
	}
	err := storeCall(ctx, s.timeout, "report_create", func(ctx context.Context) error {
		return s.reports.Create(ctx, report)
	})
	if errors.Is(err, common.ErrNotFound) {
		return failure(apperror.ErrItemNotFound)
	}
	if err != nil {
		s.log.WithError(err).WithField("item_id", sub.GalleryItemID).Error("не удалось сохранить жалобу")
		return failure(apperror.Wrap(err, apperror.ErrCodeStoreFailure, "не удалось отправить жалобу"))
	}

	metrics.ReportsSubmitted.WithLabelValues(sub.Reason).Inc()
	s.log.WithFields(logrus.Fields{"report_id": report.ID, "reason": sub.Reason}).Info("получена жалоба")
	return models.ActionResult{Success: true}
}

// PendingReports возвращает открытые жалобы, новые первыми.
func (s *ModerationService) PendingReports(ctx context.Context, limit int) ([]models.ContentReport, error) {
	return s.ListReports(ctx, string(valueobject.ReportStatusPending), limit)
}

// ListReports возвращает жалобы в статусе status, новые первыми.
func (s *ModerationService) ListReports(ctx context.Context, status string, limit int) ([]models.ContentReport, error) {
	reportStatus, err := valueobject.NewReportStatus(status)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultModerationLimit
	}
	return s.listReports(ctx, "report_list_status", query.New().
		Eq("status", string(reportStatus)).
		OrderBy("created_at", true).
		OrderBy("id", false).
		Range(0, limit))
}

// ItemReports возвращает все жалобы на материал, новые первыми.
func (s *ModerationService) ItemReports(ctx context.Context, itemID uuid.UUID) ([]models.ContentReport, error) {
	return s.listReports(ctx, "report_list_item", query.New().
		Eq("gallery_item_id", itemID).
		OrderBy("created_at", true).
		OrderBy("id", false).
		Range(0, maxItemReportsOut))
}

// Dismiss закрывает жалобу без последствий для материала.
func (s *ModerationService) Dismiss(ctx context.Context, reportID uuid.UUID, reviewer string, notes *string) models.ActionResult {
	if err := validation.ValidateOptionalText("заметка", notes, validation.MaxReviewerNotesLength); err != nil {
		return failure(apperror.Validation("%s", err.Error()))
	}
	return s.closeReport(ctx, reportID, valueobject.ReportStatusDismissed, reviewer, trimmedOrNil(notes))
}

// Resolve закрывает жалобу с описанием принятых мер.
func (s *ModerationService) Resolve(ctx context.Context, reportID uuid.UUID, reviewer, action string, notes *string) models.ActionResult {
	action = strings.TrimSpace(action)
	if err := validation.ValidateNonEmpty("принятые меры", action); err != nil {
		return failure(apperror.Validation("%s", err.Error()))
	}
	if err := validation.ValidateOptionalText("заметка", notes, validation.MaxReviewerNotesLength); err != nil {
		return failure(apperror.Validation("%s", err.Error()))
	}
	note := ResolutionNote(action, notes)
	return s.closeReport(ctx, reportID, valueobject.ReportStatusActionTaken, reviewer, &note)
}

// ResolutionNote собирает заметку вида "Action: <action>\nNotes: <notes>".
// Строка Notes опускается, если заметок нет.
func ResolutionNote(action string, notes *string) string {
	note := "Action: " + action
	if n := trimmedOrNil(notes); n != nil {
		note += "\nNotes: " + *n
	}
	return note
}

// BulkDismiss закрывает набор жалоб одним обращением к хранилищу.
// Уже закрытые жалобы пропускаются; Affected - число действительно закрытых.
func (s *ModerationService) BulkDismiss(ctx context.Context, reportIDs []uuid.UUID, reviewer string, notes *string) models.ActionResult {
	if len(reportIDs) == 0 {
		return failure(apperror.Validation("список жалоб пуст"))
	}
	if len(reportIDs) > maxBulkReportIDs {
		return failure(apperror.Validation("не более %d жалоб за раз", maxBulkReportIDs))
	}
	if err := validation.ValidateOptionalText("заметка", notes, validation.MaxReviewerNotesLength); err != nil {
		return failure(apperror.Validation("%s", err.Error()))
	}

	note := bulkDismissNote
	if n := trimmedOrNil(notes); n != nil {
		note = *n
	}

	affected, err := s.review(ctx, reportIDs, valueobject.ReportStatusDismissed, reviewer, &note)
	if err != nil {
		s.log.WithError(err).WithField("count", len(reportIDs)).Error("не удалось закрыть жалобы")
		return failure(apperror.Wrap(err, apperror.ErrCodeStoreFailure, msgModerationUnavailable))
	}
	s.log.WithFields(logrus.Fields{"requested": len(reportIDs), "affected": affected}).Info("жалобы закрыты пакетом")
	return models.ActionResult{Success: true, Affected: affected}
}

// SubmitDMCARequest сохраняет запрос правообладателя.
func (s *ModerationService) SubmitDMCARequest(ctx context.Context, d *models.DMCARequest) models.ActionResult {
	if err := validateDMCA(d); err != nil {
		return failure(err)
	}
	d.RequesterEmail = strings.ToLower(strings.TrimSpace(d.RequesterEmail))

	err := storeCall(ctx, s.timeout, "dmca_create", func(ctx context.Context) error {
		return s.reports.CreateDMCA(ctx, d)
	})
	if err != nil {
		s.log.WithError(err).Error("не удалось сохранить DMCA-запрос")
		return failure(apperror.Wrap(err, apperror.ErrCodeStoreFailure, "не удалось отправить запрос"))
	}
	s.log.WithField("dmca_id", d.ID).Info("получен DMCA-запрос")
	return models.ActionResult{Success: true}
}

func (s *ModerationService) closeReport(ctx context.Context, id uuid.UUID, status valueobject.ReportStatus, reviewer string, notes *string) models.ActionResult {
	var found []models.ContentReport
	err := storeCall(ctx, s.timeout, "report_get", func(ctx context.Context) error {
		var err error
		found, err = s.reports.List(ctx, query.New().InIDs("id", []uuid.UUID{id}).Range(0, 1))
		return err
	})
	if err != nil {
		s.log.WithError(err).WithField("report_id", id).Error("не удалось прочитать жалобу")
		return failure(apperror.Wrap(err, apperror.ErrCodeStoreFailure, msgModerationUnavailable))
	}
	if len(found) == 0 {
		return failure(apperror.ErrReportNotFound)
	}
	if !valueobject.ReportStatus(found[0].Status).CanTransitionTo(status) {
		return failure(errReportAlreadyReviewed)
	}

	affected, err := s.review(ctx, []uuid.UUID{id}, status, reviewer, notes)
	if err != nil {
		s.log.WithError(err).WithField("report_id", id).Error("не удалось закрыть жалобу")
		return failure(apperror.Wrap(err, apperror.ErrCodeStoreFailure, msgModerationUnavailable))
	}
	// Жалобу успел закрыть другой модератор.
	if affected == 0 {
		return failure(errReportAlreadyReviewed)
	}
	return models.ActionResult{Success: true, Affected: affected}
}

var errReportAlreadyReviewed = apperror.New(apperror.ErrCodeInvalidTransition, "жалоба уже рассмотрена")

func (s *ModerationService) review(ctx context.Context, ids []uuid.UUID, status valueobject.ReportStatus, reviewer string, notes *string) (int, error) {
	review := models.ReportReview{
		Status:        string(status),
		ReviewerNotes: notes,
		ReviewedAt:    s.now(),
	}
	if reviewer != "" {
		review.ReviewedBy = &reviewer
	}

	var affected int
	err := storeCall(ctx, s.timeout, "report_review", func(ctx context.Context) error {
		var err error
		affected, err = s.reports.Review(ctx, ids, review)
		return err
	})
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		metrics.ReportsReviewed.WithLabelValues(string(status)).Add(float64(affected))
	}
	return affected, nil
}

func (s *ModerationService) listReports(ctx context.Context, op string, q *query.Query) ([]models.ContentReport, error) {
	var reports []models.ContentReport
	err := storeCall(ctx, s.timeout, op, func(ctx context.Context) error {
		var err error
		reports, err = s.reports.List(ctx, q)
		return err
	})
	if err != nil {
		return nil, s.storeFailure(err, "не удалось получить жалобы")
	}
	if reports == nil {
		reports = []models.ContentReport{}
	}
	return reports, nil
}

func validateReport(sub models.ReportSubmission) error {
	if sub.GalleryItemID == uuid.Nil {
		return apperror.Validation("не указан материал")
	}
	checks := []error{
		validation.ValidateEnum("причина", sub.Reason, models.ValidReportReasons),
		validation.ValidateOptionalEmail(sub.ReporterEmail),
		validation.ValidateOptionalURL("ссылка на материал", sub.ContentURL),
		validation.ValidateOptionalText("название материала", sub.ContentTitle, validation.MaxSuggestionTitleLength),
		validation.ValidateOptionalText("описание", sub.Description, validation.MaxReportDescriptionLength),
	}
	for _, err := range checks {
		if err != nil {
			return apperror.Validation("%s", err.Error())
		}
	}
	return nil
}

func validateDMCA(d *models.DMCARequest) error {
	if !d.GoodFaithStatement {
		return apperror.Validation("необходимо подтвердить добросовестность запроса")
	}
	checks := []error{
		validation.ValidateNonEmpty("имя", d.RequesterName),
		validation.ValidateLength("имя", d.RequesterName, 0, validation.MaxNameLength),
		validation.ValidateEmail(d.RequesterEmail),
		validation.ValidateOptionalText("компания", d.RequesterCompany, validation.MaxNameLength),
		validation.ValidateURL("ссылка на материал", d.ContentURL),
		validation.ValidateNonEmpty("основание", d.Reason),
		validation.ValidateLength("описание", strings.TrimSpace(d.Description), validation.MinDMCADescriptionLength, validation.MaxDMCADescriptionLength),
	}
	for _, err := range checks {
		if err != nil {
			return apperror.Validation("%s", err.Error())
		}
	}
	return nil
}
