package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/rsip-gallery/internal/domain/valueobject"
	"github.com/ignatzorin/rsip-gallery/internal/http/handlers/common"
	"github.com/ignatzorin/rsip-gallery/internal/http/middleware"
	"github.com/ignatzorin/rsip-gallery/internal/service"
)

// ModerationHandler - админские операции над материалами и жалобами.
type ModerationHandler struct {
	moderation *service.ModerationService
}

func NewModerationHandler(moderation *service.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderation: moderation}
}

type notesRequest struct {
	Notes *string `json:"notes"`
}

type flagRequest struct {
	Notes string `json:"notes" binding:"required"`
}

type rejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type resolveRequest struct {
	Action string  `json:"action" binding:"required"`
	Notes  *string `json:"notes"`
}

type bulkDismissRequest struct {
	ReportIDs []uuid.UUID `json:"report_ids" binding:"required"`
	Notes     *string     `json:"notes"`
}

// ListItems обрабатывает GET /api/admin/items?status=pending.
func (h *ModerationHandler) ListItems(c *gin.Context) {
	limit, err := common.ParseIntQuery(c, "limit", 0)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	status := c.DefaultQuery("status", string(valueobject.ItemStatusPending))

	items, err := h.moderation.ListByStatus(c.Request.Context(), status, limit)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// ListFlagged обрабатывает GET /api/admin/items/flagged.
func (h *ModerationHandler) ListFlagged(c *gin.Context) {
	limit, err := common.ParseIntQuery(c, "limit", 0)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	items, err := h.moderation.ListFlagged(c.Request.Context(), limit)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Approve обрабатывает POST /api/admin/items/:id/approve.
func (h *ModerationHandler) Approve(c *gin.Context) {
	var req notesRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	respondAction(c, h.moderation.Approve(c.Request.Context(), middleware.PathID(c), req.Notes), http.StatusOK)
}

// Reject обрабатывает POST /api/admin/items/:id/reject.
func (h *ModerationHandler) Reject(c *gin.Context) {
	var req rejectRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}
	respondAction(c, h.moderation.Reject(c.Request.Context(), middleware.PathID(c), req.Reason), http.StatusOK)
}

// Flag обрабатывает POST /api/admin/items/:id/flag.
func (h *ModerationHandler) Flag(c *gin.Context) {
	var req flagRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}
	respondAction(c, h.moderation.Flag(c.Request.Context(), middleware.PathID(c), req.Notes), http.StatusOK)
}

// Archive обрабатывает POST /api/admin/items/:id/archive.
func (h *ModerationHandler) Archive(c *gin.Context) {
	respondAction(c, h.moderation.Archive(c.Request.Context(), middleware.PathID(c)), http.StatusOK)
}

// ListReports обрабатывает GET /api/admin/reports?status=pending.
func (h *ModerationHandler) ListReports(c *gin.Context) {
	limit, err := common.ParseIntQuery(c, "limit", 0)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	status := c.DefaultQuery("status", string(valueobject.ReportStatusPending))

	reports, err := h.moderation.ListReports(c.Request.Context(), status, limit)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// ItemReports обрабатывает GET /api/admin/items/:id/reports.
func (h *ModerationHandler) ItemReports(c *gin.Context) {
	reports, err := h.moderation.ItemReports(c.Request.Context(), middleware.PathID(c))
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// Dismiss обрабатывает POST /api/admin/reports/:id/dismiss.
func (h *ModerationHandler) Dismiss(c *gin.Context) {
	var req notesRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	res := h.moderation.Dismiss(c.Request.Context(), middleware.PathID(c), middleware.AdminSubject(c), req.Notes)
	respondAction(c, res, http.StatusOK)
}

// Resolve обрабатывает POST /api/admin/reports/:id/resolve.
func (h *ModerationHandler) Resolve(c *gin.Context) {
	var req resolveRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}
	res := h.moderation.Resolve(c.Request.Context(), middleware.PathID(c), middleware.AdminSubject(c), req.Action, req.Notes)
	respondAction(c, res, http.StatusOK)
}

// BulkDismiss обрабатывает POST /api/admin/reports/bulk-dismiss.
func (h *ModerationHandler) BulkDismiss(c *gin.Context) {
	var req bulkDismissRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}
	res := h.moderation.BulkDismiss(c.Request.Context(), req.ReportIDs, middleware.AdminSubject(c), req.Notes)
	respondAction(c, res, http.StatusOK)
}

// Stats обрабатывает GET /api/admin/stats.
func (h *ModerationHandler) Stats(c *gin.Context) {
	stats, err := h.moderation.Stats(c.Request.Context())
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// bindOptionalJSON разбирает тело, если оно есть. Пустое тело допустимо.
func bindOptionalJSON(c *gin.Context, req interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := common.BindJSON(c, req); err != nil {
		common.RespondError(c, err)
		return false
	}
	return true
}
