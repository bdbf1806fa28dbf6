package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/rsip-gallery/internal/http/handlers/common"
	"github.com/ignatzorin/rsip-gallery/internal/models"
	"github.com/ignatzorin/rsip-gallery/internal/service"
)

// SubmissionHandler принимает формы посетителей: жалобы, предложения и DMCA-запросы.
type SubmissionHandler struct {
	gallery    *service.GalleryService
	moderation *service.ModerationService
}

func NewSubmissionHandler(gallery *service.GalleryService, moderation *service.ModerationService) *SubmissionHandler {
	return &SubmissionHandler{gallery: gallery, moderation: moderation}
}

// SubmitReport обрабатывает POST /api/reports.
func (h *SubmissionHandler) SubmitReport(c *gin.Context) {
	var req models.ReportSubmission
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}
	respondAction(c, h.moderation.SubmitReport(c.Request.Context(), req), http.StatusCreated)
}

// SubmitSuggestion обрабатывает POST /api/suggestions.
func (h *SubmissionHandler) SubmitSuggestion(c *gin.Context) {
	var req models.Suggestion
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}
	respondAction(c, h.gallery.SubmitSuggestion(c.Request.Context(), &req), http.StatusCreated)
}

// SubmitDMCA обрабатывает POST /api/dmca.
func (h *SubmissionHandler) SubmitDMCA(c *gin.Context) {
	var req models.DMCARequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}
	respondAction(c, h.moderation.SubmitDMCARequest(c.Request.Context(), &req), http.StatusCreated)
}
