package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/rsip-gallery/internal/consent"
	"github.com/ignatzorin/rsip-gallery/internal/http/handlers/common"
	"github.com/ignatzorin/rsip-gallery/internal/pkg/apperror"
)

const consentCookieMaxAge = 365 * 24 * 60 * 60

// Действия формы согласия.
const (
	consentAcceptAll          = "accept_all"
	consentRejectNonEssential = "reject_non_essential"
)

type ConsentHandler struct {
	manager *consent.Manager
	secure  bool
}

func NewConsentHandler(manager *consent.Manager, secureCookie bool) *ConsentHandler {
	return &ConsentHandler{manager: manager, secure: secureCookie}
}

type consentResponse struct {
	Consent      *consent.State `json:"consent"`
	HasConsented bool           `json:"has_consented"`
	AllowsEmbeds bool           `json:"allows_embeds"`
	Version      string         `json:"version"`
}

type consentRequest struct {
	Action string `json:"action"`
	consent.Preferences
}

// Get обрабатывает GET /api/consent.
func (h *ConsentHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.response(h.current(c)))
}

// Update обрабатывает PUT /api/consent: принять всё, отклонить необязательное
// или изменить отдельные категории.
func (h *ConsentHandler) Update(c *gin.Context) {
	var req consentRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	var state consent.State
	switch req.Action {
	case consentAcceptAll:
		state = h.manager.AcceptAll()
	case consentRejectNonEssential:
		state = h.manager.RejectNonEssential()
	case "":
		state = h.manager.Update(h.current(c), req.Preferences)
	default:
		common.RespondError(c, apperror.Validation("неизвестное действие %q", req.Action))
		return
	}

	raw, err := h.manager.Encode(state)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(consent.CookieName, raw, consentCookieMaxAge, "/", "", h.secure, false)
	c.JSON(http.StatusOK, h.response(&state))
}

// Delete обрабатывает DELETE /api/consent.
func (h *ConsentHandler) Delete(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(consent.CookieName, "", -1, "/", "", h.secure, false)
	c.Status(http.StatusNoContent)
}

func (h *ConsentHandler) current(c *gin.Context) *consent.State {
	raw, err := c.Cookie(consent.CookieName)
	if err != nil {
		return nil
	}
	return h.manager.Parse(raw)
}

func (h *ConsentHandler) response(s *consent.State) consentResponse {
	return consentResponse{
		Consent:      s,
		HasConsented: s != nil,
		AllowsEmbeds: s.AllowsEmbeds(),
		Version:      h.manager.Version(),
	}
}
