package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/rsip-gallery/internal/consent"
	"github.com/ignatzorin/rsip-gallery/internal/http/handlers/common"
	"github.com/ignatzorin/rsip-gallery/internal/http/middleware"
	"github.com/ignatzorin/rsip-gallery/internal/models"
	"github.com/ignatzorin/rsip-gallery/internal/pkg/apperror"
	"github.com/ignatzorin/rsip-gallery/internal/service"
)

const (
	defaultPageSize  = 24
	defaultBatchSize = 24
)

// GalleryHandler обслуживает публичную галерею.
type GalleryHandler struct {
	gallery *service.GalleryService
	consent *consent.Manager
}

func NewGalleryHandler(gallery *service.GalleryService, consentManager *consent.Manager) *GalleryHandler {
	return &GalleryHandler{gallery: gallery, consent: consentManager}
}

// List обрабатывает GET /api/gallery.
func (h *GalleryHandler) List(c *gin.Context) {
	filters, err := parseFilters(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	limit, offset, err := common.GetPagination(c, defaultPageSize)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	page, err := h.gallery.FetchItems(c.Request.Context(), filters, limit, offset, sortParam(c))
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Visual обрабатывает GET /api/gallery/visual - смешанную ленту видео и изображений.
func (h *GalleryHandler) Visual(c *gin.Context) {
	filters, err := parseFilters(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	batch, err := common.ParseIntQuery(c, "batch_size", defaultBatchSize)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	offset, err := common.ParseIntQuery(c, "offset", 0)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	if batch > common.MaxPageSize {
		batch = common.MaxPageSize
	}

	page, err := h.gallery.FetchCombinedVisualFeed(c.Request.Context(), filters, offset, batch, sortParam(c))
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Featured обрабатывает GET /api/gallery/featured.
func (h *GalleryHandler) Featured(c *gin.Context) {
	limit, err := common.ParseIntQuery(c, "limit", 0)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	items, err := h.gallery.Featured(c.Request.Context(), limit)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Search обрабатывает GET /api/gallery/search?q=.
func (h *GalleryHandler) Search(c *gin.Context) {
	limit, err := common.ParseIntQuery(c, "limit", 0)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	page, err := h.gallery.Search(c.Request.Context(), c.Query("q"), c.Query("category"), limit)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Filters обрабатывает GET /api/gallery/filters.
func (h *GalleryHandler) Filters(c *gin.Context) {
	c.JSON(http.StatusOK, h.gallery.FilterOptions(c.Request.Context()))
}

// Stats обрабатывает GET /api/gallery/stats.
func (h *GalleryHandler) Stats(c *gin.Context) {
	stats, err := h.gallery.Stats(c.Request.Context())
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Get обрабатывает GET /api/gallery/:id.
func (h *GalleryHandler) Get(c *gin.Context) {
	item, ok := h.publishedItem(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, item)
}

// Related обрабатывает GET /api/gallery/:id/related.
func (h *GalleryHandler) Related(c *gin.Context) {
	limit, err := common.ParseIntQuery(c, "limit", 0)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	item, ok := h.publishedItem(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": h.gallery.FetchRelated(c.Request.Context(), item, limit)})
}

// View обрабатывает POST /api/gallery/:id/view. Ответ не ждёт записи счётчика.
func (h *GalleryHandler) View(c *gin.Context) {
	h.gallery.IncrementViewCount(c.Request.Context(), middleware.PathID(c))
	c.Status(http.StatusAccepted)
}

// Embed обрабатывает GET /api/gallery/:id/embed. Плеер отдаётся только при согласии
// на сторонний контент, иначе описание заглушки.
func (h *GalleryHandler) Embed(c *gin.Context) {
	item, ok := h.publishedItem(c)
	if !ok {
		return
	}
	raw, _ := c.Cookie(consent.CookieName)
	c.JSON(http.StatusOK, consent.EmbedFor(item, h.consent.Parse(raw)))
}

func (h *GalleryHandler) publishedItem(c *gin.Context) (*models.GalleryItem, bool) {
	item, err := h.gallery.GetItem(c.Request.Context(), middleware.PathID(c))
	if err != nil {
		common.RespondError(c, err)
		return nil, false
	}
	if item == nil {
		common.RespondError(c, apperror.ErrItemNotFound)
		return nil, false
	}
	return item, true
}
