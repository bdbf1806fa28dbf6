package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/rsip-gallery/internal/config"
	"github.com/ignatzorin/rsip-gallery/internal/http/handlers"
	"github.com/ignatzorin/rsip-gallery/internal/http/middleware"
	"github.com/ignatzorin/rsip-gallery/internal/metrics"
	"github.com/ignatzorin/rsip-gallery/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	galleryHandler *handlers.GalleryHandler,
	submissionHandler *handlers.SubmissionHandler,
	moderationHandler *handlers.ModerationHandler,
	consentHandler *handlers.ConsentHandler,
	healthHandler *handlers.HealthHandler,
	tokenVerifier *service.TokenVerifier,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(metrics.Middleware())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")

	gallery := api.Group("/gallery")
	{
		gallery.GET("", galleryHandler.List)
		gallery.GET("/visual", galleryHandler.Visual)
		gallery.GET("/featured", galleryHandler.Featured)
		gallery.GET("/search", galleryHandler.Search)
		gallery.GET("/filters", galleryHandler.Filters)
		gallery.GET("/stats", galleryHandler.Stats)

		item := gallery.Group("/:id", middleware.UUIDValidator("id"))
		item.GET("", galleryHandler.Get)
		item.GET("/related", galleryHandler.Related)
		item.POST("/view", galleryHandler.View)
		item.GET("/embed", galleryHandler.Embed)
	}

	// Формы посетителей ограничены по частоте.
	forms := api.Group("")
	forms.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		forms.POST("/reports", submissionHandler.SubmitReport)
		forms.POST("/suggestions", submissionHandler.SubmitSuggestion)
		forms.POST("/dmca", submissionHandler.SubmitDMCA)
	}

	api.GET("/consent", consentHandler.Get)
	api.PUT("/consent", consentHandler.Update)
	api.DELETE("/consent", consentHandler.Delete)

	admin := api.Group("/admin")
	admin.Use(middleware.AdminAuth(tokenVerifier, cfg.AdminRole))
	{
		admin.GET("/stats", moderationHandler.Stats)

		admin.GET("/items", moderationHandler.ListItems)
		admin.GET("/items/flagged", moderationHandler.ListFlagged)

		item := admin.Group("/items/:id", middleware.UUIDValidator("id"))
		item.GET("/reports", moderationHandler.ItemReports)
		item.POST("/approve", moderationHandler.Approve)
		item.POST("/reject", moderationHandler.Reject)
		item.POST("/flag", moderationHandler.Flag)
		item.POST("/archive", moderationHandler.Archive)

		admin.GET("/reports", moderationHandler.ListReports)
		admin.POST("/reports/bulk-dismiss", moderationHandler.BulkDismiss)

		report := admin.Group("/reports/:id", middleware.UUIDValidator("id"))
		report.POST("/dismiss", moderationHandler.Dismiss)
		report.POST("/resolve", moderationHandler.Resolve)
	}

	return r
}
