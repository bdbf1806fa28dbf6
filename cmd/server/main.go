package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/rsip-gallery/internal/config"
	"github.com/ignatzorin/rsip-gallery/internal/consent"
	"github.com/ignatzorin/rsip-gallery/internal/db"
	httpHandlers "github.com/ignatzorin/rsip-gallery/internal/http/handlers"
	httpRouter "github.com/ignatzorin/rsip-gallery/internal/http/router"
	"github.com/ignatzorin/rsip-gallery/internal/logger"
	"github.com/ignatzorin/rsip-gallery/internal/repository"
	"github.com/ignatzorin/rsip-gallery/internal/service"
)

// stores - хранилища, выбранные по STORE_DRIVER.
type stores struct {
	gallery interface {
		service.GalleryStore
		service.ItemStore
		httpHandlers.Pinger
	}
	reports service.ReportStore
	db      *sqlx.DB
}

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logLevel := "info"
	if cfg.IsDevelopment() {
		logLevel = "debug"
	}
	logger.Init(logLevel, cfg.IsDevelopment())
	log := logger.WithComponent("main")

	st, err := openStores(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("не удалось подготовить хранилище")
	}
	if st.db != nil {
		defer safeClose(st.db)
	}

	cache := service.NewCacheService(cfg.CacheSize, cfg.CacheTTL)
	tokenVerifier := service.NewTokenVerifier(cfg.JWTSecret)
	consentManager := consent.NewManager(cfg.ConsentVersion)

	galleryService := service.NewGalleryService(st.gallery, cache, cfg.StoreTimeout)
	moderationService := service.NewModerationService(st.gallery, st.reports, cache, cfg.StoreTimeout)

	engine := httpRouter.SetupRouter(
		cfg,
		httpHandlers.NewGalleryHandler(galleryService, consentManager),
		httpHandlers.NewSubmissionHandler(galleryService, moderationService),
		httpHandlers.NewModerationHandler(moderationService),
		httpHandlers.NewConsentHandler(consentManager, !cfg.IsDevelopment()),
		httpHandlers.NewHealthHandler(st.gallery, st.db, cfg.StoreDriver),
		tokenVerifier,
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("ошибка остановки http сервера")
		}
	}()

	log.WithField("port", cfg.HTTPPort).WithField("store", cfg.StoreDriver).Info("HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("сервер завершился с ошибкой")
	}
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		mem := repository.NewMemoryStore()
		if cfg.IsDevelopment() {
			if _, err := service.NewSeedService(mem, time.Now().UnixNano()).SeedData(120, 8); err != nil {
				return nil, err
			}
		}
		return &stores{gallery: mem.Gallery(), reports: mem.Reports()}, nil
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		safeClose(dbConn)
		return nil, err
	}
	return &stores{
		gallery: repository.NewGalleryRepository(dbConn),
		reports: repository.NewReportRepository(dbConn),
		db:      dbConn,
	}, nil
}

// safeClose закрывает соединение с базой.
func safeClose(conn *sqlx.DB) {
	if err := conn.Close(); err != nil {
		logger.Log.WithError(err).Error("ошибка закрытия базы")
	}
}
