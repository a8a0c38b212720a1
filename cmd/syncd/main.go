package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dineshlahiru/forms.lk-sub000/internal/config"
	"github.com/dineshlahiru/forms.lk-sub000/internal/database"
	"github.com/dineshlahiru/forms.lk-sub000/internal/database/migration"
	handlers "github.com/dineshlahiru/forms.lk-sub000/internal/http/handler"
	"github.com/dineshlahiru/forms.lk-sub000/internal/http/middleware"
	"github.com/dineshlahiru/forms.lk-sub000/internal/localstore"
	"github.com/dineshlahiru/forms.lk-sub000/internal/otel"
	"github.com/dineshlahiru/forms.lk-sub000/internal/remote"
	remotepg "github.com/dineshlahiru/forms.lk-sub000/internal/remote/postgres"
	"github.com/dineshlahiru/forms.lk-sub000/internal/upload"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Tracing first so everything below is instrumented
	shutdownTracing, err := otel.Init(ctx, time.UTC)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	// Local record store: the durable side of the sync boundary
	store, err := localstore.OpenSQLite(cfg.LocalStore.Path)
	if err != nil {
		log.Fatalf("failed to open local store: %v", err)
	}
	defer store.Close()

	// Remote document database (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, time.UTC, cfg.Database.Host); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Remote S3-compatible blob storage (MinIO-supported)
	blobs, err := remote.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Upload pipeline wiring
	registry := prometheus.NewRegistry()
	metrics, err := upload.NewMetrics(registry)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}

	bus := upload.NewBroadcaster()
	docs := remotepg.NewDocumentPostgres(db)
	orch := upload.NewOrchestrator(store, blobs, docs, bus)
	queue := upload.NewQueue(store, orch, metrics, cfg.Sync.Workers)

	// Re-drive records interrupted by a previous crash or left failed
	if cfg.Sync.ResumeOnStart {
		started, err := queue.ResumePending(ctx)
		if err != nil {
			log.Fatalf("failed to resume pending uploads: %v", err)
		}
		log.Printf("resumed %d pending upload(s)", started)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	// Trace spans for every operator request
	app.Use(otelfiber.Middleware())

	promMiddleware, err := middleware.NewPrometheusMiddleware(registry)
	if err != nil {
		log.Fatalf("failed to register http metrics: %v", err)
	}
	app.Use(promMiddleware.Handler())

	handlers.RegisterRoutes(app, db, queue, bus)

	// Metrics are scraped on their own listener so the operator API can
	// stay private while /metrics is reachable by the scraper.
	metricsSrv := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start metrics server: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
		_ = app.ShutdownWithContext(shutdownCtx)
	}()

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
