package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"medidoc/docs"
	"medidoc/internal/config"
	"medidoc/internal/database"
	"medidoc/internal/database/migration"
	"medidoc/internal/extractor"
	handlers "medidoc/internal/http/handler"
	"medidoc/internal/http/middleware"
	"medidoc/internal/jobs"
	"medidoc/internal/otel"
	"medidoc/internal/repository"
	"medidoc/internal/repository/postgres"
	"medidoc/internal/service"
	"medidoc/internal/storage"
)

// @title MediDoc API
// @version 1.0
// @description Medical document intake, extraction and validation pipeline.
// @BasePath /
func main() {
	ctx := context.Background()
	loc := time.Local

	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	// Tracing degrades to a noop provider when the collector is unreachable.
	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// External OCR/AI extraction service client
	extract, err := extractor.NewHTTP(cfg.Extractor)
	if err != nil {
		log.Fatalf("failed to initialize extractor client: %v", err)
	}

	// Initialize repositories
	docRepo := postgres.NewDocumentPostgres(db)
	exRepo := postgres.NewExtractionPostgres(db)
	corrRepo := postgres.NewFieldCorrectionPostgres(db)

	// Metrics registry shared by HTTP middleware and the extraction workers
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Background extraction worker pool
	runner := jobs.NewRunner(db, docRepo, exRepo, objStore, extract,
		func(tx repository.DBTX) jobs.TxRepos {
			return jobs.TxRepos{
				Docs:        postgres.NewDocumentPostgres(tx),
				Extractions: postgres.NewExtractionPostgres(tx),
				AiRequests:  postgres.NewAiRequestPostgres(tx),
			}
		}, loc)
	dispatcher := jobs.NewDispatcher(runner, cfg.Jobs, reg, loc)
	dispatcher.Start(ctx)
	defer func() {
		if err := dispatcher.Stop(); err != nil {
			log.Printf("dispatcher shutdown: %v", err)
		}
	}()

	// Initialize services
	docSvc := service.NewDocumentService(objStore, docRepo, exRepo, corrRepo, dispatcher)
	rules := service.NewBusinessRuleValidator(cfg.HighAmountThreshold)
	valSvc := service.NewValidationService(db,
		func(tx repository.DBTX) service.TxRepos {
			return service.TxRepos{
				Docs:        postgres.NewDocumentPostgres(tx),
				Extractions: postgres.NewExtractionPostgres(tx),
				Corrections: postgres.NewFieldCorrectionPostgres(tx),
			}
		}, rules)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    int(cfg.Upload.MaxSizeBytes) + 1024*1024,
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger(loc))
	app.Use(otelfiber.Middleware())

	promMw, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to register http metrics: %v", err)
	}
	app.Use(promMw.Handler())

	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	)
	app.Get("/metrics", func(c *fiber.Ctx) error {
		metricsHandler(c.Context())
		return nil
	})

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, docSvc, valSvc, cfg.Upload)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
