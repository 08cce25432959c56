package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/odyssey-erp/odyssey-crm/cmd/odyssey/cli"
	"github.com/odyssey-erp/odyssey-crm/internal/app"
	"github.com/odyssey-erp/odyssey-crm/internal/deals"
	"github.com/odyssey-erp/odyssey-crm/internal/deals/export"
	dealshttp "github.com/odyssey-erp/odyssey-crm/internal/deals/http"
	"github.com/odyssey-erp/odyssey-crm/internal/deals/svg"
	"github.com/odyssey-erp/odyssey-crm/internal/deals/ui"
	"github.com/odyssey-erp/odyssey-crm/internal/observability"
	"github.com/odyssey-erp/odyssey-crm/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-crm/internal/platform/db"
	"github.com/odyssey-erp/odyssey-crm/internal/shared"
	"github.com/odyssey-erp/odyssey-crm/internal/view"
	"github.com/odyssey-erp/odyssey-crm/jobs"
	"github.com/odyssey-erp/odyssey-crm/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		jobsCLI := cli.NewJobsCLI(cfg.RedisAddr)
		code := jobsCLI.Command(ctx, os.Args[2:], os.Stdout, os.Stderr)
		_ = jobsCLI.Close()
		os.Exit(code)
	}

	if err := run(ctx, stop, cfg); err != nil {
		slog.Default().Error("odyssey", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, stop context.CancelFunc, cfg *app.Config) error {
	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	source, closeSource, err := newDealsSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	dealsCache := deals.NewCache(redisClient, cfg.DealsCacheTTL)
	if err := dealsCache.ListenForInvalidation(ctx, deals.BumpChannel); err != nil {
		logger.Warn("deals cache invalidation listener", slog.Any("error", err))
	}
	dealsService := deals.NewService(source, dealsCache)

	sessionManager := shared.NewSessionManager(redisClient, "odyssey_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	navigator := shared.NewNavigator(map[string]string{ui.PipelineResource: cfg.DealsListURL})

	templates, err := view.NewEngine()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	metrics := observability.NewMetrics()

	reportClient := report.NewClient(cfg.GotenbergURL)
	reportHandler := report.NewHandler(reportClient, logger)
	pdfExporter := &export.PDFExporter{Renderer: reportClient}

	dealsHandler := dealshttp.NewHandler(
		logger,
		dealsService,
		templates,
		ui.RendererFunc(svg.Area),
		navigator,
		pdfExporter,
		csrfManager,
		loc,
	)
	dealsHandler.WithTimeout(cfg.AppRequestTimeout)
	dealsHandler.WithMetrics(metrics)

	inspector := asynq.NewInspector(cache.AsynqOpt(cfg.RedisAddr))
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		DealsHandler:   dealsHandler,
		ReportHandler:  reportHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("deals_source", cfg.DealsSource))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
	return nil
}

// newDealsSource picks the data layer named by DEALS_SOURCE.
func newDealsSource(ctx context.Context, cfg *app.Config, logger *slog.Logger) (deals.Source, func(), error) {
	if cfg.DealsSource != app.SourcePostgres {
		return deals.NewGraphQLSource(cfg.DealsGraphQLURL, cfg.DealsGraphQLToken), func() {}, nil
	}
	if cfg.PGMigrate {
		if err := db.Migrate(cfg.PGDSN); err != nil {
			return nil, nil, err
		}
		logger.Info("database migrations applied")
	}
	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{})
	if err != nil {
		return nil, nil, err
	}
	return deals.NewPostgresSource(pool), pool.Close, nil
}
