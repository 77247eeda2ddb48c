package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/meridian-esg/meridian-esg/internal/app"
	"github.com/meridian-esg/meridian-esg/internal/assignment"
	"github.com/meridian-esg/meridian-esg/internal/checklist"
	"github.com/meridian-esg/meridian-esg/internal/identity"
	"github.com/meridian-esg/meridian-esg/internal/masterdata"
	"github.com/meridian-esg/meridian-esg/internal/observability"
	"github.com/meridian-esg/meridian-esg/internal/portal"
	"github.com/meridian-esg/meridian-esg/internal/profiling"
	"github.com/meridian-esg/meridian-esg/internal/rbac"
	"github.com/meridian-esg/meridian-esg/internal/shared"
	"github.com/meridian-esg/meridian-esg/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	identityProvider := identity.NewProvider(redisClient, cfg.SessionTTL)
	auditLogger := shared.NewAuditLogger(dbpool)
	metrics := observability.NewMetrics()

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	siteRepo := masterdata.NewRepository(dbpool)
	checklistRepo := checklist.NewRepository(dbpool)
	assignmentRepo := assignment.NewRepository(dbpool)
	assignmentService := assignment.NewService(assignmentRepo, checklistRepo, auditLogger)
	profilingRepo := profiling.NewRepository(dbpool)
	profilingService := profiling.NewService(profilingRepo, jobClient, auditLogger, logger)

	resolver := rbac.NewResolver(rbac.DefaultTable(), logger)
	rbacMiddleware := rbac.Middleware{Resolver: resolver, Logger: logger, Denials: metrics}

	aggregator := checklist.NewAggregator(logger)
	coordinator := portal.NewCoordinator(
		resolver,
		aggregator,
		checklistRepo,
		assignmentService,
		profilingService,
		siteRepo,
		metrics,
		logger,
	)
	portalHandler := portal.NewHandler(logger, coordinator, rbacMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		Identity:      identityProvider,
		PortalHandler: portalHandler,
		JobHandler:    jobHandler,
		Metrics:       metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
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
}
