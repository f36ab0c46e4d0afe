package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/finboard-hq/finboard/internal/app"
	"github.com/finboard-hq/finboard/internal/audit"
	"github.com/finboard-hq/finboard/internal/coa"
	"github.com/finboard-hq/finboard/internal/consol"
	consolhttp "github.com/finboard-hq/finboard/internal/consol/http"
	"github.com/finboard-hq/finboard/internal/fx"
	"github.com/finboard-hq/finboard/internal/mapping"
	"github.com/finboard-hq/finboard/internal/platform/cache"
	"github.com/finboard-hq/finboard/internal/platform/db"
	"github.com/finboard-hq/finboard/internal/platform/store"
	"github.com/finboard-hq/finboard/internal/reports"
	"github.com/finboard-hq/finboard/internal/tb"
	"github.com/finboard-hq/finboard/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	var docStore store.Store
	var redisClient *redis.Client
	switch cfg.StoreDriver {
	case app.StoreDriverPostgres:
		pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
		if err != nil {
			logger.Error("connect database", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		pg := store.NewPostgres(pool)
		if err := pg.Migrate(ctx); err != nil {
			logger.Error("migrate document store", slog.Any("error", err))
			os.Exit(1)
		}
		docStore = pg
	case app.StoreDriverRedis:
		redisClient, err = cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Error("connect redis", slog.Any("error", err))
			os.Exit(1)
		}
		docStore = store.NewRedis(redisClient)
	default:
		docStore = store.NewMemory()
	}

	// The report cache always lives in Redis when an address is reachable,
	// independent of the document store driver.
	if redisClient == nil {
		client, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("report cache disabled", slog.Any("error", err))
		} else {
			redisClient = client
		}
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	coaSvc := coa.NewService(docStore)
	fxSvc := fx.NewService(docStore)
	auditSvc := audit.NewService(docStore)
	mappingSvc := mapping.NewService(docStore, coaSvc)
	tbSvc := tb.NewService(docStore, coaSvc, fxSvc, auditSvc, logger)
	consolSvc := consol.NewService(docStore, tbSvc, fxSvc, logger)

	reportCache := consolhttp.NewCache(redisClient, cfg.ReportCacheTTL)

	var warmer consolhttp.Warmer
	if redisClient != nil {
		jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer func() { _ = jobClient.Close() }()
		warmer = jobClient
	}

	router := app.NewRouter(app.RouterParams{
		Logger:  logger,
		Config:  cfg,
		CoA:     coa.NewHandler(logger, coaSvc),
		FX:      fx.NewHandler(logger, fxSvc),
		Mapping: mapping.NewHandler(logger, mappingSvc),
		TB:      tb.NewHandler(logger, tbSvc),
		Audit:   audit.NewHandler(logger, auditSvc),
		Reports: reports.NewHandler(logger, coaSvc, tbSvc),
		Consol:  consolhttp.NewHandler(logger, consolSvc, reportCache, warmer),
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
