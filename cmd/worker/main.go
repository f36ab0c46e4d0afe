package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/finboard-hq/finboard/internal/app"
	"github.com/finboard-hq/finboard/internal/audit"
	"github.com/finboard-hq/finboard/internal/coa"
	"github.com/finboard-hq/finboard/internal/consol"
	"github.com/finboard-hq/finboard/internal/fx"
	"github.com/finboard-hq/finboard/internal/platform/cache"
	"github.com/finboard-hq/finboard/internal/platform/db"
	"github.com/finboard-hq/finboard/internal/platform/store"
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
	switch cfg.StoreDriver {
	case app.StoreDriverPostgres:
		pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
		if err != nil {
			logger.Error("connect database", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		docStore = store.NewPostgres(pool)
	case app.StoreDriverRedis:
		client, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Error("connect redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = client.Close() }()
		docStore = store.NewRedis(client)
	default:
		docStore = store.NewMemory()
	}

	coaSvc := coa.NewService(docStore)
	fxSvc := fx.NewService(docStore)
	auditSvc := audit.NewService(docStore)
	tbSvc := tb.NewService(docStore, coaSvc, fxSvc, auditSvc, logger)
	consolSvc := consol.NewService(docStore, tbSvc, fxSvc, logger)

	warmup := jobs.NewReportWarmupJob(consolSvc, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReportWarmup, Handler: warmup.Handle},
		},
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
