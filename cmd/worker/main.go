package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/nirmaan-flow/nirmaan-flow/internal/app"
	"github.com/nirmaan-flow/nirmaan-flow/internal/platform/db"
	"github.com/nirmaan-flow/nirmaan-flow/internal/push"
	"github.com/nirmaan-flow/nirmaan-flow/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	var sender jobs.PushSender
	if cfg.FCMCredentials != "" {
		fcm, err := push.NewSender(cfg.FCMCredentials, logger)
		if err != nil {
			logger.Error("init push sender", slog.Any("error", err))
			os.Exit(1)
		}
		sender = fcm
	} else {
		logger.Warn("FCM_CREDENTIALS not set, push delivery disabled")
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypePushNotify, Handler: jobs.NewPushNotifyHandler(sender, logger)},
			{Type: jobs.TaskTypeNotifyPrune, Handler: jobs.NewNotifyPruneHandler(pool, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 3 * * *", Task: jobs.NewNotifyPruneTask()},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker exited", slog.Any("error", err))
		os.Exit(1)
	}
}
