package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/nirmaan-flow/nirmaan-flow/internal/app"
	"github.com/nirmaan-flow/nirmaan-flow/internal/notify"
	"github.com/nirmaan-flow/nirmaan-flow/internal/platform/cache"
	"github.com/nirmaan-flow/nirmaan-flow/internal/platform/db"
	"github.com/nirmaan-flow/nirmaan-flow/internal/procurement"
	"github.com/nirmaan-flow/nirmaan-flow/internal/shared"
	"github.com/nirmaan-flow/nirmaan-flow/jobs"
)

// pushQueue adapts the Asynq client to the procurement push port.
type pushQueue struct {
	client *jobs.Client
	logger *slog.Logger
}

func (q pushQueue) SendPush(ctx context.Context, user notify.AllowedUser, title, body, link string) error {
	if user.FCMToken == "" {
		q.logger.Warn("user has no registered device token", slog.String("user", user.Name))
		return nil
	}
	_, err := q.client.EnqueuePushNotify(ctx, jobs.PushNotifyPayload{
		Token: user.FCMToken,
		Title: title,
		Body:  body,
		Link:  link,
	})
	return err
}

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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	queueClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("asynq client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()

	sessions := shared.NewSessionStore(redisClient, cfg.SessionTTL)
	audit := shared.NewAuditLogger(pool)

	notifyRepo := notify.NewRepository(pool)
	realtime := notify.NewRealtime(redisClient)
	notifyService := notify.NewService(notifyRepo, realtime, logger)
	notifyHandler := notify.NewHandler(logger, notifyService)

	procRepo := procurement.NewRepository(pool)
	procService := procurement.NewService(procRepo, notifyService,
		pushQueue{client: queueClient, logger: logger}, audit, logger, cfg.AppBaseURL)
	procHandler := procurement.NewHandler(logger, procService)

	jobHandler := jobs.NewHandler(asynq.NewInspector(redisOpts), logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Sessions:           sessions,
		ProcurementHandler: procHandler,
		NotifyHandler:      notifyHandler,
		JobHandler:         jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
