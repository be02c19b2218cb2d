package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nirmaan-flow/nirmaan-flow/internal/push"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypePushNotify delivers one push notification.
	TaskTypePushNotify = "push:notify"
	// TaskTypeNotifyPrune removes old seen notifications.
	TaskTypeNotifyPrune = "notify:prune"
)

// notificationRetention bounds how long seen notifications are kept.
const notificationRetention = 90 * 24 * time.Hour

// PushNotifyPayload describes one push notification delivery.
type PushNotifyPayload struct {
	Token string `json:"token"`
	Title string `json:"title"`
	Body  string `json:"body"`
	Link  string `json:"link"`
}

// NewPushNotifyTask constructs an Asynq task.
func NewPushNotifyTask(payload PushNotifyPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePushNotify, data), nil
}

// NewNotifyPruneTask constructs the retention task.
func NewNotifyPruneTask() *asynq.Task {
	return asynq.NewTask(TaskTypeNotifyPrune, nil)
}

// PushSender abstracts FCM delivery for the worker.
type PushSender interface {
	Send(ctx context.Context, msg push.Message) error
}

// NewPushNotifyHandler processes TaskTypePushNotify tasks. A nil sender
// downgrades delivery to a logged no-op so the worker can run without
// Firebase credentials in development.
func NewPushNotifyHandler(sender PushSender, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload PushNotifyPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if sender == nil {
			logger.Warn("push sender not configured, dropping notification",
				slog.String("title", payload.Title))
			return nil
		}
		return sender.Send(ctx, push.Message{
			Token: payload.Token,
			Title: payload.Title,
			Body:  payload.Body,
			Link:  payload.Link,
		})
	}
}

// NewNotifyPruneHandler processes TaskTypeNotifyPrune tasks.
func NewNotifyPruneHandler(pool *pgxpool.Pool, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		cutoff := time.Now().Add(-notificationRetention)
		tag, err := pool.Exec(ctx, `DELETE FROM nirmaan_notifications WHERE seen = 'true' AND created < $1`, cutoff)
		if err != nil {
			return err
		}
		logger.Info("pruned notifications", slog.Int64("removed", tag.RowsAffected()))
		return nil
	}
}
