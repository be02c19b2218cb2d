package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/nirmaan-flow/nirmaan-flow/internal/push"
)

type fakeSender struct {
	sent []push.Message
	err  error
}

func (f *fakeSender) Send(ctx context.Context, msg push.Message) error {
	f.sent = append(f.sent, msg)
	return f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPushNotifyHandlerDelivers(t *testing.T) {
	sender := &fakeSender{}
	handler := NewPushNotifyHandler(sender, discardLogger())

	task, err := NewPushNotifyTask(PushNotifyPayload{
		Token: "tok-1",
		Title: "PO: PO/2024/001 has been Amended",
		Body:  "Hi Lead User, please review.",
		Link:  "http://localhost:8080/frontend/approve-amended-po",
	})
	require.NoError(t, err)

	require.NoError(t, handler(context.Background(), task))
	require.Len(t, sender.sent, 1)
	require.Equal(t, "tok-1", sender.sent[0].Token)
	require.Equal(t, "PO: PO/2024/001 has been Amended", sender.sent[0].Title)
	require.Equal(t, "http://localhost:8080/frontend/approve-amended-po", sender.sent[0].Link)
}

func TestPushNotifyHandlerMalformedPayloadSkipsRetry(t *testing.T) {
	sender := &fakeSender{}
	handler := NewPushNotifyHandler(sender, discardLogger())

	task := asynq.NewTask(TaskTypePushNotify, []byte("{not json"))
	err := handler(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Empty(t, sender.sent)
}

func TestPushNotifyHandlerNilSenderDrops(t *testing.T) {
	handler := NewPushNotifyHandler(nil, discardLogger())

	task, err := NewPushNotifyTask(PushNotifyPayload{Token: "tok-1", Title: "t"})
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))
}
