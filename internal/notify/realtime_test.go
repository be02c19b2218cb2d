package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRealtimePublish(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	sub := client.Subscribe(ctx, UserChannel("lead@example.com"))
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	realtime := NewRealtime(client)
	err = realtime.Publish(ctx, "lead@example.com", EventPOAmended, Envelope{
		Title:          "PO Status Update",
		Description:    "PO: PO/2024/001 has been amended.",
		Project:        "PROJ-1",
		Docname:        "PO/2024/001",
		NotificationID: "NT-1",
	})
	require.NoError(t, err)

	select {
	case msg := <-sub.Channel():
		var frame struct {
			Event   string   `json:"event"`
			Message Envelope `json:"message"`
		}
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &frame))
		require.Equal(t, EventPOAmended, frame.Event)
		require.Equal(t, "PO/2024/001", frame.Message.Docname)
		require.Equal(t, "NT-1", frame.Message.NotificationID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for realtime event")
	}
}

func TestUserChannel(t *testing.T) {
	require.Equal(t, "realtime:user:lead@example.com", UserChannel("lead@example.com"))
}
