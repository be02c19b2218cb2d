package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Realtime publishes user-scoped events over Redis pub/sub. The frontend
// gateway holds one subscription per connected user and forwards events
// down its websocket.
type Realtime struct {
	client *redis.Client
}

// NewRealtime constructs a Realtime publisher.
func NewRealtime(client *redis.Client) *Realtime {
	return &Realtime{client: client}
}

type realtimeFrame struct {
	Event   string   `json:"event"`
	Message Envelope `json:"message"`
}

// Publish delivers one event to the named user's channel.
func (p *Realtime) Publish(ctx context.Context, user, event string, message Envelope) error {
	payload, err := json.Marshal(realtimeFrame{Event: event, Message: message})
	if err != nil {
		return fmt.Errorf("notify: marshal realtime frame: %w", err)
	}
	if err := p.client.Publish(ctx, UserChannel(user), payload).Err(); err != nil {
		return fmt.Errorf("notify: publish to %s: %w", user, err)
	}
	return nil
}

// UserChannel names the pub/sub channel carrying a user's events.
func UserChannel(user string) string {
	return "realtime:user:" + user
}
