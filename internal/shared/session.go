package shared

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionStore resolves opaque session tokens to user identities.
// Tokens are issued by the upstream authentication layer and shared
// through Redis; this service only reads and refreshes them.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore constructs a SessionStore.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

// Resolve returns the user bound to the token and refreshes its TTL.
func (s *SessionStore) Resolve(ctx context.Context, token string) (string, error) {
	user, err := s.client.Get(ctx, s.key(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrSessionExpired
		}
		return "", err
	}
	_ = s.client.Expire(ctx, s.key(token), s.ttl).Err()
	return user, nil
}

// Issue binds a fresh token to the user.
func (s *SessionStore) Issue(ctx context.Context, user string) (string, error) {
	token := uuid.NewString()
	if err := s.client.Set(ctx, s.key(token), user, s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Revoke removes the token.
func (s *SessionStore) Revoke(ctx context.Context, token string) error {
	err := s.client.Del(ctx, s.key(token)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

func (s *SessionStore) key(token string) string {
	return "session:" + token
}
