package notify

import (
	"context"
	"errors"
	"log/slog"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	AllowedUsers(ctx context.Context, project string) ([]AllowedUser, error)
	UserFullName(ctx context.Context, name string) (string, error)
	Insert(ctx context.Context, n Notification) (string, error)
	ListForUser(ctx context.Context, user string, limit int) ([]Notification, error)
	MarkSeen(ctx context.Context, name string) error
}

// PublisherPort delivers realtime events.
type PublisherPort interface {
	Publish(ctx context.Context, user, event string, message Envelope) error
}

// Service exposes the notification collaborators consumed by the
// procurement workflows and the in-app notification feed.
type Service struct {
	repo      RepositoryPort
	publisher PublisherPort
	logger    *slog.Logger
}

// NewService constructs the notification service.
func NewService(repo RepositoryPort, publisher PublisherPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, publisher: publisher, logger: logger}
}

// AllowedUsers resolves the reviewers for a project.
func (s *Service) AllowedUsers(ctx context.Context, project string) ([]AllowedUser, error) {
	return s.repo.AllowedUsers(ctx, project)
}

// UserFullName resolves a display name, falling back to the raw identity
// for users without a profile row (the Administrator account, typically).
func (s *Service) UserFullName(ctx context.Context, name string) (string, error) {
	fullName, err := s.repo.UserFullName(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return name, nil
		}
		return "", err
	}
	return fullName, nil
}

// Insert persists one notification record.
func (s *Service) Insert(ctx context.Context, n Notification) (string, error) {
	return s.repo.Insert(ctx, n)
}

// Publish emits one realtime event to the named user.
func (s *Service) Publish(ctx context.Context, user, event string, message Envelope) error {
	s.logger.Debug("publish realtime", slog.String("user", user), slog.String("event", event))
	return s.publisher.Publish(ctx, user, event, message)
}

// ListForUser returns the user's notification feed.
func (s *Service) ListForUser(ctx context.Context, user string, limit int) ([]Notification, error) {
	return s.repo.ListForUser(ctx, user, limit)
}

// MarkSeen marks one notification as read.
func (s *Service) MarkSeen(ctx context.Context, name string) error {
	return s.repo.MarkSeen(ctx, name)
}
