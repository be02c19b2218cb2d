package procurement

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nirmaan-flow/nirmaan-flow/internal/notify"
	"github.com/nirmaan-flow/nirmaan-flow/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetRequest(ctx context.Context, name string) (ProcurementRequest, error)
	GetOrder(ctx context.Context, name string) (ProcurementOrder, error)
	GetVendor(ctx context.Context, name string) (Vendor, error)
	GetItem(ctx context.Context, name string) (Item, error)
	DeleteOrder(ctx context.Context, name string) error
	InsertApprovedQuotation(ctx context.Context, aq ApprovedQuotation) (string, error)
}

// TxRepository exposes the writes of the send-back flow, which run inside
// one transaction.
type TxRepository interface {
	InsertSentBack(ctx context.Context, sb SentBackCategory) (string, error)
	InsertComment(ctx context.Context, c Comment) (string, error)
	SaveRequestList(ctx context.Context, name string, items []LineItem, state WorkflowState) error
}

// NotifierPort exposes the notification collaborators used on amendment.
type NotifierPort interface {
	AllowedUsers(ctx context.Context, project string) ([]notify.AllowedUser, error)
	UserFullName(ctx context.Context, name string) (string, error)
	Insert(ctx context.Context, n notify.Notification) (string, error)
	Publish(ctx context.Context, user, event string, message notify.Envelope) error
}

// PushPort enqueues push notification delivery for one reviewer.
type PushPort interface {
	SendPush(ctx context.Context, user notify.AllowedUser, title, body, link string) error
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates the send-back and order lifecycle workflows.
type Service struct {
	repo     RepositoryPort
	notifier NotifierPort
	push     PushPort
	audit    AuditPort
	logger   *slog.Logger
	baseURL  string
}

// NewService constructs the procurement workflow service.
func NewService(repo RepositoryPort, notifier NotifierPort, push PushPort, audit AuditPort, logger *slog.Logger, baseURL string) *Service {
	return &Service{repo: repo, notifier: notifier, push: push, audit: audit, logger: logger, baseURL: baseURL}
}

// GetRequest loads a procurement request by document name.
func (s *Service) GetRequest(ctx context.Context, name string) (ProcurementRequest, error) {
	return s.repo.GetRequest(ctx, name)
}

func (s *Service) recordAudit(ctx context.Context, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: "procurement", EntityID: entityID, Meta: meta})
}

func newDocName(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}
