package procurement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/nirmaan-flow/nirmaan-flow/internal/notify"
	"github.com/nirmaan-flow/nirmaan-flow/internal/shared"
)

// amendmentApprovalPath is the frontend screen reviewing amended orders.
const amendmentApprovalPath = "/frontend/approve-amended-po"

// OrderUpdated reacts to a saved procurement order. Branches are
// independent and keyed off the order's status; there is no top-level
// recovery, so any failure propagates to the caller of the hook.
func (s *Service) OrderUpdated(ctx context.Context, name string) error {
	order, err := s.repo.GetOrder(ctx, name)
	if err != nil {
		return fmt.Errorf("load procurement order %s: %w", name, err)
	}

	if order.Status == OrderDispatched {
		if err := s.snapshotQuotations(ctx, order); err != nil {
			return err
		}
	}
	if order.Status == OrderCancelled {
		if err := s.repo.DeleteOrder(ctx, order.Name); err != nil {
			return err
		}
		s.recordAudit(ctx, "PO_DELETE", order.Name, nil)
	}
	if order.Status == OrderAmendment {
		if err := s.notifyAmendment(ctx, order); err != nil {
			return err
		}
	}
	return nil
}

// snapshotQuotations materialises one Approved Quotation per order line.
// Denormalised snapshots are non-critical, so a vendor or item that no
// longer exists is skipped rather than failing the whole dispatch.
func (s *Service) snapshotQuotations(ctx context.Context, order ProcurementOrder) error {
	vendor, err := s.repo.GetVendor(ctx, order.Vendor)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Warn("vendor missing, skipping quotation snapshots",
				slog.String("order", order.Name), slog.String("vendor", order.Vendor))
			return nil
		}
		return err
	}

	created := 0
	for _, line := range order.OrderList {
		if _, err := s.repo.GetItem(ctx, line.Name); err != nil {
			if errors.Is(err, ErrNotFound) {
				s.logger.Warn("item missing, skipping quotation snapshot",
					slog.String("order", order.Name), slog.String("item", line.Name))
				continue
			}
			return err
		}
		if _, err := s.repo.InsertApprovedQuotation(ctx, ApprovedQuotation{
			Name:             newDocName("AQ"),
			ItemID:           line.Name,
			ItemName:         line.Item,
			Vendor:           order.Vendor,
			ProcurementOrder: order.Name,
			Unit:             line.Unit,
			Quantity:         line.Quantity,
			Quote:            line.Quote,
			Tax:              line.Tax,
			City:             vendor.City,
			State:            vendor.State,
		}); err != nil {
			return err
		}
		created++
	}

	s.recordAudit(ctx, "PO_DISPATCH", order.Name, map[string]any{"quotations": created})
	return nil
}

// notifyAmendment fans out amendment notifications to the order's
// reviewers: a push notification for push-enabled users, plus one
// persisted notification and one realtime event per reviewer. Each
// notification commits on its own, so a failure mid-loop leaves the
// earlier reviewers notified.
func (s *Service) notifyAmendment(ctx context.Context, order ProcurementOrder) error {
	pr, err := s.repo.GetRequest(ctx, order.ProcurementRequest)
	if err != nil {
		return fmt.Errorf("load procurement request %s: %w", order.ProcurementRequest, err)
	}
	users, err := s.notifier.AllowedUsers(ctx, order.Project)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		s.logger.Info("no project leads or admins to notify", slog.String("order", order.Name))
	}

	actor := shared.ActorFromContext(ctx)
	amendedBy, err := s.notifier.UserFullName(ctx, actor)
	if err != nil {
		return err
	}

	p := message.NewPrinter(language.English)
	pushTitle := p.Sprintf("PO: %s has been Amended", order.Name)
	for _, u := range users {
		if !u.PushEnabled {
			s.logger.Info("push notifications disabled", slog.String("user", u.Name))
			continue
		}
		body := p.Sprintf("Hi %s, PO: %s for the %s project has been amended by %s and is awaiting your review.",
			u.FullName, order.Name, order.Project, amendedBy)
		if err := s.push.SendPush(ctx, u, pushTitle, body, s.baseURL+amendmentApprovalPath); err != nil {
			return err
		}
	}

	envelope := notify.Envelope{
		Title:       p.Sprintf("PO Status Update"),
		Description: p.Sprintf("PO: %s has been amended.", order.Name),
		Project:     order.Project,
		WorkPackage: pr.WorkPackage,
		Sender:      actor,
		Docname:     order.Name,
	}
	actionURL := strings.TrimPrefix(amendmentApprovalPath, "/frontend/") + "/" + strings.ReplaceAll(order.Name, "/", "&=")

	for _, u := range users {
		n := notify.Notification{
			Recipient:     u.Name,
			RecipientRole: u.RoleProfile,
			Title:         envelope.Title,
			Description:   envelope.Description,
			Document:      "Procurement Orders",
			Docname:       order.Name,
			Project:       order.Project,
			WorkPackage:   pr.WorkPackage,
			Seen:          "false",
			Type:          "info",
			EventID:       notify.EventPOAmended,
			ActionURL:     actionURL,
		}
		if actor != shared.ActorAdministrator {
			n.Sender = actor
		}
		id, err := s.notifier.Insert(ctx, n)
		if err != nil {
			return err
		}
		envelope.NotificationID = id
		if err := s.notifier.Publish(ctx, u.Name, notify.EventPOAmended, envelope); err != nil {
			return err
		}
	}
	return nil
}
