package procurement

import (
	"context"
	"fmt"

	"github.com/nirmaan-flow/nirmaan-flow/internal/shared"
)

// SendBackInput carries the send-back request parameters.
type SendBackInput struct {
	ProjectID     string
	PRName        string
	SelectedItems []string
	Comments      string
}

// SendBackResult reports the created sent-back document, if any.
type SendBackResult struct {
	SentBack string
}

// SendBack partitions the request's item list, records the rejected items
// as a new Sent Back Category and moves the request's workflow state.
// All writes run in one transaction; repeating the call with the same
// selection intentionally creates another Sent Back Category, supporting
// multiple rejection rounds.
func (s *Service) SendBack(ctx context.Context, input SendBackInput) (SendBackResult, error) {
	if input.PRName == "" {
		return SendBackResult{}, fmt.Errorf("%w: pr_name required", ErrValidation)
	}
	pr, err := s.repo.GetRequest(ctx, input.PRName)
	if err != nil {
		return SendBackResult{}, fmt.Errorf("load procurement request %s: %w", input.PRName, err)
	}

	rejected, touched := partitionSelection(pr, input.SelectedItems)

	selected := make(map[string]bool, len(input.SelectedItems))
	for _, name := range input.SelectedItems {
		selected[name] = true
	}
	updated := make([]LineItem, len(pr.ProcurementList))
	for i, item := range pr.ProcurementList {
		if selected[item.Name] {
			item.Status = ItemSentBack
		}
		updated[i] = item
	}

	state := deriveWorkflowState(pr.WorkflowState, pr.ProcurementList, len(input.SelectedItems))

	var result SendBackResult
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if len(rejected) > 0 {
			name, err := tx.InsertSentBack(ctx, SentBackCategory{
				Name:               newDocName("SB"),
				ProcurementRequest: pr.Name,
				Project:            input.ProjectID,
				Type:               SentBackTypeRejected,
				CategoryList:       touched,
				ItemList:           rejected,
			})
			if err != nil {
				return err
			}
			result.SentBack = name

			if input.Comments != "" {
				if _, err := tx.InsertComment(ctx, Comment{
					Name:             newDocName("CMT"),
					CommentType:      "Comment",
					ReferenceDoctype: "Sent Back Category",
					ReferenceName:    name,
					Content:          input.Comments,
					Subject:          "creating sent-back",
					CommentBy:        shared.ActorFromContext(ctx),
				}); err != nil {
					return err
				}
			}
		}
		return tx.SaveRequestList(ctx, pr.Name, updated, state)
	})
	if err != nil {
		return SendBackResult{}, err
	}

	s.recordAudit(ctx, "PR_SEND_BACK", pr.Name, map[string]any{
		"selected": len(input.SelectedItems),
		"state":    string(state),
	})
	return result, nil
}

// partitionSelection copies each selected line into the rejected list with
// its status reset to Pending, and collects the distinct categories those
// lines touch. A category missing from the request's category list yields
// an empty makes set, never an error.
func partitionSelection(pr ProcurementRequest, selectedItems []string) ([]LineItem, []CategoryRef) {
	var rejected []LineItem
	var touched []CategoryRef
	seen := make(map[string]bool)

	for _, name := range selectedItems {
		item, ok := findItem(pr.ProcurementList, name)
		if !ok {
			continue
		}
		item.Status = ItemPending
		rejected = append(rejected, item)

		if !seen[item.Category] {
			seen[item.Category] = true
			touched = append(touched, CategoryRef{
				Name:  item.Category,
				Makes: categoryMakes(pr.CategoryList, item.Category),
			})
		}
	}
	return rejected, touched
}

func findItem(items []LineItem, name string) (LineItem, bool) {
	for _, item := range items {
		if item.Name == name {
			return item, true
		}
	}
	return LineItem{}, false
}

// categoryMakes returns the makes of the first matching category entry.
func categoryMakes(categories []CategoryRef, name string) []string {
	for _, cat := range categories {
		if cat.Name == name {
			if cat.Makes == nil {
				return []string{}
			}
			return cat.Makes
		}
	}
	return []string{}
}

// deriveWorkflowState applies the send-back precedence rules. Counts are
// taken over the statuses as they were before this update.
func deriveWorkflowState(previous WorkflowState, original []LineItem, sentBackCount int) WorkflowState {
	noApproved := true
	pendingCount := 0
	for _, item := range original {
		if item.Status == ItemApproved {
			noApproved = false
		}
		if item.Status == ItemPending {
			pendingCount++
		}
	}

	switch {
	case previous == StateVendorSelected && sentBackCount == len(original):
		return StateSentBack
	case noApproved && sentBackCount == pendingCount:
		return StateSentBack
	default:
		return StatePartiallyApproved
	}
}
