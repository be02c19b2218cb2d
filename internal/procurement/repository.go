package procurement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence. List-valued fields
// live in JSONB columns whose shape matches the legacy documents.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("procurement: begin tx: %w", err)
	}
	if err := fn(ctx, &txRepo{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// GetRequest loads a procurement request with its stored lists.
func (r *Repository) GetRequest(ctx context.Context, name string) (ProcurementRequest, error) {
	var (
		pr         ProcurementRequest
		items      []byte
		categories []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT name, project, work_package, workflow_state, procurement_list, category_list
		FROM procurement_requests WHERE name = $1`, name).
		Scan(&pr.Name, &pr.Project, &pr.WorkPackage, &pr.WorkflowState, &items, &categories)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProcurementRequest{}, ErrNotFound
		}
		return ProcurementRequest{}, err
	}
	if pr.ProcurementList, err = decodeItemList(items); err != nil {
		return ProcurementRequest{}, fmt.Errorf("procurement: request %s procurement_list: %w", name, err)
	}
	if pr.CategoryList, err = decodeCategoryList(categories); err != nil {
		return ProcurementRequest{}, fmt.Errorf("procurement: request %s category_list: %w", name, err)
	}
	return pr, nil
}

// GetOrder loads a procurement order with its order list.
func (r *Repository) GetOrder(ctx context.Context, name string) (ProcurementOrder, error) {
	var (
		po    ProcurementOrder
		items []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT name, vendor, project, procurement_request, status, order_list
		FROM procurement_orders WHERE name = $1`, name).
		Scan(&po.Name, &po.Vendor, &po.Project, &po.ProcurementRequest, &po.Status, &items)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProcurementOrder{}, ErrNotFound
		}
		return ProcurementOrder{}, err
	}
	if po.OrderList, err = decodeItemList(items); err != nil {
		return ProcurementOrder{}, fmt.Errorf("procurement: order %s order_list: %w", name, err)
	}
	return po, nil
}

// GetVendor loads a vendor master record.
func (r *Repository) GetVendor(ctx context.Context, name string) (Vendor, error) {
	var v Vendor
	err := r.pool.QueryRow(ctx, `
		SELECT name, vendor_name, COALESCE(vendor_city, ''), COALESCE(vendor_state, '')
		FROM vendors WHERE name = $1`, name).
		Scan(&v.Name, &v.VendorName, &v.City, &v.State)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Vendor{}, ErrNotFound
		}
		return Vendor{}, err
	}
	return v, nil
}

// GetItem loads an item master record.
func (r *Repository) GetItem(ctx context.Context, name string) (Item, error) {
	var it Item
	err := r.pool.QueryRow(ctx, `
		SELECT name, item_name, COALESCE(unit_name, ''), COALESCE(category, '')
		FROM items WHERE name = $1`, name).
		Scan(&it.Name, &it.ItemName, &it.Unit, &it.Category)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrNotFound
		}
		return Item{}, err
	}
	return it, nil
}

// DeleteOrder removes a cancelled order outright.
func (r *Repository) DeleteOrder(ctx context.Context, name string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM procurement_orders WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("procurement: delete order %s: %w", name, err)
	}
	return nil
}

// InsertApprovedQuotation persists one dispatch-time snapshot.
func (r *Repository) InsertApprovedQuotation(ctx context.Context, aq ApprovedQuotation) (string, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO approved_quotations
			(name, item_id, item_name, vendor, procurement_order, unit, quantity, quote, tax, city, state, created)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())`,
		aq.Name, aq.ItemID, aq.ItemName, aq.Vendor, aq.ProcurementOrder,
		aq.Unit, aq.Quantity, aq.Quote, aq.Tax, aq.City, aq.State)
	if err != nil {
		return "", fmt.Errorf("procurement: insert approved quotation: %w", err)
	}
	return aq.Name, nil
}

func (t *txRepo) InsertSentBack(ctx context.Context, sb SentBackCategory) (string, error) {
	categories, err := encodeCategoryList(sb.CategoryList)
	if err != nil {
		return "", err
	}
	items, err := encodeItemList(sb.ItemList)
	if err != nil {
		return "", err
	}
	_, err = t.tx.Exec(ctx, `
		INSERT INTO sent_back_categories
			(name, procurement_request, project, type, category_list, item_list, created)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		sb.Name, sb.ProcurementRequest, sb.Project, sb.Type, categories, items)
	if err != nil {
		return "", fmt.Errorf("procurement: insert sent back category: %w", err)
	}
	return sb.Name, nil
}

func (t *txRepo) InsertComment(ctx context.Context, c Comment) (string, error) {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO nirmaan_comments
			(name, comment_type, reference_doctype, reference_name, content, subject, comment_by, created)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
		c.Name, c.CommentType, c.ReferenceDoctype, c.ReferenceName, c.Content, c.Subject, c.CommentBy)
	if err != nil {
		return "", fmt.Errorf("procurement: insert comment: %w", err)
	}
	return c.Name, nil
}

func (t *txRepo) SaveRequestList(ctx context.Context, name string, items []LineItem, state WorkflowState) error {
	encoded, err := encodeItemList(items)
	if err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, `
		UPDATE procurement_requests
		SET procurement_list = $2, workflow_state = $3, modified = NOW()
		WHERE name = $1`, name, encoded, state)
	if err != nil {
		return fmt.Errorf("procurement: save request %s: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Stored lists keep the legacy {"list": [...]} envelope.

func decodeItemList(raw []byte) ([]LineItem, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var wrapper ItemList
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, err
	}
	return wrapper.List, nil
}

func decodeCategoryList(raw []byte) ([]CategoryRef, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var wrapper CategoryList
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, err
	}
	return wrapper.List, nil
}

func encodeItemList(items []LineItem) ([]byte, error) {
	if items == nil {
		items = []LineItem{}
	}
	return json.Marshal(ItemList{List: items})
}

func encodeCategoryList(categories []CategoryRef) ([]byte, error) {
	if categories == nil {
		categories = []CategoryRef{}
	}
	return json.Marshal(CategoryList{List: categories})
}
