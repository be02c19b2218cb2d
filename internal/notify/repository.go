package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for notifications
// and reviewer lookups.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// AllowedUsers returns admins plus project leads permitted on the project.
// The push_notification column keeps the stored "true"/"false" strings of
// the original documents.
func (r *Repository) AllowedUsers(ctx context.Context, project string) ([]AllowedUser, error) {
	const query = `
		SELECT u.name, u.full_name, u.role_profile, u.push_notification, COALESCE(u.fcm_token, '')
		FROM users u
		WHERE u.role_profile = $1
		   OR (u.role_profile = $2 AND EXISTS (
		        SELECT 1 FROM user_permissions p
		        WHERE p.user_name = u.name AND p.allow = 'Projects' AND p.for_value = $3))
		ORDER BY u.name`
	rows, err := r.pool.Query(ctx, query, RoleAdminProfile, RoleProjectLeadProfile, project)
	if err != nil {
		return nil, fmt.Errorf("notify: list allowed users: %w", err)
	}
	defer rows.Close()

	var users []AllowedUser
	for rows.Next() {
		var u AllowedUser
		var push string
		if err := rows.Scan(&u.Name, &u.FullName, &u.RoleProfile, &push, &u.FCMToken); err != nil {
			return nil, err
		}
		u.PushEnabled = push == "true"
		users = append(users, u)
	}
	return users, rows.Err()
}

// UserFullName resolves a user's display name.
func (r *Repository) UserFullName(ctx context.Context, name string) (string, error) {
	var fullName string
	err := r.pool.QueryRow(ctx, `SELECT full_name FROM users WHERE name = $1`, name).Scan(&fullName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return fullName, nil
}

// Insert persists one notification and returns its document name.
// Each insert commits on its own so a later failure in a notification
// fan-out does not undo records already written.
func (r *Repository) Insert(ctx context.Context, n Notification) (string, error) {
	if n.Name == "" {
		n.Name = "NT-" + uuid.NewString()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO nirmaan_notifications
			(name, recipient, recipient_role, sender, title, description,
			 document, docname, project, work_package, seen, type, event_id, action_url, created)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW())`,
		n.Name, n.Recipient, n.RecipientRole, n.Sender, n.Title, n.Description,
		n.Document, n.Docname, n.Project, n.WorkPackage, n.Seen, n.Type, n.EventID, n.ActionURL)
	if err != nil {
		return "", fmt.Errorf("notify: insert notification: %w", err)
	}
	return n.Name, nil
}

// ListForUser returns a user's notifications, newest first.
func (r *Repository) ListForUser(ctx context.Context, user string, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT name, recipient, recipient_role, COALESCE(sender, ''), title, description,
		       document, docname, project, work_package, seen, type, event_id, action_url
		FROM nirmaan_notifications
		WHERE recipient = $1
		ORDER BY created DESC
		LIMIT $2`, user, limit)
	if err != nil {
		return nil, fmt.Errorf("notify: list notifications: %w", err)
	}
	defer rows.Close()

	var items []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.Name, &n.Recipient, &n.RecipientRole, &n.Sender, &n.Title,
			&n.Description, &n.Document, &n.Docname, &n.Project, &n.WorkPackage,
			&n.Seen, &n.Type, &n.EventID, &n.ActionURL); err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

// MarkSeen flips a notification's seen flag.
func (r *Repository) MarkSeen(ctx context.Context, name string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE nirmaan_notifications SET seen = 'true' WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("notify: mark seen: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
