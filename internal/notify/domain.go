package notify

import "errors"

// EventPOAmended is the realtime event emitted when an order is amended.
const EventPOAmended = "po:amended"

// Role profiles whose users review amended orders.
const (
	RoleAdminProfile       = "Nirmaan Admin Profile"
	RoleProjectLeadProfile = "Nirmaan Project Lead Profile"
)

// AllowedUser is a reviewer permitted to act on a procurement order.
type AllowedUser struct {
	Name        string
	FullName    string
	RoleProfile string
	PushEnabled bool
	FCMToken    string
}

// Notification mirrors the Nirmaan Notifications document fields.
type Notification struct {
	Name          string `json:"name"`
	Recipient     string `json:"recipient"`
	RecipientRole string `json:"recipient_role"`
	Sender        string `json:"sender,omitempty"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Document      string `json:"document"`
	Docname       string `json:"docname"`
	Project       string `json:"project"`
	WorkPackage   string `json:"work_package"`
	Seen          string `json:"seen"`
	Type          string `json:"type"`
	EventID       string `json:"event_id"`
	ActionURL     string `json:"action_url"`
}

// Envelope is the message payload published alongside a realtime event.
type Envelope struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Project        string `json:"project"`
	WorkPackage    string `json:"work_package"`
	Sender         string `json:"sender"`
	Docname        string `json:"docname"`
	NotificationID string `json:"notificationId,omitempty"`
}

// ErrNotFound indicates a missing user or notification record.
var ErrNotFound = errors.New("notify: not found")
