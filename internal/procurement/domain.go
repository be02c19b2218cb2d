package procurement

import "errors"

// Workflow states of a procurement request.
type WorkflowState string

const (
	StatePending           WorkflowState = "Pending"
	StateApproved          WorkflowState = "Approved"
	StateVendorSelected    WorkflowState = "Vendor Selected"
	StatePartiallyApproved WorkflowState = "Partially Approved"
	StateSentBack          WorkflowState = "Sent Back"
)

// Statuses of an individual line item.
type ItemStatus string

const (
	ItemPending  ItemStatus = "Pending"
	ItemApproved ItemStatus = "Approved"
	ItemSentBack ItemStatus = "Sent Back"
)

// Procurement order statuses the lifecycle hook reacts to.
type OrderStatus string

const (
	OrderDispatched OrderStatus = "Dispatched"
	OrderCancelled  OrderStatus = "Cancelled"
	OrderAmendment  OrderStatus = "PO Amendment"
)

// SentBackTypeRejected tags sent-back records created by quote rejection.
const SentBackTypeRejected = "Rejected"

// LineItem is one entry of a stored procurement or order list. JSON tags
// reproduce the field names of the existing documents so the at-rest
// shape stays byte-compatible.
type LineItem struct {
	Name     string     `json:"name"`
	Item     string     `json:"item"`
	Quantity float64    `json:"quantity"`
	Tax      float64    `json:"tax"`
	Quote    float64    `json:"quote"`
	Unit     string     `json:"unit"`
	Category string     `json:"category"`
	Status   ItemStatus `json:"status"`
	Comment  string     `json:"comment,omitempty"`
}

// CategoryRef ties a category name to its approved makes.
type CategoryRef struct {
	Name  string   `json:"name"`
	Makes []string `json:"makes"`
}

// ItemList and CategoryList wrap stored lists in the legacy
// {"list": [...]} envelope.
type ItemList struct {
	List []LineItem `json:"list"`
}

// CategoryList is the stored category collection.
type CategoryList struct {
	List []CategoryRef `json:"list"`
}

// ProcurementRequest is a document requesting quotes and approval for a
// set of items. Every line item's category must reference an entry of
// CategoryList.
type ProcurementRequest struct {
	Name            string
	Project         string
	WorkPackage     string
	WorkflowState   WorkflowState
	ProcurementList []LineItem
	CategoryList    []CategoryRef
}

// ProcurementOrder is a confirmed order placed with a vendor.
type ProcurementOrder struct {
	Name               string
	Vendor             string
	Project            string
	ProcurementRequest string
	Status             OrderStatus
	OrderList          []LineItem
}

// SentBackCategory captures items rejected from a procurement request.
// Create-only from this service.
type SentBackCategory struct {
	Name               string
	ProcurementRequest string
	Project            string
	Type               string
	CategoryList       []CategoryRef
	ItemList           []LineItem
}

// Comment is a free-text note attached to another document.
type Comment struct {
	Name             string
	CommentType      string
	ReferenceDoctype string
	ReferenceName    string
	Content          string
	Subject          string
	CommentBy        string
}

// ApprovedQuotation snapshots item pricing and vendor location at
// dispatch time. Create-only from this service.
type ApprovedQuotation struct {
	Name             string
	ItemID           string
	ItemName         string
	Vendor           string
	ProcurementOrder string
	Unit             string
	Quantity         float64
	Quote            float64
	Tax              float64
	City             string
	State            string
}

// Vendor master record fields read at dispatch time.
type Vendor struct {
	Name       string
	VendorName string
	City       string
	State      string
}

// Item master record.
type Item struct {
	Name     string
	ItemName string
	Unit     string
	Category string
}

var (
	// ErrNotFound indicates a missing document.
	ErrNotFound = errors.New("procurement: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("procurement: invalid input")
)
