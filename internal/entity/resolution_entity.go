package entity

import (
	"time"

	"github.com/google/uuid"
)

// RequestType discriminates the two resolution flavors. Immutable after creation.
type RequestType string

const (
	RequestTypeReturn      RequestType = "return"
	RequestTypeReplacement RequestType = "replacement"
)

// Status is the lifecycle state of a resolution request.
type Status string

const (
	StatusPending           Status = "pending"
	StatusPickupScheduled   Status = "pickup_scheduled"
	StatusPickupCompleted   Status = "pickup_completed"
	StatusReplacementShipped Status = "replacement_shipped"
	StatusRefundProcessing  Status = "refund_processing"
	StatusRefunded          Status = "refunded"
	StatusDelivered         Status = "delivered"
	StatusRejected          Status = "rejected"
)

// Event names the triggers that move a request through its lifecycle.
type Event string

const (
	EventApprove         Event = "approve"
	EventReject          Event = "reject"
	EventPickupCompleted Event = "pickup_completed"
	EventVerifyRefund    Event = "verify_refund"
	EventVerifyShip      Event = "verify_ship"
	EventRefundPending   Event = "refund_pending"
	EventRefundConfirmed Event = "refund_confirmed"
	EventDelivered       Event = "delivered"
)

// ItemCondition is the physical state recorded during verification.
type ItemCondition string

const (
	ConditionGood    ItemCondition = "good"
	ConditionDamaged ItemCondition = "damaged"
)

// StockAction decides what happens to returned stock.
type StockAction string

const (
	StockActionRestock StockAction = "restock"
	StockActionDiscard StockAction = "discard"
)

// RefundMethod is how the money goes back.
type RefundMethod string

const (
	RefundMethodOriginal RefundMethod = "original_payment"
	RefundMethodWallet   RefundMethod = "store_wallet"
)

// transitions is the single source of truth for the lifecycle graph.
// Nothing else in the codebase compares status strings to decide legality.
var transitions = map[Status]map[Event]Status{
	StatusPending: {
		EventApprove: StatusPickupScheduled,
		EventReject:  StatusRejected,
	},
	StatusPickupScheduled: {
		EventPickupCompleted: StatusPickupCompleted,
	},
	StatusPickupCompleted: {
		EventVerifyRefund:  StatusRefunded,
		EventVerifyShip:    StatusReplacementShipped,
		EventRefundPending: StatusRefundProcessing,
	},
	StatusRefundProcessing: {
		EventRefundConfirmed: StatusRefunded,
	},
	StatusReplacementShipped: {
		EventDelivered: StatusDelivered,
	},
}

// NextStatus returns the target state for an event, or false when the edge
// does not exist in the transition graph.
func NextStatus(from Status, event Event) (Status, bool) {
	next, ok := transitions[from][event]
	return next, ok
}

// IsTerminal reports whether no transition leaves the given status.
func IsTerminal(s Status) bool {
	switch s {
	case StatusRejected, StatusRefunded, StatusDelivered:
		return true
	}
	return false
}

// ResolutionItem is one line of the original order under dispute.
// Immutable once the customer submits.
type ResolutionItem struct {
	Sku       string        `json:"sku"`
	Name      string        `json:"name"`
	Qty       int           `json:"qty"`
	PaidPrice float64       `json:"paid_price"`
	Reason    string        `json:"reason"`
	Condition ItemCondition `json:"condition,omitempty"`
}

// ReplacementItem is fulfilled at no charge, so it carries no resale price.
type ReplacementItem struct {
	Sku  string `json:"sku"`
	Name string `json:"name"`
	Qty  int    `json:"qty"`
}

// Evidence is the customer-supplied proof. Immutable after submission.
type Evidence struct {
	Comment string   `json:"comment"`
	Images  []string `json:"images"`
	Video   string   `json:"video,omitempty"`
}

// Pickup tracks the carrier collection leg. The AWB is assigned exactly once.
type Pickup struct {
	Partner       string     `json:"partner"`
	Awb           string     `json:"awb"`
	ScheduledDate *time.Time `json:"scheduled_date,omitempty"`
	Status        string     `json:"status"`
	// EventAt is the timestamp of the last applied carrier event, used to
	// discard stale out-of-order webhooks.
	EventAt *time.Time `json:"event_at,omitempty"`
}

// Shipment tracks the replacement delivery leg (Replacement type only).
type Shipment struct {
	Partner string     `json:"partner"`
	Awb     string     `json:"awb"`
	Status  string     `json:"status"`
	EventAt *time.Time `json:"event_at,omitempty"`
}

// RefundInfo is populated only for Return requests.
type RefundInfo struct {
	Method        RefundMethod `json:"method"`
	Amount        float64      `json:"amount"`
	TransactionId string       `json:"transaction_id"`
	CompletedAt   *time.Time   `json:"completed_at,omitempty"`
}

// TimelineEntry is one milestone on the customer-visible progress bar.
type TimelineEntry struct {
	Id        uuid.UUID `json:"id"`
	RequestId uuid.UUID `json:"request_id"`
	Seq       int       `json:"seq"`
	Stage     string    `json:"stage"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditEntry is one row of the compliance trail. Append-only.
type AuditEntry struct {
	Id        uuid.UUID `json:"id"`
	RequestId uuid.UUID `json:"request_id"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// ResolutionRequest is the unified return/replacement case record.
type ResolutionRequest struct {
	Id           uuid.UUID
	OrderId      string
	CustomerId   uuid.UUID
	Type         RequestType
	Status       Status
	RequestDate  time.Time
	AdminComment string

	OriginalItems    []ResolutionItem
	ReplacementItems []ReplacementItem
	Evidence         Evidence

	Pickup   *Pickup
	Shipment *Shipment
	Refund   *RefundInfo

	Timeline []TimelineEntry
	AuditLog []AuditEntry

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RefundCap is the maximum refundable amount: sum of paid price times qty
// over the original items. A refund must never exceed it.
func (r *ResolutionRequest) RefundCap() float64 {
	var total float64
	for _, item := range r.OriginalItems {
		total += item.PaidPrice * float64(item.Qty)
	}
	return total
}

// HasPickupAwb reports whether a pickup waybill was already assigned.
func (r *ResolutionRequest) HasPickupAwb() bool {
	return r.Pickup != nil && r.Pickup.Awb != ""
}

// HasShipmentAwb reports whether a replacement waybill was already assigned.
func (r *ResolutionRequest) HasShipmentAwb() bool {
	return r.Shipment != nil && r.Shipment.Awb != ""
}

// Timeline stage labels, in lifecycle order.
const (
	StageSubmitted         = "Request Submitted"
	StagePickupScheduled   = "Pickup Scheduled"
	StagePickupCompleted   = "Pickup Completed"
	StageItemVerified      = "Item Verified"
	StageRefundInitiated   = "Refund Initiated"
	StageRefundCompleted   = "Refund Completed"
	StageReplacementShipped = "Replacement Shipped"
	StageDelivered         = "Delivered"
	StageRejected          = "Request Rejected"
)
