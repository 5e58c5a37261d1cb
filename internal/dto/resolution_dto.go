package dto

import (
	"time"

	"github.com/google/uuid"
)

type SubmitItemRequest struct {
	Sku       string  `json:"sku" validate:"required"`
	Name      string  `json:"name" validate:"required"`
	Qty       int     `json:"qty" validate:"required,gt=0"`
	PaidPrice float64 `json:"paid_price" validate:"required,gt=0"`
	Reason    string  `json:"reason" validate:"required"`
}

type ReplacementItemRequest struct {
	Sku  string `json:"sku" validate:"required"`
	Name string `json:"name" validate:"required"`
	Qty  int    `json:"qty" validate:"required,gt=0"`
}

type EvidenceRequest struct {
	Comment string   `json:"comment" validate:"required"`
	Images  []string `json:"images" validate:"required,min=1,dive,url"`
	Video   string   `json:"video" validate:"omitempty,url"`
}

type SubmitResolutionRequest struct {
	OrderId          string                   `json:"order_id" validate:"required"`
	Type             string                   `json:"type" validate:"required,oneof=return replacement"`
	RefundMethod     string                   `json:"refund_method" validate:"omitempty,oneof=original_payment store_wallet"`
	Items            []SubmitItemRequest      `json:"items" validate:"required,min=1,dive"`
	ReplacementItems []ReplacementItemRequest `json:"replacement_items" validate:"omitempty,dive"`
	Evidence         EvidenceRequest          `json:"evidence" validate:"required"`
}

type RejectResolutionRequest struct {
	Comment string `json:"comment" validate:"required"`
}

type VerifyItemRequest struct {
	Sku       string `json:"sku" validate:"required"`
	Condition string `json:"condition" validate:"required,oneof=good damaged"`
}

type VerifyResolveRequest struct {
	Items       []VerifyItemRequest `json:"items" validate:"required,min=1,dive"`
	StockAction string              `json:"stock_action" validate:"required,oneof=restock discard"`
	Comment     string              `json:"comment"`
}

// CourierWebhookRequest is the carrier's status callback payload.
type CourierWebhookRequest struct {
	EventId   string    `json:"event_id" validate:"required"`
	RequestId uuid.UUID `json:"request_id" validate:"required"`
	Channel   string    `json:"channel" validate:"required,oneof=pickup shipment"`
	Status    string    `json:"status" validate:"required"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
}

// RefundReconcileMessage is the background-bus payload that asks the
// reconciler to confirm an in-doubt refund against the gateway.
type RefundReconcileMessage struct {
	RequestId uuid.UUID `json:"request_id"`
}

type ListResolutionQuery struct {
	Status  string `query:"status"`
	Type    string `query:"type"`
	OrderId string `query:"order_id"`
	Page    int    `query:"page"`
	Limit   int    `query:"limit"`
}

type PickupResponse struct {
	Partner       string     `json:"partner"`
	Awb           string     `json:"awb"`
	ScheduledDate *time.Time `json:"scheduled_date,omitempty"`
	Status        string     `json:"status"`
}

type ShipmentResponse struct {
	Partner string `json:"partner"`
	Awb     string `json:"awb"`
	Status  string `json:"status"`
}

type RefundResponse struct {
	Method        string     `json:"method"`
	Amount        float64    `json:"amount"`
	TransactionId string     `json:"transaction_id"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

type TimelineEntryResponse struct {
	Seq       int       `json:"seq"`
	Stage     string    `json:"stage"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"created_at"`
}

type AuditEntryResponse struct {
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ResolutionItemResponse struct {
	Sku       string  `json:"sku"`
	Name      string  `json:"name"`
	Qty       int     `json:"qty"`
	PaidPrice float64 `json:"paid_price"`
	Reason    string  `json:"reason"`
	Condition string  `json:"condition,omitempty"`
}

type ReplacementItemResponse struct {
	Sku  string `json:"sku"`
	Name string `json:"name"`
	Qty  int    `json:"qty"`
}

type EvidenceResponse struct {
	Comment string   `json:"comment"`
	Images  []string `json:"images"`
	Video   string   `json:"video,omitempty"`
}

type ResolutionResponse struct {
	Id           uuid.UUID `json:"id"`
	OrderId      string    `json:"order_id"`
	CustomerId   uuid.UUID `json:"customer_id"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
	RequestDate  time.Time `json:"request_date"`
	AdminComment string    `json:"admin_comment,omitempty"`

	Items            []ResolutionItemResponse  `json:"items"`
	ReplacementItems []ReplacementItemResponse `json:"replacement_items,omitempty"`
	Evidence         EvidenceResponse          `json:"evidence"`

	Pickup   *PickupResponse   `json:"pickup,omitempty"`
	Shipment *ShipmentResponse `json:"shipment,omitempty"`
	Refund   *RefundResponse   `json:"refund,omitempty"`

	Timeline []TimelineEntryResponse `json:"timeline,omitempty"`
	AuditLog []AuditEntryResponse    `json:"audit_log,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ListResolutionResponse struct {
	Items      []ResolutionResponse `json:"items"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	Limit      int                  `json:"limit"`
	TotalPages int                  `json:"total_pages"`
}
