package payment

import "context"

// RefundResult is the gateway's acknowledgement of an issued refund.
type RefundResult struct {
	TransactionId string
	Settled       bool
}

// RefundProcessor is the payment gateway boundary for the refund rail.
// Issue must be idempotent on requestId: the gateway treats it as the
// refund key, so a retried call maps onto the refund it already executed.
type RefundProcessor interface {
	Issue(ctx context.Context, requestId, orderId string, amount float64, reason string) (*RefundResult, error)

	// Status asks the gateway whether the refund keyed by requestId went
	// through. Used by reconciliation after an Issue call timed out.
	Status(ctx context.Context, requestId, orderId string) (*RefundResult, error)
}
