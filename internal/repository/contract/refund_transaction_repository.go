package contract

import (
	"context"

	"shopnest-be/internal/model"

	"github.com/google/uuid"
)

// RefundTransactionRepository is the local idempotency ledger for refunds.
type RefundTransactionRepository interface {
	FindByRequestId(ctx context.Context, requestId uuid.UUID) (*model.RefundTransaction, error)
	Create(ctx context.Context, tx *model.RefundTransaction) error
	MarkSettled(ctx context.Context, requestId uuid.UUID, transactionId string) error
	FindByStatus(ctx context.Context, status string) ([]*model.RefundTransaction, error)
}
