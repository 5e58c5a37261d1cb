package contract

import (
	"context"

	"shopnest-be/internal/entity"

	"github.com/google/uuid"
)

// InventoryRepository is the stock ledger access used by the adjuster.
type InventoryRepository interface {
	FindStock(ctx context.Context, sku string) (*entity.StockLevel, error)

	// RecordAdjustment inserts the (requestId, sku) adjustment row. Returns
	// false when this request already adjusted the sku (idempotent retry).
	RecordAdjustment(ctx context.Context, adj *entity.StockAdjustment) (bool, error)

	// ApplyDelta moves quantities on the stock ledger. Restock raises
	// available; discard raises the write-off counter.
	ApplyDelta(ctx context.Context, sku string, qty int, action entity.StockAction) error

	FindAdjustments(ctx context.Context, requestId uuid.UUID) ([]entity.StockAdjustment, error)
}
