package entity

import (
	"time"

	"github.com/google/uuid"
)

// StockLevel is the per-sku ledger position.
type StockLevel struct {
	Sku        string
	Name       string
	Available  int
	WrittenOff int
	UpdatedAt  time.Time
}

// StockAdjustment records one applied restock/discard decision. The unique
// (request_id, sku) pair makes a retried verify call a no-op.
type StockAdjustment struct {
	Id        uuid.UUID
	RequestId uuid.UUID
	Sku       string
	Qty       int
	Action    StockAction
	CreatedAt time.Time
}
