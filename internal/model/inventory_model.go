package model

import (
	"time"

	"github.com/google/uuid"
)

type StockLevel struct {
	Sku        string `gorm:"type:varchar(64);primaryKey"`
	Name       string `gorm:"type:varchar(255)"`
	Available  int    `gorm:"not null;default:0"`
	WrittenOff int    `gorm:"not null;default:0"`
	UpdatedAt  time.Time
}

func (StockLevel) TableName() string {
	return "stock_levels"
}

// StockAdjustment keeps verify-and-resolve idempotent: the unique
// (request_id, sku) index turns a retried adjustment into a conflict no-op.
type StockAdjustment struct {
	Id        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RequestId uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_adjustment_request_sku,priority:1"`
	Sku       string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_adjustment_request_sku,priority:2"`
	Qty       int       `gorm:"not null"`
	Action    string    `gorm:"type:varchar(16);not null"` // restock | discard
	CreatedAt time.Time
}

func (StockAdjustment) TableName() string {
	return "stock_adjustments"
}
