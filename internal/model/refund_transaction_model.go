package model

import (
	"time"

	"github.com/google/uuid"
)

// RefundTransaction is the local idempotency record for the refund rail.
// One row per request: a retried issue call finds the row and returns the
// stored transaction id instead of debiting twice.
type RefundTransaction struct {
	Id            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RequestId     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	TransactionId string    `gorm:"type:varchar(128);not null"`
	Amount        float64   `gorm:"type:decimal(10,2);not null"`
	Method        string    `gorm:"type:varchar(32);not null"`
	Status        string    `gorm:"type:varchar(20);not null;default:'processing'"` // processing | settled
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (RefundTransaction) TableName() string {
	return "refund_transactions"
}
