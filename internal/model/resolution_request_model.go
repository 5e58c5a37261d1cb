package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ResolutionRequest is the persisted shape of a return/replacement case.
// Pickup, shipment and refund sub-records are flattened into columns so a
// status change and its side-effect fields commit in one UPDATE guarded by
// the status compare-and-swap.
type ResolutionRequest struct {
	Id           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderId      string    `gorm:"type:varchar(64);not null;index"`
	CustomerId   uuid.UUID `gorm:"type:uuid;not null;index"`
	Type         string    `gorm:"type:varchar(20);not null"`
	Status       string    `gorm:"type:varchar(30);not null;default:'pending';index"`
	RequestDate  time.Time `gorm:"not null"`
	AdminComment string    `gorm:"type:text"`

	OriginalItems    datatypes.JSON `gorm:"type:jsonb;not null"`
	ReplacementItems datatypes.JSON `gorm:"type:jsonb"`
	Evidence         datatypes.JSON `gorm:"type:jsonb"`

	PickupPartner       string     `gorm:"type:varchar(64)"`
	PickupAwb           string     `gorm:"type:varchar(64)"`
	PickupScheduledDate *time.Time
	PickupStatus        string     `gorm:"type:varchar(32)"`
	PickupEventAt       *time.Time

	ShipmentPartner string     `gorm:"type:varchar(64)"`
	ShipmentAwb     string     `gorm:"type:varchar(64)"`
	ShipmentStatus  string     `gorm:"type:varchar(32)"`
	ShipmentEventAt *time.Time

	RefundMethod        string     `gorm:"type:varchar(32)"`
	RefundAmount        float64    `gorm:"type:decimal(10,2)"`
	RefundTransactionId string     `gorm:"type:varchar(128)"`
	RefundCompletedAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ResolutionRequest) TableName() string {
	return "resolution_requests"
}
