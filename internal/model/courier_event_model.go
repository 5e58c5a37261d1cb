package model

import (
	"time"

	"github.com/google/uuid"
)

// CourierEvent records every webhook the carrier delivered. The unique
// EventId column is what makes replayed webhooks a no-op: the insert is
// attempted first and a conflict means the event was already applied.
type CourierEvent struct {
	Id        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	EventId   string    `gorm:"type:varchar(128);not null;uniqueIndex"`
	RequestId uuid.UUID `gorm:"type:uuid;not null;index"`
	Channel   string    `gorm:"type:varchar(16);not null"` // pickup | shipment
	Status    string    `gorm:"type:varchar(32);not null"`
	EventTime time.Time `gorm:"not null"`
	CreatedAt time.Time
}

func (CourierEvent) TableName() string {
	return "courier_events"
}
