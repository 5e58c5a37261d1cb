package model

import (
	"time"

	"github.com/google/uuid"
)

// TimelineEntry rows are append-only; there is no update path anywhere.
type TimelineEntry struct {
	Id        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RequestId uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_timeline_request_seq,priority:1"`
	Seq       int       `gorm:"not null;uniqueIndex:idx_timeline_request_seq,priority:2"`
	Stage     string    `gorm:"type:varchar(64);not null"`
	Done      bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
}

func (TimelineEntry) TableName() string {
	return "resolution_timeline"
}

// AuditLog rows are the compliance system of record. Append-only.
type AuditLog struct {
	Id        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RequestId uuid.UUID `gorm:"type:uuid;not null;index"`
	Action    string    `gorm:"type:varchar(64);not null"`
	Actor     string    `gorm:"type:varchar(128);not null"`
	Comment   string    `gorm:"type:text"`
	CreatedAt time.Time
}

func (AuditLog) TableName() string {
	return "resolution_audit_logs"
}
