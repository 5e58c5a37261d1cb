package model

import (
	"time"

	"github.com/google/uuid"
)

// AdminUser is a backoffice operator account. Customers authenticate
// against the storefront; this table only exists for the resolution
// dashboard.
type AdminUser struct {
	Id           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	FullName     string    `gorm:"type:varchar(255)"`
	Role         string    `gorm:"type:varchar(20);not null;default:'admin'"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (AdminUser) TableName() string {
	return "admin_users"
}
