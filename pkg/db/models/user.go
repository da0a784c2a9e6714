package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/localmarthq/localmart-backend/pkg/enums"
)

// User is referenced as order customer, shop owner, and notification recipient.
// Credential management lives outside this service.
type User struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Name      string         `gorm:"column:name;not null"`
	Email     string         `gorm:"column:email;not null;uniqueIndex"`
	Role      enums.UserRole `gorm:"column:role;type:text;not null;default:'customer'"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
