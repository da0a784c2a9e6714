package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localmarthq/localmart-backend/pkg/enums"
	"github.com/localmarthq/localmart-backend/pkg/types"
)

// Notification stores in-app notification payloads scoped to users.
// ExpiresAt is always set by the time the record is durable; expired rows are
// excluded from unread counts but not purged here.
type Notification struct {
	ID          uuid.UUID                  `gorm:"column:id;type:uuid;primaryKey"`
	UserID      uuid.UUID                  `gorm:"column:user_id;type:uuid;not null;index"`
	Type        enums.NotificationType     `gorm:"column:type;type:text;not null"`
	Title       string                     `gorm:"column:title;not null"`
	Message     string                     `gorm:"column:message;not null"`
	Payload     *types.NotificationPayload `gorm:"column:payload;type:jsonb;serializer:json"`
	Priority    enums.NotificationPriority `gorm:"column:priority;type:text;not null;default:'medium'"`
	ViaEmail    bool                       `gorm:"column:via_email;not null;default:false"`
	ViaSMS      bool                       `gorm:"column:via_sms;not null;default:false"`
	ViaPush     bool                       `gorm:"column:via_push;not null;default:false"`
	IsRead      bool                       `gorm:"column:is_read;not null;default:false"`
	ReadAt      *time.Time                 `gorm:"column:read_at"`
	IsSent      bool                       `gorm:"column:is_sent;not null;default:false"`
	SentAt      *time.Time                 `gorm:"column:sent_at"`
	ScheduledAt *time.Time                 `gorm:"column:scheduled_at"`
	ExpiresAt   time.Time                  `gorm:"column:expires_at;not null"`
	CreatedAt   time.Time                  `gorm:"column:created_at;autoCreateTime"`
}

func (n *Notification) BeforeCreate(_ *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
