package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localmarthq/localmart-backend/pkg/enums"
	"github.com/localmarthq/localmart-backend/pkg/types"
)

// Order is the record of a placed purchase. Totals are computed once at
// creation and never recomputed; the rating is set at most once, only after
// delivery.
type Order struct {
	ID                   uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber          string              `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerID           uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	ShopID               uuid.UUID           `gorm:"column:shop_id;type:uuid;not null;index"`
	Status               enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	SubtotalCents        int                 `gorm:"column:subtotal_cents;not null"`
	DeliveryFeeCents     int                 `gorm:"column:delivery_fee_cents;not null"`
	TotalCents           int                 `gorm:"column:total_cents;not null"`
	PaymentMethod        enums.PaymentMethod `gorm:"column:payment_method;type:text;not null;default:'cash'"`
	DeliveryAddress      types.Address       `gorm:"column:delivery_address;type:jsonb;serializer:json"`
	DeliveryInstructions *string             `gorm:"column:delivery_instructions"`
	Rating               *int                `gorm:"column:rating"`
	Review               *string             `gorm:"column:review"`
	RatedAt              *time.Time          `gorm:"column:rated_at"`
	EstimatedDeliveryAt  *time.Time          `gorm:"column:estimated_delivery_at"`
	ActualDeliveryAt     *time.Time          `gorm:"column:actual_delivery_at"`
	CancelledAt          *time.Time          `gorm:"column:cancelled_at"`
	Items                []OrderLineItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	History              []OrderStatusEntry  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
