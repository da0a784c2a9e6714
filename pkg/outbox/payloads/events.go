package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/localmarthq/localmart-backend/pkg/enums"
)

// OrderCreatedEvent signals a newly placed order.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	OrderNumber   string              `json:"order_number"`
	CustomerID    uuid.UUID           `json:"customer_id"`
	ShopID        uuid.UUID           `json:"shop_id"`
	TotalCents    int                 `json:"total_cents"`
	ItemCount     int                 `json:"item_count"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
}

// OrderStatusChangedEvent is emitted on every lifecycle transition.
type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	CustomerID  uuid.UUID         `json:"customer_id"`
	ShopID      uuid.UUID         `json:"shop_id"`
	FromStatus  enums.OrderStatus `json:"from_status"`
	ToStatus    enums.OrderStatus `json:"to_status"`
	ChangedBy   *uuid.UUID        `json:"changed_by,omitempty"`
	Note        string            `json:"note,omitempty"`
}

// OrderCancelledEvent is emitted when a customer or shop cancels an order.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID  `json:"order_id"`
	OrderNumber string     `json:"order_number"`
	CustomerID  uuid.UUID  `json:"customer_id"`
	ShopID      uuid.UUID  `json:"shop_id"`
	CancelledAt time.Time  `json:"cancelled_at"`
	CancelledBy *uuid.UUID `json:"cancelled_by,omitempty"`
	Reason      string     `json:"reason,omitempty"`
}

// OrderRatedEvent carries the rating attached to a delivered order.
type OrderRatedEvent struct {
	OrderID       uuid.UUID `json:"order_id"`
	ShopID        uuid.UUID `json:"shop_id"`
	CustomerID    uuid.UUID `json:"customer_id"`
	Rating        int       `json:"rating"`
	ShopRatingAvg float64   `json:"shop_rating_avg"`
}

// ProductRestockedEvent is emitted when stock crosses from zero back to positive.
type ProductRestockedEvent struct {
	ProductID   uuid.UUID `json:"product_id"`
	ShopID      uuid.UUID `json:"shop_id"`
	ProductName string    `json:"product_name"`
	NewStock    int       `json:"new_stock"`
}

// ProductPriceChangedEvent is emitted when a product's price decreases.
type ProductPriceChangedEvent struct {
	ProductID     uuid.UUID `json:"product_id"`
	ShopID        uuid.UUID `json:"shop_id"`
	ProductName   string    `json:"product_name"`
	OldPriceCents int       `json:"old_price_cents"`
	NewPriceCents int       `json:"new_price_cents"`
}

// NotificationRequestedEvent tells downstream delivery workers to fan a
// notification out on its enabled channels.
type NotificationRequestedEvent struct {
	NotificationID uuid.UUID                  `json:"notification_id"`
	UserID         uuid.UUID                  `json:"user_id"`
	Type           enums.NotificationType     `json:"type"`
	Priority       enums.NotificationPriority `json:"priority"`
	Title          string                     `json:"title"`
	ViaEmail       bool                       `json:"via_email"`
	ViaSMS         bool                       `json:"via_sms"`
	ViaPush        bool                       `json:"via_push"`
}
