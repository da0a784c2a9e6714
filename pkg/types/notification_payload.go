package types

import "github.com/google/uuid"

// NotificationPayload carries optional references attached to a notification.
// References point at other aggregates by identifier only.
type NotificationPayload struct {
	OrderID    *uuid.UUID `json:"order_id,omitempty"`
	ProductID  *uuid.UUID `json:"product_id,omitempty"`
	ShopID     *uuid.UUID `json:"shop_id,omitempty"`
	URL        *string    `json:"url,omitempty"`
	ImageURL   *string    `json:"image_url,omitempty"`
	PriceCents *int       `json:"price_cents,omitempty"`
}
