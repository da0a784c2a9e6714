package notifications

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/localmarthq/localmart-backend/pkg/enums"
	"github.com/localmarthq/localmart-backend/pkg/types"
)

// NewStockAlert builds a back-in-stock or low-stock alert. Stock alerts are
// urgent enough to go out on every channel.
func NewStockAlert(userID uuid.UUID, title, message string, payload *types.NotificationPayload) EmitInput {
	return EmitInput{
		UserID:   userID,
		Type:     enums.NotificationTypeStockAlert,
		Title:    title,
		Message:  message,
		Payload:  payload,
		Priority: enums.NotificationPriorityHigh,
		ViaEmail: true,
		ViaSMS:   true,
		ViaPush:  true,
	}
}

// NewOrderStatus builds an order lifecycle notification.
func NewOrderStatus(userID, orderID uuid.UUID, title, message string) EmitInput {
	return EmitInput{
		UserID:   userID,
		Type:     enums.NotificationTypeOrderStatus,
		Title:    title,
		Message:  message,
		Payload:  &types.NotificationPayload{OrderID: &orderID},
		Priority: enums.NotificationPriorityMedium,
		ViaEmail: true,
		ViaPush:  true,
	}
}

// NewPriceDrop builds a price drop alert for wishlist holders.
func NewPriceDrop(userID, productID uuid.UUID, productName string, newPriceCents int) EmitInput {
	price := newPriceCents
	return EmitInput{
		UserID:  userID,
		Type:    enums.NotificationTypePriceDrop,
		Title:   "Price drop",
		Message: fmt.Sprintf("%s is now cheaper. Grab it before it sells out.", productName),
		Payload: &types.NotificationPayload{
			ProductID:  &productID,
			PriceCents: &price,
		},
		Priority: enums.NotificationPriorityMedium,
		ViaPush:  true,
	}
}

// NewSystemAlert builds a platform-level notice with caller-chosen urgency.
func NewSystemAlert(userID uuid.UUID, title, message string, priority enums.NotificationPriority, viaEmail, viaSMS, viaPush bool) EmitInput {
	return EmitInput{
		UserID:   userID,
		Type:     enums.NotificationTypeSystemAlert,
		Title:    title,
		Message:  message,
		Priority: priority,
		ViaEmail: viaEmail,
		ViaSMS:   viaSMS,
		ViaPush:  viaPush,
	}
}
