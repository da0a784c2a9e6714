package enums

import "fmt"

// NotificationType tags a notification with the domain event that produced it.
type NotificationType string

const (
	NotificationTypeStockAlert     NotificationType = "stock_alert"
	NotificationTypeOrderStatus    NotificationType = "order_status"
	NotificationTypeDeliveryUpdate NotificationType = "delivery_update"
	NotificationTypePriceDrop      NotificationType = "price_drop"
	NotificationTypeNewProduct     NotificationType = "new_product"
	NotificationTypePromotion      NotificationType = "promotion"
	NotificationTypeSystemAlert    NotificationType = "system_alert"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeStockAlert,
	NotificationTypeOrderStatus,
	NotificationTypeDeliveryUpdate,
	NotificationTypePriceDrop,
	NotificationTypeNewProduct,
	NotificationTypePromotion,
	NotificationTypeSystemAlert,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
