package orders

import (
	"fmt"

	"github.com/localmarthq/localmart-backend/pkg/enums"
)

type statusMessage struct {
	Title   string
	Message string
}

// customerStatusMessages is the fixed copy table for customer-facing
// lifecycle notifications. Statuses outside the table fall back to
// genericStatusMessage.
var customerStatusMessages = map[enums.OrderStatus]statusMessage{
	enums.OrderStatusConfirmed: {
		Title:   "Order confirmed",
		Message: "Your order %s has been confirmed by the shop.",
	},
	enums.OrderStatusPreparing: {
		Title:   "Order being prepared",
		Message: "The shop is preparing your order %s.",
	},
	enums.OrderStatusReadyForPickup: {
		Title:   "Order ready",
		Message: "Your order %s is ready for pickup.",
	},
	enums.OrderStatusOutForDelivery: {
		Title:   "Order on the way",
		Message: "Your order %s is out for delivery.",
	},
	enums.OrderStatusDelivered: {
		Title:   "Order delivered",
		Message: "Your order %s has been delivered. Enjoy!",
	},
	enums.OrderStatusCancelled: {
		Title:   "Order cancelled",
		Message: "Your order %s has been cancelled.",
	},
	enums.OrderStatusRefunded: {
		Title:   "Order refunded",
		Message: "Your order %s has been refunded.",
	},
}

func genericStatusMessage(orderNumber string, status enums.OrderStatus) (string, string) {
	return "Order update", fmt.Sprintf("Your order %s is now %s.", orderNumber, status)
}

// customerStatusCopy resolves the title and message for a status change.
func customerStatusCopy(orderNumber string, status enums.OrderStatus) (string, string) {
	if msg, ok := customerStatusMessages[status]; ok {
		return msg.Title, fmt.Sprintf(msg.Message, orderNumber)
	}
	return genericStatusMessage(orderNumber, status)
}
