package orders

import (
	"fmt"

	"github.com/localmarthq/localmart-backend/pkg/enums"
	pkgerrors "github.com/localmarthq/localmart-backend/pkg/errors"
)

// forwardPath is the single-step fulfilment chain. Skipping steps is not
// allowed; cancellation and refunds are handled outside this map.
var forwardPath = map[enums.OrderStatus]enums.OrderStatus{
	enums.OrderStatusPending:        enums.OrderStatusConfirmed,
	enums.OrderStatusConfirmed:      enums.OrderStatusPreparing,
	enums.OrderStatusPreparing:      enums.OrderStatusReadyForPickup,
	enums.OrderStatusReadyForPickup: enums.OrderStatusOutForDelivery,
	enums.OrderStatusOutForDelivery: enums.OrderStatusDelivered,
}

// refundableFrom lists the states an administrator may refund out of.
var refundableFrom = map[enums.OrderStatus]struct{}{
	enums.OrderStatusDelivered: {},
	enums.OrderStatusCancelled: {},
}

// CanAdvance reports whether from → to is a legal single forward step.
func CanAdvance(from, to enums.OrderStatus) bool {
	next, ok := forwardPath[from]
	return ok && next == to
}

// CanCancel reports whether an order in the given status may still be cancelled.
func CanCancel(from enums.OrderStatus) bool {
	switch from {
	case enums.OrderStatusDelivered, enums.OrderStatusCancelled, enums.OrderStatusRefunded:
		return false
	}
	return true
}

// CanRefund reports whether an order in the given status may be refunded.
func CanRefund(from enums.OrderStatus) bool {
	_, ok := refundableFrom[from]
	return ok
}

// invalidTransition builds the error surfaced for every illegal status change.
func invalidTransition(from, to enums.OrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("cannot transition order from %s to %s", from, to))
}
