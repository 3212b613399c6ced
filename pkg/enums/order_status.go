package enums

import "fmt"

// OrderStatus tracks the lifecycle of a supplier order.
type OrderStatus string

const (
	OrderStatusAwaitingPayment OrderStatus = "awaiting_payment"
	OrderStatusProcessing      OrderStatus = "processing"
	OrderStatusShipped         OrderStatus = "shipped"
	OrderStatusCompleted       OrderStatus = "completed"
	OrderStatusCancelled       OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusAwaitingPayment,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions.
func (o OrderStatus) IsTerminal() bool {
	return o == OrderStatusCompleted || o == OrderStatusCancelled
}

// CanTransitionTo reports whether the lifecycle allows moving to target.
// Cancellation is reachable from any non-terminal state; forward movement is
// strictly ordered.
func (o OrderStatus) CanTransitionTo(target OrderStatus) bool {
	if o.IsTerminal() {
		return false
	}
	if target == OrderStatusCancelled {
		return true
	}
	switch o {
	case OrderStatusAwaitingPayment:
		return target == OrderStatusProcessing
	case OrderStatusProcessing:
		return target == OrderStatusShipped || target == OrderStatusCompleted
	case OrderStatusShipped:
		return target == OrderStatusCompleted
	default:
		return false
	}
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
