package enums

import "fmt"

// OrderStatus tracks the station-visible lifecycle of a pick order.
// Complete and pending are terminal from the station's perspective; the
// order service owns anything after that.
type OrderStatus string

const (
	OrderStatusAssigned   OrderStatus = "assigned"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusComplete   OrderStatus = "complete"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusAssigned,
	OrderStatusInProgress,
	OrderStatusPending,
	OrderStatusComplete,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the station may still mutate the order.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPending || s == OrderStatusComplete
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
