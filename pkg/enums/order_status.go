package enums

import "fmt"

// OrderStatus is the delivery progress of an order. The set is written by
// operators, so values outside the known constants are carried as-is.
type OrderStatus string

const (
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusOnRoute   OrderStatus = "on_route"
	OrderStatusDelivered OrderStatus = "delivered"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPreparing,
	OrderStatusOnRoute,
	OrderStatusDelivered,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is one of the known statuses.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into a known OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
