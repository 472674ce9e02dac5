package eventmodels

import "fmt"

// OrderStatus is owned by the broker backend and passed through untouched.
type OrderStatus string

const (
	OrderStatusPendingSubmit OrderStatus = "PendingSubmit"
	OrderStatusPreSubmitted  OrderStatus = "PreSubmitted"
	OrderStatusSubmitted     OrderStatus = "Submitted"
	OrderStatusFailed        OrderStatus = "Failed"
	OrderStatusCancelled     OrderStatus = "Cancelled"
	OrderStatusFilled        OrderStatus = "Filled"
	OrderStatusFilling       OrderStatus = "Filling"
)

func (s OrderStatus) Validate() error {
	switch s {
	case OrderStatusPendingSubmit, OrderStatusPreSubmitted, OrderStatusSubmitted, OrderStatusFailed,
		OrderStatusCancelled, OrderStatusFilled, OrderStatusFilling:
		return nil
	default:
		return fmt.Errorf("invalid order status: %s", s)
	}
}

// IsWorking reports whether the order can still be amended or cancelled.
func (s OrderStatus) IsWorking() bool {
	return s == OrderStatusPendingSubmit || s == OrderStatusPreSubmitted || s == OrderStatusSubmitted || s == OrderStatusFilling
}

func (s OrderStatus) IsFinal() bool {
	return s == OrderStatusFailed || s == OrderStatusCancelled || s == OrderStatusFilled
}
