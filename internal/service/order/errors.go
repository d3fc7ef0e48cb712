package order

import "errors"

var (
	ErrInvalidOrderID    = errors.New("invalid order id")
	ErrOrderNotFound     = errors.New("order not found")
	ErrUndefinedStatus   = errors.New("undefined order status")
	ErrInvalidTransition = errors.New("order status transition is not allowed")
	ErrDeliveredByCode   = errors.New("delivered status is set by delivery code verification only")
	ErrStatusConflict    = errors.New("order status was changed concurrently")
)
