package order_handle

import (
	"context"
	"fmt"

	"dispatch/internal/entities"
	"dispatch/internal/service/order"
)

type Dispatcher interface {
	CreateBroadcast(ctx context.Context, orderID int64) (*entities.DispatchResult, error)
}

// StatusHandlerFactory выбирает реакцию на статус заказа.
type StatusHandlerFactory struct {
	dispatcher Dispatcher
}

func NewStatusHandlerFactory(dispatcher Dispatcher) *StatusHandlerFactory {
	return &StatusHandlerFactory{
		dispatcher: dispatcher,
	}
}

func (f *StatusHandlerFactory) GetHandler(status entities.OrderStatusType) (order.ExecuteFn, error) {
	switch status {
	case entities.OrderOutForDelivery:
		return f.outForDeliveryHandler, nil
	default:
		return nil, fmt.Errorf("%w: %s", order.ErrUndefinedStatus, status)
	}
}

func (f *StatusHandlerFactory) outForDeliveryHandler(ctx context.Context, orderID int64) (*entities.DispatchResult, error) {
	result, err := f.dispatcher.CreateBroadcast(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("broadcast order %d: %w", orderID, err)
	}
	return result, nil
}
