//go:generate mockgen -source=contract.go -destination=./contract_mocks_test.go -package=order_test
package order

import (
	"context"
	"time"

	"dispatch/internal/entities"
	"dispatch/internal/relay"
	"dispatch/pkg/logger"
)

type Repository interface {
	Get(ctx context.Context, id int64) (*entities.Order, error)
	UpdateStatus(ctx context.Context, id int64, from, to entities.OrderStatusType) (*entities.Order, error)
	AppendStatusEvent(ctx context.Context, orderID int64, from, to entities.OrderStatusType, actor string, at time.Time) error
}

type Publisher interface {
	Publish(ctx context.Context, to relay.Audience, msg relay.Message) error
}

type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type (
	// ExecuteFn реакция на новый статус заказа.
	ExecuteFn      func(ctx context.Context, orderID int64) (*entities.DispatchResult, error)
	HandlerFactory interface {
		GetHandler(status entities.OrderStatusType) (ExecuteFn, error)
	}
)

type serviceLogger interface {
	Info(msg string, fields ...logger.Field)
	Warn(msg string, fields ...logger.Field)
	Error(msg string, fields ...logger.Field)
}
