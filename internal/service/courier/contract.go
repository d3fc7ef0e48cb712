//go:generate mockgen -source=contract.go -destination=./contract_mocks_test.go -package=courier_test
package courier

import (
	"context"
	"time"

	"dispatch/internal/entities"
	"dispatch/internal/relay"
	"dispatch/pkg/logger"
)

type LocationStore interface {
	Upsert(ctx context.Context, loc entities.CourierLocation) error
}

type OrderRepository interface {
	Get(ctx context.Context, id int64) (*entities.Order, error)
	ListActiveForCourier(ctx context.Context, courierID string) ([]entities.Order, error)
	DeliveredPerDay(ctx context.Context, courierID string, since time.Time) ([]entities.DailyCount, error)
}

type AssignmentRepository interface {
	GetActiveByCourier(ctx context.Context, courierID string) (*entities.Assignment, error)
}

type Publisher interface {
	Publish(ctx context.Context, to relay.Audience, msg relay.Message) error
}

type Limiter interface {
	AllowKey(key string) bool
}

type serviceLogger interface {
	Warn(msg string, fields ...logger.Field)
}
