//go:generate mockgen -source=contract.go -destination=./contract_mocks_test.go -package=dispatch_test
package dispatch

import (
	"context"
	"time"

	"dispatch/internal/entities"
	"dispatch/internal/relay"
	"dispatch/pkg/logger"
)

type LocationStore interface {
	// Nearby меньше limit курьеров в ответе означает, что радиус исчерпан.
	Nearby(ctx context.Context, center entities.Point, radiusKm float64, limit int) ([]entities.NearbyCourier, error)
}

type AssignmentRepository interface {
	CreateForOrder(ctx context.Context, orderID int64, candidates []string, now time.Time) (*entities.Assignment, error)
	Get(ctx context.Context, id int64) (*entities.Assignment, error)
	Accept(ctx context.Context, id int64, courierID string, now time.Time) (*entities.Assignment, error)
	Decline(ctx context.Context, id int64, courierID string) (*entities.Assignment, error)
	Abandon(ctx context.Context, id int64, now time.Time) (bool, error)

	HasActiveAssignment(ctx context.Context, courierID string) (bool, error)
	BusyCouriers(ctx context.Context, courierIDs []string) ([]string, error)
	RemoveCandidate(ctx context.Context, courierID string, exceptID int64) ([]int64, error)

	ListOpenForCourier(ctx context.Context, courierID string) ([]entities.Assignment, error)
	ListStale(ctx context.Context, createdBefore time.Time, limit uint64) ([]entities.Assignment, error)
}

type OrderRepository interface {
	Get(ctx context.Context, id int64) (*entities.Order, error)
	SetAssignedCourier(ctx context.Context, id int64, courierID string) (*entities.Order, error)
	ClearAssignment(ctx context.Context, id, assignmentID int64) error
	ListAwaitingCourier(ctx context.Context, limit uint64) ([]int64, error)
}

type CourierDirectory interface {
	ListCouriersByIDs(ctx context.Context, ids []string) ([]entities.User, error)
}

type Publisher interface {
	Publish(ctx context.Context, to relay.Audience, msg relay.Message) error
}

type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoReadCommitted(ctx context.Context, fn func(ctx context.Context) error) error
}

type Retrier interface {
	ExecuteWithContext(ctx context.Context, fn func(context.Context) error) error
}

type serviceLogger interface {
	Info(msg string, fields ...logger.Field)
	Warn(msg string, fields ...logger.Field)
	Error(msg string, fields ...logger.Field)
}
