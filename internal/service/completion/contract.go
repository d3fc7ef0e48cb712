//go:generate mockgen -source=contract.go -destination=./contract_mocks_test.go -package=completion_test
package completion

import (
	"context"
	"time"

	"dispatch/internal/entities"
	"dispatch/internal/relay"
	"dispatch/pkg/logger"
)

type OrderRepository interface {
	Get(ctx context.Context, id int64) (*entities.Order, error)
	SetVerificationCode(ctx context.Context, id int64, code string, issuedAt time.Time) (*entities.Order, error)
	// RegisterAttempt учитывает попытку ввода кода; при исчерпанном maxAttempts (> 0) возвращает ErrTooManyAttempts.
	RegisterAttempt(ctx context.Context, id int64, maxAttempts int) error
	MarkDelivered(ctx context.Context, id int64, code string, at time.Time) (*entities.Order, error)
	AppendStatusEvent(ctx context.Context, orderID int64, from, to entities.OrderStatusType, actor string, at time.Time) error
}

type AssignmentRepository interface {
	Complete(ctx context.Context, id int64, now time.Time) error
}

type CustomerDirectory interface {
	GetUser(ctx context.Context, id string) (*entities.User, error)
}

type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type CodeGenerator interface {
	Generate() (string, error)
}

type Publisher interface {
	Publish(ctx context.Context, to relay.Audience, msg relay.Message) error
}

type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type serviceLogger interface {
	Info(msg string, fields ...logger.Field)
	Warn(msg string, fields ...logger.Field)
	Error(msg string, fields ...logger.Field)
}
