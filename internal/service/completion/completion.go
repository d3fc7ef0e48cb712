package completion

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"dispatch/internal/entities"
	"dispatch/internal/relay"
	"dispatch/pkg/logger"
)

// ActorDeliveryCode автор перехода в delivered.
const ActorDeliveryCode = "delivery-code"

// Policy ограничения на код. Нулевые значения отключают проверку.
type Policy struct {
	CodeTTL     time.Duration
	MaxAttempts int
}

type Service struct {
	orders      OrderRepository
	assignments AssignmentRepository
	customers   CustomerDirectory
	mailer      Mailer
	codes       CodeGenerator
	publisher   Publisher
	txManager   TxManager
	log         serviceLogger
	policy      Policy
	now         func() time.Time
}

func New(
	orders OrderRepository,
	assignments AssignmentRepository,
	customers CustomerDirectory,
	mailer Mailer,
	codes CodeGenerator,
	publisher Publisher,
	txManager TxManager,
	log serviceLogger,
	policy Policy,
) *Service {
	return &Service{
		orders:      orders,
		assignments: assignments,
		customers:   customers,
		mailer:      mailer,
		codes:       codes,
		publisher:   publisher,
		txManager:   txManager,
		log:         log,
		policy:      policy,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// IssueCode генерирует новый код и отправляет его клиенту письмом.
// Повторный вызов перезаписывает код и сбрасывает счётчик попыток.
func (s *Service) IssueCode(ctx context.Context, orderID int64) (*entities.Order, error) {
	if orderID <= 0 {
		return nil, ErrInvalidOrderID
	}

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.Status != entities.OrderOutForDelivery || order.AssignedCourier == nil {
		return nil, ErrCodeNotAllowed
	}

	customer, err := s.customers.GetUser(ctx, order.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	if strings.TrimSpace(customer.Email) == "" {
		return nil, fmt.Errorf("%w: customer %s has no email", ErrMailUnavailable, customer.ID)
	}

	code, err := s.codes.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	updated, err := s.orders.SetVerificationCode(ctx, orderID, code, s.now())
	if err != nil {
		return nil, fmt.Errorf("store code: %w", err)
	}

	body, err := renderDeliveryCode(deliveryCodeMail{
		CustomerName: customer.Name,
		OrderID:      orderID,
		Code:         code,
		ExpiresIn:    s.policy.CodeTTL,
	})
	if err != nil {
		return nil, err
	}

	if err := s.mailer.Send(ctx, customer.Email, deliveryCodeSubject(code), body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMailUnavailable, err)
	}

	s.log.Info("delivery code issued",
		logger.NewField("order_id", orderID),
		logger.NewField("courier_id", *updated.AssignedCourier),
	)

	return updated, nil
}

// Verify сверяет код; при совпадении заказ становится delivered, а назначение completed.
// Право на подтверждение даёт знание кода, а не личность курьера.
func (s *Service) Verify(ctx context.Context, orderID int64, code string) (*entities.Order, error) {
	if orderID <= 0 {
		return nil, ErrInvalidOrderID
	}
	code = strings.TrimSpace(code)
	if !isValidCode(code) {
		return nil, ErrInvalidCode
	}

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.Status != entities.OrderOutForDelivery || order.VerificationCode == nil {
		return nil, ErrInvalidCode
	}

	now := s.now()
	if order.CodeExpired(s.policy.CodeTTL, now) {
		return nil, ErrCodeExpired
	}
	if s.policy.MaxAttempts > 0 && order.CodeAttempts >= s.policy.MaxAttempts {
		return nil, ErrTooManyAttempts
	}

	// попытка списывается до сравнения: параллельные запросы не проверят больше MaxAttempts кодов
	if err := s.orders.RegisterAttempt(ctx, orderID, s.policy.MaxAttempts); err != nil {
		if errors.Is(err, ErrTooManyAttempts) {
			return nil, ErrTooManyAttempts
		}
		return nil, fmt.Errorf("register code attempt: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(*order.VerificationCode), []byte(code)) != 1 {
		return nil, ErrInvalidCode
	}

	var delivered *entities.Order
	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		delivered, err = s.orders.MarkDelivered(ctx, orderID, code, now)
		if err != nil {
			return fmt.Errorf("mark delivered: %w", err)
		}

		if delivered.AssignmentID != nil {
			if err := s.assignments.Complete(ctx, *delivered.AssignmentID, now); err != nil {
				return fmt.Errorf("complete assignment: %w", err)
			}
		}

		err = s.orders.AppendStatusEvent(ctx, orderID,
			entities.OrderOutForDelivery, entities.OrderDelivered, ActorDeliveryCode, now)
		if err != nil {
			return fmt.Errorf("append status event: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidCode) {
			return nil, ErrInvalidCode
		}
		return nil, err
	}

	audience := relay.To(delivered.CustomerID).And(relay.ToRole(entities.RoleAdmin))
	if delivered.AssignedCourier != nil {
		audience = audience.And(relay.To(*delivered.AssignedCourier))
	}
	if err := s.publisher.Publish(ctx, audience, relay.NewOrderStatus(delivered)); err != nil {
		s.log.Warn("publish order status",
			logger.NewField("order_id", orderID),
			logger.NewField("error", err),
		)
	}

	return delivered, nil
}

func isValidCode(code string) bool {
	if len(code) != 4 {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
