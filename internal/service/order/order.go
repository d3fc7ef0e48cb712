package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dispatch/internal/entities"
	"dispatch/internal/relay"
	"dispatch/internal/service/dispatch"
	"dispatch/pkg/logger"
)

// ActorKafka автор перехода, пришедшего из топика order.status.changed.
const ActorKafka = "kafka:order.status.changed"

type Service struct {
	repository    Repository
	publisher     Publisher
	statusFactory HandlerFactory
	txManager     TxManager
	log           serviceLogger
	now           func() time.Time
}

func New(
	repository Repository,
	publisher Publisher,
	statusFactory HandlerFactory,
	txManager TxManager,
	log serviceLogger,
) *Service {
	return &Service{
		repository:    repository,
		publisher:     publisher,
		statusFactory: statusFactory,
		txManager:     txManager,
		log:           log,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// ChangeStatus переводит заказ на следующий статус и запускает реакцию на него.
// Повтор текущего статуса не ошибка: изменений нет, реакция запускается снова.
func (s *Service) ChangeStatus(
	ctx context.Context,
	orderID int64,
	status entities.OrderStatusType,
	actor string,
) (*entities.StatusChange, error) {
	if orderID <= 0 {
		return nil, ErrInvalidOrderID
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrUndefinedStatus, status)
	}
	if status == entities.OrderDelivered {
		return nil, ErrDeliveredByCode
	}

	var (
		order   *entities.Order
		changed bool
	)
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		current, err := s.repository.Get(ctx, orderID)
		if err != nil {
			return fmt.Errorf("get order: %w", err)
		}

		if current.Status == status {
			order = current
			return nil
		}
		if !current.Status.CanTransitionTo(status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, status)
		}

		order, err = s.repository.UpdateStatus(ctx, orderID, current.Status, status)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}

		err = s.repository.AppendStatusEvent(ctx, orderID, current.Status, status, actor, s.now())
		if err != nil {
			return fmt.Errorf("append status event: %w", err)
		}

		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		err := s.publisher.Publish(ctx,
			relay.To(order.CustomerID).And(relay.ToRole(entities.RoleAdmin)),
			relay.NewOrderStatus(order),
		)
		if err != nil {
			s.log.Warn("publish order status",
				logger.NewField("order_id", order.ID),
				logger.NewField("error", err),
			)
		}
	}

	change := &entities.StatusChange{Order: order}
	if !order.AwaitingCourier() {
		return change, nil
	}

	executeFn, err := s.statusFactory.GetHandler(order.Status)
	if err != nil {
		// статусы без реакции просто пропускаем
		if errors.Is(err, ErrUndefinedStatus) {
			return change, nil
		}
		return nil, err
	}

	result, err := executeFn(ctx, order.ID)
	switch {
	case err == nil:
		change.Dispatch = result
	case errors.Is(err, dispatch.ErrNoCandidates):
		change.NoCourier = true
	case errors.Is(err, dispatch.ErrOrderAlreadyDispatched):
	default:
		// статус уже зафиксирован, рассылку подхватит фоновая задача повтора
		s.log.Error("dispatch after status change",
			logger.NewField("order_id", order.ID),
			logger.NewField("error", err),
		)
		change.DispatchFailed = true
	}

	return change, nil
}

// ProcessOrderStatusChange применяет событие из Kafka.
func (s *Service) ProcessOrderStatusChange(ctx context.Context, event entities.OrderStatusEvent) (*entities.Order, error) {
	change, err := s.ChangeStatus(ctx, event.OrderID, event.Status, ActorKafka)
	if err != nil {
		return nil, err
	}
	return change.Order, nil
}
