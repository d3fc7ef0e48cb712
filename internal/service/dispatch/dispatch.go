package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dispatch/internal/entities"
	"dispatch/internal/relay"
	"dispatch/pkg/logger"
)

// nearbyOverscan первое окно гео-поиска в MaxCandidates; часть курьеров отсеется как занятые,
// и если свободных не хватило, окно удваивается.
const nearbyOverscan = 3

type Config struct {
	SearchRadiusKm float64
	MaxCandidates  int
	// BroadcastTTL возраст открытой рассылки, после которого она пересоздаётся; 0 отключает.
	BroadcastTTL time.Duration
	SweepBatch   uint64
}

type Service struct {
	orders      OrderRepository
	assignments AssignmentRepository
	locations   LocationStore
	couriers    CourierDirectory
	publisher   Publisher
	txManager   TxManager
	retrier     Retrier
	log         serviceLogger
	cfg         Config
	now         func() time.Time
}

func New(
	orders OrderRepository,
	assignments AssignmentRepository,
	locations LocationStore,
	couriers CourierDirectory,
	publisher Publisher,
	txManager TxManager,
	retrier Retrier,
	log serviceLogger,
	cfg Config,
) *Service {
	return &Service{
		orders:      orders,
		assignments: assignments,
		locations:   locations,
		couriers:    couriers,
		publisher:   publisher,
		txManager:   txManager,
		retrier:     retrier,
		log:         log,
		cfg:         cfg,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SelectCandidates свободные курьеры в радиусе поиска, ближайшие первыми.
func (s *Service) SelectCandidates(ctx context.Context, center entities.Point) ([]entities.CourierSummary, error) {
	if !center.Valid() {
		return nil, ErrInvalidLocation
	}

	limit := s.cfg.MaxCandidates * nearbyOverscan
	for {
		nearby, err := s.locations.Nearby(ctx, center, s.cfg.SearchRadiusKm, limit)
		if err != nil {
			return nil, fmt.Errorf("search nearby couriers: %w", err)
		}

		candidates, err := s.freeCouriers(ctx, nearby)
		if err != nil {
			return nil, err
		}
		if len(candidates) >= s.cfg.MaxCandidates || len(nearby) < limit || limit <= 0 {
			return candidates, nil
		}
		limit *= 2
	}
}

// freeCouriers до MaxCandidates незанятых пользователей с ролью курьера, в порядке nearby.
func (s *Service) freeCouriers(ctx context.Context, nearby []entities.NearbyCourier) ([]entities.CourierSummary, error) {
	if len(nearby) == 0 {
		return []entities.CourierSummary{}, nil
	}

	ids := make([]string, len(nearby))
	for i, c := range nearby {
		ids[i] = c.CourierID
	}

	busyIDs, err := s.assignments.BusyCouriers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("find busy couriers: %w", err)
	}
	busy := make(map[string]struct{}, len(busyIDs))
	for _, id := range busyIDs {
		busy[id] = struct{}{}
	}

	free := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := busy[id]; !ok {
			free = append(free, id)
		}
	}
	if len(free) == 0 {
		return []entities.CourierSummary{}, nil
	}

	users, err := s.couriers.ListCouriersByIDs(ctx, free)
	if err != nil {
		return nil, fmt.Errorf("load couriers: %w", err)
	}
	byID := make(map[string]entities.User, len(users))
	for _, u := range users {
		if u.Role == entities.RoleCourier {
			byID[u.ID] = u
		}
	}

	candidates := make([]entities.CourierSummary, 0, min(len(byID), s.cfg.MaxCandidates))
	for _, c := range nearby {
		if len(candidates) == s.cfg.MaxCandidates {
			break
		}
		if _, ok := busy[c.CourierID]; ok {
			continue
		}
		u, ok := byID[c.CourierID]
		if !ok {
			continue
		}
		candidates = append(candidates, entities.CourierSummary{
			ID:         u.ID,
			Name:       u.Name,
			Mobile:     u.Mobile,
			Point:      c.Point,
			DistanceKm: c.DistanceKm,
		})
	}

	return candidates, nil
}

// CreateBroadcast рассылает предложение ближайшим свободным курьерам.
// Без кандидатов заказ не меняется и возвращается ErrNoCandidates.
func (s *Service) CreateBroadcast(ctx context.Context, orderID int64) (*entities.DispatchResult, error) {
	if !isValidID(orderID) {
		return nil, ErrInvalidOrderID
	}

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.Status != entities.OrderOutForDelivery {
		return nil, ErrOrderNotOutForDelivery
	}
	if order.IsDispatched() {
		return nil, ErrOrderAlreadyDispatched
	}

	candidates, err := s.SelectCandidates(ctx, order.Address.Point())
	if err != nil {
		BroadcastsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if len(candidates) == 0 {
		BroadcastsTotal.WithLabelValues("no_candidates").Inc()
		return nil, ErrNoCandidates
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}

	assignment, err := s.assignments.CreateForOrder(ctx, orderID, ids, s.now())
	if err != nil {
		if errors.Is(err, ErrOrderAlreadyDispatched) {
			BroadcastsTotal.WithLabelValues("already_dispatched").Inc()
			return nil, err
		}
		BroadcastsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("create assignment: %w", err)
	}

	BroadcastsTotal.WithLabelValues("created").Inc()
	CandidatesPerBroadcast.Observe(float64(len(candidates)))

	for _, c := range candidates {
		s.publish(ctx, relay.To(c.ID), relay.NewOffer(assignment, order, c.DistanceKm))
	}

	s.log.Info("assignment broadcasted",
		logger.NewField("order_id", orderID),
		logger.NewField("assignment_id", assignment.ID),
		logger.NewField("candidates", len(candidates)),
	)

	return &entities.DispatchResult{
		Assignment: assignment,
		Candidates: candidates,
	}, nil
}

// Accept закрепляет заказ за первым принявшим кандидатом.
func (s *Service) Accept(ctx context.Context, assignmentID int64, courierID string) (*entities.AcceptResult, error) {
	if !isValidID(assignmentID) {
		return nil, ErrInvalidAssignmentID
	}
	if !isValidCourierID(courierID) {
		return nil, ErrInvalidCourierID
	}

	var result entities.AcceptResult
	err := s.retrier.ExecuteWithContext(ctx, func(ctx context.Context) error {
		result = entities.AcceptResult{}
		return s.txManager.DoReadCommitted(ctx, func(ctx context.Context) error {
			current, err := s.assignments.Get(ctx, assignmentID)
			if err != nil {
				return fmt.Errorf("get assignment: %w", err)
			}
			if !current.IsOpen() {
				return ErrAlreadyResolved
			}

			busy, err := s.assignments.HasActiveAssignment(ctx, courierID)
			if err != nil {
				return fmt.Errorf("check courier assignments: %w", err)
			}
			if busy {
				return ErrCourierBusy
			}

			accepted, err := s.assignments.Accept(ctx, assignmentID, courierID, s.now())
			if err != nil {
				return fmt.Errorf("accept assignment: %w", err)
			}

			order, err := s.orders.SetAssignedCourier(ctx, accepted.OrderID, courierID)
			if err != nil {
				return fmt.Errorf("assign courier to order: %w", err)
			}

			revoked, err := s.assignments.RemoveCandidate(ctx, courierID, accepted.ID)
			if err != nil {
				return fmt.Errorf("revoke other offers: %w", err)
			}

			result.Assignment = accepted
			result.Order = order
			result.Revoked = revoked
			return nil
		})
	})
	if err != nil {
		AcceptsTotal.WithLabelValues(acceptResultLabel(err)).Inc()
		return nil, err
	}
	AcceptsTotal.WithLabelValues("accepted").Inc()

	s.publishAccepted(ctx, &result, courierID)

	return &result, nil
}

func (s *Service) publishAccepted(ctx context.Context, result *entities.AcceptResult, courierID string) {
	var acceptedAt time.Time
	if result.Assignment.AcceptedAt != nil {
		acceptedAt = *result.Assignment.AcceptedAt
	}

	s.publish(ctx,
		relay.To(result.Order.CustomerID).And(relay.ToRole(entities.RoleAdmin)),
		relay.Message{
			Event: relay.EventAssignedOrder,
			Data: relay.AssignedOrderData{
				AssignmentID: result.Assignment.ID,
				OrderID:      result.Order.ID,
				CourierID:    courierID,
				AcceptedAt:   acceptedAt,
			},
		},
	)

	for _, id := range result.Revoked {
		s.publish(ctx, relay.To(courierID), relay.NewRevoked(id))
	}

	// проигравшим кандидатам этой рассылки предложение больше не актуально
	losers := make([]string, 0, len(result.Assignment.Candidates))
	for _, c := range result.Assignment.Candidates {
		if c != courierID {
			losers = append(losers, c)
		}
	}
	if len(losers) > 0 {
		s.publish(ctx, relay.To(losers...), relay.NewRevoked(result.Assignment.ID))
	}
}

// Decline курьер отказывается от предложения. Если кандидатов не осталось,
// рассылка закрывается без победителя и заказ снова можно диспетчеризовать.
func (s *Service) Decline(ctx context.Context, assignmentID int64, courierID string) (*entities.Assignment, error) {
	if !isValidID(assignmentID) {
		return nil, ErrInvalidAssignmentID
	}
	if !isValidCourierID(courierID) {
		return nil, ErrInvalidCourierID
	}

	var declined *entities.Assignment
	err := s.retrier.ExecuteWithContext(ctx, func(ctx context.Context) error {
		return s.txManager.DoReadCommitted(ctx, func(ctx context.Context) error {
			var err error
			declined, err = s.assignments.Decline(ctx, assignmentID, courierID)
			if err != nil {
				return fmt.Errorf("decline assignment: %w", err)
			}
			if len(declined.Candidates) > 0 {
				return nil
			}

			orphaned, err := s.orphan(ctx, declined)
			if err != nil {
				return err
			}
			if orphaned {
				declined.Status = entities.AssignmentCompleted
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if declined.Status == entities.AssignmentCompleted {
		s.log.Warn("all candidates declined, order awaits dispatch",
			logger.NewField("order_id", declined.OrderID),
			logger.NewField("assignment_id", declined.ID),
		)
	}

	return declined, nil
}

// ListOffers открытые рассылки, в которых курьер всё ещё кандидат.
func (s *Service) ListOffers(ctx context.Context, courierID string) ([]entities.Assignment, error) {
	if !isValidCourierID(courierID) {
		return nil, ErrInvalidCourierID
	}

	offers, err := s.assignments.ListOpenForCourier(ctx, courierID)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	return offers, nil
}

// ExpireStaleBroadcasts закрывает рассылки старше BroadcastTTL и запускает диспетчеризацию заново.
func (s *Service) ExpireStaleBroadcasts(ctx context.Context) (int64, error) {
	if s.cfg.BroadcastTTL <= 0 {
		return 0, nil
	}

	stale, err := s.assignments.ListStale(ctx, s.now().Add(-s.cfg.BroadcastTTL), s.cfg.SweepBatch)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, fmt.Errorf("expire broadcasts timed out: %w", err)
		}
		return 0, fmt.Errorf("list stale broadcasts: %w", err)
	}

	var expired int64
	for i := range stale {
		a := &stale[i]

		var orphaned bool
		err := s.txManager.DoReadCommitted(ctx, func(ctx context.Context) error {
			var err error
			orphaned, err = s.orphan(ctx, a)
			return err
		})
		if err != nil {
			return expired, fmt.Errorf("expire assignment %d: %w", a.ID, err)
		}
		if !orphaned {
			continue
		}
		expired++

		if len(a.Candidates) > 0 {
			s.publish(ctx, relay.To(a.Candidates...), relay.NewRevoked(a.ID))
		}
		s.redispatch(ctx, a.OrderID)
	}

	return expired, nil
}

// RetryUndispatched повторяет рассылку для заказов в доставке без активного назначения.
func (s *Service) RetryUndispatched(ctx context.Context) (int64, error) {
	orderIDs, err := s.orders.ListAwaitingCourier(ctx, s.cfg.SweepBatch)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, fmt.Errorf("retry dispatch timed out: %w", err)
		}
		return 0, fmt.Errorf("list undispatched orders: %w", err)
	}

	var dispatched int64
	for _, id := range orderIDs {
		if s.redispatch(ctx, id) {
			dispatched++
		}
	}
	return dispatched, nil
}

func (s *Service) redispatch(ctx context.Context, orderID int64) bool {
	_, err := s.CreateBroadcast(ctx, orderID)
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrNoCandidates),
		errors.Is(err, ErrOrderAlreadyDispatched),
		errors.Is(err, ErrOrderNotOutForDelivery):
		return false
	default:
		s.log.Error("redispatch order",
			logger.NewField("order_id", orderID),
			logger.NewField("error", err),
		)
		return false
	}
}

// orphan закрывает рассылку без победителя и освобождает ссылку заказа. Вызывать внутри транзакции.
func (s *Service) orphan(ctx context.Context, a *entities.Assignment) (bool, error) {
	abandoned, err := s.assignments.Abandon(ctx, a.ID, s.now())
	if err != nil {
		return false, fmt.Errorf("abandon assignment: %w", err)
	}
	if !abandoned {
		return false, nil
	}

	if err := s.orders.ClearAssignment(ctx, a.OrderID, a.ID); err != nil {
		return false, fmt.Errorf("clear order assignment: %w", err)
	}
	return true, nil
}

func (s *Service) publish(ctx context.Context, to relay.Audience, msg relay.Message) {
	if err := s.publisher.Publish(ctx, to, msg); err != nil {
		s.log.Warn("publish realtime event",
			logger.NewField("event", msg.Event),
			logger.NewField("error", err),
		)
	}
}

func acceptResultLabel(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyResolved):
		return "already_resolved"
	case errors.Is(err, ErrCourierBusy):
		return "courier_busy"
	case errors.Is(err, ErrNotCandidate):
		return "not_candidate"
	case errors.Is(err, ErrAssignmentNotFound):
		return "not_found"
	default:
		return "error"
	}
}
