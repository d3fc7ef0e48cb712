package courier

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

const statsDays = 7

type Courier struct {
	locations   LocationStore
	orders      OrderRepository
	assignments AssignmentRepository
	publisher   Publisher
	limiter     Limiter
	log         serviceLogger
	now         func() time.Time
}

func New(
	locations LocationStore,
	orders OrderRepository,
	assignments AssignmentRepository,
	publisher Publisher,
	limiter Limiter,
	log serviceLogger,
) *Courier {
	return &Courier{
		locations:   locations,
		orders:      orders,
		assignments: assignments,
		publisher:   publisher,
		limiter:     limiter,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// UpdateLocation сохраняет позицию курьера и, если он везёт заказ, транслирует её клиенту и администраторам.
func (s *Courier) UpdateLocation(ctx context.Context, courierID string, point entities.Point) error {
	if !isValidCourierID(courierID) {
		return ErrInvalidCourierID
	}
	if !isValidPoint(point) {
		return ErrInvalidCoordinates
	}
	if !s.limiter.AllowKey(courierID) {
		return ErrTooManyUpdates
	}

	loc := entities.CourierLocation{
		CourierID: courierID,
		Point:     point,
		UpdatedAt: s.now(),
	}
	if err := s.locations.Upsert(ctx, loc); err != nil {
		return fmt.Errorf("store location: %w", err)
	}

	active, err := s.assignments.GetActiveByCourier(ctx, courierID)
	if err != nil {
		if errors.Is(err, dispatch.ErrAssignmentNotFound) {
			return nil
		}
		return fmt.Errorf("get active assignment: %w", err)
	}

	order, err := s.orders.Get(ctx, active.OrderID)
	if err != nil {
		return fmt.Errorf("get active order: %w", err)
	}

	err = s.publisher.Publish(ctx,
		relay.To(order.CustomerID).And(relay.ToRole(entities.RoleAdmin)),
		relay.NewCourierLocation(order.ID, loc),
	)
	if err != nil {
		s.log.Warn("publish courier location",
			logger.NewField("courier_id", courierID),
			logger.NewField("error", err),
		)
	}
	return nil
}

func (s *Courier) ActiveOrders(ctx context.Context, courierID string) ([]entities.Order, error) {
	if !isValidCourierID(courierID) {
		return nil, ErrInvalidCourierID
	}

	orders, err := s.orders.ListActiveForCourier(ctx, courierID)
	if err != nil {
		return nil, fmt.Errorf("list active orders: %w", err)
	}
	return orders, nil
}

// Stats доставки за сегодня и за последние 7 дней (UTC), дни без доставок с нулём.
func (s *Courier) Stats(ctx context.Context, courierID string, now time.Time) (*entities.CourierStats, error) {
	if !isValidCourierID(courierID) {
		return nil, ErrInvalidCourierID
	}

	today := now.UTC().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -(statsDays - 1))

	counts, err := s.orders.DeliveredPerDay(ctx, courierID, since)
	if err != nil {
		return nil, fmt.Errorf("count deliveries: %w", err)
	}

	byDay := make(map[time.Time]int64, len(counts))
	for _, c := range counts {
		byDay[c.Day.UTC().Truncate(24*time.Hour)] += c.Count
	}

	stats := &entities.CourierStats{
		LastWeek: make([]entities.DailyCount, 0, statsDays),
	}
	for day := since; !day.After(today); day = day.AddDate(0, 0, 1) {
		stats.LastWeek = append(stats.LastWeek, entities.DailyCount{Day: day, Count: byDay[day]})
	}
	stats.DeliveredToday = byDay[today]

	return stats, nil
}
