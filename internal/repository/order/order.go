package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dispatch/internal/entities"
	"dispatch/internal/repository"
	"dispatch/internal/service/completion"
	"dispatch/internal/service/dispatch"
	"dispatch/internal/service/order"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

var qb sq.StatementBuilderType = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var orderColumns = []string{
	"id", "customer_id", "items", "total_amount", "payment_method", "address", "status",
	"assignment_id", "assigned_courier", "verification_code", "code_issued_at", "code_attempts",
	"delivered_at", "created_at", "updated_at",
}

const returningOrder = `RETURNING id, customer_id, items, total_amount, payment_method, address, status,
	assignment_id, assigned_courier, verification_code, code_issued_at, code_attempts,
	delivered_at, created_at, updated_at`

type Repository struct {
	querier Querier
}

func New(querier Querier) *Repository {
	return &Repository{
		querier: querier,
	}
}

func (r *Repository) Get(ctx context.Context, id int64) (*entities.Order, error) {
	query, args, err := qb.
		Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("unexpected order repository get error: %w", err)
	}

	orderDB, err := scanOrder(r.querier.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrOrderNotFound
		}
		return nil, fmt.Errorf("unexpected order repository get error: %w", err)
	}

	return ToDomain(orderDB), nil
}

// UpdateStatus меняет статус только если текущий равен from.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, from, to entities.OrderStatusType) (*entities.Order, error) {
	query := `
		UPDATE orders
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	` + returningOrder

	orderDB, err := scanOrder(r.querier.QueryRow(ctx, query, id, from.String(), to.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || repository.IsConcurrencyConflict(err) {
			return nil, order.ErrStatusConflict
		}
		return nil, fmt.Errorf("unexpected order repository update status error: %w", err)
	}

	return ToDomain(orderDB), nil
}

func (r *Repository) AppendStatusEvent(
	ctx context.Context,
	orderID int64,
	from, to entities.OrderStatusType,
	actor string,
	at time.Time,
) error {
	query, args, err := qb.
		Insert("order_status_events").
		Columns("order_id", "from_status", "to_status", "actor", "created_at").
		Values(orderID, from.String(), to.String(), actor, at).
		ToSql()
	if err != nil {
		return fmt.Errorf("unexpected order repository append event error: %w", err)
	}

	_, err = r.querier.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("unexpected order repository append event error: %w", err)
	}
	return nil
}

func (r *Repository) SetAssignedCourier(ctx context.Context, id int64, courierID string) (*entities.Order, error) {
	query := `
		UPDATE orders
		SET assigned_courier = $2, updated_at = NOW()
		WHERE id = $1
	` + returningOrder

	orderDB, err := scanOrder(r.querier.QueryRow(ctx, query, id, courierID))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, order.ErrOrderNotFound
		case repository.IsConcurrencyConflict(err):
			return nil, dispatch.ErrConcurrentUpdate
		}
		return nil, fmt.Errorf("unexpected order repository set courier error: %w", err)
	}

	return ToDomain(orderDB), nil
}

// ClearAssignment снимает ссылку, только если она всё ещё указывает на assignmentID.
func (r *Repository) ClearAssignment(ctx context.Context, id, assignmentID int64) error {
	query := `
		UPDATE orders
		SET assignment_id = NULL, updated_at = NOW()
		WHERE id = $1 AND assignment_id = $2
	`

	_, err := r.querier.Exec(ctx, query, id, assignmentID)
	if err != nil {
		if repository.IsConcurrencyConflict(err) {
			return dispatch.ErrConcurrentUpdate
		}
		return fmt.Errorf("unexpected order repository clear assignment error: %w", err)
	}
	return nil
}

func (r *Repository) ListAwaitingCourier(ctx context.Context, limit uint64) ([]int64, error) {
	query, args, err := qb.
		Select("id").
		From("orders").
		Where(sq.Eq{"status": entities.OrderOutForDelivery.String()}).
		Where(sq.Eq{"assignment_id": nil}).
		OrderBy("updated_at ASC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("unexpected order repository list awaiting error: %w", err)
	}

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("unexpected order repository list awaiting error: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("unexpected order repository list awaiting error: %w", err)
	}
	return ids, nil
}

// SetVerificationCode перезаписывает код; разрешено только для заказа в доставке с назначенным курьером.
func (r *Repository) SetVerificationCode(ctx context.Context, id int64, code string, issuedAt time.Time) (*entities.Order, error) {
	query := `
		UPDATE orders
		SET verification_code = $2, code_issued_at = $3, code_attempts = 0, updated_at = NOW()
		WHERE id = $1
		  AND status = 'out_for_delivery'
		  AND assigned_courier IS NOT NULL
	` + returningOrder

	orderDB, err := scanOrder(r.querier.QueryRow(ctx, query, id, code, issuedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, completion.ErrCodeNotAllowed
		}
		return nil, fmt.Errorf("unexpected order repository set code error: %w", err)
	}

	return ToDomain(orderDB), nil
}

// RegisterAttempt увеличивает счётчик попыток, только если он ещё меньше maxAttempts; 0 снимает ограничение.
func (r *Repository) RegisterAttempt(ctx context.Context, id int64, maxAttempts int) error {
	query := `
		UPDATE orders
		SET code_attempts = code_attempts + 1
		WHERE id = $1 AND ($2 <= 0 OR code_attempts < $2)
	`

	tag, err := r.querier.Exec(ctx, query, id, maxAttempts)
	if err != nil {
		return fmt.Errorf("unexpected order repository register attempt error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return completion.ErrTooManyAttempts
	}
	return nil
}

// MarkDelivered одним UPDATE сверяет код, очищает его и переводит заказ в delivered.
func (r *Repository) MarkDelivered(ctx context.Context, id int64, code string, at time.Time) (*entities.Order, error) {
	query := `
		UPDATE orders
		SET status = 'delivered',
		    verification_code = NULL,
		    delivered_at = $3,
		    updated_at = NOW()
		WHERE id = $1
		  AND status = 'out_for_delivery'
		  AND verification_code = $2
	` + returningOrder

	orderDB, err := scanOrder(r.querier.QueryRow(ctx, query, id, code, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || repository.IsConcurrencyConflict(err) {
			return nil, completion.ErrInvalidCode
		}
		return nil, fmt.Errorf("unexpected order repository mark delivered error: %w", err)
	}

	return ToDomain(orderDB), nil
}

func (r *Repository) ListActiveForCourier(ctx context.Context, courierID string) ([]entities.Order, error) {
	query, args, err := qb.
		Select(orderColumns...).
		From("orders").
		Where(sq.Eq{
			"assigned_courier": courierID,
			"status":           entities.OrderOutForDelivery.String(),
		}).
		OrderBy("updated_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("unexpected order repository list active error: %w", err)
	}

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("unexpected order repository list active error: %w", err)
	}
	defer rows.Close()

	var orders []OrderDB
	for rows.Next() {
		orderDB, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("unexpected order repository list active error: %w", err)
		}
		orders = append(orders, *orderDB)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("unexpected order repository list active error: %w", err)
	}

	return ToDomainList(orders), nil
}

// DeliveredPerDay число доставок курьера по дням (UTC) начиная с since.
func (r *Repository) DeliveredPerDay(ctx context.Context, courierID string, since time.Time) ([]entities.DailyCount, error) {
	query := `
		SELECT date_trunc('day', delivered_at AT TIME ZONE 'UTC') AS day, COUNT(*)
		FROM orders
		WHERE assigned_courier = $1
		  AND status = 'delivered'
		  AND delivered_at >= $2
		GROUP BY day
		ORDER BY day
	`

	rows, err := r.querier.Query(ctx, query, courierID, since)
	if err != nil {
		return nil, fmt.Errorf("unexpected order repository delivered per day error: %w", err)
	}

	counts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (DailyCountDB, error) {
		var c DailyCountDB
		err := row.Scan(&c.Day, &c.Count)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("unexpected order repository delivered per day error: %w", err)
	}

	return ToDailyCounts(counts), nil
}

func scanOrder(row pgx.Row) (*OrderDB, error) {
	var o OrderDB
	err := row.Scan(
		&o.ID,
		&o.CustomerID,
		&o.Items,
		&o.TotalAmount,
		&o.PaymentMethod,
		&o.Address,
		&o.Status,
		&o.AssignmentID,
		&o.AssignedCourier,
		&o.VerificationCode,
		&o.CodeIssuedAt,
		&o.CodeAttempts,
		&o.DeliveredAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
