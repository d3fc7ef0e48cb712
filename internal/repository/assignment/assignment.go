package assignment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dispatch/internal/entities"
	"dispatch/internal/repository"
	"dispatch/internal/service/dispatch"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

var qb sq.StatementBuilderType = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var assignmentColumns = []string{
	"id", "order_id", "candidates", "status", "accepted_by", "accepted_at", "created_at", "updated_at",
}

const returningAssignment = `RETURNING id, order_id, candidates, status, accepted_by, accepted_at, created_at, updated_at`

type Repository struct {
	querier Querier
}

func New(querier Querier) *Repository {
	return &Repository{
		querier: querier,
	}
}

// CreateForOrder одним выражением занимает ссылку orders.assignment_id и создаёт рассылку.
// Если у заказа уже есть активная рассылка или он не в доставке, возвращает ErrOrderAlreadyDispatched.
func (r *Repository) CreateForOrder(ctx context.Context, orderID int64, candidates []string, now time.Time) (*entities.Assignment, error) {
	query := `
		WITH claimed AS (
			UPDATE orders
			SET assignment_id = nextval('assignments_id_seq'), updated_at = $3
			WHERE id = $1
			  AND assignment_id IS NULL
			  AND status = 'out_for_delivery'
			RETURNING id, assignment_id
		)
		INSERT INTO assignments (id, order_id, candidates, status, created_at, updated_at)
		SELECT assignment_id, id, $2, 'broadcasted', $3, $3
		FROM claimed
	` + returningAssignment

	assignmentDB, err := scanAssignment(r.querier.QueryRow(ctx, query, orderID, candidates, now))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows),
			repository.IsPgErrorWithCode(err, repository.PgErrUniqueViolation),
			repository.IsConcurrencyConflict(err):
			return nil, dispatch.ErrOrderAlreadyDispatched
		}
		return nil, fmt.Errorf("unexpected assignment repository create error: %w", err)
	}

	return ToDomain(assignmentDB), nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*entities.Assignment, error) {
	query, args, err := qb.
		Select(assignmentColumns...).
		From("assignments").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("unexpected assignment repository get error: %w", err)
	}

	assignmentDB, err := scanAssignment(r.querier.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dispatch.ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("unexpected assignment repository get error: %w", err)
	}

	return ToDomain(assignmentDB), nil
}

// Accept compare-and-swap broadcasted -> assigned. Побеждает первая закоммиченная запись,
// остальные получают 0 строк и классифицируются по актуальному состоянию.
func (r *Repository) Accept(ctx context.Context, id int64, courierID string, now time.Time) (*entities.Assignment, error) {
	query := `
		UPDATE assignments
		SET status = 'assigned', accepted_by = $2, accepted_at = $3, updated_at = $3
		WHERE id = $1
		  AND status = 'broadcasted'
		  AND $2 = ANY(candidates)
	` + returningAssignment

	assignmentDB, err := scanAssignment(r.querier.QueryRow(ctx, query, id, courierID, now))
	if err == nil {
		return ToDomain(assignmentDB), nil
	}

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, r.classifyRejectedAccept(ctx, id)
	case repository.IsPgErrorWithCode(err, repository.PgErrUniqueViolation):
		return nil, dispatch.ErrCourierBusy
	case repository.IsConcurrencyConflict(err):
		return nil, dispatch.ErrConcurrentUpdate
	}
	return nil, fmt.Errorf("unexpected assignment repository accept error: %w", err)
}

func (r *Repository) classifyRejectedAccept(ctx context.Context, id int64) error {
	current, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if !current.IsOpen() {
		return dispatch.ErrAlreadyResolved
	}
	return dispatch.ErrNotCandidate
}

// HasActiveAssignment курьер уже выиграл незавершённое назначение.
func (r *Repository) HasActiveAssignment(ctx context.Context, courierID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM assignments
			WHERE accepted_by = $1 AND status = 'assigned'
		)
	`

	var exists bool
	err := r.querier.QueryRow(ctx, query, courierID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("unexpected assignment repository has active error: %w", err)
	}
	return exists, nil
}

// GetActiveByCourier назначение, которое курьер сейчас везёт.
func (r *Repository) GetActiveByCourier(ctx context.Context, courierID string) (*entities.Assignment, error) {
	query, args, err := qb.
		Select(assignmentColumns...).
		From("assignments").
		Where(sq.Eq{"accepted_by": courierID, "status": entities.AssignmentAssigned.String()}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("unexpected assignment repository get active error: %w", err)
	}

	assignmentDB, err := scanAssignment(r.querier.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dispatch.ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("unexpected assignment repository get active error: %w", err)
	}

	return ToDomain(assignmentDB), nil
}

// BusyCouriers подмножество courierIDs, уже занятых другой незавершённой рассылкой:
// кандидаты открытых рассылок и победители назначенных.
func (r *Repository) BusyCouriers(ctx context.Context, courierIDs []string) ([]string, error) {
	if len(courierIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT DISTINCT c.courier_id
		FROM assignments a
		CROSS JOIN LATERAL unnest(a.candidates) AS c(courier_id)
		WHERE a.status = 'broadcasted'
		  AND a.candidates && $1::text[]
		  AND c.courier_id = ANY($1)
		UNION
		SELECT accepted_by
		FROM assignments
		WHERE status = 'assigned'
		  AND accepted_by = ANY($1)
	`

	rows, err := r.querier.Query(ctx, query, courierIDs)
	if err != nil {
		return nil, fmt.Errorf("unexpected assignment repository busy couriers error: %w", err)
	}

	busy, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("unexpected assignment repository busy couriers error: %w", err)
	}
	return busy, nil
}

// RemoveCandidate исключает курьера из всех остальных открытых рассылок и возвращает их id.
func (r *Repository) RemoveCandidate(ctx context.Context, courierID string, exceptID int64) ([]int64, error) {
	query := `
		UPDATE assignments
		SET candidates = array_remove(candidates, $1), updated_at = NOW()
		WHERE status = 'broadcasted'
		  AND id <> $2
		  AND $1 = ANY(candidates)
		RETURNING id
	`

	rows, err := r.querier.Query(ctx, query, courierID, exceptID)
	if err != nil {
		return nil, fmt.Errorf("unexpected assignment repository remove candidate error: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		if repository.IsConcurrencyConflict(err) {
			return nil, dispatch.ErrConcurrentUpdate
		}
		return nil, fmt.Errorf("unexpected assignment repository remove candidate error: %w", err)
	}
	return ids, nil
}

// Decline убирает курьера из кандидатов открытой рассылки.
func (r *Repository) Decline(ctx context.Context, id int64, courierID string) (*entities.Assignment, error) {
	query := `
		UPDATE assignments
		SET candidates = array_remove(candidates, $2), updated_at = NOW()
		WHERE id = $1
		  AND status = 'broadcasted'
		  AND $2 = ANY(candidates)
	` + returningAssignment

	assignmentDB, err := scanAssignment(r.querier.QueryRow(ctx, query, id, courierID))
	if err == nil {
		return ToDomain(assignmentDB), nil
	}

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, r.classifyRejectedAccept(ctx, id)
	case repository.IsConcurrencyConflict(err):
		return nil, dispatch.ErrConcurrentUpdate
	}
	return nil, fmt.Errorf("unexpected assignment repository decline error: %w", err)
}

// Complete завершает назначение после подтверждения доставки.
func (r *Repository) Complete(ctx context.Context, id int64, now time.Time) error {
	query := `
		UPDATE assignments
		SET status = 'completed', updated_at = $2
		WHERE id = $1 AND status <> 'completed'
	`

	_, err := r.querier.Exec(ctx, query, id, now)
	if err != nil {
		return fmt.Errorf("unexpected assignment repository complete error: %w", err)
	}
	return nil
}

// Abandon закрывает рассылку без победителя. false, если её уже кто-то принял или закрыл.
func (r *Repository) Abandon(ctx context.Context, id int64, now time.Time) (bool, error) {
	query := `
		UPDATE assignments
		SET status = 'completed', updated_at = $2
		WHERE id = $1 AND status = 'broadcasted'
	`

	result, err := r.querier.Exec(ctx, query, id, now)
	if err != nil {
		if repository.IsConcurrencyConflict(err) {
			return false, dispatch.ErrConcurrentUpdate
		}
		return false, fmt.Errorf("unexpected assignment repository abandon error: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func (r *Repository) ListOpenForCourier(ctx context.Context, courierID string) ([]entities.Assignment, error) {
	query, args, err := qb.
		Select(assignmentColumns...).
		From("assignments").
		Where(sq.Eq{"status": entities.AssignmentBroadcasted.String()}).
		Where(sq.Expr("? = ANY(candidates)", courierID)).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("unexpected assignment repository list open error: %w", err)
	}

	return r.list(ctx, query, args...)
}

func (r *Repository) ListStale(ctx context.Context, createdBefore time.Time, limit uint64) ([]entities.Assignment, error) {
	query, args, err := qb.
		Select(assignmentColumns...).
		From("assignments").
		Where(sq.Eq{"status": entities.AssignmentBroadcasted.String()}).
		Where(sq.Lt{"created_at": createdBefore}).
		OrderBy("created_at ASC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("unexpected assignment repository list stale error: %w", err)
	}

	return r.list(ctx, query, args...)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]entities.Assignment, error) {
	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("unexpected assignment repository list error: %w", err)
	}
	defer rows.Close()

	var assignments []AssignmentDB
	for rows.Next() {
		assignmentDB, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("unexpected assignment repository list error: %w", err)
		}
		assignments = append(assignments, *assignmentDB)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("unexpected assignment repository list error: %w", err)
	}

	return ToDomainList(assignments), nil
}

func scanAssignment(row pgx.Row) (*AssignmentDB, error) {
	var a AssignmentDB
	err := row.Scan(
		&a.ID,
		&a.OrderID,
		&a.Candidates,
		&a.Status,
		&a.AcceptedBy,
		&a.AcceptedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
