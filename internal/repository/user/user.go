package user

import (
	"context"
	"errors"
	"fmt"

	"dispatch/internal/entities"
	"dispatch/internal/service/completion"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

var qb sq.StatementBuilderType = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var userColumns = []string{"id", "name", "email", "mobile", "role"}

type Repository struct {
	querier Querier
}

func New(querier Querier) *Repository {
	return &Repository{
		querier: querier,
	}
}

func (r *Repository) GetUser(ctx context.Context, id string) (*entities.User, error) {
	query, args, err := qb.
		Select(userColumns...).
		From("users").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("unexpected user repository get error: %w", err)
	}

	var userDB UserDB
	err = r.querier.QueryRow(ctx, query, args...).
		Scan(
			&userDB.ID,
			&userDB.Name,
			&userDB.Email,
			&userDB.Mobile,
			&userDB.Role,
		)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, completion.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("unexpected user repository get error: %w", err)
	}

	return ToDomain(&userDB), nil
}

// ListCouriersByIDs только пользователи с ролью courier, порядок не гарантирован.
func (r *Repository) ListCouriersByIDs(ctx context.Context, ids []string) ([]entities.User, error) {
	if len(ids) == 0 {
		return []entities.User{}, nil
	}

	query, args, err := qb.
		Select(userColumns...).
		From("users").
		Where(sq.Eq{"id": ids, "role": entities.RoleCourier.String()}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("unexpected user repository list couriers error: %w", err)
	}

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("unexpected user repository list couriers error: %w", err)
	}

	usersDB, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (UserDB, error) {
		var u UserDB
		err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Mobile, &u.Role)
		return u, err
	})
	if err != nil {
		return nil, fmt.Errorf("unexpected user repository list couriers error: %w", err)
	}

	return ToDomainList(usersDB), nil
}
