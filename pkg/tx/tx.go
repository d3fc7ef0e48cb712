package tx

import (
	"context"
	"errors"

	"github.com/avito-tech/go-transaction-manager/pgxv5"
	"github.com/avito-tech/go-transaction-manager/trm/manager"
	"github.com/avito-tech/go-transaction-manager/trm/settings"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const serializationFailure = "40001"

// Manager открывает транзакции с нужным уровнем изоляции и считает их исход.
type Manager struct {
	internal *manager.Manager
}

func New(db pgxv5.Transactional) *Manager {
	return &Manager{
		internal: manager.Must(pgxv5.NewDefaultFactory(db)),
	}
}

// Do выполняет fn в serializable транзакции.
func (m *Manager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, pgx.Serializable, fn)
}

// DoReadCommitted для операций, где конкурентность решается условным UPDATE:
// проигравший ждёт коммита победителя и видит 0 строк вместо serialization failure.
func (m *Manager) DoReadCommitted(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, pgx.ReadCommitted, fn)
}

func (m *Manager) run(ctx context.Context, level pgx.TxIsoLevel, fn func(ctx context.Context) error) error {
	opts := pgxv5.MustSettings(
		settings.Must(),
		pgxv5.WithTxOptions(pgx.TxOptions{IsoLevel: level}),
	)

	err := m.internal.DoWithSettings(ctx, opts, fn)
	TransactionsTotal.WithLabelValues(string(level), outcome(err)).Inc()
	return err
}

func outcome(err error) string {
	if err == nil {
		return "commit"
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == serializationFailure {
		return "serialization_failure"
	}
	return "rollback"
}
