package querier

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/avito-tech/go-transaction-manager/pgxv5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opExec     = "exec"
	opQuery    = "query"
	opQueryRow = "query_row"
)

// Querier выполняет запросы в транзакции из контекста, если она есть, иначе в пуле.
type Querier struct {
	pool   *pgxpool.Pool
	getter *pgxv5.CtxGetter
}

func New(pool *pgxpool.Pool, getter *pgxv5.CtxGetter) *Querier {
	return &Querier{
		pool:   pool,
		getter: getter,
	}
}

func (q *Querier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	tr, inTx := q.get(ctx)
	start := time.Now()
	tag, err := tr.Exec(ctx, sql, args...)
	observe(opExec, inTx, start, err)
	return tag, err
}

// Query время считается до получения первой порции строк, чтение остатка не учитывается.
func (q *Querier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	tr, inTx := q.get(ctx)
	start := time.Now()
	rows, err := tr.Query(ctx, sql, args...)
	observe(opQuery, inTx, start, err)
	return rows, err
}

// QueryRow запрос выполняется лениво, поэтому время фиксируется в Scan.
func (q *Querier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	tr, inTx := q.get(ctx)
	return &timedRow{
		row:   tr.QueryRow(ctx, sql, args...),
		inTx:  inTx,
		start: time.Now(),
	}
}

func (q *Querier) get(ctx context.Context) (pgxv5.Tr, bool) {
	if tr := q.getter.DefaultTrOrDB(ctx, nil); tr != nil {
		return tr, true
	}
	return q.pool, false
}

type timedRow struct {
	row   pgx.Row
	inTx  bool
	start time.Time
}

func (r *timedRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	observe(opQueryRow, r.inTx, r.start, err)
	return err
}

func observe(op string, inTx bool, start time.Time, err error) {
	result := "ok"
	switch {
	case err == nil, errors.Is(err, pgx.ErrNoRows):
	default:
		result = "error"
	}
	QueryDuration.WithLabelValues(op, strconv.FormatBool(inTx), result).Observe(time.Since(start).Seconds())
}
