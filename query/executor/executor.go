package executor

import (
	"context"
	"database/sql"
	"io"
	"time"

	"github.com/satishbabariya/pulseorm/internal/debug"
	"github.com/satishbabariya/pulseorm/query/sqlgen"
	"github.com/satishbabariya/pulseorm/schema"
)

// Querier is the subset of database/sql shared by *sql.DB, *sql.Conn and
// *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Connector hands out dedicated connections; *sql.DB implements it.
type Connector interface {
	Conn(ctx context.Context) (*sql.Conn, error)
}

type txBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Executor runs statements through one Querier, binding them with the
// dialect first.
type Executor struct {
	q       Querier
	dialect sqlgen.Dialect
}

// New creates an executor over q.
func New(q Querier, dialect sqlgen.Dialect) *Executor {
	return &Executor{q: q, dialect: dialect}
}

// Dialect returns the dialect statements are bound with.
func (e *Executor) Dialect() sqlgen.Dialect { return e.dialect }

// Query runs st and returns a cursor over its rows. The caller must close it.
func (e *Executor) Query(ctx context.Context, st sqlgen.Statement) (*RowsCursor, error) {
	text, args := e.dialect.Bind(st)
	start := time.Now()
	rows, err := e.q.QueryContext(ctx, text, args...)
	if err != nil {
		return nil, err
	}
	cur, err := NewRowsCursor(rows)
	if err != nil {
		rows.Close()
		return nil, err
	}
	debug.Debug("query", "sql", text, "params", len(args), "columns", columnsOf(cur), "elapsed", time.Since(start))
	return cur, nil
}

// Exec runs st and returns the number of affected rows. A driver that
// cannot report the count returns its error.
func (e *Executor) Exec(ctx context.Context, st sqlgen.Statement) (int64, error) {
	res, err := e.Result(ctx, st)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Result runs st and returns the driver result untouched.
func (e *Executor) Result(ctx context.Context, st sqlgen.Statement) (sql.Result, error) {
	text, args := e.dialect.Bind(st)
	start := time.Now()
	res, err := e.q.ExecContext(ctx, text, args...)
	if err != nil {
		return nil, err
	}
	debug.Debug("exec", "sql", text, "params", len(args), "elapsed", time.Since(start))
	return res, nil
}

// Count runs a COUNT(*) statement.
func (e *Executor) Count(ctx context.Context, st sqlgen.Statement) (n int64, err error) {
	cur, err := e.Query(ctx, st)
	if err != nil {
		return 0, err
	}
	defer closeInto(&err, cur)
	return count(cur)
}

// Fetch runs st and materializes every row as T.
func Fetch[T any](ctx context.Context, e *Executor, st sqlgen.Statement, desc *schema.Descriptor[T]) (out []T, err error) {
	cur, err := e.Query(ctx, st)
	if err != nil {
		return nil, err
	}
	defer closeInto(&err, cur)
	return Materialize(cur, desc)
}

// FetchScalars runs st and reads its first column as S.
func FetchScalars[S any](ctx context.Context, e *Executor, st sqlgen.Statement) (out []S, err error) {
	cur, err := e.Query(ctx, st)
	if err != nil {
		return nil, err
	}
	defer closeInto(&err, cur)
	return Scalars[S](cur)
}

// closeInto closes c, reporting its error only when err is still nil so the
// original failure reaches the caller unchanged.
func closeInto(err *error, c io.Closer) {
	if cerr := c.Close(); *err == nil {
		*err = cerr
	}
}
