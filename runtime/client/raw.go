package client

import (
	"context"

	"github.com/satishbabariya/pulseorm/query/ast"
	"github.com/satishbabariya/pulseorm/query/builder"
	"github.com/satishbabariya/pulseorm/query/compiler"
	"github.com/satishbabariya/pulseorm/query/executor"
	"github.com/satishbabariya/pulseorm/query/sqlgen"
)

// RawQuery runs caller-written SQL and materializes its rows as T. The SQL
// uses the dialect's named placeholders (see Client.Dialect().Param) and
// must not carry its own WHERE clause when Where is used.
type RawQuery[T any] struct {
	s     Session
	b     *builder.Builder[T]
	st    sqlgen.Statement
	where ast.Expr
	err   error
}

// Raw starts a raw query.
func Raw[T any](s Session, sql string, params ...sqlgen.Param) *RawQuery[T] {
	b, err := prepare[T](s)
	ps, perr := sqlgen.ParamsOf(params...)
	if err == nil {
		err = perr
	}
	return &RawQuery[T]{
		s:   s,
		b:   b,
		st:  sqlgen.Statement{SQL: sql, Params: ps},
		err: err,
	}
}

// Where AND-combines p into the WHERE clause appended to the SQL.
func (r *RawQuery[T]) Where(p ast.Predicate[T]) *RawQuery[T] {
	r.where = ast.AllOf(r.where, p.Expr)
	return r
}

// Statement returns the statement List would run.
func (r *RawQuery[T]) Statement() (sqlgen.Statement, error) {
	if r.err != nil {
		return sqlgen.Statement{}, r.err
	}
	if r.where == nil {
		return r.st, nil
	}
	return r.b.Filter(r.st, r.where)
}

// List returns every row.
func (r *RawQuery[T]) List(ctx context.Context) ([]T, error) {
	st, err := r.Statement()
	if err != nil {
		return nil, err
	}
	return fetch(ctx, r.s, "raw", r.b.Descriptor(), st)
}

// Single returns the only row, nil when there is none, and an
// ormerr.NotSingularError when there are several.
func (r *RawQuery[T]) Single(ctx context.Context) (*T, error) {
	rows, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	return single(r.b.Descriptor(), rows, true)
}

// Paged returns one page of rows. Any ORDER BY in the SQL is replaced by
// order, which defaults to the primary key.
func (r *RawQuery[T]) Paged(ctx context.Context, page, size int, order ...compiler.Order) ([]T, error) {
	st, err := r.Statement()
	if err != nil {
		return nil, err
	}
	st, err = r.b.Paged(st, order, page, size)
	if err != nil {
		return nil, err
	}
	return fetch(ctx, r.s, "raw", r.b.Descriptor(), st)
}

// Scalars runs sql and returns its first column as S. NULL reads as the
// zero value of S.
func Scalars[S any](ctx context.Context, s Session, sql string, params ...sqlgen.Param) (out []S, err error) {
	ps, err := sqlgen.ParamsOf(params...)
	if err != nil {
		return nil, err
	}
	st := sqlgen.Statement{SQL: sql, Params: ps}
	err = observe(ctx, s, "scalars", "", func() error {
		return s.run(ctx, func(ex *executor.Executor) (err error) {
			out, err = executor.FetchScalars[S](ctx, ex, st)
			return err
		})
	})
	return out, err
}
