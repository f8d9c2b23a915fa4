package client

import (
	"context"

	"github.com/satishbabariya/pulseorm/ormerr"
	"github.com/satishbabariya/pulseorm/query/ast"
	"github.com/satishbabariya/pulseorm/query/builder"
	"github.com/satishbabariya/pulseorm/query/compiler"
	"github.com/satishbabariya/pulseorm/query/executor"
	"github.com/satishbabariya/pulseorm/query/sqlgen"
	"github.com/satishbabariya/pulseorm/schema"
)

// Query is a filtered, ordered read of root entities. Builder methods
// mutate and return the receiver; a Query is not safe for concurrent use.
// Errors from the builder methods surface when the query runs.
type Query[T any] struct {
	s   Session
	b   *builder.Builder[T]
	q   builder.Query
	err error
}

// From starts a query over T, resolving its descriptor from the session's
// registry.
func From[T any](s Session) *Query[T] {
	b, err := prepare[T](s)
	return &Query[T]{s: s, b: b, err: err}
}

// FromDescriptor starts a query over an explicit descriptor, for dynamic
// entities such as schema.Record.
func FromDescriptor[T any](s Session, desc *schema.Descriptor[T]) *Query[T] {
	return &Query[T]{s: s, b: builder.New(desc, s.client().dialect)}
}

// Where AND-combines p with the current filter.
func (q *Query[T]) Where(p ast.Predicate[T]) *Query[T] {
	return q.WhereExpr(p.Expr)
}

// WhereExpr AND-combines an untyped expression with the current filter.
func (q *Query[T]) WhereExpr(e ast.Expr) *Query[T] {
	q.q.Where = ast.AllOf(q.q.Where, e)
	return q
}

// OrderBy appends an ascending order term.
func (q *Query[T]) OrderBy(member string) *Query[T] {
	q.q.Order = append(q.q.Order, compiler.Asc(member))
	return q
}

// Desc appends a descending order term.
func (q *Query[T]) Desc(member string) *Query[T] {
	q.q.Order = append(q.q.Order, compiler.Desc(member))
	return q
}

// Select restricts the selected members. The primary key and order members
// are always selected.
func (q *Query[T]) Select(members ...string) *Query[T] {
	q.q.Members = append(q.q.Members, members...)
	return q
}

// Statement returns the statement List would run.
func (q *Query[T]) Statement() (sqlgen.Statement, error) {
	if q.err != nil {
		return sqlgen.Statement{}, q.err
	}
	return q.b.RootOnly(q.q)
}

// List returns every matching entity.
func (q *Query[T]) List(ctx context.Context) ([]T, error) {
	st, err := q.Statement()
	if err != nil {
		return nil, err
	}
	return fetch(ctx, q.s, "list", q.b.Descriptor(), st)
}

// First returns the first matching entity in order, or an
// ormerr.NotFoundError.
func (q *Query[T]) First(ctx context.Context) (*T, error) {
	if q.err != nil {
		return nil, q.err
	}
	st, _, err := q.b.RootPage(q.q, 1, 1)
	if err != nil {
		return nil, err
	}
	rows, err := fetch(ctx, q.s, "first", q.b.Descriptor(), st)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &ormerr.NotFoundError{Entity: q.b.Descriptor().Entity()}
	}
	return &rows[0], nil
}

// Single returns the only matching entity. No match is an
// ormerr.NotFoundError and more than one an ormerr.NotSingularError.
func (q *Query[T]) Single(ctx context.Context) (*T, error) {
	rows, err := q.List(ctx)
	if err != nil {
		return nil, err
	}
	return single(q.b.Descriptor(), rows, false)
}

// Count returns the number of matching rows.
func (q *Query[T]) Count(ctx context.Context) (n int64, err error) {
	if q.err != nil {
		return 0, q.err
	}
	st, err := q.b.Count(q.q.Where)
	if err != nil {
		return 0, err
	}
	err = observe(ctx, q.s, "count", q.b.Descriptor().Entity(), func() error {
		return q.s.run(ctx, func(ex *executor.Executor) (err error) {
			n, err = ex.Count(ctx, st)
			return err
		})
	})
	return n, err
}

// Page returns one page of matching entities and the total match count.
// Pages are numbered from one.
func (q *Query[T]) Page(ctx context.Context, page, size int) (Page[T], error) {
	if q.err != nil {
		return Page[T]{}, q.err
	}
	return rootPage(ctx, q.s, q.b, q.q, page, size)
}

// ProjectTo reads q and copies each entity into D, member by member. Every
// member of D must be mapped on T; only those members are selected.
func ProjectTo[T, D any](ctx context.Context, q *Query[T]) ([]D, error) {
	if q.err != nil {
		return nil, q.err
	}
	target, err := schema.Resolve[D](q.s.client().registry)
	if err != nil {
		return nil, err
	}
	p, err := newProjection(q.b.Descriptor(), target)
	if err != nil {
		return nil, err
	}
	view := *q
	view.q.Members = append(append([]string(nil), q.q.Members...), p.members()...)
	rows, err := view.List(ctx)
	if err != nil {
		return nil, err
	}
	return p.copyAll(rows)
}

func fetch[T any](ctx context.Context, s Session, op string, desc *schema.Descriptor[T], st sqlgen.Statement) (rows []T, err error) {
	err = observe(ctx, s, op, desc.Entity(), func() error {
		return s.run(ctx, func(ex *executor.Executor) (err error) {
			rows, err = executor.Fetch(ctx, ex, st, desc)
			return err
		})
	})
	return rows, err
}

// single picks the only row. With orDefault an empty result is (nil, nil).
func single[T any](desc *schema.Descriptor[T], rows []T, orDefault bool) (*T, error) {
	switch len(rows) {
	case 0:
		if orDefault {
			return nil, nil
		}
		return nil, &ormerr.NotFoundError{Entity: desc.Entity()}
	case 1:
		return &rows[0], nil
	default:
		return nil, &ormerr.NotSingularError{Entity: desc.Entity(), Count: len(rows)}
	}
}
