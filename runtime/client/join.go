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

// JoinQuery reads root entities together with related entities. Unpaged it
// runs one wide-row statement; paged it splits into a key page, a count,
// the roots by key and one query per relation.
type JoinQuery[T any] struct {
	s          Session
	b          *builder.Builder[T]
	q          builder.Query
	rels       []executor.Relation[T]
	page, size int
	err        error
}

// Joined starts a joined read over T.
func Joined[T any](s Session) *JoinQuery[T] {
	b, err := prepare[T](s)
	return &JoinQuery[T]{s: s, b: b, err: err}
}

// JoinedDescriptor starts a joined read over an explicit descriptor.
func JoinedDescriptor[T any](s Session, desc *schema.Descriptor[T]) *JoinQuery[T] {
	return &JoinQuery[T]{s: s, b: builder.New(desc, s.client().dialect)}
}

// Include adds prebuilt relations.
func (j *JoinQuery[T]) Include(rels ...executor.Relation[T]) *JoinQuery[T] {
	j.rels = append(j.rels, rels...)
	return j
}

// IncludeOne adds a one-to-one navigation to J, resolving J from the
// session's registry. Rows of J whose targetMember equals the root's
// rootMember are attached through nav.
func IncludeOne[T, J any](j *JoinQuery[T], nav func(*T) **J, rootMember, targetMember string, opts ...executor.RelationOption) *JoinQuery[T] {
	target, err := schema.Resolve[J](j.s.client().registry)
	if err != nil {
		j.fail(err)
		return j
	}
	return j.Include(executor.HasOne(target, nav, rootMember, targetMember, opts...))
}

// IncludeMany adds a one-to-many navigation to J.
func IncludeMany[T, J any](j *JoinQuery[T], nav func(*T) *[]J, rootMember, targetMember string, opts ...executor.RelationOption) *JoinQuery[T] {
	target, err := schema.Resolve[J](j.s.client().registry)
	if err != nil {
		j.fail(err)
		return j
	}
	return j.Include(executor.HasMany(target, nav, rootMember, targetMember, opts...))
}

func (j *JoinQuery[T]) fail(err error) {
	if j.err == nil {
		j.err = err
	}
}

// Where AND-combines p with the current filter. Filters apply to the root.
func (j *JoinQuery[T]) Where(p ast.Predicate[T]) *JoinQuery[T] {
	return j.WhereExpr(p.Expr)
}

// WhereExpr AND-combines an untyped expression with the current filter.
func (j *JoinQuery[T]) WhereExpr(e ast.Expr) *JoinQuery[T] {
	j.q.Where = ast.AllOf(j.q.Where, e)
	return j
}

// OrderBy appends an ascending root order term.
func (j *JoinQuery[T]) OrderBy(member string) *JoinQuery[T] {
	j.q.Order = append(j.q.Order, compiler.Asc(member))
	return j
}

// Desc appends a descending root order term.
func (j *JoinQuery[T]) Desc(member string) *JoinQuery[T] {
	j.q.Order = append(j.q.Order, compiler.Desc(member))
	return j
}

// SelectRoot restricts the root members read. The key, order and join
// members are always read.
func (j *JoinQuery[T]) SelectRoot(members ...string) *JoinQuery[T] {
	j.q.Members = append(j.q.Members, members...)
	return j
}

// SelectJoin restricts the members read for the relation called name.
func (j *JoinQuery[T]) SelectJoin(name string, members ...string) *JoinQuery[T] {
	for i, r := range j.rels {
		if r.Name() == name {
			j.rels[i] = r.Select(members...)
			return j
		}
	}
	j.fail(&ormerr.ArgumentError{Name: "relation", Value: name, Reason: "not included"})
	return j
}

// Page pages the read. Pages are numbered from one and the root entity
// must have a primary key.
func (j *JoinQuery[T]) Page(page, size int) *JoinQuery[T] {
	j.page, j.size = page, size
	return j
}

func (j *JoinQuery[T]) paged() bool { return j.page != 0 || j.size != 0 }

// Statements returns the first statements the read would run: the wide
// statement when unpaged, the key page and count statements when paged.
// Follow-up statements of a paged read depend on the keys it returns.
func (j *JoinQuery[T]) Statements() ([]sqlgen.Statement, error) {
	if j.err != nil {
		return nil, j.err
	}
	if j.paged() {
		pageSt, countSt, err := j.b.KeyPage(j.q, j.page, j.size)
		if err != nil {
			return nil, err
		}
		return []sqlgen.Statement{pageSt, countSt}, nil
	}
	joins, err := executor.JoinClauses(j.rels, j.s.client().dialect)
	if err != nil {
		return nil, err
	}
	st, err := j.b.Joined(j.q, joins)
	if err != nil {
		return nil, err
	}
	return []sqlgen.Statement{st}, nil
}

// List runs the read and returns the roots with their navigations filled,
// plus the total number of matching roots. Unpaged the total is the number
// of roots returned.
func (j *JoinQuery[T]) List(ctx context.Context) (out []T, total int64, err error) {
	if j.err != nil {
		return nil, 0, j.err
	}
	err = observe(ctx, j.s, "joined", j.b.Descriptor().Entity(), func() error {
		return j.s.run(ctx, func(ex *executor.Executor) (err error) {
			if j.paged() {
				out, total, err = executor.JoinedPage(ctx, ex, j.b, j.q, j.rels, j.page, j.size)
				return err
			}
			out, err = executor.Joined(ctx, ex, j.b, j.q, j.rels)
			total = int64(len(out))
			return err
		})
	})
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Project runs q and maps every root through fn.
func Project[T, D any](ctx context.Context, q *JoinQuery[T], fn func(T) D) ([]D, int64, error) {
	rows, total, err := q.List(ctx)
	if err != nil {
		return nil, 0, err
	}
	out := make([]D, len(rows))
	for i, r := range rows {
		out[i] = fn(r)
	}
	return out, total, nil
}
