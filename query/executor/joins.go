package executor

import (
	"context"

	"github.com/satishbabariya/pulseorm/ormerr"
	"github.com/satishbabariya/pulseorm/query/builder"
	"github.com/satishbabariya/pulseorm/query/compiler"
	"github.com/satishbabariya/pulseorm/query/sqlgen"
	"github.com/satishbabariya/pulseorm/schema"
)

// Cardinality is the shape of a navigation.
type Cardinality int

const (
	// One attaches at most one related entity.
	One Cardinality = iota
	// Many attaches a collection.
	Many
)

func (c Cardinality) String() string {
	if c == Many {
		return "many"
	}
	return "one"
}

// Mode selects the join semantics.
type Mode int

const (
	// Left keeps roots without a match.
	Left Mode = iota
	// Inner drops roots without a match (one-to-one only).
	Inner
)

func (m Mode) String() string {
	if m == Inner {
		return "inner"
	}
	return "left"
}

// Relation is a navigation from T to a related entity type. Relations are
// built with HasOne and HasMany and are immutable.
type Relation[T any] interface {
	// Name identifies the relation, by default the target entity name.
	Name() string
	Cardinality() Cardinality
	Mode() Mode
	// RootMember is the root-side member matched against the target.
	RootMember() string
	// Select returns a copy selecting only members of the target; the
	// target key and join member are always included.
	Select(members ...string) Relation[T]

	clause(d sqlgen.Dialect) (builder.Join, error)
	wide(cur Cursor, prefix string) merger[T]
	attach(ctx context.Context, e *Executor, root *schema.Descriptor[T], roots []T) ([]T, error)
}

// RelationOption configures a relation.
type RelationOption func(*relationOptions)

type relationOptions struct {
	name    string
	mode    Mode
	members []string
}

// Named overrides the relation name.
func Named(name string) RelationOption {
	return func(o *relationOptions) { o.name = name }
}

// InnerJoin gives the relation inner-join semantics.
func InnerJoin() RelationOption {
	return func(o *relationOptions) { o.mode = Inner }
}

// Members restricts the selected target members.
func Members(members ...string) RelationOption {
	return func(o *relationOptions) { o.members = members }
}

type relation[T, J any] struct {
	relationOptions
	card         Cardinality
	rootMember   string
	targetMember string
	target       *schema.Descriptor[J]
	one          func(*T) **J
	many         func(*T) *[]J
}

// HasOne declares a one-to-one navigation stored through nav. Rows of the
// target whose targetMember equals the root's rootMember are attached.
func HasOne[T, J any](target *schema.Descriptor[J], nav func(*T) **J, rootMember, targetMember string, opts ...RelationOption) Relation[T] {
	r := newRelation[T](target, rootMember, targetMember, opts)
	r.card, r.one = One, nav
	return r
}

// HasMany declares a one-to-many navigation collected through nav.
func HasMany[T, J any](target *schema.Descriptor[J], nav func(*T) *[]J, rootMember, targetMember string, opts ...RelationOption) Relation[T] {
	r := newRelation[T](target, rootMember, targetMember, opts)
	r.card, r.many = Many, nav
	return r
}

func newRelation[T, J any](target *schema.Descriptor[J], rootMember, targetMember string, opts []RelationOption) *relation[T, J] {
	r := &relation[T, J]{target: target, rootMember: rootMember, targetMember: targetMember}
	r.name = target.Entity()
	for _, opt := range opts {
		opt(&r.relationOptions)
	}
	return r
}

func (r *relation[T, J]) Name() string             { return r.name }
func (r *relation[T, J]) Cardinality() Cardinality { return r.card }
func (r *relation[T, J]) Mode() Mode               { return r.mode }
func (r *relation[T, J]) RootMember() string       { return r.rootMember }

func (r *relation[T, J]) Select(members ...string) Relation[T] {
	c := *r
	c.members = append([]string(nil), members...)
	return &c
}

func (r *relation[T, J]) required() []string {
	req := []string{r.targetMember}
	if key, ok := r.target.Key(); ok {
		req = append(req, key.Member())
	}
	return req
}

func (r *relation[T, J]) targetColumn() (*schema.Column[J], error) {
	col, ok := r.target.Column(r.targetMember)
	if !ok {
		return nil, &ormerr.UnmappedMemberError{Entity: r.target.Entity(), Member: r.targetMember}
	}
	return col, nil
}

func (r *relation[T, J]) clause(d sqlgen.Dialect) (builder.Join, error) {
	col, err := r.targetColumn()
	if err != nil {
		return builder.Join{}, err
	}
	cols, err := builder.New(r.target, d).ProjectionColumns(r.members, r.required()...)
	if err != nil {
		return builder.Join{}, err
	}
	j := builder.Join{
		Table:        r.target.Table(),
		RootMember:   r.rootMember,
		TargetColumn: col.Name(),
		Columns:      cols,
		Inner:        r.mode == Inner,
	}
	if key, ok := r.target.Key(); ok && r.card == Many {
		j.OrderColumn = key.Name()
	}
	return j, nil
}

// JoinClauses renders the SQL view of rels, in order.
func JoinClauses[T any](rels []Relation[T], d sqlgen.Dialect) ([]builder.Join, error) {
	joins := make([]builder.Join, len(rels))
	for i, r := range rels {
		j, err := r.clause(d)
		if err != nil {
			return nil, err
		}
		joins[i] = j
	}
	return joins, nil
}

// Joined runs an unpaged joined read as one wide-row statement. The root
// entity must have a primary key.
func Joined[T any](ctx context.Context, e *Executor, b *builder.Builder[T], q builder.Query, rels []Relation[T]) (out []T, err error) {
	if _, err := b.Descriptor().RequireKey("join"); err != nil {
		return nil, err
	}
	joins, err := JoinClauses(rels, e.Dialect())
	if err != nil {
		return nil, err
	}
	st, err := b.Joined(q, joins)
	if err != nil {
		return nil, err
	}
	cur, err := e.Query(ctx, st)
	if err != nil {
		return nil, err
	}
	defer closeInto(&err, cur)
	return FlattenWide(cur, b.Descriptor(), rels)
}

// JoinedPage runs a paged joined read: one page of root keys and the total
// count, the roots re-selected by key, then one follow-up query per
// relation. The root entity must have a primary key.
func JoinedPage[T any](ctx context.Context, e *Executor, b *builder.Builder[T], q builder.Query, rels []Relation[T], page, size int) ([]T, int64, error) {
	// Fail on bad relations before touching the database.
	if _, err := JoinClauses(rels, e.Dialect()); err != nil {
		return nil, 0, err
	}
	pageSt, countSt, err := b.KeyPage(q, page, size)
	if err != nil {
		return nil, 0, err
	}
	total, err := e.Count(ctx, countSt)
	if err != nil {
		return nil, 0, err
	}
	keys, err := FetchScalars[any](ctx, e, pageSt)
	if err != nil {
		return nil, 0, err
	}
	if len(keys) == 0 {
		return []T{}, total, nil
	}

	rootSt, err := b.SelectByKeys(keys, builder.Query{Order: q.Order, Members: rootMembers(q.Members, rels)})
	if err != nil {
		return nil, 0, err
	}
	roots, err := Fetch(ctx, e, rootSt, b.Descriptor())
	if err != nil {
		return nil, 0, err
	}
	roots, err = AttachSplit(ctx, e, b.Descriptor(), roots, rels)
	if err != nil {
		return nil, 0, err
	}
	return roots, total, nil
}

// rootMembers merges the root-side join members into a projection.
func rootMembers[T any](members []string, rels []Relation[T]) []string {
	extra := make([]string, len(rels))
	for i, r := range rels {
		extra[i] = r.RootMember()
	}
	return compiler.WithRequired(members, extra...)
}
