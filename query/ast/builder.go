package ast

import "github.com/satishbabariya/pulseorm/query/sqlgen"

// Predicate is a boolean expression over entity type T. The type parameter
// keeps predicates for different entities from being mixed up.
type Predicate[T any] struct {
	Expr Expr
}

// Where wraps an untyped expression.
func Where[T any](e Expr) Predicate[T] {
	return Predicate[T]{Expr: e}
}

// True is the always-true predicate.
func True[T any]() Predicate[T] { return Predicate[T]{Expr: Const{Value: true}} }

// False is the always-false predicate.
func False[T any]() Predicate[T] { return Predicate[T]{Expr: Const{Value: false}} }

// And combines p and o with AND.
func (p Predicate[T]) And(o Predicate[T]) Predicate[T] {
	return Predicate[T]{Expr: AllOf(p.Expr, o.Expr)}
}

// Or combines p and o with OR.
func (p Predicate[T]) Or(o Predicate[T]) Predicate[T] {
	return Predicate[T]{Expr: AnyOf(p.Expr, o.Expr)}
}

// Not negates p.
func (p Predicate[T]) Not() Predicate[T] {
	return Predicate[T]{Expr: Not{X: p.Expr}}
}

// IsZero reports whether p carries no expression.
func (p Predicate[T]) IsZero() bool { return p.Expr == nil }

// All ANDs predicates together.
func All[T any](ps ...Predicate[T]) Predicate[T] {
	exprs := make([]Expr, len(ps))
	for i, p := range ps {
		exprs[i] = p.Expr
	}
	return Predicate[T]{Expr: AllOf(exprs...)}
}

// Any ORs predicates together.
func Any[T any](ps ...Predicate[T]) Predicate[T] {
	exprs := make([]Expr, len(ps))
	for i, p := range ps {
		exprs[i] = p.Expr
	}
	return Predicate[T]{Expr: AnyOf(exprs...)}
}

// Col is a typed reference to member of T holding values of type F.
type Col[T, F any] struct {
	member string
}

// C declares a typed column reference.
func C[T, F any](member string) Col[T, F] {
	return Col[T, F]{member: member}
}

// Member returns the referenced member name.
func (c Col[T, F]) Member() string { return c.member }

// Ref returns the untyped column node.
func (c Col[T, F]) Ref() Column { return Column{Member: c.member} }

func (c Col[T, F]) cmp(op Op, v F) Predicate[T] {
	return Predicate[T]{Expr: Compare{Op: op, Left: c.Ref(), Right: Literal{Value: v}}}
}

func (c Col[T, F]) Eq(v F) Predicate[T] { return c.cmp(OpEq, v) }
func (c Col[T, F]) Ne(v F) Predicate[T] { return c.cmp(OpNe, v) }
func (c Col[T, F]) Gt(v F) Predicate[T] { return c.cmp(OpGt, v) }
func (c Col[T, F]) Ge(v F) Predicate[T] { return c.cmp(OpGe, v) }
func (c Col[T, F]) Lt(v F) Predicate[T] { return c.cmp(OpLt, v) }
func (c Col[T, F]) Le(v F) Predicate[T] { return c.cmp(OpLe, v) }

// EqCol compares two members of T.
func (c Col[T, F]) EqCol(o Col[T, F]) Predicate[T] {
	return Predicate[T]{Expr: Compare{Op: OpEq, Left: c.Ref(), Right: o.Ref()}}
}

// IsNull matches rows where the member is NULL.
func (c Col[T, F]) IsNull() Predicate[T] {
	return Predicate[T]{Expr: Compare{Op: OpEq, Left: c.Ref(), Right: Literal{}}}
}

// NotNull matches rows where the member is not NULL.
func (c Col[T, F]) NotNull() Predicate[T] {
	return Predicate[T]{Expr: Compare{Op: OpNe, Left: c.Ref(), Right: Literal{}}}
}

// StrCol is a string member with pattern helpers.
type StrCol[T any] struct {
	Col[T, string]
}

// S declares a string column reference.
func S[T any](member string) StrCol[T] {
	return StrCol[T]{Col: C[T, string](member)}
}

func (c StrCol[T]) like(mode sqlgen.LikeMode, term string, fold bool) Predicate[T] {
	return Predicate[T]{Expr: Like{Member: c.member, Mode: mode, Term: term, Fold: fold}}
}

// StartsWith matches values beginning with prefix.
func (c StrCol[T]) StartsWith(prefix string) Predicate[T] {
	return c.like(sqlgen.LikePrefix, prefix, false)
}

// Contains matches values containing term.
func (c StrCol[T]) Contains(term string) Predicate[T] {
	return c.like(sqlgen.LikeContains, term, false)
}

// EndsWith matches values ending with suffix.
func (c StrCol[T]) EndsWith(suffix string) Predicate[T] {
	return c.like(sqlgen.LikeSuffix, suffix, false)
}

// ContainsFold is Contains ignoring case.
func (c StrCol[T]) ContainsFold(term string) Predicate[T] {
	return c.like(sqlgen.LikeContains, term, true)
}

// EqualsIgnoreCase matches values equal to v ignoring case.
func (c StrCol[T]) EqualsIgnoreCase(v string) Predicate[T] {
	return Predicate[T]{Expr: IgnoreCaseEq{Member: c.member, Value: v}}
}

// BoolCol is a boolean member usable directly as a predicate.
type BoolCol[T any] struct {
	Col[T, bool]
}

// B declares a boolean column reference.
func B[T any](member string) BoolCol[T] {
	return BoolCol[T]{Col: C[T, bool](member)}
}

// True matches rows where the member is true (the bare member shorthand).
func (c BoolCol[T]) True() Predicate[T] {
	return Predicate[T]{Expr: c.Ref()}
}

// False matches rows where the member is false.
func (c BoolCol[T]) False() Predicate[T] {
	return c.Eq(false)
}

// Is compares the member with a boolean literal.
func (c BoolCol[T]) Is(v bool) Predicate[T] {
	return c.Eq(v)
}
