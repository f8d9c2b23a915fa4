// Package ast defines the predicate AST: a closed, serializable set of
// nodes that callers build through the typed helpers in builder.go and that
// the compiler lowers to SQL.
package ast

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/pulseorm/query/sqlgen"
)

// NodeKind identifies a node type.
type NodeKind string

const (
	KindAnd          NodeKind = "and"
	KindOr           NodeKind = "or"
	KindNot          NodeKind = "not"
	KindCompare      NodeKind = "compare"
	KindColumn       NodeKind = "column"
	KindLiteral      NodeKind = "literal"
	KindLike         NodeKind = "like"
	KindIgnoreCaseEq NodeKind = "equalsIgnoreCase"
	KindCall         NodeKind = "call"
	KindArith        NodeKind = "arith"
	KindConst        NodeKind = "const"
)

// Expr is a predicate or value node.
type Expr interface {
	Kind() NodeKind
	String() string
}

// Op is a comparison operator.
type Op string

const (
	OpEq Op = "="
	OpNe Op = "<>"
	OpGt Op = ">"
	OpGe Op = ">="
	OpLt Op = "<"
	OpLe Op = "<="
)

// ParseOp accepts the SQL spelling plus the usual aliases (==, !=, eq, gte).
func ParseOp(s string) (Op, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "=", "==", "eq", "equals":
		return OpEq, true
	case "<>", "!=", "ne", "not":
		return OpNe, true
	case ">", "gt":
		return OpGt, true
	case ">=", "gte", "ge":
		return OpGe, true
	case "<", "lt":
		return OpLt, true
	case "<=", "lte", "le":
		return OpLe, true
	}
	return "", false
}

// And is a logical conjunction.
type And struct{ Left, Right Expr }

// Or is a logical disjunction.
type Or struct{ Left, Right Expr }

// Not negates its operand.
type Not struct{ X Expr }

// Compare applies Op to two operands.
type Compare struct {
	Op          Op
	Left, Right Expr
}

// Column references a mapped member. Used on its own it is the boolean
// member shorthand (Active means Active = true).
type Column struct{ Member string }

// Literal is a constant operand. A nil Value is SQL NULL.
type Literal struct{ Value any }

// Like is a pattern match of a string member against a term. The wildcard
// position comes from Mode; the term is escaped before binding.
type Like struct {
	Member string
	Mode   sqlgen.LikeMode
	Term   string
	Fold   bool
}

// IgnoreCaseEq is a case-insensitive string equality.
type IgnoreCaseEq struct {
	Member string
	Value  string
}

// Call is a method invocation on an operand, as produced by front ends
// that mirror host-language string methods. Only a handful of methods are
// lowered; the rest are rejected by the compiler.
type Call struct {
	Target Expr
	Method string
	Args   []Expr
}

// Arith is an arithmetic expression. It is representable so that front
// ends can describe it, but no dialect lowers it.
type Arith struct {
	Op          string
	Left, Right Expr
}

// Const is a constant truth value.
type Const struct{ Value bool }

func (And) Kind() NodeKind          { return KindAnd }
func (Or) Kind() NodeKind           { return KindOr }
func (Not) Kind() NodeKind          { return KindNot }
func (Compare) Kind() NodeKind      { return KindCompare }
func (Column) Kind() NodeKind       { return KindColumn }
func (Literal) Kind() NodeKind      { return KindLiteral }
func (Like) Kind() NodeKind         { return KindLike }
func (IgnoreCaseEq) Kind() NodeKind { return KindIgnoreCaseEq }
func (Call) Kind() NodeKind         { return KindCall }
func (Arith) Kind() NodeKind        { return KindArith }
func (Const) Kind() NodeKind        { return KindConst }

func (e And) String() string     { return fmt.Sprintf("(%s && %s)", str(e.Left), str(e.Right)) }
func (e Or) String() string      { return fmt.Sprintf("(%s || %s)", str(e.Left), str(e.Right)) }
func (e Not) String() string     { return "!" + str(e.X) }
func (e Compare) String() string { return fmt.Sprintf("%s %s %s", str(e.Left), e.Op, str(e.Right)) }
func (e Column) String() string  { return e.Member }
func (e Literal) String() string {
	if e.Value == nil {
		return "null"
	}
	if s, ok := e.Value.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprint(e.Value)
}
func (e Like) String() string {
	method := map[sqlgen.LikeMode]string{
		sqlgen.LikePrefix:   "StartsWith",
		sqlgen.LikeContains: "Contains",
		sqlgen.LikeSuffix:   "EndsWith",
	}[e.Mode]
	if e.Fold {
		method += "Fold"
	}
	return fmt.Sprintf("%s.%s(%q)", e.Member, method, e.Term)
}
func (e IgnoreCaseEq) String() string { return fmt.Sprintf("%s.EqualsIgnoreCase(%q)", e.Member, e.Value) }
func (e Call) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = str(a)
	}
	return fmt.Sprintf("%s.%s(%s)", str(e.Target), e.Method, strings.Join(args, ", "))
}
func (e Arith) String() string { return fmt.Sprintf("(%s %s %s)", str(e.Left), e.Op, str(e.Right)) }
func (e Const) String() string { return fmt.Sprint(e.Value) }

func str(e Expr) string {
	if e == nil {
		return "<nil>"
	}
	return e.String()
}

// AllOf folds exprs into a left-deep conjunction, skipping nils. It returns
// nil when nothing remains.
func AllOf(exprs ...Expr) Expr {
	return fold(exprs, func(l, r Expr) Expr { return And{Left: l, Right: r} })
}

// AnyOf folds exprs into a left-deep disjunction, skipping nils.
func AnyOf(exprs ...Expr) Expr {
	return fold(exprs, func(l, r Expr) Expr { return Or{Left: l, Right: r} })
}

func fold(exprs []Expr, join func(l, r Expr) Expr) Expr {
	var out Expr
	for _, e := range exprs {
		if e == nil {
			continue
		}
		if out == nil {
			out = e
			continue
		}
		out = join(out, e)
	}
	return out
}
