// Package compiler lowers predicate, ordering and projection expressions to
// SQL fragments for one entity descriptor and dialect.
package compiler

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/cockroachdb/apd/v3"

	"github.com/satishbabariya/pulseorm/ormerr"
	"github.com/satishbabariya/pulseorm/query/ast"
	"github.com/satishbabariya/pulseorm/query/sqlgen"
	"github.com/satishbabariya/pulseorm/schema"
)

// Compiler compiles expressions over T.
type Compiler[T any] struct {
	desc    *schema.Descriptor[T]
	dialect sqlgen.Dialect
}

// NewCompiler creates a compiler for desc rendering with dialect.
func NewCompiler[T any](desc *schema.Descriptor[T], dialect sqlgen.Dialect) *Compiler[T] {
	return &Compiler[T]{desc: desc, dialect: dialect}
}

// Descriptor returns the entity descriptor.
func (c *Compiler[T]) Descriptor() *schema.Descriptor[T] { return c.desc }

// Dialect returns the dialect.
func (c *Compiler[T]) Dialect() sqlgen.Dialect { return c.dialect }

// Options controls predicate compilation.
type Options struct {
	// Alias qualifies column references ("r" renders r.col).
	Alias string
	// Offset is the index of the first parameter name (p<Offset>).
	Offset int
}

// Predicate is a compiled boolean SQL fragment and its parameters.
type Predicate struct {
	SQL    string
	Params sqlgen.Params
	// Next is the first unused parameter index, to continue numbering in a
	// later fragment of the same statement.
	Next int
}

// Empty reports whether the predicate has no SQL.
func (p Predicate) Empty() bool { return p.SQL == "" }

// Predicate compiles e. A nil expression compiles to an empty predicate.
func (c *Compiler[T]) Predicate(e ast.Expr, opts Options) (Predicate, error) {
	if e == nil {
		return Predicate{Next: opts.Offset}, nil
	}
	pc := &predicateCompiler[T]{
		desc:    c.desc,
		dialect: c.dialect,
		alias:   opts.Alias,
		next:    opts.Offset,
	}
	sql, err := pc.visit(e)
	if err != nil {
		return Predicate{}, err
	}
	return Predicate{SQL: sql, Params: pc.params, Next: pc.next}, nil
}

// CompilePredicate is a shorthand for NewCompiler(desc, dialect).Predicate.
func CompilePredicate[T any](e ast.Expr, desc *schema.Descriptor[T], dialect sqlgen.Dialect, opts Options) (Predicate, error) {
	return NewCompiler(desc, dialect).Predicate(e, opts)
}

type predicateCompiler[T any] struct {
	desc    *schema.Descriptor[T]
	dialect sqlgen.Dialect
	alias   string
	next    int
	params  sqlgen.Params
}

func unsupported(format string, args ...any) error {
	return &ormerr.UnsupportedExpressionError{Construct: fmt.Sprintf(format, args...)}
}

func (pc *predicateCompiler[T]) visit(e ast.Expr) (string, error) {
	switch n := e.(type) {
	case ast.And:
		return pc.binary("AND", n.Left, n.Right)
	case ast.Or:
		return pc.binary("OR", n.Left, n.Right)
	case ast.Not:
		x, err := pc.visit(n.X)
		if err != nil {
			return "", err
		}
		return "(NOT " + x + ")", nil
	case ast.Const:
		return constSQL(n.Value), nil
	case ast.Column:
		col, err := pc.column(n.Member)
		if err != nil {
			return "", err
		}
		if col.Kind() != schema.KindBool {
			return "", unsupported("non-boolean member %s used as a condition", n.Member)
		}
		return fmt.Sprintf("(%s = %s)", pc.qualify(col), pc.dialect.BoolLiteral(true)), nil
	case ast.Literal:
		if b, ok := boolValue(n.Value); ok {
			return constSQL(b), nil
		}
		return "", unsupported("literal %s used as a condition", n)
	case ast.Compare:
		return pc.compare(n)
	case ast.Like:
		return pc.like(n.Member, n.Mode, n.Term, n.Fold)
	case ast.IgnoreCaseEq:
		col, err := pc.column(n.Member)
		if err != nil {
			return "", err
		}
		return pc.dialect.EqualsIgnoreCase(pc.qualify(col), pc.bind(n.Value)), nil
	case ast.Call:
		return pc.call(n)
	case ast.Arith:
		return "", unsupported("arithmetic %s", n.Op)
	case nil:
		return "", unsupported("empty expression")
	}
	return "", unsupported("node %T", e)
}

func constSQL(v bool) string {
	if v {
		return "(1=1)"
	}
	return "(1=0)"
}

func (pc *predicateCompiler[T]) binary(op string, l, r ast.Expr) (string, error) {
	ls, err := pc.visit(l)
	if err != nil {
		return "", err
	}
	rs, err := pc.visit(r)
	if err != nil {
		return "", err
	}
	return "(" + ls + " " + op + " " + rs + ")", nil
}

func (pc *predicateCompiler[T]) compare(n ast.Compare) (string, error) {
	switch n.Op {
	case ast.OpEq, ast.OpNe, ast.OpGt, ast.OpGe, ast.OpLt, ast.OpLe:
	default:
		return "", unsupported("comparison operator %q", n.Op)
	}

	// NULL on either side becomes IS [NOT] NULL with no parameter.
	if isNullLiteral(n.Right) || isNullLiteral(n.Left) {
		other := n.Left
		if isNullLiteral(n.Left) {
			other = n.Right
		}
		if n.Op != ast.OpEq && n.Op != ast.OpNe {
			return "", unsupported("ordering comparison with null")
		}
		ref, ok := other.(ast.Column)
		if !ok {
			return "", unsupported("null comparison against %s", other)
		}
		col, err := pc.column(ref.Member)
		if err != nil {
			return "", err
		}
		if n.Op == ast.OpEq {
			return fmt.Sprintf("(%s IS NULL)", pc.qualify(col)), nil
		}
		return fmt.Sprintf("(%s IS NOT NULL)", pc.qualify(col)), nil
	}

	// Boolean member against a boolean literal renders the dialect literal.
	// The left operand is checked first.
	if n.Op == ast.OpEq || n.Op == ast.OpNe {
		if s, ok, err := pc.boolShorthand(n.Op, n.Left, n.Right); ok || err != nil {
			return s, err
		}
		if s, ok, err := pc.boolShorthand(n.Op, n.Right, n.Left); ok || err != nil {
			return s, err
		}
	}

	ls, err := pc.operand(n.Left)
	if err != nil {
		return "", err
	}
	rs, err := pc.operand(n.Right)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(%s %s %s)", ls, n.Op, rs), nil
}

func (pc *predicateCompiler[T]) boolShorthand(op ast.Op, colSide, litSide ast.Expr) (string, bool, error) {
	ref, ok := colSide.(ast.Column)
	if !ok {
		return "", false, nil
	}
	lit, ok := litSide.(ast.Literal)
	if !ok {
		return "", false, nil
	}
	b, ok := boolValue(lit.Value)
	if !ok {
		return "", false, nil
	}
	col, err := pc.column(ref.Member)
	if err != nil {
		return "", false, err
	}
	if col.Kind() != schema.KindBool {
		return "", false, nil
	}
	return fmt.Sprintf("(%s %s %s)", pc.qualify(col), op, pc.dialect.BoolLiteral(b)), true, nil
}

func (pc *predicateCompiler[T]) operand(e ast.Expr) (string, error) {
	switch n := e.(type) {
	case ast.Column:
		col, err := pc.column(n.Member)
		if err != nil {
			return "", err
		}
		return pc.qualify(col), nil
	case ast.Literal:
		return pc.bind(n.Value), nil
	case ast.Arith:
		return "", unsupported("arithmetic %s", n.Op)
	case ast.Call:
		return "", unsupported("method call %s in comparison", n.Method)
	case nil:
		return "", unsupported("missing comparison operand")
	}
	return "", unsupported("%s operand in comparison", e.Kind())
}

var likeMethods = map[string]sqlgen.LikeMode{
	"StartsWith": sqlgen.LikePrefix,
	"Contains":   sqlgen.LikeContains,
	"EndsWith":   sqlgen.LikeSuffix,
}

func (pc *predicateCompiler[T]) call(n ast.Call) (string, error) {
	ref, ok := n.Target.(ast.Column)
	if !ok {
		return "", unsupported("method call %s on %s", n.Method, n.Target)
	}
	if len(n.Args) != 1 {
		return "", unsupported("method call %s with %d arguments", n.Method, len(n.Args))
	}
	lit, ok := n.Args[0].(ast.Literal)
	if !ok {
		return "", unsupported("method call %s with non-constant argument", n.Method)
	}
	arg, ok := lit.Value.(string)
	if !ok {
		return "", unsupported("method call %s with %T argument", n.Method, lit.Value)
	}
	if mode, ok := likeMethods[n.Method]; ok {
		return pc.like(ref.Member, mode, arg, false)
	}
	switch n.Method {
	case "EqualsIgnoreCase", "EqualFold":
		return pc.visit(ast.IgnoreCaseEq{Member: ref.Member, Value: arg})
	}
	return "", unsupported("method call %s", n.Method)
}

func (pc *predicateCompiler[T]) like(member string, mode sqlgen.LikeMode, term string, fold bool) (string, error) {
	col, err := pc.column(member)
	if err != nil {
		return "", err
	}
	if col.Kind() != schema.KindString {
		return "", unsupported("pattern match on %s member %s", col.Kind(), member)
	}
	param := pc.bind(sqlgen.LikePattern(mode, term))
	if fold {
		return pc.dialect.LikeIgnoreCase(pc.qualify(col), param), nil
	}
	return pc.dialect.Like(pc.qualify(col), param), nil
}

func (pc *predicateCompiler[T]) column(member string) (*schema.Column[T], error) {
	col, ok := pc.desc.Column(member)
	if !ok {
		return nil, &ormerr.UnmappedMemberError{Entity: pc.desc.Entity(), Member: member}
	}
	return col, nil
}

func (pc *predicateCompiler[T]) qualify(col *schema.Column[T]) string {
	return Qualify(pc.alias, col.Name())
}

// bind registers v under the next sequential name and returns its
// placeholder.
func (pc *predicateCompiler[T]) bind(v any) string {
	name := "p" + strconv.Itoa(pc.next)
	pc.next++
	pc.params.Set(name, StorageValue(v))
	return pc.dialect.Param(name)
}

// Qualify prefixes column with alias when alias is set.
func Qualify(alias, column string) string {
	if alias == "" {
		return column
	}
	return alias + "." + column
}

func isNullLiteral(e ast.Expr) bool {
	lit, ok := e.(ast.Literal)
	return ok && normalizeLiteral(lit.Value) == nil
}

// normalizeLiteral dereferences pointers; a nil pointer is NULL.
func normalizeLiteral(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}

// boolValue reports the value of a boolean literal, including named bool
// types and pointers to them.
func boolValue(v any) (bool, bool) {
	v = normalizeLiteral(v)
	if v == nil {
		return false, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Bool {
		return false, false
	}
	return rv.Bool(), true
}

// StorageValue converts a literal into the form bound to the driver.
// Decimals are bound as text.
func StorageValue(v any) any {
	switch x := v.(type) {
	case *apd.Decimal:
		if x == nil {
			return nil
		}
		return x.String()
	case apd.Decimal:
		return x.String()
	}
	return normalizeLiteral(v)
}
