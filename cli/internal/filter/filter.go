// Package filter parses the textual filter language accepted by the pulse
// command line into predicate trees.
//
//	name == "Ada" && (age >= 18 || admin)
//	email.endsWith("@example.com") and not deleted
//	manager_id != null
package filter

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/satishbabariya/pulseorm/query/ast"
)

var filterLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?`},
	{Name: "Op", Pattern: `==|!=|<>|>=|<=|>|<|=`},
	{Name: "Logic", Pattern: `&&|\|\|`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_]*`},
	{Name: "Punct", Pattern: `[!().]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

type orExpr struct {
	Pos   lexer.Position
	Left  *andExpr   `@@`
	Right []*andExpr `( ( "||" | "or" ) @@ )*`
}

type andExpr struct {
	Left  *unary   `@@`
	Right []*unary `( ( "&&" | "and" ) @@ )*`
}

type unary struct {
	Not   *unary  `  ( "!" | "not" ) @@`
	Group *orExpr `| "(" @@ ")"`
	Term  *term   `| @@`
}

type term struct {
	Pos    lexer.Position
	Member string      `@Ident`
	Call   *methodCall `( "." @@`
	Cmp    *comparison `| @@ )?`
}

type methodCall struct {
	Method string `@Ident "("`
	Arg    string `@String ")"`
}

type comparison struct {
	Op    string `@Op`
	Value *value `@@`
}

type value struct {
	Str    *string `  @String`
	Number *string `| @Number`
	Bool   *string `| @( "true" | "false" )`
	Null   bool    `| @"null"`
	Column *string `| @Ident`
}

var parser = participle.MustBuild[orExpr](
	participle.Lexer(filterLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

// Parse parses src into a predicate tree. An empty source yields nil,
// which matches every row.
func Parse(src string) (ast.Expr, error) {
	if strings.TrimSpace(src) == "" {
		return nil, nil
	}
	tree, err := parser.ParseString("filter", src)
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	return tree.expr()
}

func (o *orExpr) expr() (ast.Expr, error) {
	left, err := o.Left.expr()
	if err != nil {
		return nil, err
	}
	for _, r := range o.Right {
		right, err := r.expr()
		if err != nil {
			return nil, err
		}
		left = ast.Or{Left: left, Right: right}
	}
	return left, nil
}

func (a *andExpr) expr() (ast.Expr, error) {
	left, err := a.Left.expr()
	if err != nil {
		return nil, err
	}
	for _, r := range a.Right {
		right, err := r.expr()
		if err != nil {
			return nil, err
		}
		left = ast.And{Left: left, Right: right}
	}
	return left, nil
}

func (u *unary) expr() (ast.Expr, error) {
	switch {
	case u.Not != nil:
		x, err := u.Not.expr()
		if err != nil {
			return nil, err
		}
		return ast.Not{X: x}, nil
	case u.Group != nil:
		return u.Group.expr()
	default:
		return u.Term.expr()
	}
}

func (t *term) expr() (ast.Expr, error) {
	col := ast.Column{Member: t.Member}
	switch {
	case t.Call != nil:
		return ast.Call{
			Target: col,
			Method: exported(t.Call.Method),
			Args:   []ast.Expr{ast.Literal{Value: t.Call.Arg}},
		}, nil
	case t.Cmp != nil:
		op, ok := ast.ParseOp(t.Cmp.Op)
		if !ok {
			return nil, fmt.Errorf("filter: %s: unknown operator %q", t.Pos, t.Cmp.Op)
		}
		right, err := t.Cmp.Value.expr()
		if err != nil {
			return nil, err
		}
		return ast.Compare{Op: op, Left: col, Right: right}, nil
	default:
		return col, nil
	}
}

func (v *value) expr() (ast.Expr, error) {
	switch {
	case v.Str != nil:
		return ast.Literal{Value: *v.Str}, nil
	case v.Number != nil:
		return number(*v.Number)
	case v.Bool != nil:
		return ast.Literal{Value: *v.Bool == "true"}, nil
	case v.Null:
		return ast.Literal{}, nil
	default:
		return ast.Column{Member: *v.Column}, nil
	}
}

func number(s string) (ast.Expr, error) {
	if !strings.Contains(s, ".") {
		n, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return ast.Literal{Value: n}, nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("filter: bad number %q: %w", s, err)
	}
	return ast.Literal{Value: f}, nil
}

// exported turns startsWith into StartsWith.
func exported(method string) string {
	r, size := utf8.DecodeRuneInString(method)
	return string(unicode.ToUpper(r)) + method[size:]
}

// Resolve rewrites every member reference in e through lookup, so that
// users may write either member names or column names. Names lookup
// rejects are errors.
func Resolve(e ast.Expr, lookup func(name string) (string, bool)) (ast.Expr, error) {
	member := func(name string) (string, error) {
		m, ok := lookup(name)
		if !ok {
			return "", fmt.Errorf("filter: unknown member %q", name)
		}
		return m, nil
	}
	pair := func(l, r ast.Expr) (ast.Expr, ast.Expr, error) {
		l, err := Resolve(l, lookup)
		if err != nil {
			return nil, nil, err
		}
		r, err = Resolve(r, lookup)
		return l, r, err
	}

	switch n := e.(type) {
	case nil:
		return nil, nil
	case ast.Column:
		m, err := member(n.Member)
		return ast.Column{Member: m}, err
	case ast.And:
		l, r, err := pair(n.Left, n.Right)
		return ast.And{Left: l, Right: r}, err
	case ast.Or:
		l, r, err := pair(n.Left, n.Right)
		return ast.Or{Left: l, Right: r}, err
	case ast.Compare:
		l, r, err := pair(n.Left, n.Right)
		return ast.Compare{Op: n.Op, Left: l, Right: r}, err
	case ast.Arith:
		l, r, err := pair(n.Left, n.Right)
		return ast.Arith{Op: n.Op, Left: l, Right: r}, err
	case ast.Not:
		x, err := Resolve(n.X, lookup)
		return ast.Not{X: x}, err
	case ast.Call:
		target, err := Resolve(n.Target, lookup)
		return ast.Call{Target: target, Method: n.Method, Args: n.Args}, err
	case ast.Like:
		m, err := member(n.Member)
		n.Member = m
		return n, err
	case ast.IgnoreCaseEq:
		m, err := member(n.Member)
		n.Member = m
		return n, err
	default:
		return e, nil
	}
}
