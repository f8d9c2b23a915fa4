package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/pulseorm/query/ast"
	"github.com/satishbabariya/pulseorm/query/sqlgen"
)

type User struct {
	ID     int64
	Name   string
	Age    int
	Active bool
}

func TestTypedBuilder(t *testing.T) {
	age := ast.C[User, int]("Age")
	name := ast.S[User]("Name")
	active := ast.B[User]("Active")

	p := active.True().And(age.Ge(18)).Or(name.StartsWith("Jo").Not())

	want := ast.Or{
		Left: ast.And{
			Left:  ast.Column{Member: "Active"},
			Right: ast.Compare{Op: ast.OpGe, Left: ast.Column{Member: "Age"}, Right: ast.Literal{Value: 18}},
		},
		Right: ast.Not{X: ast.Like{Member: "Name", Mode: sqlgen.LikePrefix, Term: "Jo"}},
	}
	assert.Equal(t, want, p.Expr)
	assert.Equal(t, `((Active && Age >= 18) || !Name.StartsWith("Jo"))`, p.Expr.String())
}

func TestAllAnySkipEmpty(t *testing.T) {
	age := ast.C[User, int]("Age")

	assert.True(t, ast.All[User]().IsZero())
	assert.Equal(t, age.Eq(1).Expr, ast.All(ast.Predicate[User]{}, age.Eq(1)).Expr)
	assert.Equal(t, ast.Or{Left: age.Eq(1).Expr, Right: age.Eq(2).Expr}, ast.Any(age.Eq(1), age.Eq(2)).Expr)
}

func TestNullHelpers(t *testing.T) {
	name := ast.S[User]("Name")
	assert.Equal(t, ast.Compare{Op: ast.OpEq, Left: ast.Column{Member: "Name"}, Right: ast.Literal{}}, name.IsNull().Expr)
	assert.Equal(t, ast.Compare{Op: ast.OpNe, Left: ast.Column{Member: "Name"}, Right: ast.Literal{}}, name.NotNull().Expr)
}

func TestParseDocument(t *testing.T) {
	doc := `
and:
  - column: Active
  - cmp: {op: ">=", column: Age, value: 18}
  - or:
      - startsWith: {column: Name, value: Jo}
      - isNull: Name
`
	e, err := ast.Parse([]byte(doc))
	require.NoError(t, err)

	want := ast.And{
		Left: ast.And{
			Left:  ast.Column{Member: "Active"},
			Right: ast.Compare{Op: ast.OpGe, Left: ast.Column{Member: "Age"}, Right: ast.Literal{Value: 18}},
		},
		Right: ast.Or{
			Left:  ast.Like{Member: "Name", Mode: sqlgen.LikePrefix, Term: "Jo"},
			Right: ast.Compare{Op: ast.OpEq, Left: ast.Column{Member: "Name"}, Right: ast.Literal{}},
		},
	}
	assert.Equal(t, want, e)
}

func TestParseJSON(t *testing.T) {
	e, err := ast.Parse([]byte(`{"not": {"equalsIgnoreCase": {"column": "Name", "value": "ADA"}}}`))
	require.NoError(t, err)
	assert.Equal(t, ast.Not{X: ast.IgnoreCaseEq{Member: "Name", Value: "ADA"}}, e)
}

func TestParseErrors(t *testing.T) {
	for _, doc := range []string{
		`{"bogus": 1}`,
		`{"and": []}`,
		`{"cmp": {"op": "~", "column": "Age", "value": 1}}`,
		`{"cmp": {"op": "=", "value": 1}}`,
		`[1, 2]`,
	} {
		_, err := ast.Parse([]byte(doc))
		assert.Error(t, err, doc)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	p := ast.All(
		ast.B[User]("Active").True(),
		ast.C[User, int]("Age").Lt(65),
		ast.S[User]("Name").ContainsFold("an"),
	)
	data, err := ast.Marshal(p.Expr)
	require.NoError(t, err)

	back, err := ast.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, p.Expr, back)
}

func TestMembers(t *testing.T) {
	p := ast.B[User]("Active").True().And(ast.C[User, int]("Age").Gt(1)).Or(ast.S[User]("Name").IsNull())
	assert.Equal(t, []string{"Active", "Age", "Name"}, ast.Members(p.Expr))
}
