package executor_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/pulseorm/ormerr"
	"github.com/satishbabariya/pulseorm/query/ast"
	"github.com/satishbabariya/pulseorm/query/builder"
	"github.com/satishbabariya/pulseorm/query/executor"
	"github.com/satishbabariya/pulseorm/query/sqlgen"
	"github.com/satishbabariya/pulseorm/schema"
)

func ordersOf(opts ...executor.RelationOption) executor.Relation[Customer] {
	return executor.HasMany(schema.MustFor[Order](), func(c *Customer) *[]Order { return &c.Orders }, "ID", "CustomerID", opts...)
}

func profileOf(opts ...executor.RelationOption) executor.Relation[Customer] {
	return executor.HasOne(schema.MustFor[Profile](), func(c *Customer) **Profile { return &c.Profile }, "ID", "CustomerID", opts...)
}

func TestFlattenWide(t *testing.T) {
	cur := static(t,
		[]string{"r__id", "r__name", "j0__id", "j0__customer_id", "j0__total", "j1__id", "j1__customer_id", "j1__bio"},
		[]any{int64(1), "Ada", int64(10), int64(1), 5.0, int64(100), int64(1), "hi"},
		[]any{int64(1), "Ada", int64(11), int64(1), 7.0, int64(100), int64(1), "hi"},
		[]any{int64(1), "Ada", int64(10), int64(1), 5.0, int64(100), int64(1), "hi"},
		[]any{int64(2), "Bob", nil, nil, nil, nil, nil, nil},
	)

	got, err := executor.FlattenWide(cur, schema.MustFor[Customer](), []executor.Relation[Customer]{ordersOf(), profileOf()})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Ada", got[0].Name)
	assert.Equal(t, []Order{{ID: 10, CustomerID: 1, Total: 5}, {ID: 11, CustomerID: 1, Total: 7}}, got[0].Orders)
	assert.Equal(t, &Profile{ID: 100, CustomerID: 1, Bio: "hi"}, got[0].Profile)

	assert.Equal(t, int64(2), got[1].ID)
	assert.Nil(t, got[1].Orders)
	assert.Nil(t, got[1].Profile)
}

func TestJoinedWideRow(t *testing.T) {
	db, mock := newMock(t)
	e := executor.New(db, sqlgen.Postgres)
	b := builder.New(schema.MustFor[Customer](), sqlgen.Postgres)

	mock.ExpectQuery("SELECT r.id AS r__id, r.name AS r__name, j0.id AS j0__id, j0.customer_id AS j0__customer_id, j0.total AS j0__total " +
		"FROM customers r LEFT JOIN orders j0 ON r.id = j0.customer_id WHERE (r.name = $1) ORDER BY r.id ASC, j0.id ASC").
		WithArgs("Ada").
		WillReturnRows(sqlmock.NewRows([]string{"r__id", "r__name", "j0__id", "j0__customer_id", "j0__total"}).
			AddRow(int64(1), "Ada", int64(10), int64(1), 2.5).
			AddRow(int64(1), "Ada", int64(11), int64(1), 3.5))

	q := builder.Query{Where: ast.S[Customer]("Name").Eq("Ada").Expr}
	got, err := executor.Joined(context.Background(), e, b, q, []executor.Relation[Customer]{ordersOf()})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, got[0].Orders, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJoinedPageSplitsQueries(t *testing.T) {
	db, mock := newMock(t)
	e := executor.New(db, sqlgen.Postgres)
	b := builder.New(schema.MustFor[Customer](), sqlgen.Postgres)

	mock.ExpectQuery("SELECT COUNT(*) FROM customers r WHERE 1=1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))
	mock.ExpectQuery("SELECT r.id FROM customers r WHERE 1=1 ORDER BY r.id ASC LIMIT 2 OFFSET 0").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2)))
	mock.ExpectQuery("SELECT r.id, r.name FROM customers r WHERE r.id IN ($1, $2) ORDER BY r.id ASC").
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(1), "Ada").AddRow(int64(2), "Bob"))
	mock.ExpectQuery("SELECT id, customer_id, total FROM orders WHERE customer_id IN ($1, $2) ORDER BY id ASC").
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "total"}).
			AddRow(int64(10), int64(1), 5.0).
			AddRow(int64(11), int64(1), 7.0).
			AddRow(int64(12), int64(2), 1.5))
	mock.ExpectQuery("SELECT id, customer_id, bio FROM profiles WHERE customer_id IN ($1, $2) ORDER BY id ASC").
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "bio"}).AddRow(int64(100), int64(1), "hi"))

	rels := []executor.Relation[Customer]{ordersOf(), profileOf(executor.InnerJoin())}
	got, total, err := executor.JoinedPage(context.Background(), e, b, builder.Query{}, rels, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	// Bob has no profile and the profile relation is inner.
	require.Len(t, got, 1)
	assert.Equal(t, "Ada", got[0].Name)
	assert.Len(t, got[0].Orders, 2)
	assert.Equal(t, "hi", got[0].Profile.Bio)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachSplitLeftKeepsRoots(t *testing.T) {
	db, mock := newMock(t)
	e := executor.New(db, sqlgen.SQLite)

	mock.ExpectQuery("SELECT id, customer_id, bio FROM profiles WHERE customer_id IN (?, ?) ORDER BY id ASC").
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "bio"}).AddRow(int64(5), int64(2), "b"))

	roots := []Customer{{ID: 1}, {ID: 2}, {ID: 1}}
	got, err := executor.AttachSplit(context.Background(), e, schema.MustFor[Customer](), roots,
		[]executor.Relation[Customer]{profileOf()})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Nil(t, got[0].Profile)
	assert.Equal(t, "b", got[1].Profile.Bio)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJoinedPageNeedsRootKey(t *testing.T) {
	db, _ := newMock(t)
	e := executor.New(db, sqlgen.Postgres)

	type Note struct{ Text string }
	desc, err := schema.Build(schema.Mapping[Note]{
		Table:   "notes",
		Columns: []schema.Column[Note]{schema.String("Text", func(n *Note) *string { return &n.Text })},
	})
	require.NoError(t, err)

	_, _, err = executor.JoinedPage(context.Background(), e, builder.New(desc, sqlgen.Postgres), builder.Query{}, nil, 1, 10)
	assert.True(t, ormerr.IsMissingKey(err))
}

func TestWideJoinNeedsRootKey(t *testing.T) {
	type Tag struct {
		Label  string
		Orders []Order
	}
	tags, err := schema.Build(schema.Mapping[Tag]{
		Table:   "tags",
		Columns: []schema.Column[Tag]{schema.String("Label", func(g *Tag) *string { return &g.Label }, schema.As("label"))},
	})
	require.NoError(t, err)
	rels := []executor.Relation[Tag]{
		executor.HasMany(schema.MustFor[Order](), func(g *Tag) *[]Order { return &g.Orders }, "Label", "CustomerID"),
	}

	cur := static(t,
		[]string{"r__label", "j0__id", "j0__customer_id", "j0__total"},
		[]any{"red", int64(1), int64(1), 1.0},
		[]any{"red", int64(2), int64(1), 2.0},
		[]any{"red", int64(3), int64(1), 3.0},
	)
	got, err := executor.FlattenWide(cur, tags, rels)
	assert.True(t, ormerr.IsMissingKey(err))
	assert.Nil(t, got)

	db, mock := newMock(t)
	_, err = executor.Joined(context.Background(), executor.New(db, sqlgen.Postgres), builder.New(tags, sqlgen.Postgres), builder.Query{}, rels)
	assert.True(t, ormerr.IsMissingKey(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlattenWideEmpty(t *testing.T) {
	got, err := executor.FlattenWide(static(t, []string{"r__id", "r__name"}), schema.MustFor[Customer](), nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRelationSelectRestrictsColumns(t *testing.T) {
	rel := ordersOf().Select("Total")
	joins, err := executor.JoinClauses([]executor.Relation[Customer]{rel}, sqlgen.Postgres)
	require.NoError(t, err)
	assert.Equal(t, []string{"total", "customer_id", "id"}, joins[0].Columns)
	assert.Equal(t, "Order", rel.Name())
	assert.Equal(t, executor.Many, rel.Cardinality())

	bad := executor.HasMany(schema.MustFor[Order](), func(c *Customer) *[]Order { return &c.Orders }, "ID", "Nope")
	_, err = executor.JoinClauses([]executor.Relation[Customer]{bad}, sqlgen.Postgres)
	assert.True(t, ormerr.IsUnmappedMember(err))
}
