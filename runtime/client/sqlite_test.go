package client_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/pulseorm/ormerr"
	"github.com/satishbabariya/pulseorm/query/ast"
	"github.com/satishbabariya/pulseorm/runtime/client"
)

var sqliteSchema = []string{
	"CREATE TABLE customers (id INTEGER PRIMARY KEY, name TEXT NOT NULL, email TEXT NOT NULL)",
	"CREATE TABLE orders (id INTEGER PRIMARY KEY, customer_id INTEGER NOT NULL, total REAL NOT NULL)",
}

func openSQLite(t *testing.T) *client.Client {
	t.Helper()
	c, err := client.Open("sqlite-pure", filepath.Join(t.TempDir(), "pulse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	for _, ddl := range sqliteSchema {
		_, err = c.DB().Exec(ddl)
		require.NoError(t, err)
	}
	return c
}

func TestSQLiteRoundTrip(t *testing.T) {
	c := openSQLite(t)
	ctx := context.Background()
	require.NoError(t, c.Ping(ctx))

	ada := &Customer{Name: "Ada", Email: "ada@example.com"}
	_, err := client.Insert(ctx, c, ada)
	require.NoError(t, err)
	require.NotZero(t, ada.ID)

	bob := &Customer{Name: "Bob", Email: "bob@example.com"}
	_, err = client.Insert(ctx, c, bob)
	require.NoError(t, err)

	got, err := client.GetByID[Customer](ctx, c, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, ada, got)

	ada.Email = "ada@lovelace.dev"
	n, err := client.Update(ctx, c, ada)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	one, err := client.From[Customer](c).Where(ast.S[Customer]("Email").EndsWith("lovelace.dev")).Single(ctx)
	require.NoError(t, err)
	assert.Equal(t, ada.ID, one.ID)

	all, err := client.GetAll[Customer](ctx, c)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	names, err := client.Scalars[string](ctx, c, "SELECT name FROM customers ORDER BY name DESC")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob", "Ada"}, names)

	_, err = client.DeleteByID[Customer](ctx, c, bob.ID)
	require.NoError(t, err)
	_, err = client.GetByID[Customer](ctx, c, bob.ID)
	assert.True(t, ormerr.IsNotFound(err))
}

func TestSQLiteJoinedReads(t *testing.T) {
	c := openSQLite(t)
	ctx := context.Background()

	customers := []Customer{
		{ID: 1, Name: "Ada", Email: "a@x"},
		{ID: 2, Name: "Bob", Email: "b@x"},
		{ID: 3, Name: "Cy", Email: "c@x"},
	}
	_, err := client.BulkInsert(ctx, c, customers, 2)
	require.NoError(t, err)

	orders := []Order{
		{ID: 10, CustomerID: 1, Total: 5},
		{ID: 11, CustomerID: 1, Total: 7.5},
		{ID: 12, CustomerID: 3, Total: 1},
	}
	_, err = client.BulkInsert(ctx, c, orders, 0)
	require.NoError(t, err)

	withOrders := func() *client.JoinQuery[Customer] {
		return client.IncludeMany(client.Joined[Customer](c), func(c *Customer) *[]Order { return &c.Orders }, "ID", "CustomerID")
	}

	wide, total, err := withOrders().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, wide, 3)
	assert.Len(t, wide[0].Orders, 2)
	assert.Empty(t, wide[1].Orders)
	assert.Len(t, wide[2].Orders, 1)

	paged, total, err := withOrders().Desc("Name").Page(1, 2).List(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, paged, 2)
	assert.Equal(t, "Cy", paged[0].Name)
	assert.Equal(t, []Order{{ID: 12, CustomerID: 3, Total: 1}}, paged[0].Orders)
	assert.Equal(t, "Bob", paged[1].Name)

	orders[0].Total, orders[2].Total = 50, 10
	n, err := client.BulkUpdateColumns(ctx, c, orders, "", []string{"Total"}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	totals, err := client.Scalars[float64](ctx, c, "SELECT total FROM orders ORDER BY id")
	require.NoError(t, err)
	assert.Equal(t, []float64{50, 7.5, 10}, totals)
}
