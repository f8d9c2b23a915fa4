package schemafile

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/pulseorm/query/builder"
	"github.com/satishbabariya/pulseorm/query/executor"
	"github.com/satishbabariya/pulseorm/query/sqlgen"
	"github.com/satishbabariya/pulseorm/runtime/client"
	"github.com/satishbabariya/pulseorm/schema"
)

const shop = `
- name: Customer
  columns:
    - {member: Id, type: int}
    - {member: FullName, type: string}
  relations:
    - {target: Order, many: true, foreign: CustomerId}
- name: Order
  table: purchases
  columns:
    - {member: Number, type: bigint, key: true}
    - {member: CustomerId, type: int}
    - {member: Total, column: amount, type: float}
  relations:
    - {name: Buyer, target: Customer, local: CustomerId, mode: inner}
- name: BlogPost
  columns:
    - {member: Id, type: uuid}
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(shop))
	require.NoError(t, err)
	assert.Equal(t, []string{"Customer", "Order", "BlogPost"}, f.Names())

	customer, err := f.Entity("customer")
	require.NoError(t, err)
	assert.Equal(t, "customers", customer.Table)
	assert.Equal(t, "full_name", customer.Columns[1].Column)
	key, ok := customer.Descriptor().Key()
	require.True(t, ok)
	assert.Equal(t, "Id", key.Member())

	order, err := f.Entity("purchases")
	require.NoError(t, err)
	key, ok = order.Descriptor().Key()
	require.True(t, ok)
	assert.Equal(t, "Number", key.Member())
	col, ok := order.Descriptor().Column("Total")
	require.True(t, ok)
	assert.Equal(t, "amount", col.Name())
	assert.Equal(t, schema.KindFloat, col.Kind())

	post, err := f.Entity("blog_posts")
	require.NoError(t, err)
	assert.Equal(t, "BlogPost", post.Name)

	assert.Equal(t, RelationSpec{Name: "Orders", Target: "Order", Many: true, Local: "Id", Foreign: "CustomerId"}, customer.Relations[0])
	assert.Equal(t, "Id", order.Relations[0].Foreign)

	_, err = f.Entity("Invoice")
	assert.Error(t, err)
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"empty":            `[]`,
		"not a list":       `name: Customer`,
		"unnamed":          `[{columns: [{member: Id, type: int}]}]`,
		"no columns":       `[{name: A}]`,
		"unknown type":     `[{name: A, columns: [{member: Id, type: money}]}]`,
		"duplicate entity": `[{name: A, columns: [{member: Id, type: int}]}, {name: a, columns: [{member: Id, type: int}]}]`,
		"unknown target":   `[{name: A, columns: [{member: Id, type: int}], relations: [{target: B}]}]`,
		"inner many": `
- {name: A, columns: [{member: Id, type: int}], relations: [{target: B, many: true, foreign: AId, mode: inner}]}
- {name: B, columns: [{member: Id, type: int}, {member: AId, type: int}]}`,
		"unknown member": `
- {name: A, columns: [{member: Id, type: int}], relations: [{target: B, many: true, foreign: Nope}]}
- {name: B, columns: [{member: Id, type: int}]}`,
		"shadowed column": `
- {name: A, columns: [{member: Id, type: int}, {member: B, type: int}], relations: [{name: B, target: B, local: B}]}
- {name: B, columns: [{member: Id, type: int}]}`,
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "schema.yaml", []byte(shop), 0o644))

	f, err := Load(fs, "schema.yaml")
	require.NoError(t, err)
	assert.Len(t, f.Entities, 3)

	_, err = Load(fs, "missing.yaml")
	assert.Error(t, err)
}

func TestRelationsCompile(t *testing.T) {
	f, err := Parse([]byte(shop))
	require.NoError(t, err)
	order, _ := f.Entity("Order")

	rels, err := f.Relations(order, "buyer")
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, executor.One, rels[0].Cardinality())
	assert.Equal(t, executor.Inner, rels[0].Mode())

	joins, err := executor.JoinClauses(rels, sqlgen.Postgres)
	require.NoError(t, err)
	st, err := builder.New(order.Descriptor(), sqlgen.Postgres).Joined(builder.Query{}, joins)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT r.number AS r__number, r.customer_id AS r__customer_id, r.amount AS r__amount, "+
			"j0.id AS j0__id, j0.full_name AS j0__full_name "+
			"FROM purchases r INNER JOIN customers j0 ON r.customer_id = j0.id WHERE 1=1 ORDER BY r.number ASC",
		st.SQL)

	_, err = f.Relations(order, "Lines")
	assert.Error(t, err)
}

func TestHolders(t *testing.T) {
	var r schema.Record
	many := manyHolder("Orders")
	*many(&r) = append(*many(&r), schema.Record{"Id": int64(1)})
	*many(&r) = append(*many(&r), schema.Record{"Id": int64(2)})

	one := oneHolder("Buyer")
	assert.Nil(t, *one(&r))

	plain := Plain(r)
	assert.Equal(t, []schema.Record{{"Id": int64(1)}, {"Id": int64(2)}}, plain["Orders"])
	assert.Nil(t, plain["Buyer"])

	*one(&r) = &schema.Record{"Id": int64(7)}
	assert.Equal(t, schema.Record{"Id": int64(7)}, Plain(r)["Buyer"])
}

func TestJoinedRecords(t *testing.T) {
	f, err := Parse([]byte(shop))
	require.NoError(t, err)
	customer, _ := f.Entity("Customer")

	c, err := client.Open("sqlite-pure", filepath.Join(t.TempDir(), "shop.db"))
	require.NoError(t, err)
	defer c.Close()
	for _, stmt := range []string{
		"CREATE TABLE customers (id INTEGER PRIMARY KEY, full_name TEXT)",
		"CREATE TABLE purchases (number INTEGER PRIMARY KEY, customer_id INTEGER, amount REAL)",
		"INSERT INTO customers VALUES (1, 'Ada'), (2, 'Bob')",
		"INSERT INTO purchases VALUES (10, 1, 5.5), (11, 1, 2)",
	} {
		_, err := c.DB().Exec(stmt)
		require.NoError(t, err)
	}

	rels, err := f.Relations(customer, "Orders")
	require.NoError(t, err)

	sts, err := client.JoinedDescriptor(c, customer.Descriptor()).Include(rels...).Statements()
	require.NoError(t, err)
	assert.Contains(t, sts[0].SQL, "ORDER BY r.id ASC, j0.number ASC")

	ctx := context.Background()
	for _, paged := range []bool{false, true} {
		q := client.JoinedDescriptor(c, customer.Descriptor()).Include(rels...)
		if paged {
			q = q.Page(1, 10)
		}
		rows, total, err := q.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, rows, 2)

		ada := Plain(rows[0])
		assert.Equal(t, "Ada", ada["FullName"])
		assert.Equal(t, []schema.Record{
			{"Number": int64(10), "CustomerId": int64(1), "Total": 5.5},
			{"Number": int64(11), "CustomerId": int64(1), "Total": float64(2)},
		}, ada["Orders"])
		assert.Empty(t, Plain(rows[1])["Orders"])
	}
}
