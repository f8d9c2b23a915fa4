package executor_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/pulseorm/query/executor"
	"github.com/satishbabariya/pulseorm/query/sqlgen"
	"github.com/satishbabariya/pulseorm/schema"
)

type Customer struct {
	ID      int64
	Name    string
	Profile *Profile
	Orders  []Order
}

func (*Customer) Mapping() schema.Mapping[Customer] {
	return schema.Mapping[Customer]{
		Table: "customers",
		Columns: []schema.Column[Customer]{
			schema.Int("ID", func(c *Customer) *int64 { return &c.ID }, schema.As("id")),
			schema.String("Name", func(c *Customer) *string { return &c.Name }, schema.As("name")),
		},
	}
}

type Order struct {
	ID         int64
	CustomerID int64
	Total      float64
}

func (*Order) Mapping() schema.Mapping[Order] {
	return schema.Mapping[Order]{
		Table: "orders",
		Columns: []schema.Column[Order]{
			schema.Int("ID", func(o *Order) *int64 { return &o.ID }, schema.As("id")),
			schema.Int("CustomerID", func(o *Order) *int64 { return &o.CustomerID }, schema.As("customer_id")),
			schema.FloatField("Total", func(o *Order) *float64 { return &o.Total }, schema.As("total")),
		},
	}
}

type Profile struct {
	ID         int64
	CustomerID int64
	Bio        string
}

func (*Profile) Mapping() schema.Mapping[Profile] {
	return schema.Mapping[Profile]{
		Table: "profiles",
		Columns: []schema.Column[Profile]{
			schema.Int("ID", func(p *Profile) *int64 { return &p.ID }, schema.As("id")),
			schema.Int("CustomerID", func(p *Profile) *int64 { return &p.CustomerID }, schema.As("customer_id")),
			schema.String("Bio", func(p *Profile) *string { return &p.Bio }, schema.As("bio")),
		},
	}
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestFetchBindsAndMaterializes(t *testing.T) {
	db, mock := newMock(t)
	e := executor.New(db, sqlgen.Postgres)

	mock.ExpectQuery("SELECT id, name FROM customers WHERE id = $1").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(1), "Ada"))

	st := sqlgen.Statement{
		SQL:    "SELECT id, name FROM customers WHERE id = @id",
		Params: sqlgen.NewParams(sqlgen.Param{Name: "id", Value: int64(1)}),
	}
	got, err := executor.Fetch(context.Background(), e, st, schema.MustFor[Customer]())
	require.NoError(t, err)
	assert.Equal(t, []Customer{{ID: 1, Name: "Ada"}}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStorageErrorsPropagateUnwrapped(t *testing.T) {
	db, mock := newMock(t)
	e := executor.New(db, sqlgen.MySQL)
	boom := errors.New("connection reset")

	mock.ExpectExec("DELETE FROM customers WHERE id = ?").WithArgs(int64(4)).WillReturnError(boom)

	st := sqlgen.Statement{
		SQL:    "DELETE FROM customers WHERE id = @key",
		Params: sqlgen.NewParams(sqlgen.Param{Name: "key", Value: int64(4)}),
	}
	_, err := e.Exec(context.Background(), st)
	assert.Same(t, boom, err)
}

func TestExecReportsRowsAffectedError(t *testing.T) {
	db, mock := newMock(t)
	e := executor.New(db, sqlgen.SQLite)
	unsupported := errors.New("rows affected not supported")

	mock.ExpectExec("DELETE FROM customers").WillReturnResult(sqlmock.NewErrorResult(unsupported))

	n, err := e.Exec(context.Background(), sqlgen.Statement{SQL: "DELETE FROM customers"})
	assert.Same(t, unsupported, err)
	assert.Zero(t, n)
}

func TestCount(t *testing.T) {
	db, mock := newMock(t)
	e := executor.New(db, sqlgen.SQLite)

	mock.ExpectQuery("SELECT COUNT(*) FROM customers r").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(int64(42)))

	n, err := e.Count(context.Background(), sqlgen.Statement{SQL: "SELECT COUNT(*) FROM customers r"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}

func TestInTx(t *testing.T) {
	db, mock := newMock(t)
	e := executor.New(db, sqlgen.Postgres)
	ctx := context.Background()
	del := sqlgen.Statement{
		SQL:    "DELETE FROM customers WHERE id = @key",
		Params: sqlgen.NewParams(sqlgen.Param{Name: "key", Value: int64(1)}),
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM customers WHERE id = $1").WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	err := e.InTx(ctx, func(tx *executor.Executor) error {
		n, err := tx.Exec(ctx, del)
		assert.Equal(t, int64(1), n)
		return err
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM customers WHERE id = $1").WithArgs(int64(1)).WillReturnError(boom)
	mock.ExpectRollback()
	err = e.InTx(ctx, func(tx *executor.Executor) error {
		_, err := tx.Exec(ctx, del)
		return err
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithConnReleasesConnection(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT COUNT(*) FROM customers r").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(int64(2)))

	var n int64
	err := executor.WithConn(context.Background(), db, sqlgen.Postgres, func(e *executor.Executor) error {
		var err error
		n, err = e.Count(context.Background(), sqlgen.Statement{SQL: "SELECT COUNT(*) FROM customers r"})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 0, db.Stats().InUse)
}
