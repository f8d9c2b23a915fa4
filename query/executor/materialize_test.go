package executor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/pulseorm/query/executor"
	"github.com/satishbabariya/pulseorm/schema"
)

func static(t *testing.T, cols []string, rows ...[]any) *executor.StaticCursor {
	t.Helper()
	cur, err := executor.NewStaticCursor(cols, rows...)
	require.NoError(t, err)
	return cur
}

func TestMaterializeMatchesNamesIgnoringCase(t *testing.T) {
	cur := static(t, []string{"ID", "NAME", "unrelated"},
		[]any{int64(1), "Ada", 1},
		[]any{int64(2), nil, 2},
	)
	got, err := executor.Materialize(cur, schema.MustFor[Customer]())
	require.NoError(t, err)
	assert.Equal(t, []Customer{{ID: 1, Name: "Ada"}, {ID: 2}}, got)
}

func TestMaterializeByMemberName(t *testing.T) {
	cur := static(t, []string{"customerid", "total"}, []any{int64(7), "12.5"})
	got, err := executor.Materialize(cur, schema.MustFor[Order]())
	require.NoError(t, err)
	assert.Equal(t, []Order{{CustomerID: 7, Total: 12.5}}, got)
}

func TestMaterializeCoercionError(t *testing.T) {
	cur := static(t, []string{"id"}, []any{"not a number"})
	_, err := executor.Materialize(cur, schema.MustFor[Customer]())
	assert.Error(t, err)
}

func TestPrefixed(t *testing.T) {
	cur := static(t, []string{"r__id", "j0__id", "j0__bio"},
		[]any{int64(1), int64(9), "hello"},
		[]any{int64(2), nil, nil},
	)
	desc := schema.MustFor[Profile]()

	require.True(t, cur.Next())
	p, ok, err := executor.Prefixed(cur, desc, "j0__")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, &Profile{ID: 9, Bio: "hello"}, p)

	require.True(t, cur.Next())
	p, ok, err = executor.Prefixed(cur, desc, "j0__")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, p)
}

func TestScalars(t *testing.T) {
	ints, err := executor.Scalars[int](static(t, []string{"n"}, []any{int64(3)}, []any{nil}, []any{int32(5)}))
	require.NoError(t, err)
	assert.Equal(t, []int{3, 0, 5}, ints)

	strs, err := executor.Scalars[string](static(t, []string{"s"}, []any{[]byte("x")}, []any{"y"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, strs)

	_, err = executor.Scalars[int](static(t, []string{"s"}, []any{"nope"}))
	assert.Error(t, err)
}

func TestEmptyResultsAreNotNil(t *testing.T) {
	rows, err := executor.Materialize(static(t, []string{"id", "bio"}), schema.MustFor[Profile]())
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)

	ints, err := executor.Scalars[int](static(t, []string{"n"}))
	require.NoError(t, err)
	assert.NotNil(t, ints)
}

func TestStaticCursorRejectsRaggedRows(t *testing.T) {
	_, err := executor.NewStaticCursor([]string{"a", "b"}, []any{1})
	assert.Error(t, err)
}
