// Package executor runs built statements on a database connection and turns
// result rows into typed entities, including joined object graphs.
package executor

import (
	"database/sql"
	"fmt"
)

// Cursor is a forward-only view over result rows.
type Cursor interface {
	Next() bool
	FieldCount() int
	FieldName(i int) string
	IsNull(i int) bool
	Value(i int) any
	Err() error
}

// RowsCursor adapts *sql.Rows. Each row is scanned once into driver values.
type RowsCursor struct {
	rows    *sql.Rows
	columns []string
	values  []any
	err     error
}

// NewRowsCursor wraps rows. The caller still owns rows and must close it,
// directly or through Close.
func NewRowsCursor(rows *sql.Rows) (*RowsCursor, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	return &RowsCursor{rows: rows, columns: cols}, nil
}

// Next advances to the next row.
func (c *RowsCursor) Next() bool {
	if c.err != nil || !c.rows.Next() {
		return false
	}
	values := make([]any, len(c.columns))
	ptrs := make([]any, len(c.columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := c.rows.Scan(ptrs...); err != nil {
		c.err = err
		return false
	}
	c.values = values
	return true
}

func (c *RowsCursor) FieldCount() int        { return len(c.columns) }
func (c *RowsCursor) FieldName(i int) string { return c.columns[i] }
func (c *RowsCursor) IsNull(i int) bool      { return c.values[i] == nil }
func (c *RowsCursor) Value(i int) any        { return c.values[i] }

// Err returns the first scan or iteration error.
func (c *RowsCursor) Err() error {
	if c.err != nil {
		return c.err
	}
	return c.rows.Err()
}

// Close closes the underlying rows.
func (c *RowsCursor) Close() error { return c.rows.Close() }

// StaticCursor iterates rows held in memory.
type StaticCursor struct {
	columns []string
	rows    [][]any
	pos     int
}

// NewStaticCursor creates a cursor over rows; every row must have one value
// per column.
func NewStaticCursor(columns []string, rows ...[]any) (*StaticCursor, error) {
	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, fmt.Errorf("executor: row %d has %d values for %d columns", i, len(r), len(columns))
		}
	}
	return &StaticCursor{columns: columns, rows: rows, pos: -1}, nil
}

func (c *StaticCursor) Next() bool {
	if c.pos+1 >= len(c.rows) {
		c.pos = len(c.rows)
		return false
	}
	c.pos++
	return true
}

func (c *StaticCursor) FieldCount() int        { return len(c.columns) }
func (c *StaticCursor) FieldName(i int) string { return c.columns[i] }
func (c *StaticCursor) IsNull(i int) bool      { return c.rows[c.pos][i] == nil }
func (c *StaticCursor) Value(i int) any        { return c.rows[c.pos][i] }
func (c *StaticCursor) Err() error             { return nil }
