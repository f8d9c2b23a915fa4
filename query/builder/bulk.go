package builder

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/pulseorm/ormerr"
	"github.com/satishbabariya/pulseorm/query/sqlgen"
	"github.com/satishbabariya/pulseorm/schema"
)

// DefaultBatchSize is the number of rows per bulk statement when the caller
// does not choose one.
const DefaultBatchSize = 500

// Batch is the half-open row range [Start, End) of one bulk statement.
type Batch struct {
	Start int
	End   int
}

// Batches splits n rows into consecutive batches of at most size rows. A
// size below one selects DefaultBatchSize.
func Batches(n, size int) []Batch {
	if size < 1 {
		size = DefaultBatchSize
	}
	out := make([]Batch, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		out = append(out, Batch{Start: start, End: min(start+size, n)})
	}
	return out
}

func emptyBatch(op string) error {
	return &ormerr.ArgumentError{Name: "rows", Value: 0, Reason: op + " needs at least one row"}
}

// BulkInsert builds one multi-row INSERT for rows. The column list is fixed
// by the first row: when its key is zero the key is omitted for every row.
func (b *Builder[T]) BulkInsert(rows []T) (sqlgen.Statement, error) {
	if len(rows) == 0 {
		return sqlgen.Statement{}, emptyBatch("bulk insert")
	}
	cols := b.insertColumns(&rows[0])
	if len(cols) == 0 {
		return sqlgen.Statement{}, &ormerr.NoColumnsError{Entity: b.desc.Entity(), Operation: "bulk insert"}
	}

	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.Name()
	}

	var params sqlgen.Params
	tuples := make([]string, len(rows))
	idx := 0
	for r := range rows {
		values := make([]string, len(cols))
		for i, col := range cols {
			values[i] = b.bind(&params, paramName("p", idx), col.Value(&rows[r]))
			idx++
		}
		tuples[r] = "(" + strings.Join(values, ", ") + ")"
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		b.desc.Table(), strings.Join(names, ", "), strings.Join(tuples, ", "))
	return sqlgen.Statement{SQL: sql, Params: params}, nil
}

// BulkUpdate builds one UPDATE that sets each of members through a CASE on
// keyMember, restricted to the keys of rows:
//
//	UPDATE t SET a = CASE id WHEN @k0 THEN @v0 ... END, ... WHERE id IN (@in4, ...)
//
// An empty keyMember selects the primary key; empty members selects every
// column except the key.
func (b *Builder[T]) BulkUpdate(rows []T, keyMember string, members []string) (sqlgen.Statement, error) {
	if len(rows) == 0 {
		return sqlgen.Statement{}, emptyBatch("bulk update")
	}
	key, err := b.keyColumn(keyMember, "bulk update")
	if err != nil {
		return sqlgen.Statement{}, err
	}
	cols, err := b.updateColumns(key, members)
	if err != nil {
		return sqlgen.Statement{}, err
	}

	var params sqlgen.Params
	sets := make([]string, len(cols))
	idx := 0
	for c, col := range cols {
		var sb strings.Builder
		fmt.Fprintf(&sb, "%s = CASE %s", col.Name(), key.Name())
		for r := range rows {
			k := b.bind(&params, paramName("k", idx), key.Value(&rows[r]))
			v := b.bind(&params, paramName("v", idx), col.Value(&rows[r]))
			fmt.Fprintf(&sb, " WHEN %s THEN %s", k, v)
			idx++
		}
		sb.WriteString(" END")
		sets[c] = sb.String()
	}

	in := make([]string, len(rows))
	for r := range rows {
		in[r] = b.bind(&params, paramName("in", idx), key.Value(&rows[r]))
		idx++
	}
	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s IN (%s)",
		b.desc.Table(), strings.Join(sets, ", "), key.Name(), strings.Join(in, ", "))
	return sqlgen.Statement{SQL: sql, Params: params}, nil
}

func (b *Builder[T]) keyColumn(member, op string) (*schema.Column[T], error) {
	if member == "" {
		return b.desc.RequireKey(op)
	}
	col, ok := b.desc.Column(member)
	if !ok {
		return nil, &ormerr.UnmappedMemberError{Entity: b.desc.Entity(), Member: member}
	}
	return col, nil
}

func (b *Builder[T]) updateColumns(key *schema.Column[T], members []string) ([]*schema.Column[T], error) {
	var cols []*schema.Column[T]
	if len(members) == 0 {
		for _, col := range b.desc.Columns() {
			if col != key {
				cols = append(cols, col)
			}
		}
	} else {
		resolved, err := b.comp.Columns(members)
		if err != nil {
			return nil, err
		}
		for _, col := range resolved {
			if col != key {
				cols = append(cols, col)
			}
		}
	}
	if len(cols) == 0 {
		return nil, &ormerr.NoColumnsError{Entity: b.desc.Entity(), Operation: "bulk update"}
	}
	return cols, nil
}
