package executor

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/satishbabariya/pulseorm/schema"
)

type binding[T any] struct {
	col *schema.Column[T]
	ord int
}

// Mapper assigns the fields of one cursor layout to entities of T. The
// name to ordinal resolution happens once, when the mapper is created.
type Mapper[T any] struct {
	desc     *schema.Descriptor[T]
	bindings []binding[T]
}

// NewMapper binds the fields of cur to columns of desc. Field names are
// matched case-insensitively against physical column names, then member
// names. With a prefix only fields carrying it are considered, and the
// prefix is removed before matching. Unmatched fields are ignored; the
// first field bound to a column wins.
func NewMapper[T any](cur Cursor, desc *schema.Descriptor[T], prefix string) *Mapper[T] {
	m := &Mapper[T]{desc: desc}
	bound := make(map[*schema.Column[T]]bool)
	fold := schema.Fold(prefix)
	for i := 0; i < cur.FieldCount(); i++ {
		name := cur.FieldName(i)
		if prefix != "" {
			if len(name) < len(prefix) || schema.Fold(name[:len(prefix)]) != fold {
				continue
			}
			name = name[len(prefix):]
		}
		col := lookup(desc, name)
		if col == nil || bound[col] {
			continue
		}
		bound[col] = true
		m.bindings = append(m.bindings, binding[T]{col: col, ord: i})
	}
	return m
}

func lookup[T any](desc *schema.Descriptor[T], name string) *schema.Column[T] {
	if col, ok := desc.ColumnByName(name); ok {
		return col
	}
	want := schema.Fold(name)
	for _, col := range desc.Columns() {
		if schema.Fold(col.Member()) == want {
			return col
		}
	}
	return nil
}

// Bound reports how many fields were bound.
func (m *Mapper[T]) Bound() int { return len(m.bindings) }

// Row materializes the current row. NULL fields leave the member at its
// zero value.
func (m *Mapper[T]) Row(cur Cursor) (T, error) {
	var e T
	for _, b := range m.bindings {
		if cur.IsNull(b.ord) {
			continue
		}
		if err := b.col.Assign(&e, cur.Value(b.ord)); err != nil {
			return e, err
		}
	}
	return e, nil
}

// Prefixed materializes the current row, reporting false when every bound
// field is NULL (an unmatched outer join).
func (m *Mapper[T]) Prefixed(cur Cursor) (*T, bool, error) {
	present := false
	for _, b := range m.bindings {
		if !cur.IsNull(b.ord) {
			present = true
			break
		}
	}
	if !present {
		return nil, false, nil
	}
	e, err := m.Row(cur)
	if err != nil {
		return nil, false, err
	}
	return &e, true, nil
}

// Materialize reads every remaining row of cur into a new T. The result is
// never nil.
func Materialize[T any](cur Cursor, desc *schema.Descriptor[T]) ([]T, error) {
	m := NewMapper(cur, desc, "")
	out := []T{}
	for cur.Next() {
		e, err := m.Row(cur)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Prefixed materializes the current row of cur from the fields carrying
// prefix. It reports false when all of them are NULL.
func Prefixed[T any](cur Cursor, desc *schema.Descriptor[T], prefix string) (*T, bool, error) {
	return NewMapper(cur, desc, prefix).Prefixed(cur)
}

// Scalars reads the first field of every row as S. NULL becomes the zero
// value.
func Scalars[S any](cur Cursor) ([]S, error) {
	out := []S{}
	for cur.Next() {
		var s S
		if cur.FieldCount() > 0 && !cur.IsNull(0) {
			v, err := convertScalar[S](cur.Value(0))
			if err != nil {
				return nil, err
			}
			s = v
		}
		out = append(out, s)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func convertScalar[S any](raw any) (S, error) {
	var zero S
	if v, ok := raw.(S); ok {
		return v, nil
	}
	target := reflect.TypeOf((*S)(nil)).Elem()
	if b, ok := raw.([]byte); ok && target.Kind() == reflect.String {
		return reflect.ValueOf(string(b)).Convert(target).Interface().(S), nil
	}
	rv := reflect.ValueOf(raw)
	if numeric(rv.Kind()) && numeric(target.Kind()) {
		return rv.Convert(target).Interface().(S), nil
	}
	if target.Kind() == reflect.Interface && rv.Type().Implements(target) {
		return rv.Interface().(S), nil
	}
	return zero, fmt.Errorf("executor: cannot convert %T to %s", raw, target)
}

func numeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// count decodes a COUNT(*) result.
func count(cur Cursor) (int64, error) {
	var n int64
	if cur.Next() && cur.FieldCount() > 0 && !cur.IsNull(0) {
		v, err := schema.IntCodec[int64]().Decode(cur.Value(0))
		if err != nil {
			return 0, fmt.Errorf("executor: count: %w", err)
		}
		n = v
	}
	return n, cur.Err()
}

// columnsOf lists cursor field names, for diagnostics.
func columnsOf(cur Cursor) string {
	names := make([]string, cur.FieldCount())
	for i := range names {
		names[i] = cur.FieldName(i)
	}
	return strings.Join(names, ",")
}
