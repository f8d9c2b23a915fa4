package schema

import (
	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
)

// Record is a dynamic entity whose members live in a map. It lets tools
// describe tables at runtime (for example from a schema file) and still go
// through the same compilers and materializers as static entities.
type Record map[string]any

// Get returns the value of member, or nil.
func (r Record) Get(member string) any {
	return r[member]
}

// RecordColumn maps a member of a Record. Values are coerced to the
// canonical Go type of kind on assignment.
func RecordColumn(member string, kind Kind, opts ...Option) Column[Record] {
	c := newColumn[Record](member, kind, opts)
	c.nullable = true
	c.get = func(r *Record) any {
		switch v := (*r)[member].(type) {
		case apd.Decimal:
			return v.String()
		case uuid.UUID:
			return v.String()
		default:
			return v
		}
	}
	c.set = func(r *Record, raw any) error {
		v, err := Coerce(kind, raw)
		if err != nil {
			return err
		}
		if *r == nil {
			*r = Record{}
		}
		(*r)[member] = v
		return nil
	}
	c.isZero = func(r *Record) bool {
		v, ok := (*r)[member]
		if !ok || v == nil {
			return true
		}
		switch x := v.(type) {
		case int64:
			return x == 0
		case uint64:
			return x == 0
		case float64:
			return x == 0
		case string:
			return x == ""
		case bool:
			return !x
		}
		return false
	}
	return c
}
