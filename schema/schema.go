// Package schema turns entity types into immutable descriptors: table name,
// ordered scalar columns with accessor/mutator closures, and an optional
// primary key. Descriptors are built once per type and cached in a Registry.
package schema

import (
	"fmt"
	"reflect"
	"strings"

	"golang.org/x/text/cases"

	"github.com/satishbabariya/pulseorm/ormerr"
)

// Kind is the scalar family of a mapped column.
type Kind int

const (
	KindBool Kind = iota + 1
	KindInt
	KindUint
	KindFloat
	KindString
	KindDecimal
	KindTime
	KindUUID
	KindBytes
	KindEnum
)

var kindNames = map[Kind]string{
	KindBool:    "bool",
	KindInt:     "int",
	KindUint:    "uint",
	KindFloat:   "float",
	KindString:  "string",
	KindDecimal: "decimal",
	KindTime:    "time",
	KindUUID:    "uuid",
	KindBytes:   "bytes",
	KindEnum:    "enum",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a type name such as "int" or "uuid" to a Kind.
func ParseKind(name string) (Kind, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "int64", "int32", "integer", "bigint":
		return KindInt, true
	case "uint64", "uint32":
		return KindUint, true
	case "float64", "double", "real":
		return KindFloat, true
	case "text", "varchar":
		return KindString, true
	case "boolean":
		return KindBool, true
	case "datetime", "timestamp":
		return KindTime, true
	case "numeric":
		return KindDecimal, true
	case "guid":
		return KindUUID, true
	case "blob", "bytea":
		return KindBytes, true
	}
	for k, s := range kindNames {
		if s == n {
			return k, true
		}
	}
	return 0, false
}

// Fold returns the Unicode case-folded form of s, used wherever names are
// compared case-insensitively.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// Option configures a column at registration time.
type Option func(*columnOptions)

type columnOptions struct {
	name string
	key  bool
}

// PrimaryKey marks the column as the entity's primary key.
func PrimaryKey() Option {
	return func(o *columnOptions) { o.key = true }
}

// As sets the physical column name. The member name is used by default.
func As(name string) Option {
	return func(o *columnOptions) { o.name = name }
}

// Column is one mapped scalar member of T.
type Column[T any] struct {
	member   string
	name     string
	kind     Kind
	key      bool
	nullable bool

	get    func(*T) any
	set    func(*T, any) error
	isZero func(*T) bool
}

// Member returns the logical member name.
func (c *Column[T]) Member() string { return c.member }

// Name returns the physical column name.
func (c *Column[T]) Name() string { return c.name }

// Kind returns the scalar family.
func (c *Column[T]) Kind() Kind { return c.kind }

// Nullable reports whether the member can hold SQL NULL.
func (c *Column[T]) Nullable() bool { return c.nullable }

// Value reads the member from e in its storage form.
func (c *Column[T]) Value(e *T) any { return c.get(e) }

// Assign coerces raw to the member type and writes it into e.
func (c *Column[T]) Assign(e *T, raw any) error {
	if err := c.set(e, raw); err != nil {
		return fmt.Errorf("schema: assign %s (%s): %w", c.member, c.name, err)
	}
	return nil
}

// IsZero reports whether the member holds its type's zero value.
func (c *Column[T]) IsZero(e *T) bool { return c.isZero(e) }

func newColumn[T any](member string, kind Kind, opts []Option) Column[T] {
	o := columnOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	name := o.name
	if name == "" {
		name = member
	}
	return Column[T]{member: member, name: name, kind: kind, key: o.key}
}

// Mapping is the static mapping table for T. Entity defaults to the Go type
// name and Table defaults to Entity.
type Mapping[T any] struct {
	Entity  string
	Table   string
	Columns []Column[T]
}

// Mapper is implemented by *T for entities that carry their own mapping.
type Mapper[T any] interface {
	Mapping() Mapping[T]
}

// Descriptor is the immutable, build-once description of an entity type.
type Descriptor[T any] struct {
	typ      reflect.Type
	entity   string
	table    string
	columns  []*Column[T]
	byMember map[string]*Column[T]
	byFolded map[string]*Column[T]
	key      *Column[T]
}

// Type returns the entity's Go type.
func (d *Descriptor[T]) Type() reflect.Type { return d.typ }

// Entity returns the entity name.
func (d *Descriptor[T]) Entity() string { return d.entity }

// Table returns the table name.
func (d *Descriptor[T]) Table() string { return d.table }

// Columns returns the mapped columns in registration order. The slice must
// not be modified.
func (d *Descriptor[T]) Columns() []*Column[T] { return d.columns }

// Column finds a column by its exact member name.
func (d *Descriptor[T]) Column(member string) (*Column[T], bool) {
	c, ok := d.byMember[member]
	return c, ok
}

// ColumnByName finds a column by physical name, ignoring case.
func (d *Descriptor[T]) ColumnByName(name string) (*Column[T], bool) {
	c, ok := d.byFolded[Fold(name)]
	return c, ok
}

// Key returns the primary key column, if any.
func (d *Descriptor[T]) Key() (*Column[T], bool) {
	return d.key, d.key != nil
}

// RequireKey returns the primary key column or a MissingKeyError naming op.
func (d *Descriptor[T]) RequireKey(op string) (*Column[T], error) {
	if d.key == nil {
		return nil, &ormerr.MissingKeyError{Entity: d.entity, Operation: op}
	}
	return d.key, nil
}

// KeyOf returns the normalized primary key of e. ok is false when the
// entity has no key or the key value is NULL.
func (d *Descriptor[T]) KeyOf(e *T) (Key, bool) {
	if d.key == nil {
		return Key{}, false
	}
	return KeyOf(d.key.Value(e))
}

// Build validates m and produces a descriptor without caching it.
func Build[T any](m Mapping[T]) (*Descriptor[T], error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()

	entity := m.Entity
	if entity == "" {
		entity = typ.Name()
	}
	table := m.Table
	if table == "" {
		table = entity
	}
	if len(m.Columns) == 0 {
		return nil, &ormerr.MappingError{Entity: entity, Reason: "no mapped columns"}
	}

	d := &Descriptor[T]{
		typ:      typ,
		entity:   entity,
		table:    table,
		columns:  make([]*Column[T], 0, len(m.Columns)),
		byMember: make(map[string]*Column[T], len(m.Columns)),
		byFolded: make(map[string]*Column[T], len(m.Columns)),
	}

	var explicit []*Column[T]
	for i := range m.Columns {
		c := m.Columns[i]
		if c.member == "" || c.get == nil || c.set == nil {
			return nil, &ormerr.MappingError{Entity: entity, Reason: fmt.Sprintf("column %d is incomplete", i)}
		}
		if _, dup := d.byMember[c.member]; dup {
			return nil, &ormerr.MappingError{Entity: entity, Reason: fmt.Sprintf("duplicate member %q", c.member)}
		}
		col := &c
		d.columns = append(d.columns, col)
		d.byMember[col.member] = col
		d.byFolded[Fold(col.name)] = col
		if col.key {
			explicit = append(explicit, col)
		}
	}

	switch {
	case len(explicit) > 1:
		return nil, &ormerr.MappingError{Entity: entity, Reason: "more than one column marked as key"}
	case len(explicit) == 1:
		d.key = explicit[0]
	default:
		d.key = discoverKey(d.columns, entity)
	}
	return d, nil
}

// discoverKey applies the naming conventions: a member named "Id", then
// "<Entity>Id", both compared case-insensitively.
func discoverKey[T any](cols []*Column[T], entity string) *Column[T] {
	for _, candidate := range []string{"Id", entity + "Id"} {
		want := Fold(candidate)
		for _, c := range cols {
			if Fold(c.member) == want {
				return c
			}
		}
	}
	return nil
}
