// Package schemafile loads entity descriptions from YAML so the pulse
// command line can compile and run queries without generated Go types.
//
// A schema file is a list of entities:
//
//	- name: Customer
//	  columns:
//	    - {member: Id, type: int}
//	    - {member: Name, type: string}
//	  relations:
//	    - {name: Orders, target: Order, many: true, foreign: CustomerId}
//	- name: Order
//	  columns:
//	    - {member: Id, type: int}
//	    - {member: CustomerId, type: int}
//	    - {member: Total, type: decimal}
//
// Tables default to the pluralized, underscored entity name and columns to
// the underscored member name.
package schemafile

import (
	"fmt"
	"strings"

	"github.com/go-openapi/inflect"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/satishbabariya/pulseorm/query/executor"
	"github.com/satishbabariya/pulseorm/schema"
)

// ColumnSpec describes one mapped member.
type ColumnSpec struct {
	Member string `yaml:"member"`
	Column string `yaml:"column"`
	Type   string `yaml:"type"`
	Key    bool   `yaml:"key"`
}

// RelationSpec describes a navigation to another entity of the file.
// Local is the member of the declaring entity and Foreign the member of the
// target that must be equal.
type RelationSpec struct {
	Name    string `yaml:"name"`
	Target  string `yaml:"target"`
	Many    bool   `yaml:"many"`
	Local   string `yaml:"local"`
	Foreign string `yaml:"foreign"`
	Mode    string `yaml:"mode"`
}

// Entity is one entry of a schema file.
type Entity struct {
	Name      string         `yaml:"name"`
	Table     string         `yaml:"table"`
	Columns   []ColumnSpec   `yaml:"columns"`
	Relations []RelationSpec `yaml:"relations"`

	desc *schema.Descriptor[schema.Record]
}

// Descriptor returns the record descriptor built for the entity.
func (e *Entity) Descriptor() *schema.Descriptor[schema.Record] { return e.desc }

// File is a parsed schema file.
type File struct {
	Entities []*Entity
	byName   map[string]*Entity
}

// Load reads and parses the schema file at path.
func Load(fs afero.Fs, path string) (*File, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse parses a schema file and builds a descriptor per entity.
func Parse(data []byte) (*File, error) {
	var entities []*Entity
	if err := yaml.Unmarshal(data, &entities); err != nil {
		return nil, fmt.Errorf("invalid schema file: %w", err)
	}
	if len(entities) == 0 {
		return nil, fmt.Errorf("schema file declares no entities")
	}

	f := &File{Entities: entities, byName: make(map[string]*Entity, len(entities))}
	for _, e := range entities {
		if e.Name == "" {
			return nil, fmt.Errorf("entity without a name")
		}
		key := schema.Fold(e.Name)
		if _, dup := f.byName[key]; dup {
			return nil, fmt.Errorf("duplicate entity %q", e.Name)
		}
		f.byName[key] = e
		if err := e.build(); err != nil {
			return nil, err
		}
	}
	for _, e := range entities {
		if err := f.checkRelations(e); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (e *Entity) build() error {
	if e.Table == "" {
		e.Table = inflect.Underscore(inflect.Pluralize(e.Name))
	}
	cols := make([]schema.Column[schema.Record], 0, len(e.Columns))
	for i := range e.Columns {
		c := &e.Columns[i]
		if c.Member == "" {
			return fmt.Errorf("entity %s: column %d has no member", e.Name, i)
		}
		if c.Column == "" {
			c.Column = inflect.Underscore(c.Member)
		}
		kind, ok := schema.ParseKind(c.Type)
		if !ok {
			return fmt.Errorf("entity %s: column %s has unknown type %q", e.Name, c.Member, c.Type)
		}
		opts := []schema.Option{schema.As(c.Column)}
		if c.Key {
			opts = append(opts, schema.PrimaryKey())
		}
		cols = append(cols, schema.RecordColumn(c.Member, kind, opts...))
	}

	desc, err := schema.Build(schema.Mapping[schema.Record]{Entity: e.Name, Table: e.Table, Columns: cols})
	if err != nil {
		return err
	}
	e.desc = desc
	return nil
}

func (f *File) checkRelations(e *Entity) error {
	seen := make(map[string]bool, len(e.Relations))
	for i := range e.Relations {
		r := &e.Relations[i]
		target, ok := f.byName[schema.Fold(r.Target)]
		if !ok {
			return fmt.Errorf("entity %s: relation %q targets unknown entity %q", e.Name, r.Name, r.Target)
		}
		if r.Name == "" {
			r.Name = target.Name
			if r.Many {
				r.Name = inflect.Pluralize(target.Name)
			}
		}
		if seen[r.Name] {
			return fmt.Errorf("entity %s: duplicate relation %q", e.Name, r.Name)
		}
		seen[r.Name] = true
		if _, clash := e.desc.Column(r.Name); clash {
			return fmt.Errorf("entity %s: relation %q shadows a column", e.Name, r.Name)
		}

		// Many: root key to a foreign member. One: a local member to the target key.
		if r.Many && r.Local == "" {
			key, err := e.desc.RequireKey("relation " + r.Name)
			if err != nil {
				return err
			}
			r.Local = key.Member()
		}
		if !r.Many && r.Foreign == "" {
			key, err := target.desc.RequireKey("relation " + r.Name)
			if err != nil {
				return err
			}
			r.Foreign = key.Member()
		}
		if r.Local == "" || r.Foreign == "" {
			return fmt.Errorf("entity %s: relation %q needs local and foreign members", e.Name, r.Name)
		}
		if _, ok := e.desc.Column(r.Local); !ok {
			return fmt.Errorf("entity %s: relation %q: unknown local member %q", e.Name, r.Name, r.Local)
		}
		if _, ok := target.desc.Column(r.Foreign); !ok {
			return fmt.Errorf("entity %s: relation %q: unknown foreign member %q", e.Name, r.Name, r.Foreign)
		}

		switch strings.ToLower(r.Mode) {
		case "", "left":
		case "inner":
			if r.Many {
				return fmt.Errorf("entity %s: relation %q: inner joins apply to one-to-one relations only", e.Name, r.Name)
			}
		default:
			return fmt.Errorf("entity %s: relation %q: unknown mode %q", e.Name, r.Name, r.Mode)
		}
	}
	return nil
}

// Entity finds an entity by name or table, ignoring case.
func (f *File) Entity(name string) (*Entity, error) {
	if e, ok := f.byName[schema.Fold(name)]; ok {
		return e, nil
	}
	for _, e := range f.Entities {
		if schema.Fold(e.Table) == schema.Fold(name) {
			return e, nil
		}
	}
	return nil, fmt.Errorf("unknown entity %q", name)
}

// Names lists the entity names in file order.
func (f *File) Names() []string {
	names := make([]string, len(f.Entities))
	for i, e := range f.Entities {
		names[i] = e.Name
	}
	return names
}

// Relations builds the named relations of e. Related records are stored in
// the root record under the relation name: a []schema.Record for
// one-to-many relations and a *schema.Record for one-to-one relations (see
// Plain).
func (f *File) Relations(e *Entity, names ...string) ([]executor.Relation[schema.Record], error) {
	out := make([]executor.Relation[schema.Record], 0, len(names))
	for _, name := range names {
		rs, ok := e.relation(name)
		if !ok {
			return nil, fmt.Errorf("entity %s has no relation %q", e.Name, name)
		}
		target := f.byName[schema.Fold(rs.Target)]
		opts := []executor.RelationOption{executor.Named(rs.Name)}
		if strings.EqualFold(rs.Mode, "inner") {
			opts = append(opts, executor.InnerJoin())
		}
		if rs.Many {
			out = append(out, executor.HasMany(target.desc, manyHolder(rs.Name), rs.Local, rs.Foreign, opts...))
		} else {
			out = append(out, executor.HasOne(target.desc, oneHolder(rs.Name), rs.Local, rs.Foreign, opts...))
		}
	}
	return out, nil
}

func (e *Entity) relation(name string) (*RelationSpec, bool) {
	for i := range e.Relations {
		if strings.EqualFold(e.Relations[i].Name, name) {
			return &e.Relations[i], true
		}
	}
	return nil, false
}

func manyHolder(name string) func(*schema.Record) *[]schema.Record {
	return func(r *schema.Record) *[]schema.Record {
		if *r == nil {
			*r = schema.Record{}
		}
		if h, ok := (*r)[name].(*[]schema.Record); ok {
			return h
		}
		h := new([]schema.Record)
		(*r)[name] = h
		return h
	}
}

func oneHolder(name string) func(*schema.Record) **schema.Record {
	return func(r *schema.Record) **schema.Record {
		if *r == nil {
			*r = schema.Record{}
		}
		if h, ok := (*r)[name].(**schema.Record); ok {
			return h
		}
		h := new(*schema.Record)
		(*r)[name] = h
		return h
	}
}

// Plain returns a copy of r with navigation holders replaced by the related
// records themselves, recursively. Empty one-to-one navigations become nil.
func Plain(r schema.Record) schema.Record {
	out := make(schema.Record, len(r))
	for k, v := range r {
		switch h := v.(type) {
		case *[]schema.Record:
			list := make([]schema.Record, len(*h))
			for i, child := range *h {
				list[i] = Plain(child)
			}
			out[k] = list
		case **schema.Record:
			if *h == nil {
				out[k] = nil
			} else {
				out[k] = Plain(**h)
			}
		default:
			out[k] = v
		}
	}
	return out
}
