package commands

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/pulseorm/cli/internal/config"
	"github.com/satishbabariya/pulseorm/cli/internal/filter"
	"github.com/satishbabariya/pulseorm/cli/internal/schemafile"
	"github.com/satishbabariya/pulseorm/query/builder"
	"github.com/satishbabariya/pulseorm/query/compiler"
	"github.com/satishbabariya/pulseorm/query/executor"
	"github.com/satishbabariya/pulseorm/query/sqlgen"
	"github.com/satishbabariya/pulseorm/schema"
)

// queryFlags are shared by compile and query.
type queryFlags struct {
	schemaPath string
	provider   string
	entity     string
	where      string
	order      []string
	desc       bool
	selects    []string
	include    []string
	page       int
	size       int
}

func (f *queryFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.schemaPath, "schema", "s", "", "Schema file (default from config)")
	fl.StringVar(&f.provider, "provider", "", "Database provider (default from config)")
	fl.StringVarP(&f.entity, "entity", "e", "", "Entity name or table to read")
	fl.StringVarP(&f.where, "where", "w", "", `Filter, e.g. 'age >= 18 && name.startsWith("A")'`)
	fl.StringSliceVarP(&f.order, "order", "o", nil, "Order members; prefix with - to sort descending")
	fl.BoolVar(&f.desc, "desc", false, "Sort every order member descending")
	fl.StringSliceVar(&f.selects, "select", nil, "Root members to read (key and order members are always read)")
	fl.StringSliceVarP(&f.include, "include", "i", nil, "Relations to load")
	fl.IntVar(&f.page, "page", 0, "Page number, starting at 1")
	fl.IntVar(&f.size, "size", 0, "Page size")
	_ = cmd.MarkFlagRequired("entity")
}

// plan is a resolved read: the entity, its relations and the query shape.
type plan struct {
	file     *schemafile.File
	entity   *schemafile.Entity
	rels     []executor.Relation[schema.Record]
	query    builder.Query
	dialect  sqlgen.Dialect
	provider string
	page     int
	size     int
}

func (p *plan) paged() bool { return p.page != 0 || p.size != 0 }

func (p *plan) builder() *builder.Builder[schema.Record] {
	return builder.New(p.entity.Descriptor(), p.dialect)
}

// buildPlan loads the schema file and resolves every flag against it.
func buildPlan(cfg *config.Config, f *queryFlags) (*plan, error) {
	provider := f.provider
	if provider == "" {
		provider = cfg.Provider
	}
	dialect, err := sqlgen.Lookup(provider)
	if err != nil {
		return nil, err
	}
	path := f.schemaPath
	if path == "" {
		path = cfg.SchemaPath
	}
	file, err := schemafile.Load(config.AppFs, path)
	if err != nil {
		return nil, err
	}
	entity, err := file.Entity(f.entity)
	if err != nil {
		return nil, err
	}

	p := &plan{file: file, entity: entity, dialect: dialect, provider: provider, page: f.page, size: f.size}
	lookup := memberLookup(entity.Descriptor())

	where, err := filter.Parse(f.where)
	if err != nil {
		return nil, err
	}
	if p.query.Where, err = filter.Resolve(where, lookup); err != nil {
		return nil, err
	}

	for _, o := range f.order {
		desc := f.desc
		if strings.HasPrefix(o, "-") {
			o, desc = o[1:], true
		}
		m, ok := lookup(o)
		if !ok {
			return nil, fmt.Errorf("unknown order member %q", o)
		}
		if desc {
			p.query.Order = append(p.query.Order, compiler.Desc(m))
		} else {
			p.query.Order = append(p.query.Order, compiler.Asc(m))
		}
	}
	for _, s := range f.selects {
		m, ok := lookup(s)
		if !ok {
			return nil, fmt.Errorf("unknown member %q", s)
		}
		p.query.Members = append(p.query.Members, m)
	}

	if p.rels, err = file.Relations(entity, f.include...); err != nil {
		return nil, err
	}
	return p, nil
}

// memberLookup accepts a member name, a column name or a member name in
// any case.
func memberLookup(desc *schema.Descriptor[schema.Record]) func(string) (string, bool) {
	return func(name string) (string, bool) {
		if c, ok := desc.Column(name); ok {
			return c.Member(), true
		}
		if c, ok := desc.ColumnByName(name); ok {
			return c.Member(), true
		}
		for _, c := range desc.Columns() {
			if schema.Fold(c.Member()) == schema.Fold(name) {
				return c.Member(), true
			}
		}
		return "", false
	}
}

// compiled is one statement as the driver receives it.
type compiled struct {
	Title     string
	Statement sqlgen.Statement
	SQL       string
	Args      []any
}

// statements compiles the statements a read starts with. A paged joined
// read continues with one statement for the roots and one per relation,
// keyed by the page's keys.
func (p *plan) statements() ([]compiled, error) {
	b := p.builder()
	var out []compiled
	add := func(title string, st sqlgen.Statement) {
		text, args := p.dialect.Bind(st)
		out = append(out, compiled{Title: title, Statement: st, SQL: text, Args: args})
	}

	switch {
	case len(p.rels) == 0 && !p.paged():
		st, err := b.RootOnly(p.query)
		if err != nil {
			return nil, err
		}
		add("select", st)
	case len(p.rels) == 0:
		pageSt, countSt, err := b.RootPage(p.query, p.page, p.size)
		if err != nil {
			return nil, err
		}
		add("page", pageSt)
		add("count", countSt)
	case !p.paged():
		joins, err := executor.JoinClauses(p.rels, p.dialect)
		if err != nil {
			return nil, err
		}
		st, err := b.Joined(p.query, joins)
		if err != nil {
			return nil, err
		}
		add("joined", st)
	default:
		pageSt, countSt, err := b.KeyPage(p.query, p.page, p.size)
		if err != nil {
			return nil, err
		}
		add("key page", pageSt)
		add("count", countSt)
	}
	return out, nil
}

// argLabel names the i-th bound argument the way the SQL refers to it.
func argLabel(d sqlgen.Dialect, i int, arg any) (string, any) {
	if named, ok := arg.(sql.NamedArg); ok {
		return d.Param(named.Name), named.Value
	}
	switch d.Name() {
	case "postgres":
		return fmt.Sprintf("$%d", i+1), arg
	default:
		return fmt.Sprintf("?%d", i+1), arg
	}
}
