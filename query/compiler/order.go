package compiler

import (
	"strings"

	"github.com/satishbabariya/pulseorm/ormerr"
	"github.com/satishbabariya/pulseorm/query/ast"
	"github.com/satishbabariya/pulseorm/schema"
)

// Order is one ordering term.
type Order struct {
	Member string
	Desc   bool
}

// Asc orders by member ascending.
func Asc(member string) Order { return Order{Member: member} }

// Desc orders by member descending.
func Desc(member string) Order { return Order{Member: member, Desc: true} }

// OrderBy renders an ORDER BY clause. With no terms it falls back to the
// primary key ascending; an entity without a key then yields
// MissingKeyError.
func (c *Compiler[T]) OrderBy(terms []Order, alias string) (string, error) {
	if len(terms) == 0 {
		key, err := c.desc.RequireKey("default ordering")
		if err != nil {
			return "", err
		}
		return "ORDER BY " + Qualify(alias, key.Name()) + " ASC", nil
	}

	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		col, ok := c.desc.Column(t.Member)
		if !ok {
			return "", &ormerr.UnmappedMemberError{Entity: c.desc.Entity(), Member: t.Member}
		}
		dir := "ASC"
		if t.Desc {
			dir = "DESC"
		}
		parts = append(parts, Qualify(alias, col.Name())+" "+dir)
	}
	return "ORDER BY " + strings.Join(parts, ", "), nil
}

// Member extracts the member named by a projection or ordering expression.
// Only direct member references are accepted.
func Member(e ast.Expr) (string, error) {
	if col, ok := e.(ast.Column); ok && col.Member != "" {
		return col.Member, nil
	}
	if e == nil {
		return "", unsupported("empty member selector")
	}
	return "", unsupported("member selector %s", e)
}

// SelectList renders "alias.col AS <prefix>col, ..." for members (all
// columns when members is empty). Without a prefix the AS clause is
// omitted. The selected columns are returned in order.
func (c *Compiler[T]) SelectList(alias, prefix string, members []string) (string, []*schema.Column[T], error) {
	cols, err := c.Columns(members)
	if err != nil {
		return "", nil, err
	}
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = Qualify(alias, col.Name())
		if prefix != "" {
			parts[i] += " AS " + prefix + col.Name()
		}
	}
	return strings.Join(parts, ", "), cols, nil
}

// Columns resolves members to columns, preserving order and dropping
// duplicates. Empty members selects every column.
func (c *Compiler[T]) Columns(members []string) ([]*schema.Column[T], error) {
	if len(members) == 0 {
		return c.desc.Columns(), nil
	}
	seen := make(map[string]bool, len(members))
	cols := make([]*schema.Column[T], 0, len(members))
	for _, m := range members {
		if seen[m] {
			continue
		}
		seen[m] = true
		col, ok := c.desc.Column(m)
		if !ok {
			return nil, &ormerr.UnmappedMemberError{Entity: c.desc.Entity(), Member: m}
		}
		cols = append(cols, col)
	}
	return cols, nil
}

// WithRequired returns members with required appended when absent. An
// empty members list means "all columns" and is returned unchanged.
func WithRequired(members []string, required ...string) []string {
	if len(members) == 0 {
		return nil
	}
	out := append([]string(nil), members...)
	for _, r := range required {
		if r == "" {
			continue
		}
		found := false
		for _, m := range out {
			if m == r {
				found = true
				break
			}
		}
		if !found {
			out = append(out, r)
		}
	}
	return out
}
