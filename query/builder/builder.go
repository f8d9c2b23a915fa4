// Package builder assembles complete SQL statements for one entity type from
// its descriptor, a dialect and the fragments produced by the compiler.
// Values are always bound as parameters, never spliced into the text.
package builder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/satishbabariya/pulseorm/ormerr"
	"github.com/satishbabariya/pulseorm/query/ast"
	"github.com/satishbabariya/pulseorm/query/compiler"
	"github.com/satishbabariya/pulseorm/query/sqlgen"
	"github.com/satishbabariya/pulseorm/schema"
)

// RootAlias is the table alias of the root entity in read statements.
const RootAlias = "r"

// Builder builds statements over T.
type Builder[T any] struct {
	desc    *schema.Descriptor[T]
	dialect sqlgen.Dialect
	comp    *compiler.Compiler[T]
}

// New creates a builder for desc rendering with dialect.
func New[T any](desc *schema.Descriptor[T], dialect sqlgen.Dialect) *Builder[T] {
	return &Builder[T]{
		desc:    desc,
		dialect: dialect,
		comp:    compiler.NewCompiler(desc, dialect),
	}
}

// Descriptor returns the entity descriptor.
func (b *Builder[T]) Descriptor() *schema.Descriptor[T] { return b.desc }

// Dialect returns the dialect.
func (b *Builder[T]) Dialect() sqlgen.Dialect { return b.dialect }

// Compiler returns the fragment compiler backing b.
func (b *Builder[T]) Compiler() *compiler.Compiler[T] { return b.comp }

func paramName(prefix string, i int) string { return prefix + strconv.Itoa(i) }

// bind stores v under name and returns its placeholder.
func (b *Builder[T]) bind(params *sqlgen.Params, name string, v any) string {
	params.Set(name, compiler.StorageValue(v))
	return b.dialect.Param(name)
}

// insertColumns lists the columns written for e. A zero-valued key is left
// out so the database can generate it.
func (b *Builder[T]) insertColumns(e *T) []*schema.Column[T] {
	key, hasKey := b.desc.Key()
	cols := make([]*schema.Column[T], 0, len(b.desc.Columns()))
	for _, col := range b.desc.Columns() {
		if hasKey && col == key && col.IsZero(e) {
			continue
		}
		cols = append(cols, col)
	}
	return cols
}

// Insert builds a single-row INSERT for e.
func (b *Builder[T]) Insert(e *T) (sqlgen.Statement, error) {
	cols := b.insertColumns(e)
	if len(cols) == 0 {
		return sqlgen.Statement{}, &ormerr.NoColumnsError{Entity: b.desc.Entity(), Operation: "insert"}
	}

	var params sqlgen.Params
	names := make([]string, len(cols))
	values := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.Name()
		values[i] = b.bind(&params, paramName("p", i), col.Value(e))
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		b.desc.Table(), strings.Join(names, ", "), strings.Join(values, ", "))
	return sqlgen.Statement{SQL: sql, Params: params}, nil
}

// Update builds an UPDATE writing every non-key column of e, matched by key.
func (b *Builder[T]) Update(e *T) (sqlgen.Statement, error) {
	key, err := b.desc.RequireKey("update")
	if err != nil {
		return sqlgen.Statement{}, err
	}

	var params sqlgen.Params
	sets := make([]string, 0, len(b.desc.Columns()))
	for _, col := range b.desc.Columns() {
		if col == key {
			continue
		}
		sets = append(sets, col.Name()+" = "+b.bind(&params, paramName("p", len(sets)), col.Value(e)))
	}
	if len(sets) == 0 {
		return sqlgen.Statement{}, &ormerr.NoColumnsError{Entity: b.desc.Entity(), Operation: "update"}
	}
	cond := key.Name() + " = " + b.bind(&params, "key", key.Value(e))
	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s", b.desc.Table(), strings.Join(sets, ", "), cond)
	return sqlgen.Statement{SQL: sql, Params: params}, nil
}

// DeleteByID builds a DELETE of the row whose key equals id.
func (b *Builder[T]) DeleteByID(id any) (sqlgen.Statement, error) {
	key, err := b.desc.RequireKey("delete")
	if err != nil {
		return sqlgen.Statement{}, err
	}
	var params sqlgen.Params
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", b.desc.Table(), key.Name(), b.bind(&params, "key", id))
	return sqlgen.Statement{SQL: sql, Params: params}, nil
}

// Delete builds a DELETE of the row holding e's key.
func (b *Builder[T]) Delete(e *T) (sqlgen.Statement, error) {
	key, err := b.desc.RequireKey("delete")
	if err != nil {
		return sqlgen.Statement{}, err
	}
	return b.DeleteByID(key.Value(e))
}

// SelectByID selects every column of the row whose key equals id.
func (b *Builder[T]) SelectByID(id any) (sqlgen.Statement, error) {
	key, err := b.desc.RequireKey("select by id")
	if err != nil {
		return sqlgen.Statement{}, err
	}
	list, _, err := b.comp.SelectList("", "", nil)
	if err != nil {
		return sqlgen.Statement{}, err
	}
	var params sqlgen.Params
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s", list, b.desc.Table(), key.Name(), b.bind(&params, "id", id))
	return sqlgen.Statement{SQL: sql, Params: params}, nil
}

// All selects every row and column of the table.
func (b *Builder[T]) All() (sqlgen.Statement, error) {
	list, _, err := b.comp.SelectList("", "", nil)
	if err != nil {
		return sqlgen.Statement{}, err
	}
	return sqlgen.Statement{SQL: fmt.Sprintf("SELECT %s FROM %s", list, b.desc.Table())}, nil
}

// Count counts the root rows matching where. A nil predicate counts the
// whole table.
func (b *Builder[T]) Count(where ast.Expr) (sqlgen.Statement, error) {
	pred, err := b.comp.Predicate(where, compiler.Options{Alias: RootAlias})
	if err != nil {
		return sqlgen.Statement{}, err
	}
	sql := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", b.desc.Table(), RootAlias)
	if !pred.Empty() {
		sql += " WHERE " + pred.SQL
	}
	return sqlgen.Statement{SQL: sql, Params: pred.Params}, nil
}

// CheckPage validates page (1-based) and size and returns the number of rows
// to skip.
func CheckPage(page, size int) (int, error) {
	if page < 1 {
		return 0, &ormerr.ArgumentError{Name: "page", Value: page, Reason: "must be at least 1"}
	}
	if size < 1 {
		return 0, &ormerr.ArgumentError{Name: "page size", Value: size, Reason: "must be at least 1"}
	}
	return (page - 1) * size, nil
}
