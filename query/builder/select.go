package builder

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/pulseorm/query/ast"
	"github.com/satishbabariya/pulseorm/query/compiler"
	"github.com/satishbabariya/pulseorm/query/sqlgen"
)

// Query is the shape of a read over the root entity.
type Query struct {
	// Where filters root rows; nil matches every row.
	Where ast.Expr
	// Order lists ordering terms. Empty falls back to the primary key.
	Order []compiler.Order
	// Members restricts the selected root columns. Empty selects all.
	Members []string
}

// members returns the projection with required members merged in: the key
// when present, every ordering member and extra.
func (b *Builder[T]) members(q Query, extra ...string) []string {
	if len(q.Members) == 0 {
		return nil
	}
	required := make([]string, 0, len(q.Order)+len(extra)+1)
	if key, ok := b.desc.Key(); ok {
		required = append(required, key.Member())
	}
	for _, o := range q.Order {
		required = append(required, o.Member)
	}
	required = append(required, extra...)
	return compiler.WithRequired(q.Members, required...)
}

// whereClause compiles q.Where against the root alias. Without a predicate
// the clause is "WHERE 1=1" so later fragments can always append.
func (b *Builder[T]) whereClause(where ast.Expr, offset int) (string, compiler.Predicate, error) {
	pred, err := b.comp.Predicate(where, compiler.Options{Alias: RootAlias, Offset: offset})
	if err != nil {
		return "", compiler.Predicate{}, err
	}
	if pred.Empty() {
		return "WHERE 1=1", pred, nil
	}
	return "WHERE " + pred.SQL, pred, nil
}

// orderClause renders q.Order. When strict is false a keyless entity with
// no explicit order is left unordered instead of failing.
func (b *Builder[T]) orderClause(order []compiler.Order, alias string, strict bool) (string, error) {
	if len(order) == 0 && !strict {
		if _, ok := b.desc.Key(); !ok {
			return "", nil
		}
	}
	return b.comp.OrderBy(order, alias)
}

// RootOnly selects root rows matching q.
//
//	SELECT r.id, r.name FROM users r WHERE <pred>|1=1 ORDER BY r.id ASC
func (b *Builder[T]) RootOnly(q Query) (sqlgen.Statement, error) {
	list, _, err := b.comp.SelectList(RootAlias, "", b.members(q))
	if err != nil {
		return sqlgen.Statement{}, err
	}
	where, pred, err := b.whereClause(q.Where, 0)
	if err != nil {
		return sqlgen.Statement{}, err
	}
	order, err := b.orderClause(q.Order, RootAlias, false)
	if err != nil {
		return sqlgen.Statement{}, err
	}
	sql := joinParts("SELECT", list, "FROM", b.desc.Table(), RootAlias, where, order)
	return sqlgen.Statement{SQL: sql, Params: pred.Params}, nil
}

// RootPage selects one page of root rows plus the COUNT(*) of all matching
// rows. Both statements share the WHERE parameters.
func (b *Builder[T]) RootPage(q Query, page, size int) (sqlgen.Statement, sqlgen.Statement, error) {
	skip, err := CheckPage(page, size)
	if err != nil {
		return sqlgen.Statement{}, sqlgen.Statement{}, err
	}
	list, _, err := b.comp.SelectList(RootAlias, "", b.members(q))
	if err != nil {
		return sqlgen.Statement{}, sqlgen.Statement{}, err
	}
	where, pred, err := b.whereClause(q.Where, 0)
	if err != nil {
		return sqlgen.Statement{}, sqlgen.Statement{}, err
	}
	order, err := b.orderClause(q.Order, RootAlias, true)
	if err != nil {
		return sqlgen.Statement{}, sqlgen.Statement{}, err
	}
	from := joinParts("FROM", b.desc.Table(), RootAlias, where)
	pageSQL := b.dialect.Paginate(joinParts("SELECT", list, from), skip, size, order)
	countSQL := joinParts("SELECT COUNT(*)", from)
	return sqlgen.Statement{SQL: pageSQL, Params: pred.Params},
		sqlgen.Statement{SQL: countSQL, Params: pred.Params.Clone()}, nil
}

// KeyPage selects the primary keys of one page of root rows and the COUNT(*)
// of all matching rows. It is the first phase of a paged joined read.
//
//	SELECT r.id FROM users r WHERE ... ORDER BY ... <paging>
//	SELECT COUNT(*) FROM users r WHERE ...
func (b *Builder[T]) KeyPage(q Query, page, size int) (sqlgen.Statement, sqlgen.Statement, error) {
	key, err := b.desc.RequireKey("paging")
	if err != nil {
		return sqlgen.Statement{}, sqlgen.Statement{}, err
	}
	skip, err := CheckPage(page, size)
	if err != nil {
		return sqlgen.Statement{}, sqlgen.Statement{}, err
	}
	where, pred, err := b.whereClause(q.Where, 0)
	if err != nil {
		return sqlgen.Statement{}, sqlgen.Statement{}, err
	}
	order, err := b.orderClause(q.Order, RootAlias, true)
	if err != nil {
		return sqlgen.Statement{}, sqlgen.Statement{}, err
	}
	from := joinParts("FROM", b.desc.Table(), RootAlias, where)
	pageSQL := b.dialect.Paginate(joinParts("SELECT", compiler.Qualify(RootAlias, key.Name()), from), skip, size, order)
	countSQL := joinParts("SELECT COUNT(*)", from)
	return sqlgen.Statement{SQL: pageSQL, Params: pred.Params},
		sqlgen.Statement{SQL: countSQL, Params: pred.Params.Clone()}, nil
}

// SelectByKeys re-selects root rows by primary key, ordered like q. An empty
// key list yields a statement that matches nothing.
func (b *Builder[T]) SelectByKeys(keys []any, q Query) (sqlgen.Statement, error) {
	list, _, err := b.comp.SelectList(RootAlias, "", b.members(q))
	if err != nil {
		return sqlgen.Statement{}, err
	}
	if len(keys) == 0 {
		return sqlgen.Statement{SQL: joinParts("SELECT", list, "FROM", b.desc.Table(), RootAlias, "WHERE 1=0")}, nil
	}
	key, err := b.desc.RequireKey("select by keys")
	if err != nil {
		return sqlgen.Statement{}, err
	}
	order, err := b.orderClause(q.Order, RootAlias, true)
	if err != nil {
		return sqlgen.Statement{}, err
	}
	var params sqlgen.Params
	in := b.inClause(&params, compiler.Qualify(RootAlias, key.Name()), keys, 0)
	sql := joinParts("SELECT", list, "FROM", b.desc.Table(), RootAlias, "WHERE", in, order)
	return sqlgen.Statement{SQL: sql, Params: params}, nil
}

// inClause renders "left IN (@p<start>, ...)" binding keys.
func (b *Builder[T]) inClause(params *sqlgen.Params, left string, keys []any, start int) string {
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = b.bind(params, paramName("p", start+i), k)
	}
	return left + " IN (" + strings.Join(names, ", ") + ")"
}

// Filter appends a compiled WHERE clause to caller-supplied SQL. Predicate
// parameters are numbered after the caller's so names never collide.
func (b *Builder[T]) Filter(st sqlgen.Statement, where ast.Expr) (sqlgen.Statement, error) {
	pred, err := b.comp.Predicate(where, compiler.Options{Offset: st.Params.Len()})
	if err != nil {
		return sqlgen.Statement{}, err
	}
	params := st.Params.Clone()
	if pred.Empty() {
		return sqlgen.Statement{SQL: st.SQL, Params: params}, nil
	}
	for _, p := range pred.Params.All() {
		if _, taken := params.Get(p.Name); taken {
			return sqlgen.Statement{}, fmt.Errorf("builder: filter parameter %s collides with a caller parameter", p.Name)
		}
		params.Set(p.Name, p.Value)
	}
	return sqlgen.Statement{SQL: strings.TrimSpace(st.SQL) + " WHERE " + pred.SQL, Params: params}, nil
}

// Paged wraps caller SQL in dialect pagination. Any top-level ORDER BY in
// the caller's text is dropped and replaced by order (unqualified columns).
func (b *Builder[T]) Paged(st sqlgen.Statement, order []compiler.Order, page, size int) (sqlgen.Statement, error) {
	skip, err := CheckPage(page, size)
	if err != nil {
		return sqlgen.Statement{}, err
	}
	orderSQL, err := b.orderClause(order, "", true)
	if err != nil {
		return sqlgen.Statement{}, err
	}
	sql := b.dialect.Paginate(sqlgen.StripOrderBy(st.SQL), skip, size, orderSQL)
	return sqlgen.Statement{SQL: sql, Params: st.Params.Clone()}, nil
}

func joinParts(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
