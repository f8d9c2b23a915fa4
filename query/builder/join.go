package builder

import (
	"strconv"
	"strings"

	"github.com/satishbabariya/pulseorm/ormerr"
	"github.com/satishbabariya/pulseorm/query/compiler"
	"github.com/satishbabariya/pulseorm/query/sqlgen"
)

// RootPrefix prefixes root columns in a wide joined row.
const RootPrefix = "r__"

// JoinAlias returns the table alias of the i-th join.
func JoinAlias(i int) string { return "j" + strconv.Itoa(i) }

// JoinPrefix returns the column prefix of the i-th join in a wide row.
func JoinPrefix(i int) string { return JoinAlias(i) + "__" }

// Join is the SQL view of one included relation: the target table, the
// target columns to select and the equality that links it to the root.
type Join struct {
	Table string
	// RootMember is the root-side member compared with TargetColumn.
	RootMember string
	// TargetColumn is the physical target-side column.
	TargetColumn string
	// Columns lists the physical target columns to select.
	Columns []string
	// OrderColumn, when set, orders the joined rows of one root.
	OrderColumn string
	Inner       bool
}

// Joined builds the wide-row select of the root and every join:
//
//	SELECT r.id AS r__id, ..., j0.id AS j0__id, ... FROM users r
//	LEFT JOIN orders j0 ON r.id = j0.user_id WHERE ... ORDER BY r.id ASC, j0.id ASC
func (b *Builder[T]) Joined(q Query, joins []Join) (sqlgen.Statement, error) {
	return b.joined(q, joins, nil)
}

// JoinedByKeys is Joined restricted to the given root keys. An empty key
// list matches nothing.
func (b *Builder[T]) JoinedByKeys(keys []any, q Query, joins []Join) (sqlgen.Statement, error) {
	if keys == nil {
		keys = []any{}
	}
	return b.joined(Query{Order: q.Order, Members: q.Members}, joins, keys)
}

func (b *Builder[T]) joined(q Query, joins []Join, keys []any) (sqlgen.Statement, error) {
	extra := make([]string, len(joins))
	for i, j := range joins {
		extra[i] = j.RootMember
	}
	rootList, _, err := b.comp.SelectList(RootAlias, RootPrefix, b.members(q, extra...))
	if err != nil {
		return sqlgen.Statement{}, err
	}

	selects := []string{rootList}
	clauses := make([]string, 0, len(joins))
	var within []string
	for i, j := range joins {
		rootCol, ok := b.desc.Column(j.RootMember)
		if !ok {
			return sqlgen.Statement{}, &ormerr.UnmappedMemberError{Entity: b.desc.Entity(), Member: j.RootMember}
		}
		alias, prefix := JoinAlias(i), JoinPrefix(i)
		for _, c := range j.Columns {
			selects = append(selects, compiler.Qualify(alias, c)+" AS "+prefix+c)
		}
		kind := "LEFT JOIN"
		if j.Inner {
			kind = "INNER JOIN"
		}
		clauses = append(clauses, kind+" "+j.Table+" "+alias+" ON "+
			compiler.Qualify(RootAlias, rootCol.Name())+" = "+compiler.Qualify(alias, j.TargetColumn))
		if j.OrderColumn != "" {
			within = append(within, compiler.Qualify(alias, j.OrderColumn)+" ASC")
		}
	}

	var where string
	var params sqlgen.Params
	if keys != nil {
		where = "WHERE 1=0"
		if len(keys) > 0 {
			key, err := b.desc.RequireKey("select by keys")
			if err != nil {
				return sqlgen.Statement{}, err
			}
			where = "WHERE " + b.inClause(&params, compiler.Qualify(RootAlias, key.Name()), keys, 0)
		}
	} else {
		var pred compiler.Predicate
		where, pred, err = b.whereClause(q.Where, 0)
		if err != nil {
			return sqlgen.Statement{}, err
		}
		params = pred.Params
	}

	order, err := b.orderClause(q.Order, RootAlias, false)
	if err != nil {
		return sqlgen.Statement{}, err
	}
	if len(within) > 0 {
		if order == "" {
			order = "ORDER BY " + strings.Join(within, ", ")
		} else {
			order += ", " + strings.Join(within, ", ")
		}
	}
	sql := joinParts("SELECT", strings.Join(selects, ", "), "FROM", b.desc.Table(), RootAlias,
		strings.Join(clauses, " "), where, order)
	return sqlgen.Statement{SQL: sql, Params: params}, nil
}

// RelatedByKeys selects the rows of T whose member equals one of keys. It is
// the follow-up query of a split joined read. The result is ordered by the
// primary key when T has one.
//
//	SELECT id, user_id, total FROM orders WHERE user_id IN (@p0, @p1) ORDER BY id ASC
func (b *Builder[T]) RelatedByKeys(member string, keys []any, members []string) (sqlgen.Statement, error) {
	col, ok := b.desc.Column(member)
	if !ok {
		return sqlgen.Statement{}, &ormerr.UnmappedMemberError{Entity: b.desc.Entity(), Member: member}
	}
	required := []string{member}
	if key, ok := b.desc.Key(); ok {
		required = append(required, key.Member())
	}
	list, _, err := b.comp.SelectList("", "", compiler.WithRequired(members, required...))
	if err != nil {
		return sqlgen.Statement{}, err
	}
	if len(keys) == 0 {
		return sqlgen.Statement{SQL: joinParts("SELECT", list, "FROM", b.desc.Table(), "WHERE 1=0")}, nil
	}
	order, err := b.orderClause(nil, "", false)
	if err != nil {
		return sqlgen.Statement{}, err
	}
	var params sqlgen.Params
	in := b.inClause(&params, col.Name(), keys, 0)
	return sqlgen.Statement{SQL: joinParts("SELECT", list, "FROM", b.desc.Table(), "WHERE", in, order), Params: params}, nil
}

// ProjectionColumns resolves members (all when empty) to physical column
// names, with required members merged in. Join callers use it to fill
// Join.Columns.
func (b *Builder[T]) ProjectionColumns(members []string, required ...string) ([]string, error) {
	cols, err := b.comp.Columns(compiler.WithRequired(members, required...))
	if err != nil {
		return nil, err
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name()
	}
	return names, nil
}
