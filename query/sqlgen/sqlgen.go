// Package sqlgen renders the dialect-specific fragments of SQL: parameter
// placeholders, pagination, boolean literals and case-insensitive
// comparison. No other package spells a placeholder sigil or a literal.
package sqlgen

import (
	"fmt"
	"strings"
)

// Dialect is a pure strategy for one database family.
type Dialect interface {
	// Name returns the canonical provider name.
	Name() string
	// Param renders the placeholder for a named parameter.
	Param(name string) string
	// Paginate appends ordering and row limiting to a SELECT.
	Paginate(selectSQL string, skip, take int, orderBySQL string) string
	// BoolLiteral renders a boolean constant.
	BoolLiteral(v bool) string
	// EqualsIgnoreCase renders a case-insensitive equality test.
	EqualsIgnoreCase(left, right string) string
	// Like renders a pattern match whose right side was escaped with
	// EscapeLike.
	Like(left, right string) string
	// LikeIgnoreCase renders a case-insensitive pattern match.
	LikeIgnoreCase(left, right string) string
	// Bind converts a statement into driver SQL and arguments.
	Bind(st Statement) (string, []any)
}

// Lookup returns the dialect for a provider name.
func Lookup(provider string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "postgresql", "postgres", "pg":
		return Postgres, nil
	case "sqlserver", "mssql":
		return SQLServer, nil
	case "oracle":
		return Oracle, nil
	case "mysql", "mariadb":
		return MySQL, nil
	case "sqlite", "sqlite3", "sqlite-pure":
		return SQLite, nil
	default:
		return nil, fmt.Errorf("sqlgen: unsupported provider %q", provider)
	}
}

// Dialects lists every built-in dialect.
func Dialects() []Dialect {
	return []Dialect{Postgres, SQLServer, Oracle, MySQL, SQLite}
}

// joinSQL joins non-empty fragments with single spaces.
func joinSQL(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

func limitOffset(selectSQL string, skip, take int, orderBySQL string) string {
	return joinSQL(selectSQL, orderBySQL, fmt.Sprintf("LIMIT %d OFFSET %d", take, skip))
}

func offsetFetch(selectSQL string, skip, take int, orderBySQL string) string {
	return joinSQL(selectSQL, orderBySQL, fmt.Sprintf("OFFSET %d ROWS FETCH NEXT %d ROWS ONLY", skip, take))
}

const escapeClause = ` ESCAPE '\'`

// MySQL reads backslashes in string literals as escapes, so the escape
// character itself is spelled '\\'.
const mysqlEscapeClause = ` ESCAPE '\\'`

type postgresDialect struct{}

// Postgres uses @name placeholders, rebound to $n for lib/pq, LIMIT/OFFSET
// paging, native booleans and ILIKE.
var Postgres Dialect = postgresDialect{}

func (postgresDialect) Name() string             { return "postgres" }
func (postgresDialect) Param(name string) string { return "@" + name }

func (postgresDialect) Paginate(selectSQL string, skip, take int, orderBySQL string) string {
	return limitOffset(selectSQL, skip, take, orderBySQL)
}

func (postgresDialect) BoolLiteral(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

func (postgresDialect) EqualsIgnoreCase(left, right string) string {
	return fmt.Sprintf("(%s ILIKE %s)", left, right)
}

func (postgresDialect) Like(left, right string) string {
	return fmt.Sprintf("(%s LIKE %s%s)", left, right, escapeClause)
}

func (postgresDialect) LikeIgnoreCase(left, right string) string {
	return fmt.Sprintf("(%s ILIKE %s%s)", left, right, escapeClause)
}

func (postgresDialect) Bind(st Statement) (string, []any) {
	return rebindNumbered(st, '@', "$")
}

type mysqlDialect struct{}

// MySQL renders @name placeholders rebound to ? for go-sql-driver/mysql.
var MySQL Dialect = mysqlDialect{}

func (mysqlDialect) Name() string             { return "mysql" }
func (mysqlDialect) Param(name string) string { return "@" + name }

func (mysqlDialect) Paginate(selectSQL string, skip, take int, orderBySQL string) string {
	return limitOffset(selectSQL, skip, take, orderBySQL)
}

func (mysqlDialect) BoolLiteral(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

func (mysqlDialect) EqualsIgnoreCase(left, right string) string {
	return fmt.Sprintf("(LOWER(%s) = LOWER(%s))", left, right)
}

func (mysqlDialect) Like(left, right string) string {
	return fmt.Sprintf("(%s LIKE %s%s)", left, right, mysqlEscapeClause)
}

func (mysqlDialect) LikeIgnoreCase(left, right string) string {
	return fmt.Sprintf("(LOWER(%s) LIKE LOWER(%s)%s)", left, right, mysqlEscapeClause)
}

func (mysqlDialect) Bind(st Statement) (string, []any) {
	return rebindPositional(st, '@')
}

type sqliteDialect struct{}

// SQLite renders @name placeholders rebound to ? so both mattn/go-sqlite3
// and modernc.org/sqlite accept them.
var SQLite Dialect = sqliteDialect{}

func (sqliteDialect) Name() string             { return "sqlite" }
func (sqliteDialect) Param(name string) string { return "@" + name }

func (sqliteDialect) Paginate(selectSQL string, skip, take int, orderBySQL string) string {
	return limitOffset(selectSQL, skip, take, orderBySQL)
}

func (sqliteDialect) BoolLiteral(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func (sqliteDialect) EqualsIgnoreCase(left, right string) string {
	return fmt.Sprintf("(%s = %s COLLATE NOCASE)", left, right)
}

func (sqliteDialect) Like(left, right string) string {
	return fmt.Sprintf("(%s LIKE %s%s)", left, right, escapeClause)
}

// LIKE is already case-insensitive for ASCII in SQLite.
func (sqliteDialect) LikeIgnoreCase(left, right string) string {
	return fmt.Sprintf("(%s LIKE %s%s)", left, right, escapeClause)
}

func (sqliteDialect) Bind(st Statement) (string, []any) {
	return rebindPositional(st, '@')
}
