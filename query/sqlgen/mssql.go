package sqlgen

import (
	"database/sql"
	"fmt"
)

type sqlServerDialect struct{}

// SQLServer uses @name placeholders bound with sql.Named, OFFSET/FETCH
// paging (SQL Server 2012+), 1/0 booleans and UPPER() equality.
var SQLServer Dialect = sqlServerDialect{}

func (sqlServerDialect) Name() string             { return "sqlserver" }
func (sqlServerDialect) Param(name string) string { return "@" + name }

func (sqlServerDialect) Paginate(selectSQL string, skip, take int, orderBySQL string) string {
	return offsetFetch(selectSQL, skip, take, orderBySQL)
}

func (sqlServerDialect) BoolLiteral(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func (sqlServerDialect) EqualsIgnoreCase(left, right string) string {
	return fmt.Sprintf("(UPPER(%s) = UPPER(%s))", left, right)
}

func (sqlServerDialect) Like(left, right string) string {
	return fmt.Sprintf("(%s LIKE %s%s)", left, right, escapeClause)
}

// Default SQL Server collations compare case-insensitively.
func (sqlServerDialect) LikeIgnoreCase(left, right string) string {
	return fmt.Sprintf("(%s LIKE %s%s)", left, right, escapeClause)
}

func (sqlServerDialect) Bind(st Statement) (string, []any) {
	return st.SQL, namedArgs(st.Params)
}

type oracleDialect struct{}

// Oracle is SQLServer's twin with :name placeholders (Oracle 12c+ for
// OFFSET/FETCH).
var Oracle Dialect = oracleDialect{}

func (oracleDialect) Name() string             { return "oracle" }
func (oracleDialect) Param(name string) string { return ":" + name }

func (oracleDialect) Paginate(selectSQL string, skip, take int, orderBySQL string) string {
	return offsetFetch(selectSQL, skip, take, orderBySQL)
}

func (oracleDialect) BoolLiteral(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func (oracleDialect) EqualsIgnoreCase(left, right string) string {
	return fmt.Sprintf("(UPPER(%s) = UPPER(%s))", left, right)
}

func (oracleDialect) Like(left, right string) string {
	return fmt.Sprintf("(%s LIKE %s%s)", left, right, escapeClause)
}

func (oracleDialect) LikeIgnoreCase(left, right string) string {
	return fmt.Sprintf("(UPPER(%s) LIKE UPPER(%s)%s)", left, right, escapeClause)
}

func (oracleDialect) Bind(st Statement) (string, []any) {
	return st.SQL, namedArgs(st.Params)
}

func namedArgs(p Params) []any {
	args := make([]any, 0, p.Len())
	for _, prm := range p.All() {
		args = append(args, sql.Named(prm.Name, prm.Value))
	}
	return args
}
