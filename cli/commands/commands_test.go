package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/pulseorm/cli/internal/config"
	"github.com/satishbabariya/pulseorm/cli/internal/schemafile"
	"github.com/satishbabariya/pulseorm/cli/internal/ui"
	"github.com/satishbabariya/pulseorm/query/ast"
	"github.com/satishbabariya/pulseorm/query/compiler"
	"github.com/satishbabariya/pulseorm/query/sqlgen"
	"github.com/satishbabariya/pulseorm/runtime/client"
	"github.com/satishbabariya/pulseorm/schema"
)

const shopSchema = `
- name: Customer
  columns:
    - {member: Id, type: int}
    - {member: FullName, type: string}
    - {member: Age, type: int}
  relations:
    - {target: Order, many: true, foreign: CustomerId}
- name: Order
  columns:
    - {member: Id, type: int}
    - {member: CustomerId, type: int}
    - {member: Total, type: float}
`

func memFs(t *testing.T) afero.Fs {
	t.Helper()
	prev := config.AppFs
	config.AppFs = afero.NewMemMapFs()
	t.Cleanup(func() { config.AppFs = prev })
	for _, k := range []string{"DATABASE_URL", "PULSE_PROVIDER", "PULSE_DATABASE_URL", "PULSE_SCHEMA_PATH", "PULSE_BATCH_SIZE", "PULSE_DEBUG"} {
		t.Setenv(k, "")
	}

	require.NoError(t, afero.WriteFile(config.AppFs, "/proj/schema.yaml", []byte(shopSchema), 0o644))
	require.NoError(t, afero.WriteFile(config.AppFs, "/proj/pulse.yaml",
		[]byte("provider: postgres\nschema_path: /proj/schema.yaml\n"), 0o644))
	return config.AppFs
}

func testConfig() *config.Config {
	return &config.Config{Provider: "postgres", SchemaPath: "/proj/schema.yaml"}
}

func TestBuildPlan(t *testing.T) {
	memFs(t)

	p, err := buildPlan(testConfig(), &queryFlags{
		entity:  "customers",
		where:   `full_name.startsWith("A") && age >= 18`,
		order:   []string{"-FullName", "age"},
		selects: []string{"age"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Customer", p.entity.Name)
	assert.Equal(t, "postgres", p.dialect.Name())
	assert.Equal(t, ast.And{
		Left: ast.Call{Target: ast.Column{Member: "FullName"}, Method: "StartsWith", Args: []ast.Expr{ast.Literal{Value: "A"}}},
		Right: ast.Compare{Op: ast.OpGe, Left: ast.Column{Member: "Age"}, Right: ast.Literal{Value: int64(18)}},
	}, p.query.Where)
	assert.Equal(t, []compiler.Order{compiler.Desc("FullName"), compiler.Asc("Age")}, p.query.Order)
	assert.Equal(t, []string{"Age"}, p.query.Members)
	assert.Empty(t, p.rels)

	p, err = buildPlan(testConfig(), &queryFlags{entity: "Customer", order: []string{"id"}, desc: true, include: []string{"orders"}, provider: "mysql"})
	require.NoError(t, err)
	assert.Equal(t, "mysql", p.dialect.Name())
	assert.Equal(t, []compiler.Order{compiler.Desc("Id")}, p.query.Order)
	require.Len(t, p.rels, 1)
	assert.Equal(t, "Orders", p.rels[0].Name())
}

func TestBuildPlanErrors(t *testing.T) {
	memFs(t)

	for name, f := range map[string]*queryFlags{
		"entity":   {entity: "Invoice"},
		"where":    {entity: "Customer", where: "age >"},
		"member":   {entity: "Customer", where: "height > 2"},
		"order":    {entity: "Customer", order: []string{"-height"}},
		"select":   {entity: "Customer", selects: []string{"height"}},
		"include":  {entity: "Customer", include: []string{"Invoices"}},
		"provider": {entity: "Customer", provider: "db2"},
		"schema":   {entity: "Customer", schemaPath: "/missing.yaml"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := buildPlan(testConfig(), f)
			assert.Error(t, err)
		})
	}
}

func TestStatements(t *testing.T) {
	memFs(t)

	tests := []struct {
		name   string
		flags  queryFlags
		titles []string
		sql    []string
		args   [][]any
	}{
		{
			name:   "root",
			flags:  queryFlags{entity: "Customer", where: "age >= 18", order: []string{"-full_name"}},
			titles: []string{"select"},
			sql:    []string{"SELECT r.id, r.full_name, r.age FROM customers r WHERE (r.age >= $1) ORDER BY r.full_name DESC"},
			args:   [][]any{{int64(18)}},
		},
		{
			name:   "root paged",
			flags:  queryFlags{entity: "Customer", page: 2, size: 10},
			titles: []string{"page", "count"},
			sql: []string{
				"SELECT r.id, r.full_name, r.age FROM customers r WHERE 1=1 ORDER BY r.id ASC LIMIT 10 OFFSET 10",
				"SELECT COUNT(*) FROM customers r WHERE 1=1",
			},
			args: [][]any{{}, {}},
		},
		{
			name:   "joined",
			flags:  queryFlags{entity: "Customer", include: []string{"Orders"}},
			titles: []string{"joined"},
			sql: []string{
				"SELECT r.id AS r__id, r.full_name AS r__full_name, r.age AS r__age, " +
					"j0.id AS j0__id, j0.customer_id AS j0__customer_id, j0.total AS j0__total " +
					"FROM customers r LEFT JOIN orders j0 ON r.id = j0.customer_id WHERE 1=1 ORDER BY r.id ASC, j0.id ASC",
			},
			args: [][]any{{}},
		},
		{
			name:   "joined paged",
			flags:  queryFlags{entity: "Customer", include: []string{"Orders"}, page: 1, size: 5},
			titles: []string{"key page", "count"},
			sql: []string{
				"SELECT r.id FROM customers r WHERE 1=1 ORDER BY r.id ASC LIMIT 5 OFFSET 0",
				"SELECT COUNT(*) FROM customers r WHERE 1=1",
			},
			args: [][]any{{}, {}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := buildPlan(testConfig(), &tt.flags)
			require.NoError(t, err)
			stmts, err := p.statements()
			require.NoError(t, err)
			require.Len(t, stmts, len(tt.sql))
			for i, c := range stmts {
				assert.Equal(t, tt.titles[i], c.Title)
				assert.Equal(t, tt.sql[i], c.SQL)
				assert.ElementsMatch(t, tt.args[i], c.Args)
			}
		})
	}

	p, err := buildPlan(testConfig(), &queryFlags{entity: "Customer", page: 0, size: 10})
	require.NoError(t, err)
	_, err = p.statements()
	assert.Error(t, err)
}

func TestArgLabel(t *testing.T) {
	name, v := argLabel(sqlgen.Postgres, 0, int64(3))
	assert.Equal(t, "$1", name)
	assert.Equal(t, int64(3), v)

	name, _ = argLabel(sqlgen.MySQL, 1, "x")
	assert.Equal(t, "?2", name)

	_, args := sqlgen.SQLServer.Bind(sqlgen.Statement{SQL: "x = @p0", Params: sqlgen.NewParams(sqlgen.Param{Name: "p0", Value: 5})})
	name, v = argLabel(sqlgen.SQLServer, 0, args[0])
	assert.Equal(t, "@p0", name)
	assert.Equal(t, 5, v)
}

func TestWriteSQLAndMarkdown(t *testing.T) {
	memFs(t)

	p, err := buildPlan(testConfig(), &queryFlags{entity: "Customer", where: `full_name == "Ada"`, include: []string{"Orders"}, page: 1, size: 2})
	require.NoError(t, err)
	stmts, err := p.statements()
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, writeSQL(&out, p, stmts))
	assert.Equal(t,
		"-- key page\nSELECT r.id FROM customers r WHERE (r.full_name = $1) ORDER BY r.id ASC LIMIT 2 OFFSET 0;\n"+
			"-- $1 = \"Ada\"\n"+
			"-- count\nSELECT COUNT(*) FROM customers r WHERE (r.full_name = $1);\n"+
			"-- $1 = \"Ada\"\n"+
			"-- then: Customer by page keys, then Orders by root member\n",
		out.String())

	md := renderMarkdown(p, stmts)
	assert.Contains(t, md, "# Customer (`customers`)")
	assert.Contains(t, md, "Dialect: **postgres**, page 1 of size 2")
	assert.Contains(t, md, "## count\n\n```sql\nSELECT COUNT(*) FROM customers r WHERE (r.full_name = $1)\n```")
	assert.Contains(t, md, "| `$1` | `\"Ada\"` |")
}

func TestCell(t *testing.T) {
	assert.Equal(t, "NULL", cell(nil))
	assert.Equal(t, "Ada", cell("Ada"))
	assert.Equal(t, "0x0aff", cell([]byte{0x0a, 0xff}))
	assert.Equal(t, "42", cell(int64(42)))
	assert.Equal(t, "1 row", cell([]schema.Record{{}}))
	assert.Equal(t, "0 rows", cell([]schema.Record{}))
	assert.Equal(t, "{Id=7 Name=NULL}", cell(schema.Record{"Name": nil, "Id": int64(7)}))
}

func TestReadSQLite(t *testing.T) {
	memFs(t)
	ctx := context.Background()

	c, err := client.Open("sqlite-pure", filepath.Join(t.TempDir(), "shop.db"))
	require.NoError(t, err)
	defer c.Close()
	for _, stmt := range []string{
		"CREATE TABLE customers (id INTEGER PRIMARY KEY, full_name TEXT, age INTEGER)",
		"CREATE TABLE orders (id INTEGER PRIMARY KEY, customer_id INTEGER, total REAL)",
		"INSERT INTO customers VALUES (1, 'Ada', 36), (2, 'Bob', 17), (3, 'Cy', 52)",
		"INSERT INTO orders VALUES (10, 1, 5.5), (11, 3, 2), (12, 3, 4)",
	} {
		_, err := c.DB().Exec(stmt)
		require.NoError(t, err)
	}
	cfg := &config.Config{Provider: "sqlite-pure", SchemaPath: "/proj/schema.yaml"}

	p, err := buildPlan(cfg, &queryFlags{entity: "Customer", where: "age >= 18", order: []string{"-age"}, selects: []string{"FullName"}})
	require.NoError(t, err)
	rows, total, err := read(ctx, c, p)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	headers, cells := table(p, rows)
	assert.Equal(t, []string{"Id", "FullName", "Age"}, headers)
	assert.Equal(t, [][]string{{"3", "Cy", "52"}, {"1", "Ada", "36"}}, cells)

	p, err = buildPlan(cfg, &queryFlags{entity: "Customer", page: 2, size: 2})
	require.NoError(t, err)
	rows, total, err = read(ctx, c, p)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, rows, 1)
	assert.Equal(t, "Cy", rows[0]["FullName"])

	for _, paged := range []bool{false, true} {
		f := &queryFlags{entity: "Customer", include: []string{"Orders"}, order: []string{"full_name"}}
		if paged {
			f.page, f.size = 1, 10
		}
		p, err = buildPlan(cfg, f)
		require.NoError(t, err)
		rows, total, err = read(ctx, c, p)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		headers, cells = table(p, rows)
		assert.Equal(t, []string{"Id", "FullName", "Age", "Orders"}, headers)
		assert.Equal(t, [][]string{
			{"1", "Ada", "36", "1 row"},
			{"2", "Bob", "17", "0 rows"},
			{"3", "Cy", "52", "2 rows"},
		}, cells)
	}
}

func TestCompileTextFormat(t *testing.T) {
	memFs(t)
	var out bytes.Buffer
	prev := ui.Out
	ui.Out = &out
	t.Cleanup(func() { ui.Out = prev })

	root := NewRootCommand()
	root.SetArgs([]string{"--config", "/proj/pulse.yaml", "compile", "-e", "Customer", "-i", "Orders",
		"-w", "age > 30", "--page", "1", "--size", "5"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	text := out.String()
	assert.Contains(t, text, "-- key page")
	assert.Contains(t, text, "-- count")
	assert.Contains(t, text, "$1 = 30")
	assert.Contains(t, text, "then: Customer by page keys, then Orders by root member")
}

func TestOpenClientNeedsURL(t *testing.T) {
	_, err := openClient(&config.Config{Provider: "postgres"}, "postgres")
	assert.ErrorContains(t, err, "no database URL")
}

func TestCompileCommand(t *testing.T) {
	memFs(t)

	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"--config", "/proj/pulse.yaml", "compile", "-e", "customers", "-w", "age > 30", "--format", "sql"})
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Equal(t,
		"-- select\nSELECT r.id, r.full_name, r.age FROM customers r WHERE (r.age > $1) ORDER BY r.id ASC;\n-- $1 = 30\n",
		out.String())

	root = NewRootCommand()
	root.SetArgs([]string{"--config", "/proj/pulse.yaml", "compile", "-e", "customers", "--format", "yaml"})
	assert.ErrorContains(t, root.Execute(), `unknown format "yaml"`)
}

func TestInitCommand(t *testing.T) {
	fs := memFs(t)

	run := func(args ...string) error {
		root := NewRootCommand()
		root.SetArgs(append([]string{"--config", "/new/.pulse.yaml", "init"}, args...))
		return root.Execute()
	}
	require.NoError(t, run("--yes", "--provider", "mysql", "--url", "user@/shop", "--schema", "/new/schema.yaml"))

	cfg, err := config.LoadConfig("/new/.pulse.yaml")
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Provider)
	assert.Equal(t, "user@/shop", cfg.DatabaseURL)
	assert.Equal(t, "/new/schema.yaml", cfg.SchemaPath)

	f, err := schemafile.Load(fs, "/new/schema.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"User", "Post"}, f.Names())

	assert.ErrorContains(t, run("--yes"), "already exists")
	require.NoError(t, run("--yes", "--force", "--provider", "sqlite", "--schema", "/new/schema.yaml"))
	assert.ErrorContains(t, run("--yes", "--force", "--provider", "db2"), "unsupported provider")
}

func TestInitPrompts(t *testing.T) {
	memFs(t)
	prev := ask
	t.Cleanup(func() { ask = prev })
	ask = func(qs []*survey.Question, response interface{}, opts ...survey.AskOpt) error {
		a := response.(*initAnswers)
		assert.Len(t, qs, 3)
		a.Provider, a.URL, a.Schema = "sqlite", "file:app.db", "/p/schema.yaml"
		return nil
	}

	root := NewRootCommand()
	root.SetArgs([]string{"--config", "/p/.pulse.yaml", "init"})
	require.NoError(t, root.Execute())

	cfg, err := config.LoadConfig("/p/.pulse.yaml")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Provider)
	assert.Equal(t, "file:app.db", cfg.DatabaseURL)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "Go Version:")
}
