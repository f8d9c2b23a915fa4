package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/pulseorm/cli/internal/config"
	"github.com/satishbabariya/pulseorm/cli/internal/ui"
	"github.com/satishbabariya/pulseorm/cli/internal/watch"
)

// NewCompileCommand creates the compile command.
func NewCompileCommand(g *globals) *cobra.Command {
	f := &queryFlags{}
	var (
		format    string
		watchMode bool
	)
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Print the SQL and parameters of a read",
		Long: `Compile a read against the schema file and print the statements it
starts with, in the driver's placeholder syntax, with their parameters.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !watchMode {
				return compileOnce(out, cfg, f, format)
			}

			path := f.schemaPath
			if path == "" {
				path = cfg.SchemaPath
			}
			w, err := watch.NewWatcher([]string{path}, func() error {
				if err := compileOnce(out, cfg, f, format); err != nil {
					ui.Error("%v", err)
				}
				return nil
			}, func(err error) { ui.Error("%v", err) })
			if err != nil {
				return err
			}
			ui.Info("Watching %s for changes (Ctrl+C to stop)", path)
			return w.Run(cmd.Context())
		},
	}
	f.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, markdown or sql")
	cmd.Flags().BoolVar(&watchMode, "watch", false, "Recompile whenever the schema file changes")
	return cmd
}

func compileOnce(out io.Writer, cfg *config.Config, f *queryFlags, format string) error {
	p, err := buildPlan(cfg, f)
	if err != nil {
		return err
	}
	stmts, err := p.statements()
	if err != nil {
		return err
	}

	switch format {
	case "sql":
		return writeSQL(out, p, stmts)
	case "markdown", "md":
		return ui.Markdown(renderMarkdown(p, stmts))
	case "text", "":
		ui.Heading(fmt.Sprintf("%s on %s", p.entity.Name, p.dialect.Name()))
		for _, c := range stmts {
			ui.Statement(c.Title, c.SQL, labeled(p, c))
		}
		if note := followUps(p); note != "" {
			ui.Info("%s", note)
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// labeled names the arguments of c the way the driver sees them.
func labeled(p *plan, c compiled) []ui.Param {
	params := make([]ui.Param, len(c.Args))
	for i, a := range c.Args {
		params[i].Name, params[i].Value = argLabel(p.dialect, i, a)
	}
	return params
}

// followUps describes the statements of a paged joined read that depend on
// the keys of the page.
func followUps(p *plan) string {
	if len(p.rels) == 0 || !p.paged() {
		return ""
	}
	names := make([]string, len(p.rels))
	for i, r := range p.rels {
		names[i] = r.Name()
	}
	return fmt.Sprintf("then: %s by page keys, then %s by root member", p.entity.Name, strings.Join(names, ", "))
}

// writeSQL prints each statement followed by its arguments as a comment.
func writeSQL(out io.Writer, p *plan, stmts []compiled) error {
	for _, c := range stmts {
		if _, err := fmt.Fprintf(out, "-- %s\n%s;\n", c.Title, c.SQL); err != nil {
			return err
		}
		for i, a := range c.Args {
			name, v := argLabel(p.dialect, i, a)
			if _, err := fmt.Fprintf(out, "-- %s = %#v\n", name, v); err != nil {
				return err
			}
		}
	}
	if note := followUps(p); note != "" {
		_, err := fmt.Fprintf(out, "-- %s\n", note)
		return err
	}
	return nil
}

func renderMarkdown(p *plan, stmts []compiled) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s (`%s`)\n\n", p.entity.Name, p.entity.Table)
	fmt.Fprintf(&b, "Dialect: **%s**", p.dialect.Name())
	if p.paged() {
		fmt.Fprintf(&b, ", page %d of size %d", p.page, p.size)
	}
	b.WriteString("\n\n")

	for _, c := range stmts {
		fmt.Fprintf(&b, "## %s\n\n```sql\n%s\n```\n\n", c.Title, c.SQL)
		if len(c.Args) == 0 {
			continue
		}
		b.WriteString("| Parameter | Value |\n|---|---|\n")
		for i, a := range c.Args {
			name, v := argLabel(p.dialect, i, a)
			fmt.Fprintf(&b, "| `%s` | `%#v` |\n", name, v)
		}
		b.WriteString("\n")
	}
	if note := followUps(p); note != "" {
		fmt.Fprintf(&b, "_%s_\n", note)
	}
	return b.String()
}
