package commands

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/pulseorm/cli/internal/config"
	"github.com/satishbabariya/pulseorm/cli/internal/schemafile"
	"github.com/satishbabariya/pulseorm/cli/internal/ui"
	"github.com/satishbabariya/pulseorm/query/executor"
	"github.com/satishbabariya/pulseorm/runtime/client"
	"github.com/satishbabariya/pulseorm/schema"
)

// NewQueryCommand creates the query command.
func NewQueryCommand(g *globals) *cobra.Command {
	f := &queryFlags{}
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a read against the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			p, err := buildPlan(cfg, f)
			if err != nil {
				return err
			}
			c, err := openClient(cfg, p.provider)
			if err != nil {
				return err
			}
			defer c.Close()

			rows, total, err := read(cmd.Context(), c, p)
			if err != nil {
				return err
			}
			headers, cells := table(p, rows)
			if len(cells) > 0 {
				if err := ui.Table(headers, cells); err != nil {
					return err
				}
			}
			if p.paged() {
				ui.Info("%d of %d %s (page %d)", len(rows), total, p.entity.Table, p.page)
			} else {
				ui.Info("%d %s", len(rows), p.entity.Table)
			}
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

// openClient connects with the configured URL and batch size. Slow
// operations are always reported; statements are logged with --debug.
func openClient(cfg *config.Config, provider string) (*client.Client, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("no database URL: set database_url in the config file, PULSE_DATABASE_URL or DATABASE_URL")
	}
	opts := []client.Option{client.WithMiddleware(client.SlowOperationMiddleware(time.Second))}
	if cfg.BatchSize > 0 {
		opts = append(opts, client.WithBatchSize(cfg.BatchSize))
	}
	if cfg.Debug {
		opts = append(opts, client.WithDebug(), client.WithMiddleware(client.LoggingMiddleware()))
	}
	return client.Open(provider, cfg.DatabaseURL, opts...)
}

// read runs the plan and returns the records and the number of matching
// roots.
func read(ctx context.Context, c *client.Client, p *plan) ([]schema.Record, int64, error) {
	desc := p.entity.Descriptor()
	if len(p.rels) > 0 {
		j := client.JoinedDescriptor(c, desc).
			Include(p.rels...).
			WhereExpr(p.query.Where).
			SelectRoot(p.query.Members...)
		for _, o := range p.query.Order {
			if o.Desc {
				j.Desc(o.Member)
			} else {
				j.OrderBy(o.Member)
			}
		}
		if p.paged() {
			j.Page(p.page, p.size)
		}
		return j.List(ctx)
	}

	q := client.FromDescriptor(c, desc).WhereExpr(p.query.Where).Select(p.query.Members...)
	for _, o := range p.query.Order {
		if o.Desc {
			q.Desc(o.Member)
		} else {
			q.OrderBy(o.Member)
		}
	}
	if p.paged() {
		page, err := q.Page(ctx, p.page, p.size)
		return page.Items, page.Total, err
	}
	rows, err := q.List(ctx)
	return rows, int64(len(rows)), err
}

// table lays records out as rows of cells. Columns that were not read are
// left out; every included relation gets one column.
func table(p *plan, rows []schema.Record) ([]string, [][]string) {
	var members []string
	for _, c := range p.entity.Descriptor().Columns() {
		if len(p.query.Members) > 0 && !anyHas(rows, c.Member()) {
			continue
		}
		members = append(members, c.Member())
	}
	headers := append([]string(nil), members...)
	for _, r := range p.rels {
		headers = append(headers, r.Name())
	}

	cells := make([][]string, len(rows))
	for i, r := range rows {
		plain := schemafile.Plain(r)
		line := make([]string, 0, len(headers))
		for _, m := range members {
			line = append(line, cell(plain[m]))
		}
		for _, rel := range p.rels {
			v := plain[rel.Name()]
			if v == nil && rel.Cardinality() == executor.Many {
				v = []schema.Record{}
			}
			line = append(line, cell(v))
		}
		cells[i] = line
	}
	return headers, cells
}

func anyHas(rows []schema.Record, member string) bool {
	for _, r := range rows {
		if _, ok := r[member]; ok {
			return true
		}
	}
	return false
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return x
	case []byte:
		return "0x" + hex.EncodeToString(x)
	case time.Time:
		return x.Format(time.RFC3339)
	case apd.Decimal:
		return x.String()
	case []schema.Record:
		if len(x) == 1 {
			return "1 row"
		}
		return fmt.Sprintf("%d rows", len(x))
	case schema.Record:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + cell(x[k])
		}
		return "{" + strings.Join(parts, " ") + "}"
	default:
		return fmt.Sprint(x)
	}
}
