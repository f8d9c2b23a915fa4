package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/pulseorm/cli/internal/compat"
	"github.com/satishbabariya/pulseorm/cli/internal/ui"
	"github.com/satishbabariya/pulseorm/runtime/client"
)

// NewPingCommand creates the ping command.
func NewPingCommand(g *globals) *cobra.Command {
	var (
		provider string
		timeout  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check the database connection and server version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if provider == "" {
				provider = cfg.Provider
			}
			c, err := openClient(cfg, provider)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			start := time.Now()
			if err := c.Ping(ctx); err != nil {
				return fmt.Errorf("failed to connect: %w", err)
			}
			ui.Success("Connected to %s in %s", c.Provider(), time.Since(start).Round(time.Millisecond))

			res, err := serverCheck(ctx, c)
			if err != nil {
				return err
			}
			if err := ui.Table([]string{"Dialect", "Server", "Pagination", "Requires"}, [][]string{
				{res.Dialect, res.Server.String(), res.Syntax, res.Constraint},
			}); err != nil {
				return err
			}
			if !res.OK {
				ui.Warning("Server %s does not support %s paging (%s)", res.Server, res.Syntax, res.Constraint)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "Database provider (default from config)")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Connection timeout")
	return cmd
}

// serverCheck reads the server version banner and checks it against the
// dialect's paging syntax.
func serverCheck(ctx context.Context, c *client.Client) (compat.Result, error) {
	req, err := compat.For(c.Dialect().Name())
	if err != nil {
		return compat.Result{}, err
	}
	banners, err := client.Scalars[string](ctx, c, req.Query)
	if err != nil {
		return compat.Result{}, fmt.Errorf("failed to read server version: %w", err)
	}
	if len(banners) == 0 {
		return compat.Result{}, fmt.Errorf("server returned no version")
	}
	return compat.Check(req.Dialect, banners[0])
}
