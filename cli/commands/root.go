// Package commands implements the pulse command line.
package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/pulseorm/cli/internal/config"
	"github.com/satishbabariya/pulseorm/cli/internal/version"
	"github.com/satishbabariya/pulseorm/internal/debug"
)

// globals are the persistent flags of the root command.
type globals struct {
	configPath string
	debug      bool
}

// load reads the configuration and applies --debug.
func (g *globals) load() (*config.Config, error) {
	cfg, err := config.LoadConfig(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.debug {
		cfg.Debug = true
	}
	debug.Init(cfg.Debug)
	return cfg, nil
}

// NewRootCommand creates the pulse command tree.
func NewRootCommand() *cobra.Command {
	g := &globals{}
	cmd := &cobra.Command{
		Use:   "pulse",
		Short: "Compile and run typed queries from a schema file",
		Long: `pulse compiles entity queries into dialect SQL and runs them.

Entities are described in a YAML schema file; filters use a small
expression language:

  pulse compile -e customers -w 'name.startsWith("A") && age >= 18' --page 1 --size 20
  pulse query -e orders -i Buyer -o -total`,
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&g.configPath, "config", "", "Config file (default .pulse.yaml)")
	cmd.PersistentFlags().BoolVar(&g.debug, "debug", false, "Log every statement")

	cmd.AddCommand(NewInitCommand(g))
	cmd.AddCommand(NewCompileCommand(g))
	cmd.AddCommand(NewQueryCommand(g))
	cmd.AddCommand(NewPingCommand(g))
	cmd.AddCommand(NewVersionCommand())
	return cmd
}

// Execute runs the command line.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
