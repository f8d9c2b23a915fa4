package commands

import (
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/pulseorm/cli/internal/config"
	"github.com/satishbabariya/pulseorm/cli/internal/ui"
	"github.com/satishbabariya/pulseorm/query/sqlgen"
)

var providers = []string{"postgres", "mysql", "sqlite", "sqlite-pure", "sqlserver", "oracle"}

const starterSchema = `# Entities read by pulse compile and pulse query.
- name: User
  columns:
    - {member: Id, type: int}
    - {member: Email, type: string}
    - {member: Name, type: string}
  relations:
    - {name: Posts, target: Post, many: true, foreign: AuthorId}
- name: Post
  columns:
    - {member: Id, type: int}
    - {member: AuthorId, type: int}
    - {member: Title, type: string}
    - {member: Published, type: bool}
`

// ask runs the prompts; replaced in tests.
var ask = survey.Ask

type initAnswers struct {
	Provider string `survey:"provider"`
	URL      string `survey:"url"`
	Schema   string `survey:"schema"`
}

// NewInitCommand creates the init command.
func NewInitCommand(g *globals) *cobra.Command {
	var (
		a     initAnswers
		yes   bool
		force bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a config file and a starter schema",
		Long: `Ask for the database provider, URL and schema file, then write
.pulse.yaml and, when missing, a starter schema file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := g.configPath
			if path == "" {
				path = config.FileName
			}
			if exists, _ := afero.Exists(config.AppFs, path); exists && !force {
				if yes {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
				overwrite := false
				if err := survey.AskOne(&survey.Confirm{Message: path + " exists. Overwrite?"}, &overwrite); err != nil {
					return err
				}
				if !overwrite {
					return nil
				}
			}

			if !yes {
				ui.Banner("pulse init", "Configure a database and a schema file")
				if err := ask(initQuestions(a), &a); err != nil {
					return err
				}
			}
			return writeProject(path, a)
		},
	}
	cmd.Flags().StringVar(&a.Provider, "provider", "postgres", "Database provider")
	cmd.Flags().StringVar(&a.URL, "url", "", "Database URL")
	cmd.Flags().StringVar(&a.Schema, "schema", "schema.yaml", "Schema file")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Use the flag values without prompting")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func initQuestions(defaults initAnswers) []*survey.Question {
	return []*survey.Question{
		{
			Name: "provider",
			Prompt: &survey.Select{
				Message: "Database provider:",
				Options: providers,
				Default: defaults.Provider,
			},
		},
		{
			Name:   "url",
			Prompt: &survey.Input{Message: "Database URL:", Default: defaults.URL, Help: "Leave empty to use DATABASE_URL"},
		},
		{
			Name:     "schema",
			Prompt:   &survey.Input{Message: "Schema file:", Default: defaults.Schema},
			Validate: survey.Required,
		},
	}
}

// writeProject saves the config and creates the schema file when missing.
func writeProject(path string, a initAnswers) error {
	if _, err := sqlgen.Lookup(a.Provider); err != nil {
		return err
	}
	if a.Schema == "" {
		return errors.New("schema file is required")
	}
	cfg := &config.Config{Provider: a.Provider, DatabaseURL: a.URL, SchemaPath: a.Schema}
	if err := config.SaveConfig(cfg, path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	ui.Success("Wrote %s", path)

	exists, err := afero.Exists(config.AppFs, a.Schema)
	if err != nil {
		return err
	}
	if exists {
		ui.Info("Keeping existing schema %s", a.Schema)
	} else {
		if err := afero.WriteFile(config.AppFs, a.Schema, []byte(starterSchema), 0644); err != nil {
			return fmt.Errorf("failed to create schema file: %w", err)
		}
		ui.Success("Created schema %s", a.Schema)
	}

	ui.Steps("Next steps:",
		"Describe your tables in "+a.Schema,
		"Run `pulse compile -e User` to see the SQL",
		"Run `pulse ping`, then `pulse query -e User`",
	)
	return nil
}
