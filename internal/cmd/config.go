package cmd

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/roster/internal/config"
	"github.com/felixgeelhaar/roster/internal/ux"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View or edit roster configuration",
		Long: `Manage the configuration stored at <home>/config.yaml.

Values are resolved in order: built-in defaults, the config file, a .env
file, ROSTER_* environment variables, then command-line flags.

Examples:
  # View the configuration file
  roster config view

  # View the values after environment overrides
  roster config view --effective

  # Get or set a value
  roster config get api.base_url
  roster config set list.page_size 25

  # Edit in $EDITOR
  roster config edit
`,
	}

	cmd.AddCommand(
		newConfigViewCmd(),
		newConfigPathCmd(),
		newConfigGetCmd(),
		newConfigSetCmd(),
		newConfigEditCmd(),
	)
	return cmd
}

// configHome resolves --home without building the full runtime; config
// commands must work while the config file is broken or the API is down.
func configHome(cmd *cobra.Command) (*CommandContext, string, error) {
	flags, err := NewCommandContext(cmd)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create command context: %w", err)
	}
	if flags.Home != "" {
		return flags, flags.Home, nil
	}
	home, err := config.DefaultHome()
	if err != nil {
		return nil, "", err
	}
	return flags, home, nil
}

// configView prints as YAML in text mode.
type configView struct {
	path string
	cfg  *config.Config
}

func (v configView) String() string {
	data, err := yaml.Marshal(v.cfg)
	if err != nil {
		return err.Error()
	}
	return fmt.Sprintf("# %s\n%s", v.path, data)
}

func (v configView) Value() any { return v.cfg }

func newConfigViewCmd() *cobra.Command {
	var effective bool

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Display the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags, home, err := configHome(cmd)
			if err != nil {
				return err
			}
			cfg, err := config.Load(home)
			if err != nil {
				return err
			}
			if effective {
				if err := config.LoadDotEnv(); err != nil {
					return err
				}
				if err := cfg.ApplyEnv(nil); err != nil {
					return err
				}
			}

			f, err := ux.NewFormatter(flags.Format, &ux.FormatterOptions{Writer: cmd.OutOrStdout(), NoColor: flags.NoColor})
			if err != nil {
				return err
			}
			return f.Format(configView{path: config.Path(home), cfg: cfg})
		},
	}
	cmd.Flags().BoolVar(&effective, "effective", false, "apply .env and ROSTER_* overrides")
	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, home, err := configHome(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), config.Path(home))
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one configuration value",
		Long:  "Print one configuration value by dotted key, e.g. api.base_url.",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return config.Keys(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, home, err := configHome(cmd)
			if err != nil {
				return err
			}
			cfg, err := config.Load(home)
			if err != nil {
				return err
			}
			value, err := cfg.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one configuration value",
		Args:  cobra.ExactArgs(2),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return config.Keys(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, home, err := configHome(cmd)
			if err != nil {
				return err
			}
			cfg, err := config.Load(home)
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := config.Save(home, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Set %s = %s\n", args[0], args[1])
			return nil
		},
	}
}

func newConfigEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Edit the configuration in $EDITOR",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, home, err := configHome(cmd)
			if err != nil {
				return err
			}

			// Write the defaults first so the editor opens a complete file
			path := config.Path(home)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				if err := config.Save(home, config.Default()); err != nil {
					return err
				}
			}

			editor := os.Getenv("EDITOR")
			if editor == "" {
				editor = "vi"
			}

			editorCmd := exec.Command(editor, path)
			editorCmd.Stdin = os.Stdin
			editorCmd.Stdout = os.Stdout
			editorCmd.Stderr = os.Stderr
			if err := editorCmd.Run(); err != nil {
				return fmt.Errorf("failed to run editor: %w", err)
			}

			if _, err := config.Load(home); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: configuration may contain errors: %v\n", err)
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration updated successfully")
			return nil
		},
	}
}
