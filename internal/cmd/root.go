package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = NewRootCmd()

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "roster",
		Short: "Employee directory client",
		Long: `roster manages employee records grouped by department against the
employee REST API. Use the subcommands for scripting or 'roster ui' for the
full-screen interface.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("home", "", "state directory for config, session and logs (default $ROSTER_HOME or ~/.roster)")
	flags.String("api-url", "", "employee API base URL (default $ROSTER_API_URL or config api.base_url)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.StringP("format", "o", "text", "output format: text, json, yaml")
	flags.Bool("no-color", false, "disable colored output")
	flags.BoolP("verbose", "v", false, "log debug output to stderr")
	flags.Bool("ephemeral", false, "keep the session in memory only")
	flags.Bool("no-input", false, "never prompt; fail when a value is missing")

	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newEmployeesCmd(),
		newDepartmentsCmd(),
		newConfigCmd(),
		newDoctorCmd(),
		newUICmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx, cancelled on interrupt
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
