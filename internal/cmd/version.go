package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/roster/internal/ux"
	"github.com/felixgeelhaar/roster/internal/version"
)

type versionView struct {
	info    version.Info
	verbose bool
}

func (v versionView) String() string {
	if v.verbose {
		return v.info.String()
	}
	return "roster " + v.info.Version
}

func (v versionView) Value() any { return v.info }

func newVersionCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print version information. With --detail the git commit, build date,
Go version and platform are included; --format json or yaml always prints
every field.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags, err := NewCommandContext(cmd)
			if err != nil {
				return fmt.Errorf("failed to create command context: %w", err)
			}
			f, err := ux.NewFormatter(flags.Format, &ux.FormatterOptions{Writer: cmd.OutOrStdout(), NoColor: flags.NoColor})
			if err != nil {
				return err
			}
			return f.Format(versionView{info: version.GetInfo(), verbose: verbose})
		},
	}
	cmd.Flags().BoolVar(&verbose, "detail", false, "show commit, build date and platform")
	return cmd
}
