package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/roster/internal/telemetry"
	"github.com/felixgeelhaar/roster/internal/tui"
)

func newUICmd() *cobra.Command {
	var start string

	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Open the full-screen employee manager",
		Long: `Open the full-screen interface: a navigation bar, the login screen and
the paginated employee list with search, department filter, add/edit form,
delete confirmation and CSV/XLSX export.

Logs go to <home>/logs/roster.log while the interface owns the terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			route := tui.Route(start)
			switch route {
			case tui.RouteLogin, tui.RouteRegister, tui.RouteEmployees:
			default:
				return fmt.Errorf("invalid argument %q for \"--start\" flag: want %s, %s or %s",
					start, tui.RouteLogin, tui.RouteRegister, tui.RouteEmployees)
			}

			rt, err := newRuntime(cmd, runtimeOptions{logToFile: true})
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, span := telemetry.StartCommandSpan(cmd.Context(), "ui")
			defer span.End()

			rt.logger.Info("starting ui", "start", start, "api", rt.cfg.API.BaseURL)
			err = tui.Run(ctx, tui.Config{
				Session:   rt.session,
				Client:    rt.client,
				PageSize:  rt.cfg.List.PageSize,
				ExportDir: rt.cfg.Export.Dir,
				Logger:    rt.logger,
				Metrics:   rt.metrics,
				Start:     route,
				Now:       time.Now,
			})
			if err != nil {
				telemetry.RecordError(span, err)
				rt.logger.WithError(err).Error("ui exited with error")
			}
			return err
		},
	}
	cmd.Flags().StringVar(&start, "start", string(tui.RouteEmployees), "first screen: /login, /register or /employees")
	return cmd
}
