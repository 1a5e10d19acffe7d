package cmd

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/roster/internal/health"
)

// doctorReport is the doctor output: a table in text mode.
type doctorReport struct {
	Overall health.Status   `json:"overall" yaml:"overall"`
	Checks  []health.Report `json:"checks" yaml:"checks"`
}

func (r doctorReport) Headers() []string { return []string{"Check", "Status", "Message", "Latency"} }

func (r doctorReport) Rows() [][]string {
	rows := make([][]string, 0, len(r.Checks))
	for _, c := range r.Checks {
		msg := c.Result.Message
		if len(c.Result.Details) > 0 {
			keys := make([]string, 0, len(c.Result.Details))
			for k := range c.Result.Details {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			parts := make([]string, 0, len(keys))
			for _, k := range keys {
				parts = append(parts, k+"="+c.Result.Details[k])
			}
			msg += " (" + strings.Join(parts, ", ") + ")"
		}
		rows = append(rows, []string{c.Name, c.Result.Status.String(), msg, c.Result.Latency.Round(time.Millisecond).String()})
	}
	return rows
}

func (r doctorReport) Footer() string { return "Overall: " + r.Overall.String() }

func newDoctorCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the API, the session and the export directory",
		Long: `Run every health check in parallel and print one row per check.
The command fails only when a check is unhealthy; a missing or refused
session is reported as degraded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, runtimeOptions{})
			if err != nil {
				return err
			}
			defer rt.Close()

			m := health.NewManager(
				health.APIChecker{BaseURL: rt.cfg.API.BaseURL, Probe: func(ctx context.Context) error {
					_, err := rt.client.ListDepartments(ctx)
					return err
				}},
				health.SessionChecker{Session: rt.session},
				health.DirChecker{Label: "export-dir", Dir: rt.cfg.Export.Dir},
				health.DirChecker{Label: "log-dir", Dir: filepath.Join(rt.home, "logs")},
			).WithTimeout(timeout)

			reports := m.Check(cmd.Context())
			report := doctorReport{Overall: health.Overall(reports), Checks: reports}
			for _, r := range reports {
				rt.logger.Debug("health check", "name", r.Name, "status", r.Result.Status.String(), "latency", r.Result.Latency)
			}
			if err := rt.print(report); err != nil {
				return err
			}
			if report.Overall == health.StatusUnhealthy {
				return errors.New("one or more checks are unhealthy")
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "per-check timeout")
	return cmd
}
