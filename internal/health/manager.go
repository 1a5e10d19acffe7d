package health

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Report is one named result.
type Report struct {
	Name   string  `json:"name" yaml:"name"`
	Result *Result `json:"result" yaml:"result"`
}

// Manager runs checks in parallel, each under its own timeout.
type Manager struct {
	checkers []Checker
	timeout  time.Duration
}

// NewManager creates a manager with a 5 second per-check timeout.
func NewManager(checkers ...Checker) *Manager {
	return &Manager{checkers: checkers, timeout: 5 * time.Second}
}

// WithTimeout sets the per-check timeout.
func (m *Manager) WithTimeout(timeout time.Duration) *Manager {
	m.timeout = timeout
	return m
}

// Add registers a checker.
func (m *Manager) Add(c Checker) {
	m.checkers = append(m.checkers, c)
}

// Check runs every checker and returns the reports in registration order.
func (m *Manager) Check(ctx context.Context) []Report {
	reports := make([]Report, len(m.checkers))

	var g errgroup.Group
	for i, c := range m.checkers {
		g.Go(func() error {
			checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
			defer cancel()

			start := time.Now()
			res := c.Check(checkCtx)
			if res == nil {
				res = Unhealthy("check returned no result")
			}
			if res.Latency == 0 {
				res.Latency = time.Since(start)
			}
			reports[i] = Report{Name: c.Name(), Result: res}
			return nil
		})
	}
	_ = g.Wait()
	return reports
}

// Overall is the worst status among reports; no reports is healthy.
func Overall(reports []Report) Status {
	worst := StatusHealthy
	for _, r := range reports {
		if r.Result.Status.rank() > worst.rank() {
			worst = r.Result.Status
		}
	}
	return worst
}
