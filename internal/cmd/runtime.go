package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/roster/internal/api"
	"github.com/felixgeelhaar/roster/internal/config"
	rerrors "github.com/felixgeelhaar/roster/internal/errors"
	"github.com/felixgeelhaar/roster/internal/log"
	"github.com/felixgeelhaar/roster/internal/metrics"
	"github.com/felixgeelhaar/roster/internal/session"
	"github.com/felixgeelhaar/roster/internal/telemetry"
	"github.com/felixgeelhaar/roster/internal/tui"
	"github.com/felixgeelhaar/roster/internal/ux"
	"github.com/felixgeelhaar/roster/internal/version"
)

const sessionFile = "session.json"

// runtime is the wiring shared by every command: configuration, logger,
// session, API client and observability.
type runtime struct {
	flags    *CommandContext
	home     string
	cfg      *config.Config
	logger   *log.Logger
	storage  session.Storage
	session  *session.Session
	client   *api.Client
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	out      io.Writer
	in       io.Reader

	cleanups []func()
}

type runtimeOptions struct {
	// logToFile sends logs to <home>/logs/roster.log while the TUI owns the terminal
	logToFile bool
}

func newRuntime(cmd *cobra.Command, opts runtimeOptions) (*runtime, error) {
	flags, err := NewCommandContext(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to create command context: %w", err)
	}

	home := flags.Home
	if home == "" {
		if home, err = config.DefaultHome(); err != nil {
			return nil, err
		}
	}

	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, err := config.Load(home)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, err
	}
	if flags.apiURLSet {
		if err := cfg.Set("api.base_url", flags.APIURL); err != nil {
			return nil, err
		}
	}
	if flags.logLevelSet {
		cfg.Logging.Level = flags.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rt := &runtime{
		flags: flags,
		home:  home,
		cfg:   cfg,
		out:   cmd.OutOrStdout(),
		in:    cmd.InOrStdin(),
	}

	if err := rt.setupLogging(cmd.ErrOrStderr(), opts); err != nil {
		return nil, err
	}
	rt.registry, rt.metrics = metrics.NewRegistry()
	rt.setupTelemetry(cmd.Context())

	if err := rt.setupSession(); err != nil {
		rt.Close()
		return nil, err
	}

	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		rt.Close()
		return nil, err
	}
	sess := rt.session
	rt.client = api.New(cfg.API.BaseURL,
		api.WithHTTPClient(&http.Client{Timeout: timeout}),
		api.WithTokenSource(sess),
		api.WithUnauthorizedHandler(func(error) {
			if err := sess.Expire(); err != nil {
				rt.logger.WithError(err).Error("failed to clear expired session")
			}
		}),
		api.WithLogger(rt.logger),
		api.WithMetrics(rt.metrics),
		api.WithUserAgent(version.GetInfo().UserAgent()),
	)

	return rt, nil
}

func (rt *runtime) setupLogging(stderr io.Writer, opts runtimeOptions) error {
	logCfg := log.DefaultConfig()
	logCfg.Level = log.ParseLevel(rt.cfg.Logging.Level)
	if rt.flags.Verbose {
		logCfg = log.DevelopmentConfig()
	}
	logCfg.Format = log.ParseFormat(rt.cfg.Logging.Format)
	logCfg.Output = stderr

	path := rt.cfg.Logging.File
	if path == "" && opts.logToFile {
		path = filepath.Join(rt.home, "logs", "roster.log")
	}
	if path != "" {
		f, err := log.OpenFile(path)
		if err != nil {
			return rerrors.Wrap(rerrors.ErrCodeConfigInvalid, "cannot open log file", err)
		}
		logCfg.Output = f
		rt.cleanups = append(rt.cleanups, func() { _ = f.Close() })
	}

	rt.logger = log.New(logCfg)
	return nil
}

func (rt *runtime) setupTelemetry(ctx context.Context) {
	if !rt.cfg.Telemetry.Enabled {
		return
	}

	telemCfg := telemetry.DefaultConfig()
	telemCfg.ServiceVersion = version.GetInfo().Version
	telemCfg.Enabled = true
	telemCfg.Endpoint = rt.cfg.Telemetry.Endpoint
	telemCfg.SampleRate = rt.cfg.Telemetry.SampleRate

	if _, err := telemetry.InitProvider(ctx, telemCfg); err != nil {
		rt.logger.WithError(err).Warn("failed to initialize telemetry")
		return
	}
	rt.logger.Debug("telemetry enabled", "endpoint", telemCfg.Endpoint, "sample_rate", telemCfg.SampleRate)

	rt.cleanups = append(rt.cleanups, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			rt.logger.WithError(err).Warn("failed to flush telemetry")
		}
	})
}

func (rt *runtime) setupSession() error {
	switch passphrase := os.Getenv(config.EnvPassphrase); {
	case rt.flags.Ephemeral:
		rt.storage = session.NewMemoryStorage("")
	case passphrase != "":
		rt.storage = session.NewEncryptedFileStorage(filepath.Join(rt.home, sessionFile), passphrase)
	default:
		rt.storage = session.NewFileStorage(filepath.Join(rt.home, sessionFile))
	}

	sess, err := session.New(rt.storage)
	if err != nil {
		return rerrors.Wrap(rerrors.ErrCodeSessionStoreFailed, "cannot read session", err).
			WithSuggestion("Run 'roster logout' to discard the stored session")
	}
	rt.session = sess

	unsubscribe := sess.Subscribe(func(ev session.Event) {
		rt.metrics.RecordSessionEvent(ev.String())
		rt.logger.Info("session changed", "event", ev.String())
	})
	rt.cleanups = append(rt.cleanups, unsubscribe)
	return nil
}

// Close flushes metrics and telemetry and closes the log file.
func (rt *runtime) Close() {
	if path := rt.cfg.Metrics.Textfile; path != "" && rt.registry != nil {
		if err := metrics.WriteTextfile(path, rt.registry); err != nil {
			rt.logger.WithError(err).Warn("failed to write metrics textfile", "path", path)
		}
	}
	for i := len(rt.cleanups) - 1; i >= 0; i-- {
		rt.cleanups[i]()
	}
	rt.cleanups = nil
}

// requireSession fails fast when no token is stored.
func (rt *runtime) requireSession() error {
	if !rt.session.Authenticated() {
		return rerrors.NewAuthRequiredError()
	}
	return nil
}

func (rt *runtime) formatter() (ux.Formatter, error) {
	return ux.NewFormatter(rt.flags.Format, &ux.FormatterOptions{
		Writer:  rt.out,
		NoColor: rt.flags.NoColor,
	})
}

func (rt *runtime) print(data any) error {
	f, err := rt.formatter()
	if err != nil {
		return err
	}
	return f.Format(data)
}

// fail logs err with full detail and returns its user-facing form.
func (rt *runtime) fail(err error, action string) error {
	if err == nil {
		return nil
	}
	rt.logger.WithError(err).Error(action + " failed")
	return ux.FormatError(err, action, rt.cfg.API.BaseURL)
}

// canPrompt reports whether interactive forms may be shown.
func (rt *runtime) canPrompt() bool {
	return !rt.flags.NoInput && tui.ShouldPrompt()
}

// linePrompter reads answers from the command's stdin.
func (rt *runtime) linePrompter() *ux.LinePrompter {
	return ux.NewLinePrompter(rt.in, rt.out)
}
