// Package config loads the roster configuration from <home>/config.yaml,
// a .env file and ROSTER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/roster/internal/employee"
	rerrors "github.com/felixgeelhaar/roster/internal/errors"
)

// Environment variables
const (
	EnvHome       = "ROSTER_HOME"
	EnvAPIURL     = "ROSTER_API_URL"
	EnvLogLevel   = "ROSTER_LOG_LEVEL"
	EnvPageSize   = "ROSTER_PAGE_SIZE"
	EnvExportDir  = "ROSTER_EXPORT_DIR"
	EnvPassphrase = "ROSTER_SESSION_PASSPHRASE"
)

const (
	DefaultBaseURL = "http://localhost:5000"
	DefaultTimeout = "15s"
	fileName       = "config.yaml"
)

// Config is the persisted configuration.
type Config struct {
	API       APIConfig       `yaml:"api" json:"api"`
	List      ListConfig      `yaml:"list" json:"list"`
	Export    ExportConfig    `yaml:"export" json:"export"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`
	Metrics   MetricsConfig   `yaml:"metrics" json:"metrics"`
}

type APIConfig struct {
	BaseURL string `yaml:"base_url" json:"base_url"`
	Timeout string `yaml:"timeout" json:"timeout"` // Go duration, e.g. "15s"
}

type ListConfig struct {
	PageSize int `yaml:"page_size" json:"page_size"`
}

type ExportConfig struct {
	Dir string `yaml:"dir" json:"dir"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"` // "text" or "json"
	File   string `yaml:"file,omitempty" json:"file,omitempty"`
}

type TelemetryConfig struct {
	Enabled    bool    `yaml:"enabled" json:"enabled"`
	Endpoint   string  `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	SampleRate float64 `yaml:"sample_rate" json:"sample_rate"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty" json:"textfile,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API:       APIConfig{BaseURL: DefaultBaseURL, Timeout: DefaultTimeout},
		List:      ListConfig{PageSize: employee.DefaultPageSize},
		Export:    ExportConfig{Dir: "."},
		Logging:   LoggingConfig{Level: "warn", Format: "text"},
		Telemetry: TelemetryConfig{SampleRate: 1.0},
	}
}

// DefaultHome returns $ROSTER_HOME or ~/.roster.
func DefaultHome() (string, error) {
	if h := os.Getenv(EnvHome); h != "" {
		return h, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".roster"), nil
}

// Path returns the config file location under home.
func Path(home string) string {
	return filepath.Join(home, fileName)
}

// LoadDotEnv loads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return rerrors.Wrap(rerrors.ErrCodeConfigReadFailed, "failed to load "+p, err)
		}
	}
	return nil
}

// Load reads <home>/config.yaml over the defaults. A missing file yields
// the defaults.
func Load(home string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(Path(home))
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, rerrors.Wrap(rerrors.ErrCodeConfigReadFailed, "failed to read config", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, rerrors.Wrap(rerrors.ErrCodeConfigInvalid, "failed to parse config", err).
			WithSuggestion("Fix or remove " + Path(home))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to <home>/config.yaml.
func Save(home string, cfg *Config) error {
	if err := os.MkdirAll(home, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(Path(home), data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ApplyEnv overrides values from ROSTER_* variables.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	overrides := map[string]string{
		"api.base_url":   getenv(EnvAPIURL),
		"logging.level":  getenv(EnvLogLevel),
		"list.page_size": getenv(EnvPageSize),
		"export.dir":     getenv(EnvExportDir),
	}
	for _, key := range Keys() {
		if v := overrides[key]; v != "" {
			if err := c.Set(key, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// Validate checks values that would otherwise fail later.
func (c *Config) Validate() error {
	if c.List.PageSize < 1 {
		return rerrors.New(rerrors.ErrCodeConfigInvalid, fmt.Sprintf("list.page_size must be positive, got %d", c.List.PageSize))
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	if f := c.Logging.Format; f != "" && f != "text" && f != "json" {
		return rerrors.New(rerrors.ErrCodeConfigInvalid, "logging.format must be text or json")
	}
	return nil
}

// TimeoutDuration parses api.timeout. Empty means no timeout.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c.API.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil || d < 0 {
		return 0, rerrors.New(rerrors.ErrCodeConfigInvalid, "api.timeout is not a valid duration: "+c.API.Timeout).
			WithSuggestion("Use a Go duration such as 10s or 1m")
	}
	return d, nil
}

// Keys lists every key accepted by Get and Set.
func Keys() []string {
	return []string{
		"api.base_url",
		"api.timeout",
		"list.page_size",
		"export.dir",
		"logging.level",
		"logging.format",
		"logging.file",
		"telemetry.enabled",
		"telemetry.endpoint",
		"telemetry.sample_rate",
		"metrics.textfile",
	}
}

// Get returns the value of a dotted key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "api.base_url":
		return c.API.BaseURL, nil
	case "api.timeout":
		return c.API.Timeout, nil
	case "list.page_size":
		return strconv.Itoa(c.List.PageSize), nil
	case "export.dir":
		return c.Export.Dir, nil
	case "logging.level":
		return c.Logging.Level, nil
	case "logging.format":
		return c.Logging.Format, nil
	case "logging.file":
		return c.Logging.File, nil
	case "telemetry.enabled":
		return strconv.FormatBool(c.Telemetry.Enabled), nil
	case "telemetry.endpoint":
		return c.Telemetry.Endpoint, nil
	case "telemetry.sample_rate":
		return strconv.FormatFloat(c.Telemetry.SampleRate, 'g', -1, 64), nil
	case "metrics.textfile":
		return c.Metrics.Textfile, nil
	default:
		return "", rerrors.NewConfigKeyError(key, Keys())
	}
}

// Set assigns a dotted key from its string form.
func (c *Config) Set(key, value string) error {
	switch key {
	case "api.base_url":
		c.API.BaseURL = strings.TrimRight(value, "/")
	case "api.timeout":
		prev := c.API.Timeout
		c.API.Timeout = value
		if _, err := c.TimeoutDuration(); err != nil {
			c.API.Timeout = prev
			return err
		}
	case "list.page_size":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return invalidValue(key, value, "a positive integer")
		}
		c.List.PageSize = n
	case "export.dir":
		c.Export.Dir = value
	case "logging.level":
		c.Logging.Level = strings.ToLower(value)
	case "logging.format":
		v := strings.ToLower(value)
		if v != "text" && v != "json" {
			return invalidValue(key, value, "text or json")
		}
		c.Logging.Format = v
	case "logging.file":
		c.Logging.File = value
	case "telemetry.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return invalidValue(key, value, "true or false")
		}
		c.Telemetry.Enabled = b
	case "telemetry.endpoint":
		c.Telemetry.Endpoint = value
	case "telemetry.sample_rate":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 || f > 1 {
			return invalidValue(key, value, "a number between 0 and 1")
		}
		c.Telemetry.SampleRate = f
	case "metrics.textfile":
		c.Metrics.Textfile = value
	default:
		return rerrors.NewConfigKeyError(key, Keys())
	}
	return nil
}

func invalidValue(key, value, want string) error {
	return rerrors.New(rerrors.ErrCodeConfigInvalid, fmt.Sprintf("invalid value %q for %s: want %s", value, key, want))
}
