// Package loader handles configuration file loading and validation.
//
// LOCATION: internal/loader/loader.go
//
// This package is responsible for:
//   - Loading the YAML configuration file
//   - Expanding environment variables inside it
//   - Applying TASKDATA_* environment overrides
//   - Validating the resulting configuration

package loader

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/eeglab/taskdata/config"
	"github.com/eeglab/taskdata/internal/errors"
)

// =============================================================================
// Config
// =============================================================================

// Config is the full server configuration.
type Config struct {
	// Host is the listen host. 0.0.0.0 listens on all interfaces.
	Host string `yaml:"host"`

	// Port is the listen port.
	Port int `yaml:"port"`

	// Threads caps the number of concurrently served connections.
	Threads int `yaml:"threads"`

	// DataDir is the root directory for persisted tables.
	DataDir string `yaml:"data_dir"`

	// LogsDir is the directory for rotating log files.
	LogsDir string `yaml:"logs_dir"`

	// DefaultWriteMode is used when a request carries no write_mode or
	// an unrecognized one. One of "append" or "overwrite".
	DefaultWriteMode string `yaml:"default_write_mode"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// LogJSON switches console log output to JSON.
	LogJSON bool `yaml:"log_json"`

	// LogMaxSizeMB is the size at which the log file rotates.
	LogMaxSizeMB int `yaml:"log_max_size_mb"`

	// LogMaxBackups is how many rotated log files are kept.
	LogMaxBackups int `yaml:"log_max_backups"`

	// CORSOrigins lists allowed CORS origins. Empty allows any origin;
	// browser-based recording tasks post from arbitrary hosts.
	CORSOrigins []string `yaml:"cors_origins"`

	// RateLimit is requests per client IP per minute. 0 disables.
	RateLimit int `yaml:"rate_limit"`

	// MaxBodySize limits request body size in bytes.
	MaxBodySize int64 `yaml:"max_body_size"`

	// ErrorReport configures the external error collector.
	ErrorReport ErrorReportConfig `yaml:"error_report"`
}

// ErrorReportConfig configures forwarding of server-side errors to an
// external collector. An empty URL disables forwarding.
type ErrorReportConfig struct {
	URL         string `yaml:"url"`
	Environment string `yaml:"environment"`
}

// Listen returns the host:port listen address.
func (c *Config) Listen() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// SplitListen parses a host:port address into its components.
func SplitListen(addr string) (host string, port int, err error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err = strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q: %w", portStr, err)
	}
	return host, port, nil
}

// Level returns the slog level for the configured log level string.
func (c *Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:             config.DefaultHost,
		Port:             config.DefaultPort,
		Threads:          config.DefaultThreads,
		DataDir:          config.DefaultDataDir,
		LogsDir:          config.DefaultLogsDir,
		DefaultWriteMode: config.DefaultWriteMode,
		LogLevel:         "info",
		LogMaxSizeMB:     config.DefaultLogMaxSizeMB,
		LogMaxBackups:    config.DefaultLogMaxBackups,
		RateLimit:        config.DefaultRateLimit,
		MaxBodySize:      config.DefaultMaxBodySize,
		ErrorReport: ErrorReportConfig{
			Environment: "development",
		},
	}
}

// =============================================================================
// Load
// =============================================================================

// Load loads configuration from a YAML file, layering file values over
// the defaults and environment overrides over both.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	// Start with defaults
	cfg := DefaultConfig()

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv applies TASKDATA_* environment variable overrides. These
// take precedence over both defaults and file values.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("TASKDATA_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("TASKDATA_LOGS_DIR"); v != "" {
		c.LogsDir = v
	}
	if v := os.Getenv("TASKDATA_DEFAULT_WRITE_MODE"); v != "" {
		c.DefaultWriteMode = v
	}
	if v := os.Getenv("TASKDATA_ERROR_REPORT_URL"); v != "" {
		c.ErrorReport.URL = v
	}
	if v := os.Getenv("TASKDATA_ERROR_REPORT_ENV"); v != "" {
		c.ErrorReport.Environment = v
	}
}

// =============================================================================
// Validate
// =============================================================================

// Validate validates the configuration.
func Validate(cfg *Config) error {
	errs := errors.NewValidationErrors()

	if cfg.Host == "" {
		errs.AddMissing("host")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		errs.AddField("port", "must be between 1 and 65535")
	}
	if cfg.Threads <= 0 {
		errs.AddField("threads", "must be positive")
	}
	if cfg.DataDir == "" {
		errs.AddMissing("data_dir")
	}
	if cfg.LogsDir == "" {
		errs.AddMissing("logs_dir")
	}
	switch cfg.DefaultWriteMode {
	case "append", "overwrite":
	default:
		errs.AddField("default_write_mode", "must be 'append' or 'overwrite'")
	}
	if cfg.MaxBodySize <= 0 {
		errs.AddField("max_body_size", "must be positive")
	}
	if cfg.RateLimit < 0 {
		errs.AddField("rate_limit", "cannot be negative")
	}

	return errors.NewConfig(errs.Err())
}

// EnsureDirectories creates the data and logs directories if absent.
func EnsureDirectories(cfg *Config) error {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := os.MkdirAll(cfg.LogsDir, 0o755); err != nil {
		return fmt.Errorf("create logs dir: %w", err)
	}
	return nil
}
