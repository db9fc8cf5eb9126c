// Package config provides configuration defaults and utilities
// for the taskdata application.
//
// This package defines all configurable constants with documented defaults.
// Users can override these values via config.yaml or environment variables.
package config

import "time"

// =============================================================================
// Network Defaults
// =============================================================================

const (
	// DefaultHost is the default listen host.
	// 0.0.0.0 listens on all network interfaces so recording machines
	// on the lab network can reach the server.
	// Override via config: host
	DefaultHost = "0.0.0.0"

	// DefaultPort is the default listen port.
	// Override via config: port
	DefaultPort = 5000

	// DefaultThreads caps the number of concurrently served connections.
	// Override via config: threads
	DefaultThreads = 4

	// DefaultMaxBodySize limits request body size to prevent OOM.
	// 16 MiB covers any reasonable measurement batch.
	// Override via config: max_body_size
	DefaultMaxBodySize = 16 * 1024 * 1024

	// DefaultShutdownTimeout is how long in-flight requests get to
	// finish during graceful shutdown.
	DefaultShutdownTimeout = 10 * time.Second
)

// =============================================================================
// Storage Defaults
// =============================================================================

const (
	// DefaultDataDir is the root directory for persisted tables.
	// Override via config: data_dir or TASKDATA_DATA_DIR
	DefaultDataDir = "data"

	// DefaultLogsDir is the directory for rotating log files.
	// Override via config: logs_dir or TASKDATA_LOGS_DIR
	DefaultLogsDir = "logs"

	// DefaultWriteMode is used when a request supplies no write_mode
	// or an unrecognized one.
	// Override via config: default_write_mode or TASKDATA_DEFAULT_WRITE_MODE
	DefaultWriteMode = "append"

	// DefaultTask is the task directory used when a request supplies
	// no task name.
	DefaultTask = "unknown"
)

// =============================================================================
// Rate Limit Defaults
// =============================================================================

const (
	// DefaultRateLimit is the number of requests allowed per client IP
	// per rate window. 0 disables rate limiting.
	// Override via config: rate_limit
	DefaultRateLimit = 0

	// DefaultRateWindow is the rate limiting window.
	DefaultRateWindow = time.Minute
)

// =============================================================================
// Logging Defaults
// =============================================================================

const (
	// DefaultLogMaxSizeMB is the size at which the log file rotates.
	// Override via config: log_max_size_mb
	DefaultLogMaxSizeMB = 10

	// DefaultLogMaxBackups is how many rotated log files are kept.
	// Override via config: log_max_backups
	DefaultLogMaxBackups = 3
)
