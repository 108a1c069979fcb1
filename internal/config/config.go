// Package config loads application settings from environment variables.
// Every setting has a default except the database URL, and the whole
// configuration is validated once at startup.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Upload   UploadConfig
	Storage  StorageConfig
	Import   ImportConfig
	Sweep    SweepConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"10m"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout bounds every request except processing, which has its
	// own limit in ImportConfig.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`

	// RequestsPerMinute is the per-IP limit; 0 disables rate limiting.
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL accepts DATABASE_URL or DB_URL.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"20"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// UploadConfig limits accepted documents and concurrent processing.
type UploadConfig struct {
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"52428800"`
	MaxColumns  int   `env:"UPLOAD_MAX_COLUMNS" default:"50"`
	SampleRows  int   `env:"UPLOAD_SAMPLE_ROWS" default:"10"`

	// MaxConcurrent batches may run at once; callers wait up to
	// MaxWaitTime for a slot.
	MaxConcurrent int           `env:"UPLOAD_MAX_CONCURRENT" default:"4"`
	MaxWaitTime   time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`
}

// StorageConfig says where uploaded documents are kept.
type StorageConfig struct {
	UploadDir string `env:"UPLOAD_DIR" default:"uploads"`
}

// ImportConfig tunes batch processing.
type ImportConfig struct {
	// DiagnosisGrouping is "split" (one diagnosis per mapped diagnosis
	// field) or "merged" (one diagnosis per row).
	DiagnosisGrouping string        `env:"IMPORT_DIAGNOSIS_GROUPING" default:"split"`
	FailedSampleSize  int           `env:"IMPORT_FAILED_SAMPLE_SIZE" default:"5"`
	SuccessThreshold  int           `env:"IMPORT_SUCCESS_THRESHOLD" default:"70"`
	Timeout           time.Duration `env:"IMPORT_TIMEOUT" default:"10m"`
}

// SweepConfig controls the stale import report.
type SweepConfig struct {
	Enabled    bool          `env:"SWEEP_ENABLED" default:"false"`
	Interval   time.Duration `env:"SWEEP_INTERVAL" default:"15m"`
	StaleAfter time.Duration `env:"SWEEP_STALE_AFTER" default:"1h"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `env:"LOG_LEVEL" default:"info"`
	// Format is text or json.
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
