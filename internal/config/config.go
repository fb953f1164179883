// Package config provides centralized configuration management for acsextract.
// It loads configuration from ACS_-prefixed environment variables with
// sensible defaults and validates all settings up front to fail fast on
// misconfiguration. Command-line flags override individual values per run.
package config

import (
	"net"
	"strconv"
	"time"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "ACS"

// Config holds all application configuration.
type Config struct {
	Logging  LoggingConfig  `envconfig:"LOG"`
	Summary  SummaryConfig  `envconfig:"SUMMARY"`
	Database DatabaseConfig `envconfig:"DATABASE"`
	Server   ServerConfig   `envconfig:"SERVER"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (ACS_LOG_LEVEL)
	Level string `envconfig:"LEVEL" default:"info"`

	// Format is the log format: text or json (ACS_LOG_FORMAT)
	Format string `envconfig:"FORMAT" default:"text"`
}

// SummaryConfig describes the summary-file release being read.
type SummaryConfig struct {
	// Year of the release (ACS_SUMMARY_YEAR)
	Year int `envconfig:"YEAR" default:"2016"`

	// Span is the estimate period in years: 1, 3 or 5 (ACS_SUMMARY_SPAN)
	Span int `envconfig:"SPAN" default:"5"`

	// State is the two-letter state abbreviation in file names (ACS_SUMMARY_STATE)
	State string `envconfig:"STATE" default:"ca"`

	// Index is the lookup table path or URL (ACS_SUMMARY_INDEX)
	Index string `envconfig:"INDEX" default:"lookup_tables/2016_5yr.csv"`

	// Layout is an optional YAML geography layout; empty uses the built-in
	// 2016 5-year layout (ACS_SUMMARY_LAYOUT)
	Layout string `envconfig:"LAYOUT"`

	// RecordColumn is the data-file column of the logical record number
	// (ACS_SUMMARY_RECORD_COLUMN)
	RecordColumn int `envconfig:"RECORD_COLUMN" default:"5"`
}

// DatabaseConfig holds the optional PostgreSQL sink settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string; empty disables the sink (ACS_DATABASE_URL)
	URL string `envconfig:"URL"`

	// MaxConns is the maximum number of pooled connections (ACS_DATABASE_MAX_CONNS)
	MaxConns int `envconfig:"MAX_CONNS" default:"4"`

	// MinConns is the minimum number of connections kept open (ACS_DATABASE_MIN_CONNS)
	MinConns int `envconfig:"MIN_CONNS" default:"0"`

	// MaxConnLifetime is the maximum lifetime of a connection (ACS_DATABASE_MAX_CONN_LIFETIME)
	MaxConnLifetime time.Duration `envconfig:"MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time of a connection (ACS_DATABASE_MAX_CONN_IDLE_TIME)
	MaxConnIdleTime time.Duration `envconfig:"MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a database URL is configured.
func (c DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// ServerConfig holds data-dictionary server settings.
type ServerConfig struct {
	// Host is the interface to bind to (ACS_SERVER_HOST)
	Host string `envconfig:"HOST" default:"127.0.0.1"`

	// Port is the port to listen on (ACS_SERVER_PORT)
	Port int `envconfig:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading a request (ACS_SERVER_READ_TIMEOUT)
	ReadTimeout time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (ACS_SERVER_WRITE_TIMEOUT)
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (ACS_SERVER_IDLE_TIMEOUT)
	IdleTimeout time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown (ACS_SERVER_SHUTDOWN_TIMEOUT)
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
