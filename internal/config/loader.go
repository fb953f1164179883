package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/JonMunkholm/acsextract/internal/acs"
	"github.com/kelseyhightower/envconfig"
)

var stateCode = regexp.MustCompile(`^[A-Za-z]{2}$`)

// Load reads configuration from ACS_ environment variables and applies
// defaults for unset values. Only malformed values fail here; call Validate
// once command-line overrides have been applied.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("%w: config load: %v", acs.ErrConfig, err)
	}

	return cfg, nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Summary file validation
	if c.Summary.Year < 2005 {
		errs = append(errs, fmt.Sprintf("ACS_SUMMARY_YEAR (%d) must be 2005 or later", c.Summary.Year))
	}
	if c.Summary.Span != 1 && c.Summary.Span != 3 && c.Summary.Span != 5 {
		errs = append(errs, fmt.Sprintf("ACS_SUMMARY_SPAN (%d) must be 1, 3 or 5", c.Summary.Span))
	}
	if !stateCode.MatchString(c.Summary.State) {
		errs = append(errs, fmt.Sprintf("ACS_SUMMARY_STATE (%q) must be a two-letter state code", c.Summary.State))
	}
	// 0 selects the default column.
	if c.Summary.RecordColumn < 0 {
		errs = append(errs, "ACS_SUMMARY_RECORD_COLUMN must be non-negative")
	}

	// Database validation
	if c.Database.MaxConns < c.Database.MinConns {
		errs = append(errs, fmt.Sprintf("ACS_DATABASE_MAX_CONNS (%d) must be >= ACS_DATABASE_MIN_CONNS (%d)",
			c.Database.MaxConns, c.Database.MinConns))
	}
	if c.Database.MaxConns <= 0 {
		errs = append(errs, "ACS_DATABASE_MAX_CONNS must be positive")
	}
	if c.Database.MinConns < 0 {
		errs = append(errs, "ACS_DATABASE_MIN_CONNS must be non-negative")
	}

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("ACS_SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "ACS_SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "ACS_SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("ACS_LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("ACS_LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: validation failed:\n  - %s", acs.ErrConfig, strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// The database URL is masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Summary: {Year: %d, Span: %d, State: %q, Index: %q, Layout: %q}, ",
		c.Summary.Year, c.Summary.Span, c.Summary.State, c.Summary.Index, c.Summary.Layout))
	if c.Database.Enabled() {
		b.WriteString(fmt.Sprintf("Database: {URL: [MASKED], MaxConns: %d, MinConns: %d}, ",
			c.Database.MaxConns, c.Database.MinConns))
	} else {
		b.WriteString("Database: {disabled}, ")
	}
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
