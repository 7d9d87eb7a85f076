// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Names of the defaults consulted when a command-line flag is absent.
const (
	DefaultReportPath = "DefaultReportPath"
	DefaultOdbcDsn    = "DefaultOdbcDsn"
	DefaultOutputPath = "DefaultOutputPath"
)

// Config holds all application configuration.
type Config struct {
	// Defaults for the command line.
	ReportPath string
	OdbcDsn    string
	OutputPath string

	// ODBC data source registries.
	OdbcIni    string // User data sources (ODBCINI).
	OdbcSysIni string // Directory holding the system odbc.ini (ODBCSYSINI).

	// Logging.
	LogLevel  string // "debug", "info", "warn" or "error".
	LogFormat string // "text" or "json".
	LogFile   string // Empty logs to stderr.

	// Viewer command used to open exported files; empty uses the platform default.
	Viewer string

	// OTEL settings.
	OTELEndpoint string
	ServiceName  string
	OTELInsecure bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	var errs []error

	otelInsecure, err := envBool("RPTRUN_OTEL_INSECURE", false)
	if err != nil {
		errs = append(errs, err)
	}

	cfg := Config{
		ReportPath:   envStr("RPTRUN_DEFAULT_REPORT_PATH", ""),
		OdbcDsn:      envStr("RPTRUN_DEFAULT_ODBC_DSN", ""),
		OutputPath:   envStr("RPTRUN_DEFAULT_OUTPUT_PATH", ""),
		OdbcIni:      envStr("ODBCINI", ""),
		OdbcSysIni:   envStr("ODBCSYSINI", ""),
		LogLevel:     strings.ToLower(envStr("RPTRUN_LOG_LEVEL", "info")),
		LogFormat:    strings.ToLower(envStr("RPTRUN_LOG_FORMAT", "text")),
		LogFile:      envStr("RPTRUN_LOG_FILE", ""),
		Viewer:       envStr("RPTRUN_VIEWER", ""),
		OTELEndpoint: envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:  envStr("OTEL_SERVICE_NAME", "rptrun"),
		OTELInsecure: otelInsecure,
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("config: %w", errs[0])
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that configured values are usable.
func (c Config) Validate() error {
	if _, ok := levels[c.LogLevel]; !ok {
		return fmt.Errorf("config: RPTRUN_LOG_LEVEL must be one of debug, info, warn, error (got %q)", c.LogLevel)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("config: RPTRUN_LOG_FORMAT must be text or json (got %q)", c.LogFormat)
	}
	return nil
}

// Default returns the configured default for one of the named settings
// (DefaultReportPath, DefaultOdbcDsn, DefaultOutputPath). Unknown names and
// unset values yield "".
func (c Config) Default(name string) string {
	switch name {
	case DefaultReportPath:
		return c.ReportPath
	case DefaultOdbcDsn:
		return c.OdbcDsn
	case DefaultOutputPath:
		return c.OutputPath
	default:
		return ""
	}
}

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Level returns the slog level matching LogLevel.
func (c Config) Level() slog.Level {
	return levels[c.LogLevel]
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal, fmt.Errorf("%s=%q is not a valid boolean", key, v)
	}
	return b, nil
}
