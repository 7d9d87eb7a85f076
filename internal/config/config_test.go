package config

import (
	"log/slog"
	"testing"
)

func TestEnvStrFallback(t *testing.T) {
	// TEST_STR_MISSING is not set.
	if v := envStr("TEST_STR_MISSING", "fallback"); v != "fallback" {
		t.Fatalf("expected fallback, got %q", v)
	}
}

func TestEnvBoolValid(t *testing.T) {
	t.Setenv("TEST_BOOL", "true")
	v, err := envBool("TEST_BOOL", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v {
		t.Fatal("expected true")
	}
}

func TestEnvBoolInvalid(t *testing.T) {
	t.Setenv("TEST_BOOL_BAD", "maybe")
	_, err := envBool("TEST_BOOL_BAD", false)
	if err == nil {
		t.Fatal("expected error for non-boolean value, got nil")
	}
	if got := err.Error(); got != `TEST_BOOL_BAD="maybe" is not a valid boolean` {
		t.Fatalf("unexpected error message: %s", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RPTRUN_DEFAULT_REPORT_PATH", "/srv/reports/daily.rpt")
	t.Setenv("RPTRUN_DEFAULT_ODBC_DSN", "Sales")
	t.Setenv("RPTRUN_DEFAULT_OUTPUT_PATH", "")
	t.Setenv("RPTRUN_LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cfg.Default(DefaultReportPath); got != "/srv/reports/daily.rpt" {
		t.Fatalf("DefaultReportPath = %q", got)
	}
	if got := cfg.Default(DefaultOdbcDsn); got != "Sales" {
		t.Fatalf("DefaultOdbcDsn = %q", got)
	}
	if got := cfg.Default(DefaultOutputPath); got != "" {
		t.Fatalf("DefaultOutputPath = %q, want empty", got)
	}
	if got := cfg.Default("Unknown"); got != "" {
		t.Fatalf("unknown default = %q, want empty", got)
	}
	if cfg.Level() != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", cfg.Level())
	}
}

func TestLoadRejectsBadLogFormat(t *testing.T) {
	t.Setenv("RPTRUN_LOG_FORMAT", "xml")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unsupported log format")
	}
}

func TestLoadRejectsBadOTELInsecure(t *testing.T) {
	t.Setenv("RPTRUN_OTEL_INSECURE", "sometimes")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid RPTRUN_OTEL_INSECURE")
	}
}
