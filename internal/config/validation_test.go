package config

import (
	"errors"
	"strings"
	"testing"
)

func TestValidConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected no validation errors, got: %v", err)
	}
}

func TestValidServerConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Source = SourceConfig{
		Driver: DriverMySQL,
		Host:   "localhost",
		Port:   3306,
		User:   "root",
		TLS:    "required",
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected no validation errors, got: %v", err)
	}
}

func TestSQLiteIgnoresConnectionFields(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Source.Port = 99999
	cfg.Source.TLS = "bogus"

	if err := cfg.Validate(); err != nil {
		t.Errorf("sqlite source should not validate connection fields, got: %v", err)
	}
}

func TestValidationFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"unknown driver", func(c *Config) { c.Source.Driver = "oracle" }, "source.driver"},
		{"server without host", func(c *Config) { c.Source = SourceConfig{Driver: DriverMySQL, User: "u"} }, "source.host"},
		{"server without user", func(c *Config) { c.Source = SourceConfig{Driver: DriverPostgres, Host: "h"} }, "source.user"},
		{"server bad port", func(c *Config) { c.Source = SourceConfig{Driver: DriverMySQL, Host: "h", User: "u", Port: 70000} }, "source.port"},
		{"server bad tls", func(c *Config) { c.Source = SourceConfig{Driver: DriverMySQL, Host: "h", User: "u", TLS: "maybe"} }, "source.tls"},
		{"zero query timeout", func(c *Config) { c.Export.QueryTimeoutSeconds = 0 }, "export.query_timeout_seconds"},
		{"zero introspect timeout", func(c *Config) { c.Export.IntrospectTimeoutSeconds = 0 }, "export.introspect_timeout_seconds"},
		{"empty separator", func(c *Config) { c.Export.SheetSeparator = "" }, "export.sheet_separator"},
		{"extension without dot", func(c *Config) { c.Export.Extension = "xlsx" }, "export.extension"},
		{"zero workers", func(c *Config) { c.Export.Workers = 0 }, "export.workers"},
		{"bad verification method", func(c *Config) { c.Verification.Method = "sha256" }, "verification.method"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error for %s", tt.field)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("expected error to mention %q, got: %v", tt.field, err)
			}
		})
	}
}

func TestValidationErrorsAggregate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Export.Workers = 0
	cfg.Logging.Format = "xml"

	err := cfg.Validate()

	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if len(verrs) != 2 {
		t.Errorf("expected 2 validation errors, got %d: %v", len(verrs), verrs)
	}
	if !strings.HasPrefix(err.Error(), "validation failed:") {
		t.Errorf("unexpected error text: %s", err.Error())
	}
}

func TestValidationErrorsEmpty(t *testing.T) {
	var verrs ValidationErrors
	if verrs.Error() != "" {
		t.Errorf("expected empty string for no errors, got %q", verrs.Error())
	}
}
