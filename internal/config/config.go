// Package config provides configuration structures and loading for db2xlsx.
package config

import "time"

// Supported source drivers.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Config represents the complete application configuration.
type Config struct {
	Source  SourceConfig  `yaml:"source" mapstructure:"source"`
	Export       ExportConfig       `yaml:"export" mapstructure:"export"`
	Verification VerificationConfig `yaml:"verification" mapstructure:"verification"`
	Logging      LoggingConfig      `yaml:"logging" mapstructure:"logging"`
}

// SourceConfig describes where input databases come from.
// For the sqlite driver every input is a file path and the connection
// fields are ignored. For server drivers every input is a database name
// on the configured server.
type SourceConfig struct {
	Driver   string `yaml:"driver" mapstructure:"driver"` // sqlite, mysql, postgres
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	TLS      string `yaml:"tls" mapstructure:"tls"`       // disable, preferred, required
	Schema   string `yaml:"schema" mapstructure:"schema"` // postgres only
}

// ExportConfig represents spreadsheet export settings.
type ExportConfig struct {
	QueryTimeoutSeconds      int    `yaml:"query_timeout_seconds" mapstructure:"query_timeout_seconds"`
	IntrospectTimeoutSeconds int    `yaml:"introspect_timeout_seconds" mapstructure:"introspect_timeout_seconds"`
	SheetSeparator           string `yaml:"sheet_separator" mapstructure:"sheet_separator"`
	Extension                string `yaml:"extension" mapstructure:"extension"`
	Workers                  int    `yaml:"workers" mapstructure:"workers"`
	Creator                  string `yaml:"creator" mapstructure:"creator"`
}

// VerificationConfig controls the check run on each written workbook.
type VerificationConfig struct {
	Method string `yaml:"method" mapstructure:"method"` // count or skip
}

// Verification methods.
const (
	VerifyCount = "count"
	VerifySkip  = "skip"
)

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Driver: DriverSQLite,
			TLS:    "preferred",
			Schema: "public",
		},
		Export: ExportConfig{
			QueryTimeoutSeconds:      3,
			IntrospectTimeoutSeconds: 10,
			SheetSeparator:           "&",
			Extension:                ".xlsx",
			Workers:                  1,
		},
		Verification: VerificationConfig{
			Method: VerifyCount,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// QueryTimeout returns the per-query execution bound.
func (e ExportConfig) QueryTimeout() time.Duration {
	return time.Duration(e.QueryTimeoutSeconds) * time.Second
}

// IntrospectTimeout returns the bound for a single metadata call.
func (e ExportConfig) IntrospectTimeout() time.Duration {
	return time.Duration(e.IntrospectTimeoutSeconds) * time.Second
}

// IsServer reports whether the driver talks to a database server rather than a file.
func (s SourceConfig) IsServer() bool {
	return s.Driver == DriverMySQL || s.Driver == DriverPostgres
}

// DefaultPort returns the conventional port for the driver when none is configured.
func (s SourceConfig) DefaultPort() int {
	if s.Port > 0 {
		return s.Port
	}
	switch s.Driver {
	case DriverMySQL:
		return 3306
	case DriverPostgres:
		return 5432
	}
	return 0
}
