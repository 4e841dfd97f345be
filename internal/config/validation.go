package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateSource()...)
	errors = append(errors, c.validateExport()...)
	errors = append(errors, c.validateVerification()...)
	errors = append(errors, c.validateLogging()...)

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateSource() ValidationErrors {
	var errors ValidationErrors
	src := &c.Source

	validDrivers := map[string]bool{DriverSQLite: true, DriverMySQL: true, DriverPostgres: true}
	if !validDrivers[src.Driver] {
		errors = append(errors, ValidationError{
			Field:   "source.driver",
			Message: "driver must be 'sqlite', 'mysql', or 'postgres'",
		})
		return errors
	}

	if !src.IsServer() {
		return errors
	}

	if src.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "source.host",
			Message: "host is required for " + src.Driver,
		})
	}

	if src.Port < 0 || src.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "source.port",
			Message: "port must be between 1 and 65535",
		})
	}

	if src.User == "" {
		errors = append(errors, ValidationError{
			Field:   "source.user",
			Message: "user is required for " + src.Driver,
		})
	}

	validTLS := map[string]bool{"disable": true, "preferred": true, "required": true, "": true}
	if !validTLS[src.TLS] {
		errors = append(errors, ValidationError{
			Field:   "source.tls",
			Message: "tls must be 'disable', 'preferred', or 'required'",
		})
	}

	return errors
}

func (c *Config) validateExport() ValidationErrors {
	var errors ValidationErrors

	if c.Export.QueryTimeoutSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "export.query_timeout_seconds",
			Message: "query_timeout_seconds must be positive",
		})
	}

	if c.Export.IntrospectTimeoutSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "export.introspect_timeout_seconds",
			Message: "introspect_timeout_seconds must be positive",
		})
	}

	if c.Export.SheetSeparator == "" {
		errors = append(errors, ValidationError{
			Field:   "export.sheet_separator",
			Message: "sheet_separator cannot be empty",
		})
	}

	if !strings.HasPrefix(c.Export.Extension, ".") || len(c.Export.Extension) < 2 {
		errors = append(errors, ValidationError{
			Field:   "export.extension",
			Message: "extension must start with '.', e.g. '.xlsx'",
		})
	}

	if c.Export.Workers <= 0 {
		errors = append(errors, ValidationError{
			Field:   "export.workers",
			Message: "workers must be positive",
		})
	}

	return errors
}

func (c *Config) validateVerification() ValidationErrors {
	switch c.Verification.Method {
	case VerifyCount, VerifySkip:
		return nil
	}
	return ValidationErrors{{
		Field:   "verification.method",
		Message: "method must be 'count' or 'skip'",
	}}
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}
