package config

import "fmt"

// ConfigError reports a missing or invalid setting. It is always fatal at startup.
type ConfigError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Missing builds a ConfigError for a required dependency that was not supplied.
func Missing(field string) *ConfigError {
	return &ConfigError{Field: field, Reason: "not configured"}
}
