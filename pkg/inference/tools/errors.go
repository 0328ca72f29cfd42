package tools

import (
	"fmt"
)

// ConfigurationError reports a tool configuration record that is missing
// required fields or carries values of the wrong type. It is raised only
// while building the registry, before any session starts.
type ConfigurationError struct {
	Tool   string
	Field  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("invalid configuration for tool %q", e.Tool)
	if e.Field != "" {
		msg += fmt.Sprintf(" (field %q)", e.Field)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// NewConfigurationError is a shorthand for a field-level configuration failure.
func NewConfigurationError(tool, field, reason string) *ConfigurationError {
	return &ConfigurationError{Tool: tool, Field: field, Reason: reason}
}

// ToolNotFoundError is produced when an invocation names a tool the registry does not hold.
type ToolNotFoundError struct {
	Name string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("tool not found: %s", e.Name)
}

// ToolExecutionError wraps any failure raised by a tool's Execute.
type ToolExecutionError struct {
	Name string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Name, e.Err)
}

func (e *ToolExecutionError) Unwrap() error {
	return e.Err
}
