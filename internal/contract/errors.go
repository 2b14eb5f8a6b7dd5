package contract

import "fmt"

// ConfigError is a fatal configuration problem found before any search runs.
type ConfigError struct {
	Param string
	Msg   string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Msg)
}

// NewConfigError builds a ConfigError naming the offending parameter.
func NewConfigError(param, format string, args ...any) error {
	return &ConfigError{Param: param, Msg: fmt.Sprintf(format, args...)}
}
