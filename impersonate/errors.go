package impersonate

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownCipher is returned for a cipher suite name the engine does
	// not implement.
	ErrUnknownCipher = errors.New("unknown cipher suite")
	// ErrUnknownCurve is returned for an unsupported named group.
	ErrUnknownCurve = errors.New("unknown curve")
	// ErrEmptyList is returned when a cipher or curve list has no entries.
	ErrEmptyList = errors.New("empty list")
	// ErrNilBuilder is returned when a Builder Function yields no builder.
	ErrNilBuilder = errors.New("builder function returned nil builder")
)

// ConfigError reports malformed or engine-rejected profile data. It is
// fatal for the connector creation attempt that produced it and is never
// retried.
type ConfigError struct {
	// Op names the pipeline step, e.g. "cipher list".
	Op string
	// Value is the offending input, if any.
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("impersonate: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("impersonate: %s %q: %v", e.Op, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
