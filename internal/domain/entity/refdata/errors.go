package refdata

import (
	"errors"
	"fmt"
)

var (
	ErrSourceDecode         = errors.New("source decode error")
	ErrReferentialIntegrity = errors.New("unknown base or quote asset")
	ErrPersistence          = errors.New("persistence error")
	ErrFatalConfig          = errors.New("fatal config error")
)

// DecodeError is raised when a listing payload, or one entry of it, cannot be
// mapped into the common shape.
type DecodeError struct {
	Source string
	Entry  string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Entry == "" {
		return fmt.Sprintf("decode %s payload: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("decode %s entry %q: %v", e.Source, e.Entry, e.Err)
}

func (e *DecodeError) Unwrap() []error {
	return []error{ErrSourceDecode, e.Err}
}

// PersistenceError carries a gateway failure for a single entity.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// ConfigError wraps a problem that must stop the run before any phase starts.
func ConfigError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFatalConfig, fmt.Sprintf(format, args...))
}
