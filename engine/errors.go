package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/flanksource/transmute/exec"
	"github.com/flanksource/transmute/registry"
)

// Error kinds. Every failed Result carries a *ConversionError whose Kind is
// one of these, so callers can branch with errors.Is.
var (
	ErrUnsupportedConversion = errors.New("unsupported conversion")
	ErrInvalidInput          = errors.New("invalid input")
	ErrHandlerFailure        = errors.New("handler failed")
	ErrExhaustedFallbacks    = errors.New("all fallback strategies failed")
	ErrExternalToolTimeout   = exec.ErrTimeout
	ErrToolUnavailable       = errors.New("required tool unavailable")
	ErrInvalidOutput         = errors.New("output failed verification")
)

type AttemptStatus string

const (
	AttemptSucceeded AttemptStatus = "succeeded"
	AttemptFailed    AttemptStatus = "failed"
	AttemptSkipped   AttemptStatus = "skipped"
)

// AttemptError is the failure of a single strategy in a chain.
type AttemptError struct {
	Strategy string
	Err      error
}

func (e *AttemptError) Error() string {
	return fmt.Sprintf("%s: %v", e.Strategy, e.Err)
}

func (e *AttemptError) Unwrap() error {
	return e.Err
}

type ConversionError struct {
	Kind     error
	Edge     registry.Edge
	Input    string
	Attempts []*AttemptError
	Err      error
}

func (e *ConversionError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s: %v", e.Edge, e.Input, e.Kind)
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	if len(e.Attempts) > 0 {
		parts := make([]string, len(e.Attempts))
		for i, a := range e.Attempts {
			parts[i] = a.Error()
		}
		fmt.Fprintf(&sb, " [%s]", strings.Join(parts, "; "))
	}
	return sb.String()
}

func (e *ConversionError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	for _, a := range e.Attempts {
		errs = append(errs, a)
	}
	return errs
}

// KindOf returns the error kind of err, or nil when err is not a
// *ConversionError.
func KindOf(err error) error {
	var ce *ConversionError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return nil
}
