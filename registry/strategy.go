package registry

import (
	"github.com/flanksource/transmute/capabilities"
)

// Func adapts a plain function to Strategy.
type Func struct {
	Label       string
	Tools       []capabilities.Tool
	Placeholder bool
	Fn          func(ctx Context, in, out string) error
}

func (f Func) Name() string                              { return f.Label }
func (f Func) Convert(ctx Context, in, out string) error { return f.Fn(ctx, in, out) }
func (f Func) Requires() []capabilities.Tool             { return f.Tools }
func (f Func) Degraded() bool                            { return f.Placeholder }

// RequiredTools returns the tools s declares, if any.
func RequiredTools(s Strategy) []capabilities.Tool {
	if r, ok := s.(Requirer); ok {
		return r.Requires()
	}
	return nil
}

// IsDegraded reports whether s produces placeholder output.
func IsDegraded(s Strategy) bool {
	d, ok := s.(Degrader)
	return ok && d.Degraded()
}
