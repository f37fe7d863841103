package registry

import (
	"errors"
	"fmt"

	"github.com/flanksource/transmute/formats"
)

// Builder accumulates bindings. Explicit registrations always win over
// programmatic expansion, whatever the order they are added in.
type Builder struct {
	explicit map[Edge]Binding
	expanded map[Edge]Binding
	errs     []error
}

func NewBuilder() *Builder {
	return &Builder{
		explicit: map[Edge]Binding{},
		expanded: map[Edge]Binding{},
	}
}

func validate(b Binding) error {
	if b.Edge.Source == "" || b.Edge.Target == "" {
		return fmt.Errorf("binding %s has an empty format", b.Edge)
	}
	if b.Edge.Source == b.Edge.Target {
		return fmt.Errorf("binding %s converts a format to itself", b.Edge)
	}
	if len(b.Strategies) == 0 {
		return fmt.Errorf("binding %s has no strategies", b.Edge)
	}
	for i, s := range b.Strategies {
		if s == nil {
			return fmt.Errorf("binding %s has a nil strategy at position %d", b.Edge, i)
		}
	}
	return nil
}

// Register adds an explicit binding. Registering the same edge twice is an
// error reported by Build.
func (b *Builder) Register(binding Binding) *Builder {
	if err := validate(binding); err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	if _, dup := b.explicit[binding.Edge]; dup {
		b.errs = append(b.errs, fmt.Errorf("edge %s registered twice", binding.Edge))
		return b
	}
	b.explicit[binding.Edge] = binding
	return b
}

// Bind is shorthand for Register with a fresh Binding.
func (b *Builder) Bind(src, dst formats.Format, family string, lossy bool, strategies ...Strategy) *Builder {
	return b.Register(Binding{Edge: Edge{src, dst}, Family: family, Lossy: lossy, Strategies: strategies})
}

func (b *Builder) expand(e Edge, bind func(Edge) Binding) bool {
	if e.Source == e.Target {
		return false
	}
	if _, ok := b.expanded[e]; ok {
		return false
	}
	binding := bind(e)
	binding.Edge = e
	if err := validate(binding); err != nil {
		b.errs = append(b.errs, err)
		return false
	}
	b.expanded[e] = binding
	return true
}

// ExpandPairs binds every ordered pair of distinct formats within set.
// It returns the number of edges it contributed.
func (b *Builder) ExpandPairs(set []formats.Format, bind func(Edge) Binding) int {
	n := 0
	for _, src := range set {
		for _, dst := range set {
			if b.expand(Edge{src, dst}, bind) {
				n++
			}
		}
	}
	return n
}

// ExpandProduct binds every source to every target, skipping self-pairs.
func (b *Builder) ExpandProduct(sources, targets []formats.Format, bind func(Edge) Binding) int {
	n := 0
	for _, src := range sources {
		for _, dst := range targets {
			if b.expand(Edge{src, dst}, bind) {
				n++
			}
		}
	}
	return n
}

// Build freezes the accumulated bindings.
func (b *Builder) Build() (*Registry, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	merged := make(map[Edge]Binding, len(b.explicit)+len(b.expanded))
	for e, binding := range b.expanded {
		merged[e] = binding
	}
	for e, binding := range b.explicit {
		merged[e] = binding
	}
	return newRegistry(merged), nil
}
