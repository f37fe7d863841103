// Package registry maps (source, target) format pairs onto the strategies
// able to perform that conversion.
package registry

import (
	"fmt"
	"sort"

	flanksourceContext "github.com/flanksource/commons/context"

	"github.com/flanksource/transmute/capabilities"
	"github.com/flanksource/transmute/formats"
)

type Context = flanksourceContext.Context

// Edge is a directed conversion from Source to Target.
type Edge struct {
	Source formats.Format `json:"source"`
	Target formats.Format `json:"target"`
}

func (e Edge) String() string {
	return fmt.Sprintf("%s->%s", e.Source, e.Target)
}

// Strategy performs one conversion attempt, writing the result to out.
// Strategies must not leave out behind when they return an error.
type Strategy interface {
	Name() string
	Convert(ctx Context, in, out string) error
}

// Requirer is implemented by strategies that depend on external tools.
type Requirer interface {
	Requires() []capabilities.Tool
}

// Degrader is implemented by strategies whose output stands in for a render
// that could not be produced.
type Degrader interface {
	Degraded() bool
}

// Binding is what the registry stores for an edge. A single-strategy
// binding is a chain of length one.
type Binding struct {
	Edge       Edge
	Strategies []Strategy
	// Lossy marks edges that cannot preserve the source's structure.
	Lossy bool
	// Family names the handler family, e.g. "image" or "video".
	Family string
}

func (b Binding) IsChain() bool { return len(b.Strategies) > 1 }

// StrategyNames lists the chain in attempt order.
func (b Binding) StrategyNames() []string {
	names := make([]string, len(b.Strategies))
	for i, s := range b.Strategies {
		names[i] = s.Name()
	}
	return names
}

// Registry is immutable once built and safe for concurrent lookups.
type Registry struct {
	bindings map[Edge]Binding
	targets  map[formats.Format][]formats.Format
	edges    []Edge
}

func (r *Registry) IsConvertible(src, dst formats.Format) bool {
	_, ok := r.bindings[Edge{src, dst}]
	return ok
}

func (r *Registry) HandlerFor(src, dst formats.Format) (Binding, bool) {
	b, ok := r.bindings[Edge{src, dst}]
	return b, ok
}

// ConvertibleTargets returns a sorted copy of the targets reachable from src.
func (r *Registry) ConvertibleTargets(src formats.Format) []formats.Format {
	return append([]formats.Format(nil), r.targets[src]...)
}

// Edges returns every registered edge sorted by source then target.
func (r *Registry) Edges() []Edge {
	return append([]Edge(nil), r.edges...)
}

func (r *Registry) Len() int { return len(r.bindings) }

// Sources returns every format with at least one outgoing edge.
func (r *Registry) Sources() []formats.Format {
	out := make([]formats.Format, 0, len(r.targets))
	for src := range r.targets {
		out = append(out, src)
	}
	return formats.Sorted(out)
}

func newRegistry(bindings map[Edge]Binding) *Registry {
	r := &Registry{
		bindings: make(map[Edge]Binding, len(bindings)),
		targets:  map[formats.Format][]formats.Format{},
	}
	for e, b := range bindings {
		r.bindings[e] = b
		r.targets[e.Source] = append(r.targets[e.Source], e.Target)
		r.edges = append(r.edges, e)
	}
	for src, dsts := range r.targets {
		r.targets[src] = formats.Sorted(dsts)
	}
	sort.Slice(r.edges, func(i, j int) bool {
		if r.edges[i].Source != r.edges[j].Source {
			return r.edges[i].Source < r.edges[j].Source
		}
		return r.edges[i].Target < r.edges[j].Target
	})
	return r
}
