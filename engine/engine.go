// Package engine executes registry bindings: it validates inputs, walks
// fallback chains in order, and publishes an output only once a strategy has
// produced a complete, verified file.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	flanksourceContext "github.com/flanksource/commons/context"
	"github.com/flanksource/commons/logger"
	"github.com/samber/lo"

	"github.com/flanksource/transmute/capabilities"
	"github.com/flanksource/transmute/formats"
	"github.com/flanksource/transmute/registry"
)

// DefaultMaxFileSize is the input size limit applied when Options leaves it
// unset.
const DefaultMaxFileSize = 100 << 20

const stagingPattern = ".transmute-*"

type Options struct {
	Formats      *formats.Registry
	Registry     *registry.Registry
	Capabilities capabilities.Set
	// MaxFileSize rejects larger inputs. Negative disables the limit.
	MaxFileSize int64
	Logger      logger.Logger
	// Verifiers override DefaultVerifiers, keyed by target format.
	Verifiers map[formats.Format]Verifier
}

type Engine struct {
	formats   *formats.Registry
	registry  *registry.Registry
	caps      capabilities.Set
	maxSize   int64
	log       logger.Logger
	verifiers map[formats.Format]Verifier

	mu      sync.Mutex
	staging map[string]struct{}
}

func New(opts Options) *Engine {
	e := &Engine{
		formats:   opts.Formats,
		registry:  opts.Registry,
		caps:      opts.Capabilities,
		maxSize:   opts.MaxFileSize,
		log:       opts.Logger,
		verifiers: opts.Verifiers,
		staging:   map[string]struct{}{},
	}
	if e.formats == nil {
		e.formats = formats.Default()
	}
	if e.maxSize == 0 {
		e.maxSize = DefaultMaxFileSize
	}
	if e.log == nil {
		e.log = logger.GetLogger("transmute")
	}
	if e.verifiers == nil {
		e.verifiers = DefaultVerifiers()
	}
	return e
}

type Attempt struct {
	Strategy string        `json:"strategy"`
	Status   AttemptStatus `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Result describes one conversion. Err is a *ConversionError whenever
// Success is false.
type Result struct {
	Input    string        `json:"input"`
	Output   string        `json:"output,omitempty"`
	Edge     registry.Edge `json:"edge"`
	Success  bool          `json:"success"`
	Strategy string        `json:"strategy,omitempty"`
	Degraded bool          `json:"degraded,omitempty"`
	Lossy    bool          `json:"lossy,omitempty"`
	Attempts []Attempt     `json:"attempts,omitempty"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

func (r Result) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Convert looks up the binding for src->dst, validates the input and runs
// the binding. Unsupported edges and invalid inputs fail before any strategy
// is invoked.
func (e *Engine) Convert(ctx context.Context, in, out string, src, dst formats.Format) Result {
	start := time.Now()
	edge := registry.Edge{Source: src, Target: dst}

	binding, ok := e.registry.HandlerFor(src, dst)
	if !ok {
		e.log.Debugf("no handler for %s", edge)
		return Result{Input: in, Edge: edge, Duration: time.Since(start),
			Err: &ConversionError{Kind: ErrUnsupportedConversion, Edge: edge, Input: in}}
	}
	if err := e.Validate(in, src); err != nil {
		e.log.Warnf("rejecting %s: %v", in, err)
		return Result{Input: in, Edge: edge, Lossy: binding.Lossy, Duration: time.Since(start),
			Err: &ConversionError{Kind: ErrInvalidInput, Edge: edge, Input: in, Err: err}}
	}
	return e.Execute(ctx, binding, in, out)
}

// Validate rejects missing and oversized inputs, and inputs whose content
// contradicts their extension. Empty files pass when the format has no
// content signature; empty binary inputs fail the sniff.
func (e *Engine) Validate(in string, src formats.Format) error {
	info, err := os.Stat(in)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", in)
	}
	if e.maxSize > 0 && info.Size() > e.maxSize {
		return fmt.Errorf("%s is %d bytes, the limit is %d", in, info.Size(), e.maxSize)
	}
	if err := e.formats.Sniff(in, src); err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	return nil
}

// Execute walks the binding's strategies in order. Each attempt writes into
// a private staging directory beside out; the first verified result is
// renamed onto out and everything else is discarded.
func (e *Engine) Execute(ctx context.Context, b registry.Binding, in, out string) (res Result) {
	start := time.Now()
	res = Result{Input: in, Edge: b.Edge, Lossy: b.Lossy}
	defer func() { res.Duration = time.Since(start) }()

	log := e.log.WithValues("input", filepath.Base(in), "edge", b.Edge.String())
	fail := func(kind, err error, attempts []*AttemptError) Result {
		res.Err = &ConversionError{Kind: kind, Edge: b.Edge, Input: in, Err: err, Attempts: attempts}
		return res
	}

	dir := filepath.Dir(out)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fail(ErrHandlerFailure, err, nil)
	}
	staging, err := os.MkdirTemp(dir, stagingPattern)
	if err != nil {
		return fail(ErrHandlerFailure, err, nil)
	}
	e.track(staging)
	defer e.release(staging)

	var failures []*AttemptError
	for i, s := range b.Strategies {
		name := s.Name()
		if err := ctx.Err(); err != nil {
			return fail(ErrHandlerFailure, err, failures)
		}
		if missing := e.missingTools(s); len(missing) > 0 {
			err := fmt.Errorf("%w: %s", ErrToolUnavailable, strings.Join(missing, ", "))
			log.Debugf("skipping %s: %v", name, err)
			failures = append(failures, &AttemptError{Strategy: name, Err: err})
			res.Attempts = append(res.Attempts, Attempt{Strategy: name, Status: AttemptSkipped, Error: err.Error()})
			continue
		}

		tmp := filepath.Join(staging, fmt.Sprintf("attempt-%d%s", i, filepath.Ext(out)))
		fctx := flanksourceContext.NewContext(ctx)
		fctx.Logger = log.WithValues("strategy", name)

		attemptStart := time.Now()
		err := e.attempt(fctx, s, in, tmp, b.Edge.Target)
		if err == nil {
			err = os.Rename(tmp, out)
		}
		attempt := Attempt{Strategy: name, Duration: time.Since(attemptStart)}
		if err != nil {
			_ = os.Remove(tmp)
			attempt.Status, attempt.Error = AttemptFailed, err.Error()
			res.Attempts = append(res.Attempts, attempt)
			failures = append(failures, &AttemptError{Strategy: name, Err: err})
			if i < len(b.Strategies)-1 {
				log.Warnf("%s failed, trying next strategy: %v", name, err)
			} else {
				log.Warnf("%s failed: %v", name, err)
			}
			continue
		}

		attempt.Status = AttemptSucceeded
		res.Attempts = append(res.Attempts, attempt)
		res.Success, res.Output, res.Strategy = true, out, name
		if registry.IsDegraded(s) {
			res.Degraded = true
			log.Warnf("placeholder output written to %s, the source could not be rendered", out)
		} else {
			log.Debugf("converted with %s in %s", name, attempt.Duration)
		}
		return res
	}

	kind := ErrHandlerFailure
	if b.IsChain() {
		kind = ErrExhaustedFallbacks
	} else if len(failures) == 1 && errors.Is(failures[0], ErrExternalToolTimeout) {
		kind = ErrExternalToolTimeout
	}
	return fail(kind, nil, failures)
}

func (e *Engine) attempt(ctx flanksourceContext.Context, s registry.Strategy, in, tmp string, target formats.Format) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrHandlerFailure, r)
		}
	}()
	if err := s.Convert(ctx, in, tmp); err != nil {
		return err
	}
	info, err := os.Stat(tmp)
	if err != nil {
		return fmt.Errorf("%w: no output written", ErrInvalidOutput)
	}
	if info.IsDir() || info.Size() == 0 {
		return fmt.Errorf("%w: output is empty", ErrInvalidOutput)
	}
	if verify := e.verifiers[target]; verify != nil {
		if err := verify(tmp); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidOutput, err)
		}
	}
	return nil
}

func (e *Engine) missingTools(s registry.Strategy) []string {
	missing := lo.Filter(registry.RequiredTools(s), func(t capabilities.Tool, _ int) bool {
		return !e.caps.Available(t)
	})
	return lo.Map(missing, func(t capabilities.Tool, _ int) string { return string(t) })
}

// Capabilities returns the tool snapshot strategies are gated on.
func (e *Engine) track(dir string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.staging[dir] = struct{}{}
}

func (e *Engine) release(dir string) {
	e.mu.Lock()
	delete(e.staging, dir)
	e.mu.Unlock()
	os.RemoveAll(dir)
}

// Cleanup removes the staging directories of conversions still in flight.
// It is meant for shutdown paths that exit without unwinding them.
func (e *Engine) Cleanup() {
	e.mu.Lock()
	dirs := lo.Keys(e.staging)
	e.staging = map[string]struct{}{}
	e.mu.Unlock()
	for _, dir := range dirs {
		if err := os.RemoveAll(dir); err != nil {
			e.log.Warnf("failed to remove %s: %v", dir, err)
		}
	}
}

func (e *Engine) Capabilities() capabilities.Set { return e.caps }

// Registry returns the bindings the engine resolves edges against.
func (e *Engine) Registry() *registry.Registry { return e.registry }
