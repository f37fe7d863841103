package exec

import (
	"context"
	"os/exec"
	"sync"
)

// Runner starts external tools. Converters depend on it so tests can count
// and script invocations without touching the host.
type Runner interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, p Process) Process
}

type OSRunner struct{}

func (OSRunner) LookPath(file string) (string, error) { return exec.LookPath(file) }

func (OSRunner) Run(ctx context.Context, p Process) Process { return p.Run(ctx) }

// Default is the runner used when none is injected.
var Default Runner = OSRunner{}

// RecordingRunner is a scripted Runner. Paths lists binaries LookPath
// resolves; Handler, when set, decides the outcome of each Run.
type RecordingRunner struct {
	Paths   map[string]string
	Handler func(p Process) Process

	mu    sync.Mutex
	calls []Process
}

func (r *RecordingRunner) LookPath(file string) (string, error) {
	if path, ok := r.Paths[file]; ok {
		return path, nil
	}
	return "", &exec.Error{Name: file, Err: exec.ErrNotFound}
}

func (r *RecordingRunner) Run(_ context.Context, p Process) Process {
	r.mu.Lock()
	r.calls = append(r.calls, Process{Cmd: p.Cmd, Args: append([]string(nil), p.Args...), Timeout: p.Timeout})
	r.mu.Unlock()
	if r.Handler != nil {
		return r.Handler(p)
	}
	return p
}

// Calls returns a snapshot of recorded invocations.
func (r *RecordingRunner) Calls() []Process {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Process(nil), r.calls...)
}
