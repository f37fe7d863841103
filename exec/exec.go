package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/flanksource/commons/logger"
)

// ErrTimeout is matched by every TimeoutError.
var ErrTimeout = errors.New("external tool timed out")

type TimeoutError struct {
	Cmd     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s did not finish within %s", e.Cmd, e.Timeout)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

type Process struct {
	Started  *time.Time
	Duration time.Duration
	Env      map[string]string
	Cwd      string
	Err      error
	ExitCode int
	Log      logger.Logger
	Stderr   bytes.Buffer
	Stdout   bytes.Buffer
	Stdin    io.Reader
	Cmd      string
	Args     []string
	Timeout  time.Duration
}

// Command builds a process for cmd. Arguments are passed verbatim, never
// through a shell.
func Command(cmd string, args ...string) Process {
	return Process{Cmd: cmd, Args: args}
}

func (p Process) Out() string {
	return p.Stderr.String() + p.Stdout.String()
}

func (p Process) WithEnv(env map[string]string) Process {
	p.Env = env
	return p
}

func (p Process) WithCwd(cwd string) Process {
	p.Cwd = cwd
	return p
}

func (p Process) WithLogger(log logger.Logger) Process {
	p.Log = log
	return p
}

func (p Process) WithTimeout(timeout time.Duration) Process {
	p.Timeout = timeout
	return p
}

func (p Process) Name() string {
	return p.Cmd
}

func (p Process) String() string {
	if len(p.Args) == 0 {
		return p.Cmd
	}
	return p.Cmd + " " + strings.Join(p.Args, " ")
}

// Run executes the process to completion. A non-zero Timeout bounds the run
// and is reported as a *TimeoutError.
func (p Process) Run(ctx context.Context) Process {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, p.Cmd, p.Args...)
	cmd.Dir = p.Cwd
	cmd.Stdout = &p.Stdout
	cmd.Stderr = &p.Stderr
	cmd.Stdin = p.Stdin
	cmd.WaitDelay = 5 * time.Second
	if len(p.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range p.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}

	if p.Log != nil {
		p.Log.Debugf("exec: %s", p)
	}
	now := time.Now()
	p.Started = &now
	err := cmd.Run()
	p.Duration = time.Since(now)
	if cmd.ProcessState != nil {
		p.ExitCode = cmd.ProcessState.ExitCode()
	}

	switch {
	case err == nil:
	case p.Timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded):
		p.Err = &TimeoutError{Cmd: p.Cmd, Timeout: p.Timeout}
	default:
		p.Err = fmt.Errorf("%s: %w%s", p.Cmd, err, tail(p.Out()))
	}
	return p
}

func (p Process) IsOK() bool {
	return p.Err == nil && p.ExitCode == 0
}

func tail(out string) string {
	out = strings.TrimSpace(out)
	if out == "" {
		return ""
	}
	const max = 512
	if len(out) > max {
		out = "..." + out[len(out)-max:]
	}
	return ": " + out
}
