// Package container runs tools inside docker or podman when they are not
// installed on the host.
package container

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/flanksource/transmute/exec"
)

const (
	binDocker = "docker"
	binPodman = "podman"
)

// probeTimeout bounds the `info` and image checks.
const probeTimeout = 10 * time.Second

// Mount binds a host directory into the container.
type Mount struct {
	Source   string
	Target   string
	ReadOnly bool
}

func (m Mount) String() string {
	s := m.Source + ":" + m.Target
	if m.ReadOnly {
		s += ":ro"
	}
	return s
}

// Runtime is a docker or podman binary. Both accept the same run syntax and
// differ only in how an image is checked for.
type Runtime struct {
	bin    string
	runner exec.Runner
}

// New wraps the binary at path. The runtime kind is taken from its base
// name; anything that is not podman is driven as docker.
func New(path string, runner exec.Runner) *Runtime {
	if runner == nil {
		runner = exec.Default
	}
	return &Runtime{bin: path, runner: runner}
}

// Name returns "docker" or "podman".
func (r *Runtime) Name() string {
	if strings.HasPrefix(strings.ToLower(filepath.Base(r.bin)), binPodman) {
		return binPodman
	}
	return binDocker
}

// Available reports whether the daemon (or podman machine) answers `info`.
func (r *Runtime) Available(ctx context.Context) bool {
	p := r.runner.Run(ctx, exec.Command(r.bin, "info").WithTimeout(probeTimeout))
	return p.Err == nil
}

func (r *Runtime) imageCheck() []string {
	if r.Name() == binPodman {
		return []string{"image", "exists"}
	}
	return []string{"image", "inspect"}
}

// ImageExists returns nil when image is present locally.
func (r *Runtime) ImageExists(ctx context.Context, image string) error {
	args := append(r.imageCheck(), image)
	if p := r.runner.Run(ctx, exec.Command(r.bin, args...).WithTimeout(probeTimeout)); p.Err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, r.Name(), p.Err)
	}
	return nil
}

// RunOptions describes one `run --rm` invocation.
type RunOptions struct {
	Image   string
	Mounts  []Mount
	Args    []string
	Timeout time.Duration
}

// args is the full argument list passed to the runtime binary.
func (o RunOptions) args() []string {
	args := []string{"run", "--rm"}
	for _, m := range o.Mounts {
		args = append(args, "-v", m.String())
	}
	args = append(args, o.Image)
	return append(args, o.Args...)
}

// Run starts the container and waits for it, bounded by opts.Timeout.
func (r *Runtime) Run(ctx context.Context, opts RunOptions) exec.Process {
	p := r.runner.Run(ctx, exec.Command(r.bin, opts.args()...).WithTimeout(opts.Timeout))
	if p.Err != nil {
		p.Err = fmt.Errorf("running %s container %s: %w", r.Name(), opts.Image, p.Err)
	}
	return p
}

// Detect tries docker first and falls back to podman. A runtime counts only
// when its binary is on PATH and it answers `info`.
func Detect(ctx context.Context, runner exec.Runner) (*Runtime, error) {
	if runner == nil {
		runner = exec.Default
	}
	for _, bin := range []string{binDocker, binPodman} {
		path, err := runner.LookPath(bin)
		if err != nil {
			continue
		}
		if rt := New(path, runner); rt.Available(ctx) {
			return rt, nil
		}
	}
	return nil, fmt.Errorf(
		"no container runtime available: neither %s nor %s found or operational",
		binDocker, binPodman,
	)
}
