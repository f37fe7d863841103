// Package shutdown turns interrupt signals into context cancellation and
// runs cleanup hooks once on the way out.
package shutdown

import (
	"container/heap"
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/flanksource/commons/logger"
)

const (
	PriorityDefault = 100
	// PriorityBrowser closes the headless browser after conversions stop.
	PriorityBrowser = 200
	// PriorityTempDirs removes staging directories left by interrupted
	// conversions.
	PriorityTempDirs = 300
)

type Hook struct {
	label    string
	priority int
	fn       func()
	index    int // for heap interface
}

type HookHeap []*Hook

func (h HookHeap) Len() int           { return len(h) }
func (h HookHeap) Less(i, j int) bool { return h[i].priority < h[j].priority }
func (h HookHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *HookHeap) Push(x interface{}) {
	n := len(*h)
	item := x.(*Hook)
	item.index = n
	*h = append(*h, item)
}

func (h *HookHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil  // avoid memory leak
	item.index = -1 // for safety
	*h = old[0 : n-1]
	return item
}

var (
	hooks    HookHeap
	hooksMux sync.Mutex
	exit     = os.Exit
)

// AddHook registers a shutdown hook with default priority
func AddHook(label string, fn func()) {
	AddHookWithPriority(label, PriorityDefault, fn)
}

// AddHookWithPriority registers a shutdown hook with specific priority
func AddHookWithPriority(label string, priority int, fn func()) {
	hooksMux.Lock()
	defer hooksMux.Unlock()

	heap.Push(&hooks, &Hook{
		label:    label,
		priority: priority,
		fn:       fn,
	})
}

// Shutdown executes all registered hooks in priority order. Each hook runs
// at most once.
func Shutdown() {
	hooksMux.Lock()
	defer hooksMux.Unlock()

	if len(hooks) == 0 {
		return
	}

	logger.Debugf("Executing %d shutdown hooks", len(hooks))

	for hooks.Len() > 0 {
		hook := heap.Pop(&hooks).(*Hook)
		logger.Debugf("Executing shutdown hook: %s (priority=%d)", hook.label, hook.priority)

		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Errorf("Panic in shutdown hook %s: %v", hook.label, r)
				}
			}()
			hook.fn()
		}()
	}
}

// WithSignals returns a context cancelled by the first SIGINT or SIGTERM.
// A running batch finishes its current file and stops. A second signal runs
// the hooks and exits immediately. stop releases the signal handler.
func WithSignals(parent context.Context) (ctx context.Context, stop func()) {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	go watch(sigs, cancel, done)

	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			signal.Stop(sigs)
			close(done)
			cancel()
		})
	}
}

func watch(sigs <-chan os.Signal, cancel context.CancelFunc, done <-chan struct{}) {
	select {
	case sig := <-sigs:
		fmt.Fprintf(os.Stderr, "\nReceived %s, stopping after the current file\n", sig)
		fmt.Fprintf(os.Stderr, "Press Ctrl+C again to force immediate exit\n")
		cancel()
	case <-done:
		return
	}
	select {
	case <-sigs:
		fmt.Fprintf(os.Stderr, "\nForce exit\n")
		Shutdown()
		exit(130)
	case <-done:
	}
}
