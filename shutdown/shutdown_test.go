package shutdown

import (
	"context"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHooksRunInPriorityOrderOnce(t *testing.T) {
	var order []string
	AddHookWithPriority("temp", PriorityTempDirs, func() { order = append(order, "temp") })
	AddHookWithPriority("browser", PriorityBrowser, func() { order = append(order, "browser") })
	AddHook("panics", func() { panic("boom") })
	AddHook("default", func() { order = append(order, "default") })

	Shutdown()
	Shutdown()
	assert.Equal(t, []string{"default", "browser", "temp"}, order)
}

func TestFirstSignalCancelsSecondExits(t *testing.T) {
	var code atomic.Int32
	code.Store(-1)
	exited := make(chan struct{})
	exit = func(c int) {
		code.Store(int32(c))
		close(exited)
	}
	t.Cleanup(func() { exit = os.Exit })

	var ran atomic.Bool
	AddHook("flag", func() { ran.Store(true) })

	sigs := make(chan os.Signal, 2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go watch(sigs, cancel, done)

	sigs <- syscall.SIGTERM
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context was not cancelled")
	}
	assert.Equal(t, int32(-1), code.Load())

	sigs <- os.Interrupt
	select {
	case <-exited:
	case <-time.After(5 * time.Second):
		t.Fatal("second signal did not exit")
	}
	assert.Equal(t, int32(130), code.Load())
	assert.True(t, ran.Load())
}

func TestStopReleasesWithoutCancellingParent(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx, stop := WithSignals(parent)
	stop()
	stop()
	require.Error(t, ctx.Err())
	assert.NoError(t, parent.Err())
}
