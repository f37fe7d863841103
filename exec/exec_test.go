package exec

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	if _, err := Default.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestRunCapturesOutput(t *testing.T) {
	requireShell(t)
	p := Command("sh", "-c", "echo out; echo err >&2").Run(context.Background())
	require.NoError(t, p.Err)
	assert.True(t, p.IsOK())
	assert.Equal(t, "out\n", p.Stdout.String())
	assert.Equal(t, "err\n", p.Stderr.String())
	assert.NotNil(t, p.Started)
}

func TestRunReportsExitStatus(t *testing.T) {
	requireShell(t)
	p := Command("sh", "-c", "echo broken >&2; exit 3").Run(context.Background())
	require.Error(t, p.Err)
	assert.False(t, p.IsOK())
	assert.Equal(t, 3, p.ExitCode)
	assert.Contains(t, p.Err.Error(), "broken")
}

func TestRunTimeout(t *testing.T) {
	requireShell(t)
	p := Command("sh", "-c", "exec sleep 5").WithTimeout(100 * time.Millisecond).Run(context.Background())
	require.Error(t, p.Err)
	assert.True(t, errors.Is(p.Err, ErrTimeout))
	var te *TimeoutError
	require.ErrorAs(t, p.Err, &te)
	assert.Equal(t, 100*time.Millisecond, te.Timeout)
}

func TestRunEnv(t *testing.T) {
	requireShell(t)
	p := Command("sh", "-c", "printf %s \"$TRANSMUTE_TEST\"").
		WithEnv(map[string]string{"TRANSMUTE_TEST": "hello"}).
		Run(context.Background())
	require.NoError(t, p.Err)
	assert.Equal(t, "hello", p.Stdout.String())
}

func TestRecordingRunner(t *testing.T) {
	r := &RecordingRunner{
		Paths: map[string]string{"ffmpeg": "/usr/bin/ffmpeg"},
		Handler: func(p Process) Process {
			p.Err = errors.New("boom")
			return p
		},
	}
	path, err := r.LookPath("ffmpeg")
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/ffmpeg", path)
	_, err = r.LookPath("inkscape")
	assert.Error(t, err)

	p := r.Run(context.Background(), Command("ffmpeg", "-i", "a", "b"))
	assert.EqualError(t, p.Err, "boom")
	calls := r.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"-i", "a", "b"}, calls[0].Args)
}
