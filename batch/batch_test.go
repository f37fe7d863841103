package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flanksource/transmute/engine"
	"github.com/flanksource/transmute/formats"
	"github.com/flanksource/transmute/registry"
)

type stubConverter struct {
	calls []string
	fail  map[string]bool
	after func(n int)
}

func (s *stubConverter) Convert(_ context.Context, in, out string, src, dst formats.Format) engine.Result {
	s.calls = append(s.calls, filepath.Base(in))
	defer func() {
		if s.after != nil {
			s.after(len(s.calls))
		}
	}()
	edge := registry.Edge{Source: src, Target: dst}
	if s.fail[filepath.Base(in)] {
		return engine.Result{Input: in, Edge: edge, Err: &engine.ConversionError{Kind: engine.ErrExhaustedFallbacks, Edge: edge, Input: in}}
	}
	if err := os.WriteFile(out, []byte("converted"), 0o644); err != nil {
		return engine.Result{Input: in, Edge: edge, Err: err}
	}
	return engine.Result{Input: in, Output: out, Edge: edge, Success: true, Strategy: "stub"}
}

func noop(registry.Context, string, string) error { return nil }

func pdfRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	b := registry.NewBuilder()
	for _, src := range []formats.Format{formats.TXT, formats.MD, formats.PNG, formats.HTML} {
		b.Bind(src, formats.PDF, "document", false, registry.Func{Label: "noop", Fn: noop})
	}
	reg, err := b.Build()
	require.NoError(t, err)
	return reg
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		path := filepath.Join(dir, n)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}
}

func options(t *testing.T, in string) Options {
	return Options{
		InputDir:  in,
		OutputDir: filepath.Join(t.TempDir(), "out"),
		Target:    formats.PDF,
		Registry:  pdfRegistry(t),
	}
}

func TestOnlyConvertibleFilesAreAttempted(t *testing.T) {
	in := t.TempDir()
	touch(t, in, "a.txt", "b.md", "c.png", "song.mp3", "notes.unknown")

	conv := &stubConverter{}
	summary, err := ConvertDir(context.Background(), conv, options(t, in))
	require.NoError(t, err)

	assert.Equal(t, []string{"a.txt", "b.md", "c.png"}, conv.calls)
	assert.Equal(t, 3, summary.Attempted())
	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 2, summary.Skipped)
	assert.False(t, summary.Truncated)
	assert.NotEmpty(t, summary.ID)
}

func TestCapTruncates(t *testing.T) {
	in := t.TempDir()
	touch(t, in, "1.txt", "2.txt", "3.txt", "4.txt", "5.txt")

	opts := options(t, in)
	opts.Cap = 2
	job, err := Collect(opts)
	require.NoError(t, err)
	assert.Len(t, job.Items, 2)
	assert.Equal(t, 5, job.Discovered)
	assert.True(t, job.Truncated)

	conv := &stubConverter{}
	summary := Run(context.Background(), conv, job)
	assert.Equal(t, []string{"1.txt", "2.txt"}, conv.calls)
	assert.Equal(t, 2, summary.Succeeded)
	assert.True(t, summary.Truncated)
}

func TestCapDefaultsAndUnlimited(t *testing.T) {
	in := t.TempDir()
	for i := 0; i < DefaultCap+3; i++ {
		touch(t, in, filepath.Join("many", string(rune('a'+i/26))+string(rune('a'+i%26))+".txt"))
	}

	job, err := Collect(options(t, in))
	require.NoError(t, err)
	assert.Len(t, job.Items, DefaultCap)
	assert.True(t, job.Truncated)

	opts := options(t, in)
	opts.Cap = -1
	job, err = Collect(opts)
	require.NoError(t, err)
	assert.Len(t, job.Items, DefaultCap+3)
	assert.False(t, job.Truncated)
}

func TestNestedOutputDirIsExcluded(t *testing.T) {
	in := t.TempDir()
	touch(t, in, "a.txt", "converted_files/old.txt", ".transmute-123/attempt-0.txt", "sub/b.txt")

	opts := options(t, in)
	opts.OutputDir = filepath.Join(in, "converted_files")
	job, err := Collect(opts)
	require.NoError(t, err)

	var inputs []string
	for _, item := range job.Items {
		rel, err := filepath.Rel(in, item.Input)
		require.NoError(t, err)
		inputs = append(inputs, rel)
	}
	assert.Equal(t, []string{"a.txt", filepath.Join("sub", "b.txt")}, inputs)
}

func TestDuplicateStemsAreDisambiguated(t *testing.T) {
	in := t.TempDir()
	touch(t, in, "report.md", "report.txt", "x/report.html")

	opts := options(t, in)
	job, err := Collect(opts)
	require.NoError(t, err)
	require.Len(t, job.Items, 3)

	var names []string
	for _, item := range job.Items {
		assert.Equal(t, opts.OutputDir, filepath.Dir(item.Output))
		names = append(names, filepath.Base(item.Output))
	}
	assert.Equal(t, []string{"report.pdf", "report_1.pdf", "report_2.pdf"}, names)
}

func TestFailureDoesNotStopBatch(t *testing.T) {
	in := t.TempDir()
	touch(t, in, "a.txt", "b.txt", "c.txt")

	var seen []string
	opts := options(t, in)
	opts.OnResult = func(item Item, res engine.Result) { seen = append(seen, filepath.Base(item.Input)) }
	conv := &stubConverter{fail: map[string]bool{"b.txt": true}}
	summary, err := ConvertDir(context.Background(), conv, opts)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.True(t, summary.HasFailures())
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, seen)
	require.Len(t, summary.Results, 3)
	assert.True(t, errors.Is(summary.Results[1].Err, engine.ErrExhaustedFallbacks))
	assert.FileExists(t, filepath.Join(opts.OutputDir, "c.pdf"))
	assert.NoFileExists(t, filepath.Join(opts.OutputDir, "b.pdf"))
}

func TestAllFailuresStillSummarized(t *testing.T) {
	in := t.TempDir()
	touch(t, in, "a.txt", "b.txt")

	conv := &stubConverter{fail: map[string]bool{"a.txt": true, "b.txt": true}}
	summary, err := ConvertDir(context.Background(), conv, options(t, in))
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Succeeded)
	assert.Equal(t, 2, summary.Failed)
}

func TestCancellationStopsAtFileBoundary(t *testing.T) {
	in := t.TempDir()
	touch(t, in, "a.txt", "b.txt", "c.txt")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	conv := &stubConverter{after: func(n int) {
		if n == 1 {
			cancel()
		}
	}}
	summary, err := ConvertDir(ctx, conv, options(t, in))
	require.NoError(t, err)

	assert.Equal(t, []string{"a.txt"}, conv.calls)
	assert.True(t, summary.Cancelled)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Len(t, summary.Results, 1)
}

func TestCollectErrors(t *testing.T) {
	_, err := Collect(Options{InputDir: t.TempDir(), Target: formats.PDF})
	assert.Error(t, err, "registry is required")

	opts := options(t, filepath.Join(t.TempDir(), "missing"))
	_, err = Collect(opts)
	assert.Error(t, err)

	opts = options(t, t.TempDir())
	opts.Target = "nope"
	_, err = Collect(opts)
	assert.Error(t, err)
}

func TestEmptyDirectory(t *testing.T) {
	opts := options(t, t.TempDir())
	summary, err := ConvertDir(context.Background(), &stubConverter{}, opts)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Attempted())
	assert.NoDirExists(t, opts.OutputDir)
}

func TestWithEngine(t *testing.T) {
	in := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(in, "a.txt"), []byte("hello"), 0o644))

	reg, err := registry.NewBuilder().Bind(formats.TXT, formats.MD, "document", false, registry.Func{
		Label: "copy",
		Fn: func(_ registry.Context, in, out string) error {
			data, err := os.ReadFile(in)
			if err != nil {
				return err
			}
			return os.WriteFile(out, data, 0o644)
		},
	}).Build()
	require.NoError(t, err)

	opts := Options{InputDir: in, OutputDir: filepath.Join(in, "converted_files"), Target: formats.MD, Registry: reg}
	summary, err := ConvertDir(context.Background(), engine.New(engine.Options{Registry: reg}), opts)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Succeeded, summary.Results)
	data, err := os.ReadFile(filepath.Join(in, "converted_files", "a.md"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}
