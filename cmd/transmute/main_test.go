package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCommand()
	cmd.SetArgs(append(args, "--disable-tool", "playwright", "--no-color"))
	return cmd.Execute()
}

func TestConvertCommand(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile("notes.txt", []byte("hello\n"), 0o644))

	require.NoError(t, run(t, "convert", "notes.txt", "notes.html"))
	assert.FileExists(t, "notes.html")

	require.NoError(t, run(t, "convert", "notes.txt", "--to", "docx", "--output-dir", "out"))
	assert.FileExists(t, filepath.Join("out", "notes.docx"))

	assert.Error(t, run(t, "convert", "notes.txt", "notes.mp4"))
	assert.Error(t, run(t, "convert", "notes.txt"))
	assert.Error(t, run(t, "convert", "notes.txt", "--to", "nope"))
}

func TestBatchCommand(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	require.NoError(t, os.Mkdir("in", 0o755))
	for _, n := range []string{"a.txt", "b.txt", "c.bin"} {
		require.NoError(t, os.WriteFile(filepath.Join("in", n), []byte("text\n"), 0o644))
	}

	require.NoError(t, run(t, "batch", "in", "--to", "html", "--output-dir", "out", "--json"))
	assert.FileExists(t, filepath.Join("out", "a.html"))
	assert.FileExists(t, filepath.Join("out", "b.html"))

	assert.Error(t, run(t, "batch", "in"), "--to is required")
}

func TestListingCommands(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	assert.NoError(t, run(t, "formats", "--yaml"))
	assert.NoError(t, run(t, "conversions", "svg", "--csv"))
	assert.Error(t, run(t, "conversions", "nope"))
	require.NoError(t, os.WriteFile("notes.txt", []byte("hello\n"), 0o644))
	assert.Error(t, run(t, "info", "notes.txt"), "not a media file")
	assert.NoError(t, run(t, "version"))
}
