package converters

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flanksource/transmute/capabilities"
	"github.com/flanksource/transmute/engine"
	"github.com/flanksource/transmute/exec"
	"github.com/flanksource/transmute/formats"
	"github.com/flanksource/transmute/registry"
	"github.com/flanksource/transmute/testutil"
)

func newTestRegistry(t *testing.T, opts Options) (*Converters, *registry.Registry) {
	t.Helper()
	c := New(opts)
	t.Cleanup(func() { _ = c.Close() })
	reg, err := c.Registry()
	require.NoError(t, err)
	return c, reg
}

func TestRegistryHasNoSelfEdges(t *testing.T) {
	_, reg := newTestRegistry(t, Options{})
	for _, f := range formats.Default().All() {
		assert.False(t, reg.IsConvertible(f, f), "%s converts to itself", f)
	}
	for _, e := range reg.Edges() {
		b, ok := reg.HandlerFor(e.Source, e.Target)
		require.True(t, ok, e.String())
		assert.NotEmpty(t, b.Strategies, e.String())
	}
}

func TestMediaExpansion(t *testing.T) {
	_, reg := newTestRegistry(t, Options{})
	video := formats.Default().ByFamily(formats.FamilyVideo)
	audio := formats.Default().ByFamily(formats.FamilyAudio)
	require.Len(t, video, 9)
	require.Len(t, audio, 7)

	var videoVideo, videoAudio, videoGIF, audioAudio int
	for _, e := range reg.Edges() {
		src, dst := formats.Default().Family(e.Source), formats.Default().Family(e.Target)
		switch {
		case src == formats.FamilyVideo && dst == formats.FamilyVideo:
			videoVideo++
		case src == formats.FamilyVideo && dst == formats.FamilyAudio:
			videoAudio++
		case src == formats.FamilyVideo && e.Target == formats.GIF:
			videoGIF++
		case src == formats.FamilyAudio && dst == formats.FamilyAudio:
			audioAudio++
		}
	}
	assert.Equal(t, 9*8, videoVideo)
	assert.Equal(t, 9*7, videoAudio)
	assert.Equal(t, 9, videoGIF)
	assert.Equal(t, 7*6, audioAudio)

	b, _ := reg.HandlerFor(formats.MP4, formats.MKV)
	assert.Equal(t, []string{"ffmpeg", "ffmpeg-container"}, b.StrategyNames())
	assert.True(t, b.Lossy)

	b, _ = reg.HandlerFor(formats.MP3, formats.FLAC)
	assert.False(t, b.Lossy)
}

func TestChains(t *testing.T) {
	_, reg := newTestRegistry(t, Options{})
	tests := []struct {
		src, dst formats.Format
		want     []string
	}{
		{formats.DOCX, formats.PDF, []string{"office-automation", "libreoffice", "text-render"}},
		{formats.RTF, formats.PDF, []string{"office-automation", "libreoffice", "text-render"}},
		{formats.ODT, formats.PDF, []string{"office-automation", "libreoffice", "text-render"}},
		{formats.HTML, formats.PDF, []string{"playwright", "libreoffice", "text-render"}},
		{formats.MD, formats.PDF, []string{"playwright", "text-render"}},
		{formats.XLSX, formats.PDF, []string{"libreoffice", "table-render"}},
		{formats.CSV, formats.PDF, []string{"libreoffice", "table-render"}},
		{formats.SVG, formats.PNG, []string{"inkscape", "rsvg-convert", "imagemagick", "playwright", "oksvg", "placeholder"}},
		{formats.SVG, formats.JPG, []string{"inkscape", "rsvg-convert", "imagemagick", "playwright", "oksvg", "placeholder"}},
		{formats.SVG, formats.PDF, []string{"inkscape", "rsvg-convert", "playwright", "oksvg", "placeholder"}},
		{formats.PNG, formats.ICO, []string{"raster"}},
		{formats.TIFF, formats.PDF, []string{"image-pdf"}},
		{formats.HTML, formats.MD, []string{"html-to-markdown"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.src)+"->"+string(tt.dst), func(t *testing.T) {
			b, ok := reg.HandlerFor(tt.src, tt.dst)
			require.True(t, ok)
			assert.Equal(t, tt.want, b.StrategyNames())
		})
	}
}

func TestAsymmetricEdges(t *testing.T) {
	_, reg := newTestRegistry(t, Options{})
	assert.True(t, reg.IsConvertible(formats.PNG, formats.ICO))
	assert.False(t, reg.IsConvertible(formats.JPG, formats.ICO))
	assert.True(t, reg.IsConvertible(formats.DOCX, formats.PDF))
	assert.True(t, reg.IsConvertible(formats.PDF, formats.DOCX))
	assert.False(t, reg.IsConvertible(formats.PDF, formats.PNG))
	assert.False(t, reg.IsConvertible(formats.MP3, formats.MP4))

	pdfDocx, _ := reg.HandlerFor(formats.PDF, formats.DOCX)
	assert.True(t, pdfDocx.Lossy)
	docxPDF, _ := reg.HandlerFor(formats.DOCX, formats.PDF)
	assert.False(t, docxPDF.Lossy)

	pngBMP, _ := reg.HandlerFor(formats.PNG, formats.BMP)
	assert.True(t, pngBMP.Lossy, "bmp drops alpha")
	bmpPNG, _ := reg.HandlerFor(formats.BMP, formats.PNG)
	assert.False(t, bmpPNG.Lossy)

	assert.Equal(t,
		[]formats.Format{formats.DOCX, formats.HTML, formats.PDF, formats.RTF},
		reg.ConvertibleTargets(formats.TXT))
}

func newTestEngine(t *testing.T, caps capabilities.Set, runner exec.Runner) *engine.Engine {
	t.Helper()
	_, reg := newTestRegistry(t, Options{Runner: runner, Capabilities: caps})
	return engine.New(engine.Options{Registry: reg, Capabilities: caps})
}

func TestDocxToPDFFallsBackToTextRender(t *testing.T) {
	runner := &exec.RecordingRunner{}
	e := newTestEngine(t, capabilities.Static(), runner)

	dir := t.TempDir()
	in := filepath.Join(dir, "report.docx")
	require.NoError(t, writeDOCX(sampleDoc, in))
	out := filepath.Join(dir, "out", "report.pdf")

	res := e.Convert(context.Background(), in, out, formats.DOCX, formats.PDF)
	require.True(t, res.Success, res.ErrorMessage())
	assert.Equal(t, "text-render", res.Strategy)
	assert.Empty(t, runner.Calls(), "no external tool is available")
	require.Len(t, res.Attempts, 3)
	assert.Equal(t, engine.AttemptSkipped, res.Attempts[0].Status)
	assert.Equal(t, engine.AttemptSkipped, res.Attempts[1].Status)
	testutil.AssertValidPDF(t, out)
}

func TestDocxToPDFUsesLibreOfficeWhenPresent(t *testing.T) {
	runner := &exec.RecordingRunner{Handler: func(p exec.Process) exec.Process {
		outdir := argAfter(p.Args, "--outdir")
		p.Err = writePDF(sampleDoc, filepath.Join(outdir, "report.pdf"))
		return p
	}}
	e := newTestEngine(t, capabilities.Static(capabilities.LibreOffice), runner)

	dir := t.TempDir()
	in := filepath.Join(dir, "report.docx")
	require.NoError(t, writeDOCX(sampleDoc, in))
	out := filepath.Join(dir, "report.pdf")

	res := e.Convert(context.Background(), in, out, formats.DOCX, formats.PDF)
	require.True(t, res.Success, res.ErrorMessage())
	assert.Equal(t, "libreoffice", res.Strategy)
	assert.Len(t, runner.Calls(), 1)
}

func TestSVGWithoutToolsRendersNatively(t *testing.T) {
	e := newTestEngine(t, capabilities.Static(), &exec.RecordingRunner{})
	dir := t.TempDir()
	in := testutil.WriteFile(t, dir, "logo.svg", testutil.SVG(64, 64))

	for _, dst := range []formats.Format{formats.PNG, formats.JPG, formats.PDF} {
		t.Run(string(dst), func(t *testing.T) {
			out := filepath.Join(dir, "logo."+string(dst))
			res := e.Convert(context.Background(), in, out, formats.SVG, dst)
			require.True(t, res.Success, res.ErrorMessage())
			assert.Equal(t, "oksvg", res.Strategy)
			assert.False(t, res.Degraded)
		})
	}
}

func TestBrokenSVGFallsBackToPlaceholder(t *testing.T) {
	e := newTestEngine(t, capabilities.Static(), &exec.RecordingRunner{})
	dir := t.TempDir()
	in := testutil.WriteFile(t, dir, "broken.svg", []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`))
	out := filepath.Join(dir, "broken.png")

	res := e.Convert(context.Background(), in, out, formats.SVG, formats.PNG)
	require.True(t, res.Success, res.ErrorMessage())
	assert.Equal(t, "placeholder", res.Strategy)
	assert.True(t, res.Degraded)

	img, err := decodeImage(out)
	require.NoError(t, err)
	assert.Equal(t, 512, img.Bounds().Dx())
}

func TestVideoWithoutTranscoderExhaustsChain(t *testing.T) {
	runner := &exec.RecordingRunner{}
	e := newTestEngine(t, capabilities.Static(), runner)
	dir := t.TempDir()
	in := testutil.WriteFile(t, dir, "clip.avi", []byte("RIFF....AVI LIST"))
	out := filepath.Join(dir, "clip.mp4")

	res := e.Convert(context.Background(), in, out, formats.AVI, formats.MP4)
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, engine.ErrExhaustedFallbacks)
	assert.ErrorIs(t, res.Err, engine.ErrToolUnavailable)
	assert.Empty(t, runner.Calls())
	assert.NoFileExists(t, out)
}

func TestUnsupportedEdgeInvokesNothing(t *testing.T) {
	runner := &exec.RecordingRunner{}
	e := newTestEngine(t, capabilities.Static(capabilities.Tools...), runner)
	dir := t.TempDir()
	in := testutil.WriteFile(t, dir, "song.mp3", []byte("ID3"))

	res := e.Convert(context.Background(), in, filepath.Join(dir, "song.docx"), formats.MP3, formats.DOCX)
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, engine.ErrUnsupportedConversion)
	assert.Empty(t, runner.Calls())
}

func TestTranscodeThroughEngine(t *testing.T) {
	runner := &exec.RecordingRunner{Handler: func(p exec.Process) exec.Process {
		out := p.Args[len(p.Args)-1]
		p.Err = os.WriteFile(out, []byte("ID3 fake audio"), 0o644)
		return p
	}}
	e := newTestEngine(t, capabilities.Static(capabilities.FFmpeg), runner)
	dir := t.TempDir()
	in := testutil.WriteFile(t, dir, "clip.wav", []byte("RIFF....WAVEfmt "))
	out := filepath.Join(dir, "clip.mp3")

	res := e.Convert(context.Background(), in, out, formats.WAV, formats.MP3)
	require.True(t, res.Success, res.ErrorMessage())
	assert.Equal(t, "ffmpeg", res.Strategy)
	assert.FileExists(t, out)
}
