package converters

import (
	"time"

	"github.com/flanksource/transmute/capabilities"
	"github.com/flanksource/transmute/formats"
	"github.com/flanksource/transmute/registry"
)

// Converters builds the handler registry and owns the resources its
// strategies share.
type Converters struct {
	opts    Options
	formats *formats.Registry
	browser *Browser
}

func New(opts Options) *Converters {
	return &Converters{
		opts:    opts.withDefaults(),
		formats: formats.Default(),
		browser: &Browser{},
	}
}

// Close releases the headless browser, if one was started.
func (c *Converters) Close() error {
	return c.browser.Close()
}

// Registry returns the complete handler table. Each call builds a fresh,
// immutable registry.
func (c *Converters) Registry() (*registry.Registry, error) {
	b := registry.NewBuilder()
	c.documents(b)
	c.spreadsheets(b)
	c.images(b)
	c.vectors(b)
	c.media(b)
	return b.Build()
}

const (
	familyDocument    = string(formats.FamilyDocument)
	familySpreadsheet = string(formats.FamilySpreadsheet)
	familyImage       = string(formats.FamilyImage)
	familyVector      = string(formats.FamilyVector)
	familyVideo       = string(formats.FamilyVideo)
	familyAudio       = string(formats.FamilyAudio)
)

var docReaders = map[formats.Format]docReader{
	formats.DOCX: readDOCX,
	formats.PDF:  readPDF,
	formats.TXT:  readTXT,
	formats.RTF:  readRTF,
	formats.HTML: readHTML,
	formats.ODT:  readODT,
	formats.MD:   readMarkdown,
}

var docWriters = map[formats.Format]docWriter{
	formats.TXT:  writeTXT,
	formats.DOCX: writeDOCX,
	formats.HTML: writeHTML,
	formats.RTF:  writeRTF,
	formats.PDF:  writePDF,
}

func textPipeline(src, dst formats.Format, fallback bool) pipeline {
	name := string(src) + "-to-" + string(dst)
	if dst == formats.PDF {
		name = "text-render"
	}
	return pipeline{name: name, read: docReaders[src], write: docWriters[dst], fallback: fallback}
}

func (c *Converters) office(src formats.Format) []registry.Strategy {
	t := c.opts.Timeouts.Document
	return []registry.Strategy{
		officeAutomation{runner: c.opts.Runner, caps: c.opts.Capabilities, timeout: t},
		c.libreOffice(src),
	}
}

func (c *Converters) libreOffice(src formats.Format) libreOffice {
	return libreOffice{runner: c.opts.Runner, caps: c.opts.Capabilities, timeout: c.opts.Timeouts.Document, source: src}
}

func (c *Converters) render(src, dst formats.Format) browserRender {
	return browserRender{browser: c.browser, source: src, target: dst, size: c.opts.Image.SVGSize, timeout: c.opts.Timeouts.Render}
}

func (c *Converters) documents(b *registry.Builder) {
	text := []struct {
		src, dst formats.Format
		lossy    bool
	}{
		{formats.DOCX, formats.TXT, true},
		{formats.DOCX, formats.HTML, true},
		{formats.DOCX, formats.RTF, true},
		{formats.PDF, formats.TXT, true},
		{formats.PDF, formats.DOCX, true},
		{formats.PDF, formats.HTML, true},
		{formats.TXT, formats.DOCX, false},
		{formats.TXT, formats.PDF, false},
		{formats.TXT, formats.HTML, false},
		{formats.TXT, formats.RTF, false},
		{formats.HTML, formats.DOCX, true},
		{formats.HTML, formats.TXT, true},
		{formats.RTF, formats.DOCX, true},
		{formats.RTF, formats.TXT, true},
		{formats.MD, formats.DOCX, true},
		{formats.ODT, formats.TXT, true},
	}
	for _, e := range text {
		b.Bind(e.src, e.dst, familyDocument, e.lossy, textPipeline(e.src, e.dst, false))
	}

	b.Bind(formats.HTML, formats.MD, familyDocument, true, htmlToMarkdownStrategy{})
	b.Bind(formats.MD, formats.HTML, familyDocument, false, markdownStrategy{})

	for _, src := range []formats.Format{formats.DOCX, formats.RTF, formats.ODT} {
		b.Bind(src, formats.PDF, familyDocument, false,
			append(c.office(src), textPipeline(src, formats.PDF, true))...)
	}
	b.Bind(formats.HTML, formats.PDF, familyDocument, false,
		c.render(formats.HTML, formats.PDF),
		c.libreOffice(formats.HTML),
		textPipeline(formats.HTML, formats.PDF, true))
	b.Bind(formats.MD, formats.PDF, familyDocument, false,
		c.render(formats.MD, formats.PDF),
		textPipeline(formats.MD, formats.PDF, true))
}

func (c *Converters) spreadsheets(b *registry.Builder) {
	b.Bind(formats.XLSX, formats.CSV, familySpreadsheet, true, tableConvert{source: formats.XLSX, target: formats.CSV})
	b.Bind(formats.CSV, formats.XLSX, familySpreadsheet, false, tableConvert{source: formats.CSV, target: formats.XLSX})
	for _, src := range []formats.Format{formats.XLSX, formats.CSV} {
		b.Bind(src, formats.PDF, familySpreadsheet, false, c.libreOffice(src), tableRender{source: src})
	}
}

var rasterTargets = map[formats.Format][]formats.Format{
	formats.PNG:  {formats.JPG, formats.PDF, formats.GIF, formats.BMP, formats.TIFF, formats.WEBP, formats.ICO},
	formats.JPG:  {formats.PNG, formats.PDF, formats.GIF, formats.BMP, formats.TIFF, formats.WEBP},
	formats.GIF:  {formats.PNG, formats.JPG, formats.PDF, formats.BMP, formats.TIFF, formats.WEBP},
	formats.BMP:  {formats.PNG, formats.JPG, formats.PDF, formats.GIF, formats.TIFF, formats.WEBP},
	formats.TIFF: {formats.PNG, formats.JPG, formats.PDF, formats.GIF, formats.BMP, formats.WEBP},
	formats.WEBP: {formats.PNG, formats.JPG, formats.PDF, formats.GIF, formats.BMP, formats.TIFF},
	formats.ICO:  {formats.PNG, formats.JPG, formats.PDF, formats.GIF, formats.BMP},
}

// rasterLossy reports whether encoding src as dst drops alpha, colours or
// detail.
func (c *Converters) rasterLossy(src, dst formats.Format) bool {
	switch dst {
	case formats.JPG, formats.GIF, formats.WEBP:
		return true
	}
	s, _ := c.formats.Spec(src)
	d, _ := c.formats.Spec(dst)
	return s.Alpha && !d.Alpha
}

func (c *Converters) images(b *registry.Builder) {
	for src, targets := range rasterTargets {
		for _, dst := range targets {
			var s registry.Strategy = rasterStrategy{target: dst, opts: c.opts.Image}
			if dst == formats.PDF {
				s = imagePDFStrategy{}
			}
			b.Bind(src, dst, familyImage, c.rasterLossy(src, dst), s)
		}
	}
}

func (c *Converters) svgTool(name string, tool capabilities.Tool, binary string,
	args func(in, out string, target formats.Format, size int) []string, target formats.Format) svgCommand {
	return svgCommand{
		name:    name,
		tool:    tool,
		binary:  binary,
		args:    args,
		runner:  c.opts.Runner,
		caps:    c.opts.Capabilities,
		timeout: c.opts.Timeouts.Render,
		target:  target,
		size:    c.opts.Image.SVGSize,
	}
}

// vectors binds svg sources. External renderers come first, then the
// browser, the in-process rasterizer and finally a placeholder.
func (c *Converters) vectors(b *registry.Builder) {
	img := c.opts.Image
	png := []registry.Strategy{
		c.svgTool("inkscape", capabilities.Inkscape, "inkscape", inkscapeArgs, formats.PNG),
		c.svgTool("rsvg-convert", capabilities.RSVG, "rsvg-convert", rsvgArgs, formats.PNG),
		c.svgTool("imagemagick", capabilities.ImageMagick, "magick", magickArgs, formats.PNG),
		c.render(formats.SVG, formats.PNG),
	}

	b.Bind(formats.SVG, formats.PNG, familyVector, false,
		append(png, nativeSVG{target: formats.PNG, opts: img}, placeholder{target: formats.PNG, opts: img})...)

	jpg := make([]registry.Strategy, 0, len(png)+2)
	for _, s := range png {
		jpg = append(jpg, rasterized{inner: s, target: formats.JPG, opts: img})
	}
	b.Bind(formats.SVG, formats.JPG, familyVector, true,
		append(jpg, nativeSVG{target: formats.JPG, opts: img}, placeholder{target: formats.JPG, opts: img})...)

	b.Bind(formats.SVG, formats.PDF, familyVector, false,
		c.svgTool("inkscape", capabilities.Inkscape, "inkscape", inkscapeArgs, formats.PDF),
		c.svgTool("rsvg-convert", capabilities.RSVG, "rsvg-convert", rsvgArgs, formats.PDF),
		c.render(formats.SVG, formats.PDF),
		nativeSVG{target: formats.PDF, opts: img},
		placeholder{target: formats.PDF, opts: img})
}

func (c *Converters) transcoders(e registry.Edge, timeout time.Duration) []registry.Strategy {
	t := transcode{edge: e, media: c.opts.Media, timeout: timeout}
	return []registry.Strategy{
		ffmpegLocal{transcode: t, runner: c.opts.Runner, caps: c.opts.Capabilities},
		ffmpegContainer{transcode: t, runner: c.opts.Runner, caps: c.opts.Capabilities, image: c.opts.Media.ContainerImage},
	}
}

// media expands the video and audio families: every video pair, every
// video to every audio format, every video to an animated gif, and every
// audio pair.
func (c *Converters) media(b *registry.Builder) {
	video := c.formats.ByFamily(formats.FamilyVideo)
	audio := c.formats.ByFamily(formats.FamilyAudio)
	t := c.opts.Timeouts

	b.ExpandPairs(video, func(e registry.Edge) registry.Binding {
		return registry.Binding{Family: familyVideo, Lossy: true, Strategies: c.transcoders(e, t.Video)}
	})
	b.ExpandProduct(video, audio, func(e registry.Edge) registry.Binding {
		return registry.Binding{Family: familyVideo, Lossy: true, Strategies: c.transcoders(e, t.Audio)}
	})
	b.ExpandProduct(video, []formats.Format{formats.GIF}, func(e registry.Edge) registry.Binding {
		return registry.Binding{Family: familyVideo, Lossy: true, Strategies: c.transcoders(e, t.Animation)}
	})
	b.ExpandPairs(audio, func(e registry.Edge) registry.Binding {
		lossless := e.Target == formats.FLAC || e.Target == formats.WAV
		return registry.Binding{Family: familyAudio, Lossy: !lossless, Strategies: c.transcoders(e, t.Audio)}
	})
}
