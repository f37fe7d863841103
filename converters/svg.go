package converters

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rustyoz/svg"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/flanksource/transmute/capabilities"
	"github.com/flanksource/transmute/exec"
	"github.com/flanksource/transmute/formats"
	"github.com/flanksource/transmute/registry"
)

// placeholderGrey is the fill of the stand-in image written when no
// renderer could handle a vector source.
var placeholderGrey = color.RGBA{R: 240, G: 240, B: 240, A: 255}

// svgSize reads the intrinsic size of an SVG from its root width/height,
// falling back to the viewBox. ok is false when neither is usable.
func svgSize(data []byte) (w, h float64, ok bool) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if err != nil {
			return 0, 0, false
		}
		el, isStart := tok.(xml.StartElement)
		if !isStart || el.Name.Local != "svg" {
			continue
		}
		w, wok := svgLength(attr(el, "width"))
		h, hok := svgLength(attr(el, "height"))
		if wok && hok {
			return w, h, true
		}
		parts := strings.FieldsFunc(attr(el, "viewBox"), func(r rune) bool { return r == ' ' || r == ',' })
		if len(parts) == 4 {
			vw, err1 := strconv.ParseFloat(parts[2], 64)
			vh, err2 := strconv.ParseFloat(parts[3], 64)
			if err1 == nil && err2 == nil && vw > 0 && vh > 0 {
				return vw, vh, true
			}
		}
		return 0, 0, false
	}
}

func svgLength(v string) (float64, bool) {
	v = strings.TrimSpace(v)
	for _, unit := range []string{"px", "pt", "mm", "cm", "in", "pc"} {
		v = strings.TrimSuffix(v, unit)
	}
	if v == "" || strings.HasSuffix(v, "%") {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	return f, err == nil && f > 0
}

// targetSize scales the intrinsic size so the longest side equals size.
func targetSize(w, h float64, size int) (int, int) {
	if w <= 0 || h <= 0 {
		return size, size
	}
	if w >= h {
		return size, max(1, int(math.Round(float64(size)*h/w)))
	}
	return max(1, int(math.Round(float64(size)*w/h))), size
}

// countDrawables reports how many top-level groups and elements the
// document declares. It only feeds the log; an empty document still renders
// as a blank image.
func countDrawables(data []byte) (int, error) {
	parsed, err := svg.ParseSvg(string(data), "input", 1.0)
	if err != nil {
		return 0, err
	}
	return len(parsed.Groups) + len(parsed.Elements), nil
}

// rasterizeSVG renders with the pure-Go oksvg rasterizer.
func rasterizeSVG(data []byte, size int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SVG: %w", err)
	}
	if icon.ViewBox.W <= 0 || icon.ViewBox.H <= 0 {
		return nil, fmt.Errorf("svg declares neither a viewBox nor a size")
	}
	w, h, ok := svgSize(data)
	if !ok {
		w, h = icon.ViewBox.W, icon.ViewBox.H
	}
	tw, th := targetSize(w, h, size)
	icon.SetTarget(0, 0, float64(tw), float64(th))

	rgba := image.NewRGBA(image.Rect(0, 0, tw, th))
	scanner := rasterx.NewScannerGV(tw, th, rgba, rgba.Bounds())
	raster := rasterx.NewDasher(tw, th, scanner)
	icon.Draw(raster, 1.0)
	return rgba, nil
}

// nativeSVG is the in-process renderer used when no external tool is
// installed or they all failed.
type nativeSVG struct {
	target formats.Format
	opts   ImageOptions
}

func (nativeSVG) Name() string { return "oksvg" }

func (s nativeSVG) Convert(ctx registry.Context, in, out string) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return NewConverterError(s.Name(), "read", err)
	}
	if n, err := countDrawables(data); err != nil {
		logOf(ctx).Debugf("svg preflight: %v", err)
	} else if n == 0 {
		logOf(ctx).Warnf("svg declares no drawable elements, output will be blank")
	}
	img, err := rasterizeSVG(data, s.opts.SVGSize)
	if err != nil {
		return NewConverterError(s.Name(), "render", err)
	}
	if s.target == formats.PDF {
		err = writeImagePDF(out, img)
	} else {
		err = writeImage(out, img, s.target, s.opts)
	}
	if err != nil {
		return NewConverterError(s.Name(), "encode", err)
	}
	return nil
}

// placeholder writes a flat grey square so the caller still gets a file of
// the requested type. Results produced by it are flagged as degraded.
type placeholder struct {
	target formats.Format
	opts   ImageOptions
}

func (placeholder) Name() string   { return "placeholder" }
func (placeholder) Degraded() bool { return true }

func placeholderImage(size int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(placeholderGrey), image.Point{}, draw.Src)
	return img
}

func (s placeholder) Convert(_ registry.Context, _, out string) error {
	img := placeholderImage(s.opts.PlaceholderSize)
	if s.target == formats.PDF {
		return writeImagePDF(out, img)
	}
	return writeImage(out, img, s.target, s.opts)
}

// svgCommand renders through an external vector tool straight to PNG or PDF.
type svgCommand struct {
	name    string
	tool    capabilities.Tool
	binary  string
	args    func(in, out string, target formats.Format, size int) []string
	runner  exec.Runner
	caps    capabilities.Set
	timeout time.Duration
	target  formats.Format
	size    int
}

func (s svgCommand) Name() string                  { return s.name }
func (s svgCommand) Requires() []capabilities.Tool { return []capabilities.Tool{s.tool} }

func (s svgCommand) Convert(ctx registry.Context, in, out string) error {
	p := s.runner.Run(ctx, exec.Command(s.caps.Path(s.tool, s.binary), s.args(in, out, s.target, s.size)...).
		WithTimeout(s.timeout).
		WithLogger(logOf(ctx)))
	if p.Err != nil {
		os.Remove(out)
		return NewConverterError(s.name, "convert", p.Err)
	}
	return nil
}

func inkscapeArgs(in, out string, target formats.Format, size int) []string {
	args := []string{in, "--export-type=" + string(target), "--export-filename=" + out}
	if target == formats.PNG && size > 0 {
		args = append(args, "--export-width="+strconv.Itoa(size))
	}
	return args
}

func rsvgArgs(in, out string, target formats.Format, size int) []string {
	args := []string{"--format=" + string(target)}
	if target == formats.PNG && size > 0 {
		args = append(args, "--width="+strconv.Itoa(size), "--keep-aspect-ratio")
	}
	return append(args, "--output="+out, in)
}

func magickArgs(in, out string, _ formats.Format, size int) []string {
	return []string{"-background", "none", "-density", "192", in,
		"-resize", fmt.Sprintf("%dx%d", size, size), out}
}

// rasterized renders to an intermediate PNG with inner, then re-encodes it
// under the raster policy for target.
type rasterized struct {
	inner  registry.Strategy
	target formats.Format
	opts   ImageOptions
}

func (s rasterized) Name() string { return s.inner.Name() }

func (s rasterized) Requires() []capabilities.Tool { return registry.RequiredTools(s.inner) }

func (s rasterized) Convert(ctx registry.Context, in, out string) error {
	tmp := out + ".render.png"
	defer os.Remove(tmp)
	if err := s.inner.Convert(ctx, in, tmp); err != nil {
		return err
	}
	img, err := decodeImage(tmp)
	if err != nil {
		return NewConverterError(s.Name(), "decode render", err)
	}
	return writeImage(out, img, s.target, s.opts)
}
