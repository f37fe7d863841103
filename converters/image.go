package converters

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"
	"os"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/ericpauley/go-quantize/quantize"
	"github.com/jung-kurt/gofpdf/v2"
	_ "golang.org/x/image/webp"

	"github.com/flanksource/transmute/formats"
	"github.com/flanksource/transmute/ico"
	"github.com/flanksource/transmute/registry"
)

// A4 in points. Image pages are fitted inside it and never enlarged.
const (
	pageWidthPt  = 595
	pageHeightPt = 842
)

// iconSizes are the square resolutions written into .ico files, largest
// first.
var iconSizes = []int{256, 128, 64, 48, 32, 16}

func decodeImage(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// flatten composites img over opaque white.
func flatten(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

// iconSizesFor returns the candidate sizes no larger than either side.
func iconSizesFor(width, height int) []int {
	var sizes []int
	for _, s := range iconSizes {
		if s <= width && s <= height {
			sizes = append(sizes, s)
		}
	}
	return sizes
}

// iconSet builds the entries of an .ico file. Each candidate size gets the
// source fitted and centred on a transparent square; sources smaller than
// every candidate are stored at their native size.
func iconSet(img image.Image) []image.Image {
	b := img.Bounds()
	sizes := iconSizesFor(b.Dx(), b.Dy())
	if len(sizes) == 0 {
		if b.Dx() > iconSizes[0] || b.Dy() > iconSizes[0] {
			return []image.Image{imaging.Fit(img, iconSizes[0], iconSizes[0], imaging.Lanczos)}
		}
		return []image.Image{img}
	}
	out := make([]image.Image, 0, len(sizes))
	for _, s := range sizes {
		fitted := imaging.Fit(img, s, s, imaging.Lanczos)
		fb := fitted.Bounds()
		canvas := imaging.New(s, s, color.NRGBA{})
		out = append(out, imaging.Paste(canvas, fitted, image.Pt((s-fb.Dx())/2, (s-fb.Dy())/2)))
	}
	return out
}

// encodeImage writes img as target. Targets without an alpha channel, and
// GIF, are composited onto white first so transparency never turns black.
func encodeImage(w io.Writer, img image.Image, target formats.Format, opts ImageOptions) error {
	switch target {
	case formats.PNG:
		return imaging.Encode(w, img, imaging.PNG)
	case formats.JPG:
		return imaging.Encode(w, flatten(img), imaging.JPEG, imaging.JPEGQuality(opts.JPEGQuality))
	case formats.BMP:
		return imaging.Encode(w, flatten(img), imaging.BMP)
	case formats.TIFF:
		return imaging.Encode(w, img, imaging.TIFF)
	case formats.GIF:
		return gif.Encode(w, flatten(img), &gif.Options{
			NumColors: 256,
			Quantizer: quantize.MedianCutQuantizer{},
			Drawer:    draw.FloydSteinberg,
		})
	case formats.WEBP:
		return webp.Encode(w, img, &webp.Options{Quality: float32(opts.WebPQuality)})
	case formats.ICO:
		return ico.Encode(w, iconSet(img))
	default:
		return fmt.Errorf("%s is not a raster target", target)
	}
}

func writeImage(out string, img image.Image, target formats.Format, opts ImageOptions) error {
	var buf bytes.Buffer
	if err := encodeImage(&buf, img, target, opts); err != nil {
		return err
	}
	return os.WriteFile(out, buf.Bytes(), 0o644)
}

// pageImage flattens img and shrinks it to fit an A4 page at one pixel per
// point.
func pageImage(img image.Image) image.Image {
	page := image.Image(flatten(img))
	if b := page.Bounds(); b.Dx() > pageWidthPt || b.Dy() > pageHeightPt {
		page = imaging.Fit(page, pageWidthPt, pageHeightPt, imaging.Lanczos)
	}
	return page
}

// writeImagePDF places img on a single page the size of the image, scaled
// down to fit A4 when larger.
func writeImagePDF(out string, img image.Image) error {
	page := pageImage(img)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, page, imaging.PNG); err != nil {
		return err
	}

	w, h := float64(page.Bounds().Dx()), float64(page.Bounds().Dy())
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("page", opts, &buf)
	pdf.ImageOptions("page", 0, 0, w, h, false, opts, 0, "")
	return pdf.OutputFileAndClose(out)
}

// rasterStrategy re-encodes a bitmap under the raster policy.
type rasterStrategy struct {
	target formats.Format
	opts   ImageOptions
}

func (s rasterStrategy) Name() string { return "raster" }

func (s rasterStrategy) Convert(ctx registry.Context, in, out string) error {
	img, err := decodeImage(in)
	if err != nil {
		return NewConverterError(s.Name(), "decode", err)
	}
	logOf(ctx).Debugf("encoding %dx%d image as %s", img.Bounds().Dx(), img.Bounds().Dy(), s.target)
	if err := writeImage(out, img, s.target, s.opts); err != nil {
		return NewConverterError(s.Name(), "encode "+string(s.target), err)
	}
	return nil
}

type imagePDFStrategy struct{}

func (imagePDFStrategy) Name() string { return "image-pdf" }

func (s imagePDFStrategy) Convert(_ registry.Context, in, out string) error {
	img, err := decodeImage(in)
	if err != nil {
		return NewConverterError(s.Name(), "decode", err)
	}
	if err := writeImagePDF(out, img); err != nil {
		return NewConverterError(s.Name(), "write pdf", err)
	}
	return nil
}
