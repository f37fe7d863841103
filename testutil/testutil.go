// Package testutil provides fixtures and assertions shared by the package
// tests: generated images and SVGs, PDF structure checks and PDF text
// extraction.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	svg "github.com/ajstarks/svgo"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// RequireBinary skips the test when name is not on PATH.
func RequireBinary(t *testing.T, name string) string {
	t.Helper()
	path, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not available, skipping", name)
	}
	return path
}

// WriteFile writes content under dir and returns the path.
func WriteFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// TransparentPNG is a w×h image whose left half is opaque red and right half
// fully transparent.
func TransparentPNG(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				img.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
			} else {
				img.SetNRGBA(x, y, color.NRGBA{})
			}
		}
	}
	return img
}

// Gradient is an opaque image with many distinct colours.
func Gradient(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 255 / max(1, w-1)), G: uint8(y * 255 / max(1, h-1)), B: uint8((x + y) % 256), A: 255})
		}
	}
	return img
}

// WritePNG encodes img under dir.
func WritePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return WriteFile(t, dir, name, buf.Bytes())
}

// SVG renders a w×h drawing with a background rectangle and a circle.
func SVG(w, h int) []byte {
	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(w, h)
	canvas.Rect(0, 0, w, h, "fill:rgb(30,144,255)")
	canvas.Circle(w/2, h/2, min(w, h)/3, "fill:rgb(255,215,0)")
	canvas.End()
	return buf.Bytes()
}

// AssertValidPDF fails unless path starts with a PDF header and parses
// with pdfcpu.
func AssertValidPDF(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if len(data) < 4 || string(data[:4]) != "%PDF" {
		t.Fatalf("%s doesn't look like a PDF (missing %%PDF header)", path)
	}
	if _, err := api.ReadContext(bytes.NewReader(data), model.NewDefaultConfiguration()); err != nil {
		t.Fatalf("PDF structure validation failed: %v", err)
	}
}

// PDFText extracts the plain text of every page.
func PDFText(t *testing.T, path string) string {
	t.Helper()
	f, r, err := pdf.Open(path)
	if err != nil {
		t.Fatalf("open pdf: %v", err)
	}
	defer f.Close()
	rd, err := r.GetPlainText()
	if err != nil {
		t.Fatalf("extract text: %v", err)
	}
	var sb strings.Builder
	if _, err := io.Copy(&sb, rd); err != nil {
		t.Fatalf("read text: %v", err)
	}
	return sb.String()
}
