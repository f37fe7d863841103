package engine

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/flanksource/transmute/formats"
	_ "github.com/flanksource/transmute/ico"
)

// Verifier inspects a freshly written output before it is published.
type Verifier func(path string) error

// VerifyPDF checks the file parses as a PDF.
func VerifyPDF(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := api.ReadContext(f, model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("not a readable pdf: %w", err)
	}
	return nil
}

// VerifyImage checks the file has a decodable image header of the expected
// format.
func VerifyImage(expected string) Verifier {
	return func(path string) error {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		cfg, got, err := image.DecodeConfig(f)
		if err != nil {
			return fmt.Errorf("not a readable image: %w", err)
		}
		if got != expected {
			return fmt.Errorf("image is %s, expected %s", got, expected)
		}
		if cfg.Width < 1 || cfg.Height < 1 {
			return fmt.Errorf("image has no pixels")
		}
		return nil
	}
}

// DefaultVerifiers covers PDF and every raster format.
func DefaultVerifiers() map[formats.Format]Verifier {
	return map[formats.Format]Verifier{
		formats.PDF:  VerifyPDF,
		formats.PNG:  VerifyImage("png"),
		formats.JPG:  VerifyImage("jpeg"),
		formats.GIF:  VerifyImage("gif"),
		formats.BMP:  VerifyImage("bmp"),
		formats.TIFF: VerifyImage("tiff"),
		formats.WEBP: VerifyImage("webp"),
		formats.ICO:  VerifyImage("ico"),
	}
}
