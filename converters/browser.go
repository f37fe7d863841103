package converters

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/flanksource/transmute/capabilities"
	"github.com/flanksource/transmute/formats"
	"github.com/flanksource/transmute/registry"
)

// Browser owns a lazily started headless Chromium shared by every render
// strategy of one converter set. It is started on first use and must be
// closed by the owner.
type Browser struct {
	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
}

func (b *Browser) newPage() (playwright.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser == nil {
		if err := playwright.Install(&playwright.RunOptions{
			Browsers: []string{"chromium"},
		}); err != nil {
			return nil, fmt.Errorf("install browsers: %w", err)
		}
		pw, err := playwright.Run()
		if err != nil {
			return nil, fmt.Errorf("start playwright: %w", err)
		}
		browser, err := pw.Chromium.Launch()
		if err != nil {
			_ = pw.Stop()
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		b.pw, b.browser = pw, browser
	}
	return b.browser.NewPage()
}

// Close stops the browser if it was ever started.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var errs []error
	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
		b.browser = nil
	}
	if b.pw != nil {
		if err := b.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
		b.pw = nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing browser: %v", errs)
	}
	return nil
}

// browserRender loads svg, html or markdown into a page and prints it to
// PDF or screenshots it to PNG.
type browserRender struct {
	browser *Browser
	source  formats.Format
	target  formats.Format
	size    int
	timeout time.Duration
}

func (browserRender) Name() string { return "playwright" }

func (browserRender) Requires() []capabilities.Tool {
	return []capabilities.Tool{capabilities.Playwright}
}

const svgPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { margin: 0; padding: 0; }
svg { display: block; width: %dpx; height: %dpx; }
</style>
</head>
<body>
%s
</body>
</html>`

// content returns the page markup and, for svg, the viewport to use.
func (s browserRender) content(in string) (string, int, int, error) {
	data, err := os.ReadFile(in)
	if err != nil {
		return "", 0, 0, err
	}
	switch s.source {
	case formats.SVG:
		w, h, _ := svgSize(data)
		tw, th := targetSize(w, h, s.size)
		return fmt.Sprintf(svgPage, tw, th, string(data)), tw, th, nil
	case formats.MD:
		page, err := markdownToHTML(data, stem(in))
		return page, 0, 0, err
	default:
		return sanitizeHTML(decodeText(data)), 0, 0, nil
	}
}

func (s browserRender) Convert(ctx registry.Context, in, out string) error {
	markup, w, h, err := s.content(in)
	if err != nil {
		return NewConverterError(s.Name(), "read", err)
	}
	page, err := s.browser.newPage()
	if err != nil {
		return NewConverterError(s.Name(), "open page", err)
	}
	defer page.Close()

	// 0 disables the playwright timeout.
	ms := max(0, float64(s.timeout.Milliseconds()))
	page.SetDefaultTimeout(ms)
	if w > 0 && h > 0 {
		if err := page.SetViewportSize(w, h); err != nil {
			return NewConverterError(s.Name(), "set viewport", err)
		}
	}
	if err := page.SetContent(markup, playwright.PageSetContentOptions{
		Timeout: playwright.Float(ms),
	}); err != nil {
		return NewConverterError(s.Name(), "set content", err)
	}
	logOf(ctx).Debugf("rendering %s to %s in chromium", s.source, s.target)

	if s.target == formats.PDF {
		_, err = page.PDF(playwright.PagePdfOptions{
			Path:            playwright.String(out),
			Format:          playwright.String("A4"),
			PrintBackground: playwright.Bool(true),
		})
		if err != nil {
			return NewConverterError(s.Name(), "generate PDF", err)
		}
		return nil
	}
	_, err = page.Screenshot(playwright.PageScreenshotOptions{
		Path:           playwright.String(out),
		Type:           playwright.ScreenshotTypePng,
		OmitBackground: playwright.Bool(true),
	})
	if err != nil {
		return NewConverterError(s.Name(), "screenshot", err)
	}
	return nil
}
