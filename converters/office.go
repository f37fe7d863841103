package converters

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flanksource/transmute/capabilities"
	"github.com/flanksource/transmute/exec"
	"github.com/flanksource/transmute/formats"
	"github.com/flanksource/transmute/registry"
)

// wdFormatPDF is Word's SaveAs2 file format constant for PDF.
const wdFormatPDF = 17

// officeAutomation drives an installed Microsoft Word through PowerShell COM
// automation. Word is always quit, even when the export fails.
type officeAutomation struct {
	runner  exec.Runner
	caps    capabilities.Set
	timeout time.Duration
}

func (officeAutomation) Name() string { return "office-automation" }

func (officeAutomation) Requires() []capabilities.Tool {
	return []capabilities.Tool{capabilities.Word}
}

func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func wordScript(in, out string) string {
	return strings.Join([]string{
		"$ErrorActionPreference = 'Stop'",
		"$word = New-Object -ComObject Word.Application",
		"$word.Visible = $false",
		"$word.DisplayAlerts = 0",
		"try {",
		fmt.Sprintf("  $doc = $word.Documents.Open(%s, $false, $true)", psQuote(in)),
		fmt.Sprintf("  $doc.SaveAs2(%s, %d)", psQuote(out), wdFormatPDF),
		"  $doc.Close(0)",
		"} finally {",
		"  $word.Quit()",
		"  [System.Runtime.Interopservices.Marshal]::ReleaseComObject($word) | Out-Null",
		"}",
	}, "\n")
}

func (s officeAutomation) Convert(ctx registry.Context, in, out string) error {
	absIn, err := filepath.Abs(in)
	if err != nil {
		return NewConverterError(s.Name(), "resolve input", err)
	}
	absOut, err := filepath.Abs(out)
	if err != nil {
		return NewConverterError(s.Name(), "resolve output", err)
	}
	p := s.runner.Run(ctx, exec.Command(s.caps.Path(capabilities.Word, "powershell"),
		"-NoProfile", "-NonInteractive", "-Command", wordScript(absIn, absOut)).
		WithTimeout(s.timeout).
		WithLogger(logOf(ctx)))
	if p.Err != nil {
		os.Remove(out)
		return NewConverterError(s.Name(), "export", p.Err)
	}
	return nil
}

// libreOffice runs soffice headless with a throwaway user profile so
// concurrent conversions never share profile locks.
type libreOffice struct {
	runner  exec.Runner
	caps    capabilities.Set
	timeout time.Duration
	source  formats.Format
}

func (libreOffice) Name() string { return "libreoffice" }

func (libreOffice) Requires() []capabilities.Tool {
	return []capabilities.Tool{capabilities.LibreOffice}
}

func (s libreOffice) filter() string {
	if s.source == formats.HTML {
		return "pdf:writer_web_pdf_Export"
	}
	return "pdf"
}

func (s libreOffice) Convert(ctx registry.Context, in, out string) error {
	scratch, err := os.MkdirTemp(filepath.Dir(out), "soffice-"+uuid.NewString()[:8]+"-")
	if err != nil {
		return NewConverterError(s.Name(), "create scratch dir", err)
	}
	defer os.RemoveAll(scratch)

	profile, err := filepath.Abs(filepath.Join(scratch, "profile"))
	if err != nil {
		return NewConverterError(s.Name(), "resolve profile", err)
	}
	p := s.runner.Run(ctx, exec.Command(s.caps.Path(capabilities.LibreOffice, "soffice"),
		"--headless", "--norestore", "--nolockcheck",
		"-env:UserInstallation="+fileURL(profile),
		"--convert-to", s.filter(),
		"--outdir", scratch,
		in).
		WithTimeout(s.timeout).
		WithLogger(logOf(ctx)))
	if p.Err != nil {
		return NewConverterError(s.Name(), "convert", p.Err)
	}

	produced := filepath.Join(scratch, stem(in)+".pdf")
	if _, err := os.Stat(produced); err != nil {
		return NewConverterError(s.Name(), "convert", fmt.Errorf("no pdf produced: %s", strings.TrimSpace(p.Out())))
	}
	if err := os.Rename(produced, out); err != nil {
		return NewConverterError(s.Name(), "move output", err)
	}
	return nil
}

func fileURL(path string) string {
	slashed := filepath.ToSlash(path)
	if !strings.HasPrefix(slashed, "/") {
		slashed = "/" + slashed
	}
	return "file://" + slashed
}
