// Package report renders conversion results, batch summaries and listings
// for the command line.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// Table is the tabular view of a report. Pretty and csv output use it;
// json and yaml serialize Report.Data instead.
type Table struct {
	Headers []string
	Rows    [][]string
}

type Report struct {
	Title  string
	Data   any
	Table  Table
	Footer string
	// Status colours a row in pretty output. It may be nil.
	Status func(row []string) Status
}

type Status int

const (
	StatusNone Status = iota
	StatusOK
	StatusWarn
	StatusFail
)

type Writer struct {
	Theme   Theme
	Format  string
	NoColor bool
}

// NewWriter creates a writer for resolved options. Colour is also disabled
// when stdout is not a terminal.
func NewWriter(opts Options) *Writer {
	format := opts.Format
	if format == "" {
		format = FormatPretty
	}
	return &Writer{Theme: DefaultTheme(), Format: format, NoColor: colorDisabled(opts.NoColor)}
}

func (w *Writer) Write(out io.Writer, r Report) error {
	s, err := w.Render(r)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, s)
	return err
}

// Render renders r in the writer's format.
func (w *Writer) Render(r Report) (string, error) {
	switch w.Format {
	case FormatJSON:
		b, err := json.MarshalIndent(r.Data, "", "  ")
		if err != nil {
			return "", err
		}
		return string(b) + "\n", nil
	case FormatYAML:
		b, err := yaml.Marshal(r.Data)
		if err != nil {
			return "", err
		}
		return string(b), nil
	case FormatCSV:
		return formatCSV(r.Table)
	case FormatPretty, "":
		return w.pretty(r), nil
	default:
		return "", fmt.Errorf("unknown output format %q", w.Format)
	}
}

func formatCSV(t Table) (string, error) {
	var b strings.Builder
	cw := csv.NewWriter(&b)
	if err := cw.Write(t.Headers); err != nil {
		return "", err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return "", err
	}
	return b.String(), nil
}

// applyStyle applies a lipgloss style if colors are enabled
func (w *Writer) applyStyle(text string, style lipgloss.Style) string {
	if w.NoColor {
		return text
	}
	return style.Render(text)
}

func (w *Writer) statusStyle(s Status) lipgloss.Style {
	switch s {
	case StatusOK:
		return lipgloss.NewStyle().Foreground(w.Theme.Success)
	case StatusWarn:
		return lipgloss.NewStyle().Foreground(w.Theme.Warning)
	case StatusFail:
		return lipgloss.NewStyle().Foreground(w.Theme.Error)
	}
	return lipgloss.NewStyle()
}

func (w *Writer) pretty(r Report) string {
	var out strings.Builder
	if r.Title != "" {
		out.WriteString(w.applyStyle(r.Title, lipgloss.NewStyle().Bold(true).Foreground(w.Theme.Primary)))
		out.WriteString("\n")
	}
	if len(r.Table.Headers) > 0 {
		out.WriteString(w.table(r))
	}
	if r.Footer != "" {
		out.WriteString(w.applyStyle(r.Footer, lipgloss.NewStyle().Foreground(w.Theme.Muted)))
		out.WriteString("\n")
	}
	return out.String()
}

func (w *Writer) table(r Report) string {
	t := r.Table
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i := range widths {
			if i < len(row) {
				widths[i] = max(widths[i], lipgloss.Width(row[i]))
			}
		}
	}

	border := lipgloss.NewStyle().Foreground(w.Theme.Muted)
	header := lipgloss.NewStyle().Bold(true)

	var out strings.Builder
	out.WriteString(w.border("┌", "┬", "┐", widths, border))
	out.WriteString(w.row(t.Headers, widths, header, border))
	out.WriteString(w.border("├", "┼", "┤", widths, border))
	for _, row := range t.Rows {
		style := lipgloss.NewStyle()
		if r.Status != nil {
			style = w.statusStyle(r.Status(row))
		}
		out.WriteString(w.row(row, widths, style, border))
	}
	out.WriteString(w.border("└", "┴", "┘", widths, border))
	return out.String()
}

func (w *Writer) row(cells []string, widths []int, style, border lipgloss.Style) string {
	var out strings.Builder
	out.WriteString(w.applyStyle("│", border))
	for i, width := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		pad := strings.Repeat(" ", width-lipgloss.Width(cell))
		out.WriteString(" " + w.applyStyle(cell, style) + pad + " ")
		out.WriteString(w.applyStyle("│", border))
	}
	out.WriteString("\n")
	return out.String()
}

func (w *Writer) border(left, mid, right string, widths []int, style lipgloss.Style) string {
	var out strings.Builder
	out.WriteString(w.applyStyle(left, style))
	for i, width := range widths {
		// Border width matches column width plus padding
		out.WriteString(w.applyStyle(strings.Repeat("─", width+2), style))
		if i < len(widths)-1 {
			out.WriteString(w.applyStyle(mid, style))
		}
	}
	out.WriteString(w.applyStyle(right, style))
	out.WriteString("\n")
	return out.String()
}
