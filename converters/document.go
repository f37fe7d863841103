package converters

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/flanksource/transmute/registry"
)

// Paragraph is one block of text. Heading is 1-6 for headings, 0 for body
// text.
type Paragraph struct {
	Text    string
	Heading int
}

// Document is the neutral model text conversions pass through. It keeps
// paragraph order and heading levels; everything else is dropped.
type Document struct {
	Title      string
	Paragraphs []Paragraph
}

func (d *Document) add(text string, heading int) {
	d.Paragraphs = append(d.Paragraphs, Paragraph{Text: text, Heading: heading})
}

// PlainText joins paragraphs with newlines.
func (d Document) PlainText() string {
	lines := make([]string, len(d.Paragraphs))
	for i, p := range d.Paragraphs {
		lines[i] = p.Text
	}
	return strings.Join(lines, "\n")
}

type docReader func(path string) (Document, error)

type docWriter func(doc Document, out string) error

// pipeline reads the source into a Document and writes it back out.
type pipeline struct {
	name  string
	read  docReader
	write docWriter
	// fallback marks pipelines used as the last resort of a richer chain.
	fallback bool
}

func (p pipeline) Name() string { return p.name }

func (p pipeline) Convert(ctx registry.Context, in, out string) error {
	doc, err := p.read(in)
	if err != nil {
		return NewConverterError(p.name, "read", err)
	}
	if doc.Title == "" {
		doc.Title = stem(in)
	}
	if p.fallback {
		logOf(ctx).Warnf("lossy fallback: writing the extracted text of %s only", filepath.Base(in))
	}
	logOf(ctx).Debugf("%d paragraphs extracted", len(doc.Paragraphs))
	if err := p.write(doc, out); err != nil {
		return NewConverterError(p.name, "write", err)
	}
	return nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// decodeText returns data as valid UTF-8 with normalised line endings.
// Bytes that are not UTF-8 are read as Latin-1.
func decodeText(data []byte) string {
	data = []byte(strings.TrimPrefix(string(data), "\ufeff"))
	var s string
	if utf8.Valid(data) {
		s = string(data)
	} else {
		runes := make([]rune, len(data))
		for i, b := range data {
			runes[i] = rune(b)
		}
		s = string(runes)
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func textToDocument(text string) Document {
	var doc Document
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		doc.add(strings.TrimRight(line, " \t"), 0)
	}
	return doc
}

func readTXT(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	return textToDocument(decodeText(data)), nil
}

func writeTXT(doc Document, out string) error {
	return os.WriteFile(out, []byte(doc.PlainText()+"\n"), 0o644)
}
