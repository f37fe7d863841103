package converters

import (
	"bytes"
	"strings"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/ledongthuc/pdf"
)

const (
	textMarginMM   = 18.0
	bodyFontSize   = 11.0
	bodyLineHeight = 5.5
)

var headingSizes = map[int]float64{1: 20, 2: 16, 3: 14, 4: 12, 5: 11, 6: 11}

// writePDF lays the document out as flowing text on A4 pages using the
// built-in Helvetica face. It always produces at least one page.
func writePDF(doc Document, out string) error {
	p := gofpdf.New("P", "mm", "A4", "")
	p.SetTitle(doc.Title, true)
	p.SetMargins(textMarginMM, textMarginMM, textMarginMM)
	p.SetAutoPageBreak(true, textMarginMM)
	p.AddPage()
	p.SetFont("Helvetica", "", bodyFontSize)
	tr := p.UnicodeTranslatorFromDescriptor("")

	for _, para := range doc.Paragraphs {
		if para.Heading > 0 {
			size := headingSizes[para.Heading]
			p.SetFont("Helvetica", "B", size)
			p.Ln(2)
			p.MultiCell(0, size*0.5, tr(para.Text), "", "L", false)
			p.Ln(1)
			continue
		}
		p.SetFont("Helvetica", "", bodyFontSize)
		if strings.TrimSpace(para.Text) == "" {
			p.Ln(bodyLineHeight)
			continue
		}
		p.MultiCell(0, bodyLineHeight, tr(para.Text), "", "L", false)
	}
	return p.OutputFileAndClose(out)
}

// readPDF extracts the plain text layer. Scanned pages yield nothing.
func readPDF(path string) (Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer f.Close()
	rd, err := r.GetPlainText()
	if err != nil {
		return Document{}, err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rd); err != nil {
		return Document{}, err
	}
	return textToDocument(decodeText(buf.Bytes())), nil
}
