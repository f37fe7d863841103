package converters

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flanksource/transmute/formats"
	"github.com/flanksource/transmute/registry"
	"github.com/flanksource/transmute/testutil"
)

var sampleDoc = Document{
	Title: "Quarterly",
	Paragraphs: []Paragraph{
		{Text: "Quarterly Report", Heading: 1},
		{Text: "Revenue grew in every region."},
		{Text: "Outlook", Heading: 2},
		{Text: "Café prices & {braces} stay <stable>."},
	},
}

func TestDecodeText(t *testing.T) {
	assert.Equal(t, "a\nb\nc", decodeText([]byte("\ufeffa\r\nb\rc")))
	assert.Equal(t, "café", decodeText([]byte{'c', 'a', 'f', 0xe9}))
}

func TestTextToDocument(t *testing.T) {
	doc := textToDocument("one  \ntwo\n\nthree\n")
	require.Len(t, doc.Paragraphs, 4)
	assert.Equal(t, "one", doc.Paragraphs[0].Text)
	assert.Equal(t, "", doc.Paragraphs[2].Text)
	assert.Equal(t, "one\ntwo\n\nthree", doc.PlainText())
}

func TestDOCXRoundTrip(t *testing.T) {
	out := filepath.Join(t.TempDir(), "doc.docx")
	require.NoError(t, writeDOCX(sampleDoc, out))

	got, err := readDOCX(out)
	require.NoError(t, err)
	assert.Equal(t, sampleDoc.Paragraphs, got.Paragraphs)
}

func TestDOCXMultilineParagraph(t *testing.T) {
	out := filepath.Join(t.TempDir(), "doc.docx")
	doc := Document{Paragraphs: []Paragraph{{Text: "line one\nline\ttwo"}}}
	require.NoError(t, writeDOCX(doc, out))

	got, err := readDOCX(out)
	require.NoError(t, err)
	assert.Equal(t, doc.Paragraphs, got.Paragraphs)
}

func TestHeadingLevel(t *testing.T) {
	assert.Equal(t, 1, headingLevel("Title"))
	assert.Equal(t, 2, headingLevel("Heading2"))
	assert.Equal(t, 3, headingLevel("heading 3"))
	assert.Equal(t, 0, headingLevel("Heading9"))
	assert.Equal(t, 0, headingLevel("Normal"))
}

func writeODT(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("mimetype")
	require.NoError(t, err)
	_, err = w.Write([]byte("application/vnd.oasis.opendocument.text"))
	require.NoError(t, err)
	w, err = zw.Create("content.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestReadODT(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.odt")
	writeODT(t, path, `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0">
<office:body><office:text>
<text:h text:outline-level="2">Summary</text:h>
<text:p>a<text:s text:c="3"/>b<text:tab/>c<text:span>d</text:span></text:p>
<text:p>first<text:line-break/>second</text:p>
</office:text></office:body></office:document-content>`)

	doc, err := readODT(path)
	require.NoError(t, err)
	assert.Equal(t, []Paragraph{
		{Text: "Summary", Heading: 2},
		{Text: "a   b\tcd"},
		{Text: "first\nsecond"},
	}, doc.Paragraphs)
}

func TestRTFToText(t *testing.T) {
	src := `{\rtf1\ansi{\fonttbl{\f0 Helvetica;}}{\*\generator Test;}` +
		`\f0 Caf\'e9 \u8364? price\par Second {\b bold} line\par}`
	assert.Equal(t, "Café € price\nSecond bold line\n", rtfToText(src))
}

func TestRTFRoundTrip(t *testing.T) {
	out := filepath.Join(t.TempDir(), "doc.rtf")
	require.NoError(t, writeRTF(sampleDoc, out))

	got, err := readRTF(out)
	require.NoError(t, err)
	assert.Equal(t, sampleDoc.PlainText(), got.PlainText())
}

func TestReadRTFRequiresHeader(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "plain.rtf", []byte("just text"))
	_, err := readRTF(path)
	assert.Error(t, err)
}

func TestParseHTMLDocument(t *testing.T) {
	doc, err := parseHTMLDocument(strings.NewReader(`<html><head><title>Notes</title>
<script>alert("x")</script><style>p{}</style></head>
<body><h1>Heading</h1><p>First   paragraph</p><div>Second <b>bold</b></div>
<table><tr><td>a</td><td>b</td></tr></table></body></html>`))
	require.NoError(t, err)
	assert.Equal(t, "Notes", doc.Title)
	assert.Equal(t, []Paragraph{
		{Text: "Heading", Heading: 1},
		{Text: "First paragraph"},
		{Text: "Second bold"},
		{Text: "a b"},
	}, doc.Paragraphs)
}

func TestHTMLRoundTrip(t *testing.T) {
	out := filepath.Join(t.TempDir(), "doc.html")
	require.NoError(t, writeHTML(sampleDoc, out))

	got, err := readHTML(out)
	require.NoError(t, err)
	assert.Equal(t, sampleDoc.Title, got.Title)
	assert.Equal(t, sampleDoc.Paragraphs, got.Paragraphs)
}

func TestMarkdownToHTML(t *testing.T) {
	dir := t.TempDir()
	in := testutil.WriteFile(t, dir, "notes.md", []byte("# Title\n\nSome *text*.\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"))
	out := filepath.Join(dir, "notes.html")
	require.NoError(t, markdownStrategy{}.Convert(registry.Context{}, in, out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<h1>Title</h1>")
	assert.Contains(t, string(data), "<em>text</em>")
	assert.Contains(t, string(data), "<table>")
	assert.Contains(t, string(data), "<title>notes</title>")
}

func TestHTMLToMarkdownSanitizes(t *testing.T) {
	dir := t.TempDir()
	in := testutil.WriteFile(t, dir, "page.html", []byte(`<h2>Hello</h2><p onclick="evil()">Read <a href="javascript:alert(1)">this</a> and <a href="https://example.com">that</a></p><script>alert(1)</script>`))
	out := filepath.Join(dir, "page.md")
	require.NoError(t, htmlToMarkdownStrategy{}.Convert(registry.Context{}, in, out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	md := string(data)
	assert.Contains(t, md, "## Hello")
	assert.Contains(t, md, "[that](https://example.com)")
	assert.NotContains(t, md, "javascript:")
	assert.NotContains(t, md, "alert")
}

func TestHTMLToMarkdownEmpty(t *testing.T) {
	dir := t.TempDir()
	in := testutil.WriteFile(t, dir, "empty.html", []byte(`<script>only()</script>`))
	err := htmlToMarkdownStrategy{}.Convert(registry.Context{}, in, filepath.Join(dir, "empty.md"))
	assert.Error(t, err)
}

func TestTextRenderPDF(t *testing.T) {
	dir := t.TempDir()
	in := testutil.WriteFile(t, dir, "report.txt", []byte("Quarterly\n\nRevenue grew.\n"))
	out := filepath.Join(dir, "report.pdf")
	require.NoError(t, textPipeline(formats.TXT, formats.PDF, false).Convert(registry.Context{}, in, out))

	testutil.AssertValidPDF(t, out)
	assert.Contains(t, testutil.PDFText(t, out), "Quarterly")

	doc, err := readPDF(out)
	require.NoError(t, err)
	assert.Contains(t, doc.PlainText(), "Revenue")
}

func TestPipelines(t *testing.T) {
	dir := t.TempDir()
	docx := filepath.Join(dir, "src.docx")
	require.NoError(t, writeDOCX(sampleDoc, docx))

	for _, dst := range []formats.Format{formats.TXT, formats.HTML, formats.RTF, formats.PDF} {
		t.Run(string(dst), func(t *testing.T) {
			out := filepath.Join(dir, "out."+string(dst))
			require.NoError(t, textPipeline(formats.DOCX, dst, false).Convert(registry.Context{}, docx, out))
			info, err := os.Stat(out)
			require.NoError(t, err)
			assert.Positive(t, info.Size())
		})
	}
}

func TestPipelineReadError(t *testing.T) {
	dir := t.TempDir()
	in := testutil.WriteFile(t, dir, "broken.docx", []byte("not a zip"))
	err := textPipeline(formats.DOCX, formats.TXT, false).Convert(registry.Context{}, in, filepath.Join(dir, "out.txt"))
	var convErr *ConverterError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, "read", convErr.Operation)
}
