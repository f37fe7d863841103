package converters

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/flanksource/transmute/registry"
)

var headingAtoms = map[atom.Atom]int{
	atom.H1: 1, atom.H2: 2, atom.H3: 3, atom.H4: 4, atom.H5: 5, atom.H6: 6,
}

var blockAtoms = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true, atom.Tr: true, atom.Br: true,
	atom.Hr: true, atom.Blockquote: true, atom.Pre: true, atom.Section: true,
	atom.Article: true, atom.Header: true, atom.Footer: true, atom.Ul: true,
	atom.Ol: true, atom.Table: true, atom.Dt: true, atom.Dd: true,
}

var skippedAtoms = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Noscript: true, atom.Template: true,
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// parseHTMLDocument extracts the visible text of an HTML page, one paragraph
// per block element.
func parseHTMLDocument(r io.Reader) (Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return Document{}, err
	}
	var (
		doc     Document
		cur     strings.Builder
		heading int
	)
	flush := func() {
		if text := collapse(cur.String()); text != "" {
			doc.add(text, heading)
		}
		cur.Reset()
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			cur.WriteString(n.Data)
			return
		case html.ElementNode:
			if skippedAtoms[n.DataAtom] {
				return
			}
			if n.DataAtom == atom.Title {
				if doc.Title == "" && n.FirstChild != nil {
					doc.Title = collapse(n.FirstChild.Data)
				}
				return
			}
			if level, ok := headingAtoms[n.DataAtom]; ok {
				flush()
				heading = level
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					walk(c)
				}
				flush()
				heading = 0
				return
			}
			if n.DataAtom == atom.Td || n.DataAtom == atom.Th {
				cur.WriteString(" ")
			}
			if blockAtoms[n.DataAtom] {
				flush()
				defer flush()
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	flush()
	return doc, nil
}

func readHTML(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer f.Close()
	return parseHTMLDocument(f)
}

func htmlPage(title, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s
</body>
</html>
`, html.EscapeString(title), body)
}

func writeHTML(doc Document, out string) error {
	var body strings.Builder
	for _, p := range doc.Paragraphs {
		switch {
		case p.Heading > 0:
			fmt.Fprintf(&body, "<h%d>%s</h%d>\n", p.Heading, html.EscapeString(p.Text), p.Heading)
		case strings.TrimSpace(p.Text) == "":
			body.WriteString("<br>\n")
		default:
			fmt.Fprintf(&body, "<p>%s</p>\n", html.EscapeString(p.Text))
		}
	}
	return os.WriteFile(out, []byte(htmlPage(doc.Title, body.String())), 0o644)
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

func markdownToHTML(src []byte, title string) (string, error) {
	var body bytes.Buffer
	if err := markdown.Convert(src, &body); err != nil {
		return "", err
	}
	return htmlPage(title, body.String()), nil
}

func readMarkdown(path string) (Document, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	page, err := markdownToHTML(src, "")
	if err != nil {
		return Document{}, err
	}
	return parseHTMLDocument(strings.NewReader(page))
}

// sanitizeHTML strips scripts, event handlers and javascript: URLs while
// keeping formatting, so untrusted pages can be rendered.
func sanitizeHTML(src string) string {
	policy := bluemonday.UGCPolicy()
	policy.AllowDataURIImages()
	return policy.Sanitize(src)
}

type markdownStrategy struct{}

func (markdownStrategy) Name() string { return "goldmark" }

func (s markdownStrategy) Convert(_ registry.Context, in, out string) error {
	src, err := os.ReadFile(in)
	if err != nil {
		return NewConverterError(s.Name(), "read", err)
	}
	page, err := markdownToHTML(src, stem(in))
	if err != nil {
		return NewConverterError(s.Name(), "render", err)
	}
	return os.WriteFile(out, []byte(page), 0o644)
}

type htmlToMarkdownStrategy struct{}

func (htmlToMarkdownStrategy) Name() string { return "html-to-markdown" }

func (s htmlToMarkdownStrategy) Convert(_ registry.Context, in, out string) error {
	src, err := os.ReadFile(in)
	if err != nil {
		return NewConverterError(s.Name(), "read", err)
	}
	converted, err := md.NewConverter("", true, nil).ConvertString(sanitizeHTML(decodeText(src)))
	if err != nil {
		return NewConverterError(s.Name(), "convert", err)
	}
	if strings.TrimSpace(converted) == "" {
		return NewConverterError(s.Name(), "convert", fmt.Errorf("no content survived conversion"))
	}
	return os.WriteFile(out, []byte(converted+"\n"), 0o644)
}
