package converters

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Destinations whose content is never visible text.
var rtfSkippedDestinations = map[string]bool{
	"fonttbl": true, "colortbl": true, "stylesheet": true, "info": true,
	"pict": true, "header": true, "footer": true, "headerl": true, "headerr": true,
	"footerl": true, "footerr": true, "footnote": true, "object": true,
	"themedata": true, "datastore": true, "latentstyles": true, "listtable": true,
	"listoverridetable": true, "rsidtbl": true, "generator": true, "xmlnstbl": true,
	"fldinst": true, "filetbl": true, "revtbl": true,
}

var rtfSymbols = map[string]string{
	"par": "\n", "line": "\n", "sect": "\n", "page": "\n", "row": "\n",
	"tab": "\t", "cell": "\t",
	"emdash": "—", "endash": "–", "bullet": "•",
	"lquote": "‘", "rquote": "’", "ldblquote": "“", "rdblquote": "”",
	"emspace": " ", "enspace": " ", "qmspace": " ",
}

type rtfGroup struct {
	skip bool
	uc   int
}

// rtfToText strips control words and groups from RTF, keeping the text
// body with paragraph breaks as newlines.
func rtfToText(src string) string {
	var (
		out       strings.Builder
		stack     []rtfGroup
		cur       = rtfGroup{uc: 1}
		skipChars int
	)
	emit := func(s string) {
		if cur.skip {
			return
		}
		if skipChars > 0 {
			skipChars--
			return
		}
		out.WriteString(s)
	}

	for i := 0; i < len(src); {
		c := src[i]
		switch c {
		case '{':
			stack = append(stack, cur)
			i++
		case '}':
			if len(stack) > 0 {
				cur = stack[len(stack)-1]
				stack = stack[:len(stack)-1]
			}
			skipChars = 0
			i++
		case '\r', '\n':
			i++
		case '\\':
			i++
			if i >= len(src) {
				break
			}
			c = src[i]
			switch {
			case c == '\\' || c == '{' || c == '}':
				emit(string(c))
				i++
			case c == '\'':
				if i+2 < len(src) {
					if b, err := strconv.ParseUint(src[i+1:i+3], 16, 8); err == nil {
						emit(string(rune(b)))
					}
				}
				i += 3
			case c == '*':
				cur.skip = true
				i++
			case c == '~':
				emit(" ")
				i++
			case c == '_':
				emit("-")
				i++
			case c == '\n' || c == '\r':
				emit("\n")
				i++
			case isASCIILetter(c):
				start := i
				for i < len(src) && isASCIILetter(src[i]) {
					i++
				}
				word := src[start:i]
				pstart := i
				if i < len(src) && src[i] == '-' {
					i++
				}
				for i < len(src) && src[i] >= '0' && src[i] <= '9' {
					i++
				}
				param, hasParam := 0, false
				if i > pstart {
					if n, err := strconv.Atoi(src[pstart:i]); err == nil {
						param, hasParam = n, true
					}
				}
				if i < len(src) && src[i] == ' ' {
					i++
				}
				switch {
				case rtfSkippedDestinations[word]:
					cur.skip = true
				case word == "u" && hasParam:
					if param < 0 {
						param += 65536
					}
					emit(string(rune(param)))
					skipChars = cur.uc
				case word == "uc" && hasParam:
					cur.uc = param
				default:
					if s, ok := rtfSymbols[word]; ok {
						emit(s)
					}
				}
			default:
				i++
			}
		default:
			emit(string(c))
			i++
		}
	}
	return out.String()
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func readRTF(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	if !strings.HasPrefix(strings.TrimSpace(string(data)), `{\rtf`) {
		return Document{}, fmt.Errorf("missing {\\rtf header")
	}
	return textToDocument(rtfToText(string(data))), nil
}

func rtfEscape(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r == '\\' || r == '{' || r == '}':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case r == '\t':
			sb.WriteString(`\tab `)
		case r == '\n':
			sb.WriteString(`\line `)
		case r < 0x80:
			sb.WriteRune(r)
		case r <= 0xffff:
			fmt.Fprintf(&sb, `\u%d?`, int16(r))
		default:
			sb.WriteString("?")
		}
	}
	return sb.String()
}

var rtfHeadingSizes = map[int]int{1: 32, 2: 28, 3: 26}

func writeRTF(doc Document, out string) error {
	var sb strings.Builder
	sb.WriteString(`{\rtf1\ansi\ansicpg1252\deff0{\fonttbl{\f0\fswiss Helvetica;}}` + "\n")
	if doc.Title != "" {
		sb.WriteString(`{\info{\title ` + rtfEscape(doc.Title) + `}}` + "\n")
	}
	sb.WriteString(`\f0\fs22` + "\n")
	for _, p := range doc.Paragraphs {
		if p.Heading > 0 {
			size, ok := rtfHeadingSizes[p.Heading]
			if !ok {
				size = 24
			}
			fmt.Fprintf(&sb, `{\b\fs%d %s}\par`+"\n", size, rtfEscape(p.Text))
			continue
		}
		sb.WriteString(rtfEscape(p.Text) + `\par` + "\n")
	}
	sb.WriteString("}\n")
	return os.WriteFile(out, []byte(sb.String()), 0o644)
}
