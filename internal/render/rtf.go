package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// rtfEscape escapes RTF control characters and encodes non-ASCII runes as
// \uN? sequences.
func rtfEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\\' || r == '{' || r == '}':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\line `)
		case r == '\t':
			b.WriteString(`\tab `)
		case r < 0x80:
			b.WriteRune(r)
		case r <= 0xFFFF:
			fmt.Fprintf(&b, `\u%d?`, int16(r))
		default:
			// Supplementary planes are written as UTF-16 surrogate pairs.
			r -= 0x10000
			fmt.Fprintf(&b, `\u%d?\u%d?`, int16(0xD800+(r>>10)), int16(0xDC00+(r&0x3FF)))
		}
	}
	return b.String()
}

func writeRTF(w io.Writer, doc Document) error {
	bw := bufio.NewWriter(w)
	p := func(format string, args ...any) { _, _ = fmt.Fprintf(bw, format, args...) }

	p("{\\rtf1\\ansi\\deff0{\\fonttbl{\\f0 Helvetica;}}\\fs20\n")
	p("{\\pard\\b\\fs32 %s\\par}\n", rtfEscape(doc.Title))
	if g := generatedLine(doc); g != "" {
		p("{\\pard\\i %s\\par}\n", rtfEscape(g))
	}
	for _, prm := range doc.Parameters {
		p("{\\pard\\b %s:\\b0  %s\\par}\n", rtfEscape(prm.Name), rtfEscape(prm.Value))
	}

	for _, s := range doc.Sections {
		p("{\\pard\\sb240\\b\\fs24 %s\\par}\n", rtfEscape(s.Title))
		if len(s.Columns) == 0 {
			continue
		}
		width := 9000 / len(s.Columns)
		row := func(cells []string, bold bool) {
			p("\\trowd\\trgaph80")
			for i := range cells {
				p("\\clbrdrt\\brdrs\\clbrdrl\\brdrs\\clbrdrb\\brdrs\\clbrdrr\\brdrs\\cellx%d", width*(i+1))
			}
			p("\n")
			for _, c := range cells {
				if bold {
					p("\\pard\\intbl\\b %s\\b0\\cell ", rtfEscape(c))
				} else {
					p("\\pard\\intbl %s\\cell ", rtfEscape(c))
				}
			}
			p("\\row\n")
		}
		row(s.Columns, true)
		for _, r := range s.Rows {
			cells := make([]string, len(s.Columns))
			for i := range cells {
				if i < len(r) {
					cells[i] = Text(r[i])
				}
			}
			row(cells, false)
		}
		p("\\pard\\par\n")
	}
	p("}\n")
	return bw.Flush()
}
