package render

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"strconv"
	"strings"
)

const (
	docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`
	docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`
)

// writeDocx writes a minimal WordprocessingML package: a single
// document.xml part with headings, parameter lines and one table per section.
func writeDocx(w io.Writer, doc Document) error {
	zw := zip.NewWriter(w)
	parts := []struct{ name, body string }{
		{"[Content_Types].xml", docxContentTypes},
		{"_rels/.rels", docxRels},
		{"word/document.xml", docxBody(doc)},
	}
	for _, part := range parts {
		f, err := zw.Create(part.name)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(f, part.body); err != nil {
			return err
		}
	}
	return zw.Close()
}

func docxBody(doc Document) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)

	para(&b, doc.Title, true, 32)
	if g := generatedLine(doc); g != "" {
		para(&b, g, false, 0)
	}
	for _, p := range doc.Parameters {
		para(&b, p.Name+": "+p.Value, false, 0)
	}
	for _, s := range doc.Sections {
		para(&b, s.Title, true, 24)
		if len(s.Columns) == 0 {
			continue
		}
		b.WriteString(`<w:tbl><w:tblPr><w:tblBorders>`)
		for _, edge := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
			b.WriteString(`<w:` + edge + ` w:val="single" w:sz="4" w:space="0" w:color="999999"/>`)
		}
		b.WriteString(`</w:tblBorders></w:tblPr>`)
		tableRow(&b, s.Columns, true)
		for _, r := range s.Rows {
			cells := make([]string, len(s.Columns))
			for i := range cells {
				if i < len(r) {
					cells[i] = Text(r[i])
				}
			}
			tableRow(&b, cells, false)
		}
		b.WriteString(`</w:tbl>`)
	}
	b.WriteString(`<w:sectPr/></w:body></w:document>`)
	return b.String()
}

func para(b *strings.Builder, text string, bold bool, size int) {
	b.WriteString(`<w:p>`)
	run(b, text, bold, size)
	b.WriteString(`</w:p>`)
}

func run(b *strings.Builder, text string, bold bool, size int) {
	b.WriteString(`<w:r>`)
	if bold || size > 0 {
		b.WriteString(`<w:rPr>`)
		if bold {
			b.WriteString(`<w:b/>`)
		}
		if size > 0 {
			b.WriteString(`<w:sz w:val="`)
			b.WriteString(strconv.Itoa(size))
			b.WriteString(`"/>`)
		}
		b.WriteString(`</w:rPr>`)
	}
	b.WriteString(`<w:t xml:space="preserve">`)
	_ = xml.EscapeText(b, []byte(text))
	b.WriteString(`</w:t></w:r>`)
}

func tableRow(b *strings.Builder, cells []string, header bool) {
	b.WriteString(`<w:tr>`)
	for _, c := range cells {
		b.WriteString(`<w:tc><w:p>`)
		run(b, c, header, 0)
		b.WriteString(`</w:p></w:tc>`)
	}
	b.WriteString(`</w:tr>`)
}
