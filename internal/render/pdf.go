package render

import (
	"io"

	"github.com/go-pdf/fpdf"
)

const (
	pdfLineHeight = 5.0
	pdfMaxCell    = 60
)

// writePDF lays out the document on landscape A4 pages using the core
// Helvetica font; text is translated to cp1252.
func writePDF(w io.Writer, doc Document) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(doc.Title, true)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	left, _, right, bottom := pdf.GetMargins()
	usable := pageW - left - right
	breakAt := pageH - bottom

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(doc.Title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "I", 8)
	if g := generatedLine(doc); g != "" {
		pdf.CellFormat(0, pdfLineHeight, tr(g), "", 1, "L", false, 0, "")
	}
	pdf.SetFont("Helvetica", "", 9)
	for _, p := range doc.Parameters {
		pdf.CellFormat(0, pdfLineHeight, tr(p.Name+": "+p.Value), "", 1, "L", false, 0, "")
	}

	for _, s := range doc.Sections {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, tr(s.Title), "", 1, "L", false, 0, "")
		if len(s.Columns) == 0 {
			continue
		}
		colW := usable / float64(len(s.Columns))

		header := func() {
			pdf.SetFont("Helvetica", "B", 8)
			pdf.SetFillColor(221, 221, 221)
			for _, c := range s.Columns {
				pdf.CellFormat(colW, 6, tr(clip(c)), "1", 0, "L", true, 0, "")
			}
			pdf.Ln(-1)
			pdf.SetFont("Helvetica", "", 8)
		}
		header()
		for _, r := range s.Rows {
			if pdf.GetY()+pdfLineHeight > breakAt {
				pdf.AddPage()
				header()
			}
			for i := range s.Columns {
				var v any
				if i < len(r) {
					v = r[i]
				}
				pdf.CellFormat(colW, pdfLineHeight, tr(clip(Text(v))), "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

// clip shortens long cell text; cells do not wrap.
func clip(s string) string {
	r := []rune(s)
	if len(r) <= pdfMaxCell {
		return s
	}
	return string(r[:pdfMaxCell-3]) + "..."
}
