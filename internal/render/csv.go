package render

import (
	"encoding/csv"
	"io"
)

// writeCSV writes each section as a header row followed by its rows.
// Sections are separated by an empty record and, when there is more than
// one, preceded by a record holding the section title.
func writeCSV(w io.Writer, doc Document) error {
	cw := csv.NewWriter(w)
	titled := len(doc.Sections) > 1
	for i, s := range doc.Sections {
		if i > 0 {
			if err := cw.Write([]string{""}); err != nil {
				return err
			}
		}
		if titled {
			if err := cw.Write([]string{s.Title}); err != nil {
				return err
			}
		}
		if err := cw.Write(s.Columns); err != nil {
			return err
		}
		for _, row := range s.Rows {
			rec := make([]string, len(row))
			for j, v := range row {
				rec[j] = Text(v)
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
