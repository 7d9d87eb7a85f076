package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const maxSheetName = 31

// writeXLSX writes one worksheet per section. The first worksheet also
// carries the document title and parameters above the table.
func writeXLSX(w io.Writer, doc Document) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDDDDD"}},
	})
	if err != nil {
		return err
	}

	sections := doc.Sections
	if len(sections) == 0 {
		sections = []Section{{Title: doc.Title}}
	}
	used := map[string]bool{}
	for i, s := range sections {
		name := sheetName(s.Title, i, used)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return err
		}

		row := 1
		if i == 0 {
			if err := f.SetCellValue(name, "A1", doc.Title); err != nil {
				return err
			}
			if err := f.SetCellStyle(name, "A1", "A1", bold); err != nil {
				return err
			}
			row = 2
			if g := generatedLine(doc); g != "" {
				if err := f.SetCellValue(name, cell(1, row), g); err != nil {
					return err
				}
				row++
			}
			for _, p := range doc.Parameters {
				if err := f.SetSheetRow(name, cell(1, row), &[]any{p.Name, p.Value}); err != nil {
					return err
				}
				row++
			}
			row++
		}

		if len(s.Columns) == 0 {
			continue
		}
		first := cell(1, row)
		if err := f.SetSheetRow(name, first, &s.Columns); err != nil {
			return err
		}
		if err := f.SetCellStyle(name, first, cell(len(s.Columns), row), header); err != nil {
			return err
		}
		for _, r := range s.Rows {
			row++
			values := make([]any, len(r))
			for j, v := range r {
				values[j] = xlsxValue(v)
			}
			if err := f.SetSheetRow(name, cell(1, row), &values); err != nil {
				return err
			}
		}
	}
	f.SetActiveSheet(0)
	return f.Write(w)
}

// xlsxValue keeps numbers, booleans and times native and formats anything
// else as text.
func xlsxValue(v any) any {
	switch v.(type) {
	case nil:
		return nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
		float32, float64, bool, string:
		return v
	case time.Time:
		if v.(time.Time).IsZero() {
			return nil
		}
		return v
	default:
		return Text(v)
	}
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// sheetName derives a unique, valid worksheet name from a section title.
func sheetName(title string, i int, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(title))
	name = strings.Trim(name, "'")
	if name == "" {
		name = fmt.Sprintf("Section %d", i+1)
	}
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	base := name
	for n := 2; used[strings.ToLower(name)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		r := []rune(base)
		if len(r)+len(suffix) > maxSheetName {
			r = r[:maxSheetName-len(suffix)]
		}
		name = string(r) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}
