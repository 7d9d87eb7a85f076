// Package render writes a refreshed report as a document in one of the
// supported export formats.
package render

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ashita-ai/rptrun/internal/model"
)

// ErrUnsupportedFormat is returned by Write for formats it has no writer for.
var ErrUnsupportedFormat = errors.New("render: unsupported format")

// Param is a parameter value printed in the document header.
type Param struct {
	Name  string
	Value string
}

// Section is one tabular block of the document, typically one table of the
// report or of a sub-report.
type Section struct {
	Title   string
	Columns []string
	Rows    [][]any
}

// Document is everything a writer needs to produce an export.
type Document struct {
	Title      string
	Generated  time.Time
	Parameters []Param
	Sections   []Section
}

type writerFunc func(w io.Writer, doc Document) error

var writers = map[model.Format]writerFunc{
	model.FormatPDF:      writePDF,
	model.FormatWord:     writeDocx,
	model.FormatExcel:    writeXLSX,
	model.FormatRichText: writeRTF,
	model.FormatHTML:     writeHTML,
	model.FormatCSV:      writeCSV,
}

// Write renders doc to w in the given format.
func Write(w io.Writer, format model.Format, doc Document) error {
	fn, ok := writers[format]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err := fn(w, doc); err != nil {
		return fmt.Errorf("render: %s: %w", format, err)
	}
	return nil
}

// Text formats a cell value for the text-based writers.
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(time.DateOnly)
		}
		return x.Format(time.DateTime)
	case driver.Valuer:
		dv, err := x.Value()
		if err != nil {
			return fmt.Sprint(x)
		}
		return Text(dv)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func generatedLine(doc Document) string {
	if doc.Generated.IsZero() {
		return ""
	}
	return "Generated " + doc.Generated.Format(time.DateTime)
}
