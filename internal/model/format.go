package model

// Format is an export file format understood by the report engine.
type Format string

const (
	FormatPDF      Format = "pdf"
	FormatWord     Format = "word"
	FormatExcel    Format = "excel"
	FormatRichText Format = "rtf"
	FormatHTML     Format = "html"
	FormatCSV      Format = "csv"
)

// Extension returns the canonical file extension for f, including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatWord:
		return ".docx"
	case FormatExcel:
		return ".xlsx"
	case FormatRichText:
		return ".rtf"
	case FormatHTML:
		return ".html"
	case FormatCSV:
		return ".csv"
	default:
		return ".pdf"
	}
}
