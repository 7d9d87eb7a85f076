package runner

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/ashita-ai/rptrun/internal/engine"
	"github.com/ashita-ai/rptrun/internal/model"
)

var extensionFormats = map[string]model.Format{
	".pdf":  model.FormatPDF,
	".doc":  model.FormatWord,
	".docx": model.FormatWord,
	".xls":  model.FormatExcel,
	".xlsx": model.FormatExcel,
	".rtf":  model.FormatRichText,
	".html": model.FormatHTML,
	".htm":  model.FormatHTML,
	".csv":  model.FormatCSV,
}

// DetermineFormat picks the export format from the extension of path.
// Unrecognised extensions fall back to PDF with a warning.
func DetermineFormat(path string, logger *slog.Logger) model.Format {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extensionFormats[ext]; ok {
		return f
	}
	logger.Warn("runner: unrecognised output extension, exporting as PDF", "path", path, "extension", ext)
	return model.FormatPDF
}

// Exporter hands export requests to the engine.
type Exporter struct {
	logger *slog.Logger
}

// NewExporter creates an Exporter.
func NewExporter(logger *slog.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// Export writes report to path in format.
func (e *Exporter) Export(ctx context.Context, report engine.Report, path string, format model.Format) error {
	e.logger.Info("runner: exporting report", "path", path, "format", string(format))
	opts := engine.ExportOptions{Format: format, Destination: path}
	if err := report.Export(ctx, opts); err != nil {
		return fmt.Errorf("export report to %s: %w", path, err)
	}
	return nil
}
