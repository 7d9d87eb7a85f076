// Package paramfile reads report parameter values from a delimited file.
//
// The file holds parameter values separated by the control byte 0x01, the
// format produced by the legacy applications that call the launcher. Empty
// segments are dropped.
package paramfile

import (
	"context"
	"log/slog"
	"strings"
)

// Separator delimits values inside a parameter file.
const Separator = "\x01"

// Source is the storage the loader reads from.
type Source interface {
	Exists(ctx context.Context, location string) (bool, error)
	ReadFile(ctx context.Context, location string) ([]byte, error)
}

// Loader reads parameter files. Failures degrade to an empty value list.
type Loader struct {
	src    Source
	logger *slog.Logger
}

// NewLoader creates a Loader.
func NewLoader(src Source, logger *slog.Logger) *Loader {
	return &Loader{src: src, logger: logger}
}

// Load returns the ordered parameter values stored at path. A missing or
// unreadable file is logged and yields an empty slice.
func (l *Loader) Load(ctx context.Context, path string) []string {
	ok, err := l.src.Exists(ctx, path)
	if err != nil {
		l.logger.Error("paramfile: cannot read parameter file", "path", path, "error", err)
		return []string{}
	}
	if !ok {
		l.logger.Error("paramfile: parameter file not found", "path", path)
		return []string{}
	}
	data, err := l.src.ReadFile(ctx, path)
	if err != nil {
		l.logger.Error("paramfile: cannot read parameter file", "path", path, "error", err)
		return []string{}
	}
	values := Split(string(data))
	l.logger.Debug("paramfile: parameters loaded", "path", path, "count", len(values))
	return values
}

// Split cuts content on Separator and removes empty segments.
func Split(content string) []string {
	values := []string{}
	for _, v := range strings.Split(content, Separator) {
		if v != "" {
			values = append(values, v)
		}
	}
	return values
}
