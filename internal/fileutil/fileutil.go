// Package fileutil wraps the afs storage service with the few file
// operations the launcher needs. Paths may be local file paths or any URL
// scheme afs understands.
package fileutil

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

// Files performs storage operations through an afs.Service.
type Files struct {
	fs afs.Service
}

// New creates Files backed by a fresh afs service.
func New() *Files {
	return &Files{fs: afs.New()}
}

// URL turns a local path into an absolute location; URLs are returned unchanged.
func URL(location string) string {
	if strings.Contains(location, "://") {
		return location
	}
	if abs, err := filepath.Abs(location); err == nil {
		return abs
	}
	return location
}

// Exists reports whether location exists.
func (f *Files) Exists(ctx context.Context, location string) (bool, error) {
	ok, err := f.fs.Exists(ctx, URL(location))
	if err != nil {
		return false, fmt.Errorf("fileutil: check %s: %w", location, err)
	}
	return ok, nil
}

// ReadFile returns the whole content of location.
func (f *Files) ReadFile(ctx context.Context, location string) ([]byte, error) {
	data, err := f.fs.DownloadWithURL(ctx, URL(location))
	if err != nil {
		return nil, fmt.Errorf("fileutil: read %s: %w", location, err)
	}
	return data, nil
}

// WriteFile replaces location with data.
func (f *Files) WriteFile(ctx context.Context, location string, data []byte) error {
	if err := f.fs.Upload(ctx, URL(location), file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("fileutil: write %s: %w", location, err)
	}
	return nil
}

// EnsureDir creates the parent directory of the file at location when it is
// missing. It returns the directory it checked, or "" when location has none.
func (f *Files) EnsureDir(ctx context.Context, location string) (string, error) {
	parent, _ := url.Split(URL(location), file.Scheme)
	if parent == "" {
		return "", nil
	}
	ok, err := f.fs.Exists(ctx, parent)
	if err != nil {
		return parent, fmt.Errorf("fileutil: check %s: %w", parent, err)
	}
	if ok {
		return parent, nil
	}
	if err := f.fs.Create(ctx, parent, file.DefaultDirOsMode, true); err != nil {
		return parent, fmt.Errorf("fileutil: create %s: %w", parent, err)
	}
	return parent, nil
}
