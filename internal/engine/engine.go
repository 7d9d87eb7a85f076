// Package engine declares the capabilities the launcher needs from a report
// engine. The orchestrator only talks to these interfaces; the concrete
// engine owns the report handle and everything behind it.
package engine

import (
	"context"
	"errors"

	"github.com/ashita-ai/rptrun/internal/model"
)

var (
	// ErrUnknownParameter is returned when a parameter name is not declared by the report.
	ErrUnknownParameter = errors.New("engine: unknown parameter")
	// ErrParameterIndex is returned when a parameter position is out of range.
	ErrParameterIndex = errors.New("engine: parameter index out of range")
	// ErrTypeMismatch is returned when a value does not fit the parameter kind.
	ErrTypeMismatch = errors.New("engine: value does not match parameter type")
	// ErrNotConnected is returned by Refresh when a table has no connection applied.
	ErrNotConnected = errors.New("engine: table has no connection")
	// ErrNotRefreshed is returned by Export before a successful Refresh.
	ErrNotRefreshed = errors.New("engine: report has not been refreshed")
	// ErrClosed is returned when a closed report is used.
	ErrClosed = errors.New("engine: report is closed")
)

// Engine loads report definitions.
type Engine interface {
	Open(ctx context.Context, path string) (Report, error)
}

// Report is a loaded report handle. Close must be called exactly once
// when the caller is done with it; it releases every resource the handle
// holds, connections included.
type Report interface {
	Name() string
	// Parameters lists the declared parameter slots in declaration order.
	Parameters() []model.ParameterSlot
	Tables() []Table
	Subreports() []Report

	SetParameterByName(name string, value any) error
	SetParameterByIndex(index int, value any) error

	Refresh(ctx context.Context) error
	Export(ctx context.Context, opts ExportOptions) error
	Close() error
}

// Table is a data source used by a report.
type Table interface {
	Name() string
	ApplyConnection(info model.ConnectionInfo) error
}

// ExportOptions selects the format and destination of an export.
type ExportOptions struct {
	Format      model.Format
	Destination string
}
