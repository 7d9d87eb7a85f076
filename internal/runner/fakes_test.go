package runner

import (
	"context"
	"errors"

	"github.com/ashita-ai/rptrun/internal/engine"
	"github.com/ashita-ai/rptrun/internal/model"
)

type fakeTable struct {
	name    string
	err     error
	applied []model.ConnectionInfo
}

func (t *fakeTable) Name() string { return t.name }

func (t *fakeTable) ApplyConnection(info model.ConnectionInfo) error {
	t.applied = append(t.applied, info)
	return t.err
}

type fakeReport struct {
	name   string
	slots  []model.ParameterSlot
	tables []*fakeTable
	subs   []*fakeReport

	values      map[string]any
	byIndex     map[int]any
	rejectNames map[string]bool // rejected by both setters
	rejectIndex bool
	refreshErr error
	exportErr  error

	refreshes int
	exports   []engine.ExportOptions
	closes    int
}

func (r *fakeReport) Name() string                      { return r.name }
func (r *fakeReport) Parameters() []model.ParameterSlot { return r.slots }

func (r *fakeReport) Tables() []engine.Table {
	out := make([]engine.Table, len(r.tables))
	for i, t := range r.tables {
		out[i] = t
	}
	return out
}

func (r *fakeReport) Subreports() []engine.Report {
	out := make([]engine.Report, len(r.subs))
	for i, s := range r.subs {
		out[i] = s
	}
	return out
}

func (r *fakeReport) SetParameterByName(name string, value any) error {
	if r.rejectNames[name] {
		return engine.ErrUnknownParameter
	}
	for _, s := range r.slots {
		if s.Name == name {
			if r.values == nil {
				r.values = map[string]any{}
			}
			r.values[name] = value
			return nil
		}
	}
	return engine.ErrUnknownParameter
}

func (r *fakeReport) SetParameterByIndex(index int, value any) error {
	if r.rejectIndex || index < 0 || index >= len(r.slots) {
		return engine.ErrParameterIndex
	}
	if r.byIndex == nil {
		r.byIndex = map[int]any{}
	}
	r.byIndex[index] = value
	return nil
}

func (r *fakeReport) Refresh(context.Context) error {
	r.refreshes++
	return r.refreshErr
}

func (r *fakeReport) Export(_ context.Context, opts engine.ExportOptions) error {
	r.exports = append(r.exports, opts)
	return r.exportErr
}

func (r *fakeReport) Close() error {
	r.closes++
	if r.closes > 1 {
		return engine.ErrClosed
	}
	return nil
}

type fakeEngine struct {
	report  *fakeReport
	openErr error
	opened  []string
}

func (e *fakeEngine) Open(_ context.Context, path string) (engine.Report, error) {
	e.opened = append(e.opened, path)
	if e.openErr != nil {
		return nil, e.openErr
	}
	return e.report, nil
}

type fakeFiles struct {
	missing   bool
	existsErr error
	dirErr    error
	ensured   []string
}

func (f *fakeFiles) Exists(context.Context, string) (bool, error) {
	return !f.missing, f.existsErr
}

func (f *fakeFiles) EnsureDir(_ context.Context, location string) (string, error) {
	f.ensured = append(f.ensured, location)
	return "/out", f.dirErr
}

type fakeViewer struct {
	opened []string
	err    error
}

func (v *fakeViewer) Open(_ context.Context, path string) error {
	v.opened = append(v.opened, path)
	return v.err
}

var errBoom = errors.New("boom")
