package params

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/rptrun/internal/engine"
	"github.com/ashita-ai/rptrun/internal/model"
	"github.com/ashita-ai/rptrun/internal/testutil"
)

type setCall struct {
	byName bool
	key    any
	value  any
}

// scriptedReport accepts or rejects parameter writes according to its hooks.
type scriptedReport struct {
	byName  func(name string, value any) error
	byIndex func(index int, value any) error
	calls   []setCall
}

func (r *scriptedReport) Name() string { return "scripted" }
func (r *scriptedReport) Parameters() []model.ParameterSlot { return nil }
func (r *scriptedReport) Tables() []engine.Table { return nil }
func (r *scriptedReport) Subreports() []engine.Report { return nil }
func (r *scriptedReport) Refresh(context.Context) error { return nil }
func (r *scriptedReport) Export(context.Context, engine.ExportOptions) error { return nil }
func (r *scriptedReport) Close() error { return nil }

func (r *scriptedReport) SetParameterByName(name string, value any) error {
	r.calls = append(r.calls, setCall{byName: true, key: name, value: value})
	if r.byName == nil {
		return nil
	}
	return r.byName(name, value)
}

func (r *scriptedReport) SetParameterByIndex(index int, value any) error {
	r.calls = append(r.calls, setCall{key: index, value: value})
	if r.byIndex == nil {
		return nil
	}
	return r.byIndex(index, value)
}

func binding(i int, name string, kind model.ParameterKind, value string) model.Binding {
	return model.Binding{Index: i, Slot: model.ParameterSlot{Name: name, Kind: kind}, Raw: raw(value)}
}

func newBinder(logger *slog.Logger, out *bytes.Buffer) *Binder {
	return NewBinder(NewConverter(logger), out, logger)
}

func TestBindConvertedByName(t *testing.T) {
	var out bytes.Buffer
	report := &scriptedReport{}
	b := newBinder(testutil.TestLogger(), &out)

	res := b.Bind(report, []model.Binding{
		binding(0, "CustomerID", model.KindNumber, "42"),
		binding(1, "Region", model.KindString, "EU"),
	})

	assert.Equal(t, BindResult{Bound: 2}, res)
	require.Len(t, report.calls, 2)
	assert.Equal(t, setCall{byName: true, key: "CustomerID", value: 42.0}, report.calls[0])
	assert.Equal(t, setCall{byName: true, key: "Region", value: "EU"}, report.calls[1])
	assert.Contains(t, out.String(), "Parameter 1 (CustomerID): 42")
	assert.Contains(t, out.String(), "Parameter 2 (Region): EU")
}

func TestBindFallsBackToRawByName(t *testing.T) {
	report := &scriptedReport{
		byName: func(_ string, value any) error {
			if _, ok := value.(string); ok {
				return nil
			}
			return engine.ErrTypeMismatch
		},
	}
	b := newBinder(testutil.TestLogger(), &bytes.Buffer{})

	res := b.Bind(report, []model.Binding{binding(0, "Active", model.KindBoolean, "SI")})

	assert.Equal(t, BindResult{Bound: 1, Fallbacks: 1}, res)
	require.Len(t, report.calls, 2)
	assert.Equal(t, true, report.calls[0].value)
	assert.Equal(t, "SI", report.calls[1].value)
}

func TestBindFallsBackToPosition(t *testing.T) {
	report := &scriptedReport{
		byName: func(string, any) error { return engine.ErrUnknownParameter },
	}
	b := newBinder(testutil.TestLogger(), &bytes.Buffer{})

	res := b.Bind(report, []model.Binding{binding(3, "Renamed", model.KindString, "x")})

	assert.Equal(t, BindResult{Bound: 1, Fallbacks: 1}, res)
	require.Len(t, report.calls, 3)
	assert.Equal(t, setCall{key: 3, value: "x"}, report.calls[2])
}

func TestBindAllStrategiesFailContinues(t *testing.T) {
	rec := testutil.NewRecorder()
	var out bytes.Buffer
	report := &scriptedReport{
		byName: func(name string, _ any) error {
			if name == "Broken" {
				return engine.ErrUnknownParameter
			}
			return nil
		},
		byIndex: func(int, any) error { return engine.ErrParameterIndex },
	}
	b := newBinder(rec.Logger(), &out)

	res := b.Bind(report, []model.Binding{
		binding(0, "Broken", model.KindString, "a"),
		binding(1, "Fine", model.KindString, "b"),
	})

	assert.Equal(t, 1, res.Bound)
	assert.Equal(t, []string{"Broken"}, res.Failed)
	require.Equal(t, 1, rec.Count(slog.LevelError))
	err, ok := rec.Entries(slog.LevelError)[0].Attrs["error"].(error)
	require.True(t, ok)
	assert.True(t, errors.Is(err, engine.ErrParameterIndex))
	assert.Equal(t, 3, rec.Count(slog.LevelWarn))
	assert.Contains(t, out.String(), "parameter Broken was not set")
}

func TestBindPlaceholderPassesNil(t *testing.T) {
	report := &scriptedReport{}
	var out bytes.Buffer
	b := newBinder(testutil.TestLogger(), &out)

	missing := model.Binding{Index: 0, Slot: model.ParameterSlot{Name: "From", Kind: model.KindDate}}
	res := b.Bind(report, []model.Binding{missing})

	assert.Equal(t, 1, res.Bound)
	require.Len(t, report.calls, 1)
	assert.Nil(t, report.calls[0].value)
	assert.Contains(t, out.String(), "Parameter 1 (From): <null>")
}

func TestBindNothing(t *testing.T) {
	report := &scriptedReport{}
	var out bytes.Buffer
	res := newBinder(testutil.TestLogger(), &out).Bind(report, nil)

	assert.Equal(t, BindResult{}, res)
	assert.Empty(t, report.calls)
	assert.Empty(t, out.String())
}
