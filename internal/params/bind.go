package params

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/ashita-ai/rptrun/internal/engine"
	"github.com/ashita-ai/rptrun/internal/model"
)

// strategy is one way of handing a binding to the report.
type strategy struct {
	name  string
	apply func(report engine.Report, b model.Binding, converted any) error
}

// strategies are tried in order until one succeeds.
var strategies = []strategy{
	{
		name: "converted value by name",
		apply: func(report engine.Report, b model.Binding, converted any) error {
			return report.SetParameterByName(b.Name(), converted)
		},
	},
	{
		name: "raw value by name",
		apply: func(report engine.Report, b model.Binding, _ any) error {
			return report.SetParameterByName(b.Name(), rawValue(b))
		},
	},
	{
		name: "raw value by position",
		apply: func(report engine.Report, b model.Binding, _ any) error {
			return report.SetParameterByIndex(b.Index, rawValue(b))
		},
	},
}

func rawValue(b model.Binding) any {
	if !b.Raw.Valid {
		return nil
	}
	return b.Raw.String
}

// BindResult summarises a Bind call.
type BindResult struct {
	Bound     int      // bindings accepted by the report
	Fallbacks int      // bindings that needed more than one strategy
	Failed    []string // names of bindings no strategy could set
}

// Binder sets reconciled bindings on a report.
type Binder struct {
	converter *Converter
	logger    *slog.Logger
	out       io.Writer
}

// NewBinder creates a Binder.
func NewBinder(converter *Converter, out io.Writer, logger *slog.Logger) *Binder {
	return &Binder{converter: converter, logger: logger, out: out}
}

// Bind sets every binding on report. A binding that fails with every
// strategy is logged and skipped; Bind itself never fails.
func (b *Binder) Bind(report engine.Report, bindings []model.Binding) BindResult {
	var result BindResult
	if len(bindings) == 0 {
		return result
	}
	b.logger.Info("params: setting report parameters", "count", len(bindings))
	_, _ = fmt.Fprintln(b.out, "Setting report parameters:")

	for _, binding := range bindings {
		display := "<null>"
		if binding.Raw.Valid {
			display = binding.Raw.String
		}
		_, _ = fmt.Fprintf(b.out, "  Parameter %d (%s): %s\n", binding.Index+1, binding.Name(), display)

		converted := b.converter.Convert(binding.Raw, binding.Slot.Kind)
		b.logger.Debug("params: converted value", "name", binding.Name(), "type", binding.Slot.Kind.TypeName(), "value", converted)

		attempt, err := b.bindOne(report, binding, converted)
		switch {
		case err != nil:
			b.logger.Error("params: cannot set parameter with any strategy", "name", binding.Name(), "position", binding.Index+1, "error", err)
			_, _ = fmt.Fprintf(b.out, "  WARNING: parameter %s was not set: %v\n", binding.Name(), err)
			result.Failed = append(result.Failed, binding.Name())
		case attempt > 0:
			result.Fallbacks++
			result.Bound++
		default:
			result.Bound++
		}
	}
	return result
}

// bindOne tries each strategy in turn and returns the index of the one that
// succeeded, or the last error when none did.
func (b *Binder) bindOne(report engine.Report, binding model.Binding, converted any) (int, error) {
	var lastErr error
	for i, s := range strategies {
		err := s.apply(report, binding, converted)
		if err == nil {
			if i > 0 {
				b.logger.Info("params: parameter set by fallback", "name", binding.Name(), "strategy", s.name)
			}
			return i, nil
		}
		b.logger.Warn("params: set parameter failed", "name", binding.Name(), "strategy", s.name, "error", err)
		lastErr = err
	}
	return -1, lastErr
}
