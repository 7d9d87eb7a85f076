// Package runner drives one report run: validate, load, connect, bind
// parameters, refresh, then export or open the result. The report handle
// is closed on every path that obtained one.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/ashita-ai/rptrun/internal/ctxutil"
	"github.com/ashita-ai/rptrun/internal/engine"
	"github.com/ashita-ai/rptrun/internal/model"
	"github.com/ashita-ai/rptrun/internal/params"
	"github.com/ashita-ai/rptrun/internal/telemetry"
)

var tracer = telemetry.Tracer("rptrun/runner")

// Files is the file system access a run needs.
type Files interface {
	Exists(ctx context.Context, location string) (bool, error)
	EnsureDir(ctx context.Context, location string) (string, error)
}

// Viewer opens an exported file for the operator.
type Viewer interface {
	Open(ctx context.Context, path string) error
}

// Deps are the collaborators of a Runner. Out receives operator-facing
// console text.
type Deps struct {
	Engine engine.Engine
	Files  Files
	Viewer Viewer
	Out    io.Writer
	Logger *slog.Logger
}

// Runner executes report runs. A Runner runs one report at a time.
type Runner struct {
	engine     engine.Engine
	files      Files
	viewer     Viewer
	out        io.Writer
	logger     *slog.Logger
	reconciler *params.Reconciler
	binder     *params.Binder
	exporter   *Exporter
	now        func() time.Time

	state State

	runs        metric.Int64Counter
	fallbacks   metric.Int64Counter
	bindFailed  metric.Int64Counter
	runDuration metric.Float64Histogram
}

// New creates a Runner.
func New(d Deps) *Runner {
	meter := telemetry.Meter("rptrun/runner")
	runs, _ := meter.Int64Counter("rptrun.runs",
		metric.WithDescription("Report runs by outcome"),
	)
	fallbacks, _ := meter.Int64Counter("rptrun.parameters.fallbacks",
		metric.WithDescription("Parameters set by a fallback strategy"),
	)
	bindFailed, _ := meter.Int64Counter("rptrun.parameters.failed",
		metric.WithDescription("Parameters no strategy could set"),
	)
	runDur, _ := meter.Float64Histogram("rptrun.run.duration",
		metric.WithDescription("Time to run a report (ms)"),
		metric.WithUnit("ms"),
	)
	return &Runner{
		engine:      d.Engine,
		files:       d.Files,
		viewer:      d.Viewer,
		out:         d.Out,
		logger:      d.Logger,
		reconciler:  params.NewReconciler(d.Out, d.Logger),
		binder:      params.NewBinder(params.NewConverter(d.Logger), d.Out, d.Logger),
		exporter:    NewExporter(d.Logger),
		now:         time.Now,
		state:       Created,
		runs:        runs,
		fallbacks:   fallbacks,
		bindFailed:  bindFailed,
		runDuration: runDur,
	}
}

// State returns the state the last run reached: Closed once a loaded
// report has been released, Failed when a run stopped before loading.
func (r *Runner) State() State { return r.state }

// Run executes req. Fatal failures are returned as *StageError after the
// report, if loaded, has been closed.
func (r *Runner) Run(ctx context.Context, req model.RunRequest) (err error) {
	start := time.Now()
	r.state = Created

	ctx, span := tracer.Start(ctx, "rptrun.run")
	span.SetAttributes(
		attribute.String("rptrun.report", req.ReportPath),
		attribute.String("rptrun.run_id", ctxutil.RunIDFromContext(ctx)),
	)
	defer func() {
		outcome := "ok"
		var se *StageError
		if errors.As(err, &se) {
			outcome = "failed"
			span.SetStatus(codes.Error, err.Error())
			span.SetAttributes(attribute.String("rptrun.failed_stage", se.State.String()))
		}
		r.runs.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
		r.runDuration.Record(ctx, float64(time.Since(start).Milliseconds()))
		span.End()
	}()

	if err := r.stage(ctx, Validated, func(ctx context.Context) error { return r.validate(ctx, req) }); err != nil {
		return err
	}

	var report engine.Report
	if err := r.stage(ctx, Loaded, func(ctx context.Context) error {
		var err error
		report, err = r.engine.Open(ctx, req.ReportPath)
		return err
	}); err != nil {
		return err
	}
	r.logger.Info("runner: report loaded", "report", report.Name())
	_, _ = fmt.Fprintf(r.out, "Report loaded: %s\n", report.Name())

	defer func() {
		if cerr := report.Close(); cerr != nil {
			r.logger.Error("runner: close report", "error", cerr)
		}
		r.state = Closed
		r.logger.Debug("runner: report closed", "failed", err != nil)
	}()

	if err := r.stage(ctx, Connected, func(context.Context) error {
		return r.connect(report, req.Connection())
	}); err != nil {
		return err
	}

	_ = r.stage(ctx, ParametersBound, func(ctx context.Context) error {
		r.bind(ctx, report, req.Parameters)
		return nil
	})

	if err := r.stage(ctx, Refreshed, func(ctx context.Context) error {
		_, _ = fmt.Fprintln(r.out, "Refreshing report data...")
		return report.Refresh(ctx)
	}); err != nil {
		return err
	}

	if req.OutputPath == "" {
		return r.exportAndOpen(ctx, report)
	}
	return r.stage(ctx, Exported, func(ctx context.Context) error {
		return r.exportTo(ctx, report, req.OutputPath)
	})
}

// stage runs fn in its own span and records to as the current state when fn
// succeeds.
func (r *Runner) stage(ctx context.Context, to State, fn func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, "rptrun."+to.String())
	defer span.End()
	if err := fn(ctx); err != nil {
		span.SetStatus(codes.Error, err.Error())
		r.logger.Error("runner: stage failed", "stage", to.String(), "error", err)
		r.state = Failed
		return &StageError{State: to, Err: err}
	}
	r.state = to
	return nil
}

func (r *Runner) validate(ctx context.Context, req model.RunRequest) error {
	r.logger.Info("runner: validating request",
		"report", req.ReportPath,
		"dsn", req.DSN,
		"user", req.Username,
		"output", req.OutputPath)

	ok, err := r.files.Exists(ctx, req.ReportPath)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrReportNotFound, req.ReportPath)
	}
	return nil
}

// connect applies info to every table of report and of its sub-reports,
// depth first.
func (r *Runner) connect(report engine.Report, info model.ConnectionInfo) error {
	for _, t := range report.Tables() {
		if err := t.ApplyConnection(info); err != nil {
			return fmt.Errorf("report %s, table %s: %w", report.Name(), t.Name(), err)
		}
		r.logger.Debug("runner: connection applied", "report", report.Name(), "table", t.Name())
	}
	for _, sub := range report.Subreports() {
		if err := r.connect(sub, info); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) bind(ctx context.Context, report engine.Report, values []string) {
	slots := report.Parameters()
	params.Display(r.out, slots)
	if len(slots) == 0 {
		if len(values) > 0 {
			r.logger.Warn("runner: report declares no parameters, supplied values ignored", "supplied", len(values))
		}
		return
	}
	bindings := r.reconciler.Reconcile(slots, values)
	res := r.binder.Bind(report, bindings)
	r.fallbacks.Add(ctx, int64(res.Fallbacks))
	r.bindFailed.Add(ctx, int64(len(res.Failed)))
	r.logger.Info("runner: parameters bound", "bound", res.Bound, "fallbacks", res.Fallbacks, "failed", len(res.Failed))
}

func (r *Runner) exportTo(ctx context.Context, report engine.Report, path string) error {
	dir, err := r.files.EnsureDir(ctx, path)
	if err != nil {
		return err
	}
	if dir != "" {
		r.logger.Debug("runner: output directory ready", "dir", dir)
	}
	format := DetermineFormat(path, r.logger)
	if err := r.exporter.Export(ctx, report, path, format); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(r.out, "Report exported to: %s\n", path)
	return nil
}

// exportAndOpen exports to a timestamped PDF in the working directory and
// opens it. A viewer that fails to start is logged; the export stands.
func (r *Runner) exportAndOpen(ctx context.Context, report engine.Report) error {
	path := DefaultOutputName(r.now())
	if err := r.stage(ctx, Exported, func(ctx context.Context) error {
		if err := r.exporter.Export(ctx, report, path, model.FormatPDF); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(r.out, "Report exported to: %s\n", path)
		return nil
	}); err != nil {
		return err
	}

	_ = r.stage(ctx, Opened, func(ctx context.Context) error {
		if err := r.viewer.Open(ctx, path); err != nil {
			r.logger.Warn("runner: cannot open report viewer", "path", path, "error", err)
			_, _ = fmt.Fprintf(r.out, "WARNING: could not open %s: %v\n", path, err)
			return nil
		}
		_, _ = fmt.Fprintf(r.out, "Opening report: %s\n", path)
		return nil
	})
	return nil
}

// DefaultOutputName is the file a run without an output path exports to.
func DefaultOutputName(t time.Time) string {
	return "Report_" + t.Format("20060102_150405") + model.FormatPDF.Extension()
}
