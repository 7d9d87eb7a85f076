// Package sqlreport is a report engine whose reports are YAML files of
// named SQL queries. Each query becomes a section of the exported document.
package sqlreport

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ashita-ai/rptrun/internal/datasource"
	"github.com/ashita-ai/rptrun/internal/engine"
	"github.com/ashita-ai/rptrun/internal/model"
	"github.com/ashita-ai/rptrun/internal/render"
	"github.com/ashita-ai/rptrun/internal/telemetry"
)

var tracer = telemetry.Tracer("rptrun/sqlreport")

// Files reads report definitions and writes exports.
type Files interface {
	ReadFile(ctx context.Context, location string) ([]byte, error)
	WriteFile(ctx context.Context, location string, data []byte) error
}

// Resolver maps connection info to a data source.
type Resolver interface {
	Resolve(info model.ConnectionInfo) (datasource.Source, error)
}

// Engine opens report definitions.
type Engine struct {
	files    Files
	resolver Resolver
	logger   *slog.Logger
	now      func() time.Time

	open         func(context.Context, datasource.Source) (*sql.DB, error)
	connectRetry datasource.Retry
	queryRetry   datasource.Retry
}

// New creates an Engine.
func New(files Files, resolver Resolver, logger *slog.Logger) *Engine {
	return &Engine{
		files:        files,
		resolver:     resolver,
		logger:       logger,
		now:          time.Now,
		open:         datasource.Open,
		connectRetry: datasource.ConnectRetry,
		queryRetry:   datasource.QueryRetry,
	}
}

var _ engine.Engine = (*Engine)(nil)

// Open reads and validates the report at location.
func (e *Engine) Open(ctx context.Context, location string) (engine.Report, error) {
	data, err := e.files.ReadFile(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("sqlreport: read %s: %w", location, err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if def.Name == "" {
		def.Name = strings.TrimSuffix(path.Base(location), path.Ext(location))
	}

	s := &session{
		engine: e,
		params: newParamStore(def.Parameters),
		conns:  map[string]*sql.DB{},
	}
	r := s.build(def)
	if err := r.checkReferences(); err != nil {
		return nil, err
	}
	e.logger.Debug("sqlreport: report opened", "report", def.Name,
		"parameters", len(def.Parameters), "tables", len(def.Tables), "subreports", len(def.Subreports))
	return r, nil
}

// session is the state shared by a main report and its sub-reports.
type session struct {
	engine *Engine
	params *paramStore
	conns  map[string]*sql.DB // keyed by driver and connection string
	closed bool
}

func (s *session) build(def *Definition) *report {
	r := &report{session: s, def: def}
	for _, td := range def.Tables {
		r.tables = append(r.tables, &table{report: r, def: td})
	}
	for i := range def.Subreports {
		r.subs = append(r.subs, s.build(&def.Subreports[i]))
	}
	return r
}

func (s *session) db(ctx context.Context, src datasource.Source) (*sql.DB, error) {
	key := string(src.Driver) + "|" + src.DSN
	if db, ok := s.conns[key]; ok {
		return db, nil
	}
	e := s.engine
	var db *sql.DB
	attempt := 0
	err := e.connectRetry.Do(ctx, func() error {
		attempt++
		var oerr error
		db, oerr = e.open(ctx, src)
		if oerr != nil && attempt <= e.connectRetry.Attempts && datasource.IsStarting(oerr) {
			e.logger.Warn("sqlreport: data source not ready, retrying", "source", src.Redacted(), "attempt", attempt)
		}
		return oerr
	})
	if err != nil {
		return nil, err
	}
	s.conns[key] = db
	return db, nil
}

// report is a main report or a sub-report.
type report struct {
	session   *session
	def       *Definition
	tables    []*table
	subs      []*report
	refreshed bool
}

func (r *report) Name() string { return r.def.Name }

// Parameters lists the declared slots. Sub-reports declare none; their
// queries read the main report's values.
func (r *report) Parameters() []model.ParameterSlot {
	if len(r.def.Parameters) == 0 {
		return nil
	}
	return append([]model.ParameterSlot(nil), r.session.params.slots...)
}

func (r *report) Tables() []engine.Table {
	out := make([]engine.Table, len(r.tables))
	for i, t := range r.tables {
		out[i] = t
	}
	return out
}

func (r *report) Subreports() []engine.Report {
	out := make([]engine.Report, len(r.subs))
	for i, s := range r.subs {
		out[i] = s
	}
	return out
}

func (r *report) SetParameterByName(name string, value any) error {
	if r.session.closed {
		return engine.ErrClosed
	}
	return r.session.params.setByName(name, value)
}

func (r *report) SetParameterByIndex(index int, value any) error {
	if r.session.closed {
		return engine.ErrClosed
	}
	return r.session.params.setByIndex(index, value)
}

// Refresh runs every query of the report and of its sub-reports.
func (r *report) Refresh(ctx context.Context) error {
	if r.session.closed {
		return engine.ErrClosed
	}
	for _, t := range r.tables {
		if err := t.load(ctx); err != nil {
			return fmt.Errorf("sqlreport: refresh %s: %w", r.def.Name, err)
		}
	}
	for _, sub := range r.subs {
		if err := sub.Refresh(ctx); err != nil {
			return err
		}
	}
	r.refreshed = true
	return nil
}

// Export renders the refreshed data and writes it to opts.Destination.
func (r *report) Export(ctx context.Context, opts engine.ExportOptions) error {
	if r.session.closed {
		return engine.ErrClosed
	}
	if !r.refreshed {
		return engine.ErrNotRefreshed
	}
	if opts.Destination == "" {
		return errors.New("sqlreport: export: no destination")
	}

	ctx, span := tracer.Start(ctx, "sqlreport.export")
	defer span.End()
	span.SetAttributes(attribute.String("report", r.def.Name), attribute.String("format", string(opts.Format)))

	doc := render.Document{
		Title:      r.def.Title,
		Generated:  r.session.engine.now(),
		Parameters: r.session.params.header(),
	}
	if doc.Title == "" {
		doc.Title = r.def.Name
	}
	r.sections(&doc, "")

	var buf bytes.Buffer
	if err := render.Write(&buf, opts.Format, doc); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if err := r.session.engine.files.WriteFile(ctx, opts.Destination, buf.Bytes()); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("sqlreport: write %s: %w", opts.Destination, err)
	}
	r.session.engine.logger.Debug("sqlreport: exported", "report", r.def.Name,
		"format", string(opts.Format), "destination", opts.Destination, "bytes", buf.Len())
	return nil
}

func (r *report) sections(doc *render.Document, prefix string) {
	for _, t := range r.tables {
		doc.Sections = append(doc.Sections, render.Section{
			Title:   prefix + t.def.Name,
			Columns: t.columns,
			Rows:    t.rows,
		})
	}
	for _, sub := range r.subs {
		sub.sections(doc, prefix+sub.def.Name+" / ")
	}
}

// Close releases every connection opened by the report tree. Closing any
// handle of the tree closes all of it.
func (r *report) Close() error {
	if r.session.closed {
		return engine.ErrClosed
	}
	r.session.closed = true
	var errs []error
	for key, db := range r.session.conns {
		if err := db.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(r.session.conns, key)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("sqlreport: close %s: %w", r.def.Name, err)
	}
	return nil
}

// checkReferences verifies that every query references declared parameters.
func (r *report) checkReferences() error {
	for _, t := range r.tables {
		for _, name := range references(t.def.Query) {
			if r.session.params.index(name) < 0 {
				return fmt.Errorf("%w: %s: table %q references undeclared parameter %q",
					ErrInvalidDefinition, r.def.Name, t.def.Name, name)
			}
		}
	}
	for _, sub := range r.subs {
		if err := sub.checkReferences(); err != nil {
			return err
		}
	}
	return nil
}

// table is one query of a report.
type table struct {
	report  *report
	def     TableDef
	source  *datasource.Source
	columns []string
	rows    [][]any
}

func (t *table) Name() string { return t.def.Name }

// ApplyConnection resolves info to a data source. The connection itself is
// opened on the first refresh.
func (t *table) ApplyConnection(info model.ConnectionInfo) error {
	if t.report.session.closed {
		return engine.ErrClosed
	}
	src, err := t.report.session.engine.resolver.Resolve(info)
	if err != nil {
		return fmt.Errorf("sqlreport: table %s: %w", t.def.Name, err)
	}
	t.source = &src
	return nil
}

func (t *table) load(ctx context.Context) (err error) {
	if t.source == nil {
		return fmt.Errorf("table %s: %w", t.def.Name, engine.ErrNotConnected)
	}
	ctx, span := tracer.Start(ctx, "sqlreport.query")
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("table", t.def.Name), attribute.String("db.system", string(t.source.Driver)))

	query, args, err := expand(t.def.Query, t.source.Driver, t.report.session.params.bound(t.source.Driver))
	if err != nil {
		return fmt.Errorf("table %s: %w", t.def.Name, err)
	}
	db, err := t.report.session.db(ctx, *t.source)
	if err != nil {
		return fmt.Errorf("table %s: %w", t.def.Name, err)
	}

	var rows *sql.Rows
	err = t.report.session.engine.queryRetry.Do(ctx, func() error {
		var qerr error
		rows, qerr = db.QueryContext(ctx, query, args...)
		return qerr
	})
	if err != nil {
		return fmt.Errorf("table %s: query: %w", t.def.Name, err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("table %s: columns: %w", t.def.Name, err)
	}
	var data [][]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("table %s: scan: %w", t.def.Name, err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		data = append(data, values)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("table %s: rows: %w", t.def.Name, err)
	}

	t.columns, t.rows = columns, data
	span.SetAttributes(attribute.Int("rows", len(data)))
	t.report.session.engine.logger.Debug("sqlreport: table loaded", "table", t.def.Name, "rows", len(data))
	return nil
}
