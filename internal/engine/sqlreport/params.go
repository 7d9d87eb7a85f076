package sqlreport

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ashita-ai/rptrun/internal/datasource"
	"github.com/ashita-ai/rptrun/internal/engine"
	"github.com/ashita-ai/rptrun/internal/model"
	"github.com/ashita-ai/rptrun/internal/render"
)

// ErrMissingParameter is returned by Refresh when a required parameter was
// never set and declares no default.
var ErrMissingParameter = errors.New("sqlreport: required parameter not set")

// paramStore holds the values of the main report's parameters. Sub-reports
// share the store of their main report.
type paramStore struct {
	slots  []model.ParameterSlot
	values map[int]any
}

func newParamStore(defs []ParameterDef) *paramStore {
	s := &paramStore{values: map[int]any{}}
	for _, d := range defs {
		s.slots = append(s.slots, d.Slot())
	}
	return s
}

func (s *paramStore) index(name string) int {
	for i, slot := range s.slots {
		if strings.EqualFold(slot.Name, name) {
			return i
		}
	}
	return -1
}

func (s *paramStore) setByName(name string, value any) error {
	i := s.index(name)
	if i < 0 {
		return fmt.Errorf("%w: %q", engine.ErrUnknownParameter, name)
	}
	return s.set(i, value)
}

func (s *paramStore) setByIndex(i int, value any) error {
	if i < 0 || i >= len(s.slots) {
		return fmt.Errorf("%w: %d (report declares %d)", engine.ErrParameterIndex, i, len(s.slots))
	}
	return s.set(i, value)
}

func (s *paramStore) set(i int, value any) error {
	slot := s.slots[i]
	if !accepts(slot.Kind, value) {
		return fmt.Errorf("%w: %s is %s, got %s", engine.ErrTypeMismatch, slot.Name, slot.Kind.TypeName(), describe(value))
	}
	s.values[i] = value
	return nil
}

// value returns what a query sees for the named parameter. A parameter that
// is unset, or set to null, falls back to its default.
func (s *paramStore) value(name string) (any, error) {
	i := s.index(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", engine.ErrUnknownParameter, name)
	}
	slot := s.slots[i]
	v, set := s.values[i]
	if v != nil {
		return v, nil
	}
	if slot.DefaultValue != "" {
		return slot.DefaultValue, nil
	}
	if !set && slot.Required {
		return nil, fmt.Errorf("%w: %s", ErrMissingParameter, slot.Name)
	}
	return nil, nil
}

// bound returns the lookup expand uses for driver. SQLite has no date or
// decimal types, so values for it are rewritten into the text and REAL forms
// its date functions and ISO-text columns compare against.
func (s *paramStore) bound(driver datasource.Driver) func(string) (any, error) {
	return func(name string) (any, error) {
		v, err := s.value(name)
		if err != nil || driver != datasource.DriverSQLite {
			return v, err
		}
		return sqliteValue(s.slots[s.index(name)].Kind, v), nil
	}
}

const (
	sqliteDate     = "2006-01-02"
	sqliteDateTime = "2006-01-02 15:04:05"
	sqliteTime     = "15:04:05"
)

func sqliteValue(kind model.ParameterKind, v any) any {
	switch x := v.(type) {
	case time.Time:
		switch kind {
		case model.KindDate:
			return x.Format(sqliteDate)
		case model.KindTime:
			return x.Format(sqliteTime)
		default:
			return x.Format(sqliteDateTime)
		}
	case pgtype.Time:
		if !x.Valid {
			return nil
		}
		secs := x.Microseconds / int64(time.Second/time.Microsecond)
		return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs/60%60, secs%60)
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	}
	return v
}

// header renders current values for the document header.
func (s *paramStore) header() []render.Param {
	out := make([]render.Param, 0, len(s.slots))
	for _, slot := range s.slots {
		text := "(not set)"
		if v, err := s.value(slot.Name); err == nil {
			text = render.Text(v)
		}
		out = append(out, render.Param{Name: slot.Name, Value: text})
	}
	return out
}

// accepts reports whether value can be bound to a parameter of kind.
// Null and strings are accepted for every kind; the database parses
// strings itself.
func accepts(kind model.ParameterKind, value any) bool {
	switch value.(type) {
	case nil, string:
		return true
	}
	switch kind {
	case model.KindBoolean:
		_, ok := value.(bool)
		return ok
	case model.KindNumber:
		switch value.(type) {
		case float64, float32, int, int32, int64:
			return true
		}
	case model.KindCurrency:
		switch value.(type) {
		case pgtype.Numeric, float64, int64:
			return true
		}
	case model.KindDate, model.KindDateTime:
		_, ok := value.(time.Time)
		return ok
	case model.KindTime:
		switch value.(type) {
		case pgtype.Time, time.Time:
			return true
		}
	}
	return false
}
