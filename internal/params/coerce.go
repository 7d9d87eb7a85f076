// Package params reconciles user-supplied parameter values with the slots a
// report declares, converts raw strings to the declared kinds, and binds the
// results to a report through an ordered list of fallback strategies.
package params

import (
	"database/sql"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ashita-ai/rptrun/internal/model"
)

var (
	affirmative = map[string]bool{"SI": true, "S": true, "1": true, "TRUE": true, "T": true, "Y": true, "YES": true}
	negative    = map[string]bool{"NO": true, "N": true, "0": true, "FALSE": true, "F": true}
)

// dateLayouts are tried in order. Day-first numeric dates follow the
// convention of the systems that generate parameter files.
var dateLayouts = []struct {
	layout   string
	timeOnly bool
}{
	{layout: time.RFC3339Nano},
	{layout: "2006-01-02T15:04:05"},
	{layout: "2006-01-02 15:04:05"},
	{layout: "2006-01-02 15:04"},
	{layout: "2006-01-02"},
	{layout: "2006/01/02 15:04:05"},
	{layout: "2006/01/02"},
	{layout: "02/01/2006 15:04:05"},
	{layout: "02/01/2006 15:04"},
	{layout: "02/01/2006"},
	{layout: "02-01-2006"},
	{layout: "02.01.2006"},
	{layout: "15:04:05", timeOnly: true},
	{layout: "15:04", timeOnly: true},
}

// Converter turns raw parameter strings into values of the declared kind.
type Converter struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewConverter creates a Converter.
func NewConverter(logger *slog.Logger) *Converter {
	return &Converter{logger: logger, now: time.Now}
}

// Convert returns raw converted to kind. It never fails:
//   - empty or null input yields nil, or "" for string parameters;
//   - booleans that match neither set are false;
//   - malformed numbers and currency amounts are zero;
//   - malformed dates, date-times and times are nil;
//   - unknown kinds pass the string through.
//
// If conversion panics, the raw string is returned.
func (c *Converter) Convert(raw sql.NullString, kind model.ParameterKind) (v any) {
	if !raw.Valid || raw.String == "" {
		if kind == model.KindString {
			return ""
		}
		return nil
	}
	value := raw.String

	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("params: conversion failed, using raw value",
				"value", value, "type", kind.TypeName(), "error", fmt.Sprint(r))
			v = value
		}
	}()

	switch kind {
	case model.KindBoolean:
		return c.toBool(value)
	case model.KindNumber:
		f, ok := toFloat(value)
		if !ok {
			return float64(0)
		}
		return f
	case model.KindCurrency:
		n, ok := toNumeric(value)
		if !ok {
			return pgtype.Numeric{Int: big.NewInt(0), Valid: true}
		}
		return n
	case model.KindDate:
		t, ok := c.toTime(value)
		if !ok {
			return nil
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	case model.KindDateTime:
		t, ok := c.toTime(value)
		if !ok {
			return nil
		}
		return t
	case model.KindTime:
		t, ok := c.toTime(value)
		if !ok {
			return nil
		}
		return TimeOfDay(t)
	default:
		return value
	}
}

// TimeOfDay returns the time-of-day component of t.
func TimeOfDay(t time.Time) pgtype.Time {
	micros := int64(t.Hour())*int64(time.Hour/time.Microsecond) +
		int64(t.Minute())*int64(time.Minute/time.Microsecond) +
		int64(t.Second())*int64(time.Second/time.Microsecond) +
		int64(t.Nanosecond())/int64(time.Microsecond)
	return pgtype.Time{Microseconds: micros, Valid: true}
}

func (c *Converter) toBool(value string) bool {
	trimmed := strings.TrimSpace(value)
	if b, err := strconv.ParseBool(trimmed); err == nil {
		return b
	}
	upper := strings.ToUpper(trimmed)
	switch {
	case affirmative[upper]:
		return true
	case negative[upper]:
		return false
	}
	c.logger.Warn("params: unrecognised boolean, using false", "value", value)
	return false
}

func toFloat(value string) (float64, bool) {
	s := strings.TrimSpace(value)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	if alt, ok := decimalComma(s); ok {
		if f, err := strconv.ParseFloat(alt, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func toNumeric(value string) (pgtype.Numeric, bool) {
	s := strings.TrimSpace(value)
	var n pgtype.Numeric
	if err := n.Scan(s); err == nil && finite(n) {
		return n, true
	}
	if alt, ok := decimalComma(s); ok {
		var n pgtype.Numeric
		if err := n.Scan(alt); err == nil && finite(n) {
			return n, true
		}
	}
	return pgtype.Numeric{}, false
}

func finite(n pgtype.Numeric) bool {
	return n.Valid && !n.NaN && n.InfinityModifier == pgtype.Finite
}

// decimalComma rewrites "12,5" as "12.5". Values that already contain a dot
// or more than one comma are left alone.
func decimalComma(s string) (string, bool) {
	if strings.Contains(s, ".") || strings.Count(s, ",") != 1 {
		return "", false
	}
	return strings.Replace(s, ",", ".", 1), true
}

func (c *Converter) toTime(value string) (time.Time, bool) {
	s := strings.TrimSpace(value)
	for _, l := range dateLayouts {
		t, err := time.ParseInLocation(l.layout, s, time.Local)
		if err != nil {
			continue
		}
		if l.timeOnly {
			today := c.now()
			t = time.Date(today.Year(), today.Month(), today.Day(),
				t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.Local)
		}
		return t, true
	}
	return time.Time{}, false
}
