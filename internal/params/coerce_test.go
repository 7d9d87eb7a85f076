package params

import (
	"database/sql"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/rptrun/internal/model"
	"github.com/ashita-ai/rptrun/internal/testutil"
)

func raw(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }

func TestConvertBoolean(t *testing.T) {
	c := NewConverter(testutil.TestLogger())
	for _, v := range []string{"SI", "si", "S", "Y", "yes", "1", "true", "TRUE", "T", " y "} {
		assert.Equal(t, true, c.Convert(raw(v), model.KindBoolean), "value %q", v)
	}
	for _, v := range []string{"NO", "n", "0", "false", "F", "False"} {
		assert.Equal(t, false, c.Convert(raw(v), model.KindBoolean), "value %q", v)
	}
}

func TestConvertBooleanUnrecognisedIsFalse(t *testing.T) {
	rec := testutil.NewRecorder()
	c := NewConverter(rec.Logger())

	assert.Equal(t, false, c.Convert(raw("maybe"), model.KindBoolean))
	assert.Equal(t, 1, rec.Count(slog.LevelWarn))
}

func TestConvertNumber(t *testing.T) {
	c := NewConverter(testutil.TestLogger())
	assert.Equal(t, 12.5, c.Convert(raw("12.5"), model.KindNumber))
	assert.Equal(t, 12.5, c.Convert(raw("12,5"), model.KindNumber))
	assert.Equal(t, -3.0, c.Convert(raw(" -3 "), model.KindNumber))
	assert.Equal(t, float64(0), c.Convert(raw("abc"), model.KindNumber))
	assert.Equal(t, float64(0), c.Convert(raw("1.000,5"), model.KindNumber))
}

func TestConvertCurrency(t *testing.T) {
	c := NewConverter(testutil.TestLogger())

	got, ok := c.Convert(raw("1234.56"), model.KindCurrency).(pgtype.Numeric)
	require.True(t, ok)
	f, err := got.Float64Value()
	require.NoError(t, err)
	assert.InDelta(t, 1234.56, f.Float64, 1e-9)

	got, ok = c.Convert(raw("9,99"), model.KindCurrency).(pgtype.Numeric)
	require.True(t, ok)
	f, err = got.Float64Value()
	require.NoError(t, err)
	assert.InDelta(t, 9.99, f.Float64, 1e-9)

	zero, ok := c.Convert(raw("ten euros"), model.KindCurrency).(pgtype.Numeric)
	require.True(t, ok)
	assert.True(t, zero.Valid)
	assert.Equal(t, 0, zero.Int.Cmp(big.NewInt(0)))
}

func TestConvertCurrencyRejectsNonFinite(t *testing.T) {
	c := NewConverter(testutil.TestLogger())
	for _, v := range []string{"Infinity", "-Infinity", "NaN"} {
		got, ok := c.Convert(raw(v), model.KindCurrency).(pgtype.Numeric)
		require.True(t, ok, "value %q", v)
		assert.True(t, got.Valid, "value %q", v)
		assert.False(t, got.NaN, "value %q", v)
		assert.Equal(t, pgtype.Finite, got.InfinityModifier, "value %q", v)
		assert.Equal(t, 0, got.Int.Cmp(big.NewInt(0)), "value %q", v)
	}
}

func TestConvertDates(t *testing.T) {
	c := NewConverter(testutil.TestLogger())

	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.Local), c.Convert(raw("2024-01-31 17:45:00"), model.KindDate))
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.Local), c.Convert(raw("31/01/2024"), model.KindDate))
	assert.Nil(t, c.Convert(raw("not a date"), model.KindDate))

	assert.Equal(t, time.Date(2024, 1, 31, 17, 45, 10, 0, time.Local), c.Convert(raw("2024-01-31T17:45:10"), model.KindDateTime))
	assert.Nil(t, c.Convert(raw("31st of January"), model.KindDateTime))
}

func TestConvertTimeOfDay(t *testing.T) {
	c := NewConverter(testutil.TestLogger())

	want := pgtype.Time{Microseconds: int64((17*time.Hour + 45*time.Minute + 10*time.Second) / time.Microsecond), Valid: true}
	assert.Equal(t, want, c.Convert(raw("2024-01-31 17:45:10"), model.KindTime))
	assert.Equal(t, want, c.Convert(raw("17:45:10"), model.KindTime))
	assert.Nil(t, c.Convert(raw("quarter past five"), model.KindTime))
}

func TestConvertTimeOnlyUsesToday(t *testing.T) {
	c := NewConverter(testutil.TestLogger())
	c.now = func() time.Time { return time.Date(2025, 6, 2, 9, 0, 0, 0, time.Local) }

	assert.Equal(t, time.Date(2025, 6, 2, 8, 30, 0, 0, time.Local), c.Convert(raw("08:30"), model.KindDateTime))
}

func TestConvertEmptyInput(t *testing.T) {
	c := NewConverter(testutil.TestLogger())
	kinds := []model.ParameterKind{
		model.KindBoolean, model.KindNumber, model.KindCurrency,
		model.KindDate, model.KindDateTime, model.KindTime,
	}
	for _, k := range kinds {
		assert.Nil(t, c.Convert(raw(""), k), "kind %s", k)
		assert.Nil(t, c.Convert(sql.NullString{}, k), "kind %s", k)
	}
	assert.Equal(t, "", c.Convert(raw(""), model.KindString))
	assert.Equal(t, "", c.Convert(sql.NullString{}, model.KindString))
}

func TestConvertStringAndUnknownPassThrough(t *testing.T) {
	c := NewConverter(testutil.TestLogger())
	assert.Equal(t, " 42 ", c.Convert(raw(" 42 "), model.KindString))
	assert.Equal(t, "abc", c.Convert(raw("abc"), model.ParameterKind("blob")))
}

func TestConvertRecoversFromPanic(t *testing.T) {
	rec := testutil.NewRecorder()
	c := NewConverter(rec.Logger())
	c.now = func() time.Time { panic("clock unavailable") }

	assert.Equal(t, "08:30", c.Convert(raw("08:30"), model.KindTime))
	assert.Equal(t, 1, rec.Count(slog.LevelWarn))
}
