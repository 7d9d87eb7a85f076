package model

import (
	"database/sql"
	"strings"
)

// ParameterKind is the semantic value type of a declared report parameter.
type ParameterKind string

const (
	KindBoolean  ParameterKind = "boolean"
	KindNumber   ParameterKind = "number"
	KindCurrency ParameterKind = "currency"
	KindDate     ParameterKind = "date"
	KindDateTime ParameterKind = "datetime"
	KindTime     ParameterKind = "time"
	KindString   ParameterKind = "string"
)

var kindNames = map[ParameterKind]string{
	KindBoolean:  "Boolean",
	KindNumber:   "Number",
	KindCurrency: "Currency",
	KindDate:     "Date",
	KindDateTime: "DateTime",
	KindTime:     "Time",
	KindString:   "String",
}

// ParseParameterKind maps a case-insensitive kind name to a ParameterKind.
// Unknown names are returned as-is; they are treated as strings when coerced.
func ParseParameterKind(s string) ParameterKind {
	k := ParameterKind(strings.ToLower(strings.TrimSpace(s)))
	if k == "" {
		return KindString
	}
	return k
}

// TypeName returns the human-readable name shown to operators.
func (k ParameterKind) TypeName() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return string(k)
}

// Known reports whether k is one of the declared kinds.
func (k ParameterKind) Known() bool {
	_, ok := kindNames[k]
	return ok
}

// ParameterSlot is one parameter position advertised by a loaded report.
type ParameterSlot struct {
	Name         string
	Kind         ParameterKind
	Required     bool
	MultiValue   bool
	Prompt       string
	DefaultValue string // first declared default, empty when none
}

// Binding pairs a declared slot with the raw value supplied for it.
// An invalid Raw is the null placeholder used to pad missing values.
type Binding struct {
	Index int
	Slot  ParameterSlot
	Raw   sql.NullString
}

// Name returns the name of the bound slot.
func (b Binding) Name() string {
	return b.Slot.Name
}
