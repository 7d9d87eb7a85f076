package sqlreport

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ashita-ai/rptrun/internal/model"
)

// ErrInvalidDefinition is returned for report files that parse but are
// not usable.
var ErrInvalidDefinition = errors.New("sqlreport: invalid report definition")

// Definition is the on-disk form of a report.
type Definition struct {
	Name       string         `yaml:"name"`
	Title      string         `yaml:"title"`
	Parameters []ParameterDef `yaml:"parameters"`
	Tables     []TableDef     `yaml:"tables"`
	Subreports []Definition   `yaml:"subreports"`
}

// ParameterDef declares one report parameter.
type ParameterDef struct {
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type"`
	Prompt   string   `yaml:"prompt"`
	Optional bool     `yaml:"optional"`
	Multi    bool     `yaml:"multi"`
	Defaults []string `yaml:"defaults"`
}

// TableDef is a named query. Parameters are referenced as {?Name}.
type TableDef struct {
	Name  string `yaml:"name"`
	Query string `yaml:"query"`
}

// Slot converts the declaration to the slot advertised by a loaded report.
func (p ParameterDef) Slot() model.ParameterSlot {
	slot := model.ParameterSlot{
		Name:       p.Name,
		Kind:       model.ParseParameterKind(p.Type),
		Required:   !p.Optional,
		MultiValue: p.Multi,
		Prompt:     p.Prompt,
	}
	if len(p.Defaults) > 0 {
		slot.DefaultValue = p.Defaults[0]
	}
	return slot
}

// Parse decodes and validates a report definition.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("sqlreport: decode definition: %w", err)
	}
	if err := def.validate(true); err != nil {
		return nil, err
	}
	return &def, nil
}

func (d *Definition) validate(root bool) error {
	where := d.Name
	if where == "" {
		where = "report"
	}
	if !root && len(d.Parameters) > 0 {
		return fmt.Errorf("%w: subreport %s: parameters are declared on the main report", ErrInvalidDefinition, where)
	}

	seen := map[string]bool{}
	for i, p := range d.Parameters {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: %s: parameter %d has no name", ErrInvalidDefinition, where, i+1)
		}
		key := strings.ToLower(p.Name)
		if seen[key] {
			return fmt.Errorf("%w: %s: duplicate parameter %q", ErrInvalidDefinition, where, p.Name)
		}
		seen[key] = true
		if !model.ParseParameterKind(p.Type).Known() {
			return fmt.Errorf("%w: %s: parameter %q has unknown type %q", ErrInvalidDefinition, where, p.Name, p.Type)
		}
	}

	tables := map[string]bool{}
	for i, t := range d.Tables {
		if strings.TrimSpace(t.Name) == "" || strings.TrimSpace(t.Query) == "" {
			return fmt.Errorf("%w: %s: table %d needs a name and a query", ErrInvalidDefinition, where, i+1)
		}
		if tables[t.Name] {
			return fmt.Errorf("%w: %s: duplicate table %q", ErrInvalidDefinition, where, t.Name)
		}
		tables[t.Name] = true
	}

	for i := range d.Subreports {
		if d.Subreports[i].Name == "" {
			d.Subreports[i].Name = fmt.Sprintf("%s/subreport%d", where, i+1)
		}
		if err := d.Subreports[i].validate(false); err != nil {
			return err
		}
	}
	return nil
}
