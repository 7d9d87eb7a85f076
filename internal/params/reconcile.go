package params

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/ashita-ai/rptrun/internal/model"
)

// Reconciler lines supplied values up with declared slots.
type Reconciler struct {
	logger *slog.Logger
	out    io.Writer // operator console
}

// NewReconciler creates a Reconciler that reports to out and logger.
func NewReconciler(out io.Writer, logger *slog.Logger) *Reconciler {
	return &Reconciler{logger: logger, out: out}
}

// Reconcile pairs each declared slot with the value at the same position.
// Slots without a value get a null placeholder and a warning; values beyond
// the declared slots are dropped with a single warning. The result always
// has exactly len(slots) bindings.
func (r *Reconciler) Reconcile(slots []model.ParameterSlot, values []string) []model.Binding {
	declared, supplied := len(slots), len(values)

	switch {
	case supplied < declared:
		missing := declared - supplied
		_, _ = fmt.Fprintf(r.out, "WARNING: %d parameter(s) missing, empty values will be used\n", missing)
		for i := supplied; i < declared; i++ {
			label := slotLabel(slots, i)
			r.logger.Warn("params: parameter missing", "position", i+1, "name", label)
			_, _ = fmt.Fprintf(r.out, "  Missing parameter %d: %s\n", i+1, label)
		}
	case supplied > declared:
		r.logger.Warn("params: extra parameters ignored", "supplied", supplied, "declared", declared, "ignored", supplied-declared)
		_, _ = fmt.Fprintf(r.out, "WARNING: %d parameter(s) supplied but the report declares only %d. Extra values are ignored.\n", supplied, declared)
	}

	bindings := make([]model.Binding, declared)
	for i, slot := range slots {
		var raw sql.NullString
		if i < supplied {
			raw = sql.NullString{String: values[i], Valid: true}
		}
		bindings[i] = model.Binding{Index: i, Slot: slot, Raw: raw}
	}
	return bindings
}

// slotLabel names the slot at i, falling back to its position.
func slotLabel(slots []model.ParameterSlot, i int) string {
	if i >= 0 && i < len(slots) && slots[i].Name != "" {
		return slots[i].Name
	}
	return fmt.Sprintf("parameter %d", i+1)
}

// Display prints the declared slots for the operator.
func Display(w io.Writer, slots []model.ParameterSlot) {
	_, _ = fmt.Fprintf(w, "\nParameters declared by the report: %d\n", len(slots))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "Name\tType\tRequired\tMulti-value")
	_, _ = fmt.Fprintln(tw, "----\t----\t--------\t-----------")
	for _, s := range slots {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Name, s.Kind.TypeName(), yesNo(s.Required), yesNo(s.MultiValue))
		if s.DefaultValue != "" {
			_, _ = fmt.Fprintf(tw, "  default: %s\t\t\t\n", s.DefaultValue)
		}
		if s.Prompt != "" {
			_, _ = fmt.Fprintf(tw, "  prompt: %s\t\t\t\n", s.Prompt)
		}
	}
	_ = tw.Flush()
	_, _ = fmt.Fprintln(w)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
