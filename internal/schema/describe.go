package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Describe renders the descriptor as plain text for a generation prompt:
// the table, each column with type and annotations, and the scoring formula.
func (d *Descriptor) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Table %s (schema version %d): %s\n", d.Table, d.Version, d.Description)
	b.WriteString("Columns:\n")
	for _, c := range d.Columns {
		fmt.Fprintf(&b, "- %s (%s)", c.Name, c.Type)
		if c.Description != "" {
			b.WriteString(": " + c.Description)
		}
		var notes []string
		if c.Points != 0 {
			if c.Type == TypeBoolean {
				notes = append(notes, "worth "+formatPoints(c.Points)+" points when true")
			} else {
				notes = append(notes, "worth "+formatPoints(c.Points)+" points each")
			}
		}
		if len(c.Enum) > 0 {
			vals := make([]string, len(c.Enum))
			for i, e := range c.Enum {
				vals[i] = "'" + e.Value + "'"
				if e.Points != 0 {
					vals[i] += " = " + formatPoints(e.Points) + " points"
				}
			}
			notes = append(notes, "one of "+strings.Join(vals, ", "))
		}
		if len(notes) > 0 {
			b.WriteString(" [" + strings.Join(notes, "; ") + "]")
		}
		b.WriteString("\n")
	}
	if derived, ok := d.DerivedColumn(); ok {
		fmt.Fprintf(&b, "%s is precomputed as the sum of every scored action above.\n", derived.Name)
	}
	if bools := d.booleanNames(); len(bools) > 0 {
		fmt.Fprintf(&b, "Boolean columns (%s) must be converted with CASE WHEN col THEN n ELSE 0 END before arithmetic.\n",
			strings.Join(bools, ", "))
	}
	return b.String()
}

func (d *Descriptor) booleanNames() []string {
	var out []string
	for _, c := range d.Columns {
		if c.Type == TypeBoolean {
			out = append(out, c.Name)
		}
	}
	return out
}

func formatPoints(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
