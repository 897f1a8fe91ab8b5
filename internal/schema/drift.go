package schema

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"scouthub/internal/domain"
)

// systemColumns are columns the store adds that the descriptor does not list.
var systemColumns = map[string]bool{
	"id":         true,
	"created_at": true,
}

// DriftError reports divergence between the descriptor and the live table.
type DriftError struct {
	Table      string
	Version    int
	Missing    []string // in the descriptor, absent from the table
	Unexpected []string // in the table, absent from the descriptor
}

func (e *DriftError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing columns: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Unexpected) > 0 {
		parts = append(parts, "unexpected columns: "+strings.Join(e.Unexpected, ", "))
	}
	return fmt.Sprintf("schema drift on %s (descriptor v%d): %s", e.Table, e.Version, strings.Join(parts, "; "))
}

// Count returns the number of drifted columns.
func (e *DriftError) Count() int { return len(e.Missing) + len(e.Unexpected) }

// Verify compares the descriptor with the live table columns. It returns a
// *DriftError on mismatch and a plain error if the columns cannot be listed.
func (d *Descriptor) Verify(ctx context.Context, lister domain.ColumnLister) error {
	live, err := lister.ListColumns(ctx, d.Table)
	if err != nil {
		return fmt.Errorf("list columns of %s: %w", d.Table, err)
	}
	return d.Compare(live)
}

// Compare checks a live column list against the descriptor. Names are compared
// case-insensitively.
func (d *Descriptor) Compare(live []string) error {
	liveSet := make(map[string]bool, len(live))
	for _, c := range live {
		liveSet[strings.ToLower(c)] = true
	}
	want := make(map[string]bool, len(d.Columns))
	drift := &DriftError{Table: d.Table, Version: d.Version}
	for _, c := range d.Columns {
		want[c.Name] = true
		if !liveSet[c.Name] {
			drift.Missing = append(drift.Missing, c.Name)
		}
	}
	for c := range liveSet {
		if !want[c] && !systemColumns[c] {
			drift.Unexpected = append(drift.Unexpected, c)
		}
	}
	if drift.Count() == 0 {
		return nil
	}
	sort.Strings(drift.Unexpected)
	return drift
}
