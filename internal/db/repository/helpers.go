// Package repository implements the relational sink and column introspection
// for SQLite and Postgres.
package repository

import (
	"fmt"

	"scouthub/internal/ddl"
	"scouthub/internal/domain"
	"scouthub/internal/schema"
)

// insertPlan returns the INSERT statement for rec and the columns it binds, in
// descriptor order. Keys outside the descriptor are ignored.
func insertPlan(desc *schema.Descriptor, rec domain.ScoutingRecord) (string, []string, error) {
	var cols []string
	for _, c := range desc.Columns {
		if _, ok := rec[c.Name]; ok {
			cols = append(cols, c.Name)
		}
	}
	if len(cols) == 0 {
		return "", nil, fmt.Errorf("record has no %s columns", desc.Table)
	}
	stmt, err := ddl.NamedInsert(desc.Table, cols)
	if err != nil {
		return "", nil, err
	}
	return stmt, cols, nil
}

func sinkErr(err error) error {
	return &domain.SinkError{Sink: "db", Err: err}
}
