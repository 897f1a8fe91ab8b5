package sqlgate

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// deniedFunctions reach outside the scouting table: the filesystem, other
// databases, sessions, or server settings. Postgres, SQLite and DuckDB names
// are listed together since the parse tree does not know the target store.
var deniedFunctions = map[string]bool{
	"pg_sleep":             true,
	"pg_read_file":         true,
	"pg_read_binary_file":  true,
	"pg_ls_dir":            true,
	"pg_stat_file":         true,
	"pg_terminate_backend": true,
	"pg_cancel_backend":    true,
	"lo_import":            true,
	"lo_export":            true,
	"dblink":               true,
	"dblink_exec":          true,
	"set_config":           true,
	"current_setting":      true,
	"query_to_xml":         true,
	"load_extension":       true,
	"read_csv":             true,
	"read_csv_auto":        true,
	"read_parquet":         true,
	"read_json":            true,
	"read_text":            true,
	"glob":                 true,
	"sqlite_scan":          true,
}

var allowedSchemas = map[string]bool{"": true, "public": true, "main": true}

type violation struct {
	reason string
	detail string
}

// checkGrammar accepts exactly one plain SELECT that reads only table and
// calls no denied function.
func checkGrammar(tree *pg_query.ParseResult, table string) *violation {
	if len(tree.Stmts) != 1 {
		return &violation{reason: "exactly one statement is allowed"}
	}
	sel, ok := tree.Stmts[0].Stmt.Node.(*pg_query.Node_SelectStmt)
	if !ok {
		return &violation{reason: "not a SELECT statement"}
	}
	if sel.SelectStmt.WithClause != nil {
		return &violation{reason: "common table expressions are not allowed"}
	}

	table = strings.ToLower(table)
	var v *violation
	walk(tree, func(n *pg_query.Node) {
		if v != nil {
			return
		}
		switch x := n.Node.(type) {
		case *pg_query.Node_SelectStmt:
			s := x.SelectStmt
			if s.IntoClause != nil {
				v = &violation{reason: "SELECT INTO is not allowed"}
			} else if len(s.LockingClause) > 0 {
				v = &violation{reason: "row locking is not allowed"}
			} else if s.WithClause != nil {
				v = &violation{reason: "common table expressions are not allowed"}
			}
		case *pg_query.Node_RangeVar:
			rv := x.RangeVar
			name := strings.ToLower(rv.Relname)
			if rv.Catalogname != "" || !allowedSchemas[strings.ToLower(rv.Schemaname)] || name != table {
				v = &violation{reason: "table not allowed", detail: qualified(rv)}
			}
		case *pg_query.Node_RangeFunction:
			v = &violation{reason: "table functions are not allowed"}
		case *pg_query.Node_FuncCall:
			parts := names(x.FuncCall.Funcname)
			fn := lastName(x.FuncCall.Funcname)
			if deniedFunctions[fn] {
				v = &violation{reason: "function not allowed", detail: fn}
			} else if len(parts) > 1 && parts[0] != "pg_catalog" {
				v = &violation{reason: "function not allowed", detail: strings.Join(parts, ".")}
			}
		}
	})
	return v
}

func qualified(rv *pg_query.RangeVar) string {
	parts := []string{}
	for _, p := range []string{rv.Catalogname, rv.Schemaname, rv.Relname} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ".")
}
