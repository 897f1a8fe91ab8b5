package sqlgate

import (
	"sort"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// Fixup rule names reported in ValidatedQuery.Fixups.
const (
	FixupBoolMultiply  = "bool-multiply"
	FixupBoolAggregate = "bool-aggregate"
	FixupBoolCompare   = "bool-compare"
)

// edit replaces stmt[start:end] with text.
type edit struct {
	start, end int
	text       string
	rule       string
}

// fixup applies the boolean rewrite rules to stmt and returns the rewritten
// text plus the names of the rules that fired, in first-fired order. The tree
// is only used to find matches; every rewrite is spliced into the original
// text so the rest of the statement keeps the generator's dialect.
//
//	auto_climb * 15, 15 * auto_climb  ->  CASE WHEN auto_climb THEN 15 ELSE 0 END
//	SUM(auto_climb), AVG(auto_climb)  ->  SUM(CASE WHEN auto_climb THEN 1 ELSE 0 END)
//	auto_climb = 1, 0 = auto_climb    ->  auto_climb = true, auto_climb = false
func fixup(stmt string, tree *pg_query.ParseResult, booleans map[string]bool) (string, []string, error) {
	scan, err := pg_query.Scan(stmt)
	if err != nil {
		return "", nil, err
	}
	toks := scan.GetTokens()
	isBool := func(n *pg_query.Node) bool { return booleans[columnName(n)] }
	src := func(start, end int) string { return stmt[start:end] }

	var edits []edit
	walk(tree, func(n *pg_query.Node) {
		switch x := n.Node.(type) {
		case *pg_query.Node_AExpr:
			e := x.AExpr
			switch op := operator(e); op {
			case "*":
				col, num := e.Lexpr, e.Rexpr
				if !isBool(col) {
					col, num = e.Rexpr, e.Lexpr
				}
				if !isBool(col) || !numericConst(num) {
					return
				}
				cs, ce, ok1 := leafSpan(stmt, toks, col)
				ns, ne, ok2 := leafSpan(stmt, toks, num)
				if !ok1 || !ok2 {
					return
				}
				start, end := min(cs, ns), max(ce, ne)
				if !balanced(stmt, toks, start, end) {
					return
				}
				edits = append(edits, edit{start, end,
					"CASE WHEN " + src(cs, ce) + " THEN " + src(ns, ne) + " ELSE 0 END", FixupBoolMultiply})
			case "=", "<>", "!=":
				col, lit := e.Lexpr, e.Rexpr
				if !isBool(col) {
					col, lit = e.Rexpr, e.Lexpr
				}
				if !isBool(col) {
					return
				}
				v, ok := intValue(lit)
				if !ok || (v != 0 && v != 1) {
					return
				}
				cs, ce, ok1 := leafSpan(stmt, toks, col)
				ls, le, ok2 := leafSpan(stmt, toks, lit)
				if !ok1 || !ok2 {
					return
				}
				start, end := min(cs, ls), max(ce, le)
				if !balanced(stmt, toks, start, end) {
					return
				}
				val := "false"
				if v == 1 {
					val = "true"
				}
				edits = append(edits, edit{start, end, src(cs, ce) + " " + op + " " + val, FixupBoolCompare})
			}
		case *pg_query.Node_FuncCall:
			f := x.FuncCall
			switch lastName(f.Funcname) {
			case "sum", "avg":
				if len(f.Args) != 1 || !isBool(f.Args[0]) {
					return
				}
				as, ae, ok := leafSpan(stmt, toks, f.Args[0])
				if !ok {
					return
				}
				edits = append(edits, edit{as, ae, "CASE WHEN " + src(as, ae) + " THEN 1 ELSE 0 END", FixupBoolAggregate})
			}
		}
	})
	if len(edits) == 0 {
		return stmt, nil, nil
	}

	// Drop edits that overlap an earlier one.
	order := make([]int, len(edits))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return edits[order[a]].start < edits[order[b]].start })
	keep := make([]bool, len(edits))
	last := -1
	for _, i := range order {
		if edits[i].start >= last {
			keep[i] = true
			last = edits[i].end
		}
	}

	var b strings.Builder
	pos := 0
	for _, i := range order {
		if !keep[i] {
			continue
		}
		b.WriteString(stmt[pos:edits[i].start])
		b.WriteString(edits[i].text)
		pos = edits[i].end
	}
	b.WriteString(stmt[pos:])

	var fired []string
	for i, e := range edits {
		if keep[i] && !contains(fired, e.rule) {
			fired = append(fired, e.rule)
		}
	}
	return b.String(), fired, nil
}

// leafSpan returns the byte range of a column reference or literal in stmt.
func leafSpan(stmt string, toks []*pg_query.ScanToken, n *pg_query.Node) (start, end int, ok bool) {
	var loc int32
	count := 1
	switch x := n.Node.(type) {
	case *pg_query.Node_ColumnRef:
		loc = x.ColumnRef.Location
		count = 2*len(x.ColumnRef.Fields) - 1
	case *pg_query.Node_AConst:
		loc = x.AConst.Location
	default:
		return 0, 0, false
	}
	i := sort.Search(len(toks), func(i int) bool { return toks[i].Start >= loc })
	if i == len(toks) || toks[i].Start != loc {
		return 0, 0, false
	}
	if t := stmt[toks[i].Start:toks[i].End]; t == "-" || t == "+" {
		count++
	}
	j := i + count - 1
	if count < 1 || j >= len(toks) {
		return 0, 0, false
	}
	return int(toks[i].Start), int(toks[j].End), true
}

// balanced reports whether stmt[start:end] has matching parentheses.
func balanced(stmt string, toks []*pg_query.ScanToken, start, end int) bool {
	depth := 0
	for _, t := range toks {
		if int(t.Start) < start || int(t.End) > end {
			continue
		}
		switch stmt[t.Start:t.End] {
		case "(":
			depth++
		case ")":
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
