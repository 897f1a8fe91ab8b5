package domain

// GateStage names a state of the query synthesis gate.
type GateStage string

// Gate states in the order a candidate passes through them.
const (
	StageRaw                GateStage = "RAW"
	StageExtracted          GateStage = "EXTRACTED"
	StageKeywordChecked     GateStage = "KEYWORD_CHECKED"
	StageStatementExtracted GateStage = "STATEMENT_EXTRACTED"
	StageFixedUp            GateStage = "FIXED_UP"
	StageValidated          GateStage = "VALIDATED"
)

// ValidatedQuery is a generated query that passed every gate stage. It is the
// only form handed to an executor.
type ValidatedQuery struct {
	SQL       string
	Question  string
	Candidate string
	Fixups    []string // names of the rewrite rules that fired
}

// QueryResult holds the rows returned by an executor.
//
// Row order follows the query's ORDER BY, if any.
type QueryResult struct {
	Columns   []string
	Rows      []map[string]any
	RowCount  int
	Truncated bool
}
