package domain

import "context"

// Generator is the external text-generation service. Its output is untrusted.
// Implemented by llm.Client.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// QueryExecutor runs a validated read-only query against a store.
// Implemented by engine.SQLiteExecutor, engine.PostgresExecutor and engine.CSVExecutor.
type QueryExecutor interface {
	Execute(ctx context.Context, q *ValidatedQuery) (*QueryResult, error)
	Dialect() string
}

// CSVWriter appends records to the flat-file store.
// Implemented by csvsink.Sink.
type CSVWriter interface {
	Append(ctx context.Context, rec ScoutingRecord) (SinkStatus, error)
}

// RecordInserter persists records to the relational store.
// Implemented by repository.SQLiteRecordRepo and repository.PostgresRecordRepo.
type RecordInserter interface {
	Insert(ctx context.Context, rec ScoutingRecord) (SinkStatus, error)
}

// ColumnLister reports the live column set of a table.
type ColumnLister interface {
	ListColumns(ctx context.Context, table string) ([]string, error)
}

// AuditLog keeps processed submissions for display, in submission order.
// Implemented by audit.Log.
type AuditLog interface {
	Append(e AuditEntry)
	List() []AuditEntry
}
