// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase.
package testutil

import (
	"context"
	"sync"

	"scouthub/internal/domain"
)

// === Generator Mock ===

// MockGenerator implements domain.Generator for testing.
type MockGenerator struct {
	GenerateFn func(ctx context.Context, prompt string) (string, error)

	mu      sync.Mutex
	Prompts []string // collected prompts for assertions
}

// Generate implements the interface method for testing.
func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	m.mu.Unlock()
	if m.GenerateFn != nil {
		return m.GenerateFn(ctx, prompt)
	}
	panic("unexpected call to MockGenerator.Generate")
}

// Replies returns a GenerateFn that answers each call with the next reply and
// repeats the last one once they run out.
func Replies(replies ...string) func(context.Context, string) (string, error) {
	var mu sync.Mutex
	i := 0
	return func(context.Context, string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		r := replies[min(i, len(replies)-1)]
		i++
		return r, nil
	}
}

// LastPrompt returns the last collected prompt, or "" if none.
func (m *MockGenerator) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Prompts) == 0 {
		return ""
	}
	return m.Prompts[len(m.Prompts)-1]
}

// === Query Executor Mock ===

// MockExecutor implements domain.QueryExecutor for testing.
type MockExecutor struct {
	ExecuteFn   func(ctx context.Context, q *domain.ValidatedQuery) (*domain.QueryResult, error)
	DialectName string
	Queries     []*domain.ValidatedQuery // collected queries for assertions
}

// Execute implements the interface method for testing.
func (m *MockExecutor) Execute(ctx context.Context, q *domain.ValidatedQuery) (*domain.QueryResult, error) {
	m.Queries = append(m.Queries, q)
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, q)
	}
	panic("unexpected call to MockExecutor.Execute")
}

// Dialect implements the interface method for testing.
func (m *MockExecutor) Dialect() string {
	if m.DialectName == "" {
		return "SQLite"
	}
	return m.DialectName
}

// === Sink Mocks ===

// MockInserter implements domain.RecordInserter for testing.
type MockInserter struct {
	InsertFn func(ctx context.Context, rec domain.ScoutingRecord) (domain.SinkStatus, error)

	mu      sync.Mutex
	Records []domain.ScoutingRecord // records that were inserted successfully
}

// Insert implements the interface method for testing.
func (m *MockInserter) Insert(ctx context.Context, rec domain.ScoutingRecord) (domain.SinkStatus, error) {
	status := domain.StatusInserted
	if m.InsertFn != nil {
		var err error
		if status, err = m.InsertFn(ctx, rec); err != nil {
			return "", err
		}
	}
	m.mu.Lock()
	m.Records = append(m.Records, rec)
	m.mu.Unlock()
	return status, nil
}

// MockCSVWriter implements domain.CSVWriter for testing.
type MockCSVWriter struct {
	AppendFn func(ctx context.Context, rec domain.ScoutingRecord) (domain.SinkStatus, error)

	mu      sync.Mutex
	Records []domain.ScoutingRecord // records that were appended successfully
}

// Append implements the interface method for testing.
func (m *MockCSVWriter) Append(ctx context.Context, rec domain.ScoutingRecord) (domain.SinkStatus, error) {
	status := domain.StatusAppended
	if m.AppendFn != nil {
		var err error
		if status, err = m.AppendFn(ctx, rec); err != nil {
			return "", err
		}
	}
	m.mu.Lock()
	m.Records = append(m.Records, rec)
	m.mu.Unlock()
	return status, nil
}
