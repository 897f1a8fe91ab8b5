package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"scouthub/internal/domain"
	"scouthub/internal/metrics"
)

// NoDataSummary is the statement every summary of an empty result carries.
const NoDataSummary = "No data was found: the query returned no rows."

// DefaultSampleRows caps how many rows are serialized into the summary prompt.
const DefaultSampleRows = 50

// Summarizer asks the text generator to explain a query result in plain language.
type Summarizer struct {
	gen        domain.Generator
	sampleRows int
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewSummarizer creates a Summarizer. sampleRows <= 0 selects DefaultSampleRows.
func NewSummarizer(gen domain.Generator, sampleRows int, m *metrics.Metrics, logger *slog.Logger) *Summarizer {
	if sampleRows <= 0 {
		sampleRows = DefaultSampleRows
	}
	return &Summarizer{gen: gen, sampleRows: sampleRows, metrics: m, logger: logger}
}

// Summarize always returns text. When the generator fails the summary falls
// back to a description built from the result itself, and an empty result is
// always stated as such.
func (s *Summarizer) Summarize(ctx context.Context, question, query string, result *domain.QueryResult) string {
	empty := result == nil || result.RowCount == 0

	text, err := s.gen.Generate(ctx, s.prompt(question, query, result))
	s.metrics.GeneratorRequest("summary", err)
	text = strings.TrimSpace(text)
	if err != nil || text == "" {
		if err != nil {
			s.logger.Warn("summary generation failed", "error", err)
		}
		return fallbackSummary(result)
	}
	if empty && !mentionsNoData(text) {
		return NoDataSummary + " " + text
	}
	return text
}

func (s *Summarizer) prompt(question, query string, result *domain.QueryResult) string {
	var b strings.Builder
	b.WriteString("You are helping a robotics competition scouting team understand match data.\n")
	fmt.Fprintf(&b, "Question: %s\n", strings.TrimSpace(question))
	fmt.Fprintf(&b, "SQL query that was run: %s\n", query)

	if result == nil || result.RowCount == 0 {
		b.WriteString("The query returned no rows.\n")
		b.WriteString("Say explicitly that no data was found. Do not describe an empty result as no activity.\n")
		return b.String()
	}

	rows := result.Rows
	if len(rows) > s.sampleRows {
		rows = rows[:s.sampleRows]
	}
	data, err := json.Marshal(rows)
	if err != nil {
		data = []byte("[]")
	}
	fmt.Fprintf(&b, "Columns: %s\n", strings.Join(result.Columns, ", "))
	fmt.Fprintf(&b, "Result (%d rows", result.RowCount)
	if len(rows) < result.RowCount {
		fmt.Fprintf(&b, ", first %d shown", len(rows))
	}
	if result.Truncated {
		b.WriteString(", result was truncated")
	}
	fmt.Fprintf(&b, "): %s\n", data)
	b.WriteString("Explain the answer to the question in two or three plain sentences. Mention team numbers where relevant.\n")
	return b.String()
}

func mentionsNoData(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range []string{"no data", "no rows", "no results", "no matching"} {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func fallbackSummary(result *domain.QueryResult) string {
	if result == nil || result.RowCount == 0 {
		return NoDataSummary
	}
	noun := "rows"
	if result.RowCount == 1 {
		noun = "row"
	}
	msg := fmt.Sprintf("The query returned %d %s with columns %s.", result.RowCount, noun, strings.Join(result.Columns, ", "))
	if result.Truncated {
		msg += " The result was truncated."
	}
	return msg + " A written summary is unavailable right now."
}
