// Package analytics answers natural-language questions about scouting data.
//
// A question passes through the query synthesis gate, the validated query runs
// on the configured executor, and the result is summarized in plain language.
package analytics

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"scouthub/internal/domain"
	"scouthub/internal/metrics"
)

// DefaultQueryTimeout bounds query execution when the service is built without one.
const DefaultQueryTimeout = 15 * time.Second

// Synthesizer turns a question into a validated query.
// Implemented by sqlgate.Gate.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string) (*domain.ValidatedQuery, error)
}

// Answer is the combined result of one question.
type Answer struct {
	Question  string           `json:"question"`
	Query     string           `json:"query"`
	Columns   []string         `json:"columns"`
	Data      []map[string]any `json:"data"`
	Truncated bool             `json:"truncated"`
	Fixups    []string         `json:"fixups,omitempty"`
	Summary   string           `json:"summary"`
}

// Service runs the question pipeline.
//
//nolint:revive // Name chosen for clarity across package boundaries
type Service struct {
	gate         Synthesizer
	executor     domain.QueryExecutor
	summarizer   *Summarizer
	queryTimeout time.Duration
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// NewService creates an analytics service. queryTimeout <= 0 selects DefaultQueryTimeout.
func NewService(
	gate Synthesizer,
	executor domain.QueryExecutor,
	summarizer *Summarizer,
	queryTimeout time.Duration,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	if queryTimeout <= 0 {
		queryTimeout = DefaultQueryTimeout
	}
	return &Service{
		gate:         gate,
		executor:     executor,
		summarizer:   summarizer,
		queryTimeout: queryTimeout,
		metrics:      m,
		logger:       logger,
	}
}

// Dialect reports the dialect of the executor questions run on.
func (s *Service) Dialect() string { return s.executor.Dialect() }

// Ask answers question. Gate rejections come back as *domain.GateError and
// execution failures as *domain.ExecError; both carry the query text.
func (s *Service) Ask(ctx context.Context, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.ErrValidation("question is required")
	}

	q, err := s.gate.Synthesize(ctx, question)
	if err != nil {
		s.recordGateFailure(err)
		return nil, err
	}
	s.metrics.GeneratorRequest("query", nil)
	s.metrics.GateOutcome(string(domain.StageValidated), "accepted")
	s.logger.Debug("query validated", "question", question, "sql", q.SQL, "fixups", q.Fixups)

	execCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	start := time.Now()
	result, err := s.executor.Execute(execCtx, q)
	s.metrics.QueryDuration(s.executor.Dialect(), time.Since(start), err)
	if err != nil {
		s.logger.Warn("query execution failed", "sql", q.SQL, "error", err)
		return nil, err
	}

	summary := s.summarizer.Summarize(ctx, question, q.SQL, result)
	return &Answer{
		Question:  question,
		Query:     q.SQL,
		Columns:   result.Columns,
		Data:      result.Rows,
		Truncated: result.Truncated,
		Fixups:    q.Fixups,
		Summary:   summary,
	}, nil
}

func (s *Service) recordGateFailure(err error) {
	var gateErr *domain.GateError
	if !errors.As(err, &gateErr) {
		s.logger.Error("query synthesis failed", "error", err)
		return
	}
	s.metrics.GateOutcome(string(gateErr.Stage), gateErr.Reason)
	s.metrics.GeneratorRequest("query", gateErr.Err)
	s.logger.Warn("query rejected",
		"stage", gateErr.Stage, "reason", gateErr.Reason, "detail", gateErr.Detail, "candidate", gateErr.Candidate)
}
