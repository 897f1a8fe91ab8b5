// Package ingestion fans normalized submissions out to the CSV and relational sinks.
package ingestion

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"scouthub/internal/domain"
	"scouthub/internal/metrics"
	"scouthub/internal/normalize"
)

// DefaultTimeout bounds each sink write when the service is built without one.
const DefaultTimeout = 10 * time.Second

// FailedPrefix starts the status string of a sink that did not persist the record.
const FailedPrefix = "failed: "

// SubmitResult reports how each sink handled one accepted submission.
type SubmitResult struct {
	ID        string                `json:"id"`
	CSVStatus string                `json:"csv_status"`
	DBStatus  string                `json:"db_status"`
	Record    domain.ScoutingRecord `json:"record"`
}

// Service normalizes inbound payloads and persists them to both sinks.
//
//nolint:revive // Name chosen for clarity across package boundaries
type Service struct {
	normalizer *normalize.Normalizer
	csv        domain.CSVWriter
	db         domain.RecordInserter
	audit      domain.AuditLog
	metrics    *metrics.Metrics
	timeout    time.Duration
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records per-sink outcomes on m.
func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

// WithTimeout bounds each sink write.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewService creates an ingestion service. db may be nil when no relational
// store is configured; its status then reports the sink as unavailable.
func NewService(
	normalizer *normalize.Normalizer,
	csv domain.CSVWriter,
	db domain.RecordInserter,
	audit domain.AuditLog,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		normalizer: normalizer,
		csv:        csv,
		db:         db,
		audit:      audit,
		timeout:    DefaultTimeout,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit normalizes raw and writes it to both sinks concurrently. A
// ValidationError is returned before any side effect; sink failures never fail
// the call and are reported in the per-sink status instead.
func (s *Service) Submit(ctx context.Context, source string, raw map[string]any) (*SubmitResult, error) {
	rec, err := s.normalizer.Normalize(raw)
	if err != nil {
		return nil, err
	}

	res := &SubmitResult{ID: uuid.NewString(), Record: rec}
	received := time.Now().UTC()

	// Sinks get their own copies of the record.
	var g errgroup.Group
	g.Go(func() error {
		res.CSVStatus = s.write(ctx, "csv", func(ctx context.Context) (domain.SinkStatus, error) {
			return s.csv.Append(ctx, rec.Clone())
		})
		return nil
	})
	g.Go(func() error {
		if s.db == nil {
			res.DBStatus = FailedPrefix + "relational store not configured"
			s.metrics.Submission("db", "failed")
			return nil
		}
		res.DBStatus = s.write(ctx, "db", func(ctx context.Context) (domain.SinkStatus, error) {
			return s.db.Insert(ctx, rec.Clone())
		})
		return nil
	})
	_ = g.Wait()

	if s.audit != nil {
		s.audit.Append(domain.AuditEntry{
			ID:         res.ID,
			ReceivedAt: received,
			Source:     source,
			Record:     rec,
			CSVStatus:  res.CSVStatus,
			DBStatus:   res.DBStatus,
		})
	}
	s.logger.Info("submission processed",
		"id", res.ID, "source", source, "team", rec["team"], "match_number", rec["match_number"],
		"csv_status", res.CSVStatus, "db_status", res.DBStatus)
	return res, nil
}

func (s *Service) write(ctx context.Context, sink string, fn func(context.Context) (domain.SinkStatus, error)) string {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	status, err := fn(ctx)
	if err != nil {
		s.logger.Warn("sink write failed", "sink", sink, "error", err)
		s.metrics.Submission(sink, "failed")
		return FailedPrefix + err.Error()
	}
	if status == domain.StatusRewritten {
		s.metrics.CSVRewrite()
	}
	s.metrics.Submission(sink, string(status))
	return string(status)
}

// Normalizer exposes the normalizer, for callers that only need to preview a record.
func (s *Service) Normalizer() *normalize.Normalizer { return s.normalizer }
