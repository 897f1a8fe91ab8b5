// Package metrics holds the Prometheus collectors of the scouting hub. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "scouthub"

// Metrics records ingestion, gate, generator and query activity.
type Metrics struct {
	submissions   *prometheus.CounterVec
	gateOutcomes  *prometheus.CounterVec
	generator     *prometheus.CounterVec
	csvRewrites   prometheus.Counter
	queryDuration *prometheus.HistogramVec
	driftColumns  prometheus.Gauge
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	auto := promauto.With(reg)
	return &Metrics{
		submissions: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Per-sink outcomes of accepted submissions.",
		}, []string{"sink", "status"}),
		gateOutcomes: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_outcomes_total",
			Help:      "Final stage and reason of every generated query candidate.",
		}, []string{"stage", "reason"}),
		generator: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generator_requests_total",
			Help:      "Text-generation calls by purpose and outcome.",
		}, []string{"purpose", "outcome"}),
		csvRewrites: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "csv_rewrites_total",
			Help:      "Full CSV rewrites caused by header drift.",
		}),
		queryDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Execution time of validated queries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"dialect", "outcome"}),
		driftColumns: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "schema_drift_columns",
			Help:      "Columns that differ between the schema descriptor and the live table at the last check.",
		}),
	}
}

// Submission counts one sink outcome. status is the sink status or "failed".
func (m *Metrics) Submission(sink, status string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(sink, status).Inc()
}

// CSVRewrite counts a header-widening rewrite.
func (m *Metrics) CSVRewrite() {
	if m == nil {
		return
	}
	m.csvRewrites.Inc()
}

// GateOutcome counts a candidate that stopped at stage. Accepted candidates
// use stage VALIDATED and reason "accepted".
func (m *Metrics) GateOutcome(stage, reason string) {
	if m == nil {
		return
	}
	m.gateOutcomes.WithLabelValues(stage, reason).Inc()
}

// GeneratorRequest counts a generation call; purpose is "query" or "summary".
func (m *Metrics) GeneratorRequest(purpose string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.generator.WithLabelValues(purpose, outcome).Inc()
}

// QueryDuration observes an executor call.
func (m *Metrics) QueryDuration(dialect string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.queryDuration.WithLabelValues(dialect, outcome).Observe(d.Seconds())
}

// SchemaDrift sets the number of drifted columns found by the last check.
func (m *Metrics) SchemaDrift(columns int) {
	if m == nil {
		return
	}
	m.driftColumns.Set(float64(columns))
}
