// Package app wires the scouting hub's stores, services and HTTP surface.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"scouthub/internal/api"
	"scouthub/internal/audit"
	"scouthub/internal/config"
	"scouthub/internal/csvsink"
	"scouthub/internal/db/repository"
	"scouthub/internal/decode"
	"scouthub/internal/domain"
	"scouthub/internal/engine"
	"scouthub/internal/export"
	"scouthub/internal/metrics"
	"scouthub/internal/middleware"
	"scouthub/internal/normalize"
	"scouthub/internal/schema"
	"scouthub/internal/service/analytics"
	"scouthub/internal/service/ingestion"
	"scouthub/internal/sqlgate"
	"scouthub/internal/ui"
)

// Deps holds the external dependencies that main() must provide.
type Deps struct {
	Cfg  *config.Config
	Desc *schema.Descriptor
	// WriteDB and ReadDB are the SQLite pools; unused when Cfg selects Postgres.
	WriteDB *sql.DB
	ReadDB  *sql.DB
	// Generator is the text-generation client; nil when no API key is configured.
	Generator domain.Generator
	// ObjectStore overrides the uploader built from Cfg.
	ObjectStore export.Uploader
	Registry    *prometheus.Registry
	Logger      *slog.Logger
}

// App holds the fully-wired application.
type App struct {
	Router     http.Handler
	Ingestion  *ingestion.Service
	Analytics  *analytics.Service
	Audit      *audit.Log
	CSV        *csvsink.Sink
	Exporter   *export.Exporter // nil when no export backend is configured
	Scheduler  *Scheduler
	Metrics    *metrics.Metrics
	Lister     domain.ColumnLister
	Descriptor *schema.Descriptor

	closers []func() error
	logger  *slog.Logger
}

// New wires every component from deps. ctx bounds background goroutines such
// as the rate limiter's eviction loop.
func New(ctx context.Context, deps Deps) (*App, error) {
	return assemble(ctx, deps, &App{})
}

// assemble wires deps into a. On failure everything a has opened so far is
// closed before the error is returned.
func assemble(ctx context.Context, deps Deps, a *App) (_ *App, err error) {
	defer func() {
		if err != nil {
			_ = a.release()
		}
	}()

	cfg := deps.Cfg
	desc := deps.Desc
	logger := deps.Logger
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}
	m := metrics.New(deps.Registry)

	a.Metrics, a.Descriptor, a.logger = m, desc, logger
	a.CSV = csvsink.New(cfg.CSVPath, desc.ColumnNames())
	a.Audit = audit.New(cfg.AuditCapacity)

	// === Relational store ===
	var inserter domain.RecordInserter
	var relExec domain.QueryExecutor
	if cfg.UsePostgres() {
		repo := repository.NewPostgresRecordRepo(cfg.DatabaseURL, desc)
		inserter, a.Lister = repo, repo
		relExec = engine.NewPostgresExecutor(cfg.DatabaseURL, cfg.MaxQueryRows)
	} else {
		if deps.WriteDB == nil || deps.ReadDB == nil {
			return nil, errors.New("sqlite pools are required when DATABASE_URL is empty")
		}
		repo := repository.NewSQLiteRecordRepo(deps.WriteDB, desc)
		inserter, a.Lister = repo, repo
		relExec = engine.NewSQLiteExecutor(deps.ReadDB, cfg.MaxQueryRows)
	}

	executor := relExec
	if cfg.AskSource == config.AskSourceCSV {
		csvExec, err := engine.NewCSVExecutor(a.CSV, desc, cfg.MaxQueryRows)
		if err != nil {
			return nil, fmt.Errorf("csv executor: %w", err)
		}
		a.closers = append(a.closers, csvExec.Close)
		executor = csvExec
	}

	// === Services ===
	gen := deps.Generator
	if gen == nil {
		gen = unconfiguredGenerator{}
	}
	a.Ingestion = ingestion.NewService(
		normalize.New(desc), a.CSV, inserter, a.Audit,
		logger.With("component", "ingestion"),
		ingestion.WithMetrics(m), ingestion.WithTimeout(cfg.SubmitTimeout),
	)
	a.Analytics = analytics.NewService(
		sqlgate.New(gen, desc, executor.Dialect()),
		executor,
		analytics.NewSummarizer(gen, 0, m, logger.With("component", "summary")),
		cfg.QueryTimeout, m, logger.With("component", "analytics"),
	)

	if cfg.HasExportConfig() || deps.ObjectStore != nil {
		store := deps.ObjectStore
		if store == nil {
			if store, err = a.newUploader(ctx, cfg); err != nil {
				return nil, fmt.Errorf("export: %w", err)
			}
		}
		bucket := exportBucket(cfg)
		a.Exporter = export.NewExporter(a.CSV, store, bucket, cfg.ExportPrefix, logger.With("component", "export"))
		logger.Info("csv export enabled", "backend", cfg.ExportBackend, "bucket", bucket, "prefix", cfg.ExportPrefix)
	}

	// === Schedules ===
	a.Scheduler = NewScheduler(logger.With("component", "scheduler"))
	if cfg.DriftCheckSchedule != "" {
		if err := a.Scheduler.Add("schema-drift", cfg.DriftCheckSchedule, a.CheckDrift); err != nil {
			return nil, err
		}
	}
	if cfg.ExportSchedule != "" && a.Exporter != nil {
		if err := a.Scheduler.Add("csv-export", cfg.ExportSchedule, a.scheduledExport); err != nil {
			return nil, err
		}
	}

	// === HTTP ===
	var exporter api.Exporter
	if a.Exporter != nil {
		exporter = a.Exporter
	}
	handler := api.NewHandler(
		a.Ingestion, a.Analytics, decode.NewDecoder(cfg.QRDecoding), a.Audit, desc, exporter,
		logger.With("component", "api"),
	)
	pages := ui.NewHandler(a.Ingestion, a.Analytics, a.Audit, desc, logger.With("component", "ui"))
	pages.Production = cfg.IsProduction()
	limiter := middleware.NewRateLimiter(ctx, middleware.RateLimitConfig{
		RequestsPerSecond: cfg.AskRateLimitRPS,
		Burst:             cfg.AskRateLimitBurst,
	})
	a.Router = api.NewRouter(handler, api.RouterConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AskLimiter:     limiter.Handler,
		Gatherer:       deps.Registry,
		AccessLog:      !cfg.IsProduction(),
		UI:             pages,
	})
	return a, nil
}

// CheckDrift compares the descriptor with the live table and records the
// number of drifted columns. It returns the *schema.DriftError, if any.
func (a *App) CheckDrift(ctx context.Context) error {
	err := a.Descriptor.Verify(ctx, a.Lister)
	var drift *schema.DriftError
	switch {
	case err == nil:
		a.Metrics.SchemaDrift(0)
	case errors.As(err, &drift):
		a.Metrics.SchemaDrift(drift.Count())
		a.logger.Error("schema drift detected", "table", drift.Table, "missing", drift.Missing, "unexpected", drift.Unexpected)
	default:
		a.logger.Warn("schema check skipped", "error", err)
	}
	return err
}

func (a *App) scheduledExport(ctx context.Context) error {
	_, err := a.Exporter.Export(ctx)
	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		return nil
	}
	return err
}

// Close releases resources owned by the app. Database pools passed in Deps
// stay open.
func (a *App) Close() error {
	a.Scheduler.Stop()
	return a.release()
}

func (a *App) release() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) newUploader(ctx context.Context, cfg *config.Config) (export.Uploader, error) {
	switch cfg.ExportBackend {
	case config.ExportBackendGCS:
		u, err := export.NewGCSUploader(ctx, cfg.GCSKeyFile)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, u.Close)
		return u, nil
	case config.ExportBackendAzure:
		return export.NewAzureUploader(deref(cfg.AzureAccountName), deref(cfg.AzureAccountKey), cfg.AzureEndpoint)
	default:
		return export.NewS3Uploader(export.NewS3Client(export.S3Config{
			Endpoint: deref(cfg.S3Endpoint),
			Region:   deref(cfg.S3Region),
			KeyID:    deref(cfg.S3KeyID),
			Secret:   deref(cfg.S3Secret),
		})), nil
	}
}

func exportBucket(cfg *config.Config) string {
	switch cfg.ExportBackend {
	case config.ExportBackendGCS:
		return deref(cfg.GCSBucket)
	case config.ExportBackendAzure:
		return deref(cfg.AzureContainer)
	default:
		return deref(cfg.S3Bucket)
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// unconfiguredGenerator stands in when no API key is set, so questions fail
// at the gate as generator unavailable.
type unconfiguredGenerator struct{}

func (unconfiguredGenerator) Generate(context.Context, string) (string, error) {
	return "", &domain.ServiceError{Service: "llm", Err: errors.New("LLM_API_KEY is not configured")}
}
