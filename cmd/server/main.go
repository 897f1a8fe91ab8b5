// Package main is the entry point of the scouting hub HTTP service.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"scouthub/internal/app"
	"scouthub/internal/config"
	internaldb "scouthub/internal/db"
	"scouthub/internal/domain"
	"scouthub/internal/llm"
	"scouthub/internal/schema"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	desc, err := schema.Load(cfg.SchemaVersion)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	writeDB, readDB, err := openStores(cfg, desc, logger)
	if err != nil {
		return err
	}
	if writeDB != nil {
		defer readDB.Close()
		defer writeDB.Close()
	}

	var gen domain.Generator
	if cfg.HasLLM() {
		gen = llm.New(llm.Config{
			APIKey:  cfg.LLMAPIKey,
			BaseURL: cfg.LLMBaseURL,
			Model:   cfg.LLMModel,
			Timeout: cfg.LLMTimeout,
		})
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := app.New(ctx, app.Deps{
		Cfg:       cfg,
		Desc:      desc,
		WriteDB:   writeDB,
		ReadDB:    readDB,
		Generator: gen,
		Registry:  reg,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("wire app: %w", err)
	}
	defer a.Close()

	// Drift between descriptor and table is fatal; an unreachable store is not.
	verifyCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = a.CheckDrift(verifyCtx)
	cancel()
	var drift *schema.DriftError
	if errors.As(err, &drift) {
		return err
	}

	a.Scheduler.Start()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.LLMTimeout*2 + cfg.QueryTimeout + 10*time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening", "addr", cfg.ListenAddr, "schema_version", desc.Version,
			"store", storeName(cfg), "ask_source", cfg.AskSource)
		base := localBaseURL(cfg.ListenAddr)
		logger.Info("scouting form at " + base + "/ui/")
		logger.Info("try: curl " + base + "/healthz")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// openStores migrates the relational store. It returns the SQLite pools, or
// nil pools when Postgres is selected. Only the current descriptor generation
// owns migrations; older generations run against a table they do not manage.
func openStores(cfg *config.Config, desc *schema.Descriptor, logger *slog.Logger) (writeDB, readDB *sql.DB, err error) {
	migrate := desc.Version == schema.CurrentVersion
	if !migrate {
		logger.Warn("schema version is not current; migrations skipped", "version", desc.Version)
	}

	if cfg.UsePostgres() {
		pg, err := internaldb.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			// Submissions still reach the CSV sink while Postgres is down.
			logger.Warn("postgres unavailable at startup", "error", err)
			return nil, nil, nil
		}
		defer pg.Close()
		if migrate {
			if err := internaldb.RunMigrations(pg, internaldb.DialectPostgres); err != nil {
				return nil, nil, fmt.Errorf("migrate postgres: %w", err)
			}
		}
		return nil, nil, nil
	}

	writeDB, readDB, err = internaldb.OpenSQLitePair(cfg.SQLitePath, 4)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}
	if migrate {
		if err := internaldb.RunMigrations(writeDB, internaldb.DialectSQLite); err != nil {
			_ = readDB.Close()
			_ = writeDB.Close()
			return nil, nil, fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return writeDB, readDB, nil
}

func storeName(cfg *config.Config) string {
	if cfg.UsePostgres() {
		return "postgres"
	}
	return "sqlite"
}

// localBaseURL turns a listen address into a base URL a scout on the same
// machine can open. Wildcard hosts become localhost.
func localBaseURL(listenAddr string) string {
	addr := strings.TrimSpace(listenAddr)
	if addr == "" {
		addr = ":8080"
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}
