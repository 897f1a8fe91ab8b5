// Package config handles application configuration and environment loading.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Query sources for the ask endpoint.
const (
	AskSourceRelational = "relational"
	AskSourceCSV        = "csv"
)

// Object storage backends for CSV export.
const (
	ExportBackendS3    = "s3"
	ExportBackendGCS   = "gcs"
	ExportBackendAzure = "azure"
)

// Config holds the configuration of the scouting hub.
type Config struct {
	ListenAddr string // HTTP listen address (default ":8080")
	Env        string // "development" (default) or "production"
	LogLevel   string // debug, info, warn, error (default "info")

	CSVPath       string // flat-file store (default "collected_data/scouting.csv")
	DatabaseURL   string // Postgres URL; empty selects SQLite
	SQLitePath    string // SQLite file when DatabaseURL is empty (default "scouting.sqlite")
	SchemaVersion int    // descriptor generation in use (default 3)

	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string
	LLMTimeout time.Duration

	QueryTimeout  time.Duration // bound on one validated query (default 15s)
	SubmitTimeout time.Duration // bound on each sink write (default 10s)
	AskSource     string        // "relational" (default) or "csv"
	MaxQueryRows  int           // row cap of query results (default 500)
	AuditCapacity int           // retained audit entries (default 1000)

	AskRateLimitRPS   float64 // sustained ask requests per second per client (default 1)
	AskRateLimitBurst int     // ask burst per client (default 5)

	CORSAllowedOrigins []string // default ["*"]
	QRDecoding         bool     // decode QR images (default true)

	DriftCheckSchedule string // cron spec; empty disables (default "@every 10m")

	// Object storage fields are optional; export is enabled only when the
	// selected backend is fully configured.
	S3KeyID    *string
	S3Secret   *string
	S3Endpoint *string
	S3Region   *string
	S3Bucket   *string

	GCSBucket  *string
	GCSKeyFile string // service account JSON; empty uses application default credentials

	AzureAccountName *string
	AzureAccountKey  *string
	AzureContainer   *string
	AzureEndpoint    string // default https://<account>.blob.core.windows.net

	ExportBackend  string // "s3" (default), "gcs" or "azure"
	ExportPrefix   string // object key prefix (default "scouting/")
	ExportSchedule string // cron spec; empty disables

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// UsePostgres reports whether the relational store is Postgres.
func (c *Config) UsePostgres() bool { return c.DatabaseURL != "" }

// HasS3Config returns true if all required S3 fields are set.
func (c *Config) HasS3Config() bool {
	return c.S3KeyID != nil && c.S3Secret != nil &&
		c.S3Endpoint != nil && c.S3Region != nil && c.S3Bucket != nil
}

// HasGCSConfig reports whether a GCS bucket is configured.
func (c *Config) HasGCSConfig() bool { return c.GCSBucket != nil }

// HasAzureConfig reports whether Azure account credentials and a container are set.
func (c *Config) HasAzureConfig() bool {
	return c.AzureAccountName != nil && c.AzureAccountKey != nil && c.AzureContainer != nil
}

// HasExportConfig reports whether the selected export backend is fully configured.
func (c *Config) HasExportConfig() bool {
	switch c.ExportBackend {
	case ExportBackendGCS:
		return c.HasGCSConfig()
	case ExportBackendAzure:
		return c.HasAzureConfig()
	default:
		return c.HasS3Config()
	}
}

// HasLLM reports whether a text-generation API key is configured.
func (c *Config) HasLLM() bool { return c.LLMAPIKey != "" }

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		ListenAddr:         stringEnv("LISTEN_ADDR", ":8080"),
		Env:                stringEnv("ENV", "development"),
		LogLevel:           stringEnv("LOG_LEVEL", "info"),
		CSVPath:            stringEnv("CSV_PATH", "collected_data/scouting.csv"),
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SQLitePath:         stringEnv("SQLITE_PATH", "scouting.sqlite"),
		LLMAPIKey:          stringEnv("LLM_API_KEY", os.Getenv("GROQ_API_KEY")),
		LLMBaseURL:         stringEnv("LLM_BASE_URL", "https://api.groq.com/openai/v1"),
		LLMModel:           stringEnv("LLM_MODEL", "llama3-8b-8192"),
		AskSource:          strings.ToLower(stringEnv("ASK_SOURCE", AskSourceRelational)),
		QRDecoding:         parseBoolEnvDefault("QR_DECODING", true),
		GCSKeyFile:         strings.TrimSpace(os.Getenv("GCS_KEY_FILE")),
		AzureEndpoint:      strings.TrimSpace(os.Getenv("AZURE_ENDPOINT")),
		ExportBackend:      strings.ToLower(stringEnv("EXPORT_BACKEND", ExportBackendS3)),
		ExportPrefix:       stringEnv("EXPORT_PREFIX", stringEnv("S3_PREFIX", "scouting/")),
		ExportSchedule:     strings.TrimSpace(os.Getenv("EXPORT_SCHEDULE")),
		CORSAllowedOrigins: []string{"*"},
	}

	cfg.DriftCheckSchedule = "@every 10m"
	if v, ok := os.LookupEnv("DRIFT_CHECK_SCHEDULE"); ok {
		cfg.DriftCheckSchedule = strings.TrimSpace(v)
	}

	var errs []error
	intVar := func(key string, def int, dst *int) {
		n, err := intEnv(key, def)
		errs = append(errs, err)
		*dst = n
	}
	durVar := func(key string, def time.Duration, dst *time.Duration) {
		d, err := durationEnv(key, def)
		errs = append(errs, err)
		*dst = d
	}
	intVar("SCHEMA_VERSION", 3, &cfg.SchemaVersion)
	intVar("MAX_QUERY_ROWS", 500, &cfg.MaxQueryRows)
	intVar("AUDIT_CAPACITY", 1000, &cfg.AuditCapacity)
	intVar("ASK_RATE_LIMIT_BURST", 5, &cfg.AskRateLimitBurst)
	durVar("LLM_TIMEOUT", 30*time.Second, &cfg.LLMTimeout)
	durVar("QUERY_TIMEOUT", 15*time.Second, &cfg.QueryTimeout)
	durVar("SUBMIT_TIMEOUT", 10*time.Second, &cfg.SubmitTimeout)

	cfg.AskRateLimitRPS = 1
	if v := strings.TrimSpace(os.Getenv("ASK_RATE_LIMIT_RPS")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			errs = append(errs, fmt.Errorf("ASK_RATE_LIMIT_RPS: %q is not a positive number", v))
		} else {
			cfg.AskRateLimitRPS = f
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	// S3 fields are optional, only set if present
	cfg.S3KeyID = optionalEnv("S3_KEY_ID")
	cfg.S3Secret = optionalEnv("S3_SECRET")
	cfg.S3Endpoint = optionalEnv("S3_ENDPOINT")
	cfg.S3Region = optionalEnv("S3_REGION")
	cfg.S3Bucket = optionalEnv("S3_BUCKET")
	cfg.GCSBucket = optionalEnv("GCS_BUCKET")
	cfg.AzureAccountName = optionalEnv("AZURE_ACCOUNT_NAME")
	cfg.AzureAccountKey = optionalEnv("AZURE_ACCOUNT_KEY")
	cfg.AzureContainer = optionalEnv("AZURE_CONTAINER")

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = compactNonEmpty(strings.Split(v, ","))
	}

	if cfg.AskSource != AskSourceRelational && cfg.AskSource != AskSourceCSV {
		return nil, fmt.Errorf("ASK_SOURCE must be %q or %q, got %q", AskSourceRelational, AskSourceCSV, cfg.AskSource)
	}
	switch cfg.ExportBackend {
	case ExportBackendS3, ExportBackendGCS, ExportBackendAzure:
	default:
		return nil, fmt.Errorf("EXPORT_BACKEND must be %q, %q or %q, got %q",
			ExportBackendS3, ExportBackendGCS, ExportBackendAzure, cfg.ExportBackend)
	}
	if cfg.MaxQueryRows <= 0 {
		return nil, fmt.Errorf("MAX_QUERY_ROWS must be positive")
	}
	if !cfg.HasLLM() {
		cfg.Warnings = append(cfg.Warnings, "LLM_API_KEY not set; questions will be rejected as generator unavailable")
	}
	if cfg.ExportSchedule != "" && !cfg.HasExportConfig() {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf(
			"EXPORT_SCHEDULE is set but %s config is incomplete; scheduled export disabled", cfg.ExportBackend))
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if !cfg.HasLLM() {
			return nil, fmt.Errorf("LLM_API_KEY must be set in production (ENV=production)")
		}
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}

	return cfg, nil
}

func stringEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func optionalEnv(key string) *string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return &v
	}
	return nil
}

func intEnv(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: %q is not an integer", key, v)
	}
	return n, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def, fmt.Errorf("%s: %q is not a positive duration", key, v)
	}
	return d, nil
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return defaultVal
	}
	if v == "0" || v == "false" || v == "no" || v == "off" {
		return false
	}
	if v == "1" || v == "true" || v == "yes" || v == "on" {
		return true
	}
	return defaultVal
}

func compactNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// LoadDotEnv loads a .env file without overriding variables already set in
// the environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
