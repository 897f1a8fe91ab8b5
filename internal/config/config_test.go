package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"LISTEN_ADDR", "ENV", "LOG_LEVEL", "CSV_PATH", "DATABASE_URL", "SQLITE_PATH", "SCHEMA_VERSION",
	"LLM_API_KEY", "GROQ_API_KEY", "LLM_BASE_URL", "LLM_MODEL", "LLM_TIMEOUT", "QUERY_TIMEOUT",
	"SUBMIT_TIMEOUT", "ASK_SOURCE", "MAX_QUERY_ROWS", "AUDIT_CAPACITY", "ASK_RATE_LIMIT_RPS",
	"ASK_RATE_LIMIT_BURST", "CORS_ALLOWED_ORIGINS", "QR_DECODING", "S3_KEY_ID", "S3_SECRET",
	"S3_ENDPOINT", "S3_REGION", "S3_BUCKET", "S3_PREFIX", "EXPORT_SCHEDULE", "EXPORT_BACKEND",
	"EXPORT_PREFIX", "GCS_BUCKET", "GCS_KEY_FILE", "AZURE_ACCOUNT_NAME", "AZURE_ACCOUNT_KEY",
	"AZURE_CONTAINER", "AZURE_ENDPOINT",
}

// clearEnv blanks every variable so tests do not depend on the host environment.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
	t.Setenv("DRIFT_CHECK_SCHEDULE", "")
	require.NoError(t, os.Unsetenv("DRIFT_CHECK_SCHEDULE"))
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "collected_data/scouting.csv", cfg.CSVPath)
	assert.Equal(t, "scouting.sqlite", cfg.SQLitePath)
	assert.False(t, cfg.UsePostgres())
	assert.Equal(t, 3, cfg.SchemaVersion)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.LLMBaseURL)
	assert.Equal(t, "llama3-8b-8192", cfg.LLMModel)
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 15*time.Second, cfg.QueryTimeout)
	assert.Equal(t, 10*time.Second, cfg.SubmitTimeout)
	assert.Equal(t, AskSourceRelational, cfg.AskSource)
	assert.Equal(t, 500, cfg.MaxQueryRows)
	assert.Equal(t, 1000, cfg.AuditCapacity)
	assert.InDelta(t, 1, cfg.AskRateLimitRPS, 0)
	assert.Equal(t, 5, cfg.AskRateLimitBurst)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.QRDecoding)
	assert.Equal(t, "@every 10m", cfg.DriftCheckSchedule)
	assert.Equal(t, "scouting/", cfg.ExportPrefix)
	assert.Equal(t, ExportBackendS3, cfg.ExportBackend)
	assert.False(t, cfg.HasS3Config())
	assert.False(t, cfg.HasExportConfig())
	assert.False(t, cfg.HasLLM())
	assert.NotEmpty(t, cfg.Warnings)
}

func TestLoadFromEnv_AllVarsSet(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://scout@db/scouting")
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("QUERY_TIMEOUT", "2s")
	t.Setenv("ASK_SOURCE", "CSV")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.local, ,http://b.local")
	t.Setenv("QR_DECODING", "off")
	t.Setenv("DRIFT_CHECK_SCHEDULE", "")
	t.Setenv("S3_KEY_ID", "k")
	t.Setenv("S3_SECRET", "s")
	t.Setenv("S3_ENDPOINT", "fsn1.your-objectstorage.com")
	t.Setenv("S3_REGION", "fsn1")
	t.Setenv("S3_BUCKET", "scouting")
	t.Setenv("EXPORT_SCHEDULE", "@hourly")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.UsePostgres())
	assert.Equal(t, "gsk-test", cfg.LLMAPIKey, "GROQ_API_KEY is the fallback key")
	assert.Equal(t, 2*time.Second, cfg.QueryTimeout)
	assert.Equal(t, AskSourceCSV, cfg.AskSource)
	assert.Equal(t, []string{"http://a.local", "http://b.local"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.QRDecoding)
	assert.Empty(t, cfg.DriftCheckSchedule, "an explicit empty schedule disables the monitor")
	assert.True(t, cfg.HasS3Config())
	assert.Equal(t, "scouting", *cfg.S3Bucket)
	assert.Empty(t, cfg.Warnings)
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"bad duration", "QUERY_TIMEOUT", "soon", "QUERY_TIMEOUT"},
		{"negative duration", "LLM_TIMEOUT", "-1s", "LLM_TIMEOUT"},
		{"bad integer", "MAX_QUERY_ROWS", "many", "MAX_QUERY_ROWS"},
		{"zero rows", "MAX_QUERY_ROWS", "0", "MAX_QUERY_ROWS must be positive"},
		{"bad rps", "ASK_RATE_LIMIT_RPS", "fast", "ASK_RATE_LIMIT_RPS"},
		{"bad ask source", "ASK_SOURCE", "parquet", "ASK_SOURCE"},
		{"bad export backend", "EXPORT_BACKEND", "ftp", "EXPORT_BACKEND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := LoadFromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromEnv_Production(t *testing.T) {
	t.Run("missing llm key", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ENV", "production")
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://scout.example.com")
		_, err := LoadFromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "LLM_API_KEY")
	})

	t.Run("wildcard cors", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ENV", "production")
		t.Setenv("LLM_API_KEY", "k")
		_, err := LoadFromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "CORS wildcard")
	})

	t.Run("valid", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ENV", "production")
		t.Setenv("LLM_API_KEY", "k")
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://scout.example.com")
		cfg, err := LoadFromEnv()
		require.NoError(t, err)
		assert.True(t, cfg.IsProduction())
	})
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, (&Config{LogLevel: tt.level}).SlogLevel(), tt.level)
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("# local settings\nCSV_PATH=\"/data/scout.csv\"\nLLM_MODEL=from-file\n"), 0o600))
	t.Setenv("LLM_MODEL", "from-env")
	t.Cleanup(func() { _ = os.Unsetenv("CSV_PATH") })
	require.NoError(t, os.Unsetenv("CSV_PATH"))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "/data/scout.csv", os.Getenv("CSV_PATH"))
	assert.Equal(t, "from-env", os.Getenv("LLM_MODEL"), "environment wins over .env")
}

func TestLoadDotEnv_Missing(t *testing.T) {
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}

func TestLoadFromEnv_ExportBackends(t *testing.T) {
	t.Run("gcs", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("EXPORT_BACKEND", "GCS")
		t.Setenv("GCS_BUCKET", "scouting-exports")
		t.Setenv("GCS_KEY_FILE", "/secrets/sa.json")
		t.Setenv("EXPORT_PREFIX", "frc/")

		cfg, err := LoadFromEnv()
		require.NoError(t, err)
		assert.Equal(t, ExportBackendGCS, cfg.ExportBackend)
		assert.True(t, cfg.HasExportConfig())
		assert.False(t, cfg.HasS3Config())
		assert.Equal(t, "/secrets/sa.json", cfg.GCSKeyFile)
		assert.Equal(t, "frc/", cfg.ExportPrefix)
	})

	t.Run("azure incomplete", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("EXPORT_BACKEND", "azure")
		t.Setenv("AZURE_ACCOUNT_NAME", "scouts")
		t.Setenv("AZURE_CONTAINER", "exports")
		t.Setenv("EXPORT_SCHEDULE", "@daily")

		cfg, err := LoadFromEnv()
		require.NoError(t, err)
		assert.False(t, cfg.HasExportConfig())
		assert.Contains(t, cfg.Warnings, "EXPORT_SCHEDULE is set but azure config is incomplete; scheduled export disabled")
	})

	t.Run("legacy s3 prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("S3_PREFIX", "old/")

		cfg, err := LoadFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "old/", cfg.ExportPrefix)
	})
}
