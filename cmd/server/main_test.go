package main

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scouthub/internal/config"
	"scouthub/internal/schema"
)

func TestLocalBaseURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		listenAddr string
		want       string
	}{
		{name: "default listen addr", listenAddr: ":8080", want: "http://localhost:8080"},
		{name: "pit network address", listenAddr: "192.168.1.20:8080", want: "http://192.168.1.20:8080"},
		{name: "all interfaces", listenAddr: "0.0.0.0:5000", want: "http://localhost:5000"},
		{name: "all ipv6 interfaces", listenAddr: "[::]:5000", want: "http://localhost:5000"},
		{name: "ipv6 loopback kept", listenAddr: "[::1]:8080", want: "http://[::1]:8080"},
		{name: "padded", listenAddr: "  :9090 ", want: "http://localhost:9090"},
		{name: "unset", listenAddr: "", want: "http://localhost:8080"},
		{name: "no port", listenAddr: "scout-pi", want: "http://scout-pi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, localBaseURL(tt.listenAddr))
		})
	}
}

func TestStoreName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "sqlite", storeName(&config.Config{}))
	assert.Equal(t, "postgres", storeName(&config.Config{DatabaseURL: "postgres://scout@localhost/scouting"}))
}

func TestOpenStores_SQLite(t *testing.T) {
	t.Parallel()
	logger := slog.New(slog.DiscardHandler)

	tests := []struct {
		name      string
		version   int
		wantTable bool
	}{
		{name: "current generation migrates", version: schema.CurrentVersion, wantTable: true},
		{name: "older generation skips migrations", version: 2, wantTable: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			desc, err := schema.Load(tt.version)
			require.NoError(t, err)
			cfg := &config.Config{SQLitePath: filepath.Join(t.TempDir(), "scouting.sqlite")}

			writeDB, readDB, err := openStores(cfg, desc, logger)
			require.NoError(t, err)
			require.NotNil(t, writeDB)
			t.Cleanup(func() {
				_ = readDB.Close()
				_ = writeDB.Close()
			})

			var n int
			require.NoError(t, readDB.QueryRow(
				"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'match_scouting'").Scan(&n))
			assert.Equal(t, tt.wantTable, n == 1)
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()
	_, isJSON := newLogger(&config.Config{Env: "production"}).Handler().(*slog.JSONHandler)
	assert.True(t, isJSON)
	_, isText := newLogger(&config.Config{}).Handler().(*slog.TextHandler)
	assert.True(t, isText)
}
