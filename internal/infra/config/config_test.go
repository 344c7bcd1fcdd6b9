package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  address: ":9090"
chat:
  repository: sqlite
  sqlitePath: /tmp/chat.db
session:
  secret: file-secret-0123456789
weather:
  cacheTtl: 5m
`), 0o600))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("SESSION_SECRET", "env-secret-0123456789")
	t.Setenv("LLM_PROVIDER", "chatgpt")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTP.Address)
	require.Equal(t, "sqlite", cfg.Chat.Repository)
	require.Equal(t, 5*time.Minute, cfg.Weather.CacheTTL)
	require.Equal(t, "env-secret-0123456789", cfg.Session.Secret)
	require.Equal(t, "chatgpt", cfg.LLM.Provider)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
	require.Equal(t, 2, cfg.Weather.CoordinatePrecision)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Session.Secret = "0123456789abcdef"
		return cfg
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"short secret", func(c *Config) { c.Session.Secret = "short" }, "session.secret"},
		{"provider", func(c *Config) { c.LLM.Provider = "other" }, "llm.provider"},
		{"postgres dsn", func(c *Config) { c.Chat.Repository = "postgres" }, "chat.postgres.dsn"},
		{"repository", func(c *Config) { c.Chat.Repository = "mongo" }, "chat.repository"},
		{"r2 bucket", func(c *Config) { c.Storage.Provider = "r2" }, "storage.endpoint"},
		{"valkey addr", func(c *Config) { c.Weather.Valkey.Enabled = true }, "weather.valkey.addr"},
		{"rate limit", func(c *Config) { c.HTTP.RateLimit.Burst = 0 }, "http.rateLimit.burst"},
		{"explain timeout", func(c *Config) { c.Flows.ExplainTimeout = 0 }, "flows.explainTimeout"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestDefaultRetryRoutesAreReadOnlyOrIdempotent(t *testing.T) {
	cfg := Defaults()
	require.NotEmpty(t, cfg.HTTP.Retry.Routes)
	for _, route := range cfg.HTTP.Retry.Routes {
		switch {
		case strings.HasPrefix(route, "GET "):
		case route == "POST /api/v1/environment":
		default:
			t.Fatalf("route %q must not be retried", route)
		}
	}
}

func TestValidateDocuments(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"repository", func(c *Config) { c.Documents.Repository = "sqlite" }, "documents.repository"},
		{"postgres dsn", func(c *Config) { c.Documents.Repository = "postgres" }, "documents.postgres.dsn"},
		{"embedder", func(c *Config) { c.Documents.Embedder = "bert" }, "documents.embedder"},
		{"overlap", func(c *Config) { c.Documents.ChunkOverlap = c.Documents.ChunkTokens }, "documents.chunkOverlap"},
		{"retry route", func(c *Config) { c.HTTP.Retry.Routes = []string{"/api/v1/documents"} }, "http.retry.routes"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.Session.Secret = "0123456789abcdef"
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}
