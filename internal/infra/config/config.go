package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	LLM       LLMConfig       `yaml:"llm"`
	Predictor PredictorConfig `yaml:"predictor"`
	Weather   WeatherConfig   `yaml:"weather"`
	Geocode   GeocodeConfig   `yaml:"geocode"`
	Flows     FlowsConfig     `yaml:"flows"`
	Chat      ChatConfig      `yaml:"chat"`
	Storage   StorageConfig   `yaml:"storage"`
	Documents DocumentsConfig `yaml:"documents"`
	Session   SessionConfig   `yaml:"session"`
	Experts   ExpertsConfig   `yaml:"experts"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	MaxUploadBytes int64           `yaml:"maxUploadBytes"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries for idempotent requests. Only
// routes listed as "METHOD /path" are retried; ":name" segments match any
// value.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Routes      []string      `yaml:"routes"`
}

// LLMConfig selects and configures the generative text provider.
type LLMConfig struct {
	Provider        string        `yaml:"provider"`
	APIKey          string        `yaml:"apiKey"`
	BaseURL         string        `yaml:"baseUrl"`
	Model           string        `yaml:"model"`
	Temperature     float32       `yaml:"temperature"`
	MaxOutputTokens int           `yaml:"maxOutputTokens"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxRetry        time.Duration `yaml:"maxRetry"`
}

// PredictorConfig points at the crop and disease prediction service.
type PredictorConfig struct {
	BaseURL string        `yaml:"baseUrl"`
	Timeout time.Duration `yaml:"timeout"`
}

// WeatherConfig controls the forecast client and its cache.
type WeatherConfig struct {
	BaseURL             string        `yaml:"baseUrl"`
	Timeout             time.Duration `yaml:"timeout"`
	CacheTTL            time.Duration `yaml:"cacheTtl"`
	CoordinatePrecision int           `yaml:"coordinatePrecision"`
	Valkey              ValkeyConfig  `yaml:"valkey"`
}

// ValkeyConfig contains connection information for cache storage.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// GeocodeConfig controls reverse geocoding.
type GeocodeConfig struct {
	BaseURL   string        `yaml:"baseUrl"`
	UserAgent string        `yaml:"userAgent"`
	Timeout   time.Duration `yaml:"timeout"`
}

// FlowsConfig tunes the recommendation and diagnosis flows.
type FlowsConfig struct {
	ExplainTimeout       time.Duration `yaml:"explainTimeout"`
	MinAnalyzeDuration   time.Duration `yaml:"minAnalyzeDuration"`
	RecommendationPrompt string        `yaml:"recommendationPrompt"`
	DiagnosisPrompt      string        `yaml:"diagnosisPrompt"`
}

// ChatConfig controls the assistant chat and where threads live.
type ChatConfig struct {
	SystemPrompt    string         `yaml:"systemPrompt"`
	MaxPromptTokens int            `yaml:"maxPromptTokens"`
	Encoding        string         `yaml:"encoding"`
	ReplyTimeout    time.Duration  `yaml:"replyTimeout"`
	Repository      string         `yaml:"repository"`
	SQLitePath      string         `yaml:"sqlitePath"`
	Postgres        PostgresConfig `yaml:"postgres"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// StorageConfig configures the object store holding diagnosis images and
// uploaded documents.
type StorageConfig struct {
	Provider  string `yaml:"provider"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Prefix    string `yaml:"prefix"`
}

// DocumentsConfig controls document indexing and search.
type DocumentsConfig struct {
	Repository     string         `yaml:"repository"`
	Postgres       PostgresConfig `yaml:"postgres"`
	Prefix         string         `yaml:"prefix"`
	Embedder       string         `yaml:"embedder"`
	EmbeddingModel string         `yaml:"embeddingModel"`
	Dimensions     int            `yaml:"dimensions"`
	ChunkTokens    int            `yaml:"chunkTokens"`
	ChunkOverlap   int            `yaml:"chunkOverlap"`
	SearchLimit    int            `yaml:"searchLimit"`
	MaxSearchLimit int            `yaml:"maxSearchLimit"`
	ContextChunks  int            `yaml:"contextChunks"`
	MinScore       float64        `yaml:"minScore"`
}

// SessionConfig holds token signing and pruning settings.
type SessionConfig struct {
	Secret        string        `yaml:"secret"`
	TokenTTL      time.Duration `yaml:"tokenTtl"`
	IdleTTL       time.Duration `yaml:"idleTtl"`
	PruneSchedule string        `yaml:"pruneSchedule"`
}

// ExpertsConfig points at the expert directory.
type ExpertsConfig struct {
	BaseURL      string        `yaml:"baseUrl"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetry     time.Duration `yaml:"maxRetry"`
	DefaultLimit int           `yaml:"defaultLimit"`
	MaxLimit     int           `yaml:"maxLimit"`
}

// Load reads configuration from a YAML file, a .env file and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	envString("HTTP_ADDRESS", &cfg.HTTP.Address)
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	envBool("HTTP_RATE_LIMIT_ENABLED", &cfg.HTTP.RateLimit.Enabled)
	envInt("HTTP_RATE_LIMIT_RPM", &cfg.HTTP.RateLimit.RequestsPerMinute)
	envInt("HTTP_RATE_LIMIT_BURST", &cfg.HTTP.RateLimit.Burst)
	envBool("HTTP_RETRY_ENABLED", &cfg.HTTP.Retry.Enabled)
	envInt("HTTP_RETRY_MAX_ATTEMPTS", &cfg.HTTP.Retry.MaxAttempts)
	envDuration("HTTP_RETRY_BASE_BACKOFF", &cfg.HTTP.Retry.BaseBackoff)

	envString("LLM_PROVIDER", &cfg.LLM.Provider)
	envString("LLM_API_KEY", &cfg.LLM.APIKey)
	if cfg.LLM.APIKey == "" {
		envString("GEMINI_API_KEY", &cfg.LLM.APIKey)
	}
	envString("LLM_BASE_URL", &cfg.LLM.BaseURL)
	envString("LLM_MODEL", &cfg.LLM.Model)
	envDuration("LLM_MAX_RETRY", &cfg.LLM.MaxRetry)
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}

	envString("PREDICTOR_BASE_URL", &cfg.Predictor.BaseURL)
	envDuration("PREDICTOR_TIMEOUT", &cfg.Predictor.Timeout)

	envString("WEATHER_BASE_URL", &cfg.Weather.BaseURL)
	envDuration("WEATHER_CACHE_TTL", &cfg.Weather.CacheTTL)
	envBool("WEATHER_VALKEY_ENABLED", &cfg.Weather.Valkey.Enabled)
	envString("WEATHER_VALKEY_ADDR", &cfg.Weather.Valkey.Addr)

	envString("GEOCODE_BASE_URL", &cfg.Geocode.BaseURL)
	envString("GEOCODE_USER_AGENT", &cfg.Geocode.UserAgent)

	envDuration("FLOW_EXPLAIN_TIMEOUT", &cfg.Flows.ExplainTimeout)
	envDuration("FLOW_MIN_ANALYZE_DURATION", &cfg.Flows.MinAnalyzeDuration)

	envString("CHAT_REPOSITORY", &cfg.Chat.Repository)
	envString("CHAT_SQLITE_PATH", &cfg.Chat.SQLitePath)
	envString("CHAT_POSTGRES_DSN", &cfg.Chat.Postgres.DSN)
	envInt("CHAT_MAX_PROMPT_TOKENS", &cfg.Chat.MaxPromptTokens)

	envString("STORAGE_PROVIDER", &cfg.Storage.Provider)
	envString("R2_ENDPOINT", &cfg.Storage.Endpoint)
	envString("R2_ACCESS_KEY", &cfg.Storage.AccessKey)
	envString("R2_SECRET_KEY", &cfg.Storage.SecretKey)
	envString("R2_BUCKET", &cfg.Storage.Bucket)
	envString("R2_REGION", &cfg.Storage.Region)

	envString("DOCUMENTS_REPOSITORY", &cfg.Documents.Repository)
	envString("DOCUMENTS_POSTGRES_DSN", &cfg.Documents.Postgres.DSN)
	envString("DOCUMENTS_EMBEDDER", &cfg.Documents.Embedder)
	envString("DOCUMENTS_EMBEDDING_MODEL", &cfg.Documents.EmbeddingModel)
	envInt("DOCUMENTS_DIMENSIONS", &cfg.Documents.Dimensions)

	envString("SESSION_SECRET", &cfg.Session.Secret)
	envDuration("SESSION_TOKEN_TTL", &cfg.Session.TokenTTL)
	envDuration("SESSION_IDLE_TTL", &cfg.Session.IdleTTL)
	envString("SESSION_PRUNE_SCHEDULE", &cfg.Session.PruneSchedule)

	envString("EXPERTS_BASE_URL", &cfg.Experts.BaseURL)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "1" || strings.EqualFold(v, "true")
	}
}

func envDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Defaults returns the built-in configuration before file and environment
// overrides are applied.
func Defaults() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:        ":8080",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   60 * time.Second,
			MaxUploadBytes: 10 << 20,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
				Routes: []string{
					"POST /api/v1/environment",
					"GET /api/v1/chat/threads",
					"GET /api/v1/chat/threads/:id/messages",
					"GET /api/v1/chat/threads/:id/documents",
					"GET /api/v1/documents",
					"GET /api/v1/documents/search",
					"GET /api/v1/experts/nearest",
				},
			},
		},
		LLM: LLMConfig{
			Provider:        "gemini",
			Model:           "gemini-2.5-flash",
			Temperature:     0.4,
			MaxOutputTokens: 1024,
			Timeout:         30 * time.Second,
			MaxRetry:        10 * time.Second,
		},
		Predictor: PredictorConfig{
			BaseURL: "http://localhost:8000",
			Timeout: 30 * time.Second,
		},
		Weather: WeatherConfig{
			BaseURL:             "https://api.open-meteo.com/v1/forecast",
			Timeout:             10 * time.Second,
			CacheTTL:            15 * time.Minute,
			CoordinatePrecision: 2,
		},
		Geocode: GeocodeConfig{
			BaseURL:   "https://nominatim.openstreetmap.org/reverse",
			UserAgent: "krishi-vaani/1.0",
			Timeout:   10 * time.Second,
		},
		Flows: FlowsConfig{
			ExplainTimeout:       45 * time.Second,
			RecommendationPrompt: "You are an agronomist advising smallholder farmers. Answer in plain language.",
			DiagnosisPrompt:      "You are a plant pathologist advising smallholder farmers. Answer in plain language.",
		},
		Chat: ChatConfig{
			MaxPromptTokens: 2048,
			Encoding:        "cl100k_base",
			ReplyTimeout:    45 * time.Second,
			Repository:      "memory",
			SQLitePath:      "data/chat.db",
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
		},
		Storage: StorageConfig{
			Provider: "memory",
			Region:   "auto",
			Prefix:   "diagnoses",
		},
		Documents: DocumentsConfig{
			Repository:     "memory",
			Prefix:         "documents",
			Embedder:       "hashing",
			Dimensions:     256,
			ChunkTokens:    400,
			ChunkOverlap:   40,
			SearchLimit:    5,
			MaxSearchLimit: 20,
			ContextChunks:  3,
			MinScore:       0.1,
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
		},
		Session: SessionConfig{
			TokenTTL:      12 * time.Hour,
			IdleTTL:       2 * time.Hour,
			PruneSchedule: "@every 10m",
		},
		Experts: ExpertsConfig{
			BaseURL:      "http://localhost:8000",
			Timeout:      10 * time.Second,
			MaxRetry:     5 * time.Second,
			DefaultLimit: 1,
			MaxLimit:     10,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.MaxUploadBytes <= 0 {
		return errors.New("http.maxUploadBytes must be positive")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	switch c.LLM.Provider {
	case "gemini", "chatgpt":
	default:
		return fmt.Errorf("llm.provider %q must be gemini or chatgpt", c.LLM.Provider)
	}
	if strings.TrimSpace(c.Predictor.BaseURL) == "" {
		return errors.New("predictor.baseUrl cannot be empty")
	}
	if strings.TrimSpace(c.Weather.BaseURL) == "" {
		return errors.New("weather.baseUrl cannot be empty")
	}
	if c.Weather.CacheTTL < 0 {
		return errors.New("weather.cacheTtl cannot be negative")
	}
	if c.Weather.Valkey.Enabled && strings.TrimSpace(c.Weather.Valkey.Addr) == "" {
		return errors.New("weather.valkey.addr cannot be empty when valkey cache is enabled")
	}
	if c.Flows.ExplainTimeout <= 0 {
		return errors.New("flows.explainTimeout must be positive")
	}
	if c.Flows.MinAnalyzeDuration < 0 {
		return errors.New("flows.minAnalyzeDuration cannot be negative")
	}
	switch c.Chat.Repository {
	case "memory":
	case "sqlite":
		if strings.TrimSpace(c.Chat.SQLitePath) == "" {
			return errors.New("chat.sqlitePath cannot be empty for the sqlite repository")
		}
	case "postgres":
		if strings.TrimSpace(c.Chat.Postgres.DSN) == "" {
			return errors.New("chat.postgres.dsn cannot be empty for the postgres repository")
		}
	default:
		return fmt.Errorf("chat.repository %q must be memory, sqlite or postgres", c.Chat.Repository)
	}
	switch c.Storage.Provider {
	case "memory":
	case "r2":
		if c.Storage.Endpoint == "" || c.Storage.Bucket == "" {
			return errors.New("storage.endpoint and storage.bucket are required for r2")
		}
	default:
		return fmt.Errorf("storage.provider %q must be memory or r2", c.Storage.Provider)
	}
	if err := c.Documents.validate(); err != nil {
		return err
	}
	for _, route := range c.HTTP.Retry.Routes {
		if method, path, ok := strings.Cut(route, " "); !ok || method == "" || !strings.HasPrefix(path, "/") {
			return fmt.Errorf("http.retry.routes entry %q must look like \"GET /path\"", route)
		}
	}
	if len(c.Session.Secret) < 16 {
		return errors.New("session.secret must be at least 16 characters")
	}
	if strings.TrimSpace(c.Session.PruneSchedule) == "" {
		return errors.New("session.pruneSchedule cannot be empty")
	}
	if strings.TrimSpace(c.Experts.BaseURL) == "" {
		return errors.New("experts.baseUrl cannot be empty")
	}
	return nil
}

func (d DocumentsConfig) validate() error {
	switch d.Repository {
	case "memory":
	case "postgres":
		if strings.TrimSpace(d.Postgres.DSN) == "" {
			return errors.New("documents.postgres.dsn cannot be empty for the postgres repository")
		}
	default:
		return fmt.Errorf("documents.repository %q must be memory or postgres", d.Repository)
	}
	switch d.Embedder {
	case "hashing", "gemini", "chatgpt":
	default:
		return fmt.Errorf("documents.embedder %q must be hashing, gemini or chatgpt", d.Embedder)
	}
	if d.Dimensions <= 0 {
		return errors.New("documents.dimensions must be positive")
	}
	if d.ChunkTokens <= 0 {
		return errors.New("documents.chunkTokens must be positive")
	}
	if d.ChunkOverlap < 0 || d.ChunkOverlap >= d.ChunkTokens {
		return errors.New("documents.chunkOverlap must be between zero and chunkTokens")
	}
	if d.MinScore < -1 || d.MinScore > 1 {
		return errors.New("documents.minScore must be between -1 and 1")
	}
	return nil
}
