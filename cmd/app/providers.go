package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"
	_ "modernc.org/sqlite"

	"github.com/yanqian/krishi-vaani/internal/bootstrap"
	"github.com/yanqian/krishi-vaani/internal/domain/chat"
	"github.com/yanqian/krishi-vaani/internal/domain/disease"
	"github.com/yanqian/krishi-vaani/internal/domain/document"
	"github.com/yanqian/krishi-vaani/internal/domain/environment"
	"github.com/yanqian/krishi-vaani/internal/domain/expert"
	"github.com/yanqian/krishi-vaani/internal/domain/orchestrator"
	"github.com/yanqian/krishi-vaani/internal/domain/recommendation"
	"github.com/yanqian/krishi-vaani/internal/domain/session"
	"github.com/yanqian/krishi-vaani/internal/domain/textgen"
	"github.com/yanqian/krishi-vaani/internal/infra/chatrepo"
	"github.com/yanqian/krishi-vaani/internal/infra/config"
	"github.com/yanqian/krishi-vaani/internal/infra/docindex"
	"github.com/yanqian/krishi-vaani/internal/infra/docrepo"
	"github.com/yanqian/krishi-vaani/internal/infra/expertdir"
	"github.com/yanqian/krishi-vaani/internal/infra/geocode/nominatim"
	"github.com/yanqian/krishi-vaani/internal/infra/llm/chatgpt"
	"github.com/yanqian/krishi-vaani/internal/infra/llm/gemini"
	"github.com/yanqian/krishi-vaani/internal/infra/objectstore"
	"github.com/yanqian/krishi-vaani/internal/infra/predictor"
	"github.com/yanqian/krishi-vaani/internal/infra/tokens"
	"github.com/yanqian/krishi-vaani/internal/infra/weather/openmeteo"
	"github.com/yanqian/krishi-vaani/internal/infra/weathercache"
)

func provideGenerator(cfg *config.Config, logger *slog.Logger) (textgen.Generator, error) {
	switch cfg.LLM.Provider {
	case "chatgpt":
		client, err := chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Timeout, cfg.LLM.MaxRetry)
		if err != nil {
			return nil, err
		}
		logger.Info("generative provider selected", "provider", "chatgpt", "model", cfg.LLM.Model)
		return chatgpt.NewGenerator(client, cfg.LLM.Model, cfg.LLM.Temperature, cfg.LLM.MaxOutputTokens), nil
	default:
		gen, err := gemini.NewGenerator(context.Background(), gemini.Config{
			APIKey:          cfg.LLM.APIKey,
			Model:           cfg.LLM.Model,
			Temperature:     cfg.LLM.Temperature,
			MaxOutputTokens: int32(cfg.LLM.MaxOutputTokens),
		})
		if err != nil {
			return nil, err
		}
		logger.Info("generative provider selected", "provider", "gemini", "model", cfg.LLM.Model)
		return gen, nil
	}
}

func provideEnvironmentConfig(cfg *config.Config) environment.Config {
	return environment.Config{
		CacheTTL:            cfg.Weather.CacheTTL,
		CoordinatePrecision: cfg.Weather.CoordinatePrecision,
		FetchTimeout:        cfg.Weather.Timeout,
	}
}

func provideWeatherClient(cfg *config.Config) *openmeteo.Client {
	return openmeteo.NewClient(cfg.Weather.BaseURL, cfg.Weather.Timeout)
}

func provideGeocoder(cfg *config.Config) *nominatim.Client {
	return nominatim.NewClient(cfg.Geocode.BaseURL, cfg.Geocode.UserAgent, cfg.Geocode.Timeout)
}

func provideWeatherCache(cfg *config.Config, logger *slog.Logger) environment.Cache {
	if cfg.Weather.Valkey.Enabled {
		opt, err := buildValkeyOptions(cfg.Weather.Valkey.Addr)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory cache", "error", err)
			return weathercache.NewMemoryCache()
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory cache", "error", err)
			return weathercache.NewMemoryCache()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory cache", "error", err)
			client.Close()
		} else {
			logger.Info("weather valkey cache enabled", "addr", cfg.Weather.Valkey.Addr)
			return weathercache.NewValkeyCache(client, "weather")
		}
	}
	return weathercache.NewMemoryCache()
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

// provideCachePurger returns the weather cache when it needs periodic purging.
func provideCachePurger(cache environment.Cache) bootstrap.Purger {
	if purger, ok := cache.(bootstrap.Purger); ok {
		return purger
	}
	return nil
}

func providePredictor(cfg *config.Config) *predictor.Client {
	return predictor.NewClient(cfg.Predictor.BaseURL, cfg.Predictor.Timeout)
}

func provideObjectStore(cfg *config.Config, logger *slog.Logger) (objectstore.Store, error) {
	if cfg.Storage.Provider != "r2" {
		logger.Info("diagnosis images and documents stored in memory")
		return objectstore.NewMemoryStore(), nil
	}
	store, err := objectstore.NewS3Store(cfg.Storage.Endpoint, cfg.Storage.AccessKey, cfg.Storage.SecretKey, cfg.Storage.Bucket, cfg.Storage.Region, logger)
	if err != nil {
		return nil, fmt.Errorf("init object store: %w", err)
	}
	return store, nil
}

func provideImageArchive(store objectstore.Store) disease.ImageArchive {
	return store
}

func provideDocumentStorage(store objectstore.Store) document.Storage {
	return store
}

func provideRecommendationConfig(cfg *config.Config) recommendation.Config {
	return recommendation.Config{Prompt: cfg.Flows.RecommendationPrompt}
}

func provideDiseaseConfig(cfg *config.Config) disease.Config {
	return disease.Config{
		MinAnalyzeDuration: cfg.Flows.MinAnalyzeDuration,
		Prompt:             cfg.Flows.DiagnosisPrompt,
		ArchivePrefix:      cfg.Storage.Prefix,
	}
}

func provideOrchestratorConfig(cfg *config.Config) orchestrator.Config {
	return orchestrator.Config{ExplainTimeout: cfg.Flows.ExplainTimeout}
}

func provideSessionConfig(cfg *config.Config) session.Config {
	return session.Config{
		Secret:   cfg.Session.Secret,
		TokenTTL: cfg.Session.TokenTTL,
		IdleTTL:  cfg.Session.IdleTTL,
	}
}

func provideChatConfig(cfg *config.Config) chat.Config {
	return chat.Config{
		SystemPrompt:    cfg.Chat.SystemPrompt,
		MaxPromptTokens: cfg.Chat.MaxPromptTokens,
		ReplyTimeout:    cfg.Chat.ReplyTimeout,
	}
}

func provideTokenCounter(cfg *config.Config, logger *slog.Logger) chat.TokenCounter {
	return tokens.NewCounter(cfg.Chat.Encoding, logger)
}

func provideChatRepository(cfg *config.Config, logger *slog.Logger) (chat.Repository, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch cfg.Chat.Repository {
	case "sqlite":
		if dir := filepath.Dir(cfg.Chat.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
		db, err := sql.Open("sqlite", cfg.Chat.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		db.SetMaxOpenConns(1)
		repo := chatrepo.NewSQLiteRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Info("chat sqlite repository enabled", "path", cfg.Chat.SQLitePath)
		return repo, func() { db.Close() }, nil
	case "postgres":
		pool, err := openPostgres(ctx, cfg.Chat.Postgres)
		if err != nil {
			return nil, nil, err
		}
		repo := chatrepo.NewPostgresRepository(pool)
		if err := repo.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("chat postgres repository enabled")
		return repo, pool.Close, nil
	default:
		logger.Info("chat threads kept in memory")
		return chatrepo.NewMemoryRepository(), func() {}, nil
	}
}

func openPostgres(ctx context.Context, pg config.PostgresConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(pg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if pg.MaxConns > 0 {
		poolConfig.MaxConns = pg.MaxConns
	}
	if pg.MinConns > 0 {
		poolConfig.MinConns = pg.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("init postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return pool, nil
}

func provideDocumentConfig(cfg *config.Config) document.Config {
	return document.Config{
		StoragePrefix:  cfg.Documents.Prefix,
		SearchLimit:    cfg.Documents.SearchLimit,
		MaxSearchLimit: cfg.Documents.MaxSearchLimit,
		ContextChunks:  cfg.Documents.ContextChunks,
		MinScore:       cfg.Documents.MinScore,
	}
}

func provideDocumentRepository(cfg *config.Config, logger *slog.Logger) (document.Repository, func(), error) {
	if cfg.Documents.Repository != "postgres" {
		logger.Info("documents indexed in memory")
		return docrepo.NewMemoryRepository(), func() {}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pool, err := openPostgres(ctx, cfg.Documents.Postgres)
	if err != nil {
		return nil, nil, err
	}
	repo := docrepo.NewPostgresRepository(pool, cfg.Documents.Dimensions)
	if err := repo.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Info("documents indexed in postgres", "dimensions", cfg.Documents.Dimensions)
	return repo, pool.Close, nil
}

// provideEmbedder selects the embedding backend. Provider embeddings are
// requested at the configured dimensions so they fit the vector column.
func provideEmbedder(cfg *config.Config, logger *slog.Logger) (document.Embedder, error) {
	docs := cfg.Documents
	switch docs.Embedder {
	case "gemini":
		embedder, err := gemini.NewEmbedder(context.Background(), cfg.LLM.APIKey, docs.EmbeddingModel, docs.Dimensions)
		if err != nil {
			return nil, fmt.Errorf("init gemini embedder: %w", err)
		}
		logger.Info("document embedder selected", "embedder", "gemini", "dimensions", docs.Dimensions)
		return embedder, nil
	case "chatgpt":
		client, err := chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Timeout, cfg.LLM.MaxRetry)
		if err != nil {
			return nil, fmt.Errorf("init chatgpt embedder: %w", err)
		}
		logger.Info("document embedder selected", "embedder", "chatgpt", "dimensions", docs.Dimensions)
		return chatgpt.NewEmbedder(client, docs.EmbeddingModel, docs.Dimensions), nil
	default:
		logger.Info("document embedder selected", "embedder", "hashing", "dimensions", docs.Dimensions)
		return docindex.NewHashingEmbedder(docs.Dimensions), nil
	}
}

func provideChunker(cfg *config.Config, counter chat.TokenCounter) document.Chunker {
	return docindex.NewChunker(cfg.Documents.ChunkTokens, cfg.Documents.ChunkOverlap, counter)
}

// provideChatRetriever grounds chat replies in the thread's documents.
func provideChatRetriever(documents document.Service) chat.Retriever {
	return chat.RetrieverFunc(func(ctx context.Context, owner, threadID, question string) ([]chat.Reference, error) {
		hits, err := documents.Retrieve(ctx, owner, threadID, question)
		if err != nil {
			return nil, err
		}
		refs := make([]chat.Reference, len(hits))
		for i, hit := range hits {
			refs[i] = chat.Reference{
				DocumentID: hit.DocumentID,
				Filename:   hit.Filename,
				Snippet:    hit.Snippet,
				Score:      hit.Score,
			}
		}
		return refs, nil
	})
}

func provideExpertConfig(cfg *config.Config) expert.Config {
	return expert.Config{
		DefaultLimit: cfg.Experts.DefaultLimit,
		MaxLimit:     cfg.Experts.MaxLimit,
	}
}

func provideExpertDirectory(cfg *config.Config) *expertdir.Client {
	return expertdir.NewClient(cfg.Experts.BaseURL, cfg.Experts.Timeout, cfg.Experts.MaxRetry)
}
