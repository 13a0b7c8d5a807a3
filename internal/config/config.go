package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/opsdocs-labs/sopqa-core/internal/core/domain"
)

// Config is the full application configuration. Values resolve in
// order: defaults, then the optional YAML file, then environment
// variables. API keys come from the environment only and are never
// written to the YAML file.
type Config struct {
	Server     ServerConfig    `yaml:"server"`
	Index      IndexConfig     `yaml:"index"`
	Chunking   ChunkingConfig  `yaml:"chunking"`
	Query      QueryConfig     `yaml:"query"`
	Documents  DocumentsConfig `yaml:"documents"`
	Postgres   PostgresConfig  `yaml:"postgres"`
	Redis      RedisConfig     `yaml:"redis"`
	Embedding  AIServiceConfig `yaml:"embedding"`
	Generation AIServiceConfig `yaml:"generation"`
}

// ServerConfig configures the HTTP server
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// IndexConfig configures the vector index backend
type IndexConfig struct {
	// Backend selects the index implementation: "chromem" or "postgres"
	Backend string `yaml:"backend"`

	// PersistDirectory is where the chromem backend stores vectors.
	// Empty means in-memory.
	PersistDirectory string `yaml:"persist_directory"`

	// CollectionName keys the collection within the store
	CollectionName string `yaml:"collection_name"`

	// Compress enables gzip compression of persisted vectors
	Compress bool `yaml:"compress"`
}

// ChunkingConfig configures document splitting
type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// QueryConfig configures the query pipeline
type QueryConfig struct {
	TopK             int `yaml:"top_k"`
	MaxContextLength int `yaml:"max_context_length"`
	HistoryLimit     int `yaml:"history_limit"`
}

// DocumentsConfig configures folder ingestion
type DocumentsConfig struct {
	Folder            string `yaml:"folder"`
	IngestConcurrency int    `yaml:"ingest_concurrency"`
}

// PostgresConfig configures the optional postgres index backend
type PostgresConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig configures the optional Redis-backed query history and
// maintenance locks
type RedisConfig struct {
	URL string `yaml:"url"`
}

// AIServiceConfig configures one AI provider endpoint
type AIServiceConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"-"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Index: IndexConfig{
			Backend:          "chromem",
			PersistDirectory: "./data/index",
			CollectionName:   "sop-knowledge",
		},
		Chunking: ChunkingConfig{
			Size:    1000,
			Overlap: 200,
		},
		Query: QueryConfig{
			TopK:             5,
			MaxContextLength: 1500,
			HistoryLimit:     500,
		},
		Documents: DocumentsConfig{
			Folder:            "./documents",
			IngestConcurrency: 4,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path
// (skipped when path is empty or the file does not exist), then
// environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto the configuration.
func (c *Config) applyEnv() {
	c.Server.Host = getEnv("HOST", c.Server.Host)
	c.Server.Port = getEnvInt("PORT", c.Server.Port)

	c.Index.Backend = getEnv("INDEX_BACKEND", c.Index.Backend)
	c.Index.PersistDirectory = getEnv("INDEX_PERSIST_DIR", c.Index.PersistDirectory)
	c.Index.CollectionName = getEnv("INDEX_COLLECTION", c.Index.CollectionName)
	c.Index.Compress = getEnvBool("INDEX_COMPRESS", c.Index.Compress)

	c.Chunking.Size = getEnvInt("CHUNK_SIZE", c.Chunking.Size)
	c.Chunking.Overlap = getEnvInt("CHUNK_OVERLAP", c.Chunking.Overlap)

	c.Query.TopK = getEnvInt("QUERY_TOP_K", c.Query.TopK)
	c.Query.MaxContextLength = getEnvInt("QUERY_MAX_CONTEXT", c.Query.MaxContextLength)
	c.Query.HistoryLimit = getEnvInt("QUERY_HISTORY_LIMIT", c.Query.HistoryLimit)

	c.Documents.Folder = getEnv("DOCUMENTS_FOLDER", c.Documents.Folder)
	c.Documents.IngestConcurrency = getEnvInt("INGEST_CONCURRENCY", c.Documents.IngestConcurrency)

	c.Postgres.URL = getEnv("DATABASE_URL", c.Postgres.URL)
	c.Redis.URL = getEnv("REDIS_URL", c.Redis.URL)

	c.Embedding.Provider = getEnv("EMBEDDING_PROVIDER", c.Embedding.Provider)
	c.Embedding.Model = getEnv("EMBEDDING_MODEL", c.Embedding.Model)
	c.Embedding.BaseURL = getEnv("EMBEDDING_BASE_URL", c.Embedding.BaseURL)
	c.Embedding.APIKey = getEnv("EMBEDDING_API_KEY", c.Embedding.APIKey)

	c.Generation.Provider = getEnv("GENERATION_PROVIDER", c.Generation.Provider)
	c.Generation.Model = getEnv("GENERATION_MODEL", c.Generation.Model)
	c.Generation.BaseURL = getEnv("GENERATION_BASE_URL", c.Generation.BaseURL)
	c.Generation.APIKey = getEnv("GENERATION_API_KEY", c.Generation.APIKey)
}

// Validate reports configuration errors before startup.
func (c *Config) Validate() error {
	switch c.Index.Backend {
	case "chromem", "postgres":
	default:
		return fmt.Errorf("unknown index backend %q (use chromem or postgres)", c.Index.Backend)
	}
	if c.Index.Backend == "postgres" && c.Postgres.URL == "" {
		return fmt.Errorf("postgres index backend requires DATABASE_URL")
	}
	if c.Chunking.Size <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("chunk overlap %d must be in [0, %d)", c.Chunking.Overlap, c.Chunking.Size)
	}
	if c.Query.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.Query.TopK)
	}
	return nil
}

// EmbeddingSettings converts to the domain settings type.
// Returns nil when no provider is configured.
func (c *Config) EmbeddingSettings() *domain.EmbeddingSettings {
	if c.Embedding.Provider == "" {
		return nil
	}
	return &domain.EmbeddingSettings{
		Provider: domain.AIProvider(c.Embedding.Provider),
		Model:    c.Embedding.Model,
		APIKey:   c.Embedding.APIKey,
		BaseURL:  c.Embedding.BaseURL,
	}
}

// GenerationSettings converts to the domain settings type.
// Returns nil when no provider is configured.
func (c *Config) GenerationSettings() *domain.GenerationSettings {
	if c.Generation.Provider == "" {
		return nil
	}
	return &domain.GenerationSettings{
		Provider: domain.AIProvider(c.Generation.Provider),
		Model:    c.Generation.Model,
		APIKey:   c.Generation.APIKey,
		BaseURL:  c.Generation.BaseURL,
	}
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
