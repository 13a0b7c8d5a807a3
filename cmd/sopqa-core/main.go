package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/opsdocs-labs/sopqa-core/internal/adapters/driven/ai"
	"github.com/opsdocs-labs/sopqa-core/internal/adapters/driven/chromem"
	"github.com/opsdocs-labs/sopqa-core/internal/adapters/driven/extract"
	"github.com/opsdocs-labs/sopqa-core/internal/adapters/driven/postgres"
	redisadapter "github.com/opsdocs-labs/sopqa-core/internal/adapters/driven/redis"
	httpserver "github.com/opsdocs-labs/sopqa-core/internal/adapters/driving/http"
	"github.com/opsdocs-labs/sopqa-core/internal/config"
	"github.com/opsdocs-labs/sopqa-core/internal/core/domain"
	"github.com/opsdocs-labs/sopqa-core/internal/core/ports/driven"
	"github.com/opsdocs-labs/sopqa-core/internal/core/services"
	"github.com/opsdocs-labs/sopqa-core/internal/extractors"
	"github.com/opsdocs-labs/sopqa-core/internal/runtime"
)

var version = "dev"

func main() {
	// .env is optional, real environment always wins
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("sopqa-core %s starting (index backend: %s)", version, cfg.Index.Backend)

	ctx := context.Background()

	// ===== Runtime configuration =====
	runtimeConfig := domain.NewRuntimeConfig(cfg.Index.Backend)
	runtimeServices := runtime.NewServices(runtimeConfig)

	// ===== AI services (optional, pipeline degrades without them) =====
	aiFactory := ai.NewFactory()

	embeddingSvc, err := aiFactory.CreateEmbeddingService(cfg.EmbeddingSettings())
	if err != nil {
		log.Fatalf("Invalid embedding configuration: %v", err)
	}
	if embeddingSvc != nil {
		if err := runtimeServices.ValidateAndSetEmbedding(ctx, embeddingSvc); err != nil {
			log.Printf("Warning: embedding service unreachable: %v (semantic retrieval disabled)", err)
		} else {
			log.Printf("Embedding service ready (%s/%s)", cfg.Embedding.Provider, cfg.Embedding.Model)
		}
	} else {
		log.Println("No embedding service configured")
	}

	generationSvc, err := aiFactory.CreateGenerationService(cfg.GenerationSettings())
	if err != nil {
		log.Fatalf("Invalid generation configuration: %v", err)
	}
	if generationSvc != nil {
		if err := runtimeServices.ValidateAndSetGeneration(ctx, generationSvc); err != nil {
			log.Printf("Warning: generation service unreachable: %v (extractive answers only)", err)
		} else {
			log.Printf("Generation service ready (%s/%s)", cfg.Generation.Provider, cfg.Generation.Model)
		}
	} else {
		log.Println("No generation service configured (extractive answers only)")
	}
	defer runtimeServices.Close()

	// ===== Vector index =====
	var index driven.VectorIndex
	var dbPinger httpserver.Pinger

	switch cfg.Index.Backend {
	case "postgres":
		log.Println("Connecting to PostgreSQL...")
		db, err := postgres.Connect(ctx, postgres.DefaultConfig(cfg.Postgres.URL))
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.InitSchema(ctx); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
		log.Println("PostgreSQL connected and schema initialized")

		index = postgres.NewIndex(db, runtimeServices, slog.Default())
		dbPinger = db

	case "chromem":
		idx, err := chromem.NewIndex(chromem.Config{
			PersistDirectory: cfg.Index.PersistDirectory,
			CollectionName:   cfg.Index.CollectionName,
			Compress:         cfg.Index.Compress,
		}, runtimeServices, slog.Default())
		if err != nil {
			log.Fatalf("Failed to open vector index: %v", err)
		}
		index = idx
		log.Printf("Chromem index open (%d documents)", idx.Info(ctx).DocumentCount)

	default:
		log.Fatalf("Unknown index backend: %s (use: chromem or postgres)", cfg.Index.Backend)
	}

	// ===== Redis (optional: query history and maintenance lock) =====
	var history driven.HistoryStore
	var lock driven.DistributedLock
	var redisPing httpserver.Pinger
	if cfg.Redis.URL != "" {
		log.Println("Connecting to Redis...")
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient := redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()

		history = redisadapter.NewHistoryStore(redisClient, cfg.Query.HistoryLimit)
		lock = redisadapter.NewLock(redisClient)
		redisPing = redisPinger{client: redisClient}
		log.Println("Redis connected (query history and maintenance lock enabled)")
	}

	// ===== Text extractors =====
	registry := extractors.NewRegistry()
	registry.Register(extract.NewTextFile())
	registry.Register(extract.NewMarkdown())
	registry.Register(extract.NewPDF())
	registry.Register(extract.NewDocx())

	// ===== Services (core business logic) =====
	chunker, err := services.NewChunker(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		log.Fatalf("Invalid chunking configuration: %v", err)
	}

	classifier := services.NewIntentClassifier()
	synthesizer := services.NewSynthesizer(runtimeServices, cfg.Query.MaxContextLength, slog.Default())

	queryService := services.NewQueryService(index, classifier, synthesizer, history, slog.Default())
	ingestService := services.NewIngestService(chunker, registry, index, cfg.Documents.IngestConcurrency, slog.Default())

	log.Printf("Runtime config: index_backend=%s, embedding=%t, generation=%t",
		runtimeConfig.IndexBackend,
		runtimeConfig.EmbeddingAvailable(),
		runtimeConfig.GenerationAvailable())

	// ===== HTTP server =====
	serverCfg := httpserver.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		Version:         version,
		DocumentsFolder: cfg.Documents.Folder,
		AllowedOrigins:  []string{"*"},
	}

	server := httpserver.NewServer(serverCfg, queryService, ingestService, history, lock, dbPinger, redisPing)

	log.Printf("API server starting on %s:%d", cfg.Server.Host, cfg.Server.Port)
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// redisPinger adapts the go-redis client to the server's health check
type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
