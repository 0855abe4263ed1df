package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/ragdesk/internal/api"
	"github.com/dgallion1/ragdesk/internal/cache"
	"github.com/dgallion1/ragdesk/internal/chunker"
	"github.com/dgallion1/ragdesk/internal/config"
	"github.com/dgallion1/ragdesk/internal/embed"
	"github.com/dgallion1/ragdesk/internal/llm"
	"github.com/dgallion1/ragdesk/internal/parser"
	"github.com/dgallion1/ragdesk/internal/rag"
	"github.com/dgallion1/ragdesk/internal/vectorstore"
)

func main() {
	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	if err := cfg.ValidateServer(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	embedder := embed.NewOpenAIEmbedder(embed.Options{
		APIKey:    cfg.OpenAIAPIKey,
		BaseURL:   cfg.OpenAIBaseURL,
		Model:     cfg.EmbeddingModel,
		Dimension: cfg.EmbeddingDimension,
	})

	store, err := openStore(ctx, cfg.PostgresDSN, embedder.Dimension(), log)
	if err != nil {
		log.Error("vector store unavailable", "error", err)
		os.Exit(1)
	}
	chunks, err := store.Count(ctx)
	if err != nil {
		log.Error("vector store unavailable", "error", err)
		os.Exit(1)
	}
	log.Info("vector store ready", "chunks", chunks)

	// The cache is optional; queries run uncached when Redis is unreachable.
	var queryCache rag.Cache
	var redisCache *cache.QueryCache
	if cfg.RedisAddr != "" {
		redisCache, err = cache.Connect(ctx, cfg.RedisAddr, cfg.QueryCacheTTL)
		if err != nil {
			log.Warn("query cache disabled", "error", err)
		} else {
			queryCache = redisCache
		}
	}

	chat := llm.NewClient(llm.Options{
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.OpenAIBaseURL,
		Model:       cfg.ChatModel,
		Temperature: cfg.ChatTemperature,
	})

	ingestor := rag.NewIngestor(embedder, store, log, rag.IngestOptions{
		Chunk: chunker.Config{
			ChunkSize:    cfg.ChunkSize,
			ChunkOverlap: cfg.ChunkOverlap,
		},
		Parse:         parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
		MaxConcurrent: cfg.MaxConcurrentEmbed,
		BatchSize:     cfg.UpsertBatchSize,
	})
	querier := rag.NewQuerier(embedder, store, chat, queryCache, log, cfg.RerankTopN)

	srv := api.NewServer(ingestor, querier, chat, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		store.Close()
		if redisCache != nil {
			redisCache.Close()
		}
	}()

	log.Info("starting ragserver", "port", cfg.Port, "chat_model", chat.Model(), "embedding_model", cfg.EmbeddingModel)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// openStore uses pgvector when POSTGRES_DSN is set and memory otherwise.
func openStore(ctx context.Context, dsn string, dimension int, log *slog.Logger) (vectorstore.Store, error) {
	if dsn == "" {
		log.Warn("POSTGRES_DSN not set, using in-memory vector store")
		return vectorstore.NewMemoryStore(), nil
	}

	pool, err := vectorstore.NewPostgresPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := vectorstore.EnsureSchema(ctx, pool, dimension); err != nil {
		pool.Close()
		return nil, err
	}
	log.Info("using postgres vector store")
	return vectorstore.NewPostgresStore(pool), nil
}
