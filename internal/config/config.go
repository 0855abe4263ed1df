package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	DeskPort string
	LogLevel string

	// Desk sessions
	SessionTTL time.Duration

	// OpenAI
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	EmbeddingModel     string
	EmbeddingDimension int
	ChatModel          string
	ChatTemperature    float32

	// Storage
	PostgresDSN   string
	RedisAddr     string
	QueryCacheTTL time.Duration

	// Upload limits
	MaxUploadBytes int64

	// Chunking
	ChunkSize    int
	ChunkOverlap int

	// Ingest workers
	MaxConcurrentEmbed int
	UpsertBatchSize    int

	// Query
	RerankTopN int

	// PDF
	PDFFallbackPdftotext bool

	CORSOrigins []string
}

// Load reads .env (when present) and the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not read .env file", "error", err)
	}

	cfg := Config{
		Port:     envOr("PORT", "8000"),
		DeskPort: envOr("DESK_PORT", "5173"),
		LogLevel: envOr("LOG_LEVEL", "info"),

		SessionTTL: envDuration("SESSION_TTL", 1*time.Hour),

		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:      os.Getenv("OPENAI_BASE_URL"),
		EmbeddingModel:     envOr("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDimension: envInt("EMBEDDING_DIMENSION", 1536),
		ChatModel:          envOr("CHAT_MODEL", "gpt-4o-mini"),
		ChatTemperature:    envFloat32("CHAT_TEMPERATURE", 0.1),

		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		RedisAddr:     envOrEmpty("REDIS_ADDR", "localhost:6379"),
		QueryCacheTTL: envDuration("QUERY_CACHE_TTL", 24*time.Hour),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		ChunkSize:    envInt("CHUNK_SIZE", 2500),
		ChunkOverlap: envInt("CHUNK_OVERLAP", 800),

		MaxConcurrentEmbed: envInt("MAX_CONCURRENT_EMBED", 4),
		UpsertBatchSize:    envInt("UPSERT_BATCH_SIZE", 100),

		RerankTopN: envInt("RERANK_TOP_N", 3),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		CORSOrigins: envList("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
	}

	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 1 * time.Hour
	}
	if cfg.EmbeddingDimension <= 0 {
		cfg.EmbeddingDimension = 1536
	}
	if cfg.QueryCacheTTL <= 0 {
		cfg.QueryCacheTTL = 24 * time.Hour
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 2500
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = cfg.ChunkSize / 3
	}
	if cfg.MaxConcurrentEmbed <= 0 {
		cfg.MaxConcurrentEmbed = 4
	}
	if cfg.UpsertBatchSize <= 0 {
		cfg.UpsertBatchSize = 100
	}
	if cfg.RerankTopN <= 0 {
		cfg.RerankTopN = 3
	}

	return cfg
}

// ValidateServer checks the settings the RAG backend cannot start without.
func (c Config) ValidateServer() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	return nil
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
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

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envOrEmpty is like envOr but lets an explicitly empty variable switch a
// feature off.
func envOrEmpty(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat32(key string, fallback float32) float32 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			return float32(f)
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
