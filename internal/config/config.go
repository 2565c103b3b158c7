package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingAPIKey    = errors.New("TAVILY_API_KEY is required")
	ErrMissingDB        = errors.New("DATABASE_URL is required")
	ErrMissingCohereKey = errors.New("COHERE_API_KEY is required for the cohere provider")
	ErrMissingGoogleKey = errors.New("GOOGLE_API_KEY is required for the google provider")
	ErrInvalidProvider  = errors.New("invalid provider")
	ErrInvalidCacheType = errors.New("invalid cache type")
)

const (
	ProviderCohere = "cohere"
	ProviderGoogle = "google"
	ProviderScore  = "score"

	CacheMemory = "memory"
	CacheLRU    = "lru"
	CacheNone   = "none"
)

type Config struct {
	Tavily    TavilyConfig
	Database  DatabaseConfig
	Hybrid    HybridConfig
	Embedding EmbeddingConfig
	Rerank    RerankConfig
	Cohere    CohereConfig
	Google    GoogleConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	HTTP      HTTPConfig
}

type TavilyConfig struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	HTTPProxy  string
	HTTPSProxy string
	MaxRetries int
}

type DatabaseConfig struct {
	URL string
}

type HybridConfig struct {
	Index      string
	MaxResults int
}

type EmbeddingConfig struct {
	Provider  string
	Dimension int
}

type RerankConfig struct {
	Provider string
}

type CohereConfig struct {
	APIKey      string
	BaseURL     string
	EmbedModel  string
	RerankModel string
}

type GoogleConfig struct {
	APIKey     string
	EmbedModel string
}

type CacheConfig struct {
	Type string
	TTL  time.Duration
	Size int
}

type RateLimitConfig struct {
	RequestsPerMinute int
}

type LogConfig struct {
	Level  string
	Format string
}

type HTTPConfig struct {
	Addr        string
	CORSOrigins []string

	// RequestsPerMinute - лимит на клиента API, 0 - без лимита
	RequestsPerMinute int
}

func Load() (*Config, error) {
	cfg := &Config{
		Tavily: TavilyConfig{
			APIKey:     os.Getenv("TAVILY_API_KEY"),
			BaseURL:    getEnvOrDefault("TAVILY_BASE_URL", "https://api.tavily.com"),
			Timeout:    time.Duration(getEnvIntOrDefault("TAVILY_TIMEOUT_SEC", 60)) * time.Second,
			HTTPProxy:  os.Getenv("TAVILY_HTTP_PROXY"),
			HTTPSProxy: os.Getenv("TAVILY_HTTPS_PROXY"),
			MaxRetries: getEnvIntOrDefault("TAVILY_MAX_RETRIES", 3),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Hybrid: HybridConfig{
			Index:      getEnvOrDefault("HYBRID_INDEX", "documents"),
			MaxResults: getEnvIntOrDefault("HYBRID_MAX_RESULTS", 10),
		},
		Embedding: EmbeddingConfig{
			Provider:  strings.ToLower(getEnvOrDefault("EMBEDDING_PROVIDER", ProviderCohere)),
			Dimension: getEnvIntOrDefault("EMBEDDING_DIMENSION", 1024),
		},
		Rerank: RerankConfig{
			Provider: strings.ToLower(getEnvOrDefault("RERANK_PROVIDER", ProviderCohere)),
		},
		Cohere: CohereConfig{
			APIKey:      os.Getenv("COHERE_API_KEY"),
			BaseURL:     getEnvOrDefault("COHERE_BASE_URL", "https://api.cohere.ai/v1"),
			EmbedModel:  getEnvOrDefault("COHERE_EMBED_MODEL", "embed-english-v3.0"),
			RerankModel: getEnvOrDefault("COHERE_RERANK_MODEL", "rerank-english-v3.0"),
		},
		Google: GoogleConfig{
			APIKey:     os.Getenv("GOOGLE_API_KEY"),
			EmbedModel: getEnvOrDefault("GOOGLE_EMBED_MODEL", "text-embedding-004"),
		},
		Cache: CacheConfig{
			Type: strings.ToLower(getEnvOrDefault("CACHE_TYPE", CacheMemory)),
			TTL:  time.Duration(getEnvIntOrDefault("CACHE_TTL_SEC", 3600)) * time.Second,
			Size: getEnvIntOrDefault("CACHE_SIZE", 1024),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvIntOrDefault("RATE_LIMIT_PER_MINUTE", 100),
		},
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
		HTTP: HTTPConfig{
			Addr:        getEnvOrDefault("HTTP_ADDR", ":8080"),
			CORSOrigins: getEnvListOrDefault("CORS_ORIGINS", nil),

			RequestsPerMinute: getEnvIntOrDefault("HTTP_RATE_LIMIT_PER_MINUTE", 0),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Tavily.APIKey == "" {
		return ErrMissingAPIKey
	}
	switch c.Embedding.Provider {
	case ProviderCohere, ProviderGoogle:
	default:
		return fmt.Errorf("%w: embedding %q", ErrInvalidProvider, c.Embedding.Provider)
	}
	switch c.Rerank.Provider {
	case ProviderCohere, ProviderScore:
	default:
		return fmt.Errorf("%w: rerank %q", ErrInvalidProvider, c.Rerank.Provider)
	}
	switch c.Cache.Type {
	case CacheMemory, CacheLRU, CacheNone:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCacheType, c.Cache.Type)
	}
	return nil
}

// RequireHybrid - гибридному поиску нужны база и ключи выбранных провайдеров
func (c *Config) RequireHybrid() error {
	if c.Database.URL == "" {
		return ErrMissingDB
	}
	needCohere := c.Embedding.Provider == ProviderCohere || c.Rerank.Provider == ProviderCohere
	if needCohere && c.Cohere.APIKey == "" {
		return ErrMissingCohereKey
	}
	if c.Embedding.Provider == ProviderGoogle && c.Google.APIKey == "" {
		return ErrMissingGoogleKey
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvListOrDefault - список через запятую, пустые элементы выкидываются
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
