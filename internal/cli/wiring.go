package cli

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kitbuilder587/tavily-go/internal/cache"
	"github.com/kitbuilder587/tavily-go/internal/cache/lru"
	"github.com/kitbuilder587/tavily-go/internal/cache/memory"
	"github.com/kitbuilder587/tavily-go/internal/cohere"
	"github.com/kitbuilder587/tavily-go/internal/config"
	"github.com/kitbuilder587/tavily-go/internal/embedding"
	"github.com/kitbuilder587/tavily-go/internal/metrics"
	"github.com/kitbuilder587/tavily-go/internal/ratelimit"
	"github.com/kitbuilder587/tavily-go/internal/repository/postgres"
	"github.com/kitbuilder587/tavily-go/internal/rerank"
	"github.com/kitbuilder587/tavily-go/internal/search"
	"github.com/kitbuilder587/tavily-go/internal/search/cached"
	"github.com/kitbuilder587/tavily-go/internal/search/tavily"
	"github.com/kitbuilder587/tavily-go/internal/service"
)

// components - собранные зависимости одной команды
type components struct {
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	tavily   *tavily.Client
	search   search.SearchClient

	db     *postgres.DB
	hybrid service.HybridService

	closers []func()
}

func (c *components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func (a *app) buildSearch(ctx context.Context) (*components, error) {
	cfg := a.cfg

	c := &components{registry: prometheus.NewRegistry()}
	c.metrics = metrics.New(c.registry)

	client, err := tavily.New(tavily.Config{
		APIKey:     cfg.Tavily.APIKey,
		BaseURL:    cfg.Tavily.BaseURL,
		Timeout:    cfg.Tavily.Timeout,
		HTTPProxy:  cfg.Tavily.HTTPProxy,
		HTTPSProxy: cfg.Tavily.HTTPSProxy,
		MaxRetries: retries(cfg.Tavily.MaxRetries),
	}, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create tavily client: %w", err)
	}
	limiter := ratelimit.New(ratelimit.Config{RequestsPerMinute: cfg.RateLimit.RequestsPerMinute})
	c.tavily = client.WithLimiter(limiter).WithMetrics(c.metrics)
	c.search = c.tavily

	store, stop, err := newCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	if stop != nil {
		c.closers = append(c.closers, stop)
	}
	if store != nil {
		c.search = cached.New(c.tavily, store, cfg.Cache.TTL, a.logger).WithMetrics(c.metrics)
	}

	return c, nil
}

// buildHybrid добавляет к поиску базу, эмбеддер и ранкер
func (a *app) buildHybrid(ctx context.Context) (*components, error) {
	cfg := a.cfg
	if err := cfg.RequireHybrid(); err != nil {
		return nil, err
	}

	c, err := a.buildSearch(ctx)
	if err != nil {
		return nil, err
	}

	db, err := postgres.New(ctx, cfg.Database.URL)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	c.db = db
	c.closers = append(c.closers, db.Close)

	var co *cohere.Client
	if cfg.Embedding.Provider == config.ProviderCohere || cfg.Rerank.Provider == config.ProviderCohere {
		co, err = cohere.New(cohere.Config{
			APIKey:      cfg.Cohere.APIKey,
			BaseURL:     cfg.Cohere.BaseURL,
			EmbedModel:  cfg.Cohere.EmbedModel,
			RerankModel: cfg.Cohere.RerankModel,
		}, a.logger)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to create cohere client: %w", err)
		}
	}

	var embedder embedding.Embedder
	switch cfg.Embedding.Provider {
	case config.ProviderGoogle:
		g, err := embedding.NewGoogleEmbedder(ctx, cfg.Google.APIKey, cfg.Google.EmbedModel, cfg.Embedding.Dimension)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to create google embedder: %w", err)
		}
		embedder = g
	default:
		embedder = co
	}
	embedder, err = embedding.NewCachedEmbedder(embedder, embedding.DefaultCacheSize)
	if err != nil {
		c.Close()
		return nil, err
	}

	var ranker rerank.Ranker = rerank.ScoreRanker{}
	if cfg.Rerank.Provider == config.ProviderCohere {
		ranker = co
	}

	hybrid, err := service.NewHybridService(service.HybridServiceDeps{
		Search:   c.search,
		Store:    postgres.NewDocumentRepo(db),
		Embedder: embedder,
		Ranker:   ranker,
		Logger:   a.logger,
		Metrics:  c.metrics,
		Config:   service.HybridConfig{Index: cfg.Hybrid.Index},
	})
	if err != nil {
		c.Close()
		return nil, err
	}
	c.hybrid = hybrid

	return c, nil
}

// newCache возвращает nil, если кеш выключен
func newCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, func(), error) {
	switch cfg.Type {
	case config.CacheNone:
		return nil, nil, nil
	case config.CacheLRU:
		c, err := lru.New(cfg.Size)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create lru cache: %w", err)
		}
		return c, nil, nil
	default:
		c := memory.NewWithContext(ctx, memory.Options{})
		return c, c.Stop, nil
	}
}

// retries: в конфиге 0 значит "без ретраев", у клиента 0 - дефолт
func retries(n int) int {
	if n <= 0 {
		return -1
	}
	return n
}
