// Package cached оборачивает SearchClient кешем ответов.
package cached

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/tavily-go/internal/cache"
	"github.com/kitbuilder587/tavily-go/internal/metrics"
	"github.com/kitbuilder587/tavily-go/internal/search"
)

const DefaultTTL = time.Hour

type Client struct {
	inner   search.SearchClient
	cache   cache.Cache
	ttl     time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func New(inner search.SearchClient, c cache.Cache, ttl time.Duration, logger *zap.Logger) *Client {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{inner: inner, cache: c, ttl: ttl, logger: logger}
}

func (c *Client) WithMetrics(m *metrics.Metrics) *Client {
	c.metrics = m
	return c
}

// Search отдает ответ из кеша, если такой же запрос уже был.
// Ошибки не кешируются.
func (c *Client) Search(ctx context.Context, req search.SearchRequest) (*search.SearchResponse, error) {
	key, err := cacheKey(req)
	if err != nil {
		c.logger.Warn("search cache key failed, bypassing cache", zap.Error(err))
		return c.inner.Search(ctx, req)
	}

	if v, ok := c.cache.Get(key); ok {
		if resp, ok := v.(*search.SearchResponse); ok {
			if c.metrics != nil {
				c.metrics.RecordCacheHit()
			}
			c.logger.Debug("search cache hit", zap.String("key", key[:12]))
			return cloneResponse(resp), nil
		}
	}

	if c.metrics != nil {
		c.metrics.RecordCacheMiss()
	}

	resp, err := c.inner.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, cloneResponse(resp), c.ttl)
	return resp, nil
}

// cacheKey - sha256 от нормализованного запроса
func cacheKey(req search.SearchRequest) (string, error) {
	req.Query = strings.ToLower(strings.TrimSpace(req.Query))

	raw, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// вызывающий может менять слайс результатов, поэтому копируем
func cloneResponse(resp *search.SearchResponse) *search.SearchResponse {
	out := *resp
	out.Results = append([]search.SearchResult(nil), resp.Results...)
	out.Images = append([]string(nil), resp.Images...)
	out.FollowUpQuestions = append([]string(nil), resp.FollowUpQuestions...)
	return &out
}

var _ search.SearchClient = (*Client)(nil)
