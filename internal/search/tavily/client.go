package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/tavily-go/internal/metrics"
	"github.com/kitbuilder587/tavily-go/internal/ratelimit"
	"github.com/kitbuilder587/tavily-go/internal/search"
)

const (
	DefaultBaseURL = "https://api.tavily.com"
	DefaultTimeout = 60 * time.Second
	MaxTimeout     = 120 * time.Second
)

var defaultBackoff = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	HTTPProxy  string
	HTTPSProxy string

	// MaxRetries: 0 - дефолт (3), <0 - без ретраев
	MaxRetries int
	Backoff    []time.Duration

	// CompanyTopics are searched in parallel by CompanyInfo.
	CompanyTopics []search.Topic
}

type Client struct {
	apiKey        string
	baseURL       string
	client        *http.Client
	logger        *zap.Logger
	maxRetries    int
	backoff       []time.Duration
	companyTopics []search.Topic

	limiter *ratelimit.Limiter
	metrics *metrics.Metrics
}

func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, search.ErrMissingAPIKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Timeout > MaxTimeout {
		cfg.Timeout = MaxTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = len(defaultBackoff)
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if len(cfg.Backoff) == 0 {
		cfg.Backoff = defaultBackoff
	}
	if len(cfg.CompanyTopics) == 0 {
		cfg.CompanyTopics = []search.Topic{search.TopicNews, search.TopicGeneral, search.TopicFinance}
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.HTTPProxy != "" || cfg.HTTPSProxy != "" {
		proxy, err := proxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy)
		if err != nil {
			return nil, err
		}
		transport.Proxy = proxy
	}

	return &Client{
		apiKey:        cfg.APIKey,
		baseURL:       cfg.BaseURL,
		client:        &http.Client{Timeout: cfg.Timeout, Transport: transport},
		logger:        logger,
		maxRetries:    cfg.MaxRetries,
		backoff:       cfg.Backoff,
		companyTopics: cfg.CompanyTopics,
	}, nil
}

func (c *Client) WithLimiter(l *ratelimit.Limiter) *Client {
	c.limiter = l
	return c
}

func (c *Client) WithMetrics(m *metrics.Metrics) *Client {
	c.metrics = m
	return c
}

func proxyFunc(httpProxy, httpsProxy string) (func(*http.Request) (*url.URL, error), error) {
	var httpURL, httpsURL *url.URL
	var err error
	if httpProxy != "" {
		if httpURL, err = url.Parse(httpProxy); err != nil {
			return nil, fmt.Errorf("parse http proxy: %w", err)
		}
	}
	if httpsProxy != "" {
		if httpsURL, err = url.Parse(httpsProxy); err != nil {
			return nil, fmt.Errorf("parse https proxy: %w", err)
		}
	}

	return func(r *http.Request) (*url.URL, error) {
		if r.URL.Scheme == "https" {
			return httpsURL, nil
		}
		return httpURL, nil
	}, nil
}

// post sends payload to endpoint and decodes a 200 response into out.
// 5xx and transport errors are retried, other statuses fail immediately.
func (c *Client) post(ctx context.Context, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoff[min(attempt-1, len(c.backoff)-1)]
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		if c.limiter != nil {
			waited, err := c.limiter.Wait(ctx, endpoint)
			if err != nil {
				return fmt.Errorf("rate limiter: %w", err)
			}
			if waited && c.metrics != nil {
				c.metrics.RecordRateLimitWait(endpoint)
			}
		}

		start := time.Now()
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.client.Do(httpReq)
		if err != nil {
			c.record(endpoint, "error", start)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("do request: %w", err)
			c.logger.Warn("tavily request failed, retrying",
				zap.String("endpoint", endpoint),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			c.record(endpoint, "error", start)
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusOK {
			c.record(endpoint, "success", start)
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("unmarshal response: %w", err)
			}
			return nil
		}

		apiErr := &search.APIError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Detail:     parseDetail(respBody),
			Err:        search.ErrorForStatus(resp.StatusCode),
		}

		if resp.StatusCode >= 500 {
			c.record(endpoint, "server_error", start)
			lastErr = apiErr
			c.logger.Warn("tavily server error, retrying",
				zap.String("endpoint", endpoint),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			continue
		}

		c.record(endpoint, statusLabel(apiErr.Err), start)
		c.logger.Error("tavily request rejected",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)),
		)
		return apiErr
	}

	var apiErr *search.APIError
	if errors.As(lastErr, &apiErr) {
		return apiErr
	}
	if lastErr != nil {
		return fmt.Errorf("%w: %v", search.ErrSearchFailed, lastErr)
	}
	return search.ErrSearchFailed
}

func (c *Client) record(endpoint, status string, start time.Time) {
	if c.metrics != nil {
		c.metrics.RecordRequest(endpoint, status, time.Since(start))
	}
}

func statusLabel(err error) string {
	switch {
	case errors.Is(err, search.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, search.ErrRateLimit):
		return "rate_limit"
	case errors.Is(err, search.ErrForbidden):
		return "forbidden"
	case errors.Is(err, search.ErrInvalidRequest):
		return "bad_request"
	default:
		return "error"
	}
}

// parseDetail достает detail.error (или detail строкой) из тела ошибки
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var obj struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(envelope.Detail, &obj); err == nil && obj.Error != "" {
		return obj.Error
	}

	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		return s
	}
	return ""
}

// withExtra merges extra keys over the JSON form of payload.
func withExtra(payload any, extra map[string]any) (any, error) {
	if len(extra) == 0 {
		return payload, nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	merged := make(map[string]any)
	if err := json.Unmarshal(raw, &merged); err != nil {
		return nil, fmt.Errorf("merge extra params: %w", err)
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged, nil
}

var (
	_ search.SearchClient  = (*Client)(nil)
	_ search.ContentClient = (*Client)(nil)
)
