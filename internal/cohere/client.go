// Package cohere - клиент Cohere API: эмбеддинги и rerank.
package cohere

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL     = "https://api.cohere.ai/v1"
	DefaultEmbedModel  = "embed-english-v3.0"
	DefaultRerankModel = "rerank-english-v3.0"
	DefaultTimeout     = 30 * time.Second

	// больше документов rerank за раз не принимает
	maxRerankDocuments = 1000
)

var (
	ErrMissingAPIKey = errors.New("cohere API key is required")
	ErrAuthFailed    = errors.New("authentication failed")
	ErrRateLimit     = errors.New("rate limit exceeded")
	ErrRequestFailed = errors.New("request failed")
	ErrEmptyResponse = errors.New("empty response")
)

type Config struct {
	APIKey      string
	BaseURL     string
	EmbedModel  string
	RerankModel string
	Timeout     time.Duration
}

type Client struct {
	apiKey      string
	baseURL     string
	embedModel  string
	rerankModel string
	client      *http.Client
	logger      *zap.Logger
}

func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = DefaultEmbedModel
	}
	if cfg.RerankModel == "" {
		cfg.RerankModel = DefaultRerankModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		apiKey:      cfg.APIKey,
		baseURL:     cfg.BaseURL,
		embedModel:  cfg.EmbedModel,
		rerankModel: cfg.RerankModel,
		client:      &http.Client{Timeout: cfg.Timeout},
		logger:      logger,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	respBody, statusCode, err := doRequest(c.client, httpReq)
	if err != nil {
		return err
	}

	if statusCode != http.StatusOK {
		return handleHTTPError(statusCode, respBody, c.logger, path)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func handleHTTPError(statusCode int, body []byte, logger *zap.Logger, path string) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return ErrAuthFailed
	case http.StatusTooManyRequests:
		return ErrRateLimit
	default:
		logger.Error("cohere request failed",
			zap.String("path", path),
			zap.Int("status", statusCode),
			zap.String("body", string(body)),
		)
		return fmt.Errorf("%w: status %d", ErrRequestFailed, statusCode)
	}
}

func doRequest(client *http.Client, req *http.Request) ([]byte, int, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	return body, resp.StatusCode, nil
}
