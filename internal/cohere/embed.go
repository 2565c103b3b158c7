package cohere

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kitbuilder587/tavily-go/internal/embedding"
)

type embedRequest struct {
	Model     string   `json:"model"`
	Texts     []string `json:"texts"`
	InputType string   `json:"input_type"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (c *Client) Embed(ctx context.Context, texts []string, kind embedding.InputKind) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	var resp embedResponse
	err := c.post(ctx, "/embed", embedRequest{
		Model:     c.embedModel,
		Texts:     texts,
		InputType: string(kind),
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("cohere embed: %w", err)
	}

	if len(resp.Embeddings) == 0 {
		return nil, ErrEmptyResponse
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d for %d texts", embedding.ErrCountMismatch, len(resp.Embeddings), len(texts))
	}

	c.logger.Debug("cohere embed",
		zap.Int("texts", len(texts)),
		zap.String("input_type", string(kind)),
	)
	return resp.Embeddings, nil
}

var _ embedding.Embedder = (*Client)(nil)
