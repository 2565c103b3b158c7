package cohere

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kitbuilder587/tavily-go/internal/domain"
	"github.com/kitbuilder587/tavily-go/internal/rerank"
)

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type rerankResponse struct {
	Results []rerankResult `json:"results"`
}

type rerankResult struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

// Rank отправляет контент документов в /rerank. Скор каждого документа
// заменяется на relevance_score, остальные поля (включая Origin) не трогаются.
func (c *Client) Rank(ctx context.Context, query string, docs []domain.Document, topN int) ([]domain.Document, error) {
	if len(docs) == 0 || topN <= 0 {
		return []domain.Document{}, nil
	}
	if len(docs) > maxRerankDocuments {
		docs = docs[:maxRerankDocuments]
	}
	if topN > len(docs) {
		topN = len(docs)
	}

	contents := make([]string, len(docs))
	for i, d := range docs {
		contents[i] = d.Content
	}

	var resp rerankResponse
	err := c.post(ctx, "/rerank", rerankRequest{
		Model:     c.rerankModel,
		Query:     query,
		Documents: contents,
		TopN:      topN,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("cohere rerank: %w", err)
	}

	out := make([]domain.Document, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.Index < 0 || r.Index >= len(docs) {
			return nil, fmt.Errorf("%w: result index %d out of range", ErrRequestFailed, r.Index)
		}
		doc := docs[r.Index]
		doc.Score = r.RelevanceScore
		out = append(out, doc)
	}

	c.logger.Debug("cohere rerank",
		zap.Int("candidates", len(docs)),
		zap.Int("returned", len(out)),
	)
	return out, nil
}

var _ rerank.Ranker = (*Client)(nil)
