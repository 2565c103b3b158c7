// Package rerank - переупорядочивание кандидатов гибридного поиска.
package rerank

import (
	"context"
	"sort"

	"github.com/kitbuilder587/tavily-go/internal/domain"
)

// Ranker returns at most topN documents ordered by relevance to query.
// Implementations may rescore documents but must keep their Origin.
type Ranker interface {
	Rank(ctx context.Context, query string, docs []domain.Document, topN int) ([]domain.Document, error)
}

// ScoreRanker сортирует по уже имеющимся скорам, без внешних вызовов.
// При равных скорах сохраняется порядок входа.
type ScoreRanker struct{}

func (ScoreRanker) Rank(_ context.Context, _ string, docs []domain.Document, topN int) ([]domain.Document, error) {
	out := append([]domain.Document(nil), docs...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if topN >= 0 && len(out) > topN {
		out = out[:topN]
	}
	return out, nil
}

var _ Ranker = ScoreRanker{}
