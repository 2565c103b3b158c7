package embedding

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

const DefaultGoogleModel = "text-embedding-004"

var ErrEmptyEmbedding = errors.New("empty embedding returned")

// GoogleEmbedder - эмбеддинги через Gemini API
type GoogleEmbedder struct {
	client    *genai.Client
	model     string
	dimension int32
}

// NewGoogleEmbedder создает клиента Gemini. dimension=0 - размерность модели по умолчанию.
func NewGoogleEmbedder(ctx context.Context, apiKey, model string, dimension int) (*GoogleEmbedder, error) {
	if model == "" {
		model = DefaultGoogleModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GoogleEmbedder{
		client:    client,
		model:     model,
		dimension: int32(dimension),
	}, nil
}

func (e *GoogleEmbedder) Embed(ctx context.Context, texts []string, kind InputKind) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = &genai.Content{Parts: []*genai.Part{{Text: text}}}
	}

	res, err := e.client.Models.EmbedContent(ctx, e.model, contents, e.embedConfig(kind))
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}

	if res == nil || len(res.Embeddings) == 0 {
		return nil, ErrEmptyEmbedding
	}
	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d for %d texts", ErrCountMismatch, len(res.Embeddings), len(texts))
	}

	out := make([][]float32, len(res.Embeddings))
	for i, emb := range res.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, ErrEmptyEmbedding
		}
		out[i] = emb.Values
	}
	return out, nil
}

func (e *GoogleEmbedder) embedConfig(kind InputKind) *genai.EmbedContentConfig {
	cfg := &genai.EmbedContentConfig{TaskType: googleTaskType(kind)}
	if e.dimension > 0 {
		dim := e.dimension
		cfg.OutputDimensionality = &dim
	}
	return cfg
}

func googleTaskType(kind InputKind) string {
	if kind == KindDocument {
		return "RETRIEVAL_DOCUMENT"
	}
	return "RETRIEVAL_QUERY"
}

var _ Embedder = (*GoogleEmbedder)(nil)
