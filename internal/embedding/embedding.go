// Package embedding - превращение текста в вектора для локального поиска.
package embedding

import (
	"context"
	"errors"
)

// InputKind - для чего считается вектор: для запроса или для сохраняемого документа.
// Часть моделей (cohere v3, gemini) считает их по-разному.
type InputKind string

const (
	KindQuery    InputKind = "search_query"
	KindDocument InputKind = "search_document"
)

var ErrCountMismatch = errors.New("embedding count does not match input count")

// Embedder возвращает по одному вектору на каждый текст, в том же порядке.
type Embedder interface {
	Embed(ctx context.Context, texts []string, kind InputKind) ([][]float32, error)
}

// EmbedOne - удобная обертка для одного текста
func EmbedOne(ctx context.Context, e Embedder, text string, kind InputKind) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text}, kind)
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, ErrCountMismatch
	}
	return vecs[0], nil
}
