package repository

import (
	"context"

	"github.com/kitbuilder587/tavily-go/internal/domain"
)

// DocumentRepository - локальное векторное хранилище гибридного поиска.
// index - имя коллекции (таблицы) с документами.
type DocumentRepository interface {
	// VectorSearch returns up to limit documents closest to embedding,
	// best first, tagged OriginLocal.
	VectorSearch(ctx context.Context, index string, embedding []float32, limit int) ([]domain.Document, error)
	Insert(ctx context.Context, index string, rec domain.Record) error
}

type IndexValidator interface {
	ValidateIndex(ctx context.Context, index string) error
}
