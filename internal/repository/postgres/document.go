package postgres

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/kitbuilder587/tavily-go/internal/domain"
	"github.com/kitbuilder587/tavily-go/internal/repository"
)

type DocumentRepo struct {
	db *DB
}

func NewDocumentRepo(db *DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// VectorSearch - similarity = 1 - косинусное расстояние, лучшие первыми
func (r *DocumentRepo) VectorSearch(ctx context.Context, index string, embedding []float32, limit int) ([]domain.Document, error) {
	if err := ValidIndexName(index); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []domain.Document{}, nil
	}

	query := fmt.Sprintf(`
        SELECT content, metadata, embedding, 1 - (embedding <=> $1) AS similarity
        FROM %s
        ORDER BY embedding <=> $1
        LIMIT $2
    `, pgx.Identifier{index}.Sanitize())

	rows, err := r.db.Pool.Query(ctx, query, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("vector search %s: %w", index, err)
	}
	defer rows.Close()

	docs := []domain.Document{}
	for rows.Next() {
		var (
			doc      domain.Document
			metaJSON []byte
			vec      pgvector.Vector
		)
		if err := rows.Scan(&doc.Content, &metaJSON, &vec, &doc.Score); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}

		var meta map[string]any
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &meta); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		doc.Title, _ = meta[domain.FieldTitle].(string)
		doc.URL, _ = meta[domain.FieldURL].(string)
		doc.Embedding = vec.Slice()
		doc.Origin = domain.OriginLocal

		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return docs, nil
}

// Insert пишет одну запись. Все поля кроме content и embedding уходят в metadata.
// Повтор того же контента дает ErrDuplicateDocument.
func (r *DocumentRepo) Insert(ctx context.Context, index string, rec domain.Record) error {
	if err := ValidIndexName(index); err != nil {
		return err
	}

	content := rec.Content()
	if content == "" {
		return domain.ErrEmptyContent
	}
	embedding := rec.Embedding()
	if len(embedding) == 0 {
		return fmt.Errorf("%w: record has no embedding", domain.ErrEmbeddingDimension)
	}

	metaJSON, err := json.Marshal(rec.Metadata())
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := fmt.Sprintf(`
        INSERT INTO %s (id, content, content_hash, metadata, embedding)
        VALUES ($1, $2, $3, $4, $5)
    `, pgx.Identifier{index}.Sanitize())

	_, err = r.db.Pool.Exec(ctx, query,
		uuid.New(),
		content,
		contentHash(content),
		metaJSON,
		pgvector.NewVector(embedding),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return domain.ErrDuplicateDocument
			case "22000":
				// pgvector: expected N dimensions, not M
				return fmt.Errorf("%w: %s", domain.ErrEmbeddingDimension, pgErr.Message)
			}
		}
		return fmt.Errorf("insert document: %w", err)
	}

	return nil
}

func (r *DocumentRepo) ValidateIndex(ctx context.Context, index string) error {
	return r.db.ValidateIndex(ctx, index)
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

var (
	_ repository.DocumentRepository = (*DocumentRepo)(nil)
	_ repository.IndexValidator     = (*DocumentRepo)(nil)
)
