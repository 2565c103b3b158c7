package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kitbuilder587/tavily-go/internal/domain"
)

// hnsw не строится для векторов больше 2000 измерений
const maxIndexedDimension = 2000

var indexNameRe = regexp.MustCompile(`^[a-z_][a-zA-Z0-9_]{0,62}$`)

type DB struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

func (db *DB) Close() {
	db.Pool.Close()
}

// ValidIndexName - имя индекса подставляется в SQL как идентификатор
func ValidIndexName(name string) error {
	if !indexNameRe.MatchString(name) {
		return fmt.Errorf("%w: %q must start with a lowercase letter or underscore and contain only letters, digits and underscores (max 63)", domain.ErrInvalidIndex, name)
	}
	return nil
}

// EnsureSchema создает расширение vector, таблицу index и hnsw индекс по косинусу.
// Повторный вызов безопасен.
func (db *DB) EnsureSchema(ctx context.Context, index string, dimension int) error {
	if err := ValidIndexName(index); err != nil {
		return err
	}
	if dimension <= 0 || dimension > maxIndexedDimension {
		return fmt.Errorf("%w: %d not in 1..%d", domain.ErrEmbeddingDimension, dimension, maxIndexedDimension)
	}

	table := pgx.Identifier{index}.Sanitize()
	idx := pgx.Identifier{index + "_embedding_idx"}.Sanitize()

	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY,
				content TEXT NOT NULL,
				content_hash TEXT NOT NULL UNIQUE,
				metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
				embedding vector(%d) NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`, table, dimension),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)`, idx, table),
	}

	for _, stmt := range stmts {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema %s: %w", index, err)
		}
	}
	return nil
}

// ValidateIndex проверяет что таблица есть, колонка embedding имеет тип vector
// и по ней построен индекс с косинусной метрикой.
func (db *DB) ValidateIndex(ctx context.Context, index string) error {
	if err := ValidIndexName(index); err != nil {
		return err
	}

	var exists bool
	if err := db.Pool.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, index).Scan(&exists); err != nil {
		return fmt.Errorf("validate index: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", domain.ErrIndexNotFound, index)
	}

	var colType string
	err := db.Pool.QueryRow(ctx, `
        SELECT format_type(a.atttypid, a.atttypmod)
        FROM pg_attribute a
        WHERE a.attrelid = to_regclass($1)
          AND a.attname = 'embedding'
          AND NOT a.attisdropped
    `, index).Scan(&colType)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s has no embedding column", domain.ErrInvalidIndex, index)
	}
	if err != nil {
		return fmt.Errorf("validate index: %w", err)
	}
	if !strings.HasPrefix(colType, "vector") {
		return fmt.Errorf("%w: %s.embedding is %s, not vector", domain.ErrInvalidIndex, index, colType)
	}

	var cosine bool
	err = db.Pool.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1
            FROM pg_index i
            JOIN pg_opclass o ON o.oid = ANY(i.indclass::oid[])
            WHERE i.indrelid = to_regclass($1)
              AND o.opcname = 'vector_cosine_ops'
        )
    `, index).Scan(&cosine)
	if err != nil {
		return fmt.Errorf("validate index: %w", err)
	}
	if !cosine {
		return fmt.Errorf("%w: %s has no cosine vector index", domain.ErrInvalidIndex, index)
	}

	return nil
}
