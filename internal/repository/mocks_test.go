package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/kitbuilder587/tavily-go/internal/domain"
)

func TestMockDocumentRepository_InsertAndSearch(t *testing.T) {
	repo := NewMockDocumentRepository()
	ctx := context.Background()

	records := []domain.Record{
		{domain.FieldContent: "messi", domain.FieldEmbedding: []float32{1, 0}},
		{domain.FieldContent: "ronaldo", domain.FieldEmbedding: []float32{0, 1}},
		{domain.FieldContent: "pele", domain.FieldEmbedding: []float32{0.7, 0.7}},
	}
	for _, rec := range records {
		if err := repo.Insert(ctx, "docs", rec); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	docs, err := repo.VectorSearch(ctx, "docs", []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("VectorSearch() error = %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("VectorSearch() got %d docs, want 2", len(docs))
	}
	if docs[0].Content != "messi" || docs[1].Content != "pele" {
		t.Errorf("VectorSearch() order = %s, %s", docs[0].Content, docs[1].Content)
	}
	for _, d := range docs {
		if d.Origin != domain.OriginLocal {
			t.Errorf("Origin = %s, want local", d.Origin)
		}
	}

	other, _ := repo.VectorSearch(ctx, "other", []float32{1, 0}, 5)
	if len(other) != 0 {
		t.Errorf("other index should be empty, got %d", len(other))
	}
}

func TestMockDocumentRepository_Insert(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*MockDocumentRepository)
		rec     domain.Record
		wantErr error
	}{
		{
			name:    "empty content",
			setup:   func(m *MockDocumentRepository) {},
			rec:     domain.Record{domain.FieldContent: ""},
			wantErr: domain.ErrEmptyContent,
		},
		{
			name: "duplicate",
			setup: func(m *MockDocumentRepository) {
				m.Insert(context.Background(), "docs", domain.Record{domain.FieldContent: "x"})
			},
			rec:     domain.Record{domain.FieldContent: "x"},
			wantErr: domain.ErrDuplicateDocument,
		},
		{
			name: "injected error",
			setup: func(m *MockDocumentRepository) {
				m.InsertErrors["boom"] = domain.ErrStore
			},
			rec:     domain.Record{domain.FieldContent: "boom"},
			wantErr: domain.ErrStore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMockDocumentRepository()
			tt.setup(repo)

			err := repo.Insert(context.Background(), "docs", tt.rec)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Insert() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMockDocumentRepository_PresetResults(t *testing.T) {
	repo := NewMockDocumentRepository().WithSearchResults([]domain.Document{
		{Content: "a", Score: 0.9, Origin: domain.OriginLocal},
		{Content: "b", Score: 0.7, Origin: domain.OriginLocal},
	})

	docs, err := repo.VectorSearch(context.Background(), "docs", nil, 1)
	if err != nil {
		t.Fatalf("VectorSearch() error = %v", err)
	}
	if len(docs) != 1 || docs[0].Content != "a" {
		t.Errorf("VectorSearch() = %+v", docs)
	}
	if repo.LastSearch.Limit != 1 || repo.Searches() != 1 {
		t.Errorf("search call not recorded: %+v", repo.LastSearch)
	}
}

func TestMockDocumentRepository_ValidateIndex(t *testing.T) {
	repo := NewMockDocumentRepository()
	if err := repo.ValidateIndex(context.Background(), "anything"); err != nil {
		t.Errorf("ValidateIndex() without configured indexes = %v", err)
	}

	repo.WithIndex("docs")
	if err := repo.ValidateIndex(context.Background(), "docs"); err != nil {
		t.Errorf("ValidateIndex(docs) = %v", err)
	}
	if err := repo.ValidateIndex(context.Background(), "missing"); !errors.Is(err, domain.ErrIndexNotFound) {
		t.Errorf("ValidateIndex(missing) = %v, want ErrIndexNotFound", err)
	}
}
