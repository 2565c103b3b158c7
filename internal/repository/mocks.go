package repository

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/kitbuilder587/tavily-go/internal/domain"
)

// MockDocumentRepository хранит записи в памяти и ищет по косинусной близости.
// Можно подставить заранее заданные результаты поиска и ошибки.
type MockDocumentRepository struct {
	mu      sync.Mutex
	records map[string][]domain.Record

	SearchResults []domain.Document
	SearchError   error
	InsertError   error
	// InsertErrors - ошибка для конкретного контента, остальные вставки проходят
	InsertErrors map[string]error
	Delay        time.Duration
	Indexes      map[string]bool

	SearchCalls   int
	LastSearch    SearchCall
	InsertCalls   int
	InsertedCount int
}

type SearchCall struct {
	Index     string
	Embedding []float32
	Limit     int
}

func NewMockDocumentRepository() *MockDocumentRepository {
	return &MockDocumentRepository{
		records:      make(map[string][]domain.Record),
		InsertErrors: make(map[string]error),
	}
}

func (m *MockDocumentRepository) WithSearchResults(docs []domain.Document) *MockDocumentRepository {
	m.SearchResults = docs
	return m
}

func (m *MockDocumentRepository) WithSearchError(err error) *MockDocumentRepository {
	m.SearchError = err
	return m
}

func (m *MockDocumentRepository) WithInsertError(err error) *MockDocumentRepository {
	m.InsertError = err
	return m
}

func (m *MockDocumentRepository) WithDelay(d time.Duration) *MockDocumentRepository {
	m.Delay = d
	return m
}

func (m *MockDocumentRepository) WithIndex(name string) *MockDocumentRepository {
	if m.Indexes == nil {
		m.Indexes = make(map[string]bool)
	}
	m.Indexes[name] = true
	return m
}

func (m *MockDocumentRepository) VectorSearch(ctx context.Context, index string, embedding []float32, limit int) ([]domain.Document, error) {
	m.mu.Lock()
	m.SearchCalls++
	m.LastSearch = SearchCall{Index: index, Embedding: embedding, Limit: limit}
	delay := m.Delay
	err := m.SearchError
	preset := m.SearchResults
	stored := append([]domain.Record(nil), m.records[index]...)
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	if err != nil {
		return nil, err
	}

	var docs []domain.Document
	if preset != nil {
		docs = append(docs, preset...)
	} else {
		for _, rec := range stored {
			docs = append(docs, domain.Document{
				Content:   rec.Content(),
				Score:     cosine(embedding, rec.Embedding()),
				Origin:    domain.OriginLocal,
				Embedding: rec.Embedding(),
			})
		}
		sort.SliceStable(docs, func(i, j int) bool {
			return docs[i].Score > docs[j].Score
		})
	}

	if limit >= 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

func (m *MockDocumentRepository) Insert(ctx context.Context, index string, rec domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InsertCalls++
	if m.InsertError != nil {
		return m.InsertError
	}
	if err, ok := m.InsertErrors[rec.Content()]; ok {
		return err
	}
	if rec.Content() == "" {
		return domain.ErrEmptyContent
	}
	for _, existing := range m.records[index] {
		if existing.Content() == rec.Content() {
			return domain.ErrDuplicateDocument
		}
	}

	m.records[index] = append(m.records[index], rec)
	m.InsertedCount++
	return nil
}

func (m *MockDocumentRepository) ValidateIndex(ctx context.Context, index string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Indexes != nil && !m.Indexes[index] {
		return domain.ErrIndexNotFound
	}
	return nil
}

func (m *MockDocumentRepository) Records(index string) []domain.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Record(nil), m.records[index]...)
}

func (m *MockDocumentRepository) Inserts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.InsertCalls
}

func (m *MockDocumentRepository) Searches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.SearchCalls
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

var (
	_ DocumentRepository = (*MockDocumentRepository)(nil)
	_ IndexValidator     = (*MockDocumentRepository)(nil)
)
