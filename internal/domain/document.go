package domain

// Origin - откуда пришел документ: локальное хранилище или удаленный поиск
type Origin string

const (
	OriginLocal  Origin = "local"
	OriginRemote Origin = "remote"
)

func (o Origin) IsValid() bool {
	switch o {
	case OriginLocal, OriginRemote:
		return true
	}
	return false
}

func (o Origin) String() string { return string(o) }

// Document is a single retrieved item. Score is a relevance in [0,1],
// higher is more relevant.
type Document struct {
	Content    string    `json:"content"`
	Score      float64   `json:"score"`
	Origin     Origin    `json:"origin"`
	Title      string    `json:"title,omitempty"`
	URL        string    `json:"url,omitempty"`
	RawContent string    `json:"raw_content,omitempty"`
	Embedding  []float32 `json:"embedding,omitempty"`

	// Position is the index in the candidate pool the document was ranked from.
	// Used as a tie-break when two documents end up with equal scores.
	Position int `json:"-"`
}

// Record - запись для вставки в векторное хранилище (поле -> значение)
type Record map[string]any

const (
	FieldContent   = "content"
	FieldEmbedding = "embedding"
	FieldTitle     = "title"
	FieldURL       = "url"
)

func (r Record) Content() string {
	s, _ := r[FieldContent].(string)
	return s
}

func (r Record) Embedding() []float32 {
	v, _ := r[FieldEmbedding].([]float32)
	return v
}

// Metadata returns every field except content and embedding.
func (r Record) Metadata() map[string]any {
	meta := make(map[string]any, len(r))
	for k, v := range r {
		if k == FieldContent || k == FieldEmbedding {
			continue
		}
		meta[k] = v
	}
	return meta
}

// DefaultRecord - то что сохраняется по умолчанию: контент + эмбеддинг
func DefaultRecord(doc Document) Record {
	return Record{
		FieldContent:   doc.Content,
		FieldEmbedding: doc.Embedding,
	}
}
