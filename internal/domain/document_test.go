package domain

import "testing"

func TestOrigin_IsValid(t *testing.T) {
	tests := []struct {
		origin Origin
		want   bool
	}{
		{OriginLocal, true},
		{OriginRemote, true},
		{Origin("foreign"), false},
		{Origin(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.origin), func(t *testing.T) {
			if got := tt.origin.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultRecord(t *testing.T) {
	doc := Document{
		Content:   "Lionel Messi is an Argentine footballer",
		URL:       "https://example.com/messi",
		Origin:    OriginRemote,
		Embedding: []float32{0.1, 0.2},
	}

	rec := DefaultRecord(doc)

	if rec.Content() != doc.Content {
		t.Errorf("Content() = %q, want %q", rec.Content(), doc.Content)
	}
	if len(rec.Embedding()) != 2 {
		t.Errorf("Embedding() len = %d, want 2", len(rec.Embedding()))
	}
	if _, ok := rec[FieldURL]; ok {
		t.Error("default record should not carry url")
	}
}

func TestRecord_Metadata(t *testing.T) {
	rec := Record{
		FieldContent:   "text",
		FieldEmbedding: []float32{1},
		FieldURL:       "https://example.com",
		"lang":         "en",
	}

	meta := rec.Metadata()

	if len(meta) != 2 {
		t.Fatalf("Metadata() len = %d, want 2", len(meta))
	}
	if meta[FieldURL] != "https://example.com" {
		t.Errorf("Metadata()[url] = %v", meta[FieldURL])
	}
	if _, ok := meta[FieldContent]; ok {
		t.Error("metadata should not contain content")
	}
}

func TestRecord_WrongTypes(t *testing.T) {
	rec := Record{FieldContent: 42, FieldEmbedding: []float64{1}}

	if rec.Content() != "" {
		t.Errorf("Content() = %q, want empty", rec.Content())
	}
	if rec.Embedding() != nil {
		t.Errorf("Embedding() = %v, want nil", rec.Embedding())
	}
}
