package tavily

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kitbuilder587/tavily-go/internal/domain"
	"github.com/kitbuilder587/tavily-go/internal/search"
)

func TestClient_Extract(t *testing.T) {
	var body map[string]any
	var path string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{
			"results": [{"url": "https://example.com", "raw_content": "Example Domain"}],
			"failed_results": [{"url": "https://broken.example", "error": "timeout"}],
			"response_time": 0.4
		}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	resp, err := client.Extract(context.Background(), search.ExtractRequest{
		URLs: []string{"https://example.com", "https://broken.example"},
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if path != "/extract" {
		t.Errorf("path = %q, want /extract", path)
	}
	if body["extract_depth"] != "basic" {
		t.Errorf("extract_depth = %v, want basic", body["extract_depth"])
	}
	if len(resp.Results) != 1 || resp.Results[0].RawContent != "Example Domain" {
		t.Errorf("Results = %+v", resp.Results)
	}
	if len(resp.FailedResults) != 1 || resp.FailedResults[0].Error != "timeout" {
		t.Errorf("FailedResults = %+v", resp.FailedResults)
	}
}

func TestClient_Extract_EmptyLists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	resp, err := client.Extract(context.Background(), search.ExtractRequest{URLs: []string{"https://example.com"}})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if resp.Results == nil || resp.FailedResults == nil {
		t.Error("Extract() should return empty slices, not nil")
	}
}

func TestClient_Extract_Validation(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:0")

	_, err := client.Extract(context.Background(), search.ExtractRequest{})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Extract() error = %v, want ErrValidation", err)
	}
}

func TestClient_Crawl_OmitsUnsetFields(t *testing.T) {
	var body map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"base_url":"https://docs.tavily.com","results":[{"url":"https://docs.tavily.com/a","raw_content":"A"}],"response_time":1.2}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	depth := 2
	allowExternal := false
	resp, err := client.Crawl(context.Background(), search.CrawlRequest{
		MapRequest: search.MapRequest{
			URL:           "https://docs.tavily.com",
			MaxDepth:      &depth,
			AllowExternal: &allowExternal,
			Categories:    []search.Category{"Documentation"},
		},
		ExtractDepth: search.DepthAdvanced,
	})
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}

	if body["max_depth"] != float64(2) {
		t.Errorf("max_depth = %v, want 2", body["max_depth"])
	}
	if body["allow_external"] != false {
		t.Errorf("allow_external = %v, want false", body["allow_external"])
	}
	for _, key := range []string{"max_breadth", "limit", "instructions", "select_paths", "include_images"} {
		if _, ok := body[key]; ok {
			t.Errorf("%s should be omitted when unset", key)
		}
	}
	if resp.BaseURL != "https://docs.tavily.com" || len(resp.Results) != 1 {
		t.Errorf("Crawl() resp = %+v", resp)
	}
}

func TestClient_Map(t *testing.T) {
	var path string
	var body map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"base_url":"https://docs.tavily.com","results":["https://docs.tavily.com/a","https://docs.tavily.com/b"]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	limit := 10
	resp, err := client.Map(context.Background(), search.MapRequest{
		URL:          "https://docs.tavily.com",
		Limit:        &limit,
		Instructions: "only SDK pages",
	})
	if err != nil {
		t.Fatalf("Map() error = %v", err)
	}

	if path != "/map" {
		t.Errorf("path = %q, want /map", path)
	}
	if _, ok := body["extract_depth"]; ok {
		t.Error("map request should not carry extract_depth")
	}
	if len(resp.Results) != 2 {
		t.Errorf("results = %d, want 2", len(resp.Results))
	}
}

func TestClient_Map_InvalidCategory(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:0")

	_, err := client.Map(context.Background(), search.MapRequest{
		URL:        "https://example.com",
		Categories: []search.Category{"Cooking"},
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Map() error = %v, want ErrValidation", err)
	}
}
