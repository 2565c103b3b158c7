package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kitbuilder587/tavily-go/internal/domain"
	"github.com/kitbuilder587/tavily-go/internal/metrics"
	"github.com/kitbuilder587/tavily-go/internal/ratelimit"
	"github.com/kitbuilder587/tavily-go/internal/search"
	"github.com/kitbuilder587/tavily-go/internal/search/tavily"
	"github.com/kitbuilder587/tavily-go/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubHybrid struct {
	result  *service.MergeResult
	err     error
	lastReq service.MergeRequest
}

func (s *stubHybrid) Merge(_ context.Context, req service.MergeRequest) (*service.MergeResult, error) {
	s.lastReq = req
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubHybrid) ValidateIndex(context.Context) error { return nil }

// fakeTavily поднимает httptest сервер вместо api.tavily.com
func fakeTavily(t *testing.T, handler http.HandlerFunc) *tavily.Client {
	t.Helper()
	backend := httptest.NewServer(handler)
	t.Cleanup(backend.Close)

	client, err := tavily.New(tavily.Config{
		APIKey:     "test-key",
		BaseURL:    backend.URL,
		Timeout:    5 * time.Second,
		MaxRetries: -1,
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func searchBackend(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	switch r.URL.Path {
	case "/search":
		resp := map[string]any{
			"query": body["query"],
			"results": []map[string]any{
				{"title": "Go", "url": "https://go.dev", "content": "The Go programming language", "score": 0.9},
			},
		}
		if body["include_answer"] == true {
			resp["answer"] = "Go is a language"
		}
		_ = json.NewEncoder(w).Encode(resp)
	case "/extract":
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results":        []map[string]any{{"url": "https://go.dev", "raw_content": "page"}},
			"failed_results": []map[string]any{},
		})
	case "/map":
		_ = json.NewEncoder(w).Encode(map[string]any{
			"base_url": body["url"],
			"results":  []string{"https://go.dev/doc"},
		})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestServer_Health(t *testing.T) {
	srv := New(Deps{Tavily: fakeTavily(t, searchBackend)})

	w := doJSON(t, srv.Handler(), http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","hybrid":false}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestServer_RequestIDPropagated(t *testing.T) {
	srv := New(Deps{Tavily: fakeTavily(t, searchBackend)})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestServer_Search(t *testing.T) {
	srv := New(Deps{Tavily: fakeTavily(t, searchBackend)})

	w := doJSON(t, srv.Handler(), http.MethodPost, "/v1/search", map[string]any{
		"query":          "golang",
		"include_answer": true,
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp search.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Go is a language", resp.Answer)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "https://go.dev", resp.Results[0].URL)
}

func TestServer_SearchValidationError(t *testing.T) {
	srv := New(Deps{Tavily: fakeTavily(t, searchBackend)})

	w := doJSON(t, srv.Handler(), http.MethodPost, "/v1/search", map[string]any{
		"query":        "golang",
		"search_depth": "deepest",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_BadBody(t *testing.T) {
	srv := New(Deps{Tavily: fakeTavily(t, searchBackend)})

	req := httptest.NewRequest(http.MethodPost, "/v1/search", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestServer_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantCode int
	}{
		{"unauthorized", http.StatusUnauthorized, http.StatusUnauthorized},
		{"rate limit", http.StatusTooManyRequests, http.StatusTooManyRequests},
		{"forbidden", http.StatusForbidden, http.StatusForbidden},
		{"bad request", http.StatusBadRequest, http.StatusBadRequest},
		{"server error", http.StatusInternalServerError, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := fakeTavily(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = fmt.Fprint(w, `{"detail":{"error":"nope"}}`)
			})
			srv := New(Deps{Tavily: client})

			w := doJSON(t, srv.Handler(), http.MethodPost, "/v1/search", map[string]any{"query": "q"})

			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestServer_QnA(t *testing.T) {
	srv := New(Deps{Tavily: fakeTavily(t, searchBackend)})

	w := doJSON(t, srv.Handler(), http.MethodPost, "/v1/qna", map[string]any{"query": "what is go"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"answer":"Go is a language"}`, w.Body.String())
}

func TestServer_SearchContext(t *testing.T) {
	srv := New(Deps{Tavily: fakeTavily(t, searchBackend)})

	w := doJSON(t, srv.Handler(), http.MethodPost, "/v1/search/context", map[string]any{
		"query":      "golang",
		"max_tokens": 1000,
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Context string `json:"context"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Context, "https://go.dev")
}

func TestServer_Company(t *testing.T) {
	srv := New(Deps{Tavily: fakeTavily(t, searchBackend)})

	w := doJSON(t, srv.Handler(), http.MethodPost, "/v1/company", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, srv.Handler(), http.MethodPost, "/v1/company", map[string]any{"query": "Acme"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"results"`)
}

func TestServer_ExtractAndMap(t *testing.T) {
	srv := New(Deps{Tavily: fakeTavily(t, searchBackend)})

	w := doJSON(t, srv.Handler(), http.MethodPost, "/v1/extract", map[string]any{"urls": []string{"https://go.dev"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"raw_content":"page"`)

	w = doJSON(t, srv.Handler(), http.MethodPost, "/v1/extract", map[string]any{"urls": []string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, srv.Handler(), http.MethodPost, "/v1/map", map[string]any{"url": "https://go.dev"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "https://go.dev/doc")
}

func TestServer_HybridNotConfigured(t *testing.T) {
	srv := New(Deps{Tavily: fakeTavily(t, searchBackend)})

	w := doJSON(t, srv.Handler(), http.MethodPost, "/v1/hybrid", map[string]any{"query": "q"})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestServer_Hybrid(t *testing.T) {
	hybrid := &stubHybrid{result: &service.MergeResult{
		Documents: []domain.Document{
			{Content: "local doc", Score: 0.8, Origin: domain.OriginLocal, Embedding: []float32{0.1, 0.2}},
			{Content: "remote doc", Score: 0.6, Origin: domain.OriginRemote},
		},
		LocalCandidates:  1,
		RemoteCandidates: 1,
	}}
	srv := New(Deps{Tavily: fakeTavily(t, searchBackend), Hybrid: hybrid, HybridMaxResults: 7})

	w := doJSON(t, srv.Handler(), http.MethodPost, "/v1/hybrid", map[string]any{
		"query":     "messi",
		"max_local": 2,
		"persist":   "default",
		"options":   map[string]any{"topic": "news"},
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 7, hybrid.lastReq.MaxResults)
	require.NotNil(t, hybrid.lastReq.MaxLocal)
	assert.Equal(t, 2, *hybrid.lastReq.MaxLocal)
	assert.Nil(t, hybrid.lastReq.MaxForeign)
	assert.Equal(t, service.PersistDefault, hybrid.lastReq.Persist)
	assert.Equal(t, search.TopicNews, hybrid.lastReq.Options.Topic)

	var res service.MergeResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Len(t, res.Documents, 2)
	assert.Equal(t, domain.OriginLocal, res.Documents[0].Origin)
	assert.Nil(t, res.Documents[0].Embedding, "embeddings are stripped by default")
}

func TestServer_HybridExplicitZeroAndEmbeddings(t *testing.T) {
	hybrid := &stubHybrid{result: &service.MergeResult{
		Documents: []domain.Document{{Content: "a", Origin: domain.OriginLocal, Embedding: []float32{1}}},
	}}
	srv := New(Deps{Tavily: fakeTavily(t, searchBackend), Hybrid: hybrid})

	w := doJSON(t, srv.Handler(), http.MethodPost, "/v1/hybrid", map[string]any{
		"query":              "q",
		"max_results":        0,
		"include_embeddings": true,
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 0, hybrid.lastReq.MaxResults)
	assert.Contains(t, w.Body.String(), `"embedding":[1]`)
}

func TestServer_HybridErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     map[string]any
		err      error
		wantCode int
		collab   string
	}{
		{
			name:     "custom persist is not available over http",
			body:     map[string]any{"query": "q", "persist": "custom"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "negative cap",
			body:     map[string]any{"query": "q", "max_foreign": -1},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "remote search unauthorized",
			body:     map[string]any{"query": "q"},
			err:      domain.NewCollaboratorError(domain.CollaboratorRemoteSearch, search.ErrUnauthorized),
			wantCode: http.StatusUnauthorized,
			collab:   "remote_search",
		},
		{
			name:     "store failure",
			body:     map[string]any{"query": "q"},
			err:      domain.NewCollaboratorError(domain.CollaboratorStore, fmt.Errorf("connection refused")),
			wantCode: http.StatusBadGateway,
			collab:   "vector_store",
		},
		{
			name:     "deadline",
			body:     map[string]any{"query": "q"},
			err:      domain.NewCollaboratorError(domain.CollaboratorEmbedding, context.DeadlineExceeded),
			wantCode: http.StatusGatewayTimeout,
			collab:   "embedding",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hybrid := &stubHybrid{err: tt.err, result: &service.MergeResult{}}
			srv := New(Deps{Tavily: fakeTavily(t, searchBackend), Hybrid: hybrid})

			w := doJSON(t, srv.Handler(), http.MethodPost, "/v1/hybrid", tt.body)

			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			var resp errorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
			assert.Equal(t, tt.collab, resp.Collaborator)
		})
	}
}

func TestServer_RateLimit(t *testing.T) {
	limiter := ratelimit.New(ratelimit.Config{RequestsPerMinute: 1, Burst: 1})
	srv := New(Deps{Tavily: fakeTavily(t, searchBackend), Limiter: limiter})

	w := doJSON(t, srv.Handler(), http.MethodPost, "/v1/search", map[string]any{"query": "q"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv.Handler(), http.MethodPost, "/v1/search", map[string]any{"query": "q"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// health не лимитируется
	w = doJSON(t, srv.Handler(), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.RecordCacheHit()

	srv := New(Deps{Tavily: fakeTavily(t, searchBackend), Gatherer: reg})

	w := doJSON(t, srv.Handler(), http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "tavily_cache_hits_total 1")
}

func TestServer_CORS(t *testing.T) {
	srv := New(Deps{Tavily: fakeTavily(t, searchBackend), CORSOrigins: []string{"http://localhost:3000"}})

	req := httptest.NewRequest(http.MethodOptions, "/v1/search", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_RunShutsDownOnCancel(t *testing.T) {
	srv := New(Deps{Tavily: fakeTavily(t, searchBackend), ShutdownTimeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(domain.NewValidationError("query", "empty")))
	assert.Equal(t, http.StatusBadRequest, statusFor(search.ErrInvalidRequest))
	assert.Equal(t, http.StatusUnauthorized, statusFor(&search.APIError{StatusCode: 401, Err: search.ErrUnauthorized}))
	assert.Equal(t, http.StatusTooManyRequests, statusFor(search.ErrRateLimit))
	assert.Equal(t, http.StatusBadGateway, statusFor(search.ErrSearchFailed))
}
