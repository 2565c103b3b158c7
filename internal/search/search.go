package search

import (
	"context"
)

type SearchClient interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// ContentClient - операции извлечения контента (extract/crawl/map)
type ContentClient interface {
	Extract(ctx context.Context, req ExtractRequest) (*ExtractResponse, error)
	Crawl(ctx context.Context, req CrawlRequest) (*CrawlResponse, error)
	Map(ctx context.Context, req MapRequest) (*MapResponse, error)
}

type SearchRequest struct {
	Query string `json:"query"`
	SearchOptions

	// Extra is merged into the request body as-is.
	Extra map[string]any `json:"extra,omitempty"`
}

type SearchResponse struct {
	Query             string         `json:"query"`
	Answer            string         `json:"answer,omitempty"`
	Images            []string       `json:"images,omitempty"`
	FollowUpQuestions []string       `json:"follow_up_questions,omitempty"`
	Results           []SearchResult `json:"results"`
	ResponseTime      float64        `json:"response_time"`
}

type SearchResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	Score         float64 `json:"score"`
	RawContent    string  `json:"raw_content,omitempty"`
	PublishedDate string  `json:"published_date,omitempty"`
}

// ContextSource - элемент контекста для RAG
type ContextSource struct {
	URL     string `json:"url"`
	Content string `json:"content"`
}

type ExtractRequest struct {
	URLs          []string `json:"urls"`
	IncludeImages bool     `json:"include_images"`
	ExtractDepth  Depth    `json:"extract_depth,omitempty"`
}

type ExtractResponse struct {
	Results       []ExtractResult `json:"results"`
	FailedResults []FailedResult  `json:"failed_results"`
	ResponseTime  float64         `json:"response_time"`
}

type ExtractResult struct {
	URL        string   `json:"url"`
	RawContent string   `json:"raw_content"`
	Images     []string `json:"images,omitempty"`
}

type FailedResult struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// MapRequest - параметры обхода сайта. Незаданные поля не отправляются.
type MapRequest struct {
	URL            string     `json:"url"`
	MaxDepth       *int       `json:"max_depth,omitempty"`
	MaxBreadth     *int       `json:"max_breadth,omitempty"`
	Limit          *int       `json:"limit,omitempty"`
	Instructions   string     `json:"instructions,omitempty"`
	SelectPaths    []string   `json:"select_paths,omitempty"`
	SelectDomains  []string   `json:"select_domains,omitempty"`
	ExcludePaths   []string   `json:"exclude_paths,omitempty"`
	ExcludeDomains []string   `json:"exclude_domains,omitempty"`
	AllowExternal  *bool      `json:"allow_external,omitempty"`
	IncludeImages  *bool      `json:"include_images,omitempty"`
	Categories     []Category `json:"categories,omitempty"`
}

type CrawlRequest struct {
	MapRequest
	ExtractDepth Depth `json:"extract_depth,omitempty"`
}

type CrawlResponse struct {
	BaseURL      string          `json:"base_url"`
	Results      []ExtractResult `json:"results"`
	ResponseTime float64         `json:"response_time"`
}

type MapResponse struct {
	BaseURL      string   `json:"base_url"`
	Results      []string `json:"results"`
	ResponseTime float64  `json:"response_time"`
}
