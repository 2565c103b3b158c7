package tavily

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kitbuilder587/tavily-go/internal/search"
)

type tavilyRequest struct {
	Query             string           `json:"query"`
	SearchDepth       search.Depth     `json:"search_depth"`
	Topic             search.Topic     `json:"topic"`
	TimeRange         search.TimeRange `json:"time_range,omitempty"`
	Days              int              `json:"days,omitempty"`
	MaxResults        int              `json:"max_results"`
	IncludeDomains    []string         `json:"include_domains,omitempty"`
	ExcludeDomains    []string         `json:"exclude_domains,omitempty"`
	IncludeAnswer     bool             `json:"include_answer"`
	IncludeRawContent bool             `json:"include_raw_content"`
	IncludeImages     bool             `json:"include_images"`
}

type tavilyResponse struct {
	Query             string         `json:"query"`
	Answer            string         `json:"answer"`
	Images            []tavilyImage  `json:"images"`
	FollowUpQuestions []string       `json:"follow_up_questions"`
	Results           []tavilyResult `json:"results"`
	ResponseTime      float64        `json:"response_time"`
}

type tavilyResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	Score         float64 `json:"score"`
	RawContent    string  `json:"raw_content"`
	PublishedDate string  `json:"published_date"`
}

// tavilyImage - картинка приходит либо строкой, либо объектом {url, description}
type tavilyImage string

func (i *tavilyImage) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*i = tavilyImage(s)
		return nil
	}
	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("unmarshal image: %w", err)
	}
	*i = tavilyImage(obj.URL)
	return nil
}

func (c *Client) Search(ctx context.Context, req search.SearchRequest) (*search.SearchResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tavilyReq := toTavilyRequest(req)

	payload, err := withExtra(tavilyReq, req.Extra)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("tavily search",
		zap.Int("query_length", len(req.Query)),
		zap.String("depth", string(tavilyReq.SearchDepth)),
		zap.String("topic", string(tavilyReq.Topic)),
		zap.Int("max_results", tavilyReq.MaxResults),
	)

	var tavilyResp tavilyResponse
	if err := c.post(ctx, "/search", payload, &tavilyResp); err != nil {
		return nil, err
	}

	return c.toSearchResponse(&tavilyResp), nil
}

func toTavilyRequest(req search.SearchRequest) tavilyRequest {
	if req.MaxResults == 0 {
		req.MaxResults = search.DefaultMaxResults
	}
	if req.SearchDepth == "" {
		req.SearchDepth = search.DepthBasic
	}
	if req.Topic == "" {
		req.Topic = search.TopicGeneral
	}

	// days имеет смысл только для новостей
	days := 0
	if req.Topic == search.TopicNews {
		days = req.DaysBack
		if days == 0 {
			days = search.DefaultDaysBack
		}
	}

	return tavilyRequest{
		Query:             req.Query,
		SearchDepth:       req.SearchDepth,
		Topic:             req.Topic,
		TimeRange:         req.TimeRange,
		Days:              days,
		MaxResults:        req.MaxResults,
		IncludeDomains:    req.IncludeDomains,
		ExcludeDomains:    req.ExcludeDomains,
		IncludeAnswer:     req.IncludeAnswer,
		IncludeRawContent: req.IncludeRawContent,
		IncludeImages:     req.IncludeImages,
	}
}

func (c *Client) toSearchResponse(resp *tavilyResponse) *search.SearchResponse {
	results := make([]search.SearchResult, len(resp.Results))
	for i, r := range resp.Results {
		results[i] = search.SearchResult{
			Title:         r.Title,
			URL:           r.URL,
			Content:       r.Content,
			Score:         r.Score,
			RawContent:    r.RawContent,
			PublishedDate: r.PublishedDate,
		}
	}

	var images []string
	for _, img := range resp.Images {
		images = append(images, string(img))
	}

	return &search.SearchResponse{
		Query:             resp.Query,
		Answer:            resp.Answer,
		Images:            images,
		FollowUpQuestions: resp.FollowUpQuestions,
		Results:           results,
		ResponseTime:      resp.ResponseTime,
	}
}

// SearchContext returns a JSON array of {url, content} built from the search
// results, cut to fit into maxTokens (0 means search.DefaultMaxTokens).
func (c *Client) SearchContext(ctx context.Context, req search.SearchRequest, maxTokens int) (string, error) {
	req.IncludeAnswer = false
	req.IncludeRawContent = false
	req.IncludeImages = false

	resp, err := c.Search(ctx, req)
	if err != nil {
		return "", err
	}

	sources := make([]search.ContextSource, len(resp.Results))
	for i, r := range resp.Results {
		sources[i] = search.ContextSource{URL: r.URL, Content: r.Content}
	}

	return BuildContext(sources, maxTokens)
}

// QnA - поиск с ответом сервиса, возвращает только текст ответа
func (c *Client) QnA(ctx context.Context, req search.SearchRequest) (string, error) {
	if req.SearchDepth == "" {
		req.SearchDepth = search.DepthAdvanced
	}
	req.IncludeAnswer = true
	req.IncludeRawContent = false
	req.IncludeImages = false

	resp, err := c.Search(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Answer, nil
}

// CompanyInfo searches the configured topics in parallel and returns the
// best maxResults hits across all of them. Any failed topic fails the call.
func (c *Client) CompanyInfo(ctx context.Context, query string, depth search.Depth, maxResults int) ([]search.SearchResult, error) {
	if depth == "" {
		depth = search.DepthAdvanced
	}
	if maxResults <= 0 {
		maxResults = search.DefaultMaxResults
	}

	perTopic := make([][]search.SearchResult, len(c.companyTopics))
	g, gctx := errgroup.WithContext(ctx)

	for i, topic := range c.companyTopics {
		g.Go(func() error {
			resp, err := c.Search(gctx, search.SearchRequest{
				Query: query,
				SearchOptions: search.SearchOptions{
					SearchDepth: depth,
					Topic:       topic,
					MaxResults:  maxResults,
				},
			})
			if err != nil {
				return fmt.Errorf("company info (%s): %w", topic, err)
			}
			perTopic[i] = resp.Results
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []search.SearchResult
	for _, results := range perTopic {
		all = append(all, results...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Score > all[j].Score
	})

	if len(all) > maxResults {
		all = all[:maxResults]
	}
	return all, nil
}
