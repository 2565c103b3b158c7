package mock

import (
	"context"
	"sync"
	"time"

	"github.com/kitbuilder587/tavily-go/internal/search"
)

// Client - фейковый поисковик для тестов.
// Отдает Results (обрезанные до MaxResults запроса), либо Error.
type Client struct {
	Results []search.SearchResult
	Answer  string
	Error   error
	Delay   time.Duration

	ExtractResponse *search.ExtractResponse
	CrawlResponse   *search.CrawlResponse
	MapResponse     *search.MapResponse

	CallCount   int
	LastRequest search.SearchRequest
	AllRequests []search.SearchRequest

	mu sync.Mutex
}

func New() *Client {
	return &Client{}
}

func (c *Client) WithResults(results []search.SearchResult) *Client {
	c.Results = results
	return c
}

func (c *Client) WithAnswer(answer string) *Client {
	c.Answer = answer
	return c
}

func (c *Client) WithError(err error) *Client {
	c.Error = err
	return c
}

func (c *Client) WithDelay(delay time.Duration) *Client {
	c.Delay = delay
	return c
}

func (c *Client) WithExtractResponse(resp *search.ExtractResponse) *Client {
	c.ExtractResponse = resp
	return c
}

func (c *Client) WithCrawlResponse(resp *search.CrawlResponse) *Client {
	c.CrawlResponse = resp
	return c
}

func (c *Client) WithMapResponse(resp *search.MapResponse) *Client {
	c.MapResponse = resp
	return c
}

func (c *Client) Search(ctx context.Context, req search.SearchRequest) (*search.SearchResponse, error) {
	c.mu.Lock()
	c.CallCount++
	c.LastRequest = req
	c.AllRequests = append(c.AllRequests, req)
	delay := c.Delay
	err := c.Error
	results := append([]search.SearchResult(nil), c.Results...)
	answer := c.Answer
	c.mu.Unlock()

	if err := c.wait(ctx, delay); err != nil {
		return nil, err
	}

	if err != nil {
		return nil, err
	}

	if req.MaxResults > 0 && len(results) > req.MaxResults {
		results = results[:req.MaxResults]
	}

	resp := &search.SearchResponse{
		Query:        req.Query,
		Results:      results,
		ResponseTime: 0.5,
	}
	if req.IncludeAnswer {
		resp.Answer = answer
	}
	return resp, nil
}

func (c *Client) Extract(ctx context.Context, req search.ExtractRequest) (*search.ExtractResponse, error) {
	if err := c.begin(ctx); err != nil {
		return nil, err
	}
	if c.ExtractResponse != nil {
		return c.ExtractResponse, nil
	}
	return &search.ExtractResponse{Results: []search.ExtractResult{}, FailedResults: []search.FailedResult{}}, nil
}

func (c *Client) Crawl(ctx context.Context, req search.CrawlRequest) (*search.CrawlResponse, error) {
	if err := c.begin(ctx); err != nil {
		return nil, err
	}
	if c.CrawlResponse != nil {
		return c.CrawlResponse, nil
	}
	return &search.CrawlResponse{BaseURL: req.URL}, nil
}

func (c *Client) Map(ctx context.Context, req search.MapRequest) (*search.MapResponse, error) {
	if err := c.begin(ctx); err != nil {
		return nil, err
	}
	if c.MapResponse != nil {
		return c.MapResponse, nil
	}
	return &search.MapResponse{BaseURL: req.URL}, nil
}

func (c *Client) begin(ctx context.Context) error {
	c.mu.Lock()
	c.CallCount++
	delay := c.Delay
	err := c.Error
	c.mu.Unlock()

	if werr := c.wait(ctx, delay); werr != nil {
		return werr
	}
	return err
}

func (c *Client) wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.CallCount
}

func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CallCount = 0
	c.LastRequest = search.SearchRequest{}
	c.AllRequests = nil
}

var (
	_ search.SearchClient  = (*Client)(nil)
	_ search.ContentClient = (*Client)(nil)
)
