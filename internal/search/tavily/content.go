package tavily

import (
	"context"

	"github.com/kitbuilder587/tavily-go/internal/search"
)

func (c *Client) Extract(ctx context.Context, req search.ExtractRequest) (*search.ExtractResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.ExtractDepth == "" {
		req.ExtractDepth = search.DepthBasic
	}

	var resp search.ExtractResponse
	if err := c.post(ctx, "/extract", req, &resp); err != nil {
		return nil, err
	}

	if resp.Results == nil {
		resp.Results = []search.ExtractResult{}
	}
	if resp.FailedResults == nil {
		resp.FailedResults = []search.FailedResult{}
	}
	return &resp, nil
}

func (c *Client) Crawl(ctx context.Context, req search.CrawlRequest) (*search.CrawlResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var resp search.CrawlResponse
	if err := c.post(ctx, "/crawl", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Map(ctx context.Context, req search.MapRequest) (*search.MapResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var resp search.MapResponse
	if err := c.post(ctx, "/map", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
