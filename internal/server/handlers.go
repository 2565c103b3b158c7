package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kitbuilder587/tavily-go/internal/search"
	"github.com/kitbuilder587/tavily-go/internal/service"
)

type contextRequest struct {
	search.SearchRequest
	MaxTokens int `json:"max_tokens"`
}

type companyRequest struct {
	Query       string       `json:"query"`
	SearchDepth search.Depth `json:"search_depth"`
	MaxResults  int          `json:"max_results"`
}

type hybridRequest struct {
	Query             string               `json:"query"`
	MaxResults        *int                 `json:"max_results"`
	MaxLocal          *int                 `json:"max_local"`
	MaxForeign        *int                 `json:"max_foreign"`
	Persist           service.PersistMode  `json:"persist"`
	Options           search.SearchOptions `json:"options"`
	IncludeEmbeddings bool                 `json:"include_embeddings"`
}

func (s *Server) search(c *gin.Context) {
	var req search.SearchRequest
	if !bind(c, &req) {
		return
	}

	resp, err := s.deps.Search.Search(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) searchContext(c *gin.Context) {
	var req contextRequest
	if !bind(c, &req) {
		return
	}

	out, err := s.deps.Tavily.SearchContext(c.Request.Context(), req.SearchRequest, req.MaxTokens)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"context": out})
}

func (s *Server) qna(c *gin.Context) {
	var req search.SearchRequest
	if !bind(c, &req) {
		return
	}

	answer, err := s.deps.Tavily.QnA(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

func (s *Server) company(c *gin.Context) {
	var req companyRequest
	if !bind(c, &req) {
		return
	}
	if req.Query == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "query is required"})
		return
	}

	results, err := s.deps.Tavily.CompanyInfo(c.Request.Context(), req.Query, req.SearchDepth, req.MaxResults)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (s *Server) extract(c *gin.Context) {
	var req search.ExtractRequest
	if !bind(c, &req) {
		return
	}

	resp, err := s.deps.Tavily.Extract(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) crawl(c *gin.Context) {
	var req search.CrawlRequest
	if !bind(c, &req) {
		return
	}

	resp, err := s.deps.Tavily.Crawl(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) mapSite(c *gin.Context) {
	var req search.MapRequest
	if !bind(c, &req) {
		return
	}

	resp, err := s.deps.Tavily.Map(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) hybrid(c *gin.Context) {
	if s.deps.Hybrid == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "hybrid search is not configured"})
		return
	}

	var req hybridRequest
	if !bind(c, &req) {
		return
	}

	maxResults := s.deps.HybridMaxResults
	if req.MaxResults != nil {
		maxResults = *req.MaxResults
	}

	res, err := s.deps.Hybrid.Merge(c.Request.Context(), service.MergeRequest{
		Query:      req.Query,
		MaxResults: maxResults,
		MaxLocal:   req.MaxLocal,
		MaxForeign: req.MaxForeign,
		Persist:    req.Persist,
		Options:    req.Options,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	if !req.IncludeEmbeddings {
		for i := range res.Documents {
			res.Documents[i].Embedding = nil
		}
	}
	c.JSON(http.StatusOK, res)
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}
