// Package server - HTTP API поверх клиента поиска и гибридного слияния.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kitbuilder587/tavily-go/internal/metrics"
	"github.com/kitbuilder587/tavily-go/internal/ratelimit"
	"github.com/kitbuilder587/tavily-go/internal/search"
	"github.com/kitbuilder587/tavily-go/internal/service"
)

const requestIDHeader = "X-Request-ID"

// Tavily - все операции клиента, которые отдает API
type Tavily interface {
	search.SearchClient
	search.ContentClient
	SearchContext(ctx context.Context, req search.SearchRequest, maxTokens int) (string, error)
	QnA(ctx context.Context, req search.SearchRequest) (string, error)
	CompanyInfo(ctx context.Context, query string, depth search.Depth, maxResults int) ([]search.SearchResult, error)
}

type Deps struct {
	Tavily Tavily
	// Search - опционально, например кеширующая обертка над Tavily
	Search search.SearchClient
	// Hybrid - опционально, без него /v1/hybrid отвечает 503
	Hybrid service.HybridService

	Limiter  *ratelimit.Limiter
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger

	CORSOrigins      []string
	HybridMaxResults int
	ShutdownTimeout  time.Duration
}

type Server struct {
	engine *gin.Engine
	deps   Deps
	logger *zap.Logger
}

func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Search == nil {
		deps.Search = deps.Tavily
	}
	if deps.HybridMaxResults == 0 {
		deps.HybridMaxResults = service.DefaultHybridMaxResults
	}
	if deps.ShutdownTimeout == 0 {
		deps.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		engine: gin.New(),
		deps:   deps,
		logger: deps.Logger,
	}

	s.engine.Use(gin.Recovery(), s.requestID(), s.accessLog())
	if len(deps.CORSOrigins) > 0 {
		s.engine.Use(cors.New(cors.Config{
			AllowOrigins:  deps.CORSOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders: []string{"Content-Length", requestIDHeader},
			MaxAge:        12 * time.Hour,
		}))
	}

	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.health)

	gatherer := s.deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s.engine.GET("/metrics", gin.WrapH(metrics.HandlerFor(gatherer)))

	v1 := s.engine.Group("/v1", s.rateLimit())
	{
		v1.POST("/search", s.search)
		v1.POST("/search/context", s.searchContext)
		v1.POST("/qna", s.qna)
		v1.POST("/company", s.company)
		v1.POST("/extract", s.extract)
		v1.POST("/crawl", s.crawl)
		v1.POST("/map", s.mapSite)
		v1.POST("/hybrid", s.hybrid)
	}
}

// Run слушает addr до отмены ctx, потом корректно гасит сервер
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.deps.ShutdownTimeout)
	defer cancel()

	s.logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info("http request",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

// rateLimit - лимит на клиента (по IP), не путать с лимитом исходящих запросов
func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.deps.Limiter == nil || s.deps.Limiter.Allow(c.ClientIP()) {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Error: "too many requests"})
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"hybrid": s.deps.Hybrid != nil,
	})
}
