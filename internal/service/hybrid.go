package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kitbuilder587/tavily-go/internal/domain"
	"github.com/kitbuilder587/tavily-go/internal/embedding"
	"github.com/kitbuilder587/tavily-go/internal/metrics"
	"github.com/kitbuilder587/tavily-go/internal/rerank"
	"github.com/kitbuilder587/tavily-go/internal/repository"
	"github.com/kitbuilder587/tavily-go/internal/search"
)

const DefaultHybridMaxResults = 10

// PersistMode - что делать с найденными удаленно документами после слияния
type PersistMode string

const (
	PersistSkip    PersistMode = "skip"
	PersistDefault PersistMode = "default"
	PersistCustom  PersistMode = "custom"
)

func (m PersistMode) IsValid() bool {
	switch m {
	case "", PersistSkip, PersistDefault, PersistCustom:
		return true
	}
	return false
}

// SaveFunc turns a remote document (with Embedding already filled in) into
// the record to store. Returning domain.ErrSkipPersist skips the document.
type SaveFunc func(doc domain.Document) (domain.Record, error)

type MergeRequest struct {
	Query      string      `json:"query"`
	MaxResults int         `json:"max_results"`
	MaxLocal   *int        `json:"max_local,omitempty"`
	MaxForeign *int        `json:"max_foreign,omitempty"`
	Persist    PersistMode `json:"persist,omitempty"`
	SaveFunc   SaveFunc    `json:"-"`

	// Options are forwarded to the remote search, MaxResults is replaced by the foreign cap.
	Options search.SearchOptions `json:"options"`
}

func (r MergeRequest) Validate() error {
	if r.MaxResults < 0 {
		return domain.NewValidationError("max_results", "must be >= 0")
	}
	if r.MaxLocal != nil && *r.MaxLocal < 0 {
		return domain.NewValidationError("max_local", "must be >= 0")
	}
	if r.MaxForeign != nil && *r.MaxForeign < 0 {
		return domain.NewValidationError("max_foreign", "must be >= 0")
	}
	if !r.Persist.IsValid() {
		return domain.NewValidationError("persist", fmt.Sprintf("unknown mode %q", r.Persist))
	}
	if r.Persist == PersistCustom && r.SaveFunc == nil {
		return domain.NewValidationError("persist", "custom mode requires a save function")
	}
	return r.Options.Validate()
}

func (r MergeRequest) caps() (local, foreign int) {
	local, foreign = r.MaxResults, r.MaxResults
	if r.MaxLocal != nil {
		local = *r.MaxLocal
	}
	if r.MaxForeign != nil {
		foreign = *r.MaxForeign
	}
	return local, foreign
}

type MergeResult struct {
	Documents []domain.Document `json:"documents"`

	LocalCandidates  int `json:"local_candidates"`
	RemoteCandidates int `json:"remote_candidates"`
	Persisted        int `json:"persisted"`
}

type HybridService interface {
	Merge(ctx context.Context, req MergeRequest) (*MergeResult, error)
	ValidateIndex(ctx context.Context) error
}

type HybridConfig struct {
	Index string
}

type HybridServiceDeps struct {
	Search   search.SearchClient
	Store    repository.DocumentRepository
	Embedder embedding.Embedder
	Ranker   rerank.Ranker
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Config   HybridConfig
}

type hybridService struct {
	search   search.SearchClient
	store    repository.DocumentRepository
	embedder embedding.Embedder
	ranker   rerank.Ranker
	logger   *zap.Logger
	metrics  *metrics.Metrics
	config   HybridConfig
}

func NewHybridService(deps HybridServiceDeps) (HybridService, error) {
	switch {
	case deps.Search == nil:
		return nil, errors.New("hybrid service: search client is required")
	case deps.Store == nil:
		return nil, errors.New("hybrid service: document store is required")
	case deps.Embedder == nil:
		return nil, errors.New("hybrid service: embedder is required")
	}
	if deps.Config.Index == "" {
		return nil, domain.NewValidationError("index", "required")
	}
	if deps.Ranker == nil {
		deps.Ranker = rerank.ScoreRanker{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return &hybridService{
		search:   deps.Search,
		store:    deps.Store,
		embedder: deps.Embedder,
		ranker:   deps.Ranker,
		logger:   deps.Logger,
		metrics:  deps.Metrics,
		config:   deps.Config,
	}, nil
}

// ValidateIndex проверяет индекс, если хранилище это умеет
func (s *hybridService) ValidateIndex(ctx context.Context) error {
	v, ok := s.store.(repository.IndexValidator)
	if !ok {
		return nil
	}
	if err := v.ValidateIndex(ctx, s.config.Index); err != nil {
		return domain.NewCollaboratorError(domain.CollaboratorStore, err)
	}
	return nil
}

// Merge ищет локально и удаленно параллельно, ранжирует общий пул
// и возвращает не больше MaxResults документов.
// Ошибка любой из веток или ранжирования валит весь вызов.
func (s *hybridService) Merge(ctx context.Context, req MergeRequest) (*MergeResult, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		s.recordMerge("validation_error", start)
		return nil, err
	}

	localCap, foreignCap := req.caps()

	// каждая ветка пишет только в свою переменную
	var local, remote []domain.Document
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		docs, err := s.searchLocal(gctx, req.Query, localCap)
		if err != nil {
			return err
		}
		local = docs
		return nil
	})

	g.Go(func() error {
		docs, err := s.searchRemote(gctx, req.Query, foreignCap, req.Options)
		if err != nil {
			return err
		}
		remote = docs
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Warn("hybrid lookup failed", zap.Error(err))
		s.recordMerge("lookup_error", start)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordCandidates(domain.OriginLocal.String(), len(local))
		s.metrics.RecordCandidates(domain.OriginRemote.String(), len(remote))
	}

	pool := make([]domain.Document, 0, len(local)+len(remote))
	pool = append(pool, local...)
	pool = append(pool, remote...)
	for i := range pool {
		pool[i].Position = i
	}

	ranked, err := s.rank(ctx, req.Query, pool, req.MaxResults)
	if err != nil {
		s.logger.Warn("hybrid ranking failed", zap.Error(err))
		s.recordMerge("ranking_error", start)
		return nil, err
	}

	result := &MergeResult{
		Documents:        ranked,
		LocalCandidates:  len(local),
		RemoteCandidates: len(remote),
	}

	if req.Persist != "" && req.Persist != PersistSkip && len(remote) > 0 {
		if ctx.Err() != nil {
			s.recordMerge("cancelled", start)
			return nil, ctx.Err()
		}
		// remote из пула: у них проставлен Position
		result.Persisted = s.persist(ctx, req, pool[len(local):], ranked)
	}

	s.logger.Info("hybrid merge done",
		zap.Int("local", len(local)),
		zap.Int("remote", len(remote)),
		zap.Int("returned", len(ranked)),
		zap.Int("persisted", result.Persisted),
		zap.Duration("duration", time.Since(start)),
	)
	s.recordMerge("success", start)

	return result, nil
}

func (s *hybridService) searchLocal(ctx context.Context, query string, limit int) ([]domain.Document, error) {
	vec, err := embedding.EmbedOne(ctx, s.embedder, query, embedding.KindQuery)
	if err != nil {
		return nil, domain.NewCollaboratorError(domain.CollaboratorEmbedding, err)
	}

	docs, err := s.store.VectorSearch(ctx, s.config.Index, vec, limit)
	if err != nil {
		return nil, domain.NewCollaboratorError(domain.CollaboratorStore, err)
	}

	if len(docs) > limit {
		docs = docs[:limit]
	}
	out := make([]domain.Document, len(docs))
	for i, d := range docs {
		d.Origin = domain.OriginLocal
		out[i] = d
	}
	return out, nil
}

func (s *hybridService) searchRemote(ctx context.Context, query string, limit int, opts search.SearchOptions) ([]domain.Document, error) {
	opts.MaxResults = limit

	resp, err := s.search.Search(ctx, search.SearchRequest{
		Query:         query,
		SearchOptions: opts,
	})
	if err != nil {
		return nil, domain.NewCollaboratorError(domain.CollaboratorRemoteSearch, err)
	}
	results := resp.Results
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	out := make([]domain.Document, 0, len(results))
	for _, r := range results {
		out = append(out, domain.Document{
			Content:    r.Content,
			Score:      r.Score,
			Origin:     domain.OriginRemote,
			Title:      r.Title,
			URL:        r.URL,
			RawContent: r.RawContent,
		})
	}
	return out, nil
}

// rank отдает пул ранжировщику и приводит ответ к контракту:
// не больше topN, по убыванию скора, при равенстве раньше тот, кто раньше в пуле.
func (s *hybridService) rank(ctx context.Context, query string, pool []domain.Document, topN int) ([]domain.Document, error) {
	if len(pool) == 0 || topN == 0 {
		return []domain.Document{}, nil
	}

	ranked, err := s.ranker.Rank(ctx, query, pool, topN)
	if err != nil {
		return nil, domain.NewCollaboratorError(domain.CollaboratorRanking, err)
	}

	for _, d := range ranked {
		if !d.Origin.IsValid() {
			return nil, domain.NewCollaboratorError(domain.CollaboratorRanking,
				fmt.Errorf("document with invalid origin %q", d.Origin))
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Position < ranked[j].Position
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked, nil
}

// persist сохраняет все удаленные кандидаты (а не только попавшие в ответ).
// Ошибки по отдельным документам только логируются.
func (s *hybridService) persist(ctx context.Context, req MergeRequest, remote, ranked []domain.Document) int {
	contents := make([]string, len(remote))
	for i, d := range remote {
		contents[i] = d.Content
	}

	vecs, err := s.embedder.Embed(ctx, contents, embedding.KindDocument)
	if err == nil && len(vecs) != len(remote) {
		err = fmt.Errorf("%w: got %d for %d documents", embedding.ErrCountMismatch, len(vecs), len(remote))
	}
	if err != nil {
		s.logger.Warn("embed remote documents failed, nothing persisted",
			zap.Int("documents", len(remote)),
			zap.Error(err),
		)
		s.recordPersist("embed_error", len(remote))
		return 0
	}

	// свежие вектора отдаем и в ответ
	byPosition := make(map[int][]float32, len(remote))
	for i, d := range remote {
		byPosition[d.Position] = vecs[i]
	}
	for i := range ranked {
		if ranked[i].Origin == domain.OriginRemote {
			if v, ok := byPosition[ranked[i].Position]; ok {
				ranked[i].Embedding = v
			}
		}
	}

	saved := 0
	for i, doc := range remote {
		doc.Embedding = vecs[i]

		rec, err := s.buildRecord(req, doc)
		if errors.Is(err, domain.ErrSkipPersist) || (err == nil && rec == nil) {
			s.recordPersist("skipped", 1)
			continue
		}
		if err != nil {
			s.logger.Warn("build record failed", zap.String("url", doc.URL), zap.Error(err))
			s.recordPersist("error", 1)
			continue
		}

		if err := s.store.Insert(ctx, s.config.Index, rec); err != nil {
			if errors.Is(err, domain.ErrDuplicateDocument) {
				s.logger.Debug("document already stored", zap.String("url", doc.URL))
				s.recordPersist("duplicate", 1)
				continue
			}
			s.logger.Warn("persist document failed",
				zap.String("index", s.config.Index),
				zap.String("url", doc.URL),
				zap.Error(err),
			)
			s.recordPersist("error", 1)
			continue
		}

		saved++
		s.recordPersist("saved", 1)
	}

	return saved
}

func (s *hybridService) buildRecord(req MergeRequest, doc domain.Document) (domain.Record, error) {
	if req.Persist == PersistCustom {
		return req.SaveFunc(doc)
	}
	return domain.DefaultRecord(doc), nil
}

func (s *hybridService) recordMerge(status string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordMerge(status, time.Since(start))
	}
}

func (s *hybridService) recordPersist(status string, n int) {
	if s.metrics == nil {
		return
	}
	for i := 0; i < n; i++ {
		s.metrics.RecordPersist(status)
	}
}
