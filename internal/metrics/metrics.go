package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	MergesTotal     *prometheus.CounterVec
	MergeDuration   prometheus.Histogram
	CandidatesTotal *prometheus.CounterVec
	PersistedTotal  *prometheus.CounterVec

	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	RateLimitWaitsTotal *prometheus.CounterVec
}

// New registers collectors in reg. Pass prometheus.DefaultRegisterer in
// production and a fresh prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	m := &Metrics{
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tavily_requests_total",
				Help: "Total number of remote API requests",
			},
			[]string{"endpoint", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tavily_request_duration_seconds",
				Help:    "Remote API request duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"endpoint"},
		),

		MergesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tavily_hybrid_merges_total",
				Help: "Total number of hybrid search merges",
			},
			[]string{"status"},
		),
		MergeDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tavily_hybrid_merge_duration_seconds",
				Help:    "Hybrid merge duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
		),
		CandidatesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tavily_hybrid_candidates_total",
				Help: "Candidates entering the rerank pool by origin",
			},
			[]string{"origin"},
		),
		PersistedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tavily_hybrid_persisted_total",
				Help: "Remote documents written to the local store",
			},
			[]string{"status"},
		),

		CacheHitsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "tavily_cache_hits_total",
				Help: "Total number of cache hits",
			},
		),
		CacheMissesTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "tavily_cache_misses_total",
				Help: "Total number of cache misses",
			},
		),

		RateLimitWaitsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tavily_rate_limit_waits_total",
				Help: "Requests delayed by the client-side rate limiter",
			},
			[]string{"endpoint"},
		),
	}

	return m
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor serves only the collectors of the given gatherer.
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordRequest(endpoint, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(endpoint, status).Inc()
	m.RequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *Metrics) RecordMerge(status string, duration time.Duration) {
	m.MergesTotal.WithLabelValues(status).Inc()
	m.MergeDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordCandidates(origin string, n int) {
	m.CandidatesTotal.WithLabelValues(origin).Add(float64(n))
}

func (m *Metrics) RecordPersist(status string) {
	m.PersistedTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordCacheHit() {
	m.CacheHitsTotal.Inc()
}

func (m *Metrics) RecordCacheMiss() {
	m.CacheMissesTotal.Inc()
}

func (m *Metrics) RecordRateLimitWait(endpoint string) {
	m.RateLimitWaitsTotal.WithLabelValues(endpoint).Inc()
}
