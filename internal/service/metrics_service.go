package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/timetable-planner/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	memoLookups     *prometheus.CounterVec
	searchDuration  *prometheus.HistogramVec
	workerRuns      prometheus.Counter

	cacheHitCount        uint64
	cacheMissCount       uint64
	memoHitCount         uint64
	requestCount         uint64
	requestDurationTotal uint64
	searchCount          uint64
	infeasibleCount      uint64
	searchDurationTotal  uint64
	workerRunCount       uint64

	depthMu    sync.Mutex
	queueDepth func() int
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for shared cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for shared cache writes",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of shared cache hits to total lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total shared cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total shared cache misses",
	})

	memoLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_memo_lookups_total",
		Help: "In-process memo lookups by outcome",
	}, []string{"outcome"})

	searchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timetable_search_duration_seconds",
		Help:    "Wall time of a full parallel timetable search",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 0.75, 1, 2, 5, 10},
	}, []string{"feasible"})

	workerRuns := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_search_worker_runs_total",
		Help: "Total evolutionary search workers started",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses, memoLookups, searchDuration, workerRuns, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		memoLookups:     memoLookups,
		searchDuration:  searchDuration,
		workerRuns:      workerRuns,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordMemoLookup counts in-process memo hits and misses.
func (m *MetricsService) RecordMemoLookup(hit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
		atomic.AddUint64(&m.memoHitCount, 1)
	}
	m.memoLookups.WithLabelValues(outcome).Inc()
}

// ObserveSearch records one completed orchestrator search.
func (m *MetricsService) ObserveSearch(duration time.Duration, workers int, feasible bool) {
	if m == nil {
		return
	}
	m.searchDuration.WithLabelValues(fmt.Sprintf("%t", feasible)).Observe(duration.Seconds())
	m.workerRuns.Add(float64(workers))
	atomic.AddUint64(&m.searchCount, 1)
	atomic.AddUint64(&m.searchDurationTotal, uint64(duration.Nanoseconds()))
	atomic.AddUint64(&m.workerRunCount, uint64(workers))
	if !feasible {
		atomic.AddUint64(&m.infeasibleCount, 1)
	}
}

// TrackQueueDepth exposes the number of queued search jobs reported by depth,
// both as a Prometheus gauge and in the summary. Only the first call registers.
func (m *MetricsService) TrackQueueDepth(depth func() int) {
	if m == nil || depth == nil {
		return
	}
	m.depthMu.Lock()
	defer m.depthMu.Unlock()
	if m.queueDepth != nil {
		return
	}
	m.queueDepth = depth
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "timetable_search_jobs_queued",
		Help: "Search jobs waiting for a worker",
	}, func() float64 {
		return float64(depth())
	}))
}

func (m *MetricsService) queuedJobs() int {
	m.depthMu.Lock()
	depth := m.queueDepth
	m.depthMu.Unlock()
	if depth == nil {
		return 0
	}
	return depth()
}

// Snapshot returns aggregated metrics suitable for the summary endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	searches := atomic.LoadUint64(&m.searchCount)
	searchDuration := atomic.LoadUint64(&m.searchDurationTotal)

	var cacheRatio float64
	totalLookups := hits + misses
	if totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	var avgSearchMs float64
	if searches > 0 {
		avgSearchMs = float64(searchDuration) / float64(searches) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		MemoHits:                 atomic.LoadUint64(&m.memoHitCount),
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		SearchesTotal:            searches,
		InfeasibleSearches:       atomic.LoadUint64(&m.infeasibleCount),
		AverageSearchDurationMs:  avgSearchMs,
		WorkerRuns:               atomic.LoadUint64(&m.workerRunCount),
		QueuedSearchJobs:         m.queuedJobs(),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
