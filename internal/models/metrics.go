package models

import "time"

// SystemMetrics is a JSON snapshot of the planner's runtime counters.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	MemoHits                 uint64    `json:"memo_hits"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	SearchesTotal            uint64    `json:"searches_total"`
	InfeasibleSearches       uint64    `json:"infeasible_searches"`
	AverageSearchDurationMs  float64   `json:"average_search_duration_ms"`
	WorkerRuns               uint64    `json:"worker_runs"`
	QueuedSearchJobs         int       `json:"queued_search_jobs"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
