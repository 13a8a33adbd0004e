package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-planner/internal/models"
	appErrors "github.com/noah-isme/timetable-planner/pkg/errors"
)

const searchCachePattern = "search:*"

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// cachedSearchResult is the JSON payload of a shared cache entry. Key holds the
// full memo key so hash collisions are detected on read.
type cachedSearchResult struct {
	Key       string           `json:"key"`
	Feasible  bool             `json:"feasible"`
	Score     float64          `json:"score"`
	Timetable []models.Session `json:"timetable"`
	Streams   []string         `json:"streams"`
}

// CacheService shares search results between planner instances through Redis.
type CacheService struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, ttl: ttl, logger: logger, enabled: enabled}
}

// Enabled indicates whether the shared tier is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Lookup returns the result stored for memoKey. Redis failures are logged and
// reported as a miss so searches keep working without the shared tier.
func (s *CacheService) Lookup(ctx context.Context, memoKey string) (*models.SearchResult, bool) {
	if !s.Enabled() {
		return nil, false
	}

	start := time.Now()
	var payload cachedSearchResult
	err := s.repo.Get(ctx, sharedCacheKey(memoKey), &payload)
	duration := time.Since(start)
	if err != nil {
		s.record(false, duration)
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("shared cache get failed", zap.Error(err))
		}
		return nil, false
	}
	if payload.Key != memoKey {
		s.record(false, duration)
		s.logger.Debug("shared cache key collision ignored")
		return nil, false
	}

	s.record(true, duration)
	result := &models.SearchResult{
		Timetable: payload.Timetable,
		Streams:   payload.Streams,
		Score:     payload.Score,
	}
	if !payload.Feasible {
		result.Score = math.Inf(-1)
	}
	return result, true
}

// Store writes result under memoKey. Failures are logged and otherwise
// ignored; the in-process memo still holds the result.
func (s *CacheService) Store(ctx context.Context, memoKey string, result *models.SearchResult) {
	if !s.Enabled() || result == nil {
		return
	}

	payload := cachedSearchResult{
		Key:       memoKey,
		Feasible:  result.Feasible(),
		Timetable: result.Timetable,
		Streams:   result.Streams,
	}
	if payload.Feasible {
		payload.Score = result.Score
	}

	start := time.Now()
	err := s.repo.Set(ctx, sharedCacheKey(memoKey), payload, s.ttl)
	if s.metrics != nil {
		s.metrics.ObserveCacheWrite(time.Since(start))
	}
	if err != nil {
		s.logger.Warn("shared cache set failed", zap.Error(err))
	}
}

// Purge removes every shared search result.
func (s *CacheService) Purge(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPattern(ctx, searchCachePattern); err != nil {
		s.logger.Warn("shared cache purge failed", zap.Error(err))
		return err
	}
	return nil
}

func (s *CacheService) record(hit bool, duration time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(hit, duration)
	}
}

func sharedCacheKey(memoKey string) string {
	return fmt.Sprintf("search:%016x", xxhash.Sum64String(memoKey))
}
