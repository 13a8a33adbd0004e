package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/timetable-planner/internal/dto"
	"github.com/noah-isme/timetable-planner/internal/models"
	appErrors "github.com/noah-isme/timetable-planner/pkg/errors"
	"github.com/noah-isme/timetable-planner/pkg/evolution"
	"github.com/noah-isme/timetable-planner/pkg/middleware/requestid"
)

const (
	defaultMaxSpawn = 5

	keyFieldSep  = "\x1f"
	keyRecordSep = "\x1e"
)

// TimetableSearchConfig carries server-side defaults for searches.
type TimetableSearchConfig struct {
	MaxSpawn      int
	MaxComponents int
	Engine        evolution.Config
}

// searchWorker runs one complete engine search with its own seed.
type searchWorker func(ctx context.Context, scorer evolution.Scorer[*models.Stream], cfg evolution.Config, data [][]*models.Stream, seed int64) (evolution.Candidate[*models.Stream], error)

func engineWorker(ctx context.Context, scorer evolution.Scorer[*models.Stream], cfg evolution.Config, data [][]*models.Stream, seed int64) (evolution.Candidate[*models.Stream], error) {
	return evolution.New(scorer, cfg, evolution.WithSeed(seed)).Search(ctx, data)
}

// TimetableSearchService picks one stream per component by running several
// independent evolutionary searches and keeping the best result.
type TimetableSearchService struct {
	cfg       TimetableSearchConfig
	scorers   ScorerFactory
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger

	worker searchWorker
	seedMu sync.Mutex
	seeds  *rand.Rand

	memoMu sync.Mutex
	memo   map[string]*models.SearchResult
}

// NewTimetableSearchService constructs the search orchestrator.
func NewTimetableSearchService(
	cfg TimetableSearchConfig,
	scorers ScorerFactory,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *TimetableSearchService {
	if cfg.MaxSpawn <= 0 {
		cfg.MaxSpawn = defaultMaxSpawn
	}
	cfg.Engine = cfg.Engine.WithDefaults()
	if scorers == nil {
		scorers = NewPolicyScorerFactory(DefaultScoringPolicy())
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableSearchService{
		cfg:       cfg,
		scorers:   scorers,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		worker:    engineWorker,
		seeds:     rand.New(rand.NewSource(time.Now().UnixNano())),
		memo:      make(map[string]*models.SearchResult),
	}
}

// Search returns the best timetable found for the request. An infeasible
// outcome is a result with a -Inf score, not an error.
func (s *TimetableSearchService) Search(ctx context.Context, req dto.TimetableSearchRequest) (*models.SearchResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable search payload")
	}
	if s.cfg.MaxComponents > 0 && len(req.Components) > s.cfg.MaxComponents {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d components can be planned at once", s.cfg.MaxComponents))
	}
	for _, component := range req.Components {
		if len(component.Streams) == 0 {
			return nil, appErrors.Clone(appErrors.ErrInvalidOptions, fmt.Sprintf("component %q has no selectable streams", component.ID))
		}
	}

	key := searchKey(req.Components, req.FixedSessions)
	if !req.IgnoreCache {
		if cached, ok := s.lookup(ctx, key); ok {
			return cached, nil
		}
	}

	start := time.Now()
	data := make([][]*models.Stream, len(req.Components))
	var all []*models.Stream
	for i, component := range req.Components {
		data[i] = component.Streams
		all = append(all, component.Streams...)
	}
	matrix := BuildClashMatrix(all)
	scorer := s.scorers(matrix, req.FixedSessions)
	engineCfg := s.cfg.Engine.Merge(req.Config.EngineConfig())

	spawn := req.MaxSpawn
	if spawn <= 0 {
		spawn = s.cfg.MaxSpawn
	}

	best, err := s.fanOut(ctx, spawn, scorer, engineCfg, data)
	if err != nil {
		return nil, translateSearchError(err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		// workers stopped early, so best is only a partial answer and must not be cached
		s.logger.Info("timetable search cancelled", zap.Int("components", len(req.Components)), zap.Error(ctxErr))
		return nil, appErrors.Wrap(ctxErr, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "timetable search was cancelled")
	}

	result := flatten(best)
	elapsed := time.Since(start)
	s.metrics.ObserveSearch(elapsed, spawn, result.Feasible())
	s.logger.Info("timetable search completed",
		zap.Int("components", len(req.Components)),
		zap.Int("streams", matrix.Len()),
		zap.Int("workers", spawn),
		zap.Bool("feasible", result.Feasible()),
		zap.Float64("score", finiteOrZero(result.Score)),
		zap.Duration("duration", elapsed),
		zap.String("request_id", requestid.FromContext(ctx)),
	)

	if !req.IgnoreCache {
		s.memoMu.Lock()
		s.memo[key] = result
		s.memoMu.Unlock()
		s.cache.Store(ctx, key, result)
	}
	return result, nil
}

// Purge forgets every memoized result, locally and in the shared cache.
func (s *TimetableSearchService) Purge(ctx context.Context) error {
	s.memoMu.Lock()
	s.memo = make(map[string]*models.SearchResult)
	s.memoMu.Unlock()
	if err := s.cache.Purge(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to purge shared cache")
	}
	return nil
}

func (s *TimetableSearchService) lookup(ctx context.Context, key string) (*models.SearchResult, bool) {
	s.memoMu.Lock()
	cached, ok := s.memo[key]
	s.memoMu.Unlock()
	s.metrics.RecordMemoLookup(ok)
	if ok {
		return cached, true
	}

	shared, ok := s.cache.Lookup(ctx, key)
	if !ok {
		return nil, false
	}
	s.memoMu.Lock()
	if existing, found := s.memo[key]; found {
		shared = existing
	} else {
		s.memo[key] = shared
	}
	s.memoMu.Unlock()
	return shared, true
}

func (s *TimetableSearchService) fanOut(ctx context.Context, spawn int, scorer evolution.Scorer[*models.Stream], cfg evolution.Config, data [][]*models.Stream) (evolution.Candidate[*models.Stream], error) {
	results := make([]evolution.Candidate[*models.Stream], spawn)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < spawn; i++ {
		i, seed := i, s.nextSeed()
		g.Go(func() error {
			candidate, err := s.worker(gctx, scorer, cfg, data, seed)
			if err != nil {
				return err
			}
			results[i] = candidate
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return evolution.Candidate[*models.Stream]{}, err
	}

	best := results[0]
	for _, candidate := range results[1:] {
		if candidate.Score > best.Score {
			best = candidate
		}
	}
	return best, nil
}

func (s *TimetableSearchService) nextSeed() int64 {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()
	return s.seeds.Int63()
}

func translateSearchError(err error) error {
	var appErr *appErrors.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, evolution.ErrEmptyOptions):
		return appErrors.Wrap(err, appErrors.ErrInvalidOptions.Code, appErrors.ErrInvalidOptions.Status, appErrors.ErrInvalidOptions.Message)
	case errors.Is(err, evolution.ErrScorer):
		return appErrors.Wrap(err, appErrors.ErrScorer.Code, appErrors.ErrScorer.Status, appErrors.ErrScorer.Message)
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "timetable search failed")
	}
}

func flatten(best evolution.Candidate[*models.Stream]) *models.SearchResult {
	result := &models.SearchResult{
		Timetable: []models.Session{},
		Streams:   make([]string, 0, len(best.Values)),
		Score:     best.Score,
	}
	for _, stream := range best.Values {
		result.Timetable = append(result.Timetable, stream.Sessions...)
		result.Streams = append(result.Streams, stream.ID)
	}
	return result
}

// searchKey identifies a request by its component IDs and fixed-session identities.
func searchKey(components []models.Component, fixed []models.Session) string {
	ids := make([]string, len(components))
	for i, component := range components {
		ids[i] = component.ID
	}
	sessions := make([]string, len(fixed))
	for i, session := range fixed {
		sessions[i] = session.Identity()
	}
	return strings.Join(ids, keyFieldSep) + keyRecordSep + strings.Join(sessions, keyFieldSep)
}

func finiteOrZero(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}
