package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-planner/internal/dto"
	"github.com/noah-isme/timetable-planner/internal/models"
	appErrors "github.com/noah-isme/timetable-planner/pkg/errors"
	"github.com/noah-isme/timetable-planner/pkg/jobs"
)

// JobTypeTimetableSearch labels queued timetable searches.
const JobTypeTimetableSearch = "timetable.search"

type timetableSearcher interface {
	Search(ctx context.Context, req dto.TimetableSearchRequest) (*models.SearchResult, error)
}

// SearchJobConfig configures asynchronous searches.
type SearchJobConfig struct {
	Workers    int
	BufferSize int
	Retries    int
	RetryDelay time.Duration
	ResultTTL  time.Duration
}

// SearchJobService runs timetable searches in the background and keeps their
// outcome for polling until ResultTTL passes.
type SearchJobService struct {
	searcher  timetableSearcher
	queue     *jobs.Queue
	validator *validator.Validate
	logger    *zap.Logger
	retries   int
	ttl       time.Duration
	now       func() time.Time

	mu   sync.Mutex
	jobs map[string]*models.SearchJob
}

// NewSearchJobService wires the job store to an in-memory worker queue.
func NewSearchJobService(searcher timetableSearcher, cfg SearchJobConfig, validate *validator.Validate, logger *zap.Logger) *SearchJobService {
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 30 * time.Minute
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SearchJobService{
		searcher:  searcher,
		validator: validate,
		logger:    logger,
		retries:   cfg.Retries,
		ttl:       cfg.ResultTTL,
		now:       func() time.Time { return time.Now().UTC() },
		jobs:      make(map[string]*models.SearchJob),
	}
	s.queue = jobs.NewQueue("timetable-search", s.process, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the background workers.
func (s *SearchJobService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop waits for running searches to return. Pending jobs are abandoned.
func (s *SearchJobService) Stop() {
	s.queue.Stop()
}

// QueueDepth reports how many submitted searches are waiting for a worker.
func (s *SearchJobService) QueueDepth() int {
	return s.queue.Depth()
}

// Submit validates the request and queues it for a background search.
func (s *SearchJobService) Submit(ctx context.Context, req dto.TimetableSearchRequest) (models.SearchJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.SearchJob{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable search payload")
	}

	now := s.now()
	job := &models.SearchJob{
		ID:        uuid.NewString(),
		Status:    models.SearchJobPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.purgeLocked(now)
	s.jobs[job.ID] = job
	snapshot := *job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: JobTypeTimetableSearch, Payload: req}); err != nil {
		s.mu.Lock()
		delete(s.jobs, job.ID)
		s.mu.Unlock()
		if errors.Is(err, jobs.ErrQueueFull) {
			return models.SearchJob{}, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "search queue is full, retry later")
		}
		return models.SearchJob{}, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "search queue is not accepting jobs")
	}

	s.logger.Debug("timetable search queued", zap.String("job_id", job.ID), zap.Int("components", len(req.Components)))
	return snapshot, nil
}

// Get returns a snapshot of the job.
func (s *SearchJobService) Get(_ context.Context, id string) (models.SearchJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked(s.now())
	job, ok := s.jobs[id]
	if !ok {
		return models.SearchJob{}, appErrors.Clone(appErrors.ErrNotFound, "search job not found or expired")
	}
	return *job, nil
}

func (s *SearchJobService) process(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(dto.TimetableSearchRequest)
	if !ok {
		s.finish(job.ID, nil, appErrors.Clone(appErrors.ErrInternal, fmt.Sprintf("unexpected payload %T", job.Payload)))
		return nil
	}

	s.update(job.ID, func(j *models.SearchJob) { j.Status = models.SearchJobRunning })
	result, err := s.searcher.Search(ctx, req)
	if err != nil {
		appErr := appErrors.FromError(err)
		if appErr.Code == appErrors.ErrInternal.Code && job.Attempt < s.retries {
			s.update(job.ID, func(j *models.SearchJob) { j.Status = models.SearchJobPending })
			return err
		}
		s.finish(job.ID, nil, appErr)
		return nil
	}
	s.finish(job.ID, result, nil)
	return nil
}

func (s *SearchJobService) finish(id string, result *models.SearchResult, appErr *appErrors.Error) {
	s.update(id, func(j *models.SearchJob) {
		if appErr != nil {
			j.Status = models.SearchJobFailed
			j.ErrorCode = appErr.Code
			j.ErrorMessage = appErr.Message
			return
		}
		j.Status = models.SearchJobSucceeded
		j.Result = result
	})
	if appErr != nil {
		s.logger.Warn("timetable search job failed", zap.String("job_id", id), zap.String("code", appErr.Code), zap.Error(appErr))
	}
}

func (s *SearchJobService) update(id string, fn func(*models.SearchJob)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return
	}
	fn(job)
	job.UpdatedAt = s.now()
}

func (s *SearchJobService) purgeLocked(now time.Time) {
	for id, job := range s.jobs {
		if job.Finished() && now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}
