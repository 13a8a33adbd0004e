package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-planner/internal/dto"
	"github.com/noah-isme/timetable-planner/internal/models"
	appErrors "github.com/noah-isme/timetable-planner/pkg/errors"
)

type searcherStub struct {
	calls  int32
	result *models.SearchResult
	errs   []error
}

func (s *searcherStub) Search(context.Context, dto.TimetableSearchRequest) (*models.SearchResult, error) {
	n := int(atomic.AddInt32(&s.calls, 1)) - 1
	if n < len(s.errs) && s.errs[n] != nil {
		return nil, s.errs[n]
	}
	return s.result, nil
}

func newJobFixture(t *testing.T, searcher timetableSearcher, retries int) *SearchJobService {
	t.Helper()
	svc := NewSearchJobService(searcher, SearchJobConfig{
		Workers:    1,
		BufferSize: 4,
		Retries:    retries,
		RetryDelay: time.Millisecond,
		ResultTTL:  time.Minute,
	}, nil, nil)
	svc.Start(context.Background())
	t.Cleanup(svc.Stop)
	return svc
}

func waitForJob(t *testing.T, svc *SearchJobService, id string) models.SearchJob {
	t.Helper()
	var job models.SearchJob
	require.Eventually(t, func() bool {
		var err error
		job, err = svc.Get(context.Background(), id)
		return err == nil && job.Finished()
	}, 2*time.Second, 5*time.Millisecond)
	return job
}

func TestSearchJobSucceeds(t *testing.T) {
	result := &models.SearchResult{Streams: []string{"lec-mon"}, Score: 0}
	svc := newJobFixture(t, &searcherStub{result: result}, 0)

	job, err := svc.Submit(context.Background(), dto.TimetableSearchRequest{Components: twoByTwo()})
	require.NoError(t, err)
	assert.Equal(t, models.SearchJobPending, job.Status)
	assert.NotEmpty(t, job.ID)

	done := waitForJob(t, svc, job.ID)
	assert.Equal(t, models.SearchJobSucceeded, done.Status)
	assert.Same(t, result, done.Result)
}

func TestSearchJobRetriesInternalErrors(t *testing.T) {
	stub := &searcherStub{
		result: &models.SearchResult{Score: 1},
		errs:   []error{errors.New("transient")},
	}
	svc := newJobFixture(t, stub, 1)

	job, err := svc.Submit(context.Background(), dto.TimetableSearchRequest{Components: twoByTwo()})
	require.NoError(t, err)

	done := waitForJob(t, svc, job.ID)
	assert.Equal(t, models.SearchJobSucceeded, done.Status)
	assert.Equal(t, int32(2), atomic.LoadInt32(&stub.calls))
}

func TestSearchJobDoesNotRetryDomainErrors(t *testing.T) {
	stub := &searcherStub{errs: []error{appErrors.Clone(appErrors.ErrInvalidOptions, "component \"x\" has no selectable streams")}}
	svc := newJobFixture(t, stub, 3)

	job, err := svc.Submit(context.Background(), dto.TimetableSearchRequest{Components: twoByTwo()})
	require.NoError(t, err)

	done := waitForJob(t, svc, job.ID)
	assert.Equal(t, models.SearchJobFailed, done.Status)
	assert.Equal(t, appErrors.ErrInvalidOptions.Code, done.ErrorCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&stub.calls))
}

func TestSearchJobValidationAndLookup(t *testing.T) {
	svc := newJobFixture(t, &searcherStub{}, 0)

	_, err := svc.Submit(context.Background(), dto.TimetableSearchRequest{MaxSpawn: 100})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSearchJobExpiresFinishedJobs(t *testing.T) {
	svc := newJobFixture(t, &searcherStub{result: &models.SearchResult{}}, 0)
	job, err := svc.Submit(context.Background(), dto.TimetableSearchRequest{Components: twoByTwo()})
	require.NoError(t, err)
	waitForJob(t, svc, job.ID)

	later := time.Now().UTC().Add(2 * time.Minute)
	svc.mu.Lock()
	svc.now = func() time.Time { return later }
	svc.mu.Unlock()

	_, err = svc.Get(context.Background(), job.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSearchJobRejectsWhenStopped(t *testing.T) {
	svc := NewSearchJobService(&searcherStub{}, SearchJobConfig{}, nil, nil)

	_, err := svc.Submit(context.Background(), dto.TimetableSearchRequest{Components: twoByTwo()})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnavailable.Code, appErrors.FromError(err).Code)
}

type blockingSearcher struct {
	release chan struct{}
}

func (b *blockingSearcher) Search(ctx context.Context, _ dto.TimetableSearchRequest) (*models.SearchResult, error) {
	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return &models.SearchResult{}, nil
}

func TestSearchJobQueueDepthInMetrics(t *testing.T) {
	searcher := &blockingSearcher{release: make(chan struct{})}
	svc := newJobFixture(t, searcher, 0)
	metrics := NewMetricsService()
	metrics.TrackQueueDepth(svc.QueueDepth)

	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		job, err := svc.Submit(context.Background(), dto.TimetableSearchRequest{Components: twoByTwo()})
		require.NoError(t, err)
		ids = append(ids, job.ID)
	}

	require.Eventually(t, func() bool { return svc.QueueDepth() == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, 2, metrics.Snapshot().QueuedSearchJobs)

	close(searcher.release)
	for _, id := range ids {
		assert.Equal(t, models.SearchJobSucceeded, waitForJob(t, svc, id).Status)
	}
	assert.Equal(t, 0, metrics.Snapshot().QueuedSearchJobs)
}
