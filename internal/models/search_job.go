package models

import "time"

// SearchJobStatus enumerates asynchronous search states.
type SearchJobStatus string

const (
	SearchJobPending   SearchJobStatus = "PENDING"
	SearchJobRunning   SearchJobStatus = "RUNNING"
	SearchJobSucceeded SearchJobStatus = "SUCCEEDED"
	SearchJobFailed    SearchJobStatus = "FAILED"
)

// SearchJob tracks a queued timetable search.
type SearchJob struct {
	ID           string
	Status       SearchJobStatus
	Result       *SearchResult
	ErrorCode    string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Finished reports whether the job reached a terminal state.
func (j SearchJob) Finished() bool {
	return j.Status == SearchJobSucceeded || j.Status == SearchJobFailed
}
