package dto

import (
	"time"

	"github.com/noah-isme/timetable-planner/internal/models"
	"github.com/noah-isme/timetable-planner/pkg/evolution"
)

// InfeasibleMessage is returned when no valid timetable could be built.
const InfeasibleMessage = "could not build a timetable with the current selections"

// SearchConfigOverride tunes the engine for one request. Omitted fields keep
// the server defaults.
type SearchConfigOverride struct {
	MaxTimeMs      int `json:"maxTimeMs" validate:"omitempty,min=1,max=10000"`
	MaxIterations  int `json:"maxIterations" validate:"omitempty,min=1,max=200000"`
	CheckIters     int `json:"checkIters" validate:"omitempty,min=1"`
	InitialParents int `json:"initialParents" validate:"omitempty,min=1,max=5000"`
	MaxParents     int `json:"maxParents" validate:"omitempty,min=1,max=1000"`
	BiasTop        int `json:"biasTop" validate:"omitempty,min=1"`
}

// EngineConfig converts the override into engine tunables.
func (o *SearchConfigOverride) EngineConfig() evolution.Config {
	if o == nil {
		return evolution.Config{}
	}
	return evolution.Config{
		MaxTime:        time.Duration(o.MaxTimeMs) * time.Millisecond,
		MaxIterations:  o.MaxIterations,
		CheckIters:     o.CheckIters,
		InitialParents: o.InitialParents,
		MaxParents:     o.MaxParents,
		BiasTop:        o.BiasTop,
	}
}

// TimetableSearchRequest asks the planner to choose one stream per component.
type TimetableSearchRequest struct {
	Components    []models.Component    `json:"components" validate:"dive"`
	FixedSessions []models.Session      `json:"fixedSessions" validate:"dive"`
	MaxSpawn      int                   `json:"maxSpawn" validate:"omitempty,min=1,max=32"`
	IgnoreCache   bool                  `json:"ignoreCache"`
	Config        *SearchConfigOverride `json:"config" validate:"omitempty"`
}

// TimetableSearchResponse is the encoded search result. Score is nil when
// no feasible timetable exists.
type TimetableSearchResponse struct {
	Feasible  bool             `json:"feasible"`
	Score     *float64         `json:"score"`
	Timetable []models.Session `json:"timetable"`
	Streams   []string         `json:"streams"`
	Message   string           `json:"message,omitempty"`
}

// NewTimetableSearchResponse converts a search result for encoding.
func NewTimetableSearchResponse(result *models.SearchResult) TimetableSearchResponse {
	resp := TimetableSearchResponse{
		Timetable: []models.Session{},
		Streams:   []string{},
	}
	if result == nil {
		resp.Message = InfeasibleMessage
		return resp
	}
	if result.Timetable != nil {
		resp.Timetable = result.Timetable
	}
	if result.Streams != nil {
		resp.Streams = result.Streams
	}
	if !result.Feasible() {
		resp.Message = InfeasibleMessage
		return resp
	}
	score := result.Score
	resp.Feasible = true
	resp.Score = &score
	return resp
}

// SearchJobResponse reports the state of an asynchronous search.
type SearchJobResponse struct {
	JobID     string                   `json:"jobId"`
	Status    string                   `json:"status"`
	Result    *TimetableSearchResponse `json:"result,omitempty"`
	Error     *JobError                `json:"error,omitempty"`
	CreatedAt time.Time                `json:"createdAt"`
	UpdatedAt time.Time                `json:"updatedAt"`
}

// JobError describes why an asynchronous search failed.
type JobError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewSearchJobResponse converts a job snapshot for encoding.
func NewSearchJobResponse(job models.SearchJob) SearchJobResponse {
	resp := SearchJobResponse{
		JobID:     job.ID,
		Status:    string(job.Status),
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
	if job.Status == models.SearchJobSucceeded {
		result := NewTimetableSearchResponse(job.Result)
		resp.Result = &result
	}
	if job.ErrorCode != "" {
		resp.Error = &JobError{Code: job.ErrorCode, Message: job.ErrorMessage}
	}
	return resp
}
