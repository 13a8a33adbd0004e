package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-planner/internal/dto"
	internalmiddleware "github.com/noah-isme/timetable-planner/internal/middleware"
	"github.com/noah-isme/timetable-planner/internal/models"
	appErrors "github.com/noah-isme/timetable-planner/pkg/errors"
	"github.com/noah-isme/timetable-planner/pkg/response"
)

type timetableSearcher interface {
	Search(ctx context.Context, req dto.TimetableSearchRequest) (*models.SearchResult, error)
	Purge(ctx context.Context) error
}

type searchJobs interface {
	Submit(ctx context.Context, req dto.TimetableSearchRequest) (models.SearchJob, error)
	Get(ctx context.Context, id string) (models.SearchJob, error)
}

// TimetableHandler exposes timetable planning endpoints.
type TimetableHandler struct {
	searcher timetableSearcher
	jobs     searchJobs
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(searcher timetableSearcher, jobs searchJobs) *TimetableHandler {
	return &TimetableHandler{searcher: searcher, jobs: jobs}
}

// Search godoc
// @Summary Plan a timetable
// @Description Picks one stream per component so that clashes are minimised. An infeasible outcome is reported with feasible=false, not as an error.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.TimetableSearchRequest true "Components, fixed sessions and search tuning"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /timetable/search [post]
func (h *TimetableHandler) Search(c *gin.Context) {
	var req dto.TimetableSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid timetable search payload"))
		return
	}
	result, err := h.searcher.Search(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewTimetableSearchResponse(result), internalmiddleware.ResponseMeta(c))
}

// PurgeCache godoc
// @Summary Forget memoized timetables
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /timetable/cache [delete]
func (h *TimetableHandler) PurgeCache(c *gin.Context) {
	if err := h.searcher.Purge(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"purged": true})
}

// SubmitJob godoc
// @Summary Queue a timetable search
// @Description Runs the search in the background. Poll the returned job for the result.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.TimetableSearchRequest true "Components, fixed sessions and search tuning"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /timetable/search/jobs [post]
func (h *TimetableHandler) SubmitJob(c *gin.Context) {
	var req dto.TimetableSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid timetable search payload"))
		return
	}
	job, err := h.jobs.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Location", c.Request.URL.Path+"/"+job.ID)
	response.Accepted(c, dto.NewSearchJobResponse(job))
}

// GetJob godoc
// @Summary Poll a queued timetable search
// @Tags Timetable
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/search/jobs/{id} [get]
func (h *TimetableHandler) GetJob(c *gin.Context) {
	job, err := h.jobs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewSearchJobResponse(job))
}
