package models

import (
	"math"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestSessionIdentity(t *testing.T) {
	assert.Equal(t, "work-shift", Session{ID: "work-shift", Day: DayMonday, Start: 9, End: 17}.Identity())
	assert.Equal(t, "T:9.5-11", Session{Day: DayTuesday, Start: 9.5, End: 11}.Identity())
	assert.Equal(t, "F:14-15~", Session{Day: DayFriday, Start: 14, End: 15, CanClash: true}.Identity())
}

func TestSearchResultFeasible(t *testing.T) {
	var missing *SearchResult
	assert.False(t, missing.Feasible())
	assert.False(t, (&SearchResult{Score: math.Inf(-1)}).Feasible())
	assert.True(t, (&SearchResult{Score: -3}).Feasible())
}

func TestSessionValidation(t *testing.T) {
	v := validator.New()

	assert.NoError(t, v.Struct(Session{Day: DayWednesday, Start: 0, End: 1}))
	assert.Error(t, v.Struct(Session{Day: "X", Start: 9, End: 10}))
	assert.Error(t, v.Struct(Session{Day: DayMonday, Start: 10, End: 10}))
	assert.Error(t, v.Struct(Stream{ID: "empty"}))
	assert.NoError(t, v.Struct(Component{ID: "lab"}))
}
