package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/timetable-planner/internal/models"
)

func scoreWith(policy ScoringPolicy, fixed []models.Session, values ...*models.Stream) float64 {
	matrix := BuildClashMatrix(values)
	scorer := NewPolicyScorerFactory(policy)(matrix, fixed)
	return scorer.Score(values, make([]int, len(values)))
}

func TestPolicyScorerMinimisesClash(t *testing.T) {
	a := stream("a", slot(models.DayMonday, 9, 11))
	b := stream("b", slot(models.DayMonday, 10, 12))
	c := stream("c", slot(models.DayTuesday, 9, 11))

	assert.Equal(t, -1.0, scoreWith(DefaultScoringPolicy(), nil, a, b))
	assert.Equal(t, 0.0, scoreWith(DefaultScoringPolicy(), nil, a, c))
	assert.Equal(t, -2.0, scoreWith(DefaultScoringPolicy(), []models.Session{slot(models.DayTuesday, 8, 12)}, a, c))
}

func TestPolicyScorerClashLimit(t *testing.T) {
	a := stream("a", slot(models.DayMonday, 9, 11))
	b := stream("b", slot(models.DayMonday, 9, 11))
	policy := ScoringPolicy{ClashWeight: 1, MaxClashHours: 1}

	assert.True(t, math.IsInf(scoreWith(policy, nil, a, b), -1))

	b.Sessions[0].Start = 10
	assert.Equal(t, -1.0, scoreWith(policy, nil, a, b))
}

func TestPolicyScorerFreeDays(t *testing.T) {
	policy := ScoringPolicy{ClashWeight: 1, FreeDayBonus: 2}
	packed := stream("packed", slot(models.DayMonday, 9, 10), slot(models.DayMonday, 11, 12))
	spread := stream("spread", slot(models.DayMonday, 9, 10), slot(models.DayWednesday, 11, 12))

	assert.Equal(t, 8.0, scoreWith(policy, nil, packed))
	assert.Equal(t, 6.0, scoreWith(policy, nil, spread))
	assert.Equal(t, 4.0, scoreWith(policy, []models.Session{slot(models.DayFriday, 9, 10)}, spread))
}

func TestPolicyScorerPreferredHours(t *testing.T) {
	policy := ScoringPolicy{EarlyStart: 9, LateEnd: 17, OutsideHoursPenalty: 1}
	early := stream("early", slot(models.DayMonday, 8, 10))
	late := stream("late", slot(models.DayMonday, 16, 18.5))
	inside := stream("inside", slot(models.DayTuesday, 10, 12))

	assert.Equal(t, -1.0, scoreWith(policy, nil, early))
	assert.Equal(t, -1.5, scoreWith(policy, nil, late))
	assert.Equal(t, 0.0, scoreWith(policy, nil, inside))
}

func TestPolicyScorerStreamsOutsideMatrix(t *testing.T) {
	a := stream("a", slot(models.DayMonday, 9, 11))
	b := stream("b", slot(models.DayMonday, 10, 12))
	scorer := NewPolicyScorerFactory(DefaultScoringPolicy())(BuildClashMatrix([]*models.Stream{a}), nil)

	assert.Equal(t, -1.0, scorer.Score([]*models.Stream{a, b}, []int{0, 0}))
}

func TestPolicyScorerSharedStreamIDsAcrossComponents(t *testing.T) {
	lecture := []*models.Stream{
		stream("1", slot(models.DayMonday, 9, 10)),
		stream("2", slot(models.DayTuesday, 9, 10)),
	}
	tutorial := []*models.Stream{
		stream("1", slot(models.DayMonday, 9, 10)),
		stream("2", slot(models.DayWednesday, 9, 10)),
	}
	matrix := BuildClashMatrix(append(append([]*models.Stream{}, lecture...), tutorial...))
	scorer := NewPolicyScorerFactory(DefaultScoringPolicy())(matrix, nil)

	assert.Equal(t, -1.0, scorer.Score([]*models.Stream{lecture[0], tutorial[0]}, []int{0, 0}))
	assert.Equal(t, 0.0, scorer.Score([]*models.Stream{lecture[1], tutorial[1]}, []int{1, 1}))
}
