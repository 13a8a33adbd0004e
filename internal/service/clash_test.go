package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-planner/internal/models"
)

func TestSessionClash(t *testing.T) {
	cases := []struct {
		name string
		a    models.Session
		b    models.Session
		want float64
	}{
		{
			name: "relaxed clash is halved",
			a:    models.Session{Day: models.DayMonday, Start: 11, End: 12, CanClash: true},
			b:    models.Session{Day: models.DayMonday, Start: 11, End: 12},
			want: 0.5,
		},
		{
			name: "full overlap",
			a:    models.Session{Day: models.DayTuesday, Start: 10, End: 11},
			b:    models.Session{Day: models.DayTuesday, Start: 10, End: 11},
			want: 1,
		},
		{
			name: "adjacent sessions",
			a:    models.Session{Day: models.DayWednesday, Start: 10, End: 11},
			b:    models.Session{Day: models.DayWednesday, Start: 11, End: 12},
			want: 0,
		},
		{
			name: "partial overlap",
			a:    models.Session{Day: models.DayFriday, Start: 9, End: 11},
			b:    models.Session{Day: models.DayFriday, Start: 10.5, End: 13},
			want: 0.5,
		},
		{
			name: "contained session",
			a:    models.Session{Day: models.DayThursday, Start: 9, End: 13},
			b:    models.Session{Day: models.DayThursday, Start: 10, End: 11.5},
			want: 1.5,
		},
		{
			name: "different days never clash",
			a:    models.Session{Day: models.DayMonday, Start: 10, End: 11},
			b:    models.Session{Day: models.DayTuesday, Start: 10, End: 11},
			want: 0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SessionClash(tc.a, tc.b))
			assert.Equal(t, tc.want, SessionClash(tc.b, tc.a))
		})
	}
}

func TestSessionClashDifferentDaysAcrossWeek(t *testing.T) {
	days := []models.Day{models.DayMonday, models.DayTuesday, models.DayWednesday, models.DayThursday, models.DayFriday, models.DaySaturday, models.DaySunday}
	for _, da := range days {
		for _, db := range days {
			if da == db {
				continue
			}
			a := models.Session{Day: da, Start: 8, End: 18}
			b := models.Session{Day: db, Start: 8, End: 18}
			assert.Zero(t, SessionClash(a, b))
		}
	}
}

func TestStreamClashSymmetric(t *testing.T) {
	a := &models.Stream{ID: "a", Sessions: []models.Session{
		{Day: models.DayMonday, Start: 9, End: 11},
		{Day: models.DayWednesday, Start: 14, End: 15, CanClash: true},
	}}
	b := &models.Stream{ID: "b", Sessions: []models.Session{
		{Day: models.DayMonday, Start: 10, End: 12},
		{Day: models.DayWednesday, Start: 14, End: 16},
		{Day: models.DayFriday, Start: 9, End: 10},
	}}

	assert.Equal(t, 1.5, StreamClash(a, b))
	assert.Equal(t, StreamClash(a, b), StreamClash(b, a))
}

func TestBuildClashMatrix(t *testing.T) {
	a := &models.Stream{ID: "lec-1", Sessions: []models.Session{{Day: models.DayMonday, Start: 9, End: 11}}}
	b := &models.Stream{ID: "tut-1", Sessions: []models.Session{{Day: models.DayMonday, Start: 10, End: 11}}}
	c := &models.Stream{ID: "tut-2", Sessions: []models.Session{{Day: models.DayTuesday, Start: 10, End: 11}}}

	matrix := BuildClashMatrix([]*models.Stream{a, b, c, b})
	require.Equal(t, 3, matrix.Len())

	for i := 0; i < matrix.Len(); i++ {
		for j := 0; j < matrix.Len(); j++ {
			assert.Equal(t, matrix.CostAt(i, j), matrix.CostAt(j, i))
		}
	}
	assert.Equal(t, 1.0, matrix.Cost(a, b))
	assert.Equal(t, 0.0, matrix.Cost(a, c))

	stranger := &models.Stream{ID: "other", Sessions: []models.Session{{Day: models.DayMonday, Start: 9, End: 10}}}
	assert.Equal(t, 1.0, matrix.Cost(stranger, a))

	idx, ok := matrix.Index(c)
	require.True(t, ok)
	assert.Same(t, c, matrix.Stream(idx))
}

func TestBuildClashMatrixKeepsSharedIDsApart(t *testing.T) {
	lecture := &models.Stream{ID: "1", Sessions: []models.Session{{Day: models.DayMonday, Start: 9, End: 10}}}
	tutorial := &models.Stream{ID: "1", Sessions: []models.Session{{Day: models.DayMonday, Start: 9, End: 10}}}

	matrix := BuildClashMatrix([]*models.Stream{lecture, tutorial})
	require.Equal(t, 2, matrix.Len())

	i, ok := matrix.Index(lecture)
	require.True(t, ok)
	j, ok := matrix.Index(tutorial)
	require.True(t, ok)
	assert.NotEqual(t, i, j)
	assert.Equal(t, 1.0, matrix.CostAt(i, j))
	assert.Equal(t, 1.0, matrix.Cost(lecture, tutorial))
}
