package service

import (
	"math"

	"github.com/noah-isme/timetable-planner/internal/models"
)

// relaxedClashFactor scales overlap when either session allows clashing.
const relaxedClashFactor = 0.5

// SessionClash returns the overlap between two sessions in hours, halved
// when either side may clash.
func SessionClash(a, b models.Session) float64 {
	if a.Day != b.Day {
		return 0
	}
	overlap := math.Max(math.Min(a.End, b.End)-math.Max(a.Start, b.Start), 0)
	if a.CanClash || b.CanClash {
		return overlap * relaxedClashFactor
	}
	return overlap
}

// StreamClash sums SessionClash over every pair of sessions of a and b.
func StreamClash(a, b *models.Stream) float64 {
	var total float64
	for _, sa := range a.Sessions {
		for _, sb := range b.Sessions {
			total += SessionClash(sa, sb)
		}
	}
	return total
}

// sessionsClash sums SessionClash between a stream and loose sessions.
func sessionsClash(stream *models.Stream, sessions []models.Session) float64 {
	var total float64
	for _, sa := range stream.Sessions {
		for _, sb := range sessions {
			total += SessionClash(sa, sb)
		}
	}
	return total
}

// ClashMatrix holds the clash cost between every pair of streams taking
// part in one search. It is read-only once built and safe to share.
type ClashMatrix struct {
	index   map[*models.Stream]int
	streams []*models.Stream
	costs   [][]float64
}

// BuildClashMatrix computes the all-pairs clash cost. Streams are keyed by
// pointer, so equal IDs in different components keep separate rows; a
// pointer listed twice is counted once.
func BuildClashMatrix(streams []*models.Stream) *ClashMatrix {
	m := &ClashMatrix{index: make(map[*models.Stream]int, len(streams))}
	for _, stream := range streams {
		if stream == nil {
			continue
		}
		if _, ok := m.index[stream]; ok {
			continue
		}
		m.index[stream] = len(m.streams)
		m.streams = append(m.streams, stream)
	}

	n := len(m.streams)
	m.costs = make([][]float64, n)
	for i := range m.costs {
		m.costs[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			cost := StreamClash(m.streams[i], m.streams[j])
			m.costs[i][j] = cost
			m.costs[j][i] = cost
		}
	}
	return m
}

// Len returns the number of distinct streams.
func (m *ClashMatrix) Len() int {
	return len(m.streams)
}

// Index returns the row of a stream.
func (m *ClashMatrix) Index(stream *models.Stream) (int, bool) {
	if stream == nil {
		return 0, false
	}
	i, ok := m.index[stream]
	return i, ok
}

// Stream returns the stream stored at row i.
func (m *ClashMatrix) Stream(i int) *models.Stream {
	return m.streams[i]
}

// CostAt returns the cost between rows i and j.
func (m *ClashMatrix) CostAt(i, j int) float64 {
	return m.costs[i][j]
}

// Cost returns the clash cost between two streams, computing it directly
// for streams the matrix was not built with.
func (m *ClashMatrix) Cost(a, b *models.Stream) float64 {
	i, okA := m.Index(a)
	j, okB := m.Index(b)
	if okA && okB {
		return m.costs[i][j]
	}
	return StreamClash(a, b)
}
