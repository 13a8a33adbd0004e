package service

import (
	"math"

	"github.com/noah-isme/timetable-planner/internal/models"
	"github.com/noah-isme/timetable-planner/pkg/evolution"
)

// ScorerFactory binds a scoring policy to one search's clash matrix and
// fixed sessions.
type ScorerFactory func(matrix *ClashMatrix, fixed []models.Session) evolution.Scorer[*models.Stream]

// ScoringPolicy holds the preference weights supplied by configuration.
// Zero weights switch the matching term off.
type ScoringPolicy struct {
	// ClashWeight multiplies the total clash hours.
	ClashWeight float64
	// MaxClashHours makes any timetable with more clash hours infeasible. 0 disables the limit.
	MaxClashHours float64
	// FreeDayBonus is added per weekday without any session.
	FreeDayBonus float64
	// EarlyStart and LateEnd bound the preferred hours of the day. 0 disables a bound.
	EarlyStart float64
	LateEnd    float64
	// OutsideHoursPenalty is subtracted per hour spent outside the preferred hours.
	OutsideHoursPenalty float64
}

// DefaultScoringPolicy only minimises clashes.
func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{ClashWeight: 1}
}

// NewPolicyScorerFactory returns a factory producing policy scorers.
func NewPolicyScorerFactory(policy ScoringPolicy) ScorerFactory {
	return func(matrix *ClashMatrix, fixed []models.Session) evolution.Scorer[*models.Stream] {
		return newPolicyScorer(policy, matrix, fixed)
	}
}

type policyScorer struct {
	policy ScoringPolicy
	matrix *ClashMatrix
	fixed  []models.Session

	// per matrix row
	fixedClash []float64
	outside    []float64
	days       []uint8

	fixedDays    uint8
	fixedOutside float64
}

var dayBits = map[models.Day]uint8{
	models.DayMonday:    1 << 0,
	models.DayTuesday:   1 << 1,
	models.DayWednesday: 1 << 2,
	models.DayThursday:  1 << 3,
	models.DayFriday:    1 << 4,
	models.DaySaturday:  1 << 5,
	models.DaySunday:    1 << 6,
}

func newPolicyScorer(policy ScoringPolicy, matrix *ClashMatrix, fixed []models.Session) *policyScorer {
	p := &policyScorer{
		policy:     policy,
		matrix:     matrix,
		fixed:      fixed,
		fixedClash: make([]float64, matrix.Len()),
		outside:    make([]float64, matrix.Len()),
		days:       make([]uint8, matrix.Len()),
	}
	for _, session := range fixed {
		p.fixedDays |= dayBits[session.Day]
		p.fixedOutside += p.outsideHours(session)
	}
	for i := 0; i < matrix.Len(); i++ {
		stream := matrix.Stream(i)
		p.fixedClash[i] = sessionsClash(stream, fixed)
		p.outside[i], p.days[i] = p.streamProfile(stream)
	}
	return p
}

// Score implements evolution.Scorer.
func (p *policyScorer) Score(values []*models.Stream, indexes []int) float64 {
	rows := make([]int, len(values))
	for i, stream := range values {
		row, ok := p.matrix.Index(stream)
		if !ok {
			row = -1
		}
		rows[i] = row
	}

	var clash, outside float64
	days := p.fixedDays
	for i, stream := range values {
		ri := rows[i]
		if ri >= 0 {
			clash += p.fixedClash[ri]
			outside += p.outside[ri]
			days |= p.days[ri]
		} else {
			clash += sessionsClash(stream, p.fixed)
			o, d := p.streamProfile(stream)
			outside += o
			days |= d
		}
		for j := i + 1; j < len(values); j++ {
			if ri >= 0 && rows[j] >= 0 {
				clash += p.matrix.CostAt(ri, rows[j])
			} else {
				clash += p.matrix.Cost(stream, values[j])
			}
		}
	}

	if p.policy.MaxClashHours > 0 && clash > p.policy.MaxClashHours {
		return math.Inf(-1)
	}

	score := -p.policy.ClashWeight * clash
	if p.policy.FreeDayBonus != 0 {
		free := 0
		for _, day := range models.Weekdays {
			if days&dayBits[day] == 0 {
				free++
			}
		}
		score += p.policy.FreeDayBonus * float64(free)
	}
	if p.policy.OutsideHoursPenalty != 0 {
		score -= p.policy.OutsideHoursPenalty * (outside + p.fixedOutside)
	}
	return score
}

func (p *policyScorer) streamProfile(stream *models.Stream) (float64, uint8) {
	var outside float64
	var days uint8
	for _, session := range stream.Sessions {
		outside += p.outsideHours(session)
		days |= dayBits[session.Day]
	}
	return outside, days
}

func (p *policyScorer) outsideHours(s models.Session) float64 {
	var hours float64
	if p.policy.EarlyStart > 0 {
		hours += math.Max(math.Min(s.End, p.policy.EarlyStart)-s.Start, 0)
	}
	if p.policy.LateEnd > 0 {
		hours += math.Max(s.End-math.Max(s.Start, p.policy.LateEnd), 0)
	}
	return hours
}
