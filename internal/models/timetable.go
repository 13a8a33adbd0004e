package models

import (
	"fmt"
	"math"
	"strconv"
)

// Day is a single-letter weekday code.
type Day string

// Supported day codes.
const (
	DayMonday    Day = "M"
	DayTuesday   Day = "T"
	DayWednesday Day = "W"
	DayThursday  Day = "H"
	DayFriday    Day = "F"
	DaySaturday  Day = "S"
	DaySunday    Day = "U"
)

// Weekdays lists the teaching days considered for free-day preferences.
var Weekdays = []Day{DayMonday, DayTuesday, DayWednesday, DayThursday, DayFriday}

// Session is one weekly meeting occurrence. Start and End are fractional
// hours of the day at half-hour granularity.
type Session struct {
	ID       string  `json:"id,omitempty"`
	Day      Day     `json:"day" validate:"required,oneof=M T W H F S U"`
	Start    float64 `json:"start" validate:"gte=0,lt=24"`
	End      float64 `json:"end" validate:"gt=0,lte=24,gtfield=Start"`
	CanClash bool    `json:"canClash,omitempty"`
}

// Identity returns the session ID, or a description of its slot when the ID is empty.
func (s Session) Identity() string {
	if s.ID != "" {
		return s.ID
	}
	id := fmt.Sprintf("%s:%s-%s", s.Day, formatHour(s.Start), formatHour(s.End))
	if s.CanClash {
		id += "~"
	}
	return id
}

// Stream is one selectable option for a component.
type Stream struct {
	ID        string    `json:"id" validate:"required"`
	Component string    `json:"component,omitempty"`
	Sessions  []Session `json:"sessions" validate:"required,min=1,dive"`
}

// Component is a group of mutually exclusive streams; exactly one is chosen.
type Component struct {
	ID      string    `json:"id" validate:"required"`
	Name    string    `json:"name,omitempty"`
	Streams []*Stream `json:"streams" validate:"dive,required"`
}

// SearchResult is the flattened winning timetable. Score is -Inf when no
// valid timetable exists, so it is converted before being encoded.
type SearchResult struct {
	Timetable []Session
	Streams   []string
	Score     float64
}

// Feasible reports whether a valid timetable was found.
func (r *SearchResult) Feasible() bool {
	return r != nil && !math.IsInf(r.Score, -1)
}

func formatHour(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}
