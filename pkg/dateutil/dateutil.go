// Package dateutil provides the calendar arithmetic behind the
// date_calculator tool: deadline distance with urgency banding, date
// addition, interval conflict detection and business-day counting. All
// functions are pure; callers inject "now".
package dateutil

import (
	"fmt"
	"math"
	"time"
)

// Urgency bands for DaysUntil. The thresholds are fixed: 1 day or less
// (including overdue) is critical, 3 or less high, 7 or less medium,
// everything further out low.
const (
	UrgencyCritical = "critical"
	UrgencyHigh     = "high"
	UrgencyMedium   = "medium"
	UrgencyLow      = "low"
)

// DeadlineInfo is the result of DaysUntil.
type DeadlineInfo struct {
	DaysRemaining int    `json:"days_remaining"`
	UrgencyLevel  string `json:"urgency_level"`
}

// Conflict is the result of CheckConflict.
type Conflict struct {
	HasConflict    bool `json:"has_conflict"`
	OverlapMinutes int  `json:"overlap_minutes"`
}

// DaySpan is the result of WorkingDays.
type DaySpan struct {
	WorkingDays int `json:"working_days"`
	WeekendDays int `json:"weekend_days"`
	TotalDays   int `json:"total_days"`
}

// dateOf truncates a timestamp to its calendar date in its own location.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysUntil computes the whole calendar days between now and the deadline
// (negative when the deadline has passed) and bands the result into an
// urgency level.
func DaysUntil(now, deadline time.Time) DeadlineInfo {
	// Round instead of truncate: a DST transition makes a calendar day 23 or
	// 25 hours long.
	days := int(math.Round(dateOf(deadline).Sub(dateOf(now.In(deadline.Location()))).Hours() / 24))

	var urgency string
	switch {
	case days <= 1:
		urgency = UrgencyCritical
	case days <= 3:
		urgency = UrgencyHigh
	case days <= 7:
		urgency = UrgencyMedium
	default:
		urgency = UrgencyLow
	}
	return DeadlineInfo{DaysRemaining: days, UrgencyLevel: urgency}
}

// AddDays performs calendar-correct date addition (month and year rollover
// included) and reports the weekday of the resulting date.
func AddDays(start time.Time, days int) (time.Time, time.Weekday) {
	result := start.AddDate(0, 0, days)
	return result, result.Weekday()
}

// CheckConflict reports whether two intervals share any open overlap and the
// size of the intersection in whole minutes. Intervals that merely touch do
// not conflict. The check is symmetric in its two events.
func CheckConflict(aStart, aEnd, bStart, bEnd time.Time) Conflict {
	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	if !end.After(start) {
		return Conflict{}
	}
	return Conflict{
		HasConflict:    true,
		OverlapMinutes: int(end.Sub(start).Minutes()),
	}
}

// WorkingDays counts weekdays and weekend days over the inclusive span
// between the two dates, in either order.
func WorkingDays(start, end time.Time) DaySpan {
	a, b := dateOf(start), dateOf(end)
	if b.Before(a) {
		a, b = b, a
	}

	var span DaySpan
	for d := a; !d.After(b); d = d.AddDate(0, 0, 1) {
		switch d.Weekday() {
		case time.Saturday, time.Sunday:
			span.WeekendDays++
		default:
			span.WorkingDays++
		}
		span.TotalDays++
	}
	return span
}

// layouts accepted from agent-supplied date strings
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Parse reads an agent-supplied date or datetime string in any of the
// accepted ISO shapes.
func Parse(s string) (time.Time, error) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
