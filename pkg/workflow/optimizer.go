package workflow

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// DefaultMinEntries is the minimum number of qualifying entries an analysis
// window needs before aggregates are meaningful.
const DefaultMinEntries = 5

// Analysis status values. Insufficient data is a valid terminal state of an
// analysis, not an error.
const (
	StatusOK               = "ok"
	StatusInsufficientData = "insufficient_data"
)

// Aggregate is the derived statistics over one user's window of completion
// entries. It is computed on demand and never persisted.
type Aggregate struct {
	TasksCompleted         int            `json:"tasks_completed"`
	AverageDurationMinutes float64        `json:"average_duration_minutes"`
	OnTimeRate             float64        `json:"on_time_rate"`
	PriorityDistribution   map[string]int `json:"priority_distribution"`
}

// Analysis is the result of Analyze. Aggregate is nil exactly when Status is
// insufficient_data.
type Analysis struct {
	Status          string     `json:"status"`
	UserID          string     `json:"user_id"`
	TimeRange       string     `json:"time_range"`
	EntriesFound    int        `json:"entries_found"`
	EntriesRequired int        `json:"entries_required"`
	Aggregate       *Aggregate `json:"aggregate,omitempty"`
}

// Optimizer owns the completion log and derives insights from it.
type Optimizer struct {
	store      HistoryStore
	now        func() time.Time
	minEntries int
}

// NewOptimizer creates an optimizer over the given log. minEntries <= 0
// selects DefaultMinEntries.
func NewOptimizer(store HistoryStore, minEntries int) *Optimizer {
	if minEntries <= 0 {
		minEntries = DefaultMinEntries
	}
	return &Optimizer{store: store, now: time.Now, minEntries: minEntries}
}

// Log appends a completion entry unconditionally and returns it with its
// assigned entry ID. Duplicate task IDs are permitted; the log never rejects.
func (o *Optimizer) Log(entry CompletionEntry) (CompletionEntry, error) {
	if entry.UserID == "" {
		return CompletionEntry{}, fmt.Errorf("user_id is required")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CompletedAt.IsZero() {
		entry.CompletedAt = o.now()
	}
	if err := o.store.Append(entry); err != nil {
		return CompletionEntry{}, err
	}
	return entry, nil
}

// windowDays maps a time range name to calendar days back from now.
func windowDays(timeRange string) (int, error) {
	switch timeRange {
	case "day":
		return 1, nil
	case "week", "":
		return 7, nil
	case "month":
		return 30, nil
	}
	return 0, fmt.Errorf("unknown time range %q (want day, week or month)", timeRange)
}

// Analyze restricts the user's entries to the trailing window and computes
// count, average duration, on-time rate and priority distribution. Fewer
// qualifying entries than the configured minimum yields an
// insufficient_data analysis rather than an error.
func (o *Optimizer) Analyze(userID, timeRange string) (Analysis, error) {
	days, err := windowDays(timeRange)
	if err != nil {
		return Analysis{}, err
	}
	if timeRange == "" {
		timeRange = "week"
	}

	entries, err := o.store.Entries(userID)
	if err != nil {
		return Analysis{}, err
	}

	cutoff := o.now().AddDate(0, 0, -days)
	qualifying := []CompletionEntry{}
	for _, e := range entries {
		if !e.CompletedAt.Before(cutoff) {
			qualifying = append(qualifying, e)
		}
	}

	analysis := Analysis{
		UserID:          userID,
		TimeRange:       timeRange,
		EntriesFound:    len(qualifying),
		EntriesRequired: o.minEntries,
	}
	if len(qualifying) < o.minEntries {
		analysis.Status = StatusInsufficientData
		return analysis, nil
	}

	var totalDuration, onTime int
	distribution := map[string]int{}
	for _, e := range qualifying {
		totalDuration += e.DurationMinutes
		if e.WasOnTime {
			onTime++
		}
		distribution[e.Priority]++
	}

	n := float64(len(qualifying))
	analysis.Status = StatusOK
	analysis.Aggregate = &Aggregate{
		TasksCompleted:         len(qualifying),
		AverageDurationMinutes: math.Round(float64(totalDuration)/n*10) / 10,
		OnTimeRate:             math.Round(float64(onTime)/n*100) / 100,
		PriorityDistribution:   distribution,
	}
	return analysis, nil
}
