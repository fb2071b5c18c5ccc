package taskstore

import (
	"fmt"
	"time"
)

// Priority is the closed set of task priority levels.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// ParsePriority validates a priority string against the closed set.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return Priority(s), nil
	}
	return "", fmt.Errorf("unknown priority %q: %w", s, ErrInvalidInput)
}

// Well-known status values. Status is open-ended in stored data: agents may
// write statuses beyond these, so the store validates only that a status is
// non-empty.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Task is one persisted unit of work. ID is immutable once assigned;
// UpdatedAt strictly increases on every mutation.
type Task struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Priority          Priority  `json:"priority"`
	Status            string    `json:"status"`
	Deadline          string    `json:"deadline"`
	EstimatedDuration int       `json:"estimated_duration"`
	Tags              []string  `json:"tags"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Collection is the single persisted document shared by all task records.
type Collection struct {
	Tasks       []Task    `json:"tasks"`
	LastUpdated time.Time `json:"last_updated"`
}

// CreateTask carries the caller-supplied fields for a new task. Zero values
// fall back to the documented defaults (medium priority, pending status,
// 60 minute duration, empty tags).
type CreateTask struct {
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Priority          string   `json:"priority"`
	Status            string   `json:"status"`
	Deadline          string   `json:"deadline"`
	EstimatedDuration int      `json:"estimated_duration"`
	Tags              []string `json:"tags"`
}

// UpdateTask carries a partial update; nil fields are left untouched.
type UpdateTask struct {
	Title             *string `json:"title,omitempty"`
	Description       *string `json:"description,omitempty"`
	Priority          *string `json:"priority,omitempty"`
	Status            *string `json:"status,omitempty"`
	Deadline          *string `json:"deadline,omitempty"`
	EstimatedDuration *int    `json:"estimated_duration,omitempty"`
}

// Filter narrows List results. Empty fields impose no constraint; supplied
// fields are ANDed and matched by exact string equality.
type Filter struct {
	Status   string `json:"status,omitempty"`
	Priority string `json:"priority,omitempty"`
}

// Summary is the report over the whole collection.
type Summary struct {
	TotalTasks     int            `json:"total_tasks"`
	ByStatus       map[string]int `json:"by_status"`
	ByPriority     map[string]int `json:"by_priority"`
	OverdueTasks   int            `json:"overdue_tasks"`
	CompletionRate float64        `json:"completion_rate"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

// deadline strings arrive from agents in a handful of ISO shapes
var deadlineLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseDeadline returns the parsed deadline and whether it was parseable.
// Unparseable deadlines are stored as-is and simply excluded from overdue
// accounting, matching the store's permissive write path.
func parseDeadline(s string) (time.Time, bool) {
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
