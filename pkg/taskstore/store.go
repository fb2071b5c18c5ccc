package taskstore

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Store implements the task operations over an injected Storage backend.
// Every mutating operation performs a full read-modify-write of the backing
// document and persists synchronously before returning. The mutex enforces a
// single-writer discipline for in-process callers.
type Store struct {
	mu      sync.Mutex
	storage Storage
	now     func() time.Time
}

// NewStore creates a store over the given backend.
func NewStore(storage Storage) *Store {
	return &Store{storage: storage, now: time.Now}
}

// Create assigns a fresh identifier, applies field defaults, stamps both
// timestamps and persists the record. It fails only on invalid priority or a
// storage fault.
func (s *Store) Create(req CreateTask) (Task, error) {
	priority := PriorityMedium
	if req.Priority != "" {
		p, err := ParsePriority(req.Priority)
		if err != nil {
			return Task{}, err
		}
		priority = p
	}

	status := StatusPending
	if req.Status != "" {
		status = req.Status
	}

	title := req.Title
	if title == "" {
		title = "Untitled Task"
	}

	duration := req.EstimatedDuration
	if duration <= 0 {
		duration = 60
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.storage.Load()
	if err != nil {
		return Task{}, err
	}

	now := s.now()
	task := Task{
		ID:                fmt.Sprintf("task_%d_%s", len(col.Tasks)+1, now.Format("20060102150405")),
		Title:             title,
		Description:       req.Description,
		Priority:          priority,
		Status:            status,
		Deadline:          req.Deadline,
		EstimatedDuration: duration,
		Tags:              tags,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	col.Tasks = append(col.Tasks, task)
	col.LastUpdated = now
	if err := s.storage.Save(col); err != nil {
		return Task{}, err
	}
	return task, nil
}

// Snapshot returns the full persisted collection, including its
// last-updated stamp.
func (s *Store) Snapshot() (*Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storage.Load()
}

// List returns every task matching all supplied filter fields. It returns an
// empty slice, never an error, when nothing matches or storage is absent.
func (s *Store) List(f Filter) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.storage.Load()
	if err != nil {
		return nil, err
	}

	matched := []Task{}
	for _, t := range col.Tasks {
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Priority != "" && string(t.Priority) != f.Priority {
			continue
		}
		matched = append(matched, t)
	}
	return matched, nil
}

// Update overwrites only the supplied fields of the task, refreshes
// UpdatedAt and persists. The identifier is immutable; UpdatedAt strictly
// increases even within one clock tick.
func (s *Store) Update(id string, upd UpdateTask) (Task, error) {
	if upd.Priority != nil {
		if _, err := ParsePriority(*upd.Priority); err != nil {
			return Task{}, err
		}
	}
	if upd.Status != nil && *upd.Status == "" {
		return Task{}, fmt.Errorf("status must not be empty: %w", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.storage.Load()
	if err != nil {
		return Task{}, err
	}

	for i := range col.Tasks {
		t := &col.Tasks[i]
		if t.ID != id {
			continue
		}
		if upd.Title != nil {
			t.Title = *upd.Title
		}
		if upd.Description != nil {
			t.Description = *upd.Description
		}
		if upd.Priority != nil {
			t.Priority = Priority(*upd.Priority)
		}
		if upd.Status != nil {
			t.Status = *upd.Status
		}
		if upd.Deadline != nil {
			t.Deadline = *upd.Deadline
		}
		if upd.EstimatedDuration != nil {
			t.EstimatedDuration = *upd.EstimatedDuration
		}

		now := s.now()
		if !now.After(t.UpdatedAt) {
			now = t.UpdatedAt.Add(time.Microsecond)
		}
		t.UpdatedAt = now
		col.LastUpdated = now

		if err := s.storage.Save(col); err != nil {
			return Task{}, err
		}
		return *t, nil
	}
	return Task{}, fmt.Errorf("task %q: %w", id, ErrNotFound)
}

// Delete removes the task and returns the number of remaining records.
func (s *Store) Delete(id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.storage.Load()
	if err != nil {
		return 0, err
	}

	kept := col.Tasks[:0]
	found := false
	for _, t := range col.Tasks {
		if t.ID == id {
			found = true
			continue
		}
		kept = append(kept, t)
	}
	if !found {
		return 0, fmt.Errorf("task %q: %w", id, ErrNotFound)
	}

	col.Tasks = kept
	col.LastUpdated = s.now()
	if err := s.storage.Save(col); err != nil {
		return 0, err
	}
	return len(col.Tasks), nil
}

// Report summarizes the collection: totals, counts grouped by status and
// priority, overdue count (past deadline and not completed) and the
// completion rate as a percentage rounded to one decimal.
func (s *Store) Report() (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.storage.Load()
	if err != nil {
		return Summary{}, err
	}

	now := s.now()
	sum := Summary{
		TotalTasks:  len(col.Tasks),
		ByStatus:    map[string]int{},
		ByPriority:  map[string]int{},
		GeneratedAt: now,
	}

	for _, t := range col.Tasks {
		sum.ByStatus[t.Status]++
		sum.ByPriority[string(t.Priority)]++

		if t.Deadline == "" || t.Status == StatusCompleted {
			continue
		}
		if deadline, ok := parseDeadline(t.Deadline); ok && deadline.Before(now) {
			sum.OverdueTasks++
		}
	}

	if sum.TotalTasks > 0 {
		rate := float64(sum.ByStatus[StatusCompleted]) / float64(sum.TotalTasks) * 100
		sum.CompletionRate = math.Round(rate*10) / 10
	}
	return sum, nil
}
