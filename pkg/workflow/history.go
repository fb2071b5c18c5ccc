// Package workflow implements the workflow_optimizer tool: an append-only
// log of task-completion events per user, windowed aggregate statistics over
// it, and a rule table that turns aggregates into textual recommendations.
package workflow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// CompletionEntry describes one finished task's timing and punctuality.
// Entries are append-only: never mutated, never deleted. Duplicate task IDs
// are permitted and counted.
type CompletionEntry struct {
	ID              string    `json:"entry_id"`
	UserID          string    `json:"user_id"`
	TaskID          string    `json:"task_id"`
	TaskName        string    `json:"task_name"`
	CompletedAt     time.Time `json:"completed_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Priority        string    `json:"priority"`
	WasOnTime       bool      `json:"was_on_time"`
}

// HistoryStore persists completion entries. All users share one log;
// Entries filters by user at read time.
type HistoryStore interface {
	Append(entry CompletionEntry) error
	Entries(userID string) ([]CompletionEntry, error)
}

// historyDocument is the persisted JSON shape of the file-backed log.
type historyDocument struct {
	Entries []CompletionEntry `json:"entries"`
}

// FileHistory keeps the log in a single JSON document. Appends are
// read-modify-write under a mutex; concurrent processes on the same file
// still race last-write-wins.
type FileHistory struct {
	mu   sync.Mutex
	path string
}

func NewFileHistory(path string) *FileHistory {
	return &FileHistory{path: path}
}

func (f *FileHistory) load() (*historyDocument, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return &historyDocument{Entries: []CompletionEntry{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	var doc historyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.path, err)
	}
	if doc.Entries == nil {
		doc.Entries = []CompletionEntry{}
	}
	return &doc, nil
}

func (f *FileHistory) Append(entry CompletionEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return err
	}
	doc.Entries = append(doc.Entries, entry)

	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", f.path, err)
	}
	return nil
}

func (f *FileHistory) Entries(userID string) ([]CompletionEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return nil, err
	}
	matched := []CompletionEntry{}
	for _, e := range doc.Entries {
		if e.UserID == userID {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

// MemoryHistory is the in-memory log used by tests.
type MemoryHistory struct {
	mu      sync.Mutex
	entries []CompletionEntry
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{entries: []CompletionEntry{}}
}

func (m *MemoryHistory) Append(entry CompletionEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MemoryHistory) Entries(userID string) ([]CompletionEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matched := []CompletionEntry{}
	for _, e := range m.entries {
		if e.UserID == userID {
			matched = append(matched, e)
		}
	}
	return matched, nil
}
