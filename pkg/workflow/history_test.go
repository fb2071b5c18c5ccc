package workflow

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFileHistoryMissingFile(t *testing.T) {
	history := NewFileHistory(filepath.Join(t.TempDir(), "history.json"))

	entries, err := history.Entries("u1")
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries from missing file, want 0", len(entries))
	}
}

func TestFileHistoryAppendPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.json")
	history := NewFileHistory(path)

	completedAt := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	if err := history.Append(CompletionEntry{
		ID: "e1", UserID: "u1", TaskID: "t1", TaskName: "logged",
		CompletedAt: completedAt, DurationMinutes: 25, Priority: "low", WasOnTime: true,
	}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	// A fresh handle over the same file sees the entry.
	entries, err := NewFileHistory(path).Entries("u1")
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 1 || entries[0].TaskName != "logged" {
		t.Errorf("entries = %+v", entries)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), `"entries"`) {
		t.Errorf("persisted document missing entries key: %s", data)
	}
}

func TestFileHistoryFiltersByUser(t *testing.T) {
	history := NewFileHistory(filepath.Join(t.TempDir(), "history.json"))

	for _, userID := range []string{"u1", "u2", "u1"} {
		if err := history.Append(CompletionEntry{ID: "e", UserID: userID, TaskID: "t"}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	entries, err := history.Entries("u1")
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries for u1, want 2", len(entries))
	}
}
