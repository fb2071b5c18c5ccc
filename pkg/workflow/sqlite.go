package workflow

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteHistory implements HistoryStore on a SQLite database. Unlike the
// task store's whole-document backend this is a true append-only table.
type SQLiteHistory struct {
	db *sql.DB
}

const historySchema = `
CREATE TABLE IF NOT EXISTS completion_entries (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	entry_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	task_id TEXT NOT NULL,
	task_name TEXT NOT NULL,
	completed_at TEXT NOT NULL,
	duration_minutes INTEGER NOT NULL,
	priority TEXT NOT NULL,
	was_on_time INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_completion_entries_user ON completion_entries (user_id);`

// NewSQLiteHistory opens (creating if needed) the history database at dbPath.
func NewSQLiteHistory(dbPath string) (*SQLiteHistory, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping history database: %w", err)
	}
	if _, err := db.Exec(historySchema); err != nil {
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &SQLiteHistory{db: db}, nil
}

func (s *SQLiteHistory) Append(entry CompletionEntry) error {
	onTime := 0
	if entry.WasOnTime {
		onTime = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO completion_entries
			(entry_id, user_id, task_id, task_name, completed_at, duration_minutes, priority, was_on_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, entry.TaskID, entry.TaskName,
		entry.CompletedAt.Format(time.RFC3339Nano), entry.DurationMinutes, entry.Priority, onTime)
	if err != nil {
		return fmt.Errorf("append completion entry: %w", err)
	}
	return nil
}

func (s *SQLiteHistory) Entries(userID string) ([]CompletionEntry, error) {
	rows, err := s.db.Query(`
		SELECT entry_id, user_id, task_id, task_name, completed_at, duration_minutes, priority, was_on_time
		FROM completion_entries WHERE user_id = ? ORDER BY seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("query completion entries: %w", err)
	}
	defer rows.Close()

	entries := []CompletionEntry{}
	for rows.Next() {
		var e CompletionEntry
		var completedAt string
		var onTime int
		if err := rows.Scan(&e.ID, &e.UserID, &e.TaskID, &e.TaskName,
			&completedAt, &e.DurationMinutes, &e.Priority, &onTime); err != nil {
			return nil, fmt.Errorf("scan completion entry: %w", err)
		}
		if e.CompletedAt, err = time.Parse(time.RFC3339Nano, completedAt); err != nil {
			return nil, fmt.Errorf("parse completed_at: %w", err)
		}
		e.WasOnTime = onTime != 0
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completion entries: %w", err)
	}
	return entries, nil
}

// Close closes the underlying database handle.
func (s *SQLiteHistory) Close() error {
	return s.db.Close()
}
