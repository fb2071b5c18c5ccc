package taskstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStorage implements Storage on a SQLite database. It keeps the
// whole-document replacement semantics of the file backend: Save rewrites the
// task table inside one transaction, so a failed save leaves the previous
// state intact.
type SQLiteStorage struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	position INTEGER PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	priority TEXT NOT NULL,
	status TEXT NOT NULL,
	deadline TEXT NOT NULL DEFAULT '',
	estimated_duration INTEGER NOT NULL,
	tags TEXT NOT NULL DEFAULT '[]',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS collection_meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// NewSQLiteStorage opens (creating if needed) the database at dbPath.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %v: %w", err, ErrStorage)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %v: %w", err, ErrStorage)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("create schema: %v: %w", err, ErrStorage)
	}
	return &SQLiteStorage{db: db}, nil
}

func (s *SQLiteStorage) Load() (*Collection, error) {
	rows, err := s.db.Query(`
		SELECT id, title, description, priority, status, deadline,
		       estimated_duration, tags, created_at, updated_at
		FROM tasks ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %v: %w", err, ErrStorage)
	}
	defer rows.Close()

	col := &Collection{Tasks: []Task{}}
	for rows.Next() {
		var t Task
		var priority, tagsJSON, createdAt, updatedAt string
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &priority, &t.Status,
			&t.Deadline, &t.EstimatedDuration, &tagsJSON, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %v: %w", err, ErrStorage)
		}
		t.Priority = Priority(priority)
		if err := json.Unmarshal([]byte(tagsJSON), &t.Tags); err != nil {
			return nil, fmt.Errorf("parse tags for %s: %v: %w", t.ID, err, ErrStorage)
		}
		if t.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at for %s: %v: %w", t.ID, err, ErrStorage)
		}
		if t.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
			return nil, fmt.Errorf("parse updated_at for %s: %v: %w", t.ID, err, ErrStorage)
		}
		col.Tasks = append(col.Tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %v: %w", err, ErrStorage)
	}

	var lastUpdated string
	err = s.db.QueryRow(`SELECT value FROM collection_meta WHERE key = 'last_updated'`).Scan(&lastUpdated)
	switch {
	case err == sql.ErrNoRows:
		// fresh database
	case err != nil:
		return nil, fmt.Errorf("query last_updated: %v: %w", err, ErrStorage)
	default:
		if col.LastUpdated, err = time.Parse(time.RFC3339Nano, lastUpdated); err != nil {
			return nil, fmt.Errorf("parse last_updated: %v: %w", err, ErrStorage)
		}
	}
	return col, nil
}

func (s *SQLiteStorage) Save(col *Collection) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %v: %w", err, ErrStorage)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tasks`); err != nil {
		return fmt.Errorf("clear tasks: %v: %w", err, ErrStorage)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO tasks (position, id, title, description, priority, status,
			deadline, estimated_duration, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %v: %w", err, ErrStorage)
	}
	defer stmt.Close()

	for i, t := range col.Tasks {
		tags := t.Tags
		if tags == nil {
			tags = []string{}
		}
		tagsJSON, err := json.Marshal(tags)
		if err != nil {
			return fmt.Errorf("encode tags for %s: %v: %w", t.ID, err, ErrStorage)
		}
		if _, err := stmt.Exec(i, t.ID, t.Title, t.Description, string(t.Priority), t.Status,
			t.Deadline, t.EstimatedDuration, string(tagsJSON),
			t.CreatedAt.Format(time.RFC3339Nano), t.UpdatedAt.Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("insert task %s: %v: %w", t.ID, err, ErrStorage)
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO collection_meta (key, value) VALUES ('last_updated', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		col.LastUpdated.Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("record last_updated: %v: %w", err, ErrStorage)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %v: %w", err, ErrStorage)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
