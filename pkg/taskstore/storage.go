package taskstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Storage persists the whole task collection as one document. Implementations
// do not lock: the Store serializes every read-modify-write cycle itself.
// Writes are whole-document replacements, so a failed write leaves the prior
// persisted state intact.
type Storage interface {
	Load() (*Collection, error)
	Save(*Collection) error
}

// FileStorage keeps the collection in a single JSON file
// ({"tasks": [...], "last_updated": ...}). A missing file reads as an empty
// collection rather than an error. Concurrent processes writing the same file
// still race last-write-wins; only in-process callers are serialized.
type FileStorage struct {
	path string
}

// NewFileStorage creates file-backed storage at path. The file is created
// lazily on first save.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (f *FileStorage) Load() (*Collection, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return &Collection{Tasks: []Task{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %v: %w", f.path, err, ErrStorage)
	}

	var col Collection
	if err := json.Unmarshal(data, &col); err != nil {
		return nil, fmt.Errorf("parse %s: %v: %w", f.path, err, ErrStorage)
	}
	if col.Tasks == nil {
		col.Tasks = []Task{}
	}
	return &col, nil
}

func (f *FileStorage) Save(col *Collection) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("create data directory: %v: %w", err, ErrStorage)
	}
	data, err := json.MarshalIndent(col, "", "  ")
	if err != nil {
		return fmt.Errorf("encode collection: %v: %w", err, ErrStorage)
	}
	if err := os.WriteFile(f.path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %v: %w", f.path, err, ErrStorage)
	}
	return nil
}

// MemoryStorage holds the collection in memory. Used by tests and as the
// throwaway backend for demo runs.
type MemoryStorage struct {
	col Collection
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{col: Collection{Tasks: []Task{}}}
}

func (m *MemoryStorage) Load() (*Collection, error) {
	col := Collection{
		Tasks:       append([]Task(nil), m.col.Tasks...),
		LastUpdated: m.col.LastUpdated,
	}
	return &col, nil
}

func (m *MemoryStorage) Save(col *Collection) error {
	m.col = Collection{
		Tasks:       append([]Task(nil), col.Tasks...),
		LastUpdated: col.LastUpdated,
	}
	return nil
}
