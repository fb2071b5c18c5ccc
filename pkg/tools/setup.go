package tools

import (
	"fmt"
	"path/filepath"
	"time"

	"productivity-agent/pkg/taskstore"
	"productivity-agent/pkg/workflow"
)

// Storage backend names accepted in configuration.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config selects the storage backend and data locations for the tool set.
type Config struct {
	Backend           string
	DataDir           string
	TasksFile         string
	HistoryFile       string
	MinHistoryEntries int
}

// Toolset bundles the registry with the typed components behind it, so the
// HTTP server can expose REST routes next to the raw tool endpoint.
type Toolset struct {
	Registry  *Registry
	Store     *taskstore.Store
	Optimizer *workflow.Optimizer
}

// Build wires the full tool set (task_store, date_calculator,
// workflow_optimizer, prioritize_tasks) over the configured storage backend.
// The returned closer releases database handles; it is a no-op for the file
// and memory backends.
func Build(cfg Config) (*Toolset, func() error, error) {
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}

	var (
		storage taskstore.Storage
		history workflow.HistoryStore
		closer  = func() error { return nil }
	)

	switch cfg.Backend {
	case BackendJSON, "":
		tasksFile := cfg.TasksFile
		if tasksFile == "" {
			tasksFile = filepath.Join(cfg.DataDir, "tasks.json")
		}
		historyFile := cfg.HistoryFile
		if historyFile == "" {
			historyFile = filepath.Join(cfg.DataDir, "workflow_history.json")
		}
		storage = taskstore.NewFileStorage(tasksFile)
		history = workflow.NewFileHistory(historyFile)

	case BackendSQLite:
		dbPath := filepath.Join(cfg.DataDir, "productivity.db")
		sqlStorage, err := taskstore.NewSQLiteStorage(dbPath)
		if err != nil {
			return nil, nil, fmt.Errorf("task storage: %w", err)
		}
		sqlHistory, err := workflow.NewSQLiteHistory(dbPath)
		if err != nil {
			sqlStorage.Close()
			return nil, nil, fmt.Errorf("history storage: %w", err)
		}
		storage = sqlStorage
		history = sqlHistory
		closer = func() error {
			errStorage := sqlStorage.Close()
			if err := sqlHistory.Close(); err != nil {
				return err
			}
			return errStorage
		}

	case BackendMemory:
		storage = taskstore.NewMemoryStorage()
		history = workflow.NewMemoryHistory()

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q (want json, sqlite or memory)", cfg.Backend)
	}

	store := taskstore.NewStore(storage)
	optimizer := workflow.NewOptimizer(history, cfg.MinHistoryEntries)
	ts := &Toolset{
		Registry: NewRegistry(
			NewTaskTool(store),
			NewDateTool(time.Now),
			NewWorkflowTool(optimizer),
			NewPrioritizeTool(),
		),
		Store:     store,
		Optimizer: optimizer,
	}
	return ts, closer, nil
}
