package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"productivity-agent/pkg/taskstore"
)

// TaskRequest is the task_store tool request. Pointer fields double as
// presence markers: filters for load, partial updates for update.
type TaskRequest struct {
	Action            string   `json:"action"`
	TaskID            string   `json:"task_id,omitempty"`
	Title             *string  `json:"title,omitempty"`
	Description       *string  `json:"description,omitempty"`
	Priority          *string  `json:"priority,omitempty"`
	Status            *string  `json:"status,omitempty"`
	Deadline          *string  `json:"deadline,omitempty"`
	EstimatedDuration *int     `json:"estimated_duration,omitempty"`
	Tags              []string `json:"tags,omitempty"`
	Format            string   `json:"format,omitempty"`
}

// TaskListResponse answers the load action.
type TaskListResponse struct {
	Tasks       []taskstore.Task `json:"tasks"`
	Count       int              `json:"count"`
	LastUpdated string           `json:"last_updated"`
}

// TaskMutationResponse answers save and update.
type TaskMutationResponse struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Task    taskstore.Task `json:"task"`
}

// TaskDeleteResponse answers delete.
type TaskDeleteResponse struct {
	Status         string `json:"status"`
	Message        string `json:"message"`
	RemainingTasks int    `json:"remaining_tasks"`
}

// ReportSummary groups the counting half of a report.
type ReportSummary struct {
	TotalTasks   int            `json:"total_tasks"`
	ByStatus     map[string]int `json:"by_status"`
	ByPriority   map[string]int `json:"by_priority"`
	OverdueTasks int            `json:"overdue_tasks"`
}

// TaskReportResponse answers report.
type TaskReportResponse struct {
	Summary        ReportSummary `json:"summary"`
	CompletionRate float64       `json:"completion_rate"`
	GeneratedAt    time.Time     `json:"generated_at"`
}

// TaskExportResponse answers export. Data is a JSON record list for the json
// format and a CSV string for csv.
type TaskExportResponse struct {
	Format string      `json:"format"`
	Data   interface{} `json:"data"`
	Count  int         `json:"count"`
}

// NewTaskTool builds the task_store tool over a store.
func NewTaskTool(store *taskstore.Store) Tool {
	return Tool{
		Name: "task_store",
		Description: "Manages task persistence: load tasks with optional status/priority " +
			"filters, save a new task, update or delete by task_id, generate a summary " +
			"report, or export as json/csv.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"action": map[string]interface{}{
					"type":        "string",
					"description": "Operation to perform",
					"enum":        []string{"load", "save", "update", "delete", "report", "export"},
				},
				"task_id": map[string]interface{}{
					"type":        "string",
					"description": "Task identifier (update, delete)",
				},
				"title":       map[string]interface{}{"type": "string"},
				"description": map[string]interface{}{"type": "string"},
				"priority": map[string]interface{}{
					"type": "string",
					"enum": []string{"low", "medium", "high", "critical"},
				},
				"status":   map[string]interface{}{"type": "string"},
				"deadline": map[string]interface{}{"type": "string", "description": "ISO date or datetime"},
				"estimated_duration": map[string]interface{}{
					"type":        "integer",
					"description": "Estimated minutes (default 60)",
				},
				"tags": map[string]interface{}{
					"type":  "array",
					"items": map[string]interface{}{"type": "string"},
				},
				"format": map[string]interface{}{
					"type": "string",
					"enum": []string{"json", "csv"},
				},
			},
			"required": []string{"action"},
		},
		Run: func(ctx context.Context, raw []byte) []byte {
			var req TaskRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				return errorResponse("invalid JSON input")
			}
			return runTaskAction(store, req)
		},
	}
}

func runTaskAction(store *taskstore.Store, req TaskRequest) []byte {
	switch req.Action {
	case "load":
		return loadTasks(store, req)
	case "save":
		return saveTask(store, req)
	case "update":
		return updateTask(store, req)
	case "delete":
		return deleteTask(store, req)
	case "report":
		return reportTasks(store)
	case "export":
		return exportTasks(store, req)
	}
	return errorResponse("invalid action")
}

func loadTasks(store *taskstore.Store, req TaskRequest) []byte {
	col, err := store.Snapshot()
	if err != nil {
		return errorResponse(err.Error())
	}

	filter := taskstore.Filter{}
	if req.Status != nil {
		filter.Status = *req.Status
	}
	if req.Priority != nil {
		filter.Priority = *req.Priority
	}

	tasks := []taskstore.Task{}
	for _, t := range col.Tasks {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && string(t.Priority) != filter.Priority {
			continue
		}
		tasks = append(tasks, t)
	}

	lastUpdated := ""
	if !col.LastUpdated.IsZero() {
		lastUpdated = col.LastUpdated.Format(time.RFC3339Nano)
	}
	return marshal(TaskListResponse{Tasks: tasks, Count: len(tasks), LastUpdated: lastUpdated})
}

func saveTask(store *taskstore.Store, req TaskRequest) []byte {
	create := taskstore.CreateTask{Tags: req.Tags}
	if req.Title != nil {
		create.Title = *req.Title
	}
	if req.Description != nil {
		create.Description = *req.Description
	}
	if req.Priority != nil {
		create.Priority = *req.Priority
	}
	if req.Status != nil {
		create.Status = *req.Status
	}
	if req.Deadline != nil {
		create.Deadline = *req.Deadline
	}
	if req.EstimatedDuration != nil {
		create.EstimatedDuration = *req.EstimatedDuration
	}

	task, err := store.Create(create)
	if err != nil {
		return errorResponse(err.Error())
	}
	return marshal(TaskMutationResponse{
		Status:  "success",
		Message: "Task saved successfully",
		Task:    task,
	})
}

func updateTask(store *taskstore.Store, req TaskRequest) []byte {
	if req.TaskID == "" {
		return errorResponse("task_id is required")
	}
	task, err := store.Update(req.TaskID, taskstore.UpdateTask{
		Title:             req.Title,
		Description:       req.Description,
		Priority:          req.Priority,
		Status:            req.Status,
		Deadline:          req.Deadline,
		EstimatedDuration: req.EstimatedDuration,
	})
	if err != nil {
		if errors.Is(err, taskstore.ErrNotFound) {
			return errorResponse(fmt.Sprintf("task with id %s not found", req.TaskID))
		}
		return errorResponse(err.Error())
	}
	return marshal(TaskMutationResponse{
		Status:  "success",
		Message: "Task updated successfully",
		Task:    task,
	})
}

func deleteTask(store *taskstore.Store, req TaskRequest) []byte {
	if req.TaskID == "" {
		return errorResponse("task_id is required")
	}
	remaining, err := store.Delete(req.TaskID)
	if err != nil {
		if errors.Is(err, taskstore.ErrNotFound) {
			return errorResponse(fmt.Sprintf("task with id %s not found", req.TaskID))
		}
		return errorResponse(err.Error())
	}
	return marshal(TaskDeleteResponse{
		Status:         "success",
		Message:        fmt.Sprintf("Task %s deleted successfully", req.TaskID),
		RemainingTasks: remaining,
	})
}

func reportTasks(store *taskstore.Store) []byte {
	sum, err := store.Report()
	if err != nil {
		return errorResponse(err.Error())
	}
	return marshal(TaskReportResponse{
		Summary: ReportSummary{
			TotalTasks:   sum.TotalTasks,
			ByStatus:     sum.ByStatus,
			ByPriority:   sum.ByPriority,
			OverdueTasks: sum.OverdueTasks,
		},
		CompletionRate: sum.CompletionRate,
		GeneratedAt:    sum.GeneratedAt,
	})
}

func exportTasks(store *taskstore.Store, req TaskRequest) []byte {
	format := req.Format
	if format == "" {
		format = taskstore.FormatJSON
	}
	data, count, err := store.Export(format)
	if err != nil {
		return errorResponse(err.Error())
	}

	resp := TaskExportResponse{Format: format, Count: count}
	if format == taskstore.FormatJSON {
		resp.Data = json.RawMessage(data)
	} else {
		resp.Data = data
	}
	return marshal(resp)
}
