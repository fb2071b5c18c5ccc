package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"productivity-agent/pkg/taskstore"
	"productivity-agent/pkg/tools"
)

// handleCreateTask creates a task from a JSON body of caller-supplied fields.
// Missing fields fall back to the store defaults.
func (api *APIServer) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req taskstore.CreateTask
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.writeBadRequest(w, "invalid JSON input")
		return
	}

	task, err := api.toolset.Store.Create(req)
	if err != nil {
		api.writeError(w, err)
		return
	}

	api.logger.WithField("task_id", task.ID).Info("task created")
	api.writeJSON(w, http.StatusCreated, tools.TaskMutationResponse{
		Status:  "success",
		Message: "Task saved successfully",
		Task:    task,
	})
}

// handleListTasks lists tasks, narrowed by optional status and priority
// query parameters.
func (api *APIServer) handleListTasks(w http.ResponseWriter, r *http.Request) {
	filter := taskstore.Filter{
		Status:   r.URL.Query().Get("status"),
		Priority: r.URL.Query().Get("priority"),
	}

	tasks, err := api.toolset.Store.List(filter)
	if err != nil {
		api.writeError(w, err)
		return
	}

	col, err := api.toolset.Store.Snapshot()
	if err != nil {
		api.writeError(w, err)
		return
	}
	lastUpdated := ""
	if !col.LastUpdated.IsZero() {
		lastUpdated = col.LastUpdated.Format(time.RFC3339Nano)
	}

	api.writeJSON(w, http.StatusOK, tools.TaskListResponse{
		Tasks:       tasks,
		Count:       len(tasks),
		LastUpdated: lastUpdated,
	})
}

func (api *APIServer) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req taskstore.UpdateTask
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.writeBadRequest(w, "invalid JSON input")
		return
	}

	task, err := api.toolset.Store.Update(id, req)
	if err != nil {
		if errors.Is(err, taskstore.ErrNotFound) {
			api.writeJSON(w, http.StatusNotFound, tools.ErrorResponse{
				Error: fmt.Sprintf("task with id %s not found", id),
			})
			return
		}
		api.writeError(w, err)
		return
	}

	api.writeJSON(w, http.StatusOK, tools.TaskMutationResponse{
		Status:  "success",
		Message: "Task updated successfully",
		Task:    task,
	})
}

func (api *APIServer) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	remaining, err := api.toolset.Store.Delete(id)
	if err != nil {
		if errors.Is(err, taskstore.ErrNotFound) {
			api.writeJSON(w, http.StatusNotFound, tools.ErrorResponse{
				Error: fmt.Sprintf("task with id %s not found", id),
			})
			return
		}
		api.writeError(w, err)
		return
	}

	api.logger.WithField("task_id", id).Info("task deleted")
	api.writeJSON(w, http.StatusOK, tools.TaskDeleteResponse{
		Status:         "success",
		Message:        fmt.Sprintf("Task %s deleted successfully", id),
		RemainingTasks: remaining,
	})
}

func (api *APIServer) handleTaskReport(w http.ResponseWriter, r *http.Request) {
	sum, err := api.toolset.Store.Report()
	if err != nil {
		api.writeError(w, err)
		return
	}

	api.writeJSON(w, http.StatusOK, tools.TaskReportResponse{
		Summary: tools.ReportSummary{
			TotalTasks:   sum.TotalTasks,
			ByStatus:     sum.ByStatus,
			ByPriority:   sum.ByPriority,
			OverdueTasks: sum.OverdueTasks,
		},
		CompletionRate: sum.CompletionRate,
		GeneratedAt:    sum.GeneratedAt,
	})
}

// handleTaskExport streams the export in the requested format. The csv
// format is returned as text/csv; json keeps the tool response envelope.
func (api *APIServer) handleTaskExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = taskstore.FormatJSON
	}

	data, count, err := api.toolset.Store.Export(format)
	if err != nil {
		api.writeError(w, err)
		return
	}

	if format == taskstore.FormatCSV {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="tasks.csv"`)
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, data)
		return
	}

	api.writeJSON(w, http.StatusOK, tools.TaskExportResponse{
		Format: format,
		Data:   json.RawMessage(data),
		Count:  count,
	})
}
