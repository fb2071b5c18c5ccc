package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"productivity-agent/pkg/dateutil"
	"productivity-agent/pkg/prioritize"
	"productivity-agent/pkg/tools"
	"productivity-agent/pkg/workflow"
)

// completionRequest mirrors the workflow tool's log action, minus the
// discriminator.
type completionRequest struct {
	UserID          string `json:"user_id"`
	TaskID          string `json:"task_id"`
	TaskName        string `json:"task_name"`
	CompletedAt     string `json:"completed_at"`
	DurationMinutes int    `json:"duration_minutes"`
	Priority        string `json:"priority"`
	WasOnTime       bool   `json:"was_on_time"`
}

// handleLogCompletion appends one entry to the user's completion log.
func (api *APIServer) handleLogCompletion(w http.ResponseWriter, r *http.Request) {
	var req completionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.writeBadRequest(w, "invalid JSON input")
		return
	}
	if req.UserID == "" {
		api.writeBadRequest(w, "user_id is required")
		return
	}

	entry := workflow.CompletionEntry{
		UserID:          req.UserID,
		TaskID:          req.TaskID,
		TaskName:        req.TaskName,
		DurationMinutes: req.DurationMinutes,
		Priority:        req.Priority,
		WasOnTime:       req.WasOnTime,
	}
	if req.CompletedAt != "" {
		completedAt, err := dateutil.Parse(req.CompletedAt)
		if err != nil {
			api.writeBadRequest(w, fmt.Sprintf("completed_at: %v", err))
			return
		}
		entry.CompletedAt = completedAt
	}

	logged, err := api.toolset.Optimizer.Log(entry)
	if err != nil {
		api.writeBadRequest(w, err.Error())
		return
	}

	api.logger.WithFields(map[string]interface{}{
		"user_id":  logged.UserID,
		"entry_id": logged.ID,
	}).Info("completion logged")
	api.writeJSON(w, http.StatusCreated, tools.LogResponse{Status: "logged", Entry: logged})
}

// handleInsights analyzes the user's trailing window. An insufficient_data
// analysis is still a 200; only an unknown time range is a client error.
func (api *APIServer) handleInsights(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	timeRange := r.URL.Query().Get("time_range")

	analysis, err := api.toolset.Optimizer.Analyze(userID, timeRange)
	if err != nil {
		api.writeBadRequest(w, err.Error())
		return
	}
	api.writeJSON(w, http.StatusOK, analysis)
}

func (api *APIServer) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	timeRange := r.URL.Query().Get("time_range")

	rec, err := api.toolset.Optimizer.Recommend(userID, timeRange)
	if err != nil {
		api.writeBadRequest(w, err.Error())
		return
	}
	api.writeJSON(w, http.StatusOK, rec)
}

// handlePrioritize accepts either {"tasks": [...]} or a bare task array.
func (api *APIServer) handlePrioritize(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		api.writeBadRequest(w, "failed to read request body")
		return
	}

	var req tools.PrioritizeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		var bare []map[string]interface{}
		if err := json.Unmarshal(body, &bare); err != nil {
			api.writeBadRequest(w, "invalid JSON input")
			return
		}
		req.Tasks = bare
	}
	if req.Tasks == nil {
		api.writeBadRequest(w, "tasks is required")
		return
	}

	api.writeJSON(w, http.StatusOK, tools.PrioritizeResponse{
		PrioritizedTasks: prioritize.Prioritize(req.Tasks),
		Recommendation:   prioritize.Recommendation,
	})
}

// handleDaysUntil answers GET /api/dates/days-until?deadline=...
func (api *APIServer) handleDaysUntil(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("deadline")
	deadline, err := dateutil.Parse(raw)
	if err != nil {
		api.writeBadRequest(w, fmt.Sprintf("deadline: %v", err))
		return
	}
	info := dateutil.DaysUntil(time.Now(), deadline)
	api.writeJSON(w, http.StatusOK, tools.DaysUntilResponse{
		Deadline:      raw,
		DaysRemaining: info.DaysRemaining,
		UrgencyLevel:  info.UrgencyLevel,
	})
}

// handleAddDays answers GET /api/dates/add-days?start_date=...&days=N
func (api *APIServer) handleAddDays(w http.ResponseWriter, r *http.Request) {
	start, err := dateutil.Parse(r.URL.Query().Get("start_date"))
	if err != nil {
		api.writeBadRequest(w, fmt.Sprintf("start_date: %v", err))
		return
	}
	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil {
		api.writeBadRequest(w, "days must be an integer")
		return
	}
	result, weekday := dateutil.AddDays(start, days)
	api.writeJSON(w, http.StatusOK, tools.AddDaysResponse{
		ResultDate: result.Format("2006-01-02"),
		DayOfWeek:  weekday.String(),
	})
}

// handleCheckConflict answers GET /api/dates/check-conflict with the four
// event boundary query parameters.
func (api *APIServer) handleCheckConflict(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	times := make([]time.Time, 4)
	for i, name := range []string{"event1_start", "event1_end", "event2_start", "event2_end"} {
		t, err := dateutil.Parse(q.Get(name))
		if err != nil {
			api.writeBadRequest(w, fmt.Sprintf("%s: %v", name, err))
			return
		}
		times[i] = t
	}
	api.writeJSON(w, http.StatusOK, dateutil.CheckConflict(times[0], times[1], times[2], times[3]))
}

// handleWorkingDays answers GET /api/dates/working-days?start_date=...&end_date=...
func (api *APIServer) handleWorkingDays(w http.ResponseWriter, r *http.Request) {
	start, err := dateutil.Parse(r.URL.Query().Get("start_date"))
	if err != nil {
		api.writeBadRequest(w, fmt.Sprintf("start_date: %v", err))
		return
	}
	end, err := dateutil.Parse(r.URL.Query().Get("end_date"))
	if err != nil {
		api.writeBadRequest(w, fmt.Sprintf("end_date: %v", err))
		return
	}
	api.writeJSON(w, http.StatusOK, dateutil.WorkingDays(start, end))
}

// toolDescriptor is the listing shape for GET /api/tools.
type toolDescriptor struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

func (api *APIServer) handleListTools(w http.ResponseWriter, r *http.Request) {
	all := api.toolset.Registry.All()
	descriptors := make([]toolDescriptor, 0, len(all))
	for _, t := range all {
		descriptors = append(descriptors, toolDescriptor{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}
	api.writeJSON(w, http.StatusOK, map[string]interface{}{
		"tools": descriptors,
		"count": len(descriptors),
	})
}

// handleToolCall speaks the raw tool-call protocol: the request body is the
// tool's JSON request, the response body is the tool's JSON response. Tool
// errors come back as 200 with an {"error": ...} body, same as over MCP.
func (api *APIServer) handleToolCall(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	body, err := io.ReadAll(r.Body)
	if err != nil {
		api.writeBadRequest(w, "failed to read request body")
		return
	}

	result, ok := api.toolset.Registry.Run(r.Context(), name, body)
	if !ok {
		api.writeJSON(w, http.StatusNotFound, tools.ErrorResponse{
			Error: fmt.Sprintf("unknown tool %q", name),
		})
		return
	}

	api.logger.WithField("tool", name).Debug("tool call")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(result)
}
