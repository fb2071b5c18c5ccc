package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"productivity-agent/pkg/dateutil"
	"productivity-agent/pkg/workflow"
)

// WorkflowRequest is the workflow_optimizer tool request.
type WorkflowRequest struct {
	Action          string `json:"action"`
	UserID          string `json:"user_id,omitempty"`
	TaskID          string `json:"task_id,omitempty"`
	TaskName        string `json:"task_name,omitempty"`
	CompletedAt     string `json:"completed_at,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	Priority        string `json:"priority,omitempty"`
	WasOnTime       bool   `json:"was_on_time,omitempty"`
	TimeRange       string `json:"time_range,omitempty"`
}

// LogResponse answers the log action.
type LogResponse struct {
	Status string                   `json:"status"`
	Entry  workflow.CompletionEntry `json:"entry"`
}

// NewWorkflowTool builds the workflow_optimizer tool over an optimizer.
func NewWorkflowTool(opt *workflow.Optimizer) Tool {
	return Tool{
		Name: "workflow_optimizer",
		Description: "Tracks and analyzes task-completion patterns per user: log a " +
			"completed task, analyze a trailing day/week/month window, or derive " +
			"productivity recommendations from the analysis.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"action": map[string]interface{}{
					"type": "string",
					"enum": []string{"log", "analyze", "recommend"},
				},
				"user_id":          map[string]interface{}{"type": "string"},
				"task_id":          map[string]interface{}{"type": "string"},
				"task_name":        map[string]interface{}{"type": "string"},
				"completed_at":     map[string]interface{}{"type": "string", "description": "ISO datetime (default: now)"},
				"duration_minutes": map[string]interface{}{"type": "integer"},
				"priority":         map[string]interface{}{"type": "string"},
				"was_on_time":      map[string]interface{}{"type": "boolean"},
				"time_range": map[string]interface{}{
					"type":        "string",
					"description": "Analysis window (default: week)",
					"enum":        []string{"day", "week", "month"},
				},
			},
			"required": []string{"action", "user_id"},
		},
		Run: func(ctx context.Context, raw []byte) []byte {
			var req WorkflowRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				return errorResponse("invalid JSON input")
			}
			return runWorkflowAction(opt, req)
		},
	}
}

func runWorkflowAction(opt *workflow.Optimizer, req WorkflowRequest) []byte {
	switch req.Action {
	case "log":
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
				return errorResponse(fmt.Sprintf("completed_at: %v", err))
			}
			entry.CompletedAt = completedAt
		}
		logged, err := opt.Log(entry)
		if err != nil {
			return errorResponse(err.Error())
		}
		return marshal(LogResponse{Status: "logged", Entry: logged})

	case "analyze":
		if req.UserID == "" {
			return errorResponse("user_id is required")
		}
		analysis, err := opt.Analyze(req.UserID, req.TimeRange)
		if err != nil {
			return errorResponse(err.Error())
		}
		return marshal(analysis)

	case "recommend":
		if req.UserID == "" {
			return errorResponse("user_id is required")
		}
		rec, err := opt.Recommend(req.UserID, req.TimeRange)
		if err != nil {
			return errorResponse(err.Error())
		}
		return marshal(rec)
	}
	return errorResponse("invalid action")
}
