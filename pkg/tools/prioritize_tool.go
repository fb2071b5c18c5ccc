package tools

import (
	"context"
	"encoding/json"

	"productivity-agent/pkg/prioritize"
)

// PrioritizeRequest is the prioritize_tasks tool request. The tool also
// accepts a bare JSON array of tasks, since some agent callers send the
// list without the wrapper object.
type PrioritizeRequest struct {
	Tasks []map[string]interface{} `json:"tasks"`
}

// PrioritizeResponse carries the scored, quadrant-labeled tasks in
// descending score order.
type PrioritizeResponse struct {
	PrioritizedTasks []map[string]interface{} `json:"prioritized_tasks"`
	Recommendation   string                   `json:"recommendation"`
}

// NewPrioritizeTool builds the prioritize_tasks tool.
func NewPrioritizeTool() Tool {
	return Tool{
		Name: "prioritize_tasks",
		Description: "Applies the Eisenhower prioritization framework to a task list: " +
			"scores each task from its 1-10 urgency and importance, assigns a quadrant " +
			"(DO FIRST, SCHEDULE, DELEGATE, ELIMINATE) and orders by score.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"tasks": map[string]interface{}{
					"type":        "array",
					"description": "Tasks with numeric urgency and importance fields (1-10, default 5)",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"urgency":    map[string]interface{}{"type": "number"},
							"importance": map[string]interface{}{"type": "number"},
						},
					},
				},
			},
			"required": []string{"tasks"},
		},
		Run: func(ctx context.Context, raw []byte) []byte {
			var req PrioritizeRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				// bare array form
				var tasks []map[string]interface{}
				if err := json.Unmarshal(raw, &tasks); err != nil {
					return errorResponse("invalid JSON input")
				}
				req.Tasks = tasks
			}
			if req.Tasks == nil {
				return errorResponse("tasks is required")
			}
			return marshal(PrioritizeResponse{
				PrioritizedTasks: prioritize.Prioritize(req.Tasks),
				Recommendation:   prioritize.Recommendation,
			})
		},
	}
}
