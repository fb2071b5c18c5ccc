package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"productivity-agent/pkg/dateutil"
)

// DateRequest is the date_calculator tool request.
type DateRequest struct {
	Action      string `json:"action"`
	Deadline    string `json:"deadline,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	Days        *int   `json:"days,omitempty"`
	Event1Start string `json:"event1_start,omitempty"`
	Event1End   string `json:"event1_end,omitempty"`
	Event2Start string `json:"event2_start,omitempty"`
	Event2End   string `json:"event2_end,omitempty"`
}

// DaysUntilResponse answers days_until.
type DaysUntilResponse struct {
	Deadline      string `json:"deadline"`
	DaysRemaining int    `json:"days_remaining"`
	UrgencyLevel  string `json:"urgency_level"`
}

// AddDaysResponse answers add_days.
type AddDaysResponse struct {
	ResultDate string `json:"result_date"`
	DayOfWeek  string `json:"day_of_week"`
}

// NewDateTool builds the date_calculator tool. now is injected so tests pin
// the calendar.
func NewDateTool(now func() time.Time) Tool {
	return Tool{
		Name: "date_calculator",
		Description: "Calendar arithmetic: days until a deadline with urgency level, " +
			"date addition, scheduling conflict detection between two events, and " +
			"working/weekend day counts between two dates.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"action": map[string]interface{}{
					"type": "string",
					"enum": []string{"days_until", "add_days", "check_conflict", "working_days"},
				},
				"deadline":   map[string]interface{}{"type": "string", "description": "ISO date or datetime (days_until)"},
				"start_date": map[string]interface{}{"type": "string", "description": "ISO date (add_days, working_days)"},
				"end_date":   map[string]interface{}{"type": "string", "description": "ISO date (working_days)"},
				"days": map[string]interface{}{
					"type":        "integer",
					"description": "Days to add, may be negative (add_days)",
				},
				"event1_start": map[string]interface{}{"type": "string"},
				"event1_end":   map[string]interface{}{"type": "string"},
				"event2_start": map[string]interface{}{"type": "string"},
				"event2_end":   map[string]interface{}{"type": "string"},
			},
			"required": []string{"action"},
		},
		Run: func(ctx context.Context, raw []byte) []byte {
			var req DateRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				return errorResponse("invalid JSON input")
			}
			return runDateAction(now, req)
		},
	}
}

func runDateAction(now func() time.Time, req DateRequest) []byte {
	switch req.Action {
	case "days_until":
		deadline, err := dateutil.Parse(req.Deadline)
		if err != nil {
			return errorResponse(fmt.Sprintf("deadline: %v", err))
		}
		info := dateutil.DaysUntil(now(), deadline)
		return marshal(DaysUntilResponse{
			Deadline:      req.Deadline,
			DaysRemaining: info.DaysRemaining,
			UrgencyLevel:  info.UrgencyLevel,
		})

	case "add_days":
		start, err := dateutil.Parse(req.StartDate)
		if err != nil {
			return errorResponse(fmt.Sprintf("start_date: %v", err))
		}
		if req.Days == nil {
			return errorResponse("days is required")
		}
		result, weekday := dateutil.AddDays(start, *req.Days)
		return marshal(AddDaysResponse{
			ResultDate: result.Format("2006-01-02"),
			DayOfWeek:  weekday.String(),
		})

	case "check_conflict":
		times := make([]time.Time, 4)
		for i, field := range []struct{ name, value string }{
			{"event1_start", req.Event1Start},
			{"event1_end", req.Event1End},
			{"event2_start", req.Event2Start},
			{"event2_end", req.Event2End},
		} {
			t, err := dateutil.Parse(field.value)
			if err != nil {
				return errorResponse(fmt.Sprintf("%s: %v", field.name, err))
			}
			times[i] = t
		}
		return marshal(dateutil.CheckConflict(times[0], times[1], times[2], times[3]))

	case "working_days":
		start, err := dateutil.Parse(req.StartDate)
		if err != nil {
			return errorResponse(fmt.Sprintf("start_date: %v", err))
		}
		end, err := dateutil.Parse(req.EndDate)
		if err != nil {
			return errorResponse(fmt.Sprintf("end_date: %v", err))
		}
		return marshal(dateutil.WorkingDays(start, end))
	}
	return errorResponse("invalid action")
}
