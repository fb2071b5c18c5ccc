// Package prioritize scores task lists with an Eisenhower-style framework:
// a weighted sum of urgency and importance plus a quadrant label from
// thresholding each axis.
package prioritize

import (
	"math"
	"sort"
)

// Axis weights and the strict threshold above which an axis counts as high.
const (
	urgencyWeight    = 0.4
	importanceWeight = 0.6
	highThreshold    = 6
	defaultScore     = 5
)

// Quadrant labels and their matching priority levels.
const (
	QuadrantDoFirst   = "DO FIRST - Urgent & Important"
	QuadrantSchedule  = "SCHEDULE - Not Urgent but Important"
	QuadrantDelegate  = "DELEGATE - Urgent but Not Important"
	QuadrantEliminate = "ELIMINATE - Neither Urgent nor Important"
)

// Recommendation is the fixed guidance line attached to every result.
const Recommendation = "Focus on 'DO FIRST' tasks immediately, schedule time for 'SCHEDULE' tasks"

// Score computes the linear priority score over the two 1..10 axes, rounded
// to two decimals.
func Score(urgency, importance float64) float64 {
	return math.Round((urgency*urgencyWeight+importance*importanceWeight)*100) / 100
}

// Quadrant buckets a task by thresholding each axis strictly against 6 and
// returns the quadrant label with its priority level.
func Quadrant(urgency, importance float64) (label, level string) {
	urgent := urgency > highThreshold
	important := importance > highThreshold
	switch {
	case urgent && important:
		return QuadrantDoFirst, "critical"
	case important:
		return QuadrantSchedule, "high"
	case urgent:
		return QuadrantDelegate, "medium"
	}
	return QuadrantEliminate, "low"
}

// Prioritize annotates each task map with priority_score, quadrant and
// priority_level, then orders by descending score. The sort is stable, so
// ties keep their input order. Tasks are open-shaped maps because they come
// straight from agent JSON; urgency and importance default to 5 when absent.
// Fields beyond the two axes pass through untouched.
func Prioritize(tasks []map[string]interface{}) []map[string]interface{} {
	for _, task := range tasks {
		urgency := numberField(task, "urgency")
		importance := numberField(task, "importance")

		task["priority_score"] = Score(urgency, importance)
		label, level := Quadrant(urgency, importance)
		task["quadrant"] = label
		task["priority_level"] = level
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i]["priority_score"].(float64) > tasks[j]["priority_score"].(float64)
	})
	return tasks
}

// numberField reads a numeric field that JSON decoding may have left as
// float64 or that typed callers may have set as int.
func numberField(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return defaultScore
}
