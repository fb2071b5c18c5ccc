package tools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"productivity-agent/pkg/taskstore"
	"productivity-agent/pkg/workflow"
)

func newTestToolset(t *testing.T) *Toolset {
	t.Helper()
	ts, closer, err := Build(Config{Backend: BackendMemory})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { closer() })
	return ts
}

// call runs a tool through the registry and decodes the JSON response into
// a generic map.
func call(t *testing.T, ts *Toolset, tool, body string) map[string]interface{} {
	t.Helper()
	raw, ok := ts.Registry.Run(context.Background(), tool, []byte(body))
	if !ok {
		t.Fatalf("tool %q not registered", tool)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("response not valid JSON: %v\n%s", err, raw)
	}
	return resp
}

func TestRegistryUnknownTool(t *testing.T) {
	ts := newTestToolset(t)

	if _, ok := ts.Registry.Run(context.Background(), "time_machine", []byte("{}")); ok {
		t.Fatal("unknown tool dispatched")
	}
}

func TestRegistryListsAllTools(t *testing.T) {
	ts := newTestToolset(t)

	want := []string{"task_store", "date_calculator", "workflow_optimizer", "prioritize_tasks"}
	all := ts.Registry.All()
	if len(all) != len(want) {
		t.Fatalf("got %d tools, want %d", len(all), len(want))
	}
	for i, name := range want {
		if all[i].Name != name {
			t.Errorf("tool[%d] = %q, want %q", i, all[i].Name, name)
		}
		if all[i].Description == "" || all[i].InputSchema == nil {
			t.Errorf("tool %q missing description or schema", name)
		}
	}
}

func TestMalformedJSONInput(t *testing.T) {
	ts := newTestToolset(t)

	for _, tool := range []string{"task_store", "date_calculator", "workflow_optimizer", "prioritize_tasks"} {
		t.Run(tool, func(t *testing.T) {
			resp := call(t, ts, tool, "{not json")
			if resp["error"] != "invalid JSON input" {
				t.Errorf("error = %v, want invalid JSON input", resp["error"])
			}
		})
	}
}

func TestInvalidAction(t *testing.T) {
	ts := newTestToolset(t)

	for _, tool := range []string{"task_store", "date_calculator", "workflow_optimizer"} {
		t.Run(tool, func(t *testing.T) {
			resp := call(t, ts, tool, `{"action": "explode", "user_id": "u1"}`)
			if resp["error"] != "invalid action" {
				t.Errorf("error = %v, want invalid action", resp["error"])
			}
		})
	}
}

func TestTaskStoreLifecycle(t *testing.T) {
	ts := newTestToolset(t)

	// save
	resp := call(t, ts, "task_store", `{"action": "save", "title": "write tests", "priority": "high", "deadline": "2024-07-01"}`)
	if resp["status"] != "success" || resp["message"] != "Task saved successfully" {
		t.Fatalf("save response = %v", resp)
	}
	task := resp["task"].(map[string]interface{})
	id := task["id"].(string)
	if id == "" {
		t.Fatal("task id missing")
	}

	// load with filter
	resp = call(t, ts, "task_store", `{"action": "load", "priority": "high"}`)
	if resp["count"].(float64) != 1 {
		t.Errorf("load count = %v, want 1", resp["count"])
	}

	// update
	body, _ := json.Marshal(map[string]interface{}{"action": "update", "task_id": id, "status": "completed"})
	resp = call(t, ts, "task_store", string(body))
	if resp["message"] != "Task updated successfully" {
		t.Fatalf("update response = %v", resp)
	}
	if resp["task"].(map[string]interface{})["status"] != "completed" {
		t.Errorf("status not updated: %v", resp["task"])
	}

	// report
	resp = call(t, ts, "task_store", `{"action": "report"}`)
	summary := resp["summary"].(map[string]interface{})
	if summary["total_tasks"].(float64) != 1 {
		t.Errorf("report summary = %v", summary)
	}
	if resp["completion_rate"].(float64) != 100.0 {
		t.Errorf("completion_rate = %v, want 100", resp["completion_rate"])
	}

	// delete
	body, _ = json.Marshal(map[string]interface{}{"action": "delete", "task_id": id})
	resp = call(t, ts, "task_store", string(body))
	if resp["remaining_tasks"].(float64) != 0 {
		t.Errorf("delete response = %v", resp)
	}

	// delete again: not found
	resp = call(t, ts, "task_store", string(body))
	errMsg, _ := resp["error"].(string)
	if errMsg != "task with id "+id+" not found" {
		t.Errorf("error = %q", errMsg)
	}
}

func TestTaskStoreExportActions(t *testing.T) {
	ts := newTestToolset(t)

	call(t, ts, "task_store", `{"action": "save", "title": "exportable"}`)

	resp := call(t, ts, "task_store", `{"action": "export"}`)
	if resp["format"] != "json" || resp["count"].(float64) != 1 {
		t.Errorf("export response = %v", resp)
	}
	if _, ok := resp["data"].([]interface{}); !ok {
		t.Errorf("json export data is %T, want array", resp["data"])
	}

	resp = call(t, ts, "task_store", `{"action": "export", "format": "csv"}`)
	data, _ := resp["data"].(string)
	if data == "" || data[:2] != "ID" {
		t.Errorf("csv export data = %q", data)
	}
}

func TestTaskStoreMissingTaskID(t *testing.T) {
	ts := newTestToolset(t)

	for _, action := range []string{"update", "delete"} {
		resp := call(t, ts, "task_store", `{"action": "`+action+`"}`)
		if resp["error"] != "task_id is required" {
			t.Errorf("%s error = %v, want task_id is required", action, resp["error"])
		}
	}
}

func TestDateCalculatorActions(t *testing.T) {
	ts := newTestToolset(t)

	resp := call(t, ts, "date_calculator", `{"action": "add_days", "start_date": "2024-01-30", "days": 5}`)
	if resp["result_date"] != "2024-02-04" || resp["day_of_week"] != "Sunday" {
		t.Errorf("add_days response = %v", resp)
	}

	resp = call(t, ts, "date_calculator", `{"action": "check_conflict",
		"event1_start": "2024-06-10T09:00:00", "event1_end": "2024-06-10T10:30:00",
		"event2_start": "2024-06-10T10:00:00", "event2_end": "2024-06-10T11:00:00"}`)
	if resp["has_conflict"] != true || resp["overlap_minutes"].(float64) != 30 {
		t.Errorf("check_conflict response = %v", resp)
	}

	resp = call(t, ts, "date_calculator", `{"action": "working_days", "start_date": "2024-01-01", "end_date": "2024-01-07"}`)
	if resp["working_days"].(float64) != 5 || resp["weekend_days"].(float64) != 2 {
		t.Errorf("working_days response = %v", resp)
	}

	resp = call(t, ts, "date_calculator", `{"action": "days_until", "deadline": "not-a-date"}`)
	if _, ok := resp["error"]; !ok {
		t.Errorf("days_until with bad deadline = %v, want error", resp)
	}
}

func TestDaysUntilUsesInjectedClock(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	registry := NewRegistry(NewDateTool(func() time.Time { return now }))

	raw, ok := registry.Run(context.Background(), "date_calculator",
		[]byte(`{"action": "days_until", "deadline": "2024-06-14"}`))
	if !ok {
		t.Fatal("date_calculator not registered")
	}

	var resp DaysUntilResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.DaysRemaining != 4 || resp.UrgencyLevel != "medium" {
		t.Errorf("response = %+v, want 4 days / medium", resp)
	}
	if resp.Deadline != "2024-06-14" {
		t.Errorf("deadline echo = %q", resp.Deadline)
	}
}

func TestWorkflowOptimizerActions(t *testing.T) {
	ts := newTestToolset(t)

	// log assigns an entry id
	resp := call(t, ts, "workflow_optimizer",
		`{"action": "log", "user_id": "u1", "task_id": "t1", "task_name": "done", "duration_minutes": 45, "priority": "high", "was_on_time": true}`)
	if resp["status"] != "logged" {
		t.Fatalf("log response = %v", resp)
	}
	entry := resp["entry"].(map[string]interface{})
	if entry["entry_id"] == "" || entry["user_id"] != "u1" {
		t.Errorf("entry = %v", entry)
	}

	// analyze below the minimum is a status, not an error
	resp = call(t, ts, "workflow_optimizer", `{"action": "analyze", "user_id": "u1"}`)
	if resp["status"] != "insufficient_data" {
		t.Errorf("analyze status = %v, want insufficient_data", resp["status"])
	}
	if resp["entries_found"].(float64) != 1 || resp["entries_required"].(float64) != 5 {
		t.Errorf("analyze response = %v", resp)
	}

	// recommend mirrors the analysis status
	resp = call(t, ts, "workflow_optimizer", `{"action": "recommend", "user_id": "u1"}`)
	if resp["status"] != "insufficient_data" {
		t.Errorf("recommend status = %v", resp["status"])
	}

	// bad time range is an error
	resp = call(t, ts, "workflow_optimizer", `{"action": "analyze", "user_id": "u1", "time_range": "decade"}`)
	if _, ok := resp["error"]; !ok {
		t.Errorf("analyze with bad range = %v, want error", resp)
	}
}

func TestWorkflowOptimizerAnalyzeWithEnoughData(t *testing.T) {
	ts := newTestToolset(t)

	for i := 0; i < 5; i++ {
		call(t, ts, "workflow_optimizer",
			`{"action": "log", "user_id": "u1", "task_id": "t", "duration_minutes": 60, "priority": "medium", "was_on_time": true}`)
	}

	resp := call(t, ts, "workflow_optimizer", `{"action": "analyze", "user_id": "u1", "time_range": "week"}`)
	if resp["status"] != "ok" {
		t.Fatalf("status = %v, want ok", resp["status"])
	}
	agg := resp["aggregate"].(map[string]interface{})
	if agg["tasks_completed"].(float64) != 5 || agg["on_time_rate"].(float64) != 1.0 {
		t.Errorf("aggregate = %v", agg)
	}
}

func TestPrioritizeTool(t *testing.T) {
	ts := newTestToolset(t)

	body := `{"tasks": [
		{"title": "low", "urgency": 3, "importance": 3},
		{"title": "top", "urgency": 8, "importance": 8}
	]}`
	resp := call(t, ts, "prioritize_tasks", body)

	tasks := resp["prioritized_tasks"].([]interface{})
	first := tasks[0].(map[string]interface{})
	if first["title"] != "top" || first["priority_score"].(float64) != 8.0 {
		t.Errorf("first task = %v", first)
	}
	if resp["recommendation"] != "Focus on 'DO FIRST' tasks immediately, schedule time for 'SCHEDULE' tasks" {
		t.Errorf("recommendation = %v", resp["recommendation"])
	}
}

func TestPrioritizeToolBareArray(t *testing.T) {
	ts := newTestToolset(t)

	resp := call(t, ts, "prioritize_tasks", `[{"title": "only", "urgency": 9, "importance": 9}]`)
	tasks := resp["prioritized_tasks"].([]interface{})
	if len(tasks) != 1 {
		t.Fatalf("got %d tasks, want 1", len(tasks))
	}
}

func TestPrioritizeToolMissingTasks(t *testing.T) {
	ts := newTestToolset(t)

	resp := call(t, ts, "prioritize_tasks", `{}`)
	if resp["error"] != "tasks is required" {
		t.Errorf("error = %v, want tasks is required", resp["error"])
	}
}

func TestBuildRejectsUnknownBackend(t *testing.T) {
	if _, _, err := Build(Config{Backend: "etcd"}); err == nil {
		t.Fatal("Build with unknown backend succeeded, want error")
	}
}

func TestBuildWiresTypedComponents(t *testing.T) {
	ts := newTestToolset(t)

	if _, err := ts.Store.Create(taskstore.CreateTask{Title: "direct"}); err != nil {
		t.Fatalf("Store.Create: %v", err)
	}
	if _, err := ts.Optimizer.Log(workflow.CompletionEntry{UserID: "u1"}); err != nil {
		t.Fatalf("Optimizer.Log: %v", err)
	}

	// The registry shares the same store the typed handle writes through.
	resp := call(t, ts, "task_store", `{"action": "load"}`)
	if resp["count"].(float64) != 1 {
		t.Errorf("load count = %v, want 1", resp["count"])
	}
}
