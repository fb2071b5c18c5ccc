package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"productivity-agent/pkg/logger"
	"productivity-agent/pkg/tools"
)

func newTestAPI(t *testing.T) *APIServer {
	t.Helper()

	toolset, closer, err := tools.Build(tools.Config{Backend: tools.BackendMemory})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { closer() })

	return &APIServer{
		config:  ServerConfig{Host: "127.0.0.1", Port: 0, CORSOrigins: []string{"*"}},
		toolset: toolset,
		logger:  logger.NewTest(filepath.Join(t.TempDir(), "test.log")),
	}
}

func doRequest(t *testing.T, api *APIServer, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	api.setupRoutes().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response not valid JSON: %v\n%s", err, rec.Body.String())
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	api := newTestAPI(t)

	rec := doRequest(t, api, "GET", "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decode(t, rec)
	if resp["status"] != "healthy" || resp["service"] != "productivity-agent" {
		t.Errorf("response = %v", resp)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
}

func TestTaskRoutes(t *testing.T) {
	api := newTestAPI(t)

	// create
	rec := doRequest(t, api, "POST", "/api/tasks",
		`{"title": "review PR", "priority": "high", "deadline": "2024-07-01"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode(t, rec)
	task := resp["task"].(map[string]interface{})
	id := task["id"].(string)

	// create with bad priority
	rec = doRequest(t, api, "POST", "/api/tasks", `{"priority": "asap"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad priority status = %d, want 400", rec.Code)
	}

	// list with filter
	rec = doRequest(t, api, "GET", "/api/tasks?priority=high", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	if decode(t, rec)["count"].(float64) != 1 {
		t.Errorf("list count = %v, want 1", decode(t, rec)["count"])
	}

	// update
	rec = doRequest(t, api, "PUT", "/api/tasks/"+id, `{"status": "completed"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}

	// update unknown id
	rec = doRequest(t, api, "PUT", "/api/tasks/task_99_x", `{"status": "completed"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("update unknown status = %d, want 404", rec.Code)
	}

	// report
	rec = doRequest(t, api, "GET", "/api/tasks/report", "")
	resp = decode(t, rec)
	if resp["completion_rate"].(float64) != 100.0 {
		t.Errorf("completion_rate = %v, want 100", resp["completion_rate"])
	}

	// delete
	rec = doRequest(t, api, "DELETE", "/api/tasks/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if decode(t, rec)["remaining_tasks"].(float64) != 0 {
		t.Errorf("remaining_tasks = %v", decode(t, rec)["remaining_tasks"])
	}
}

func TestTaskExportRoutes(t *testing.T) {
	api := newTestAPI(t)

	doRequest(t, api, "POST", "/api/tasks", `{"title": "exported"}`)

	rec := doRequest(t, api, "GET", "/api/tasks/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	resp := decode(t, rec)
	if resp["format"] != "json" || resp["count"].(float64) != 1 {
		t.Errorf("export response = %v", resp)
	}

	rec = doRequest(t, api, "GET", "/api/tasks/export?format=csv", "")
	if rec.Header().Get("Content-Type") != "text/csv" {
		t.Errorf("csv Content-Type = %q", rec.Header().Get("Content-Type"))
	}
	if !strings.HasPrefix(rec.Body.String(), "ID,Title,Priority,Status,Deadline") {
		t.Errorf("csv body = %q", rec.Body.String())
	}

	rec = doRequest(t, api, "GET", "/api/tasks/export?format=xml", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown format status = %d, want 400", rec.Code)
	}
}

func TestInsightRoutes(t *testing.T) {
	api := newTestAPI(t)

	// completion log
	rec := doRequest(t, api, "POST", "/api/completions",
		`{"user_id": "u1", "task_id": "t1", "task_name": "done", "duration_minutes": 30, "priority": "high", "was_on_time": true}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("completion status = %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode(t, rec)
	if resp["status"] != "logged" {
		t.Errorf("response = %v", resp)
	}

	// missing user_id
	rec = doRequest(t, api, "POST", "/api/completions", `{"task_id": "t1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing user status = %d, want 400", rec.Code)
	}

	// insights below minimum: a 200 with insufficient_data
	rec = doRequest(t, api, "GET", "/api/insights/u1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("insights status = %d", rec.Code)
	}
	if decode(t, rec)["status"] != "insufficient_data" {
		t.Errorf("insights = %v", decode(t, rec))
	}

	// bad time range is a client error
	rec = doRequest(t, api, "GET", "/api/insights/u1?time_range=year", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad range status = %d, want 400", rec.Code)
	}

	// recommendations mirror the analysis status
	rec = doRequest(t, api, "GET", "/api/recommendations/u1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("recommendations status = %d", rec.Code)
	}
	if decode(t, rec)["status"] != "insufficient_data" {
		t.Errorf("recommendations = %v", decode(t, rec))
	}
}

func TestPrioritizeRoute(t *testing.T) {
	api := newTestAPI(t)

	rec := doRequest(t, api, "POST", "/api/prioritize",
		`{"tasks": [{"title": "a", "urgency": 8, "importance": 8}, {"title": "b", "urgency": 2, "importance": 2}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode(t, rec)
	tasks := resp["prioritized_tasks"].([]interface{})
	if tasks[0].(map[string]interface{})["title"] != "a" {
		t.Errorf("order wrong: %v", tasks)
	}

	// bare array form
	rec = doRequest(t, api, "POST", "/api/prioritize", `[{"urgency": 5, "importance": 5}]`)
	if rec.Code != http.StatusOK {
		t.Errorf("bare array status = %d", rec.Code)
	}
}

func TestDateRoutes(t *testing.T) {
	api := newTestAPI(t)

	rec := doRequest(t, api, "GET", "/api/dates/add-days?start_date=2024-01-30&days=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("add-days status = %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode(t, rec)
	if resp["result_date"] != "2024-02-04" || resp["day_of_week"] != "Sunday" {
		t.Errorf("add-days response = %v", resp)
	}

	rec = doRequest(t, api, "GET", "/api/dates/add-days?start_date=2024-01-30&days=soon", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad days status = %d, want 400", rec.Code)
	}

	rec = doRequest(t, api, "GET", "/api/dates/working-days?start_date=2024-01-01&end_date=2024-01-07", "")
	resp = decode(t, rec)
	if resp["working_days"].(float64) != 5 || resp["weekend_days"].(float64) != 2 {
		t.Errorf("working-days response = %v", resp)
	}

	rec = doRequest(t, api, "GET",
		"/api/dates/check-conflict?event1_start=2024-06-10T09:00:00&event1_end=2024-06-10T10:30:00&event2_start=2024-06-10T10:00:00&event2_end=2024-06-10T11:00:00", "")
	resp = decode(t, rec)
	if resp["has_conflict"] != true || resp["overlap_minutes"].(float64) != 30 {
		t.Errorf("check-conflict response = %v", resp)
	}

	rec = doRequest(t, api, "GET", "/api/dates/days-until?deadline=not-a-date", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad deadline status = %d, want 400", rec.Code)
	}
}

func TestToolCallRoute(t *testing.T) {
	api := newTestAPI(t)

	rec := doRequest(t, api, "POST", "/api/tools/task_store", `{"action": "save", "title": "via protocol"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if decode(t, rec)["status"] != "success" {
		t.Errorf("response = %v", decode(t, rec))
	}

	// Tool-level errors stay 200, matching the MCP transport.
	rec = doRequest(t, api, "POST", "/api/tools/task_store", `{"action": "explode"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("tool error status = %d, want 200", rec.Code)
	}
	if decode(t, rec)["error"] != "invalid action" {
		t.Errorf("response = %v", decode(t, rec))
	}

	// Unknown tool is a transport-level 404.
	rec = doRequest(t, api, "POST", "/api/tools/time_machine", `{}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown tool status = %d, want 404", rec.Code)
	}
}

func TestListToolsRoute(t *testing.T) {
	api := newTestAPI(t)

	rec := doRequest(t, api, "GET", "/api/tools", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decode(t, rec)
	if resp["count"].(float64) != 4 {
		t.Errorf("count = %v, want 4", resp["count"])
	}
}

func TestCORSPreflights(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest("OPTIONS", "/api/tasks", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	api.setupRoutes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("preflight status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://example.com" {
		t.Errorf("Allow-Origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}
