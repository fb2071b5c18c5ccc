// Command schema-gen regenerates the JSON schemas for the tool-call
// protocol's request and response types. The schemas document the wire
// contract for agent frontends; regenerate them after changing any of the
// request/response structs in pkg/tools.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"productivity-agent/pkg/tools"
)

// ToolRequests groups every tool request shape into one schema document.
type ToolRequests struct {
	TaskStore         tools.TaskRequest       `json:"task_store"`
	DateCalculator    tools.DateRequest       `json:"date_calculator"`
	WorkflowOptimizer tools.WorkflowRequest   `json:"workflow_optimizer"`
	PrioritizeTasks   tools.PrioritizeRequest `json:"prioritize_tasks"`
}

// ToolResponses groups the response shapes, including the shared error form.
type ToolResponses struct {
	TaskList     *tools.TaskListResponse     `json:"task_list,omitempty"`
	TaskMutation *tools.TaskMutationResponse `json:"task_mutation,omitempty"`
	TaskDelete   *tools.TaskDeleteResponse   `json:"task_delete,omitempty"`
	TaskReport   *tools.TaskReportResponse   `json:"task_report,omitempty"`
	TaskExport   *tools.TaskExportResponse   `json:"task_export,omitempty"`
	DaysUntil    *tools.DaysUntilResponse    `json:"days_until,omitempty"`
	AddDays      *tools.AddDaysResponse      `json:"add_days,omitempty"`
	Log          *tools.LogResponse          `json:"log,omitempty"`
	Prioritize   *tools.PrioritizeResponse   `json:"prioritize,omitempty"`
	Error        *tools.ErrorResponse        `json:"error,omitempty"`
}

func writeSchema(filename string, v any) error {
	r := new(jsonschema.Reflector)
	r.ExpandedStruct = true
	r.DoNotReference = false
	r.RequiredFromJSONSchemaTags = true

	schema := r.Reflect(v)

	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", filename, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(schema)
}

func main() {
	fmt.Println("Generating JSON schemas for tool protocol types...")

	if err := writeSchema("schemas/tool-requests.schema.json", ToolRequests{}); err != nil {
		fmt.Printf("Error generating request schema: %v\n", err)
		os.Exit(1)
	}

	if err := writeSchema("schemas/tool-responses.schema.json", ToolResponses{}); err != nil {
		fmt.Printf("Error generating response schema: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Successfully generated schemas:")
	fmt.Println("  - schemas/tool-requests.schema.json")
	fmt.Println("  - schemas/tool-responses.schema.json")
}
