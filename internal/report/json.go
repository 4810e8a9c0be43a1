package report

import (
	"encoding/json"
	"fmt"
	"io"
)

// jsonPayload wraps the report with the embedded migration script for the
// JSON artifact.
type jsonPayload struct {
	*Report
	MigrationScript string `json:"migrationScript"`
}

// RenderJSON writes the report as indented JSON with the migration script
// embedded under migrationScript.
func RenderJSON(w io.Writer, r *Report, migrationScript string) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(jsonPayload{Report: r, MigrationScript: migrationScript}); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}
