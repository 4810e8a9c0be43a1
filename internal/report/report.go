// Package report builds the structured comparison report consumed by the
// console, JSON and Markdown renderers.
package report

import (
	"time"

	"github.com/tordrt/schemadiff/internal/compare"
)

// Metadata identifies one report run.
type Metadata struct {
	GeneratedAt   string `json:"generatedAt"`
	MigrationName string `json:"migrationName"`
	Engine        string `json:"engine"`
}

// Report is the renderer-facing payload: metadata, the comparison summary and
// the difference partitions. Field names and partition orderings are stable;
// renderers rely on both.
type Report struct {
	Metadata Metadata        `json:"metadata"`
	Summary  compare.Summary `json:"summary"`
	Diff     *compare.Result `json:"differences"`
}

// Build assembles the report payload for a comparison result.
func Build(result *compare.Result, engine, migrationName string, generatedAt time.Time) *Report {
	return &Report{
		Metadata: Metadata{
			GeneratedAt:   generatedAt.Format(time.RFC3339),
			MigrationName: migrationName,
			Engine:        engine,
		},
		Summary: result.Summary,
		Diff:    result,
	}
}
