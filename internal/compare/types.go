// Package compare computes the structural difference between two schemas.
package compare

import "github.com/tordrt/schemadiff/internal/schema"

// Summary carries the top-level counters of a comparison.
type Summary struct {
	TablesCompared     int `json:"tablesCompared"`
	DifferencesFound   int `json:"differencesFound"`
	MissingTableCount  int `json:"missingTableCount"`
	ExtraTableCount    int `json:"extraTableCount"`
	ModifiedTableCount int `json:"modifiedTableCount"`
}

// Result is the outcome of comparing a source schema against a target schema.
// Missing objects exist in the source only, extra objects in the target only.
// Partition orderings are deterministic: source iteration order for missing
// and modified, target iteration order for extra.
type Result struct {
	Summary Summary `json:"summary"`

	MissingTables  []schema.Table `json:"missingTables,omitempty"`
	ExtraTables    []schema.Table `json:"extraTables,omitempty"`
	ModifiedTables []TableDiff    `json:"modifiedTables,omitempty"`

	MissingIndexes  []schema.Index `json:"missingIndexes,omitempty"`
	ExtraIndexes    []schema.Index `json:"extraIndexes,omitempty"`
	ModifiedIndexes []IndexDiff    `json:"modifiedIndexes,omitempty"`
}

// TableDiff partitions the columns and constraints of a table present in
// both schemas.
type TableDiff struct {
	TableName string `json:"tableName"`

	MissingColumns  []schema.Column `json:"missingColumns,omitempty"`
	ExtraColumns    []schema.Column `json:"extraColumns,omitempty"`
	ModifiedColumns []ColumnDiff    `json:"modifiedColumns,omitempty"`

	MissingConstraints  []schema.Constraint `json:"missingConstraints,omitempty"`
	ExtraConstraints    []schema.Constraint `json:"extraConstraints,omitempty"`
	ModifiedConstraints []ConstraintDiff    `json:"modifiedConstraints,omitempty"`
}

// Empty reports whether every partition of the table diff is empty.
func (d TableDiff) Empty() bool {
	return len(d.MissingColumns) == 0 &&
		len(d.ExtraColumns) == 0 &&
		len(d.ModifiedColumns) == 0 &&
		len(d.MissingConstraints) == 0 &&
		len(d.ExtraConstraints) == 0 &&
		len(d.ModifiedConstraints) == 0
}

// ColumnDiff describes a column present in both schemas whose definition
// differs. Differences carries one human-readable message per differing
// predicate, in a fixed order; its content is part of the tool's contract.
type ColumnDiff struct {
	Source      schema.Column `json:"source"`
	Target      schema.Column `json:"target"`
	Differences []string      `json:"differences"`
}

// ConstraintDiff describes a constraint present in both tables whose
// definition differs.
type ConstraintDiff struct {
	Source      schema.Constraint `json:"source"`
	Target      schema.Constraint `json:"target"`
	Differences []string          `json:"differences"`
}

// IndexDiff describes an index name present in both schemas whose definition
// differs.
type IndexDiff struct {
	Source      schema.Index `json:"source"`
	Target      schema.Index `json:"target"`
	Differences []string     `json:"differences"`
}
