package schema

import "fmt"

// ValidationError reports an input or schema-integrity violation, naming the
// offending object.
type ValidationError struct {
	Object string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Object, e.Reason)
}

// NewValidationError builds a ValidationError for the named object.
func NewValidationError(object, reason string) *ValidationError {
	return &ValidationError{Object: object, Reason: reason}
}

// Validate checks the structural integrity of a schema before it is allowed
// into a comparison: non-empty database name, named tables with named,
// typed columns, and unique names at every scope.
func Validate(s *Schema) error {
	if s == nil {
		return NewValidationError("schema", "schema is nil")
	}
	if s.DatabaseName == "" {
		return NewValidationError("schema", "database name is empty")
	}
	if s.Tables == nil {
		return NewValidationError(s.DatabaseName, "table collection is nil")
	}

	seenTables := make(map[string]bool, len(s.Tables))
	for _, table := range s.Tables {
		if table.Name == "" {
			return NewValidationError(s.DatabaseName, "table with empty name")
		}
		full := table.FullName()
		if seenTables[full] {
			return NewValidationError(full, "duplicate table name")
		}
		seenTables[full] = true

		if table.Columns == nil {
			return NewValidationError(full, "column collection is nil")
		}
		seenColumns := make(map[string]bool, len(table.Columns))
		for _, col := range table.Columns {
			if col.Name == "" {
				return NewValidationError(full, "column with empty name")
			}
			if col.DataType == "" {
				return NewValidationError(full+"."+col.Name, "column has empty data type")
			}
			if seenColumns[col.Name] {
				return NewValidationError(full+"."+col.Name, "duplicate column name")
			}
			seenColumns[col.Name] = true
		}

		seenConstraints := make(map[string]bool, len(table.Constraints))
		for _, con := range table.Constraints {
			if con.Name == "" {
				continue
			}
			if seenConstraints[con.Name] {
				return NewValidationError(full+"."+con.Name, "duplicate constraint name")
			}
			seenConstraints[con.Name] = true
		}
	}

	seenIndexes := make(map[string]bool, len(s.Indexes))
	for _, idx := range s.Indexes {
		if idx.Name == "" {
			return NewValidationError(s.DatabaseName, "index with empty name")
		}
		if seenIndexes[idx.Name] {
			return NewValidationError(idx.Name, "duplicate index name")
		}
		seenIndexes[idx.Name] = true
	}

	return nil
}
