package compare

import (
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tordrt/schemadiff/internal/schema"
)

// Schemas compares a source schema against a target schema. It is a pure
// function: equal inputs produce equal results, including list orderings.
func Schemas(source, target *schema.Schema) *Result {
	result := &Result{}

	sourceTables := tablesByFullName(source.Tables)
	targetTables := tablesByFullName(target.Tables)

	for _, t := range source.Tables {
		if _, ok := targetTables[t.FullName()]; !ok {
			result.MissingTables = append(result.MissingTables, t)
		}
	}
	for _, t := range target.Tables {
		if _, ok := sourceTables[t.FullName()]; !ok {
			result.ExtraTables = append(result.ExtraTables, t)
		}
	}

	// Tables present on both sides diff independently of each other, so the
	// per-table work fans out; slots keep the assembly in source order.
	type sharedTable struct {
		src schema.Table
		tgt schema.Table
	}
	var shared []sharedTable
	for _, t := range source.Tables {
		if tgt, ok := targetTables[t.FullName()]; ok {
			shared = append(shared, sharedTable{src: t, tgt: tgt})
		}
	}

	slots := make([]TableDiff, len(shared))
	var g errgroup.Group
	for i, pair := range shared {
		g.Go(func() error {
			slots[i] = compareTables(pair.src, pair.tgt)
			return nil
		})
	}
	_ = g.Wait()

	for _, diff := range slots {
		if !diff.Empty() {
			result.ModifiedTables = append(result.ModifiedTables, diff)
		}
	}

	// Indexes are keyed by name alone, not scoped by table.
	sourceIndexes := indexesByName(source.Indexes)
	targetIndexes := indexesByName(target.Indexes)

	for _, idx := range source.Indexes {
		if _, ok := targetIndexes[idx.Name]; !ok {
			result.MissingIndexes = append(result.MissingIndexes, idx)
		}
	}
	for _, idx := range target.Indexes {
		if _, ok := sourceIndexes[idx.Name]; !ok {
			result.ExtraIndexes = append(result.ExtraIndexes, idx)
		}
	}
	for _, idx := range source.Indexes {
		tgt, ok := targetIndexes[idx.Name]
		if !ok {
			continue
		}
		if diffs := compareIndexes(idx, tgt); len(diffs) > 0 {
			result.ModifiedIndexes = append(result.ModifiedIndexes, IndexDiff{
				Source:      idx,
				Target:      tgt,
				Differences: diffs,
			})
		}
	}

	result.Summary = Summary{
		TablesCompared:     len(source.Tables) + len(target.Tables),
		MissingTableCount:  len(result.MissingTables),
		ExtraTableCount:    len(result.ExtraTables),
		ModifiedTableCount: len(result.ModifiedTables),
	}
	result.Summary.DifferencesFound = result.Summary.MissingTableCount +
		result.Summary.ExtraTableCount +
		result.Summary.ModifiedTableCount

	return result
}

func compareTables(src, tgt schema.Table) TableDiff {
	diff := TableDiff{TableName: src.FullName()}

	targetColumns := columnsByName(tgt.Columns)
	sourceColumns := columnsByName(src.Columns)

	for _, col := range src.Columns {
		if _, ok := targetColumns[col.Name]; !ok {
			diff.MissingColumns = append(diff.MissingColumns, col)
		}
	}
	for _, col := range tgt.Columns {
		if _, ok := sourceColumns[col.Name]; !ok {
			diff.ExtraColumns = append(diff.ExtraColumns, col)
		}
	}
	for _, col := range src.Columns {
		tgtCol, ok := targetColumns[col.Name]
		if !ok {
			continue
		}
		if diffs := compareColumns(col, tgtCol); len(diffs) > 0 {
			diff.ModifiedColumns = append(diff.ModifiedColumns, ColumnDiff{
				Source:      col,
				Target:      tgtCol,
				Differences: diffs,
			})
		}
	}

	targetConstraints := constraintsByName(tgt.Constraints)
	sourceConstraints := constraintsByName(src.Constraints)

	for _, con := range src.Constraints {
		if _, ok := targetConstraints[con.Name]; !ok {
			diff.MissingConstraints = append(diff.MissingConstraints, con)
		}
	}
	for _, con := range tgt.Constraints {
		if _, ok := sourceConstraints[con.Name]; !ok {
			diff.ExtraConstraints = append(diff.ExtraConstraints, con)
		}
	}
	for _, con := range src.Constraints {
		tgtCon, ok := targetConstraints[con.Name]
		if !ok {
			continue
		}
		if diffs := compareConstraints(con, tgtCon); len(diffs) > 0 {
			diff.ModifiedConstraints = append(diff.ModifiedConstraints, ConstraintDiff{
				Source:      con,
				Target:      tgtCon,
				Differences: diffs,
			})
		}
	}

	return diff
}

// compareColumns applies the seven column predicates in their fixed order and
// emits one message per differing predicate. The message shape
// "<Field> changed from <src> to <tgt>" is contractual.
func compareColumns(src, tgt schema.Column) []string {
	var diffs []string

	if src.DataType != tgt.DataType {
		diffs = append(diffs, changed("DataType", src.DataType, tgt.DataType))
	}
	if src.IsNullable != tgt.IsNullable {
		diffs = append(diffs, changed("IsNullable", formatBool(src.IsNullable), formatBool(tgt.IsNullable)))
	}
	// A missing default and an empty default mean the same thing.
	if derefOrEmpty(src.DefaultValue) != derefOrEmpty(tgt.DefaultValue) {
		diffs = append(diffs, changed("DefaultValue", derefOrEmpty(src.DefaultValue), derefOrEmpty(tgt.DefaultValue)))
	}
	if !equalIntPtr(src.MaxLength, tgt.MaxLength) {
		diffs = append(diffs, changed("MaxLength", formatIntPtr(src.MaxLength), formatIntPtr(tgt.MaxLength)))
	}
	if !equalIntPtr(src.Precision, tgt.Precision) {
		diffs = append(diffs, changed("Precision", formatIntPtr(src.Precision), formatIntPtr(tgt.Precision)))
	}
	if !equalIntPtr(src.Scale, tgt.Scale) {
		diffs = append(diffs, changed("Scale", formatIntPtr(src.Scale), formatIntPtr(tgt.Scale)))
	}
	if src.IsIdentity != tgt.IsIdentity {
		diffs = append(diffs, changed("IsIdentity", formatBool(src.IsIdentity), formatBool(tgt.IsIdentity)))
	}

	return diffs
}

// compareIndexes applies the index predicates in their fixed order.
func compareIndexes(src, tgt schema.Index) []string {
	var diffs []string

	if src.TableName != tgt.TableName {
		diffs = append(diffs, changed("TableName", src.TableName, tgt.TableName))
	}
	if !equalStrings(src.Columns, tgt.Columns) {
		diffs = append(diffs, changed("Columns", formatColumns(src.Columns), formatColumns(tgt.Columns)))
	}
	if src.IsUnique != tgt.IsUnique {
		diffs = append(diffs, changed("IsUnique", formatBool(src.IsUnique), formatBool(tgt.IsUnique)))
	}
	if src.IsPrimaryKey != tgt.IsPrimaryKey {
		diffs = append(diffs, changed("IsPrimaryKey", formatBool(src.IsPrimaryKey), formatBool(tgt.IsPrimaryKey)))
	}

	return diffs
}

// compareConstraints applies the constraint predicates in their fixed order.
// Referenced columns are only compared when both sides carry them.
func compareConstraints(src, tgt schema.Constraint) []string {
	var diffs []string

	if src.Type != tgt.Type {
		diffs = append(diffs, changed("Type", string(src.Type), string(tgt.Type)))
	}
	if !equalStrings(src.Columns, tgt.Columns) {
		diffs = append(diffs, changed("Columns", formatColumns(src.Columns), formatColumns(tgt.Columns)))
	}
	if src.ReferencedTable != tgt.ReferencedTable {
		diffs = append(diffs, changed("ReferencedTable", src.ReferencedTable, tgt.ReferencedTable))
	}
	if src.ReferencedColumns != nil && tgt.ReferencedColumns != nil &&
		!equalStrings(src.ReferencedColumns, tgt.ReferencedColumns) {
		diffs = append(diffs, changed("ReferencedColumns", formatColumns(src.ReferencedColumns), formatColumns(tgt.ReferencedColumns)))
	}

	return diffs
}

func changed(field, from, to string) string {
	return fmt.Sprintf("%s changed from %s to %s", field, from, to)
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func formatIntPtr(v *int) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%d", *v)
}

func formatColumns(columns []string) string {
	return "[" + strings.Join(columns, ", ") + "]"
}

func derefOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func tablesByFullName(tables []schema.Table) map[string]schema.Table {
	m := make(map[string]schema.Table, len(tables))
	for _, t := range tables {
		m[t.FullName()] = t
	}
	return m
}

func columnsByName(columns []schema.Column) map[string]schema.Column {
	m := make(map[string]schema.Column, len(columns))
	for _, c := range columns {
		m[c.Name] = c
	}
	return m
}

func constraintsByName(constraints []schema.Constraint) map[string]schema.Constraint {
	m := make(map[string]schema.Constraint, len(constraints))
	for _, c := range constraints {
		m[c.Name] = c
	}
	return m
}

func indexesByName(indexes []schema.Index) map[string]schema.Index {
	m := make(map[string]schema.Index, len(indexes))
	for _, i := range indexes {
		m[i.Name] = i
	}
	return m
}
