// Package migrate synthesizes forward migration DDL from a schema comparison.
package migrate

import (
	"fmt"
	"strings"
	"time"

	"github.com/tordrt/schemadiff/internal/compare"
	"github.com/tordrt/schemadiff/internal/db"
	"github.com/tordrt/schemadiff/internal/schema"
)

// Generator renders a comparison result as engine-dialect DDL. The clock is
// injectable so tests can pin the header timestamp.
type Generator struct {
	Now func() time.Time
}

// NewGenerator returns a generator using the wall clock.
func NewGenerator() *Generator {
	return &Generator{Now: time.Now}
}

// Generate renders the migration script. Sections appear in a fixed order:
// header, BEGIN TRANSACTION, CREATE TABLE per missing table, ALTER blocks per
// modified table, COMMIT, trailing advisory. Extra tables/columns and
// constraint/index differences are reported elsewhere but never synthesized.
func (g *Generator) Generate(result *compare.Result, engine, migrationName string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "-- Migration: %s\n", migrationName)
	fmt.Fprintf(&b, "-- Generated: %s\n", g.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "-- Engine: %s\n", engine)
	b.WriteString("-- Generated by schemadiff\n")
	b.WriteString("\n")
	b.WriteString("BEGIN TRANSACTION;\n")
	b.WriteString("\n")

	for _, table := range result.MissingTables {
		writeCreateTable(&b, table)
	}

	for _, diff := range result.ModifiedTables {
		writeAlterTable(&b, diff, engine)
	}

	b.WriteString("COMMIT;\n")
	b.WriteString("\n")
	b.WriteString("-- Review this script before applying it to the target database.\n")

	return b.String()
}

func writeCreateTable(b *strings.Builder, table schema.Table) {
	fmt.Fprintf(b, "CREATE TABLE %s (\n", table.FullName())
	for i, col := range table.Columns {
		b.WriteString("    " + columnDefinition(col))
		if i < len(table.Columns)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(");\n\n")
}

func writeAlterTable(b *strings.Builder, diff compare.TableDiff, engine string) {
	wrote := false

	for _, col := range diff.MissingColumns {
		fmt.Fprintf(b, "ALTER TABLE %s ADD COLUMN %s;\n", diff.TableName, columnDefinition(col))
		wrote = true
	}

	for _, mod := range diff.ModifiedColumns {
		b.WriteString(alterColumn(diff.TableName, mod.Target, engine))
		wrote = true
	}

	if wrote {
		b.WriteString("\n")
	}
}

// alterColumn renders the dialect-specific column modification. SQLite has no
// ALTER COLUMN, so it gets an advisory comment instead of a statement.
func alterColumn(tableName string, target schema.Column, engine string) string {
	switch engine {
	case db.EnginePostgres:
		return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s;\n", tableName, target.Name, target.DataType)
	case db.EngineMySQL:
		return fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s;\n", tableName, columnDefinition(target))
	case db.EngineSQLServer:
		return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s;\n", tableName, columnDefinition(target))
	case db.EngineSQLite:
		return fmt.Sprintf("-- SQLite does not support ALTER COLUMN. Manual migration required for %s.%s\n", tableName, target.Name)
	}
	return fmt.Sprintf("-- Unsupported engine %s for %s.%s\n", engine, tableName, target.Name)
}

// columnDefinition renders one column clause:
// name type[(len)][(precision,scale)] [NOT NULL] [DEFAULT expr].
// The length parenthesis applies only to VARCHAR-family types.
func columnDefinition(col schema.Column) string {
	var b strings.Builder
	b.WriteString(col.Name)
	b.WriteString(" ")
	b.WriteString(col.DataType)

	if col.MaxLength != nil && strings.Contains(strings.ToUpper(col.DataType), "VARCHAR") {
		fmt.Fprintf(&b, "(%d)", *col.MaxLength)
	}
	if col.Precision != nil && col.Scale != nil {
		fmt.Fprintf(&b, "(%d,%d)", *col.Precision, *col.Scale)
	}
	if !col.IsNullable {
		b.WriteString(" NOT NULL")
	}
	if col.DefaultValue != nil && *col.DefaultValue != "" {
		b.WriteString(" DEFAULT " + *col.DefaultValue)
	}
	return b.String()
}
