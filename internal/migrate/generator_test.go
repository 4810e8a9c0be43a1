package migrate

import (
	"strings"
	"testing"
	"time"

	"github.com/tordrt/schemadiff/internal/compare"
	"github.com/tordrt/schemadiff/internal/db"
	"github.com/tordrt/schemadiff/internal/schema"
)

func intPtr(v int) *int { return &v }

func pinnedGenerator() *Generator {
	return &Generator{Now: func() time.Time {
		return time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	}}
}

func TestEnvelopeAlwaysPresent(t *testing.T) {
	g := pinnedGenerator()
	script := g.Generate(&compare.Result{}, db.EngineSQLite, "empty_run")

	for _, want := range []string{
		"-- Migration: empty_run",
		"-- Generated: 2024-05-01 12:30:00",
		"-- Engine: sqlite",
		"BEGIN TRANSACTION;",
		"COMMIT;",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q:\n%s", want, script)
		}
	}

	if strings.Contains(script, "CREATE TABLE") || strings.Contains(script, "ALTER TABLE") {
		t.Errorf("empty diff should produce no DDL body:\n%s", script)
	}
	if strings.Index(script, "BEGIN TRANSACTION;") > strings.Index(script, "COMMIT;") {
		t.Error("BEGIN must precede COMMIT")
	}
}

func TestCreateTableForMissingTable(t *testing.T) {
	result := &compare.Result{
		MissingTables: []schema.Table{
			{
				Name: "categories",
				Columns: []schema.Column{
					{Name: "id", DataType: "INTEGER"},
					{Name: "name", DataType: "VARCHAR", MaxLength: intPtr(50)},
					{Name: "description", DataType: "TEXT", IsNullable: true},
				},
			},
		},
	}

	script := pinnedGenerator().Generate(result, db.EngineSQLite, "m")

	if !strings.Contains(script, "CREATE TABLE categories (") {
		t.Fatalf("missing CREATE TABLE:\n%s", script)
	}
	if !strings.Contains(script, "id INTEGER NOT NULL,") {
		t.Errorf("expected id line with NOT NULL:\n%s", script)
	}
	if !strings.Contains(script, "name VARCHAR(50) NOT NULL,") {
		t.Errorf("expected varchar length appended:\n%s", script)
	}
	if !strings.Contains(script, "description TEXT\n") {
		t.Errorf("nullable column must carry no NOT NULL:\n%s", script)
	}

	// Column order follows source order.
	idPos := strings.Index(script, "id INTEGER")
	namePos := strings.Index(script, "name VARCHAR")
	descPos := strings.Index(script, "description TEXT")
	if !(idPos < namePos && namePos < descPos) {
		t.Errorf("columns out of source order:\n%s", script)
	}
}

func TestExtraTablesNeverSynthesized(t *testing.T) {
	result := &compare.Result{
		ExtraTables: []schema.Table{
			{Name: "categories", Columns: []schema.Column{{Name: "id", DataType: "INTEGER"}}},
		},
	}

	script := pinnedGenerator().Generate(result, db.EngineSQLite, "m")

	if strings.Contains(script, "categories") {
		t.Errorf("extra tables are reported, not synthesized:\n%s", script)
	}
}

func TestAddColumn(t *testing.T) {
	result := &compare.Result{
		ModifiedTables: []compare.TableDiff{
			{
				TableName: "users",
				MissingColumns: []schema.Column{
					{Name: "phone", DataType: "VARCHAR", MaxLength: intPtr(20), IsNullable: true},
				},
			},
		},
	}

	script := pinnedGenerator().Generate(result, db.EngineSQLite, "m")

	if !strings.Contains(script, "ALTER TABLE users ADD COLUMN phone VARCHAR(20);") {
		t.Errorf("missing ADD COLUMN statement:\n%s", script)
	}
}

func TestModifyColumnDialects(t *testing.T) {
	result := func() *compare.Result {
		return &compare.Result{
			ModifiedTables: []compare.TableDiff{
				{
					TableName: "users",
					ModifiedColumns: []compare.ColumnDiff{
						{
							Source:      schema.Column{Name: "name", DataType: "VARCHAR", MaxLength: intPtr(100)},
							Target:      schema.Column{Name: "name", DataType: "VARCHAR", MaxLength: intPtr(120)},
							Differences: []string{"MaxLength changed from 100 to 120"},
						},
					},
				},
			},
		}
	}

	tests := []struct {
		engine string
		want   string
	}{
		{db.EnginePostgres, "ALTER TABLE users ALTER COLUMN name TYPE VARCHAR;"},
		{db.EngineMySQL, "ALTER TABLE users MODIFY COLUMN name VARCHAR(120) NOT NULL;"},
		{db.EngineSQLServer, "ALTER TABLE users ALTER COLUMN name VARCHAR(120) NOT NULL;"},
		{db.EngineSQLite, "-- SQLite does not support ALTER COLUMN. Manual migration required for users.name"},
	}

	for _, tt := range tests {
		t.Run(tt.engine, func(t *testing.T) {
			script := pinnedGenerator().Generate(result(), tt.engine, "m")
			if !strings.Contains(script, tt.want) {
				t.Errorf("engine %s: missing %q:\n%s", tt.engine, tt.want, script)
			}
		})
	}
}

func TestColumnDefinition(t *testing.T) {
	tests := []struct {
		name string
		col  schema.Column
		want string
	}{
		{
			name: "plain not null",
			col:  schema.Column{Name: "id", DataType: "INTEGER"},
			want: "id INTEGER NOT NULL",
		},
		{
			name: "varchar with length",
			col:  schema.Column{Name: "name", DataType: "VARCHAR", MaxLength: intPtr(100)},
			want: "name VARCHAR(100) NOT NULL",
		},
		{
			name: "length ignored for non-varchar",
			col:  schema.Column{Name: "body", DataType: "TEXT", MaxLength: intPtr(65535), IsNullable: true},
			want: "body TEXT",
		},
		{
			name: "precision and scale",
			col:  schema.Column{Name: "price", DataType: "DECIMAL", Precision: intPtr(10), Scale: intPtr(2)},
			want: "price DECIMAL(10,2) NOT NULL",
		},
		{
			name: "precision alone is not rendered",
			col:  schema.Column{Name: "n", DataType: "NUMERIC", Precision: intPtr(10), IsNullable: true},
			want: "n NUMERIC",
		},
		{
			name: "default expression",
			col: schema.Column{
				Name: "status", DataType: "VARCHAR", MaxLength: intPtr(16),
				DefaultValue: func() *string { s := "'active'"; return &s }(),
			},
			want: "status VARCHAR(16) NOT NULL DEFAULT 'active'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := columnDefinition(tt.col); got != tt.want {
				t.Errorf("columnDefinition() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	result := &compare.Result{
		MissingTables: []schema.Table{
			{Name: "a", Columns: []schema.Column{{Name: "x", DataType: "INT"}}},
			{Name: "b", Columns: []schema.Column{{Name: "y", DataType: "INT"}}},
		},
	}

	g := pinnedGenerator()
	first := g.Generate(result, db.EnginePostgres, "m")
	for range 5 {
		if got := g.Generate(result, db.EnginePostgres, "m"); got != first {
			t.Fatal("generated script differs across runs")
		}
	}
}
