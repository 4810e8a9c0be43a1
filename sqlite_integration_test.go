//go:build integration
// +build integration

package schemadiff

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
)

// The sqlite3 driver is registered by the back-end package, which the facade
// always links in.

func createDB(t *testing.T, path string, ddl []string) {
	t.Helper()

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer db.Close()

	for _, stmt := range ddl {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("failed to exec %q: %v", stmt, err)
		}
	}
}

func baseDDL() []string {
	return []string{
		`CREATE TABLE users (
			id INTEGER PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			email VARCHAR(255),
			created_at TIMESTAMP
		)`,
		`CREATE TABLE products (
			id INTEGER PRIMARY KEY,
			price DECIMAL(10,2)
		)`,
	}
}

func runDiff(t *testing.T, sourceDDL, targetDDL []string) *Outcome {
	t.Helper()

	dir := t.TempDir()
	sourcePath := filepath.Join(dir, "source.db")
	targetPath := filepath.Join(dir, "target.db")
	createDB(t, sourcePath, sourceDDL)
	createDB(t, targetPath, targetDDL)

	outcome, err := Diff(context.Background(), Options{
		Source:        sourcePath,
		Target:        targetPath,
		Engine:        "sqlite",
		MigrationName: "integration_run",
	})
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}
	return outcome
}

func TestIdenticalDatabases(t *testing.T) {
	outcome := runDiff(t, baseDDL(), baseDDL())

	if outcome.Result.Summary.DifferencesFound != 0 {
		t.Errorf("expected no differences, got %d", outcome.Result.Summary.DifferencesFound)
	}
	if !strings.Contains(outcome.Script, "BEGIN TRANSACTION;") || !strings.Contains(outcome.Script, "COMMIT;") {
		t.Errorf("envelope missing from script:\n%s", outcome.Script)
	}
}

func TestColumnTypeWidened(t *testing.T) {
	target := []string{
		`CREATE TABLE users (
			id INTEGER PRIMARY KEY,
			name VARCHAR(120) NOT NULL,
			email VARCHAR(255),
			created_at TIMESTAMP
		)`,
		`CREATE TABLE products (
			id INTEGER PRIMARY KEY,
			price DECIMAL(10,2)
		)`,
	}

	outcome := runDiff(t, baseDDL(), target)

	if len(outcome.Result.ModifiedTables) != 1 {
		t.Fatalf("expected 1 modified table, got %d", len(outcome.Result.ModifiedTables))
	}
	td := outcome.Result.ModifiedTables[0]
	if td.TableName != "users" {
		t.Errorf("modified table = %s", td.TableName)
	}
	if len(td.ModifiedColumns) != 1 || td.ModifiedColumns[0].Source.Name != "name" {
		t.Fatalf("expected modified column name, got %+v", td.ModifiedColumns)
	}
	if !strings.Contains(outcome.Script, "Manual migration required for users.name") {
		t.Errorf("expected SQLite advisory comment:\n%s", outcome.Script)
	}
}

func TestColumnAdded(t *testing.T) {
	target := append(baseDDL()[:0:0], baseDDL()...)
	target[0] = `CREATE TABLE users (
		id INTEGER PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		email VARCHAR(255),
		created_at TIMESTAMP,
		phone VARCHAR(20)
	)`

	outcome := runDiff(t, baseDDL(), target)

	if len(outcome.Result.ModifiedTables) != 1 {
		t.Fatalf("expected 1 modified table, got %d", len(outcome.Result.ModifiedTables))
	}
	td := outcome.Result.ModifiedTables[0]
	if len(td.ExtraColumns) != 1 || td.ExtraColumns[0].Name != "phone" {
		t.Errorf("expected extra column phone, got %+v", td.ExtraColumns)
	}

	// Reversed, the new column is missing from the target and gets an ADD
	// COLUMN statement.
	reversed := runDiff(t, target, baseDDL())
	if len(reversed.Result.ModifiedTables) != 1 || len(reversed.Result.ModifiedTables[0].MissingColumns) != 1 {
		t.Fatalf("expected missing column in reversed diff, got %+v", reversed.Result.ModifiedTables)
	}
	if !strings.Contains(reversed.Script, "ALTER TABLE users ADD COLUMN phone VARCHAR(20);") {
		t.Errorf("expected ADD COLUMN statement:\n%s", reversed.Script)
	}
}

func TestTableAddedInTarget(t *testing.T) {
	target := append(baseDDL(),
		`CREATE TABLE categories (
			id INTEGER PRIMARY KEY,
			name VARCHAR(50) NOT NULL,
			description TEXT
		)`)

	outcome := runDiff(t, baseDDL(), target)

	if len(outcome.Result.ExtraTables) != 1 || outcome.Result.ExtraTables[0].Name != "categories" {
		t.Fatalf("expected extra table categories, got %+v", outcome.Result.ExtraTables)
	}
	if strings.Contains(outcome.Script, "CREATE TABLE categories") {
		t.Errorf("extra tables must not be synthesized:\n%s", outcome.Script)
	}
}

func TestTableAddedInSource(t *testing.T) {
	source := append(baseDDL(),
		`CREATE TABLE categories (
			id INTEGER PRIMARY KEY,
			name VARCHAR(50) NOT NULL,
			description TEXT
		)`)

	outcome := runDiff(t, source, baseDDL())

	if len(outcome.Result.MissingTables) != 1 || outcome.Result.MissingTables[0].Name != "categories" {
		t.Fatalf("expected missing table categories, got %+v", outcome.Result.MissingTables)
	}
	if !strings.Contains(outcome.Script, "CREATE TABLE categories (") {
		t.Errorf("missing tables must be synthesized:\n%s", outcome.Script)
	}

	// Column order in the generated DDL follows the source table definition.
	script := outcome.Script
	idPos := strings.Index(script, "id INTEGER")
	namePos := strings.Index(script, "name VARCHAR")
	descPos := strings.Index(script, "description TEXT")
	if !(idPos >= 0 && idPos < namePos && namePos < descPos) {
		t.Errorf("CREATE TABLE columns out of order:\n%s", script)
	}
}

func TestIndexesCompared(t *testing.T) {
	source := append(baseDDL(), `CREATE INDEX idx_users_email ON users(email)`)
	target := append(baseDDL(), `CREATE UNIQUE INDEX idx_users_email ON users(email)`)

	outcome := runDiff(t, source, target)

	if len(outcome.Result.ModifiedIndexes) != 1 {
		t.Fatalf("expected 1 modified index, got %+v", outcome.Result.ModifiedIndexes)
	}
	diffs := outcome.Result.ModifiedIndexes[0].Differences
	if len(diffs) != 1 || diffs[0] != "IsUnique changed from false to true" {
		t.Errorf("unexpected difference list: %v", diffs)
	}
}
