package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tordrt/schemadiff/internal/debug"
	"github.com/tordrt/schemadiff/internal/schema"
)

// SQLiteClient manages one connection to a SQLite database file
type SQLiteClient struct {
	db   *sql.DB
	path string
}

// NewSQLiteClient opens and pings a SQLite database file
func NewSQLiteClient(ctx context.Context, path string) (*SQLiteClient, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &ConnectionError{Engine: EngineSQLite, Err: err}
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &ConnectionError{Engine: EngineSQLite, Err: err}
	}

	return &SQLiteClient{db: db, path: path}, nil
}

// Close closes the database connection
func (c *SQLiteClient) Close() error {
	return c.db.Close()
}

// SQLiteBackend implements Backend for SQLite.
type SQLiteBackend struct{}

// ReadSchema reads the schema of the database file over one connection.
func (b *SQLiteBackend) ReadSchema(ctx context.Context, conn string, opts ReadOptions) (*schema.Schema, error) {
	client, err := NewSQLiteClient(ctx, sqlitePath(conn))
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Close() }()

	extractor := newSQLiteExtractor(client.db, client.path)
	s, err := extractor.extract(ctx, opts)
	if err != nil {
		return nil, err
	}
	applyReadOptions(s, opts)
	debug.Debug("sqlite schema read",
		"database", s.DatabaseName,
		"tables", len(s.Tables),
		"views", len(s.Views),
		"indexes", len(s.Indexes))
	return s, nil
}

// TestConnection attempts connect-and-close. It never fails, only reports.
func (b *SQLiteBackend) TestConnection(ctx context.Context, conn string) bool {
	client, err := NewSQLiteClient(ctx, sqlitePath(conn))
	if err != nil {
		debug.Debug("sqlite connection test failed", "error", err)
		return false
	}
	_ = client.Close()
	return true
}

// DisplayName returns the file path; SQLite connection strings carry no
// credentials.
func (b *SQLiteBackend) DisplayName(conn string) string {
	if conn == "" {
		return EngineSQLite + "://***"
	}
	return EngineSQLite + "://" + sqlitePath(conn)
}

// sqlitePath accepts both a bare file path and a sqlite:// URL form.
func sqlitePath(conn string) string {
	return strings.TrimPrefix(conn, "sqlite://")
}

// databaseNameFromPath derives the logical database name from the file path.
func databaseNameFromPath(path string) string {
	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." {
		return "main"
	}
	return base
}
