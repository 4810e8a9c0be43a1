package db

import (
	"context"
	"database/sql"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/tordrt/schemadiff/internal/debug"
	"github.com/tordrt/schemadiff/internal/schema"
)

// SQLServerClient manages one connection to SQL Server
type SQLServerClient struct {
	db *sql.DB
}

// NewSQLServerClient opens and pings a SQL Server connection
func NewSQLServerClient(ctx context.Context, connString string) (*SQLServerClient, error) {
	db, err := sql.Open("sqlserver", connString)
	if err != nil {
		return nil, &ConnectionError{Engine: EngineSQLServer, Err: err}
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &ConnectionError{Engine: EngineSQLServer, Err: err}
	}

	return &SQLServerClient{db: db}, nil
}

// Close closes the database connection
func (c *SQLServerClient) Close() error {
	return c.db.Close()
}

// SQLServerBackend implements Backend for SQL Server.
type SQLServerBackend struct{}

// ReadSchema reads the full schema over a single connection.
func (b *SQLServerBackend) ReadSchema(ctx context.Context, conn string, opts ReadOptions) (*schema.Schema, error) {
	client, err := NewSQLServerClient(ctx, conn)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Close() }()

	extractor := newSQLServerExtractor(client.db)
	s, err := extractor.extract(ctx, opts)
	if err != nil {
		return nil, err
	}
	applyReadOptions(s, opts)
	debug.Debug("sqlserver schema read",
		"database", s.DatabaseName,
		"tables", len(s.Tables),
		"views", len(s.Views),
		"indexes", len(s.Indexes))
	return s, nil
}

// TestConnection attempts connect-and-close. It never fails, only reports.
func (b *SQLServerBackend) TestConnection(ctx context.Context, conn string) bool {
	client, err := NewSQLServerClient(ctx, conn)
	if err != nil {
		debug.Debug("sqlserver connection test failed", "error", err)
		return false
	}
	_ = client.Close()
	return true
}

// DisplayName renders the connection string with credentials redacted.
func (b *SQLServerBackend) DisplayName(conn string) string {
	return redactURL(EngineSQLServer, conn)
}
