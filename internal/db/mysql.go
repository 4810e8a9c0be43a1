package db

import (
	"context"
	"database/sql"

	_ "github.com/go-sql-driver/mysql"

	"github.com/tordrt/schemadiff/internal/debug"
	"github.com/tordrt/schemadiff/internal/schema"
)

// MySQLClient manages one connection to MySQL
type MySQLClient struct {
	db *sql.DB
}

// NewMySQLClient opens and pings a MySQL connection
func NewMySQLClient(ctx context.Context, connString string) (*MySQLClient, error) {
	db, err := sql.Open("mysql", connString)
	if err != nil {
		return nil, &ConnectionError{Engine: EngineMySQL, Err: err}
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &ConnectionError{Engine: EngineMySQL, Err: err}
	}

	return &MySQLClient{db: db}, nil
}

// Close closes the database connection
func (c *MySQLClient) Close() error {
	return c.db.Close()
}

// MySQLBackend implements Backend for MySQL.
type MySQLBackend struct{}

// ReadSchema reads the schema of the current database over one connection.
func (b *MySQLBackend) ReadSchema(ctx context.Context, conn string, opts ReadOptions) (*schema.Schema, error) {
	client, err := NewMySQLClient(ctx, conn)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Close() }()

	extractor := newMySQLExtractor(client.db)
	s, err := extractor.extract(ctx, opts)
	if err != nil {
		return nil, err
	}
	applyReadOptions(s, opts)
	debug.Debug("mysql schema read",
		"database", s.DatabaseName,
		"tables", len(s.Tables),
		"views", len(s.Views),
		"indexes", len(s.Indexes))
	return s, nil
}

// TestConnection attempts connect-and-close. It never fails, only reports.
func (b *MySQLBackend) TestConnection(ctx context.Context, conn string) bool {
	client, err := NewMySQLClient(ctx, conn)
	if err != nil {
		debug.Debug("mysql connection test failed", "error", err)
		return false
	}
	_ = client.Close()
	return true
}

// DisplayName renders the DSN with credentials redacted.
func (b *MySQLBackend) DisplayName(conn string) string {
	return redactMySQLDSN(conn)
}
