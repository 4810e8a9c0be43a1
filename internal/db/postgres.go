package db

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/tordrt/schemadiff/internal/debug"
	"github.com/tordrt/schemadiff/internal/schema"
)

// PostgresClient manages one connection to PostgreSQL
type PostgresClient struct {
	conn *pgx.Conn
}

// NewPostgresClient opens and pings a PostgreSQL connection
func NewPostgresClient(ctx context.Context, connString string) (*PostgresClient, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, &ConnectionError{Engine: EnginePostgres, Err: err}
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, &ConnectionError{Engine: EnginePostgres, Err: err}
	}

	return &PostgresClient{conn: conn}, nil
}

// Close closes the database connection
func (c *PostgresClient) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}

// PostgresBackend implements Backend for PostgreSQL.
type PostgresBackend struct{}

// ReadSchema reads the full schema over a single connection.
func (b *PostgresBackend) ReadSchema(ctx context.Context, conn string, opts ReadOptions) (*schema.Schema, error) {
	client, err := NewPostgresClient(ctx, conn)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Close(ctx) }()

	extractor := newPostgresExtractor(client.conn)
	s, err := extractor.extract(ctx, opts)
	if err != nil {
		return nil, err
	}
	applyReadOptions(s, opts)
	debug.Debug("postgres schema read",
		"database", s.DatabaseName,
		"tables", len(s.Tables),
		"views", len(s.Views),
		"indexes", len(s.Indexes))
	return s, nil
}

// TestConnection attempts connect-and-close. It never fails, only reports.
func (b *PostgresBackend) TestConnection(ctx context.Context, conn string) bool {
	client, err := NewPostgresClient(ctx, conn)
	if err != nil {
		debug.Debug("postgres connection test failed", "error", err)
		return false
	}
	_ = client.Close(ctx)
	return true
}

// DisplayName renders the connection string with credentials redacted.
func (b *PostgresBackend) DisplayName(conn string) string {
	return redactURL(EnginePostgres, conn)
}
