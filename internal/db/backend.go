package db

import (
	"context"
	"fmt"
	"path"

	"github.com/tordrt/schemadiff/internal/schema"
)

// Supported engine tags.
const (
	EnginePostgres  = "postgres"
	EngineMySQL     = "mysql"
	EngineSQLServer = "sqlserver"
	EngineSQLite    = "sqlite"
)

// Backend is the capability set shared by the four engine back-ends.
type Backend interface {
	// ReadSchema opens one connection, runs the engine's catalog queries and
	// returns a fully populated, self-contained schema. The connection is
	// released on every exit path.
	ReadSchema(ctx context.Context, conn string, opts ReadOptions) (*schema.Schema, error)

	// TestConnection attempts a connect-and-close round trip. It never
	// returns an error, only whether the endpoint is reachable.
	TestConnection(ctx context.Context, conn string) bool

	// DisplayName renders the connection string with credentials redacted.
	// It never fails; unparseable input yields "<engine>://***".
	DisplayName(conn string) string
}

// ForEngine selects the back-end for an engine tag.
func ForEngine(engine string) (Backend, error) {
	switch engine {
	case EnginePostgres:
		return &PostgresBackend{}, nil
	case EngineMySQL:
		return &MySQLBackend{}, nil
	case EngineSQLServer:
		return &SQLServerBackend{}, nil
	case EngineSQLite:
		return &SQLiteBackend{}, nil
	}
	return nil, fmt.Errorf("unsupported engine: %s (must be postgres, mysql, sqlserver, or sqlite)", engine)
}

// ReadOptions configures what a schema read retains.
type ReadOptions struct {
	// IncludeTables, when non-empty, keeps only these fully-qualified tables.
	IncludeTables []string

	// ExcludeTables drops tables by name or glob pattern.
	ExcludeTables []string

	// IncludeSchemas whitelists schema namespaces. Nil keeps all non-system
	// namespaces.
	IncludeSchemas []string

	// IncludeViews, IncludeIndexes and IncludeForeignKeys gate the optional
	// collections. All default to true.
	IncludeViews       bool
	IncludeIndexes     bool
	IncludeForeignKeys bool
}

// DefaultReadOptions returns the options a full schema read uses.
func DefaultReadOptions() ReadOptions {
	return ReadOptions{
		IncludeViews:       true,
		IncludeIndexes:     true,
		IncludeForeignKeys: true,
	}
}

// applyReadOptions filters a freshly read schema in place. Back-ends call it
// once, after the catalog read, so filtering behaves identically across
// engines.
func applyReadOptions(s *schema.Schema, opts ReadOptions) {
	if len(opts.IncludeSchemas) > 0 {
		allowed := make(map[string]bool, len(opts.IncludeSchemas))
		for _, ns := range opts.IncludeSchemas {
			allowed[ns] = true
		}
		s.Tables = filterInPlace(s.Tables, func(t schema.Table) bool { return allowed[t.SchemaName] })
		s.Views = filterInPlace(s.Views, func(v schema.View) bool { return allowed[v.SchemaName] })
	}

	if len(opts.IncludeTables) > 0 {
		wanted := make(map[string]bool, len(opts.IncludeTables))
		for _, name := range opts.IncludeTables {
			wanted[name] = true
		}
		s.Tables = filterInPlace(s.Tables, func(t schema.Table) bool {
			return wanted[t.FullName()] || wanted[t.Name]
		})
	}

	if len(opts.ExcludeTables) > 0 {
		s.Tables = filterInPlace(s.Tables, func(t schema.Table) bool {
			return !matchesAny(opts.ExcludeTables, t.FullName()) && !matchesAny(opts.ExcludeTables, t.Name)
		})
	}

	// Indexes follow their tables out of the schema.
	kept := make(map[string]bool, len(s.Tables))
	for _, t := range s.Tables {
		kept[t.FullName()] = true
		kept[t.Name] = true
	}
	s.Indexes = filterInPlace(s.Indexes, func(i schema.Index) bool { return kept[i.TableName] })

	if !opts.IncludeViews {
		s.Views = nil
	}
	if !opts.IncludeIndexes {
		s.Indexes = nil
	}
	if !opts.IncludeForeignKeys {
		for ti := range s.Tables {
			s.Tables[ti].Constraints = filterInPlace(s.Tables[ti].Constraints, func(c schema.Constraint) bool {
				return c.Type != schema.ForeignKeyConstraint
			})
		}
	}
}

// matchesAny reports whether name matches any of the patterns, by equality or
// path-style glob.
func matchesAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if p == name {
			return true
		}
		if ok, err := path.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

func filterInPlace[T any](items []T, keep func(T) bool) []T {
	if items == nil {
		return nil
	}
	out := items[:0]
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
