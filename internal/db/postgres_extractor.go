package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/tordrt/schemadiff/internal/schema"
)

// postgresExtractor runs the PostgreSQL catalog queries and decodes them into
// the normalized model. Each query decodes into a typed row struct at the
// boundary.
type postgresExtractor struct {
	conn *pgx.Conn
}

func newPostgresExtractor(conn *pgx.Conn) *postgresExtractor {
	return &postgresExtractor{conn: conn}
}

type pgColumnRow struct {
	Name       string
	DataType   string
	IsNullable string
	Default    *string
	MaxLength  *int
	Precision  *int
	Scale      *int
	Generated  string
}

type pgConstraintRow struct {
	Name      string
	Type      string
	Column    *string
	Position  *int
	RefTable  *string
	RefColumn *string
}

func (e *postgresExtractor) extract(ctx context.Context, opts ReadOptions) (*schema.Schema, error) {
	s := &schema.Schema{
		Tables:   []schema.Table{},
		Views:    []schema.View{},
		Indexes:  []schema.Index{},
		Metadata: map[string]string{"engine": EnginePostgres},
	}

	if err := e.conn.QueryRow(ctx, "SELECT current_database()").Scan(&s.DatabaseName); err != nil {
		return nil, catalogErr(EnginePostgres, "current_database", err)
	}

	tables, err := e.tableNames(ctx)
	if err != nil {
		return nil, err
	}

	for _, t := range tables {
		table := schema.Table{
			Name:       t.Name,
			SchemaName: t.SchemaName,
			Columns:    []schema.Column{},
		}

		table.Columns, err = e.extractColumns(ctx, t.SchemaName, t.Name)
		if err != nil {
			return nil, err
		}

		table.Constraints, err = e.extractConstraints(ctx, t.SchemaName, t.Name)
		if err != nil {
			return nil, err
		}

		s.Tables = append(s.Tables, table)
	}

	if opts.IncludeViews {
		s.Views, err = e.extractViews(ctx)
		if err != nil {
			return nil, err
		}
	}

	if opts.IncludeIndexes {
		s.Indexes, err = e.extractIndexes(ctx, true)
		if err != nil {
			return nil, err
		}
	}

	return s, nil
}

type pgTableName struct {
	SchemaName string
	Name       string
}

func (e *postgresExtractor) tableNames(ctx context.Context) ([]pgTableName, error) {
	query := `
		SELECT table_schema, table_name
		FROM information_schema.tables
		WHERE table_type = 'BASE TABLE'
		  AND table_schema NOT IN ('information_schema', 'pg_catalog')
		ORDER BY table_schema, table_name
	`

	rows, err := e.conn.Query(ctx, query)
	if err != nil {
		return nil, catalogErr(EnginePostgres, "tables", err)
	}
	defer rows.Close()

	var tables []pgTableName
	for rows.Next() {
		var t pgTableName
		if err := rows.Scan(&t.SchemaName, &t.Name); err != nil {
			return nil, catalogErr(EnginePostgres, "tables", err)
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (e *postgresExtractor) extractColumns(ctx context.Context, schemaName, tableName string) ([]schema.Column, error) {
	query := `
		SELECT
			column_name,
			data_type,
			is_nullable,
			column_default,
			character_maximum_length,
			numeric_precision,
			numeric_scale,
			is_generated
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`

	rows, err := e.conn.Query(ctx, query, schemaName, tableName)
	if err != nil {
		return nil, catalogErr(EnginePostgres, "columns", err)
	}
	defer rows.Close()

	columns := []schema.Column{}
	for rows.Next() {
		var r pgColumnRow
		if err := rows.Scan(&r.Name, &r.DataType, &r.IsNullable, &r.Default,
			&r.MaxLength, &r.Precision, &r.Scale, &r.Generated); err != nil {
			return nil, catalogErr(EnginePostgres, "columns", err)
		}

		col := schema.Column{
			Name:       r.Name,
			DataType:   r.DataType,
			IsNullable: r.IsNullable == "YES",
			MaxLength:  r.MaxLength,
			Precision:  r.Precision,
			Scale:      r.Scale,
			IsComputed: r.Generated == "ALWAYS",
		}
		if r.Default != nil && *r.Default != "" {
			col.DefaultValue = r.Default
			// Serial and identity columns default to a nextval() call.
			col.IsIdentity = strings.HasPrefix(*r.Default, "nextval")
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (e *postgresExtractor) extractConstraints(ctx context.Context, schemaName, tableName string) ([]schema.Constraint, error) {
	query := `
		SELECT
			tc.constraint_name,
			tc.constraint_type,
			kcu.column_name,
			kcu.ordinal_position,
			ccu.table_name,
			ccu.column_name
		FROM information_schema.table_constraints tc
		LEFT JOIN information_schema.key_column_usage kcu
			ON kcu.constraint_name = tc.constraint_name
			AND kcu.table_schema = tc.table_schema
			AND kcu.table_name = tc.table_name
		LEFT JOIN information_schema.constraint_column_usage ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		WHERE tc.table_schema = $1 AND tc.table_name = $2
		ORDER BY tc.constraint_name, kcu.ordinal_position
	`

	rows, err := e.conn.Query(ctx, query, schemaName, tableName)
	if err != nil {
		return nil, catalogErr(EnginePostgres, "constraints", err)
	}
	defer rows.Close()

	// Rows arrive one per (constraint, column) pair; group them back into
	// constraints keyed by (name, type), preserving first-seen order.
	var order []string
	grouped := make(map[string]*schema.Constraint)

	for rows.Next() {
		var r pgConstraintRow
		if err := rows.Scan(&r.Name, &r.Type, &r.Column, &r.Position, &r.RefTable, &r.RefColumn); err != nil {
			return nil, catalogErr(EnginePostgres, "constraints", err)
		}

		kind, ok := schema.ParseConstraintType(r.Type)
		if !ok {
			continue
		}

		key := r.Name + "|" + r.Type
		con, seen := grouped[key]
		if !seen {
			con = &schema.Constraint{
				Name:       r.Name,
				Type:       kind,
				TableName:  tableName,
				SchemaName: schemaName,
			}
			grouped[key] = con
			order = append(order, key)
		}

		if r.Column != nil && !containsString(con.Columns, *r.Column) {
			con.Columns = append(con.Columns, *r.Column)
		}
		if kind == schema.ForeignKeyConstraint && r.RefTable != nil {
			con.ReferencedTable = *r.RefTable
			if r.RefColumn != nil && !containsString(con.ReferencedColumns, *r.RefColumn) {
				con.ReferencedColumns = append(con.ReferencedColumns, *r.RefColumn)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, catalogErr(EnginePostgres, "constraints", err)
	}

	constraints := make([]schema.Constraint, 0, len(order))
	for _, key := range order {
		constraints = append(constraints, *grouped[key])
	}
	return constraints, nil
}

func (e *postgresExtractor) extractViews(ctx context.Context) ([]schema.View, error) {
	query := `
		SELECT table_schema, table_name, COALESCE(view_definition, '')
		FROM information_schema.views
		WHERE table_schema NOT IN ('information_schema', 'pg_catalog')
		ORDER BY table_schema, table_name
	`

	rows, err := e.conn.Query(ctx, query)
	if err != nil {
		return nil, catalogErr(EnginePostgres, "views", err)
	}
	defer rows.Close()

	views := []schema.View{}
	for rows.Next() {
		var v schema.View
		if err := rows.Scan(&v.SchemaName, &v.Name, &v.Definition); err != nil {
			return nil, catalogErr(EnginePostgres, "views", err)
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

func (e *postgresExtractor) extractIndexes(ctx context.Context, includePrimaryKeys bool) ([]schema.Index, error) {
	// The primary-key filter is bracketed explicitly: keep every secondary
	// index, and primary indexes only when asked for.
	query := `
		SELECT
			n.nspname AS schema_name,
			t.relname AS table_name,
			i.relname AS index_name,
			ix.indisunique,
			ix.indisprimary,
			pg_get_indexdef(ix.indexrelid) AS definition,
			array_agg(a.attname ORDER BY array_position(ix.indkey, a.attnum)) AS column_names
		FROM pg_class t
		JOIN pg_index ix ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE t.relkind = 'r'
		  AND n.nspname NOT IN ('information_schema', 'pg_catalog')
		  AND ((NOT ix.indisprimary) OR (ix.indisprimary AND $1))
		GROUP BY n.nspname, t.relname, i.relname, ix.indisunique, ix.indisprimary, ix.indexrelid
		ORDER BY n.nspname, t.relname, i.relname
	`

	rows, err := e.conn.Query(ctx, query, includePrimaryKeys)
	if err != nil {
		return nil, catalogErr(EnginePostgres, "indexes", err)
	}
	defer rows.Close()

	indexes := []schema.Index{}
	for rows.Next() {
		var idx schema.Index
		var definition string
		if err := rows.Scan(&idx.SchemaName, &idx.TableName, &idx.Name,
			&idx.IsUnique, &idx.IsPrimaryKey, &definition, &idx.Columns); err != nil {
			return nil, catalogErr(EnginePostgres, "indexes", err)
		}
		idx.Properties = map[string]string{"Definition": definition}
		indexes = append(indexes, idx)
	}
	return indexes, rows.Err()
}

func containsString(items []string, s string) bool {
	for _, item := range items {
		if item == s {
			return true
		}
	}
	return false
}
