package db

import (
	"context"
	"database/sql"

	"github.com/tordrt/schemadiff/internal/schema"
)

// sqlserverExtractor runs the SQL Server catalog queries against sys.* and
// INFORMATION_SCHEMA.
type sqlserverExtractor struct {
	db *sql.DB
}

func newSQLServerExtractor(db *sql.DB) *sqlserverExtractor {
	return &sqlserverExtractor{db: db}
}

type mssqlColumnRow struct {
	Name       string
	DataType   string
	IsNullable bool
	Default    sql.NullString
	MaxLength  sql.NullInt64
	Precision  sql.NullInt64
	Scale      sql.NullInt64
	IsIdentity bool
	IsComputed bool
}

func (e *sqlserverExtractor) extract(ctx context.Context, opts ReadOptions) (*schema.Schema, error) {
	s := &schema.Schema{
		Tables:   []schema.Table{},
		Views:    []schema.View{},
		Indexes:  []schema.Index{},
		Metadata: map[string]string{"engine": EngineSQLServer},
	}

	if err := e.db.QueryRowContext(ctx, "SELECT DB_NAME()").Scan(&s.DatabaseName); err != nil {
		return nil, catalogErr(EngineSQLServer, "db_name", err)
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
		s.Indexes, err = e.extractIndexes(ctx)
		if err != nil {
			return nil, err
		}
	}

	return s, nil
}

type mssqlTableName struct {
	SchemaName string
	Name       string
}

func (e *sqlserverExtractor) tableNames(ctx context.Context) ([]mssqlTableName, error) {
	query := `
		SELECT s.name, t.name
		FROM sys.tables t
		JOIN sys.schemas s ON t.schema_id = s.schema_id
		ORDER BY s.name, t.name
	`

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, catalogErr(EngineSQLServer, "tables", err)
	}
	defer rows.Close()

	var tables []mssqlTableName
	for rows.Next() {
		var t mssqlTableName
		if err := rows.Scan(&t.SchemaName, &t.Name); err != nil {
			return nil, catalogErr(EngineSQLServer, "tables", err)
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (e *sqlserverExtractor) extractColumns(ctx context.Context, schemaName, tableName string) ([]schema.Column, error) {
	query := `
		SELECT
			c.name,
			ty.name,
			c.is_nullable,
			dc.definition,
			c.max_length,
			c.precision,
			c.scale,
			c.is_identity,
			c.is_computed
		FROM sys.columns c
		JOIN sys.tables t ON c.object_id = t.object_id
		JOIN sys.schemas s ON t.schema_id = s.schema_id
		JOIN sys.types ty ON c.user_type_id = ty.user_type_id
		LEFT JOIN sys.default_constraints dc
			ON dc.parent_object_id = c.object_id
			AND dc.parent_column_id = c.column_id
		WHERE s.name = @p1 AND t.name = @p2
		ORDER BY c.column_id
	`

	rows, err := e.db.QueryContext(ctx, query, schemaName, tableName)
	if err != nil {
		return nil, catalogErr(EngineSQLServer, "columns", err)
	}
	defer rows.Close()

	columns := []schema.Column{}
	for rows.Next() {
		var r mssqlColumnRow
		if err := rows.Scan(&r.Name, &r.DataType, &r.IsNullable, &r.Default,
			&r.MaxLength, &r.Precision, &r.Scale, &r.IsIdentity, &r.IsComputed); err != nil {
			return nil, catalogErr(EngineSQLServer, "columns", err)
		}

		col := schema.Column{
			Name:       r.Name,
			DataType:   r.DataType,
			IsNullable: r.IsNullable,
			MaxLength:  nullableInt(r.MaxLength),
			Precision:  nullableInt(r.Precision),
			Scale:      nullableInt(r.Scale),
			IsIdentity: r.IsIdentity,
			IsComputed: r.IsComputed,
		}
		if r.Default.Valid {
			col.DefaultValue = &r.Default.String
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (e *sqlserverExtractor) extractConstraints(ctx context.Context, schemaName, tableName string) ([]schema.Constraint, error) {
	query := `
		SELECT
			tc.CONSTRAINT_NAME,
			tc.CONSTRAINT_TYPE,
			kcu.COLUMN_NAME,
			ccu.TABLE_NAME,
			ccu.COLUMN_NAME
		FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
		LEFT JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
			ON kcu.CONSTRAINT_NAME = tc.CONSTRAINT_NAME
			AND kcu.TABLE_SCHEMA = tc.TABLE_SCHEMA
			AND kcu.TABLE_NAME = tc.TABLE_NAME
		LEFT JOIN (
			SELECT rc.CONSTRAINT_NAME, ccu.TABLE_NAME, ccu.COLUMN_NAME
			FROM INFORMATION_SCHEMA.REFERENTIAL_CONSTRAINTS rc
			JOIN INFORMATION_SCHEMA.CONSTRAINT_COLUMN_USAGE ccu
				ON ccu.CONSTRAINT_NAME = rc.UNIQUE_CONSTRAINT_NAME
		) ccu ON ccu.CONSTRAINT_NAME = tc.CONSTRAINT_NAME
		WHERE tc.TABLE_SCHEMA = @p1 AND tc.TABLE_NAME = @p2
		ORDER BY tc.CONSTRAINT_NAME, kcu.ORDINAL_POSITION
	`

	rows, err := e.db.QueryContext(ctx, query, schemaName, tableName)
	if err != nil {
		return nil, catalogErr(EngineSQLServer, "constraints", err)
	}
	defer rows.Close()

	var order []string
	grouped := make(map[string]*schema.Constraint)

	for rows.Next() {
		var name, rawType string
		var column, refTable, refColumn sql.NullString
		if err := rows.Scan(&name, &rawType, &column, &refTable, &refColumn); err != nil {
			return nil, catalogErr(EngineSQLServer, "constraints", err)
		}

		kind, ok := schema.ParseConstraintType(rawType)
		if !ok {
			continue
		}

		key := name + "|" + rawType
		con, seen := grouped[key]
		if !seen {
			con = &schema.Constraint{
				Name:       name,
				Type:       kind,
				TableName:  tableName,
				SchemaName: schemaName,
			}
			grouped[key] = con
			order = append(order, key)
		}

		if column.Valid && !containsString(con.Columns, column.String) {
			con.Columns = append(con.Columns, column.String)
		}
		if kind == schema.ForeignKeyConstraint && refTable.Valid {
			con.ReferencedTable = refTable.String
			if refColumn.Valid && !containsString(con.ReferencedColumns, refColumn.String) {
				con.ReferencedColumns = append(con.ReferencedColumns, refColumn.String)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, catalogErr(EngineSQLServer, "constraints", err)
	}

	constraints := make([]schema.Constraint, 0, len(order))
	for _, key := range order {
		constraints = append(constraints, *grouped[key])
	}
	return constraints, nil
}

func (e *sqlserverExtractor) extractViews(ctx context.Context) ([]schema.View, error) {
	query := `
		SELECT s.name, v.name, COALESCE(m.definition, '')
		FROM sys.views v
		JOIN sys.schemas s ON v.schema_id = s.schema_id
		LEFT JOIN sys.sql_modules m ON m.object_id = v.object_id
		ORDER BY s.name, v.name
	`

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, catalogErr(EngineSQLServer, "views", err)
	}
	defer rows.Close()

	views := []schema.View{}
	for rows.Next() {
		var v schema.View
		if err := rows.Scan(&v.SchemaName, &v.Name, &v.Definition); err != nil {
			return nil, catalogErr(EngineSQLServer, "views", err)
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

func (e *sqlserverExtractor) extractIndexes(ctx context.Context) ([]schema.Index, error) {
	query := `
		SELECT
			s.name,
			t.name,
			i.name,
			i.is_unique,
			i.is_primary_key,
			c.name
		FROM sys.indexes i
		JOIN sys.tables t ON i.object_id = t.object_id
		JOIN sys.schemas s ON t.schema_id = s.schema_id
		JOIN sys.index_columns ic
			ON ic.object_id = i.object_id AND ic.index_id = i.index_id
		JOIN sys.columns c
			ON c.object_id = ic.object_id AND c.column_id = ic.column_id
		WHERE i.name IS NOT NULL
		ORDER BY s.name, t.name, i.name, ic.key_ordinal
	`

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, catalogErr(EngineSQLServer, "indexes", err)
	}
	defer rows.Close()

	// One row per index column; group by (schema, table, index).
	var order []string
	grouped := make(map[string]*schema.Index)

	for rows.Next() {
		var schemaName, tableName, indexName, columnName string
		var isUnique, isPrimary bool
		if err := rows.Scan(&schemaName, &tableName, &indexName, &isUnique, &isPrimary, &columnName); err != nil {
			return nil, catalogErr(EngineSQLServer, "indexes", err)
		}

		key := schemaName + "." + tableName + "." + indexName
		idx, seen := grouped[key]
		if !seen {
			idx = &schema.Index{
				Name:         indexName,
				TableName:    tableName,
				SchemaName:   schemaName,
				IsUnique:     isUnique,
				IsPrimaryKey: isPrimary,
			}
			grouped[key] = idx
			order = append(order, key)
		}
		idx.Columns = append(idx.Columns, columnName)
	}
	if err := rows.Err(); err != nil {
		return nil, catalogErr(EngineSQLServer, "indexes", err)
	}

	indexes := make([]schema.Index, 0, len(order))
	for _, key := range order {
		indexes = append(indexes, *grouped[key])
	}
	return indexes, nil
}
