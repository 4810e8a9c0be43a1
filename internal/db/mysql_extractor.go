package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/tordrt/schemadiff/internal/schema"
)

// mysqlExtractor runs the MySQL catalog queries, scoped to the connection's
// current database.
type mysqlExtractor struct {
	db *sql.DB
}

func newMySQLExtractor(db *sql.DB) *mysqlExtractor {
	return &mysqlExtractor{db: db}
}

type mysqlColumnRow struct {
	Name      string
	DataType  string
	Nullable  string
	Default   sql.NullString
	MaxLength sql.NullInt64
	Precision sql.NullInt64
	Scale     sql.NullInt64
	Extra     string
}

func (e *mysqlExtractor) extract(ctx context.Context, opts ReadOptions) (*schema.Schema, error) {
	s := &schema.Schema{
		Tables:   []schema.Table{},
		Views:    []schema.View{},
		Indexes:  []schema.Index{},
		Metadata: map[string]string{"engine": EngineMySQL},
	}

	if err := e.db.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&s.DatabaseName); err != nil {
		return nil, catalogErr(EngineMySQL, "database", err)
	}

	tables, err := e.tableNames(ctx, s.DatabaseName)
	if err != nil {
		return nil, err
	}

	for _, name := range tables {
		// MySQL scopes objects by database rather than schema namespace, so
		// tables carry no namespace and full-name equals name.
		table := schema.Table{Name: name, Columns: []schema.Column{}}

		table.Columns, err = e.extractColumns(ctx, s.DatabaseName, name)
		if err != nil {
			return nil, err
		}

		table.Constraints, err = e.extractConstraints(ctx, s.DatabaseName, name)
		if err != nil {
			return nil, err
		}

		s.Tables = append(s.Tables, table)
	}

	if opts.IncludeViews {
		s.Views, err = e.extractViews(ctx, s.DatabaseName)
		if err != nil {
			return nil, err
		}
	}

	if opts.IncludeIndexes {
		for _, name := range tables {
			indexes, err := e.extractIndexes(ctx, s.DatabaseName, name)
			if err != nil {
				return nil, err
			}
			s.Indexes = append(s.Indexes, indexes...)
		}
	}

	return s, nil
}

func (e *mysqlExtractor) tableNames(ctx context.Context, dbName string) ([]string, error) {
	query := `
		SELECT TABLE_NAME
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME
	`

	rows, err := e.db.QueryContext(ctx, query, dbName)
	if err != nil {
		return nil, catalogErr(EngineMySQL, "tables", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, catalogErr(EngineMySQL, "tables", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func (e *mysqlExtractor) extractColumns(ctx context.Context, dbName, tableName string) ([]schema.Column, error) {
	query := `
		SELECT
			COLUMN_NAME,
			DATA_TYPE,
			IS_NULLABLE,
			COLUMN_DEFAULT,
			CHARACTER_MAXIMUM_LENGTH,
			NUMERIC_PRECISION,
			NUMERIC_SCALE,
			EXTRA
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION
	`

	rows, err := e.db.QueryContext(ctx, query, dbName, tableName)
	if err != nil {
		return nil, catalogErr(EngineMySQL, "columns", err)
	}
	defer rows.Close()

	columns := []schema.Column{}
	for rows.Next() {
		var r mysqlColumnRow
		if err := rows.Scan(&r.Name, &r.DataType, &r.Nullable, &r.Default,
			&r.MaxLength, &r.Precision, &r.Scale, &r.Extra); err != nil {
			return nil, catalogErr(EngineMySQL, "columns", err)
		}

		col := schema.Column{
			Name:       r.Name,
			DataType:   r.DataType,
			IsNullable: r.Nullable == "YES",
			MaxLength:  nullableInt(r.MaxLength),
			Precision:  nullableInt(r.Precision),
			Scale:      nullableInt(r.Scale),
			IsIdentity: strings.Contains(r.Extra, "auto_increment"),
			IsComputed: strings.Contains(r.Extra, "GENERATED"),
		}
		if r.Default.Valid {
			col.DefaultValue = &r.Default.String
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (e *mysqlExtractor) extractConstraints(ctx context.Context, dbName, tableName string) ([]schema.Constraint, error) {
	query := `
		SELECT
			tc.CONSTRAINT_NAME,
			tc.CONSTRAINT_TYPE,
			kcu.COLUMN_NAME,
			kcu.REFERENCED_TABLE_NAME,
			kcu.REFERENCED_COLUMN_NAME
		FROM information_schema.TABLE_CONSTRAINTS tc
		LEFT JOIN information_schema.KEY_COLUMN_USAGE kcu
			ON kcu.CONSTRAINT_NAME = tc.CONSTRAINT_NAME
			AND kcu.TABLE_SCHEMA = tc.TABLE_SCHEMA
			AND kcu.TABLE_NAME = tc.TABLE_NAME
		WHERE tc.TABLE_SCHEMA = ? AND tc.TABLE_NAME = ?
		ORDER BY tc.CONSTRAINT_NAME, kcu.ORDINAL_POSITION
	`

	rows, err := e.db.QueryContext(ctx, query, dbName, tableName)
	if err != nil {
		return nil, catalogErr(EngineMySQL, "constraints", err)
	}
	defer rows.Close()

	var order []string
	grouped := make(map[string]*schema.Constraint)

	for rows.Next() {
		var name, rawType string
		var column, refTable, refColumn sql.NullString
		if err := rows.Scan(&name, &rawType, &column, &refTable, &refColumn); err != nil {
			return nil, catalogErr(EngineMySQL, "constraints", err)
		}

		kind, ok := schema.ParseConstraintType(rawType)
		if !ok {
			continue
		}

		key := name + "|" + rawType
		con, seen := grouped[key]
		if !seen {
			con = &schema.Constraint{
				Name:      name,
				Type:      kind,
				TableName: tableName,
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
		return nil, catalogErr(EngineMySQL, "constraints", err)
	}

	constraints := make([]schema.Constraint, 0, len(order))
	for _, key := range order {
		constraints = append(constraints, *grouped[key])
	}
	return constraints, nil
}

func (e *mysqlExtractor) extractViews(ctx context.Context, dbName string) ([]schema.View, error) {
	query := `
		SELECT TABLE_NAME, VIEW_DEFINITION
		FROM information_schema.VIEWS
		WHERE TABLE_SCHEMA = ?
		ORDER BY TABLE_NAME
	`

	rows, err := e.db.QueryContext(ctx, query, dbName)
	if err != nil {
		return nil, catalogErr(EngineMySQL, "views", err)
	}
	defer rows.Close()

	views := []schema.View{}
	for rows.Next() {
		var v schema.View
		var definition sql.NullString
		if err := rows.Scan(&v.Name, &definition); err != nil {
			return nil, catalogErr(EngineMySQL, "views", err)
		}
		v.Definition = definition.String
		views = append(views, v)
	}
	return views, rows.Err()
}

func (e *mysqlExtractor) extractIndexes(ctx context.Context, dbName, tableName string) ([]schema.Index, error) {
	query := `
		SELECT
			INDEX_NAME,
			NON_UNIQUE = 0 AS IS_UNIQUE,
			GROUP_CONCAT(COLUMN_NAME ORDER BY SEQ_IN_INDEX) AS COLUMN_NAMES
		FROM information_schema.STATISTICS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		  AND INDEX_NAME != 'PRIMARY'
		GROUP BY INDEX_NAME, NON_UNIQUE
		ORDER BY INDEX_NAME
	`

	rows, err := e.db.QueryContext(ctx, query, dbName, tableName)
	if err != nil {
		return nil, catalogErr(EngineMySQL, "indexes", err)
	}
	defer rows.Close()

	indexes := []schema.Index{}
	for rows.Next() {
		var name, columnNames string
		var isUnique int
		if err := rows.Scan(&name, &isUnique, &columnNames); err != nil {
			return nil, catalogErr(EngineMySQL, "indexes", err)
		}

		indexes = append(indexes, schema.Index{
			Name:      name,
			TableName: tableName,
			Columns:   strings.Split(columnNames, ","),
			IsUnique:  isUnique == 1,
		})
	}
	return indexes, rows.Err()
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
