package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tordrt/schemadiff/internal/schema"
)

// sqliteExtractor reads the schema through sqlite_master and the PRAGMA
// table-valued functions.
type sqliteExtractor struct {
	db   *sql.DB
	path string
}

func newSQLiteExtractor(db *sql.DB, path string) *sqliteExtractor {
	return &sqliteExtractor{db: db, path: path}
}

type sqliteColumnRow struct {
	CID      int
	Name     string
	Type     string
	NotNull  int
	Default  sql.NullString
	PKOrder  int
}

func (e *sqliteExtractor) extract(ctx context.Context, opts ReadOptions) (*schema.Schema, error) {
	s := &schema.Schema{
		DatabaseName: databaseNameFromPath(e.path),
		Tables:       []schema.Table{},
		Views:        []schema.View{},
		Indexes:      []schema.Index{},
		Metadata:     map[string]string{"engine": EngineSQLite},
	}

	tables, err := e.tableNames(ctx)
	if err != nil {
		return nil, err
	}

	for _, name := range tables {
		table := schema.Table{Name: name, Columns: []schema.Column{}}

		columns, pkColumns, err := e.extractColumns(ctx, name)
		if err != nil {
			return nil, err
		}
		table.Columns = columns

		table.Constraints, err = e.extractConstraints(ctx, name, pkColumns)
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
		for _, name := range tables {
			indexes, err := e.extractIndexes(ctx, name)
			if err != nil {
				return nil, err
			}
			s.Indexes = append(s.Indexes, indexes...)
		}
	}

	return s, nil
}

func (e *sqliteExtractor) tableNames(ctx context.Context) ([]string, error) {
	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, catalogErr(EngineSQLite, "tables", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, catalogErr(EngineSQLite, "tables", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// extractColumns reads PRAGMA table_info. The second return value lists the
// primary-key columns in key order.
func (e *sqliteExtractor) extractColumns(ctx context.Context, tableName string) ([]schema.Column, []string, error) {
	query := fmt.Sprintf("PRAGMA table_info(%q)", tableName)

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, catalogErr(EngineSQLite, "table_info", err)
	}
	defer rows.Close()

	columns := []schema.Column{}
	pkByOrder := make(map[int]string)

	for rows.Next() {
		var r sqliteColumnRow
		if err := rows.Scan(&r.CID, &r.Name, &r.Type, &r.NotNull, &r.Default, &r.PKOrder); err != nil {
			return nil, nil, catalogErr(EngineSQLite, "table_info", err)
		}

		col := schema.Column{
			Name:       r.Name,
			DataType:   r.Type,
			IsNullable: r.NotNull == 0,
			// The first primary-key column (pk == 1) is marked as identity,
			// whatever its type and however many columns the key has.
			IsIdentity: r.PKOrder == 1,
		}
		if r.Default.Valid {
			col.DefaultValue = &r.Default.String
		}
		if r.PKOrder > 0 {
			pkByOrder[r.PKOrder] = r.Name
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, catalogErr(EngineSQLite, "table_info", err)
	}

	pk := make([]string, 0, len(pkByOrder))
	for order := 1; order <= len(pkByOrder); order++ {
		if name, ok := pkByOrder[order]; ok {
			pk = append(pk, name)
		}
	}
	return columns, pk, nil
}

// extractConstraints assembles primary-key, foreign-key and unique
// constraints from the PRAGMA views. SQLite does not name table constraints,
// so primary and foreign keys get stable synthesized names.
func (e *sqliteExtractor) extractConstraints(ctx context.Context, tableName string, pkColumns []string) ([]schema.Constraint, error) {
	constraints := []schema.Constraint{}

	if len(pkColumns) > 0 {
		constraints = append(constraints, schema.Constraint{
			Name:      "pk_" + tableName,
			Type:      schema.PrimaryKeyConstraint,
			TableName: tableName,
			Columns:   pkColumns,
		})
	}

	fks, err := e.extractForeignKeys(ctx, tableName)
	if err != nil {
		return nil, err
	}
	constraints = append(constraints, fks...)

	uniques, err := e.extractUniqueConstraints(ctx, tableName)
	if err != nil {
		return nil, err
	}
	constraints = append(constraints, uniques...)

	return constraints, nil
}

func (e *sqliteExtractor) extractForeignKeys(ctx context.Context, tableName string) ([]schema.Constraint, error) {
	query := fmt.Sprintf("PRAGMA foreign_key_list(%q)", tableName)

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, catalogErr(EngineSQLite, "foreign_key_list", err)
	}
	defer rows.Close()

	// Rows arrive one per column, ordered by (id, seq); group by id.
	var order []int
	grouped := make(map[int]*schema.Constraint)

	for rows.Next() {
		var id, seq int
		var refTable, from string
		var to, onUpdate, onDelete, match sql.NullString
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, catalogErr(EngineSQLite, "foreign_key_list", err)
		}

		con, seen := grouped[id]
		if !seen {
			con = &schema.Constraint{
				Name:            fmt.Sprintf("fk_%s_%d", tableName, id),
				Type:            schema.ForeignKeyConstraint,
				TableName:       tableName,
				ReferencedTable: refTable,
			}
			grouped[id] = con
			order = append(order, id)
		}
		con.Columns = append(con.Columns, from)
		if to.Valid {
			con.ReferencedColumns = append(con.ReferencedColumns, to.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, catalogErr(EngineSQLite, "foreign_key_list", err)
	}

	constraints := make([]schema.Constraint, 0, len(order))
	for _, id := range order {
		constraints = append(constraints, *grouped[id])
	}
	return constraints, nil
}

// extractUniqueConstraints surfaces unique constraints declared in the table
// definition (index_list origin 'u').
func (e *sqliteExtractor) extractUniqueConstraints(ctx context.Context, tableName string) ([]schema.Constraint, error) {
	query := fmt.Sprintf("PRAGMA index_list(%q)", tableName)

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, catalogErr(EngineSQLite, "index_list", err)
	}
	defer rows.Close()

	type indexEntry struct {
		name   string
		origin string
		unique int
	}
	var entries []indexEntry

	for rows.Next() {
		var seq, unique, partial int
		var name, origin string
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return nil, catalogErr(EngineSQLite, "index_list", err)
		}
		entries = append(entries, indexEntry{name: name, origin: origin, unique: unique})
	}
	if err := rows.Err(); err != nil {
		return nil, catalogErr(EngineSQLite, "index_list", err)
	}

	constraints := []schema.Constraint{}
	for _, entry := range entries {
		if entry.origin != "u" || entry.unique != 1 {
			continue
		}
		columns, err := e.indexColumns(ctx, entry.name)
		if err != nil {
			return nil, err
		}
		constraints = append(constraints, schema.Constraint{
			Name:      entry.name,
			Type:      schema.UniqueConstraint,
			TableName: tableName,
			Columns:   columns,
		})
	}
	return constraints, nil
}

func (e *sqliteExtractor) extractViews(ctx context.Context) ([]schema.View, error) {
	query := `
		SELECT name, COALESCE(sql, '')
		FROM sqlite_master
		WHERE type = 'view'
		ORDER BY name
	`

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, catalogErr(EngineSQLite, "views", err)
	}
	defer rows.Close()

	views := []schema.View{}
	for rows.Next() {
		var v schema.View
		if err := rows.Scan(&v.Name, &v.Definition); err != nil {
			return nil, catalogErr(EngineSQLite, "views", err)
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

func (e *sqliteExtractor) extractIndexes(ctx context.Context, tableName string) ([]schema.Index, error) {
	query := fmt.Sprintf("PRAGMA index_list(%q)", tableName)

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, catalogErr(EngineSQLite, "index_list", err)
	}
	defer rows.Close()

	type indexEntry struct {
		name   string
		unique int
	}
	var entries []indexEntry

	for rows.Next() {
		var seq, unique, partial int
		var name, origin string
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return nil, catalogErr(EngineSQLite, "index_list", err)
		}
		// Skip the auto-generated constraint indexes.
		if strings.HasPrefix(name, "sqlite_autoindex") {
			continue
		}
		entries = append(entries, indexEntry{name: name, unique: unique})
	}
	if err := rows.Err(); err != nil {
		return nil, catalogErr(EngineSQLite, "index_list", err)
	}

	indexes := []schema.Index{}
	for _, entry := range entries {
		columns, err := e.indexColumns(ctx, entry.name)
		if err != nil {
			return nil, err
		}
		if len(columns) == 0 {
			continue
		}
		indexes = append(indexes, schema.Index{
			Name:      entry.name,
			TableName: tableName,
			Columns:   columns,
			IsUnique:  entry.unique == 1,
		})
	}
	return indexes, nil
}

func (e *sqliteExtractor) indexColumns(ctx context.Context, indexName string) ([]string, error) {
	query := fmt.Sprintf("PRAGMA index_info(%q)", indexName)

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, catalogErr(EngineSQLite, "index_info", err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var seqno, cid int
		var name sql.NullString
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, catalogErr(EngineSQLite, "index_info", err)
		}
		if name.Valid {
			columns = append(columns, name.String)
		}
	}
	return columns, rows.Err()
}
