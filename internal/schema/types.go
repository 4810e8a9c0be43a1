package schema

// Schema is the normalized in-memory representation of one database.
// Schemas are built once by an introspection back-end and treated as
// immutable afterwards.
type Schema struct {
	DatabaseName string            `json:"databaseName"`
	Tables       []Table           `json:"tables"`
	Views        []View            `json:"views,omitempty"`
	Indexes      []Index           `json:"indexes,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Table represents a database table
type Table struct {
	Name        string            `json:"name"`
	SchemaName  string            `json:"schemaName,omitempty"`
	Columns     []Column          `json:"columns"`
	Constraints []Constraint      `json:"constraints,omitempty"`
	Properties  map[string]string `json:"properties,omitempty"`
}

// FullName returns the schema-qualified table name, or the bare name when
// the table has no schema namespace (MySQL, SQLite).
func (t Table) FullName() string {
	if t.SchemaName != "" {
		return t.SchemaName + "." + t.Name
	}
	return t.Name
}

// Column represents a table column
type Column struct {
	Name         string            `json:"name"`
	DataType     string            `json:"dataType"`
	IsNullable   bool              `json:"isNullable"`
	DefaultValue *string           `json:"defaultValue,omitempty"`
	MaxLength    *int              `json:"maxLength,omitempty"`
	Precision    *int              `json:"precision,omitempty"`
	Scale        *int              `json:"scale,omitempty"`
	IsIdentity   bool              `json:"isIdentity"`
	IsComputed   bool              `json:"isComputed"`
	Properties   map[string]string `json:"properties,omitempty"`
}

// ConstraintType is the closed set of constraint kinds the model knows about.
type ConstraintType string

const (
	PrimaryKeyConstraint ConstraintType = "PRIMARY KEY"
	ForeignKeyConstraint ConstraintType = "FOREIGN KEY"
	UniqueConstraint     ConstraintType = "UNIQUE"
	CheckConstraint      ConstraintType = "CHECK"
	DefaultConstraint    ConstraintType = "DEFAULT"
	NotNullConstraint    ConstraintType = "NOT NULL"
)

// ParseConstraintType maps a catalog spelling onto the closed ConstraintType
// set. The boolean reports whether the spelling was recognized; back-ends
// reject unknown kinds at the decode boundary.
func ParseConstraintType(raw string) (ConstraintType, bool) {
	switch raw {
	case "PRIMARY KEY", "PK":
		return PrimaryKeyConstraint, true
	case "FOREIGN KEY", "FK":
		return ForeignKeyConstraint, true
	case "UNIQUE", "UQ":
		return UniqueConstraint, true
	case "CHECK":
		return CheckConstraint, true
	case "DEFAULT":
		return DefaultConstraint, true
	case "NOT NULL":
		return NotNullConstraint, true
	}
	return "", false
}

// Constraint represents a table constraint. Foreign keys carry the referenced
// table by name only; the model never holds object pointers across tables.
type Constraint struct {
	Name              string            `json:"name"`
	Type              ConstraintType    `json:"type"`
	TableName         string            `json:"tableName"`
	SchemaName        string            `json:"schemaName,omitempty"`
	Columns           []string          `json:"columns,omitempty"`
	ReferencedTable   string            `json:"referencedTable,omitempty"`
	ReferencedColumns []string          `json:"referencedColumns,omitempty"`
	Properties        map[string]string `json:"properties,omitempty"`
}

// Index represents a database index
type Index struct {
	Name         string            `json:"name"`
	TableName    string            `json:"tableName"`
	SchemaName   string            `json:"schemaName,omitempty"`
	Columns      []string          `json:"columns"`
	IsUnique     bool              `json:"isUnique"`
	IsPrimaryKey bool              `json:"isPrimaryKey"`
	Properties   map[string]string `json:"properties,omitempty"`
}

// View represents a database view
type View struct {
	Name       string            `json:"name"`
	SchemaName string            `json:"schemaName,omitempty"`
	Definition string            `json:"definition,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}
