package schema

import (
	"errors"
	"strings"
	"testing"
)

func validSchema() *Schema {
	return &Schema{
		DatabaseName: "appdb",
		Tables: []Table{
			{
				Name: "users",
				Columns: []Column{
					{Name: "id", DataType: "INTEGER"},
					{Name: "name", DataType: "VARCHAR"},
				},
			},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*Schema)
		wantErr    bool
		wantObject string
	}{
		{
			name:   "valid schema",
			mutate: func(s *Schema) {},
		},
		{
			name:       "empty database name",
			mutate:     func(s *Schema) { s.DatabaseName = "" },
			wantErr:    true,
			wantObject: "schema",
		},
		{
			name:       "nil table collection",
			mutate:     func(s *Schema) { s.Tables = nil },
			wantErr:    true,
			wantObject: "appdb",
		},
		{
			name:       "table with empty name",
			mutate:     func(s *Schema) { s.Tables[0].Name = "" },
			wantErr:    true,
			wantObject: "appdb",
		},
		{
			name:       "nil column collection",
			mutate:     func(s *Schema) { s.Tables[0].Columns = nil },
			wantErr:    true,
			wantObject: "users",
		},
		{
			name:       "column with empty name",
			mutate:     func(s *Schema) { s.Tables[0].Columns[0].Name = "" },
			wantErr:    true,
			wantObject: "users",
		},
		{
			name:       "column with empty data type",
			mutate:     func(s *Schema) { s.Tables[0].Columns[1].DataType = "" },
			wantErr:    true,
			wantObject: "users.name",
		},
		{
			name: "duplicate table full-name",
			mutate: func(s *Schema) {
				s.Tables = append(s.Tables, s.Tables[0])
			},
			wantErr:    true,
			wantObject: "users",
		},
		{
			name: "same name in different namespaces is fine",
			mutate: func(s *Schema) {
				dup := s.Tables[0]
				dup.SchemaName = "audit"
				s.Tables = append(s.Tables, dup)
			},
		},
		{
			name: "duplicate column name",
			mutate: func(s *Schema) {
				s.Tables[0].Columns = append(s.Tables[0].Columns, s.Tables[0].Columns[0])
			},
			wantErr:    true,
			wantObject: "users.id",
		},
		{
			name: "duplicate constraint name",
			mutate: func(s *Schema) {
				con := Constraint{Name: "pk_users", Type: PrimaryKeyConstraint, TableName: "users", Columns: []string{"id"}}
				s.Tables[0].Constraints = []Constraint{con, con}
			},
			wantErr:    true,
			wantObject: "users.pk_users",
		},
		{
			name: "duplicate index name",
			mutate: func(s *Schema) {
				idx := Index{Name: "idx_users_name", TableName: "users", Columns: []string{"name"}}
				s.Indexes = []Index{idx, idx}
			},
			wantErr:    true,
			wantObject: "idx_users_name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSchema()
			tt.mutate(s)

			err := Validate(s)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got none")
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			if !strings.Contains(verr.Object, tt.wantObject) {
				t.Errorf("error names object %q, want it to contain %q", verr.Object, tt.wantObject)
			}
		})
	}
}

func TestValidateNilSchema(t *testing.T) {
	if err := Validate(nil); err == nil {
		t.Fatal("expected error for nil schema")
	}
}

func TestFullName(t *testing.T) {
	tests := []struct {
		table Table
		want  string
	}{
		{Table{Name: "users"}, "users"},
		{Table{Name: "users", SchemaName: "public"}, "public.users"},
		{Table{Name: "Orders", SchemaName: "dbo"}, "dbo.Orders"},
	}

	for _, tt := range tests {
		if got := tt.table.FullName(); got != tt.want {
			t.Errorf("FullName() = %q, want %q", got, tt.want)
		}
	}
}

func TestParseConstraintType(t *testing.T) {
	tests := []struct {
		raw    string
		want   ConstraintType
		wantOK bool
	}{
		{"PRIMARY KEY", PrimaryKeyConstraint, true},
		{"FOREIGN KEY", ForeignKeyConstraint, true},
		{"UNIQUE", UniqueConstraint, true},
		{"CHECK", CheckConstraint, true},
		{"DEFAULT", DefaultConstraint, true},
		{"NOT NULL", NotNullConstraint, true},
		{"PK", PrimaryKeyConstraint, true},
		{"EXCLUSION", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseConstraintType(tt.raw)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseConstraintType(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}
