package statement

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/format"
	"github.com/pingcap/tidb/pkg/parser/mysql"
)

// CreateTable is a structured view of a CREATE TABLE statement.
type CreateTable struct {
	Raw          *ast.CreateTableStmt `json:"-"`
	TableName    string               `json:"table_name"`
	Columns      Columns              `json:"columns"`
	Indexes      Indexes              `json:"indexes"`
	Constraints  Constraints          `json:"constraints"`
	TableOptions map[string]string    `json:"table_options"`
	Line         int                  `json:"line,omitempty"`
}

type Column struct {
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Length     *int           `json:"length,omitempty"`
	Unsigned   *bool          `json:"unsigned,omitempty"`
	Nullable   bool           `json:"nullable"`
	AutoInc    bool           `json:"auto_increment"`
	PrimaryKey bool           `json:"primary_key"`
	Float      bool           `json:"float"` // FLOAT or DOUBLE
	Comment    *string        `json:"comment,omitempty"`
	Ref        *ast.ColumnDef `json:"-"`
}

type Index struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"` // PRIMARY KEY, INDEX, UNIQUE, FULLTEXT
	Columns   []string `json:"columns"`
	Invisible *bool    `json:"invisible,omitempty"`
	Using     *string  `json:"using,omitempty"`
	Comment   *string  `json:"comment,omitempty"`
}

type Constraint struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"` // FOREIGN KEY, CHECK
	Columns    []string `json:"columns"`
	Definition *string  `json:"definition,omitempty"`
}

type (
	Columns     []Column
	Indexes     []Index
	Constraints []Constraint
)

// ByName returns the column with the given name (case-insensitive) or nil.
func (c Columns) ByName(name string) *Column {
	for i := range c {
		if strings.EqualFold(c[i].Name, name) {
			return &c[i]
		}
	}

	return nil
}

// ByName returns the index with the given name (case-insensitive) or nil.
func (idx Indexes) ByName(name string) *Index {
	for i := range idx {
		if strings.EqualFold(idx[i].Name, name) {
			return &idx[i]
		}
	}

	return nil
}

// HasPrimaryKey returns true if any index is the PRIMARY KEY.
func (idx Indexes) HasPrimaryKey() bool {
	for i := range idx {
		if idx[i].Type == "PRIMARY KEY" {
			return true
		}
	}

	return false
}

// ParseCreateTable parses a single CREATE TABLE statement.
func ParseCreateTable(sql string) (*CreateTable, error) {
	stmts, err := New(sql)
	if err != nil {
		return nil, err
	}

	if len(stmts) != 1 {
		return nil, fmt.Errorf("expected exactly one statement, found %d", len(stmts))
	}

	ct, ok := stmts[0].AsCreateTable()
	if !ok {
		return nil, errors.New("not a CREATE TABLE statement")
	}

	table := NewCreateTable(ct)
	table.Line = stmts[0].Line

	return table, nil
}

// NewCreateTable builds the structured view from an already parsed node.
func NewCreateTable(stmt *ast.CreateTableStmt) *CreateTable {
	ct := &CreateTable{
		Raw:          stmt,
		TableName:    stmt.Table.Name.O,
		TableOptions: make(map[string]string),
	}

	for _, col := range stmt.Cols {
		column, indexes := parseColumn(col)
		ct.Columns = append(ct.Columns, column)
		ct.Indexes = append(ct.Indexes, indexes...)
	}

	for _, c := range stmt.Constraints {
		switch c.Tp { //nolint:exhaustive
		case ast.ConstraintForeignKey, ast.ConstraintCheck:
			ct.Constraints = append(ct.Constraints, parseConstraint(c))
		default:
			if idx, ok := parseIndex(c); ok {
				ct.Indexes = append(ct.Indexes, idx)
			}
		}
	}

	for _, opt := range stmt.Options {
		switch opt.Tp { //nolint:exhaustive
		case ast.TableOptionEngine:
			ct.TableOptions["engine"] = opt.StrValue
		case ast.TableOptionCharset:
			ct.TableOptions["charset"] = opt.StrValue
		case ast.TableOptionCollate:
			ct.TableOptions["collate"] = opt.StrValue
		case ast.TableOptionComment:
			ct.TableOptions["comment"] = opt.StrValue
		case ast.TableOptionAutoIncrement:
			ct.TableOptions["auto_increment"] = fmt.Sprint(opt.UintValue)
		}
	}

	if pk := ct.Indexes.ByName("PRIMARY"); pk != nil {
		for _, name := range pk.Columns {
			if col := ct.Columns.ByName(name); col != nil {
				col.PrimaryKey = true
				col.Nullable = false
			}
		}
	}

	return ct
}

// IsCopy reports whether the table takes its structure from another table
// (CREATE TABLE ... LIKE) or from a query (CREATE TABLE ... AS SELECT).
func (ct *CreateTable) IsCopy() bool {
	return ct.Raw != nil && (ct.Raw.ReferTable != nil || ct.Raw.Select != nil)
}

// ReferTableName returns the source table of CREATE TABLE ... LIKE.
func (ct *CreateTable) ReferTableName() string {
	if ct.Raw == nil || ct.Raw.ReferTable == nil {
		return ""
	}

	return ct.Raw.ReferTable.Name.O
}

func (ct *CreateTable) GetTableName() string {
	return ct.TableName
}

func (ct *CreateTable) GetColumns() Columns {
	return ct.Columns
}

func (ct *CreateTable) GetIndexes() Indexes {
	return ct.Indexes
}

func (ct *CreateTable) GetConstraints() Constraints {
	return ct.Constraints
}

func (ct *CreateTable) GetTableOptions() map[string]string {
	return ct.TableOptions
}

// NewColumn converts a column definition, for example one added by
// ALTER TABLE ... ADD COLUMN.
func NewColumn(col *ast.ColumnDef) Column {
	column, _ := parseColumn(col)
	return column
}

func parseColumn(col *ast.ColumnDef) (Column, []Index) {
	var indexes []Index

	column := Column{
		Name:     col.Name.Name.O,
		Nullable: true,
		Ref:      col,
	}

	if col.Tp != nil {
		column.Type = col.Tp.CompactStr()

		if flen := col.Tp.GetFlen(); flen > 0 {
			column.Length = &flen
		}

		if mysql.HasUnsignedFlag(col.Tp.GetFlag()) {
			unsigned := true
			column.Unsigned = &unsigned
		}

		switch col.Tp.GetType() {
		case mysql.TypeFloat, mysql.TypeDouble:
			column.Float = true
		}
	}

	for _, opt := range col.Options {
		switch opt.Tp { //nolint:exhaustive
		case ast.ColumnOptionNotNull:
			column.Nullable = false
		case ast.ColumnOptionNull:
			column.Nullable = true
		case ast.ColumnOptionAutoIncrement:
			column.AutoInc = true
		case ast.ColumnOptionPrimaryKey:
			column.PrimaryKey = true
			column.Nullable = false
			indexes = append(indexes, Index{Name: "PRIMARY", Type: "PRIMARY KEY", Columns: []string{column.Name}})
		case ast.ColumnOptionUniqKey:
			indexes = append(indexes, Index{Name: column.Name, Type: "UNIQUE", Columns: []string{column.Name}})
		case ast.ColumnOptionComment:
			if ve, ok := opt.Expr.(ast.ValueExpr); ok {
				if s, ok := ve.GetValue().(string); ok {
					column.Comment = &s
				}
			}
		}
	}

	return column, indexes
}

func parseIndex(c *ast.Constraint) (Index, bool) {
	idx := Index{Name: c.Name, Columns: keyColumns(c.Keys)}

	switch c.Tp { //nolint:exhaustive
	case ast.ConstraintPrimaryKey:
		idx.Name = "PRIMARY"
		idx.Type = "PRIMARY KEY"
	case ast.ConstraintKey, ast.ConstraintIndex:
		idx.Type = "INDEX"
	case ast.ConstraintUniq, ast.ConstraintUniqKey, ast.ConstraintUniqIndex:
		idx.Type = "UNIQUE"
	case ast.ConstraintFulltext:
		idx.Type = "FULLTEXT"
	default:
		return Index{}, false
	}

	if c.Option != nil {
		switch c.Option.Visibility {
		case ast.IndexVisibilityInvisible:
			invisible := true
			idx.Invisible = &invisible
		case ast.IndexVisibilityVisible:
			invisible := false
			idx.Invisible = &invisible
		case ast.IndexVisibilityDefault:
		}

		if using := c.Option.Tp.String(); using != "" {
			idx.Using = &using
		}

		if c.Option.Comment != "" {
			comment := c.Option.Comment
			idx.Comment = &comment
		}
	}

	return idx, true
}

func parseConstraint(c *ast.Constraint) Constraint {
	constraint := Constraint{Name: c.Name, Columns: keyColumns(c.Keys)}

	var (
		sb   strings.Builder
		node ast.Node
	)

	switch c.Tp { //nolint:exhaustive
	case ast.ConstraintForeignKey:
		constraint.Type = "FOREIGN KEY"

		if c.Refer != nil {
			node = c.Refer
		}
	case ast.ConstraintCheck:
		constraint.Type = "CHECK"

		if c.Expr != nil {
			node = c.Expr
		}
	}

	if node != nil {
		rctx := format.NewRestoreCtx(format.RestoreStringSingleQuotes|format.RestoreKeyWordUppercase, &sb)
		if err := node.Restore(rctx); err == nil {
			def := sb.String()
			constraint.Definition = &def
		}
	}

	return constraint
}

func keyColumns(keys []*ast.IndexPartSpecification) []string {
	columns := make([]string, 0, len(keys))

	for _, key := range keys {
		if key.Column != nil {
			columns = append(columns, key.Column.Name.O)
		}
	}

	return columns
}
