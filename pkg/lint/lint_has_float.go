package lint

import (
	"fmt"

	"github.com/lintsql/lint-sql/pkg/statement"
	"github.com/pingcap/tidb/pkg/parser/ast"
)

func init() {
	Register(&HasFloatLinter{})
}

// HasFloatLinter flags FLOAT and DOUBLE columns. They are approximate
// types; DECIMAL is usually what was meant.
type HasFloatLinter struct{}

func (l *HasFloatLinter) Name() string {
	return "has_float"
}

func (l *HasFloatLinter) Description() string {
	return "Warns about FLOAT and DOUBLE columns"
}

func (l *HasFloatLinter) String() string {
	return Stringer(l)
}

func (l *HasFloatLinter) Lint(_ []*statement.CreateTable, changes []*statement.AbstractStatement) []Violation {
	var violations []Violation

	for _, table := range createTableChanges(changes) {
		for _, col := range table.GetColumns() {
			if col.Float {
				violations = append(violations, l.createViolation(table.GetTableName(), col, table.Line))
			}
		}
	}

	for _, change := range changes {
		alterStmt, ok := change.AsAlterTable()
		if !ok {
			continue
		}

		for _, spec := range alterStmt.Specs {
			switch spec.Tp { //nolint:exhaustive
			case ast.AlterTableAddColumns, ast.AlterTableModifyColumn, ast.AlterTableChangeColumn:
				for _, def := range spec.NewColumns {
					if col := statement.NewColumn(def); col.Float {
						violations = append(violations, l.createViolation(change.Table, col, change.Line))
					}
				}
			}
		}
	}

	return violations
}

func (l *HasFloatLinter) createViolation(tableName string, col statement.Column, line int) Violation {
	return Violation{
		Linter:   l,
		Severity: SeverityWarning,
		Message: fmt.Sprintf(
			"Column '%s' in table '%s' uses floating point type %s; consider DECIMAL",
			col.Name, tableName, col.Type,
		),
		Location: &Location{Line: line, Table: tableName, Column: &col.Name},
		Context: map[string]any{
			"column_type": col.Type,
		},
	}
}
