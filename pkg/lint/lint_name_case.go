package lint

import (
	"fmt"
	"regexp"

	"github.com/lintsql/lint-sql/pkg/statement"
	"github.com/pingcap/tidb/pkg/parser/ast"
)

var snakeCase = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

func init() {
	Register(&NameCaseLinter{})
}

// NameCaseLinter wants table and column names in snake_case.
type NameCaseLinter struct{}

func (l *NameCaseLinter) Name() string {
	return "name_case"
}

func (l *NameCaseLinter) Description() string {
	return "Requires table and column names to be snake_case"
}

func (l *NameCaseLinter) String() string {
	return Stringer(l)
}

func (l *NameCaseLinter) Lint(_ []*statement.CreateTable, changes []*statement.AbstractStatement) []Violation {
	var violations []Violation

	for _, table := range createTableChanges(changes) {
		if !snakeCase.MatchString(table.GetTableName()) {
			violations = append(violations, l.createViolation("Table", table.GetTableName(), table.GetTableName(), nil, table.Line))
		}

		for _, col := range table.GetColumns() {
			if !snakeCase.MatchString(col.Name) {
				violations = append(violations, l.createViolation("Column", col.Name, table.GetTableName(), &col.Name, table.Line))
			}
		}
	}

	for _, change := range changes {
		alterStmt, ok := change.AsAlterTable()
		if !ok {
			continue
		}

		for _, spec := range alterStmt.Specs {
			var names []string

			switch spec.Tp { //nolint:exhaustive
			case ast.AlterTableAddColumns, ast.AlterTableChangeColumn:
				for _, def := range spec.NewColumns {
					names = append(names, def.Name.Name.O)
				}
			case ast.AlterTableRenameColumn:
				if spec.NewColumnName != nil {
					names = append(names, spec.NewColumnName.Name.O)
				}
			case ast.AlterTableRenameTable:
				if spec.NewTable != nil && !snakeCase.MatchString(spec.NewTable.Name.O) {
					violations = append(violations, l.createViolation("Table", spec.NewTable.Name.O, change.Table, nil, change.Line))
				}
			}

			for _, name := range names {
				if !snakeCase.MatchString(name) {
					column := name
					violations = append(violations, l.createViolation("Column", name, change.Table, &column, change.Line))
				}
			}
		}
	}

	return violations
}

func (l *NameCaseLinter) createViolation(kind, name, tableName string, column *string, line int) Violation {
	return Violation{
		Linter:   l,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("%s name '%s' is not snake_case", kind, name),
		Location: &Location{Line: line, Table: tableName, Column: column},
		Context: map[string]any{
			"name": name,
		},
	}
}
