package lint

import (
	"fmt"

	"github.com/lintsql/lint-sql/pkg/statement"
	"github.com/pingcap/tidb/pkg/parser/ast"
)

func init() {
	Register(&PrimaryKeyLinter{})
}

// PrimaryKeyLinter requires every table to have a PRIMARY KEY.
type PrimaryKeyLinter struct{}

func (l *PrimaryKeyLinter) Name() string {
	return "primary_key"
}

func (l *PrimaryKeyLinter) Description() string {
	return "Requires tables to define a PRIMARY KEY and not drop it"
}

func (l *PrimaryKeyLinter) String() string {
	return Stringer(l)
}

func (l *PrimaryKeyLinter) Lint(_ []*statement.CreateTable, changes []*statement.AbstractStatement) []Violation {
	var violations []Violation

	for _, table := range createTableChanges(changes) {
		// LIKE and AS SELECT tables take their structure from elsewhere.
		if table.IsCopy() || table.GetIndexes().HasPrimaryKey() {
			continue
		}

		violations = append(violations, Violation{
			Linter:   l,
			Severity: SeverityError,
			Message:  fmt.Sprintf("Table '%s' has no PRIMARY KEY", table.GetTableName()),
			Location: &Location{Line: table.Line, Table: table.GetTableName()},
		})
	}

	for _, change := range changes {
		alterStmt, ok := change.AsAlterTable()
		if !ok {
			continue
		}

		var dropped, added bool

		for _, spec := range alterStmt.Specs {
			switch spec.Tp { //nolint:exhaustive
			case ast.AlterTableDropPrimaryKey:
				dropped = true
			case ast.AlterTableAddConstraint:
				if spec.Constraint != nil && spec.Constraint.Tp == ast.ConstraintPrimaryKey {
					added = true
				}
			}
		}

		if dropped && !added {
			violations = append(violations, Violation{
				Linter:   l,
				Severity: SeverityError,
				Message:  fmt.Sprintf("ALTER TABLE drops the PRIMARY KEY of '%s' without adding a new one", change.Table),
				Location: &Location{Line: change.Line, Table: change.Table},
			})
		}
	}

	return violations
}
