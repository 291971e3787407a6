package lint

import (
	"fmt"
	"maps"
	"strings"

	"github.com/lintsql/lint-sql/pkg/statement"
	"github.com/pingcap/tidb/pkg/parser/ast"
)

func init() {
	Register(&IndexColumnExistsLinter{})
}

// IndexColumnExistsLinter validates that index columns actually exist in the table.
// This catches errors like CREATE INDEX idx_foo (nonexistent_column) that would
// fail at execution time with "Key column 'nonexistent_column' doesn't exist in table".
type IndexColumnExistsLinter struct{}

func (l *IndexColumnExistsLinter) Name() string {
	return "index_column_exists"
}

func (l *IndexColumnExistsLinter) Description() string {
	return "Validates that all columns referenced by indexes exist in the table"
}

func (l *IndexColumnExistsLinter) String() string {
	return Stringer(l)
}

// Lint replays changes in file order, so a table's columns are known only
// once its CREATE TABLE is reached and ALTER TABLE sees the columns left by
// earlier statements.
func (l *IndexColumnExistsLinter) Lint(existingTables []*statement.CreateTable, changes []*statement.AbstractStatement) []Violation {
	var violations []Violation

	tableColumns := make(map[string]map[string]bool)
	for _, table := range existingTables {
		tableColumns[strings.ToLower(table.GetTableName())] = columnSet(table)
	}

	for _, change := range changes {
		if ct, ok := change.AsCreateTable(); ok {
			table := statement.NewCreateTable(ct)
			table.Line = change.Line
			violations = append(violations, l.checkCreateTable(tableColumns, table)...)

			continue
		}

		if alterStmt, ok := change.AsAlterTable(); ok {
			violations = append(violations, l.checkAlterTable(tableColumns, change, alterStmt)...)
		}
	}

	return violations
}

func columnSet(table *statement.CreateTable) map[string]bool {
	columnNames := make(map[string]bool)
	for _, col := range table.GetColumns() {
		columnNames[strings.ToLower(col.Name)] = true
	}

	return columnNames
}

func (l *IndexColumnExistsLinter) checkCreateTable(tableColumns map[string]map[string]bool, table *statement.CreateTable) []Violation {
	name := strings.ToLower(table.GetTableName())

	if table.IsCopy() {
		// LIKE copies a known table; AS SELECT columns are not tracked.
		if source := tableColumns[strings.ToLower(table.ReferTableName())]; source != nil {
			tableColumns[name] = maps.Clone(source)
		} else {
			delete(tableColumns, name)
		}

		return nil
	}

	var violations []Violation

	columnNames := columnSet(table)
	tableColumns[name] = columnNames

	for _, index := range table.GetIndexes() {
		for _, colName := range index.Columns {
			if !columnNames[strings.ToLower(colName)] {
				violations = append(violations, l.createViolation(table.GetTableName(), index.Name, colName, table.Line))
			}
		}
	}

	return violations
}

func (l *IndexColumnExistsLinter) checkAlterTable(tableColumns map[string]map[string]bool, change *statement.AbstractStatement, alterStmt *ast.AlterTableStmt) []Violation {
	var violations []Violation

	tableName := change.Table

	columnNames := tableColumns[strings.ToLower(tableName)]
	if columnNames == nil {
		return nil // unknown table, nothing to check against
	}

	for _, spec := range alterStmt.Specs {
		switch spec.Tp { //nolint:exhaustive
		case ast.AlterTableAddColumns:
			for _, col := range spec.NewColumns {
				columnNames[strings.ToLower(col.Name.Name.O)] = true
			}
		case ast.AlterTableDropColumn:
			if spec.OldColumnName != nil {
				delete(columnNames, strings.ToLower(spec.OldColumnName.Name.O))
			}
		case ast.AlterTableChangeColumn:
			if spec.OldColumnName != nil && len(spec.NewColumns) > 0 {
				delete(columnNames, strings.ToLower(spec.OldColumnName.Name.O))
				columnNames[strings.ToLower(spec.NewColumns[0].Name.Name.O)] = true
			}
		case ast.AlterTableRenameColumn:
			if spec.OldColumnName != nil && spec.NewColumnName != nil {
				delete(columnNames, strings.ToLower(spec.OldColumnName.Name.O))
				columnNames[strings.ToLower(spec.NewColumnName.Name.O)] = true
			}
		}
	}

	for _, spec := range alterStmt.Specs {
		if spec.Tp != ast.AlterTableAddConstraint || spec.Constraint == nil {
			continue
		}

		indexName := spec.Constraint.Name
		switch spec.Constraint.Tp { //nolint:exhaustive
		case ast.ConstraintPrimaryKey,
			ast.ConstraintKey, ast.ConstraintIndex,
			ast.ConstraintUniq, ast.ConstraintUniqKey, ast.ConstraintUniqIndex,
			ast.ConstraintFulltext:
			for _, key := range spec.Constraint.Keys {
				if key.Column != nil {
					colName := key.Column.Name.O
					if !columnNames[strings.ToLower(colName)] {
						violations = append(violations, l.createViolation(tableName, indexName, colName, change.Line))
					}
				}
			}
		}
	}

	return violations
}

func (l *IndexColumnExistsLinter) createViolation(tableName, indexName, columnName string, line int) Violation {
	return Violation{
		Linter:   l,
		Severity: SeverityError,
		Message: fmt.Sprintf(
			"Index '%s' references column '%s' which does not exist in table '%s'",
			indexName, columnName, tableName,
		),
		Location: &Location{Line: line, Table: tableName, Index: &indexName},
		Context: map[string]any{
			"missing_column": columnName,
			"index_name":     indexName,
			"table_name":     tableName,
		},
	}
}
