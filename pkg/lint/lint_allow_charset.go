package lint

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lintsql/lint-sql/pkg/statement"
	"github.com/pingcap/tidb/pkg/parser/ast"
)

func init() {
	Register(&AllowCharsetLinter{})
}

// AllowCharsetLinter restricts table and column character sets to an allow
// list, set with --config allow_charset.charsets=utf8mb4,latin1.
type AllowCharsetLinter struct {
	charsets map[string]bool
}

func (l *AllowCharsetLinter) Name() string {
	return "allow_charset"
}

func (l *AllowCharsetLinter) Description() string {
	return "Restricts table and column character sets to an allow list"
}

func (l *AllowCharsetLinter) String() string {
	return Stringer(l)
}

func (l *AllowCharsetLinter) DefaultConfig() map[string]string {
	return map[string]string{"charsets": "utf8mb4"}
}

func (l *AllowCharsetLinter) Configure(settings map[string]string) (Linter, error) {
	charsets := make(map[string]bool)

	for key, value := range settings {
		if key != "charsets" {
			return nil, fmt.Errorf("unknown setting %q", key)
		}

		for _, cs := range strings.Split(value, ",") {
			if cs = strings.ToLower(strings.TrimSpace(cs)); cs != "" {
				charsets[cs] = true
			}
		}
	}

	if len(charsets) == 0 {
		return nil, errors.New("charsets must not be empty")
	}

	return &AllowCharsetLinter{charsets: charsets}, nil
}

func (l *AllowCharsetLinter) allowed(charset string) bool {
	// binary is set by the parser itself for BLOB, BINARY and JSON types.
	if charset == "" || strings.EqualFold(charset, "binary") {
		return true
	}

	if l.charsets == nil {
		return strings.EqualFold(charset, l.DefaultConfig()["charsets"])
	}

	return l.charsets[strings.ToLower(charset)]
}

func (l *AllowCharsetLinter) Lint(_ []*statement.CreateTable, changes []*statement.AbstractStatement) []Violation {
	var violations []Violation

	for _, table := range createTableChanges(changes) {
		if cs := table.GetTableOptions()["charset"]; !l.allowed(cs) {
			violations = append(violations, l.createViolation(table.GetTableName(), nil, cs, table.Line))
		}

		for _, col := range table.GetColumns() {
			if col.Ref == nil || col.Ref.Tp == nil {
				continue
			}

			if cs := col.Ref.Tp.GetCharset(); !l.allowed(cs) {
				violations = append(violations, l.createViolation(table.GetTableName(), &col.Name, cs, table.Line))
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
			case ast.AlterTableOption:
				for _, opt := range spec.Options {
					if opt.Tp == ast.TableOptionCharset && !l.allowed(opt.StrValue) {
						violations = append(violations, l.createViolation(change.Table, nil, opt.StrValue, change.Line))
					}
				}
			case ast.AlterTableAddColumns, ast.AlterTableModifyColumn, ast.AlterTableChangeColumn:
				for _, def := range spec.NewColumns {
					if def.Tp == nil {
						continue
					}

					if cs := def.Tp.GetCharset(); !l.allowed(cs) {
						name := def.Name.Name.O
						violations = append(violations, l.createViolation(change.Table, &name, cs, change.Line))
					}
				}
			}
		}
	}

	return violations
}

func (l *AllowCharsetLinter) createViolation(tableName string, column *string, charset string, line int) Violation {
	msg := fmt.Sprintf("Table '%s' uses character set '%s' which is not allowed", tableName, charset)
	if column != nil {
		msg = fmt.Sprintf("Column '%s' in table '%s' uses character set '%s' which is not allowed", *column, tableName, charset)
	}

	return Violation{
		Linter:   l,
		Severity: SeverityWarning,
		Message:  msg,
		Location: &Location{Line: line, Table: tableName, Column: column},
		Context: map[string]any{
			"charset": charset,
		},
	}
}
