package lint

import (
	"testing"

	"github.com/lintsql/lint-sql/pkg/statement"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, sql string) []*statement.AbstractStatement {
	t.Helper()

	stmts, err := statement.New(sql)
	require.NoError(t, err)

	return stmts
}

func mustParseCreateTable(t *testing.T, sql string) *statement.CreateTable {
	t.Helper()

	ct, err := statement.ParseCreateTable(sql)
	require.NoError(t, err)

	return ct
}

func violationsFor(violations []Violation, linter string) []Violation {
	var out []Violation

	for _, v := range violations {
		if v.Linter.Name() == linter {
			out = append(out, v)
		}
	}

	return out
}
