package lint

import (
	"testing"

	"github.com/lintsql/lint-sql/pkg/statement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	var names []string
	for _, l := range Linters() {
		names = append(names, l.Name())
	}

	assert.Equal(t, []string{"allow_charset", "has_float", "index_column_exists", "name_case", "primary_key"}, names)

	l, ok := Get("has_float")
	require.True(t, ok)
	assert.Equal(t, "has_float", l.Name())

	_, ok = Get("nope")
	assert.False(t, ok)

	assert.Panics(t, func() { Register(&HasFloatLinter{}) })
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "INFO", SeverityInfo.String())
	assert.Equal(t, "WARNING", SeverityWarning.String())
	assert.Equal(t, "ERROR", SeverityError.String())
	assert.Equal(t, "Severity(7)", Severity(7).String())
}

func TestViolationString(t *testing.T) {
	v := Violation{
		Linter:   &PrimaryKeyLinter{},
		Severity: SeverityError,
		Message:  "Table 't' has no PRIMARY KEY",
		Location: &Location{Origin: "schema.sql", Line: 3, Table: "t"},
	}
	assert.Equal(t, "schema.sql:3: [ERROR] primary_key: Table 't' has no PRIMARY KEY", v.String())

	v.Location.Line = 0
	assert.Equal(t, "schema.sql: [ERROR] primary_key: Table 't' has no PRIMARY KEY", v.String())

	v.Location = nil
	assert.Equal(t, "[ERROR] primary_key: Table 't' has no PRIMARY KEY", v.String())

	v.Linter = nil
	assert.Equal(t, "[ERROR] unknown: Table 't' has no PRIMARY KEY", v.String())
}

func TestRunLinters_Ordering(t *testing.T) {
	sql := `CREATE TABLE Orders (id INT, price FLOAT);
ALTER TABLE Orders ADD INDEX idx_x (x);`

	violations, err := RunLinters(nil, mustParse(t, sql), Config{})
	require.NoError(t, err)

	var got []string
	for _, v := range violations {
		got = append(got, v.Linter.Name())
	}

	assert.Equal(t, []string{"has_float", "name_case", "primary_key", "index_column_exists"}, got)
	assert.Equal(t, 1, violations[0].Location.Line)
	assert.Equal(t, 2, violations[3].Location.Line)
}

func TestRunLinters_Config(t *testing.T) {
	changes := mustParse(t, "CREATE TABLE t (id INT PRIMARY KEY, price FLOAT) CHARSET=latin1")

	violations, err := RunLinters(nil, changes, Config{Enabled: map[string]bool{"primary_key": true}})
	require.NoError(t, err)
	assert.Empty(t, violations)

	violations, err = RunLinters(nil, changes, Config{
		Enabled:  map[string]bool{"allow_charset": true},
		Settings: map[string]map[string]string{"allow_charset": {"charsets": "latin1"}},
	})
	require.NoError(t, err)
	assert.Empty(t, violations)

	violations, err = RunLinters(nil, changes, Config{Enabled: map[string]bool{"allow_charset": true}})
	require.NoError(t, err)
	assert.Len(t, violations, 1, "settings from a previous run must not leak")

	_, err = RunLinters(nil, changes, Config{
		Settings: map[string]map[string]string{"allow_charset": {"bogus": "1"}},
	})
	assert.ErrorContains(t, err, "failed to configure linter allow_charset")
}

func TestCreateTableStatements(t *testing.T) {
	existing := []*statement.CreateTable{mustParseCreateTable(t, "CREATE TABLE a (id INT)")}
	changes := mustParse(t, "CREATE TABLE b (id INT); ALTER TABLE a ADD COLUMN x INT; CREATE TABLE c (id INT)")

	var names []string
	for table := range CreateTableStatements(existing, changes) {
		names = append(names, table.GetTableName())
	}

	assert.Equal(t, []string{"a", "b", "c"}, names)

	names = nil
	for table := range CreateTableStatements(existing, changes) {
		names = append(names, table.GetTableName())
		if len(names) == 2 {
			break
		}
	}

	assert.Equal(t, []string{"a", "b"}, names)
}
