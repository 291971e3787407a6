package lint

import (
	"testing"

	"github.com/lintsql/lint-sql/pkg/statement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexColumnExistsLinter_Name(t *testing.T) {
	linter := &IndexColumnExistsLinter{}
	assert.Equal(t, "index_column_exists", linter.Name())
	assert.Contains(t, linter.String(), "index_column_exists: ")
}

func TestIndexColumnExistsLinter_CreateTable(t *testing.T) {
	tests := []struct {
		name           string
		createTable    string
		expectViolated bool
		missingColumn  string
		indexName      string
	}{
		{
			name: "valid index",
			createTable: `CREATE TABLE users (
				id BIGINT PRIMARY KEY,
				name VARCHAR(100),
				INDEX idx_name (name)
			)`,
		},
		{
			name: "valid composite index",
			createTable: `CREATE TABLE users (
				id BIGINT PRIMARY KEY,
				first_name VARCHAR(100),
				last_name VARCHAR(100),
				INDEX idx_fullname (first_name, last_name)
			)`,
		},
		{
			name: "missing column",
			createTable: `CREATE TABLE users (
				id BIGINT PRIMARY KEY,
				name VARCHAR(100),
				INDEX idx_missing (nonexistent)
			)`,
			expectViolated: true,
			missingColumn:  "nonexistent",
			indexName:      "idx_missing",
		},
		{
			name: "composite index with missing column",
			createTable: `CREATE TABLE users (
				id BIGINT PRIMARY KEY,
				first_name VARCHAR(100),
				INDEX idx_names (first_name, last_name)
			)`,
			expectViolated: true,
			missingColumn:  "last_name",
			indexName:      "idx_names",
		},
		{
			name: "UNIQUE index missing column",
			createTable: `CREATE TABLE users (
				id BIGINT PRIMARY KEY,
				email VARCHAR(255),
				UNIQUE INDEX idx_token (token)
			)`,
			expectViolated: true,
			missingColumn:  "token",
			indexName:      "idx_token",
		},
		{
			name: "PRIMARY KEY on missing column",
			createTable: `CREATE TABLE users (
				name VARCHAR(100),
				PRIMARY KEY (id)
			)`,
			expectViolated: true,
			missingColumn:  "id",
			indexName:      "PRIMARY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			linter := &IndexColumnExistsLinter{}
			violations := linter.Lint(nil, mustParse(t, tt.createTable))

			if !tt.expectViolated {
				assert.Empty(t, violations)
				return
			}

			require.Len(t, violations, 1)
			v := violations[0]
			assert.Equal(t, SeverityError, v.Severity)
			assert.Equal(t, tt.missingColumn, v.Context["missing_column"])
			assert.Equal(t, tt.indexName, v.Context["index_name"])
			assert.Contains(t, v.Message, tt.missingColumn)
			assert.Equal(t, 1, v.Location.Line)
		})
	}
}

func TestIndexColumnExistsLinter_AlterTable(t *testing.T) {
	existingTable := `CREATE TABLE users (
		id BIGINT PRIMARY KEY,
		name VARCHAR(100),
		email VARCHAR(255)
	)`

	tests := []struct {
		name           string
		alterSQL       string
		expectViolated bool
		missingColumn  string
	}{
		{
			name:     "valid column",
			alterSQL: "ALTER TABLE users ADD INDEX idx_name (name)",
		},
		{
			name:           "missing column",
			alterSQL:       "ALTER TABLE users ADD INDEX idx_status (status)",
			expectViolated: true,
			missingColumn:  "status",
		},
		{
			name:           "composite with missing column",
			alterSQL:       "ALTER TABLE users ADD INDEX idx_combo (name, status)",
			expectViolated: true,
			missingColumn:  "status",
		},
		{
			name:     "ADD COLUMN and INDEX together",
			alterSQL: "ALTER TABLE users ADD COLUMN status VARCHAR(50), ADD INDEX idx_status (status)",
		},
		{
			name:     "ADD COLUMN in an earlier statement",
			alterSQL: "ALTER TABLE users ADD COLUMN status VARCHAR(50); ALTER TABLE users ADD INDEX idx_status (status)",
		},
		{
			name:           "column dropped by an earlier statement",
			alterSQL:       "ALTER TABLE users DROP COLUMN email; ALTER TABLE users ADD INDEX idx_email (email)",
			expectViolated: true,
			missingColumn:  "email",
		},
		{
			name:           "DROP COLUMN and ADD INDEX together",
			alterSQL:       "ALTER TABLE users DROP COLUMN email, ADD INDEX idx_email (email)",
			expectViolated: true,
			missingColumn:  "email",
		},
		{
			name:     "DROP COLUMN and ADD COLUMN with the same name",
			alterSQL: "ALTER TABLE users DROP COLUMN email, ADD COLUMN email VARCHAR(320), ADD INDEX idx_email (email)",
		},
		{
			name:           "copy made with LIKE",
			alterSQL:       "CREATE TABLE users_copy LIKE users; ALTER TABLE users_copy ADD INDEX idx_name (name), ADD INDEX idx_status (status)",
			expectViolated: true,
			missingColumn:  "status",
		},
		{
			name:     "copy made with AS SELECT is not checked",
			alterSQL: "CREATE TABLE users_copy AS SELECT id FROM users; ALTER TABLE users_copy ADD INDEX idx_name (name)",
		},
		{
			name:     "renamed column",
			alterSQL: "ALTER TABLE users CHANGE COLUMN name full_name VARCHAR(100), ADD INDEX idx_full_name (full_name)",
		},
		{
			name:     "unknown table is not checked",
			alterSQL: "ALTER TABLE orders ADD INDEX idx_status (status)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			linter := &IndexColumnExistsLinter{}
			ct := mustParseCreateTable(t, existingTable)

			violations := linter.Lint([]*statement.CreateTable{ct}, mustParse(t, tt.alterSQL))

			if !tt.expectViolated {
				assert.Empty(t, violations)
				return
			}

			require.Len(t, violations, 1)
			assert.Equal(t, tt.missingColumn, violations[0].Context["missing_column"])
			assert.Equal(t, SeverityError, violations[0].Severity)
		})
	}
}

func TestIndexColumnExistsLinter_CreateThenAlterInSameFile(t *testing.T) {
	sql := `CREATE TABLE users (
	id BIGINT PRIMARY KEY,
	full_name VARCHAR(200)
);
ALTER TABLE users ADD INDEX full_name1 (full_name1);`

	linter := &IndexColumnExistsLinter{}
	violations := linter.Lint(nil, mustParse(t, sql))
	require.Len(t, violations, 1)
	assert.Equal(t, "full_name1", violations[0].Context["missing_column"])
	assert.Equal(t, 5, violations[0].Location.Line)
}

func TestIndexColumnExistsLinter_FileOrder(t *testing.T) {
	existing := []*statement.CreateTable{
		mustParseCreateTable(t, "CREATE TABLE t (id INT PRIMARY KEY, legacy INT)"),
	}

	sql := `ALTER TABLE t ADD INDEX idx_legacy (legacy);
DROP TABLE t;
CREATE TABLE t (id INT PRIMARY KEY, modern INT);
ALTER TABLE t ADD INDEX idx_modern (modern), ADD INDEX idx_legacy (legacy);`

	violations := (&IndexColumnExistsLinter{}).Lint(existing, mustParse(t, sql))
	require.Len(t, violations, 1)
	assert.Equal(t, "legacy", violations[0].Context["missing_column"])
	assert.Equal(t, 4, violations[0].Location.Line)

	// A table is unknown until its CREATE TABLE is reached.
	sql = `ALTER TABLE orders ADD INDEX idx_status (status);
CREATE TABLE orders (id INT PRIMARY KEY, total INT);`

	assert.Empty(t, (&IndexColumnExistsLinter{}).Lint(nil, mustParse(t, sql)))
}

func TestIndexColumnExistsLinter_CaseInsensitive(t *testing.T) {
	createTable := `CREATE TABLE users (
		id BIGINT PRIMARY KEY,
		UserName VARCHAR(100),
		INDEX idx_username (username)
	)`

	linter := &IndexColumnExistsLinter{}
	violations := linter.Lint(nil, mustParse(t, createTable))
	assert.Empty(t, violations, "Column matching should be case-insensitive")
}

func TestIndexColumnExistsLinter_RunLinters(t *testing.T) {
	existingTable := `CREATE TABLE users (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(50) NOT NULL,
		full_name VARCHAR(200)
	) ENGINE=InnoDB`

	ct := mustParseCreateTable(t, existingTable)
	changes := mustParse(t, "ALTER TABLE users ADD INDEX full_name1 (full_name1)")

	violations, err := RunLinters([]*statement.CreateTable{ct}, changes, Config{})
	require.NoError(t, err)

	found := violationsFor(violations, "index_column_exists")
	require.Len(t, found, 1, "Expected index_column_exists linter to catch the typo")
	assert.Equal(t, SeverityError, found[0].Severity)
	assert.Contains(t, found[0].Message, "full_name1")
	assert.Contains(t, found[0].Message, "does not exist")
}
