// Package testutils has helpers for tests that need a MySQL server.
package testutils

import (
	"database/sql"
	"os"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
)

// DSN returns the DSN of the test server from MYSQL_DSN, or skips the
// test when it is not set.
func DSN(t testing.TB) string {
	t.Helper()

	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		t.Skip("MYSQL_DSN not set, skipping test that needs a MySQL server")
	}

	return dsn
}

// RunSQL executes stmt against the test server.
func RunSQL(t testing.TB, stmt string) {
	t.Helper()

	db, err := sql.Open("mysql", DSN(t))
	require.NoError(t, err)

	defer db.Close()

	_, err = db.ExecContext(t.Context(), stmt)
	require.NoError(t, err)
}
