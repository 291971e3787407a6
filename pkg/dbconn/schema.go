package dbconn

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"golang.org/x/sync/errgroup"
)

// errNoSuchTable is ER_NO_SUCH_TABLE.
const errNoSuchTable = 1146

// SchemaReader reads CREATE TABLE statements from a server.
type SchemaReader struct {
	db          *sql.DB
	concurrency int
}

func NewSchemaReader(db *sql.DB, config *DBConfig) *SchemaReader {
	concurrency := 1
	if config != nil && config.MaxOpenConnections > 0 {
		concurrency = config.MaxOpenConnections
	}

	return &SchemaReader{db: db, concurrency: concurrency}
}

// CreateTables runs SHOW CREATE TABLE for every name, which may be
// "table" or "schema.table". Tables that don't exist are skipped; the
// rest are returned in the order they were asked for.
func (r *SchemaReader) CreateTables(ctx context.Context, names []string) ([]string, error) {
	results := make([]string, len(names))

	g, errGrpCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, name := range names {
		g.Go(func() error {
			stmt, err := r.showCreateTable(errGrpCtx, name)
			if err != nil {
				return err
			}

			results[i] = stmt

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	definitions := make([]string, 0, len(results))

	for _, stmt := range results {
		if stmt != "" {
			definitions = append(definitions, stmt)
		}
	}

	return definitions, nil
}

func (r *SchemaReader) showCreateTable(ctx context.Context, name string) (string, error) {
	var tableName, createTable string

	err := r.db.QueryRowContext(ctx, "SHOW CREATE TABLE "+QuoteName(name)).Scan(&tableName, &createTable)

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == errNoSuchTable {
		return "", nil
	}

	if err != nil {
		return "", fmt.Errorf("failed to read definition of table %s: %w", name, err)
	}

	return createTable, nil
}

// QuoteName quotes "table" or "schema.table" with backticks.
func QuoteName(name string) string {
	parts := strings.SplitN(name, ".", 2)
	for i, part := range parts {
		parts[i] = "`" + strings.ReplaceAll(part, "`", "``") + "`"
	}

	return strings.Join(parts, ".")
}
