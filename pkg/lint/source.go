package lint

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lintsql/lint-sql/pkg/statement"
)

// StatementSource represents a single source of SQL statements.
type StatementSource struct {
	// Origin describes where this SQL came from: the file path, or
	// "stdin" when reading from standard input.
	Origin string

	// SQL contains the actual SQL content
	SQL string
}

// resolveSource takes the file_path argument and reads it.
// "-" reads from stdin, anything else is a file path.
func resolveSource(arg string) (StatementSource, error) {
	if arg == "-" {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return StatementSource{}, fmt.Errorf("failed to read from stdin: %w", err)
		}

		return StatementSource{Origin: "stdin", SQL: string(content)}, nil
	}

	content, err := os.ReadFile(arg)
	if err != nil {
		return StatementSource{}, fmt.Errorf("failed to read file %s: %w", arg, err)
	}

	return StatementSource{Origin: arg, SQL: string(content)}, nil
}

// parseStatementSource parses every statement in source.
// An empty source, or one holding only comments, returns no statements.
func parseStatementSource(source StatementSource) ([]*statement.AbstractStatement, error) {
	if strings.TrimSpace(source.SQL) == "" {
		return nil, nil
	}

	stmts, err := statement.New(source.SQL)
	if errors.Is(err, statement.ErrNoStatements) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source.Origin, err)
	}

	return stmts, nil
}
