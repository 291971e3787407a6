package lint

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lintsql/lint-sql/pkg/statement"
	"github.com/siddontang/loggers"
	"github.com/sirupsen/logrus"
)

// TableSource returns CREATE TABLE statements for tables that already
// exist, such as those on a running server. Names it does not know are
// left out of the result.
type TableSource interface {
	CreateTables(ctx context.Context, names []string) ([]string, error)
}

// Runner lints SQL sources.
type Runner struct {
	Config Config
	Tables TableSource // optional
	Logger loggers.Advanced
}

// LintSQLFile lints the file at path with every linter and default settings.
func LintSQLFile(path string) ([]Violation, error) {
	return (&Runner{}).LintFile(context.Background(), path)
}

// LintFile reads path ("-" for stdin) and lints it.
func (r *Runner) LintFile(ctx context.Context, path string) ([]Violation, error) {
	source, err := resolveSource(path)
	if err != nil {
		return nil, err
	}

	return r.LintSource(ctx, source)
}

func (r *Runner) LintSource(ctx context.Context, source StatementSource) ([]Violation, error) {
	stmts, err := parseStatementSource(source)
	if err != nil {
		return nil, err
	}

	var changes []*statement.AbstractStatement

	for _, stmt := range stmts {
		if !stmt.IsCreateTable() && !stmt.IsAlterTable() {
			r.logger().Debugf("%s:%d: skipping statement that is not CREATE TABLE or ALTER TABLE", source.Origin, stmt.Line)
			continue
		}

		changes = append(changes, stmt)
	}

	if len(changes) == 0 {
		r.logger().Warnf("no CREATE TABLE or ALTER TABLE statements found in %s", source.Origin)
		return nil, nil
	}

	existingTables, err := r.existingTables(ctx, changes)
	if err != nil {
		return nil, err
	}

	violations, err := RunLinters(existingTables, changes, r.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to run linters: %w", err)
	}

	for i := range violations {
		if violations[i].Location == nil {
			violations[i].Location = &Location{}
		}

		violations[i].Location.Origin = source.Origin
	}

	return violations, nil
}

// existingTables loads the tables that are altered but not created by
// changes.
func (r *Runner) existingTables(ctx context.Context, changes []*statement.AbstractStatement) ([]*statement.CreateTable, error) {
	if r.Tables == nil {
		return nil, nil
	}

	created := make(map[string]bool)
	for _, change := range changes {
		if change.IsCreateTable() {
			created[strings.ToLower(change.Table)] = true
		}
	}

	wanted := make(map[string]bool)
	for _, change := range changes {
		if !change.IsAlterTable() || created[strings.ToLower(change.Table)] {
			continue
		}

		name := change.Table
		if change.Schema != "" {
			name = change.Schema + "." + change.Table
		}

		wanted[name] = true
	}

	if len(wanted) == 0 {
		return nil, nil
	}

	names := make([]string, 0, len(wanted))
	for name := range wanted {
		names = append(names, name)
	}

	sort.Strings(names)

	r.logger().Infof("loading existing table definitions: %s", strings.Join(names, ", "))

	definitions, err := r.Tables.CreateTables(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing tables: %w", err)
	}

	tables := make([]*statement.CreateTable, 0, len(definitions))

	for _, def := range definitions {
		ct, err := statement.ParseCreateTable(def)
		if err != nil {
			return nil, fmt.Errorf("failed to parse existing table definition: %w", err)
		}

		tables = append(tables, ct)
	}

	return tables, nil
}

func (r *Runner) logger() loggers.Advanced {
	if r.Logger == nil {
		return logrus.StandardLogger()
	}

	return r.Logger
}
