// Package statement parses SQL text into statements the linters understand.
package statement

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/types/parser_driver" // value expressions in DEFAULT/COMMENT clauses
)

// ErrNoStatements is returned by New when the input contains no statements,
// for example when it is only comments.
var ErrNoStatements = errors.New("no statements found")

// AbstractStatement is a single parsed statement plus where it came from.
type AbstractStatement struct {
	Schema    string // may be empty
	Table     string // empty for statements that don't target a table
	Statement string
	Line      int // 1-based line of the first keyword in the source text
	StmtNode  *ast.StmtNode
}

// New parses sql, which may hold any number of semicolon separated
// statements. CREATE TABLE and ALTER TABLE statements can be mixed.
func New(sql string) ([]*AbstractStatement, error) {
	p := parser.New()

	stmtNodes, _, err := p.Parse(sql, "", "")
	if err != nil {
		return nil, fmt.Errorf("could not parse SQL statement: %w", err)
	}

	if len(stmtNodes) == 0 {
		return nil, ErrNoStatements
	}

	stmts := make([]*AbstractStatement, 0, len(stmtNodes))
	cursor := 0

	for i := range stmtNodes {
		text := stmtNodes[i].Text()

		var line int
		line, cursor = locate(sql, text, cursor)

		stmt := &AbstractStatement{
			Statement: strings.TrimSpace(stripLeadingComments(text)),
			Line:      line,
			StmtNode:  &stmtNodes[i],
		}

		switch node := stmtNodes[i].(type) {
		case *ast.AlterTableStmt:
			stmt.Schema = node.Table.Schema.O
			stmt.Table = node.Table.Name.O
		case *ast.CreateTableStmt:
			stmt.Schema = node.Table.Schema.O
			stmt.Table = node.Table.Name.O
		case *ast.DropTableStmt:
			if len(node.Tables) == 1 {
				stmt.Schema = node.Tables[0].Schema.O
				stmt.Table = node.Tables[0].Name.O
			}
		case *ast.RenameTableStmt:
			if len(node.TableToTables) == 1 {
				stmt.Schema = node.TableToTables[0].OldTable.Schema.O
				stmt.Table = node.TableToTables[0].OldTable.Name.O
			}
		}

		stmts = append(stmts, stmt)
	}

	return stmts, nil
}

// IsAlterTable returns true if the statement is an ALTER TABLE.
func (a *AbstractStatement) IsAlterTable() bool {
	_, ok := a.AsAlterTable()
	return ok
}

// IsCreateTable returns true if the statement is a CREATE TABLE.
func (a *AbstractStatement) IsCreateTable() bool {
	_, ok := a.AsCreateTable()
	return ok
}

func (a *AbstractStatement) AsAlterTable() (*ast.AlterTableStmt, bool) {
	if a.StmtNode == nil {
		return nil, false
	}

	at, ok := (*a.StmtNode).(*ast.AlterTableStmt)

	return at, ok
}

func (a *AbstractStatement) AsCreateTable() (*ast.CreateTableStmt, bool) {
	if a.StmtNode == nil {
		return nil, false
	}

	ct, ok := (*a.StmtNode).(*ast.CreateTableStmt)

	return ct, ok
}

// locate finds text in sql at or after cursor and returns the line of its
// first non-comment token and the cursor position after it.
func locate(sql, text string, cursor int) (int, int) {
	idx := -1
	if text != "" && cursor <= len(sql) {
		idx = strings.Index(sql[cursor:], text)
	}

	if idx < 0 {
		return lineAt(sql, cursor), cursor
	}

	start := cursor + idx
	skipped := len(text) - len(stripLeadingComments(text))

	return lineAt(sql, start+skipped), start + len(text)
}

func lineAt(sql string, offset int) int {
	if offset > len(sql) {
		offset = len(sql)
	}

	return strings.Count(sql[:offset], "\n") + 1
}

// stripLeadingComments removes whitespace and -- # /* */ comments in front
// of the first keyword.
func stripLeadingComments(s string) string {
	for {
		trimmed := strings.TrimLeft(s, " \t\r\n")

		switch {
		case strings.HasPrefix(trimmed, "--"), strings.HasPrefix(trimmed, "#"):
			nl := strings.IndexByte(trimmed, '\n')
			if nl < 0 {
				return ""
			}

			s = trimmed[nl+1:]
		case strings.HasPrefix(trimmed, "/*") && !strings.HasPrefix(trimmed, "/*!"):
			end := strings.Index(trimmed, "*/")
			if end < 0 {
				return ""
			}

			s = trimmed[end+2:]
		default:
			return trimmed
		}
	}
}
