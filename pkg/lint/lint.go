// Package lint runs a set of registered linters over CREATE TABLE and
// ALTER TABLE statements and reports the violations they find.
package lint

import (
	"fmt"
	"iter"
	"sort"
	"strings"
	"sync"

	"github.com/lintsql/lint-sql/pkg/statement"
)

type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Location points at where a violation was found. Origin and Line are
// filled in by the Runner, the remaining fields by the linter.
type Location struct {
	Origin string
	Line   int
	Table  string
	Column *string
	Index  *string
}

// Violation is a single lint result.
type Violation struct {
	Linter   Linter
	Severity Severity
	Message  string
	Location *Location
	Context  map[string]any
}

func (v Violation) String() string {
	var sb strings.Builder

	if v.Location != nil && v.Location.Origin != "" {
		sb.WriteString(v.Location.Origin)

		if v.Location.Line > 0 {
			fmt.Fprintf(&sb, ":%d", v.Location.Line)
		}

		sb.WriteString(": ")
	}

	name := "unknown"
	if v.Linter != nil {
		name = v.Linter.Name()
	}

	fmt.Fprintf(&sb, "[%s] %s: %s", v.Severity, name, v.Message)

	return sb.String()
}

func (v Violation) line() int {
	if v.Location == nil {
		return 0
	}

	return v.Location.Line
}

// Linter checks a set of changes, optionally against the tables that
// already exist, and returns what it objects to.
type Linter interface {
	Name() string
	Description() string
	String() string
	Lint(existingTables []*statement.CreateTable, changes []*statement.AbstractStatement) []Violation
}

// ConfigurableLinter is a Linter that accepts key/value settings.
// Configure returns a new Linter for the settings and leaves the receiver
// untouched, so registered linters can be shared between concurrent runs.
// RunLinters always passes the defaults merged with user settings.
type ConfigurableLinter interface {
	Linter
	Configure(settings map[string]string) (Linter, error)
	DefaultConfig() map[string]string
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Linter)
)

// Register adds a linter to the registry. It panics on duplicate names,
// which can only happen through a programming error.
func Register(l Linter) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, ok := registry[l.Name()]; ok {
		panic(fmt.Sprintf("linter %q already registered", l.Name()))
	}

	registry[l.Name()] = l
}

// Linters returns all registered linters sorted by name.
func Linters() []Linter {
	registryMu.RLock()
	defer registryMu.RUnlock()

	linters := make([]Linter, 0, len(registry))
	for _, l := range registry {
		linters = append(linters, l)
	}

	sort.Slice(linters, func(i, j int) bool {
		return linters[i].Name() < linters[j].Name()
	})

	return linters
}

// Get returns the linter registered under name.
func Get(name string) (Linter, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	l, ok := registry[name]

	return l, ok
}

// Stringer is the shared String() implementation for linters.
func Stringer(l Linter) string {
	return fmt.Sprintf("%s: %s", l.Name(), l.Description())
}

// RunLinters runs every enabled linter. Violations are ordered by line,
// then by linter name.
func RunLinters(existingTables []*statement.CreateTable, changes []*statement.AbstractStatement, config Config) ([]Violation, error) {
	var violations []Violation

	for _, l := range Linters() {
		if !config.IsEnabled(l.Name()) {
			continue
		}

		if cl, ok := l.(ConfigurableLinter); ok {
			settings := cl.DefaultConfig()
			for k, v := range config.Settings[l.Name()] {
				settings[k] = v
			}

			configured, err := cl.Configure(settings)
			if err != nil {
				return nil, fmt.Errorf("failed to configure linter %s: %w", l.Name(), err)
			}

			l = configured
		}

		violations = append(violations, l.Lint(existingTables, changes)...)
	}

	sort.SliceStable(violations, func(i, j int) bool {
		if violations[i].line() != violations[j].line() {
			return violations[i].line() < violations[j].line()
		}

		return violations[i].Linter.Name() < violations[j].Linter.Name()
	})

	return violations, nil
}

// CreateTableStatements yields the existing tables followed by every
// CREATE TABLE in changes.
func CreateTableStatements(existingTables []*statement.CreateTable, changes []*statement.AbstractStatement) iter.Seq[*statement.CreateTable] {
	return func(yield func(*statement.CreateTable) bool) {
		for _, table := range existingTables {
			if !yield(table) {
				return
			}
		}

		for _, table := range createTableChanges(changes) {
			if !yield(table) {
				return
			}
		}
	}
}

// createTableChanges converts the CREATE TABLE statements in changes.
func createTableChanges(changes []*statement.AbstractStatement) []*statement.CreateTable {
	var tables []*statement.CreateTable

	for _, change := range changes {
		ct, ok := change.AsCreateTable()
		if !ok {
			continue
		}

		table := statement.NewCreateTable(ct)
		table.Line = change.Line
		tables = append(tables, table)
	}

	return tables
}
