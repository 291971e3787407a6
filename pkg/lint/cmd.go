package lint

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/lintsql/lint-sql/pkg/dbconn"
	"github.com/sirupsen/logrus"
)

// NoViolationsMessage is printed when linting finds nothing.
const NoViolationsMessage = "No linting errors found."

// Lint is the struct for the lint command
type Lint struct {
	FilePath string   `arg:"" name:"file_path" help:"Path to the SQL file to lint ('-' reads stdin)."`
	Linters  []string `help:"Specific linters to run, '-name' excludes one (default: all)" default:"all"`
	Config   []string `help:"Individual linter configuration properties (linter.key=value)"`

	DSN                string `name:"dsn" help:"MySQL DSN to load definitions of altered tables from" env:"LINT_SQL_DSN"`
	TLSMode            string `name:"tls-mode" help:"TLS mode for the --dsn connection" default:"PREFERRED" enum:"DISABLED,PREFERRED,REQUIRED,VERIFY_CA,VERIFY_IDENTITY"`
	TLSCertificatePath string `name:"tls-ca" help:"CA certificate used to verify the server (default: system roots)"`

	LogLevel string `help:"Log level" default:"warn" enum:"debug,info,warn,error"`

	out io.Writer
}

func (l *Lint) Run() error {
	logger := logrus.New()

	level, err := logrus.ParseLevel(l.LogLevel)
	if err != nil {
		return err
	}

	logger.SetLevel(level)

	config, err := ParseConfig(l.Linters, l.Config)
	if err != nil {
		return err
	}

	runner := &Runner{Config: config, Logger: logger}

	if l.DSN != "" {
		dbConfig := dbconn.NewDBConfig()
		dbConfig.TLSMode = l.TLSMode
		dbConfig.TLSCertificatePath = l.TLSCertificatePath

		db, err := dbconn.New(l.DSN, dbConfig)
		if err != nil {
			return err
		}

		defer func() {
			if err := db.Close(); err != nil {
				logger.Warnf("failed to close database connection: %v", err)
			}
		}()

		runner.Tables = dbconn.NewSchemaReader(db, dbConfig)
	}

	violations, err := runner.LintFile(context.Background(), l.FilePath)
	if err != nil {
		return err
	}

	return PrintViolations(l.writer(), violations)
}

func (l *Lint) writer() io.Writer {
	if l.out == nil {
		return os.Stdout
	}

	return l.out
}

// PrintViolations writes one violation per line, or NoViolationsMessage.
func PrintViolations(w io.Writer, violations []Violation) error {
	if len(violations) == 0 {
		_, err := fmt.Fprintln(w, NoViolationsMessage)
		return err
	}

	for _, v := range violations {
		if _, err := fmt.Fprintln(w, v.String()); err != nil {
			return err
		}
	}

	return nil
}
