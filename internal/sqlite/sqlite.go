// Package sqlite replays cleaned dumps into an in-memory SQLite database to
// prove they load.
package sqlite

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver

	"github.com/danielsiegl/sqltrim/internal/logging"
)

// ErrVerify is returned when the dump does not load cleanly.
var ErrVerify = errors.New("dump verification failed")

// Result describes a successfully replayed dump.
type Result struct {
	Statements int      `json:"statements" yaml:"statements" toml:"statements"`
	Tables     []string `json:"tables" yaml:"tables" toml:"tables"`
}

// StatementError locates the statement SQLite rejected.
type StatementError struct {
	Line int
	Err  error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("statement starting at line %d: %v", e.Line, e.Err)
}

func (e *StatementError) Unwrap() []error { return []error{ErrVerify, e.Err} }

// Verifier executes dumps statement by statement against a private
// in-memory database.
type Verifier struct {
	// DSN overrides the database the dump is replayed into.
	DSN string
}

func (v *Verifier) dsn() string {
	if v.DSN != "" {
		return v.DSN
	}
	return ":memory:"
}

// Verify reads a dump from r and executes it. Lines are accumulated until a
// chunk ends in ';'; a chunk SQLite reports as incomplete (a literal holding
// ";\n") keeps accumulating.
func (v *Verifier) Verify(ctx context.Context, r io.Reader) (Result, error) {
	var res Result
	startTime := time.Now()
	log := logging.FromContext(ctx)

	db, err := sql.Open("sqlite3", v.dsn())
	if err != nil {
		return res, fmt.Errorf("opening sqlite: %w", err)
	}
	defer db.Close()
	// An in-memory database lives only as long as its connection.
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		return res, fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer conn.Close()

	var (
		chunk     bytes.Buffer
		lineNo    int
		startLine int
		pending   error
	)
	br := bufio.NewReader(r)
	for {
		line, readErr := br.ReadBytes('\n')
		if len(line) > 0 {
			lineNo++
			blank := chunk.Len() == 0 && len(bytes.TrimSpace(line)) == 0
			if !blank {
				if chunk.Len() == 0 {
					startLine = lineNo
				}
				chunk.Write(line)
			}

			if !blank && bytes.HasSuffix(bytes.TrimSpace(line), []byte(";")) {
				execErr := exec(ctx, conn, chunk.String())
				switch {
				case execErr == nil:
					res.Statements++
					chunk.Reset()
					pending = nil
				case isIncomplete(execErr):
					log.Debug("Statement continues", "start_line", startLine, "line", lineNo)
					pending = execErr
				default:
					log.Error("Statement rejected", "line", startLine, "error", execErr)
					return res, &StatementError{Line: startLine, Err: execErr}
				}
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return res, fmt.Errorf("reading dump: %w", readErr)
		}
	}

	if strings.TrimSpace(chunk.String()) != "" {
		if pending == nil {
			pending = errors.New("unterminated statement at end of input")
		}
		return res, &StatementError{Line: startLine, Err: pending}
	}

	res.Tables, err = tables(ctx, conn)
	if err != nil {
		return res, err
	}

	log.Info("Dump verified", "statements", res.Statements, "tables", len(res.Tables),
		"duration", logging.FormatDuration(time.Since(startTime)))
	return res, nil
}

func exec(ctx context.Context, conn *sql.Conn, stmt string) error {
	_, err := conn.ExecContext(ctx, stmt)
	return err
}

// isIncomplete reports whether SQLite stopped inside an unterminated token.
func isIncomplete(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "incomplete input") || strings.Contains(msg, "unrecognized token")
}

func tables(ctx context.Context, conn *sql.Conn) ([]string, error) {
	rows, err := conn.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("listing tables: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
