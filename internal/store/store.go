// Package store keeps the garage records: cars, the interventions carried out on them, the operations and
// consumables of each intervention, and free-form properties. Every statement is assembled with the query package.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/adamkeys/garage/internal/logging"
	"github.com/adamkeys/garage/query"
)

//go:embed schema.sql
var schemaSQL string

// currentSchemaVersion is recorded in PRAGMA user_version once the schema is applied.
const currentSchemaVersion = 1

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Store provides durable storage for garage records.
type Store struct {
	db  *query.DB
	log zerolog.Logger
}

// Open creates or opens the SQLite database at path and applies the schema. Every statement is logged to log at
// debug level.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func Open(path string, log zerolog.Logger) (*Store, error) {
	db, err := query.Open("sqlite3", dsn(path), &query.Options{Logger: logging.QueryLogger(log)})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time; a single connection also keeps :memory: databases intact.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db.DB); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db.DB); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	log.Debug().Str("path", path).Msg("store opened")
	return &Store{db: db, log: log}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil || s.db.DB == nil {
		return nil
	}
	return s.db.Close()
}

// dsn returns the go-sqlite3 data source for path. Foreign keys and the busy timeout are per connection settings, so
// they are given to the driver to apply on every connection it opens.
func dsn(path string) string {
	return path + "?_foreign_keys=on&_busy_timeout=5000"
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version >= currentSchemaVersion {
		return nil
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// build finishes b, reporting builder errors as bugs in the calling operation.
func build(op string, b query.Builder) (query.Query, error) {
	q, err := b.Build()
	if err != nil {
		return query.Query{}, fmt.Errorf("%s: build: %w", op, err)
	}
	return q, nil
}

// insert runs an INSERT and returns the new row id.
func insert(ctx context.Context, tx query.Transaction, op, table string, args ...query.Argument) (int64, error) {
	q, err := build(op, query.New().InsertInto(table, args...))
	if err != nil {
		return 0, err
	}
	res, err := query.Exec(ctx, tx, q)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: last insert id: %w", op, err)
	}
	return id, nil
}

// affectOne runs q and returns ErrNotFound when it changes no row.
func affectOne(ctx context.Context, tx query.Transaction, op string, q query.Query) error {
	res, err := query.Exec(ctx, tx, q)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// byID returns the filter selecting the row of table with the given id.
func byID(table string, id int64) query.Filter {
	return query.FilterOn(table, "id", id, query.Integer)
}

// nullText binds an empty string as NULL.
func nullText(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullDate binds the zero time as NULL and any other time as its UTC day.
func nullDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return day(t)
}

// day returns the calendar day of t at midnight UTC. Dates are stored at day precision so that they compare equal in
// filters.
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dateOf returns the stored form of t: the zero time or its day.
func dateOf(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return day(t)
}
