package query

import (
	"context"
	"database/sql"
)

// Options identifies optional parameters that may be used when performing queries. Default struct values
// signify default behaviour.
type Options struct {
	Namer  Namer
	Logger func(query string, args []any)
}

// NameWith returns the defined Namer option or nil.
func (o *Options) NameWith() Namer {
	if o == nil {
		return nil
	}
	return o.Namer
}

// Log calls the [Options.Logger] function if defined in the [Options].
func (o *Options) Log(query string, args []any) {
	if o == nil || o.Logger == nil {
		return
	}
	o.Logger(query, args)
}

// DB identifies a query database handle that wraps [sql.DB] for use as a transaction in query operations. Its use
// is not required to use query, but adds additional features not available when using [sql.DB] or [sql.Tx] directly:
// every statement is passed to the logger before it runs and rows are scanned using the configured namer.
type DB struct {
	*sql.DB
	*Options
}

// Open opens a new database connection using the supplied options.
func Open(driverName, dataSource string, options *Options) (*DB, error) {
	db, err := sql.Open(driverName, dataSource)
	return &DB{DB: db, Options: options}, err
}

// QueryContext logs and runs a statement that returns rows.
func (d DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	d.Log(query, args)
	return d.DB.QueryContext(ctx, query, args...)
}

// QueryRowContext logs and runs a statement that returns at most one row.
func (d DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	d.Log(query, args)
	return d.DB.QueryRowContext(ctx, query, args...)
}

// ExecContext logs and runs a statement that returns no rows.
func (d DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	d.Log(query, args)
	return d.DB.ExecContext(ctx, query, args...)
}

// Begin returns a new transaction with options using [sql.Begin].
func (d DB) Begin() (*Tx, error) {
	return d.BeginTx(context.Background(), nil)
}

// BeginTx returns a new transaction with options using [sql.BeginTx].
func (d DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	tx, err := d.DB.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{Tx: tx, Options: d.Options}, nil
}

// Tx identifies a transaction that also provides query options.
type Tx struct {
	*sql.Tx
	*Options
}

// QueryContext logs and runs a statement that returns rows within the transaction.
func (t Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	t.Log(query, args)
	return t.Tx.QueryContext(ctx, query, args...)
}

// QueryRowContext logs and runs a statement that returns at most one row within the transaction.
func (t Tx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	t.Log(query, args)
	return t.Tx.QueryRowContext(ctx, query, args...)
}

// ExecContext logs and runs a statement that returns no rows within the transaction.
func (t Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	t.Log(query, args)
	return t.Tx.ExecContext(ctx, query, args...)
}
