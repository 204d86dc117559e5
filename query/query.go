// Package query builds parameterized SQL statements from typed arguments and runs them.
//
// Statements are assembled with a [Builder]. Values never appear in the statement text: every value is bound to a ?
// placeholder and carried, in placeholder order, by the resulting [Query]. The type of each argument decides how it
// is compared when it filters a WHERE clause. Example:
//
//	q, err := query.New().
//		SelectAll("Cars").
//		From("Cars").
//		Where(query.FilterOn("Cars", "registration", "AB-123", query.Text)).
//		OrderBy(query.Asc("Cars", "registration")).
//		Build()
//	// q.Statement(): SELECT cars.* FROM Cars cars WHERE cars.registration LIKE ? ORDER BY cars.registration ASC
//	// q.Arguments(): [(registration, %AB-123%, TEXT)]
//
// A finished Query is run with [Exec], [All] or [One] against any [Transaction], such as [sql.DB], [sql.Tx] or the
// logging wrappers [DB] and [Tx].
package query

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"
)

// Transaction identifies a queriable database handle. This will most likley be a [sql.DB] or [sql.Tx].
type Transaction interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Exec runs a statement that returns no rows, typically an INSERT, UPDATE or DELETE.
func Exec(ctx context.Context, tx Transaction, q Query) (sql.Result, error) {
	args, err := q.Values()
	if err != nil {
		return nil, fmt.Errorf("bind: %w", err)
	}
	res, err := tx.ExecContext(ctx, q.Statement(), args...)
	if err != nil {
		return nil, fmt.Errorf("exec: %w", err)
	}
	return res, nil
}

// All returns a collection of results from the database for the SELECT statement q. Each row is scanned into the
// Source type and transformed to the desired Destination type using the supplied transform function. The caller may
// use the [Identity] function if the caller wishes for Source and Destination to be equal.
//
// Source must be a struct. Each result column is scanned into the field whose `q` struct tag names it or, without a
// tag, the field whose name the [Namer] maps to the column. Column names are compared case insensitively and columns
// without a matching field are discarded. Example:
//
//	type carRow struct {
//		ID           int64          `q:"id"`
//		Registration string         `q:"registration"`
//		Owner        sql.NullString // owner
//	}
//
// The caller should note that the Source value is reused on each row iteration and should take care to ensure that
// values are copied in the transform function.
func All[Source, Destination any](ctx context.Context, tx Transaction, q Query, transform Transform[Source, Destination]) ([]Destination, error) {
	var results []Destination
	err := scan(ctx, tx, q, func(src Source) bool {
		results = append(results, transform(src))
		return true
	})
	return results, err
}

// One is like [All] but returns only the first result of the query. [sql.ErrNoRows] is returned when the query
// produces no rows.
func One[Source, Destination any](ctx context.Context, tx Transaction, q Query, transform Transform[Source, Destination]) (Destination, error) {
	var (
		result Destination
		found  bool
	)
	err := scan(ctx, tx, q, func(src Source) bool {
		result, found = transform(src), true
		return false
	})
	if err == nil && !found {
		err = sql.ErrNoRows
	}
	return result, err
}

// scan runs q and calls fn with each row until fn returns false.
func scan[Source any](ctx context.Context, tx Transaction, q Query, fn func(Source) bool) error {
	args, err := q.Values()
	if err != nil {
		return fmt.Errorf("bind: %w", err)
	}
	rows, err := tx.QueryContext(ctx, q.Statement(), args...)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("columns: %w", err)
	}
	var src Source
	bindings, err := prepare(&src, cols, namerOf(tx))
	if err != nil {
		return err
	}

	var zero Source
	for rows.Next() {
		src = zero
		if err := rows.Scan(bindings...); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		if !fn(src) {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows: %w", err)
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

// namerOf returns the Namer configured on tx or the default namer.
func namerOf(tx Transaction) Namer {
	if o, ok := tx.(interface{ NameWith() Namer }); ok {
		if n := o.NameWith(); n != nil {
			return n
		}
	}
	return defaultNamer
}

// prepare returns the destination bindings, suitable for use by [sql.Rows.Scan], for each of the columns.
func prepare(src any, cols []string, namer Namer) ([]any, error) {
	val := reflect.ValueOf(src).Elem()
	typ := val.Type()
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("prepare: %s is not a struct", typ)
	}

	fields := make(map[string]int, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		fld := typ.Field(i)
		if !fld.IsExported() {
			continue
		}
		name := fld.Tag.Get("q")
		if name == "-" {
			continue
		}
		if name == "" {
			name = namer.Column(fieldInfo{fld})
		}
		fields[strings.ToLower(name)] = i
	}

	bindings := make([]any, len(cols))
	for i, col := range cols {
		idx, ok := fields[strings.ToLower(col)]
		if !ok {
			bindings[i] = new(any)
			continue
		}
		bindings[i] = val.Field(idx).Addr().Interface()
	}
	return bindings, nil
}
