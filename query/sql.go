package query

import (
	"fmt"
	"strings"
)

// Query is a finished statement: SQL text with one ? placeholder per bind site and the arguments bound to those
// placeholders, left to right. A Query is only produced by [Builder.Build] and is immutable.
type Query struct {
	statement string
	args      []Argument
}

// Statement returns the SQL text of the query.
func (q Query) Statement() string { return q.statement }

// Arguments returns a copy of the arguments bound to the placeholders of the statement, in order.
func (q Query) Arguments() []Argument {
	if len(q.args) == 0 {
		return nil
	}
	return append([]Argument(nil), q.args...)
}

// Values returns the arguments converted to the values passed to the database driver. See [Argument.Bind]. The zero
// Query has no statement to bind and is rejected.
func (q Query) Values() ([]any, error) {
	if q.statement == "" {
		return nil, fmt.Errorf("empty statement: %w", ErrMissingArguments)
	}
	values := make([]any, len(q.args))
	for i, arg := range q.args {
		v, err := arg.Bind()
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		values[i] = v
	}
	return values, nil
}

// String returns the statement followed by its arguments.
func (q Query) String() string {
	if len(q.args) == 0 {
		return q.statement
	}
	args := make([]string, len(q.args))
	for i, arg := range q.args {
		args[i] = arg.String()
	}
	return q.statement + " [" + strings.Join(args, ", ") + "]"
}

// Builder assembles a single statement from a sequence of clauses. Every method returns a new Builder and leaves the
// receiver untouched, so a partially built statement may be shared and extended in different directions. The zero
// value is an empty statement ready for use.
//
// Clause text always accumulates. The bind arguments do not: each value-bearing clause replaces the arguments held by
// the builder, and the clauses that begin a statement (SELECT, FROM, DELETE) clear them. ORDER BY binds nothing and
// keeps the arguments held. A statement that binds values in two clauses, such as UPDATE ... SET a=? WHERE b=?, must
// use [Builder.WhereAfter] for the second clause.
//
// A clause that fails leaves the statement and its arguments as they were and records the error. Every later clause is
// ignored and [Builder.Build] returns the error.
type Builder struct {
	statement string
	args      []Argument
	err       error
}

// New returns an empty Builder.
func New() Builder { return Builder{} }

// Err returns the error recorded by the first failed clause.
func (b Builder) Err() error { return b.err }

// String returns the statement text built so far.
func (b Builder) String() string { return b.statement }

// Arguments returns a copy of the arguments currently held by the builder.
func (b Builder) Arguments() []Argument {
	if len(b.args) == 0 {
		return nil
	}
	return append([]Argument(nil), b.args...)
}

// Build returns the finished Query. It fails if any clause failed, if no clause was added or if the placeholders of the
// statement do not correspond to the arguments held by the builder.
func (b Builder) Build() (Query, error) {
	if b.err != nil {
		return Query{}, b.err
	}
	if b.statement == "" {
		return Query{}, fmt.Errorf("build: empty statement: %w", ErrMissingArguments)
	}
	if n := strings.Count(b.statement, "?"); n != len(b.args) {
		return Query{}, fmt.Errorf("%w: %d placeholders, %d arguments in %q", ErrPlaceholderMismatch, n, len(b.args), b.statement)
	}
	return Query{statement: b.statement, args: b.Arguments()}, nil
}

// SelectAll appends SELECT * or, when tables are given, SELECT table.* for each table.
func (b Builder) SelectAll(tables ...string) Builder {
	if b.err != nil {
		return b
	}
	if len(tables) == 0 {
		return b.clause("SELECT *", nil)
	}
	cols := make([]string, len(tables))
	for i, table := range tables {
		if err := checkIdent(table); err != nil {
			return b.fail(fmt.Errorf("select: %w", err))
		}
		cols[i] = alias(table) + ".*"
	}
	return b.clause("SELECT "+strings.Join(cols, ", "), nil)
}

// SelectAllDistinct appends SELECT DISTINCT *.
func (b Builder) SelectAllDistinct() Builder {
	if b.err != nil {
		return b
	}
	return b.clause("SELECT DISTINCT *", nil)
}

// Select appends SELECT with the given fields.
func (b Builder) Select(fields ...Field) Builder {
	return b.selectFields("SELECT ", fields)
}

// SelectDistinct appends SELECT DISTINCT with the given fields.
func (b Builder) SelectDistinct(fields ...Field) Builder {
	return b.selectFields("SELECT DISTINCT ", fields)
}

func (b Builder) selectFields(keyword string, fields []Field) Builder {
	if b.err != nil {
		return b
	}
	if len(fields) == 0 {
		return b.fail(fmt.Errorf("select: %w", ErrMissingArguments))
	}
	cols := make([]string, len(fields))
	for i, field := range fields {
		col, err := field.sql()
		if err != nil {
			return b.fail(fmt.Errorf("select: %w", err))
		}
		cols[i] = col
	}
	return b.clause(keyword+strings.Join(cols, ", "), nil)
}

// From appends FROM with each table aliased by its lower cased name, e.g. FROM Cars cars.
func (b Builder) From(tables ...string) Builder {
	if b.err != nil {
		return b
	}
	if len(tables) == 0 {
		return b.fail(fmt.Errorf("from: %w", ErrMissingArguments))
	}
	refs := make([]string, len(tables))
	for i, table := range tables {
		if err := checkIdent(table); err != nil {
			return b.fail(fmt.Errorf("from: %w", err))
		}
		refs[i] = table + " " + alias(table)
	}
	return b.clause("FROM "+strings.Join(refs, ", "), nil)
}

// Where appends a WHERE clause joining conds with AND. The arguments of the builder become those bound by the filters
// among conds, in order.
func (b Builder) Where(conds ...Condition) Builder {
	if b.err != nil {
		return b
	}
	clause, args, err := whereClause(conds)
	if err != nil {
		return b.fail(err)
	}
	return b.clause(clause, args)
}

// WhereAfter is like Where but binds the filter arguments after the arguments already held by the builder. It is the
// way to filter an UPDATE statement.
func (b Builder) WhereAfter(conds ...Condition) Builder {
	if b.err != nil {
		return b
	}
	clause, args, err := whereClause(conds)
	if err != nil {
		return b.fail(err)
	}
	all := make([]Argument, 0, len(b.args)+len(args))
	all = append(all, b.args...)
	return b.clause(clause, append(all, args...))
}

// OrderBy appends ORDER BY with the given terms. The arguments held by the builder are kept.
func (b Builder) OrderBy(orders ...Order) Builder {
	if b.err != nil {
		return b
	}
	if len(orders) == 0 {
		return b.fail(fmt.Errorf("order by: %w", ErrMissingArguments))
	}
	terms := make([]string, len(orders))
	for i, order := range orders {
		term, err := order.sql()
		if err != nil {
			return b.fail(fmt.Errorf("order by: %w", err))
		}
		terms[i] = term
	}
	return b.clause("ORDER BY "+strings.Join(terms, ", "), b.args)
}

// InsertInto appends INSERT INTO table(columns) VALUES (?, ...) and binds args in order.
func (b Builder) InsertInto(table string, args ...Argument) Builder {
	if b.err != nil {
		return b
	}
	cols, err := mutationColumns("insert", table, args)
	if err != nil {
		return b.fail(err)
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	return b.clause("INSERT INTO "+table+"("+strings.Join(cols, ", ")+") VALUES ("+marks+")", copyArgs(args))
}

// Update appends UPDATE table SET column=?, ... and binds args in order. No WHERE clause is added; follow it with
// [Builder.WhereAfter] to restrict the rows.
func (b Builder) Update(table string, args ...Argument) Builder {
	if b.err != nil {
		return b
	}
	cols, err := mutationColumns("update", table, args)
	if err != nil {
		return b.fail(err)
	}
	for i := range cols {
		cols[i] += "=?"
	}
	return b.clause("UPDATE "+table+" SET "+strings.Join(cols, ", "), copyArgs(args))
}

// DeleteFrom appends DELETE FROM table. No WHERE clause is added: without a following [Builder.Where] every row of
// the table is deleted.
func (b Builder) DeleteFrom(table string) Builder {
	if b.err != nil {
		return b
	}
	if err := checkIdent(table); err != nil {
		return b.fail(fmt.Errorf("delete: %w", err))
	}
	return b.clause("DELETE FROM "+table, nil)
}

// clause returns a Builder with fragment appended to the statement and args as its arguments.
func (b Builder) clause(fragment string, args []Argument) Builder {
	statement := fragment
	if b.statement != "" {
		statement = b.statement + " " + fragment
	}
	return Builder{statement: statement, args: args}
}

// fail returns a Builder with the statement and arguments of b and err recorded.
func (b Builder) fail(err error) Builder {
	b.err = err
	return b
}

// mutationColumns validates the table and arguments of an INSERT or UPDATE and returns the column names.
func mutationColumns(op, table string, args []Argument) ([]string, error) {
	if err := checkIdent(table); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("%s %s: %w", op, table, ErrMissingArguments)
	}
	cols := make([]string, len(args))
	for i, arg := range args {
		if err := checkIdent(arg.column); err != nil {
			return nil, fmt.Errorf("%s %s: %w", op, table, err)
		}
		if !arg.typ.Valid() {
			return nil, fmt.Errorf("%s %s.%s: %w: %v", op, table, arg.column, ErrUnknownArgumentType, arg.typ)
		}
		cols[i] = arg.column
	}
	return cols, nil
}

func copyArgs(args []Argument) []Argument {
	return append([]Argument(nil), args...)
}
