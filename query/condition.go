package query

import (
	"fmt"
	"strings"
)

// Condition is a single comparison of a WHERE clause. The set of conditions is closed: it is implemented by [Filter],
// which compares a column with a bound value, and [Join], which compares two columns.
type Condition interface {
	// Clause returns the SQL text of the condition.
	Clause() (string, error)

	// compile returns the SQL text of the condition and the argument bound to its placeholder, if any.
	compile() (string, []Argument, error)
}

// Filter compares table.column with a value bound to a placeholder. The operator and the bound value follow the
// comparison policy of the argument's type: see [Operator] and [FilterValue].
type Filter struct {
	table string
	arg   Argument
}

// FilterOn returns a Filter of table.column against value of type typ.
func FilterOn(table, column string, value any, typ Type) Filter {
	return Filter{table: table, arg: Arg(column, value, typ)}
}

// FilterArg returns a Filter of table against an existing argument.
func FilterArg(table string, arg Argument) Filter {
	return Filter{table: table, arg: arg}
}

// Table returns the filtered table.
func (f Filter) Table() string { return f.table }

// Argument returns the argument as it was supplied, before the comparison policy transforms its value.
func (f Filter) Argument() Argument { return f.arg }

// Clause returns "table.column <op> ?" with the table lower cased.
func (f Filter) Clause() (string, error) {
	clause, _, err := f.compile()
	return clause, err
}

func (f Filter) compile() (string, []Argument, error) {
	if err := checkIdent(f.table, f.arg.column); err != nil {
		return "", nil, err
	}
	op, bound, err := compare(f.arg)
	if err != nil {
		return "", nil, fmt.Errorf("%s.%s: %w", f.table, f.arg.column, err)
	}
	return alias(f.table) + "." + f.arg.column + op + "?", []Argument{bound}, nil
}

// Join compares a column of one table with a column of another. It binds no value.
type Join struct {
	tableFrom  string
	columnFrom string
	tableTo    string
	columnTo   string
}

// JoinOn returns a Join of tableFrom.columnFrom with tableTo.columnTo.
func JoinOn(tableFrom, columnFrom, tableTo, columnTo string) Join {
	return Join{tableFrom: tableFrom, columnFrom: columnFrom, tableTo: tableTo, columnTo: columnTo}
}

// Clause returns "from.column = to.column" with both tables lower cased.
func (j Join) Clause() (string, error) {
	clause, _, err := j.compile()
	return clause, err
}

func (j Join) compile() (string, []Argument, error) {
	if err := checkIdent(j.tableFrom, j.columnFrom, j.tableTo, j.columnTo); err != nil {
		return "", nil, err
	}
	return alias(j.tableFrom) + "." + j.columnFrom + opEquals + alias(j.tableTo) + "." + j.columnTo, nil, nil
}

// whereClause renders conds joined by AND and returns the arguments bound by the filters, in order.
func whereClause(conds []Condition) (string, []Argument, error) {
	if len(conds) == 0 {
		return "", nil, fmt.Errorf("where: %w", ErrMissingArguments)
	}

	var (
		clause strings.Builder
		args   []Argument
	)
	clause.WriteString("WHERE ")
	for i, cond := range conds {
		if cond == nil {
			return "", nil, fmt.Errorf("where: condition %d: %w", i, ErrMissingArguments)
		}
		text, bound, err := cond.compile()
		if err != nil {
			return "", nil, fmt.Errorf("where: %w", err)
		}
		if i > 0 {
			clause.WriteString(" AND ")
		}
		clause.WriteString(text)
		args = append(args, bound...)
	}
	return clause.String(), args, nil
}
