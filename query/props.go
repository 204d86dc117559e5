package query

import (
	"fmt"
	"strings"
)

// Field identifies a projected column of a SELECT statement. Example:
//
//	query.Col("Cars", "registration") // SELECT cars.registration
type Field struct {
	table string
	field string
}

// Col returns the Field table.field.
func Col(table, field string) Field {
	return Field{table: table, field: field}
}

func (f Field) sql() (string, error) {
	if err := checkIdent(f.table, f.field); err != nil {
		return "", err
	}
	return alias(f.table) + "." + f.field, nil
}

// Direction is the sort direction of an ORDER BY term.
type Direction int

// The sort directions.
const (
	Ascending Direction = iota
	Descending
)

// String returns ASC or DESC.
func (d Direction) String() string {
	if d == Descending {
		return "DESC"
	}
	return "ASC"
}

// ParseDirection returns the Direction named by s, which must be ASC or DESC in any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ASC":
		return Ascending, nil
	case "DESC":
		return Descending, nil
	}
	return 0, fmt.Errorf("invalid sort direction: %q", s)
}

// Order identifies an ORDER BY term. Example:
//
//	query.Asc("Cars", "registration") // ORDER BY cars.registration ASC
type Order struct {
	table  string
	column string
	dir    Direction
}

// OrderOf returns the Order of table.column in direction dir.
func OrderOf(table, column string, dir Direction) Order {
	return Order{table: table, column: column, dir: dir}
}

// Asc returns the ascending Order of table.column.
func Asc(table, column string) Order { return OrderOf(table, column, Ascending) }

// Desc returns the descending Order of table.column.
func Desc(table, column string) Order { return OrderOf(table, column, Descending) }

func (o Order) sql() (string, error) {
	if err := checkIdent(o.table, o.column); err != nil {
		return "", err
	}
	if o.dir != Ascending && o.dir != Descending {
		return "", fmt.Errorf("%s.%s: invalid sort direction: %d", o.table, o.column, o.dir)
	}
	return alias(o.table) + "." + o.column + " " + o.dir.String(), nil
}
