package query

import (
	"fmt"
	"strings"
)

// Type identifies the SQL type of an argument. It determines both how the argument's value is bound to a statement
// and which comparison is used when the argument filters a WHERE clause.
type Type int

// The SQL types known to the builder. Only Integer, Text, Date and Blob have a comparison policy; the remaining types
// may be inserted and updated but cannot be used in a filter.
const (
	Integer Type = iota + 1
	Text
	Date
	Blob
	Real
	Boolean
	Timestamp
)

var typeNames = map[Type]string{
	Integer:   "INTEGER",
	Text:      "TEXT",
	Date:      "DATE",
	Blob:      "BLOB",
	Real:      "REAL",
	Boolean:   "BOOLEAN",
	Timestamp: "TIMESTAMP",
}

// String returns the SQL name of the type.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Valid reports whether the type is a member of the catalog.
func (t Type) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// ParseType returns the type named by s. The match is case insensitive.
func ParseType(s string) (Type, error) {
	for t, name := range typeNames {
		if strings.EqualFold(name, s) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownArgumentType, s)
}

// Comparison operators rendered between a column and its placeholder.
const (
	opEquals = " = "
	opLike   = " LIKE "
	opIs     = " IS "
)

// Operator returns the comparison operator used to filter a column of type t. present reports whether the filter
// value is non-null; a null value is always compared with IS. Blob columns can never be compared and any type without
// a comparison policy is rejected.
func Operator(t Type, present bool) (string, error) {
	switch t {
	case Integer, Date:
		if present {
			return opEquals, nil
		}
		return opIs, nil
	case Text:
		if present {
			return opLike, nil
		}
		return opIs, nil
	case Blob:
		return "", fmt.Errorf("%w: search over a binary object is prohibited", ErrProhibitedComparison)
	default:
		return "", fmt.Errorf("%w: %v", ErrUnknownArgumentType, t)
	}
}

// FilterValue returns the value bound for a filter of type t. Text values are wrapped in % wildcards so that they
// match as a substring; every other comparable value is returned unchanged. Null values are never wrapped.
func FilterValue(t Type, value any) (any, error) {
	switch t {
	case Integer, Date:
		return value, nil
	case Text:
		if isNull(value) {
			return value, nil
		}
		return "%" + fmt.Sprint(deref(value)) + "%", nil
	case Blob:
		return nil, fmt.Errorf("%w: search over a binary object is prohibited", ErrProhibitedComparison)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownArgumentType, t)
	}
}

// compare applies the comparison policy for arg. Operator and FilterValue must agree on a single argument, so callers
// within the package go through compare rather than either function alone.
func compare(arg Argument) (string, Argument, error) {
	present := !isNull(arg.value)
	op, err := Operator(arg.typ, present)
	if err != nil {
		return "", Argument{}, err
	}
	value, err := FilterValue(arg.typ, arg.value)
	if err != nil {
		return "", Argument{}, err
	}
	return op, Argument{column: arg.column, value: value, typ: arg.typ}, nil
}
