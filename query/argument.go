package query

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"reflect"
)

// Errors reported while building a statement. They are wrapped with the offending column, table or type; use
// errors.Is to test for them.
var (
	// ErrProhibitedComparison is returned when a filter is requested over a binary object.
	ErrProhibitedComparison = errors.New("prohibited comparison")
	// ErrUnknownArgumentType is returned when a type has no policy for the requested operation.
	ErrUnknownArgumentType = errors.New("unknown argument type")
	// ErrMissingArguments is returned when a clause that requires at least one argument receives none.
	ErrMissingArguments = errors.New("missing arguments")
	// ErrInvalidIdentifier is returned for table, column and field names that cannot be inlined into a statement.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrPlaceholderMismatch is returned by Build when the placeholders of the statement do not line up with its
	// arguments.
	ErrPlaceholderMismatch = errors.New("placeholder mismatch")
)

// Argument is a column, value and type triple. It is immutable once constructed.
type Argument struct {
	column string
	value  any
	typ    Type
}

// Arg returns an Argument for column holding value of type typ. A nil value stands for NULL.
func Arg(column string, value any, typ Type) Argument {
	return Argument{column: column, value: value, typ: typ}
}

// Column returns the column name of the argument.
func (a Argument) Column() string { return a.column }

// Value returns the value of the argument.
func (a Argument) Value() any { return a.value }

// Type returns the SQL type of the argument.
func (a Argument) Type() Type { return a.typ }

// IsNull reports whether the argument holds NULL.
func (a Argument) IsNull() bool { return isNull(a.value) }

// String formats the argument as (column, value, TYPE).
func (a Argument) String() string {
	if a.IsNull() {
		return fmt.Sprintf("(%s, NULL, %v)", a.column, a.typ)
	}
	return fmt.Sprintf("(%s, %v, %v)", a.column, deref(a.value), a.typ)
}

// isNull reports whether v stands for NULL: a nil interface, a nil pointer or slice, or a driver.Valuer such as
// sql.NullString that yields nil.
func isNull(v any) bool {
	if v == nil {
		return true
	}
	if valuer, ok := v.(driver.Valuer); ok {
		val, err := valuer.Value()
		return err == nil && val == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// deref returns the value underneath pointers and driver.Valuer implementations.
func deref(v any) any {
	if valuer, ok := v.(driver.Valuer); ok {
		if val, err := valuer.Value(); err == nil {
			return val
		}
		return v
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}

// Equal reports whether a and b have the same column, type and value.
func (a Argument) Equal(b Argument) bool {
	return a.column == b.column && a.typ == b.typ && reflect.DeepEqual(a.value, b.value)
}
