package query

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"time"
)

// ErrBindType is returned when an argument's value cannot be bound as its declared type.
var ErrBindType = errors.New("value does not match argument type")

var timeType = reflect.TypeOf(time.Time{})

// Bind returns the value handed to the database driver for the argument. NULL binds as nil. Otherwise the value is
// converted according to the argument type:
//
//	INTEGER          int64   (any integer kind)
//	REAL             float64 (any integer or float kind)
//	TEXT             string  (any string kind)
//	BOOLEAN          bool
//	DATE, TIMESTAMP  time.Time
//	BLOB             []byte
func (a Argument) Bind() (any, error) {
	if a.IsNull() {
		return nil, nil
	}
	rv := reflect.ValueOf(deref(a.value))
	switch a.typ {
	case Integer:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return rv.Int(), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if rv.Uint() > math.MaxInt64 {
				return nil, fmt.Errorf("%s: %w: %d overflows INTEGER", a.column, ErrBindType, rv.Uint())
			}
			return int64(rv.Uint()), nil
		}
	case Real:
		switch rv.Kind() {
		case reflect.Float32, reflect.Float64:
			return rv.Float(), nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return float64(rv.Int()), nil
		}
	case Text:
		if rv.Kind() == reflect.String {
			return rv.String(), nil
		}
	case Boolean:
		if rv.Kind() == reflect.Bool {
			return rv.Bool(), nil
		}
	case Date, Timestamp:
		if rv.Type().ConvertibleTo(timeType) {
			return rv.Convert(timeType).Interface(), nil
		}
	case Blob:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			return rv.Bytes(), nil
		}
		if rv.Kind() == reflect.String {
			return []byte(rv.String()), nil
		}
	default:
		return nil, fmt.Errorf("%s: %w: %v", a.column, ErrUnknownArgumentType, a.typ)
	}
	return nil, fmt.Errorf("%s: %w: %T as %v", a.column, ErrBindType, a.value, a.typ)
}
