package query

import (
	"database/sql/driver"
	"reflect"
	"time"
)

// Transform identifies a transformation function used to transform results from a row to an application
// model structure. Source is the structure prepared from the database row and Destination is the
// transformed output.
type Transform[Source, Destination any] func(Source) Destination

// The Identity function is a [Transform] function that returns the original value. This function can be used as the
// transform when the caller wishes to receive the source value.
func Identity[Source any](src Source) Source { return src }

// The Auto function is a [Transform] function that attempts to automatically convert from the source type to the
// destination type based on similarities between types. Fields are matched by name. Nullable source fields such as
// [sql.NullString] are copied into plain destination fields, leaving the zero value for NULL.
func Auto[Source, Destination any](src Source) Destination {
	var dst Destination
	transformAuto(reflect.ValueOf(src), reflect.ValueOf(&dst).Elem())
	return dst
}

var (
	valuerType = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
	autoTime   = reflect.TypeOf(time.Time{})
)

// transformAuto performs the automatic transformation. sval is the reflect value of the source variable and dval
// is the reflect value of the destination variable. The destination value must be settable.
func transformAuto(sval reflect.Value, dval reflect.Value) {
	styp := sval.Type()
	dtyp := dval.Type()
	if sval.Kind() != reflect.Struct || dval.Kind() != reflect.Struct {
		panic("source and destination must be struct types")
	}

	for i := 0; i < styp.NumField(); i++ {
		sf := styp.Field(i)
		if !sf.IsExported() {
			continue
		}
		df, ok := dtyp.FieldByName(sf.Name)
		if !ok || !df.IsExported() {
			continue
		}
		dfield := dval.FieldByIndex(df.Index)
		sfield := sval.Field(i)
		switch {
		case df.Type == sf.Type:
			dfield.Set(sfield)
		case sf.Type.Implements(valuerType) && (df.Type.Kind() != reflect.Struct || df.Type == autoTime):
			copyValuer(sfield, dfield)
		case df.Type.Kind() == reflect.Struct && sf.Type.Kind() == reflect.Struct:
			transformAuto(sfield, dfield)
		case sf.Type.ConvertibleTo(df.Type) && sf.Type.Kind() == df.Type.Kind():
			dfield.Set(sfield.Convert(df.Type))
		}
	}
}

// copyValuer copies the driver value of a nullable source field into dval when the types are compatible.
func copyValuer(sval reflect.Value, dval reflect.Value) {
	valuer, ok := sval.Interface().(driver.Valuer)
	if !ok {
		return
	}
	v, err := valuer.Value()
	if err != nil || v == nil {
		return
	}
	rv := reflect.ValueOf(v)
	if compatible(rv.Kind(), dval.Kind()) && rv.Type().ConvertibleTo(dval.Type()) {
		dval.Set(rv.Convert(dval.Type()))
	}
}

// compatible reports whether a driver value of kind src may be converted to kind dst without changing its meaning.
func compatible(src, dst reflect.Kind) bool {
	if src == dst {
		return true
	}
	return numeric(src) && numeric(dst)
}

func numeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
