package query

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

// ElementInfo provides information about the element that is the source of the name.
type ElementInfo interface {
	// Name returns a name provided by the element.
	Name() string
}

// Namer infers column names from the fields of the structures that rows are scanned into.
type Namer interface {
	// Column returns the result column name associated with the element.
	Column(info ElementInfo) string
}

// defaultNamer identifies the namer used by default when inferring column names from struct identifiers.
var defaultNamer = standardNamer{}

// standardNamer implements a namer using conventions that query considers to be the default.
type standardNamer struct{}

// Column returns the underscored element name.
func (s standardNamer) Column(info ElementInfo) string {
	return underscore(info.Name())
}

var (
	matchFirst     = regexp.MustCompile("(.)([A-Z][a-z]+)")
	matchRemaining = regexp.MustCompile("([a-z0-9])([A-Z])")
	matchIdent     = regexp.MustCompile("^[A-Za-z_][A-Za-z0-9_]*$")
)

// underscore returns the supplied string converted to snake case.
func underscore(str string) string {
	underscored := matchFirst.ReplaceAllString(str, "${1}_${2}")
	underscored = matchRemaining.ReplaceAllString(underscored, "${1}_${2}")
	return strings.ToLower(underscored)
}

// fieldInfo wraps a StructField to implement the [ElementInfo] interface.
type fieldInfo struct{ reflect.StructField }

func (n fieldInfo) Name() string { return n.StructField.Name }

// checkIdent returns ErrInvalidIdentifier for the first name that may not be written into a statement verbatim.
// Identifiers are never quoted so only plain names are accepted.
func checkIdent(names ...string) error {
	for _, name := range names {
		if !matchIdent.MatchString(name) {
			return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
		}
	}
	return nil
}

// alias returns the alias a table is given by a FROM clause.
func alias(table string) string {
	return strings.ToLower(table)
}
