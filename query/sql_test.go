package query_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/adamkeys/garage/query"
	"github.com/google/go-cmp/cmp"
)

func TestBuilder(t *testing.T) {
	cases := []struct {
		name    string
		builder query.Builder
		exp     string
		args    []query.Argument
	}{
		{
			name:    "SelectAll",
			builder: query.New().SelectAll().From("Cars"),
			exp:     "SELECT * FROM Cars cars",
		},
		{
			name:    "SelectAllTables",
			builder: query.New().SelectAll("Cars", "Interventions").From("Cars", "Interventions"),
			exp:     "SELECT cars.*, interventions.* FROM Cars cars, Interventions interventions",
		},
		{
			name:    "SelectAllDistinct",
			builder: query.New().SelectAllDistinct().From("Cars"),
			exp:     "SELECT DISTINCT * FROM Cars cars",
		},
		{
			name:    "Select",
			builder: query.New().Select(query.Col("Cars", "registration"), query.Col("Cars", "owner")).From("Cars"),
			exp:     "SELECT cars.registration, cars.owner FROM Cars cars",
		},
		{
			name:    "SelectDistinct",
			builder: query.New().SelectDistinct(query.Col("Cars", "brand")).From("Cars"),
			exp:     "SELECT DISTINCT cars.brand FROM Cars cars",
		},
		{
			name: "WhereFilter",
			builder: query.New().SelectAll("Cars").From("Cars").
				Where(query.FilterOn("Cars", "registration", "AB-123", query.Text)),
			exp:  "SELECT cars.* FROM Cars cars WHERE cars.registration LIKE ?",
			args: []query.Argument{query.Arg("registration", "%AB-123%", query.Text)},
		},
		{
			name: "WhereJoinAndFilters",
			builder: query.New().SelectAll("Interventions").From("Cars", "Interventions").
				Where(
					query.FilterOn("Cars", "owner", "Alice", query.Text),
					query.JoinOn("Cars", "id", "Interventions", "car_id"),
					query.FilterOn("Interventions", "mileage", 1000, query.Integer),
				),
			exp: "SELECT interventions.* FROM Cars cars, Interventions interventions " +
				"WHERE cars.owner LIKE ? AND cars.id = interventions.car_id AND interventions.mileage = ?",
			args: []query.Argument{
				query.Arg("owner", "%Alice%", query.Text),
				query.Arg("mileage", 1000, query.Integer),
			},
		},
		{
			name: "WhereNull",
			builder: query.New().SelectAll().From("Cars").
				Where(query.FilterOn("Cars", "owner", nil, query.Text)),
			exp:  "SELECT * FROM Cars cars WHERE cars.owner IS ?",
			args: []query.Argument{query.Arg("owner", nil, query.Text)},
		},
		{
			name: "OrderBy",
			builder: query.New().SelectAll("Cars").From("Cars").
				OrderBy(query.OrderOf("Cars", "registration", query.Ascending)),
			exp: "SELECT cars.* FROM Cars cars ORDER BY cars.registration ASC",
		},
		{
			name: "WhereOrderBy",
			builder: query.New().SelectAll("Cars").From("Cars").
				Where(query.FilterOn("Cars", "mileage", 10, query.Integer)).
				OrderBy(query.Desc("Cars", "mileage"), query.Asc("Cars", "registration")),
			exp:  "SELECT cars.* FROM Cars cars WHERE cars.mileage = ? ORDER BY cars.mileage DESC, cars.registration ASC",
			args: []query.Argument{query.Arg("mileage", 10, query.Integer)},
		},
		{
			name:    "Insert",
			builder: query.New().InsertInto("Cars", query.Arg("owner", "Alice", query.Text)),
			exp:     "INSERT INTO Cars(owner) VALUES (?)",
			args:    []query.Argument{query.Arg("owner", "Alice", query.Text)},
		},
		{
			name: "InsertBlob",
			builder: query.New().InsertInto("Properties",
				query.Arg("key", "logo", query.Text),
				query.Arg("value", []byte{1, 2, 3}, query.Blob),
			),
			exp: "INSERT INTO Properties(key, value) VALUES (?, ?)",
			args: []query.Argument{
				query.Arg("key", "logo", query.Text),
				query.Arg("value", []byte{1, 2, 3}, query.Blob),
			},
		},
		{
			name: "Update",
			builder: query.New().Update("Cars",
				query.Arg("owner", "Bob", query.Text),
				query.Arg("mileage", 2000, query.Integer),
			),
			exp: "UPDATE Cars SET owner=?, mileage=?",
			args: []query.Argument{
				query.Arg("owner", "Bob", query.Text),
				query.Arg("mileage", 2000, query.Integer),
			},
		},
		{
			name: "UpdateWhereAfter",
			builder: query.New().Update("Cars", query.Arg("owner", "Bob", query.Text)).
				WhereAfter(query.FilterOn("Cars", "id", 7, query.Integer)),
			exp: "UPDATE Cars SET owner=? WHERE cars.id = ?",
			args: []query.Argument{
				query.Arg("owner", "Bob", query.Text),
				query.Arg("id", 7, query.Integer),
			},
		},
		{
			name:    "Delete",
			builder: query.New().DeleteFrom("Cars"),
			exp:     "DELETE FROM Cars",
		},
		{
			name: "DeleteWhere",
			builder: query.New().DeleteFrom("Cars").
				Where(query.FilterOn("Cars", "id", 3, query.Integer)),
			exp:  "DELETE FROM Cars WHERE cars.id = ?",
			args: []query.Argument{query.Arg("id", 3, query.Integer)},
		},
		{
			name:    "ZeroValue",
			builder: query.Builder{}.SelectAll().From("Cars"),
			exp:     "SELECT * FROM Cars cars",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := tc.builder.Build()
			if err != nil {
				t.Fatalf("failed to build: %v", err)
			}
			if q.Statement() != tc.exp {
				t.Errorf("expected statement to be: %q; got: %q", tc.exp, q.Statement())
			}
			if diff := cmp.Diff(tc.args, q.Arguments()); diff != "" {
				t.Error(diff)
			}
			if n := strings.Count(q.Statement(), "?"); n != len(q.Arguments()) {
				t.Errorf("expected %d placeholders; got: %d", len(q.Arguments()), n)
			}
		})
	}
}

func TestBuilderArgumentsReplaced(t *testing.T) {
	b := query.New().SelectAll().From("Cars").
		Where(query.FilterOn("Cars", "owner", "Alice", query.Text))
	if n := len(b.Arguments()); n != 1 {
		t.Fatalf("expected one argument; got: %d", n)
	}

	ordered := b.OrderBy(query.Asc("Cars", "owner"))
	if diff := cmp.Diff(b.Arguments(), ordered.Arguments()); diff != "" {
		t.Errorf("expected ORDER BY to keep arguments: %s", diff)
	}
	q, err := ordered.Build()
	if err != nil {
		t.Fatalf("failed to build: %v", err)
	}
	exp := []query.Argument{query.Arg("owner", "%Alice%", query.Text)}
	if diff := cmp.Diff(exp, q.Arguments()); diff != "" {
		t.Error(diff)
	}

	// A second value-bearing stage replaces the arguments of the first.
	b = b.Where(query.FilterOn("Cars", "mileage", 5, query.Integer))
	exp = []query.Argument{query.Arg("mileage", 5, query.Integer)}
	if diff := cmp.Diff(exp, b.Arguments()); diff != "" {
		t.Error(diff)
	}
	if _, err := b.Build(); !errors.Is(err, query.ErrPlaceholderMismatch) {
		t.Errorf("expected placeholder mismatch; got: %v", err)
	}

	// Starting a new statement clears them.
	if args := b.SelectAll().Arguments(); args != nil {
		t.Errorf("expected SELECT to clear arguments; got: %v", args)
	}
}

func TestBuilderEmpty(t *testing.T) {
	for name, b := range map[string]query.Builder{"New": query.New(), "Zero": {}} {
		t.Run(name, func(t *testing.T) {
			q, err := b.Build()
			if !errors.Is(err, query.ErrMissingArguments) {
				t.Errorf("expected ErrMissingArguments; got: %v", err)
			}
			if q.Statement() != "" {
				t.Errorf("expected no statement; got: %q", q.Statement())
			}
		})
	}
}

func TestBuilderUpdateWhereMismatch(t *testing.T) {
	_, err := query.New().
		Update("Cars", query.Arg("owner", "Bob", query.Text)).
		Where(query.FilterOn("Cars", "id", 7, query.Integer)).
		Build()
	if !errors.Is(err, query.ErrPlaceholderMismatch) {
		t.Errorf("expected placeholder mismatch; got: %v", err)
	}
}

func TestBuilderJoinOnlyWhere(t *testing.T) {
	q, err := query.New().SelectAll().From("Cars", "Interventions").
		Where(query.JoinOn("Cars", "id", "Interventions", "car_id")).
		Build()
	if err != nil {
		t.Fatalf("failed to build: %v", err)
	}
	if args := q.Arguments(); len(args) != 0 {
		t.Errorf("expected no arguments; got: %v", args)
	}
}

func TestBuilderFailure(t *testing.T) {
	cases := []struct {
		name string
		fn   func(query.Builder) query.Builder
		exp  error
	}{
		{"WhereBlob", func(b query.Builder) query.Builder {
			return b.Where(query.FilterOn("Properties", "value", []byte("x"), query.Blob))
		}, query.ErrProhibitedComparison},
		{"WhereUnknown", func(b query.Builder) query.Builder {
			return b.Where(query.FilterOn("Cars", "price", 1.5, query.Real))
		}, query.ErrUnknownArgumentType},
		{"WhereEmpty", func(b query.Builder) query.Builder {
			return b.Where()
		}, query.ErrMissingArguments},
		{"WhereNil", func(b query.Builder) query.Builder {
			return b.Where(nil)
		}, query.ErrMissingArguments},
		{"WhereAfterBlob", func(b query.Builder) query.Builder {
			return b.WhereAfter(query.FilterOn("Cars", "id", 1, query.Integer), query.FilterOn("Properties", "value", nil, query.Blob))
		}, query.ErrProhibitedComparison},
		{"InsertEmpty", func(b query.Builder) query.Builder {
			return b.InsertInto("Cars")
		}, query.ErrMissingArguments},
		{"InsertUnknownType", func(b query.Builder) query.Builder {
			return b.InsertInto("Cars", query.Arg("owner", "x", query.Type(0)))
		}, query.ErrUnknownArgumentType},
		{"InsertBadColumn", func(b query.Builder) query.Builder {
			return b.InsertInto("Cars", query.Arg("owner) VALUES ('x'); --", "x", query.Text))
		}, query.ErrInvalidIdentifier},
		{"UpdateEmpty", func(b query.Builder) query.Builder {
			return b.Update("Cars")
		}, query.ErrMissingArguments},
		{"UpdateBadTable", func(b query.Builder) query.Builder {
			return b.Update("", query.Arg("owner", "x", query.Text))
		}, query.ErrInvalidIdentifier},
		{"SelectEmpty", func(b query.Builder) query.Builder {
			return b.Select()
		}, query.ErrMissingArguments},
		{"SelectAllBadTable", func(b query.Builder) query.Builder {
			return b.SelectAll("Cars.*")
		}, query.ErrInvalidIdentifier},
		{"FromEmpty", func(b query.Builder) query.Builder {
			return b.From()
		}, query.ErrMissingArguments},
		{"OrderByEmpty", func(b query.Builder) query.Builder {
			return b.OrderBy()
		}, query.ErrMissingArguments},
		{"DeleteBadTable", func(b query.Builder) query.Builder {
			return b.DeleteFrom("Cars WHERE 1=1")
		}, query.ErrInvalidIdentifier},
	}

	base := query.New().SelectAll("Cars").From("Cars").
		Where(query.FilterOn("Cars", "owner", "Alice", query.Text))
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := tc.fn(base)
			if !errors.Is(b.Err(), tc.exp) {
				t.Fatalf("expected error %v; got: %v", tc.exp, b.Err())
			}
			if b.String() != base.String() {
				t.Errorf("expected statement to be unchanged: %q; got: %q", base.String(), b.String())
			}
			if diff := cmp.Diff(base.Arguments(), b.Arguments()); diff != "" {
				t.Error(diff)
			}

			// Later clauses are ignored and Build reports the first error.
			b = b.OrderBy(query.Asc("Cars", "owner"))
			if b.String() != base.String() {
				t.Errorf("expected clause after failure to be ignored; got: %q", b.String())
			}
			if _, err := b.Build(); !errors.Is(err, tc.exp) {
				t.Errorf("expected build error %v; got: %v", tc.exp, err)
			}
		})
	}

	if base.Err() != nil {
		t.Errorf("expected base builder to be unaffected; got: %v", base.Err())
	}
}

func TestBuilderBranches(t *testing.T) {
	base := query.New().SelectAll("Cars").From("Cars")
	byOwner, err := base.Where(query.FilterOn("Cars", "owner", "Alice", query.Text)).Build()
	if err != nil {
		t.Fatal(err)
	}
	byMileage, err := base.Where(query.FilterOn("Cars", "mileage", 5, query.Integer)).Build()
	if err != nil {
		t.Fatal(err)
	}
	if byOwner.Statement() == byMileage.Statement() {
		t.Error("expected branches to produce different statements")
	}
	if base.String() != "SELECT cars.* FROM Cars cars" {
		t.Errorf("expected base to be unchanged; got: %q", base.String())
	}
}

func TestBuilderNoInlinedValues(t *testing.T) {
	const dangerous = "'; DROP TABLE Cars; --"
	q, err := query.New().SelectAll().From("Cars").
		Where(query.FilterOn("Cars", "owner", dangerous, query.Text)).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(q.Statement(), dangerous) {
		t.Errorf("value was inlined into the statement: %q", q.Statement())
	}
}

func TestQueryArgumentsCopy(t *testing.T) {
	q, err := query.New().InsertInto("Cars", query.Arg("owner", "Alice", query.Text)).Build()
	if err != nil {
		t.Fatal(err)
	}
	args := q.Arguments()
	args[0] = query.Arg("owner", "Mallory", query.Text)
	if diff := cmp.Diff([]query.Argument{query.Arg("owner", "Alice", query.Text)}, q.Arguments()); diff != "" {
		t.Error(diff)
	}
}

func TestQueryString(t *testing.T) {
	q, err := query.New().Update("Cars", query.Arg("owner", nil, query.Text)).
		WhereAfter(query.FilterOn("Cars", "id", 4, query.Integer)).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	const exp = "UPDATE Cars SET owner=? WHERE cars.id = ? [(owner, NULL, TEXT), (id, 4, INTEGER)]"
	if s := q.String(); s != exp {
		t.Errorf("expected string to be: %q; got: %q", exp, s)
	}
}

func TestParseDirection(t *testing.T) {
	for in, exp := range map[string]query.Direction{"ASC": query.Ascending, "desc": query.Descending, " Asc ": query.Ascending} {
		dir, err := query.ParseDirection(in)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", in, err)
		}
		if dir != exp {
			t.Errorf("%q: expected %v; got: %v", in, exp, dir)
		}
	}
	if _, err := query.ParseDirection("UP"); err == nil {
		t.Error("expected error for invalid direction")
	}
}
