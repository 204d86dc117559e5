package store

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

// createTestStore opens a store backed by a file in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "garage.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestCar(t *testing.T, s *Store, car Car) Car {
	t.Helper()
	car, err := s.CreateCar(context.Background(), car)
	if err != nil {
		t.Fatalf("CreateCar() failed: %v", err)
	}
	return car
}

func TestOpenIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garage.db")
	for i := 0; i < 2; i++ {
		s, err := Open(path, zerolog.Nop())
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		var version int
		if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
			t.Fatal(err)
		}
		if version != currentSchemaVersion {
			t.Errorf("expected schema version %d; got: %d", currentSchemaVersion, version)
		}
		s.Close()
	}
}

func TestForeignKeysOnEveryConnection(t *testing.T) {
	s := createTestStore(t)

	// Without idle connections every statement runs on a newly opened connection.
	s.db.SetMaxIdleConns(0)
	for i := 0; i < 2; i++ {
		var enabled, timeout int
		if err := s.db.QueryRow("PRAGMA foreign_keys").Scan(&enabled); err != nil {
			t.Fatal(err)
		}
		if err := s.db.QueryRow("PRAGMA busy_timeout").Scan(&timeout); err != nil {
			t.Fatal(err)
		}
		if enabled != 1 || timeout != 5000 {
			t.Errorf("connection %d: expected foreign_keys=1 busy_timeout=5000; got: %d %d", i, enabled, timeout)
		}
	}

	ctx := context.Background()
	car := createTestCar(t, s, Car{Registration: "AB-123-CD"})
	iv, err := s.CreateIntervention(ctx, Intervention{CarID: car.ID, Date: time.Now()})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteCar(ctx, car.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteIntervention(ctx, iv.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected intervention to be deleted with its car; got: %v", err)
	}
}

func TestOpenLogsStatements(t *testing.T) {
	var buf bytes.Buffer
	s, err := Open(":memory:", zerolog.New(&buf).Level(zerolog.DebugLevel))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := s.SearchCars(context.Background(), CarFilter{Owner: "Alice"}); err != nil {
		t.Fatal(err)
	}
	const exp = `"sql":"SELECT cars.* FROM Cars cars WHERE cars.owner LIKE ? ORDER BY cars.registration ASC"`
	if !strings.Contains(buf.String(), exp) {
		t.Errorf("expected statement to be logged; got: %s", buf.String())
	}
}

func TestCars(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	registered := time.Date(2018, 5, 4, 15, 30, 0, 0, time.UTC)
	alice := createTestCar(t, s, Car{Registration: "AB-123-CD", Brand: "Peugeot", Model: "208", Owner: "Alice", Mileage: 42000, Registered: registered})
	bob := createTestCar(t, s, Car{Registration: "EF-456-GH", Brand: "Renault", Owner: "Bob", Mileage: 150000})
	createTestCar(t, s, Car{Registration: "IJ-789-KL"})

	t.Run("Get", func(t *testing.T) {
		car, err := s.Car(ctx, alice.ID)
		if err != nil {
			t.Fatalf("Car() failed: %v", err)
		}
		exp := alice
		exp.Registered = time.Date(2018, 5, 4, 0, 0, 0, 0, time.UTC)
		if diff := cmp.Diff(exp, car); diff != "" {
			t.Error(diff)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		if _, err := s.Car(ctx, 999); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound; got: %v", err)
		}
	})

	t.Run("Search", func(t *testing.T) {
		mileage := int64(150000)
		cases := []struct {
			name   string
			filter CarFilter
			exp    []string
		}{
			{"All", CarFilter{}, []string{"AB-123-CD", "EF-456-GH", "IJ-789-KL"}},
			{"RegistrationSubstring", CarFilter{Registration: "-7"}, []string{"IJ-789-KL"}},
			{"Owner", CarFilter{Owner: "ali"}, []string{"AB-123-CD"}},
			{"Brand", CarFilter{Brand: "e"}, []string{"AB-123-CD", "EF-456-GH"}},
			{"Mileage", CarFilter{Mileage: &mileage}, []string{"EF-456-GH"}},
			{"Combined", CarFilter{Brand: "Renault", Owner: "Alice"}, nil},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				cars, err := s.SearchCars(ctx, tc.filter)
				if err != nil {
					t.Fatalf("SearchCars() failed: %v", err)
				}
				var got []string
				for _, car := range cars {
					got = append(got, car.Registration)
				}
				if diff := cmp.Diff(tc.exp, got); diff != "" {
					t.Error(diff)
				}
			})
		}
	})

	t.Run("Update", func(t *testing.T) {
		bob.Owner = "Carol"
		bob.Mileage = 151000
		if err := s.UpdateCar(ctx, bob); err != nil {
			t.Fatalf("UpdateCar() failed: %v", err)
		}
		car, err := s.Car(ctx, bob.ID)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(bob, car); diff != "" {
			t.Error(diff)
		}
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		if err := s.UpdateCar(ctx, Car{ID: 999, Registration: "ZZ"}); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound; got: %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := s.DeleteCar(ctx, bob.ID); err != nil {
			t.Fatalf("DeleteCar() failed: %v", err)
		}
		if _, err := s.Car(ctx, bob.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected deleted car to be missing; got: %v", err)
		}
		if _, err := s.Car(ctx, alice.ID); err != nil {
			t.Errorf("expected other cars to remain; got: %v", err)
		}
		if err := s.DeleteCar(ctx, bob.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete; got: %v", err)
		}
	})

	t.Run("CreateRequiresRegistration", func(t *testing.T) {
		if _, err := s.CreateCar(ctx, Car{Owner: "Dan"}); err == nil {
			t.Error("expected error without registration")
		}
	})
}

func TestInterventions(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	car := createTestCar(t, s, Car{Registration: "AB-123-CD"})
	other := createTestCar(t, s, Car{Registration: "EF-456-GH"})

	first, err := s.CreateIntervention(ctx, Intervention{CarID: car.ID, Date: time.Date(2022, 1, 15, 9, 0, 0, 0, time.UTC), Mileage: 30000, Description: "oil change"})
	if err != nil {
		t.Fatalf("CreateIntervention() failed: %v", err)
	}
	second, err := s.CreateIntervention(ctx, Intervention{CarID: car.ID, Date: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), Mileage: 42000, Description: "brakes"})
	if err != nil {
		t.Fatalf("CreateIntervention() failed: %v", err)
	}
	if _, err := s.CreateIntervention(ctx, Intervention{CarID: other.ID, Date: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)}); err != nil {
		t.Fatalf("CreateIntervention() failed: %v", err)
	}

	t.Run("ListByCar", func(t *testing.T) {
		ivs, err := s.Interventions(ctx, car.ID)
		if err != nil {
			t.Fatalf("Interventions() failed: %v", err)
		}
		if diff := cmp.Diff([]Intervention{second, first}, ivs); diff != "" {
			t.Error(diff)
		}
	})

	t.Run("ListByDate", func(t *testing.T) {
		ivs, err := s.InterventionsOn(ctx, time.Date(2023, 6, 1, 18, 0, 0, 0, time.UTC))
		if err != nil {
			t.Fatalf("InterventionsOn() failed: %v", err)
		}
		if len(ivs) != 2 {
			t.Errorf("expected 2 interventions; got: %v", ivs)
		}
	})

	t.Run("UnknownCar", func(t *testing.T) {
		_, err := s.CreateIntervention(ctx, Intervention{CarID: 999, Date: time.Now()})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound; got: %v", err)
		}
	})

	t.Run("Operations", func(t *testing.T) {
		oil, err := s.CreateConsumable(ctx, Consumable{Name: "Oil 5W30", Reference: "OIL-5W30", Price: 12.5})
		if err != nil {
			t.Fatalf("CreateConsumable() failed: %v", err)
		}
		filter, err := s.CreateConsumable(ctx, Consumable{Name: "Oil filter"})
		if err != nil {
			t.Fatalf("CreateConsumable() failed: %v", err)
		}

		op, err := s.AddOperation(ctx, first.ID, "drain", []OperationLine{
			{ConsumableID: oil.ID, Quantity: 4},
			{ConsumableID: filter.ID},
		})
		if err != nil {
			t.Fatalf("AddOperation() failed: %v", err)
		}
		if len(op.Lines) != 2 || op.Lines[1].Quantity != 1 {
			t.Errorf("unexpected operation lines: %+v", op.Lines)
		}

		ops, err := s.Operations(ctx, first.ID)
		if err != nil {
			t.Fatalf("Operations() failed: %v", err)
		}
		if diff := cmp.Diff([]Operation{op}, ops); diff != "" {
			t.Error(diff)
		}
	})

	t.Run("OperationRollback", func(t *testing.T) {
		_, err := s.AddOperation(ctx, second.ID, "tyres", []OperationLine{{ConsumableID: 999}})
		if err == nil {
			t.Fatal("expected foreign key error")
		}
		ops, err := s.Operations(ctx, second.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(ops) != 0 {
			t.Errorf("expected operation to be rolled back; got: %+v", ops)
		}
	})

	t.Run("DeleteCascades", func(t *testing.T) {
		if err := s.DeleteCar(ctx, car.ID); err != nil {
			t.Fatalf("DeleteCar() failed: %v", err)
		}
		ivs, err := s.InterventionsOn(ctx, time.Date(2022, 1, 15, 0, 0, 0, 0, time.UTC))
		if err != nil {
			t.Fatal(err)
		}
		if len(ivs) != 0 {
			t.Errorf("expected interventions to be deleted with the car; got: %v", ivs)
		}
		if err := s.DeleteIntervention(ctx, first.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound; got: %v", err)
		}
	})
}

func TestConsumables(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	for _, name := range []string{"Wiper", "Brake pad", "Brake fluid"} {
		if _, err := s.CreateConsumable(ctx, Consumable{Name: name}); err != nil {
			t.Fatal(err)
		}
	}

	cs, err := s.Consumables(ctx, "brake")
	if err != nil {
		t.Fatalf("Consumables() failed: %v", err)
	}
	var names []string
	for _, c := range cs {
		names = append(names, c.Name)
	}
	if diff := cmp.Diff([]string{"Brake fluid", "Brake pad"}, names); diff != "" {
		t.Error(diff)
	}

	all, err := s.Consumables(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 consumables; got: %d", len(all))
	}

	if _, err := s.CreateConsumable(ctx, Consumable{}); err == nil {
		t.Error("expected error without name")
	}
}

func TestProperties(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	if _, err := s.Property(ctx, "logo"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound; got: %v", err)
	}

	if err := s.SetProperty(ctx, "logo", []byte{0x89, 'P', 'N', 'G'}); err != nil {
		t.Fatalf("SetProperty() failed: %v", err)
	}
	if err := s.SetProperty(ctx, "logo_small", []byte("small")); err != nil {
		t.Fatalf("SetProperty() failed: %v", err)
	}
	if err := s.SetProperty(ctx, "logo", []byte("replaced")); err != nil {
		t.Fatalf("SetProperty() failed: %v", err)
	}

	cases := map[string]string{"logo": "replaced", "logo_small": "small"}
	for key, exp := range cases {
		got, err := s.Property(ctx, key)
		if err != nil {
			t.Fatalf("Property(%q) failed: %v", key, err)
		}
		if string(got) != exp {
			t.Errorf("Property(%q): expected %q; got: %q", key, exp, got)
		}
	}

	if _, err := s.Property(ctx, "log"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected substring key to be missing; got: %v", err)
	}
}
