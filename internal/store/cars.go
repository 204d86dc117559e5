package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/adamkeys/garage/query"
)

const tableCars = "Cars"

// CarFilter selects cars. Text fields match as substrings; empty fields and a nil Mileage are ignored.
type CarFilter struct {
	Registration string
	Owner        string
	Brand        string
	Mileage      *int64
}

func (f CarFilter) conditions() []query.Condition {
	var conds []query.Condition
	if f.Registration != "" {
		conds = append(conds, query.FilterOn(tableCars, "registration", f.Registration, query.Text))
	}
	if f.Owner != "" {
		conds = append(conds, query.FilterOn(tableCars, "owner", f.Owner, query.Text))
	}
	if f.Brand != "" {
		conds = append(conds, query.FilterOn(tableCars, "brand", f.Brand, query.Text))
	}
	if f.Mileage != nil {
		conds = append(conds, query.FilterOn(tableCars, "mileage", *f.Mileage, query.Integer))
	}
	return conds
}

func carArgs(car Car) []query.Argument {
	return []query.Argument{
		query.Arg("registration", car.Registration, query.Text),
		query.Arg("brand", nullText(car.Brand), query.Text),
		query.Arg("model", nullText(car.Model), query.Text),
		query.Arg("owner", nullText(car.Owner), query.Text),
		query.Arg("mileage", car.Mileage, query.Integer),
		query.Arg("registered", nullDate(car.Registered), query.Date),
	}
}

// CreateCar stores a new car and returns it with its assigned ID.
func (s *Store) CreateCar(ctx context.Context, car Car) (Car, error) {
	if car.Registration == "" {
		return Car{}, errors.New("create car: registration is required")
	}
	id, err := insert(ctx, s.db, "create car", tableCars, carArgs(car)...)
	if err != nil {
		return Car{}, err
	}
	car.ID = id
	car.Registered = dateOf(car.Registered)
	s.log.Info().Int64("id", id).Str("registration", car.Registration).Msg("car created")
	return car, nil
}

// Car returns the car with the given ID.
func (s *Store) Car(ctx context.Context, id int64) (Car, error) {
	q, err := build("get car", query.New().SelectAll(tableCars).From(tableCars).Where(byID(tableCars, id)))
	if err != nil {
		return Car{}, err
	}
	car, err := query.One(ctx, s.db, q, query.Auto[carRow, Car])
	if errors.Is(err, sql.ErrNoRows) {
		return Car{}, fmt.Errorf("car %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Car{}, fmt.Errorf("get car: %w", err)
	}
	return car, nil
}

// SearchCars returns the cars matching filter ordered by registration.
func (s *Store) SearchCars(ctx context.Context, filter CarFilter) ([]Car, error) {
	b := query.New().SelectAll(tableCars).From(tableCars)
	if conds := filter.conditions(); len(conds) > 0 {
		b = b.Where(conds...)
	}
	q, err := build("search cars", b.OrderBy(query.Asc(tableCars, "registration")))
	if err != nil {
		return nil, err
	}
	cars, err := query.All(ctx, s.db, q, query.Auto[carRow, Car])
	if err != nil {
		return nil, fmt.Errorf("search cars: %w", err)
	}
	return cars, nil
}

// UpdateCar replaces every field of the car identified by car.ID.
func (s *Store) UpdateCar(ctx context.Context, car Car) error {
	q, err := build("update car", query.New().
		Update(tableCars, carArgs(car)...).
		WhereAfter(byID(tableCars, car.ID)))
	if err != nil {
		return err
	}
	if err := affectOne(ctx, s.db, "update car", q); err != nil {
		return err
	}
	s.log.Info().Int64("id", car.ID).Msg("car updated")
	return nil
}

// DeleteCar removes the car with the given ID together with its interventions.
func (s *Store) DeleteCar(ctx context.Context, id int64) error {
	q, err := build("delete car", query.New().DeleteFrom(tableCars).Where(byID(tableCars, id)))
	if err != nil {
		return err
	}
	if err := affectOne(ctx, s.db, "delete car", q); err != nil {
		return err
	}
	s.log.Info().Int64("id", id).Msg("car deleted")
	return nil
}
