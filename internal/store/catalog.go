package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/adamkeys/garage/query"
)

const (
	tableConsumables = "Consumables"
	tableProperties  = "Properties"
)

// CreateConsumable stores a new consumable and returns it with its assigned ID.
func (s *Store) CreateConsumable(ctx context.Context, c Consumable) (Consumable, error) {
	if c.Name == "" {
		return Consumable{}, errors.New("create consumable: name is required")
	}
	id, err := insert(ctx, s.db, "create consumable", tableConsumables,
		query.Arg("name", c.Name, query.Text),
		query.Arg("reference", nullText(c.Reference), query.Text),
		query.Arg("price", c.Price, query.Real),
	)
	if err != nil {
		return Consumable{}, err
	}
	c.ID = id
	return c, nil
}

// Consumables returns the consumables whose name contains name, ordered by name. An empty name returns every
// consumable.
func (s *Store) Consumables(ctx context.Context, name string) ([]Consumable, error) {
	b := query.New().SelectAll().From(tableConsumables)
	if name != "" {
		b = b.Where(query.FilterOn(tableConsumables, "name", name, query.Text))
	}
	q, err := build("list consumables", b.OrderBy(query.Asc(tableConsumables, "name")))
	if err != nil {
		return nil, err
	}
	cs, err := query.All(ctx, s.db, q, query.Auto[consumableRow, Consumable])
	if err != nil {
		return nil, fmt.Errorf("list consumables: %w", err)
	}
	return cs, nil
}

// SetProperty stores value under key, replacing any previous value. The value is opaque: properties are looked up by
// key only.
func (s *Store) SetProperty(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return errors.New("set property: key is required")
	}
	rowid, err := s.propertyRowID(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		_, err = insert(ctx, s.db, "set property", tableProperties,
			query.Arg("key", key, query.Text),
			query.Arg("value", value, query.Blob),
		)
		return err
	}
	if err != nil {
		return err
	}

	// Key filters match substrings, so the row is updated by the rowid of the exact key.
	q, err := build("set property", query.New().
		Update(tableProperties, query.Arg("value", value, query.Blob)).
		WhereAfter(query.FilterOn(tableProperties, "rowid", rowid, query.Integer)))
	if err != nil {
		return err
	}
	return affectOne(ctx, s.db, "set property", q)
}

// Property returns the value stored under key.
func (s *Store) Property(ctx context.Context, key string) ([]byte, error) {
	props, err := s.properties(ctx, key)
	if err != nil {
		return nil, err
	}
	for _, p := range props {
		if p.Key == key {
			return p.Value, nil
		}
	}
	return nil, fmt.Errorf("property %q: %w", key, ErrNotFound)
}

// properties returns the properties whose key contains key.
func (s *Store) properties(ctx context.Context, key string) ([]propertyRow, error) {
	q, err := build("get property", query.New().
		SelectAll().
		From(tableProperties).
		Where(query.FilterOn(tableProperties, "key", key, query.Text)))
	if err != nil {
		return nil, err
	}
	props, err := query.All(ctx, s.db, q, query.Identity[propertyRow])
	if err != nil {
		return nil, fmt.Errorf("get property: %w", err)
	}
	return props, nil
}

func (s *Store) propertyRowID(ctx context.Context, key string) (int64, error) {
	type row struct {
		RowID int64 `q:"rowid"`
		Key   string
	}
	q, err := build("get property", query.New().
		Select(query.Col(tableProperties, "rowid"), query.Col(tableProperties, "key")).
		From(tableProperties).
		Where(query.FilterOn(tableProperties, "key", key, query.Text)))
	if err != nil {
		return 0, err
	}
	rows, err := query.All(ctx, s.db, q, query.Identity[row])
	if err != nil {
		return 0, fmt.Errorf("get property: %w", err)
	}
	for _, r := range rows {
		if r.Key == key {
			return r.RowID, nil
		}
	}
	return 0, fmt.Errorf("property %q: %w", key, sql.ErrNoRows)
}
