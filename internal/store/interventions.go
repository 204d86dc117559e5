package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adamkeys/garage/query"
)

const (
	tableInterventions  = "Interventions"
	tableOperations     = "Operations"
	tableOperationLines = "OperationLines"
)

// CreateIntervention records an intervention on the car identified by iv.CarID.
func (s *Store) CreateIntervention(ctx context.Context, iv Intervention) (Intervention, error) {
	if iv.Date.IsZero() {
		return Intervention{}, errors.New("create intervention: date is required")
	}
	if _, err := s.Car(ctx, iv.CarID); err != nil {
		return Intervention{}, fmt.Errorf("create intervention: %w", err)
	}
	iv.Date = day(iv.Date)
	id, err := insert(ctx, s.db, "create intervention", tableInterventions,
		query.Arg("car_id", iv.CarID, query.Integer),
		query.Arg("date", iv.Date, query.Date),
		query.Arg("mileage", iv.Mileage, query.Integer),
		query.Arg("description", nullText(iv.Description), query.Text),
	)
	if err != nil {
		return Intervention{}, err
	}
	iv.ID = id
	s.log.Info().Int64("id", id).Int64("car", iv.CarID).Msg("intervention created")
	return iv, nil
}

// Interventions returns the interventions of a car, most recent first.
func (s *Store) Interventions(ctx context.Context, carID int64) ([]Intervention, error) {
	q, err := build("list interventions", query.New().
		SelectAll(tableInterventions).
		From(tableCars, tableInterventions).
		Where(
			query.JoinOn(tableCars, "id", tableInterventions, "car_id"),
			byID(tableCars, carID),
		).
		OrderBy(query.Desc(tableInterventions, "date"), query.Desc(tableInterventions, "id")))
	if err != nil {
		return nil, err
	}
	ivs, err := query.All(ctx, s.db, q, query.Auto[interventionRow, Intervention])
	if err != nil {
		return nil, fmt.Errorf("list interventions: %w", err)
	}
	return ivs, nil
}

// InterventionsOn returns the interventions carried out on the given day.
func (s *Store) InterventionsOn(ctx context.Context, date time.Time) ([]Intervention, error) {
	q, err := build("interventions on", query.New().
		SelectAll(tableInterventions).
		From(tableInterventions).
		Where(query.FilterOn(tableInterventions, "date", day(date), query.Date)).
		OrderBy(query.Asc(tableInterventions, "id")))
	if err != nil {
		return nil, err
	}
	ivs, err := query.All(ctx, s.db, q, query.Auto[interventionRow, Intervention])
	if err != nil {
		return nil, fmt.Errorf("interventions on: %w", err)
	}
	return ivs, nil
}

// DeleteIntervention removes an intervention together with its operations.
func (s *Store) DeleteIntervention(ctx context.Context, id int64) error {
	q, err := build("delete intervention", query.New().DeleteFrom(tableInterventions).Where(byID(tableInterventions, id)))
	if err != nil {
		return err
	}
	return affectOne(ctx, s.db, "delete intervention", q)
}

// AddOperation records an operation of an intervention and the consumables it used. The operation and its lines are
// stored in a single transaction.
func (s *Store) AddOperation(ctx context.Context, interventionID int64, name string, lines []OperationLine) (op Operation, err error) {
	if name == "" {
		return Operation{}, errors.New("add operation: name is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Operation{}, fmt.Errorf("add operation: begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	id, err := insert(ctx, tx, "add operation", tableOperations,
		query.Arg("intervention_id", interventionID, query.Integer),
		query.Arg("name", name, query.Text),
	)
	if err != nil {
		return Operation{}, err
	}
	op = Operation{ID: id, InterventionID: interventionID, Name: name}

	for _, line := range lines {
		if line.Quantity <= 0 {
			line.Quantity = 1
		}
		lineID, err := insert(ctx, tx, "add operation line", tableOperationLines,
			query.Arg("operation_id", id, query.Integer),
			query.Arg("consumable_id", line.ConsumableID, query.Integer),
			query.Arg("quantity", line.Quantity, query.Integer),
		)
		if err != nil {
			return Operation{}, err
		}
		line.ID, line.OperationID = lineID, id
		op.Lines = append(op.Lines, line)
	}

	if err := tx.Commit(); err != nil {
		return Operation{}, fmt.Errorf("add operation: commit: %w", err)
	}
	s.log.Info().Int64("id", id).Int64("intervention", interventionID).Int("lines", len(op.Lines)).Msg("operation added")
	return op, nil
}

// Operations returns the operations of an intervention with their lines.
func (s *Store) Operations(ctx context.Context, interventionID int64) ([]Operation, error) {
	q, err := build("list operations", query.New().
		SelectAll().
		From(tableOperations).
		Where(query.FilterOn(tableOperations, "intervention_id", interventionID, query.Integer)).
		OrderBy(query.Asc(tableOperations, "id")))
	if err != nil {
		return nil, err
	}
	ops, err := query.All(ctx, s.db, q, query.Auto[operationRow, Operation])
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}

	for i := range ops {
		q, err := build("list operation lines", query.New().
			SelectAll().
			From(tableOperationLines).
			Where(query.FilterOn(tableOperationLines, "operation_id", ops[i].ID, query.Integer)).
			OrderBy(query.Asc(tableOperationLines, "id")))
		if err != nil {
			return nil, err
		}
		ops[i].Lines, err = query.All(ctx, s.db, q, query.Auto[operationLineRow, OperationLine])
		if err != nil {
			return nil, fmt.Errorf("list operation lines: %w", err)
		}
	}
	return ops, nil
}
