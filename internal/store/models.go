package store

import (
	"database/sql"
	"time"
)

// Car is a vehicle maintained by the garage.
type Car struct {
	ID           int64     `json:"id"`
	Registration string    `json:"registration"`
	Brand        string    `json:"brand,omitempty"`
	Model        string    `json:"model,omitempty"`
	Owner        string    `json:"owner,omitempty"`
	Mileage      int64     `json:"mileage,omitempty"`
	Registered   time.Time `json:"registered,omitempty"`
}

// Intervention is a visit of a car to the garage.
type Intervention struct {
	ID          int64     `json:"id"`
	CarID       int64     `json:"car_id"`
	Date        time.Time `json:"date"`
	Mileage     int64     `json:"mileage,omitempty"`
	Description string    `json:"description,omitempty"`
}

// Operation is a task carried out during an intervention, along with the consumables it used.
type Operation struct {
	ID             int64           `json:"id"`
	InterventionID int64           `json:"intervention_id"`
	Name           string          `json:"name"`
	Lines          []OperationLine `json:"lines,omitempty"`
}

// OperationLine records the quantity of a consumable used by an operation.
type OperationLine struct {
	ID           int64 `json:"id"`
	OperationID  int64 `json:"operation_id"`
	ConsumableID int64 `json:"consumable_id"`
	Quantity     int64 `json:"quantity"`
}

// Consumable is a part or product that operations use.
type Consumable struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Reference string  `json:"reference,omitempty"`
	Price     float64 `json:"price,omitempty"`
}

// The row types mirror the tables and are converted to the models above with query.Auto.

type carRow struct {
	ID           int64
	Registration string
	Brand        sql.NullString
	Model        sql.NullString
	Owner        sql.NullString
	Mileage      sql.NullInt64
	Registered   sql.NullTime
}

type interventionRow struct {
	ID          int64
	CarID       int64
	Date        time.Time
	Mileage     sql.NullInt64
	Description sql.NullString
}

type operationRow struct {
	ID             int64
	InterventionID int64
	Name           string
}

type operationLineRow struct {
	ID           int64
	OperationID  int64
	ConsumableID int64
	Quantity     int64
}

type consumableRow struct {
	ID        int64
	Name      string
	Reference sql.NullString
	Price     sql.NullFloat64
}

type propertyRow struct {
	Key   string
	Value []byte
}
