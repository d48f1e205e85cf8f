// Package domain holds the core entities and the shared error taxonomy.
// Statuses are stored as their string form; every transition between them
// is a guarded conditional update, never an unconditional write.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type SizeClass string

const (
	SizeSmall  SizeClass = "SMALL"
	SizeMedium SizeClass = "MEDIUM"
	SizeLarge  SizeClass = "LARGE"
)

// SizeClasses lists every size in display order.
var SizeClasses = []SizeClass{SizeSmall, SizeMedium, SizeLarge}

func (s SizeClass) Valid() bool {
	switch s {
	case SizeSmall, SizeMedium, SizeLarge:
		return true
	}
	return false
}

type LockerStatus string

const (
	LockerStatusAvailable   LockerStatus = "AVAILABLE"
	LockerStatusOccupied    LockerStatus = "OCCUPIED"
	LockerStatusReserved    LockerStatus = "RESERVED"
	LockerStatusMaintenance LockerStatus = "MAINTENANCE"
)

// Locker is one physical unit at a location. IDs are operator-assigned
// labels, not generated.
type Locker struct {
	ID              string       `json:"id"`
	LocationID      string       `json:"location_id"`
	SizeClass       SizeClass    `json:"size_class"`
	Status          LockerStatus `json:"status"`
	CurrentRentalID *uuid.UUID   `json:"current_rental_id,omitempty"`
	CreatedOn       time.Time    `json:"created_on"`
	UpdatedOn       time.Time    `json:"updated_on"`
}

// AvailableCount is one row of the per-(location, size) availability census.
type AvailableCount struct {
	LocationID string    `json:"location_id"`
	SizeClass  SizeClass `json:"size_class"`
	Count      int64     `json:"count"`
}
