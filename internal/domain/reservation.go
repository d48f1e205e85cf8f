package domain

import (
	"time"

	"github.com/google/uuid"
)

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "PENDING"
	ReservationStatusConfirmed ReservationStatus = "CONFIRMED"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
	ReservationStatusConverted ReservationStatus = "CONVERTED"
	ReservationStatusExpired   ReservationStatus = "EXPIRED"
)

// DateLayout is the calendar-date format used for reservation dates.
const DateLayout = "2006-01-02"

// Reservation holds capacity for a future date. It reserves one unit of
// (location, size) capacity per requested date, not a specific locker; a
// concrete unit is bound only at conversion time. PENDING and CONFIRMED
// reservations both count against provisioned capacity.
type Reservation struct {
	ID              uuid.UUID         `json:"id"`
	UserID          string            `json:"user_id"`
	LocationID      string            `json:"location_id"`
	SizeClass       SizeClass         `json:"size_class"`
	Dates           []string          `json:"dates"`
	Status          ReservationStatus `json:"status"`
	ConvertedRental *uuid.UUID        `json:"converted_rental_id,omitempty"`
	CreatedOn       time.Time         `json:"created_on"`
	UpdatedOn       time.Time         `json:"updated_on"`
}

// FirstDate returns the earliest requested date, or "" for an empty set.
// Dates are kept sorted ascending by the repository.
func (r *Reservation) FirstDate() string {
	if len(r.Dates) == 0 {
		return ""
	}
	return r.Dates[0]
}

// LastDate returns the latest requested date, or "" for an empty set.
func (r *Reservation) LastDate() string {
	if len(r.Dates) == 0 {
		return ""
	}
	return r.Dates[len(r.Dates)-1]
}

// HasDate reports whether the reservation covers the given yyyy-mm-dd date.
func (r *Reservation) HasDate(date string) bool {
	for _, d := range r.Dates {
		if d == date {
			return true
		}
	}
	return false
}
