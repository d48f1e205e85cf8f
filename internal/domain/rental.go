package domain

import (
	"time"

	"github.com/google/uuid"
)

type PlanTier string

const (
	PlanStandard PlanTier = "STANDARD"
	PlanPremium  PlanTier = "PREMIUM"
)

func (p PlanTier) Valid() bool {
	return p == PlanStandard || p == PlanPremium
}

type DurationClass string

const (
	DurationHourly  DurationClass = "HOURLY"
	DurationDaily   DurationClass = "DAILY"
	DurationWeekly  DurationClass = "WEEKLY"
	DurationMonthly DurationClass = "MONTHLY"
)

func (d DurationClass) Valid() bool {
	switch d {
	case DurationHourly, DurationDaily, DurationWeekly, DurationMonthly:
		return true
	}
	return false
}

type RentalStatus string

const (
	RentalStatusPending   RentalStatus = "PENDING"
	RentalStatusActive    RentalStatus = "ACTIVE"
	RentalStatusCompleted RentalStatus = "COMPLETED"
	RentalStatusCancelled RentalStatus = "CANCELLED"
)

// Terminal reports whether no further transition is allowed from s.
func (s RentalStatus) Terminal() bool {
	return s == RentalStatusCompleted || s == RentalStatusCancelled
}

// Rental is a time-bounded occupancy of one locker by one user. The locker
// is claimed before the row is created, so LockerID is always set. A rental
// created through the instant-rent path starts ACTIVE; a rental created by
// reservation conversion starts PENDING until pickup. Rows are immutable
// once COMPLETED or CANCELLED.
type Rental struct {
	ID              uuid.UUID     `json:"id"`
	UserID          string        `json:"user_id"`
	LockerID        string        `json:"locker_id"`
	LocationID      string        `json:"location_id"`
	SizeClass       SizeClass     `json:"size_class"`
	PlanTier        PlanTier      `json:"plan_tier"`
	DurationClass   DurationClass `json:"duration_class"`
	StartTime       time.Time     `json:"start_time"`
	EndTime         *time.Time    `json:"end_time,omitempty"`
	Status          RentalStatus  `json:"status"`
	TotalPriceCents *int64        `json:"total_price_cents,omitempty"`
	CreatedOn       time.Time     `json:"created_on"`
	UpdatedOn       time.Time     `json:"updated_on"`
}
