// Package pricing computes rental prices. Every function is pure: the same
// inputs always produce the same price, which keeps charges auditable and
// testable without a clock.
package pricing

import (
	"fmt"
	"math"

	"lockerhub-backend/internal/domain"
)

type rateKey struct {
	size domain.SizeClass
	tier domain.PlanTier
}

type flatKey struct {
	size     domain.SizeClass
	tier     domain.PlanTier
	duration domain.DurationClass
}

// Hourly rates in cents per billable hour.
var hourlyRateCents = map[rateKey]int64{
	{domain.SizeSmall, domain.PlanStandard}:  300,
	{domain.SizeMedium, domain.PlanStandard}: 450,
	{domain.SizeLarge, domain.PlanStandard}:  600,
	{domain.SizeSmall, domain.PlanPremium}:   450,
	{domain.SizeMedium, domain.PlanPremium}:  675,
	{domain.SizeLarge, domain.PlanPremium}:   900,
}

// Flat rates in cents for fixed-duration buckets. Elapsed time does not
// change these: no refund for early return, no extra charge for late
// return within the bucket.
var flatRateCents = map[flatKey]int64{
	{domain.SizeSmall, domain.PlanStandard, domain.DurationDaily}:    1500,
	{domain.SizeMedium, domain.PlanStandard, domain.DurationDaily}:   2200,
	{domain.SizeLarge, domain.PlanStandard, domain.DurationDaily}:    3000,
	{domain.SizeSmall, domain.PlanPremium, domain.DurationDaily}:     2000,
	{domain.SizeMedium, domain.PlanPremium, domain.DurationDaily}:    3000,
	{domain.SizeLarge, domain.PlanPremium, domain.DurationDaily}:     4000,
	{domain.SizeSmall, domain.PlanStandard, domain.DurationWeekly}:   6000,
	{domain.SizeMedium, domain.PlanStandard, domain.DurationWeekly}:  9000,
	{domain.SizeLarge, domain.PlanStandard, domain.DurationWeekly}:   12000,
	{domain.SizeSmall, domain.PlanPremium, domain.DurationWeekly}:    8000,
	{domain.SizeMedium, domain.PlanPremium, domain.DurationWeekly}:   12000,
	{domain.SizeLarge, domain.PlanPremium, domain.DurationWeekly}:    16000,
	{domain.SizeSmall, domain.PlanStandard, domain.DurationMonthly}:  18000,
	{domain.SizeMedium, domain.PlanStandard, domain.DurationMonthly}: 27000,
	{domain.SizeLarge, domain.PlanStandard, domain.DurationMonthly}:  36000,
	{domain.SizeSmall, domain.PlanPremium, domain.DurationMonthly}:   24000,
	{domain.SizeMedium, domain.PlanPremium, domain.DurationMonthly}:  36000,
	{domain.SizeLarge, domain.PlanPremium, domain.DurationMonthly}:   48000,
}

// BillableHours rounds elapsed hours up to whole billable hours, with a
// floor of one. Fractional minutes always round up, never down.
func BillableHours(hours float64) int64 {
	billable := int64(math.Ceil(hours))
	if billable < 1 {
		billable = 1
	}
	return billable
}

// HourlyRate returns the per-hour rate in cents for a (size, tier) pair.
func HourlyRate(size domain.SizeClass, tier domain.PlanTier) (int64, error) {
	rate, ok := hourlyRateCents[rateKey{size, tier}]
	if !ok {
		return 0, fmt.Errorf("no hourly rate for size %s tier %s", size, tier)
	}
	return rate, nil
}

// FlatRate returns the fixed bucket price in cents for a
// (size, tier, duration) triple.
func FlatRate(size domain.SizeClass, tier domain.PlanTier, duration domain.DurationClass) (int64, error) {
	rate, ok := flatRateCents[flatKey{size, tier, duration}]
	if !ok {
		return 0, fmt.Errorf("no flat rate for size %s tier %s duration %s", size, tier, duration)
	}
	return rate, nil
}

// Quote prices a rental. Hourly plans charge per billable hour of elapsed
// time; Daily, Weekly and Monthly plans charge the flat bucket rate
// regardless of hours.
func Quote(size domain.SizeClass, tier domain.PlanTier, duration domain.DurationClass, hours float64) (int64, error) {
	switch duration {
	case domain.DurationHourly:
		rate, err := HourlyRate(size, tier)
		if err != nil {
			return 0, err
		}
		return BillableHours(hours) * rate, nil
	case domain.DurationDaily, domain.DurationWeekly, domain.DurationMonthly:
		return FlatRate(size, tier, duration)
	default:
		return 0, fmt.Errorf("unknown duration class: %s", duration)
	}
}
