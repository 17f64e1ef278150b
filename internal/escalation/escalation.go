// Package escalation computes rent increment previews from a rent
// agreement's anchor date.  All arithmetic is pure and exact: money is
// integer paise, percentages are basis points, and every cycle
// application rounds half-up to whole paise before the next one, so the
// result is identical no matter how many decades the anchor lies in the
// past.  All dates are compared as calendar dates in UTC.
package escalation

import (
	"fmt"
	"time"

	"github.com/skysign/hoarding-rental/internal/model"
)

// Preview is the result of NextIncrement.  When Available is false the
// rent record could not produce a preview (bad cycle, non-positive base
// rent or missing anchor date) and callers should show a placeholder;
// the remaining fields are zero.
type Preview struct {
	Available        bool      `json:"available"`
	CyclesPassed     int       `json:"cycles_passed"`
	CurrentRentPaise int64     `json:"current_rent_paise"`
	NextRentPaise    int64     `json:"next_rent_paise"`
	NextDate         time.Time `json:"next_date"`
}

// NextIncrement computes how many increment cycles have elapsed at the
// reference date, the rent after compounding those cycles, and the date
// and amount of the next increment.
//
// A cycle counts as passed only when its anniversary lies strictly
// before the reference date: a reference exactly on an anniversary is a
// boundary, not a passed cycle.  Anniversaries are always computed from
// the anchor date itself with the day-of-month clamped to the target
// month's last day, so a Feb 29 anchor yields Feb 28 in non-leap years
// and returns to Feb 29 in leap years instead of rolling into March.
func NextIncrement(rec model.RentRecord, reference time.Time) Preview {
	if rec.CycleYears <= 0 || rec.BaseRentPaise <= 0 || rec.RentStartDate.IsZero() {
		return Preview{}
	}
	if rec.IncrementType != model.IncrementPercentage && rec.IncrementType != model.IncrementAmount {
		return Preview{}
	}
	anchor := dateOnly(rec.RentStartDate)
	ref := dateOnly(reference)

	cycles := 0
	if !ref.Before(anchor) {
		for addYearsClamped(anchor, (cycles+1)*rec.CycleYears).Before(ref) {
			cycles++
		}
	}

	current := rec.BaseRentPaise
	for i := 0; i < cycles; i++ {
		current = applyOnce(current, rec)
	}
	return Preview{
		Available:        true,
		CyclesPassed:     cycles,
		CurrentRentPaise: current,
		NextRentPaise:    applyOnce(current, rec),
		NextDate:         addYearsClamped(anchor, (cycles+1)*rec.CycleYears),
	}
}

// applyOnce compounds a single cycle onto the current rent.  PERCENTAGE
// adds current*bps/10000 rounded half-up to whole paise; AMOUNT adds a
// flat paise value.
func applyOnce(current int64, rec model.RentRecord) int64 {
	if rec.IncrementType == model.IncrementAmount {
		return current + rec.IncrementValue
	}
	return current + roundHalfUpDiv(current*rec.IncrementValue, 10000)
}

// roundHalfUpDiv divides n by d rounding half away from zero.  Inputs
// are non-negative in practice (rents and increments are positive).
func roundHalfUpDiv(n, d int64) int64 {
	return (n + d/2) / d
}

// dateOnly strips the time-of-day and pins the calendar date to UTC so
// comparisons never drift across timezones.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// addYearsClamped adds whole years to a date, clamping the day-of-month
// to the last valid day of the target month.  time.AddDate would roll
// Feb 29 + 1y into Mar 1, which silently shifts every anniversary.
func addYearsClamped(t time.Time, years int) time.Time {
	y, m, d := t.Date()
	y += years
	if last := daysInMonth(y, m); d > last {
		d = last
	}
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysInMonth returns the number of days in the given month.  Day zero
// of the following month is the last day of this one.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FormatPaise renders an integer paise amount as a decimal string with
// two fractional digits, e.g. 146410 -> "1464.10".
func FormatPaise(p int64) string {
	sign := ""
	if p < 0 {
		sign = "-"
		p = -p
	}
	return fmt.Sprintf("%s%d.%02d", sign, p/100, p%100)
}
