package escalation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skysign/hoarding-rental/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func percentRecord() model.RentRecord {
	return model.RentRecord{
		HoardingID:     1,
		BaseRentPaise:  100000, // 1000.00
		CycleYears:     1,
		IncrementType:  model.IncrementPercentage,
		IncrementValue: 1000, // 10%
		RentStartDate:  date(2020, time.January, 1),
	}
}

func TestNextIncrementCompoundsPerCycle(t *testing.T) {
	p := NextIncrement(percentRecord(), date(2023, time.June, 1))
	require.True(t, p.Available)
	assert.Equal(t, 3, p.CyclesPassed)
	assert.Equal(t, int64(133100), p.CurrentRentPaise) // 1000 -> 1100 -> 1210 -> 1331
	assert.Equal(t, int64(146410), p.NextRentPaise)
	assert.Equal(t, date(2024, time.January, 1), p.NextDate)
}

func TestNextIncrementAnniversaryBoundaryNotCounted(t *testing.T) {
	// Reference exactly on the first anniversary: the cycle has not
	// passed yet, the increment is due that day.
	p := NextIncrement(percentRecord(), date(2021, time.January, 1))
	require.True(t, p.Available)
	assert.Equal(t, 0, p.CyclesPassed)
	assert.Equal(t, int64(100000), p.CurrentRentPaise)
	assert.Equal(t, int64(110000), p.NextRentPaise)
	assert.Equal(t, date(2021, time.January, 1), p.NextDate)
}

func TestNextIncrementBeforeAnchor(t *testing.T) {
	p := NextIncrement(percentRecord(), date(2019, time.December, 31))
	require.True(t, p.Available)
	assert.Equal(t, 0, p.CyclesPassed)
	assert.Equal(t, int64(100000), p.CurrentRentPaise)
	assert.Equal(t, date(2021, time.January, 1), p.NextDate)
}

func TestNextIncrementRoundsHalfUpEachCycle(t *testing.T) {
	// Sixth cycle: 1610.51 + 161.051 rounds the increment to 161.05,
	// giving 1771.56 — rounding applies per cycle, not at the end.
	p := NextIncrement(percentRecord(), date(2026, time.June, 1))
	require.True(t, p.Available)
	assert.Equal(t, 6, p.CyclesPassed)
	assert.Equal(t, int64(177156), p.CurrentRentPaise)
}

func TestNextIncrementLeapDayAnchorClamps(t *testing.T) {
	rec := percentRecord()
	rec.RentStartDate = date(2020, time.February, 29)

	p := NextIncrement(rec, date(2021, time.March, 1))
	require.True(t, p.Available)
	assert.Equal(t, 1, p.CyclesPassed, "2021-02-28 anniversary has passed")
	assert.Equal(t, date(2022, time.February, 28), p.NextDate)

	// The leap-year anniversary returns to Feb 29 instead of drifting
	// to Mar 1 the way repeated AddDate calls would.
	p = NextIncrement(rec, date(2024, time.February, 29))
	require.True(t, p.Available)
	assert.Equal(t, 3, p.CyclesPassed)
	assert.Equal(t, date(2024, time.February, 29), p.NextDate)

	p = NextIncrement(rec, date(2024, time.March, 1))
	require.True(t, p.Available)
	assert.Equal(t, 4, p.CyclesPassed)
	assert.Equal(t, date(2025, time.February, 28), p.NextDate)
}

func TestNextIncrementFlatAmount(t *testing.T) {
	rec := model.RentRecord{
		HoardingID:     2,
		BaseRentPaise:  100000,
		CycleYears:     2,
		IncrementType:  model.IncrementAmount,
		IncrementValue: 5000, // 50.00 per cycle
		RentStartDate:  date(2015, time.January, 1),
	}
	p := NextIncrement(rec, date(2021, time.June, 1))
	require.True(t, p.Available)
	assert.Equal(t, 3, p.CyclesPassed) // 2017, 2019, 2021
	assert.Equal(t, int64(115000), p.CurrentRentPaise)
	assert.Equal(t, int64(120000), p.NextRentPaise)
	assert.Equal(t, date(2023, time.January, 1), p.NextDate)
}

func TestNextIncrementUnusableRecord(t *testing.T) {
	ref := date(2023, time.June, 1)

	rec := percentRecord()
	rec.CycleYears = 0
	assert.False(t, NextIncrement(rec, ref).Available)

	rec = percentRecord()
	rec.BaseRentPaise = 0
	assert.False(t, NextIncrement(rec, ref).Available)

	rec = percentRecord()
	rec.RentStartDate = time.Time{}
	assert.False(t, NextIncrement(rec, ref).Available)

	rec = percentRecord()
	rec.IncrementType = "COMPOUND_DAILY"
	assert.False(t, NextIncrement(rec, ref).Available)
}

func TestNextIncrementDeterministic(t *testing.T) {
	rec := percentRecord()
	ref := date(2049, time.July, 15) // 29 full cycles out
	first := NextIncrement(rec, ref)
	second := NextIncrement(rec, ref)
	require.True(t, first.Available)
	assert.Equal(t, first, second)
	assert.Equal(t, 29, first.CyclesPassed)
	assert.Greater(t, first.NextRentPaise, first.CurrentRentPaise)
}

func TestFormatPaise(t *testing.T) {
	assert.Equal(t, "1464.10", FormatPaise(146410))
	assert.Equal(t, "0.05", FormatPaise(5))
	assert.Equal(t, "0.00", FormatPaise(0))
	assert.Equal(t, "-1.50", FormatPaise(-150))
	assert.Equal(t, "1000.00", FormatPaise(100000))
}
