package model

import "time"

// Increment types accepted by rent records.
const (
	IncrementPercentage = "PERCENTAGE"
	IncrementAmount     = "AMOUNT"
)

// RentRecord holds the rent agreement terms for a hoarding.  All money
// is stored as integer paise so escalation arithmetic stays exact at
// two-decimal granularity.  For PERCENTAGE increments the value is in
// basis points (100 bps = 1%); for AMOUNT increments it is in paise.
//
// Fields:
//  ID             – primary key identifier.
//  HoardingID     – hoarding this agreement covers.
//  BaseRentPaise  – rent at the anchor date, in paise.
//  CycleYears     – increment cycle length in whole years.
//  IncrementType  – PERCENTAGE or AMOUNT.
//  IncrementValue – basis points (PERCENTAGE) or paise (AMOUNT).
//  RentStartDate  – anchor date for all cycle arithmetic (date only, UTC).
type RentRecord struct {
	ID             uint64    // rent_records.id
	HoardingID     uint64    // rent_records.hoarding_id
	BaseRentPaise  int64     // rent_records.base_rent_paise
	CycleYears     int       // rent_records.cycle_years
	IncrementType  string    // rent_records.increment_type
	IncrementValue int64     // rent_records.increment_value
	RentStartDate  time.Time // rent_records.rent_start_date
}
