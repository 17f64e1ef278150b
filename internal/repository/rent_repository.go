package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/skysign/hoarding-rental/internal/model"
)

// RentRepo reads rent agreement terms for escalation previews.  Money
// columns are integer paise; the increment value is basis points for
// PERCENTAGE records and paise for AMOUNT records.
type RentRepo struct {
	db *sql.DB
}

// NewRentRepo returns a RentRepo bound to the given database.
func NewRentRepo(db *sql.DB) *RentRepo { return &RentRepo{db: db} }

// GetByHoarding returns the rent record for a hoarding.  A hoarding
// without an agreement yields ErrRentNotFound, which callers render as
// "no preview available" rather than an error page.
func (r *RentRepo) GetByHoarding(ctx context.Context, hoardingID uint64) (*model.RentRecord, error) {
	const q = `SELECT id, hoarding_id, base_rent_paise, cycle_years, increment_type, increment_value, rent_start_date
	             FROM rent_records WHERE hoarding_id = ?`
	var rec model.RentRecord
	var start sql.NullTime
	err := r.db.QueryRowContext(ctx, q, hoardingID).Scan(
		&rec.ID, &rec.HoardingID, &rec.BaseRentPaise, &rec.CycleYears,
		&rec.IncrementType, &rec.IncrementValue, &start,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRentNotFound
	}
	if err != nil {
		return nil, err
	}
	if start.Valid {
		rec.RentStartDate = start.Time
	}
	return &rec, nil
}
