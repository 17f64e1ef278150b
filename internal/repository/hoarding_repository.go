package repository

import (
	"context"
	"database/sql"
	"errors"
)

// HoardingRepo provides access to the hoarding status mirror.  The
// booking core only ever reads and writes the status column; the rest
// of the hoarding catalog is managed elsewhere.
type HoardingRepo struct {
	db *sql.DB
}

// NewHoardingRepo returns a HoardingRepo bound to the given database.
func NewHoardingRepo(db *sql.DB) *HoardingRepo { return &HoardingRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *HoardingRepo) DB() *sql.DB { return r.db }

// GetStatus returns the hoarding's current status as a lock-free
// snapshot read.  It may race harmlessly with writers; mutating paths
// must use LockStatusTx instead.
func (r *HoardingRepo) GetStatus(ctx context.Context, hoardingID uint64) (string, error) {
	var status string
	err := r.db.QueryRowContext(ctx,
		`SELECT status FROM hoardings WHERE id = ?`, hoardingID,
	).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrHoardingNotFound
	}
	if err != nil {
		return "", err
	}
	return status, nil
}

// GetName returns the hoarding's display name for event payloads.
func (r *HoardingRepo) GetName(ctx context.Context, hoardingID uint64) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx,
		`SELECT name FROM hoardings WHERE id = ?`, hoardingID,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrHoardingNotFound
	}
	return name, err
}

// LockStatusTx takes the exclusive row lock on the hoarding and returns
// its status.  This is the entry point of the hoarding-keyed critical
// section: every confirm, fitter assignment and finalize must call it
// first so that exactly one racing transaction proceeds.  The NOWAIT
// clause bounds the wait — a busy lock surfaces immediately as
// ErrLockBusy instead of queueing behind the winner.
func (r *HoardingRepo) LockStatusTx(ctx context.Context, tx *sql.Tx, hoardingID uint64) (string, error) {
	var status string
	err := tx.QueryRowContext(ctx,
		`SELECT status FROM hoardings WHERE id = ? FOR UPDATE NOWAIT`, hoardingID,
	).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrHoardingNotFound
	}
	if isLockErr(err) {
		return "", ErrLockBusy
	}
	if err != nil {
		return "", err
	}
	return status, nil
}

// UpdateStatusTx writes a new status inside the caller's transaction.
// Callers must hold the row lock via LockStatusTx.
func (r *HoardingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, hoardingID uint64, status string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE hoardings SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`,
		status, hoardingID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrHoardingNotFound
	}
	return nil
}
