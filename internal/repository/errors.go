// Package repository provides raw-SQL data access for the booking
// core.  This file defines sentinel errors shared across repositories
// so handlers can classify failures with errors.Is instead of matching
// message text.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrStale is returned when an optimistic update finds that the row's
// status changed since the caller last read it.  The caller must
// re-read and decide again; automatic retry is not appropriate.
var ErrStale = errors.New("stale state")

// ErrLockBusy is returned when the hoarding-keyed critical section
// cannot be entered within the bounded wait.  This is the only
// repository error a caller may automatically retry.
var ErrLockBusy = errors.New("lock busy")

// Not-found sentinels per aggregate.  Handlers translate these into
// HTTP 404.
var (
	ErrHoardingNotFound = errors.New("hoarding not found")
	ErrTokenNotFound    = errors.New("booking token not found")
	ErrRentNotFound     = errors.New("rent record not found")
	ErrUserNotFound     = errors.New("user not found")
)

// isLockErr reports whether err is a MySQL locking failure: 3572
// (NOWAIT lock unavailable), 1205 (lock wait timeout) or 1213
// (deadlock victim).  All three mean the critical section is busy and
// the operation may be retried.
func isLockErr(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	switch me.Number {
	case 1205, 1213, 3572:
		return true
	}
	return false
}
