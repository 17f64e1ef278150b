package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/skysign/hoarding-rental/internal/model"
)

// UserRepo reads the user directory as far as the booking core needs
// it: validating that an explicitly chosen designer or fitter actually
// carries that role, and finding the single candidate when one is to be
// auto-selected.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo returns a UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// GetByID returns a user by primary key, or ErrUserNotFound.
func (r *UserRepo) GetByID(ctx context.Context, userID uint64) (*model.User, error) {
	const q = `SELECT id, full_name, role, is_active, created_at FROM users WHERE id = ?`
	var u model.User
	err := r.db.QueryRowContext(ctx, q, userID).Scan(&u.ID, &u.FullName, &u.Role, &u.IsActive, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListActiveByRole returns all active users carrying the given role.
// Auto-selection picks the candidate only when exactly one row comes
// back, so the same deterministic default applies on every caller.
func (r *UserRepo) ListActiveByRole(ctx context.Context, role string) ([]model.User, error) {
	const q = `SELECT id, full_name, role, is_active, created_at
	             FROM users WHERE role = ? AND is_active = 1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.FullName, &u.Role, &u.IsActive, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}
