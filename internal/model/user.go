package model

import "time"

// User mirrors the users table as far as the booking core needs it:
// identity, role and active flag.  Credentials and sessions belong to
// the external auth service.
//
// Fields:
//  ID        – primary key identifier.
//  FullName  – display name.
//  Role      – SALES, OWNER, MANAGER, ADMIN, DESIGNER or FITTER.
//  IsActive  – inactive users are excluded from auto-selection.
//  CreatedAt – creation timestamp.
type User struct {
	ID        uint64    // users.id
	FullName  string    // users.full_name
	Role      string    // users.role
	IsActive  bool      // users.is_active
	CreatedAt time.Time // users.created_at
}
