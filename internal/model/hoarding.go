package model

import "time"

// Hoarding mirrors the subset of hoarding master data the booking flow
// reads and writes.  The catalog itself (location, dimensions, vendor,
// imagery) is managed elsewhere; the booking core only arbitrates over
// the status column.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name, carried through for event payloads.
//  Status    – available, under_process, live, booked, removal_pending
//              or remount_pending.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last modification timestamp.
type Hoarding struct {
	ID        uint64    `json:"id"`         // hoardings.id
	Name      string    `json:"name"`       // hoardings.name
	Status    string    `json:"status"`     // hoardings.status
	CreatedAt time.Time `json:"created_at"` // hoardings.created_at
	UpdatedAt time.Time `json:"updated_at"` // hoardings.updated_at
}
