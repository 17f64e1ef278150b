package model

import "time"

// BookingToken is a time-boxed reservation claim on a hoarding.  Tokens
// are queued FIFO per hoarding; at most one token per hoarding may be
// ACTIVE-confirmed into the design/installation flow at a time.  Once a
// token reaches CANCELLED or EXPIRED it never mutates again.  CONFIRMED
// tokens keep mutating their design/fitter sub-state until the hoarding
// is finalized as booked.
//
// Fields:
//  ID             – primary key identifier.
//  HoardingID     – hoarding being reserved.
//  ClientID       – client on whose behalf the booking is made (immutable).
//  SalesUserID    – sales user who raised the token (immutable).
//  Status         – ACTIVE, CONFIRMED, EXPIRED or CANCELLED.
//  QueuePosition  – 1-based rank among waiting tokens at creation (immutable).
//  ExpiresAt      – after this instant an ACTIVE token is eligible for expiry.
//  DesignerID     – designer assigned at confirm time (nullable before that).
//  DesignStatus   – PENDING, IN_PROGRESS or COMPLETED; meaningful after CONFIRMED.
//  FitterID       – fitter assigned after design completion (nullable).
//  FitterStatus   – PENDING, IN_PROGRESS or FITTED.
//  ConfirmedBy    – user who won the confirm arbitration (nullable).
//  ConfirmedRole  – role of the confirming user; drives loss attribution.
//  AssignedRole   – role of the user who assigned the fitter (nullable).
//  ProofRefs      – opaque installation proof references; non-empty only
//                   once FitterStatus is FITTED.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last modification timestamp.
type BookingToken struct {
	ID            uint64    `json:"id"`                       // booking_tokens.id
	HoardingID    uint64    `json:"hoarding_id"`              // booking_tokens.hoarding_id
	ClientID      uint64    `json:"client_id"`                // booking_tokens.client_id
	SalesUserID   uint64    `json:"sales_user_id"`            // booking_tokens.sales_user_id
	Status        string    `json:"status"`                   // booking_tokens.status
	QueuePosition uint32    `json:"queue_position"`           // booking_tokens.queue_position
	ExpiresAt     time.Time `json:"expires_at"`               // booking_tokens.expires_at
	DesignerID    *uint64   `json:"designer_id,omitempty"`    // booking_tokens.designer_id (nullable)
	DesignStatus  string    `json:"design_status"`            // booking_tokens.design_status
	FitterID      *uint64   `json:"fitter_id,omitempty"`      // booking_tokens.fitter_id (nullable)
	FitterStatus  string    `json:"fitter_status"`            // booking_tokens.fitter_status
	ConfirmedBy   *uint64   `json:"confirmed_by,omitempty"`   // booking_tokens.confirmed_by (nullable)
	ConfirmedRole *string   `json:"confirmed_role,omitempty"` // booking_tokens.confirmed_role (nullable)
	AssignedRole  *string   `json:"assigned_role,omitempty"`  // booking_tokens.assigned_role (nullable)
	ProofRefs     []string  `json:"proof_refs,omitempty"`     // installation_proofs.ref rows for this token
	CreatedAt     time.Time `json:"created_at"`               // booking_tokens.created_at
	UpdatedAt     time.Time `json:"updated_at"`               // booking_tokens.updated_at
}
