package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/skysign/hoarding-rental/internal/model"
)

// TokenRepo provides CRUD and transition operations for booking tokens
// and their installation proofs.  Mutations that race across actors are
// written as compare-and-swap updates: the WHERE clause re-states the
// status the caller observed, and zero affected rows means the snapshot
// went stale.  All timestamps are stored in UTC.
type TokenRepo struct {
	db *sql.DB
}

// NewTokenRepo returns a TokenRepo bound to the given database.
func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *TokenRepo) DB() *sql.DB { return r.db }

const tokenColumns = `id, hoarding_id, client_id, sales_user_id, status, queue_position,
       expires_at, designer_id, design_status, fitter_id, fitter_status,
       confirmed_by, confirmed_role, assigned_role, created_at, updated_at`

// scanToken reads one booking_tokens row from any row scanner.
func scanToken(row interface{ Scan(...interface{}) error }) (*model.BookingToken, error) {
	var t model.BookingToken
	var designerID, fitterID, confirmedBy sql.NullInt64
	var confirmedRole, assignedRole sql.NullString
	err := row.Scan(
		&t.ID, &t.HoardingID, &t.ClientID, &t.SalesUserID, &t.Status, &t.QueuePosition,
		&t.ExpiresAt, &designerID, &t.DesignStatus, &fitterID, &t.FitterStatus,
		&confirmedBy, &confirmedRole, &assignedRole, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if designerID.Valid {
		v := uint64(designerID.Int64)
		t.DesignerID = &v
	}
	if fitterID.Valid {
		v := uint64(fitterID.Int64)
		t.FitterID = &v
	}
	if confirmedBy.Valid {
		v := uint64(confirmedBy.Int64)
		t.ConfirmedBy = &v
	}
	if confirmedRole.Valid {
		v := confirmedRole.String
		t.ConfirmedRole = &v
	}
	if assignedRole.Valid {
		v := assignedRole.String
		t.AssignedRole = &v
	}
	return &t, nil
}

// GetByID returns a token with its installation proof references as a
// lock-free snapshot read.  It returns ErrTokenNotFound when no row exists.
func (r *TokenRepo) GetByID(ctx context.Context, tokenID uint64) (*model.BookingToken, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+tokenColumns+` FROM booking_tokens WHERE id = ?`, tokenID)
	tok, err := scanToken(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT ref FROM installation_proofs WHERE token_id = ? ORDER BY id`, tokenID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, err
		}
		tok.ProofRefs = append(tok.ProofRefs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tok, nil
}

// GetTx returns a token within the caller's transaction.  Mutating
// paths read through here after entering the hoarding critical section
// so the snapshot reflects any committed winner.
func (r *TokenRepo) GetTx(ctx context.Context, tx *sql.Tx, tokenID uint64) (*model.BookingToken, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+tokenColumns+` FROM booking_tokens WHERE id = ?`, tokenID)
	tok, err := scanToken(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	return tok, err
}

// ExpireActiveTx sweeps the hoarding's queue, marking every ACTIVE
// token whose expiry has passed as EXPIRED.  Mutating paths call this
// inside their transaction so expiry is evaluated lazily and EXPIRED is
// never observed before its time.  Returns the number of swept tokens.
func (r *TokenRepo) ExpireActiveTx(ctx context.Context, tx *sql.Tx, hoardingID uint64) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE booking_tokens
		    SET status = 'EXPIRED', updated_at = UTC_TIMESTAMP()
		  WHERE hoarding_id = ? AND status = 'ACTIVE' AND expires_at <= UTC_TIMESTAMP()`,
		hoardingID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountQueuedTx counts ACTIVE and CONFIRMED tokens for a hoarding.  The
// next queue position is this count plus one; callers must hold the
// hoarding lock so two creations cannot read the same count.
func (r *TokenRepo) CountQueuedTx(ctx context.Context, tx *sql.Tx, hoardingID uint64) (uint32, error) {
	var n uint32
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM booking_tokens
		  WHERE hoarding_id = ? AND status IN ('ACTIVE','CONFIRMED')`,
		hoardingID,
	).Scan(&n)
	return n, err
}

// ConfirmedWinnerTx reports whether the hoarding has a CONFIRMED token
// and, if so, the role of the actor who confirmed it.  Losers of the
// confirm race use the role to attribute the loss as structured data;
// an empty role means the winner is unknown.
func (r *TokenRepo) ConfirmedWinnerTx(ctx context.Context, tx *sql.Tx, hoardingID uint64) (string, bool, error) {
	var role sql.NullString
	err := tx.QueryRowContext(ctx,
		`SELECT confirmed_role FROM booking_tokens
		  WHERE hoarding_id = ? AND status = 'CONFIRMED'
		  ORDER BY updated_at DESC LIMIT 1`,
		hoardingID,
	).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return role.String, true, nil
}

// ConfirmedByHoardingTx returns the hoarding's CONFIRMED token, or
// ErrTokenNotFound when no booking is in flight.  Used by finalize,
// which is addressed by hoarding rather than token.
func (r *TokenRepo) ConfirmedByHoardingTx(ctx context.Context, tx *sql.Tx, hoardingID uint64) (*model.BookingToken, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+tokenColumns+` FROM booking_tokens
		  WHERE hoarding_id = ? AND status = 'CONFIRMED'
		  ORDER BY updated_at DESC LIMIT 1`,
		hoardingID,
	)
	tok, err := scanToken(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	return tok, err
}

// CreateTx inserts a new ACTIVE token within the caller's transaction
// and populates the generated ID and timestamps on the provided record.
func (r *TokenRepo) CreateTx(ctx context.Context, tx *sql.Tx, tok *model.BookingToken) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO booking_tokens
		   (hoarding_id, client_id, sales_user_id, status, queue_position, expires_at, design_status, fitter_status)
		 VALUES (?, ?, ?, 'ACTIVE', ?, ?, 'PENDING', 'PENDING')`,
		tok.HoardingID, tok.ClientID, tok.SalesUserID, tok.QueuePosition,
		tok.ExpiresAt.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	tok.ID = uint64(id)
	// Query back the full row to populate defaults and timestamps.
	row := tx.QueryRowContext(ctx,
		`SELECT `+tokenColumns+` FROM booking_tokens WHERE id = ?`, tok.ID)
	full, err := scanToken(row)
	if err != nil {
		return err
	}
	*tok = *full
	return nil
}

// ConfirmTx promotes an ACTIVE token to CONFIRMED, recording the
// designer and the winning actor.  The WHERE clause re-checks ACTIVE so
// a racing confirm that slipped past the guard still cannot double-write;
// zero affected rows surfaces as ErrStale.
func (r *TokenRepo) ConfirmTx(ctx context.Context, tx *sql.Tx, tokenID, designerID, confirmedBy uint64, confirmedRole string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE booking_tokens
		    SET status = 'CONFIRMED', designer_id = ?, design_status = 'PENDING',
		        confirmed_by = ?, confirmed_role = ?, updated_at = UTC_TIMESTAMP()
		  WHERE id = ? AND status = 'ACTIVE'`,
		designerID, confirmedBy, confirmedRole, tokenID,
	)
	if err != nil {
		return err
	}
	return oneRowOrStale(res)
}

// CancelTx marks an ACTIVE token CANCELLED.
func (r *TokenRepo) CancelTx(ctx context.Context, tx *sql.Tx, tokenID uint64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE booking_tokens
		    SET status = 'CANCELLED', updated_at = UTC_TIMESTAMP()
		  WHERE id = ? AND status = 'ACTIVE'`,
		tokenID,
	)
	if err != nil {
		return err
	}
	return oneRowOrStale(res)
}

// UpdateDesignStatusTx advances the design pipeline with a
// compare-and-swap on the previous status.
func (r *TokenRepo) UpdateDesignStatusTx(ctx context.Context, tx *sql.Tx, tokenID uint64, from, to string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE booking_tokens
		    SET design_status = ?, updated_at = UTC_TIMESTAMP()
		  WHERE id = ? AND status = 'CONFIRMED' AND design_status = ?`,
		to, tokenID, from,
	)
	if err != nil {
		return err
	}
	return oneRowOrStale(res)
}

// AssignFitterTx sets the fitter on a token whose design is complete
// and which has no fitter yet.  The IS NULL predicate makes the write
// itself the arbitration backstop: the second assigner affects zero rows.
func (r *TokenRepo) AssignFitterTx(ctx context.Context, tx *sql.Tx, tokenID, fitterID uint64, assignedRole string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE booking_tokens
		    SET fitter_id = ?, fitter_status = 'PENDING', assigned_role = ?, updated_at = UTC_TIMESTAMP()
		  WHERE id = ? AND status = 'CONFIRMED' AND design_status = 'COMPLETED' AND fitter_id IS NULL`,
		fitterID, assignedRole, tokenID,
	)
	if err != nil {
		return err
	}
	return oneRowOrStale(res)
}

// UpdateFitterStatusTx advances the fitter pipeline with a
// compare-and-swap on the previous status.
func (r *TokenRepo) UpdateFitterStatusTx(ctx context.Context, tx *sql.Tx, tokenID uint64, from, to string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE booking_tokens
		    SET fitter_status = ?, updated_at = UTC_TIMESTAMP()
		  WHERE id = ? AND status = 'CONFIRMED' AND fitter_status = ?`,
		to, tokenID, from,
	)
	if err != nil {
		return err
	}
	return oneRowOrStale(res)
}

// AddProofsTx stores installation proof references for a token in a
// single statement.  The refs are opaque to the core; content
// validation belongs to the proof storage service.  Passing an empty
// slice has no effect and returns nil.
func (r *TokenRepo) AddProofsTx(ctx context.Context, tx *sql.Tx, tokenID uint64, refs []string) error {
	if len(refs) == 0 {
		return nil
	}
	query := `INSERT INTO installation_proofs (token_id, ref) VALUES `
	args := make([]interface{}, 0, len(refs)*2)
	for i, ref := range refs {
		if i > 0 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, tokenID, ref)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// ListByHoarding returns every token for a hoarding, newest first, with
// proof references populated in a single follow-up query.  This is the
// snapshot surface clients use to resynchronize local drafts.
func (r *TokenRepo) ListByHoarding(ctx context.Context, hoardingID uint64) ([]model.BookingToken, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+tokenColumns+` FROM booking_tokens WHERE hoarding_id = ? ORDER BY created_at DESC`,
		hoardingID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tokens := make([]model.BookingToken, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		tok, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		index[tok.ID] = len(tokens)
		tokens = append(tokens, *tok)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return tokens, nil
	}
	// Fetch proofs for all tokens in one query.
	ids := make([]interface{}, 0, len(tokens))
	placeholders := make([]string, 0, len(tokens))
	for _, t := range tokens {
		ids = append(ids, t.ID)
		placeholders = append(placeholders, "?")
	}
	prows, err := r.db.QueryContext(ctx,
		`SELECT token_id, ref FROM installation_proofs
		  WHERE token_id IN (`+strings.Join(placeholders, ",")+`) ORDER BY token_id, id`,
		ids...,
	)
	if err != nil {
		return nil, err
	}
	defer prows.Close()
	for prows.Next() {
		var tid uint64
		var ref string
		if err := prows.Scan(&tid, &ref); err != nil {
			return nil, err
		}
		if idx, ok := index[tid]; ok {
			tokens[idx].ProofRefs = append(tokens[idx].ProofRefs, ref)
		}
	}
	if err := prows.Err(); err != nil {
		return nil, err
	}
	return tokens, nil
}

// oneRowOrStale converts a zero-row update into ErrStale.
func oneRowOrStale(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStale
	}
	return nil
}
