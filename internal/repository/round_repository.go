package repository

import (
	"context"
	"database/sql"

	"github.com/expohall/expo-reservation/internal/model"
)

// RoundRepo is the seat ledger: it owns the capacity/reserved counters of
// every round and is the only code allowed to mutate them.  Admission is
// a single conditional UPDATE so that two concurrent callers can never
// both observe a free seat and both commit; the database serializes the
// check-and-increment.
type RoundRepo struct {
	db *sql.DB
}

// NewRoundRepo constructs a RoundRepo with the given DB handle.
func NewRoundRepo(db *sql.DB) *RoundRepo { return &RoundRepo{db: db} }

const roundCols = `id, activity_id, name, starts_at, ends_at, capacity, reserved, created_at, updated_at`

func scanRound(row *sql.Row) (*model.Round, error) {
	var rd model.Round
	err := row.Scan(&rd.ID, &rd.ActivityID, &rd.Name, &rd.StartsAt, &rd.EndsAt,
		&rd.Capacity, &rd.Reserved, &rd.CreatedAt, &rd.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrRoundNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rd, nil
}

// Create inserts a new round and assigns the generated ID plus DB-default
// fields back to the struct.  Reserved always starts at zero regardless
// of what the caller passes.
func (r *RoundRepo) Create(ctx context.Context, rd *model.Round) error {
	const q = `INSERT INTO rounds (activity_id, name, starts_at, ends_at, capacity) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, rd.ActivityID, rd.Name, rd.StartsAt, rd.EndsAt, rd.Capacity)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*rd = *created
	return nil
}

// GetByID retrieves a round by its ID.  It returns ErrRoundNotFound if
// there is no matching row.
func (r *RoundRepo) GetByID(ctx context.Context, id uint64) (*model.Round, error) {
	const q = `SELECT ` + roundCols + ` FROM rounds WHERE id = ?`
	return scanRound(r.db.QueryRowContext(ctx, q, id))
}

// ListByActivity returns all rounds belonging to an activity ordered by
// start time.  An empty slice is returned when the activity has no
// rounds.
func (r *RoundRepo) ListByActivity(ctx context.Context, activityID uint64) ([]model.Round, error) {
	const q = `SELECT ` + roundCols + ` FROM rounds WHERE activity_id = ? ORDER BY starts_at`
	rows, err := r.db.QueryContext(ctx, q, activityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Round, 0)
	for rows.Next() {
		var rd model.Round
		if err := rows.Scan(&rd.ID, &rd.ActivityID, &rd.Name, &rd.StartsAt, &rd.EndsAt,
			&rd.Capacity, &rd.Reserved, &rd.CreatedAt, &rd.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rd)
	}
	return out, rows.Err()
}

// TryReserve atomically takes one seat on the round.  The increment only
// happens while reserved < capacity, so the admission check and the
// write are a single statement and the lost-update race between a read
// and a separate write cannot occur.  When no row is updated the round
// is either absent (ErrRoundNotFound) or full (ErrSeatsFull); a follow-up
// existence probe distinguishes the two.
func (r *RoundRepo) TryReserve(ctx context.Context, roundID uint64) error {
	const q = `UPDATE rounds SET reserved = reserved + 1 WHERE id = ? AND reserved < capacity`
	res, err := r.db.ExecContext(ctx, q, roundID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	exists, err := r.exists(ctx, roundID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrRoundNotFound
	}
	return ErrSeatsFull
}

// Release returns one seat to the round.  The decrement is floored at
// zero: if the counter is already zero nothing is written and
// ErrSeatUnderflow is reported so the caller can log the inconsistency.
// Release is not idempotent; the reservation service guarantees it runs
// at most once per committed reservation.
func (r *RoundRepo) Release(ctx context.Context, roundID uint64) error {
	const q = `UPDATE rounds SET reserved = reserved - 1 WHERE id = ? AND reserved > 0`
	res, err := r.db.ExecContext(ctx, q, roundID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	exists, err := r.exists(ctx, roundID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrRoundNotFound
	}
	return ErrSeatUnderflow
}

// Update modifies a round's name, schedule and capacity.  Shrinking the
// capacity below the current reserved count is rejected with ErrConflict
// inside the same statement, so the ledger invariant survives admin
// edits as well.
func (r *RoundRepo) Update(ctx context.Context, rd *model.Round) error {
	const q = `UPDATE rounds SET name = ?, starts_at = ?, ends_at = ?, capacity = ?
	           WHERE id = ? AND reserved <= ?`
	res, err := r.db.ExecContext(ctx, q, rd.Name, rd.StartsAt, rd.EndsAt, rd.Capacity, rd.ID, rd.Capacity)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		exists, err := r.exists(ctx, rd.ID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrRoundNotFound
		}
		// Row exists but reserved > new capacity, or nothing changed.
		cur, err := r.GetByID(ctx, rd.ID)
		if err != nil {
			return err
		}
		if cur.Reserved > rd.Capacity {
			return ErrConflict
		}
	}
	updated, err := r.GetByID(ctx, rd.ID)
	if err != nil {
		return err
	}
	*rd = *updated
	return nil
}

// Delete removes a round.  Deletion is blocked with ErrConflict while
// active tickets reference the round; the guard and the delete run in
// one transaction so a reservation committing in between cannot orphan
// its ticket.
func (r *RoundRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	var tickets int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tickets WHERE round_id = ?`, id).Scan(&tickets); err != nil {
		return err
	}
	if tickets > 0 {
		return ErrConflict
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM rounds WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRoundNotFound
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (r *RoundRepo) exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM rounds WHERE id = ? LIMIT 1`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
