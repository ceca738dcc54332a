package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/expohall/expo-reservation/internal/model"
)

// ActivityCheckRepo persists the append-only attendance log.  Rows are
// only ever inserted (by check-in) or removed (by staff correcting a
// mistaken scan); there is no update path.
type ActivityCheckRepo struct {
	db *sql.DB
}

// NewActivityCheckRepo constructs an ActivityCheckRepo with the given DB handle.
func NewActivityCheckRepo(db *sql.DB) *ActivityCheckRepo { return &ActivityCheckRepo{db: db} }

// Create appends one attendance entry and returns the stored row.
func (r *ActivityCheckRepo) Create(ctx context.Context, activityID, userID, createdBy uint64) (*model.ActivityCheck, error) {
	const q = `INSERT INTO activity_checks (activity_id, user_id, created_by) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, activityID, userID, createdBy)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	const sel = `SELECT id, activity_id, user_id, created_by, created_at FROM activity_checks WHERE id = ?`
	var c model.ActivityCheck
	if err := r.db.QueryRowContext(ctx, sel, id).Scan(
		&c.ID, &c.ActivityID, &c.UserID, &c.CreatedBy, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// Exists reports whether the user already has at least one check on the
// activity.  Check-in uses this to flag (not reject) duplicates.
func (r *ActivityCheckRepo) Exists(ctx context.Context, activityID, userID uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM activity_checks WHERE activity_id = ? AND user_id = ? LIMIT 1`,
		activityID, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListTimes returns the creation timestamps of every check on the
// activity in ascending order.  The summary endpoint buckets these.
func (r *ActivityCheckRepo) ListTimes(ctx context.Context, activityID uint64) ([]time.Time, error) {
	const q = `SELECT created_at FROM activity_checks WHERE activity_id = ? ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, q, activityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	times := make([]time.Time, 0)
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

// CheckDetail is the joined view for staff listing an activity's raw
// check-ins, including the attendee's email.
type CheckDetail struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	UserEmail string    `json:"user_email"`
	CreatedBy uint64    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// ListByActivity returns all checks for an activity, newest first.
func (r *ActivityCheckRepo) ListByActivity(ctx context.Context, activityID uint64) ([]CheckDetail, error) {
	const q = `SELECT c.id, c.user_id, u.email, c.created_by, c.created_at
	           FROM activity_checks c
	           JOIN users u ON u.id = c.user_id
	           WHERE c.activity_id = ?
	           ORDER BY c.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, activityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]CheckDetail, 0)
	for rows.Next() {
		var d CheckDetail
		if err := rows.Scan(&d.ID, &d.UserID, &d.UserEmail, &d.CreatedBy, &d.CreatedAt); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// Delete removes a single check row.  ErrCheckNotFound is returned when
// the row is absent.
func (r *ActivityCheckRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM activity_checks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCheckNotFound
	}
	return nil
}
