package repository

import (
	"context"
	"database/sql"

	"github.com/expohall/expo-reservation/internal/model"
)

// ActivityRepo manages persistence for activities.
type ActivityRepo struct {
	db *sql.DB
}

// NewActivityRepo constructs an ActivityRepo with the given DB handle.
func NewActivityRepo(db *sql.DB) *ActivityRepo { return &ActivityRepo{db: db} }

const activityCols = `id, name, description, starts_at, ends_at, created_at, updated_at`

// Create inserts a new activity and populates the generated ID and
// DB-default timestamps on the struct.
func (r *ActivityRepo) Create(ctx context.Context, a *model.Activity) error {
	const q = `INSERT INTO activities (name, description, starts_at, ends_at) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, a.Name, a.Description, a.StartsAt, a.EndsAt)
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
	*a = *created
	return nil
}

// GetByID retrieves an activity by its ID.  It returns
// ErrActivityNotFound if there is no matching row.
func (r *ActivityRepo) GetByID(ctx context.Context, id uint64) (*model.Activity, error) {
	const q = `SELECT ` + activityCols + ` FROM activities WHERE id = ?`
	var a model.Activity
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&a.ID, &a.Name, &a.Description, &a.StartsAt, &a.EndsAt, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrActivityNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// List returns all activities ordered by start time.
func (r *ActivityRepo) List(ctx context.Context) ([]model.Activity, error) {
	const q = `SELECT ` + activityCols + ` FROM activities ORDER BY starts_at`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Activity, 0)
	for rows.Next() {
		var a model.Activity
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.StartsAt, &a.EndsAt,
			&a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Update modifies an activity's name, description and schedule.
func (r *ActivityRepo) Update(ctx context.Context, a *model.Activity) error {
	const q = `UPDATE activities SET name = ?, description = ?, starts_at = ?, ends_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, a.Name, a.Description, a.StartsAt, a.EndsAt, a.ID); err != nil {
		return err
	}
	updated, err := r.GetByID(ctx, a.ID)
	if err != nil {
		return err
	}
	*a = *updated
	return nil
}

// Delete removes an activity.  It fails with ErrConflict while rounds
// still reference the activity so the seat ledger and outstanding
// tickets can never be orphaned by an admin action.
func (r *ActivityRepo) Delete(ctx context.Context, id uint64) error {
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
	var rounds int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM rounds WHERE activity_id = ?`, id).Scan(&rounds); err != nil {
		return err
	}
	if rounds > 0 {
		return ErrConflict
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrActivityNotFound
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
