package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/expohall/expo-reservation/internal/model"
)

// TicketRepo provides identity and uniqueness for reservations.  The
// tickets table carries a unique key on (round_id, user_id) so a second
// reservation for the same pair fails at the database regardless of how
// many requests race; the duplicate-key error is mapped to
// ErrDuplicateTicket.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo constructs a TicketRepo with the given DB handle.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

const ticketCols = `id, code, round_id, user_id, checked, created_at, updated_at`

func scanTicket(row *sql.Row) (*model.Ticket, error) {
	var t model.Ticket
	err := row.Scan(&t.ID, &t.Code, &t.RoundID, &t.UserID, &t.Checked, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create persists a new unchecked ticket for (userID, roundID) and
// returns the stored row.  A fresh UUID is generated as the scan code.
// ErrDuplicateTicket is returned when an active ticket already exists
// for the pair.
func (r *TicketRepo) Create(ctx context.Context, userID, roundID uint64) (*model.Ticket, error) {
	code := uuid.NewString()
	const q = `INSERT INTO tickets (code, round_id, user_id) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, code, roundID, userID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return nil, ErrDuplicateTicket
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID retrieves a ticket by its ID.  It returns ErrTicketNotFound
// when no matching row exists.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (*model.Ticket, error) {
	const q = `SELECT ` + ticketCols + ` FROM tickets WHERE id = ?`
	t, err := scanTicket(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrTicketNotFound
	}
	return t, err
}

// FindActive returns the user's active ticket on a round, or nil when
// none exists.  Absence is not an error here; callers branch on nil.
func (r *TicketRepo) FindActive(ctx context.Context, userID, roundID uint64) (*model.Ticket, error) {
	const q = `SELECT ` + ticketCols + ` FROM tickets WHERE user_id = ? AND round_id = ? LIMIT 1`
	t, err := scanTicket(r.db.QueryRowContext(ctx, q, userID, roundID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// FindActiveForActivity returns the user's ticket on any round of the
// given activity, or nil when none exists.  Check-in uses this to flip
// the ticket flag after recording attendance.
func (r *TicketRepo) FindActiveForActivity(ctx context.Context, userID, activityID uint64) (*model.Ticket, error) {
	const q = `SELECT t.id, t.code, t.round_id, t.user_id, t.checked, t.created_at, t.updated_at
	           FROM tickets t
	           JOIN rounds r ON r.id = t.round_id
	           WHERE t.user_id = ? AND r.activity_id = ?
	           LIMIT 1`
	var t model.Ticket
	err := r.db.QueryRowContext(ctx, q, userID, activityID).Scan(
		&t.ID, &t.Code, &t.RoundID, &t.UserID, &t.Checked, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Remove deletes a ticket row.  ErrTicketNotFound is returned when the
// ticket is already gone, which lets a second cancel of the same ticket
// fail cleanly.
func (r *TicketRepo) Remove(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tickets WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTicketNotFound
	}
	return nil
}

// MarkChecked flips the ticket's checked flag to true and returns the
// updated row.  The operation is idempotent: marking an already-checked
// ticket succeeds without further effect.
func (r *TicketRepo) MarkChecked(ctx context.Context, id uint64) (*model.Ticket, error) {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE tickets SET checked = 1 WHERE id = ?`, id); err != nil {
		return nil, err
	}
	// RowsAffected is 0 both for a missing ticket and for a no-op update,
	// so fetch the row to tell them apart.
	return r.GetByID(ctx, id)
}

// TicketDetail is the joined view returned to visitors listing their own
// tickets: the ticket plus round and activity context.
type TicketDetail struct {
	ID           uint64    `json:"id"`
	Code         string    `json:"code"`
	Checked      bool      `json:"checked"`
	RoundID      uint64    `json:"round_id"`
	RoundName    string    `json:"round_name"`
	StartsAt     time.Time `json:"starts_at"`
	EndsAt       time.Time `json:"ends_at"`
	ActivityID   uint64    `json:"activity_id"`
	ActivityName string    `json:"activity_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListByUser returns all of the user's tickets with round and activity
// details, newest first.  When no tickets exist an empty slice is
// returned.
func (r *TicketRepo) ListByUser(ctx context.Context, userID uint64) ([]TicketDetail, error) {
	const q = `SELECT t.id, t.code, t.checked,
	                  r.id, r.name, r.starts_at, r.ends_at,
	                  a.id, a.name, t.created_at
	           FROM tickets t
	           JOIN rounds r ON r.id = t.round_id
	           JOIN activities a ON a.id = r.activity_id
	           WHERE t.user_id = ?
	           ORDER BY t.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]TicketDetail, 0)
	for rows.Next() {
		var d TicketDetail
		if err := rows.Scan(&d.ID, &d.Code, &d.Checked,
			&d.RoundID, &d.RoundName, &d.StartsAt, &d.EndsAt,
			&d.ActivityID, &d.ActivityName, &d.CreatedAt); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}
