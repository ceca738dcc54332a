package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/expohall/expo-reservation/internal/model"
	"github.com/expohall/expo-reservation/internal/utils"
)

// UserRepo persists user accounts and the per-user reservation list
// (the `user_reservations` table appended to by the reservation saga).
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// Create inserts user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role) VALUES (?,?,?)",
		email, hash, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,role,is_active,created_at,updated_at FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,role,is_active,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Exists reports whether an active user row exists for the id.
func (r *UserRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM users WHERE id=? AND is_active=1 LIMIT 1", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// AppendReservation records the ticket in the user's reservation list.
// This is the final step of the reservation saga.
func (r *UserRepo) AppendReservation(ctx context.Context, userID, ticketID, roundID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO user_reservations (user_id, ticket_id, round_id) VALUES (?,?,?)",
		userID, ticketID, roundID)
	return err
}

// RemoveReservationByTicket deletes the reservation-list entry that
// references the ticket.  A missing entry is not an error: cancellation
// must be able to clean up a partially-applied reservation whose list
// append never committed.
func (r *UserRepo) RemoveReservationByTicket(ctx context.Context, ticketID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM user_reservations WHERE ticket_id=?", ticketID)
	return err
}
