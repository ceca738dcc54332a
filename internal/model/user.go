package model

import "time"

// User represents an application user record as stored in the `users`
// table.  Roles are plain strings: VISITOR for attendees reserving seats
// and STAFF for organizers who run check-in scanners and manage
// activities and rounds.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// ReservationEntry is a row in the `user_reservations` table: the
// per-user list of reserved rounds, appended as the final step of a
// successful reservation and removed on cancellation.  It references the
// ticket by identity only.
type ReservationEntry struct {
	ID        uint64    // user_reservations.id
	UserID    uint64    // user_reservations.user_id
	TicketID  uint64    // user_reservations.ticket_id
	RoundID   uint64    // user_reservations.round_id
	CreatedAt time.Time // user_reservations.created_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user; only the SHA-256 hash of the raw
// token is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
