// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between failure scenarios without
// inspecting driver errors. For example, ErrSeatsFull signals that the
// conditional seat increment admitted nobody, while ErrConflict signals
// that an operation cannot proceed due to dependent records (e.g.
// deleting a round that still has active tickets).
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers should translate this into an
// HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state, such as deleting a round with active
// tickets or shrinking capacity below the reserved count. Handlers
// should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrActivityNotFound indicates the referenced activity row is absent.
var ErrActivityNotFound = errors.New("activity not found")

// ErrRoundNotFound indicates the referenced round row is absent.
var ErrRoundNotFound = errors.New("round not found")

// ErrUserNotFound indicates the referenced user row is absent or
// inactive.
var ErrUserNotFound = errors.New("user not found")

// ErrTicketNotFound indicates the referenced ticket row is absent.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrCheckNotFound indicates the referenced attendance row is absent.
var ErrCheckNotFound = errors.New("check not found")

// ErrSeatsFull is returned by RoundRepo.TryReserve when the round exists
// but reserved has already reached capacity. The counter is untouched in
// that case.
var ErrSeatsFull = errors.New("seats full")

// ErrSeatUnderflow is returned by RoundRepo.Release when the reserved
// counter is already zero. The counter is left at zero; callers log the
// condition for reconciliation instead of panicking.
var ErrSeatUnderflow = errors.New("seat counter underflow")

// ErrDuplicateTicket is returned by TicketRepo.Create when an active
// ticket already exists for the same (round, user) pair.
var ErrDuplicateTicket = errors.New("duplicate ticket")
