// Package service implements the reservation and check-in business
// logic on top of the repository layer. Repositories guard single-table
// invariants (atomic seat admission, ticket uniqueness); services
// compose them into multi-step operations with explicit compensations,
// since no cross-table transaction is assumed between the seat ledger,
// the tickets table and the user reservation list.
package service

import (
	"errors"
	"fmt"
)

// ErrAlreadyReserved is returned by Reserve when the user already holds
// an active ticket for the round. The seat taken in the attempt has
// been released before this error is returned.
var ErrAlreadyReserved = errors.New("already reserved")

// ErrPersistence wraps storage failures that were fully compensated:
// the system is consistent, the operation simply did not happen.
var ErrPersistence = errors.New("persistence failure")

// InconsistentStateError reports that a saga step failed after an
// earlier step had committed and compensation could not complete. The
// system needs operator reconciliation; the error carries the
// identifiers required to find the affected rows. It is logged at the
// point of creation and must never be retried automatically; re-running
// a seat release would double-decrement the ledger.
type InconsistentStateError struct {
	Op       string // operation that was interrupted ("reserve", "cancel")
	RoundID  uint64
	UserID   uint64
	TicketID uint64
	Err      error // the failure that could not be compensated
}

func (e *InconsistentStateError) Error() string {
	return fmt.Sprintf("inconsistent state during %s (round=%d user=%d ticket=%d): %v",
		e.Op, e.RoundID, e.UserID, e.TicketID, e.Err)
}

func (e *InconsistentStateError) Unwrap() error { return e.Err }
