package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/expohall/expo-reservation/internal/model"
	"github.com/expohall/expo-reservation/internal/queue"
	"github.com/expohall/expo-reservation/internal/repository"
)

// RoundLedger is the slice of RoundRepo the reservation saga needs: the
// atomic admission primitive and its inverse.
type RoundLedger interface {
	GetByID(ctx context.Context, id uint64) (*model.Round, error)
	TryReserve(ctx context.Context, roundID uint64) error
	Release(ctx context.Context, roundID uint64) error
}

// TicketStore is the slice of TicketRepo the saga needs.
type TicketStore interface {
	Create(ctx context.Context, userID, roundID uint64) (*model.Ticket, error)
	GetByID(ctx context.Context, id uint64) (*model.Ticket, error)
	Remove(ctx context.Context, id uint64) error
}

// UserStore covers user existence and the per-user reservation list.
type UserStore interface {
	Exists(ctx context.Context, id uint64) (bool, error)
	AppendReservation(ctx context.Context, userID, ticketID, roundID uint64) error
	RemoveReservationByTicket(ctx context.Context, ticketID uint64) error
}

// EventPublisher emits domain events after a saga commits. Publishing is
// best-effort; a nil publisher disables it.
type EventPublisher interface {
	PublishTicketReserved(ctx context.Context, ev queue.TicketReservedEvent) error
	PublishCheckIn(ctx context.Context, ev queue.CheckInEvent) error
}

// ReservationService composes the seat ledger, the ticket store and the
// user reservation list into one logical transaction per operation.
// Each step either commits or is compensated; a compensation that
// itself fails escalates as InconsistentStateError for operator
// attention instead of being retried.
type ReservationService struct {
	rounds  RoundLedger
	tickets TicketStore
	users   UserStore
	events  EventPublisher
}

// NewReservationService wires the saga's dependencies. events may be nil
// when no broker is configured.
func NewReservationService(rounds RoundLedger, tickets TicketStore, users UserStore, events EventPublisher) *ReservationService {
	if rounds == nil || tickets == nil || users == nil {
		panic("nil dependency passed to NewReservationService")
	}
	return &ReservationService{rounds: rounds, tickets: tickets, users: users, events: events}
}

// Reserve takes one seat on the round for the user and issues a ticket.
//
// Step order matters: the seat is taken first, so every later failure
// has a single well-defined compensation (release the seat, and once a
// ticket exists, remove it too). The reverse order would leave a window
// where a ticket exists without a seat.
//
// Errors: repository.ErrRoundNotFound / ErrUserNotFound when either
// party is absent, repository.ErrSeatsFull when the round is at
// capacity, ErrAlreadyReserved when the user already holds a ticket for
// the round.
func (s *ReservationService) Reserve(ctx context.Context, userID, roundID uint64) (*model.Ticket, error) {
	round, err := s.rounds.GetByID(ctx, roundID)
	if err != nil {
		return nil, err
	}
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: user lookup: %v", ErrPersistence, err)
	}
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	// Step 1: take the seat. The conditional update in the ledger makes
	// this safe under concurrency; from here on we own one seat and must
	// either finish or give it back.
	if err := s.rounds.TryReserve(ctx, round.ID); err != nil {
		return nil, err
	}

	// Step 2: issue the ticket.
	ticket, err := s.tickets.Create(ctx, userID, round.ID)
	if err != nil {
		if relErr := s.rounds.Release(ctx, round.ID); relErr != nil {
			ise := &InconsistentStateError{Op: "reserve", RoundID: round.ID, UserID: userID, Err: relErr}
			log.Printf("reservation: %v", ise)
			return nil, ise
		}
		if errors.Is(err, repository.ErrDuplicateTicket) {
			return nil, ErrAlreadyReserved
		}
		return nil, fmt.Errorf("%w: create ticket: %v", ErrPersistence, err)
	}

	// Step 3: append to the user's reservation list.
	if err := s.users.AppendReservation(ctx, userID, ticket.ID, round.ID); err != nil {
		remErr := s.tickets.Remove(ctx, ticket.ID)
		relErr := s.rounds.Release(ctx, round.ID)
		if remErr != nil || relErr != nil {
			ise := &InconsistentStateError{
				Op: "reserve", RoundID: round.ID, UserID: userID, TicketID: ticket.ID,
				Err: errors.Join(remErr, relErr),
			}
			log.Printf("reservation: %v", ise)
			return nil, ise
		}
		return nil, fmt.Errorf("%w: append reservation entry: %v", ErrPersistence, err)
	}

	if s.events != nil {
		ev := queue.TicketReservedEvent{
			TicketID:   ticket.ID,
			TicketCode: ticket.Code,
			UserID:     userID,
			RoundID:    round.ID,
			ReservedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if err := s.events.PublishTicketReserved(ctx, ev); err != nil {
			log.Printf("reservation: publish ticket.reserved failed (ignored): %v", err)
		}
	}
	return ticket, nil
}

// Cancel voids a ticket, returns its seat to the round and removes the
// user's reservation-list entry. The requester must own the ticket or
// hold the staff capability. Cancelling a checked-in ticket is allowed;
// the attendance log is authoritative and survives.
//
// The seat release commits first. Failures after that point cannot be
// rolled back (re-incrementing would race with live reservations), so
// they are logged and escalated as InconsistentStateError.
func (s *ReservationService) Cancel(ctx context.Context, ticketID, requesterID uint64, staff bool) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return err
	}
	if ticket.UserID != requesterID && !staff {
		return repository.ErrForbidden
	}

	if err := s.rounds.Release(ctx, ticket.RoundID); err != nil {
		switch {
		case errors.Is(err, repository.ErrSeatUnderflow), errors.Is(err, repository.ErrRoundNotFound):
			// The ledger is already off (or the round was deleted out from
			// under us). Removing the ticket is still the right move so the
			// user is not stuck; the condition is logged for reconciliation.
			log.Printf("reservation: cancel ticket=%d round=%d: release reported %v; continuing",
				ticket.ID, ticket.RoundID, err)
		default:
			return fmt.Errorf("%w: release seat: %v", ErrPersistence, err)
		}
	}

	if err := s.users.RemoveReservationByTicket(ctx, ticket.ID); err != nil {
		ise := &InconsistentStateError{Op: "cancel", RoundID: ticket.RoundID, UserID: ticket.UserID, TicketID: ticket.ID, Err: err}
		log.Printf("reservation: %v", ise)
		return ise
	}
	if err := s.tickets.Remove(ctx, ticket.ID); err != nil {
		ise := &InconsistentStateError{Op: "cancel", RoundID: ticket.RoundID, UserID: ticket.UserID, TicketID: ticket.ID, Err: err}
		log.Printf("reservation: %v", ise)
		return ise
	}
	return nil
}
