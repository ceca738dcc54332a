package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/expohall/expo-reservation/internal/model"
	"github.com/expohall/expo-reservation/internal/queue"
	"github.com/expohall/expo-reservation/internal/repository"
)

// MockLedger mocks the round ledger.
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) GetByID(ctx context.Context, id uint64) (*model.Round, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Round), args.Error(1)
}

func (m *MockLedger) TryReserve(ctx context.Context, roundID uint64) error {
	return m.Called(ctx, roundID).Error(0)
}

func (m *MockLedger) Release(ctx context.Context, roundID uint64) error {
	return m.Called(ctx, roundID).Error(0)
}

// MockTickets mocks the ticket store.
type MockTickets struct {
	mock.Mock
}

func (m *MockTickets) Create(ctx context.Context, userID, roundID uint64) (*model.Ticket, error) {
	args := m.Called(ctx, userID, roundID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *MockTickets) GetByID(ctx context.Context, id uint64) (*model.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *MockTickets) Remove(ctx context.Context, id uint64) error {
	return m.Called(ctx, id).Error(0)
}

// MockUsers mocks the user store.
type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) Exists(ctx context.Context, id uint64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsers) AppendReservation(ctx context.Context, userID, ticketID, roundID uint64) error {
	return m.Called(ctx, userID, ticketID, roundID).Error(0)
}

func (m *MockUsers) RemoveReservationByTicket(ctx context.Context, ticketID uint64) error {
	return m.Called(ctx, ticketID).Error(0)
}

// MockEvents mocks the broker publisher.
type MockEvents struct {
	mock.Mock
}

func (m *MockEvents) PublishTicketReserved(ctx context.Context, ev queue.TicketReservedEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *MockEvents) PublishCheckIn(ctx context.Context, ev queue.CheckInEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func newReserveFixture() (*MockLedger, *MockTickets, *MockUsers, *ReservationService) {
	rounds := new(MockLedger)
	tickets := new(MockTickets)
	users := new(MockUsers)
	svc := NewReservationService(rounds, tickets, users, nil)
	return rounds, tickets, users, svc
}

func TestReserveSuccess(t *testing.T) {
	rounds, tickets, users, svc := newReserveFixture()

	round := &model.Round{ID: 7, ActivityID: 3, Capacity: 10, Reserved: 4}
	ticket := &model.Ticket{ID: 11, Code: "c0ffee", RoundID: 7, UserID: 42}

	rounds.On("GetByID", mock.Anything, uint64(7)).Return(round, nil)
	users.On("Exists", mock.Anything, uint64(42)).Return(true, nil)
	rounds.On("TryReserve", mock.Anything, uint64(7)).Return(nil)
	tickets.On("Create", mock.Anything, uint64(42), uint64(7)).Return(ticket, nil)
	users.On("AppendReservation", mock.Anything, uint64(42), uint64(11), uint64(7)).Return(nil)

	got, err := svc.Reserve(context.Background(), 42, 7)
	require.NoError(t, err)
	assert.Equal(t, ticket, got)
	rounds.AssertExpectations(t)
	tickets.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestReserveRoundNotFound(t *testing.T) {
	rounds, _, _, svc := newReserveFixture()
	rounds.On("GetByID", mock.Anything, uint64(99)).Return(nil, repository.ErrRoundNotFound)

	_, err := svc.Reserve(context.Background(), 42, 99)
	assert.ErrorIs(t, err, repository.ErrRoundNotFound)
}

func TestReserveUserNotFound(t *testing.T) {
	rounds, _, users, svc := newReserveFixture()
	rounds.On("GetByID", mock.Anything, uint64(7)).Return(&model.Round{ID: 7, Capacity: 10}, nil)
	users.On("Exists", mock.Anything, uint64(42)).Return(false, nil)

	_, err := svc.Reserve(context.Background(), 42, 7)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestReserveSeatsFull(t *testing.T) {
	rounds, tickets, users, svc := newReserveFixture()
	rounds.On("GetByID", mock.Anything, uint64(7)).Return(&model.Round{ID: 7, Capacity: 1, Reserved: 1}, nil)
	users.On("Exists", mock.Anything, uint64(42)).Return(true, nil)
	rounds.On("TryReserve", mock.Anything, uint64(7)).Return(repository.ErrSeatsFull)

	_, err := svc.Reserve(context.Background(), 42, 7)
	assert.ErrorIs(t, err, repository.ErrSeatsFull)
	tickets.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestReserveDuplicateReleasesSeat(t *testing.T) {
	rounds, tickets, users, svc := newReserveFixture()
	rounds.On("GetByID", mock.Anything, uint64(7)).Return(&model.Round{ID: 7, Capacity: 10}, nil)
	users.On("Exists", mock.Anything, uint64(42)).Return(true, nil)
	rounds.On("TryReserve", mock.Anything, uint64(7)).Return(nil)
	tickets.On("Create", mock.Anything, uint64(42), uint64(7)).Return(nil, repository.ErrDuplicateTicket)
	rounds.On("Release", mock.Anything, uint64(7)).Return(nil)

	_, err := svc.Reserve(context.Background(), 42, 7)
	assert.ErrorIs(t, err, ErrAlreadyReserved)
	rounds.AssertCalled(t, "Release", mock.Anything, uint64(7))
}

func TestReserveDuplicateReleaseFailure(t *testing.T) {
	rounds, tickets, users, svc := newReserveFixture()
	rounds.On("GetByID", mock.Anything, uint64(7)).Return(&model.Round{ID: 7, Capacity: 10}, nil)
	users.On("Exists", mock.Anything, uint64(42)).Return(true, nil)
	rounds.On("TryReserve", mock.Anything, uint64(7)).Return(nil)
	tickets.On("Create", mock.Anything, uint64(42), uint64(7)).Return(nil, repository.ErrDuplicateTicket)
	rounds.On("Release", mock.Anything, uint64(7)).Return(errors.New("redis on fire"))

	_, err := svc.Reserve(context.Background(), 42, 7)
	var ise *InconsistentStateError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, "reserve", ise.Op)
	assert.Equal(t, uint64(7), ise.RoundID)
}

func TestReserveAppendFailureCompensates(t *testing.T) {
	rounds, tickets, users, svc := newReserveFixture()
	ticket := &model.Ticket{ID: 11, RoundID: 7, UserID: 42}
	rounds.On("GetByID", mock.Anything, uint64(7)).Return(&model.Round{ID: 7, Capacity: 10}, nil)
	users.On("Exists", mock.Anything, uint64(42)).Return(true, nil)
	rounds.On("TryReserve", mock.Anything, uint64(7)).Return(nil)
	tickets.On("Create", mock.Anything, uint64(42), uint64(7)).Return(ticket, nil)
	users.On("AppendReservation", mock.Anything, uint64(42), uint64(11), uint64(7)).Return(errors.New("disk full"))
	tickets.On("Remove", mock.Anything, uint64(11)).Return(nil)
	rounds.On("Release", mock.Anything, uint64(7)).Return(nil)

	_, err := svc.Reserve(context.Background(), 42, 7)
	assert.ErrorIs(t, err, ErrPersistence)
	tickets.AssertCalled(t, "Remove", mock.Anything, uint64(11))
	rounds.AssertCalled(t, "Release", mock.Anything, uint64(7))
}

func TestReserveCompensationFailureEscalates(t *testing.T) {
	rounds, tickets, users, svc := newReserveFixture()
	ticket := &model.Ticket{ID: 11, RoundID: 7, UserID: 42}
	rounds.On("GetByID", mock.Anything, uint64(7)).Return(&model.Round{ID: 7, Capacity: 10}, nil)
	users.On("Exists", mock.Anything, uint64(42)).Return(true, nil)
	rounds.On("TryReserve", mock.Anything, uint64(7)).Return(nil)
	tickets.On("Create", mock.Anything, uint64(42), uint64(7)).Return(ticket, nil)
	users.On("AppendReservation", mock.Anything, uint64(42), uint64(11), uint64(7)).Return(errors.New("disk full"))
	tickets.On("Remove", mock.Anything, uint64(11)).Return(errors.New("still down"))
	rounds.On("Release", mock.Anything, uint64(7)).Return(nil)

	_, err := svc.Reserve(context.Background(), 42, 7)
	var ise *InconsistentStateError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, uint64(11), ise.TicketID)
}

func TestReservePublishFailureIgnored(t *testing.T) {
	rounds := new(MockLedger)
	tickets := new(MockTickets)
	users := new(MockUsers)
	events := new(MockEvents)
	svc := NewReservationService(rounds, tickets, users, events)

	ticket := &model.Ticket{ID: 11, Code: "abc", RoundID: 7, UserID: 42}
	rounds.On("GetByID", mock.Anything, uint64(7)).Return(&model.Round{ID: 7, Capacity: 10}, nil)
	users.On("Exists", mock.Anything, uint64(42)).Return(true, nil)
	rounds.On("TryReserve", mock.Anything, uint64(7)).Return(nil)
	tickets.On("Create", mock.Anything, uint64(42), uint64(7)).Return(ticket, nil)
	users.On("AppendReservation", mock.Anything, uint64(42), uint64(11), uint64(7)).Return(nil)
	events.On("PublishTicketReserved", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	got, err := svc.Reserve(context.Background(), 42, 7)
	require.NoError(t, err)
	assert.Equal(t, ticket, got)
}

func TestCancelByOwner(t *testing.T) {
	rounds, tickets, users, svc := newReserveFixture()
	ticket := &model.Ticket{ID: 11, RoundID: 7, UserID: 42}
	tickets.On("GetByID", mock.Anything, uint64(11)).Return(ticket, nil)
	rounds.On("Release", mock.Anything, uint64(7)).Return(nil)
	users.On("RemoveReservationByTicket", mock.Anything, uint64(11)).Return(nil)
	tickets.On("Remove", mock.Anything, uint64(11)).Return(nil)

	err := svc.Cancel(context.Background(), 11, 42, false)
	require.NoError(t, err)
	rounds.AssertCalled(t, "Release", mock.Anything, uint64(7))
}

func TestCancelByStrangerForbidden(t *testing.T) {
	rounds, tickets, _, svc := newReserveFixture()
	ticket := &model.Ticket{ID: 11, RoundID: 7, UserID: 42}
	tickets.On("GetByID", mock.Anything, uint64(11)).Return(ticket, nil)

	err := svc.Cancel(context.Background(), 11, 43, false)
	assert.ErrorIs(t, err, repository.ErrForbidden)
	rounds.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
}

func TestCancelByStaffOverridesOwnership(t *testing.T) {
	rounds, tickets, users, svc := newReserveFixture()
	ticket := &model.Ticket{ID: 11, RoundID: 7, UserID: 42}
	tickets.On("GetByID", mock.Anything, uint64(11)).Return(ticket, nil)
	rounds.On("Release", mock.Anything, uint64(7)).Return(nil)
	users.On("RemoveReservationByTicket", mock.Anything, uint64(11)).Return(nil)
	tickets.On("Remove", mock.Anything, uint64(11)).Return(nil)

	err := svc.Cancel(context.Background(), 11, 1, true)
	assert.NoError(t, err)
}

func TestCancelContinuesOnUnderflow(t *testing.T) {
	rounds, tickets, users, svc := newReserveFixture()
	ticket := &model.Ticket{ID: 11, RoundID: 7, UserID: 42}
	tickets.On("GetByID", mock.Anything, uint64(11)).Return(ticket, nil)
	rounds.On("Release", mock.Anything, uint64(7)).Return(repository.ErrSeatUnderflow)
	users.On("RemoveReservationByTicket", mock.Anything, uint64(11)).Return(nil)
	tickets.On("Remove", mock.Anything, uint64(11)).Return(nil)

	err := svc.Cancel(context.Background(), 11, 42, false)
	assert.NoError(t, err)
	tickets.AssertCalled(t, "Remove", mock.Anything, uint64(11))
}

func TestCancelRemoveFailureEscalates(t *testing.T) {
	rounds, tickets, users, svc := newReserveFixture()
	ticket := &model.Ticket{ID: 11, RoundID: 7, UserID: 42}
	tickets.On("GetByID", mock.Anything, uint64(11)).Return(ticket, nil)
	rounds.On("Release", mock.Anything, uint64(7)).Return(nil)
	users.On("RemoveReservationByTicket", mock.Anything, uint64(11)).Return(nil)
	tickets.On("Remove", mock.Anything, uint64(11)).Return(errors.New("gone away"))

	err := svc.Cancel(context.Background(), 11, 42, false)
	var ise *InconsistentStateError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, "cancel", ise.Op)
}

// ----- concurrency property -----

// fakeLedger is an in-memory ledger with the same admission semantics as
// the SQL conditional update.
type fakeLedger struct {
	mu       sync.Mutex
	capacity uint32
	reserved uint32
}

func (f *fakeLedger) GetByID(ctx context.Context, id uint64) (*model.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &model.Round{ID: id, Capacity: f.capacity, Reserved: f.reserved}, nil
}

func (f *fakeLedger) TryReserve(ctx context.Context, roundID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reserved >= f.capacity {
		return repository.ErrSeatsFull
	}
	f.reserved++
	return nil
}

func (f *fakeLedger) Release(ctx context.Context, roundID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reserved == 0 {
		return repository.ErrSeatUnderflow
	}
	f.reserved--
	return nil
}

type fakeTickets struct {
	mu   sync.Mutex
	next uint64
}

func (f *fakeTickets) Create(ctx context.Context, userID, roundID uint64) (*model.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	return &model.Ticket{ID: f.next, RoundID: roundID, UserID: userID}, nil
}

func (f *fakeTickets) GetByID(ctx context.Context, id uint64) (*model.Ticket, error) {
	return nil, repository.ErrTicketNotFound
}

func (f *fakeTickets) Remove(ctx context.Context, id uint64) error { return nil }

type fakeUsers struct{}

func (fakeUsers) Exists(ctx context.Context, id uint64) (bool, error) { return true, nil }
func (fakeUsers) AppendReservation(ctx context.Context, userID, ticketID, roundID uint64) error {
	return nil
}
func (fakeUsers) RemoveReservationByTicket(ctx context.Context, ticketID uint64) error { return nil }

// Fifty users race for twelve seats; exactly twelve must win and the
// ledger must end exactly full.
func TestReserveConcurrentAdmitsAtMostCapacity(t *testing.T) {
	const seats = 12
	const contenders = 50

	ledger := &fakeLedger{capacity: seats}
	svc := NewReservationService(ledger, &fakeTickets{}, fakeUsers{}, nil)

	var wg sync.WaitGroup
	results := make(chan error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(uid uint64) {
			defer wg.Done()
			_, err := svc.Reserve(context.Background(), uid, 1)
			results <- err
		}(uint64(i + 1))
	}
	wg.Wait()
	close(results)

	won, full := 0, 0
	for err := range results {
		switch {
		case err == nil:
			won++
		case errors.Is(err, repository.ErrSeatsFull):
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, seats, won)
	assert.Equal(t, contenders-seats, full)
	assert.Equal(t, uint32(seats), ledger.reserved)
}

// Last seat changing hands: cancel frees it and the next visitor gets it.
func TestReserveAfterCancelOnFullRound(t *testing.T) {
	ledger := &fakeLedger{capacity: 1}
	tickets := &fakeTickets{}
	svc := NewReservationService(ledger, tickets, fakeUsers{}, nil)

	first, err := svc.Reserve(context.Background(), 1, 1)
	require.NoError(t, err)

	_, err = svc.Reserve(context.Background(), 2, 1)
	require.ErrorIs(t, err, repository.ErrSeatsFull)

	// Cancel through the ledger directly: the fake ticket store cannot
	// look tickets up by id.
	require.NoError(t, ledger.Release(context.Background(), first.RoundID))

	_, err = svc.Reserve(context.Background(), 2, 1)
	assert.NoError(t, err)
}
