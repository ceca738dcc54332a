package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/expohall/expo-reservation/internal/model"
	"github.com/expohall/expo-reservation/internal/queue"
	"github.com/expohall/expo-reservation/internal/repository"
)

// DefaultBucketMinutes is the summary bucket width used when the caller
// does not supply one.
const DefaultBucketMinutes = 15

// ActivityStore is the slice of ActivityRepo check-in needs.
type ActivityStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Activity, error)
}

// CheckStore is the slice of ActivityCheckRepo check-in needs.
type CheckStore interface {
	Create(ctx context.Context, activityID, userID, createdBy uint64) (*model.ActivityCheck, error)
	Exists(ctx context.Context, activityID, userID uint64) (bool, error)
	ListTimes(ctx context.Context, activityID uint64) ([]time.Time, error)
}

// TicketFlagger flips the secondary checked flag on a visitor's ticket.
type TicketFlagger interface {
	FindActiveForActivity(ctx context.Context, userID, activityID uint64) (*model.Ticket, error)
	MarkChecked(ctx context.Context, id uint64) (*model.Ticket, error)
}

// CheckInOutcome is returned by CheckIn. Duplicated is true when the
// user had already been checked into the activity; the new record is
// stored either way.
type CheckInOutcome struct {
	Duplicated bool                 `json:"duplicated"`
	Record     *model.ActivityCheck `json:"record"`
}

// TimeBucket is one fixed-width window of the check-in summary.
type TimeBucket struct {
	Start time.Time `json:"start"`
	Count int       `json:"count"`
}

// CheckInService records attendance. It is independent of seat
// accounting: a walk-in without a ticket is checked in exactly like a
// ticket holder, and the attendance log is authoritative over the
// ticket's checked flag.
type CheckInService struct {
	activities ActivityStore
	users      UserStore
	checks     CheckStore
	tickets    TicketFlagger
	events     EventPublisher
}

// NewCheckInService wires the check-in dependencies. events may be nil.
func NewCheckInService(activities ActivityStore, users UserStore, checks CheckStore, tickets TicketFlagger, events EventPublisher) *CheckInService {
	if activities == nil || users == nil || checks == nil || tickets == nil {
		panic("nil dependency passed to NewCheckInService")
	}
	return &CheckInService{activities: activities, users: users, checks: checks, tickets: tickets, events: events}
}

// CheckIn appends an attendance entry for the user at the activity.
// Duplicate check-ins are recorded, not rejected: a repeat only sets
// the Duplicated flag on the outcome. If the user holds a ticket on one
// of the activity's rounds its checked flag is flipped best-effort; a
// failure there is logged and never rolled back, the log entry is the
// authoritative record.
func (s *CheckInService) CheckIn(ctx context.Context, activityID, userID, recordedBy uint64) (*CheckInOutcome, error) {
	if _, err := s.activities.GetByID(ctx, activityID); err != nil {
		return nil, err
	}
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: user lookup: %v", ErrPersistence, err)
	}
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	dup, err := s.checks.Exists(ctx, activityID, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: duplicate probe: %v", ErrPersistence, err)
	}

	rec, err := s.checks.Create(ctx, activityID, userID, recordedBy)
	if err != nil {
		return nil, fmt.Errorf("%w: create check: %v", ErrPersistence, err)
	}

	if ticket, err := s.tickets.FindActiveForActivity(ctx, userID, activityID); err != nil {
		log.Printf("checkin: ticket lookup failed (ignored): %v", err)
	} else if ticket != nil && !ticket.Checked {
		if _, err := s.tickets.MarkChecked(ctx, ticket.ID); err != nil {
			log.Printf("checkin: mark ticket %d checked failed (ignored): %v", ticket.ID, err)
		}
	}

	if s.events != nil {
		ev := queue.CheckInEvent{
			CheckID:    rec.ID,
			ActivityID: activityID,
			UserID:     userID,
			RecordedBy: recordedBy,
			Duplicated: dup,
			CheckedAt:  rec.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := s.events.PublishCheckIn(ctx, ev); err != nil {
			log.Printf("checkin: publish activity.checkin failed (ignored): %v", err)
		}
	}

	return &CheckInOutcome{Duplicated: dup, Record: rec}, nil
}

// Summarize groups the activity's check-in timestamps into fixed-width
// buckets for dashboarding. bucketMinutes <= 0 falls back to
// DefaultBucketMinutes. Only non-empty buckets are returned, ordered by
// start time; bucket starts are aligned by truncating each timestamp to
// the bucket width in UTC.
func (s *CheckInService) Summarize(ctx context.Context, activityID uint64, bucketMinutes int) ([]TimeBucket, error) {
	if _, err := s.activities.GetByID(ctx, activityID); err != nil {
		return nil, err
	}
	if bucketMinutes <= 0 {
		bucketMinutes = DefaultBucketMinutes
	}
	width := time.Duration(bucketMinutes) * time.Minute

	times, err := s.checks.ListTimes(ctx, activityID)
	if err != nil {
		return nil, fmt.Errorf("%w: list checks: %v", ErrPersistence, err)
	}

	counts := make(map[time.Time]int)
	for _, ts := range times {
		counts[ts.UTC().Truncate(width)]++
	}
	buckets := make([]TimeBucket, 0, len(counts))
	for start, n := range counts {
		buckets = append(buckets, TimeBucket{Start: start, Count: n})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Start.Before(buckets[j].Start) })
	return buckets, nil
}
