// Package availability decides whether a room is free for a time interval.
//
// Intervals are half-open: a booking ending at 10:00 and another starting at
// 10:00 do not conflict. Only active bookings (see model.BookingStatus.IsActive)
// occupy a room.
package availability

import (
	"context"
	"fmt"
	"time"

	"roombook/pkg/model"
)

// Source lists the active bookings of a room that may touch the closed
// window [from, to]. Returning extra bookings is harmless.
type Source interface {
	FindActiveByRoom(ctx context.Context, roomID string, from, to time.Time) ([]*model.Booking, error)
}

// Overlaps reports whether the candidate interval [start, end) conflicts with
// an existing booking [bookedStart, bookedEnd).
//
// The candidate conflicts when it starts inside the booking, ends inside it,
// or covers it entirely. The candidate is not required to be well formed:
// ordering is checked separately, after availability.
func Overlaps(start, end, bookedStart, bookedEnd time.Time) bool {
	startsInside := !start.Before(bookedStart) && start.Before(bookedEnd)
	endsInside := end.After(bookedStart) && !end.After(bookedEnd)
	covers := !start.After(bookedStart) && !end.Before(bookedEnd)
	return startsInside || endsInside || covers
}

// FindConflict returns the first active booking of roomID that overlaps the
// candidate interval, skipping the booking with id excludeID. It returns nil
// when the room is free.
func FindConflict(bookings []*model.Booking, roomID string, start, end time.Time, excludeID string) *model.Booking {
	for _, b := range bookings {
		if b == nil || b.RoomID != roomID {
			continue
		}
		if excludeID != "" && b.ID == excludeID {
			continue
		}
		if !b.Status.IsActive() {
			continue
		}
		if Overlaps(start, end, b.StartTime, b.EndTime) {
			return b
		}
	}
	return nil
}

func IsAvailable(bookings []*model.Booking, roomID string, start, end time.Time, excludeID string) bool {
	return FindConflict(bookings, roomID, start, end, excludeID) == nil
}

// Window returns the smallest closed window a Source must cover so that no
// conflicting booking is missed, even for an inverted candidate.
func Window(start, end time.Time) (from, to time.Time) {
	if end.Before(start) {
		return end, start
	}
	return start, end
}

// Checker evaluates availability against a live booking store.
type Checker struct {
	source Source
}

func NewChecker(source Source) *Checker {
	return &Checker{source: source}
}

func (c *Checker) FindConflict(ctx context.Context, roomID string, start, end time.Time, excludeID string) (*model.Booking, error) {
	from, to := Window(start, end)
	bookings, err := c.source.FindActiveByRoom(ctx, roomID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings for room %s: %w", roomID, err)
	}
	return FindConflict(bookings, roomID, start, end, excludeID), nil
}

func (c *Checker) IsAvailable(ctx context.Context, roomID string, start, end time.Time, excludeID string) (bool, error) {
	conflict, err := c.FindConflict(ctx, roomID, start, end, excludeID)
	if err != nil {
		return false, err
	}
	return conflict == nil, nil
}
