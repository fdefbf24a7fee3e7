package errors

import "errors"

var (
	ErrNotFound  = errors.New("booking not found")
	ErrInvalidID = errors.New("invalid booking id")
	// ErrTimeConflict is raised by a store that enforces non-overlap itself.
	ErrTimeConflict = errors.New("booking overlaps an existing booking for the room")
	ErrLockHeld     = errors.New("room is locked by another booking request")
	ErrLockExpired  = errors.New("room lock expired before the booking was written")
)
