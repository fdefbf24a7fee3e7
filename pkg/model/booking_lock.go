package model

import "time"

// BookingLock is an advisory per-room lock held while a booking for that
// room is validated and written. Expired locks are reaped by a TTL index.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	RoomID    string    `bson:"room_id" json:"room_id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func RoomLockID(roomID string) string {
	return "room:" + roomID
}
