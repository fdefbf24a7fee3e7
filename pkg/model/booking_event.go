package model

import "time"

const (
	EventBookingCreated = "booking.created"
	EventBookingUpdated = "booking.updated"
	EventBookingDeleted = "booking.deleted"
)

// BookingEvent is published after a booking change is committed.
type BookingEvent struct {
	EventID           string        `json:"event_id" bson:"_id"`
	Type              string        `json:"type" bson:"type"`
	BookingID         string        `json:"booking_id" bson:"booking_id"`
	RoomID            string        `json:"room_id" bson:"room_id"`
	BookedBy          string        `json:"booked_by" bson:"booked_by"`
	Status            BookingStatus `json:"status" bson:"status"`
	StartTime         time.Time     `json:"start_time" bson:"start_time"`
	EndTime           time.Time     `json:"end_time" bson:"end_time"`
	NumberOfAttendees int           `json:"number_of_attendees" bson:"number_of_attendees"`
	OccurredAt        time.Time     `json:"occurred_at" bson:"occurred_at"`
	ReceivedAt        time.Time     `json:"received_at,omitempty" bson:"received_at,omitempty"`
}

func NewBookingEvent(eventType string, b *Booking, occurredAt time.Time) *BookingEvent {
	return &BookingEvent{
		Type:              eventType,
		BookingID:         b.ID,
		RoomID:            b.RoomID,
		BookedBy:          b.BookedBy,
		Status:            b.Status,
		StartTime:         b.StartTime,
		EndTime:           b.EndTime,
		NumberOfAttendees: b.NumberOfAttendees,
		OccurredAt:        occurredAt,
	}
}
