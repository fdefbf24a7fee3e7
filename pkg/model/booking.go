package model

import (
	"time"
)

type Booking struct {
	ID                string        `json:"id,omitempty" bson:"_id,omitempty"`
	RoomID            string        `json:"room_id" bson:"room_id" validate:"required"`
	BookedBy          string        `json:"booked_by" bson:"booked_by" validate:"required,max=100"`
	Email             string        `json:"email" bson:"email" validate:"required,email,max=100"`
	ContactNumber     string        `json:"contact_number" bson:"contact_number" validate:"required,max=20,phone"`
	Title             string        `json:"title" bson:"title" validate:"required,max=200"`
	Description       string        `json:"description,omitempty" bson:"description,omitempty" validate:"max=1000"`
	StartTime         time.Time     `json:"start_time" bson:"start_time" validate:"required"`
	EndTime           time.Time     `json:"end_time" bson:"end_time" validate:"required"`
	NumberOfAttendees int           `json:"number_of_attendees" bson:"number_of_attendees" validate:"min=1,max=500"`
	Status            BookingStatus `json:"status,omitempty" bson:"status,omitempty" validate:"omitempty,booking_status"`
	CreatedAt         time.Time     `json:"created_at" bson:"created_at"`
}

// BookingUpdate carries a partial edit. Nil fields keep their stored value.
type BookingUpdate struct {
	RoomID            *string        `json:"room_id,omitempty"`
	BookedBy          *string        `json:"booked_by,omitempty"`
	Email             *string        `json:"email,omitempty"`
	ContactNumber     *string        `json:"contact_number,omitempty"`
	Title             *string        `json:"title,omitempty"`
	Description       *string        `json:"description,omitempty"`
	StartTime         *time.Time     `json:"start_time,omitempty"`
	EndTime           *time.Time     `json:"end_time,omitempty"`
	NumberOfAttendees *int           `json:"number_of_attendees,omitempty"`
	Status            *BookingStatus `json:"status,omitempty"`
}

// Merge returns a copy of b with every non-nil field of the update applied.
func (u *BookingUpdate) Merge(b *Booking) *Booking {
	merged := *b
	if u.RoomID != nil {
		merged.RoomID = *u.RoomID
	}
	if u.BookedBy != nil {
		merged.BookedBy = *u.BookedBy
	}
	if u.Email != nil {
		merged.Email = *u.Email
	}
	if u.ContactNumber != nil {
		merged.ContactNumber = *u.ContactNumber
	}
	if u.Title != nil {
		merged.Title = *u.Title
	}
	if u.Description != nil {
		merged.Description = *u.Description
	}
	if u.StartTime != nil {
		merged.StartTime = *u.StartTime
	}
	if u.EndTime != nil {
		merged.EndTime = *u.EndTime
	}
	if u.NumberOfAttendees != nil {
		merged.NumberOfAttendees = *u.NumberOfAttendees
	}
	if u.setsStatus() {
		merged.Status = *u.Status
	}
	return &merged
}

// An empty status string decodes to the zero status, which keeps the stored one.
func (u *BookingUpdate) setsStatus() bool {
	return u.Status != nil && *u.Status != 0
}

func (u *BookingUpdate) IsEmpty() bool {
	return u.RoomID == nil && u.BookedBy == nil && u.Email == nil && u.ContactNumber == nil &&
		u.Title == nil && u.Description == nil && u.StartTime == nil && u.EndTime == nil &&
		u.NumberOfAttendees == nil && !u.setsStatus()
}

// Availability answers whether a room is free for an interval.
type Availability struct {
	RoomID    string    `json:"room_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	ExcludeID string    `json:"exclude_id,omitempty"`
	Available bool      `json:"available"`
}

// CalendarEvent is one booking rendered for a calendar widget.
type CalendarEvent struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	RoomID          string `json:"room_id"`
	RoomName        string `json:"room_name"`
	Start           string `json:"start"`
	End             string `json:"end"`
	BookedBy        string `json:"booked_by"`
	Status          string `json:"status"`
	BackgroundColor string `json:"background_color"`
}

type DashboardStats struct {
	TotalRooms       int64 `json:"total_rooms"`
	TotalBookings    int64 `json:"total_bookings"`
	TodayBookings    int64 `json:"today_bookings"`
	UpcomingBookings int64 `json:"upcoming_bookings"`
}
