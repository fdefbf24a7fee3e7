// Package calendar renders bookings as events for a day-view calendar.
package calendar

import (
	"time"

	"roombook/pkg/model"
)

// TimeLayout is the local wall-clock layout used for event start and end.
const TimeLayout = "2006-01-02T15:04:05"

const (
	ColorApproved = "#28a745"
	ColorPending  = "#ffc107"
	ColorRejected = "#dc3545"
	ColorDefault  = "#6c757d"
)

func Color(status model.BookingStatus) string {
	switch status {
	case model.StatusApproved:
		return ColorApproved
	case model.StatusPending:
		return ColorPending
	case model.StatusRejected:
		return ColorRejected
	case model.StatusCancelled:
		return ColorDefault
	default:
		return ColorDefault
	}
}

// Day returns the UTC bounds [from, to) of the calendar day containing date
// in loc.
func Day(date time.Time, loc *time.Location) (from, to time.Time) {
	local := date.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}

// Events converts bookings to calendar events in input order. Room names are
// looked up in rooms; bookings of unknown rooms get an empty name.
func Events(bookings []*model.Booking, rooms map[string]*model.Room, loc *time.Location) []model.CalendarEvent {
	events := make([]model.CalendarEvent, 0, len(bookings))
	for _, b := range bookings {
		var roomName string
		if room, ok := rooms[b.RoomID]; ok && room != nil {
			roomName = room.Name
		}
		events = append(events, model.CalendarEvent{
			ID:              b.ID,
			Title:           b.Title,
			RoomID:          b.RoomID,
			RoomName:        roomName,
			Start:           b.StartTime.In(loc).Format(TimeLayout),
			End:             b.EndTime.In(loc).Format(TimeLayout),
			BookedBy:        b.BookedBy,
			Status:          b.Status.String(),
			BackgroundColor: Color(b.Status),
		})
	}
	return events
}

// RoomIDs returns the distinct room ids referenced by bookings.
func RoomIDs(bookings []*model.Booking) []string {
	seen := make(map[string]struct{}, len(bookings))
	ids := make([]string, 0, len(bookings))
	for _, b := range bookings {
		if _, ok := seen[b.RoomID]; ok {
			continue
		}
		seen[b.RoomID] = struct{}{}
		ids = append(ids, b.RoomID)
	}
	return ids
}
