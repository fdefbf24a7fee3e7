package model

import "time"

type Room struct {
	ID                 string    `json:"id,omitempty" bson:"_id,omitempty"`
	Name               string    `json:"name" bson:"name" validate:"required,max=100"`
	Description        string    `json:"description,omitempty" bson:"description,omitempty" validate:"max=500"`
	Capacity           int       `json:"capacity" bson:"capacity" validate:"min=1,max=500"`
	HasProjector       bool      `json:"has_projector" bson:"has_projector"`
	HasVideoConference bool      `json:"has_video_conference" bson:"has_video_conference"`
	FloorNumber        int       `json:"floor_number" bson:"floor_number"`
	RoomNumber         string    `json:"room_number,omitempty" bson:"room_number,omitempty" validate:"max=20"`
	CreatedAt          time.Time `json:"created_at" bson:"created_at"`
}

type RoomUpdate struct {
	Name               *string `json:"name,omitempty"`
	Description        *string `json:"description,omitempty"`
	Capacity           *int    `json:"capacity,omitempty"`
	HasProjector       *bool   `json:"has_projector,omitempty"`
	HasVideoConference *bool   `json:"has_video_conference,omitempty"`
	FloorNumber        *int    `json:"floor_number,omitempty"`
	RoomNumber         *string `json:"room_number,omitempty"`
}

func (u *RoomUpdate) Merge(r *Room) *Room {
	merged := *r
	if u.Name != nil {
		merged.Name = *u.Name
	}
	if u.Description != nil {
		merged.Description = *u.Description
	}
	if u.Capacity != nil {
		merged.Capacity = *u.Capacity
	}
	if u.HasProjector != nil {
		merged.HasProjector = *u.HasProjector
	}
	if u.HasVideoConference != nil {
		merged.HasVideoConference = *u.HasVideoConference
	}
	if u.FloorNumber != nil {
		merged.FloorNumber = *u.FloorNumber
	}
	if u.RoomNumber != nil {
		merged.RoomNumber = *u.RoomNumber
	}
	return &merged
}

// RoomCapacity is the lightweight capacity lookup returned to booking forms.
type RoomCapacity struct {
	RoomID   string `json:"room_id"`
	Capacity int    `json:"capacity"`
}

// SeedRooms are the reference rooms created on an empty store.
func SeedRooms() []*Room {
	return []*Room{
		{Name: "Conference Room A", Description: "Large conference room with projector and video conferencing equipment.", Capacity: 20, HasProjector: true, HasVideoConference: true, FloorNumber: 1, RoomNumber: "101"},
		{Name: "Meeting Room B", Description: "Medium-sized meeting room for team discussions.", Capacity: 10, HasProjector: true, HasVideoConference: false, FloorNumber: 1, RoomNumber: "102"},
		{Name: "Board Room", Description: "Executive board room with full A/V equipment.", Capacity: 15, HasProjector: true, HasVideoConference: true, FloorNumber: 2, RoomNumber: "201"},
		{Name: "Small Meeting Room", Description: "Small room for quick meetings and interviews.", Capacity: 6, HasProjector: false, HasVideoConference: false, FloorNumber: 2, RoomNumber: "202"},
	}
}
