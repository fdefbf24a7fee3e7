package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// BookingStatus is the lifecycle state of a booking. The zero value means
// "not set" and is never persisted.
type BookingStatus int

const (
	StatusPending BookingStatus = iota + 1
	StatusApproved
	StatusRejected
	StatusCancelled
)

var bookingStatusNames = map[BookingStatus]string{
	StatusPending:   "Pending",
	StatusApproved:  "Approved",
	StatusRejected:  "Rejected",
	StatusCancelled: "Cancelled",
}

func BookingStatuses() []BookingStatus {
	return []BookingStatus{StatusPending, StatusApproved, StatusRejected, StatusCancelled}
}

func (s BookingStatus) String() string {
	if name, ok := bookingStatusNames[s]; ok {
		return name
	}
	return ""
}

func (s BookingStatus) IsValid() bool {
	_, ok := bookingStatusNames[s]
	return ok
}

// IsActive reports whether a booking in this status occupies its room.
// It agrees with ActiveStatuses: anything but Pending or Approved is inactive.
func (s BookingStatus) IsActive() bool {
	return s == StatusPending || s == StatusApproved
}

func ParseBookingStatus(name string) (BookingStatus, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return 0, nil
	}
	for status, statusName := range bookingStatusNames {
		if strings.EqualFold(statusName, trimmed) {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown booking status %q", name)
}

func (s BookingStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *BookingStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("booking status must be a string: %w", err)
	}
	parsed, err := ParseBookingStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s BookingStatus) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(s.String())
}

func (s *BookingStatus) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	var name string
	if err := (bson.RawValue{Type: t, Value: data}).Unmarshal(&name); err != nil {
		return fmt.Errorf("booking status must be a string: %w", err)
	}
	parsed, err := ParseBookingStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s BookingStatus) Value() (driver.Value, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("invalid booking status %d", int(s))
	}
	return s.String(), nil
}

func (s *BookingStatus) Scan(src any) error {
	var name string
	switch v := src.(type) {
	case string:
		name = v
	case []byte:
		name = string(v)
	default:
		return fmt.Errorf("cannot scan %T into BookingStatus", src)
	}
	parsed, err := ParseBookingStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ActiveStatuses lists the statuses that occupy a room.
func ActiveStatuses() []BookingStatus {
	var active []BookingStatus
	for _, s := range BookingStatuses() {
		if s.IsActive() {
			active = append(active, s)
		}
	}
	return active
}

func ActiveStatusNames() []string {
	var names []string
	for _, s := range ActiveStatuses() {
		names = append(names, s.String())
	}
	return names
}
