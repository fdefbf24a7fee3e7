package validator

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	roomserrors "roombook/internal/rooms/errors"
	"roombook/pkg/logger"
	"roombook/pkg/model"
	"roombook/pkg/sanitizer"

	"github.com/go-playground/validator/v10"
)

const (
	// GeneralField keys errors that do not belong to a single field.
	GeneralField = ""

	MsgRoomUnavailable = "The room is not available during the selected time."
	MsgEndBeforeStart  = "End time must be after start time."
	msgCapacityFormat  = "The number of attendees exceeds the room capacity (%d)."
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	if v.Field == GeneralField {
		return v.Message
	}
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ValidationErrors is an ordered list of failures. Order is significant.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

func RoomUnavailable() ValidationErrors {
	return ValidationErrors{{Field: GeneralField, Message: MsgRoomUnavailable}}
}

func EndBeforeStart() ValidationErrors {
	return ValidationErrors{{Field: "EndTime", Message: MsgEndBeforeStart}}
}

func CapacityExceeded(capacity int) ValidationErrors {
	return ValidationErrors{{Field: "NumberOfAttendees", Message: fmt.Sprintf(msgCapacityFormat, capacity)}}
}

type AvailabilityChecker interface {
	FindConflict(ctx context.Context, roomID string, start, end time.Time, excludeID string) (*model.Booking, error)
}

type RoomFinder interface {
	FindByID(ctx context.Context, id string) (*model.Room, error)
}

type BookingValidator struct {
	validate     *validator.Validate
	availability AvailabilityChecker
	rooms        RoomFinder
	logger       *logger.Logger
}

func NewBookingValidator(log *logger.Logger, availability AvailabilityChecker, rooms RoomFinder) *BookingValidator {
	v := validator.New()

	if err := v.RegisterValidation("phone", validatePhone); err != nil {
		log.Fatal("Failed to register 'phone' validator", "error", err)
	}
	if err := v.RegisterValidation("booking_status", validateBookingStatus); err != nil {
		log.Fatal("Failed to register 'booking_status' validator", "error", err)
	}

	return &BookingValidator{
		validate:     v,
		availability: availability,
		rooms:        rooms,
		logger:       log,
	}
}

func validatePhone(fl validator.FieldLevel) bool {
	return sanitizer.IsPhone(fl.Field().String())
}

func validateBookingStatus(fl validator.FieldLevel) bool {
	return model.BookingStatus(fl.Field().Int()).IsValid()
}

// Validate runs the full acceptance pipeline for a booking request.
//
// Structural problems are all reported together. After that the checks run
// in a fixed order and stop at the first failure: room availability, time
// ordering, then room capacity. excludeID names the booking being edited so
// that it does not conflict with itself.
//
// A ValidationErrors value means the request was rejected; any other error is
// an infrastructure failure.
func (v *BookingValidator) Validate(ctx context.Context, booking *model.Booking, excludeID string) error {
	if err := v.ValidateStruct(booking); err != nil {
		return err
	}

	conflict, err := v.availability.FindConflict(ctx, booking.RoomID, booking.StartTime, booking.EndTime, excludeID)
	if err != nil {
		return fmt.Errorf("availability check failed: %w", err)
	}
	if conflict != nil {
		v.logger.Debug("Booking rejected: room unavailable",
			"room_id", booking.RoomID,
			"conflicting_booking_id", conflict.ID,
		)
		return RoomUnavailable()
	}

	if !booking.EndTime.After(booking.StartTime) {
		return EndBeforeStart()
	}

	room, err := v.rooms.FindByID(ctx, booking.RoomID)
	if err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) || errors.Is(err, roomserrors.ErrInvalidID) {
			return nil
		}
		return fmt.Errorf("room lookup failed: %w", err)
	}
	if room != nil && booking.NumberOfAttendees > room.Capacity {
		return CapacityExceeded(room.Capacity)
	}

	return nil
}

// ValidateStruct checks field presence, lengths and formats only.
func (v *BookingValidator) ValidateStruct(booking *model.Booking) error {
	if err := v.validate.Struct(booking); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			if err.Kind() == reflect.String {
				message = fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
			} else {
				message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
			}
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "phone":
			message = fmt.Sprintf("%s must be a valid phone number", err.Field())
		case "booking_status":
			message = fmt.Sprintf("%s must be one of: Pending, Approved, Rejected, Cancelled", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
