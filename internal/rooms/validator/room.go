package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"roombook/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

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

type RoomValidator struct {
	validate    *validator.Validate
	maxCapacity int
}

// NewRoomValidator enforces the struct tags of model.Room plus a deployment
// wide capacity ceiling. A non-positive maxCapacity disables the ceiling.
func NewRoomValidator(maxCapacity int) *RoomValidator {
	return &RoomValidator{
		validate:    validator.New(),
		maxCapacity: maxCapacity,
	}
}

func (v *RoomValidator) Validate(room *model.Room) error {
	if err := v.validate.Struct(room); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}

	if err := v.validateBusinessRules(room); err != nil {
		return err
	}
	return nil
}

func (v *RoomValidator) validateBusinessRules(room *model.Room) error {
	if v.maxCapacity > 0 && room.Capacity > v.maxCapacity {
		return ValidationErrors{{
			Field:   "Capacity",
			Message: fmt.Sprintf("Capacity must be at most %d", v.maxCapacity),
		}}
	}
	if room.FloorNumber < 0 {
		return ValidationErrors{{Field: "FloorNumber", Message: "FloorNumber cannot be negative"}}
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
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
