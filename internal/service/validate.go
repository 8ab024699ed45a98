package service

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

// phonePattern accepts an optional country prefix (+N to +NNN, optionally
// followed by a space or dash) and exactly ten digits.
var phonePattern = regexp.MustCompile(`^(\+\d{1,3}[- ]?)?\d{10}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	if err := v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return ValidPhone(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// ValidPhone reports whether s is a phone number the booking flow accepts.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(strings.TrimSpace(s))
}

// NormalizeInput trims surrounding whitespace from the free-text fields.
func NormalizeInput(in model.ReservationInput) model.ReservationInput {
	in.VehicleID = strings.TrimSpace(in.VehicleID)
	in.SeatID = strings.TrimSpace(in.SeatID)
	in.PassengerName = strings.TrimSpace(in.PassengerName)
	in.PassengerPhone = strings.TrimSpace(in.PassengerPhone)
	in.BoardingPoint = strings.TrimSpace(in.BoardingPoint)
	in.DroppingPoint = strings.TrimSpace(in.DroppingPoint)
	return in
}

// ValidateInput checks the shape of a reservation request and returns a
// *ValidationError naming the first offending field.
func ValidateInput(in model.ReservationInput) error {
	return fieldError(validate.Struct(in))
}

// ValidateDetails applies the passenger-details rules on their own, for
// flows that collect details before the rest of the request exists.  The
// rules are the ReservationInput tags, so both paths agree.
func ValidateDetails(name, phone string) error {
	in := model.ReservationInput{
		PassengerName:  strings.TrimSpace(name),
		PassengerPhone: strings.TrimSpace(phone),
	}
	return fieldError(validate.StructPartial(in, "PassengerName", "PassengerPhone"))
}

func fieldError(err error) error {
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return &ValidationError{Field: "request", Reason: err.Error()}
	}
	fe := fields[0]
	return &ValidationError{Field: fe.Field(), Tag: fe.Tag(), Reason: reasonFor(fe)}
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "is too long"
	case "phone":
		return "must be 10 digits with an optional country prefix"
	}
	return "failed " + fe.Tag() + " check"
}
