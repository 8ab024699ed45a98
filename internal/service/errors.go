package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/repository"
)

// ValidationError reports malformed or missing input.  Field is the JSON
// name of the offending field so clients can re-prompt for it.  Tag names
// the rule that failed when a struct tag produced the error.
type ValidationError struct {
	Field  string
	Tag    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// SeatConflictError reports that the seat was booked by someone else
// between the caller's read and its write.
type SeatConflictError struct {
	VehicleID   string
	ServiceDate model.ServiceDate
	Seat        string
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seat %s on vehicle %s for %s is already booked", e.Seat, e.VehicleID, e.ServiceDate)
}

// NotFoundError reports a lifecycle operation on an unknown reservation.
type NotFoundError struct {
	ReservationID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("reservation %s not found", e.ReservationID)
}

// Unwrap lets errors.Is match repository.ErrReservationNotFound.
func (e *NotFoundError) Unwrap() error { return repository.ErrReservationNotFound }

// InvalidTransitionError reports an illegal status change.  It signals a
// programming error, not something to show to passengers.
type InvalidTransitionError struct {
	From model.Status
	To   model.Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid reservation transition %s -> %s", e.From, e.To)
}

var (
	// ErrNotOwner is returned when a party acts on a reservation it does
	// not own.
	ErrNotOwner = errors.New("reservation belongs to another party")
	// ErrNotCancellable is returned when a booked reservation's service
	// date has fully elapsed.
	ErrNotCancellable = errors.New("reservation can no longer be cancelled")
)

// User-facing messages.  Transient failures get the generic retry text and
// never claim anything about a specific seat.
const (
	MsgSeatTaken     = "this seat was just booked, pick another"
	MsgInvalidPhone  = "enter a valid phone number"
	MsgMissingName   = "enter the passenger name"
	MsgNameTooLong   = "the passenger name is too long"
	MsgRetry         = "something went wrong, please try again"
	MsgCheckBookings = "we could not confirm your booking; check your bookings before trying again"
)

// UserMessage returns the inline message for err.
func UserMessage(err error) string {
	var ve *ValidationError
	var ce *SeatConflictError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ce):
		return MsgSeatTaken
	case errors.As(err, &ve):
		switch ve.Field {
		case "passenger_phone":
			return MsgInvalidPhone
		case "passenger_name":
			if ve.Tag == "max" {
				return MsgNameTooLong
			}
			return MsgMissingName
		}
		return fmt.Sprintf("check the %s field: %s", ve.Field, ve.Reason)
	case errors.Is(err, ErrNotCancellable):
		return "this trip has already departed and can no longer be cancelled"
	}
	return MsgRetry
}
