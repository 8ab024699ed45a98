// Package queue defines message payloads exchanged over the message broker.
package queue

import (
	"time"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

// Event types, also used as routing keys.
const (
	EventBooked    = "reservation.booked"
	EventCancelled = "reservation.cancelled"
	EventCompleted = "reservation.completed"
	EventDeleted   = "reservation.deleted"
)

// ReservationEvent is published whenever a reservation is created or
// changes status.  It contains enough information for downstream
// consumers to log, notify, or refresh seat maps without querying the
// primary database.
type ReservationEvent struct {
	Type          string `json:"type"`
	ReservationID string `json:"reservation_id"`
	VehicleID     string `json:"vehicle_id"`
	VehicleName   string `json:"vehicle_name"`
	ServiceDate   string `json:"service_date"`
	SeatID        string `json:"seat_id"`
	Status        string `json:"status"`
	PartyID       string `json:"party_id,omitempty"`
	OperatorID    string `json:"operator_id"`
	AmountCents   uint32 `json:"amount_cents"`
	OccurredAt    string `json:"occurred_at"`
}

// NewReservationEvent builds the event for r at the given instant.
func NewReservationEvent(eventType string, r model.Reservation, at time.Time) ReservationEvent {
	return ReservationEvent{
		Type:          eventType,
		ReservationID: r.ID,
		VehicleID:     r.VehicleID,
		VehicleName:   r.VehicleName,
		ServiceDate:   r.ServiceDate.String(),
		SeatID:        r.SeatID,
		Status:        string(r.Status),
		PartyID:       r.PartyID,
		OperatorID:    r.OperatorID,
		AmountCents:   r.AmountCents,
		OccurredAt:    at.UTC().Format(time.RFC3339),
	}
}

// EventTypeFor maps a target status to its event type.
func EventTypeFor(s model.Status) string {
	switch s {
	case model.StatusCancelled:
		return EventCancelled
	case model.StatusCompleted:
		return EventCompleted
	}
	return EventBooked
}
