package model

import (
	"sort"
	"time"
)

// Status is the lifecycle state of a reservation.
type Status string

const (
	StatusBooked    Status = "booked"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusBooked, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// ParseStatus converts a query-string value into a Status.
func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	return st, st.Valid()
}

// Reservation records one passenger's seat on one vehicle for one service
// date.  Only reservations in StatusBooked occupy their seat.
//
// Fields:
//  ID             – generated identifier, immutable.
//  VehicleID      – bus the seat belongs to.
//  ServiceDate    – calendar day of travel (not the booking date).
//  SeatID         – seat label produced by the layout generator.
//  PassengerName  – name printed on the ticket.
//  PassengerPhone – contact number.
//  BoardingPoint  – optional pickup label.
//  DroppingPoint  – optional drop label.
//  AmountCents    – fare in minor currency units.
//  Status         – booked, cancelled or completed.
//  PartyID        – authenticated passenger that owns it (empty for guests).
//  OperatorID     – fleet operator that owns the vehicle.
//  VehicleName    – vehicle display name copied at write time.
//  VehicleType    – vehicle display type copied at write time.
//  CreatedAt      – server-assigned creation timestamp.
//  UpdatedAt      – last status change.
type Reservation struct {
	ID             string      `json:"id"`
	VehicleID      string      `json:"vehicle_id"`
	ServiceDate    ServiceDate `json:"service_date"`
	SeatID         string      `json:"seat_id"`
	PassengerName  string      `json:"passenger_name"`
	PassengerPhone string      `json:"passenger_phone"`
	BoardingPoint  string      `json:"boarding_point,omitempty"`
	DroppingPoint  string      `json:"dropping_point,omitempty"`
	AmountCents    uint32      `json:"amount_cents"`
	Status         Status      `json:"status"`
	PartyID        string      `json:"party_id,omitempty"`
	OperatorID     string      `json:"operator_id"`
	VehicleName    string      `json:"vehicle_name"`
	VehicleType    string      `json:"vehicle_type"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// SeatKey identifies the (vehicle, date, seat) triple that at most one
// booked reservation may hold.
type SeatKey struct {
	VehicleID   string
	ServiceDate ServiceDate
	SeatID      string
}

// Key returns the seat triple of the reservation.
func (r Reservation) Key() SeatKey {
	return SeatKey{VehicleID: r.VehicleID, ServiceDate: r.ServiceDate, SeatID: r.SeatID}
}

// Occupies reports whether the reservation currently holds its seat.
func (r Reservation) Occupies() bool { return r.Status == StatusBooked }

// SortNewestFirst orders reservations by creation time descending, breaking
// ties on ID so the order is stable across stores.
func SortNewestFirst(rs []Reservation) {
	sort.SliceStable(rs, func(i, j int) bool {
		if !rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return rs[i].CreatedAt.After(rs[j].CreatedAt)
		}
		return rs[i].ID > rs[j].ID
	})
}

// ReservationInput is the request to book one seat.  PartyID is filled by
// the caller from the authenticated identity, never from the request body.
type ReservationInput struct {
	VehicleID      string      `json:"vehicle_id" validate:"required,max=64"`
	ServiceDate    ServiceDate `json:"service_date" validate:"required"`
	SeatID         string      `json:"seat_id" validate:"required,max=32"`
	PassengerName  string      `json:"passenger_name" validate:"required,max=120"`
	PassengerPhone string      `json:"passenger_phone" validate:"required,phone"`
	BoardingPoint  string      `json:"boarding_point,omitempty" validate:"omitempty,max=120"`
	DroppingPoint  string      `json:"dropping_point,omitempty" validate:"omitempty,max=120"`
	AmountCents    uint32      `json:"amount_cents"`
	PartyID        string      `json:"-"`
}
