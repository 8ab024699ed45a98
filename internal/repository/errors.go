// Package repository defines the stores behind the booking core and the
// sentinel errors they share.  These sentinel values allow the service
// layer to distinguish failure scenarios without knowing which backend
// produced them.
package repository

import "errors"

// ErrReservationNotFound is returned when a reservation lookup or update
// targets an ID that does not exist.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrVehicleNotFound is returned when a vehicle lookup yields no rows.
var ErrVehicleNotFound = errors.New("vehicle not found")

// ErrSeatTaken is returned by Insert when another booked reservation
// already holds the same (vehicle, service date, seat) triple.  Both
// stores enforce this atomically, so a caller that passed its availability
// re-check can still receive it in a photo finish.
var ErrSeatTaken = errors.New("seat already booked")

// ErrStatusMismatch is returned by UpdateStatus when the reservation exists
// but is no longer in the expected status (a concurrent transition won).
var ErrStatusMismatch = errors.New("reservation status changed")

// ErrDuplicateID is returned when inserting a reservation whose ID is
// already present.
var ErrDuplicateID = errors.New("duplicate reservation id")
