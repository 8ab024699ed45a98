package service

import (
	"context"
	"fmt"

	"github.com/iliyamo/bus-seat-reservation/internal/layout"
	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

// Availability answers "which seats are taken" for a vehicle and date.  It
// reads the store on every call; there is no cache to go stale.
type Availability struct {
	store ReservationStore
}

// NewAvailability returns an Availability backed by store.
func NewAvailability(store ReservationStore) *Availability {
	return &Availability{store: store}
}

// OccupiedSeats returns the seat ids held by booked reservations.
// Cancelled and completed reservations never appear.
func (a *Availability) OccupiedSeats(ctx context.Context, vehicleID string, date model.ServiceDate) (model.SeatSet, error) {
	rs, err := a.store.ListBooked(ctx, vehicleID, date)
	if err != nil {
		return nil, fmt.Errorf("list booked seats for %s on %s: %w", vehicleID, date, err)
	}
	seats := model.NewSeatSet()
	for _, r := range rs {
		if r.Occupies() {
			seats.Add(r.SeatID)
		}
	}
	return seats, nil
}

// IsSeatAvailable reports whether no booked reservation holds seat.
func (a *Availability) IsSeatAvailable(ctx context.Context, vehicleID string, date model.ServiceDate, seat string) (bool, error) {
	occupied, err := a.OccupiedSeats(ctx, vehicleID, date)
	if err != nil {
		return false, err
	}
	return !occupied.Has(seat), nil
}

// LayoutFor returns the seat grid of a vehicle.
func LayoutFor(v model.Vehicle) layout.Layout {
	return layout.Generate(v.SeatClass, v.Capacity())
}
