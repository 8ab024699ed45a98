// Package service holds the seat-allocation core: availability queries,
// the reservation writer, the booking lifecycle and the maintenance
// routines built on them.  Storage, locking and event delivery are
// reached only through the interfaces in this file.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/queue"
)

// ReservationStore is the document store as the core consumes it.
// Implementations: repository.ReservationRepo (MySQL) and
// repository.MemoryStore.
type ReservationStore interface {
	ListBooked(ctx context.Context, vehicleID string, date model.ServiceDate) ([]model.Reservation, error)
	ListByParty(ctx context.Context, partyID string, status *model.Status) ([]model.Reservation, error)
	Get(ctx context.Context, id string) (model.Reservation, error)
	Insert(ctx context.Context, r model.Reservation) error
	UpdateStatus(ctx context.Context, id string, from, to model.Status, at time.Time) error
	Delete(ctx context.Context, id string) error
	ListBookedBefore(ctx context.Context, date model.ServiceDate) ([]model.Reservation, error)
	ListDuplicateBooked(ctx context.Context) ([][]model.Reservation, error)
}

// VehicleDirectory resolves vehicle reference data.
type VehicleDirectory interface {
	GetVehicle(ctx context.Context, id string) (model.Vehicle, error)
}

// SeatGuard is an optional short-lived mutual exclusion on one seat triple,
// held across the availability re-check and the insert.  ok is false when
// another writer holds the triple.
type SeatGuard interface {
	TryLock(ctx context.Context, key model.SeatKey) (unlock func(context.Context), ok bool, err error)
}

// EventPublisher delivers reservation events.  Delivery is best effort:
// errors are logged by the caller and never fail the operation.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}

// Publishers fans one event out to several publishers.
type Publishers []EventPublisher

// Publish sends ev to every publisher and joins their errors.
func (ps Publishers) Publish(ctx context.Context, ev queue.ReservationEvent) error {
	var errs []error
	for _, p := range ps {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
