package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

// Reconciler runs the periodic maintenance passes over the store.
type Reconciler struct {
	store     ReservationStore
	lifecycle *Lifecycle
	logger    *log.Logger
}

// NewReconciler returns a Reconciler that changes statuses through lc.
func NewReconciler(store ReservationStore, lc *Lifecycle, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = log.New("reconcile")
	}
	return &Reconciler{store: store, lifecycle: lc, logger: logger}
}

// CompleteElapsed marks booked reservations whose service date is before
// today as completed.  It returns how many were changed.
func (r *Reconciler) CompleteElapsed(ctx context.Context) (int, error) {
	today := model.ServiceDateOf(r.lifecycle.clock.Now())
	rs, err := r.store.ListBookedBefore(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("list elapsed reservations: %w", err)
	}
	done := 0
	var errs []error
	for _, res := range rs {
		if _, err := r.lifecycle.Complete(ctx, res.ID); err != nil {
			var ite *InvalidTransitionError
			var nfe *NotFoundError
			if errors.As(err, &ite) || errors.As(err, &nfe) {
				// Cancelled, completed or deleted since the listing.
				continue
			}
			errs = append(errs, err)
			continue
		}
		done++
	}
	if done > 0 {
		r.logger.Infoj(log.JSON{"msg": "reconcile: completed elapsed reservations", "count": done, "before": today.String()})
	}
	return done, errors.Join(errs...)
}

// ResolveDuplicates keeps the earliest booked reservation of every seat
// triple held more than once and cancels the rest.  Stores that enforce
// uniqueness never produce such groups.
func (r *Reconciler) ResolveDuplicates(ctx context.Context) (int, error) {
	groups, err := r.store.ListDuplicateBooked(ctx)
	if err != nil {
		return 0, fmt.Errorf("list duplicate bookings: %w", err)
	}
	cancelled := 0
	var errs []error
	for _, g := range groups {
		if len(g) < 2 {
			continue
		}
		keep := g[0]
		for _, dup := range g[1:] {
			if _, err := r.lifecycle.Cancel(ctx, dup.ID); err != nil {
				errs = append(errs, err)
				continue
			}
			cancelled++
			r.logger.Warnj(log.JSON{"msg": "reconcile: cancelled duplicate booking", "reservation_id": dup.ID, "kept": keep.ID, "seat": keep.SeatID, "vehicle_id": keep.VehicleID, "service_date": keep.ServiceDate.String()})
		}
	}
	return cancelled, errors.Join(errs...)
}
