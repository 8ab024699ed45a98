package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/bus-seat-reservation/internal/clock"
	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/queue"
	"github.com/iliyamo/bus-seat-reservation/internal/repository"
)

// maxTransitionAttempts bounds the read-update loop when another writer
// changes the status between our read and our conditional update.
const maxTransitionAttempts = 3

// CheckTransition returns nil for booked->cancelled and booked->completed
// and *InvalidTransitionError for everything else.
func CheckTransition(from, to model.Status) error {
	if from == model.StatusBooked && (to == model.StatusCancelled || to == model.StatusCompleted) {
		return nil
	}
	return &InvalidTransitionError{From: from, To: to}
}

// IsCancellable reports whether a party may still cancel r at now: it must
// be booked and its service date must not be before now's calendar day.
// Times are compared at day granularity in now's location.
func IsCancellable(r model.Reservation, now time.Time) bool {
	return r.Status == model.StatusBooked && !r.ServiceDate.Before(model.ServiceDateOf(now))
}

// Lifecycle moves reservations between statuses.
type Lifecycle struct {
	store     ReservationStore
	clock     clock.Clock
	publisher EventPublisher
	logger    *log.Logger
}

// LifecycleOption configures a Lifecycle.
type LifecycleOption func(*Lifecycle)

// WithLifecyclePublisher delivers an event after each status change.
func WithLifecyclePublisher(p EventPublisher) LifecycleOption {
	return func(l *Lifecycle) { l.publisher = p }
}

// WithLifecycleLogger sets the logger.
func WithLifecycleLogger(lg *log.Logger) LifecycleOption {
	return func(l *Lifecycle) { l.logger = lg }
}

// NewLifecycle constructs a Lifecycle.
func NewLifecycle(store ReservationStore, clk clock.Clock, opts ...LifecycleOption) *Lifecycle {
	l := &Lifecycle{store: store, clock: clk, logger: log.New("lifecycle")}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Now returns the current time in the service time zone.
func (l *Lifecycle) Now() time.Time { return l.clock.Now() }

// Get returns one reservation.
func (l *Lifecycle) Get(ctx context.Context, id string) (model.Reservation, error) {
	r, err := l.store.Get(ctx, id)
	if errors.Is(err, repository.ErrReservationNotFound) {
		return model.Reservation{}, &NotFoundError{ReservationID: id}
	}
	if err != nil {
		return model.Reservation{}, fmt.Errorf("get reservation %s: %w", id, err)
	}
	return r, nil
}

// Cancel moves a booked reservation to cancelled.  Cancelling an already
// cancelled reservation succeeds without change.  No ownership or date
// check is made here; see CancelByParty.
func (l *Lifecycle) Cancel(ctx context.Context, id string) (model.Reservation, error) {
	return l.transition(ctx, id, model.StatusCancelled, true)
}

// Complete moves a booked reservation to completed.
func (l *Lifecycle) Complete(ctx context.Context, id string) (model.Reservation, error) {
	return l.transition(ctx, id, model.StatusCompleted, false)
}

// CancelByParty cancels on behalf of the passenger that owns the
// reservation.  Guest reservations have no owner and cannot be cancelled
// this way.
func (l *Lifecycle) CancelByParty(ctx context.Context, id, partyID string) (model.Reservation, error) {
	r, err := l.Get(ctx, id)
	if err != nil {
		return model.Reservation{}, err
	}
	if partyID == "" || r.PartyID != partyID {
		return model.Reservation{}, ErrNotOwner
	}
	if r.Status == model.StatusCancelled {
		return r, nil
	}
	if !IsCancellable(r, l.clock.Now()) {
		return model.Reservation{}, ErrNotCancellable
	}
	return l.Cancel(ctx, id)
}

// CancelByOperator cancels a reservation on a vehicle the operator owns.
func (l *Lifecycle) CancelByOperator(ctx context.Context, id, operatorID string) (model.Reservation, error) {
	r, err := l.Get(ctx, id)
	if err != nil {
		return model.Reservation{}, err
	}
	if operatorID == "" || r.OperatorID != operatorID {
		return model.Reservation{}, ErrNotOwner
	}
	return l.Cancel(ctx, id)
}

// CompleteByOperator marks a reservation on the operator's vehicle as
// travelled.
func (l *Lifecycle) CompleteByOperator(ctx context.Context, id, operatorID string) (model.Reservation, error) {
	r, err := l.Get(ctx, id)
	if err != nil {
		return model.Reservation{}, err
	}
	if operatorID == "" || r.OperatorID != operatorID {
		return model.Reservation{}, ErrNotOwner
	}
	return l.Complete(ctx, id)
}

// ListByParty returns a party's reservations newest first, optionally
// filtered by status.  An empty party id yields an empty list.
func (l *Lifecycle) ListByParty(ctx context.Context, partyID string, status *model.Status) ([]model.Reservation, error) {
	if partyID == "" {
		return []model.Reservation{}, nil
	}
	rs, err := l.store.ListByParty(ctx, partyID, status)
	if err != nil {
		return nil, fmt.Errorf("list reservations for party: %w", err)
	}
	model.SortNewestFirst(rs)
	return rs, nil
}

// ListForVehicle returns the booked manifest of a vehicle for one date.
func (l *Lifecycle) ListForVehicle(ctx context.Context, vehicleID string, date model.ServiceDate) ([]model.Reservation, error) {
	rs, err := l.store.ListBooked(ctx, vehicleID, date)
	if err != nil {
		return nil, fmt.Errorf("list manifest for %s on %s: %w", vehicleID, date, err)
	}
	return rs, nil
}

// Delete removes a reservation outright.  It is an administrative escape
// hatch and bypasses the status machine.
func (l *Lifecycle) Delete(ctx context.Context, id string) error {
	r, err := l.Get(ctx, id)
	if err != nil {
		return err
	}
	err = l.store.Delete(ctx, id)
	if errors.Is(err, repository.ErrReservationNotFound) {
		return &NotFoundError{ReservationID: id}
	}
	if err != nil {
		return fmt.Errorf("delete reservation %s: %w", id, err)
	}
	l.logger.Warnj(log.JSON{"msg": "lifecycle: reservation deleted", "reservation_id": id, "status": string(r.Status)})
	publish(ctx, l.publisher, l.logger, queue.NewReservationEvent(queue.EventDeleted, r, l.clock.Now()))
	return nil
}

// transition applies from->to with a conditional update, re-reading when
// another writer got there first.
func (l *Lifecycle) transition(ctx context.Context, id string, to model.Status, idempotent bool) (model.Reservation, error) {
	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		r, err := l.Get(ctx, id)
		if err != nil {
			return model.Reservation{}, err
		}
		if idempotent && r.Status == to {
			return r, nil
		}
		if err := CheckTransition(r.Status, to); err != nil {
			return model.Reservation{}, err
		}
		now := l.clock.Now()
		err = l.store.UpdateStatus(ctx, id, r.Status, to, now)
		switch {
		case err == nil:
			r.Status = to
			r.UpdatedAt = now
			l.logger.Infoj(log.JSON{"msg": "lifecycle: status changed", "reservation_id": id, "status": string(to)})
			publish(ctx, l.publisher, l.logger, queue.NewReservationEvent(queue.EventTypeFor(to), r, now))
			return r, nil
		case errors.Is(err, repository.ErrStatusMismatch):
			continue
		case errors.Is(err, repository.ErrReservationNotFound):
			return model.Reservation{}, &NotFoundError{ReservationID: id}
		default:
			return model.Reservation{}, fmt.Errorf("update reservation %s: %w", id, err)
		}
	}
	return model.Reservation{}, fmt.Errorf("update reservation %s: %w", id, repository.ErrStatusMismatch)
}
