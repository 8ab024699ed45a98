package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/bus-seat-reservation/internal/clock"
	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/queue"
	"github.com/iliyamo/bus-seat-reservation/internal/repository"
)

// publishTimeout bounds event delivery so a slow broker never holds up a
// booking response.
const publishTimeout = 2 * time.Second

// Writer creates reservations with a mandatory availability re-check
// immediately before the insert.  The store's atomic insert closes the
// remaining window between the re-check and the write.
type Writer struct {
	store     ReservationStore
	vehicles  VehicleDirectory
	avail     *Availability
	clock     clock.Clock
	guard     SeatGuard
	publisher EventPublisher
	newID     func() string
	logger    *log.Logger
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithSeatGuard serialises concurrent writers on the same seat triple.
func WithSeatGuard(g SeatGuard) WriterOption {
	return func(w *Writer) { w.guard = g }
}

// WithPublisher delivers a reservation.booked event after each insert.
func WithPublisher(p EventPublisher) WriterOption {
	return func(w *Writer) { w.publisher = p }
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(f func() string) WriterOption {
	return func(w *Writer) { w.newID = f }
}

// WithWriterLogger sets the logger used for best-effort failures.
func WithWriterLogger(l *log.Logger) WriterOption {
	return func(w *Writer) { w.logger = l }
}

// NewWriter constructs a Writer.
func NewWriter(store ReservationStore, vehicles VehicleDirectory, clk clock.Clock, opts ...WriterOption) *Writer {
	w := &Writer{
		store:    store,
		vehicles: vehicles,
		avail:    NewAvailability(store),
		clock:    clk,
		newID:    uuid.NewString,
		logger:   log.New("writer"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// CreateReservation books one seat.  It returns *ValidationError for bad
// input, *SeatConflictError when the seat is already booked, and a wrapped
// store error for anything transient.
func (w *Writer) CreateReservation(ctx context.Context, in model.ReservationInput) (model.Reservation, error) {
	in = NormalizeInput(in)
	if err := ValidateInput(in); err != nil {
		return model.Reservation{}, err
	}

	v, err := w.vehicles.GetVehicle(ctx, in.VehicleID)
	if errors.Is(err, repository.ErrVehicleNotFound) {
		return model.Reservation{}, &ValidationError{Field: "vehicle_id", Reason: "unknown vehicle"}
	}
	if err != nil {
		return model.Reservation{}, fmt.Errorf("load vehicle %s: %w", in.VehicleID, err)
	}
	// The directory may match ids loosely; the seat key must use the stored id.
	in.VehicleID = v.ID
	lay := LayoutFor(v)
	if lay.Empty() {
		return model.Reservation{}, &ValidationError{Field: "vehicle_id", Reason: "vehicle has no bookable seats"}
	}
	if !lay.Contains(in.SeatID) {
		return model.Reservation{}, &ValidationError{Field: "seat_id", Reason: "not a seat on this vehicle"}
	}

	conflict := &SeatConflictError{VehicleID: in.VehicleID, ServiceDate: in.ServiceDate, Seat: in.SeatID}
	key := model.SeatKey{VehicleID: in.VehicleID, ServiceDate: in.ServiceDate, SeatID: in.SeatID}
	if w.guard != nil {
		unlock, ok, err := w.guard.TryLock(ctx, key)
		switch {
		case err != nil:
			// The store still enforces uniqueness on its own.
			w.logger.Warnj(log.JSON{"msg": "writer: seat guard unavailable", "seat": in.SeatID, "vehicle_id": in.VehicleID, "error": err.Error()})
		case !ok:
			return model.Reservation{}, conflict
		default:
			defer unlock(context.WithoutCancel(ctx))
		}
	}

	free, err := w.avail.IsSeatAvailable(ctx, in.VehicleID, in.ServiceDate, in.SeatID)
	if err != nil {
		return model.Reservation{}, fmt.Errorf("re-check seat: %w", err)
	}
	if !free {
		return model.Reservation{}, conflict
	}

	now := w.clock.Now()
	r := model.Reservation{
		ID:             w.newID(),
		VehicleID:      in.VehicleID,
		ServiceDate:    in.ServiceDate,
		SeatID:         in.SeatID,
		PassengerName:  in.PassengerName,
		PassengerPhone: in.PassengerPhone,
		BoardingPoint:  in.BoardingPoint,
		DroppingPoint:  in.DroppingPoint,
		AmountCents:    in.AmountCents,
		Status:         model.StatusBooked,
		PartyID:        in.PartyID,
		OperatorID:     v.OperatorID,
		VehicleName:    v.Name,
		VehicleType:    v.Type,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := w.store.Insert(ctx, r); err != nil {
		if errors.Is(err, repository.ErrSeatTaken) {
			return model.Reservation{}, conflict
		}
		return model.Reservation{}, fmt.Errorf("insert reservation: %w", err)
	}

	w.logger.Infoj(log.JSON{"msg": "writer: reservation booked", "reservation_id": r.ID, "vehicle_id": r.VehicleID, "service_date": r.ServiceDate.String(), "seat": r.SeatID})
	publish(ctx, w.publisher, w.logger, queue.NewReservationEvent(queue.EventBooked, r, now))
	return r, nil
}

// publish delivers ev without letting a broker failure reach the caller.
func publish(ctx context.Context, p EventPublisher, logger *log.Logger, ev queue.ReservationEvent) {
	if p == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := p.Publish(pctx, ev); err != nil {
		logger.Warnj(log.JSON{"msg": "publish reservation event failed", "type": ev.Type, "reservation_id": ev.ReservationID, "error": err.Error()})
	}
}
