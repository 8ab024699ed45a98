package picker

import (
	"context"
	"sync"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

// SeatReader is the availability side of the backend.
type SeatReader interface {
	OccupiedSeats(ctx context.Context, vehicleID string, date model.ServiceDate) (model.SeatSet, error)
	IsSeatAvailable(ctx context.Context, vehicleID string, date model.ServiceDate, seat string) (bool, error)
}

// Booker creates reservations.
type Booker interface {
	CreateReservation(ctx context.Context, in model.ReservationInput) (model.Reservation, error)
}

// Session drives one picker flow against a backend.  mu guards state only
// while a transition is applied; backend calls run unlocked so State stays
// readable mid-submit.  A second Confirm during a submit lands on a
// Confirming state with Submitting set and is ignored.
type Session struct {
	trip   Trip
	seats  SeatReader
	booker Booker

	mu    sync.Mutex
	state State
}

// NewSession returns a session in its initial state.  Call Open to load
// the first snapshot.
func NewSession(trip Trip, seats SeatReader, booker Booker) *Session {
	st, _ := Start(trip)
	return &Session{trip: trip, seats: seats, booker: booker, state: st}
}

// Open loads the first snapshot.
func (s *Session) Open(ctx context.Context) State {
	s.mu.Lock()
	st, cmd := Start(s.trip)
	s.state = st
	s.mu.Unlock()
	return s.drive(ctx, st, cmd)
}

// Dispatch applies ev and runs any resulting commands to completion.
func (s *Session) Dispatch(ctx context.Context, ev Event) State {
	s.mu.Lock()
	st, cmd := Transition(s.trip, s.state, ev)
	s.state = st
	s.mu.Unlock()
	return s.drive(ctx, st, cmd)
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// drive runs cmd and every command that follows from its result, then
// returns the state it left behind.  Result events are applied to whatever
// the state is by then, so events dispatched in between are respected.
func (s *Session) drive(ctx context.Context, st State, cmd Command) State {
	for cmd != nil {
		ev := s.run(ctx, cmd)
		s.mu.Lock()
		st, cmd = Transition(s.trip, s.state, ev)
		s.state = st
		s.mu.Unlock()
	}
	return st
}

func (s *Session) run(ctx context.Context, cmd Command) Event {
	switch c := cmd.(type) {
	case FetchSnapshot:
		seats, err := s.seats.OccupiedSeats(ctx, c.VehicleID, c.ServiceDate)
		return SnapshotLoaded{Snapshot: seats, Err: err}
	case CheckSeat:
		ok, err := s.seats.IsSeatAvailable(ctx, c.VehicleID, c.ServiceDate, c.Seat)
		return SeatChecked{Seat: c.Seat, Available: ok, Err: err}
	case Submit:
		r, err := s.booker.CreateReservation(ctx, c.Input)
		return Submitted{Reservation: r, Err: err}
	case VerifyOutcome:
		ok, err := s.seats.IsSeatAvailable(ctx, c.VehicleID, c.ServiceDate, c.Seat)
		return OutcomeChecked{Available: ok, Err: err}
	}
	return Close{}
}
