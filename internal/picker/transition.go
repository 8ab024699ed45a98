package picker

import (
	"errors"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/service"
)

// Inline messages shown on the seat map.
const (
	MsgNotASeat     = "that is not a seat on this bus"
	MsgSeatOccupied = "that seat is already booked"
	MsgPickSeat     = "pick a seat first"
	MsgBooked       = "booking confirmed"
)

// Start returns the initial state and the fetch that fills it.
func Start(trip Trip) (State, Command) {
	return SelectingSeat{Loading: true}, fetch(trip)
}

// Transition computes the next state.  Events that make no sense in the
// current state leave it unchanged and request nothing.
func Transition(trip Trip, s State, ev Event) (State, Command) {
	if _, ok := ev.(Close); ok {
		return Closed{}, nil
	}
	switch st := s.(type) {
	case SelectingSeat:
		return selecting(trip, st, ev)
	case EnteringDetails:
		return entering(trip, st, ev)
	case Confirming:
		return confirming(trip, st, ev)
	}
	return s, nil
}

func selecting(trip Trip, st SelectingSeat, ev Event) (State, Command) {
	switch e := ev.(type) {
	case SnapshotLoaded:
		st.Loading = false
		if e.Err != nil {
			st.Message = service.MsgRetry
			return st, nil
		}
		st.Snapshot = e.Snapshot
		if st.Selected != "" && st.Snapshot.Has(st.Selected) {
			st.Selected = ""
		}
		return st, nil

	case SeatToggled:
		if st.Checking {
			return st, nil
		}
		switch {
		case !trip.Layout.Contains(e.Seat):
			st.Message = MsgNotASeat
		case st.Snapshot.Has(e.Seat):
			st.Message = MsgSeatOccupied
		case st.Selected == e.Seat:
			st.Selected = ""
			st.Message = ""
		default:
			st.Selected = e.Seat
			st.Message = ""
		}
		return st, nil

	case Proceed:
		if st.Selected == "" {
			st.Message = MsgPickSeat
			return st, nil
		}
		if st.Checking || st.Loading {
			return st, nil
		}
		st.Checking = true
		return st, CheckSeat{VehicleID: trip.VehicleID, ServiceDate: trip.ServiceDate, Seat: st.Selected}

	case SeatChecked:
		if !st.Checking || e.Seat != st.Selected {
			return st, nil
		}
		st.Checking = false
		// The re-check is advisory; the writer re-checks again on submit.
		if e.Err == nil && !e.Available {
			st.Snapshot = withSeat(st.Snapshot, e.Seat)
			st.Selected = ""
			st.Message = service.MsgSeatTaken
			return st, nil
		}
		return EnteringDetails{Seat: e.Seat, Snapshot: st.Snapshot, Last: st.Last}, nil
	}
	return st, nil
}

func entering(trip Trip, st EnteringDetails, ev Event) (State, Command) {
	switch e := ev.(type) {
	case DetailsSubmitted:
		st.Details = e.Details
		if err := service.ValidateDetails(e.Details.Name, e.Details.Phone); err != nil {
			st.Message = service.UserMessage(err)
			return st, nil
		}
		return Confirming{Seat: st.Seat, Snapshot: st.Snapshot, Details: e.Details, Last: st.Last}, nil

	case Back:
		return SelectingSeat{Snapshot: st.Snapshot, Selected: st.Seat, Last: st.Last}, nil
	}
	return st, nil
}

func confirming(trip Trip, st Confirming, ev Event) (State, Command) {
	switch e := ev.(type) {
	case Confirm:
		if st.Submitting {
			return st, nil
		}
		st.Submitting = true
		st.Message = ""
		return st, Submit{Input: inputFor(trip, st)}

	case Back:
		if st.Submitting {
			return st, nil
		}
		return EnteringDetails{Seat: st.Seat, Snapshot: st.Snapshot, Details: st.Details, Last: st.Last}, nil

	case Submitted:
		if !st.Submitting {
			return st, nil
		}
		var conflict *service.SeatConflictError
		var invalid *service.ValidationError
		switch {
		case e.Err == nil:
			r := e.Reservation
			return SelectingSeat{Loading: true, Message: MsgBooked, Last: &r}, fetch(trip)
		case errors.As(e.Err, &conflict):
			return SelectingSeat{Loading: true, Message: service.MsgSeatTaken, Last: st.Last}, fetch(trip)
		case errors.As(e.Err, &invalid):
			return EnteringDetails{Seat: st.Seat, Snapshot: st.Snapshot, Details: st.Details, Message: service.UserMessage(e.Err), Last: st.Last}, nil
		}
		// The write may or may not have landed.  Look before offering a retry.
		return st, VerifyOutcome{VehicleID: trip.VehicleID, ServiceDate: trip.ServiceDate, Seat: st.Seat}

	case OutcomeChecked:
		if !st.Submitting {
			return st, nil
		}
		st.Submitting = false
		switch {
		case e.Err != nil:
			st.Message = service.MsgCheckBookings
			return st, nil
		case e.Available:
			st.Message = service.MsgRetry
			return st, nil
		}
		return SelectingSeat{Loading: true, Message: service.MsgCheckBookings, Last: st.Last}, fetch(trip)
	}
	return st, nil
}

func fetch(trip Trip) Command {
	return FetchSnapshot{VehicleID: trip.VehicleID, ServiceDate: trip.ServiceDate}
}

func inputFor(trip Trip, st Confirming) model.ReservationInput {
	return model.ReservationInput{
		VehicleID:      trip.VehicleID,
		ServiceDate:    trip.ServiceDate,
		SeatID:         st.Seat,
		PassengerName:  st.Details.Name,
		PassengerPhone: st.Details.Phone,
		BoardingPoint:  st.Details.BoardingPoint,
		DroppingPoint:  st.Details.DroppingPoint,
		AmountCents:    trip.AmountCents,
		PartyID:        trip.PartyID,
	}
}

func withSeat(s model.SeatSet, seat string) model.SeatSet {
	out := s.Clone()
	out.Add(seat)
	return out
}
