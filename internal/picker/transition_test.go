package picker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bus-seat-reservation/internal/layout"
	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/service"
)

var trip = Trip{
	VehicleID:   "V1",
	ServiceDate: model.NewServiceDate(2025, time.June, 1),
	Layout:      layout.Generate(layout.ClassAC2x2, 0),
	PartyID:     "p-1",
	AmountCents: 85000,
}

var goodDetails = Details{Name: "Asha Rao", Phone: "9876543210", BoardingPoint: "Majestic"}

func loaded(occupied ...string) SelectingSeat {
	return SelectingSeat{Snapshot: model.NewSeatSet(occupied...)}
}

func TestStartFetchesSnapshot(t *testing.T) {
	st, cmd := Start(trip)
	assert.Equal(t, SelectingSeat{Loading: true}, st)
	assert.Equal(t, FetchSnapshot{VehicleID: "V1", ServiceDate: trip.ServiceDate}, cmd)

	st, cmd = Transition(trip, st, SnapshotLoaded{Snapshot: model.NewSeatSet("A")})
	assert.Nil(t, cmd)
	sel := st.(SelectingSeat)
	assert.False(t, sel.Loading)
	assert.True(t, sel.Snapshot.Has("A"))
}

func TestSeatToggledRejectsLocally(t *testing.T) {
	st, cmd := Transition(trip, loaded("A"), SeatToggled{Seat: "A"})
	assert.Nil(t, cmd)
	assert.Equal(t, MsgSeatOccupied, st.(SelectingSeat).Message)
	assert.Empty(t, st.(SelectingSeat).Selected)

	st, _ = Transition(trip, loaded(), SeatToggled{Seat: "Z9"})
	assert.Equal(t, MsgNotASeat, st.(SelectingSeat).Message)

	st, _ = Transition(trip, loaded(), SeatToggled{Seat: "क"})
	assert.Equal(t, "क", st.(SelectingSeat).Selected)
	st, _ = Transition(trip, st, SeatToggled{Seat: "क"})
	assert.Empty(t, st.(SelectingSeat).Selected, "second toggle deselects")
}

func TestProceedRechecksSeat(t *testing.T) {
	st, _ := Transition(trip, loaded(), SeatToggled{Seat: "B"})
	st, cmd := Transition(trip, st, Proceed{})
	assert.Equal(t, CheckSeat{VehicleID: "V1", ServiceDate: trip.ServiceDate, Seat: "B"}, cmd)
	assert.True(t, st.(SelectingSeat).Checking)

	t.Run("free", func(t *testing.T) {
		next, cmd := Transition(trip, st, SeatChecked{Seat: "B", Available: true})
		assert.Nil(t, cmd)
		assert.Equal(t, "B", next.(EnteringDetails).Seat)
	})
	t.Run("taken meanwhile", func(t *testing.T) {
		next, cmd := Transition(trip, st, SeatChecked{Seat: "B", Available: false})
		assert.Nil(t, cmd)
		sel := next.(SelectingSeat)
		assert.Empty(t, sel.Selected)
		assert.True(t, sel.Snapshot.Has("B"))
		assert.Equal(t, service.MsgSeatTaken, sel.Message)
	})
	t.Run("check failed", func(t *testing.T) {
		next, _ := Transition(trip, st, SeatChecked{Seat: "B", Err: errors.New("timeout")})
		assert.IsType(t, EnteringDetails{}, next)
	})
}

func TestProceedWithoutSeat(t *testing.T) {
	st, cmd := Transition(trip, loaded(), Proceed{})
	assert.Nil(t, cmd)
	assert.Equal(t, MsgPickSeat, st.(SelectingSeat).Message)
}

func TestDetailsValidated(t *testing.T) {
	start := EnteringDetails{Seat: "B"}

	st, _ := Transition(trip, start, DetailsSubmitted{Details: Details{Name: "", Phone: "9876543210"}})
	assert.Equal(t, service.MsgMissingName, st.(EnteringDetails).Message)

	st, _ = Transition(trip, start, DetailsSubmitted{Details: Details{Name: "Asha", Phone: "12"}})
	assert.Equal(t, service.MsgInvalidPhone, st.(EnteringDetails).Message)

	st, _ = Transition(trip, start, DetailsSubmitted{Details: goodDetails})
	conf := st.(Confirming)
	assert.Equal(t, "B", conf.Seat)
	assert.Equal(t, goodDetails, conf.Details)

	back, _ := Transition(trip, start, Back{})
	assert.Equal(t, "B", back.(SelectingSeat).Selected)
}

func TestConfirmIgnoredWhileSubmitting(t *testing.T) {
	st, cmd := Transition(trip, Confirming{Seat: "B", Details: goodDetails}, Confirm{})
	submit, ok := cmd.(Submit)
	require.True(t, ok)
	assert.Equal(t, "B", submit.Input.SeatID)
	assert.Equal(t, "p-1", submit.Input.PartyID)
	assert.Equal(t, uint32(85000), submit.Input.AmountCents)
	assert.Equal(t, "Majestic", submit.Input.BoardingPoint)

	again, cmd := Transition(trip, st, Confirm{})
	assert.Nil(t, cmd)
	assert.Equal(t, st, again)

	stay, cmd := Transition(trip, st, Back{})
	assert.Nil(t, cmd)
	assert.Equal(t, st, stay)
}

func TestSubmitOutcomes(t *testing.T) {
	submitting := Confirming{Seat: "B", Details: goodDetails, Submitting: true}

	t.Run("success resets", func(t *testing.T) {
		r := model.Reservation{ID: "r-1", SeatID: "B", Status: model.StatusBooked}
		st, cmd := Transition(trip, submitting, Submitted{Reservation: r})
		assert.IsType(t, FetchSnapshot{}, cmd)
		sel := st.(SelectingSeat)
		require.NotNil(t, sel.Last)
		assert.Equal(t, "r-1", sel.Last.ID)
		assert.Empty(t, sel.Selected)
	})
	t.Run("conflict refetches", func(t *testing.T) {
		st, cmd := Transition(trip, submitting, Submitted{Err: &service.SeatConflictError{Seat: "B"}})
		assert.IsType(t, FetchSnapshot{}, cmd)
		assert.Equal(t, service.MsgSeatTaken, st.(SelectingSeat).Message)
	})
	t.Run("validation returns to details", func(t *testing.T) {
		st, cmd := Transition(trip, submitting, Submitted{Err: &service.ValidationError{Field: "passenger_phone"}})
		assert.Nil(t, cmd)
		assert.Equal(t, service.MsgInvalidPhone, st.(EnteringDetails).Message)
	})
	t.Run("unknown failure verifies", func(t *testing.T) {
		st, cmd := Transition(trip, submitting, Submitted{Err: errors.New("connection reset")})
		assert.Equal(t, VerifyOutcome{VehicleID: "V1", ServiceDate: trip.ServiceDate, Seat: "B"}, cmd)
		assert.True(t, st.(Confirming).Submitting)

		free, cmd := Transition(trip, st, OutcomeChecked{Available: true})
		assert.Nil(t, cmd, "never resubmits on its own")
		assert.Equal(t, service.MsgRetry, free.(Confirming).Message)
		assert.False(t, free.(Confirming).Submitting)

		taken, cmd := Transition(trip, st, OutcomeChecked{Available: false})
		assert.IsType(t, FetchSnapshot{}, cmd)
		assert.Equal(t, service.MsgCheckBookings, taken.(SelectingSeat).Message)
	})
}

func TestCloseFromAnyState(t *testing.T) {
	for _, st := range []State{loaded(), EnteringDetails{}, Confirming{Submitting: true}, Closed{}} {
		next, cmd := Transition(trip, st, Close{})
		assert.Equal(t, Closed{}, next)
		assert.Nil(t, cmd)
	}
	next, cmd := Transition(trip, Closed{}, SeatToggled{Seat: "A"})
	assert.Equal(t, Closed{}, next)
	assert.Nil(t, cmd)
}
