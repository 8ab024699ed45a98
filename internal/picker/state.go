// Package picker is the client-side seat selection flow as a state
// machine.  Transition is pure: it maps a state and an event to the next
// state plus at most one Command describing the side effect to run.  A
// Session runs the commands and feeds their results back as events.
package picker

import (
	"github.com/iliyamo/bus-seat-reservation/internal/layout"
	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

// Trip fixes what the flow is booking for.
type Trip struct {
	VehicleID   string
	ServiceDate model.ServiceDate
	Layout      layout.Layout
	PartyID     string
	AmountCents uint32
}

// Details are the passenger fields collected before confirmation.
type Details struct {
	Name          string
	Phone         string
	BoardingPoint string
	DroppingPoint string
}

// State is one of SelectingSeat, EnteringDetails, Confirming or Closed.
type State interface {
	isState()
}

// SelectingSeat shows the seat map.  Loading is set while a snapshot
// fetch is outstanding and Checking while the chosen seat is re-checked.
type SelectingSeat struct {
	Snapshot model.SeatSet
	Selected string
	Loading  bool
	Checking bool
	Message  string
	// Last is the most recent successful reservation of this session.
	Last *model.Reservation
}

// EnteringDetails collects passenger details for Seat.
type EnteringDetails struct {
	Seat     string
	Snapshot model.SeatSet
	Details  Details
	Message  string
	Last     *model.Reservation
}

// Confirming shows the summary.  Submitting is set from the moment the
// reservation request is sent until its outcome is known, including the
// outcome check after a failed submit.
type Confirming struct {
	Seat       string
	Snapshot   model.SeatSet
	Details    Details
	Submitting bool
	Message    string
	Last       *model.Reservation
}

// Closed is terminal.
type Closed struct{}

func (SelectingSeat) isState()   {}
func (EnteringDetails) isState() {}
func (Confirming) isState()      {}
func (Closed) isState()          {}

// Event is an input to Transition.
type Event interface {
	isEvent()
}

// SnapshotLoaded carries the result of FetchSnapshot.
type SnapshotLoaded struct {
	Snapshot model.SeatSet
	Err      error
}

// SeatToggled selects or deselects a seat on the map.
type SeatToggled struct{ Seat string }

// Proceed moves from the seat map to details entry.
type Proceed struct{}

// SeatChecked carries the result of CheckSeat.
type SeatChecked struct {
	Seat      string
	Available bool
	Err       error
}

// DetailsSubmitted carries the passenger details form.
type DetailsSubmitted struct{ Details Details }

// Back returns to the previous step.
type Back struct{}

// Confirm submits the reservation.
type Confirm struct{}

// Submitted carries the result of Submit.
type Submitted struct {
	Reservation model.Reservation
	Err         error
}

// OutcomeChecked carries the result of VerifyOutcome.
type OutcomeChecked struct {
	Available bool
	Err       error
}

// Close ends the flow.
type Close struct{}

func (SnapshotLoaded) isEvent()   {}
func (SeatToggled) isEvent()      {}
func (Proceed) isEvent()          {}
func (SeatChecked) isEvent()      {}
func (DetailsSubmitted) isEvent() {}
func (Back) isEvent()             {}
func (Confirm) isEvent()          {}
func (Submitted) isEvent()        {}
func (OutcomeChecked) isEvent()   {}
func (Close) isEvent()            {}

// Command is a side effect requested by Transition.
type Command interface {
	isCommand()
}

// FetchSnapshot reads the occupied seats of the trip.
type FetchSnapshot struct {
	VehicleID   string
	ServiceDate model.ServiceDate
}

// CheckSeat asks whether Seat is still free.
type CheckSeat struct {
	VehicleID   string
	ServiceDate model.ServiceDate
	Seat        string
}

// Submit creates the reservation.
type Submit struct {
	Input model.ReservationInput
}

// VerifyOutcome re-queries Seat after a submit whose outcome is unknown.
type VerifyOutcome struct {
	VehicleID   string
	ServiceDate model.ServiceDate
	Seat        string
}

func (FetchSnapshot) isCommand() {}
func (CheckSeat) isCommand()     {}
func (Submit) isCommand()        {}
func (VerifyOutcome) isCommand() {}
