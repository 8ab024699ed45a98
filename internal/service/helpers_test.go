package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bus-seat-reservation/internal/clock"
	"github.com/iliyamo/bus-seat-reservation/internal/layout"
	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/queue"
	"github.com/iliyamo/bus-seat-reservation/internal/repository"
)

var (
	testNow  = time.Date(2025, time.June, 1, 9, 30, 0, 0, time.UTC)
	testDate = model.NewServiceDate(2025, time.June, 1)
)

func quietLogger() *log.Logger {
	l := log.New("test")
	l.SetOutput(io.Discard)
	return l
}

type env struct {
	store     *repository.MemoryStore
	clock     *clock.Fixed
	writer    *Writer
	lifecycle *Lifecycle
	events    *recordingPublisher
}

func newEnv(t *testing.T, opts ...WriterOption) *env {
	t.Helper()
	store := repository.NewMemoryStore()
	require.NoError(t, store.UpsertVehicle(context.Background(), model.Vehicle{
		ID: "V1", OperatorID: "op-1", Name: "KA-01-1234", Type: "AC Sleeper", SeatClass: layout.ClassAC2x2,
	}))
	clk := clock.NewFixed(testNow)
	events := &recordingPublisher{}
	opts = append([]WriterOption{WithPublisher(events), WithWriterLogger(quietLogger())}, opts...)
	return &env{
		store:     store,
		clock:     clk,
		writer:    NewWriter(store, store, clk, opts...),
		lifecycle: NewLifecycle(store, clk, WithLifecyclePublisher(events), WithLifecycleLogger(quietLogger())),
		events:    events,
	}
}

func validInput(seat string) model.ReservationInput {
	return model.ReservationInput{
		VehicleID:      "V1",
		ServiceDate:    testDate,
		SeatID:         seat,
		PassengerName:  "Asha Rao",
		PassengerPhone: "+91 9876543210",
		AmountCents:    85000,
		PartyID:        "p-1",
	}
}

func (e *env) book(t *testing.T, seat string) model.Reservation {
	t.Helper()
	r, err := e.writer.CreateReservation(context.Background(), validInput(seat))
	require.NoError(t, err)
	return r
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ReservationEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}
