package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/queue"
	"github.com/iliyamo/bus-seat-reservation/internal/repository"
)

func TestCheckTransition(t *testing.T) {
	statuses := []model.Status{model.StatusBooked, model.StatusCancelled, model.StatusCompleted}
	allowed := map[[2]model.Status]bool{
		{model.StatusBooked, model.StatusCancelled}: true,
		{model.StatusBooked, model.StatusCompleted}: true,
	}
	for _, from := range statuses {
		for _, to := range statuses {
			err := CheckTransition(from, to)
			if allowed[[2]model.Status{from, to}] {
				assert.NoError(t, err, "%s -> %s", from, to)
				continue
			}
			var ite *InvalidTransitionError
			require.ErrorAs(t, err, &ite, "%s -> %s", from, to)
			assert.Equal(t, from, ite.From)
			assert.Equal(t, to, ite.To)
		}
	}
}

func TestCancel_Idempotent(t *testing.T) {
	e := newEnv(t)
	r := e.book(t, "A")

	first, err := e.lifecycle.Cancel(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, first.Status)

	second, err := e.lifecycle.Cancel(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, second.Status)

	assert.Equal(t, []string{queue.EventBooked, queue.EventCancelled}, e.events.types())
}

func TestCancel_Unknown(t *testing.T) {
	e := newEnv(t)
	_, err := e.lifecycle.Cancel(context.Background(), "missing")

	var nfe *NotFoundError
	require.ErrorAs(t, err, &nfe)
	assert.Equal(t, "missing", nfe.ReservationID)
	assert.True(t, errors.Is(err, repository.ErrReservationNotFound))
}

func TestCancel_CompletedRejected(t *testing.T) {
	e := newEnv(t)
	r := e.book(t, "A")
	_, err := e.lifecycle.Complete(context.Background(), r.ID)
	require.NoError(t, err)

	_, err = e.lifecycle.Cancel(context.Background(), r.ID)
	var ite *InvalidTransitionError
	require.ErrorAs(t, err, &ite)
	assert.Equal(t, model.StatusCompleted, ite.From)

	_, err = e.lifecycle.Complete(context.Background(), r.ID)
	require.ErrorAs(t, err, &ite)
}

func TestCancelAndCompleteRace(t *testing.T) {
	e := newEnv(t)
	r := e.book(t, "A")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() { defer wg.Done(); _, errs[0] = e.lifecycle.Cancel(context.Background(), r.ID) }()
	go func() { defer wg.Done(); _, errs[1] = e.lifecycle.Complete(context.Background(), r.ID) }()
	wg.Wait()

	final, err := e.store.Get(context.Background(), r.ID)
	require.NoError(t, err)
	switch final.Status {
	case model.StatusCancelled:
		assert.NoError(t, errs[0])
		assert.Error(t, errs[1])
	case model.StatusCompleted:
		assert.NoError(t, errs[1])
		assert.Error(t, errs[0])
	default:
		t.Fatalf("unexpected final status %s", final.Status)
	}
}

func TestIsCancellable(t *testing.T) {
	now := time.Date(2025, time.June, 1, 23, 59, 0, 0, time.UTC)
	booked := func(d model.ServiceDate) model.Reservation {
		return model.Reservation{Status: model.StatusBooked, ServiceDate: d}
	}

	assert.True(t, IsCancellable(booked(testDate), now), "same day")
	assert.True(t, IsCancellable(booked(testDate.AddDays(3)), now), "future")
	assert.False(t, IsCancellable(booked(testDate.AddDays(-1)), now), "yesterday")

	cancelled := booked(testDate.AddDays(3))
	cancelled.Status = model.StatusCancelled
	assert.False(t, IsCancellable(cancelled, now))

	// The calendar day is taken in now's location.
	ist := time.FixedZone("IST", 5*3600+1800)
	lateUTC := time.Date(2025, time.June, 1, 20, 0, 0, 0, time.UTC)
	assert.True(t, IsCancellable(booked(testDate), lateUTC))
	assert.False(t, IsCancellable(booked(testDate), lateUTC.In(ist)))
}

func TestCancelByParty(t *testing.T) {
	ctx := context.Background()

	t.Run("owner", func(t *testing.T) {
		e := newEnv(t)
		r := e.book(t, "A")
		got, err := e.lifecycle.CancelByParty(ctx, r.ID, "p-1")
		require.NoError(t, err)
		assert.Equal(t, model.StatusCancelled, got.Status)
	})
	t.Run("other party", func(t *testing.T) {
		e := newEnv(t)
		r := e.book(t, "A")
		_, err := e.lifecycle.CancelByParty(ctx, r.ID, "p-2")
		assert.ErrorIs(t, err, ErrNotOwner)
	})
	t.Run("guest booking", func(t *testing.T) {
		e := newEnv(t)
		in := validInput("A")
		in.PartyID = ""
		r, err := e.writer.CreateReservation(ctx, in)
		require.NoError(t, err)
		_, err = e.lifecycle.CancelByParty(ctx, r.ID, "")
		assert.ErrorIs(t, err, ErrNotOwner)
	})
	t.Run("date elapsed", func(t *testing.T) {
		e := newEnv(t)
		r := e.book(t, "A")
		e.clock.Advance(24 * time.Hour)
		_, err := e.lifecycle.CancelByParty(ctx, r.ID, "p-1")
		assert.ErrorIs(t, err, ErrNotCancellable)

		stored, err := e.store.Get(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusBooked, stored.Status)
	})
}

func TestOperatorActions(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	a := e.book(t, "A")
	b := e.book(t, "B")

	_, err := e.lifecycle.CancelByOperator(ctx, a.ID, "op-2")
	assert.ErrorIs(t, err, ErrNotOwner)

	got, err := e.lifecycle.CancelByOperator(ctx, a.ID, "op-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)

	got, err = e.lifecycle.CompleteByOperator(ctx, b.ID, "op-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)

	manifest, err := e.lifecycle.ListForVehicle(ctx, "V1", testDate)
	require.NoError(t, err)
	assert.Empty(t, manifest)
}

func TestListByParty_NewestFirst(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	a := e.book(t, "A")
	e.clock.Advance(time.Minute)
	b := e.book(t, "B")
	e.clock.Advance(time.Minute)
	c := e.book(t, "C")
	_, err := e.lifecycle.Cancel(ctx, b.ID)
	require.NoError(t, err)

	all, err := e.lifecycle.ListByParty(ctx, "p-1", nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{c.ID, b.ID, a.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	status := model.StatusBooked
	booked, err := e.lifecycle.ListByParty(ctx, "p-1", &status)
	require.NoError(t, err)
	require.Len(t, booked, 2)
	assert.Equal(t, c.ID, booked[0].ID)
	assert.Equal(t, a.ID, booked[1].ID)

	none, err := e.lifecycle.ListByParty(ctx, "", nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	r := e.book(t, "A")

	require.NoError(t, e.lifecycle.Delete(ctx, r.ID))
	_, err := e.lifecycle.Get(ctx, r.ID)
	var nfe *NotFoundError
	assert.ErrorAs(t, err, &nfe)

	err = e.lifecycle.Delete(ctx, r.ID)
	assert.ErrorAs(t, err, &nfe)

	// The seat is free again.
	e.book(t, "A")
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, MsgSeatTaken, UserMessage(&SeatConflictError{Seat: "A"}))
	assert.Equal(t, MsgInvalidPhone, UserMessage(&ValidationError{Field: "passenger_phone"}))
	assert.Equal(t, MsgMissingName, UserMessage(&ValidationError{Field: "passenger_name"}))
	assert.Equal(t, MsgRetry, UserMessage(errors.New("dial tcp: i/o timeout")))
}
