package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

// reservationStore is the method set both backends share.
type reservationStore interface {
	ListBooked(ctx context.Context, vehicleID string, date model.ServiceDate) ([]model.Reservation, error)
	ListByParty(ctx context.Context, partyID string, status *model.Status) ([]model.Reservation, error)
	Get(ctx context.Context, id string) (model.Reservation, error)
	Insert(ctx context.Context, r model.Reservation) error
	UpdateStatus(ctx context.Context, id string, from, to model.Status, at time.Time) error
	Delete(ctx context.Context, id string) error
	ListBookedBefore(ctx context.Context, date model.ServiceDate) ([]model.Reservation, error)
	ListDuplicateBooked(ctx context.Context) ([][]model.Reservation, error)
}

var (
	base = time.Date(2025, time.June, 1, 8, 0, 0, 0, time.UTC)
	day1 = model.NewServiceDate(2025, time.June, 1)
	day2 = model.NewServiceDate(2025, time.June, 2)
)

func reservation(id, seat string, date model.ServiceDate, party string, created time.Time) model.Reservation {
	return model.Reservation{
		ID:             id,
		VehicleID:      "V1",
		ServiceDate:    date,
		SeatID:         seat,
		PassengerName:  "Asha Rao",
		PassengerPhone: "9876543210",
		AmountCents:    85000,
		Status:         model.StatusBooked,
		PartyID:        party,
		OperatorID:     "op-1",
		VehicleName:    "KA-01-1234",
		VehicleType:    "AC Sleeper",
		CreatedAt:      created,
		UpdatedAt:      created,
	}
}

// runStoreContract checks behaviour every reservation store must share.
// newStore must return an empty store.
func runStoreContract(t *testing.T, newStore func(t *testing.T) reservationStore) {
	ctx := context.Background()

	t.Run("insert and get", func(t *testing.T) {
		s := newStore(t)
		want := reservation("r-1", "A", day1, "p-1", base)
		want.BoardingPoint = "Majestic"
		require.NoError(t, s.Insert(ctx, want))

		got, err := s.Get(ctx, "r-1")
		require.NoError(t, err)
		assert.Equal(t, want.SeatID, got.SeatID)
		assert.Equal(t, want.ServiceDate, got.ServiceDate)
		assert.Equal(t, "Majestic", got.BoardingPoint)
		assert.Equal(t, "p-1", got.PartyID)
		assert.True(t, want.CreatedAt.Equal(got.CreatedAt))

		_, err = s.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrReservationNotFound)
	})

	t.Run("one booked reservation per seat", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Insert(ctx, reservation("r-1", "A", day1, "p-1", base)))
		assert.ErrorIs(t, s.Insert(ctx, reservation("r-2", "A", day1, "p-2", base)), ErrSeatTaken)
		assert.NoError(t, s.Insert(ctx, reservation("r-3", "A", day2, "p-2", base)))
		assert.NoError(t, s.Insert(ctx, reservation("r-4", "B", day1, "p-2", base)))

		_, err := s.Get(ctx, "r-2")
		assert.ErrorIs(t, err, ErrReservationNotFound)
	})

	t.Run("seat ids are case sensitive", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Insert(ctx, reservation("r-1", "L1", day1, "", base)))
		assert.NoError(t, s.Insert(ctx, reservation("r-2", "l1", day1, "", base)))
	})

	t.Run("cancelled seat can be rebooked", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Insert(ctx, reservation("r-1", "A", day1, "p-1", base)))
		require.NoError(t, s.UpdateStatus(ctx, "r-1", model.StatusBooked, model.StatusCancelled, base.Add(time.Minute)))
		require.NoError(t, s.Insert(ctx, reservation("r-2", "A", day1, "p-2", base.Add(2*time.Minute))))

		booked, err := s.ListBooked(ctx, "V1", day1)
		require.NoError(t, err)
		require.Len(t, booked, 1)
		assert.Equal(t, "r-2", booked[0].ID)
	})

	t.Run("conditional status update", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Insert(ctx, reservation("r-1", "A", day1, "p-1", base)))
		at := base.Add(time.Hour)
		require.NoError(t, s.UpdateStatus(ctx, "r-1", model.StatusBooked, model.StatusCompleted, at))
		assert.ErrorIs(t, s.UpdateStatus(ctx, "r-1", model.StatusBooked, model.StatusCancelled, at), ErrStatusMismatch)
		assert.ErrorIs(t, s.UpdateStatus(ctx, "nope", model.StatusBooked, model.StatusCancelled, at), ErrReservationNotFound)

		got, err := s.Get(ctx, "r-1")
		require.NoError(t, err)
		assert.Equal(t, model.StatusCompleted, got.Status)
		assert.True(t, at.Equal(got.UpdatedAt))
	})

	t.Run("concurrent inserts admit one", func(t *testing.T) {
		s := newStore(t)
		const n = 16
		var (
			wg  sync.WaitGroup
			mu  sync.Mutex
			won int
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				err := s.Insert(ctx, reservation(fmt.Sprintf("c-%02d", i), "A", day1, "", base))
				if err == nil {
					mu.Lock()
					won++
					mu.Unlock()
					return
				}
				assert.ErrorIs(t, err, ErrSeatTaken)
			}(i)
		}
		wg.Wait()
		assert.Equal(t, 1, won)
	})

	t.Run("list by party newest first", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Insert(ctx, reservation("r-1", "A", day1, "p-1", base)))
		require.NoError(t, s.Insert(ctx, reservation("r-2", "B", day1, "p-1", base.Add(time.Minute))))
		require.NoError(t, s.Insert(ctx, reservation("r-3", "C", day1, "p-2", base)))
		require.NoError(t, s.UpdateStatus(ctx, "r-1", model.StatusBooked, model.StatusCancelled, base))

		all, err := s.ListByParty(ctx, "p-1", nil)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "r-2", all[0].ID)
		assert.Equal(t, "r-1", all[1].ID)

		cancelled := model.StatusCancelled
		only, err := s.ListByParty(ctx, "p-1", &cancelled)
		require.NoError(t, err)
		require.Len(t, only, 1)
		assert.Equal(t, "r-1", only[0].ID)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Insert(ctx, reservation("r-1", "A", day1, "", base)))
		require.NoError(t, s.Delete(ctx, "r-1"))
		assert.ErrorIs(t, s.Delete(ctx, "r-1"), ErrReservationNotFound)
		assert.NoError(t, s.Insert(ctx, reservation("r-2", "A", day1, "", base)))
	})

	t.Run("booked before", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Insert(ctx, reservation("r-1", "A", day1, "", base)))
		require.NoError(t, s.Insert(ctx, reservation("r-2", "A", day2, "", base)))
		require.NoError(t, s.Insert(ctx, reservation("r-3", "B", day1, "", base)))
		require.NoError(t, s.UpdateStatus(ctx, "r-3", model.StatusBooked, model.StatusCancelled, base))

		rs, err := s.ListBookedBefore(ctx, day2)
		require.NoError(t, err)
		require.Len(t, rs, 1)
		assert.Equal(t, "r-1", rs[0].ID)

		dups, err := s.ListDuplicateBooked(ctx)
		require.NoError(t, err)
		assert.Empty(t, dups)
	})
}
