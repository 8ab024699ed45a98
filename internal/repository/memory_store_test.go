package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

func TestMemoryStoreContract(t *testing.T) {
	runStoreContract(t, func(*testing.T) reservationStore { return NewMemoryStore() })
}

func TestMemoryStoreVehicles(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, err := s.GetVehicle(ctx, "V1")
	assert.ErrorIs(t, err, ErrVehicleNotFound)

	capacity := uint32(12)
	require.NoError(t, s.UpsertVehicle(ctx, model.Vehicle{ID: "V1", SeatClass: "MINI_3", SeatCapacity: &capacity}))
	v, err := s.GetVehicle(ctx, "V1")
	require.NoError(t, err)
	assert.Equal(t, 12, v.Capacity())
}

func TestMemoryStoreRejectsDuplicateID(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, reservation("r-1", "A", day1, "", base)))
	assert.ErrorIs(t, s.Insert(ctx, reservation("r-1", "B", day1, "", base)), ErrDuplicateID)
}

func TestMemoryStoreWithoutSeatIndex(t *testing.T) {
	s := NewMemoryStore(WithoutSeatIndex())
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, reservation("r-2", "A", day1, "", base.Add(time.Minute))))
	require.NoError(t, s.Insert(ctx, reservation("r-1", "A", day1, "", base)))
	require.NoError(t, s.Insert(ctx, reservation("r-3", "B", day1, "", base)))

	dups, err := s.ListDuplicateBooked(ctx)
	require.NoError(t, err)
	require.Len(t, dups, 1)
	require.Len(t, dups[0], 2)
	assert.Equal(t, "r-1", dups[0][0].ID)
	assert.Equal(t, "r-2", dups[0][1].ID)

	require.NoError(t, s.UpdateStatus(ctx, "r-2", model.StatusBooked, model.StatusCancelled, base))
	dups, err = s.ListDuplicateBooked(ctx)
	require.NoError(t, err)
	assert.Empty(t, dups)
}

func TestMemoryStoreHonoursContext(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Insert(ctx, reservation("r-1", "A", day1, "", base)), context.Canceled)
	_, err := s.ListBooked(ctx, "V1", day1)
	assert.ErrorIs(t, err, context.Canceled)
}
