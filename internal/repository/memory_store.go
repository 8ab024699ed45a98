package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

// MemoryStore keeps reservations and vehicles in process memory.  It backs
// STORE=memory deployments and the service tests.  A seat index keyed on
// the booked triple makes Insert an atomic insert-if-vacant, matching the
// unique index of the MySQL schema.
type MemoryStore struct {
	mu           sync.RWMutex
	reservations map[string]model.Reservation
	booked       map[model.SeatKey]string // triple -> reservation id
	vehicles     map[string]model.Vehicle
	enforce      bool
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithoutSeatIndex disables the uniqueness check on Insert, modelling an
// eventually consistent document store that cannot refuse a duplicate.
// Used to exercise the reconciliation job.
func WithoutSeatIndex() MemoryOption {
	return func(s *MemoryStore) { s.enforce = false }
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		reservations: make(map[string]model.Reservation),
		booked:       make(map[model.SeatKey]string),
		vehicles:     make(map[string]model.Vehicle),
		enforce:      true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpsertVehicle stores or replaces a vehicle.
func (s *MemoryStore) UpsertVehicle(_ context.Context, v model.Vehicle) error {
	s.mu.Lock()
	s.vehicles[v.ID] = v
	s.mu.Unlock()
	return nil
}

// GetVehicle returns the vehicle with the given ID.
func (s *MemoryStore) GetVehicle(_ context.Context, id string) (model.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vehicles[id]
	if !ok {
		return model.Vehicle{}, ErrVehicleNotFound
	}
	return v, nil
}

// ListBooked returns booked reservations for a vehicle and date.
func (s *MemoryStore) ListBooked(ctx context.Context, vehicleID string, date model.ServiceDate) ([]model.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Reservation{}
	for _, r := range s.reservations {
		if r.VehicleID == vehicleID && r.ServiceDate == date && r.Status == model.StatusBooked {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeatID < out[j].SeatID })
	return out, nil
}

// ListByParty returns a party's reservations newest first, optionally
// restricted to one status.
func (s *MemoryStore) ListByParty(ctx context.Context, partyID string, status *model.Status) ([]model.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Reservation{}
	for _, r := range s.reservations {
		if r.PartyID != partyID || partyID == "" {
			continue
		}
		if status != nil && r.Status != *status {
			continue
		}
		out = append(out, r)
	}
	model.SortNewestFirst(out)
	return out, nil
}

// Get returns a reservation by ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (model.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return model.Reservation{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reservations[id]
	if !ok {
		return model.Reservation{}, ErrReservationNotFound
	}
	return r, nil
}

// Insert stores a new reservation.  A booked reservation whose triple is
// already held fails with ErrSeatTaken and leaves the store unchanged.
func (s *MemoryStore) Insert(ctx context.Context, r model.Reservation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.reservations[r.ID]; exists {
		return ErrDuplicateID
	}
	if r.Occupies() {
		if _, taken := s.booked[r.Key()]; taken && s.enforce {
			return ErrSeatTaken
		}
		s.booked[r.Key()] = r.ID
	}
	s.reservations[r.ID] = r
	return nil
}

// UpdateStatus moves a reservation from one status to another.  It fails
// with ErrStatusMismatch when the current status is not from.
func (s *MemoryStore) UpdateStatus(ctx context.Context, id string, from, to model.Status, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return ErrReservationNotFound
	}
	if r.Status != from {
		return ErrStatusMismatch
	}
	if to == model.StatusBooked {
		if holder, taken := s.booked[r.Key()]; taken && holder != id && s.enforce {
			return ErrSeatTaken
		}
	}
	r.Status = to
	r.UpdatedAt = at
	s.reservations[id] = r
	s.reindex(r.Key())
	return nil
}

// Delete removes a reservation outright.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return ErrReservationNotFound
	}
	delete(s.reservations, id)
	s.reindex(r.Key())
	return nil
}

// reindex recomputes the booked holder of a triple.  Callers hold mu.
func (s *MemoryStore) reindex(key model.SeatKey) {
	delete(s.booked, key)
	for _, r := range s.reservations {
		if r.Occupies() && r.Key() == key {
			s.booked[key] = r.ID
			return
		}
	}
}

// ListBookedBefore returns booked reservations whose service date is
// strictly earlier than date.
func (s *MemoryStore) ListBookedBefore(ctx context.Context, date model.ServiceDate) ([]model.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Reservation{}
	for _, r := range s.reservations {
		if r.Occupies() && r.ServiceDate.Before(date) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListDuplicateBooked groups booked reservations sharing a triple, for
// every triple held more than once.  Each group is ordered oldest first.
func (s *MemoryStore) ListDuplicateBooked(ctx context.Context) ([][]model.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	groups := map[model.SeatKey][]model.Reservation{}
	for _, r := range s.reservations {
		if r.Occupies() {
			groups[r.Key()] = append(groups[r.Key()], r)
		}
	}
	out := [][]model.Reservation{}
	for _, g := range groups {
		if len(g) < 2 {
			continue
		}
		sortOldestFirst(g)
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0].ID < out[j][0].ID })
	return out, nil
}

func sortOldestFirst(rs []model.Reservation) {
	sort.SliceStable(rs, func(i, j int) bool {
		if !rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return rs[i].CreatedAt.Before(rs[j].CreatedAt)
		}
		return rs[i].ID < rs[j].ID
	})
}
