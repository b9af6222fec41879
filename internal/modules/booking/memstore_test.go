package booking

import (
	"context"
	"errors"
	"sync"
	"time"

	"copool/internal/modules/refund"
	"copool/internal/modules/trip"
	"copool/internal/types"
)

// memTripStore mimics the conditional-update semantics of the SQL store:
// the decrement succeeds only while the stored count equals the snapshot.
type memTripStore struct {
	mu    sync.Mutex
	trips map[types.ID]*trip.Trip

	getCalls      int
	afterGet      func(calls int, t *trip.Trip)
	beforeReserve func()
	restoreErr    error
}

func newMemTripStore(trips ...*trip.Trip) *memTripStore {
	s := &memTripStore{trips: make(map[types.ID]*trip.Trip)}
	for _, t := range trips {
		s.trips[t.ID] = t
	}
	return s
}

func (s *memTripStore) Get(ctx context.Context, id types.ID) (*trip.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trips[id]
	if !ok {
		return nil, trip.ErrNotFound
	}
	s.getCalls++
	if s.afterGet != nil {
		s.afterGet(s.getCalls, t)
	}
	cp := *t
	return &cp, nil
}

func (s *memTripStore) ReserveSeats(ctx context.Context, id types.ID, seats, snapshot int) (bool, error) {
	if s.beforeReserve != nil {
		s.beforeReserve()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trips[id]
	if !ok {
		return false, nil
	}
	if t.AvailableSeats != snapshot {
		return false, nil
	}
	t.AvailableSeats -= seats
	return true, nil
}

func (s *memTripStore) RestoreSeats(ctx context.Context, id types.ID, seats int) error {
	if s.restoreErr != nil {
		return s.restoreErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.trips[id]; ok {
		t.AvailableSeats += seats
	}
	return nil
}

func (s *memTripStore) seats(id types.ID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trips[id].AvailableSeats
}

type memStore struct {
	mu       sync.Mutex
	bookings map[types.ID]*Booking
	payments map[types.ID]*PaymentRecord // keyed by booking id

	insertPaymentErr error
	afterGet         func()
}

func newMemStore() *memStore {
	return &memStore{
		bookings: make(map[types.ID]*Booking),
		payments: make(map[types.ID]*PaymentRecord),
	}
}

func (s *memStore) Insert(ctx context.Context, b *Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *b
	s.bookings[b.ID] = &cp
	return nil
}

func (s *memStore) InsertPayment(ctx context.Context, p *PaymentRecord) error {
	if s.insertPaymentErr != nil {
		return s.insertPaymentErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.payments[p.BookingID] = &cp
	return nil
}

func (s *memStore) Get(ctx context.Context, id types.ID) (*Booking, error) {
	s.mu.Lock()
	b, ok := s.bookings[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	cp := *b
	s.mu.Unlock()
	// Runs outside the lock, where the SQL store would be between its SELECT
	// and any follow-up UPDATE.
	if s.afterGet != nil {
		s.afterGet()
	}
	return &cp, nil
}

func (s *memStore) Delete(ctx context.Context, id types.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bookings, id)
	return nil
}

func (s *memStore) DeletePayment(ctx context.Context, bookingID types.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.payments, bookingID)
	return nil
}

// MarkCancelled mimics the conditional UPDATE: the flip only succeeds while
// the stored row is not cancelled yet.
func (s *memStore) MarkCancelled(ctx context.Context, b *Booking) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.bookings[b.ID]
	if !ok {
		return false, errors.New("booking vanished")
	}
	if stored.Status == StatusCancelled {
		return false, nil
	}
	*stored = *b
	return true, nil
}

func (s *memStore) MarkPaymentRefunded(ctx context.Context, bookingID types.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[bookingID]
	if !ok {
		return errors.New("payment vanished")
	}
	p.Status = PaymentRefunded
	return nil
}

func (s *memStore) ListByPassenger(ctx context.Context, passengerID types.ID, limit int) ([]Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Booking
	for _, b := range s.bookings {
		if b.PassengerID == passengerID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bookings)
}

type recordingNotifier struct {
	mu        sync.Mutex
	created   []types.ID
	cancelled []types.ID
}

func (n *recordingNotifier) BookingCreated(b *Booking, t *trip.Trip) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, b.ID)
}

func (n *recordingNotifier) BookingCancelled(b *Booking, t *trip.Trip, calc refund.Calculation) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = append(n.cancelled, b.ID)
}

func scheduledTrip(id types.ID, seats int, departIn time.Duration) *trip.Trip {
	return &trip.Trip{
		ID:             id,
		DriverID:       "driver-1",
		Origin:         "Pune",
		Destination:    "Mumbai",
		DepartureAt:    time.Now().Add(departIn),
		PricePerSeat:   500,
		Capacity:       seats,
		AvailableSeats: seats,
		Status:         trip.StatusScheduled,
		CreatedAt:      time.Now(),
	}
}
