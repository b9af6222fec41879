// README: Seat reservation manager; the only authority over bookings and seat inventory.
package booking

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"copool/internal/modules/pricing"
	"copool/internal/modules/refund"
	"copool/internal/modules/trip"
	"copool/internal/types"
)

// TripStore is the slice of the trip store the reservation manager needs:
// fresh reads plus the two sanctioned seat mutations.
type TripStore interface {
	Get(ctx context.Context, id types.ID) (*trip.Trip, error)
	ReserveSeats(ctx context.Context, id types.ID, seats, snapshot int) (bool, error)
	RestoreSeats(ctx context.Context, id types.ID, seats int) error
}

// Store persists bookings and their payment records.
type Store interface {
	Insert(ctx context.Context, b *Booking) error
	InsertPayment(ctx context.Context, p *PaymentRecord) error
	Get(ctx context.Context, id types.ID) (*Booking, error)
	Delete(ctx context.Context, id types.ID) error
	DeletePayment(ctx context.Context, bookingID types.ID) error
	// MarkCancelled is a conditional flip: it reports false without error
	// when the booking was already cancelled by a concurrent caller.
	MarkCancelled(ctx context.Context, b *Booking) (bool, error)
	MarkPaymentRefunded(ctx context.Context, bookingID types.ID) error
	ListByPassenger(ctx context.Context, passengerID types.ID, limit int) ([]Booking, error)
}

// Notifier receives terminal-success events. Implementations must be
// fire-and-forget: calls return immediately and never report failure here.
type Notifier interface {
	BookingCreated(b *Booking, t *trip.Trip)
	BookingCancelled(b *Booking, t *trip.Trip, calc refund.Calculation)
}

type Service struct {
	store    Store
	trips    TripStore
	notifier Notifier
	deadline time.Duration

	// now is swappable for deterministic tests.
	now func() time.Time
}

func NewService(store Store, trips TripStore, notifier Notifier, deadline time.Duration) *Service {
	if deadline <= 0 {
		deadline = refund.NoRefundLead
	}
	return &Service{
		store:    store,
		trips:    trips,
		notifier: notifier,
		deadline: deadline,
		now:      time.Now,
	}
}

type CreateCommand struct {
	TripID      types.ID
	PassengerID types.ID
	Seats       int
	Pickup      string
	Dropoff     string
}

type CancelCommand struct {
	BookingID types.ID
	Reason    string
}

// Create runs one booking attempt through
// Validating -> SeatCheck -> Reserving -> {Committed | RolledBack}.
// The conditional seat decrement is the single serialization point; losing it
// rolls back the inserted rows and surfaces a retryable ConflictError.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Booking, error) {
	if cmd.TripID == "" || cmd.PassengerID == "" {
		return nil, ValidationError{Violations: []string{"trip id and passenger id are required"}}
	}

	t, err := s.trips.Get(ctx, cmd.TripID)
	if err != nil {
		if err == trip.ErrNotFound {
			return nil, err
		}
		return nil, PersistenceError{Op: "get trip", Err: err}
	}

	// Validating: collect every violated rule.
	var violations []string
	if cmd.Seats < 1 {
		violations = append(violations, fmt.Sprintf("seats must be >= 1, got %d", cmd.Seats))
	}
	if cmd.Seats >= 1 && cmd.Seats > t.AvailableSeats {
		violations = append(violations, fmt.Sprintf("requested %d seats, trip lists %d", cmd.Seats, t.AvailableSeats))
	}
	if t.Status != trip.StatusScheduled {
		violations = append(violations, fmt.Sprintf("trip is %s, not open for booking", t.Status))
	}
	if cutoff := t.DepartureAt.Add(-s.deadline); !s.now().Before(cutoff) {
		violations = append(violations, fmt.Sprintf("booking closes %s before departure", s.deadline))
	}
	if cmd.PassengerID == t.DriverID {
		violations = append(violations, "driver cannot book own trip")
	}
	if len(violations) > 0 {
		return nil, ValidationError{Violations: violations}
	}

	// SeatCheck: re-read for the authoritative snapshot, never a cache.
	fresh, err := s.trips.Get(ctx, cmd.TripID)
	if err != nil {
		if err == trip.ErrNotFound {
			return nil, err
		}
		return nil, PersistenceError{Op: "re-read trip", Err: err}
	}
	snapshot := fresh.AvailableSeats
	if snapshot < cmd.Seats {
		return nil, InsufficientSeatsError{Requested: cmd.Seats, Remaining: snapshot}
	}

	breakdown, err := pricing.Quote(pricing.QuoteRequest{
		PricePerSeat: fresh.PricePerSeat,
		Seats:        cmd.Seats,
	})
	if err != nil {
		return nil, ValidationError{Violations: []string{err.Error()}}
	}

	// Reserving: insert the rows, then gate the decrement on the snapshot.
	b := &Booking{
		ID:           types.ID(uuid.NewString()),
		TripID:       fresh.ID,
		PassengerID:  cmd.PassengerID,
		Seats:        cmd.Seats,
		BaseFare:     breakdown.BaseFare.Amount,
		PlatformFee:  breakdown.PlatformFee.Amount,
		GST:          breakdown.GST.Amount,
		TotalAmount:  breakdown.TotalAmount.Amount,
		Status:       StatusConfirmed,
		Payment:      PaymentCompleted,
		Pickup:       cmd.Pickup,
		Dropoff:      cmd.Dropoff,
		CreatedAt:    s.now(),
		RefundStatus: RefundNone,
	}
	if err := s.store.Insert(ctx, b); err != nil {
		return nil, PersistenceError{Op: "insert booking", Err: err}
	}
	payment := &PaymentRecord{
		ID:            types.ID(uuid.NewString()),
		BookingID:     b.ID,
		Amount:        b.TotalAmount,
		Status:        PaymentCompleted,
		TransactionID: "txn_" + uuid.NewString(),
		CreatedAt:     s.now(),
	}
	if err := s.store.InsertPayment(ctx, payment); err != nil {
		s.rollbackReservation(ctx, b.ID)
		return nil, PersistenceError{Op: "insert payment", Err: err}
	}

	ok, err := s.trips.ReserveSeats(ctx, fresh.ID, cmd.Seats, snapshot)
	if err != nil {
		s.rollbackReservation(ctx, b.ID)
		return nil, PersistenceError{Op: "reserve seats", Err: err}
	}
	if !ok {
		// RolledBack: lost the optimistic race.
		s.rollbackReservation(ctx, b.ID)
		remaining := -1
		if current, err := s.trips.Get(ctx, cmd.TripID); err == nil {
			remaining = current.AvailableSeats
		}
		return nil, ConflictError{Remaining: remaining}
	}

	// Committed.
	if s.notifier != nil {
		s.notifier.BookingCreated(b, fresh)
	}
	return b, nil
}

// rollbackReservation is the compensating step for a failed reservation:
// the store offers no multi-row transaction, so the just-inserted payment and
// booking rows are explicitly undone. Kept behind one function so it can be
// swapped for a real transaction later.
func (s *Service) rollbackReservation(ctx context.Context, bookingID types.ID) {
	if err := s.store.DeletePayment(ctx, bookingID); err != nil {
		log.Printf("rollback payment %s: %v", bookingID, err)
	}
	if err := s.store.Delete(ctx, bookingID); err != nil {
		log.Printf("rollback booking %s: %v", bookingID, err)
	}
}

// Cancel flips a confirmed booking to cancelled, computes the refund against
// the trip's departure time and restores the seats. The flip is conditional
// on the booking not being cancelled yet, so of two concurrent cancels only
// the winner restores seats and processes the refund; the loser gets
// ErrAlreadyCancelled. The restore itself is additive and non-fatal on
// failure: the cancellation has already committed.
func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) (refund.Calculation, error) {
	b, err := s.store.Get(ctx, cmd.BookingID)
	if err != nil {
		if err == ErrNotFound {
			return refund.Calculation{}, err
		}
		return refund.Calculation{}, PersistenceError{Op: "get booking", Err: err}
	}
	if b.Status == StatusCancelled {
		return refund.Calculation{}, ErrAlreadyCancelled
	}

	t, err := s.trips.Get(ctx, b.TripID)
	if err != nil {
		return refund.Calculation{}, PersistenceError{Op: "get trip", Err: err}
	}

	calc := refund.Compute(t.DepartureAt, s.now(), b.TotalAmount, b.PlatformFee)

	now := s.now()
	reason := cmd.Reason
	b.Status = StatusCancelled
	b.CancelReason = &reason
	b.CancelledAt = &now
	b.RefundAmount = calc.RefundAmount.Amount
	if calc.IsEligible {
		b.RefundStatus = RefundProcessed
		b.Payment = PaymentRefunded
	}
	won, err := s.store.MarkCancelled(ctx, b)
	if err != nil {
		return refund.Calculation{}, PersistenceError{Op: "mark cancelled", Err: err}
	}
	if !won {
		// A concurrent cancel got there first; it owns the seat restore.
		return refund.Calculation{}, ErrAlreadyCancelled
	}

	if err := s.trips.RestoreSeats(ctx, b.TripID, b.Seats); err != nil {
		// Degrades to an availability undercount, not a correctness violation.
		log.Printf("restore %d seats on trip %s: %v", b.Seats, b.TripID, err)
	}
	if calc.IsEligible {
		if err := s.store.MarkPaymentRefunded(ctx, b.ID); err != nil {
			log.Printf("mark payment refunded for booking %s: %v", b.ID, err)
		}
	}

	if s.notifier != nil {
		s.notifier.BookingCancelled(b, t, calc)
	}
	return calc, nil
}

// PreviewRefund computes the refund a cancellation would yield right now,
// through the exact function Cancel uses, without mutating anything.
// Returns nil for bookings that are already cancelled.
func (s *Service) PreviewRefund(ctx context.Context, bookingID types.ID) (*refund.Calculation, error) {
	b, err := s.store.Get(ctx, bookingID)
	if err != nil {
		if err == ErrNotFound {
			return nil, err
		}
		return nil, PersistenceError{Op: "get booking", Err: err}
	}
	if b.Status == StatusCancelled {
		return nil, nil
	}
	t, err := s.trips.Get(ctx, b.TripID)
	if err != nil {
		return nil, PersistenceError{Op: "get trip", Err: err}
	}
	calc := refund.Compute(t.DepartureAt, s.now(), b.TotalAmount, b.PlatformFee)
	return &calc, nil
}

func (s *Service) ListByPassenger(ctx context.Context, passengerID types.ID, limit int) ([]Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	out, err := s.store.ListByPassenger(ctx, passengerID, limit)
	if err != nil {
		return nil, PersistenceError{Op: "list bookings", Err: err}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Booking, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return nil, err
		}
		return nil, PersistenceError{Op: "get booking", Err: err}
	}
	return b, nil
}
