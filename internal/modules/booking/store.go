// README: Booking store backed by PostgreSQL.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"copool/internal/types"
)

type PgStore struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

func (s *PgStore) Insert(ctx context.Context, b *Booking) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO bookings (
			id, trip_id, passenger_id, seats,
			base_fare, platform_fee, gst_amount, total_amount,
			booking_status, payment_status, pickup, dropoff,
			refund_amount, refund_status, created_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10, $11, $12,
			$13, $14, $15
		)`,
		string(b.ID), string(b.TripID), string(b.PassengerID), b.Seats,
		b.BaseFare, b.PlatformFee, b.GST, b.TotalAmount,
		string(b.Status), string(b.Payment), b.Pickup, b.Dropoff,
		b.RefundAmount, string(b.RefundStatus), b.CreatedAt,
	)
	return err
}

func (s *PgStore) InsertPayment(ctx context.Context, p *PaymentRecord) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO payments (id, booking_id, amount, status, transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		string(p.ID), string(p.BookingID), p.Amount, string(p.Status), p.TransactionID, p.CreatedAt,
	)
	return err
}

func (s *PgStore) Get(ctx context.Context, id types.ID) (*Booking, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, trip_id, passenger_id, seats,
		       base_fare, platform_fee, gst_amount, total_amount,
		       booking_status, payment_status, pickup, dropoff,
		       cancel_reason, cancelled_at, refund_amount, refund_status, created_at
		FROM bookings
		WHERE id = $1`, string(id),
	)

	var b Booking
	var cancelReason *string
	var cancelledAt *time.Time
	err := row.Scan(
		&b.ID, &b.TripID, &b.PassengerID, &b.Seats,
		&b.BaseFare, &b.PlatformFee, &b.GST, &b.TotalAmount,
		&b.Status, &b.Payment, &b.Pickup, &b.Dropoff,
		&cancelReason, &cancelledAt, &b.RefundAmount, &b.RefundStatus, &b.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	b.CancelReason = cancelReason
	b.CancelledAt = cancelledAt
	return &b, nil
}

// Delete physically removes a booking row. Only the compensating rollback of
// a failed reservation may call this; cancelled bookings are kept.
func (s *PgStore) Delete(ctx context.Context, id types.ID) error {
	_, err := s.db.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, string(id))
	return err
}

func (s *PgStore) DeletePayment(ctx context.Context, bookingID types.ID) error {
	_, err := s.db.Exec(ctx, `DELETE FROM payments WHERE booking_id = $1`, string(bookingID))
	return err
}

// MarkCancelled flips a booking to cancelled only if it is not cancelled yet.
// The condition serializes concurrent cancels of one booking: exactly one
// caller sees rows affected == 1 and owns the follow-up seat restore.
func (s *PgStore) MarkCancelled(ctx context.Context, b *Booking) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET booking_status = $2, payment_status = $3,
		    cancel_reason = $4, cancelled_at = $5,
		    refund_amount = $6, refund_status = $7
		WHERE id = $1 AND booking_status <> 'cancelled'`,
		string(b.ID), string(b.Status), string(b.Payment),
		b.CancelReason, b.CancelledAt,
		b.RefundAmount, string(b.RefundStatus),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PgStore) MarkPaymentRefunded(ctx context.Context, bookingID types.ID) error {
	_, err := s.db.Exec(ctx, `
		UPDATE payments SET status = 'refunded' WHERE booking_id = $1`,
		string(bookingID),
	)
	return err
}

func (s *PgStore) ListByPassenger(ctx context.Context, passengerID types.ID, limit int) ([]Booking, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, trip_id, passenger_id, seats,
		       base_fare, platform_fee, gst_amount, total_amount,
		       booking_status, payment_status, pickup, dropoff,
		       cancel_reason, cancelled_at, refund_amount, refund_status, created_at
		FROM bookings
		WHERE passenger_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, string(passengerID), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(
			&b.ID, &b.TripID, &b.PassengerID, &b.Seats,
			&b.BaseFare, &b.PlatformFee, &b.GST, &b.TotalAmount,
			&b.Status, &b.Payment, &b.Pickup, &b.Dropoff,
			&b.CancelReason, &b.CancelledAt, &b.RefundAmount, &b.RefundStatus, &b.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
