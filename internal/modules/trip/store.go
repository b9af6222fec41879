// README: Trip store backed by PostgreSQL; owns all writes to available_seats.
package trip

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"copool/internal/types"
)

var ErrNotFound = errors.New("trip not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, t *Trip) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO trips (
			id, driver_id, origin, destination, departure_at,
			price_per_seat, capacity, available_seats, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		string(t.ID),
		string(t.DriverID),
		t.Origin,
		t.Destination,
		t.DepartureAt,
		t.PricePerSeat,
		t.Capacity,
		t.AvailableSeats,
		string(t.Status),
		t.CreatedAt,
	)
	return err
}

// Get reads the trip row fresh from the store. Callers that are about to
// reserve seats rely on this being the authoritative snapshot, not a cache.
func (s *Store) Get(ctx context.Context, id types.ID) (*Trip, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, driver_id, origin, destination, departure_at,
		       price_per_seat, capacity, available_seats, status, created_at
		FROM trips
		WHERE id = $1`, string(id),
	)
	var t Trip
	err := row.Scan(
		&t.ID, &t.DriverID, &t.Origin, &t.Destination, &t.DepartureAt,
		&t.PricePerSeat, &t.Capacity, &t.AvailableSeats, &t.Status, &t.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) ListUpcoming(ctx context.Context, limit int) ([]Trip, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, driver_id, origin, destination, departure_at,
		       price_per_seat, capacity, available_seats, status, created_at
		FROM trips
		WHERE status = 'scheduled' AND departure_at > NOW()
		ORDER BY departure_at
		LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []Trip
	for rows.Next() {
		var t Trip
		if err := rows.Scan(
			&t.ID, &t.DriverID, &t.Origin, &t.Destination, &t.DepartureAt,
			&t.PricePerSeat, &t.Capacity, &t.AvailableSeats, &t.Status, &t.CreatedAt,
		); err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

// ReserveSeats decrements available_seats by seats only if the stored value
// still equals snapshot. This compare-and-swap is the serialization point for
// concurrent bookings on one trip: exactly one racer against the same
// snapshot sees rows affected == 1.
func (s *Store) ReserveSeats(ctx context.Context, id types.ID, seats, snapshot int) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE trips
		SET available_seats = available_seats - $2
		WHERE id = $1 AND available_seats = $3`,
		string(id), seats, snapshot,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// RestoreSeats adds cancelled seats back to the inventory. No CAS guard: the
// restore only moves the count back toward capacity, so a concurrent booking
// cannot be invalidated by it.
func (s *Store) RestoreSeats(ctx context.Context, id types.ID, seats int) error {
	_, err := s.db.Exec(ctx, `
		UPDATE trips
		SET available_seats = available_seats + $2
		WHERE id = $1`,
		string(id), seats,
	)
	return err
}

// SweepStatuses advances scheduled trips past departure to active and active
// trips past the grace window to completed. Returns rows touched.
func (s *Store) SweepStatuses(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE trips SET status = 'active'
		WHERE status = 'scheduled' AND departure_at <= NOW()`)
	if err != nil {
		return 0, err
	}
	n := tag.RowsAffected()
	tag, err = s.db.Exec(ctx, `
		UPDATE trips SET status = 'completed'
		WHERE status = 'active' AND departure_at <= NOW() - INTERVAL '12 hours'`)
	if err != nil {
		return n, err
	}
	return n + tag.RowsAffected(), nil
}
