// README: Message store backed by PostgreSQL, ordered by persistence timestamp.
package chat

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"copool/internal/types"
)

type PgStore struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

// Insert persists the message and stamps it with the authoritative
// server-side timestamp, which defines ordering within the trip.
func (s *PgStore) Insert(ctx context.Context, m *Message) error {
	m.CreatedAt = time.Now()
	_, err := s.db.Exec(ctx, `
		INSERT INTO messages (id, trip_id, sender_id, receiver_id, text, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(m.ID), string(m.TripID), string(m.SenderID), string(m.ReceiverID),
		m.Text, m.IsRead, m.CreatedAt,
	)
	return err
}

func (s *PgStore) ListByTrip(ctx context.Context, tripID types.ID) ([]Message, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, trip_id, sender_id, receiver_id, text, is_read, read_at, created_at
		FROM messages
		WHERE trip_id = $1
		ORDER BY created_at`, string(tripID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(
			&m.ID, &m.TripID, &m.SenderID, &m.ReceiverID,
			&m.Text, &m.IsRead, &m.ReadAt, &m.CreatedAt,
		); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (s *PgStore) MarkRead(ctx context.Context, id types.ID, at time.Time) error {
	_, err := s.db.Exec(ctx, `
		UPDATE messages SET is_read = TRUE, read_at = $2
		WHERE id = $1 AND is_read = FALSE`,
		string(id), at,
	)
	return err
}
