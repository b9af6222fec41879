// README: Notification store backed by PostgreSQL.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgStore struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

func (s *PgStore) Insert(ctx context.Context, n *Notification) error {
	data, err := json.Marshal(n.Data)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO notifications (user_id, title, body, type, data, action_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		n.UserID, n.Title, n.Body, string(n.Type), data, n.ActionURL, time.Now(),
	)
	return err
}

func (s *PgStore) DeviceToken(ctx context.Context, userID string) (string, error) {
	row := s.db.QueryRow(ctx, `
		SELECT token FROM device_tokens
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT 1`, userID,
	)
	var token string
	if err := row.Scan(&token); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return token, nil
}

// UpsertDeviceToken registers the latest FCM token for a user's device.
func (s *PgStore) UpsertDeviceToken(ctx context.Context, userID, token string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO device_tokens (user_id, token, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET token = $2, updated_at = NOW()`,
		userID, token,
	)
	return err
}
