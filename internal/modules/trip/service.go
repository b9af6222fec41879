// README: Trip service; publication, listing and the status sweeper.
package trip

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"copool/internal/types"
)

var ErrBadRequest = errors.New("bad trip request")

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

type PublishCommand struct {
	DriverID     types.ID
	Origin       string
	Destination  string
	DepartureAt  time.Time
	PricePerSeat int64
	Capacity     int
}

// Publish creates a scheduled trip with its full capacity available.
// Trip editing beyond this belongs to the driver-facing surface; the booking
// core only ever mutates available_seats.
func (s *Service) Publish(ctx context.Context, cmd PublishCommand) (types.ID, error) {
	if cmd.DriverID == "" || cmd.Origin == "" || cmd.Destination == "" {
		return "", ErrBadRequest
	}
	if cmd.Capacity < 1 || cmd.PricePerSeat < 0 {
		return "", ErrBadRequest
	}
	if !cmd.DepartureAt.After(time.Now()) {
		return "", ErrBadRequest
	}

	t := &Trip{
		ID:             types.ID(uuid.NewString()),
		DriverID:       cmd.DriverID,
		Origin:         cmd.Origin,
		Destination:    cmd.Destination,
		DepartureAt:    cmd.DepartureAt,
		PricePerSeat:   cmd.PricePerSeat,
		Capacity:       cmd.Capacity,
		AvailableSeats: cmd.Capacity,
		Status:         StatusScheduled,
		CreatedAt:      time.Now(),
	}
	if err := s.store.Create(ctx, t); err != nil {
		return "", err
	}
	return t.ID, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Trip, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListUpcoming(ctx context.Context, limit int) ([]Trip, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.store.ListUpcoming(ctx, limit)
}

// RunStatusSweeper periodically advances trip statuses past departure.
func (s *Service) RunStatusSweeper(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.store.SweepStatuses(ctx); err != nil {
				log.Printf("trip status sweep: %v", err)
			} else if n > 0 {
				log.Printf("trip status sweep advanced %d trips", n)
			}
		}
	}
}
