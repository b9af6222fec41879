// README: Trip aggregate and status definitions.
package trip

import (
	"time"

	"copool/internal/types"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Trip is a driver-published ride with a finite seat inventory.
// AvailableSeats is the contended field: it is written only through
// Store.ReserveSeats (conditional decrement) and Store.RestoreSeats
// (additive restore), never directly.
type Trip struct {
	ID             types.ID  `json:"id"`
	DriverID       types.ID  `json:"driver_id"`
	Origin         string    `json:"origin"`
	Destination    string    `json:"destination"`
	DepartureAt    time.Time `json:"departure_at"`
	PricePerSeat   int64     `json:"price_per_seat"`
	Capacity       int       `json:"capacity"`
	AvailableSeats int       `json:"available_seats"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// Terminal reports whether the trip can no longer take bookings.
func (t Trip) Terminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusCancelled
}
