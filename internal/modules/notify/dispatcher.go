// README: Best-effort notification fan-out, fully detached from the booking path.
package notify

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"copool/internal/modules/booking"
	"copool/internal/modules/refund"
	"copool/internal/modules/trip"
)

// Store persists notification rows and resolves device tokens.
type Store interface {
	Insert(ctx context.Context, n *Notification) error
	DeviceToken(ctx context.Context, userID string) (string, error)
}

// Sender delivers a notification to a device token (FCM in production).
type Sender interface {
	Send(ctx context.Context, token string, n Notification) error
}

// Dispatcher implements booking.Notifier. Every dispatch runs in its own
// goroutine with its own context: the reservation path returns to its caller
// no matter what happens here, and failures are logged, never propagated.
type Dispatcher struct {
	store   Store
	sender  Sender
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(store Store, sender Sender) *Dispatcher {
	return &Dispatcher{store: store, sender: sender, timeout: 10 * time.Second}
}

var _ booking.Notifier = (*Dispatcher)(nil)

func (d *Dispatcher) BookingCreated(b *booking.Booking, t *trip.Trip) {
	data := map[string]string{
		"booking_id": string(b.ID),
		"trip_id":    string(t.ID),
		"seats":      fmt.Sprintf("%d", b.Seats),
	}
	d.fanOut(
		Notification{
			UserID:    string(b.PassengerID),
			Title:     "Booking confirmed",
			Body:      fmt.Sprintf("%d seat(s) on %s → %s, total ₹%d", b.Seats, t.Origin, t.Destination, b.TotalAmount),
			Type:      EventBookingCreated,
			Data:      data,
			ActionURL: "/bookings/" + string(b.ID),
		},
		Notification{
			UserID:    string(t.DriverID),
			Title:     "New passenger",
			Body:      fmt.Sprintf("%d seat(s) booked on your trip %s → %s", b.Seats, t.Origin, t.Destination),
			Type:      EventBookingCreated,
			Data:      data,
			ActionURL: "/trips/" + string(t.ID),
		},
	)
}

func (d *Dispatcher) BookingCancelled(b *booking.Booking, t *trip.Trip, calc refund.Calculation) {
	data := map[string]string{
		"booking_id": string(b.ID),
		"trip_id":    string(t.ID),
		"refund":     fmt.Sprintf("%d", calc.RefundAmount.Amount),
	}
	passengerBody := "Booking cancelled. " + calc.Reason
	if calc.IsEligible {
		passengerBody = fmt.Sprintf("Booking cancelled, ₹%d will be refunded (%s)", calc.RefundAmount.Amount, calc.Reason)
	}
	d.fanOut(
		Notification{
			UserID:    string(b.PassengerID),
			Title:     "Booking cancelled",
			Body:      passengerBody,
			Type:      EventBookingCancelled,
			Data:      data,
			ActionURL: "/bookings/" + string(b.ID),
		},
		Notification{
			UserID:    string(t.DriverID),
			Title:     "Seats released",
			Body:      fmt.Sprintf("%d seat(s) freed on your trip %s → %s", b.Seats, t.Origin, t.Destination),
			Type:      EventBookingCancelled,
			Data:      data,
			ActionURL: "/trips/" + string(t.ID),
		},
	)
}

func (d *Dispatcher) fanOut(notifications ...Notification) {
	for _, n := range notifications {
		d.wg.Add(1)
		go func(n Notification) {
			defer d.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Printf("notify %s/%s panic: %v", n.Type, n.UserID, r)
				}
			}()
			ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
			defer cancel()
			d.deliver(ctx, n)
		}(n)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, n Notification) {
	if err := d.store.Insert(ctx, &n); err != nil {
		log.Printf("persist notification %s for %s: %v", n.Type, n.UserID, err)
	}
	if d.sender == nil {
		return
	}
	token, err := d.store.DeviceToken(ctx, n.UserID)
	if err != nil || token == "" {
		log.Printf("no device token for %s, skipping push: %v", n.UserID, err)
		return
	}
	if err := d.sender.Send(ctx, token, n); err != nil {
		log.Printf("push %s to %s: %v", n.Type, n.UserID, err)
	}
}

// Wait blocks until in-flight deliveries finish. Used on shutdown and in tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
