// README: Notification payload and event type definitions.
package notify

type EventType string

const (
	EventBookingCreated   EventType = "booking_created"
	EventBookingCancelled EventType = "booking_cancelled"
)

// Notification is a write-once, fire-and-forget message to one user. The
// booking core never reads it back.
type Notification struct {
	UserID    string
	Title     string
	Body      string
	Type      EventType
	Data      map[string]string
	ActionURL string
}
