// README: Chat message model and live-channel event definitions.
package chat

import (
	"time"

	"copool/internal/types"
)

// Message is one chat line within a trip, owned jointly by the two trip
// participants. Only the read flag ever changes after creation.
type Message struct {
	ID         types.ID   `json:"id"`
	TripID     types.ID   `json:"trip_id"`
	SenderID   types.ID   `json:"sender_id"`
	ReceiverID types.ID   `json:"receiver_id"`
	Text       string     `json:"text"`
	IsRead     bool       `json:"is_read"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`

	// Pending marks a local optimistic entry not yet confirmed by the store.
	Pending bool `json:"pending,omitempty"`
}

type EventKind string

const (
	EventInsert EventKind = "insert"
	EventUpdate EventKind = "update"
)

// Event is what the live channel pushes to trip subscribers: newly inserted
// messages and read-state updates.
type Event struct {
	Kind    EventKind `json:"kind"`
	Message Message   `json:"message"`
}

// DayGroup is a UI-level grouping of consecutive messages sharing a local
// calendar date.
type DayGroup struct {
	Date     string    `json:"date"` // YYYY-MM-DD in the grouping location
	Messages []Message `json:"messages"`
}

// GroupByDay splits ordered messages by local calendar date: two messages are
// grouped together only if their dates in loc match, regardless of how close
// their timestamps are across midnight.
func GroupByDay(msgs []Message, loc *time.Location) []DayGroup {
	if loc == nil {
		loc = time.Local
	}
	var groups []DayGroup
	for _, m := range msgs {
		date := m.CreatedAt.In(loc).Format("2006-01-02")
		if len(groups) == 0 || groups[len(groups)-1].Date != date {
			groups = append(groups, DayGroup{Date: date})
		}
		g := &groups[len(groups)-1]
		g.Messages = append(g.Messages, m)
	}
	return groups
}
