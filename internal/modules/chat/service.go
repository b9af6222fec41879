// README: Trip chat conversations: optimistic echo, reconciliation, dedupe and read receipts.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"copool/internal/types"
)

type Store interface {
	Insert(ctx context.Context, m *Message) error
	ListByTrip(ctx context.Context, tripID types.ID) ([]Message, error)
	MarkRead(ctx context.Context, id types.ID, at time.Time) error
}

type Live interface {
	Publish(ctx context.Context, tripID types.ID, ev Event) error
	Subscribe(ctx context.Context, tripID types.ID) (<-chan Event, func(), error)
	SubscriberCount(ctx context.Context, tripID types.ID) (int64, error)
}

var ErrEmptyMessage = errors.New("message text is empty")

// DeliveryError signals the caller that the send did not reach the store and
// should be retried; the optimistic local entry has already been removed.
type DeliveryError struct {
	Err error
}

func (e DeliveryError) Error() string {
	return fmt.Sprintf("message not delivered, please retry: %v", e.Err)
}

func (e DeliveryError) Unwrap() error { return e.Err }

type Service struct {
	store Store
	live  Live
	now   func() time.Time
}

func NewService(store Store, live Live) *Service {
	return &Service{store: store, live: live, now: time.Now}
}

// Open loads a participant's view of a trip conversation. Unread incoming
// messages are marked read on open, which publishes read receipts back to
// their senders.
func (s *Service) Open(ctx context.Context, tripID, userID types.ID) (*Conversation, error) {
	history, err := s.store.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	conv := &Conversation{
		TripID:  tripID,
		UserID:  userID,
		svc:     s,
		seen:    make(map[types.ID]bool),
		pending: make(map[types.ID]Message),
	}
	for _, m := range history {
		if m.ReceiverID == userID && !m.IsRead {
			s.markRead(ctx, &m)
		}
		conv.seen[m.ID] = true
		conv.confirmed = append(conv.confirmed, m)
	}
	return conv, nil
}

// Presence reports whether anyone currently holds a live subscription on the
// trip channel. Derived, never persisted.
func (s *Service) Presence(ctx context.Context, tripID types.ID) (bool, error) {
	n, err := s.live.SubscriberCount(ctx, tripID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ReadMessage records an explicit read receipt for a single message, for
// clients that acknowledge reads one by one instead of on open.
func (s *Service) ReadMessage(ctx context.Context, tripID, messageID types.ID) error {
	at := s.now()
	if err := s.store.MarkRead(ctx, messageID, at); err != nil {
		return err
	}
	ev := Event{Kind: EventUpdate, Message: Message{ID: messageID, TripID: tripID, IsRead: true, ReadAt: &at}}
	if err := s.live.Publish(ctx, tripID, ev); err != nil {
		log.Printf("publish read receipt %s: %v", messageID, err)
	}
	return nil
}

// markRead flips the read flag in the store and pushes the update back over
// the live channel as a read receipt. Failures are logged: a lost receipt
// never blocks message delivery.
func (s *Service) markRead(ctx context.Context, m *Message) {
	at := s.now()
	if err := s.store.MarkRead(ctx, m.ID, at); err != nil {
		log.Printf("mark read %s: %v", m.ID, err)
		return
	}
	m.IsRead = true
	m.ReadAt = &at
	if err := s.live.Publish(ctx, m.TripID, Event{Kind: EventUpdate, Message: *m}); err != nil {
		log.Printf("publish read receipt %s: %v", m.ID, err)
	}
}

// Conversation is one participant's reconciled view of a trip chat: the
// confirmed, store-ordered history plus optimistic entries awaiting
// confirmation, keyed by temporary id rather than position.
type Conversation struct {
	TripID types.ID
	UserID types.ID

	svc       *Service
	mu        sync.Mutex
	confirmed []Message
	seen      map[types.ID]bool
	pending   map[types.ID]Message
}

// Send makes the message visible immediately as a pending entry, persists it,
// and reconciles: on success the temporary entry is replaced in place by the
// server-confirmed record; on failure it is removed so no phantom message
// survives, and the caller is signalled to retry.
func (c *Conversation) Send(ctx context.Context, receiverID types.ID, text string) (types.ID, error) {
	if text == "" {
		return "", ErrEmptyMessage
	}

	tempID := types.ID("tmp_" + uuid.NewString())
	c.mu.Lock()
	c.pending[tempID] = Message{
		ID:         tempID,
		TripID:     c.TripID,
		SenderID:   c.UserID,
		ReceiverID: receiverID,
		Text:       text,
		CreatedAt:  c.svc.now(), // optimistic; replaced by the store's timestamp
		Pending:    true,
	}
	c.mu.Unlock()

	m := &Message{
		ID:         types.ID(uuid.NewString()),
		TripID:     c.TripID,
		SenderID:   c.UserID,
		ReceiverID: receiverID,
		Text:       text,
	}
	if err := c.svc.store.Insert(ctx, m); err != nil {
		c.mu.Lock()
		delete(c.pending, tempID)
		c.mu.Unlock()
		return "", DeliveryError{Err: err}
	}

	c.mu.Lock()
	delete(c.pending, tempID)
	c.applyInsertLocked(*m)
	c.mu.Unlock()

	if err := c.svc.live.Publish(ctx, c.TripID, Event{Kind: EventInsert, Message: *m}); err != nil {
		log.Printf("publish message %s: %v", m.ID, err)
	}
	return m.ID, nil
}

// Apply folds a live-channel event into the view. Inserts are appended only
// if the id is unseen, so a message arriving both via the direct send
// response and via the subscription shows exactly once. Incoming messages
// addressed to this participant are immediately marked read.
func (c *Conversation) Apply(ctx context.Context, ev Event) {
	switch ev.Kind {
	case EventInsert:
		m := ev.Message
		c.mu.Lock()
		if c.seen[m.ID] {
			c.mu.Unlock()
			return
		}
		if m.ReceiverID == c.UserID && !m.IsRead {
			c.svc.markRead(ctx, &m)
		}
		c.applyInsertLocked(m)
		c.mu.Unlock()
	case EventUpdate:
		c.mu.Lock()
		for i := range c.confirmed {
			if c.confirmed[i].ID == ev.Message.ID {
				c.confirmed[i].IsRead = ev.Message.IsRead
				c.confirmed[i].ReadAt = ev.Message.ReadAt
				break
			}
		}
		c.mu.Unlock()
	}
}

func (c *Conversation) applyInsertLocked(m Message) {
	if c.seen[m.ID] {
		return
	}
	c.seen[m.ID] = true
	c.confirmed = append(c.confirmed, m)
}

// Listen pumps the trip's live subscription through Apply until ctx ends.
// onEvent, when non-nil, observes each event after it has been applied.
func (c *Conversation) Listen(ctx context.Context, onEvent func(Event)) error {
	events, cancel, err := c.svc.live.Subscribe(ctx, c.TripID)
	if err != nil {
		return err
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			c.Apply(ctx, ev)
			if onEvent != nil {
				onEvent(ev)
			}
		}
	}
}

// View returns the ordered conversation: confirmed history in persistence
// order with pending entries merged in by their optimistic timestamps.
func (c *Conversation) View() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Message, 0, len(c.confirmed)+len(c.pending))
	out = append(out, c.confirmed...)
	for _, m := range c.pending {
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
