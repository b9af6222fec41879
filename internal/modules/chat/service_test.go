package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"copool/internal/types"
)

type fakeStore struct {
	mu        sync.Mutex
	messages  []Message
	insertErr error
	onInsert  func()
	readIDs   []types.ID
}

func (s *fakeStore) Insert(ctx context.Context, m *Message) error {
	if s.onInsert != nil {
		s.onInsert()
	}
	if s.insertErr != nil {
		return s.insertErr
	}
	m.CreatedAt = time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, *m)
	return nil
}

func (s *fakeStore) ListByTrip(ctx context.Context, tripID types.ID) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Message
	for _, m := range s.messages {
		if m.TripID == tripID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeStore) MarkRead(ctx context.Context, id types.ID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readIDs = append(s.readIDs, id)
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages[i].IsRead = true
			s.messages[i].ReadAt = &at
		}
	}
	return nil
}

type fakeLive struct {
	mu        sync.Mutex
	published []Event
	feed      chan Event
	subs      int64
}

func (l *fakeLive) Publish(ctx context.Context, tripID types.ID, ev Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.published = append(l.published, ev)
	return nil
}

func (l *fakeLive) Subscribe(ctx context.Context, tripID types.ID) (<-chan Event, func(), error) {
	if l.feed == nil {
		l.feed = make(chan Event, 16)
	}
	return l.feed, func() {}, nil
}

func (l *fakeLive) SubscriberCount(ctx context.Context, tripID types.ID) (int64, error) {
	return l.subs, nil
}

func (l *fakeLive) updates() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Event
	for _, ev := range l.published {
		if ev.Kind == EventUpdate {
			out = append(out, ev)
		}
	}
	return out
}

func openConv(t *testing.T, store *fakeStore, live *fakeLive, user types.ID) *Conversation {
	t.Helper()
	svc := NewService(store, live)
	conv, err := svc.Open(context.Background(), "trip-1", user)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return conv
}

func TestSendOptimisticEchoVisibleBeforeConfirm(t *testing.T) {
	store := &fakeStore{}
	live := &fakeLive{}
	conv := openConv(t, store, live, "alice")

	// The pending entry must be in the view while the store insert is still
	// in flight.
	var midFlight []Message
	store.onInsert = func() { midFlight = conv.View() }

	if _, err := conv.Send(context.Background(), "bob", "on my way"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(midFlight) != 1 || !midFlight[0].Pending {
		t.Fatalf("expected one pending message mid-flight, got %+v", midFlight)
	}

	// After confirmation the pending entry is replaced in place.
	view := conv.View()
	if len(view) != 1 {
		t.Fatalf("view = %d messages, want 1", len(view))
	}
	if view[0].Pending {
		t.Error("confirmed message still marked pending")
	}
	if view[0].ID == midFlight[0].ID {
		t.Error("temporary id leaked into the confirmed view")
	}
}

func TestSendFailureLeavesNoPhantom(t *testing.T) {
	store := &fakeStore{insertErr: errors.New("connection lost")}
	live := &fakeLive{}
	conv := openConv(t, store, live, "alice")

	_, err := conv.Send(context.Background(), "bob", "hello?")
	var derr DeliveryError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DeliveryError, got %v", err)
	}
	if view := conv.View(); len(view) != 0 {
		t.Fatalf("phantom message left in view: %+v", view)
	}
	if len(live.published) != 0 {
		t.Error("nothing may be published for a failed send")
	}
}

func TestDuplicateInsertShowsOnce(t *testing.T) {
	store := &fakeStore{}
	live := &fakeLive{}
	conv := openConv(t, store, live, "alice")

	id, err := conv.Send(context.Background(), "bob", "arriving at 6")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	// The same message also arrives via the subscription push.
	stored := store.messages[0]
	conv.Apply(context.Background(), Event{Kind: EventInsert, Message: stored})

	view := conv.View()
	if len(view) != 1 {
		t.Fatalf("view = %d messages, want 1 after duplicate id %s", len(view), id)
	}
}

func TestIncomingMessageMarkedReadWithReceipt(t *testing.T) {
	store := &fakeStore{}
	live := &fakeLive{}
	conv := openConv(t, store, live, "bob")

	incoming := Message{
		ID:         "m1",
		TripID:     "trip-1",
		SenderID:   "alice",
		ReceiverID: "bob",
		Text:       "see you there",
		CreatedAt:  time.Now(),
	}
	conv.Apply(context.Background(), Event{Kind: EventInsert, Message: incoming})

	view := conv.View()
	if len(view) != 1 || !view[0].IsRead || view[0].ReadAt == nil {
		t.Fatalf("incoming message not marked read: %+v", view)
	}
	if len(store.readIDs) != 1 || store.readIDs[0] != "m1" {
		t.Errorf("store read marks = %v", store.readIDs)
	}
	receipts := live.updates()
	if len(receipts) != 1 || receipts[0].Message.ID != "m1" || !receipts[0].Message.IsRead {
		t.Errorf("read receipt not published: %+v", receipts)
	}
}

func TestReadReceiptUpdatesSenderView(t *testing.T) {
	store := &fakeStore{}
	live := &fakeLive{}
	conv := openConv(t, store, live, "alice")

	id, err := conv.Send(context.Background(), "bob", "ping")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	at := time.Now()
	conv.Apply(context.Background(), Event{Kind: EventUpdate, Message: Message{
		ID: id, TripID: "trip-1", IsRead: true, ReadAt: &at,
	}})

	view := conv.View()
	if !view[0].IsRead || view[0].ReadAt == nil {
		t.Fatalf("sender view missing read receipt: %+v", view[0])
	}
}

func TestOpenMarksHistoryRead(t *testing.T) {
	store := &fakeStore{messages: []Message{
		{ID: "m1", TripID: "trip-1", SenderID: "alice", ReceiverID: "bob", Text: "a", CreatedAt: time.Now().Add(-2 * time.Minute)},
		{ID: "m2", TripID: "trip-1", SenderID: "bob", ReceiverID: "alice", Text: "b", CreatedAt: time.Now().Add(-time.Minute)},
	}}
	live := &fakeLive{}
	conv := openConv(t, store, live, "bob")

	if len(store.readIDs) != 1 || store.readIDs[0] != "m1" {
		t.Errorf("expected only bob's incoming message marked read, got %v", store.readIDs)
	}
	view := conv.View()
	if len(view) != 2 {
		t.Fatalf("view = %d, want full history", len(view))
	}
}

func TestGroupByDaySplitsOnCalendarDate(t *testing.T) {
	loc := time.UTC
	lateNight := time.Date(2026, 3, 14, 23, 59, 0, 0, loc)
	pastMidnight := time.Date(2026, 3, 15, 0, 1, 0, 0, loc)
	msgs := []Message{
		{ID: "m1", Text: "first", CreatedAt: lateNight.Add(-time.Hour)},
		{ID: "m2", Text: "second", CreatedAt: lateNight},
		{ID: "m3", Text: "third", CreatedAt: pastMidnight},
	}

	groups := GroupByDay(msgs, loc)
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2 (midnight split)", len(groups))
	}
	if groups[0].Date != "2026-03-14" || len(groups[0].Messages) != 2 {
		t.Errorf("first group = %s with %d messages", groups[0].Date, len(groups[0].Messages))
	}
	if groups[1].Date != "2026-03-15" || len(groups[1].Messages) != 1 {
		t.Errorf("second group = %s with %d messages", groups[1].Date, len(groups[1].Messages))
	}
}

func TestListenAppliesSubscriptionEvents(t *testing.T) {
	store := &fakeStore{}
	live := &fakeLive{feed: make(chan Event, 16)}
	conv := openConv(t, store, live, "bob")

	ctx, cancel := context.WithCancel(context.Background())
	seen := make(chan Event, 16)
	done := make(chan struct{})
	go func() {
		_ = conv.Listen(ctx, func(ev Event) { seen <- ev })
		close(done)
	}()

	live.feed <- Event{Kind: EventInsert, Message: Message{
		ID: "m9", TripID: "trip-1", SenderID: "alice", ReceiverID: "bob", Text: "hey", CreatedAt: time.Now(),
	}}

	select {
	case <-seen:
	case <-time.After(2 * time.Second):
		t.Fatal("subscription event never applied")
	}
	if view := conv.View(); len(view) != 1 || view[0].ID != "m9" {
		t.Fatalf("view after push = %+v", view)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listen did not stop on cancel")
	}
}

func TestSendEmptyMessageRejected(t *testing.T) {
	conv := openConv(t, &fakeStore{}, &fakeLive{}, "alice")
	if _, err := conv.Send(context.Background(), "bob", ""); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestPresenceDerivedFromSubscription(t *testing.T) {
	live := &fakeLive{subs: 0}
	svc := NewService(&fakeStore{}, live)

	online, err := svc.Presence(context.Background(), "trip-1")
	if err != nil || online {
		t.Fatalf("presence = %v,%v, want offline", online, err)
	}
	live.subs = 2
	online, err = svc.Presence(context.Background(), "trip-1")
	if err != nil || !online {
		t.Fatalf("presence = %v,%v, want online", online, err)
	}
}
