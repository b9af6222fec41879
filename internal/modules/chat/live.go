// README: Per-trip live channel over Redis pub/sub; subscriber count doubles as presence.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"copool/internal/types"
)

const channelPrefix = "chat:trip:%s"

type RedisLive struct {
	rdb *redis.Client
}

func NewRedisLive(rdb *redis.Client) *RedisLive {
	return &RedisLive{rdb: rdb}
}

func channelKey(tripID types.ID) string {
	return fmt.Sprintf(channelPrefix, string(tripID))
}

func (l *RedisLive) Publish(ctx context.Context, tripID types.ID, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return l.rdb.Publish(ctx, channelKey(tripID), payload).Err()
}

// Subscribe delivers insert/update events for one trip until cancel is called
// or ctx ends. Undecodable payloads are dropped with a log line.
func (l *RedisLive) Subscribe(ctx context.Context, tripID types.ID) (<-chan Event, func(), error) {
	sub := l.rdb.Subscribe(ctx, channelKey(tripID))
	// Force the subscription onto the wire before reporting presence.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, err
	}

	out := make(chan Event, 16)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("chat event decode on %s: %v", msg.Channel, err)
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() { _ = sub.Close() }
	return out, cancel, nil
}

// SubscriberCount reports how many live subscriptions the trip channel has.
// Presence is derived from this, never persisted.
func (l *RedisLive) SubscriberCount(ctx context.Context, tripID types.ID) (int64, error) {
	counts, err := l.rdb.PubSubNumSub(ctx, channelKey(tripID)).Result()
	if err != nil {
		return 0, err
	}
	return counts[channelKey(tripID)], nil
}
