package broadcast

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Envelope is the wire shape published on delivery channels.
type Envelope struct {
	Event      string      `json:"event"`
	Payload    interface{} `json:"payload"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// RedisBroadcaster publishes envelopes over redis pub/sub, one redis
// channel per delivery channel.
type RedisBroadcaster struct {
	client *redis.Client
}

func NewRedisBroadcaster(client *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{client: client}
}

func (b *RedisBroadcaster) Broadcast(ctx context.Context, channel, event string, payload interface{}) error {
	data, err := json.Marshal(Envelope{
		Event:      event,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, channel, data).Err()
}

// Subscribe delivers every message published on channels matching the
// patterns to handler. It returns after the subscription is
// established; delivery runs until the context is cancelled.
func (b *RedisBroadcaster) Subscribe(ctx context.Context, patterns []string, handler func(channel string, payload []byte)) error {
	pubsub := b.client.PSubscribe(ctx, patterns...)
	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				handler(msg.Channel, []byte(msg.Payload))
			}
		}
	}()
	return nil
}
