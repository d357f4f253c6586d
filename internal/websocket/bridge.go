package websocket

import (
	"context"
)

// Subscriber is the transport side the bridge consumes; the redis
// broadcaster satisfies it.
type Subscriber interface {
	Subscribe(ctx context.Context, patterns []string, handler func(channel string, payload []byte)) error
}

// Bridge relays broadcast-channel traffic into the hub so payloads
// published on this or any other node reach locally connected clients.
type Bridge struct {
	subscriber Subscriber
	hub        *Hub
}

func NewBridge(subscriber Subscriber, hub *Hub) *Bridge {
	return &Bridge{subscriber: subscriber, hub: hub}
}

func (b *Bridge) Run(ctx context.Context, patterns []string) error {
	return b.subscriber.Subscribe(ctx, patterns, func(channel string, payload []byte) {
		b.hub.Broadcast(channel, payload)
	})
}
