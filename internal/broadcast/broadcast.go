package broadcast

import (
	"context"
	"fmt"

	"harbor-chat/internal/domain/call"
	"harbor-chat/internal/events"
	"harbor-chat/pkg/logger"

	"github.com/google/uuid"
)

// Broadcaster pushes a named event to one delivery channel.
type Broadcaster interface {
	Broadcast(ctx context.Context, channel, event string, payload interface{}) error
}

// PrivateUserChannel names a user's private notification channel.
func PrivateUserChannel(namespace string, userID uuid.UUID) string {
	return fmt.Sprintf("private-%s.user.%s", namespace, userID)
}

// KickListener maps KickedEvent to the affected user's private channel.
// Nobody else learns about the kick through this path: the thread-wide
// "someone left" signal is a separate concern.
type KickListener struct {
	broadcaster Broadcaster
	namespace   string
	log         *logger.Logger
}

func NewKickListener(b Broadcaster, namespace string, log *logger.Logger) *KickListener {
	return &KickListener{broadcaster: b, namespace: namespace, log: log}
}

// Handle is registered on the domain-event dispatcher. Delivery is
// fire-and-forget: a transport failure is logged and never rolls back
// the participant update that produced the event.
func (l *KickListener) Handle(ctx context.Context, e events.Event) {
	kicked, ok := e.(call.KickedEvent)
	if !ok {
		return
	}

	channel := PrivateUserChannel(l.namespace, kicked.Participant.UserID)
	payload := map[string]interface{}{
		"call_id": kicked.Call.ID,
		"kicked":  true,
	}
	if err := l.broadcaster.Broadcast(ctx, channel, call.EventTypeKickedFromCall, payload); err != nil {
		l.log.Errorf("broadcast %s to %s: %v", call.EventTypeKickedFromCall, channel, err)
	}
}
