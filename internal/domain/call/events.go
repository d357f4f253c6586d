package call

import "github.com/google/uuid"

// Event type constants, format: domain.action
const (
	EventTypeCallEnded      = "call.ended"
	EventTypeKickedFromCall = "call.kicked"
)

// EndedEvent is emitted when a call reaches ENDED. It carries the full
// call so consumers never need a follow-up lookup.
type EndedEvent struct {
	Call Call
}

func (EndedEvent) EventType() string {
	return EventTypeCallEnded
}

// KickedEvent is emitted when a participant is forcibly removed.
// ActorID identifies who performed the kick.
type KickedEvent struct {
	Call        Call
	Participant CallParticipant
	ActorID     uuid.UUID
}

func (KickedEvent) EventType() string {
	return EventTypeKickedFromCall
}
