package call

import (
	harbor_errors "harbor-chat/pkg/errors"
)

// Status is the lifecycle state of a call.
type Status string

const (
	// StatusSetup means the media room is still being provisioned.
	StatusSetup Status = "SETUP"
	// StatusActive means the room is ready and participants may join and leave.
	StatusActive Status = "ACTIVE"
	// StatusEnded is terminal.
	StatusEnded Status = "ENDED"
)

var transitions = map[Status][]Status{
	StatusSetup:  {StatusActive},
	StatusActive: {StatusEnded},
	StatusEnded:  {},
}

// CanTransition reports whether the status change is allowed.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates and applies a status change to the call.
// Any attempt to move out of ENDED fails with ErrCallAlreadyEnded.
func (c *Call) Transition(to Status) error {
	if c.Status == StatusEnded {
		return harbor_errors.ErrCallAlreadyEnded
	}
	if !CanTransition(c.Status, to) {
		return harbor_errors.ErrInvalidTransition
	}
	c.Status = to
	return nil
}
