package harbor_errors

import "errors"

// Common errors
var (
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrCallAlreadyEnded    = errors.New("call already ended")
	ErrCallAlreadyActive   = errors.New("thread already has an active call")
	ErrParticipantMismatch = errors.New("participant does not belong to call")
	ErrParticipantKicked   = errors.New("participant was kicked from call")
	ErrNotFound            = errors.New("not found")
	ErrAlreadyExists       = errors.New("already exists")
	ErrInvalidInput        = errors.New("invalid input")
	ErrServiceUnavailable  = errors.New("service unavailable")
	ErrRoomGone            = errors.New("room already gone")
	ErrQueueEmpty          = errors.New("queue empty")
)
