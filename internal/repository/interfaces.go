package repository

import (
	"context"
	"time"

	"harbor-chat/internal/domain/call"

	"github.com/google/uuid"
)

// CallRepository persists Call and CallParticipant records. Single-record
// updates are atomic at the storage layer; no method here requires
// in-process locking around it.
type CallRepository interface {
	Create(ctx context.Context, c *call.Call) error
	GetByID(ctx context.Context, id uuid.UUID) (call.Call, error)
	GetActiveCallForThread(ctx context.Context, threadID uuid.UUID) (call.Call, error)
	// Activate stores the provisioned room id and moves the call to ACTIVE.
	Activate(ctx context.Context, callID uuid.UUID, roomID string) error
	// EndCall stamps ended_at exactly once and departs every remaining
	// active participant. Returns ErrCallAlreadyEnded when ended_at is
	// already set.
	EndCall(ctx context.Context, callID uuid.UUID, at time.Time) error

	AddParticipant(ctx context.Context, p *call.CallParticipant) error
	GetParticipant(ctx context.Context, callID, userID uuid.UUID) (call.CallParticipant, error)
	GetParticipantByID(ctx context.Context, id uuid.UUID) (call.CallParticipant, error)
	// KickParticipant sets kicked=true and left_call=at in one update.
	KickParticipant(ctx context.Context, participantID uuid.UUID, at time.Time) error
	// ReinstateParticipant clears the kicked flag only; left_call is untouched.
	ReinstateParticipant(ctx context.Context, participantID uuid.UUID) error
	// LeaveParticipant sets left_call=at; the kicked flag is untouched.
	LeaveParticipant(ctx context.Context, participantID uuid.UUID, at time.Time) error
	// RejoinParticipant nulls left_call and re-stamps joined_at.
	RejoinParticipant(ctx context.Context, participantID uuid.UUID, at time.Time) error

	ActiveParticipants(ctx context.Context, callID uuid.UUID) ([]call.CallParticipant, error)
	ActiveParticipantCount(ctx context.Context, callID uuid.UUID) (int64, error)
}
