package httpdto

import "github.com/google/uuid"

type CreateCallRequest struct {
	ThreadID uuid.UUID `json:"thread_id" binding:"required"`
	OwnerID  uuid.UUID `json:"owner_id" binding:"required"`
}

type JoinCallRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

type LeaveCallRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

type KickParticipantRequest struct {
	ActorID uuid.UUID `json:"actor_id" binding:"required"`
	Kicked  *bool     `json:"kicked" binding:"required"`
}
