package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"harbor-chat/internal/broker"
	"harbor-chat/internal/domain/call"
	"harbor-chat/internal/events"
	"harbor-chat/internal/repository"
	harbor_errors "harbor-chat/pkg/errors"
	"harbor-chat/pkg/logger"

	"github.com/google/uuid"
)

// CallService applies call and participant state changes. Handlers run
// synchronously in the caller's context; asynchronous work (room
// teardown) is reached only through the events it dispatches.
//
// Authorization is the caller's job: routes decide who may kick or end.
// The service still validates that call and participant are consistent.
type CallService struct {
	repo       repository.CallRepository
	broker     broker.RoomBroker
	dispatcher events.Dispatcher
	log        *logger.Logger
	clock      func() time.Time
}

func NewCallService(repo repository.CallRepository, rb broker.RoomBroker, dispatcher events.Dispatcher, log *logger.Logger) *CallService {
	if dispatcher == nil {
		dispatcher = events.Nop()
	}
	return &CallService{
		repo:       repo,
		broker:     rb,
		dispatcher: dispatcher,
		log:        log,
		clock:      time.Now,
	}
}

// CreateCall starts a call on a thread: record in SETUP, media room
// provisioned, call activated, owner joined as the first participant.
// A thread can hold only one non-ended call.
func (s *CallService) CreateCall(ctx context.Context, threadID, ownerID uuid.UUID) (call.Call, error) {
	if _, err := s.repo.GetActiveCallForThread(ctx, threadID); err == nil {
		return call.Call{}, harbor_errors.ErrCallAlreadyActive
	} else if !errors.Is(err, harbor_errors.ErrNotFound) {
		return call.Call{}, err
	}

	c := call.Call{
		ID:        uuid.New(),
		ThreadID:  threadID,
		OwnerID:   ownerID,
		Status:    call.StatusSetup,
		CreatedAt: s.clock(),
	}
	if err := s.repo.Create(ctx, &c); err != nil {
		if errors.Is(err, harbor_errors.ErrAlreadyExists) {
			// Lost the race for the thread's single active call slot.
			return call.Call{}, harbor_errors.ErrCallAlreadyActive
		}
		return call.Call{}, err
	}

	roomID, err := s.broker.ProvisionRoom(ctx, c)
	if err != nil {
		s.abandonSetup(ctx, c, "")
		return call.Call{}, err
	}
	if err := s.ActivateCall(ctx, &c, roomID); err != nil {
		s.abandonSetup(ctx, c, roomID)
		return call.Call{}, err
	}

	if _, err := s.JoinCall(ctx, c, ownerID); err != nil {
		if endErr := s.EndCall(ctx, c); endErr != nil {
			s.log.Errorf("end call %s after failed owner join: %v", c.ID, endErr)
		}
		return call.Call{}, err
	}
	return c, nil
}

// abandonSetup ends a call whose setup failed so the thread's single
// active call slot is released. It writes through the repository on
// purpose: SETUP→ENDED is not a transition callers may take, but a
// call that never activated must not wedge its thread. When a room was
// already provisioned, CallEnded is dispatched so teardown releases it.
func (s *CallService) abandonSetup(ctx context.Context, c call.Call, roomID string) {
	at := s.clock()
	if err := s.repo.EndCall(ctx, c.ID, at); err != nil {
		s.log.Errorf("abandon failed call %s on thread %s: %v", c.ID, c.ThreadID, err)
		return
	}
	if roomID == "" {
		return
	}
	c.Status = call.StatusEnded
	c.EndedAt = sql.NullTime{Time: at, Valid: true}
	c.RoomID = sql.NullString{String: roomID, Valid: true}
	s.dispatcher.Dispatch(ctx, call.EndedEvent{Call: c})
}

// ActivateCall moves a SETUP call to ACTIVE once the room provisioning
// is acknowledged.
func (s *CallService) ActivateCall(ctx context.Context, c *call.Call, roomID string) error {
	if err := c.Transition(call.StatusActive); err != nil {
		return err
	}
	if err := s.repo.Activate(ctx, c.ID, roomID); err != nil {
		return err
	}
	c.RoomID = sql.NullString{String: roomID, Valid: true}
	return nil
}

// GetCall loads a call by id.
func (s *CallService) GetCall(ctx context.Context, id uuid.UUID) (call.Call, error) {
	return s.repo.GetByID(ctx, id)
}

// GetParticipant loads a participant record by id.
func (s *CallService) GetParticipant(ctx context.Context, id uuid.UUID) (call.CallParticipant, error) {
	return s.repo.GetParticipantByID(ctx, id)
}

// ParticipantOf loads the user's participant record for the call.
func (s *CallService) ParticipantOf(ctx context.Context, c call.Call, userID uuid.UUID) (call.CallParticipant, error) {
	return s.repo.GetParticipant(ctx, c.ID, userID)
}

// JoinCall adds the user to an active call, or reactivates their
// existing row after a voluntary leave. A kicked participant stays out
// until reinstated.
func (s *CallService) JoinCall(ctx context.Context, c call.Call, userID uuid.UUID) (call.CallParticipant, error) {
	if err := requireActive(c); err != nil {
		return call.CallParticipant{}, err
	}

	existing, err := s.repo.GetParticipant(ctx, c.ID, userID)
	switch {
	case err == nil:
		if existing.Kicked {
			return call.CallParticipant{}, harbor_errors.ErrParticipantKicked
		}
		if existing.Active() {
			return existing, nil
		}
		now := s.clock()
		if err := s.repo.RejoinParticipant(ctx, existing.ID, now); err != nil {
			return call.CallParticipant{}, err
		}
		existing.LeftCall = sql.NullTime{}
		existing.JoinedAt = now
		return existing, nil
	case errors.Is(err, harbor_errors.ErrNotFound):
		p := call.CallParticipant{
			ID:       uuid.New(),
			CallID:   c.ID,
			UserID:   userID,
			JoinedAt: s.clock(),
		}
		if err := s.repo.AddParticipant(ctx, &p); err != nil {
			return call.CallParticipant{}, err
		}
		return p, nil
	default:
		return call.CallParticipant{}, err
	}
}

// KickParticipant forcibly marks the participant out of the call
// (kicking=true) or clears the kicked flag (kicking=false).
//
// kicking=true stamps left_call to now; repeating it re-stamps the
// departure rather than erroring, and never creates a second row.
// kicking=false restores nothing: left_call keeps its prior value and a
// separate rejoin is required to become active again, so no events fire.
//
// A kick that drains the roster does not end the call; ENDED is reached
// through LeaveCall or an explicit EndCall.
func (s *CallService) KickParticipant(ctx context.Context, c call.Call, p call.CallParticipant, actorID uuid.UUID, kicking bool) (call.CallParticipant, error) {
	if p.CallID != c.ID {
		return call.CallParticipant{}, harbor_errors.ErrParticipantMismatch
	}
	if err := requireActive(c); err != nil {
		return call.CallParticipant{}, err
	}

	if !kicking {
		if err := s.repo.ReinstateParticipant(ctx, p.ID); err != nil {
			return call.CallParticipant{}, err
		}
		p.Kicked = false
		return p, nil
	}

	now := s.clock()
	if err := s.repo.KickParticipant(ctx, p.ID, now); err != nil {
		return call.CallParticipant{}, err
	}
	p.Kicked = true
	p.LeftCall = sql.NullTime{Time: now, Valid: true}

	s.dispatcher.Dispatch(ctx, call.KickedEvent{Call: c, Participant: p, ActorID: actorID})
	return p, nil
}

// LeaveCall records a voluntary departure. When the last active
// participant leaves, the call ends and CallEnded is dispatched.
func (s *CallService) LeaveCall(ctx context.Context, c call.Call, p call.CallParticipant) error {
	if p.CallID != c.ID {
		return harbor_errors.ErrParticipantMismatch
	}
	if err := requireActive(c); err != nil {
		return err
	}

	if err := s.repo.LeaveParticipant(ctx, p.ID, s.clock()); err != nil {
		return err
	}

	remaining, err := s.repo.ActiveParticipantCount(ctx, c.ID)
	if err != nil {
		return err
	}
	if remaining == 0 {
		return s.EndCall(ctx, c)
	}
	return nil
}

// EndCall moves the call to its terminal state, stamps out every
// remaining participant, and dispatches CallEnded. ended_at is written
// exactly once; ending an ended call fails ErrCallAlreadyEnded and a
// call still in setup fails ErrInvalidTransition.
func (s *CallService) EndCall(ctx context.Context, c call.Call) error {
	if c.Ended() {
		return harbor_errors.ErrCallAlreadyEnded
	}
	if err := c.Transition(call.StatusEnded); err != nil {
		return err
	}

	at := s.clock()
	if err := s.repo.EndCall(ctx, c.ID, at); err != nil {
		return err
	}
	c.EndedAt = sql.NullTime{Time: at, Valid: true}

	s.log.Infof("call %s on thread %s ended", c.ID, c.ThreadID)
	s.dispatcher.Dispatch(ctx, call.EndedEvent{Call: c})
	return nil
}

// ActiveParticipants lists who is currently in the call.
func (s *CallService) ActiveParticipants(ctx context.Context, callID uuid.UUID) ([]call.CallParticipant, error) {
	return s.repo.ActiveParticipants(ctx, callID)
}

func requireActive(c call.Call) error {
	if c.Ended() {
		return harbor_errors.ErrCallAlreadyEnded
	}
	if c.Status != call.StatusActive {
		return harbor_errors.ErrInvalidTransition
	}
	return nil
}
