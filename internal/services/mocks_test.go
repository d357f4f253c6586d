package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"harbor-chat/internal/domain/call"
	harbor_errors "harbor-chat/pkg/errors"

	"github.com/google/uuid"
)

// memoryCallRepository implements repository.CallRepository in memory,
// mirroring the storage semantics the postgres implementation relies on
// (atomic single-record updates, ended_at written once).
type memoryCallRepository struct {
	mu           sync.Mutex
	calls        map[uuid.UUID]call.Call
	participants map[uuid.UUID]call.CallParticipant
}

func newMemoryCallRepository() *memoryCallRepository {
	return &memoryCallRepository{
		calls:        make(map[uuid.UUID]call.Call),
		participants: make(map[uuid.UUID]call.CallParticipant),
	}
}

func (r *memoryCallRepository) Create(ctx context.Context, c *call.Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.calls[c.ID]; ok {
		return harbor_errors.ErrAlreadyExists
	}
	// Mirrors the partial unique index on calls(thread_id) WHERE
	// ended_at IS NULL.
	for _, existing := range r.calls {
		if existing.ThreadID == c.ThreadID && !existing.EndedAt.Valid {
			return harbor_errors.ErrAlreadyExists
		}
	}
	r.calls[c.ID] = *c
	return nil
}

func (r *memoryCallRepository) GetByID(ctx context.Context, id uuid.UUID) (call.Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[id]
	if !ok {
		return call.Call{}, harbor_errors.ErrNotFound
	}
	return c, nil
}

func (r *memoryCallRepository) GetActiveCallForThread(ctx context.Context, threadID uuid.UUID) (call.Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.calls {
		if c.ThreadID == threadID && !c.EndedAt.Valid {
			return c, nil
		}
	}
	return call.Call{}, harbor_errors.ErrNotFound
}

func (r *memoryCallRepository) Activate(ctx context.Context, callID uuid.UUID, roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[callID]
	if !ok || c.Status != call.StatusSetup {
		return harbor_errors.ErrInvalidTransition
	}
	c.Status = call.StatusActive
	c.RoomID = sql.NullString{String: roomID, Valid: true}
	r.calls[callID] = c
	return nil
}

func (r *memoryCallRepository) EndCall(ctx context.Context, callID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[callID]
	if !ok {
		return harbor_errors.ErrNotFound
	}
	if c.EndedAt.Valid {
		return harbor_errors.ErrCallAlreadyEnded
	}
	c.Status = call.StatusEnded
	c.EndedAt = sql.NullTime{Time: at, Valid: true}
	r.calls[callID] = c
	for id, p := range r.participants {
		if p.CallID == callID && !p.LeftCall.Valid {
			p.LeftCall = sql.NullTime{Time: at, Valid: true}
			r.participants[id] = p
		}
	}
	return nil
}

func (r *memoryCallRepository) AddParticipant(ctx context.Context, p *call.CallParticipant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.participants {
		if existing.CallID == p.CallID && existing.UserID == p.UserID {
			return harbor_errors.ErrAlreadyExists
		}
	}
	r.participants[p.ID] = *p
	return nil
}

func (r *memoryCallRepository) GetParticipant(ctx context.Context, callID, userID uuid.UUID) (call.CallParticipant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participants {
		if p.CallID == callID && p.UserID == userID {
			return p, nil
		}
	}
	return call.CallParticipant{}, harbor_errors.ErrNotFound
}

func (r *memoryCallRepository) GetParticipantByID(ctx context.Context, id uuid.UUID) (call.CallParticipant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[id]
	if !ok {
		return call.CallParticipant{}, harbor_errors.ErrNotFound
	}
	return p, nil
}

func (r *memoryCallRepository) KickParticipant(ctx context.Context, participantID uuid.UUID, at time.Time) error {
	return r.update(participantID, func(p *call.CallParticipant) {
		p.Kicked = true
		p.LeftCall = sql.NullTime{Time: at, Valid: true}
	})
}

func (r *memoryCallRepository) ReinstateParticipant(ctx context.Context, participantID uuid.UUID) error {
	return r.update(participantID, func(p *call.CallParticipant) {
		p.Kicked = false
	})
}

func (r *memoryCallRepository) LeaveParticipant(ctx context.Context, participantID uuid.UUID, at time.Time) error {
	return r.update(participantID, func(p *call.CallParticipant) {
		p.LeftCall = sql.NullTime{Time: at, Valid: true}
	})
}

func (r *memoryCallRepository) RejoinParticipant(ctx context.Context, participantID uuid.UUID, at time.Time) error {
	return r.update(participantID, func(p *call.CallParticipant) {
		p.LeftCall = sql.NullTime{}
		p.JoinedAt = at
	})
}

func (r *memoryCallRepository) update(participantID uuid.UUID, mutate func(*call.CallParticipant)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[participantID]
	if !ok {
		return harbor_errors.ErrNotFound
	}
	mutate(&p)
	r.participants[participantID] = p
	return nil
}

func (r *memoryCallRepository) ActiveParticipants(ctx context.Context, callID uuid.UUID) ([]call.CallParticipant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []call.CallParticipant
	for _, p := range r.participants {
		if p.CallID == callID && !p.LeftCall.Valid {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memoryCallRepository) ActiveParticipantCount(ctx context.Context, callID uuid.UUID) (int64, error) {
	active, _ := r.ActiveParticipants(ctx, callID)
	return int64(len(active)), nil
}

// racingRepository hides the thread's active call from lookups,
// simulating two creates racing past the check before either row lands.
type racingRepository struct {
	*memoryCallRepository
}

func (r *racingRepository) GetActiveCallForThread(ctx context.Context, threadID uuid.UUID) (call.Call, error) {
	return call.Call{}, harbor_errors.ErrNotFound
}

// fakeRoomBroker records provision/teardown calls.
type fakeRoomBroker struct {
	mu           sync.Mutex
	provisioned  int
	tornDown     []string
	provisionErr error
	teardownErr  error
}

func (b *fakeRoomBroker) ProvisionRoom(ctx context.Context, c call.Call) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.provisionErr != nil {
		return "", b.provisionErr
	}
	b.provisioned++
	return fmt.Sprintf("room-%d", b.provisioned), nil
}

func (b *fakeRoomBroker) TeardownRoom(ctx context.Context, roomID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tornDown = append(b.tornDown, roomID)
	return b.teardownErr
}

// recordingBroadcaster captures scoped deliveries.
type sentBroadcast struct {
	Channel string
	Event   string
	Payload map[string]interface{}
}

type recordingBroadcaster struct {
	mu    sync.Mutex
	sends []sentBroadcast
}

func (b *recordingBroadcaster) Broadcast(ctx context.Context, channel, event string, payload interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sends = append(b.sends, sentBroadcast{
		Channel: channel,
		Event:   event,
		Payload: payload.(map[string]interface{}),
	})
	return nil
}

func (b *recordingBroadcaster) all() []sentBroadcast {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]sentBroadcast(nil), b.sends...)
}
