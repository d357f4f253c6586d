package teardown

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"harbor-chat/internal/broker"
	"harbor-chat/internal/domain/call"
	"harbor-chat/internal/events"
	"harbor-chat/internal/queue"
	harbor_errors "harbor-chat/pkg/errors"
	"harbor-chat/pkg/logger"

	"github.com/google/uuid"
)

// QueueName isolates teardown jobs so a teardown backlog never starves
// other background work.
const QueueName = "calls"

// JobTypeTeardownRoom releases the external media room of an ended call.
const JobTypeTeardownRoom = "call.teardown_room"

type roomPayload struct {
	CallID uuid.UUID `json:"call_id"`
	RoomID string    `json:"room_id"`
}

// Listener consumes CallEnded domain events and enqueues teardown work.
// Enqueueing is the only thing that happens on the request path; the
// external call never blocks the user-facing action.
type Listener struct {
	queue     queue.Queue
	queueName string
	log       *logger.Logger
}

func NewListener(q queue.Queue, queueName string, log *logger.Logger) *Listener {
	if queueName == "" {
		queueName = QueueName
	}
	return &Listener{queue: q, queueName: queueName, log: log}
}

func (l *Listener) Handle(ctx context.Context, e events.Event) {
	ended, ok := e.(call.EndedEvent)
	if !ok {
		return
	}
	if !ended.Call.RoomID.Valid {
		// Call ended before a room was ever provisioned.
		return
	}

	job, err := queue.NewJob(JobTypeTeardownRoom, roomPayload{
		CallID: ended.Call.ID,
		RoomID: ended.Call.RoomID.String,
	})
	if err != nil {
		l.log.Errorf("teardown: build job for call %s: %v", ended.Call.ID, err)
		return
	}
	if err := l.queue.Enqueue(ctx, l.queueName, job); err != nil {
		l.log.Errorf("teardown: enqueue call %s: %v", ended.Call.ID, err)
	}
}

// Coordinator executes teardown jobs against the room broker.
type Coordinator struct {
	broker broker.RoomBroker
	log    *logger.Logger
}

func NewCoordinator(b broker.RoomBroker, log *logger.Logger) *Coordinator {
	return &Coordinator{broker: b, log: log}
}

// Register binds the coordinator to a worker on the teardown queue.
func (c *Coordinator) Register(w *queue.Worker) {
	w.Register(JobTypeTeardownRoom, c.Handle)
}

// Handle releases the room. A room the provider no longer knows about
// counts as success: tearing down twice must be a safe no-op. Any other
// error is returned so the queue retries and, past the attempt budget,
// records the leak as a fatal failure.
func (c *Coordinator) Handle(ctx context.Context, job queue.Job) error {
	var p roomPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return fmt.Errorf("teardown: decode payload: %w", err)
	}

	err := c.broker.TeardownRoom(ctx, p.RoomID)
	if errors.Is(err, harbor_errors.ErrRoomGone) {
		c.log.Infof("teardown: room %s for call %s already gone", p.RoomID, p.CallID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("teardown: call %s room %s: %w", p.CallID, p.RoomID, err)
	}

	c.log.Infof("teardown: released room %s for call %s", p.RoomID, p.CallID)
	return nil
}
