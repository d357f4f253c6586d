package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Job is a unit of background work on a named queue.
type Job struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
	// RetryAt is the earliest time a retried job may run again. Zero
	// means immediately.
	RetryAt time.Time `json:"retry_at"`
}

// NewJob builds a job with a marshaled payload.
func NewJob(jobType string, payload interface{}) (Job, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Job{}, err
	}
	return Job{
		ID:      uuid.New().String(),
		Type:    jobType,
		Payload: data,
	}, nil
}

// Queue is a named work queue with at-least-once delivery.
type Queue interface {
	Enqueue(ctx context.Context, queueName string, job Job) error
	// Dequeue blocks up to timeout for the next job. Returns
	// ErrQueueEmpty when nothing arrived in time.
	Dequeue(ctx context.Context, queueName string, timeout time.Duration) (Job, error)
}
