package queue

import (
	"context"
	"sync"
	"time"

	harbor_errors "harbor-chat/pkg/errors"
)

// MemoryQueue is an in-process Queue used in tests and single-node setups.
type MemoryQueue struct {
	mu     sync.Mutex
	queues map[string]chan Job
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{queues: make(map[string]chan Job)}
}

func (q *MemoryQueue) channel(queueName string) chan Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	ch, ok := q.queues[queueName]
	if !ok {
		ch = make(chan Job, 1024)
		q.queues[queueName] = ch
	}
	return ch
}

func (q *MemoryQueue) Enqueue(ctx context.Context, queueName string, job Job) error {
	select {
	case q.channel(queueName) <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context, queueName string, timeout time.Duration) (Job, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case job := <-q.channel(queueName):
		return job, nil
	case <-timer.C:
		return Job{}, harbor_errors.ErrQueueEmpty
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
}
