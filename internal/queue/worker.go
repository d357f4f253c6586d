package queue

import (
	"context"
	"errors"
	"time"

	harbor_errors "harbor-chat/pkg/errors"
	"harbor-chat/pkg/logger"
)

// HandlerFunc executes one job. A nil return acknowledges the job; an
// error schedules a retry until the attempt budget runs out.
type HandlerFunc func(ctx context.Context, job Job) error

// DeadLetterFunc reports a job that exhausted its attempts. The failure
// is observable here and in logs; it is never surfaced to the caller
// that enqueued the job.
type DeadLetterFunc func(ctx context.Context, job Job, err error)

// Worker consumes one named queue and executes registered handlers with
// bounded retries and exponential backoff.
type Worker struct {
	queue       Queue
	queueName   string
	handlers    map[string]HandlerFunc
	maxAttempts int
	backoffBase time.Duration
	pollTimeout time.Duration
	deadLetter  DeadLetterFunc
	log         *logger.Logger
}

func NewWorker(q Queue, queueName string, maxAttempts int, backoffBase time.Duration, log *logger.Logger) *Worker {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Worker{
		queue:       q,
		queueName:   queueName,
		handlers:    make(map[string]HandlerFunc),
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
		pollTimeout: 2 * time.Second,
		log:         log,
	}
}

func (w *Worker) Register(jobType string, h HandlerFunc) {
	w.handlers[jobType] = h
}

func (w *Worker) SetDeadLetter(fn DeadLetterFunc) {
	w.deadLetter = fn
}

// Run consumes jobs until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := w.queue.Dequeue(ctx, w.queueName, w.pollTimeout)
		if err != nil {
			if errors.Is(err, harbor_errors.ErrQueueEmpty) || errors.Is(err, context.Canceled) {
				continue
			}
			w.log.Errorf("queue %s: dequeue: %v", w.queueName, err)
			continue
		}
		if !w.waitUntilDue(ctx, job) {
			return
		}
		w.Process(ctx, job)
	}
}

// Process executes a single job, applying the retry policy on failure.
func (w *Worker) Process(ctx context.Context, job Job) {
	h, ok := w.handlers[job.Type]
	if !ok {
		w.log.Errorf("queue %s: no handler for job type %s", w.queueName, job.Type)
		w.fail(ctx, job, harbor_errors.ErrInvalidInput)
		return
	}

	err := h(ctx, job)
	if err == nil {
		return
	}

	job.Attempts++
	if job.Attempts >= w.maxAttempts {
		w.log.Errorf("queue %s: job %s failed permanently after %d attempts: %v", w.queueName, job.ID, job.Attempts, err)
		w.fail(ctx, job, err)
		return
	}

	delay := w.backoffBase << (job.Attempts - 1)
	w.log.Warnf("queue %s: job %s attempt %d failed, retrying in %s: %v", w.queueName, job.ID, job.Attempts, delay, err)
	job.RetryAt = time.Now().Add(delay)
	if err := w.queue.Enqueue(ctx, w.queueName, job); err != nil {
		w.log.Errorf("queue %s: re-enqueue job %s: %v", w.queueName, job.ID, err)
	}
}

// waitUntilDue blocks until the job's retry time has passed. On
// cancellation the job is handed back to the queue so it survives
// shutdown; the return value reports whether processing may proceed.
func (w *Worker) waitUntilDue(ctx context.Context, job Job) bool {
	wait := time.Until(job.RetryAt)
	if wait <= 0 {
		return true
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		if err := w.queue.Enqueue(context.Background(), w.queueName, job); err != nil {
			w.log.Errorf("queue %s: return job %s on shutdown: %v", w.queueName, job.ID, err)
		}
		return false
	case <-timer.C:
		return true
	}
}

func (w *Worker) fail(ctx context.Context, job Job, err error) {
	if w.deadLetter != nil {
		w.deadLetter(ctx, job, err)
	}
}
