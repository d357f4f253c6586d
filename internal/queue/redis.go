package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	harbor_errors "harbor-chat/pkg/errors"

	"github.com/redis/go-redis/v9"
)

// RedisQueue backs named queues with redis lists. Each queue is one
// list keyed queue:<name>; producers LPUSH and consumers BRPOP.
type RedisQueue struct {
	client *redis.Client
}

func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

func queueKey(queueName string) string {
	return "queue:" + queueName
}

func (q *RedisQueue) Enqueue(ctx context.Context, queueName string, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, queueKey(queueName), data).Err()
}

func (q *RedisQueue) Dequeue(ctx context.Context, queueName string, timeout time.Duration) (Job, error) {
	res, err := q.client.BRPop(ctx, timeout, queueKey(queueName)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Job{}, harbor_errors.ErrQueueEmpty
		}
		return Job{}, err
	}

	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return Job{}, err
	}
	return job, nil
}
