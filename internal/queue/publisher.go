package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/project-tktt/itjob-crawler/internal/domain"
)

// Publisher hands crawled batches to the reconcile worker
type Publisher struct {
	client *redis.Client
	name   string
}

func NewPublisher(client *redis.Client, name string) *Publisher {
	return &Publisher{client: client, name: queueName(name)}
}

// PublishBatch pushes a batch with a single LPUSH and returns the queue
// length afterwards, so callers can watch the backlog grow.
func (p *Publisher) PublishBatch(ctx context.Context, jobs []*domain.RawJob) (int64, error) {
	if len(jobs) == 0 {
		return p.client.LLen(ctx, p.name).Result()
	}

	args, err := encode(jobs)
	if err != nil {
		return 0, err
	}

	backlog, err := p.client.LPush(ctx, p.name, args...).Result()
	if err != nil {
		return 0, fmt.Errorf("lpush %s: %w", p.name, err)
	}
	return backlog, nil
}
