package queue

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/project-tktt/itjob-crawler/internal/domain"
)

// Consumer pops raw jobs from a Redis list
type Consumer struct {
	client    *redis.Client
	name      string
	timeout   time.Duration
}

// NewConsumer creates a new queue consumer
func NewConsumer(client *redis.Client, name string, timeout time.Duration) *Consumer {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Consumer{
		client:    client,
		name:      queueName(name),
		timeout:   timeout,
	}
}

// ConsumeBatch consumes up to maxBatch jobs from the queue.
// BRPOP blocks for the first item, RPOP fills the rest without waiting.
// An empty result means the queue stayed empty for the whole timeout.
func (c *Consumer) ConsumeBatch(ctx context.Context, maxBatch int) ([]*domain.RawJob, error) {
	jobs := make([]*domain.RawJob, 0, maxBatch)

	result, err := c.client.BRPop(ctx, c.timeout, c.name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return jobs, nil
		}
		return nil, fmt.Errorf("brpop: %w", err)
	}

	if len(result) >= 2 {
		if job, ok := decode(result[1]); ok {
			jobs = append(jobs, job)
		}
	}

	for i := 1; i < maxBatch; i++ {
		result, err := c.client.RPop(ctx, c.name).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				break
			}
			return jobs, fmt.Errorf("rpop: %w", err)
		}

		if job, ok := decode(result); ok {
			jobs = append(jobs, job)
		}
	}

	return jobs, nil
}

// Requeue puts consumed jobs back at the tail, oldest last pushed,
// so the next ConsumeBatch returns them in the order they were first popped.
func (c *Consumer) Requeue(ctx context.Context, jobs []*domain.RawJob) error {
	if len(jobs) == 0 {
		return nil
	}

	args, err := requeueArgs(jobs)
	if err != nil {
		return err
	}
	if err := c.client.RPush(ctx, c.name, args...).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", c.name, err)
	}
	return nil
}

func requeueArgs(jobs []*domain.RawJob) ([]any, error) {
	args, err := encode(jobs)
	if err != nil {
		return nil, err
	}
	slices.Reverse(args)
	return args, nil
}
