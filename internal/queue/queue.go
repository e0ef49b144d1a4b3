package queue

import (
	"encoding/json"
	"fmt"

	"github.com/phuslu/log"

	"github.com/project-tktt/itjob-crawler/internal/domain"
)

// DefaultName is the Redis list shared by the crawler and the reconcile worker.
// Producers push to the head, consumers pop from the tail.
const DefaultName = "jobs:raw"

func queueName(name string) string {
	if name == "" {
		return DefaultName
	}
	return name
}

// encode marshals jobs into LPUSH/RPUSH arguments, in order
func encode(jobs []*domain.RawJob) ([]any, error) {
	args := make([]any, 0, len(jobs))
	for _, job := range jobs {
		data, err := json.Marshal(job)
		if err != nil {
			return nil, fmt.Errorf("marshal job %q: %w", job.Title, err)
		}
		args = append(args, data)
	}
	return args, nil
}

func decode(payload string) (*domain.RawJob, bool) {
	var job domain.RawJob
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		log.Warn().Err(err).Msg("[Queue] Skipping malformed job")
		return nil, false
	}
	return &job, true
}
