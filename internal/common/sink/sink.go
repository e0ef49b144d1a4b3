package sink

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/phuslu/log"

	"github.com/project-tktt/itjob-crawler/internal/domain"
)

// Sink defines the interface for job export backends
type Sink interface {
	// Name identifies the sink in logs
	Name() string
	// Write exports the whole collection
	Write(ctx context.Context, jobs []*domain.Job) error
}

// jobKey identifies a job across runs: its URL when known, otherwise its title
func jobKey(job *domain.Job) string {
	if job.URL != "" {
		return job.URL
	}
	return strings.TrimSpace(job.Title)
}

func docID(job *domain.Job) string {
	h := sha256.Sum256([]byte(jobKey(job)))
	return hex.EncodeToString(h[:16])
}

// WriteAll writes jobs to every sink. A failing sink does not stop the others.
func WriteAll(ctx context.Context, sinks []Sink, jobs []*domain.Job) error {
	var errs []error
	for _, s := range sinks {
		if err := s.Write(ctx, jobs); err != nil {
			log.Error().Err(err).Str("sink", s.Name()).Msg("[Sink] Export failed")
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
