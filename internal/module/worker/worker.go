package worker

import (
	"context"
	"fmt"

	"github.com/phuslu/log"

	"github.com/project-tktt/itjob-crawler/internal/common/sink"
	"github.com/project-tktt/itjob-crawler/internal/domain"
	"github.com/project-tktt/itjob-crawler/internal/module/reconcile"
)

// Source yields raw jobs in batches; an empty batch means it is drained
type Source interface {
	ConsumeBatch(ctx context.Context, maxBatch int) ([]*domain.RawJob, error)
	// Requeue hands back jobs that were consumed but not exported
	Requeue(ctx context.Context, jobs []*domain.RawJob) error
}

// Worker drains queued raw jobs, reconciles them as one collection and exports the result
type Worker struct {
	source     Source
	reconciler *reconcile.Reconciler
	sinks      []sink.Sink

	batchSize int
}

// Config holds worker configuration
type Config struct {
	BatchSize int
}

// NewWorker creates a new worker
func NewWorker(source Source, rec *reconcile.Reconciler, sinks []sink.Sink, cfg Config) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Worker{
		source:     source,
		reconciler: rec,
		sinks:      sinks,
		batchSize:  cfg.BatchSize,
	}
}

// Run drains the source, reconciles and writes every sink
func (w *Worker) Run(ctx context.Context) (reconcile.Stats, error) {
	raws, err := w.Drain(ctx)
	if err != nil {
		w.requeue(ctx, raws)
		return reconcile.Stats{}, err
	}

	jobs, stats := w.reconciler.Reconcile(raws)
	log.Info().
		Int("input", stats.Input).
		Int("dropped_empty_title", stats.DroppedEmptyTitle).
		Int("dropped_duplicate", stats.DroppedDuplicate).
		Int("output", stats.Output).
		Msg("[Worker] Reconciled jobs")

	if err := sink.WriteAll(ctx, w.sinks, jobs); err != nil {
		w.requeue(ctx, raws)
		return stats, fmt.Errorf("export: %w", err)
	}
	return stats, nil
}

// requeue returns drained jobs to the source. It runs on a detached context
// because the usual reason for getting here is a canceled one.
func (w *Worker) requeue(ctx context.Context, raws []*domain.RawJob) {
	if len(raws) == 0 {
		return
	}
	if err := w.source.Requeue(context.WithoutCancel(ctx), raws); err != nil {
		log.Error().Err(err).Int("jobs", len(raws)).Msg("[Worker] Requeue failed, jobs lost")
		return
	}
	log.Warn().Int("jobs", len(raws)).Msg("[Worker] Requeued jobs")
}

// Drain consumes batches until the source comes back empty
func (w *Worker) Drain(ctx context.Context) ([]*domain.RawJob, error) {
	var raws []*domain.RawJob
	for {
		select {
		case <-ctx.Done():
			return raws, ctx.Err()
		default:
		}

		batch, err := w.source.ConsumeBatch(ctx, w.batchSize)
		if err != nil {
			return raws, fmt.Errorf("consume: %w", err)
		}
		if len(batch) == 0 {
			log.Info().Int("jobs", len(raws)).Msg("[Worker] Queue drained")
			return raws, nil
		}

		log.Debug().Int("jobs", len(batch)).Msg("[Worker] Consumed batch")
		raws = append(raws, batch...)
	}
}
