package module

import (
	"context"

	"github.com/project-tktt/itjob-crawler/internal/domain"
)

// Batch is the output of one group of listing pages
type Batch struct {
	Number    int
	FirstPage int
	LastPage  int
	Jobs      []*domain.RawJob
}

// BatchHandler is called after each batch, before the next one starts
type BatchHandler func(ctx context.Context, batch Batch) error

// Stats counts what a crawl run did
type Stats struct {
	Batches       int
	FailedBatches int
	Pages         int
	EmptyPages    int
	FailedPages   int
	Links         int
	SkippedSeen   int
	Extracted     int
	OutOfWindow   int
	FailedJobs    int
}

// Crawler is the common interface for all job crawlers
type Crawler interface {
	// Run crawls page by page and calls handler after each batch
	Run(ctx context.Context, handler BatchHandler) (Stats, error)
	// Source returns the source identifier
	Source() domain.JobSource
}
