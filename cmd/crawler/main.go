package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phuslu/log"

	"github.com/project-tktt/itjob-crawler/internal/app"
	"github.com/project-tktt/itjob-crawler/internal/common/dedup"
	"github.com/project-tktt/itjob-crawler/internal/common/fetcher"
	"github.com/project-tktt/itjob-crawler/internal/common/retry"
	"github.com/project-tktt/itjob-crawler/internal/common/sink"
	"github.com/project-tktt/itjob-crawler/internal/config"
	"github.com/project-tktt/itjob-crawler/internal/domain"
	"github.com/project-tktt/itjob-crawler/internal/module"
	"github.com/project-tktt/itjob-crawler/internal/module/reconcile"
	"github.com/project-tktt/itjob-crawler/internal/module/topcv"
	"github.com/project-tktt/itjob-crawler/internal/queue"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	app.SetupLogger()
	log.Info().Msg("Starting TopCV Job Crawler")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn().Msg("Shutdown signal received, completed batches are saved")
			os.Exit(130)
		}
		log.Fatal().Err(err).Msg("Crawler failed")
	}
	log.Info().Msg("Crawl complete")
}

func run(ctx context.Context, cfg *config.Config) error {
	f, err := fetcher.New(fetcher.Config{
		UserAgent: cfg.Crawler.UserAgent,
		ProxyURL:  cfg.Crawler.ProxyURL,
		Timeout:   cfg.Crawler.Timeout,
		Headless:  cfg.Crawler.Headless,
	}, cfg.Crawler.UseBrowser)
	if err != nil {
		return err
	}
	defer f.Close()

	rdb, err := app.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}

	var (
		seen      topcv.SeenStore
		publisher *queue.Publisher
	)
	if rdb != nil {
		defer rdb.Close()
		seen = dedup.NewDeduplicator(rdb, cfg.Redis.DedupPrefix, cfg.Redis.DedupTTL)
		publisher = queue.NewPublisher(rdb, cfg.Redis.JobQueue)
	}

	norm := app.NewNormalizer(cfg)
	reconciler, err := app.NewReconciler(cfg, norm)
	if err != nil {
		return err
	}

	sinks, err := app.NewSinks(ctx, cfg)
	if err != nil {
		return err
	}
	defer sinks.Close()

	window, err := cfg.Crawler.Window()
	if err != nil {
		return err
	}

	crawler := topcv.NewCrawler(f, cfg.Crawler.Selectors, norm, seen, topcv.Config{
		ListingURL: cfg.Crawler.ListingURL,
		StartPage:  cfg.Crawler.StartPage,
		EndPage:    cfg.Crawler.EndPage,
		BatchSize:  cfg.Crawler.BatchSize,
		PageDelay:  cfg.Crawler.PageDelay,
		JobDelay:   cfg.Crawler.JobDelay,
		Retry: retry.Policy{
			MaxAttempts: cfg.Crawler.MaxRetries,
			Delay:       cfg.Crawler.RetryDelay,
			Multiplier:  1,
			MaxDelay:    30 * time.Second,
		},
		Window:          window,
		StopOnEmptyPage: cfg.Crawler.StopOnEmptyPage,
	})

	// The collection is owned here and only grows between batches
	var collection []*domain.RawJob

	handler := func(ctx context.Context, batch module.Batch) error {
		collection = append(collection, batch.Jobs...)

		if cfg.Output.RawJSON != "" {
			if err := sink.SaveRaw(cfg.Output.RawJSON, collection); err != nil {
				return err
			}
		}

		if publisher != nil && len(batch.Jobs) > 0 {
			backlog, err := publisher.PublishBatch(ctx, batch.Jobs)
			if err != nil {
				log.Error().Err(err).Int("batch", batch.Number).Msg("Publish error")
			} else {
				log.Info().Int("batch", batch.Number).Int("published", len(batch.Jobs)).Int64("queue_length", backlog).Msg("Published batch")
			}
		}

		jobs, stats := reconciler.Reconcile(collection)
		logStats(batch.Number, stats)

		// sink failures are logged inside WriteAll and must not stop the crawl
		_ = sink.WriteAll(ctx, sinks.All, jobs)
		return nil
	}

	_, err = crawler.Run(ctx, handler)
	return err
}

func logStats(batch int, stats reconcile.Stats) {
	log.Info().
		Int("batch", batch).
		Int("collected", stats.Input).
		Int("dropped_empty_title", stats.DroppedEmptyTitle).
		Int("dropped_duplicate", stats.DroppedDuplicate).
		Int("output", stats.Output).
		Msg("Reconciled collection")
}
