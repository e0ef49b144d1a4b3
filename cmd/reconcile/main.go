package main

import (
	"context"
	"errors"
	"flag"
	"os/signal"
	"syscall"

	"github.com/phuslu/log"

	"github.com/project-tktt/itjob-crawler/internal/app"
	"github.com/project-tktt/itjob-crawler/internal/common/sink"
	"github.com/project-tktt/itjob-crawler/internal/config"
	"github.com/project-tktt/itjob-crawler/internal/module/reconcile"
	"github.com/project-tktt/itjob-crawler/internal/module/worker"
	"github.com/project-tktt/itjob-crawler/internal/queue"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	input := flag.String("input", "", "raw JSON dump to reconcile (defaults to output.raw_json)")
	fromQueue := flag.Bool("from-queue", false, "drain the Redis raw job queue instead of reading a dump")
	flag.Parse()

	app.SetupLogger()
	log.Info().Msg("Starting Job Reconciler")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *fromQueue {
		err = runQueue(ctx, cfg)
	} else {
		path := *input
		if path == "" {
			path = cfg.Output.RawJSON
		}
		err = runDump(ctx, cfg, path)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Reconcile failed")
	}
	log.Info().Msg("Reconcile complete")
}

func runDump(ctx context.Context, cfg *config.Config, path string) error {
	raws, err := sink.LoadRaw(path)
	if err != nil {
		return err
	}
	log.Info().Str("path", path).Int("jobs", len(raws)).Msg("Loaded raw jobs")

	reconciler, err := app.NewReconciler(cfg, app.NewNormalizer(cfg))
	if err != nil {
		return err
	}

	sinks, err := app.NewSinks(ctx, cfg)
	if err != nil {
		return err
	}
	defer sinks.Close()

	jobs, stats := reconciler.Reconcile(raws)
	logStats(stats)

	return sink.WriteAll(ctx, sinks.All, jobs)
}

func runQueue(ctx context.Context, cfg *config.Config) error {
	if !cfg.Redis.Enabled {
		return errors.New("redis is disabled, enable it to drain the queue")
	}
	rdb, err := app.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	reconciler, err := app.NewReconciler(cfg, app.NewNormalizer(cfg))
	if err != nil {
		return err
	}

	sinks, err := app.NewSinks(ctx, cfg)
	if err != nil {
		return err
	}
	defer sinks.Close()

	consumer := queue.NewConsumer(rdb, cfg.Redis.JobQueue, cfg.Worker.ConsumeTimeout)
	w := worker.NewWorker(consumer, reconciler, sinks.All, worker.Config{BatchSize: cfg.Worker.BatchSize})

	_, err = w.Run(ctx)
	return err
}

func logStats(stats reconcile.Stats) {
	log.Info().
		Int("input", stats.Input).
		Int("dropped_empty_title", stats.DroppedEmptyTitle).
		Int("dropped_duplicate", stats.DroppedDuplicate).
		Int("output", stats.Output).
		Msg("Reconciled jobs")
}
