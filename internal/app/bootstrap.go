// Package app wires configuration into the components shared by the binaries.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/phuslu/log"
	"github.com/redis/go-redis/v9"

	"github.com/project-tktt/itjob-crawler/internal/common/cleaner"
	"github.com/project-tktt/itjob-crawler/internal/common/normalizer"
	"github.com/project-tktt/itjob-crawler/internal/common/sink"
	"github.com/project-tktt/itjob-crawler/internal/config"
	"github.com/project-tktt/itjob-crawler/internal/module/reconcile"
)

// SetupLogger installs a console logger; LOG_LEVEL overrides the info default
func SetupLogger() {
	level := log.InfoLevel
	if s := os.Getenv("LOG_LEVEL"); s != "" {
		level = log.ParseLevel(s)
	}
	log.DefaultLogger = log.Logger{
		Level:  level,
		Caller: 1,
		Writer: &log.ConsoleWriter{
			ColorOutput:    true,
			QuoteString:    true,
			EndWithMessage: true,
		},
	}
}

// NewRedis connects to Redis, or returns nil when it is disabled
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	log.Info().Str("addr", cfg.Addr).Msg("Redis connected")
	return rdb, nil
}

// NewNormalizer builds the normalizer from config
func NewNormalizer(cfg *config.Config) *normalizer.Normalizer {
	return normalizer.NewNormalizer(normalizer.WithUSDRate(cfg.Normalizer.USDRate))
}

// NewReconciler builds the reconciliation pass from config
func NewReconciler(cfg *config.Config, norm *normalizer.Normalizer) (*reconcile.Reconciler, error) {
	levels, err := cfg.Normalizer.Levels()
	if err != nil {
		return nil, err
	}
	return reconcile.NewReconciler(norm, cleaner.NewCleaner(), reconcile.Config{EducationLevels: levels}), nil
}

// Sinks holds the configured exporters and anything that must be closed after use
type Sinks struct {
	All     []sink.Sink
	closers []io.Closer
}

// Close releases database connections
func (s *Sinks) Close() {
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("Closing sink failed")
		}
	}
}

// NewSinks builds the file sinks for every configured path and the database
// sinks that are enabled
func NewSinks(ctx context.Context, cfg *config.Config) (*Sinks, error) {
	s := &Sinks{}
	if cfg.Output.XLSX != "" {
		s.All = append(s.All, sink.NewXLSXSink(cfg.Output.XLSX))
	}
	if cfg.Output.JSON != "" {
		s.All = append(s.All, sink.NewJSONSink(cfg.Output.JSON))
	}

	if cfg.Postgres.Enabled {
		pg, err := sink.NewPostgresSink(ctx, cfg.Postgres.ConnectionString, cfg.Postgres.TableName)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("postgres sink: %w", err)
		}
		log.Info().Str("table", cfg.Postgres.TableName).Msg("PostgreSQL connected")
		s.All = append(s.All, pg)
		s.closers = append(s.closers, pg)
	}

	if cfg.Elasticsearch.Enabled {
		es, err := sink.NewElasticsearchSink(cfg.Elasticsearch.Addresses, cfg.Elasticsearch.Index)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("elasticsearch sink: %w", err)
		}
		if err := es.EnsureIndex(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to ensure index")
		}
		log.Info().Str("index", cfg.Elasticsearch.Index).Msg("Elasticsearch connected")
		s.All = append(s.All, es)
	}

	return s, nil
}
