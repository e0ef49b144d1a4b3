package topcv

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/phuslu/log"
	"golang.org/x/time/rate"

	"github.com/project-tktt/itjob-crawler/internal/common/extractor"
	"github.com/project-tktt/itjob-crawler/internal/common/fetcher"
	"github.com/project-tktt/itjob-crawler/internal/common/filter"
	"github.com/project-tktt/itjob-crawler/internal/common/normalizer"
	"github.com/project-tktt/itjob-crawler/internal/common/retry"
	"github.com/project-tktt/itjob-crawler/internal/domain"
	"github.com/project-tktt/itjob-crawler/internal/module"
)

const (
	BaseURL    = "https://www.topcv.vn"
	ListingURL = "https://www.topcv.vn/tim-viec-lam-cong-nghe-thong-tin-cr257?type_keyword=1&sba=1&category_family=r257"
)

// SeenStore remembers detail links across runs
type SeenStore interface {
	IsSeen(ctx context.Context, source, link string) (bool, error)
	MarkSeen(ctx context.Context, source, link string) error
}

// Config holds TopCV-specific configuration
type Config struct {
	ListingURL string
	StartPage  int
	EndPage    int
	BatchSize  int
	// Minimum spacing between listing fetches and between detail fetches
	PageDelay time.Duration
	JobDelay  time.Duration
	Retry     retry.Policy
	Window    filter.Window
	// Stop paginating at the first listing page without job links
	StopOnEmptyPage bool
}

// Crawler implements job crawling for TopCV
type Crawler struct {
	fetcher   fetcher.Fetcher
	harvester *extractor.Harvester
	extractor *extractor.Extractor
	selectors extractor.Selectors
	seen      SeenStore
	config    Config

	pageLimiter *rate.Limiter
	jobLimiter  *rate.Limiter
}

// NewCrawler creates a new TopCV crawler. seen may be nil.
func NewCrawler(f fetcher.Fetcher, selectors extractor.Selectors, norm *normalizer.Normalizer, seen SeenStore, cfg Config) *Crawler {
	if cfg.ListingURL == "" {
		cfg.ListingURL = ListingURL
	}
	if cfg.StartPage <= 0 {
		cfg.StartPage = 1
	}
	if cfg.EndPage < cfg.StartPage {
		cfg.EndPage = cfg.StartPage + 9
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if cfg.PageDelay <= 0 {
		cfg.PageDelay = 2 * time.Second
	}
	if cfg.JobDelay <= 0 {
		cfg.JobDelay = time.Second
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = retry.DefaultPolicy()
	}
	if norm == nil {
		norm = normalizer.NewNormalizer()
	}

	selectors = selectors.WithDefaults()
	return &Crawler{
		fetcher:     f,
		harvester:   extractor.NewHarvester(selectors.JobLink),
		extractor:   extractor.NewExtractor(selectors, norm),
		selectors:   selectors,
		seen:        seen,
		config:      cfg,
		pageLimiter: rate.NewLimiter(rate.Every(cfg.PageDelay), 1),
		jobLimiter:  rate.NewLimiter(rate.Every(cfg.JobDelay), 1),
	}
}

// Source returns the source identifier
func (c *Crawler) Source() domain.JobSource {
	return domain.SourceTopCV
}

// Run crawls StartPage..EndPage in batches of BatchSize. Each batch harvests its
// listing pages, extracts every link found, then hands the jobs to handler.
// A listing page that still fails after retries aborts its batch; a detail page
// that still fails is skipped. Either way the crawl goes on with the next unit.
func (c *Crawler) Run(ctx context.Context, handler module.BatchHandler) (module.Stats, error) {
	var stats module.Stats
	cfg := c.config

	log.Info().
		Int("start_page", cfg.StartPage).
		Int("end_page", cfg.EndPage).
		Int("batch_size", cfg.BatchSize).
		Str("fetcher", c.fetcher.Name()).
		Msg("[TopCV] Starting crawl")

	for first, number := cfg.StartPage, 1; first <= cfg.EndPage; first, number = first+cfg.BatchSize, number+1 {
		last := min(first+cfg.BatchSize-1, cfg.EndPage)

		log.Info().Int("batch", number).Int("from", first).Int("to", last).Msg("[TopCV] Crawling batch")

		links, stop, err := c.harvestPages(ctx, first, last, &stats)
		var fatal *retry.FatalError
		if errors.As(err, &fatal) {
			stats.FailedBatches++
			log.Error().Err(err).Int("batch", number).Int("from", first).Int("to", last).Msg("[TopCV] Aborting batch")
			continue
		}
		if err != nil {
			return stats, err
		}

		jobs, err := c.extractJobs(ctx, links, &stats)
		if err != nil {
			return stats, err
		}

		stats.Batches++
		log.Info().Int("batch", number).Int("links", len(links)).Int("jobs", len(jobs)).Msg("[TopCV] Batch done")

		if handler != nil {
			batch := module.Batch{Number: number, FirstPage: first, LastPage: last, Jobs: jobs}
			if err := handler(ctx, batch); err != nil {
				return stats, fmt.Errorf("handle batch %d: %w", number, err)
			}
		}

		if stop {
			log.Info().Int("batch", number).Msg("[TopCV] Empty listing page, stopping")
			break
		}
	}

	log.Info().
		Int("pages", stats.Pages).
		Int("failed_pages", stats.FailedPages).
		Int("failed_batches", stats.FailedBatches).
		Int("links", stats.Links).
		Int("extracted", stats.Extracted).
		Int("out_of_window", stats.OutOfWindow).
		Int("failed_jobs", stats.FailedJobs).
		Int("skipped_seen", stats.SkippedSeen).
		Msg("[TopCV] Crawl finished")

	return stats, nil
}

// harvestPages collects the detail links of pages first..last, deduplicated within the batch.
// stop reports an empty page when StopOnEmptyPage is set. A page that exhausts its
// retries ends the harvest with a *retry.FatalError.
func (c *Crawler) harvestPages(ctx context.Context, first, last int, stats *module.Stats) (links []string, stop bool, err error) {
	links = []string{}
	seen := make(map[string]struct{})

	for page := first; page <= last; page++ {
		if err := c.pageLimiter.Wait(ctx); err != nil {
			return nil, false, err
		}

		pageURL, err := c.pageURL(page)
		if err != nil {
			return nil, false, err
		}

		doc, err := retry.Do(ctx, c.config.Retry, "harvest "+pageURL, func(ctx context.Context) (*goquery.Document, error) {
			return c.fetcher.Fetch(ctx, pageURL, c.selectors.ListReady)
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, false, ctx.Err()
			}
			stats.FailedPages++
			return nil, false, fmt.Errorf("listing page %d: %w", page, err)
		}
		stats.Pages++

		found := c.harvester.Harvest(doc)
		log.Debug().Int("page", page).Int("links", len(found)).Msg("[TopCV] Harvested listing page")

		if len(found) == 0 {
			stats.EmptyPages++
			if c.config.StopOnEmptyPage {
				return links, true, nil
			}
			continue
		}

		for _, link := range found {
			if _, dup := seen[link]; dup {
				continue
			}
			seen[link] = struct{}{}
			links = append(links, link)
		}
	}

	stats.Links += len(links)
	return links, false, nil
}

// extractJobs fetches and extracts each detail link in order
func (c *Crawler) extractJobs(ctx context.Context, links []string, stats *module.Stats) ([]*domain.RawJob, error) {
	jobs := make([]*domain.RawJob, 0, len(links))

	for _, link := range links {
		if c.isSeen(ctx, link) {
			stats.SkippedSeen++
			continue
		}

		if err := c.jobLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		doc, err := retry.Do(ctx, c.config.Retry, "extract "+link, func(ctx context.Context) (*goquery.Document, error) {
			return c.fetcher.Fetch(ctx, link, c.selectors.DetailReady)
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			stats.FailedJobs++
			log.Error().Err(err).Str("url", link).Msg("[TopCV] Skipping job")
			continue
		}

		job := c.extractor.Extract(doc, link, c.config.Window)
		if job == nil {
			stats.OutOfWindow++
			continue
		}

		jobs = append(jobs, job)
		stats.Extracted++
		c.markSeen(ctx, link)
	}

	return jobs, nil
}

func (c *Crawler) isSeen(ctx context.Context, link string) bool {
	if c.seen == nil {
		return false
	}
	seen, err := c.seen.IsSeen(ctx, string(domain.SourceTopCV), link)
	if err != nil {
		log.Warn().Err(err).Str("url", link).Msg("[TopCV] Dedup lookup failed")
		return false
	}
	return seen
}

func (c *Crawler) markSeen(ctx context.Context, link string) {
	if c.seen == nil {
		return
	}
	if err := c.seen.MarkSeen(ctx, string(domain.SourceTopCV), link); err != nil {
		log.Warn().Err(err).Str("url", link).Msg("[TopCV] Dedup mark failed")
	}
}

func (c *Crawler) pageURL(page int) (string, error) {
	u, err := url.Parse(c.config.ListingURL)
	if err != nil {
		return "", fmt.Errorf("parse listing url: %w", err)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
