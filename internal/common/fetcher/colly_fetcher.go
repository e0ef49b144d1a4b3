package fetcher

import (
	"bytes"
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/phuslu/log"
)

// CollyFetcher fetches static HTML with Colly
type CollyFetcher struct {
	collector *colly.Collector
}

// NewCollyFetcher creates a new Colly-based fetcher
func NewCollyFetcher(cfg Config) *CollyFetcher {
	c := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)

	if cfg.Timeout > 0 {
		c.SetRequestTimeout(cfg.Timeout)
	}

	if cfg.ProxyURL != "" {
		if err := c.SetProxy(cfg.ProxyURL); err != nil {
			log.Warn().Err(err).Str("proxy", cfg.ProxyURL).Msg("[Fetcher] Ignoring invalid proxy")
		}
	}

	return &CollyFetcher{collector: c}
}

func (f *CollyFetcher) Name() string {
	return "colly"
}

func (f *CollyFetcher) Fetch(ctx context.Context, pageURL, readySelector string) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var body []byte
	var fetchErr error

	collector := f.collector.Clone()

	collector.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	collector.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		if status >= 400 {
			fetchErr = fmt.Errorf("%w %d: %v", ErrStatus, status, err)
			return
		}
		fetchErr = fmt.Errorf("colly error: %w", err)
	})

	if err := collector.Visit(pageURL); err != nil && fetchErr == nil {
		return nil, fmt.Errorf("visit url: %w", err)
	}

	if fetchErr != nil {
		return nil, fetchErr
	}

	doc, err := NewDocument(bytes.NewReader(body), pageURL)
	if err != nil {
		return nil, err
	}
	return checkReady(doc, readySelector)
}

func (f *CollyFetcher) Close() error {
	return nil
}
