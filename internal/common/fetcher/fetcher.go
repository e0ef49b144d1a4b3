package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var (
	// ErrElementNotFound is returned when the ready selector is absent from a loaded page
	ErrElementNotFound = errors.New("element not found")
	// ErrStatus is returned for non-2xx responses
	ErrStatus = errors.New("unexpected status")
)

// Fetcher loads a page and returns its DOM
type Fetcher interface {
	// Fetch loads pageURL. When readySelector is set the page must contain it.
	Fetch(ctx context.Context, pageURL, readySelector string) (*goquery.Document, error)

	// Name returns the name of this fetcher
	Name() string

	Close() error
}

// Config holds common configuration for fetchers
type Config struct {
	UserAgent string
	ProxyURL  string
	Timeout   time.Duration
	// Headless only applies to the browser fetcher
	Headless bool
}

// New returns the browser fetcher when useBrowser is set, the HTTP fetcher otherwise
func New(cfg Config, useBrowser bool) (Fetcher, error) {
	if useBrowser {
		return NewChromeFetcher(cfg)
	}
	return NewCollyFetcher(cfg), nil
}

// NewDocument parses HTML and binds it to pageURL so relative links can be resolved
func NewDocument(r io.Reader, pageURL string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	if u, err := url.Parse(pageURL); err == nil {
		doc.Url = u
	}
	return doc, nil
}

func checkReady(doc *goquery.Document, readySelector string) (*goquery.Document, error) {
	if readySelector != "" && doc.Find(readySelector).Length() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, readySelector)
	}
	return doc, nil
}
