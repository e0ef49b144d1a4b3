package topcv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/project-tktt/itjob-crawler/internal/common/extractor"
	"github.com/project-tktt/itjob-crawler/internal/common/fetcher"
	"github.com/project-tktt/itjob-crawler/internal/common/filter"
	"github.com/project-tktt/itjob-crawler/internal/common/normalizer"
	"github.com/project-tktt/itjob-crawler/internal/common/retry"
	"github.com/project-tktt/itjob-crawler/internal/domain"
	"github.com/project-tktt/itjob-crawler/internal/module"
	"github.com/project-tktt/itjob-crawler/internal/module/reconcile"
)

const testListing = "https://www.topcv.vn/tim-viec-lam-it"

// fakeFetcher serves canned HTML keyed by URL
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	fail  map[string]bool
	calls map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages: map[string]string{},
		fail:  map[string]bool{},
		calls: map[string]int{},
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, pageURL, readySelector string) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.calls[pageURL]++
	html, ok := f.pages[pageURL]
	failing := f.fail[pageURL]
	f.mu.Unlock()

	if failing {
		return nil, errors.New("connection reset")
	}
	if !ok {
		return nil, fmt.Errorf("%w: 404", fetcher.ErrStatus)
	}
	doc, err := fetcher.NewDocument(strings.NewReader(html), pageURL)
	if err != nil {
		return nil, err
	}
	if readySelector != "" && doc.Find(readySelector).Length() == 0 {
		return nil, fetcher.ErrElementNotFound
	}
	return doc, nil
}

func (f *fakeFetcher) Name() string { return "fake" }
func (f *fakeFetcher) Close() error { return nil }

func (f *fakeFetcher) listing(page int, hrefs ...string) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, href := range hrefs {
		fmt.Fprintf(&b, `<div class="job-item"><h3 class="title"><a href="%s">job</a></h3></div>`, href)
	}
	b.WriteString("</body></html>")
	f.pages[fmt.Sprintf("%s?page=%d", testListing, page)] = b.String()
}

func (f *fakeFetcher) detail(path, title, salary, posted string, tags ...string) {
	var b strings.Builder
	b.WriteString("<html><body>")
	if title != "" {
		fmt.Fprintf(&b, `<h1 class="job-detail__info--title">%s</h1>`, title)
	}
	fmt.Fprintf(&b, `<div class="job-detail__info--section">
		<div class="job-detail__info--section-content-title">Mức lương</div>
		<div class="job-detail__info--section-content-value">%s</div></div>`, salary)
	fmt.Fprintf(&b, `<span class="job-posted-date">%s</span>`, posted)
	b.WriteString(`<div class="job-tags__group-list-tag-scroll">`)
	for _, tag := range tags {
		fmt.Fprintf(&b, `<a class="item search-from-tag link">%s</a>`, tag)
	}
	b.WriteString("</div></body></html>")
	f.pages[BaseURL+path] = b.String()
}

type memorySeen struct {
	links map[string]bool
}

func (m *memorySeen) IsSeen(_ context.Context, source, link string) (bool, error) {
	return m.links[source+"|"+link], nil
}

func (m *memorySeen) MarkSeen(_ context.Context, source, link string) error {
	m.links[source+"|"+link] = true
	return nil
}

func mustDate(t *testing.T, s string) domain.Date {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return d
}

func testConfig(t *testing.T) Config {
	return Config{
		ListingURL:      testListing,
		StartPage:       1,
		EndPage:         5,
		BatchSize:       2,
		PageDelay:       time.Millisecond,
		JobDelay:        time.Millisecond,
		Retry:           retry.Policy{MaxAttempts: 2, Delay: time.Millisecond, Multiplier: 1},
		Window:          filter.Window{Start: mustDate(t, "2025-06-01"), End: mustDate(t, "2025-06-30")},
		StopOnEmptyPage: true,
	}
}

func collect(batches *[]module.Batch) module.BatchHandler {
	return func(_ context.Context, batch module.Batch) error {
		*batches = append(*batches, batch)
		return nil
	}
}

func TestCrawler_EndToEnd(t *testing.T) {
	f := newFakeFetcher()
	f.listing(1, "/viec-lam/a/1.html", "/viec-lam/b/2.html", "/viec-lam/a/1.html")
	f.listing(2, "/viec-lam/empty/3.html", "/viec-lam/c/4.html", "/viec-lam/e/5.html")
	f.listing(3)
	f.detail("/viec-lam/a/1.html", "Golang Developer", "10 - 15 triệu", "15/06/2025", "Golang", "Tiếng Anh")
	f.detail("/viec-lam/b/2.html", "PHP Developer", "Thỏa thuận", "20/06/2025", "PHP")
	f.detail("/viec-lam/empty/3.html", "", "20 triệu", "16/06/2025")
	f.detail("/viec-lam/c/4.html", "X", "30 triệu", "01/05/2025")
	f.detail("/viec-lam/e/5.html", "X", "800 USD", "18/06/2025", "Java, Spring")

	c := NewCrawler(f, extractor.DefaultSelectors(), normalizer.NewNormalizer(), nil, testConfig(t))

	var batches []module.Batch
	stats, err := c.Run(context.Background(), collect(&batches))
	require.NoError(t, err)

	require.Len(t, batches, 2)
	assert.Equal(t, 1, batches[0].FirstPage)
	assert.Equal(t, 2, batches[0].LastPage)
	assert.Len(t, batches[0].Jobs, 4)
	assert.Empty(t, batches[1].Jobs)

	assert.Equal(t, 3, stats.Pages)
	assert.Equal(t, 1, stats.EmptyPages)
	assert.Equal(t, 5, stats.Links)
	assert.Equal(t, 4, stats.Extracted)
	assert.Equal(t, 1, stats.OutOfWindow)
	assert.Equal(t, 0, f.calls[testListing+"?page=4"], "stops after the empty page")

	var collection []*domain.RawJob
	for _, b := range batches {
		collection = append(collection, b.Jobs...)
	}

	jobs, rstats := reconcile.NewReconciler(nil, nil, reconcile.Config{}).Reconcile(collection)
	require.Len(t, jobs, 3)
	assert.Equal(t, 1, rstats.DroppedEmptyTitle)

	assert.Equal(t, "Golang Developer", jobs[0].Title)
	assert.Equal(t, int64(12_500_000), *jobs[0].Salary)
	assert.Equal(t, "2025-06-15", jobs[0].PostedDate.String())
	assert.Equal(t, []string{"Golang"}, jobs[0].Skills)
	assert.Equal(t, []string{"Tiếng Anh"}, jobs[0].Languages)
	assert.Equal(t, BaseURL+"/viec-lam/a/1.html", jobs[0].URL)

	assert.Equal(t, "PHP Developer", jobs[1].Title)
	assert.Equal(t, int64(0), *jobs[1].Salary)

	assert.Equal(t, "X", jobs[2].Title)
	assert.Equal(t, int64(800*normalizer.DefaultUSDRate), *jobs[2].Salary)
	assert.Equal(t, "2025-06-18", jobs[2].PostedDate.String())
	assert.Equal(t, []string{"Java", "Spring"}, jobs[2].Skills)
}

func TestCrawler_FailedPageAbortsBatch(t *testing.T) {
	f := newFakeFetcher()
	f.listing(1, "/viec-lam/a/1.html")
	f.listing(2, "/viec-lam/c/3.html")
	f.listing(3, "/viec-lam/b/2.html")
	f.fail[testListing+"?page=2"] = true
	f.detail("/viec-lam/a/1.html", "Golang Developer", "10-15", "15/06/2025")
	f.detail("/viec-lam/b/2.html", "PHP Developer", "Thỏa thuận", "20/06/2025")

	cfg := testConfig(t)
	cfg.EndPage = 3
	c := NewCrawler(f, extractor.DefaultSelectors(), nil, nil, cfg)

	var batches []module.Batch
	stats, err := c.Run(context.Background(), collect(&batches))
	require.NoError(t, err)

	assert.Equal(t, 2, f.calls[testListing+"?page=2"], "retried up to the attempt limit")
	assert.Equal(t, 1, stats.FailedPages)
	assert.Equal(t, 1, stats.FailedBatches)
	assert.Equal(t, 1, stats.Batches)
	assert.Zero(t, f.calls[BaseURL+"/viec-lam/a/1.html"], "links harvested before the failure are dropped with the batch")

	require.Len(t, batches, 1)
	assert.Equal(t, 2, batches[0].Number)
	require.Len(t, batches[0].Jobs, 1)
	assert.Equal(t, "PHP Developer", batches[0].Jobs[0].Title)
}

func TestCrawler_FailedJobIsSkipped(t *testing.T) {
	f := newFakeFetcher()
	f.listing(1, "/viec-lam/missing/1.html", "/viec-lam/b/2.html")
	f.detail("/viec-lam/b/2.html", "PHP Developer", "Thỏa thuận", "20/06/2025")

	cfg := testConfig(t)
	cfg.EndPage = 1
	c := NewCrawler(f, extractor.DefaultSelectors(), nil, nil, cfg)

	var batches []module.Batch
	stats, err := c.Run(context.Background(), collect(&batches))
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FailedJobs)
	assert.Equal(t, 1, stats.Extracted)
	require.Len(t, batches, 1)
	assert.Len(t, batches[0].Jobs, 1)
}

func TestCrawler_SkipsSeenLinks(t *testing.T) {
	f := newFakeFetcher()
	f.listing(1, "/viec-lam/a/1.html", "/viec-lam/b/2.html")
	f.detail("/viec-lam/a/1.html", "Golang Developer", "10 - 15 triệu", "15/06/2025")
	f.detail("/viec-lam/b/2.html", "PHP Developer", "Thỏa thuận", "20/06/2025")

	seen := &memorySeen{links: map[string]bool{
		"topcv|" + BaseURL + "/viec-lam/a/1.html": true,
	}}

	cfg := testConfig(t)
	cfg.EndPage = 1
	c := NewCrawler(f, extractor.DefaultSelectors(), nil, seen, cfg)

	stats, err := c.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.SkippedSeen)
	assert.Equal(t, 1, stats.Extracted)
	assert.Equal(t, 0, f.calls[BaseURL+"/viec-lam/a/1.html"])
	assert.True(t, seen.links["topcv|"+BaseURL+"/viec-lam/b/2.html"])
}

func TestCrawler_HandlerError(t *testing.T) {
	f := newFakeFetcher()
	f.listing(1)

	cfg := testConfig(t)
	cfg.StopOnEmptyPage = false
	c := NewCrawler(f, extractor.DefaultSelectors(), nil, nil, cfg)

	boom := errors.New("disk full")
	stats, err := c.Run(context.Background(), func(context.Context, module.Batch) error { return boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, stats.Batches)
}

func TestCrawler_Canceled(t *testing.T) {
	f := newFakeFetcher()
	f.listing(1, "/viec-lam/a/1.html")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewCrawler(f, extractor.DefaultSelectors(), nil, nil, testConfig(t))
	_, err := c.Run(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCrawler_PageURL(t *testing.T) {
	c := NewCrawler(newFakeFetcher(), extractor.Selectors{}, nil, nil, Config{ListingURL: testListing + "?sort=new"})
	got, err := c.pageURL(3)
	require.NoError(t, err)
	assert.Equal(t, testListing+"?page=3&sort=new", got)
}

func TestCrawler_DefaultListingPageURL(t *testing.T) {
	c := NewCrawler(newFakeFetcher(), extractor.Selectors{}, nil, nil, Config{})
	got, err := c.pageURL(2)
	require.NoError(t, err)
	assert.Equal(t, "https://www.topcv.vn/tim-viec-lam-cong-nghe-thong-tin-cr257?category_family=r257&page=2&sba=1&type_keyword=1", got)
}
