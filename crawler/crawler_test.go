package crawler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/amankumarsingh77/go-webtoon-crawler/db/models"
	"github.com/amankumarsingh77/go-webtoon-crawler/pkg/browser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type card struct {
	url   string
	index int
}

func (c card) Find(string) (browser.Element, error) { return c, nil }
func (c card) WaitElement(context.Context, string, time.Duration) (browser.Element, error) {
	return c, nil
}
func (c card) Text() (string, error)         { return "", nil }
func (c card) Attr(string) (string, error)   { return "", nil }
func (c card) Click(context.Context) error   { return nil }
func (c card) JSClick(context.Context) error { return nil }

type result struct {
	webtoon *models.Webtoon
	err     error
}

// fakeScraper serves cardCounts[url] cards per listing. counts, when set, overrides
// the count per CardElements call for that url. results is keyed by "url#index".
type fakeScraper struct {
	urls       []string
	cardCounts map[string]int
	counts     map[string][]int
	openErrs   map[string]error
	results    map[string]result

	opens   map[string]int
	scrapes map[string]int
	current string
}

func newFakeScraper(urls ...string) *fakeScraper {
	return &fakeScraper{
		urls:       urls,
		cardCounts: map[string]int{},
		counts:     map[string][]int{},
		openErrs:   map[string]error{},
		results:    map[string]result{},
		opens:      map[string]int{},
		scrapes:    map[string]int{},
	}
}

func key(url string, i int) string { return fmt.Sprintf("%s#%d", url, i) }

func (f *fakeScraper) Name() string         { return "fake" }
func (f *fakeScraper) TargetURLs() []string { return f.urls }

func (f *fakeScraper) OpenPage(_ context.Context, url string) error {
	f.opens[url]++
	f.current = url
	return f.openErrs[url]
}

func (f *fakeScraper) CardElements(context.Context) ([]browser.Element, error) {
	n := f.cardCounts[f.current]
	if seq := f.counts[f.current]; len(seq) > 0 {
		n = seq[0]
		f.counts[f.current] = seq[1:]
	}
	cards := make([]browser.Element, n)
	for i := range cards {
		cards[i] = card{url: f.current, index: i}
	}
	return cards, nil
}

func (f *fakeScraper) ScrapeOne(_ context.Context, el browser.Element) (*models.Webtoon, error) {
	c := el.(card)
	k := key(c.url, c.index)
	f.scrapes[k]++
	if r, ok := f.results[k]; ok {
		return r.webtoon, r.err
	}
	return &models.Webtoon{Title: k}, nil
}

type memRepo struct {
	saved []models.Webtoon
}

func (r *memRepo) Save(w models.Webtoon) { r.saved = append(r.saved, w) }

func titles(ws []models.Webtoon) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.Title
	}
	return out
}

func newCrawler(t *testing.T, s *fakeScraper, repo *memRepo, maxCards int) *Crawler {
	return New(s, repo, Options{MaxCards: maxCards, Logger: zaptest.NewLogger(t)})
}

func TestRunSavesEveryCardUpToCap(t *testing.T) {
	s := newFakeScraper("mon", "tue")
	s.cardCounts["mon"] = 5
	s.cardCounts["tue"] = 2
	repo := &memRepo{}

	c := newCrawler(t, s, repo, 3)
	require.NoError(t, c.Run(context.Background()))

	assert.Equal(t, []string{"mon#0", "mon#1", "mon#2", "tue#0", "tue#1"}, titles(repo.saved))
	assert.Zero(t, s.scrapes["mon#3"])
	assert.Equal(t, Stats{URLs: 2, Processed: 5, Saved: 5}, c.Stats())
}

func TestRunWithoutCap(t *testing.T) {
	s := newFakeScraper("mon")
	s.cardCounts["mon"] = 45
	repo := &memRepo{}

	require.NoError(t, newCrawler(t, s, repo, 0).Run(context.Background()))
	assert.Len(t, repo.saved, 45)
}

func TestRunSkipsStaleAndTimedOutCardsWithoutRetry(t *testing.T) {
	s := newFakeScraper("mon")
	s.cardCounts["mon"] = 4
	s.results[key("mon", 1)] = result{err: fmt.Errorf("click: %w", browser.ErrStale)}
	s.results[key("mon", 2)] = result{err: browser.ErrTimeout}
	repo := &memRepo{}

	c := newCrawler(t, s, repo, 40)
	require.NoError(t, c.Run(context.Background()))

	assert.Equal(t, []string{"mon#0", "mon#3"}, titles(repo.saved))
	assert.Equal(t, 1, s.scrapes[key("mon", 1)])
	assert.Equal(t, 1, s.opens["mon"], "stale elements do not reload the listing")
	assert.Equal(t, 1, c.Stats().Stale)
	assert.Equal(t, 1, c.Stats().Timeouts)
}

func TestRunReloadsListingAfterSessionFault(t *testing.T) {
	s := newFakeScraper("mon")
	s.cardCounts["mon"] = 3
	s.results[key("mon", 1)] = result{err: browser.ErrSession}
	repo := &memRepo{}

	c := newCrawler(t, s, repo, 40)
	require.NoError(t, c.Run(context.Background()))

	assert.Equal(t, 2, s.opens["mon"])
	assert.Equal(t, 1, s.scrapes[key("mon", 1)])
	assert.Equal(t, []string{"mon#0", "mon#2"}, titles(repo.saved))
	assert.Equal(t, 1, c.Stats().SessionFaults)
}

func TestRunReloadFailureStopsCrawl(t *testing.T) {
	s := newFakeScraper("mon")
	s.cardCounts["mon"] = 3
	s.results[key("mon", 0)] = result{err: browser.ErrNotFound}
	reloadErr := errors.New("connection refused")
	f := &failingReload{fakeScraper: s, err: reloadErr}

	c := New(f, &memRepo{}, Options{Logger: zaptest.NewLogger(t)})
	err := c.Run(context.Background())

	assert.ErrorIs(t, err, reloadErr)
	assert.Equal(t, 2, s.opens["mon"])
}

// failingReload opens a listing once and fails every later reload.
type failingReload struct {
	*fakeScraper
	err error
}

func (f *failingReload) OpenPage(ctx context.Context, url string) error {
	if err := f.fakeScraper.OpenPage(ctx, url); err != nil {
		return err
	}
	if f.opens[url] > 1 {
		return f.err
	}
	return nil
}

func TestRunSkipsEmptyListing(t *testing.T) {
	s := newFakeScraper("mon", "tue")
	s.cardCounts["tue"] = 1
	repo := &memRepo{}

	c := newCrawler(t, s, repo, 40)
	require.NoError(t, c.Run(context.Background()))

	assert.Equal(t, []string{"tue#0"}, titles(repo.saved))
	assert.Equal(t, 2, c.Stats().URLs)
}

func TestRunMovesOnWhenListShrinks(t *testing.T) {
	s := newFakeScraper("mon", "tue")
	s.counts["mon"] = []int{3, 3, 1}
	s.cardCounts["mon"] = 1
	s.cardCounts["tue"] = 1
	repo := &memRepo{}

	require.NoError(t, newCrawler(t, s, repo, 40).Run(context.Background()))

	assert.Equal(t, []string{"mon#0", "tue#0"}, titles(repo.saved))
	assert.Zero(t, s.scrapes[key("mon", 1)])
}

func TestRunCountsAbsentRecords(t *testing.T) {
	s := newFakeScraper("mon")
	s.cardCounts["mon"] = 2
	s.results[key("mon", 0)] = result{}
	repo := &memRepo{}

	c := newCrawler(t, s, repo, 40)
	require.NoError(t, c.Run(context.Background()))

	assert.Equal(t, []string{"mon#1"}, titles(repo.saved))
	assert.Equal(t, 1, c.Stats().Absent)
}

func TestRunStopsOnUnexpectedError(t *testing.T) {
	s := newFakeScraper("mon", "tue")
	s.cardCounts["mon"] = 3
	s.cardCounts["tue"] = 3
	boom := errors.New("parse failure")
	s.results[key("mon", 1)] = result{err: boom}
	repo := &memRepo{}

	err := newCrawler(t, s, repo, 40).Run(context.Background())
	require.ErrorIs(t, err, boom)

	assert.Equal(t, []string{"mon#0"}, titles(repo.saved), "records saved before the failure are kept")
	assert.Zero(t, s.opens["tue"])
}

func TestRunSavesRecordReturnedWithError(t *testing.T) {
	s := newFakeScraper("mon")
	s.cardCounts["mon"] = 2
	s.results[key("mon", 0)] = result{
		webtoon: &models.Webtoon{Title: "kept"},
		err:     fmt.Errorf("navigate back: %w", browser.ErrSession),
	}
	repo := &memRepo{}

	require.NoError(t, newCrawler(t, s, repo, 40).Run(context.Background()))
	assert.Equal(t, []string{"kept", "mon#1"}, titles(repo.saved))
}

func TestRunOpenPageErrors(t *testing.T) {
	s := newFakeScraper("mon", "tue")
	s.cardCounts["mon"] = 1
	s.cardCounts["tue"] = 1
	s.openErrs["mon"] = fmt.Errorf("wait for mon: %w", browser.ErrTimeout)
	repo := &memRepo{}

	require.NoError(t, newCrawler(t, s, repo, 40).Run(context.Background()))
	assert.Len(t, repo.saved, 2, "a slow listing is still scraped")

	s = newFakeScraper("mon")
	s.openErrs["mon"] = errors.New("net::ERR_NAME_NOT_RESOLVED")
	assert.Error(t, newCrawler(t, s, &memRepo{}, 40).Run(context.Background()))
}

func TestRunHonoursCancellation(t *testing.T) {
	s := newFakeScraper("mon")
	s.cardCounts["mon"] = 3
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newCrawler(t, s, &memRepo{}, 40).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, s.opens["mon"])
}

func TestRunPacesCards(t *testing.T) {
	s := newFakeScraper("mon")
	s.cardCounts["mon"] = 3
	repo := &memRepo{}

	c := New(s, repo, Options{Interval: 20 * time.Millisecond, Logger: zaptest.NewLogger(t)})
	start := time.Now()
	require.NoError(t, c.Run(context.Background()))

	assert.Len(t, repo.saved, 3)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}
