package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amankumarsingh77/go-webtoon-crawler/db/models"
	"github.com/amankumarsingh77/go-webtoon-crawler/pkg/browser"
	"github.com/amankumarsingh77/go-webtoon-crawler/scraper"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const DefaultMaxCards = 40

var errListShrunk = errors.New("card list is shorter than the current index")

type Repository interface {
	Save(w models.Webtoon)
}

type Options struct {
	// MaxCards caps how many cards are processed per listing page. Zero processes every card.
	MaxCards int
	// Interval is the minimum time between two card scrapes. Zero disables pacing.
	Interval time.Duration
	Logger   *zap.Logger
}

type Stats struct {
	URLs          int `json:"urls"`
	Processed     int `json:"processed"`
	Saved         int `json:"saved"`
	Absent        int `json:"absent"`
	Stale         int `json:"stale"`
	Timeouts      int `json:"timeouts"`
	SessionFaults int `json:"session_faults"`
}

// Crawler drives one scraper over all of its listing pages and feeds the repository.
type Crawler struct {
	scraper scraper.Scraper
	repo    Repository
	opts    Options
	limiter *rate.Limiter
	logger  *zap.Logger
	stats   Stats
}

func New(s scraper.Scraper, repo Repository, opts Options) *Crawler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxCards < 0 {
		opts.MaxCards = 0
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.Interval > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.Interval), 1)
	}

	return &Crawler{
		scraper: s,
		repo:    repo,
		opts:    opts,
		limiter: limiter,
		logger:  opts.Logger.With(zap.String("platform", s.Name())),
	}
}

func (c *Crawler) Stats() Stats {
	return c.stats
}

// Run visits every listing URL in order. Stale handles, timeouts and browser faults on a
// single card are logged and skipped; any other error stops the crawl and is returned.
// Records saved before the error stay in the repository.
func (c *Crawler) Run(ctx context.Context) error {
	for _, url := range c.scraper.TargetURLs() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.crawlURL(ctx, url); err != nil {
			return err
		}
		c.stats.URLs++
	}

	c.logger.Info("crawl finished", zap.Any("stats", c.stats))
	return nil
}

func (c *Crawler) crawlURL(ctx context.Context, url string) error {
	logger := c.logger.With(zap.String("url", url))

	if err := c.scraper.OpenPage(ctx, url); err != nil {
		if !errors.Is(err, browser.ErrTimeout) {
			return err
		}
		logger.Warn("listing page did not finish loading", zap.Error(err))
	}

	cards, err := c.scraper.CardElements(ctx)
	if err != nil && !errors.Is(err, browser.ErrTimeout) {
		return fmt.Errorf("list cards on %s: %w", url, err)
	}
	if len(cards) == 0 {
		logger.Warn("no webtoon elements found, skipping listing")
		return nil
	}

	total := len(cards)
	if c.opts.MaxCards > 0 && c.opts.MaxCards < total {
		total = c.opts.MaxCards
	}

	for i := 0; i < total; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		logger.Info("processing", zap.Int("index", i+1), zap.Int("total", total))
		c.stats.Processed++

		err := c.scrapeIndex(ctx, i)
		switch {
		case err == nil:
		case errors.Is(err, errListShrunk):
			logger.Warn("card list shrank, moving to next listing", zap.Int("index", i+1))
			return nil
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		case errors.Is(err, browser.ErrStale):
			c.stats.Stale++
			logger.Warn("stale element, skipping", zap.Int("index", i+1), zap.Error(err))
		case errors.Is(err, browser.ErrTimeout):
			c.stats.Timeouts++
			logger.Warn("timed out, skipping", zap.Int("index", i+1), zap.Error(err))
		case errors.Is(err, browser.ErrSession), errors.Is(err, browser.ErrNotFound):
			c.stats.SessionFaults++
			logger.Warn("browser fault, reloading listing", zap.Int("index", i+1), zap.Error(err))
			if err := c.scraper.OpenPage(ctx, url); err != nil && !errors.Is(err, browser.ErrTimeout) {
				return fmt.Errorf("reload %s: %w", url, err)
			}
		default:
			return fmt.Errorf("scrape %s card %d: %w", url, i+1, err)
		}
	}

	logger.Info("listing done", zap.Any("stats", c.stats))
	return nil
}

// scrapeIndex re-resolves the card list before touching card i: handles from the
// previous iteration died when the scraper navigated away and back.
func (c *Crawler) scrapeIndex(ctx context.Context, i int) error {
	cards, err := c.scraper.CardElements(ctx)
	if err != nil {
		return err
	}
	if i >= len(cards) {
		return errListShrunk
	}

	w, err := c.scraper.ScrapeOne(ctx, cards[i])
	if w != nil {
		c.repo.Save(*w)
		c.stats.Saved++
	} else if err == nil {
		c.stats.Absent++
	}
	return err
}
