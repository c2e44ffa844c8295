package scraper

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/amankumarsingh77/go-webtoon-crawler/db/models"
	"github.com/amankumarsingh77/go-webtoon-crawler/pkg/browser"
	"go.uber.org/zap"
)

// Scraper knows the listing pages of one platform and how to turn a listing card into a webtoon.
type Scraper interface {
	Name() string
	TargetURLs() []string
	OpenPage(ctx context.Context, url string) error
	CardElements(ctx context.Context) ([]browser.Element, error)
	// ScrapeOne returns nil, nil when the detail page did not load in time.
	ScrapeOne(ctx context.Context, card browser.Element) (*models.Webtoon, error)
}

type Options struct {
	URLs            []string
	PageLoadTimeout time.Duration
	ElementTimeout  time.Duration
	SettleDelay     time.Duration
	Logger          *zap.Logger
}

func DefaultOptions() Options {
	return Options{
		PageLoadTimeout: 3 * time.Second,
		ElementTimeout:  1 * time.Second,
		SettleDelay:     500 * time.Millisecond,
	}
}

// WithDefaults fills zero fields from DefaultOptions.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.PageLoadTimeout <= 0 {
		o.PageLoadTimeout = d.PageLoadTimeout
	}
	if o.ElementTimeout <= 0 {
		o.ElementTimeout = d.ElementTimeout
	}
	if o.SettleDelay < 0 {
		o.SettleDelay = 0
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// OpenPage navigates and waits for the document to finish loading.
// Content rendered by scripts after the load event may still be missing.
func OpenPage(ctx context.Context, s browser.Session, url string, timeout time.Duration) error {
	if err := s.Navigate(ctx, url); err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	if err := s.WaitReady(ctx, timeout); err != nil {
		return fmt.Errorf("wait for %s: %w", url, err)
	}
	return nil
}

// Cleanup returns to the listing page and gives it time to settle.
// Deferred from ScrapeOne with its named error so that a failed back-navigation still surfaces.
func Cleanup(ctx context.Context, nav *browser.Navigator, settle time.Duration, errp *error) {
	if err := nav.Unwind(context.WithoutCancel(ctx)); err != nil && *errp == nil {
		*errp = err
	}
	Pause(ctx, settle)
}

func Pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Document parses the rendered markup of the current page.
func Document(s browser.Session) (*goquery.Document, error) {
	html, err := s.HTML()
	if err != nil {
		return nil, fmt.Errorf("read page source: %w", err)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

var (
	titleIDPattern = regexp.MustCompile(`titleId=(\d+)`)
	intPattern     = regexp.MustCompile(`\d+`)
)

// TitleID extracts the numeric titleId query value from a detail URL.
func TitleID(link string) *int {
	m := titleIDPattern.FindStringSubmatch(link)
	if m == nil {
		return nil
	}
	return atoi(m[1])
}

// FirstInt returns the first run of digits in s, ignoring thousands separators.
func FirstInt(s string) *int {
	m := intPattern.FindString(strings.ReplaceAll(s, ",", ""))
	if m == "" {
		return nil
	}
	return atoi(m)
}

func atoi(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

// ResolveURL makes ref absolute against base. Attribute values read from the DOM are often relative.
func ResolveURL(base, ref string) string {
	r, err := url.Parse(ref)
	if err != nil || r.IsAbs() {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// Text is the trimmed text of the first node in sel.
func Text(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.First().Text())
}

// Tags collects trimmed texts of sel with a leading hash mark removed.
func Tags(sel *goquery.Selection) []string {
	tags := []string{}
	sel.Each(func(_ int, s *goquery.Selection) {
		tag := strings.ReplaceAll(strings.TrimSpace(s.Text()), "#", "")
		if tag != "" {
			tags = append(tags, tag)
		}
	})
	return tags
}
