package kakao

import (
	"context"
	"errors"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/amankumarsingh77/go-webtoon-crawler/db/models"
	"github.com/amankumarsingh77/go-webtoon-crawler/pkg/browser"
	"github.com/amankumarsingh77/go-webtoon-crawler/scraper"
	"go.uber.org/zap"
)

const (
	PlatformName = "kakao"
	BaseURL      = "https://webtoon.kakao.com"

	// Live DOM selectors. The utility class names come straight from the site's Tailwind build.
	showAllContainerSelector = `.w-fit.flex.overflow-x-scroll.no-scrollbar.scrolling-touch.space-x-6`
	gridSelector             = `.flex.flex-wrap.gap-4.content-start`
	cardSelector             = `.flex-grow-0.overflow-hidden.flex-\[calc\(\(100\%\-12px\)\/4\)\]`
	linkSelector             = `.w-full.h-full.relative.overflow-hidden.rounded-8.before\:absolute.before\:inset-0.before\:bg-grey-01.before\:-z-1`
	titleMarkerSelector      = `.whitespace-pre-wrap.break-all.break-words.support-break-word.overflow-hidden.text-ellipsis.s22-semibold-white.text-center.leading-26`

	// Parsed-markup selectors match the exact class attribute.
	titleSelector        = `p[class="whitespace-pre-wrap break-all break-words support-break-word overflow-hidden text-ellipsis !whitespace-nowrap s22-semibold-white text-center leading-26"]`
	storySelector        = `p[class="whitespace-pre-wrap break-all break-words support-break-word s13-regular-white leading-20 overflow-hidden"]`
	daySelector          = `p[class="whitespace-pre-wrap break-all break-words support-break-word font-badge !whitespace-nowrap rounded-5 s10-bold-black bg-white px-5 !text-[11px]"]`
	genreSelector        = `p[class="whitespace-pre-wrap break-all break-words support-break-word overflow-hidden text-ellipsis !whitespace-nowrap s14-medium-white"]`
	episodeCountSelector = `p[class="whitespace-pre-wrap break-all break-words support-break-word overflow-hidden text-ellipsis !whitespace-nowrap leading-14 s12-regular-white"]`
	authorBlockSelector  = `div.flex.mb-8`

	profileTab = "tab=profile"

	placeholderThumbnail = "http://example.com/thumbnail.jpg"
	placeholderAuthor    = "/author_link"
	defaultAgeRating     = "전체연령가"
)

var DefaultURLs = []string{
	BaseURL + "/?tab=mon",
	BaseURL + "/?tab=tue",
	BaseURL + "/?tab=wed",
	BaseURL + "/?tab=thu",
	BaseURL + "/?tab=fri",
	BaseURL + "/?tab=sat",
	BaseURL + "/?tab=sun",
	BaseURL + "/?tab=complete",
}

// Scraper walks webtoon.kakao.com weekday tabs. Each title needs two page loads:
// the content page and its profile tab.
type Scraper struct {
	session browser.Session
	opts    scraper.Options
	logger  *zap.Logger
}

func New(session browser.Session, opts scraper.Options) *Scraper {
	opts = opts.WithDefaults()
	if len(opts.URLs) == 0 {
		opts.URLs = DefaultURLs
	}
	return &Scraper{
		session: session,
		opts:    opts,
		logger:  opts.Logger.With(zap.String("platform", PlatformName)),
	}
}

func (s *Scraper) Name() string {
	return PlatformName
}

func (s *Scraper) TargetURLs() []string {
	return s.opts.URLs
}

func (s *Scraper) OpenPage(ctx context.Context, url string) error {
	return scraper.OpenPage(ctx, s.session, url, s.opts.PageLoadTimeout)
}

// CardElements expands the "show all" toggle and returns the title cards.
// A missing toggle or grid yields no cards rather than an error.
func (s *Scraper) CardElements(ctx context.Context) ([]browser.Element, error) {
	container, err := s.session.WaitElement(ctx, showAllContainerSelector, s.opts.ElementTimeout)
	if errors.Is(err, browser.ErrTimeout) {
		s.logger.Warn("could not find the show-all toggle, skipping", zap.Error(err))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	button, err := container.Find("button")
	if err != nil {
		return nil, err
	}
	if err := button.JSClick(ctx); err != nil {
		return nil, err
	}

	cards, err := s.session.WaitElements(ctx, gridSelector+" "+cardSelector, s.opts.ElementTimeout)
	if errors.Is(err, browser.ErrTimeout) {
		s.logger.Warn("could not find the webtoon grid, skipping", zap.Error(err))
		return nil, nil
	}
	return cards, err
}

func (s *Scraper) ScrapeOne(ctx context.Context, card browser.Element) (w *models.Webtoon, err error) {
	nav := browser.NewNavigator(s.session)
	defer scraper.Cleanup(ctx, nav, s.opts.SettleDelay, &err)

	w, err = s.scrape(ctx, nav, card)
	if errors.Is(err, browser.ErrTimeout) {
		s.logger.Warn("could not load webtoon page, skipping",
			zap.Int("depth", nav.Depth()),
			zap.Error(err))
		return nil, nil
	}
	return w, err
}

func (s *Scraper) scrape(ctx context.Context, nav *browser.Navigator, card browser.Element) (*models.Webtoon, error) {
	linkEl, err := card.Find(linkSelector)
	if err != nil {
		return nil, err
	}
	href, err := linkEl.Attr("href")
	if err != nil {
		return nil, err
	}
	if href == "" {
		return nil, nil
	}

	listing, err := s.session.URL()
	if err != nil {
		return nil, err
	}
	link := scraper.ResolveURL(listing, href)

	if err := nav.Go(ctx, link); err != nil {
		return nil, err
	}
	if _, err := s.session.WaitElement(ctx, titleMarkerSelector, s.opts.ElementTimeout); err != nil {
		return nil, err
	}
	doc, err := scraper.Document(s.session)
	if err != nil {
		return nil, err
	}
	w := ParseContent(doc, link)

	if err := nav.Go(ctx, ProfileURL(link)); err != nil {
		return nil, err
	}
	if _, err := s.session.WaitElement(ctx, titleMarkerSelector, s.opts.ElementTimeout); err != nil {
		return nil, err
	}
	doc, err = scraper.Document(s.session)
	if err != nil {
		return nil, err
	}
	ParseProfile(doc, w)

	return w, nil
}

// ParseContent reads the content page: title, episode count and id.
// Fields the site does not expose are filled with fixed placeholders.
func ParseContent(doc *goquery.Document, link string) *models.Webtoon {
	return &models.Webtoon{
		UniqueID:         ContentID(link),
		Title:            scraper.Text(doc.Find(titleSelector)),
		Rating:           "0",
		ThumbnailURL:     placeholderThumbnail,
		URL:              link,
		AgeRating:        defaultAgeRating,
		Authors:          []models.Author{},
		Genres:           []string{},
		EpisodeCount:     scraper.FirstInt(doc.Find(episodeCountSelector).First().Text()),
		FirstEpisodeLink: "",
		Platform:         PlatformName,
	}
}

// ParseProfile fills synopsis, airing day, genres and authors from the profile tab.
func ParseProfile(doc *goquery.Document, w *models.Webtoon) {
	w.Story = scraper.Text(doc.Find(storySelector))
	w.Day = scraper.Text(doc.Find(daySelector))
	w.Genres = scraper.Tags(doc.Find(genreSelector))
	w.Authors = parseAuthors(doc.Find(authorBlockSelector))
}

// parseAuthors expands <dt>role</dt><dd>a, b</dd> blocks into one author per name.
func parseAuthors(sel *goquery.Selection) []models.Author {
	authors := []models.Author{}
	sel.Each(func(_ int, block *goquery.Selection) {
		role := scraper.Text(block.Find("dt"))
		names := scraper.Text(block.Find("dd"))
		if names == "" {
			return
		}
		for _, name := range strings.Split(names, ",") {
			authors = append(authors, models.Author{
				Name: strings.TrimSpace(name),
				Role: role,
				Link: placeholderAuthor,
			})
		}
	})
	return authors
}

// ProfileURL is the profile tab of a content page.
func ProfileURL(link string) string {
	if strings.Contains(link, "?") {
		return link + "&" + profileTab
	}
	return link + "?" + profileTab
}

// ContentID reads titleId=N when present, otherwise the trailing numeric
// path segment of /content/<slug>/<id>.
func ContentID(link string) *int {
	if id := scraper.TitleID(link); id != nil {
		return id
	}
	u, err := url.Parse(link)
	if err != nil {
		return nil
	}
	last := path.Base(u.Path)
	for _, r := range last {
		if r < '0' || r > '9' {
			return nil
		}
	}
	return scraper.FirstInt(last)
}
