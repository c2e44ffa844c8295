package naver

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/amankumarsingh77/go-webtoon-crawler/db/models"
	"github.com/amankumarsingh77/go-webtoon-crawler/pkg/browser"
	"github.com/amankumarsingh77/go-webtoon-crawler/scraper"
	"go.uber.org/zap"
)

const (
	PlatformName = "naver"
	BaseURL      = "https://comic.naver.com"

	itemSelector      = ".item"
	ratingSelector    = ".Rating__star_area--dFzsb"
	titleAreaSelector = ".ContentTitle__title_area--x24vt"

	detailTitleSelector  = "h2.EpisodeListInfo__title--mYLjC"
	dayAgeSelector       = "div.ContentMetaInfo__meta_info--GbTg4 em.ContentMetaInfo__info_item--utGrf"
	thumbnailSelector    = "div.Poster__thumbnail_area--gviWY img"
	storySelector        = "div.EpisodeListInfo__summary_wrap--ZWNW5 p"
	authorSelector       = "span.ContentMetaInfo__category--WwrCp"
	genreSelector        = "div.TagGroup__tag_group--uUJza a.TagGroup__tag--xu0OH"
	episodeCountSelector = "div.EpisodeListView__count--fTMc5"
	firstEpisodeSelector = "a.EpisodeListUser__item--Fjp4R.EpisodeListUser__view--PaVFx"
)

var DefaultURLs = []string{
	BaseURL + "/webtoon?tab=mon",
	BaseURL + "/webtoon?tab=tue",
	BaseURL + "/webtoon?tab=wed",
	BaseURL + "/webtoon?tab=thu",
	BaseURL + "/webtoon?tab=fri",
	BaseURL + "/webtoon?tab=sat",
	BaseURL + "/webtoon?tab=sun",
	BaseURL + "/webtoon?tab=dailyPlus",
	BaseURL + "/webtoon?tab=finish",
}

var (
	ratingPattern    = regexp.MustCompile(`\d+\.\d+`)
	dayPattern       = regexp.MustCompile(`(월|화|수|목|금|토|일)|완결`)
	ageRatingPattern = regexp.MustCompile(`(전체연령가|\d+세)`)
)

// Scraper walks comic.naver.com weekday tabs. Detail pages open in place when a card's title is clicked.
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

func (s *Scraper) CardElements(ctx context.Context) ([]browser.Element, error) {
	return s.session.WaitElements(ctx, itemSelector, s.opts.PageLoadTimeout)
}

func (s *Scraper) ScrapeOne(ctx context.Context, card browser.Element) (w *models.Webtoon, err error) {
	nav := browser.NewNavigator(s.session)
	defer scraper.Cleanup(ctx, nav, s.opts.SettleDelay, &err)

	w, err = s.scrape(ctx, nav, card)
	if errors.Is(err, browser.ErrTimeout) {
		s.logger.Warn("could not load webtoon page, skipping", zap.Error(err))
		return nil, nil
	}
	return w, err
}

func (s *Scraper) scrape(ctx context.Context, nav *browser.Navigator, card browser.Element) (*models.Webtoon, error) {
	ratingEl, err := card.WaitElement(ctx, ratingSelector, s.opts.ElementTimeout)
	if err != nil {
		return nil, err
	}
	rating, err := ratingEl.Text()
	if err != nil {
		return nil, err
	}

	titleEl, err := card.Find(titleAreaSelector)
	if err != nil {
		return nil, err
	}
	// A failed click leaves us on the listing, so Cleanup must not navigate back.
	if err := nav.Click(ctx, titleEl); err != nil {
		return nil, err
	}

	if _, err := s.session.WaitElement(ctx, detailTitleSelector, s.opts.ElementTimeout); err != nil {
		return nil, err
	}

	doc, err := scraper.Document(s.session)
	if err != nil {
		return nil, err
	}
	pageURL, err := s.session.URL()
	if err != nil {
		return nil, fmt.Errorf("read current url: %w", err)
	}

	return ParseDetail(doc, pageURL, rating), nil
}

// ParseDetail extracts a webtoon from a rendered detail page.
// rating is the raw star-area text taken from the listing card.
func ParseDetail(doc *goquery.Document, pageURL, rating string) *models.Webtoon {
	dayAge := scraper.Text(doc.Find(dayAgeSelector))

	w := &models.Webtoon{
		UniqueID:     scraper.TitleID(pageURL),
		Title:        scraper.Text(doc.Find(detailTitleSelector)),
		Day:          dayPattern.FindString(dayAge),
		Rating:       ratingPattern.FindString(rating),
		ThumbnailURL: doc.Find(thumbnailSelector).First().AttrOr("src", ""),
		Story:        scraper.Text(doc.Find(storySelector)),
		URL:          pageURL,
		AgeRating:    ageRatingPattern.FindString(dayAge),
		Authors:      parseAuthors(doc.Find(authorSelector)),
		Genres:       scraper.Tags(doc.Find(genreSelector)),
		EpisodeCount: scraper.FirstInt(doc.Find(episodeCountSelector).Text()),
		Platform:     PlatformName,
	}

	if href, ok := doc.Find(firstEpisodeSelector).First().Attr("href"); ok {
		w.FirstEpisodeLink = BaseURL + href
	}
	return w
}

// parseAuthors reads "글 <a>name</a>" style spans; the role is the span's own text.
func parseAuthors(sel *goquery.Selection) []models.Author {
	authors := []models.Author{}
	sel.Each(func(_ int, s *goquery.Selection) {
		a := s.Find("a").First()
		role := s.Contents().FilterFunction(func(_ int, c *goquery.Selection) bool {
			return goquery.NodeName(c) == "#text" && strings.TrimSpace(c.Text()) != ""
		}).First().Text()
		role = strings.NewReplacer("::after", "", ".", "").Replace(strings.TrimSpace(role))

		authors = append(authors, models.Author{
			Name: strings.TrimSpace(a.Text()),
			Role: strings.TrimSpace(role),
			Link: a.AttrOr("href", ""),
		})
	})
	return authors
}
