package naver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/amankumarsingh77/go-webtoon-crawler/db/models"
	"github.com/amankumarsingh77/go-webtoon-crawler/pkg/browser"
	"github.com/amankumarsingh77/go-webtoon-crawler/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func fixture(t *testing.T, name string) string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(raw)
}

func TestParseDetail(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fixture(t, "detail.html")))
	require.NoError(t, err)

	w := ParseDetail(doc, "https://comic.naver.com/webtoon/list?titleId=769209", "별점9.98")

	require.NotNil(t, w.UniqueID)
	assert.Equal(t, 769209, *w.UniqueID)
	assert.Equal(t, "화산귀환", w.Title)
	assert.Equal(t, "월", w.Day)
	assert.Equal(t, "9.98", w.Rating)
	assert.Equal(t, "15세", w.AgeRating)
	assert.Equal(t, "https://image-comic.pstatic.net/webtoon/769209/thumbnail.jpg", w.ThumbnailURL)
	assert.Equal(t, "대 화산파 13대 제자. 천하삼대검수 매화검존 청명.", w.Story)
	assert.Equal(t, []string{"무협/사극", "회귀"}, w.Genres)
	require.NotNil(t, w.EpisodeCount)
	assert.Equal(t, 1120, *w.EpisodeCount)
	assert.Equal(t, "https://comic.naver.com/webtoon/detail?titleId=769209&no=1", w.FirstEpisodeLink)
	assert.Equal(t, PlatformName, w.Platform)
	assert.Equal(t, []models.Author{
		{Name: "비가", Role: "글", Link: "/artistTitle?id=1"},
		{Name: "LICO", Role: "그림", Link: "/artistTitle?id=2"},
	}, w.Authors)
}

func TestParseDetailCompletedAllAges(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<h2 class="EpisodeListInfo__title--mYLjC">완결작</h2>
		<div class="ContentMetaInfo__meta_info--GbTg4"><em class="ContentMetaInfo__info_item--utGrf">완결∙전체연령가</em></div>`))
	require.NoError(t, err)

	w := ParseDetail(doc, "https://comic.naver.com/webtoon/list", "")
	assert.Nil(t, w.UniqueID)
	assert.Equal(t, "완결", w.Day)
	assert.Equal(t, "전체연령가", w.AgeRating)
	assert.Empty(t, w.Rating)
	assert.Nil(t, w.EpisodeCount)
	assert.Empty(t, w.FirstEpisodeLink)
	assert.Empty(t, w.Authors)
	assert.Empty(t, w.Genres)
}

func newNaverSite(t *testing.T) *httptest.Server {
	t.Helper()
	list := fixture(t, "list.html")
	detail := fixture(t, "detail.html")

	mux := http.NewServeMux()
	mux.HandleFunc("/webtoon", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(list))
	})
	mux.HandleFunc("/webtoon/list", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("titleId") != "769209" {
			_, _ = w.Write([]byte(`<html><body><p>점검 중</p></body></html>`))
			return
		}
		_, _ = w.Write([]byte(detail))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newStaticScraper(t *testing.T, srv *httptest.Server) (*Scraper, browser.Session) {
	t.Helper()
	opts := browser.DefaultOptions()
	opts.Engine = browser.EngineStatic
	session, err := browser.NewSession(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })

	s := New(session, scraper.Options{
		URLs:   []string{srv.URL + "/webtoon?tab=mon"},
		Logger: zaptest.NewLogger(t),
	})
	return s, session
}

func TestScrapeOneWithStaticEngine(t *testing.T) {
	ctx := context.Background()
	srv := newNaverSite(t)
	s, session := newStaticScraper(t, srv)
	listing := srv.URL + "/webtoon?tab=mon"

	require.Equal(t, []string{listing}, s.TargetURLs())
	require.NoError(t, s.OpenPage(ctx, listing))

	cards, err := s.CardElements(ctx)
	require.NoError(t, err)
	require.Len(t, cards, 3)

	w, err := s.ScrapeOne(ctx, cards[0])
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, "화산귀환", w.Title)
	assert.Equal(t, "9.98", w.Rating)
	assert.Equal(t, srv.URL+"/webtoon/list?titleId=769209", w.URL)

	url, err := session.URL()
	require.NoError(t, err)
	assert.Equal(t, listing, url, "scraping returns to the listing")
}

func TestScrapeOneDetailTimeoutReturnsToListing(t *testing.T) {
	ctx := context.Background()
	srv := newNaverSite(t)
	s, session := newStaticScraper(t, srv)
	listing := srv.URL + "/webtoon?tab=mon"
	require.NoError(t, s.OpenPage(ctx, listing))

	cards, err := s.CardElements(ctx)
	require.NoError(t, err)

	w, err := s.ScrapeOne(ctx, cards[1])
	require.NoError(t, err)
	assert.Nil(t, w)

	url, err := session.URL()
	require.NoError(t, err)
	assert.Equal(t, listing, url)
}

func TestScrapeOneMissingRatingDoesNotNavigate(t *testing.T) {
	ctx := context.Background()
	srv := newNaverSite(t)
	s, session := newStaticScraper(t, srv)
	listing := srv.URL + "/webtoon?tab=mon"
	require.NoError(t, s.OpenPage(ctx, listing))

	cards, err := s.CardElements(ctx)
	require.NoError(t, err)

	// A back-navigation here would fail: the listing is the only page in history.
	w, err := s.ScrapeOne(ctx, cards[2])
	require.NoError(t, err)
	assert.Nil(t, w)

	url, err := session.URL()
	require.NoError(t, err)
	assert.Equal(t, listing, url)
}

func TestScrapeOneStaleCard(t *testing.T) {
	ctx := context.Background()
	srv := newNaverSite(t)
	s, _ := newStaticScraper(t, srv)
	listing := srv.URL + "/webtoon?tab=mon"
	require.NoError(t, s.OpenPage(ctx, listing))

	cards, err := s.CardElements(ctx)
	require.NoError(t, err)

	_, err = s.ScrapeOne(ctx, cards[0])
	require.NoError(t, err)

	_, err = s.ScrapeOne(ctx, cards[0])
	assert.ErrorIs(t, err, browser.ErrStale)
}

func TestDefaultURLs(t *testing.T) {
	s := New(nil, scraper.Options{})
	assert.Equal(t, DefaultURLs, s.TargetURLs())
	assert.Equal(t, PlatformName, s.Name())
}
