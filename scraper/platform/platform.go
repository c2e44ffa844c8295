package platform

import (
	"errors"
	"fmt"
	"sort"

	"github.com/amankumarsingh77/go-webtoon-crawler/pkg/browser"
	"github.com/amankumarsingh77/go-webtoon-crawler/scraper"
	"github.com/amankumarsingh77/go-webtoon-crawler/scraper/kakao"
	"github.com/amankumarsingh77/go-webtoon-crawler/scraper/naver"
)

var ErrUnknownPlatform = errors.New("unknown platform")

type constructor func(browser.Session, scraper.Options) scraper.Scraper

var constructors = map[string]constructor{
	naver.PlatformName: func(s browser.Session, o scraper.Options) scraper.Scraper { return naver.New(s, o) },
	kakao.PlatformName: func(s browser.Session, o scraper.Options) scraper.Scraper { return kakao.New(s, o) },
}

// New builds the scraper registered under name.
func New(name string, s browser.Session, opts scraper.Options) (scraper.Scraper, error) {
	c, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownPlatform, name, Names())
	}
	return c(s, opts), nil
}

func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Known reports whether name is a registered platform.
func Known(name string) bool {
	_, ok := constructors[name]
	return ok
}
