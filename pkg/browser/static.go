package browser

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly"
)

// StaticSession is a JavaScript-free Session backed by a colly collector.
// It keeps its own history for Back and bumps a generation counter on every
// page change so that elements from earlier pages report ErrStale.
type StaticSession struct {
	collector *colly.Collector
	history   []staticPage
	pending   *staticPage
	gen       int
}

type staticPage struct {
	url  string
	html string
	doc  *goquery.Document
}

func NewStaticSession(opts Options) (*StaticSession, error) {
	c := colly.NewCollector(
		colly.UserAgent(opts.UserAgent),
		colly.AllowURLRevisit(),
	)
	if opts.RequestTimeout > 0 {
		c.SetRequestTimeout(opts.RequestTimeout)
	}

	s := &StaticSession{collector: c}

	c.OnResponse(func(r *colly.Response) {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
		if err != nil {
			return
		}
		s.pending = &staticPage{
			url:  r.Request.URL.String(),
			html: string(r.Body),
			doc:  doc,
		}
	})

	return s, nil
}

func (s *StaticSession) current() (*staticPage, error) {
	if len(s.history) == 0 {
		return nil, fmt.Errorf("%w: no page loaded", ErrSession)
	}
	return &s.history[len(s.history)-1], nil
}

func (s *StaticSession) resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("%w: bad url %q: %v", ErrSession, ref, err)
	}
	if u.IsAbs() || len(s.history) == 0 {
		return u.String(), nil
	}
	base, err := url.Parse(s.history[len(s.history)-1].url)
	if err != nil {
		return "", fmt.Errorf("%w: bad base url: %v", ErrSession, err)
	}
	return base.ResolveReference(u).String(), nil
}

func (s *StaticSession) Navigate(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := s.resolve(ref)
	if err != nil {
		return err
	}

	s.pending = nil
	if err := s.collector.Visit(target); err != nil {
		return fmt.Errorf("%w: visit %s: %v", ErrSession, target, err)
	}
	if s.pending == nil {
		return fmt.Errorf("%w: no document received from %s", ErrSession, target)
	}

	s.history = append(s.history, *s.pending)
	s.pending = nil
	s.gen++
	return nil
}

func (s *StaticSession) WaitReady(ctx context.Context, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.current()
	return err
}

func (s *StaticSession) WaitElement(ctx context.Context, selector string, _ time.Duration) (Element, error) {
	els, err := s.WaitElements(ctx, selector, 0)
	if err != nil {
		return nil, err
	}
	return els[0], nil
}

// WaitElements does not poll: a static document never changes, so a miss is an immediate timeout.
func (s *StaticSession) WaitElements(ctx context.Context, selector string, _ time.Duration) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page, err := s.current()
	if err != nil {
		return nil, err
	}

	sel := page.doc.Find(selector)
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTimeout, selector)
	}

	out := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, item *goquery.Selection) {
		out = append(out, &staticElement{session: s, sel: item, gen: s.gen})
	})
	return out, nil
}

func (s *StaticSession) Back(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(s.history) < 2 {
		return fmt.Errorf("%w: no history to go back to", ErrSession)
	}
	s.history = s.history[:len(s.history)-1]
	s.gen++
	return nil
}

func (s *StaticSession) URL() (string, error) {
	page, err := s.current()
	if err != nil {
		return "", err
	}
	return page.url, nil
}

func (s *StaticSession) HTML() (string, error) {
	page, err := s.current()
	if err != nil {
		return "", err
	}
	return page.html, nil
}

func (s *StaticSession) Close() error {
	s.history = nil
	return nil
}

type staticElement struct {
	session *StaticSession
	sel     *goquery.Selection
	gen     int
}

func (e *staticElement) live() error {
	if e.gen != e.session.gen {
		return ErrStale
	}
	return nil
}

func (e *staticElement) Find(selector string) (Element, error) {
	if err := e.live(); err != nil {
		return nil, err
	}
	found := e.sel.Find(selector).First()
	if found.Length() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return &staticElement{session: e.session, sel: found, gen: e.gen}, nil
}

func (e *staticElement) WaitElement(ctx context.Context, selector string, _ time.Duration) (Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := e.live(); err != nil {
		return nil, err
	}
	found := e.sel.Find(selector).First()
	if found.Length() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTimeout, selector)
	}
	return &staticElement{session: e.session, sel: found, gen: e.gen}, nil
}

func (e *staticElement) Text() (string, error) {
	if err := e.live(); err != nil {
		return "", err
	}
	return e.sel.Text(), nil
}

func (e *staticElement) Attr(name string) (string, error) {
	if err := e.live(); err != nil {
		return "", err
	}
	return e.sel.AttrOr(name, ""), nil
}

// Click follows the anchor enclosing or contained in the element.
// Without a link there is nothing a static document can do, so it reports ErrNotFound.
func (e *staticElement) Click(ctx context.Context) error {
	if err := e.live(); err != nil {
		return err
	}
	href := e.link()
	if href == "" {
		return fmt.Errorf("%w: no link to follow", ErrNotFound)
	}
	return e.session.Navigate(ctx, href)
}

// JSClick is Click, except that an element without a link is a no-op: its script handlers never run here.
func (e *staticElement) JSClick(ctx context.Context) error {
	if err := e.live(); err != nil {
		return err
	}
	href := e.link()
	if href == "" {
		return nil
	}
	return e.session.Navigate(ctx, href)
}

func (e *staticElement) link() string {
	anchor := e.sel.Closest("a")
	if anchor.Length() == 0 {
		anchor = e.sel.Find("a[href]").First()
	}
	return anchor.AttrOr("href", "")
}
