package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	action   time.Duration
}

func newRodSession(ctx context.Context, opts Options) (*rodSession, error) {
	l := launcher.New().Context(ctx).Headless(opts.Headless)
	if opts.ExecutablePath != "" {
		l = l.Bin(opts.ExecutablePath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		l.Kill()
		return nil, fmt.Errorf("open tab: %w", err)
	}

	if opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: opts.UserAgent}); err != nil {
			_ = b.Close()
			l.Kill()
			return nil, fmt.Errorf("set user agent: %w", err)
		}
	}

	action := opts.ActionTimeout
	if action <= 0 {
		action = DefaultOptions().ActionTimeout
	}
	return &rodSession{launcher: l, browser: b, page: page, action: action}, nil
}

// bounded runs fn under a deadline. rod retries clicks on covered elements
// until its context ends, so every action needs one.
func bounded(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return classifyRod(fn(wctx))
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	return bounded(ctx, s.action, func(ctx context.Context) error {
		return s.page.Context(ctx).Navigate(url)
	})
}

func (s *rodSession) WaitReady(ctx context.Context, timeout time.Duration) error {
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return classifyRod(s.page.Context(wctx).WaitLoad())
}

func (s *rodSession) WaitElement(ctx context.Context, selector string, timeout time.Duration) (Element, error) {
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	el, err := s.page.Context(wctx).Element(selector)
	if err != nil {
		return nil, classifyRod(err)
	}
	return &rodElement{el: el.Context(ctx), action: s.action}, nil
}

func (s *rodSession) WaitElements(ctx context.Context, selector string, timeout time.Duration) ([]Element, error) {
	if _, err := s.WaitElement(ctx, selector, timeout); err != nil {
		return nil, err
	}

	els, err := s.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, classifyRod(err)
	}
	return wrapRodElements(ctx, els, s.action), nil
}

func (s *rodSession) Back(ctx context.Context) error {
	return bounded(ctx, s.action, func(ctx context.Context) error {
		return s.page.Context(ctx).NavigateBack()
	})
}

func (s *rodSession) URL() (string, error) {
	info, err := s.page.Info()
	if err != nil {
		return "", classifyRod(err)
	}
	return info.URL, nil
}

func (s *rodSession) HTML() (string, error) {
	html, err := s.page.HTML()
	return html, classifyRod(err)
}

func (s *rodSession) Close() error {
	err := s.browser.Close()
	s.launcher.Kill()
	s.launcher.Cleanup()
	return err
}

type rodElement struct {
	el     *rod.Element
	action time.Duration
}

func wrapRodElements(ctx context.Context, els rod.Elements, action time.Duration) []Element {
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el.Context(ctx), action: action})
	}
	return out
}

func (e *rodElement) Find(selector string) (Element, error) {
	els, err := e.el.Elements(selector)
	if err != nil {
		return nil, classifyRod(err)
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return &rodElement{el: els.First(), action: e.action}, nil
}

func (e *rodElement) WaitElement(ctx context.Context, selector string, timeout time.Duration) (Element, error) {
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	el, err := e.el.Context(wctx).Element(selector)
	if err != nil {
		return nil, classifyRod(err)
	}
	return &rodElement{el: el.Context(ctx), action: e.action}, nil
}

func (e *rodElement) Text() (string, error) {
	text, err := e.el.Text()
	return text, classifyRod(err)
}

func (e *rodElement) Attr(name string) (string, error) {
	v, err := e.el.Attribute(name)
	if err != nil {
		return "", classifyRod(err)
	}
	if v == nil {
		return "", nil
	}
	return *v, nil
}

func (e *rodElement) Click(ctx context.Context) error {
	return bounded(ctx, e.action, func(ctx context.Context) error {
		return e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
	})
}

func (e *rodElement) JSClick(ctx context.Context) error {
	return bounded(ctx, e.action, func(ctx context.Context) error {
		_, err := e.el.Context(ctx).Eval(`() => this.click()`)
		return err
	})
}

var staleMessages = []string{
	"could not find node",
	"no node with given id",
	"node is detached",
	"cannot find context with specified id",
	"cannot find object",
	"element is not attached",
	"execution context was destroyed",
	"jshandle is disposed",
}

func isStaleMessage(msg string) bool {
	msg = strings.ToLower(msg)
	for _, m := range staleMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

func classifyRod(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case isStaleMessage(err.Error()):
		return fmt.Errorf("%w: %v", ErrStale, err)
	default:
		return fmt.Errorf("%w: %v", ErrSession, err)
	}
}
