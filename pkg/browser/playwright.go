package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

type playwrightSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
}

func newPlaywrightSession(opts Options) (*playwrightSession, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	}
	if opts.ExecutablePath != "" {
		launch.ExecutablePath = playwright.String(opts.ExecutablePath)
	}

	b, err := pw.Chromium.Launch(launch)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	pageOpts := playwright.BrowserNewPageOptions{}
	if opts.UserAgent != "" {
		pageOpts.UserAgent = playwright.String(opts.UserAgent)
	}
	page, err := b.NewPage(pageOpts)
	if err != nil {
		_ = b.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("open page: %w", err)
	}

	return &playwrightSession{pw: pw, browser: b, page: page}, nil
}

func millis(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

func (s *playwrightSession) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateCommit,
	})
	return classifyPlaywright(err)
}

func (s *playwrightSession) WaitReady(ctx context.Context, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return classifyPlaywright(s.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateLoad,
		Timeout: millis(timeout),
	}))
}

func (s *playwrightSession) WaitElement(ctx context.Context, selector string, timeout time.Duration) (Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h, err := s.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: millis(timeout),
	})
	if err != nil {
		return nil, classifyPlaywright(err)
	}
	return &playwrightElement{h: h}, nil
}

func (s *playwrightSession) WaitElements(ctx context.Context, selector string, timeout time.Duration) ([]Element, error) {
	if _, err := s.WaitElement(ctx, selector, timeout); err != nil {
		return nil, err
	}

	handles, err := s.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, classifyPlaywright(err)
	}
	out := make([]Element, 0, len(handles))
	for _, h := range handles {
		out = append(out, &playwrightElement{h: h})
	}
	return out, nil
}

func (s *playwrightSession) Back(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.GoBack()
	return classifyPlaywright(err)
}

func (s *playwrightSession) URL() (string, error) {
	return s.page.URL(), nil
}

func (s *playwrightSession) HTML() (string, error) {
	html, err := s.page.Content()
	return html, classifyPlaywright(err)
}

func (s *playwrightSession) Close() error {
	return errors.Join(s.browser.Close(), s.pw.Stop())
}

type playwrightElement struct {
	h playwright.ElementHandle
}

func (e *playwrightElement) Find(selector string) (Element, error) {
	h, err := e.h.QuerySelector(selector)
	if err != nil {
		return nil, classifyPlaywright(err)
	}
	if h == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return &playwrightElement{h: h}, nil
}

func (e *playwrightElement) WaitElement(ctx context.Context, selector string, timeout time.Duration) (Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h, err := e.h.WaitForSelector(selector, playwright.ElementHandleWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: millis(timeout),
	})
	if err != nil {
		return nil, classifyPlaywright(err)
	}
	return &playwrightElement{h: h}, nil
}

func (e *playwrightElement) Text() (string, error) {
	text, err := e.h.InnerText()
	return text, classifyPlaywright(err)
}

func (e *playwrightElement) Attr(name string) (string, error) {
	v, err := e.h.GetAttribute(name)
	return v, classifyPlaywright(err)
}

func (e *playwrightElement) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return classifyPlaywright(e.h.Click())
}

func (e *playwrightElement) JSClick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := e.h.Evaluate(`el => el.click()`)
	return classifyPlaywright(err)
}

func classifyPlaywright(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, playwright.ErrTimeout):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case isStaleMessage(err.Error()):
		return fmt.Errorf("%w: %v", ErrStale, err)
	default:
		return fmt.Errorf("%w: %v", ErrSession, err)
	}
}
