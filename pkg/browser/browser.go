package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrStartup  = errors.New("cannot start browser")
	ErrTimeout  = errors.New("timed out waiting for element")
	ErrStale    = errors.New("stale element reference")
	ErrSession  = errors.New("browser session fault")
	ErrNotFound = errors.New("element not found")
)

const (
	EngineRod        = "rod"
	EnginePlaywright = "playwright"
	EngineStatic     = "static"
)

// Session is a single browser tab driven serially by one crawler.
// Element handles obtained from a Session are only valid until the next navigation.
type Session interface {
	Navigate(ctx context.Context, url string) error
	WaitReady(ctx context.Context, timeout time.Duration) error
	WaitElement(ctx context.Context, selector string, timeout time.Duration) (Element, error)
	WaitElements(ctx context.Context, selector string, timeout time.Duration) ([]Element, error)
	Back(ctx context.Context) error
	URL() (string, error)
	HTML() (string, error)
	Close() error
}

type Element interface {
	Find(selector string) (Element, error)
	WaitElement(ctx context.Context, selector string, timeout time.Duration) (Element, error)
	Text() (string, error)
	Attr(name string) (string, error)
	Click(ctx context.Context) error
	JSClick(ctx context.Context) error
}

type Options struct {
	Engine         string
	ExecutablePath string
	Headless       bool
	UserAgent      string
	RequestTimeout time.Duration
	// ActionTimeout bounds navigations and clicks that have no wait of their own.
	ActionTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		Engine:         EngineRod,
		Headless:       true,
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		RequestTimeout: 30 * time.Second,
		ActionTimeout:  10 * time.Second,
	}
}

// NewSession launches a browser for the configured engine.
// Launch failures wrap ErrStartup.
func NewSession(ctx context.Context, opts Options) (Session, error) {
	var (
		s   Session
		err error
	)
	switch opts.Engine {
	case EngineRod, "":
		s, err = newRodSession(ctx, opts)
	case EnginePlaywright:
		s, err = newPlaywrightSession(opts)
	case EngineStatic:
		s, err = NewStaticSession(opts)
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", ErrStartup, opts.Engine)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStartup, err)
	}
	return s, nil
}
