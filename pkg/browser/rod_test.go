package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundedTimesOutBlockedAction(t *testing.T) {
	start := time.Now()
	err := bounded(context.Background(), 20*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestBoundedKeepsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := bounded(ctx, time.Minute, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRodClickOnCoveredElementTimesOut(t *testing.T) {
	bin, ok := launcher.LookPath()
	if !ok {
		t.Skip("no chromium binary available")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<a id="t" href="/next">title</a>
			<div style="position:fixed;inset:0;z-index:10;background:#000"></div>
		</body></html>`)
	}))
	defer srv.Close()

	ctx := context.Background()
	opts := DefaultOptions()
	opts.ExecutablePath = bin
	opts.ActionTimeout = 500 * time.Millisecond
	s, err := NewSession(ctx, opts)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Navigate(ctx, srv.URL))
	el, err := s.WaitElement(ctx, "#t", 5*time.Second)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- el.Click(ctx) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrTimeout)
	case <-time.After(10 * time.Second):
		t.Fatal("click on a covered element did not return")
	}
}
