package browser

import (
	"context"
	"errors"
	"fmt"
)

// Navigator counts forward navigations so that cleanup can return to the page it started on.
// The zero depth is valid, so Unwind is safe to defer before the first navigation.
type Navigator struct {
	session Session
	depth   int
}

func NewNavigator(s Session) *Navigator {
	return &Navigator{session: s}
}

func (n *Navigator) Depth() int {
	return n.depth
}

// Go navigates to url. The depth only grows once the browser accepted the navigation.
func (n *Navigator) Go(ctx context.Context, url string) error {
	if err := n.session.Navigate(ctx, url); err != nil {
		return err
	}
	n.depth++
	return nil
}

// Click clicks an element that opens a new page in place.
func (n *Navigator) Click(ctx context.Context, el Element) error {
	if err := el.Click(ctx); err != nil {
		return err
	}
	n.depth++
	return nil
}

// Unwind navigates back once per recorded forward navigation and resets the depth.
func (n *Navigator) Unwind(ctx context.Context) error {
	var errs []error
	for ; n.depth > 0; n.depth-- {
		if err := n.session.Back(ctx); err != nil {
			errs = append(errs, fmt.Errorf("navigate back (depth %d): %w", n.depth, err))
		}
	}
	return errors.Join(errs...)
}
