// Package browser defines the page-automation capability the tracking
// engine drives, and a chromedp-backed implementation of it.
//
// The engine never touches chromedp directly. Everything it needs from a
// page (navigation, waits, text, tables, form input, popups) goes through
// Session, so tests can substitute browsertest sessions that replay canned
// pages.
package browser

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrElementNotFound is returned when no element matched within the timeout.
var ErrElementNotFound = errors.New("element not found")

// WaitCondition selects the page lifecycle point Navigate waits for.
type WaitCondition int

const (
	// WaitDOMContentLoaded returns once the document body is ready.
	WaitDOMContentLoaded WaitCondition = iota
	// WaitLoad returns after the load event.
	WaitLoad
)

func (w WaitCondition) String() string {
	switch w {
	case WaitLoad:
		return "load"
	default:
		return "domcontentloaded"
	}
}

// Options configure one automation session.
type Options struct {
	// Visible shows the browser window so a human can interact with it.
	Visible bool
	// BlockImages and BlockStyles drop those resource types at the network layer.
	BlockImages bool
	BlockStyles bool
}

// Row is one table row. Header is set when every cell is a <th>.
type Row struct {
	Header bool
	Cells  []string
}

// Text joins the row's cells with single spaces.
func (r Row) Text() string {
	return strings.Join(r.Cells, " ")
}

// Table is a table's rows in document order.
type Table struct {
	Rows []Row
}

// Launcher starts automation sessions.
type Launcher interface {
	Launch(ctx context.Context, opts Options) (Session, error)
}

// Session is one browser page. A session must be closed exactly once;
// closing the session returned by Launch releases the whole browser.
type Session interface {
	Navigate(ctx context.Context, url string, wait WaitCondition, timeout time.Duration) error
	// WaitLoaded blocks until the current document is ready.
	WaitLoaded(ctx context.Context, timeout time.Duration) error
	// ExtractVisibleText returns the rendered text of scope, or of the body
	// when scope is empty.
	ExtractVisibleText(ctx context.Context, scope string) (string, error)
	// FindElementContainingText waits for the first tag element whose text
	// contains pattern, case-insensitively, and returns its text. tag may
	// list alternatives separated by "|", e.g. "th|td".
	FindElementContainingText(ctx context.Context, tag, pattern string, timeout time.Duration) (string, error)
	// ReadTables returns every table under scope (body when empty).
	ReadTables(ctx context.Context, scope string) ([]Table, error)
	FillField(ctx context.Context, selector, value string) error
	SelectOption(ctx context.Context, selector, value string) error
	ClickElement(ctx context.Context, selector string) error
	// AwaitPopup runs trigger and returns a session attached to the page it
	// opened.
	AwaitPopup(ctx context.Context, trigger func(context.Context) error, timeout time.Duration) (Session, error)
	// Wait pauses for d or until ctx is done.
	Wait(ctx context.Context, d time.Duration) error
	Close() error
}

// Sleep waits for d unless ctx finishes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
