// Package browsertest provides scripted browser sessions for tests.
package browsertest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"smutrack/internal/browser"
)

// Page is the canned content one session serves.
type Page struct {
	// Text is returned by ExtractVisibleText.
	Text string
	// Elements maps a tag name to the texts of its elements, in document order.
	Elements map[string][]string
	Tables   []browser.Table
	// Popup is the page opened by AwaitPopup; nil makes AwaitPopup fail.
	Popup *Page

	NavigateErr error
	ClickErr    error
	// Panic makes ExtractVisibleText and ReadTables panic with this value.
	Panic any
}

// Launcher hands out sessions serving Pages in launch order. The last page
// is reused once the script runs out.
type Launcher struct {
	Pages     []*Page
	LaunchErr error

	mu       sync.Mutex
	launches []browser.Options
	sessions []*Session
}

// NewLauncher returns a launcher that serves pages in order.
func NewLauncher(pages ...*Page) *Launcher {
	return &Launcher{Pages: pages}
}

func (l *Launcher) Launch(ctx context.Context, opts browser.Options) (browser.Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.launches = append(l.launches, opts)
	if l.LaunchErr != nil {
		return nil, l.LaunchErr
	}

	page := &Page{}
	if n := len(l.launches) - 1; n < len(l.Pages) {
		page = l.Pages[n]
	} else if len(l.Pages) > 0 {
		page = l.Pages[len(l.Pages)-1]
	}

	s := newSession(page, opts)
	l.sessions = append(l.sessions, s)
	return s, nil
}

// Launches returns the options of every Launch call.
func (l *Launcher) Launches() []browser.Options {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]browser.Options(nil), l.launches...)
}

// Sessions returns every session launched so far.
func (l *Launcher) Sessions() []*Session {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Session(nil), l.sessions...)
}

// AllClosed reports whether every launched session, and every popup opened
// from one, has been closed.
func (l *Launcher) AllClosed() bool {
	for _, s := range l.Sessions() {
		if !s.closedTree() {
			return false
		}
	}
	return true
}

// Session is a scripted browser.Session that records what was asked of it.
type Session struct {
	Options browser.Options

	page *Page

	mu          sync.Mutex
	navigations []string
	waits       []time.Duration
	filled      map[string]string
	clicks      []string
	popups      []*Session
	closed      bool
}

func newSession(page *Page, opts browser.Options) *Session {
	return &Session{Options: opts, page: page, filled: map[string]string{}}
}

func (s *Session) Navigate(ctx context.Context, url string, _ browser.WaitCondition, _ time.Duration) error {
	s.mu.Lock()
	s.navigations = append(s.navigations, url)
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return s.page.NavigateErr
}

func (s *Session) WaitLoaded(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func (s *Session) ExtractVisibleText(ctx context.Context, _ string) (string, error) {
	if s.page.Panic != nil {
		panic(s.page.Panic)
	}
	return s.page.Text, ctx.Err()
}

func (s *Session) FindElementContainingText(ctx context.Context, tag, pattern string, _ time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	needle := strings.ToUpper(pattern)
	for _, name := range strings.Split(tag, "|") {
		for _, text := range s.page.Elements[strings.TrimSpace(name)] {
			if strings.Contains(strings.ToUpper(text), needle) {
				return text, nil
			}
		}
	}
	return "", fmt.Errorf("%w: <%s> containing %q", browser.ErrElementNotFound, tag, pattern)
}

func (s *Session) ReadTables(ctx context.Context, _ string) ([]browser.Table, error) {
	if s.page.Panic != nil {
		panic(s.page.Panic)
	}
	return s.page.Tables, ctx.Err()
}

func (s *Session) FillField(ctx context.Context, selector, value string) error {
	s.mu.Lock()
	s.filled[selector] = value
	s.mu.Unlock()
	return ctx.Err()
}

func (s *Session) SelectOption(ctx context.Context, selector, value string) error {
	return s.FillField(ctx, selector, value)
}

func (s *Session) ClickElement(ctx context.Context, selector string) error {
	s.mu.Lock()
	s.clicks = append(s.clicks, selector)
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return s.page.ClickErr
}

func (s *Session) AwaitPopup(ctx context.Context, trigger func(context.Context) error, _ time.Duration) (browser.Session, error) {
	if err := trigger(ctx); err != nil {
		return nil, err
	}
	if s.page.Popup == nil {
		return nil, fmt.Errorf("popup did not open")
	}

	popup := newSession(s.page.Popup, s.Options)
	s.mu.Lock()
	s.popups = append(s.popups, popup)
	s.mu.Unlock()
	return popup, nil
}

// Wait records d and returns immediately.
func (s *Session) Wait(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Navigations returns the URLs passed to Navigate.
func (s *Session) Navigations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.navigations...)
}

// Waits returns the durations passed to Wait.
func (s *Session) Waits() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.waits...)
}

// Filled returns the value last written to selector.
func (s *Session) Filled(selector string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filled[selector]
}

// Clicks returns the clicked selectors in order.
func (s *Session) Clicks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.clicks...)
}

// Popups returns the sessions opened through AwaitPopup.
func (s *Session) Popups() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Session(nil), s.popups...)
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) closedTree() bool {
	if !s.Closed() {
		return false
	}
	for _, p := range s.Popups() {
		if !p.closedTree() {
			return false
		}
	}
	return true
}
