package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"smutrack/internal/config"
	apperrors "smutrack/internal/errors"
	"smutrack/internal/infrastructure"
)

var (
	imagePatterns = []string{"*.png", "*.jpg", "*.jpeg", "*.gif", "*.webp"}
	stylePatterns = []string{"*.css", "*.woff", "*.woff2"}
)

// ChromeLauncher starts a dedicated Chrome process per session.
type ChromeLauncher struct {
	cfg     config.BrowserConfig
	logger  *slog.Logger
	metrics *infrastructure.TrackingMetrics
}

// NewChromeLauncher creates a launcher; metrics may be nil.
func NewChromeLauncher(cfg config.BrowserConfig, logger *slog.Logger, metrics *infrastructure.TrackingMetrics) *ChromeLauncher {
	return &ChromeLauncher{
		cfg:     cfg,
		logger:  infrastructure.WithComponent(logger, "chrome_launcher"),
		metrics: metrics,
	}
}

// Launch starts Chrome and returns a session on its first tab. The browser
// is killed when ctx is cancelled or the session is closed.
func (l *ChromeLauncher) Launch(ctx context.Context, opts Options) (Session, error) {
	headless := !opts.Visible || l.cfg.ForceHeadless

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.DisableGPU,
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(l.cfg.UserAgent),
		chromedp.WindowSize(1920, 1080),
	)
	if l.cfg.NoSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}
	if l.cfg.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(l.cfg.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	cancel := func() {
		cancelBrowser()
		cancelAlloc()
	}

	var blocked []string
	if opts.BlockImages {
		blocked = append(blocked, imagePatterns...)
	}
	if opts.BlockStyles {
		blocked = append(blocked, stylePatterns...)
	}

	// The first Run starts the browser.
	start := []chromedp.Action{}
	if len(blocked) > 0 {
		start = append(start, network.Enable(), network.SetBlockedURLS(blocked))
	}
	if err := chromedp.Run(browserCtx, start...); err != nil {
		cancel()
		return nil, apperrors.NewNavigationError("failed to start browser", err)
	}

	l.metrics.SessionOpened(ctx)
	l.logger.DebugContext(ctx, "browser session started",
		slog.Bool("headless", headless),
		slog.Any("blocked", blocked))

	return &chromeSession{
		ctx:    browserCtx,
		cancel: cancel,
		logger: l.logger,
		onClose: func() {
			l.metrics.SessionClosed(context.Background())
		},
	}, nil
}

type chromeSession struct {
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *slog.Logger
	onClose func()
	closed  bool
}

// run executes actions on the session's tab, bounded by timeout and by the
// caller's ctx.
func (s *chromeSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(s.ctx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(s.ctx)
	}
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (s *chromeSession) Navigate(ctx context.Context, url string, wait WaitCondition, timeout time.Duration) error {
	var action chromedp.Action
	switch wait {
	case WaitLoad:
		action = chromedp.Navigate(url)
	default:
		action = chromedp.Tasks{
			chromedp.ActionFunc(func(ctx context.Context) error {
				_, _, errText, err := page.Navigate(url).Do(ctx)
				if err != nil {
					return err
				}
				if errText != "" {
					return fmt.Errorf("page load error %s", errText)
				}
				return nil
			}),
			chromedp.WaitReady("body", chromedp.ByQuery),
		}
	}

	if err := s.run(ctx, timeout, action); err != nil {
		return apperrors.NewNavigationError("navigation failed", err).
			WithContext("url", url).
			WithContext("wait", wait.String())
	}
	return nil
}

func (s *chromeSession) WaitLoaded(ctx context.Context, timeout time.Duration) error {
	if err := s.run(ctx, timeout, chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return apperrors.NewNavigationError("page did not finish loading", err)
	}
	return nil
}

func (s *chromeSession) ExtractVisibleText(ctx context.Context, scope string) (string, error) {
	if scope == "" {
		scope = "body"
	}
	var text string
	if err := s.run(ctx, 0, chromedp.Text(scope, &text, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("extract text from %s: %w", scope, err)
	}
	return text, nil
}

func (s *chromeSession) FindElementContainingText(ctx context.Context, tag, pattern string, timeout time.Duration) (string, error) {
	var text string
	err := s.run(ctx, timeout, chromedp.Text(containsTextXPath(tag, pattern), &text, chromedp.BySearch))
	if err != nil {
		if ctx.Err() == nil {
			return "", fmt.Errorf("%w: <%s> containing %q", ErrElementNotFound, tag, pattern)
		}
		return "", err
	}
	return text, nil
}

func (s *chromeSession) ReadTables(ctx context.Context, scope string) ([]Table, error) {
	if scope == "" {
		scope = "body"
	}
	var html string
	if err := s.run(ctx, 0, chromedp.OuterHTML(scope, &html, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("read tables under %s: %w", scope, err)
	}
	return ParseTables(html)
}

func (s *chromeSession) FillField(ctx context.Context, selector, value string) error {
	return s.run(ctx, 0,
		chromedp.WaitVisible(selector, chromedp.BySearch),
		chromedp.SetValue(selector, value, chromedp.BySearch),
	)
}

// SelectOption sets a <select> value; SetValue fires no change event so
// one is dispatched on the same node, which keeps XPath selectors working.
func (s *chromeSession) SelectOption(ctx context.Context, selector, value string) error {
	return s.run(ctx, 0, selectOptionTasks(selector, value)...)
}

const dispatchChangeJS = `function() { this.dispatchEvent(new Event('change', {bubbles: true})); }`

func selectOptionTasks(selector, value string) chromedp.Tasks {
	var nodes []*cdp.Node
	return chromedp.Tasks{
		chromedp.WaitVisible(selector, chromedp.BySearch),
		chromedp.SetValue(selector, value, chromedp.BySearch),
		chromedp.Nodes(selector, &nodes, chromedp.BySearch),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if len(nodes) == 0 {
				return fmt.Errorf("%w: %s", ErrElementNotFound, selector)
			}
			return chromedp.CallFunctionOnNode(ctx, nodes[0], dispatchChangeJS, nil)
		}),
	}
}

func (s *chromeSession) ClickElement(ctx context.Context, selector string) error {
	return s.run(ctx, 0, chromedp.Click(selector, chromedp.BySearch))
}

func (s *chromeSession) AwaitPopup(ctx context.Context, trigger func(context.Context) error, timeout time.Duration) (Session, error) {
	opened := chromedp.WaitNewTarget(s.ctx, func(info *target.Info) bool {
		return info.Type == "page" && info.OpenerID != ""
	})

	if err := trigger(ctx); err != nil {
		return nil, fmt.Errorf("popup trigger: %w", err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var id target.ID
	select {
	case id = <-opened:
	case <-timer.C:
		return nil, apperrors.NewNavigationError("popup did not open", fmt.Errorf("timed out after %s", timeout))
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	popupCtx, cancel := chromedp.NewContext(s.ctx, chromedp.WithTargetID(id))
	if err := chromedp.Run(popupCtx); err != nil {
		cancel()
		return nil, apperrors.NewNavigationError("failed to attach to popup", err)
	}

	return &chromeSession{ctx: popupCtx, cancel: cancel, logger: s.logger}, nil
}

func (s *chromeSession) Wait(ctx context.Context, d time.Duration) error {
	return Sleep(ctx, d)
}

func (s *chromeSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.cancel()
	if s.onClose != nil {
		s.onClose()
	}
	return nil
}

// containsTextXPath builds a case-insensitive XPath "contains" match. tag
// may list alternatives separated by "|". The pattern must not contain a
// single quote.
func containsTextXPath(tag, pattern string) string {
	const upper, lower = "ABCDEFGHIJKLMNOPQRSTUVWXYZ", "abcdefghijklmnopqrstuvwxyz"
	tags := strings.Split(tag, "|")
	paths := make([]string, 0, len(tags))
	for _, t := range tags {
		paths = append(paths, fmt.Sprintf(`//%s[contains(translate(normalize-space(.), '%s', '%s'), '%s')]`,
			strings.TrimSpace(t), lower, upper, strings.ToUpper(pattern)))
	}
	return strings.Join(paths, " | ")
}
