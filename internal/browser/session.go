package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/dutyscrape/internal/ratelimit"
)

// Options configures a browser session
type Options struct {
	Headless   bool
	ChromePath string
	UserAgent  string
	Proxy      string
	// NavigationTimeout bounds every Navigate call, including the idle wait
	NavigationTimeout time.Duration
	// IdleConnections and IdleQuiet define network idleness
	IdleConnections int
	IdleQuiet       time.Duration
	Limiter         ratelimit.Limiter
	ExtraArgs       []chromedp.ExecAllocatorOption
}

// Session owns one browser process and one tab. It is opened once per batch
// and must be closed on every exit path.
type Session struct {
	opts        Options
	allocCancel context.CancelFunc
	tab         context.Context
	tabCancel   context.CancelFunc
	idle        *idleTracker

	mu      sync.Mutex
	closed  bool
	guarded bool
	hosts   []string
	blocks  atomic.Int64
}

// Open launches the browser and prepares its tab
func Open(opts Options) (*Session, error) {
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 50 * time.Second
	}
	if opts.IdleQuiet <= 0 {
		opts.IdleQuiet = 500 * time.Millisecond
	}
	if opts.IdleConnections < 0 {
		opts.IdleConnections = 0
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.Unlimited{}
	}

	chromePath := opts.ChromePath
	if chromePath == "" {
		chromePath = FindChrome()
	}

	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-breakpad", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-hang-monitor", true),
		chromedp.Flag("disable-popup-blocking", false),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("log-level", "3"),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("window-size", "1920,1080"),
	}
	if chromePath != "" {
		allocOpts = append([]chromedp.ExecAllocatorOption{chromedp.ExecPath(chromePath)}, allocOpts...)
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if opts.Proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.Proxy))
	}
	allocOpts = append(allocOpts, opts.ExtraArgs...)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	tab, tabCancel := chromedp.NewContext(allocCtx)

	s := &Session{
		opts:        opts,
		allocCancel: allocCancel,
		tab:         tab,
		tabCancel:   tabCancel,
		idle:        newIdleTracker(),
	}

	// The first Run starts the browser; it must use the tab context itself so
	// the browser lifetime is not tied to a timeout.
	if err := chromedp.Run(tab, network.Enable(), chromedp.Navigate("about:blank")); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	chromedp.ListenTarget(tab, s.idle.handle)

	log.Info().
		Str("chrome", chromePath).
		Bool("headless", opts.Headless).
		Dur("navigation_timeout", opts.NavigationTimeout).
		Msg("Browser session ready")

	return s, nil
}

// scope derives an operation context from the tab that also ends when ctx does
func (s *Session) scope(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	opCtx, cancel := context.WithTimeout(s.tab, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return opCtx, func() {
		stop()
		cancel()
	}, nil
}

// run executes actions with a timeout and maps deadline expiry to ErrTimeout
func (s *Session) run(ctx context.Context, timeout time.Duration, what string, actions ...chromedp.Action) error {
	opCtx, cancel, err := s.scope(ctx, timeout)
	if err != nil {
		return err
	}
	defer cancel()

	err = chromedp.Run(opCtx, actions...)
	return s.mapErr(ctx, opCtx, what, err)
}

func (s *Session) mapErr(ctx, opCtx context.Context, what string, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(opCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", what, ErrTimeout)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// Navigate loads url, then waits for network idleness within the navigation timeout
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.opts.Limiter.Wait(ctx, url); err != nil {
		return err
	}

	opCtx, cancel, err := s.scope(ctx, s.opts.NavigationTimeout)
	if err != nil {
		return err
	}
	defer cancel()

	start := time.Now()
	s.idle.reset()
	if err := chromedp.Run(opCtx, chromedp.Navigate(url)); err != nil {
		return s.mapErr(ctx, opCtx, "navigate "+url, err)
	}
	if err := s.idle.wait(opCtx, s.opts.IdleConnections, s.opts.IdleQuiet, 0); err != nil {
		return s.mapErr(ctx, opCtx, "network idle "+url, err)
	}

	log.Debug().Str("url", url).Dur("elapsed", time.Since(start)).Msg("Navigation settled")
	return nil
}

// WaitVisible blocks until selector is visible
func (s *Session) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return s.run(ctx, timeout, "wait "+selector, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

// Text reads innerText of the first selector match without waiting
func (s *Session) Text(ctx context.Context, selector string) (string, bool, error) {
	sel, _ := json.Marshal(selector)
	expr := fmt.Sprintf(`(() => { const el = document.querySelector(%s); return el ? el.innerText : null; })()`, sel)

	var res *string
	if err := s.run(ctx, s.opts.NavigationTimeout, "read "+selector, chromedp.Evaluate(expr, &res)); err != nil {
		return "", false, err
	}
	if res == nil {
		return "", false, nil
	}
	return *res, true, nil
}

// HTML returns the current document markup
func (s *Session) HTML(ctx context.Context) (string, error) {
	var html string
	err := s.run(ctx, s.opts.NavigationTimeout, "read document", chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

// Click clicks the first visible selector match
func (s *Session) Click(ctx context.Context, selector string, timeout time.Duration) error {
	return s.run(ctx, timeout, "click "+selector, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
}

// Type sends keystrokes to selector, or to the focused element
func (s *Session) Type(ctx context.Context, selector, text string, timeout time.Duration) error {
	if selector == "" {
		return s.run(ctx, timeout, "type", chromedp.KeyEvent(text))
	}
	return s.run(ctx, timeout, "type "+selector, chromedp.SendKeys(selector, text, chromedp.ByQuery))
}

// Sleep waits a fixed settle delay
func (s *Session) Sleep(ctx context.Context, d time.Duration) error {
	return Sleep(ctx, d)
}

// BlockHosts aborts requests to hosts and installs the new-document guard
// script. It is meant to be called once, before the extraction loop.
func (s *Session) BlockHosts(ctx context.Context, hosts []string) error {
	hosts = normalizeHosts(hosts)
	if len(hosts) == 0 {
		return nil
	}

	s.mu.Lock()
	if s.guarded {
		s.mu.Unlock()
		return fmt.Errorf("guards already installed for %v", s.hosts)
	}
	s.guarded = true
	s.hosts = hosts
	s.mu.Unlock()

	patterns := make([]*fetch.RequestPattern, 0, len(hosts))
	for _, h := range hosts {
		patterns = append(patterns, &fetch.RequestPattern{URLPattern: urlPattern(h)})
	}

	chromedp.ListenTarget(s.tab, func(ev interface{}) {
		paused, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}
		go s.resolvePaused(paused)
	})

	return s.run(ctx, s.opts.NavigationTimeout, "install guards",
		fetch.Enable().WithPatterns(patterns),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(buildGuardScript(hosts)).Do(ctx)
			return err
		}),
	)
}

// resolvePaused fails requests to blocked hosts and lets everything else through
func (s *Session) resolvePaused(ev *fetch.EventRequestPaused) {
	c := chromedp.FromContext(s.tab)
	if c == nil || c.Target == nil {
		return
	}
	execCtx := cdp.WithExecutor(s.tab, c.Target)

	url := ""
	if ev.Request != nil {
		url = ev.Request.URL
	}

	var err error
	if blocked(url, s.hosts) {
		s.blocks.Add(1)
		log.Info().Str("url", url).Msg("Blocked request to redirect host")
		err = fetch.FailRequest(ev.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx)
	} else {
		err = fetch.ContinueRequest(ev.RequestID).Do(execCtx)
	}
	if err != nil && s.tab.Err() == nil {
		log.Debug().Err(err).Str("url", url).Msg("Failed to resolve paused request")
	}
}

// Blocked returns how many requests the guards have aborted
func (s *Session) Blocked() int64 {
	return s.blocks.Load()
}

// Close shuts down the tab and the browser process. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	s.tabCancel()
	s.allocCancel()

	log.Info().Int64("blocked_requests", s.blocks.Load()).Msg("Browser session closed")
	return nil
}
