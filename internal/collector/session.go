package collector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"golang.org/x/time/rate"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

	readyPollInterval = 500 * time.Millisecond
	navigateTimeout   = 60 * time.Second
)

const hideWebdriver = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined})`

// Renderer returns the HTML of a product page once one of the ready
// selectors is present or the bounded wait has passed. ctx cancels the
// pacing wait only; a fetch that has started runs to completion.
type Renderer interface {
	Render(ctx context.Context, url string, ready ...string) (string, error)
}

// SessionConfig tunes the headless browser
type SessionConfig struct {
	BrowserBin string
	UserAgent  string
	// Settle is slept after navigation before looking at the DOM.
	Settle time.Duration
	// Wait bounds how long to poll for a ready selector.
	Wait time.Duration
	// MinGap is the minimum time between two navigations.
	MinGap time.Duration
}

// DefaultSessionConfig matches the pacing the storefronts tolerate.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		UserAgent: DefaultUserAgent,
		Settle:    10 * time.Second,
		Wait:      20 * time.Second,
		MinGap:    2 * time.Second,
	}
}

// Session is one headless Chrome tab reused for every check.
type Session struct {
	cfg     SessionConfig
	limiter *rate.Limiter

	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
	closeOnce     sync.Once
}

// NewSession starts the browser. The session is not tied to any caller
// context; Close releases it.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("enable-automation", false),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(cfg.UserAgent),
	)
	if cfg.BrowserBin != "" {
		opts = append(opts, chromedp.ExecPath(cfg.BrowserBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	err := chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(hideWebdriver).Do(ctx)
		return err
	}))
	if err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	slog.Info("Browser session started", "bin", cfg.BrowserBin)
	return &Session{
		cfg:           cfg,
		limiter:       rate.NewLimiter(rate.Every(cfg.MinGap), 1),
		browserCtx:    browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
	}, nil
}

// Render navigates, settles, then polls the DOM for a ready selector.
// Once navigation starts it runs to completion; ctx only gates the start.
func (s *Session) Render(ctx context.Context, url string, ready ...string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	opCtx, cancel := context.WithTimeout(s.browserCtx, s.cfg.Settle+s.cfg.Wait+navigateTimeout)
	defer cancel()

	var html string
	err := chromedp.Run(opCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(s.cfg.Settle),
		chromedp.ActionFunc(func(ctx context.Context) error {
			deadline := time.Now().Add(s.cfg.Wait)
			for {
				if err := chromedp.OuterHTML("html", &html, chromedp.ByQuery).Do(ctx); err != nil {
					return err
				}
				if hasAny(html, ready) || time.Now().After(deadline) {
					return nil
				}
				if err := chromedp.Sleep(readyPollInterval).Do(ctx); err != nil {
					return err
				}
			}
		}),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}
	return html, nil
}

// Close shuts the browser down. Safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.cancelBrowser()
		s.cancelAlloc()
		slog.Info("Browser session closed")
	})
	return nil
}

// hasAny reports whether any selector matches; no selectors means ready.
func hasAny(html string, selectors []string) bool {
	if len(selectors) == 0 {
		return true
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}
	for _, sel := range selectors {
		if doc.Find(sel).Length() > 0 {
			return true
		}
	}
	return false
}
