package browser

import (
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/furixon/dc-scraper/internal/models"
)

const launchAttempts = 3

// Options configures one isolated browser session.
type Options struct {
	Headless       bool
	NavTimeout     time.Duration
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	Locale         string
	TimezoneID     string
	BlockResources bool
	Proxy          *models.Proxy
}

func DefaultOptions() *Options {
	return &Options{
		Headless:       false,
		NavTimeout:     30 * time.Second,
		UserAgent:      RandomUserAgent(),
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		Locale:         "ko-KR",
		TimezoneID:     "Asia/Seoul",
		BlockResources: true,
	}
}

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// RandomUserAgent picks a fresh identity string for a session.
func RandomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

// Session is one fully isolated browser-automation context. It owns its own
// playwright driver, browser process and context, and is used for exactly one
// task before being closed. Sessions are never shared or reused.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	opts    *Options
	logger  *slog.Logger
}

// New acquires a session. Launch is retried with randomized jitter when the
// driver reports transient file contention, which is expected when many
// workers cold-start concurrently. Any other launch error propagates.
func New(opts *Options) (*Session, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.UserAgent == "" {
		opts.UserAgent = RandomUserAgent()
	}

	var lastErr error
	for attempt := 0; attempt < launchAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Second + time.Duration(rand.Int63n(int64(time.Second))))
		}

		s, err := launch(opts)
		if err == nil {
			return s, nil
		}
		if !isTransientLaunchError(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("failed to launch browser after %d attempts: %w", launchAttempts, lastErr)
}

func launch(opts *Options) (*Session, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-infobars",
			"--disable-extensions",
			"--disable-popup-blocking",
			"--no-sandbox",
			"--disable-dev-shm-usage",
			"--start-maximized",
			"--user-agent=" + opts.UserAgent,
		},
	}

	if opts.Proxy != nil {
		launchOpts.Proxy = &playwright.Proxy{
			Server: fmt.Sprintf("%s:%d", opts.Proxy.Host, opts.Proxy.Port),
		}
	}

	br, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	ctx, err := br.NewContext(playwright.BrowserNewContextOptions{
		UserAgent:         playwright.String(opts.UserAgent),
		JavaScriptEnabled: playwright.Bool(true), // the target renders via script
		Locale:            playwright.String(opts.Locale),
		TimezoneId:        playwright.String(opts.TimezoneID),
		Viewport: &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		},
	})
	if err != nil {
		br.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	s := &Session{
		pw:      pw,
		browser: br,
		context: ctx,
		opts:    opts,
		logger:  slog.Default().With("component", "browser"),
	}

	if opts.BlockResources {
		if err := s.blockHeavyResources(); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to install resource blocking: %w", err)
		}
	}

	return s, nil
}

// blockHeavyResources aborts image, stylesheet, font and media requests.
// Script requests stay enabled because the page is script-rendered.
func (s *Session) blockHeavyResources() error {
	return s.context.Route("**/*", func(route playwright.Route) {
		switch route.Request().ResourceType() {
		case "image", "stylesheet", "font", "media":
			route.Abort()
		default:
			route.Continue()
		}
	})
}

// NewPage opens a page with the session's navigation timeout applied.
func (s *Session) NewPage() (playwright.Page, error) {
	page, err := s.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(float64(s.opts.NavTimeout.Milliseconds()))
	return page, nil
}

// Goto navigates without waiting for subresources; the structural DOM is
// enough for extraction and the heavy assets are blocked anyway.
func (s *Session) Goto(page playwright.Page, url string) error {
	_, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(s.opts.NavTimeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// Close releases the context, browser process and driver. Callers must invoke
// it on every exit path; a leaked session leaves an OS browser process behind.
func (s *Session) Close() error {
	var errs []error

	if s.context != nil {
		if err := s.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close context: %w", err))
		}
	}

	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	}

	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}

	return nil
}

// isTransientLaunchError reports whether a launch failure is the kind of
// driver file contention seen when several workers install or patch the
// browser binary at the same time.
func isTransientLaunchError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"text file busy",
		"resource temporarily unavailable",
		"no such file or directory",
		"file exists",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
