package scraper

import (
	"fmt"
	"log/slog"

	"github.com/playwright-community/playwright-go"

	"github.com/furixon/dc-scraper/internal/browser"
	"github.com/furixon/dc-scraper/internal/config"
	"github.com/furixon/dc-scraper/internal/models"
)

// Runner executes one task end-to-end: session, navigation, product
// extraction, review walk. Every failure mode is folded into the TaskResult;
// nothing escapes the task boundary.
type Runner struct {
	cfg       config.BrowserConfig
	extractor *Extractor
	reviews   *ReviewCrawler
	logger    *slog.Logger
}

func NewRunner(cfg config.BrowserConfig, crawler config.CrawlerConfig, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:       cfg,
		extractor: NewExtractor(crawler.ThumbnailSize, logger),
		reviews:   NewReviewCrawler(cfg.PanelProbe, cfg.PagerTimeout, crawler.MaxReviewPages, logger),
		logger:    logger.With("component", "task_runner"),
	}
}

// Run crawls one product URL and returns its result. It never panics and
// never leaks the session: the browser is closed on every exit path.
func (r *Runner) Run(desc models.TaskDescriptor) (result models.TaskResult) {
	result = models.TaskResult{URL: desc.URL, Status: models.StatusFailed}

	defer func() {
		if rec := recover(); rec != nil {
			result = models.FailedResult(desc.URL, fmt.Sprintf("task panic: %v", rec))
		}
	}()

	opts := browser.DefaultOptions()
	opts.Headless = r.cfg.Headless
	opts.NavTimeout = r.cfg.NavTimeout
	opts.BlockResources = r.cfg.BlockResources
	opts.Proxy = desc.Proxy

	session, err := browser.New(opts)
	if err != nil {
		result.Error = fmt.Sprintf("session init failed: %v", err)
		return result
	}
	defer session.Close()

	page, err := session.NewPage()
	if err != nil {
		result.Error = err.Error()
		return result
	}

	if err := session.Goto(page, desc.URL); err != nil {
		result.Error = err.Error()
		return result
	}

	// The title is the page's defining element. If it never renders the load
	// failed, usually because anti-bot interception served a stub page.
	if _, err := page.WaitForSelector(titleSelector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(r.cfg.ElementTimeout.Milliseconds())),
	}); err != nil {
		result.Error = "page load timeout or bot detection"
		return result
	}

	product := r.extractor.Extract(page, desc.URL)
	reviews := r.reviews.Collect(page, product.ProductCode)

	r.logger.Info("task finished",
		"jobID", desc.JobID,
		"productCode", product.ProductCode,
		"reviews", len(reviews))

	return models.TaskResult{
		URL:     desc.URL,
		Status:  models.StatusSuccess,
		Product: &product,
		Reviews: reviews,
	}
}
