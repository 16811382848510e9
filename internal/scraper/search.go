package scraper

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/furixon/dc-scraper/internal/browser"
	"github.com/furixon/dc-scraper/internal/parser"
)

const searchResultSelector = "#product-list li"

// Discovery queries the search surface for candidate product links. It runs
// headless; only product detail pages are penalized for it.
type Discovery struct {
	baseURL        string
	minReviewCount int
	waitTimeout    time.Duration
	logger         *slog.Logger
}

func NewDiscovery(baseURL string, minReviewCount int, waitTimeout time.Duration, logger *slog.Logger) *Discovery {
	return &Discovery{
		baseURL:        baseURL,
		minReviewCount: minReviewCount,
		waitTimeout:    waitTimeout,
		logger:         logger.With("component", "discovery"),
	}
}

// Discover returns up to maxLinks deduplicated product URLs for keyword, in
// rendered order. Items below the review-count threshold or without a visible
// review count are skipped. An empty result is not an error; the caller
// decides whether it aborts the run.
func (d *Discovery) Discover(keyword string, maxLinks int) ([]string, error) {
	opts := browser.DefaultOptions()
	opts.Headless = true

	session, err := browser.New(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire discovery session: %w", err)
	}
	defer session.Close()

	page, err := session.NewPage()
	if err != nil {
		return nil, err
	}

	searchURL := fmt.Sprintf("%s/np/search?component=&q=%s", d.baseURL, url.QueryEscape(keyword))
	d.logger.Info("loading search results", "keyword", keyword, "url", searchURL)

	if err := session.Goto(page, searchURL); err != nil {
		return nil, err
	}

	if _, err := page.WaitForSelector(searchResultSelector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(d.waitTimeout.Milliseconds())),
	}); err != nil {
		return nil, fmt.Errorf("search results did not render: %w", err)
	}

	list, err := page.QuerySelector("#product-list")
	if err != nil || list == nil {
		return nil, fmt.Errorf("search result list not found")
	}

	html, err := list.InnerHTML()
	if err != nil {
		return nil, fmt.Errorf("failed to read search result list: %w", err)
	}

	items, err := parser.ParseSearchItems(html, d.baseURL)
	if err != nil {
		return nil, err
	}

	links := make([]string, 0, maxLinks)
	seen := make(map[string]struct{})

	for _, item := range items {
		if _, dup := seen[item.ProductCode]; dup {
			continue
		}
		seen[item.ProductCode] = struct{}{}

		if !item.HasReviews || item.ReviewCount < d.minReviewCount {
			continue
		}

		links = append(links, item.URL)
		if len(links) >= maxLinks {
			break
		}
	}

	d.logger.Info("discovery finished", "keyword", keyword, "candidates", len(items), "accepted", len(links))
	return links, nil
}
