package scraper

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/furixon/dc-scraper/internal/models"
	"github.com/furixon/dc-scraper/internal/parser"
)

// Two review panel layouts exist. The panel id chosen by probing decides
// which pager button template applies.
const (
	panelPrimary  = "sdpReview"
	panelFallback = "btfTab"
)

// ReviewCrawler walks the review pager of a loaded product document, one
// forward pass, collecting every article it can read along the way. A stalled
// or exhausted pager ends the walk normally; it is never an error.
type ReviewCrawler struct {
	probeTimeout time.Duration
	pagerTimeout time.Duration
	maxPages     int
	logger       *slog.Logger
}

func NewReviewCrawler(probeTimeout, pagerTimeout time.Duration, maxPages int, logger *slog.Logger) *ReviewCrawler {
	return &ReviewCrawler{
		probeTimeout: probeTimeout,
		pagerTimeout: pagerTimeout,
		maxPages:     maxPages,
		logger:       logger.With("component", "review_crawler"),
	}
}

// Collect returns the reviews accumulated before the pager ran out, in
// page-visit order (oldest page first).
func (rc *ReviewCrawler) Collect(page playwright.Page, productCode string) []models.ReviewRecord {
	panelID := rc.detectPanel(page)

	reviews := walk(rc.maxPages,
		func(pageNum int) []models.ReviewRecord {
			return rc.collectPage(page, panelID, productCode, pageNum)
		},
		func(nextPage int) bool {
			return rc.advance(page, panelID, nextPage)
		},
	)

	rc.logger.Info("review collection finished",
		"productCode", productCode,
		"panel", panelID,
		"reviews", len(reviews))

	return reviews
}

// walk drives the pagination state machine: collect the current page, then
// advance, until a page comes back empty, the pager stalls, or the hard page
// cap is reached. The cap guarantees termination even against a pager that
// keeps presenting next buttons.
func walk(maxPages int, collect func(pageNum int) []models.ReviewRecord, advance func(nextPage int) bool) []models.ReviewRecord {
	var all []models.ReviewRecord

	for pageNum := 1; pageNum <= maxPages; pageNum++ {
		batch := collect(pageNum)
		if len(batch) == 0 {
			break
		}
		all = append(all, batch...)

		if pageNum == maxPages {
			break
		}
		if !advance(pageNum + 1) {
			break
		}
	}

	return all
}

// detectPanel probes for the primary review panel and falls back to the
// alternate layout when it does not appear in time.
func (rc *ReviewCrawler) detectPanel(page playwright.Page) string {
	_, err := page.WaitForSelector("#"+panelPrimary+" article", playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(rc.probeTimeout.Milliseconds())),
	})
	if err != nil {
		return panelFallback
	}
	return panelPrimary
}

func (rc *ReviewCrawler) collectPage(page playwright.Page, panelID, productCode string, pageNum int) []models.ReviewRecord {
	panel, err := page.QuerySelector("#" + panelID)
	if err != nil || panel == nil {
		return nil
	}

	html, err := panel.InnerHTML()
	if err != nil {
		return nil
	}

	reviews, err := parser.ParseReviews(html, productCode)
	if err != nil {
		rc.logger.Warn("failed to parse review panel", "page", pageNum, "error", err)
		return nil
	}
	return reviews
}

// pagerButtonSelector maps (panel layout, target page) to the pager control.
func pagerButtonSelector(panelID string, pageNum int) string {
	if panelID == panelPrimary {
		return fmt.Sprintf(`xpath=//*[@id="sdpReview"]/div/div[4]/div[2]/div/button[%d]`, pageNum)
	}
	return fmt.Sprintf(`xpath=//*[@id="btfTab"]/ul[2]/li[2]/div/div[6]/section[4]/div[3]/button[%d]`, pageNum)
}

// advance clicks the pager button for nextPage and waits for the clicked
// element to leave the DOM, which is the load-completion signal for the next
// batch of articles. Any timeout means the pager is done.
func (rc *ReviewCrawler) advance(page playwright.Page, panelID string, nextPage int) bool {
	timeout := playwright.Float(float64(rc.pagerTimeout.Milliseconds()))

	button, err := page.WaitForSelector(pagerButtonSelector(panelID, nextPage), playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: timeout,
	})
	if err != nil || button == nil {
		return false
	}

	if err := button.ScrollIntoViewIfNeeded(); err != nil {
		return false
	}

	// Script-level click: faster and more reliable than a simulated pointer
	// event against an overlay-happy storefront.
	if _, err := button.Evaluate("el => el.click()"); err != nil {
		return false
	}

	// The old button going stale marks the page swap.
	if _, err := page.WaitForFunction("el => !el.isConnected", button, playwright.PageWaitForFunctionOptions{
		Timeout: timeout,
	}); err != nil {
		return false
	}

	return true
}
