package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/furixon/dc-scraper/internal/models"
)

const (
	reviewDateSelector    = "div.sdp-review__article__list__info__product-info__reg-date"
	reviewContentSelector = "div.sdp-review__article__list__review__content"
)

// ParseReviews extracts review records from a snapshot of the review panel's
// HTML. An article missing the rating, date or content element is skipped;
// a malformed snapshot is an error, missing articles are not.
func ParseReviews(html, productCode string) ([]models.ReviewRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse review panel HTML: %w", err)
	}

	var reviews []models.ReviewRecord
	doc.Find("article").Each(func(_ int, article *goquery.Selection) {
		rating, ok := article.Find("[data-rating]").First().Attr("data-rating")
		if !ok {
			return
		}
		dateEl := article.Find(reviewDateSelector).First()
		contentEl := article.Find(reviewContentSelector).First()
		if dateEl.Length() == 0 || contentEl.Length() == 0 {
			return
		}
		reviews = append(reviews, models.ReviewRecord{
			ProductCode: productCode,
			Rating:      rating,
			Date:        strings.TrimSpace(dateEl.Text()),
			Content:     strings.TrimSpace(contentEl.Text()),
		})
	})

	return reviews, nil
}

// SearchItem is one candidate entry from the search result list.
type SearchItem struct {
	URL         string
	ProductCode string
	ReviewCount int
	HasReviews  bool
}

// ParseSearchItems extracts candidate product links from a snapshot of the
// search result list HTML, in rendered order. Items without a link are
// dropped; items without a visible review count are kept but flagged so the
// caller can skip them.
func ParseSearchItems(html, baseURL string) ([]SearchItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse search result HTML: %w", err)
	}

	var items []SearchItem
	doc.Find("li").Each(func(_ int, li *goquery.Selection) {
		href, ok := li.Find("a").First().Attr("href")
		if !ok || href == "" {
			return
		}
		if strings.HasPrefix(href, "/") {
			href = strings.TrimRight(baseURL, "/") + href
		}

		item := SearchItem{
			URL:         href,
			ProductCode: ProductCode(href),
		}

		ratingCount := li.Find(`span[class*="ProductRating_ratingCount"]`).First()
		if ratingCount.Length() > 0 {
			item.HasReviews = true
			item.ReviewCount = NumberIn(ratingCount.Text())
		}

		items = append(items, item)
	})

	return items, nil
}
