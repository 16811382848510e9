package scraper

import (
	"log/slog"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/furixon/dc-scraper/internal/models"
	"github.com/furixon/dc-scraper/internal/parser"
)

const (
	titleSelector         = "h1.product-title"
	imageSelector         = "div.product-image img"
	breadcrumbSelector    = "ul.breadcrumb li"
	starRatingSelector    = "span.rating-star-num"
	reviewCountSelector   = "span.rating-count-txt"
	originalPriceSelector = "div.price-amount.sales-price-amount"
	finalPriceSelector    = "div.price-amount.final-price-amount"
	itemBriefNameSelector = "#itemBrief > table > tbody > tr:nth-child(1) > td:nth-child(2)"
)

// Extractor reads a loaded product document into a ProductRecord. Every field
// lookup is guarded independently, so a missing element degrades that one
// field to its default instead of aborting the extraction.
type Extractor struct {
	thumbnailSize string
	logger        *slog.Logger
}

func NewExtractor(thumbnailSize string, logger *slog.Logger) *Extractor {
	return &Extractor{
		thumbnailSize: thumbnailSize,
		logger:        logger.With("component", "extractor"),
	}
}

// Extract never fails; fields the page does not render come back as their
// zero values.
func (e *Extractor) Extract(page playwright.Page, sourceURL string) models.ProductRecord {
	record := models.ProductRecord{
		ProductCode: parser.ProductCode(sourceURL),
		Title:       textOf(page, titleSelector),
		Categories:  []string{},
	}

	record.ImageURL = parser.ReplaceThumbnailSize(attrOf(page, imageSelector, "src"), e.thumbnailSize)
	record.StarRating = parser.StarRating(attrOf(page, starRatingSelector, "style"))
	record.ReviewCount = parser.NumberIn(textOf(page, reviewCountSelector))
	record.OriginalPrice = parser.NumberIn(textOf(page, originalPriceSelector))
	record.FinalPrice = parser.NumberIn(textOf(page, finalPriceSelector))
	record.Name = parser.ResolveName(textOf(page, itemBriefNameSelector), record.Title)

	// Breadcrumb trail, minus the leading home entry.
	if crumbs, err := page.QuerySelectorAll(breadcrumbSelector); err == nil && len(crumbs) > 1 {
		for _, crumb := range crumbs[1:] {
			text, err := crumb.TextContent()
			if err != nil {
				continue
			}
			if text = strings.TrimSpace(text); text != "" {
				record.Categories = append(record.Categories, text)
			}
		}
	}

	e.logger.Debug("extracted product",
		"code", record.ProductCode,
		"reviewCount", record.ReviewCount,
		"hasImage", record.ImageURL != "")

	return record
}

func textOf(page playwright.Page, selector string) string {
	el, err := page.QuerySelector(selector)
	if err != nil || el == nil {
		return ""
	}
	text, err := el.TextContent()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func attrOf(page playwright.Page, selector, attr string) string {
	el, err := page.QuerySelector(selector)
	if err != nil || el == nil {
		return ""
	}
	value, err := el.GetAttribute(attr)
	if err != nil {
		return ""
	}
	return value
}
