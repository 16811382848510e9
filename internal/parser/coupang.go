package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DefaultThumbnailSize is the size token substituted into thumbnail URLs.
const DefaultThumbnailSize = "292x292ex"

// namePlaceholderPrefix marks a generic item-brief name cell that carries no
// real product name.
const namePlaceholderPrefix = "상품"

var (
	nonDigitRe  = regexp.MustCompile(`[^0-9]`)
	thumbnailRe = regexp.MustCompile(`/remote/[^/]+/image`)
)

// NumberIn returns the integer formed by the decimal digits of s in order,
// or 0 when s contains none. "리뷰 1,234개" -> 1234.
func NumberIn(s string) int {
	digits := nonDigitRe.ReplaceAllString(s, "")
	if digits == "" {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

// StarRating converts a width-percentage style attribute into a star value,
// rounded to two decimals. 100% maps to 5.0 stars. The /20 divisor is the
// data contract; values above 100% are passed through undamped.
func StarRating(style string) float64 {
	digits := nonDigitRe.ReplaceAllString(style, "")
	if digits == "" {
		return 0.0
	}
	percent, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0.0
	}
	return math.Round(percent/20*100) / 100
}

// ReplaceThumbnailSize rewrites the size segment of a CDN image URL to the
// given token. Idempotent; empty input yields empty output.
func ReplaceThumbnailSize(url, sizeToken string) string {
	if url == "" {
		return ""
	}
	if sizeToken == "" {
		sizeToken = DefaultThumbnailSize
	}
	return thumbnailRe.ReplaceAllString(url, "/remote/"+sizeToken+"/image")
}

// ProductCode derives the product code from the last path segment after the
// "products/" marker, with any query string stripped. Returns "unknown" when
// the URL does not contain the marker.
func ProductCode(url string) string {
	const marker = "products/"
	idx := strings.LastIndex(url, marker)
	if idx < 0 {
		return "unknown"
	}
	code := url[idx+len(marker):]
	if q := strings.IndexByte(code, '?'); q >= 0 {
		code = code[:q]
	}
	if code == "" {
		return "unknown"
	}
	return code
}

// ResolveName prefers title over a generic placeholder name from the item
// brief table. An empty name also falls back to the title.
func ResolveName(name, title string) string {
	if name == "" || strings.HasPrefix(name, namePlaceholderPrefix) {
		return title
	}
	return name
}
