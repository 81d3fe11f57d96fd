// Package suppliers holds the per-supplier field extractors dispatched by
// the scraper engine. Each supplier contributes ordered selector candidate
// lists; the first candidate yielding non-empty, numeric-parseable text
// wins.
package suppliers

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/relist/backend/internal/domain/scraping"
)

// waitTimeout bounds waiting for the primary price element after load.
const waitTimeout = 8 * time.Second

// baseExtractor implements the candidate-fallback extraction shared by all
// suppliers. Supplier files embed it with their selector lists.
type baseExtractor struct {
	supplier scraping.Supplier
	// waitSelector, when set, is awaited before price extraction; a wait
	// failure is not fatal since fallback candidates may still match
	waitSelector string
	price        []string
	shipping     []string
	unavailable  []string
	purchase     []string
}

// Supplier returns the supplier code this extractor handles.
func (e *baseExtractor) Supplier() scraping.Supplier {
	return e.supplier
}

// ExtractPrice returns the first parseable price candidate.
func (e *baseExtractor) ExtractPrice(ctx context.Context, page scraping.Page) (scraping.FieldResult, error) {
	if e.waitSelector != "" {
		_ = page.WaitFor(ctx, e.waitSelector, waitTimeout)
	}
	result, err := firstNumeric(ctx, page, e.price)
	if err != nil {
		return scraping.FieldResult{}, err
	}
	if !result.Found {
		return scraping.FieldResult{}, scraping.ErrPriceNotFound
	}
	return result, nil
}

// ExtractShipping returns the first parseable shipping candidate. A page
// without any shipping element reports Found=false.
func (e *baseExtractor) ExtractShipping(ctx context.Context, page scraping.Page) (scraping.FieldResult, error) {
	return firstNumeric(ctx, page, e.shipping)
}

// ExtractStock codes availability as 1/0. The explicit unavailable marker is
// checked before the purchase call-to-action; a page showing neither codes
// as unavailable so ambiguous pages are never reported as purchasable.
func (e *baseExtractor) ExtractStock(ctx context.Context, page scraping.Page) (int, error) {
	soldOut, err := anyPresent(ctx, page, e.unavailable)
	if err != nil {
		return 0, err
	}
	if soldOut {
		return 0, nil
	}

	purchasable, err := anyPresent(ctx, page, e.purchase)
	if err != nil {
		return 0, err
	}
	if purchasable {
		return 1, nil
	}
	return 0, nil
}

// firstNumeric walks the candidate list and returns the first numeric hit.
func firstNumeric(ctx context.Context, page scraping.Page, selectors []string) (scraping.FieldResult, error) {
	for _, selector := range selectors {
		text, ok, err := page.Locate(ctx, selector)
		if err != nil {
			return scraping.FieldResult{}, err
		}
		if !ok {
			continue
		}
		if value, parsed := parseNumeric(text); parsed {
			return scraping.FieldResult{Value: value, Found: true}, nil
		}
	}
	return scraping.FieldResult{}, nil
}

// anyPresent reports whether any selector matches an element with content.
func anyPresent(ctx context.Context, page scraping.Page, selectors []string) (bool, error) {
	for _, selector := range selectors {
		_, ok, err := page.Locate(ctx, selector)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// parseNumeric strips every non-digit rune (currency marks, separators,
// full-width spaces) and parses the remainder as an integer amount.
func parseNumeric(text string) (decimal.Decimal, bool) {
	var digits strings.Builder
	for _, r := range text {
		if unicode.IsDigit(r) && r < 128 {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 || digits.Len() > 12 {
		return decimal.Zero, false
	}
	value, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return decimal.Zero, false
	}
	return decimal.NewFromInt(value), true
}
