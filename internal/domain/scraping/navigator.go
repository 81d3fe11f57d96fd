package scraping

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Scraping Errors
// ---------------------------------------------------------------------------

var (
	// ErrUnsupportedSupplier indicates the URL matched no known supplier
	ErrUnsupportedSupplier = errors.New("scraping: unsupported supplier")
	// ErrNavigationFailed indicates the page could not be loaded; retryable
	ErrNavigationFailed = errors.New("scraping: navigation failed")
	// ErrPriceNotFound indicates no selector candidate yielded a price
	ErrPriceNotFound = errors.New("scraping: price not found on page")
)

// ---------------------------------------------------------------------------
// Navigation Capability
// ---------------------------------------------------------------------------

// Page is a handle onto a loaded supplier page.
type Page interface {
	// Locate returns the text content of the first element matching the
	// selector. ok is false when no element matches; that is not an error.
	Locate(ctx context.Context, selector string) (text string, ok bool, err error)

	// WaitFor blocks until an element matching the selector is present or
	// the timeout elapses.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error

	// Close releases the page's browser resources.
	Close() error
}

// Navigator is the browser capability the scraper engine is built against.
// The concrete implementation lives in infrastructure.
type Navigator interface {
	Navigate(ctx context.Context, url string) (Page, error)
}

// ---------------------------------------------------------------------------
// Targets
// ---------------------------------------------------------------------------

// Target identifies one catalog item to scrape.
type Target struct {
	ItemID uuid.UUID
	URL    string
}

// FieldResult is a single extracted numeric field.
type FieldResult struct {
	Value decimal.Decimal
	Found bool
}
