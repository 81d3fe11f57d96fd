package catalog

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Catalog Errors
// ---------------------------------------------------------------------------

var (
	ErrItemNotFound      = errors.New("catalog: item not found")
	ErrSellerNotFound    = errors.New("catalog: seller not found")
	ErrRateNotFound      = errors.New("catalog: exchange rate not found")
	ErrMissingRateFields = errors.New("catalog: item is missing pricing rate fields")
)

// MaxScrapeErrors is the consecutive-failure threshold after which an item is
// excluded from scrape passes until an operator intervenes.
const MaxScrapeErrors = 3

// ---------------------------------------------------------------------------
// ItemStatus / ItemCondition
// ---------------------------------------------------------------------------

// ItemStatus represents the lifecycle status of a catalog item.
type ItemStatus string

const (
	// ItemStatusActive indicates the listing is live on the marketplace
	ItemStatusActive ItemStatus = "active"
	// ItemStatusEnded indicates the listing has ended on the marketplace
	ItemStatusEnded ItemStatus = "ended"
)

// IsValid returns true if the status is a known value.
func (s ItemStatus) IsValid() bool {
	switch s {
	case ItemStatusActive, ItemStatusEnded:
		return true
	default:
		return false
	}
}

// String returns the string representation of ItemStatus.
func (s ItemStatus) String() string {
	return string(s)
}

// ItemCondition is the internal condition classification of a listing.
type ItemCondition string

const (
	ItemConditionNew         ItemCondition = "new"
	ItemConditionRefurbished ItemCondition = "refurbished"
	ItemConditionUsed        ItemCondition = "used"
)

// ---------------------------------------------------------------------------
// Item
// ---------------------------------------------------------------------------

// Item is a marketplace listing tracked against its supplier source. It is
// created on import from the marketplace, mutated by scraping/classification
// and by marketplace sync, and never deleted by the pipeline.
type Item struct {
	ID       uuid.UUID
	SellerID uuid.UUID
	// SKU is the marketplace item identifier used for revisions
	SKU   string
	Title string

	// Price is the resale price in the marketplace currency (USD)
	Price decimal.Decimal
	// SupplierCost is the landed replenishment cost in the supplier currency (JPY)
	SupplierCost decimal.Decimal
	// Freight is the outbound shipping cost in the supplier currency (JPY)
	Freight decimal.Decimal
	// Profit is the expected net in the supplier currency (JPY)
	Profit      decimal.Decimal
	ProfitRate  decimal.Decimal
	FeeRate     decimal.Decimal
	PromoteRate decimal.Decimal

	Stock            int
	ScrapeErrorCount int
	SupplierURL      string
	Condition        ItemCondition
	Status           ItemStatus
	WatchCount       int

	ImportedAt time.Time
	ScrapedAt  *time.Time
	SyncedAt   *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// HasRateFields reports whether the item carries the rate fields required to
// re-derive its price.
func (i *Item) HasRateFields() bool {
	return i.ProfitRate.Sign() > 0 && i.FeeRate.Sign() > 0
}

// Scrapeable reports whether the item qualifies for a scrape pass.
func (i *Item) Scrapeable() bool {
	return i.SupplierURL != "" &&
		i.Status == ItemStatusActive &&
		i.ScrapeErrorCount < MaxScrapeErrors
}

// MarkScraped records a successful scrape pass and resets the consecutive
// error counter.
func (i *Item) MarkScraped(at time.Time) {
	i.ScrapeErrorCount = 0
	i.ScrapedAt = &at
}

// MarkScrapeFailed records a failed scrape pass.
func (i *Item) MarkScrapeFailed(at time.Time) {
	i.ScrapeErrorCount++
	i.ScrapedAt = &at
}

// MarkSynced records a successful marketplace sync.
func (i *Item) MarkSynced(at time.Time) {
	i.SyncedAt = &at
}
