package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemUpsert carries the fields written when importing a listing from the
// marketplace. Only non-zero optional fields overwrite existing columns, so
// supplier-derived state (cost, URL, error counter) survives re-imports.
type ItemUpsert struct {
	SellerID   uuid.UUID
	SKU        string
	Title      string
	Price      decimal.Decimal
	Stock      int
	Condition  ItemCondition
	Status     ItemStatus
	WatchCount int
	ImportedAt time.Time
}

// ItemChange carries the recomputed fields written when classification finds
// a supplier-side difference.
type ItemChange struct {
	ItemID uuid.UUID
	Price  decimal.Decimal
	Cost   decimal.Decimal
	Profit decimal.Decimal
	Stock  int
}

// ScrapeCursor marks the last item seen in a scrape pass. The zero value
// starts from the beginning.
type ScrapeCursor struct {
	SupplierURL string
	ItemID      uuid.UUID
}

// After builds the cursor that follows the given item.
func After(item Item) ScrapeCursor {
	return ScrapeCursor{SupplierURL: item.SupplierURL, ItemID: item.ID}
}

// ItemRepository is the persistence contract for catalog items.
type ItemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Item, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Item, error)

	// FindScrapeTargets returns one page of items eligible for scraping:
	// supplier URL present, status active, scrape_error below the quarantine
	// threshold. Results are keyset-paginated on (supplier_url, id) after the
	// cursor, so rows leaving the eligible set mid-pass never shift the
	// remaining pages.
	FindScrapeTargets(ctx context.Context, sellerID uuid.UUID, after ScrapeCursor, limit int) ([]Item, error)

	// UpsertBySellerSKU inserts or updates rows keyed by (seller_id, sku).
	// The operation is idempotent: re-applying the same rows is a no-op
	// apart from updated_at.
	UpsertBySellerSKU(ctx context.Context, rows []ItemUpsert) error

	// ApplyChange writes the recomputed price/cost/profit/stock for a single
	// item and resets its scrape error counter.
	ApplyChange(ctx context.Context, change ItemChange, scrapedAt time.Time) error

	// MarkScraped resets the scrape error counter without touching pricing.
	MarkScraped(ctx context.Context, id uuid.UUID, scrapedAt time.Time) error

	// IncrementScrapeError bumps the consecutive failure counter.
	IncrementScrapeError(ctx context.Context, id uuid.UUID, scrapedAt time.Time) error

	// MarkSynced stamps the items as pushed to the marketplace.
	MarkSynced(ctx context.Context, ids []uuid.UUID, syncedAt time.Time) error
}
