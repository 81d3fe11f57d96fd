package catalog

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate is the singleton supplier-per-marketplace currency rate
// (JPY per USD). It is refreshed periodically by the fx refresher job and
// read-only to the sync pipeline.
type ExchangeRate struct {
	Rate      decimal.Decimal
	Source    string
	FetchedAt time.Time
}

// RateRepository is the persistence contract for the exchange rate.
type RateRepository interface {
	Current(ctx context.Context) (*ExchangeRate, error)
	// Store replaces the singleton rate row. Used by the refresher only.
	Store(ctx context.Context, rate ExchangeRate) error
}
