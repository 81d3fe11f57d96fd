// Package telemetry wires OpenTelemetry tracing and metrics plus
// Pyroscope profiling for the catalog pipeline.
package telemetry

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// SyncMetrics provides pipeline metrics for the reconciliation system.
// It tracks supplier scraping, price classification, and marketplace imports.
type SyncMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	itemsScrapedTotal     *Counter
	classificationTotal   *Counter
	pagesImportedTotal    *Counter
	listingsUpsertedTotal *Counter
	listingsRevisedTotal  *Counter
	tokenRefreshTotal     *Counter

	// Histogram metrics
	scrapeDuration *Histogram

	// Gauge metrics (point-in-time values)
	exchangeRate *FloatGauge
}

// SyncMetricsConfig holds configuration for pipeline metrics.
type SyncMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewSyncMetrics creates a new SyncMetrics instance.
func NewSyncMetrics(cfg SyncMetricsConfig) (*SyncMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	sm := &SyncMetrics{
		meter:  cfg.Meter,
		logger: logger,
	}

	var err error

	// Scrape metrics
	sm.itemsScrapedTotal, err = NewCounter(
		cfg.Meter,
		"relist_items_scraped_total",
		"Total number of supplier pages scraped",
		"{items}",
	)
	if err != nil {
		return nil, err
	}

	sm.classificationTotal, err = NewCounter(
		cfg.Meter,
		"relist_classification_total",
		"Total number of classified observations by outcome",
		"{items}",
	)
	if err != nil {
		return nil, err
	}

	sm.scrapeDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "relist_scrape_duration_seconds",
		Description: "Supplier page scrape duration",
		Unit:        "s",
		Boundaries:  ScrapeDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	// Import metrics
	sm.pagesImportedTotal, err = NewCounter(
		cfg.Meter,
		"relist_pages_imported_total",
		"Total number of listing pages imported from the marketplace",
		"{pages}",
	)
	if err != nil {
		return nil, err
	}

	sm.listingsUpsertedTotal, err = NewCounter(
		cfg.Meter,
		"relist_listings_upserted_total",
		"Total number of listings written to the catalog",
		"{listings}",
	)
	if err != nil {
		return nil, err
	}

	sm.listingsRevisedTotal, err = NewCounter(
		cfg.Meter,
		"relist_listings_revised_total",
		"Total number of listing revisions pushed to the marketplace",
		"{listings}",
	)
	if err != nil {
		return nil, err
	}

	sm.tokenRefreshTotal, err = NewCounter(
		cfg.Meter,
		"relist_token_refresh_total",
		"Total number of marketplace access token refreshes",
		"{refreshes}",
	)
	if err != nil {
		return nil, err
	}

	// Exchange rate gauge
	sm.exchangeRate, err = NewFloatGauge(
		cfg.Meter,
		"relist_exchange_rate",
		"Current USD to JPY exchange rate",
		"{jpy_per_usd}",
	)
	if err != nil {
		return nil, err
	}

	return sm, nil
}

// =============================================================================
// Scrape Metrics
// =============================================================================

// RecordScrape records a completed supplier page scrape.
func (sm *SyncMetrics) RecordScrape(ctx context.Context, supplier string, elapsed time.Duration) {
	sm.itemsScrapedTotal.Inc(ctx, AttrSupplier.String(supplier))
	sm.scrapeDuration.RecordDuration(ctx, elapsed, AttrSupplier.String(supplier))
}

// RecordClassification records a classified observation outcome.
// Outcome should be one of "changed", "unchanged", or "failed".
func (sm *SyncMetrics) RecordClassification(ctx context.Context, sellerID uuid.UUID, outcome string) {
	sm.classificationTotal.Inc(ctx,
		AttrSellerID.String(sellerID.String()),
		AttrClassification.String(outcome),
	)
}

// =============================================================================
// Import Metrics
// =============================================================================

// RecordPageImported records a processed listing page and the number of
// listings it carried.
func (sm *SyncMetrics) RecordPageImported(ctx context.Context, sellerID uuid.UUID, listings int) {
	sm.pagesImportedTotal.Inc(ctx, AttrSellerID.String(sellerID.String()))
	sm.listingsUpsertedTotal.Add(ctx, int64(listings), AttrSellerID.String(sellerID.String()))
}

// RecordListingsRevised records listing revisions pushed to the marketplace.
func (sm *SyncMetrics) RecordListingsRevised(ctx context.Context, sellerID uuid.UUID, count int) {
	sm.listingsRevisedTotal.Add(ctx, int64(count), AttrSellerID.String(sellerID.String()))
}

// RecordTokenRefresh records a marketplace access token refresh.
func (sm *SyncMetrics) RecordTokenRefresh(ctx context.Context, sellerID uuid.UUID) {
	sm.tokenRefreshTotal.Inc(ctx, AttrSellerID.String(sellerID.String()))
}

// =============================================================================
// Exchange Rate Metrics
// =============================================================================

// RecordExchangeRate records the current exchange rate.
func (sm *SyncMetrics) RecordExchangeRate(ctx context.Context, rate float64) {
	sm.exchangeRate.Record(ctx, rate)
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewSyncMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
