package scraper

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/relist/backend/internal/domain/catalog"
	"github.com/relist/backend/internal/domain/scraping"
	"github.com/relist/backend/internal/infrastructure/retry"
)

// EngineConfig holds scraper engine tuning.
type EngineConfig struct {
	// BatchSize is the number of items scraped concurrently per batch
	BatchSize int
	// MaxAttempts is the total attempts per item, including the first
	MaxAttempts int
	// RetryDelay is the linear backoff step between attempts
	RetryDelay time.Duration
	// WaitTimeout bounds waiting for the price element after navigation
	WaitTimeout time.Duration
}

// DefaultEngineConfig returns the engine defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		BatchSize:   5,
		MaxAttempts: 3,
		RetryDelay:  2 * time.Second,
		WaitTimeout: 10 * time.Second,
	}
}

// ScrapeRecorder receives per-target scrape timings. Implemented by the
// telemetry package; nil disables recording.
type ScrapeRecorder interface {
	RecordScrape(ctx context.Context, supplier string, elapsed time.Duration)
}

// Engine scrapes supplier pages in bounded concurrent batches. All items of
// a batch share one browser session; batches run strictly sequentially, so
// in-flight browser and proxy usage never exceeds BatchSize. One item's
// permanent failure never aborts its batch or siblings: the engine always
// produces exactly one observation per input target.
type Engine struct {
	navigator scraping.Navigator
	registry  *scraping.ExtractorRegistry
	config    EngineConfig
	logger    *zap.Logger
	recorder  ScrapeRecorder
}

// NewEngine creates a scraper engine.
func NewEngine(navigator scraping.Navigator, registry *scraping.ExtractorRegistry, config EngineConfig, logger *zap.Logger) *Engine {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultEngineConfig().BatchSize
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultEngineConfig().MaxAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		navigator: navigator,
		registry:  registry,
		config:    config,
		logger:    logger,
	}
}

// SetRecorder attaches a scrape timing recorder.
func (e *Engine) SetRecorder(recorder ScrapeRecorder) {
	e.recorder = recorder
}

// Scrape produces one observation per target, in input order.
func (e *Engine) Scrape(ctx context.Context, targets []scraping.Target) []catalog.Observation {
	observations := make([]catalog.Observation, len(targets))

	for start := 0; start < len(targets); start += e.config.BatchSize {
		end := start + e.config.BatchSize
		if end > len(targets) {
			end = len(targets)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				observations[idx] = e.scrapeOne(ctx, targets[idx])
			}(i)
		}
		wg.Wait()
	}

	return observations
}

// scrapeOne scrapes a single target, retrying transient failures with linear
// backoff. Exhausting retries yields a zero-value observation carrying the
// failure reason; it never returns an error to the batch.
func (e *Engine) scrapeOne(ctx context.Context, target scraping.Target) catalog.Observation {
	supplier := scraping.DetectSupplier(target.URL)
	if supplier == scraping.SupplierUnknown {
		return failedObservation(target, scraping.ErrUnsupportedSupplier.Error())
	}

	extractor, ok := e.registry.For(supplier)
	if !ok {
		return failedObservation(target, scraping.ErrUnsupportedSupplier.Error())
	}

	started := time.Now()
	obs, err := retry.Do(ctx, e.config.MaxAttempts, retry.Linear(e.config.RetryDelay),
		func(ctx context.Context) (catalog.Observation, error) {
			return e.attempt(ctx, target, extractor)
		})
	if e.recorder != nil {
		e.recorder.RecordScrape(ctx, supplier.String(), time.Since(started))
	}
	if err != nil {
		e.logger.Warn("scrape failed",
			zap.String("item_id", target.ItemID.String()),
			zap.String("supplier", supplier.String()),
			zap.Error(err))
		return failedObservation(target, err.Error())
	}
	return obs
}

// attempt performs one navigate-and-extract pass.
func (e *Engine) attempt(ctx context.Context, target scraping.Target, extractor scraping.Extractor) (catalog.Observation, error) {
	page, err := e.navigator.Navigate(ctx, target.URL)
	if err != nil {
		return catalog.Observation{}, err
	}
	defer func() {
		_ = page.Close()
	}()

	price, err := extractor.ExtractPrice(ctx, page)
	if err != nil {
		return catalog.Observation{}, err
	}

	// shipping extraction is fault tolerant: a page without a shipping
	// element contributes zero, it does not fail the item
	shipping, err := extractor.ExtractShipping(ctx, page)
	if err != nil || !shipping.Found {
		shipping = scraping.FieldResult{Value: decimal.Zero}
	}

	stock, err := extractor.ExtractStock(ctx, page)
	if err != nil {
		// conservative: an undecidable availability codes as unavailable
		stock = 0
	}

	return catalog.Observation{
		ItemID: target.ItemID,
		Cost:   price.Value.Add(shipping.Value),
		Stock:  stock,
	}, nil
}

func failedObservation(target scraping.Target, reason string) catalog.Observation {
	return catalog.Observation{
		ItemID: target.ItemID,
		Cost:   decimal.Zero,
		Stock:  0,
		Err:    reason,
	}
}
