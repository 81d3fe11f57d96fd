package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/relist/backend/internal/domain/catalog"
	"github.com/relist/backend/internal/domain/scraping"
	"github.com/relist/backend/internal/infrastructure/telemetry"
)

// defaultScrapePageSize bounds one scrape pass over the catalog.
const defaultScrapePageSize = 50

// ScrapeEngine is the narrow capability the supplier sync needs from the
// scraper. The concrete engine lives in infrastructure.
type ScrapeEngine interface {
	Scrape(ctx context.Context, targets []scraping.Target) []catalog.Observation
}

// SupplierSyncService runs the scrape-classify-persist pipeline over a
// seller's catalog.
type SupplierSyncService struct {
	items      catalog.ItemRepository
	engine     ScrapeEngine
	classifier *Classifier
	logger     *zap.Logger
	metrics    PipelineMetrics
	pageSize   int
}

// NewSupplierSyncService creates a SupplierSyncService.
func NewSupplierSyncService(items catalog.ItemRepository, engine ScrapeEngine, classifier *Classifier, logger *zap.Logger) *SupplierSyncService {
	return &SupplierSyncService{
		items:      items,
		engine:     engine,
		classifier: classifier,
		logger:     logger,
		pageSize:   defaultScrapePageSize,
	}
}

// SetMetrics attaches a pipeline metrics sink.
func (s *SupplierSyncService) SetMetrics(metrics PipelineMetrics) {
	s.metrics = metrics
}

// Run walks the seller's scrape targets in batches, scrapes each batch,
// classifies the observations and persists the outcome. The walk is
// keyset-paginated on the last item seen: persist mutates the eligibility
// predicate (counter resets and quarantines), so an offset would drift.
// The aggregate summary is returned even when a batch fails partway:
// callers get the progress made before the error.
func (s *SupplierSyncService) Run(ctx context.Context, sellerID uuid.UUID) (catalog.ClassificationSummary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "supplier_sync", "run",
		telemetry.WithAttribute(telemetry.SpanAttrSellerID, sellerID.String()))
	defer span.End()

	var (
		summary catalog.ClassificationSummary
		cursor  catalog.ScrapeCursor
	)

	for page := 1; ; page++ {
		items, err := s.items.FindScrapeTargets(ctx, sellerID, cursor, s.pageSize)
		if err != nil {
			err = fmt.Errorf("sync: loading scrape targets page %d: %w", page, err)
			telemetry.RecordError(span, err)
			return summary, err
		}
		if len(items) == 0 {
			break
		}
		cursor = catalog.After(items[len(items)-1])

		pageSummary, err := s.runPage(ctx, items)
		summary.Add(pageSummary)
		recordClassifications(ctx, s.metrics, sellerID, pageSummary)
		if err != nil {
			telemetry.RecordError(span, err)
			return summary, err
		}

		if len(items) < s.pageSize {
			break
		}
	}

	s.logger.Info("supplier sync finished",
		zap.String("seller_id", sellerID.String()),
		zap.Int("changed", summary.ChangedCount),
		zap.Int("unchanged", summary.UnchangedCount),
		zap.Int("failed", summary.FailedCount))
	return summary, nil
}

// runPage scrapes and persists one page of targets.
func (s *SupplierSyncService) runPage(ctx context.Context, items []catalog.Item) (catalog.ClassificationSummary, error) {
	targets := make([]scraping.Target, 0, len(items))
	for _, item := range items {
		targets = append(targets, scraping.Target{ItemID: item.ID, URL: item.SupplierURL})
	}

	observations := s.engine.Scrape(ctx, targets)

	result, err := s.classifier.Classify(ctx, items, observations)
	if err != nil {
		return catalog.ClassificationSummary{}, err
	}

	if err := s.persist(ctx, result); err != nil {
		return result.Summary(), err
	}
	return result.Summary(), nil
}

// persist writes each classified outcome. Changed items get their recomputed
// fields and a counter reset, unchanged items only the reset, failures bump
// the consecutive error counter.
func (s *SupplierSyncService) persist(ctx context.Context, result *catalog.ClassificationResult) error {
	now := time.Now().UTC()

	for _, change := range result.Changed {
		err := s.items.ApplyChange(ctx, catalog.ItemChange{
			ItemID: change.ItemID,
			Price:  change.Price,
			Cost:   change.Cost,
			Profit: change.Profit,
			Stock:  change.Stock,
		}, now)
		if err != nil {
			return fmt.Errorf("sync: applying change for item %s: %w", change.ItemID, err)
		}
	}

	for _, id := range result.Unchanged {
		if err := s.items.MarkScraped(ctx, id, now); err != nil {
			return fmt.Errorf("sync: marking item %s scraped: %w", id, err)
		}
	}

	for _, failure := range result.Failed {
		if err := s.items.IncrementScrapeError(ctx, failure.ItemID, now); err != nil {
			return fmt.Errorf("sync: recording scrape failure for item %s: %w", failure.ItemID, err)
		}
		s.logger.Warn("scrape failed for item",
			zap.String("item_id", failure.ItemID.String()),
			zap.String("reason", failure.Reason))
	}

	return nil
}
