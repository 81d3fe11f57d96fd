package sync

import (
	"context"

	"github.com/google/uuid"

	"github.com/relist/backend/internal/domain/catalog"
)

// PipelineMetrics receives pipeline counters from the sync services. The
// telemetry package provides the real implementation; services treat a nil
// sink as disabled.
type PipelineMetrics interface {
	RecordClassification(ctx context.Context, sellerID uuid.UUID, outcome string)
	RecordPageImported(ctx context.Context, sellerID uuid.UUID, listings int)
	RecordListingsRevised(ctx context.Context, sellerID uuid.UUID, count int)
	RecordTokenRefresh(ctx context.Context, sellerID uuid.UUID)
}

// Classification outcomes as recorded on the classification counter.
const (
	OutcomeChanged   = "changed"
	OutcomeUnchanged = "unchanged"
	OutcomeFailed    = "failed"
)

// recordClassifications emits one counter increment per classified item.
func recordClassifications(ctx context.Context, metrics PipelineMetrics, sellerID uuid.UUID, summary catalog.ClassificationSummary) {
	if metrics == nil {
		return
	}
	for i := 0; i < summary.ChangedCount; i++ {
		metrics.RecordClassification(ctx, sellerID, OutcomeChanged)
	}
	for i := 0; i < summary.UnchangedCount; i++ {
		metrics.RecordClassification(ctx, sellerID, OutcomeUnchanged)
	}
	for i := 0; i < summary.FailedCount; i++ {
		metrics.RecordClassification(ctx, sellerID, OutcomeFailed)
	}
}
