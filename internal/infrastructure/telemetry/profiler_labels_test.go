package telemetry_test

import (
	"context"
	"runtime/pprof"
	"strings"
	"testing"

	"github.com/relist/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labelsFromContext(ctx context.Context) map[string]string {
	labels := make(map[string]string)
	pprof.ForLabels(ctx, func(key, value string) bool {
		labels[key] = value
		return true
	})
	return labels
}

func TestWithProfilingLabels(t *testing.T) {
	t.Run("runs fn without labels for nil and empty maps", func(t *testing.T) {
		for _, labels := range []map[string]string{nil, {}} {
			called := false
			telemetry.WithProfilingLabels(context.Background(), labels, func(ctx context.Context) {
				called = true
				assert.Empty(t, labelsFromContext(ctx))
			})
			require.True(t, called)
		}
	})

	t.Run("attaches labels to the inner context", func(t *testing.T) {
		telemetry.WithProfilingLabels(context.Background(), map[string]string{
			telemetry.ProfilingLabelController: "SyncHandler",
			telemetry.ProfilingLabelMethod:     "POST",
			telemetry.ProfilingLabelRoute:      "/api/v1/sellers/:id/scrape",
		}, func(ctx context.Context) {
			got := labelsFromContext(ctx)
			assert.Equal(t, "SyncHandler", got["controller"])
			assert.Equal(t, "POST", got["method"])
			assert.Equal(t, "/api/v1/sellers/:id/scrape", got["route"])
		})
	})

	t.Run("drops high-cardinality labels", func(t *testing.T) {
		telemetry.WithProfilingLabels(context.Background(), map[string]string{
			telemetry.ProfilingLabelOperation: "listings_page_sync",
			"item_id":                         "3f2c9a",
			"request_id":                      "req-abc",
			"sku":                             "110001",
		}, func(ctx context.Context) {
			got := labelsFromContext(ctx)
			assert.Equal(t, "listings_page_sync", got["operation"])
			assert.NotContains(t, got, "item_id")
			assert.NotContains(t, got, "request_id")
			assert.NotContains(t, got, "sku")
		})
	})

	t.Run("truncates oversized values", func(t *testing.T) {
		telemetry.WithProfilingLabels(context.Background(), map[string]string{
			telemetry.ProfilingLabelRoute: strings.Repeat("x", 200),
		}, func(ctx context.Context) {
			assert.Len(t, labelsFromContext(ctx)["route"], 128)
		})
	})

	t.Run("normalizes keys to snake_case ascii", func(t *testing.T) {
		telemetry.WithProfilingLabels(context.Background(), map[string]string{
			"Sync Phase":  "classify",
			"queue-name":  "sync",
			"!!!":         "dropped entirely",
			"empty-value": "",
		}, func(ctx context.Context) {
			got := labelsFromContext(ctx)
			assert.Equal(t, "classify", got["sync_phase"])
			assert.Equal(t, "sync", got["queue_name"])
			assert.NotContains(t, got, "empty_value")
			assert.Len(t, got, 2)
		})
	})
}
