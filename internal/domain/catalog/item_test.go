package catalog

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestItem_Scrapeable(t *testing.T) {
	base := func() Item {
		return Item{
			ID:          uuid.New(),
			SupplierURL: "https://www.amazon.co.jp/dp/B000TEST",
			Status:      ItemStatusActive,
		}
	}

	t.Run("active item with URL qualifies", func(t *testing.T) {
		item := base()
		assert.True(t, item.Scrapeable())
	})

	t.Run("quarantined after repeated failures", func(t *testing.T) {
		item := base()
		item.ScrapeErrorCount = MaxScrapeErrors
		assert.False(t, item.Scrapeable())
	})

	t.Run("excluded without supplier URL", func(t *testing.T) {
		item := base()
		item.SupplierURL = ""
		assert.False(t, item.Scrapeable())
	})

	t.Run("excluded when ended", func(t *testing.T) {
		item := base()
		item.Status = ItemStatusEnded
		assert.False(t, item.Scrapeable())
	})
}

func TestItem_ScrapeBookkeeping(t *testing.T) {
	now := time.Now()
	item := Item{ScrapeErrorCount: 2}

	item.MarkScrapeFailed(now)
	assert.Equal(t, 3, item.ScrapeErrorCount)
	assert.Equal(t, now, *item.ScrapedAt)

	item.MarkScraped(now)
	assert.Equal(t, 0, item.ScrapeErrorCount)
}

func TestItem_HasRateFields(t *testing.T) {
	item := Item{
		ProfitRate: decimal.RequireFromString("0.15"),
		FeeRate:    decimal.RequireFromString("0.13"),
	}
	assert.True(t, item.HasRateFields())

	item.ProfitRate = decimal.Zero
	assert.False(t, item.HasRateFields())
}

func TestClassificationResult_Summary(t *testing.T) {
	result := ClassificationResult{
		Changed:   []Change{{ItemID: uuid.New()}},
		Unchanged: []uuid.UUID{uuid.New(), uuid.New()},
		Failed:    []Failure{{ItemID: uuid.New(), Reason: "timeout"}},
	}

	summary := result.Summary()
	assert.Equal(t, 1, summary.ChangedCount)
	assert.Equal(t, 2, summary.UnchangedCount)
	assert.Equal(t, 1, summary.FailedCount)
	assert.Equal(t, 4, result.Total())

	var total ClassificationSummary
	total.Add(summary)
	total.Add(summary)
	assert.Equal(t, 2, total.ChangedCount)
}
