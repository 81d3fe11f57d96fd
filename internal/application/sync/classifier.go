package sync

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/relist/backend/internal/domain/catalog"
	"github.com/relist/backend/internal/domain/pricing"
)

// Classifier partitions scrape observations against the catalog snapshot.
// Every observation lands in exactly one bucket; running the same inputs
// twice yields the same result.
type Classifier struct {
	calculator *pricing.Calculator
	rates      catalog.RateRepository
	logger     *zap.Logger
}

// NewClassifier creates a Classifier.
func NewClassifier(calculator *pricing.Calculator, rates catalog.RateRepository, logger *zap.Logger) *Classifier {
	return &Classifier{
		calculator: calculator,
		rates:      rates,
		logger:     logger,
	}
}

// Classify compares observations against the snapshot and partitions them
// into Changed, Unchanged and Failed. The snapshot must contain the items
// the observations refer to; observations for unknown items are Failed.
func (c *Classifier) Classify(ctx context.Context, snapshot []catalog.Item, observations []catalog.Observation) (*catalog.ClassificationResult, error) {
	rate, err := c.rates.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync: loading exchange rate: %w", err)
	}

	byID := make(map[uuid.UUID]*catalog.Item, len(snapshot))
	for i := range snapshot {
		byID[snapshot[i].ID] = &snapshot[i]
	}

	result := &catalog.ClassificationResult{}
	for _, obs := range observations {
		c.classifyOne(obs, byID[obs.ItemID], rate.Rate, result)
	}
	return result, nil
}

// classifyOne appends the observation to exactly one bucket.
func (c *Classifier) classifyOne(obs catalog.Observation, item *catalog.Item, fxRate decimal.Decimal, result *catalog.ClassificationResult) {
	if obs.Failed() {
		result.Failed = append(result.Failed, catalog.Failure{ItemID: obs.ItemID, Reason: obs.Err})
		return
	}
	if item == nil {
		result.Failed = append(result.Failed, catalog.Failure{
			ItemID: obs.ItemID,
			Reason: "item not in snapshot",
		})
		return
	}

	costChanged := !obs.Cost.Equal(item.SupplierCost)
	stockChanged := obs.Stock != item.Stock
	if !costChanged && !stockChanged {
		result.Unchanged = append(result.Unchanged, obs.ItemID)
		return
	}

	if !item.HasRateFields() {
		result.Failed = append(result.Failed, catalog.Failure{
			ItemID: obs.ItemID,
			Reason: catalog.ErrMissingRateFields.Error(),
		})
		return
	}

	price, err := c.calculator.ListingPrice(obs.Cost, item.Freight, item.ProfitRate, item.FeeRate, item.PromoteRate, fxRate)
	if err != nil {
		result.Failed = append(result.Failed, catalog.Failure{
			ItemID: obs.ItemID,
			Reason: fmt.Sprintf("pricing failed: %v", err),
		})
		return
	}
	profit, err := c.calculator.Profit(price, obs.Cost, item.Freight, item.FeeRate, item.PromoteRate, fxRate)
	if err != nil {
		result.Failed = append(result.Failed, catalog.Failure{
			ItemID: obs.ItemID,
			Reason: fmt.Sprintf("pricing failed: %v", err),
		})
		return
	}

	result.Changed = append(result.Changed, catalog.Change{
		ItemID: obs.ItemID,
		Price:  price,
		Cost:   obs.Cost,
		Profit: profit,
		Stock:  obs.Stock,
	})
}
