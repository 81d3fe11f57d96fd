package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Scrape Observations
// ---------------------------------------------------------------------------

// Observation is the ephemeral result of scraping one item's supplier page.
// It is produced by the scraper engine, consumed once by classification, and
// never persisted as-is.
type Observation struct {
	ItemID uuid.UUID
	// Cost is the observed landed cost (price plus shipping) in the supplier
	// currency; zero when Err is set.
	Cost decimal.Decimal
	// Stock is boolean-coded availability: 1 purchasable, 0 not.
	Stock int
	// Err holds the scrape failure reason, empty on success.
	Err string
}

// Failed reports whether the observation carries a scrape error.
func (o Observation) Failed() bool {
	return o.Err != ""
}

// ---------------------------------------------------------------------------
// Classification Labels
// ---------------------------------------------------------------------------

// Label is the classification outcome for one observation.
type Label string

const (
	LabelChanged   Label = "changed"
	LabelUnchanged Label = "unchanged"
	LabelFailed    Label = "failed"
)

// Change is a classified observation whose supplier state differed from the
// catalog, with the re-derived pricing fields.
type Change struct {
	ItemID uuid.UUID
	Price  decimal.Decimal
	Cost   decimal.Decimal
	Profit decimal.Decimal
	Stock  int
}

// Failure is a classified observation that could not be compared.
type Failure struct {
	ItemID uuid.UUID
	Reason string
}

// ClassificationResult partitions a set of observations. Every input
// observation appears in exactly one of the three buckets.
type ClassificationResult struct {
	Changed   []Change
	Unchanged []uuid.UUID
	Failed    []Failure
}

// Summary condenses the result into counters for the run report.
func (r *ClassificationResult) Summary() ClassificationSummary {
	return ClassificationSummary{
		ChangedCount:   len(r.Changed),
		UnchangedCount: len(r.Unchanged),
		FailedCount:    len(r.Failed),
	}
}

// Total returns the number of classified observations.
func (r *ClassificationResult) Total() int {
	return len(r.Changed) + len(r.Unchanged) + len(r.Failed)
}

// ClassificationSummary is the per-run classification report.
type ClassificationSummary struct {
	ChangedCount   int `json:"changed_count"`
	UnchangedCount int `json:"unchanged_count"`
	FailedCount    int `json:"failed_count"`
}

// Add accumulates another summary into the receiver.
func (s *ClassificationSummary) Add(other ClassificationSummary) {
	s.ChangedCount += other.ChangedCount
	s.UnchangedCount += other.UnchangedCount
	s.FailedCount += other.FailedCount
}
