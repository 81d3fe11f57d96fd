package suppliers

import "github.com/relist/backend/internal/domain/scraping"

// MercariExtractor extracts pricing fields from Mercari item pages. Mercari
// prices include shipping for most listings, so the shipping candidates
// rarely match and default the field to zero.
type MercariExtractor struct {
	baseExtractor
}

// NewMercariExtractor creates the Mercari extractor.
func NewMercariExtractor() *MercariExtractor {
	return &MercariExtractor{baseExtractor{
		supplier:     scraping.SupplierMercari,
		waitSelector: "[data-testid='price']",
		price: []string{
			"[data-testid='price']",
			".item-price",
			"#item-info .price",
		},
		shipping: []string{
			"[data-testid='shipping-fee']",
		},
		unavailable: []string{
			"[data-testid='sold-out-badge']",
			".item-sold-out-badge",
		},
		purchase: []string{
			"[data-testid='checkout-button']",
			".checkout-button",
		},
	}}
}

// Ensure MercariExtractor implements the extractor capability
var _ scraping.Extractor = (*MercariExtractor)(nil)
