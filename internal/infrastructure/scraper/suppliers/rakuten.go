package suppliers

import "github.com/relist/backend/internal/domain/scraping"

// RakutenExtractor extracts pricing fields from Rakuten Ichiba item pages.
type RakutenExtractor struct {
	baseExtractor
}

// NewRakutenExtractor creates the Rakuten extractor.
func NewRakutenExtractor() *RakutenExtractor {
	return &RakutenExtractor{baseExtractor{
		supplier:     scraping.SupplierRakuten,
		waitSelector: "#js-item-price, .price--OX_YW",
		price: []string{
			".price--OX_YW",
			"#js-item-price",
			"#priceCalculationConfig",
			"span.price2",
		},
		shipping: []string{
			".shipping--2SCJv",
			"span.postage",
			".item-postage",
		},
		unavailable: []string{
			".soldout--1TSZM",
			".item-soldout",
			"span.soldout_msg",
		},
		purchase: []string{
			".cart-button--3Vg1w",
			"button[class*='addToCart']",
			"#purchaseButton",
		},
	}}
}

// Ensure RakutenExtractor implements the extractor capability
var _ scraping.Extractor = (*RakutenExtractor)(nil)
