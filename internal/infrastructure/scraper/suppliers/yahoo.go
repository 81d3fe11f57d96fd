package suppliers

import "github.com/relist/backend/internal/domain/scraping"

// YahooExtractor extracts pricing fields from Yahoo! Shopping store pages.
type YahooExtractor struct {
	baseExtractor
}

// NewYahooExtractor creates the Yahoo Shopping extractor.
func NewYahooExtractor() *YahooExtractor {
	return &YahooExtractor{baseExtractor{
		supplier:     scraping.SupplierYahoo,
		waitSelector: ".mdItemPrice",
		price: []string{
			".mdItemPrice .elPriceNumber",
			"#itmPrice",
			".elPriceValue",
		},
		shipping: []string{
			".mdDelivery .elPostage",
			".elShipping",
		},
		unavailable: []string{
			".mdSoldOut",
			".elOutOfStock",
		},
		purchase: []string{
			"#CartButtonUltLog",
			".elCartButton",
		},
	}}
}

// Ensure YahooExtractor implements the extractor capability
var _ scraping.Extractor = (*YahooExtractor)(nil)
