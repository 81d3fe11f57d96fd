package suppliers

import "github.com/relist/backend/internal/domain/scraping"

// AmazonExtractor extracts pricing fields from Amazon JP product pages.
type AmazonExtractor struct {
	baseExtractor
}

// NewAmazonExtractor creates the Amazon extractor.
func NewAmazonExtractor() *AmazonExtractor {
	return &AmazonExtractor{baseExtractor{
		supplier:     scraping.SupplierAmazon,
		waitSelector: "#corePrice_feature_div",
		price: []string{
			"#corePrice_feature_div span.a-price-whole",
			"#priceblock_ourprice",
			"#price_inside_buybox",
			".a-price .a-offscreen",
		},
		shipping: []string{
			"#deliveryBlockMessage .a-color-secondary",
			"#amazonGlobal_feature_div .a-color-secondary",
			"#ourprice_shippingmessage .a-color-secondary",
		},
		unavailable: []string{
			"#outOfStock",
			"#availability .a-color-price",
		},
		purchase: []string{
			"#add-to-cart-button",
			"#buy-now-button",
		},
	}}
}

// Ensure AmazonExtractor implements the extractor capability
var _ scraping.Extractor = (*AmazonExtractor)(nil)
