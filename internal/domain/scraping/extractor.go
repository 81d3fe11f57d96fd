package scraping

import "context"

// Extractor extracts the pricing fields from a loaded page of one supplier.
// Implementations hold ordered selector candidate lists; the first candidate
// producing non-empty, numeric-parseable text wins.
type Extractor interface {
	Supplier() Supplier

	// ExtractPrice returns the item price. Failing to find any candidate is
	// an error (ErrPriceNotFound): a page without a price is not comparable.
	ExtractPrice(ctx context.Context, page Page) (FieldResult, error)

	// ExtractShipping returns the shipping cost. A missing shipping element
	// is not an error; implementations return Found=false and callers
	// default to zero.
	ExtractShipping(ctx context.Context, page Page) (FieldResult, error)

	// ExtractStock returns boolean-coded availability (1 purchasable,
	// 0 not). Implementations check an explicit unavailable marker first,
	// then a purchase call-to-action; ambiguous pages code as 0.
	ExtractStock(ctx context.Context, page Page) (int, error)
}

// ExtractorRegistry dispatches extraction by detected supplier.
type ExtractorRegistry struct {
	extractors map[Supplier]Extractor
}

// NewExtractorRegistry builds a registry from the given extractors.
func NewExtractorRegistry(extractors ...Extractor) *ExtractorRegistry {
	m := make(map[Supplier]Extractor, len(extractors))
	for _, e := range extractors {
		m[e.Supplier()] = e
	}
	return &ExtractorRegistry{extractors: m}
}

// For returns the extractor for the supplier, or false if none registered.
func (r *ExtractorRegistry) For(supplier Supplier) (Extractor, bool) {
	e, ok := r.extractors[supplier]
	return e, ok
}
