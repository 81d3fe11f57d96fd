package scraping

import "strings"

// Supplier identifies a supported supplier site.
type Supplier string

const (
	SupplierAmazon  Supplier = "amazon"
	SupplierRakuten Supplier = "rakuten"
	SupplierYahoo   Supplier = "yahoo"
	SupplierMercari Supplier = "mercari"
	// SupplierUnknown is returned when no prefix matches
	SupplierUnknown Supplier = ""
)

// String returns the string representation of Supplier.
func (s Supplier) String() string {
	return string(s)
}

// supplierPrefixes maps URL prefixes to suppliers. Order matters only for
// readability; prefixes are disjoint.
var supplierPrefixes = []struct {
	prefix   string
	supplier Supplier
}{
	{"https://www.amazon.co.jp/", SupplierAmazon},
	{"https://amazon.co.jp/", SupplierAmazon},
	{"https://item.rakuten.co.jp/", SupplierRakuten},
	{"https://store.shopping.yahoo.co.jp/", SupplierYahoo},
	{"https://paypaymall.yahoo.co.jp/", SupplierYahoo},
	{"https://jp.mercari.com/", SupplierMercari},
	{"https://www.mercari.com/jp/", SupplierMercari},
}

// DetectSupplier matches a supplier URL against the static prefix table.
// Returns SupplierUnknown when nothing matches; no navigation is attempted
// for such URLs.
func DetectSupplier(url string) Supplier {
	for _, entry := range supplierPrefixes {
		if strings.HasPrefix(url, entry.prefix) {
			return entry.supplier
		}
	}
	return SupplierUnknown
}
