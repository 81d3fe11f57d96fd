package pricing

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Pricing Errors
// ---------------------------------------------------------------------------

var (
	// ErrInvalidInput indicates a negative or otherwise out-of-range input
	ErrInvalidInput = errors.New("pricing: invalid input")
	// ErrRateOverflow indicates the combined rates leave no margin to price against
	ErrRateOverflow = errors.New("pricing: combined rates must be below 100%")
	// ErrNoFreightTiers indicates the calculator was built without a tier table
	ErrNoFreightTiers = errors.New("pricing: no freight tiers configured")
)

// ---------------------------------------------------------------------------
// Weight Tiers
// ---------------------------------------------------------------------------

// WeightTier maps a maximum chargeable weight to a base shipping price in the
// cost currency (JPY).
type WeightTier struct {
	MaxWeightKg decimal.Decimal
	BasePrice   decimal.Decimal
}

// DefaultWeightTiers returns the small-packet rate table used for
// international shipments, base prices in JPY before fuel surcharge.
func DefaultWeightTiers() []WeightTier {
	tier := func(kg string, price int64) WeightTier {
		return WeightTier{
			MaxWeightKg: decimal.RequireFromString(kg),
			BasePrice:   decimal.NewFromInt(price),
		}
	}
	return []WeightTier{
		tier("0.5", 2016),
		tier("0.75", 2247),
		tier("1.0", 2478),
		tier("1.5", 2940),
		tier("2.0", 3402),
		tier("2.5", 3864),
		tier("3.0", 4326),
		tier("4.0", 5250),
		tier("5.0", 6174),
		tier("6.0", 6805),
		tier("7.0", 7270),
		tier("8.0", 7735),
		tier("9.0", 8200),
		tier("10.0", 8665),
	}
}

// DefaultFuelSurchargeRate is the carrier fuel surcharge applied on top of
// the tier base price.
var DefaultFuelSurchargeRate = decimal.RequireFromString("0.30")

// ---------------------------------------------------------------------------
// Calculator
// ---------------------------------------------------------------------------

// Calculator derives listing prices, profits and freight costs. All methods
// are pure: no storage or network access, and no mutation of the receiver.
//
// Currency convention: cost and freight are in the supplier currency (JPY),
// the listing price is in the marketplace currency (USD), and fxRate is the
// amount of supplier currency one unit of marketplace currency buys
// (JPY per USD).
type Calculator struct {
	tiers         []WeightTier
	surchargeRate decimal.Decimal
}

// NewCalculator creates a Calculator with the given tier table and fuel
// surcharge rate. Tiers may be passed in any order.
func NewCalculator(tiers []WeightTier, surchargeRate decimal.Decimal) *Calculator {
	sorted := make([]WeightTier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MaxWeightKg.LessThan(sorted[j].MaxWeightKg)
	})
	return &Calculator{tiers: sorted, surchargeRate: surchargeRate}
}

// NewDefaultCalculator creates a Calculator with the default tier table and
// fuel surcharge.
func NewDefaultCalculator() *Calculator {
	return NewCalculator(DefaultWeightTiers(), DefaultFuelSurchargeRate)
}

// ListingPrice back-solves the marketplace price such that, after the
// marketplace fee, promotion fee and currency conversion, the seller nets
// the target profit rate on top of landed cost:
//
//	price = (cost + freight) / fxRate / (1 - feeRate - promoteRate - profitRate)
//
// The result is rounded to 2 decimal places. Increasing cost strictly
// increases the price; increasing any rate strictly increases it as well,
// since a larger share of the proceeds is consumed.
func (c *Calculator) ListingPrice(cost, freight, profitRate, feeRate, promoteRate, fxRate decimal.Decimal) (decimal.Decimal, error) {
	if err := requireNonNegative(cost, freight, profitRate, feeRate, promoteRate); err != nil {
		return decimal.Zero, err
	}
	if fxRate.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("%w: exchange rate must be positive, got %s", ErrInvalidInput, fxRate)
	}
	margin := decimal.NewFromInt(1).Sub(feeRate).Sub(promoteRate).Sub(profitRate)
	if margin.Sign() <= 0 {
		return decimal.Zero, ErrRateOverflow
	}
	price := cost.Add(freight).Div(fxRate).Div(margin)
	return price.Round(2), nil
}

// Profit computes the seller's profit in the supplier currency for a given
// listing price:
//
//	profit = price * (1 - feeRate - promoteRate) * fxRate - cost - freight
//
// rounded to whole units (yen). It is the inverse of ListingPrice: pricing
// at the back-solved value yields a profit of approximately
// profitRate * price * fxRate.
func (c *Calculator) Profit(price, cost, freight, feeRate, promoteRate, fxRate decimal.Decimal) (decimal.Decimal, error) {
	if err := requireNonNegative(price, cost, freight, feeRate, promoteRate); err != nil {
		return decimal.Zero, err
	}
	if fxRate.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("%w: exchange rate must be positive, got %s", ErrInvalidInput, fxRate)
	}
	fees := feeRate.Add(promoteRate)
	if fees.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Zero, ErrRateOverflow
	}
	proceeds := price.Mul(decimal.NewFromInt(1).Sub(fees)).Mul(fxRate)
	return proceeds.Sub(cost).Sub(freight).Round(0), nil
}

// Freight looks up the smallest tier whose maximum weight covers weightKg
// and applies the fuel surcharge. Weights beyond the table fall back to the
// largest tier.
func (c *Calculator) Freight(weightKg decimal.Decimal) (decimal.Decimal, error) {
	if weightKg.Sign() < 0 {
		return decimal.Zero, fmt.Errorf("%w: weight must not be negative, got %s", ErrInvalidInput, weightKg)
	}
	if len(c.tiers) == 0 {
		return decimal.Zero, ErrNoFreightTiers
	}
	base := c.tiers[len(c.tiers)-1].BasePrice
	for _, t := range c.tiers {
		if t.MaxWeightKg.GreaterThanOrEqual(weightKg) {
			base = t.BasePrice
			break
		}
	}
	return base.Mul(decimal.NewFromInt(1).Add(c.surchargeRate)), nil
}

func requireNonNegative(values ...decimal.Decimal) error {
	for _, v := range values {
		if v.Sign() < 0 {
			return fmt.Errorf("%w: negative value %s", ErrInvalidInput, v)
		}
	}
	return nil
}
