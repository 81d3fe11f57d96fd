package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCalculator_Freight(t *testing.T) {
	calc := NewDefaultCalculator()

	t.Run("looks up the smallest covering tier", func(t *testing.T) {
		cases := []struct {
			weight string
			base   int64
		}{
			{"0.5", 2016},
			{"1.0", 2478},
			{"10.0", 8665},
			{"0.3", 2016},  // below the first tier
			{"1.2", 2940},  // rounds up to the 1.5kg tier
		}
		for _, tc := range cases {
			got, err := calc.Freight(d(tc.weight))
			require.NoError(t, err)
			want := decimal.NewFromInt(tc.base).Mul(d("1.30"))
			assert.True(t, want.Equal(got), "weight %s: want %s got %s", tc.weight, want, got)
		}
	})

	t.Run("falls back to the largest tier for overweight items", func(t *testing.T) {
		heavy, err := calc.Freight(d("12.0"))
		require.NoError(t, err)
		max, err := calc.Freight(d("10.0"))
		require.NoError(t, err)
		assert.True(t, heavy.Equal(max))
	})

	t.Run("rejects negative weight", func(t *testing.T) {
		_, err := calc.Freight(d("-1"))
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("fails without a tier table", func(t *testing.T) {
		empty := NewCalculator(nil, DefaultFuelSurchargeRate)
		_, err := empty.Freight(d("1.0"))
		assert.ErrorIs(t, err, ErrNoFreightTiers)
	})

	t.Run("accepts tiers in any order", func(t *testing.T) {
		calc := NewCalculator([]WeightTier{
			{MaxWeightKg: d("2.0"), BasePrice: d("300")},
			{MaxWeightKg: d("1.0"), BasePrice: d("100")},
		}, decimal.Zero)
		got, err := calc.Freight(d("0.8"))
		require.NoError(t, err)
		assert.True(t, d("100").Equal(got))
	})
}

func TestCalculator_ListingPrice(t *testing.T) {
	calc := NewDefaultCalculator()

	t.Run("back-solves the target currency price", func(t *testing.T) {
		// (10000 + 2620.8) / 150 / (1 - 0.13 - 0.02 - 0.15) = 120.19809...
		price, err := calc.ListingPrice(d("10000"), d("2620.8"), d("0.15"), d("0.13"), d("0.02"), d("150"))
		require.NoError(t, err)
		assert.True(t, d("120.20").Equal(price), "got %s", price)
	})

	t.Run("is strictly increasing in cost", func(t *testing.T) {
		low, err := calc.ListingPrice(d("5000"), d("2000"), d("0.15"), d("0.13"), d("0.02"), d("150"))
		require.NoError(t, err)
		high, err := calc.ListingPrice(d("5001"), d("2000"), d("0.15"), d("0.13"), d("0.02"), d("150"))
		require.NoError(t, err)
		assert.True(t, high.GreaterThan(low))
	})

	t.Run("rejects negative inputs", func(t *testing.T) {
		_, err := calc.ListingPrice(d("-1"), d("0"), d("0.1"), d("0.1"), d("0"), d("150"))
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("rejects non-positive exchange rate", func(t *testing.T) {
		_, err := calc.ListingPrice(d("100"), d("0"), d("0.1"), d("0.1"), d("0"), d("0"))
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("rejects rates that consume the full price", func(t *testing.T) {
		_, err := calc.ListingPrice(d("100"), d("0"), d("0.5"), d("0.4"), d("0.1"), d("150"))
		assert.ErrorIs(t, err, ErrRateOverflow)
	})
}

func TestCalculator_Profit(t *testing.T) {
	calc := NewDefaultCalculator()

	t.Run("computes profit in the cost currency", func(t *testing.T) {
		// 120.20 * 0.85 * 150 - 10000 - 2620.8 = 2704.7 -> 2705
		profit, err := calc.Profit(d("120.20"), d("10000"), d("2620.8"), d("0.13"), d("0.02"), d("150"))
		require.NoError(t, err)
		assert.True(t, d("2705").Equal(profit), "got %s", profit)
	})

	t.Run("round-trips with ListingPrice within tolerance", func(t *testing.T) {
		cost, freight, fx := d("10000"), d("2620.8"), d("150")
		profitRate, feeRate, promoteRate := d("0.15"), d("0.13"), d("0.02")

		price, err := calc.ListingPrice(cost, freight, profitRate, feeRate, promoteRate, fx)
		require.NoError(t, err)
		profit, err := calc.Profit(price, cost, freight, feeRate, promoteRate, fx)
		require.NoError(t, err)

		// The netted profit should equal profitRate of converted proceeds,
		// up to rounding of the price to cents and the profit to yen.
		want := price.Mul(profitRate).Mul(fx)
		tolerance := fx // one cent of price rounding, converted
		assert.True(t, profit.Sub(want).Abs().LessThanOrEqual(tolerance),
			"profit %s deviates from target %s", profit, want)
	})

	t.Run("is strictly decreasing in fee rate for a fixed price", func(t *testing.T) {
		base, err := calc.Profit(d("100"), d("5000"), d("2000"), d("0.10"), d("0.02"), d("150"))
		require.NoError(t, err)
		higher, err := calc.Profit(d("100"), d("5000"), d("2000"), d("0.12"), d("0.02"), d("150"))
		require.NoError(t, err)
		assert.True(t, higher.LessThan(base))
	})

	t.Run("rejects fees of 100% or more", func(t *testing.T) {
		_, err := calc.Profit(d("100"), d("0"), d("0"), d("0.7"), d("0.3"), d("150"))
		assert.ErrorIs(t, err, ErrRateOverflow)
	})
}
