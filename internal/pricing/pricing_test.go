package pricing

import (
	"math"
	"testing"

	"github.com/oceanbites/oceanbites-backend/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestQuoteWithoutPromo(t *testing.T) {
	t.Parallel()

	items := []types.CartLine{{ItemID: "grilled-salmon", UnitPrice: 10, Quantity: 2}}
	b := Quote(items, types.Promo{})

	requireDecimal(t, "20", b.Subtotal)
	requireDecimal(t, "0", b.PromoDiscount)
	requireDecimal(t, "1.6", b.ServiceFee)
	requireDecimal(t, "2.99", b.DeliveryFee)
	requireDecimal(t, "1.65", b.Tax)
	requireDecimal(t, "26.24", b.Total)
}

func TestQuoteWithOcean10(t *testing.T) {
	t.Parallel()

	items := []types.CartLine{{ItemID: "grilled-salmon", UnitPrice: 10, Quantity: 2}}
	b := Quote(items, Resolve("ocean10"))

	requireDecimal(t, "2", b.PromoDiscount)
	requireDecimal(t, "1.485", b.Tax)
	requireDecimal(t, "23.575", b.Total)
}

func TestQuoteEmptyCartIsAllZeros(t *testing.T) {
	t.Parallel()

	b := Quote(nil, Resolve("OCEAN10"))

	requireDecimal(t, "0", b.Subtotal)
	requireDecimal(t, "0", b.PromoDiscount)
	requireDecimal(t, "0", b.ServiceFee)
	requireDecimal(t, "0", b.DeliveryFee)
	requireDecimal(t, "0", b.Tax)
	requireDecimal(t, "0", b.Total)
}

func TestServiceFeeClamps(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		subtotal float64
		fee      string
	}{
		{name: "below minimum", subtotal: 10, fee: "1.25"},
		{name: "within band", subtotal: 30, fee: "2.4"},
		{name: "above maximum", subtotal: 100, fee: "3.5"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			items := []types.CartLine{{ItemID: "x", UnitPrice: tc.subtotal, Quantity: 1}}
			b := Quote(items, types.Promo{})
			requireDecimal(t, tc.fee, b.ServiceFee)
		})
	}
}

func TestResolveNormalizesAndPreservesUnknownCodes(t *testing.T) {
	t.Parallel()

	promo := Resolve("  shipfree ")
	require.Equal(t, "SHIPFREE", promo.Code)
	require.InDelta(t, 0.06, promo.DiscountRate, 1e-12)

	unknown := Resolve(" bogus ")
	require.Equal(t, "BOGUS", unknown.Code)
	require.Zero(t, unknown.DiscountRate)
}

func TestClampRateBounds(t *testing.T) {
	t.Parallel()

	require.Equal(t, 0.0, ClampRate(-0.2))
	require.Equal(t, 0.5, ClampRate(0.9))
	require.Equal(t, 0.1, ClampRate(0.1))
	require.Equal(t, 0.0, ClampRate(math.NaN()))
}

func TestDiscountNeverTaxedAndNeverNegative(t *testing.T) {
	t.Parallel()

	// A directly constructed over-limit rate still clamps to 50%.
	items := []types.CartLine{{ItemID: "x", UnitPrice: 40, Quantity: 1}}
	b := Quote(items, types.Promo{Code: "RIGGED", DiscountRate: 0.9})

	requireDecimal(t, "20", b.PromoDiscount)
	requireDecimal(t, "1.65", b.Tax) // 8.25% of 20, not of 40
	require.False(t, b.Total.IsNegative())
}

func TestItemsCountSumsQuantities(t *testing.T) {
	t.Parallel()

	items := []types.CartLine{
		{ItemID: "a", Quantity: 2},
		{ItemID: "b", Quantity: 3},
	}
	require.Equal(t, 5, ItemsCount(items))
	require.Equal(t, 0, ItemsCount(nil))
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	expected := decimal.RequireFromString(want)
	if !expected.Equal(got) {
		t.Fatalf("expected %s, got %s", expected, got)
	}
}
