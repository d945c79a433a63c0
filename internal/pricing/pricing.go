// Package pricing derives the priced total for a cart. It is pure and
// deterministic given (items, promo); nothing in here is stored.
package pricing

import (
	"math"
	"strings"

	"github.com/oceanbites/oceanbites-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// MaxDiscountRate is the hard safety ceiling applied to every promo rate,
// wherever it came from.
const MaxDiscountRate = 0.5

var (
	serviceFeeRate  = decimal.NewFromFloat(0.08)
	serviceFeeMin   = decimal.NewFromFloat(1.25)
	serviceFeeMax   = decimal.NewFromFloat(3.50)
	deliveryFeeFlat = decimal.NewFromFloat(2.99)
	taxRate         = decimal.NewFromFloat(0.0825)
)

// promoTable is the static promo catalog. Resolution is a pure lookup;
// there is no live validation.
var promoTable = map[string]float64{
	"OCEAN10":  0.10,
	"SHIPFREE": 0.06,
}

// Resolve normalizes a raw promo code and looks it up. Unknown codes keep
// the normalized code with a zero rate so the storefront can report them
// as invalid instead of silently discarding input.
func Resolve(raw string) types.Promo {
	code := strings.ToUpper(strings.TrimSpace(raw))
	return types.Promo{Code: code, DiscountRate: ClampRate(promoTable[code])}
}

// ClampRate forces a discount rate into [0, MaxDiscountRate]. Applied on
// every load and assignment regardless of source.
func ClampRate(rate float64) float64 {
	if math.IsNaN(rate) || rate < 0 {
		return 0
	}
	if rate > MaxDiscountRate {
		return MaxDiscountRate
	}
	return rate
}

// Breakdown is the derived pricing result. All arithmetic is exact
// decimal; rounding to currency minor units is the presentation layer's
// job and never feeds back into stored numbers.
type Breakdown struct {
	Subtotal      decimal.Decimal
	PromoDiscount decimal.Decimal
	ServiceFee    decimal.Decimal
	DeliveryFee   decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
}

// Quote prices the cart. Tax applies after the discount so discounted
// value is never taxed. An empty cart yields all zeros.
func Quote(items []types.CartLine, promo types.Promo) Breakdown {
	subtotal := decimal.Zero
	for _, line := range items {
		qty := decimal.NewFromInt(int64(line.Quantity))
		subtotal = subtotal.Add(dec(line.UnitPrice).Mul(qty))
	}

	discount := subtotal.Mul(dec(ClampRate(promo.DiscountRate)))

	serviceFee := decimal.Zero
	deliveryFee := decimal.Zero
	if subtotal.IsPositive() {
		serviceFee = clampDecimal(subtotal.Mul(serviceFeeRate), serviceFeeMin, serviceFeeMax)
		deliveryFee = deliveryFeeFlat
	}

	taxable := subtotal.Sub(discount)
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}
	tax := taxable.Mul(taxRate)

	total := subtotal.Sub(discount).Add(serviceFee).Add(deliveryFee).Add(tax)

	return Breakdown{
		Subtotal:      subtotal,
		PromoDiscount: discount,
		ServiceFee:    serviceFee,
		DeliveryFee:   deliveryFee,
		Tax:           tax,
		Total:         total,
	}
}

// Snapshot renders the breakdown as wire-format floats.
func (b Breakdown) Snapshot() types.PricingSnapshot {
	return types.PricingSnapshot{
		Subtotal:      b.Subtotal.InexactFloat64(),
		PromoDiscount: b.PromoDiscount.InexactFloat64(),
		ServiceFee:    b.ServiceFee.InexactFloat64(),
		DeliveryFee:   b.DeliveryFee.InexactFloat64(),
		Tax:           b.Tax.InexactFloat64(),
		Total:         b.Total.InexactFloat64(),
	}
}

// ItemsCount is the sum of line quantities.
func ItemsCount(items []types.CartLine) int {
	count := 0
	for _, line := range items {
		count += line.Quantity
	}
	return count
}

func clampDecimal(v, min, max decimal.Decimal) decimal.Decimal {
	if v.LessThan(min) {
		return min
	}
	if v.GreaterThan(max) {
		return max
	}
	return v
}

// dec converts a wire float defensively; non-finite input prices as zero.
func dec(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}
