package types

// CartLine is one distinct purchasable item in the active cart. JSON tags
// match the storefront's persisted wire format, which older readers still
// consume through the legacy mirror keys.
type CartLine struct {
	ItemID    string  `json:"itemId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
	Notes     string  `json:"notes"`
}

// Promo is a discount code and its resolved rate, persisted independently
// of cart contents.
type Promo struct {
	Code         string  `json:"code"`
	DiscountRate float64 `json:"discountRate"`
}

// PricingSnapshot is the float rendition of a pricing breakdown, used on
// the wire and inside persisted orders. It is always derived, never
// mutated in place.
type PricingSnapshot struct {
	Subtotal      float64 `json:"subtotal"`
	PromoDiscount float64 `json:"promoDiscount"`
	ServiceFee    float64 `json:"serviceFee"`
	DeliveryFee   float64 `json:"deliveryFee"`
	Tax           float64 `json:"tax"`
	Total         float64 `json:"total"`
}
