package cart

// AddItemRequest is the candidate line posted by the storefront.
type AddItemRequest struct {
	ItemID    string  `json:"itemId" validate:"required"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice" validate:"gte=0"`
	Notes     string  `json:"notes"`
}

// ApplyPromoRequest carries the raw promo code; normalization happens in
// the pricing table lookup.
type ApplyPromoRequest struct {
	Code string `json:"code" validate:"required"`
}
