package models

import "time"

// CartLine is a single entry of a customer's cart. Prices are resolved at
// quote time, never stored on the cart itself.
type CartLine struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// Cart is the ephemeral, per-customer cart. It lives server-side only and is
// destroyed on checkout or explicit clear.
type Cart struct {
	CustomerID string     `json:"customer_id"`
	Lines      []CartLine `json:"lines"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// CalculatedLine is one priced cart line of a quote. Amounts are in paise.
type CalculatedLine struct {
	ProductID    string `json:"product_id"`
	VendorID     string `json:"vendor_id"`
	Title        string `json:"title"`
	SKU          string `json:"sku"`
	Quantity     int    `json:"quantity"`
	PricePerUnit int64  `json:"price_per_unit"`
	TotalPrice   int64  `json:"total_price"`
	Tax          int64  `json:"tax"`
}

// OrderCalculation is the server-computed quote for a cart snapshot. It is
// never persisted; order creation recomputes it from live catalog state.
type OrderCalculation struct {
	Lines        []CalculatedLine `json:"lines"`
	Subtotal     int64            `json:"subtotal"`
	ShippingCost int64            `json:"shipping_cost"`
	Tax          int64            `json:"tax"`
	Total        int64            `json:"total"`
}
