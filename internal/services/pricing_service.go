package services

import (
	"errors"
	"fmt"

	"pasar/internal/models"
	"pasar/internal/repositories"

	"github.com/shopspring/decimal"
)

// ShippingPolicy computes the cart-level shipping cost in paise from the
// order subtotal and total item quantity.
type ShippingPolicy func(subtotal int64, totalQty int) int64

// ThresholdShipping charges a flat fee below the free-shipping threshold.
// A zero threshold disables free shipping entirely.
func ThresholdShipping(flat, freeAbove int64) ShippingPolicy {
	return func(subtotal int64, totalQty int) int64 {
		if freeAbove > 0 && subtotal >= freeAbove {
			return 0
		}
		return flat
	}
}

var oneHundred = decimal.NewFromInt(100)

// PricingService resolves authoritative order totals from live catalog
// state. Quotes are computed fresh on every call and never cached; order
// creation re-invokes it so client-supplied amounts are never trusted.
type PricingService struct {
	productRepo repositories.ProductRepository
	shipping    ShippingPolicy
}

// NewPricingService creates a new PricingService.
func NewPricingService(productRepo repositories.ProductRepository, shipping ShippingPolicy) *PricingService {
	return &PricingService{
		productRepo: productRepo,
		shipping:    shipping,
	}
}

// Quote prices every cart line against the current catalog: tier-resolved
// unit prices, per-product tax, and the cart-level shipping policy.
// It fails with ErrOutOfStock or ErrBelowMinOrderQty when any line can no
// longer be fulfilled.
func (s *PricingService) Quote(lines []models.CartLine) (*models.OrderCalculation, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	calc := &models.OrderCalculation{}
	totalQty := 0

	for _, line := range lines {
		product, err := s.productRepo.GetByID(line.ProductID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				// A removed product can no longer be bought.
				return nil, fmt.Errorf("product %s is no longer available: %w", line.ProductID, ErrOutOfStock)
			}
			return nil, fmt.Errorf("failed to load product %s: %w", line.ProductID, err)
		}

		minQty := product.MinOrderQty
		if minQty < 1 {
			minQty = 1
		}
		if line.Quantity < minQty {
			return nil, fmt.Errorf("product %s requires at least %d units: %w", product.Name, minQty, ErrBelowMinOrderQty)
		}
		if line.Quantity > product.Stock {
			return nil, fmt.Errorf("product %s has %d units left (requested %d): %w", product.Name, product.Stock, line.Quantity, ErrOutOfStock)
		}

		unitPrice := product.UnitPriceFor(line.Quantity)
		lineTotal := unitPrice * int64(line.Quantity)
		lineTax := taxFor(lineTotal, product.TaxPercent)

		calc.Lines = append(calc.Lines, models.CalculatedLine{
			ProductID:    product.ID,
			VendorID:     product.VendorID,
			Title:        product.Name,
			SKU:          product.SKU,
			Quantity:     line.Quantity,
			PricePerUnit: unitPrice,
			TotalPrice:   lineTotal,
			Tax:          lineTax,
		})
		calc.Subtotal += lineTotal
		calc.Tax += lineTax
		totalQty += line.Quantity
	}

	calc.ShippingCost = s.shipping(calc.Subtotal, totalQty)
	calc.Total = calc.Subtotal + calc.ShippingCost + calc.Tax
	return calc, nil
}

// taxFor applies the product's tax percentage to a paise amount, rounding
// half away from zero back to whole paise.
func taxFor(amount int64, percent decimal.Decimal) int64 {
	if percent.IsZero() {
		return 0
	}
	return decimal.NewFromInt(amount).Mul(percent).Div(oneHundred).Round(0).IntPart()
}
