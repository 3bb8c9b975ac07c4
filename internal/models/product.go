package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PriceTier is a quantity-based price break attached to a product.
// The tier with the greatest MinQty not exceeding the requested quantity applies.
type PriceTier struct {
	ID           string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID    string `json:"product_id" gorm:"index;type:varchar(36)"`
	MinQty       int    `json:"min_qty" validate:"required,gt=0"`
	PricePerUnit int64  `json:"price_per_unit" validate:"required,gt=0"` // paise
}

// Product represents a catalog product. All prices are in paise.
type Product struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	VendorID    string          `json:"vendor_id" gorm:"index;type:varchar(36)" validate:"required"`
	Name        string          `json:"name" validate:"required,min=3,max=100"`
	SKU         string          `json:"sku" gorm:"type:varchar(64)"`
	Description string          `json:"description" validate:"omitempty,max=500"`
	Price       int64           `json:"price" validate:"required,gt=0"` // base unit price, paise
	TaxPercent  decimal.Decimal `json:"tax_percent" gorm:"type:numeric(5,2)"`
	MinOrderQty int             `json:"min_order_qty" validate:"gte=1"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Tiers       []PriceTier     `json:"tiers,omitempty" gorm:"foreignKey:ProductID"`
	gorm.Model  `json:"-"`
}

// UnitPriceFor resolves the effective unit price for the given quantity
// under the tier rule. Falls back to the base price when no tier qualifies.
func (p *Product) UnitPriceFor(qty int) int64 {
	price := p.Price
	bestMin := 0
	for _, t := range p.Tiers {
		if t.MinQty <= qty && t.MinQty > bestMin {
			bestMin = t.MinQty
			price = t.PricePerUnit
		}
	}
	return price
}
