package services

import (
	"errors"
	"fmt"

	"pasar/internal/models"
	"pasar/internal/repositories"
)

// CartService manages the ephemeral per-customer cart. Prices are never
// stored on the cart; quoting resolves them fresh.
type CartService struct {
	cartStore   *repositories.CartStore
	productRepo repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(cartStore *repositories.CartStore, productRepo repositories.ProductRepository) *CartService {
	return &CartService{
		cartStore:   cartStore,
		productRepo: productRepo,
	}
}

// GetCart returns the customer's current cart.
func (s *CartService) GetCart(customerID string) models.Cart {
	return s.cartStore.Get(customerID)
}

// AddLine adds a product to the cart, verifying the product still exists.
// Stock and minimum-quantity checks happen at quote and checkout time, when
// they are authoritative.
func (s *CartService) AddLine(customerID string, line models.CartLine) (models.Cart, error) {
	if line.Quantity <= 0 {
		return models.Cart{}, fmt.Errorf("quantity must be positive")
	}
	if _, err := s.productRepo.GetByID(line.ProductID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Cart{}, fmt.Errorf("product %s is no longer available: %w", line.ProductID, ErrOutOfStock)
		}
		return models.Cart{}, err
	}
	return s.cartStore.AddLine(customerID, line), nil
}

// SetQuantity replaces the quantity of a cart line.
func (s *CartService) SetQuantity(customerID, productID string, qty int) (models.Cart, error) {
	if qty <= 0 {
		return models.Cart{}, fmt.Errorf("quantity must be positive")
	}
	return s.cartStore.SetQuantity(customerID, productID, qty)
}

// RemoveLine deletes a product line from the cart.
func (s *CartService) RemoveLine(customerID, productID string) (models.Cart, error) {
	return s.cartStore.RemoveLine(customerID, productID)
}

// ClearCart destroys the customer's cart.
func (s *CartService) ClearCart(customerID string) {
	s.cartStore.Clear(customerID)
}
