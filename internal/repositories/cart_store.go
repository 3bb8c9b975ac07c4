package repositories

import (
	"fmt"
	"sync"
	"time"

	"pasar/internal/models"
)

// CartStore holds the ephemeral per-customer carts. Carts are never
// persisted; checkout or an explicit clear destroys them. The mutex-guarded
// map mirrors the mock repositories since cart state has no durability
// requirement.
type CartStore struct {
	carts map[string]models.Cart
	mu    sync.RWMutex
}

// NewCartStore creates an empty CartStore.
func NewCartStore() *CartStore {
	return &CartStore{
		carts: make(map[string]models.Cart),
	}
}

// Get returns the customer's cart, empty if none exists yet.
func (s *CartStore) Get(customerID string) models.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cart, ok := s.carts[customerID]
	if !ok {
		return models.Cart{CustomerID: customerID}
	}
	lines := make([]models.CartLine, len(cart.Lines))
	copy(lines, cart.Lines)
	cart.Lines = lines
	return cart
}

// AddLine adds a product to the cart, merging quantities if it is already present.
func (s *CartStore) AddLine(customerID string, line models.CartLine) models.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.carts[customerID]
	cart.CustomerID = customerID
	merged := false
	for i := range cart.Lines {
		if cart.Lines[i].ProductID == line.ProductID {
			cart.Lines[i].Quantity += line.Quantity
			merged = true
			break
		}
	}
	if !merged {
		cart.Lines = append(cart.Lines, line)
	}
	cart.UpdatedAt = time.Now()
	s.carts[customerID] = cart
	return cart
}

// SetQuantity replaces the quantity of an existing cart line.
func (s *CartStore) SetQuantity(customerID, productID string, qty int) (models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[customerID]
	if !ok {
		return models.Cart{}, fmt.Errorf("cart line for product %s: %w", productID, ErrNotFound)
	}
	for i := range cart.Lines {
		if cart.Lines[i].ProductID == productID {
			cart.Lines[i].Quantity = qty
			cart.UpdatedAt = time.Now()
			s.carts[customerID] = cart
			return cart, nil
		}
	}
	return models.Cart{}, fmt.Errorf("cart line for product %s: %w", productID, ErrNotFound)
}

// RemoveLine deletes one product line from the cart.
func (s *CartStore) RemoveLine(customerID, productID string) (models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[customerID]
	if !ok {
		return models.Cart{}, fmt.Errorf("cart line for product %s: %w", productID, ErrNotFound)
	}
	for i := range cart.Lines {
		if cart.Lines[i].ProductID == productID {
			cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
			cart.UpdatedAt = time.Now()
			s.carts[customerID] = cart
			return cart, nil
		}
	}
	return models.Cart{}, fmt.Errorf("cart line for product %s: %w", productID, ErrNotFound)
}

// Clear destroys the customer's cart.
func (s *CartStore) Clear(customerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, customerID)
}
