package repositories

import (
	"errors"

	"pasar/internal/models"
)

// Sentinel errors shared by all repository implementations.
var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrInsufficientStock is returned when a stock reservation cannot be satisfied.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrConflict is returned when a compare-and-swap write lost to a concurrent writer.
	ErrConflict = errors.New("conflicting concurrent update")
)

// ProductRepository defines the interface for product data access.
// ReserveStock must be atomic per product: of two concurrent reservations
// competing for the last units, exactly one succeeds.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
	ReserveStock(id string, qty int) error
	ReleaseStock(id string, qty int) error
}
