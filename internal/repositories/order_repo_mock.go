package repositories

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"pasar/internal/models"

	"github.com/google/uuid"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
// CAS semantics match the GORM implementation: the mutex stands in for the
// database's guarded UPDATE.
type MockOrderRepository struct {
	orders map[string]models.Order
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// Create adds a new order.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for _, existing := range r.orders {
		if existing.OrderNumber == order.OrderNumber {
			return fmt.Errorf("order number %s already exists", order.OrderNumber)
		}
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
		order.Items[i].Position = i
	}
	r.orders[order.ID] = cloneOrder(*order)
	return nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
	}
	order = cloneOrder(order)
	return &order, nil
}

// GetByOrderNumber returns an order by its human-readable number.
func (r *MockOrderRepository) GetByOrderNumber(number string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, order := range r.orders {
		if order.OrderNumber == number {
			order = cloneOrder(order)
			return &order, nil
		}
	}
	return nil, fmt.Errorf("order %s: %w", number, ErrNotFound)
}

// List returns orders matching the filter, newest first.
func (r *MockOrderRepository) List(filter OrderFilter) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []models.Order
	for _, order := range r.orders {
		if filter.CustomerID != "" && order.CustomerID != filter.CustomerID {
			continue
		}
		if filter.VendorID != "" && !order.HasVendor(filter.VendorID) {
			continue
		}
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		if len(filter.Statuses) > 0 && !statusIn(order.Status, filter.Statuses) {
			continue
		}
		if filter.Search != "" && !orderMatchesSearch(order, filter.Search) {
			continue
		}
		matched = append(matched, cloneOrder(order))
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].PlacedAt.After(matched[j].PlacedAt)
	})

	if filter.Skip > 0 {
		if filter.Skip >= len(matched) {
			return []models.Order{}, nil
		}
		matched = matched[filter.Skip:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func statusIn(status models.OrderStatus, set []models.OrderStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

func orderMatchesSearch(order models.Order, search string) bool {
	needle := strings.ToLower(search)
	if strings.Contains(strings.ToLower(order.OrderNumber), needle) {
		return true
	}
	for _, item := range order.Items {
		if strings.Contains(strings.ToLower(item.Title), needle) ||
			strings.Contains(strings.ToLower(item.VendorName), needle) {
			return true
		}
	}
	return false
}

// UpdateStatus applies a compare-and-swap status move.
func (r *MockOrderRepository) UpdateStatus(id string, from, to models.OrderStatus, shippedDate *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
	}
	if order.Status != from {
		return fmt.Errorf("order %s: %w", id, ErrConflict)
	}
	order.Status = to
	if shippedDate != nil {
		d := *shippedDate
		order.ShippedDate = &d
	}
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

// MarkPaid flips payment status from pending to paid.
func (r *MockOrderRepository) MarkPaid(id, gatewayPaymentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
	}
	if order.PaymentStatus != models.PaymentPending {
		return fmt.Errorf("order %s: %w", id, ErrConflict)
	}
	order.PaymentStatus = models.PaymentPaid
	order.RazorpayPaymentID = gatewayPaymentID
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

// SetGatewayOrderID records the gateway-side order ID.
func (r *MockOrderRepository) SetGatewayOrderID(id, gatewayOrderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
	}
	order.RazorpayOrderID = gatewayOrderID
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

// SetExpectedDelivery records the expected delivery date.
func (r *MockOrderRepository) SetExpectedDelivery(id string, date time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
	}
	order.ExpectedDelivery = &date
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

// cloneOrder copies the order with a fresh items slice so callers cannot
// mutate stored state through the returned value.
func cloneOrder(order models.Order) models.Order {
	items := make([]models.OrderItem, len(order.Items))
	copy(items, order.Items)
	order.Items = items
	return order
}
