package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"pasar/internal/models"
	"pasar/internal/repositories"

	"github.com/google/uuid"
)

// EventPublisher publishes order lifecycle events. A nil publisher is
// tolerated so the engine runs without a broker in tests and dev.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// OrderService materializes orders from carts and drives their status
// lifecycle.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	userRepo    repositories.UserRepository
	cartStore   *repositories.CartStore
	pricing     *PricingService
	publisher   EventPublisher
}

// NewOrderService creates a new OrderService.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	productRepo repositories.ProductRepository,
	userRepo repositories.UserRepository,
	cartStore *repositories.CartStore,
	pricing *PricingService,
	publisher EventPublisher,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		cartStore:   cartStore,
		pricing:     pricing,
		publisher:   publisher,
	}
}

// CreateOrder turns the customer's current cart into a persisted order:
// re-quotes against live catalog state, reserves stock, freezes totals,
// prices and vendor snapshots, and destroys the cart. Any failure releases
// already-reserved stock so no partial write survives.
func (s *OrderService) CreateOrder(customerID string, address models.ShippingAddress) (*models.Order, error) {
	cart := s.cartStore.Get(customerID)
	if len(cart.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	// Never trust a client-side quote; price from current catalog state.
	calc, err := s.pricing.Quote(cart.Lines)
	if err != nil {
		return nil, err
	}

	// Optimistic per-product decrement. The conditional update leaves exactly
	// one winner when concurrent checkouts race for the last units.
	for i, line := range calc.Lines {
		if err := s.productRepo.ReserveStock(line.ProductID, line.Quantity); err != nil {
			s.releaseReserved(calc.Lines[:i])
			if errors.Is(err, repositories.ErrInsufficientStock) || errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("product %s: %w", line.Title, ErrOutOfStock)
			}
			return nil, fmt.Errorf("failed to reserve stock: %w", err)
		}
	}

	order, err := s.buildOrder(customerID, address, calc)
	if err != nil {
		s.releaseReserved(calc.Lines)
		return nil, err
	}

	if err := s.orderRepo.Create(order); err != nil {
		s.releaseReserved(calc.Lines)
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.cartStore.Clear(customerID)

	s.publishEvent("order.created", map[string]interface{}{
		"orderID":     order.ID,
		"orderNumber": order.OrderNumber,
		"customerID":  order.CustomerID,
		"total":       order.Total,
		"status":      order.Status,
	})

	return order, nil
}

// buildOrder assembles the aggregate with frozen amounts and snapshots.
// Item ordering preserves the original cart order; grouping by vendor is a
// read-side concern.
func (s *OrderService) buildOrder(customerID string, address models.ShippingAddress, calc *models.OrderCalculation) (*models.Order, error) {
	number, err := s.generateOrderNumber()
	if err != nil {
		return nil, err
	}

	vendors := make(map[string]*models.User)
	items := make([]models.OrderItem, 0, len(calc.Lines))
	for i, line := range calc.Lines {
		vendor, ok := vendors[line.VendorID]
		if !ok {
			vendor, err = s.userRepo.GetByID(line.VendorID)
			if err != nil {
				return nil, fmt.Errorf("failed to snapshot vendor %s: %w", line.VendorID, err)
			}
			vendors[line.VendorID] = vendor
		}
		items = append(items, models.OrderItem{
			ID:           uuid.New().String(),
			ProductID:    line.ProductID,
			VendorID:     line.VendorID,
			Title:        line.Title,
			SKU:          line.SKU,
			Quantity:     line.Quantity,
			PricePerUnit: line.PricePerUnit,
			TotalPrice:   line.TotalPrice,
			VendorName:   vendor.Name,
			VendorPhone:  vendor.Phone,
			Position:     i,
		})
	}

	now := time.Now()
	return &models.Order{
		ID:              uuid.New().String(),
		OrderNumber:     number,
		CustomerID:      customerID,
		ShippingAddress: address,
		Items:           items,
		Subtotal:        calc.Subtotal,
		ShippingCost:    calc.ShippingCost,
		Tax:             calc.Tax,
		Total:           calc.Total,
		Status:          models.StatusCreated,
		PaymentStatus:   models.PaymentPending,
		PlacedAt:        now,
		UpdatedAt:       now,
	}, nil
}

// generateOrderNumber produces a human-readable unique order number,
// retrying on the (unlikely) collision.
func (s *OrderService) generateOrderNumber() (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		number := fmt.Sprintf("ORD-%s-%s", time.Now().Format("20060102"), strings.ToUpper(uuid.New().String()[:8]))
		_, err := s.orderRepo.GetByOrderNumber(number)
		if errors.Is(err, repositories.ErrNotFound) {
			return number, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check order number uniqueness: %w", err)
		}
	}
	return "", fmt.Errorf("could not generate a unique order number")
}

func (s *OrderService) releaseReserved(lines []models.CalculatedLine) {
	for _, line := range lines {
		if err := s.productRepo.ReleaseStock(line.ProductID, line.Quantity); err != nil {
			log.Printf("Warning: failed to release reserved stock for product %s: %v", line.ProductID, err)
		}
	}
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// UpdateStatus applies an actor-authorized status transition. The write is a
// compare-and-swap against the status the actor saw, so a concurrent
// transition on the same order makes the loser fail with ErrConflictingUpdate.
func (s *OrderService) UpdateStatus(actor Actor, orderID string, to models.OrderStatus) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	if !to.Valid() {
		return nil, &InvalidTransitionError{From: order.Status, To: to}
	}
	if err := AuthorizeTransition(order, actor, to); err != nil {
		return nil, err
	}

	var shippedDate *time.Time
	if to == models.StatusShipped {
		now := time.Now()
		shippedDate = &now
	}

	if err := s.orderRepo.UpdateStatus(orderID, order.Status, to, shippedDate); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return nil, fmt.Errorf("order %s moved since it was read: %w", orderID, ErrConflictingUpdate)
		}
		return nil, err
	}

	s.publishEvent("order.status_changed", map[string]interface{}{
		"orderID":     orderID,
		"orderNumber": order.OrderNumber,
		"from":        order.Status,
		"to":          to,
		"actorRole":   actor.Role,
	})

	return s.orderRepo.GetByID(orderID)
}

// SetExpectedDelivery records the admin-settable expected delivery date.
func (s *OrderService) SetExpectedDelivery(actor Actor, orderID string, date time.Time) (*models.Order, error) {
	if actor.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}
	if err := s.orderRepo.SetExpectedDelivery(orderID, date); err != nil {
		return nil, err
	}
	return s.orderRepo.GetByID(orderID)
}

func (s *OrderService) publishEvent(eventType string, payload map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", eventType, err)
		return
	}
	if err := s.publisher.Publish("", eventType, body); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", eventType, err)
	}
}
