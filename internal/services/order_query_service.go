package services

import (
	"time"

	"pasar/internal/models"
	"pasar/internal/repositories"
)

// Scope values for admin order listings. ScopeAdminOnly narrows the listing
// to the admin work queue: orders already out of vendor hands but not yet
// terminal.
const (
	ScopeAll       = "all"
	ScopeAdminOnly = "admin_only"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// adminQueueStatuses are the statuses awaiting an admin-driven step: out of
// vendor hands but not yet terminal.
var adminQueueStatuses = []models.OrderStatus{
	models.StatusVendorShippedToWarehouse,
	models.StatusReceivedInWarehouse,
	models.StatusPacked,
	models.StatusShipped,
}

// OrderListParams is the read-side filter; all set fields compose with AND.
type OrderListParams struct {
	Scope  string
	Status models.OrderStatus
	Search string
	Limit  int
	Skip   int
}

// VendorTotal is the per-vendor item subtotal of an order, derived for the
// admin projection.
type VendorTotal struct {
	VendorID   string `json:"vendor_id"`
	VendorName string `json:"vendor_name"`
	Subtotal   int64  `json:"subtotal"`
}

// AdminOrderView is the cross-vendor projection: the full order plus
// per-vendor subtotals.
type AdminOrderView struct {
	models.Order
	VendorTotals []VendorTotal `json:"vendor_totals"`
}

// VendorOrderView is the vendor-scoped projection: only the vendor's own
// items, with customer PII withheld.
type VendorOrderView struct {
	ID               string             `json:"id"`
	OrderNumber      string             `json:"order_number"`
	Status           models.OrderStatus `json:"status"`
	PaymentStatus    models.PaymentStatus `json:"payment_status"`
	Items            []models.OrderItem `json:"items"`
	Subtotal         int64              `json:"subtotal"`
	ExpectedDelivery *time.Time         `json:"expected_delivery_date,omitempty"`
	PlacedAt         time.Time          `json:"placed_at"`
	ShippedDate      *time.Time         `json:"shipped_date,omitempty"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// OrderQueryService serves the read-side projections for admin, vendor and
// customer callers. It never mutates orders.
type OrderQueryService struct {
	orderRepo repositories.OrderRepository
}

// NewOrderQueryService creates a new OrderQueryService.
func NewOrderQueryService(orderRepo repositories.OrderRepository) *OrderQueryService {
	return &OrderQueryService{
		orderRepo: orderRepo,
	}
}

func normalize(params OrderListParams) OrderListParams {
	if params.Limit <= 0 {
		params.Limit = defaultListLimit
	}
	if params.Limit > maxListLimit {
		params.Limit = maxListLimit
	}
	if params.Skip < 0 {
		params.Skip = 0
	}
	return params
}

// ListForAdmin returns all matching orders with per-vendor subtotals. The
// admin_only scope is pushed into the repository filter so it composes with
// pagination; filtering after Limit/Skip would hide queue orders beyond the
// first page.
func (s *OrderQueryService) ListForAdmin(params OrderListParams) ([]AdminOrderView, error) {
	params = normalize(params)
	filter := repositories.OrderFilter{
		Status: params.Status,
		Search: params.Search,
		Limit:  params.Limit,
		Skip:   params.Skip,
	}
	if params.Scope == ScopeAdminOnly {
		filter.Statuses = adminQueueStatuses
	}
	orders, err := s.orderRepo.List(filter)
	if err != nil {
		return nil, err
	}

	views := make([]AdminOrderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, adminView(order))
	}
	return views, nil
}

func adminView(order models.Order) AdminOrderView {
	view := AdminOrderView{Order: order}
	for _, vendorID := range order.VendorIDs() {
		items := order.ItemsForVendor(vendorID)
		view.VendorTotals = append(view.VendorTotals, VendorTotal{
			VendorID:   vendorID,
			VendorName: items[0].VendorName,
			Subtotal:   order.VendorSubtotal(vendorID),
		})
	}
	return view
}

// ListForVendor returns orders containing the vendor's items, reduced to the
// vendor projection.
func (s *OrderQueryService) ListForVendor(vendorID string, params OrderListParams) ([]VendorOrderView, error) {
	params = normalize(params)
	orders, err := s.orderRepo.List(repositories.OrderFilter{
		VendorID: vendorID,
		Status:   params.Status,
		Search:   params.Search,
		Limit:    params.Limit,
		Skip:     params.Skip,
	})
	if err != nil {
		return nil, err
	}

	views := make([]VendorOrderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, vendorView(order, vendorID))
	}
	return views, nil
}

func vendorView(order models.Order, vendorID string) VendorOrderView {
	return VendorOrderView{
		ID:               order.ID,
		OrderNumber:      order.OrderNumber,
		Status:           order.Status,
		PaymentStatus:    order.PaymentStatus,
		Items:            order.ItemsForVendor(vendorID),
		Subtotal:         order.VendorSubtotal(vendorID),
		ExpectedDelivery: order.ExpectedDelivery,
		PlacedAt:         order.PlacedAt,
		ShippedDate:      order.ShippedDate,
		UpdatedAt:        order.UpdatedAt,
	}
}

// ListForCustomer returns the customer's own orders in full.
func (s *OrderQueryService) ListForCustomer(customerID string, params OrderListParams) ([]models.Order, error) {
	params = normalize(params)
	return s.orderRepo.List(repositories.OrderFilter{
		CustomerID: customerID,
		Status:     params.Status,
		Search:     params.Search,
		Limit:      params.Limit,
		Skip:       params.Skip,
	})
}

// GetForActor returns a single order in the projection the actor is entitled
// to, or ErrForbidden when the order is not theirs to see.
func (s *OrderQueryService) GetForActor(actor Actor, orderID string) (interface{}, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case models.RoleAdmin:
		return adminView(*order), nil
	case models.RoleVendor:
		if !order.HasVendor(actor.UserID) {
			return nil, ErrForbidden
		}
		return vendorView(*order, actor.UserID), nil
	default:
		if order.CustomerID != actor.UserID {
			return nil, ErrForbidden
		}
		return order, nil
	}
}
