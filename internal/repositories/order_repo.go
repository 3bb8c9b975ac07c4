package repositories

import (
	"time"

	"pasar/internal/models"
)

// OrderFilter narrows List results. Zero-valued fields are ignored; set
// fields compose with AND semantics. Search matches order number, vendor
// name and item title.
type OrderFilter struct {
	CustomerID string
	VendorID   string
	Status     models.OrderStatus
	// Statuses restricts results to a status set (IN semantics). Composes
	// with Status; both must apply before Limit/Skip so pagination never
	// hides matching rows.
	Statuses []models.OrderStatus
	Search   string
	Limit    int
	Skip     int
}

// OrderRepository defines the interface for order data access.
//
// UpdateStatus and MarkPaid are compare-and-swap writes: they only apply
// while the stored state still matches the expected one and return
// ErrConflict otherwise, so concurrent transitions on the same order leave
// exactly one winner.
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id string) (*models.Order, error)
	GetByOrderNumber(number string) (*models.Order, error)
	List(filter OrderFilter) ([]models.Order, error)
	UpdateStatus(id string, from, to models.OrderStatus, shippedDate *time.Time) error
	MarkPaid(id, gatewayPaymentID string) error
	SetGatewayOrderID(id, gatewayOrderID string) error
	SetExpectedDelivery(id string, date time.Time) error
}
