package models

import "time"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusCreated                  OrderStatus = "created"
	StatusVendorShippedToWarehouse OrderStatus = "vendor_shipped_to_warehouse"
	StatusReceivedInWarehouse      OrderStatus = "received_in_warehouse"
	StatusPacked                   OrderStatus = "packed"
	StatusShipped                  OrderStatus = "shipped"
	StatusDelivered                OrderStatus = "delivered"
	StatusCancelled                OrderStatus = "cancelled"
)

// IsTerminal reports whether no further transition is permitted from s.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusCreated, StatusVendorShippedToWarehouse, StatusReceivedInWarehouse,
		StatusPacked, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// PaymentStatus is the settlement state of an order's payment.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// ShippingAddress is an immutable copy embedded in the order at creation
// time. Later address-book edits never alter placed orders.
type ShippingAddress struct {
	Name       string `json:"name" validate:"required,min=2,max=100"`
	Phone      string `json:"phone" validate:"required,min=7,max=20"`
	Line1      string `json:"line1" validate:"required,max=200"`
	Line2      string `json:"line2" validate:"omitempty,max=200"`
	City       string `json:"city" validate:"required,max=100"`
	State      string `json:"state" validate:"required,max=100"`
	PostalCode string `json:"postal_code" validate:"required,min=4,max=12"`
}

// OrderItem is a single line of an order. Title, SKU, price and the vendor
// snapshot are frozen at order time and survive later catalog or vendor
// profile edits. Amounts are in paise.
type OrderItem struct {
	ID           string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID      string `json:"order_id" gorm:"index;type:varchar(36)"`
	ProductID    string `json:"product_id" gorm:"type:varchar(36)"`
	VendorID     string `json:"vendor_id" gorm:"index;type:varchar(36)"`
	Title        string `json:"title"`
	SKU          string `json:"sku"`
	Quantity     int    `json:"quantity"`
	PricePerUnit int64  `json:"price_per_unit"`
	TotalPrice   int64  `json:"total_price"`
	VendorName   string `json:"vendor_name"`
	VendorPhone  string `json:"vendor_phone"`
	Position     int    `json:"-"` // preserves cart ordering
}

// Order is the durable aggregate. Totals are frozen at creation and never
// recomputed; total == subtotal + shipping_cost + tax always holds.
type Order struct {
	ID                string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderNumber       string          `json:"order_number" gorm:"uniqueIndex;type:varchar(32)"`
	CustomerID        string          `json:"customer_id" gorm:"index;type:varchar(36)"`
	ShippingAddress   ShippingAddress `json:"shipping_address" gorm:"embedded;embeddedPrefix:ship_"`
	Items             []OrderItem     `json:"items" gorm:"foreignKey:OrderID"`
	Subtotal          int64           `json:"subtotal"`
	ShippingCost      int64           `json:"shipping_cost"`
	Tax               int64           `json:"tax"`
	Total             int64           `json:"total"`
	Status            OrderStatus     `json:"status" gorm:"type:varchar(32);index"`
	PaymentStatus     PaymentStatus   `json:"payment_status" gorm:"type:varchar(16);index"`
	RazorpayOrderID   string          `json:"razorpay_order_id,omitempty" gorm:"type:varchar(64)"`
	RazorpayPaymentID string          `json:"razorpay_payment_id,omitempty" gorm:"type:varchar(64)"`
	ExpectedDelivery  *time.Time      `json:"expected_delivery_date,omitempty"`
	PlacedAt          time.Time       `json:"placed_at"`
	ShippedDate       *time.Time      `json:"shipped_date,omitempty"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// VendorIDs returns the distinct vendor IDs across the order's items.
func (o *Order) VendorIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, item := range o.Items {
		if !seen[item.VendorID] {
			seen[item.VendorID] = true
			ids = append(ids, item.VendorID)
		}
	}
	return ids
}

// ItemsForVendor returns the order items belonging to the given vendor.
func (o *Order) ItemsForVendor(vendorID string) []OrderItem {
	var items []OrderItem
	for _, item := range o.Items {
		if item.VendorID == vendorID {
			items = append(items, item)
		}
	}
	return items
}

// HasVendor reports whether the order contains at least one item from the vendor.
func (o *Order) HasVendor(vendorID string) bool {
	for _, item := range o.Items {
		if item.VendorID == vendorID {
			return true
		}
	}
	return false
}

// VendorSubtotal sums item totals for one vendor, in paise.
func (o *Order) VendorSubtotal(vendorID string) int64 {
	var sum int64
	for _, item := range o.Items {
		if item.VendorID == vendorID {
			sum += item.TotalPrice
		}
	}
	return sum
}
