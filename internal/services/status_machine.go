package services

import (
	"pasar/internal/models"
)

// Actor is the explicit request context passed into service calls: who is
// acting and in what role. The engine itself holds no ambient session state.
type Actor struct {
	UserID string
	Role   string
}

// The single source of truth for which actor may move an order from which
// status to which. All call sites (admin and vendor surfaces alike) delegate
// here instead of keeping their own tables.
//
// Vendors may only hand a paid order over to the warehouse, or cancel while
// it is still in created. Admins walk the warehouse chain step by step, with
// a direct override out of created. Delivered and cancelled are terminal:
// neither map has an entry for them.
var (
	vendorTransitions = map[models.OrderStatus][]models.OrderStatus{
		models.StatusCreated: {
			models.StatusVendorShippedToWarehouse,
			models.StatusCancelled,
		},
	}

	adminTransitions = map[models.OrderStatus][]models.OrderStatus{
		models.StatusCreated: {
			models.StatusReceivedInWarehouse,
			models.StatusPacked,
			models.StatusShipped,
			models.StatusDelivered,
			models.StatusCancelled,
		},
		models.StatusVendorShippedToWarehouse: {models.StatusReceivedInWarehouse},
		models.StatusReceivedInWarehouse:      {models.StatusPacked},
		models.StatusPacked:                   {models.StatusShipped},
		models.StatusShipped:                  {models.StatusDelivered},
	}
)

func edgeAllowed(table map[models.OrderStatus][]models.OrderStatus, from, to models.OrderStatus) bool {
	for _, target := range table[from] {
		if target == to {
			return true
		}
	}
	return false
}

// AuthorizeTransition validates that the actor may move the order to the
// target status. It returns ErrForbidden when the actor has no business with
// this order (wrong vendor, unpaid order, customer role) and an
// InvalidTransitionError when the edge itself is not in the table.
func AuthorizeTransition(order *models.Order, actor Actor, to models.OrderStatus) error {
	switch actor.Role {
	case models.RoleAdmin:
		if !edgeAllowed(adminTransitions, order.Status, to) {
			return &InvalidTransitionError{From: order.Status, To: to}
		}
		return nil
	case models.RoleVendor:
		if !order.HasVendor(actor.UserID) {
			return ErrForbidden
		}
		if !edgeAllowed(vendorTransitions, order.Status, to) {
			return &InvalidTransitionError{From: order.Status, To: to}
		}
		// Vendors act only on paid orders.
		if order.PaymentStatus != models.PaymentPaid {
			return ErrForbidden
		}
		return nil
	default:
		return ErrForbidden
	}
}
