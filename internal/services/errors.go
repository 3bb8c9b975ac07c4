package services

import (
	"errors"
	"fmt"

	"pasar/internal/models"
)

// Error taxonomy surfaced to handlers. Repository-level ErrNotFound and
// gateway-level ErrUnavailable pass through wrapped; everything else the
// order engine can fail with is one of these.
var (
	// ErrOutOfStock means the requested quantity exceeds available stock, or
	// the product has been removed from the catalog.
	ErrOutOfStock = errors.New("out of stock")
	// ErrBelowMinOrderQty means the requested quantity is under the product's
	// minimum order quantity.
	ErrBelowMinOrderQty = errors.New("below minimum order quantity")
	// ErrForbidden means the actor is not authorized for this order or transition.
	ErrForbidden = errors.New("forbidden")
	// ErrSignatureInvalid means the payment confirmation failed its cryptographic check.
	ErrSignatureInvalid = errors.New("payment signature invalid")
	// ErrConflictingUpdate means the write lost a concurrency race; the caller
	// should re-fetch and retry.
	ErrConflictingUpdate = errors.New("conflicting update, please retry")
	// ErrEmptyCart means checkout was attempted with no cart lines.
	ErrEmptyCart = errors.New("cart is empty")
)

// InvalidTransitionError reports the specific disallowed edge so callers can
// explain why the transition was rejected.
type InvalidTransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %q to %q", e.From, e.To)
}
