package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"pasar/internal/models"
	"pasar/internal/repositories"
	"pasar/pkg/idempotency"
	"pasar/pkg/razorpay"
)

// PaymentGateway is the outbound boundary to the payment processor.
// Satisfied by *razorpay.Client; mocked in tests.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req razorpay.CreateOrderRequest) (*razorpay.GatewayOrder, error)
}

// How long a stored intent result answers replays of the same idempotency key.
const intentKeyTTL = 24 * time.Hour

// PaymentService drives payment intent creation and confirmation. Both the
// synchronous verify call and the gateway webhook converge on Verify, which
// is idempotent under replay.
type PaymentService struct {
	orderRepo repositories.OrderRepository
	gateway   PaymentGateway
	keySecret string
	currency  string
	intents   idempotency.Store
	publisher EventPublisher
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	orderRepo repositories.OrderRepository,
	gateway PaymentGateway,
	keySecret, currency string,
	intents idempotency.Store,
	publisher EventPublisher,
) *PaymentService {
	return &PaymentService{
		orderRepo: orderRepo,
		gateway:   gateway,
		keySecret: keySecret,
		currency:  currency,
		intents:   intents,
		publisher: publisher,
	}
}

// CreateIntent registers the order total with the gateway. The amount always
// comes from the stored order, never from the client. A repeated call with
// the same idempotency key, or for an order that already has a gateway
// order, returns the existing intent instead of creating a duplicate.
func (s *PaymentService) CreateIntent(ctx context.Context, orderID, idempotencyKey string) (*razorpay.GatewayOrder, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != models.PaymentPending {
		return nil, fmt.Errorf("order %s payment is already %s: %w", orderID, order.PaymentStatus, ErrConflictingUpdate)
	}

	if idempotencyKey != "" {
		stored, err := s.intents.Get(ctx, idempotencyKey)
		if err != nil {
			log.Printf("Warning: idempotency store lookup failed for key %s: %v", idempotencyKey, err)
		} else if stored != "" {
			var gatewayOrder razorpay.GatewayOrder
			if err := json.Unmarshal([]byte(stored), &gatewayOrder); err == nil {
				return &gatewayOrder, nil
			}
		}
	}

	if order.RazorpayOrderID != "" {
		return &razorpay.GatewayOrder{
			ID:       order.RazorpayOrderID,
			Amount:   order.Total,
			Currency: s.currency,
			Receipt:  order.OrderNumber,
		}, nil
	}

	gatewayOrder, err := s.gateway.CreateOrder(ctx, razorpay.CreateOrderRequest{
		Amount:         order.Total,
		Currency:       s.currency,
		Receipt:        order.OrderNumber,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent for order %s: %w", orderID, err)
	}

	if err := s.orderRepo.SetGatewayOrderID(orderID, gatewayOrder.ID); err != nil {
		return nil, fmt.Errorf("failed to store gateway order ID for order %s: %w", orderID, err)
	}

	if idempotencyKey != "" {
		if body, err := json.Marshal(gatewayOrder); err == nil {
			if err := s.intents.Set(ctx, idempotencyKey, string(body), intentKeyTTL); err != nil {
				log.Printf("Warning: failed to store idempotency key %s: %v", idempotencyKey, err)
			}
		}
	}

	return gatewayOrder, nil
}

// Verify checks the gateway's payment confirmation against the stored order
// and, on a valid signature, flips paymentStatus from pending to paid.
//
// It is safe to call more than once with the same payment: a replay against
// an already-paid order returns the same success without re-triggering side
// effects. A tampered or mismatched signature leaves the order untouched.
func (s *PaymentService) Verify(ctx context.Context, orderID, gatewayOrderID, gatewayPaymentID, signature string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	// The confirmation must be bound to the gateway order we created.
	if order.RazorpayOrderID == "" || order.RazorpayOrderID != gatewayOrderID {
		return nil, fmt.Errorf("payment confirmation does not match order %s: %w", orderID, ErrSignatureInvalid)
	}
	if !razorpay.VerifySignature(gatewayOrderID, gatewayPaymentID, signature, s.keySecret) {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrSignatureInvalid)
	}

	if order.PaymentStatus == models.PaymentPaid {
		if order.RazorpayPaymentID == gatewayPaymentID {
			return order, nil // replay of an already-verified payment
		}
		return nil, fmt.Errorf("order %s already paid by a different payment: %w", orderID, ErrConflictingUpdate)
	}

	if err := s.orderRepo.MarkPaid(orderID, gatewayPaymentID); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			// Possibly a duplicate confirmation racing us; re-read and decide.
			current, readErr := s.orderRepo.GetByID(orderID)
			if readErr == nil && current.PaymentStatus == models.PaymentPaid && current.RazorpayPaymentID == gatewayPaymentID {
				return current, nil
			}
			return nil, fmt.Errorf("order %s: %w", orderID, ErrConflictingUpdate)
		}
		return nil, err
	}

	s.publishEvent("order.paid", map[string]interface{}{
		"orderID":          orderID,
		"orderNumber":      order.OrderNumber,
		"gatewayOrderID":   gatewayOrderID,
		"gatewayPaymentID": gatewayPaymentID,
		"amount":           order.Total,
	})

	return s.orderRepo.GetByID(orderID)
}

func (s *PaymentService) publishEvent(eventType string, payload map[string]interface{}) {
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
