package handlers

import (
	"fmt"
	"log"
	"time"

	"pasar/internal/middleware"
	"pasar/internal/models"
	"pasar/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for the order lifecycle: quoting,
// checkout, payment confirmation, status transitions and scoped listings.
type OrderHandler struct {
	orderService   *services.OrderService
	paymentService *services.PaymentService
	pricingService *services.PricingService
	cartService    *services.CartService
	queryService   *services.OrderQueryService
	validate       *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(
	orderService *services.OrderService,
	paymentService *services.PaymentService,
	pricingService *services.PricingService,
	cartService *services.CartService,
	queryService *services.OrderQueryService,
) *OrderHandler {
	return &OrderHandler{
		orderService:   orderService,
		paymentService: paymentService,
		pricingService: pricingService,
		cartService:    cartService,
		queryService:   queryService,
		validate:       validator.New(),
	}
}

// RegisterRoutes registers the order routes with the Fiber app. These routes
// require authentication.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	// Static paths before parameterized ones.
	orderRoutes.Get("/calculate", middleware.RequireRoles(models.RoleCustomer), h.HandleCalculate)
	orderRoutes.Get("/", h.HandleListOrders)
	orderRoutes.Post("/", middleware.RequireRoles(models.RoleCustomer), h.HandleCreateOrder)
	orderRoutes.Get("/:id", h.HandleGetOrder)
	orderRoutes.Post("/:id/payment-intent", middleware.RequireRoles(models.RoleCustomer), h.HandleCreatePaymentIntent)
	orderRoutes.Post("/:id/verify-payment", middleware.RequireRoles(models.RoleCustomer, models.RoleAdmin), h.HandleVerifyPayment)
	orderRoutes.Patch("/:id/status", middleware.RequireRoles(models.RoleVendor, models.RoleAdmin), h.HandleUpdateStatus)
	orderRoutes.Patch("/:id/delivery-date", middleware.RequireRoles(models.RoleAdmin), h.HandleSetDeliveryDate)
}

// RegisterWebhookRoutes registers the unauthenticated gateway callback. The
// payload is authenticated by its HMAC signature instead of a session.
func (h *OrderHandler) RegisterWebhookRoutes(router fiber.Router) {
	router.Post("/payments/webhook", h.HandlePaymentWebhook)
}

// HandleCalculate quotes the caller's current cart against live catalog state.
func (h *OrderHandler) HandleCalculate(c *fiber.Ctx) error {
	actor := middleware.ActorFromContext(c)
	cart := h.cartService.GetCart(actor.UserID)

	calc, err := h.pricingService.Quote(cart.Lines)
	if err != nil {
		return respondError(c, "Could not calculate order totals", err)
	}
	return c.JSON(calc)
}

// CreateOrderRequest is the checkout request body.
type CreateOrderRequest struct {
	ShippingAddress models.ShippingAddress `json:"shipping_address" validate:"required"`
	IdempotencyKey  string                 `json:"idempotency_key" validate:"omitempty,max=64"`
}

// HandleCreateOrder materializes the caller's cart into an order and creates
// the payment intent. When the gateway is unreachable the order still
// exists; the client retries intent creation via the payment-intent route.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	actor := middleware.ActorFromContext(c)

	var req CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}

	order, err := h.orderService.CreateOrder(actor.UserID, req.ShippingAddress)
	if err != nil {
		log.Printf("Error creating order for customer %s: %v", actor.UserID, err)
		return respondError(c, "Could not create order", err)
	}

	gatewayOrder, err := h.paymentService.CreateIntent(c.Context(), order.ID, req.IdempotencyKey)
	if err != nil {
		// The order is persisted and stays payable; report the gateway
		// failure without undoing checkout.
		log.Printf("Error creating payment intent for order %s: %v", order.ID, err)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"order":         order,
			"gateway_order": nil,
			"gateway_error": "Payment could not be initiated, please try again",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"order":         order,
		"gateway_order": gatewayOrder,
	})
}

// PaymentIntentRequest retries payment initiation for an existing order.
type PaymentIntentRequest struct {
	IdempotencyKey string `json:"idempotency_key" validate:"omitempty,max=64"`
}

// HandleCreatePaymentIntent (re-)creates the gateway order for a pending order.
func (h *OrderHandler) HandleCreatePaymentIntent(c *fiber.Ctx) error {
	actor := middleware.ActorFromContext(c)
	orderID := c.Params("id")

	order, err := h.orderService.GetOrderByID(orderID)
	if err != nil {
		return respondError(c, "Could not load order", err)
	}
	if order.CustomerID != actor.UserID {
		return respondError(c, "Not your order", services.ErrForbidden)
	}

	var req PaymentIntentRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	gatewayOrder, err := h.paymentService.CreateIntent(c.Context(), orderID, req.IdempotencyKey)
	if err != nil {
		log.Printf("Error creating payment intent for order %s: %v", orderID, err)
		return respondError(c, "Could not initiate payment", err)
	}
	return c.JSON(fiber.Map{
		"gateway_order": gatewayOrder,
	})
}

// VerifyPaymentRequest is the gateway confirmation payload. The same shape
// arrives from the client after checkout and from the gateway webhook.
type VerifyPaymentRequest struct {
	GatewayOrderID   string `json:"razorpay_order_id" validate:"required"`
	GatewayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature        string `json:"razorpay_signature" validate:"required"`
}

// HandleVerifyPayment confirms a payment for the caller's order.
func (h *OrderHandler) HandleVerifyPayment(c *fiber.Ctx) error {
	actor := middleware.ActorFromContext(c)
	orderID := c.Params("id")

	order, err := h.orderService.GetOrderByID(orderID)
	if err != nil {
		return respondError(c, "Could not load order", err)
	}
	if actor.Role != models.RoleAdmin && order.CustomerID != actor.UserID {
		return respondError(c, "Not your order", services.ErrForbidden)
	}

	var req VerifyPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "razorpay_order_id, razorpay_payment_id and razorpay_signature are required",
		})
	}

	verified, err := h.paymentService.Verify(c.Context(), orderID, req.GatewayOrderID, req.GatewayPaymentID, req.Signature)
	if err != nil {
		log.Printf("Payment verification failed for order %s: %v", orderID, err)
		return respondError(c, "Payment verification failed", err)
	}
	return c.JSON(fiber.Map{
		"order": verified,
	})
}

// WebhookRequest is the inbound gateway callback payload.
type WebhookRequest struct {
	OrderID          string `json:"order_id" validate:"required"`
	GatewayOrderID   string `json:"razorpay_order_id" validate:"required"`
	GatewayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature        string `json:"razorpay_signature" validate:"required"`
}

// HandlePaymentWebhook converges the gateway callback onto the same verify
// path as the client-side confirmation.
func (h *OrderHandler) HandlePaymentWebhook(c *fiber.Ctx) error {
	var req WebhookRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid webhook payload",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Webhook payload is missing required fields",
		})
	}

	verified, err := h.paymentService.Verify(c.Context(), req.OrderID, req.GatewayOrderID, req.GatewayPaymentID, req.Signature)
	if err != nil {
		log.Printf("Webhook payment verification failed for order %s: %v", req.OrderID, err)
		return respondError(c, "Payment verification failed", err)
	}
	return c.JSON(fiber.Map{
		"order": verified,
	})
}

// UpdateStatusRequest is the status transition body.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=created vendor_shipped_to_warehouse received_in_warehouse packed shipped delivered cancelled"`
}

// HandleUpdateStatus applies a vendor- or admin-driven status transition.
func (h *OrderHandler) HandleUpdateStatus(c *fiber.Ctx) error {
	actor := middleware.ActorFromContext(c)
	orderID := c.Params("id")

	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "Unknown order status",
		})
	}

	order, err := h.orderService.UpdateStatus(actor, orderID, models.OrderStatus(req.Status))
	if err != nil {
		log.Printf("Status update %s -> %s rejected for order %s: %v", actor.Role, req.Status, orderID, err)
		return respondError(c, "Could not update order status", err)
	}
	return c.JSON(fiber.Map{
		"order": order,
	})
}

// DeliveryDateRequest carries the admin-settable expected delivery date.
type DeliveryDateRequest struct {
	Date string `json:"date" validate:"required"`
}

// HandleSetDeliveryDate records the expected delivery date on an order.
func (h *OrderHandler) HandleSetDeliveryDate(c *fiber.Ctx) error {
	actor := middleware.ActorFromContext(c)
	orderID := c.Params("id")

	var req DeliveryDateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Date must be in YYYY-MM-DD format",
			"error":   err.Error(),
		})
	}

	order, err := h.orderService.SetExpectedDelivery(actor, orderID, date)
	if err != nil {
		return respondError(c, "Could not set delivery date", err)
	}
	return c.JSON(fiber.Map{
		"order": order,
	})
}

// HandleListOrders returns the role-scoped order listing.
func (h *OrderHandler) HandleListOrders(c *fiber.Ctx) error {
	actor := middleware.ActorFromContext(c)

	status := c.Query("status")
	if status != "" && !models.OrderStatus(status).Valid() {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": fmt.Sprintf("Unknown order status %q", status),
		})
	}
	params := services.OrderListParams{
		Scope:  c.Query("scope", services.ScopeAll),
		Status: models.OrderStatus(status),
		Search: c.Query("search"),
		Limit:  c.QueryInt("limit"),
		Skip:   c.QueryInt("skip"),
	}

	switch actor.Role {
	case models.RoleAdmin:
		orders, err := h.queryService.ListForAdmin(params)
		if err != nil {
			return respondError(c, "Could not retrieve orders", err)
		}
		return c.JSON(orders)
	case models.RoleVendor:
		orders, err := h.queryService.ListForVendor(actor.UserID, params)
		if err != nil {
			return respondError(c, "Could not retrieve orders", err)
		}
		return c.JSON(orders)
	default:
		orders, err := h.queryService.ListForCustomer(actor.UserID, params)
		if err != nil {
			return respondError(c, "Could not retrieve orders", err)
		}
		return c.JSON(orders)
	}
}

// HandleGetOrder returns one order in the caller's projection.
func (h *OrderHandler) HandleGetOrder(c *fiber.Ctx) error {
	actor := middleware.ActorFromContext(c)
	orderID := c.Params("id")

	view, err := h.queryService.GetForActor(actor, orderID)
	if err != nil {
		return respondError(c, "Could not retrieve order", err)
	}
	return c.JSON(view)
}
