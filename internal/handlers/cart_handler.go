package handlers

import (
	"fmt"
	"log"

	"pasar/internal/middleware"
	"pasar/internal/models"
	"pasar/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for the customer's cart.
type CartHandler struct {
	cartService *services.CartService
	validate    *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(cartService *services.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the cart routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart", middleware.RequireRoles(models.RoleCustomer))
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Patch("/items/:productId", h.HandleSetQuantity)
	cartRoutes.Delete("/items/:productId", h.HandleRemoveItem)
	cartRoutes.Delete("/", h.HandleClearCart)
}

// HandleGetCart returns the caller's current cart.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	actor := middleware.ActorFromContext(c)
	return c.JSON(h.cartService.GetCart(actor.UserID))
}

// HandleAddItem adds a product to the cart, merging quantities.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	actor := middleware.ActorFromContext(c)

	var line models.CartLine
	if err := c.BodyParser(&line); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(line); err != nil {
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

	cart, err := h.cartService.AddLine(actor.UserID, line)
	if err != nil {
		log.Printf("Error adding cart line for customer %s: %v", actor.UserID, err)
		return respondError(c, "Could not add item to cart", err)
	}
	return c.Status(fiber.StatusCreated).JSON(cart)
}

// HandleSetQuantity replaces the quantity of an existing cart line.
func (h *CartHandler) HandleSetQuantity(c *fiber.Ctx) error {
	actor := middleware.ActorFromContext(c)
	productID := c.Params("productId")

	var body struct {
		Quantity int `json:"quantity" validate:"required,gt=0"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Quantity must be a positive integer",
		})
	}

	cart, err := h.cartService.SetQuantity(actor.UserID, productID, body.Quantity)
	if err != nil {
		return respondError(c, "Could not update cart item", err)
	}
	return c.JSON(cart)
}

// HandleRemoveItem deletes one product line from the cart.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	actor := middleware.ActorFromContext(c)
	productID := c.Params("productId")

	cart, err := h.cartService.RemoveLine(actor.UserID, productID)
	if err != nil {
		return respondError(c, "Could not remove cart item", err)
	}
	return c.JSON(cart)
}

// HandleClearCart destroys the caller's cart.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	actor := middleware.ActorFromContext(c)
	h.cartService.ClearCart(actor.UserID)
	return c.JSON(fiber.Map{
		"message": "Cart cleared",
	})
}
