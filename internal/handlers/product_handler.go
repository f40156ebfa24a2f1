package handlers

import (
	"catalog/internal/metrics"
	"catalog/internal/middleware"
	"catalog/internal/models"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	productService *services.ProductService
	metrics        *metrics.Metrics
}

// NewProductHandler creates a new ProductHandler. m may be nil.
func NewProductHandler(productService *services.ProductService, m *metrics.Metrics) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		metrics:        m,
	}
}

// RegisterRoutes registers the product routes. Reads are public, writes go through auth.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.GetAllProducts)
	productRoutes.Get("/:id", h.GetProductByID)
	productRoutes.Post("/", auth, h.CreateProduct)
	productRoutes.Put("/:id", auth, h.UpdateProduct)
	productRoutes.Delete("/:id", auth, h.DeleteProduct)
}

// GetAllProducts lists every product, newest first.
func (h *ProductHandler) GetAllProducts(c *fiber.Ctx) error {
	products, err := h.productService.ListProducts(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}

// GetProductByID returns a single product.
func (h *ProductHandler) GetProductByID(c *fiber.Ctx) error {
	product, err := h.productService.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

// CreateProduct stores a new product owned by the caller.
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var input models.ProductInput
	if err := parseBody(c, &input); err != nil {
		return invalidBody(c, err)
	}

	product, err := h.productService.CreateProduct(c.UserContext(), input, middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}

	h.metrics.ProductWrite(metrics.OpCreate)
	return c.Status(fiber.StatusCreated).JSON(product)
}

// UpdateProduct applies a partial update to a product the caller owns.
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	var patch models.ProductPatch
	if err := parseBody(c, &patch); err != nil {
		return invalidBody(c, err)
	}

	product, err := h.productService.UpdateProduct(c.UserContext(), c.Params("id"), patch, middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}

	h.metrics.ProductWrite(metrics.OpUpdate)
	return c.JSON(product)
}

// DeleteProduct removes a product the caller owns.
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	if err := h.productService.DeleteProduct(c.UserContext(), c.Params("id"), middleware.UserID(c)); err != nil {
		return respondError(c, err)
	}

	h.metrics.ProductWrite(metrics.OpDelete)
	return c.SendStatus(fiber.StatusNoContent)
}
