package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/inventory-backend/internal/api/responses"
	"github.com/example/inventory-backend/internal/core"
	"github.com/example/inventory-backend/internal/middleware"
	"github.com/example/inventory-backend/internal/models"
)

// ProductHandler handles API endpoints related to products.
type ProductHandler struct {
	productService core.ProductService
	logger         *zap.Logger
	detailed       bool
}

// NewProductHandler creates a new ProductHandler. detailed exposes internal
// error text in 500 responses.
func NewProductHandler(ps core.ProductService, logger *zap.Logger, detailed bool) *ProductHandler {
	return &ProductHandler{productService: ps, logger: logger, detailed: detailed}
}

func (h *ProductHandler) mapProductErrorToStatus(c *gin.Context, message string, err error) {
	if errors.Is(err, core.ErrProductNotFound) {
		responses.Fail(c, http.StatusNotFound, "Product not found")
		return
	}
	h.logger.Error(message, zap.String("request_id", middleware.GetRequestID(c)), zap.Error(err))
	responses.Internal(c, message, err, h.detailed)
}

// CreateProduct handles POST /api/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), req.ToNewProduct(), actorFrom(c))
	if err != nil {
		h.mapProductErrorToStatus(c, "Failed to create product", err)
		return
	}
	responses.OK(c, http.StatusCreated, "Product created successfully", product)
}

// ListProducts handles GET /api/products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.productService.ListProducts(c.Request.Context())
	if err != nil {
		h.mapProductErrorToStatus(c, "Failed to retrieve products", err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	responses.List(c, "Products retrieved successfully", products, len(products))
}

// GetProduct handles GET /api/products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.mapProductErrorToStatus(c, "Failed to retrieve product", err)
		return
	}
	responses.OK(c, http.StatusOK, "Product retrieved successfully", product)
}

// UpdateProduct handles PUT /api/products/:id. The body must set at least
// one of name, price and stock.
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var patch models.ProductPatch
	if !bindJSON(c, &patch) {
		return
	}
	if patch.IsEmpty() {
		responses.Invalid(c, []responses.FieldError{{
			Field:   "body",
			Message: "at least one of name, price, stock is required",
		}})
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), id, patch, actorFrom(c))
	if err != nil {
		h.mapProductErrorToStatus(c, "Failed to update product", err)
		return
	}
	responses.OK(c, http.StatusOK, "Product updated successfully", product)
}

// DeleteProduct handles DELETE /api/products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	deleted, err := h.productService.DeleteProduct(c.Request.Context(), id, actorFrom(c))
	if err != nil {
		h.mapProductErrorToStatus(c, "Failed to delete product", err)
		return
	}
	if !deleted {
		responses.Fail(c, http.StatusNotFound, "Product not found")
		return
	}
	responses.OK(c, http.StatusOK, "Product deleted successfully", nil)
}

func actorFrom(c *gin.Context) *models.Actor {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return nil
	}
	return user.Actor()
}
