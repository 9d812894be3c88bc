package handlers

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"catalog/internal/apperrors"
	"catalog/internal/middleware"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"
	"catalog/internal/validation"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service *services.ProductService
	rules   *validation.Validator
	logger  *log.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, rules *validation.Validator, logger *log.Logger) *ProductHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &ProductHandler{
		service: service,
		rules:   rules,
		logger:  logger,
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	products := router.Group("/products")
	products.Post("/CreateProduct", middleware.ValidateProduct(h.rules), h.HandleCreateProduct)
	products.Post("/CreateMultipleProducts", h.HandleCreateMultipleProducts)
	products.Get("/GetAllProducts", h.HandleGetAllProducts)
	products.Get("/GetProductById/:id", h.HandleGetProductByID)
	products.Put("/UpdateProductById/:id", h.HandleUpdateProductByID)
	products.Delete("/DeleteMultipleProducts", h.HandleDeleteMultipleProducts)
	products.Delete("/DeleteProductById/:id", h.HandleDeleteProductByID)
}

// HandleCreateProduct creates a single product. The validation middleware
// has already parsed and rule-checked the body; the service re-checks and
// adds the uniqueness constraint.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	product, ok := c.Locals(middleware.ProductKey).(*models.Product)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
			"errors":  fiber.Map{"general": []string{"Missing product payload"}},
		})
	}

	if err := h.service.CreateProduct(product); err != nil {
		return h.respondError(c, err, "Failed to create product")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    product,
		"message": "Product created successfully",
	})
}

// HandleCreateMultipleProducts bulk-creates up to 500 products, reporting
// per-item outcomes. The response is 201 even when individual items failed.
func (h *ProductHandler) HandleCreateMultipleProducts(c *fiber.Ctx) error {
	var items []models.Product
	if err := c.BodyParser(&items); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid or empty array of products provided",
			"errors":  fiber.Map{"general": []string{err.Error()}},
		})
	}

	result, err := h.service.BulkCreate(items)
	if err != nil {
		return h.respondError(c, err, "Bulk creation failed")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"results": result,
	})
}

// HandleGetAllProducts returns a filtered, sorted, paginated product list.
func (h *ProductHandler) HandleGetAllProducts(c *fiber.Ctx) error {
	query := listQueryFromRequest(c)

	products, total, err := h.service.ListProducts(query)
	if err != nil {
		return h.respondError(c, err, "Could not retrieve products")
	}

	h.logger.Printf("Fetched %d products (total: %d)", len(products), total)

	totalPages := (total + int64(query.Limit) - 1) / int64(query.Limit)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":    true,
		"data":       products,
		"total":      total,
		"page":       query.Page,
		"limit":      query.Limit,
		"totalPages": totalPages,
	})
}

// HandleGetProductByID fetches a single product.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProduct(c.Params("id"))
	if err != nil {
		return h.respondError(c, err, "Could not retrieve product")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    product,
	})
}

// HandleUpdateProductByID applies a partial update: only the fields present
// in the body change.
func (h *ProductHandler) HandleUpdateProductByID(c *fiber.Ctx) error {
	product, err := h.service.UpdateProduct(c.Params("id"), c.Body())
	if err != nil {
		return h.respondError(c, err, "Failed to update product")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    product,
		"message": "Product updated successfully",
	})
}

// HandleDeleteProductByID deletes a single product.
func (h *ProductHandler) HandleDeleteProductByID(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.Params("id")); err != nil {
		return h.respondError(c, err, "Failed to delete product")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Product deleted successfully",
	})
}

// HandleDeleteMultipleProducts deletes every product in the posted id list,
// reporting the number actually removed.
func (h *ProductHandler) HandleDeleteMultipleProducts(c *fiber.Ctx) error {
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "No product IDs provided",
			"errors":  fiber.Map{"general": []string{"Please select at least one product to delete"}},
		})
	}

	count, err := h.service.BulkDelete(body.IDs)
	if err != nil {
		return h.respondError(c, err, "Failed to delete products")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("Successfully deleted %d products", count),
		"data":    fiber.Map{"deletedCount": count},
	})
}

// respondError maps service errors onto the response envelope with one
// consistent rule: validation and other client-caused failures are 400 with
// field-scoped errors, missing records are 404, anything unexpected is 500.
func (h *ProductHandler) respondError(c *fiber.Ctx, err error, fallback string) error {
	var valErr *services.ValidationError
	if errors.As(err, &valErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Validation failed",
			"errors":  valErr.Fields,
		})
	}

	var appErr *apperrors.ApplicationError
	if errors.As(err, &appErr) {
		return c.Status(appErr.StatusCode).JSON(fiber.Map{
			"success": false,
			"message": appErr.Message,
			"errors":  fiber.Map{"general": []string{appErr.Message}},
		})
	}

	if errors.Is(err, repositories.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Product not found",
			"errors":  fiber.Map{"general": []string{"Product not found"}},
		})
	}

	h.logger.Printf("%s: %v", fallback, err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": fallback,
		"errors":  fiber.Map{"general": []string{err.Error()}},
	})
}

// listQueryFromRequest translates the request's query string into a
// ListQuery. Malformed numeric parameters are ignored rather than rejected.
func listQueryFromRequest(c *fiber.Ctx) repositories.ListQuery {
	query := repositories.ListQuery{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Sort:     c.Query("sort"),
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", repositories.DefaultLimit),
	}

	if f, ok := queryFloat(c, "priceMin"); ok {
		query.PriceMin = &f
	}
	if f, ok := queryFloat(c, "priceMax"); ok {
		query.PriceMax = &f
	}
	if f, ok := queryFloat(c, "ratings"); ok {
		query.Ratings = &f
	}
	query.Colors = queryList(c, "colors")
	query.Variants = queryList(c, "variants")
	query.Size = queryList(c, "size")

	query.Normalize()
	return query
}

func queryFloat(c *fiber.Ctx, key string) (float64, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func queryList(c *fiber.Ctx, key string) []string {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}
