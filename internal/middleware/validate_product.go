package middleware

import (
	"github.com/gofiber/fiber/v2"

	"catalog/internal/models"
	"catalog/internal/validation"
)

// ProductKey is the Locals key under which ValidateProduct stores the
// parsed, rule-checked product for the downstream handler.
const ProductKey = "validatedProduct"

// ValidateProduct is a Fiber middleware that parses the request body as a
// product and runs the shared validation rules before the handler sees it.
// Rule violations end the request with a 400 and a field-scoped error map.
func ValidateProduct(rules *validation.Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var product models.Product
		if err := c.BodyParser(&product); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid request body",
				"errors":  fiber.Map{"general": []string{err.Error()}},
			})
		}

		if fields := rules.Validate(&product); len(fields) > 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Validation failed",
				"errors":  fields,
			})
		}

		c.Locals(ProductKey, &product)
		return c.Next()
	}
}
