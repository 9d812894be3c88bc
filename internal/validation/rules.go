package validation

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"catalog/internal/models"
)

// Category-conditional rule messages. These are the single source of truth
// for every layer that validates a product (request middleware, service,
// bulk operations).
const (
	MsgVariantsRequired = "Variants are required for electronics category"
	MsgSizeRequired     = "Size is required for clothing category"
	MsgVariantsOnly     = "Variants are only allowed for electronics category"
	MsgSizesOnly        = "Sizes are only allowed for clothing category"
)

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9'&\-\s]+$`)

// Validator checks candidate products against the catalog field rules and
// the category-conditional rules. It is pure: uniqueness checks that need
// the persistence layer live in the service.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator with the product name pattern registered and
// error fields reported by their JSON names.
func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("prodname", func(fl validator.FieldLevel) bool {
		return namePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("failed to register prodname validation: %v", err))
	}

	return &Validator{validate: v}
}

// Validate returns all rule violations grouped by field name. An empty map
// means the product is valid. No short-circuiting: every failing rule
// contributes a message.
func (v *Validator) Validate(p *models.Product) map[string][]string {
	fields := make(map[string][]string)

	if err := v.validate.Struct(p); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			fields["general"] = append(fields["general"], err.Error())
			return fields
		}
		for _, fe := range validationErrors {
			field := baseField(fe.Field())
			fields[field] = append(fields[field], message(field, fe))
		}
	}

	if p.Price > 0 && !hasPrecision(p.Price, 2) {
		fields["price"] = append(fields["price"], "Price can only have up to 2 decimal places")
	}
	if p.Ratings > 0 && !hasPrecision(p.Ratings, 1) {
		fields["ratings"] = append(fields["ratings"], "Rating can only have 1 decimal place")
	}

	for field, msg := range categoryErrors(p) {
		fields[field] = append(fields[field], msg)
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}

// categoryErrors applies the category-conditional rule table.
func categoryErrors(p *models.Product) map[string]string {
	errs := make(map[string]string)
	switch p.Category {
	case models.CategoryElectronics:
		if len(p.Variants) == 0 {
			errs["category"] = MsgVariantsRequired
		}
		if len(p.Size) > 0 {
			errs["size"] = MsgSizesOnly
		}
	case models.CategoryClothing:
		if len(p.Size) == 0 {
			errs["category"] = MsgSizeRequired
		}
		if len(p.Variants) > 0 {
			errs["variants"] = MsgVariantsOnly
		}
	case models.CategoryOthers:
		if len(p.Variants) > 0 {
			errs["variants"] = MsgVariantsOnly
		}
		if len(p.Size) > 0 {
			errs["size"] = MsgSizesOnly
		}
	}
	return errs
}

// hasPrecision reports whether f has at most the given number of decimal
// places, with a small tolerance for float representation error.
func hasPrecision(f float64, places int) bool {
	shifted := f * math.Pow10(places)
	return math.Abs(shifted-math.Round(shifted)) < 1e-6
}

// baseField strips a slice index from a dive error field, so that
// "colors[0]" groups under "colors".
func baseField(field string) string {
	if i := strings.IndexByte(field, '['); i >= 0 {
		return field[:i]
	}
	return field
}

// message translates a tag failure into the field-scoped message the API
// reports. Unknown field/tag combinations fall back to a generic message.
func message(field string, fe validator.FieldError) string {
	switch field {
	case "id":
		return "Product ID must be a valid UUID"
	case "name":
		switch fe.Tag() {
		case "required":
			return "Product name is required"
		case "min":
			return "Product name must be at least 3 characters"
		case "max":
			return "Product name cannot exceed 100 characters"
		case "prodname":
			return "Product name can only contain letters, numbers, spaces, and basic punctuation"
		}
	case "brand":
		switch fe.Tag() {
		case "required":
			return "Brand name is required"
		case "min":
			return "Brand name must be at least 2 characters"
		case "max":
			return "Brand name cannot exceed 50 characters"
		}
	case "seller":
		switch fe.Tag() {
		case "required":
			return "Seller name is required"
		case "min":
			return "Seller name must be at least 2 characters"
		case "max":
			return "Seller name cannot exceed 50 characters"
		}
	case "product_description":
		switch fe.Tag() {
		case "required":
			return "Product description is required"
		case "min":
			return "Description must be at least 20 characters"
		case "max":
			return "Description cannot exceed 1000 characters"
		}
	case "price":
		switch fe.Tag() {
		case "required":
			return "Price is required"
		case "gt":
			return "Price must be greater than 0"
		case "lte":
			return "Price cannot exceed 999,999.99"
		}
	case "discount":
		switch fe.Tag() {
		case "gte":
			return "Discount cannot be less than 0%"
		case "lte":
			return "Discount cannot exceed 100%"
		}
	case "ratings":
		return "Rating must be between 0 and 5"
	case "cod_availability":
		return "COD availability is required"
	case "total_stock_availability":
		switch fe.Tag() {
		case "required":
			return "Stock availability is required"
		case "gte":
			return "Stock cannot be negative"
		case "lte":
			return "Stock cannot exceed 999,999 units"
		}
	case "category":
		switch fe.Tag() {
		case "required":
			return "Category is required"
		case "oneof":
			return "Category must be one of: electronics, clothing, or others"
		}
	case "colors":
		if fe.Tag() == "required" || (fe.Tag() == "min" && fe.Kind() == reflect.Slice) {
			return "At least one color is required"
		}
		return "Each color must be between 2 and 20 characters"
	case "variants":
		return "Each variant must be between 2 and 50 characters"
	case "size":
		return "Each size must be between 1 and 10 characters"
	case "isActive":
		return "Status is required"
	}
	return fmt.Sprintf("Field '%s' failed on the '%s' tag", field, fe.Tag())
}
