package repositories

import (
	"errors"

	"catalog/internal/models"
)

// ErrNotFound signals that no product matched the given identifier(s).
// Repository errors wrap it so callers can classify with errors.Is.
var ErrNotFound = errors.New("product not found")

// DefaultLimit is the page size used when the caller does not supply one.
const DefaultLimit = 25

// Sort keys accepted by List. Anything else falls back to DefaultSort.
const (
	SortName          = "name"
	SortPriceAsc      = "priceAsc"
	SortPriceDesc     = "priceDesc"
	SortCreatedAtAsc  = "createdAtAsc"
	SortCreatedAtDesc = "createdAtDesc"
	SortUpdatedAtAsc  = "updatedAtAsc"
	SortUpdatedAtDesc = "updatedAtDesc"
	SortRatingsAsc    = "ratingsAsc"
	SortRatingsDesc   = "ratingsDesc"

	DefaultSort = SortCreatedAtDesc
)

// ListQuery carries the filter, sort and pagination parameters for List.
// All filters are optional and combine with logical AND. The Colors,
// Variants and Size filters use any-of semantics: a record matches when at
// least one requested value is present in its list.
type ListQuery struct {
	Search   string
	Category string
	PriceMin *float64
	PriceMax *float64
	Ratings  *float64
	Colors   []string
	Variants []string
	Size     []string
	Sort     string
	Page     int
	Limit    int
}

// Normalize clamps pagination to sane values.
func (q *ListQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
}

// Offset returns the number of records to skip for the requested page.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	// List returns one page of products matching the query plus the total
	// count of matching records independent of the pagination window.
	List(query ListQuery) ([]models.Product, int64, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
	// DeleteMany removes every product whose ID is in ids and returns the
	// number deleted. Unknown IDs are ignored.
	DeleteMany(ids []string) (int64, error)
	// ExistsByName reports whether a product with the given name exists,
	// excluding the record with excludeID when non-empty.
	ExistsByName(name, excludeID string) (bool, error)
}
