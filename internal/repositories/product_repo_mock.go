package repositories

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"catalog/internal/models"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
// It applies the same filter, sort and pagination semantics as the GORM
// implementation, so tests can run without a database.
type MockProductRepository struct {
	products map[string]models.Product
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[string]models.Product),
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func anyOf(list models.StringList, values []string) bool {
	for _, v := range values {
		if list.Contains(v) {
			return true
		}
	}
	return false
}

// matches applies the ListQuery filter predicate to a single record.
func matches(p models.Product, q ListQuery) bool {
	if q.Search != "" &&
		!containsFold(p.Name, q.Search) &&
		!containsFold(p.Brand, q.Search) &&
		!containsFold(p.Category, q.Search) {
		return false
	}
	if q.Ratings != nil && p.Ratings < *q.Ratings {
		return false
	}
	if q.PriceMin != nil && p.Price < *q.PriceMin {
		return false
	}
	if q.PriceMax != nil && p.Price > *q.PriceMax {
		return false
	}
	if q.Category != "" && p.Category != q.Category {
		return false
	}
	switch q.Category {
	case models.CategoryElectronics:
		if len(q.Colors) > 0 && !anyOf(p.Colors, q.Colors) {
			return false
		}
		if len(q.Variants) > 0 && !anyOf(p.Variants, q.Variants) {
			return false
		}
	case models.CategoryClothing:
		if len(q.Colors) > 0 && !anyOf(p.Colors, q.Colors) {
			return false
		}
		if len(q.Size) > 0 && !anyOf(p.Size, q.Size) {
			return false
		}
	}
	return true
}

func sortProducts(products []models.Product, key string) {
	less := func(a, b models.Product) bool { return a.CreatedAt.After(b.CreatedAt) }
	switch key {
	case SortName:
		less = func(a, b models.Product) bool { return a.Name < b.Name }
	case SortPriceAsc:
		less = func(a, b models.Product) bool { return a.Price < b.Price }
	case SortPriceDesc:
		less = func(a, b models.Product) bool { return a.Price > b.Price }
	case SortCreatedAtAsc:
		less = func(a, b models.Product) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortUpdatedAtAsc:
		less = func(a, b models.Product) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	case SortUpdatedAtDesc:
		less = func(a, b models.Product) bool { return a.UpdatedAt.After(b.UpdatedAt) }
	case SortRatingsAsc:
		less = func(a, b models.Product) bool { return a.Ratings < b.Ratings }
	case SortRatingsDesc:
		less = func(a, b models.Product) bool { return a.Ratings > b.Ratings }
	}
	sort.SliceStable(products, func(i, j int) bool { return less(products[i], products[j]) })
}

// List filters, sorts and paginates the in-memory records.
func (r *MockProductRepository) List(query ListQuery) ([]models.Product, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query.Normalize()

	matching := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if matches(p, query) {
			matching = append(matching, p)
		}
	}
	sortProducts(matching, query.Sort)

	total := int64(len(matching))
	start := query.Offset()
	if start > len(matching) {
		start = len(matching)
	}
	end := start + query.Limit
	if end > len(matching) {
		end = len(matching)
	}
	return matching[start:end], total, nil
}

// GetByID returns a product by its ID.
func (r *MockProductRepository) GetByID(id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	return &product, nil
}

// Create adds a new product.
func (r *MockProductRepository) Create(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	for _, existing := range r.products {
		if existing.Name == product.Name && existing.ID != product.ID {
			return fmt.Errorf("failed to create product: UNIQUE constraint failed: products.name")
		}
	}
	r.products[product.ID] = *product
	return nil
}

// Update modifies an existing product.
func (r *MockProductRepository) Update(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.products[product.ID]
	if !ok {
		return fmt.Errorf("product with ID %s: %w", product.ID, ErrNotFound)
	}
	r.products[product.ID] = *product
	return nil
}

// Delete removes a product by its ID.
func (r *MockProductRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.products[id]
	if !ok {
		return fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	delete(r.products, id)
	return nil
}

// DeleteMany removes every product whose ID is in ids, ignoring unknown IDs.
func (r *MockProductRepository) DeleteMany(ids []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for _, id := range ids {
		if _, ok := r.products[id]; ok {
			delete(r.products, id)
			deleted++
		}
	}
	return deleted, nil
}

// ExistsByName reports whether another product already uses the given name.
func (r *MockProductRepository) ExistsByName(name, excludeID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		if p.Name == name && (excludeID == "" || p.ID != excludeID) {
			return true, nil
		}
	}
	return false, nil
}
