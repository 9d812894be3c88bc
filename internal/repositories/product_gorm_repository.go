package repositories

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"catalog/internal/models"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

var sortClauses = map[string]string{
	SortName:          "name ASC",
	SortPriceAsc:      "price ASC",
	SortPriceDesc:     "price DESC",
	SortCreatedAtAsc:  "created_at ASC",
	SortCreatedAtDesc: "created_at DESC",
	SortUpdatedAtAsc:  "updated_at ASC",
	SortUpdatedAtDesc: "updated_at DESC",
	SortRatingsAsc:    "ratings ASC",
	SortRatingsDesc:   "ratings DESC",
}

func sortClause(sort string) string {
	if clause, ok := sortClauses[sort]; ok {
		return clause
	}
	return sortClauses[DefaultSort]
}

// applyFilters translates the query into WHERE conditions. The list-column
// filters match against the JSON-serialized text, so a requested value hits
// when its quoted form appears in the stored array.
func applyFilters(db *gorm.DB, q ListQuery) *gorm.DB {
	if q.Search != "" {
		pattern := "%" + strings.ToLower(q.Search) + "%"
		db = db.Where("(LOWER(name) LIKE ? OR LOWER(brand) LIKE ? OR LOWER(category) LIKE ?)", pattern, pattern, pattern)
	}
	if q.Ratings != nil {
		db = db.Where("ratings >= ?", *q.Ratings)
	}
	if q.PriceMin != nil {
		db = db.Where("price >= ?", *q.PriceMin)
	}
	if q.PriceMax != nil {
		db = db.Where("price <= ?", *q.PriceMax)
	}
	if q.Category != "" {
		db = db.Where("category = ?", q.Category)
	}
	switch q.Category {
	case models.CategoryElectronics:
		db = anyOfList(db, "colors", q.Colors)
		db = anyOfList(db, "variants", q.Variants)
	case models.CategoryClothing:
		db = anyOfList(db, "colors", q.Colors)
		db = anyOfList(db, "size", q.Size)
	}
	return db
}

// anyOfList matches records whose JSON list column contains at least one of
// the requested values.
func anyOfList(db *gorm.DB, column string, values []string) *gorm.DB {
	if len(values) == 0 {
		return db
	}
	conds := make([]string, 0, len(values))
	args := make([]interface{}, 0, len(values))
	for _, v := range values {
		conds = append(conds, column+" LIKE ?")
		args = append(args, `%"`+v+`"%`)
	}
	return db.Where("("+strings.Join(conds, " OR ")+")", args...)
}

// List returns the requested page of matching products and the total count
// of matches. Both run against the same conditions, so the total is always
// consistent with the filter even though it is a separate query.
func (r *GORMProductRepository) List(query ListQuery) ([]models.Product, int64, error) {
	query.Normalize()

	var total int64
	if err := applyFilters(r.db.Model(&models.Product{}), query).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	var products []models.Product
	err := applyFilters(r.db.Model(&models.Product{}), query).
		Order(sortClause(query.Sort)).
		Offset(query.Offset()).
		Limit(query.Limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update updates an existing product in the database.
func (r *GORMProductRepository) Update(product *models.Product) error {
	res := r.db.Save(product) // Save writes all fields, including zero values
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Save doesn't return ErrRecordNotFound for a missing row, so we
		// check RowsAffected.
		return fmt.Errorf("product with ID %s: %w", product.ID, ErrNotFound)
	}
	return nil
}

// Delete deletes a product by its ID from the database.
func (r *GORMProductRepository) Delete(id string) error {
	res := r.db.Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteMany removes all products whose IDs are in ids in one statement.
func (r *GORMProductRepository) DeleteMany(ids []string) (int64, error) {
	res := r.db.Delete(&models.Product{}, "id IN ?", ids)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete products: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ExistsByName reports whether another product already uses the given name.
func (r *GORMProductRepository) ExistsByName(name, excludeID string) (bool, error) {
	tx := r.db.Model(&models.Product{}).Where("name = ?", name)
	if excludeID != "" {
		tx = tx.Where("id <> ?", excludeID)
	}
	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check product name %q: %w", name, err)
	}
	return count > 0, nil
}
