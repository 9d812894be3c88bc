package services

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"sync"

	"catalog/internal/apperrors"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/validation"
)

// MaxBulkCreate is the largest batch a single bulk-create call accepts.
const MaxBulkCreate = 500

// Exchange and routing keys for product lifecycle events.
const (
	productEventsExchange = "products"

	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
)

// EventPublisher publishes product lifecycle events. The RabbitMQ client
// satisfies it; a nil publisher disables eventing.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// ValidationError carries field-scoped rule violations for a single product.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// BulkCreated records one successfully created item of a bulk request.
type BulkCreated struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// BulkItemError records why one item of a bulk request failed.
type BulkItemError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// BulkFailure ties an item error back to its position in the request.
type BulkFailure struct {
	Index int           `json:"index"`
	Error BulkItemError `json:"error"`
}

// BulkCreateResult is the per-item outcome summary of a bulk create.
type BulkCreateResult struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
	Details struct {
		Success []BulkCreated `json:"success"`
		Failed  []BulkFailure `json:"failed"`
	} `json:"details"`
}

// ProductService handles business logic related to products: validation
// orchestration, persistence, bulk operations and event publishing.
type ProductService struct {
	repo      repositories.ProductRepository
	rules     *validation.Validator
	publisher EventPublisher
	logger    *log.Logger
}

// NewProductService creates a new ProductService. publisher may be nil, in
// which case lifecycle events are skipped.
func NewProductService(repo repositories.ProductRepository, rules *validation.Validator, publisher EventPublisher, logger *log.Logger) *ProductService {
	if logger == nil {
		logger = log.Default()
	}
	return &ProductService{
		repo:      repo,
		rules:     rules,
		publisher: publisher,
		logger:    logger,
	}
}

// ListProducts retrieves one page of products matching the query plus the
// total count of matches.
func (s *ProductService) ListProducts(query repositories.ListQuery) ([]models.Product, int64, error) {
	return s.repo.List(query)
}

// GetProduct retrieves a single product by its ID.
func (s *ProductService) GetProduct(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CreateProduct validates and persists a new product, then publishes a
// product.created event.
func (s *ProductService) CreateProduct(product *models.Product) error {
	fields, err := s.validateProduct(product, "")
	if err != nil {
		return err
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	if err := s.repo.Create(product); err != nil {
		if apperrors.IsDuplicate(err) {
			return &ValidationError{Fields: map[string][]string{
				"name": {duplicateNameMessage(product.Name)},
			}}
		}
		return err
	}

	s.logger.Printf("Product created: %s", product.Name)
	s.publishEvent(EventProductCreated, map[string]interface{}{
		"productID": product.ID,
		"name":      product.Name,
		"category":  product.Category,
	})
	return nil
}

// UpdateProduct applies a partial update: only fields present in patch
// change, the merged record is re-validated (name uniqueness excludes the
// record itself), and a product.updated event is published.
func (s *ProductService) UpdateProduct(id string, patch []byte) (*models.Product, error) {
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	updated := *existing
	if err := json.Unmarshal(patch, &updated); err != nil {
		return nil, apperrors.New("Invalid request body", http.StatusBadRequest)
	}
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt

	fields, err := s.validateProduct(&updated, id)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	if err := s.repo.Update(&updated); err != nil {
		if apperrors.IsDuplicate(err) {
			return nil, &ValidationError{Fields: map[string][]string{
				"name": {duplicateNameMessage(updated.Name)},
			}}
		}
		return nil, err
	}

	s.publishEvent(EventProductUpdated, map[string]interface{}{
		"productID": updated.ID,
		"name":      updated.Name,
	})
	return &updated, nil
}

// DeleteProduct removes a single product and publishes a product.deleted
// event.
func (s *ProductService) DeleteProduct(id string) error {
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	s.logger.Printf("Product with ID %s deleted", id)
	s.publishEvent(EventProductDeleted, map[string]interface{}{
		"productIDs":   []string{id},
		"deletedCount": 1,
	})
	return nil
}

// BulkDelete removes every product in ids, ignoring unknown IDs, and
// returns the number deleted. An empty id list is a client error; zero
// matches is not-found.
func (s *ProductService) BulkDelete(ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, apperrors.New("No product IDs provided", http.StatusBadRequest)
	}

	count, err := s.repo.DeleteMany(ids)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, fmt.Errorf("no products found to delete: %w", repositories.ErrNotFound)
	}

	s.publishEvent(EventProductDeleted, map[string]interface{}{
		"productIDs":   ids,
		"deletedCount": count,
	})
	return count, nil
}

// BulkCreate validates 1-500 candidate products and inserts the valid ones.
// Validation is fanned out concurrently across items; inserts run strictly
// sequentially in input order. Individual failures never abort the batch:
// every item's outcome lands in the result.
func (s *ProductService) BulkCreate(items []models.Product) (*BulkCreateResult, error) {
	if len(items) == 0 {
		return nil, apperrors.New("Invalid or empty array of products provided", http.StatusBadRequest)
	}
	if len(items) > MaxBulkCreate {
		return nil, apperrors.New("Cannot create more than 500 products at once", http.StatusBadRequest)
	}

	itemErrors := make([]*BulkItemError, len(items))
	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			itemErrors[i] = s.validateBulkItem(&items[i])
		}(i)
	}
	wg.Wait()

	result := &BulkCreateResult{Total: len(items)}
	result.Details.Success = []BulkCreated{}
	result.Details.Failed = []BulkFailure{}

	for i := range items {
		if itemErrors[i] != nil {
			result.Details.Failed = append(result.Details.Failed, BulkFailure{Index: i, Error: *itemErrors[i]})
			continue
		}

		if err := s.repo.Create(&items[i]); err != nil {
			itemErr := BulkItemError{Field: "validation", Message: "Creation failed"}
			if apperrors.IsDuplicate(err) {
				// Duplicates inside the batch surface here: both items pass
				// the uniqueness pre-check, the second insert hits the
				// constraint.
				itemErr = BulkItemError{Field: "name", Message: duplicateNameMessage(items[i].Name)}
			}
			result.Details.Failed = append(result.Details.Failed, BulkFailure{Index: i, Error: itemErr})
			continue
		}

		result.Details.Success = append(result.Details.Success, BulkCreated{
			ID:      items[i].ID,
			Name:    items[i].Name,
			Message: "Created successfully",
		})
		s.publishEvent(EventProductCreated, map[string]interface{}{
			"productID": items[i].ID,
			"name":      items[i].Name,
			"category":  items[i].Category,
		})
	}

	result.Success = len(result.Details.Success)
	result.Failed = len(result.Details.Failed)
	s.logger.Printf("Bulk product creation: %d succeeded, %d failed", result.Success, result.Failed)
	return result, nil
}

// validateProduct combines the shared rules with the repository-backed name
// uniqueness check.
func (s *ProductService) validateProduct(p *models.Product, excludeID string) (map[string][]string, error) {
	fields := s.rules.Validate(p)

	if p.Name != "" {
		exists, err := s.repo.ExistsByName(p.Name, excludeID)
		if err != nil {
			return nil, fmt.Errorf("failed to check name uniqueness: %w", err)
		}
		if exists {
			if fields == nil {
				fields = make(map[string][]string)
			}
			fields["name"] = append(fields["name"], duplicateNameMessage(p.Name))
		}
	}
	return fields, nil
}

// validateBulkItem reduces one item's violations to the single
// field/message pair the bulk result reports.
func (s *ProductService) validateBulkItem(p *models.Product) *BulkItemError {
	if fields := s.rules.Validate(p); len(fields) > 0 {
		return firstFieldError(fields)
	}
	exists, err := s.repo.ExistsByName(p.Name, "")
	if err != nil {
		return &BulkItemError{Field: "unknown", Message: err.Error()}
	}
	if exists {
		return &BulkItemError{Field: "name", Message: duplicateNameMessage(p.Name)}
	}
	return nil
}

func (s *ProductService) publishEvent(routingKey string, payload map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Printf("Failed to marshal %s event: %v", routingKey, err)
		return
	}
	if err := s.publisher.Publish(productEventsExchange, routingKey, body); err != nil {
		s.logger.Printf("Warning: failed to publish %s event: %v", routingKey, err)
	}
}

func duplicateNameMessage(name string) string {
	return fmt.Sprintf("Product with name '%s' already exists", name)
}

// firstFieldError picks a deterministic representative violation: the first
// message of the alphabetically first field.
func firstFieldError(fields map[string][]string) *BulkItemError {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &BulkItemError{Field: keys[0], Message: fields[keys[0]][0]}
}
