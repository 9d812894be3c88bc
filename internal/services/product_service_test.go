package services_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"catalog/internal/apperrors"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"
	"catalog/internal/validation"
)

// MockProductRepository is a mock implementation of repositories.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) List(query repositories.ListQuery) ([]models.Product, int64, error) {
	args := m.Called(query)
	return args.Get(0).([]models.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) GetByID(id string) (*models.Product, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) Create(product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepository) Update(product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockProductRepository) DeleteMany(ids []string) (int64, error) {
	args := m.Called(ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) ExistsByName(name, excludeID string) (bool, error) {
	args := m.Called(name, excludeID)
	return args.Bool(0), args.Error(1)
}

// MockPublisher is a mock implementation of services.EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(exchange, routingKey string, body []byte) error {
	args := m.Called(exchange, routingKey, body)
	return args.Error(0)
}

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }

func validProduct(name, category string) models.Product {
	p := models.Product{
		Name:        name,
		Brand:       "Acme",
		Seller:      "Acme Store",
		Description: "A reasonably long description of the test product.",
		Price:       199.99,
		CODAvail:    boolPtr(true),
		TotalStock:  intPtr(100),
		Category:    category,
		Colors:      models.StringList{"black"},
		IsActive:    boolPtr(true),
	}
	switch category {
	case models.CategoryElectronics:
		p.Variants = models.StringList{"128GB"}
	case models.CategoryClothing:
		p.Size = models.StringList{"M"}
	}
	return p
}

func newService(repo repositories.ProductRepository, publisher services.EventPublisher) *services.ProductService {
	return services.NewProductService(repo, validation.New(), publisher, nil)
}

func TestCreateProductSuccess(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockPub := new(MockPublisher)
	service := newService(mockRepo, mockPub)

	product := validProduct("New Phone", models.CategoryElectronics)

	mockRepo.On("ExistsByName", "New Phone", "").Return(false, nil).Once()
	mockRepo.On("Create", &product).Run(func(args mock.Arguments) {
		args.Get(0).(*models.Product).ID = "id-1"
	}).Return(nil).Once()
	mockPub.On("Publish", "products", services.EventProductCreated, mock.Anything).Return(nil).Once()

	err := service.CreateProduct(&product)

	assert.NoError(t, err)
	assert.Equal(t, "id-1", product.ID)
	mockRepo.AssertExpectations(t)
	mockPub.AssertExpectations(t)
}

func TestCreateProductCategoryRuleViolation(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newService(mockRepo, nil)

	product := validProduct("New Phone", models.CategoryElectronics)
	product.Variants = nil

	mockRepo.On("ExistsByName", "New Phone", "").Return(false, nil).Once()

	err := service.CreateProduct(&product)

	var valErr *services.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields["category"], validation.MsgVariantsRequired)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestCreateProductDuplicateName(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newService(mockRepo, nil)

	product := validProduct("Taken", models.CategoryOthers)
	mockRepo.On("ExistsByName", "Taken", "").Return(true, nil).Once()

	err := service.CreateProduct(&product)

	var valErr *services.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields["name"], "Product with name 'Taken' already exists")
	mockRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestCreateProductConstraintRace(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newService(mockRepo, nil)

	product := validProduct("Racy", models.CategoryOthers)
	mockRepo.On("ExistsByName", "Racy", "").Return(false, nil).Once()
	mockRepo.On("Create", &product).Return(errors.New("UNIQUE constraint failed: products.name")).Once()

	err := service.CreateProduct(&product)

	var valErr *services.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields["name"], "Product with name 'Racy' already exists")
}

func TestUpdateProductPartial(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockPub := new(MockPublisher)
	service := newService(mockRepo, mockPub)

	existing := validProduct("Shirt", models.CategoryClothing)
	existing.ID = "id-1"
	existing.Price = 20

	mockRepo.On("GetByID", "id-1").Return(&existing, nil).Once()
	mockRepo.On("ExistsByName", "Shirt", "id-1").Return(false, nil).Once()
	mockRepo.On("Update", mock.Anything).Return(nil).Once()
	mockPub.On("Publish", "products", services.EventProductUpdated, mock.Anything).Return(nil).Once()

	updated, err := service.UpdateProduct("id-1", []byte(`{"price": 25.5}`))

	require.NoError(t, err)
	assert.Equal(t, 25.5, updated.Price)
	// Fields absent from the patch keep their stored values.
	assert.Equal(t, "Shirt", updated.Name)
	assert.Equal(t, models.StringList{"M"}, updated.Size)
	mockRepo.AssertExpectations(t)
	mockPub.AssertExpectations(t)
}

func TestUpdateProductRejectsCategoryViolation(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newService(mockRepo, nil)

	existing := validProduct("Shirt", models.CategoryClothing)
	existing.ID = "id-1"

	mockRepo.On("GetByID", "id-1").Return(&existing, nil).Once()
	mockRepo.On("ExistsByName", "Shirt", "id-1").Return(false, nil).Once()

	// Flipping to electronics without variants violates the category rule.
	_, err := service.UpdateProduct("id-1", []byte(`{"category": "electronics", "size": []}`))

	var valErr *services.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields["category"], validation.MsgVariantsRequired)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything)
}

func TestUpdateProductNotFound(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newService(mockRepo, nil)

	mockRepo.On("GetByID", "missing").Return(nil, fmt.Errorf("product with ID missing: %w", repositories.ErrNotFound)).Once()

	_, err := service.UpdateProduct("missing", []byte(`{"price": 10}`))
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestUpdateProductMalformedBody(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newService(mockRepo, nil)

	existing := validProduct("Shirt", models.CategoryClothing)
	existing.ID = "id-1"
	mockRepo.On("GetByID", "id-1").Return(&existing, nil).Once()

	_, err := service.UpdateProduct("id-1", []byte(`{not json`))

	var appErr *apperrors.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.StatusCode)
}

func TestBulkCreateRejectsOversizedBatch(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newService(mockRepo, nil)

	items := make([]models.Product, services.MaxBulkCreate+1)
	for i := range items {
		items[i] = validProduct(fmt.Sprintf("Product %03d", i), models.CategoryOthers)
	}

	_, err := service.BulkCreate(items)

	var appErr *apperrors.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.StatusCode)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestBulkCreateRejectsEmptyBatch(t *testing.T) {
	service := newService(new(MockProductRepository), nil)

	_, err := service.BulkCreate(nil)

	var appErr *apperrors.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.StatusCode)
}

func TestBulkCreatePartialFailure(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newService(mockRepo, nil)

	items := []models.Product{
		validProduct("Fresh Product", models.CategoryOthers),
		validProduct("Taken Product", models.CategoryOthers),
		validProduct("Broken Product", models.CategoryElectronics),
	}
	items[2].Variants = nil // category rule violation

	mockRepo.On("ExistsByName", "Fresh Product", "").Return(false, nil).Once()
	mockRepo.On("ExistsByName", "Taken Product", "").Return(true, nil).Once()
	mockRepo.On("Create", mock.Anything).Run(func(args mock.Arguments) {
		args.Get(0).(*models.Product).ID = "id-1"
	}).Return(nil).Once()

	result, err := service.BulkCreate(items)

	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.Success)
	assert.Equal(t, 2, result.Failed)

	require.Len(t, result.Details.Success, 1)
	assert.Equal(t, "Fresh Product", result.Details.Success[0].Name)
	assert.Equal(t, "id-1", result.Details.Success[0].ID)
	assert.Equal(t, "Created successfully", result.Details.Success[0].Message)

	require.Len(t, result.Details.Failed, 2)
	byIndex := map[int]services.BulkItemError{}
	for _, f := range result.Details.Failed {
		byIndex[f.Index] = f.Error
	}
	assert.Equal(t, "name", byIndex[1].Field)
	assert.Contains(t, byIndex[1].Message, "already exists")
	assert.Equal(t, "category", byIndex[2].Field)
	assert.Equal(t, validation.MsgVariantsRequired, byIndex[2].Message)

	mockRepo.AssertExpectations(t)
}

func TestBulkCreateDuplicateWithinBatch(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newService(mockRepo, nil)

	items := []models.Product{
		validProduct("Same Name", models.CategoryOthers),
		validProduct("Same Name", models.CategoryOthers),
	}

	// Both items pass the pre-check; the second insert hits the constraint.
	mockRepo.On("ExistsByName", "Same Name", "").Return(false, nil).Twice()
	mockRepo.On("Create", mock.Anything).Return(nil).Once()
	mockRepo.On("Create", mock.Anything).Return(errors.New("UNIQUE constraint failed: products.name")).Once()

	result, err := service.BulkCreate(items)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Details.Failed[0].Index)
	assert.Equal(t, "name", result.Details.Failed[0].Error.Field)
}

func TestBulkDeleteRejectsEmptyIDs(t *testing.T) {
	service := newService(new(MockProductRepository), nil)

	_, err := service.BulkDelete(nil)

	var appErr *apperrors.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.StatusCode)
}

func TestBulkDeleteReportsCount(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockPub := new(MockPublisher)
	service := newService(mockRepo, mockPub)

	ids := []string{"id-1", "id-2", "missing"}
	mockRepo.On("DeleteMany", ids).Return(int64(2), nil).Once()
	mockPub.On("Publish", "products", services.EventProductDeleted, mock.Anything).Return(nil).Once()

	count, err := service.BulkDelete(ids)

	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	mockRepo.AssertExpectations(t)
	mockPub.AssertExpectations(t)
}

func TestBulkDeleteNoMatches(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newService(mockRepo, nil)

	mockRepo.On("DeleteMany", []string{"missing"}).Return(int64(0), nil).Once()

	_, err := service.BulkDelete([]string{"missing"})
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestDeleteProductPublishesEvent(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockPub := new(MockPublisher)
	service := newService(mockRepo, mockPub)

	mockRepo.On("Delete", "id-1").Return(nil).Once()
	mockPub.On("Publish", "products", services.EventProductDeleted, mock.Anything).Return(nil).Once()

	assert.NoError(t, service.DeleteProduct("id-1"))
	mockRepo.AssertExpectations(t)
	mockPub.AssertExpectations(t)
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockPub := new(MockPublisher)
	service := newService(mockRepo, mockPub)

	product := validProduct("New Phone", models.CategoryElectronics)
	mockRepo.On("ExistsByName", "New Phone", "").Return(false, nil).Once()
	mockRepo.On("Create", &product).Return(nil).Once()
	mockPub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	assert.NoError(t, service.CreateProduct(&product))
}

func TestListProductsPassthrough(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := newService(mockRepo, nil)

	expected := []models.Product{validProduct("Product A", models.CategoryOthers)}
	query := repositories.ListQuery{Search: "product", Page: 1, Limit: 25}
	mockRepo.On("List", query).Return(expected, int64(1), nil).Once()

	products, total, err := service.ListProducts(query)

	assert.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, expected, products)
	mockRepo.AssertExpectations(t)
}
