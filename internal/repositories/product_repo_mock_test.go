package repositories_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog/internal/models"
	"catalog/internal/repositories"
)

func seedMock(t *testing.T, repo *repositories.MockProductRepository, p models.Product) models.Product {
	t.Helper()
	if p.Category == "" {
		p.Category = models.CategoryOthers
	}
	if len(p.Colors) == 0 {
		p.Colors = models.StringList{"black"}
	}
	require.NoError(t, repo.Create(&p))
	return p
}

func TestMockListFiltersAndPaginates(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	for i := 1; i <= 12; i++ {
		seedMock(t, repo, models.Product{
			Name:      fmt.Sprintf("Product %02d", i),
			Price:     float64(i * 10),
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		})
	}

	products, total, err := repo.List(repositories.ListQuery{
		PriceMin: floatPtr(10),
		PriceMax: floatPtr(50),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, products, 5)

	products, total, err = repo.List(repositories.ListQuery{
		Sort:  repositories.SortName,
		Page:  2,
		Limit: 5,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 12, total)
	require.Len(t, products, 5)
	assert.Equal(t, "Product 06", products[0].Name)
	assert.Equal(t, "Product 10", products[4].Name)

	// Default sort is newest first.
	products, _, err = repo.List(repositories.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, "Product 12", products[0].Name)
}

func TestMockListSetIntersection(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	seedMock(t, repo, models.Product{
		Name:     "Phone A",
		Category: models.CategoryElectronics,
		Colors:   models.StringList{"black", "blue"},
		Variants: models.StringList{"128GB"},
	})
	seedMock(t, repo, models.Product{
		Name:     "Phone B",
		Category: models.CategoryElectronics,
		Colors:   models.StringList{"red"},
		Variants: models.StringList{"64GB"},
	})

	products, total, err := repo.List(repositories.ListQuery{
		Category: models.CategoryElectronics,
		Colors:   []string{"blue", "green"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "Phone A", products[0].Name)
}

func TestMockDuplicateName(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	seedMock(t, repo, models.Product{Name: "Widget"})

	dup := models.Product{Name: "Widget", Category: models.CategoryOthers, Colors: models.StringList{"red"}}
	err := repo.Create(&dup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNIQUE constraint failed")

	exists, err := repo.ExistsByName("Widget", "")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMockDeleteMany(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	a := seedMock(t, repo, models.Product{Name: "Product A"})
	b := seedMock(t, repo, models.Product{Name: "Product B"})

	count, err := repo.DeleteMany([]string{a.ID, b.ID, "missing"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	_, err = repo.GetByID(a.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}
