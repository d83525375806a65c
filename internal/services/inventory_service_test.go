package services

import (
	"testing"

	"github.com/Lusimba/kichaka/internal/models"
	"github.com/Lusimba/kichaka/internal/repositories"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeInventoryRepo implements repositories.InventoryRepository with
// overridable function fields; unset methods panic.
type fakeInventoryRepo struct {
	createCategory  func(executor repositories.SQLExecutor, category *models.Category) (int64, error)
	getCategoryByID func(id int64) (*models.Category, error)
	createItem      func(executor repositories.SQLExecutor, item *models.Item) (int64, error)
	assignSKU       func(executor repositories.SQLExecutor, itemID int64, sku string) error
	getItemByID     func(id int64) (*models.Item, error)
	updateStock     func(executor repositories.SQLExecutor, itemID int64, quantityChange int) (int, error)
	setStock        func(executor repositories.SQLExecutor, itemID int64, newStock int) (int, error)
	createActivity  func(executor repositories.SQLExecutor, activity *models.InventoryActivity) (int64, error)
}

func (f *fakeInventoryRepo) CreateCategory(executor repositories.SQLExecutor, category *models.Category) (int64, error) {
	return f.createCategory(executor, category)
}

func (f *fakeInventoryRepo) GetCategoryByID(id int64) (*models.Category, error) {
	return f.getCategoryByID(id)
}

func (f *fakeInventoryRepo) GetCategories(page, pageSize int) ([]models.Category, int, error) {
	panic("not implemented")
}

func (f *fakeInventoryRepo) UpdateCategory(executor repositories.SQLExecutor, category *models.Category) error {
	panic("not implemented")
}

func (f *fakeInventoryRepo) DeleteCategory(executor repositories.SQLExecutor, id int64) error {
	panic("not implemented")
}

func (f *fakeInventoryRepo) CreateItem(executor repositories.SQLExecutor, item *models.Item) (int64, error) {
	return f.createItem(executor, item)
}

func (f *fakeInventoryRepo) AssignSKU(executor repositories.SQLExecutor, itemID int64, sku string) error {
	return f.assignSKU(executor, itemID, sku)
}

func (f *fakeInventoryRepo) GetItemByID(id int64) (*models.Item, error) {
	return f.getItemByID(id)
}

func (f *fakeInventoryRepo) GetItems(search string, page, pageSize int) ([]models.Item, int, error) {
	panic("not implemented")
}

func (f *fakeInventoryRepo) GetLowStockItems(threshold int, search string, page, pageSize int) ([]models.Item, int, error) {
	panic("not implemented")
}

func (f *fakeInventoryRepo) UpdateItem(executor repositories.SQLExecutor, item *models.Item) error {
	panic("not implemented")
}

func (f *fakeInventoryRepo) DeleteItem(executor repositories.SQLExecutor, id int64) error {
	panic("not implemented")
}

func (f *fakeInventoryRepo) UpdateStock(executor repositories.SQLExecutor, itemID int64, quantityChange int) (int, error) {
	return f.updateStock(executor, itemID, quantityChange)
}

func (f *fakeInventoryRepo) SetStock(executor repositories.SQLExecutor, itemID int64, newStock int) (int, error) {
	return f.setStock(executor, itemID, newStock)
}

func (f *fakeInventoryRepo) CreateActivity(executor repositories.SQLExecutor, activity *models.InventoryActivity) (int64, error) {
	return f.createActivity(executor, activity)
}

func (f *fakeInventoryRepo) GetActivities(itemID *int64, page, pageSize int) ([]models.InventoryActivity, int, error) {
	panic("not implemented")
}

func TestBuildSKU(t *testing.T) {
	tests := []struct {
		name         string
		categoryName string
		categoryID   int64
		itemID       int64
		want         string
	}{
		{"basic", "Sculptures", 4, 17, "SCU04017"},
		{"short category name", "Ab", 1, 2, "AB01002"},
		{"non-letters stripped", "3D Prints!", 12, 345, "DPR12345"},
		{"no letters falls back", "123", 2, 9, "ITM02009"},
		{"ids wider than padding", "Masks", 120, 4567, "MAS1204567"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildSKU(tt.categoryName, tt.categoryID, tt.itemID))
		})
	}
}

func TestCreateItemAssignsSKUOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	var assignedSKU string
	var activities []models.InventoryActivity
	repo := &fakeInventoryRepo{
		getCategoryByID: func(id int64) (*models.Category, error) {
			return &models.Category{ID: 4, Name: "Sculptures"}, nil
		},
		createItem: func(executor repositories.SQLExecutor, item *models.Item) (int64, error) {
			item.ID = 17
			return 17, nil
		},
		assignSKU: func(executor repositories.SQLExecutor, itemID int64, sku string) error {
			assignedSKU = sku
			return nil
		},
		createActivity: func(executor repositories.SQLExecutor, activity *models.InventoryActivity) (int64, error) {
			activities = append(activities, *activity)
			return 1, nil
		},
		getItemByID: func(id int64) (*models.Item, error) {
			sku := assignedSKU
			return &models.Item{ID: id, Name: "Lion", SKU: &sku, Stock: 5}, nil
		},
	}
	svc := NewInventoryService(repo, db)

	item, err := svc.CreateItem(CreateItemRequest{Name: "Lion", CategoryID: 4, Stock: 5})
	require.NoError(t, err)
	assert.Equal(t, "SCU04017", assignedSKU)
	require.NotNil(t, item.SKU)
	assert.Equal(t, "SCU04017", *item.SKU)

	// Opening stock is recorded as an ADD movement.
	require.Len(t, activities, 1)
	assert.Equal(t, models.ActivityAdd, activities[0].ActivityType)
	assert.Equal(t, 5, activities[0].Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateItemMissingCategory(t *testing.T) {
	repo := &fakeInventoryRepo{
		getCategoryByID: func(id int64) (*models.Category, error) {
			return nil, repositories.ErrNotFound
		},
	}
	svc := NewInventoryService(repo, nil)

	_, err := svc.CreateItem(CreateItemRequest{Name: "Lion", CategoryID: 99})
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestAdjustStockRelative(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	var recorded []models.InventoryActivity
	repo := &fakeInventoryRepo{
		getItemByID: func(id int64) (*models.Item, error) {
			return &models.Item{ID: id, Name: "Lion", Stock: 10}, nil
		},
		updateStock: func(executor repositories.SQLExecutor, itemID int64, quantityChange int) (int, error) {
			return 10 + quantityChange, nil
		},
		createActivity: func(executor repositories.SQLExecutor, activity *models.InventoryActivity) (int64, error) {
			recorded = append(recorded, *activity)
			return 1, nil
		},
	}
	svc := NewInventoryService(repo, db)

	change := -3
	result, err := svc.AdjustStock(StockAdjustment{ItemID: 1, Change: &change})
	require.NoError(t, err)
	assert.Equal(t, 10, result.OldStock)
	assert.Equal(t, 7, result.NewStock)
	assert.Equal(t, -3, result.Change)

	require.Len(t, recorded, 1)
	assert.Equal(t, models.ActivityRemove, recorded[0].ActivityType)
	assert.Equal(t, 3, recorded[0].Quantity, "activity rows carry the moved amount, not a signed delta")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustStockAbsoluteWinsOverChange(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	repo := &fakeInventoryRepo{
		getItemByID: func(id int64) (*models.Item, error) {
			return &models.Item{ID: id, Name: "Lion", Stock: 10}, nil
		},
		setStock: func(executor repositories.SQLExecutor, itemID int64, newStock int) (int, error) {
			return 10, nil
		},
		createActivity: func(executor repositories.SQLExecutor, activity *models.InventoryActivity) (int64, error) {
			assert.Equal(t, models.ActivityAdd, activity.ActivityType)
			assert.Equal(t, 15, activity.Quantity)
			return 1, nil
		},
	}
	svc := NewInventoryService(repo, db)

	change, newStock := 5, 25
	result, err := svc.AdjustStock(StockAdjustment{ItemID: 1, Change: &change, NewStock: &newStock})
	require.NoError(t, err)
	assert.Equal(t, 25, result.NewStock)
	assert.Equal(t, 15, result.Change)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustStockGuards(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := &fakeInventoryRepo{
		getItemByID: func(id int64) (*models.Item, error) {
			return &models.Item{ID: id, Name: "Lion", Stock: 2}, nil
		},
	}
	svc := NewInventoryService(repo, db)

	mock.ExpectBegin()
	mock.ExpectRollback()
	change := -5
	_, err = svc.AdjustStock(StockAdjustment{ItemID: 1, Change: &change})
	assert.ErrorIs(t, err, ErrValidation)

	mock.ExpectBegin()
	mock.ExpectRollback()
	zero := 0
	_, err = svc.AdjustStock(StockAdjustment{ItemID: 1, Change: &zero})
	assert.ErrorIs(t, err, ErrValidation)

	mock.ExpectBegin()
	mock.ExpectRollback()
	negative := -1
	_, err = svc.AdjustStock(StockAdjustment{ItemID: 1, NewStock: &negative})
	assert.ErrorIs(t, err, ErrValidation)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = svc.AdjustStock(StockAdjustment{ItemID: 1})
	assert.ErrorIs(t, err, ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchAdjustStockEmpty(t *testing.T) {
	svc := NewInventoryService(&fakeInventoryRepo{}, nil)
	_, err := svc.BatchAdjustStock(BatchStockUpdateRequest{})
	assert.ErrorIs(t, err, ErrValidation)
}
