package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Lusimba/kichaka/internal/models"
	"github.com/Lusimba/kichaka/internal/repositories"

	"github.com/shopspring/decimal"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
	ErrCategoryInUse    = errors.New("category is referenced by items")
	ErrItemNotFound     = errors.New("item not found")
)

// Items with stock strictly below this count as low stock unless the
// caller overrides the threshold.
const defaultLowStockThreshold = 50

// --- DTOs ---

// CreateCategoryRequest DTO
type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateItemRequest DTO
type CreateItemRequest struct {
	Name       string `json:"name" binding:"required"`
	CategoryID int64  `json:"category_id" binding:"required"`
	Stock      int    `json:"stock"`

	SplittingDrawingCost decimal.Decimal `json:"splitting_drawing_cost"`
	CarvingCuttingCost   decimal.Decimal `json:"carving_cutting_cost"`
	SandingCost          decimal.Decimal `json:"sanding_cost"`
	PaintingCost         decimal.Decimal `json:"painting_cost"`
	FinishingCost        decimal.Decimal `json:"finishing_cost"`
	PackagingCost        decimal.Decimal `json:"packaging_cost"`

	SellingPrice decimal.Decimal `json:"selling_price"`
}

// UpdateItemRequest DTO. SKU is deliberately absent: it is immutable.
type UpdateItemRequest struct {
	Name       *string `json:"name"`
	CategoryID *int64  `json:"category_id"`

	SplittingDrawingCost *decimal.Decimal `json:"splitting_drawing_cost"`
	CarvingCuttingCost   *decimal.Decimal `json:"carving_cutting_cost"`
	SandingCost          *decimal.Decimal `json:"sanding_cost"`
	PaintingCost         *decimal.Decimal `json:"painting_cost"`
	FinishingCost        *decimal.Decimal `json:"finishing_cost"`
	PackagingCost        *decimal.Decimal `json:"packaging_cost"`

	SellingPrice *decimal.Decimal `json:"selling_price"`
}

// StockAdjustment is one stock change, applied relative or absolute.
type StockAdjustment struct {
	ItemID   int64 `json:"item_id" binding:"required"`
	Change   *int  `json:"change"`    // signed delta
	NewStock *int  `json:"new_stock"` // absolute level; wins over Change
}

// BatchStockUpdateRequest DTO
type BatchStockUpdateRequest struct {
	Adjustments []StockAdjustment `json:"adjustments" binding:"required,dive"`
}

// --- InventoryService Interface ---
type InventoryService interface {
	CreateCategory(req CreateCategoryRequest) (*models.Category, error)
	GetCategories(page, pageSize int) ([]models.Category, int, error)
	UpdateCategory(id int64, req CreateCategoryRequest) (*models.Category, error)
	DeleteCategory(id int64) error

	CreateItem(req CreateItemRequest) (*models.Item, error)
	GetItemByID(id int64) (*models.Item, error)
	GetItems(search string, page, pageSize int) ([]models.Item, int, error)
	GetLowStockItems(threshold int, search string, page, pageSize int) ([]models.Item, int, error)
	UpdateItem(id int64, req UpdateItemRequest) (*models.Item, error)
	DeleteItem(id int64) error

	AdjustStock(adj StockAdjustment) (*models.StockUpdateResult, error)
	BatchAdjustStock(req BatchStockUpdateRequest) ([]models.StockUpdateResult, error)
	GetActivities(itemID *int64, page, pageSize int) ([]models.InventoryActivity, int, error)
}

type inventoryService struct {
	inventoryRepo repositories.InventoryRepository
	db            *sql.DB
}

// NewInventoryService creates a new instance of InventoryService.
func NewInventoryService(ir repositories.InventoryRepository, db *sql.DB) InventoryService {
	return &inventoryService{inventoryRepo: ir, db: db}
}

// --- Categories ---

func (s *inventoryService) CreateCategory(req CreateCategoryRequest) (*models.Category, error) {
	category := models.Category{Name: strings.TrimSpace(req.Name)}
	if category.Name == "" {
		return nil, fmt.Errorf("%w: category name cannot be empty", ErrValidation)
	}
	if _, err := s.inventoryRepo.CreateCategory(s.db, &category); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrCategoryExists
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return &category, nil
}

func (s *inventoryService) GetCategories(page, pageSize int) ([]models.Category, int, error) {
	page, pageSize = normalizePagination(page, pageSize)
	categories, totalCount, err := s.inventoryRepo.GetCategories(page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, totalCount, nil
}

func (s *inventoryService) UpdateCategory(id int64, req CreateCategoryRequest) (*models.Category, error) {
	category := models.Category{ID: id, Name: strings.TrimSpace(req.Name)}
	if category.Name == "" {
		return nil, fmt.Errorf("%w: category name cannot be empty", ErrValidation)
	}
	if err := s.inventoryRepo.UpdateCategory(s.db, &category); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrCategoryExists
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return &category, nil
}

func (s *inventoryService) DeleteCategory(id int64) error {
	if err := s.inventoryRepo.DeleteCategory(s.db, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrCategoryNotFound
		}
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return ErrCategoryInUse
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

// --- Items ---

// buildSKU composes the immutable item code from the category name,
// category ID and item ID, e.g. category "Sculptures" (id 4), item 17
// -> "SCU04017".
func buildSKU(categoryName string, categoryID, itemID int64) string {
	prefix := strings.ToUpper(categoryName)
	prefix = strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r
		}
		return -1
	}, prefix)
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	if prefix == "" {
		prefix = "ITM"
	}
	return fmt.Sprintf("%s%02d%03d", prefix, categoryID, itemID)
}

// CreateItem persists a new catalog item and assigns its SKU in the
// same transaction. The SKU needs the generated item ID, so the insert
// happens first and the code is written back before commit.
func (s *inventoryService) CreateItem(req CreateItemRequest) (*models.Item, error) {
	if req.Stock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", ErrValidation)
	}
	for _, c := range []decimal.Decimal{
		req.SplittingDrawingCost, req.CarvingCuttingCost, req.SandingCost,
		req.PaintingCost, req.FinishingCost, req.PackagingCost, req.SellingPrice,
	} {
		if c.IsNegative() {
			return nil, fmt.Errorf("%w: costs and prices cannot be negative", ErrValidation)
		}
	}

	category, err := s.inventoryRepo.GetCategoryByID(req.CategoryID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to fetch category for item: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	item := models.Item{
		Name:                 strings.TrimSpace(req.Name),
		CategoryID:           req.CategoryID,
		Stock:                req.Stock,
		SplittingDrawingCost: req.SplittingDrawingCost,
		CarvingCuttingCost:   req.CarvingCuttingCost,
		SandingCost:          req.SandingCost,
		PaintingCost:         req.PaintingCost,
		FinishingCost:        req.FinishingCost,
		PackagingCost:        req.PackagingCost,
		SellingPrice:         req.SellingPrice,
	}
	if item.Name == "" {
		return nil, fmt.Errorf("%w: item name cannot be empty", ErrValidation)
	}

	itemID, err := s.inventoryRepo.CreateItem(tx, &item)
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	sku := buildSKU(category.Name, category.ID, itemID)
	if err := s.inventoryRepo.AssignSKU(tx, itemID, sku); err != nil {
		return nil, fmt.Errorf("failed to assign sku: %w", err)
	}

	if req.Stock > 0 {
		activity := models.InventoryActivity{
			ItemID:       itemID,
			ActivityType: models.ActivityAdd,
			Quantity:     req.Stock,
		}
		if _, err := s.inventoryRepo.CreateActivity(tx, &activity); err != nil {
			return nil, fmt.Errorf("failed to record opening stock: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit item creation: %w", err)
	}
	return s.inventoryRepo.GetItemByID(itemID)
}

func (s *inventoryService) GetItemByID(id int64) (*models.Item, error) {
	item, err := s.inventoryRepo.GetItemByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

func (s *inventoryService) GetItems(search string, page, pageSize int) ([]models.Item, int, error) {
	page, pageSize = normalizePagination(page, pageSize)
	items, totalCount, err := s.inventoryRepo.GetItems(search, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get items: %w", err)
	}
	return items, totalCount, nil
}

func (s *inventoryService) GetLowStockItems(threshold int, search string, page, pageSize int) ([]models.Item, int, error) {
	page, pageSize = normalizePagination(page, pageSize)
	if threshold <= 0 {
		threshold = defaultLowStockThreshold
	}
	items, totalCount, err := s.inventoryRepo.GetLowStockItems(threshold, search, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get low stock items: %w", err)
	}
	return items, totalCount, nil
}

func (s *inventoryService) UpdateItem(id int64, req UpdateItemRequest) (*models.Item, error) {
	item, err := s.inventoryRepo.GetItemByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to fetch item for update: %w", err)
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("%w: item name cannot be empty", ErrValidation)
		}
		item.Name = strings.TrimSpace(*req.Name)
	}
	if req.CategoryID != nil {
		if _, err := s.inventoryRepo.GetCategoryByID(*req.CategoryID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, fmt.Errorf("failed to check category: %w", err)
		}
		// Moving an item between categories does not rewrite its SKU.
		item.CategoryID = *req.CategoryID
	}
	applyCost := func(dst *decimal.Decimal, src *decimal.Decimal) error {
		if src == nil {
			return nil
		}
		if src.IsNegative() {
			return fmt.Errorf("%w: costs and prices cannot be negative", ErrValidation)
		}
		*dst = *src
		return nil
	}
	for _, pair := range []struct {
		dst *decimal.Decimal
		src *decimal.Decimal
	}{
		{&item.SplittingDrawingCost, req.SplittingDrawingCost},
		{&item.CarvingCuttingCost, req.CarvingCuttingCost},
		{&item.SandingCost, req.SandingCost},
		{&item.PaintingCost, req.PaintingCost},
		{&item.FinishingCost, req.FinishingCost},
		{&item.PackagingCost, req.PackagingCost},
		{&item.SellingPrice, req.SellingPrice},
	} {
		if err := applyCost(pair.dst, pair.src); err != nil {
			return nil, err
		}
	}

	if err := s.inventoryRepo.UpdateItem(s.db, item); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to update item: %w", err)
	}
	return s.inventoryRepo.GetItemByID(id)
}

func (s *inventoryService) DeleteItem(id int64) error {
	if err := s.inventoryRepo.DeleteItem(s.db, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrItemNotFound
		}
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

// --- Stock ---

// AdjustStock applies one adjustment with its activity record in a
// transaction.
func (s *inventoryService) AdjustStock(adj StockAdjustment) (*models.StockUpdateResult, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := s.applyAdjustment(tx, adj)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit stock adjustment: %w", err)
	}
	return result, nil
}

// BatchAdjustStock applies several adjustments atomically: one failure
// rolls back the whole batch.
func (s *inventoryService) BatchAdjustStock(req BatchStockUpdateRequest) ([]models.StockUpdateResult, error) {
	if len(req.Adjustments) == 0 {
		return nil, fmt.Errorf("%w: adjustments cannot be empty", ErrValidation)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	results := make([]models.StockUpdateResult, 0, len(req.Adjustments))
	for _, adj := range req.Adjustments {
		result, err := s.applyAdjustment(tx, adj)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", adj.ItemID, err)
		}
		results = append(results, *result)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit batch stock adjustment: %w", err)
	}
	return results, nil
}

func (s *inventoryService) applyAdjustment(tx *sql.Tx, adj StockAdjustment) (*models.StockUpdateResult, error) {
	item, err := s.inventoryRepo.GetItemByID(adj.ItemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to fetch item for stock adjustment: %w", err)
	}

	var oldStock, newStock int
	var activityType string
	var activityQty int

	switch {
	case adj.NewStock != nil:
		if *adj.NewStock < 0 {
			return nil, fmt.Errorf("%w: stock cannot be negative", ErrValidation)
		}
		oldStock, err = s.inventoryRepo.SetStock(tx, adj.ItemID, *adj.NewStock)
		if err != nil {
			return nil, fmt.Errorf("failed to set stock: %w", err)
		}
		newStock = *adj.NewStock
		if newStock >= oldStock {
			activityType = models.ActivityAdd
			activityQty = newStock - oldStock
		} else {
			activityType = models.ActivityRemove
			activityQty = oldStock - newStock
		}
	case adj.Change != nil:
		if *adj.Change == 0 {
			return nil, fmt.Errorf("%w: change cannot be zero", ErrValidation)
		}
		if item.Stock+*adj.Change < 0 {
			return nil, fmt.Errorf("%w: change would drive stock below zero (have %d, change %d)",
				ErrValidation, item.Stock, *adj.Change)
		}
		oldStock = item.Stock
		newStock, err = s.inventoryRepo.UpdateStock(tx, adj.ItemID, *adj.Change)
		if err != nil {
			return nil, fmt.Errorf("failed to update stock: %w", err)
		}
		if *adj.Change > 0 {
			activityType = models.ActivityAdd
			activityQty = *adj.Change
		} else {
			activityType = models.ActivityRemove
			activityQty = -*adj.Change
		}
	default:
		return nil, fmt.Errorf("%w: either change or new_stock is required", ErrValidation)
	}

	// Activity rows carry the moved amount, always positive; the
	// direction lives in the type.
	if activityQty != 0 {
		activity := models.InventoryActivity{
			ItemID:       adj.ItemID,
			ActivityType: activityType,
			Quantity:     activityQty,
		}
		if _, err := s.inventoryRepo.CreateActivity(tx, &activity); err != nil {
			return nil, fmt.Errorf("failed to record stock activity: %w", err)
		}
	}

	return &models.StockUpdateResult{
		ItemID:   adj.ItemID,
		ItemName: item.Name,
		OldStock: oldStock,
		NewStock: newStock,
		Change:   newStock - oldStock,
	}, nil
}

func (s *inventoryService) GetActivities(itemID *int64, page, pageSize int) ([]models.InventoryActivity, int, error) {
	page, pageSize = normalizePagination(page, pageSize)
	activities, totalCount, err := s.inventoryRepo.GetActivities(itemID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get inventory activities: %w", err)
	}
	return activities, totalCount, nil
}
