package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Lusimba/kichaka/internal/models"

	"github.com/lib/pq"
)

// InventoryRepository defines the interface for catalog and stock
// database operations.
type InventoryRepository interface {
	// Category methods
	CreateCategory(executor SQLExecutor, category *models.Category) (int64, error)
	GetCategoryByID(id int64) (*models.Category, error)
	GetCategories(page, pageSize int) ([]models.Category, int, error)
	UpdateCategory(executor SQLExecutor, category *models.Category) error
	DeleteCategory(executor SQLExecutor, id int64) error

	// Item methods
	CreateItem(executor SQLExecutor, item *models.Item) (int64, error)
	AssignSKU(executor SQLExecutor, itemID int64, sku string) error
	GetItemByID(id int64) (*models.Item, error)
	GetItems(search string, page, pageSize int) ([]models.Item, int, error)
	GetLowStockItems(threshold int, search string, page, pageSize int) ([]models.Item, int, error)
	UpdateItem(executor SQLExecutor, item *models.Item) error // never touches sku
	DeleteItem(executor SQLExecutor, id int64) error
	UpdateStock(executor SQLExecutor, itemID int64, quantityChange int) (int, error) // Returns new stock level
	SetStock(executor SQLExecutor, itemID int64, newStock int) (int, error)          // Returns old stock level

	// InventoryActivity methods
	CreateActivity(executor SQLExecutor, activity *models.InventoryActivity) (int64, error)
	GetActivities(itemID *int64, page, pageSize int) ([]models.InventoryActivity, int, error)
}

type inventoryRepository struct {
	db *sql.DB
}

// NewInventoryRepository creates a new instance of InventoryRepository.
func NewInventoryRepository(db *sql.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

// --- Category Methods ---

func (r *inventoryRepository) CreateCategory(executor SQLExecutor, category *models.Category) (int64, error) {
	query := `INSERT INTO categories (name, created_at, updated_at)
	          VALUES ($1, $2, $3)
	          RETURNING id`
	currentTime := time.Now()
	err := executor.QueryRow(query, category.Name, currentTime, currentTime).Scan(&category.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: category name '%s' already exists (constraint: %s)", ErrDuplicateKey, category.Name, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating category: %v", ErrDatabaseError, err)
	}
	return category.ID, nil
}

func (r *inventoryRepository) GetCategoryByID(id int64) (*models.Category, error) {
	category := &models.Category{}
	query := `SELECT id, name, created_at, updated_at FROM categories WHERE id = $1`
	err := r.db.QueryRow(query, id).Scan(&category.ID, &category.Name, &category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting category by ID %d: %v", ErrDatabaseError, id, err)
	}
	return category, nil
}

func (r *inventoryRepository) GetCategories(page, pageSize int) ([]models.Category, int, error) {
	categories := []models.Category{}
	totalCount := 0
	query := `SELECT id, name, created_at, updated_at, COUNT(*) OVER() AS total_count
	          FROM categories
	          ORDER BY name
	          LIMIT $1 OFFSET $2`
	offset := (page - 1) * pageSize
	rows, err := r.db.Query(query, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting categories: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var category models.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.CreatedAt, &category.UpdatedAt, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning category: %v", ErrDatabaseError, err)
		}
		categories = append(categories, category)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating categories: %v", ErrDatabaseError, err)
	}
	return categories, totalCount, nil
}

func (r *inventoryRepository) UpdateCategory(executor SQLExecutor, category *models.Category) error {
	query := `UPDATE categories SET name = $1, updated_at = $2 WHERE id = $3`
	result, err := executor.Exec(query, category.Name, time.Now(), category.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: category name '%s' already exists (constraint: %s)", ErrDuplicateKey, category.Name, pqErr.Constraint)
		}
		return fmt.Errorf("%w: updating category ID %d: %v", ErrDatabaseError, category.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *inventoryRepository) DeleteCategory(executor SQLExecutor, id int64) error {
	// Categories referenced by items must not be deleted.
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM items WHERE category_id = $1`, id).Scan(&count); err != nil {
		return fmt.Errorf("%w: checking category usage: %v", ErrDatabaseError, err)
	}
	if count > 0 {
		return fmt.Errorf("%w: category %d is referenced by %d item(s)", ErrDuplicateKey, id, count)
	}

	result, err := executor.Exec(`DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting category ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Item Methods ---

const itemColumns = `i.id, i.name, i.category_id, i.stock, i.sku,
	    i.splitting_drawing_cost, i.carving_cutting_cost, i.sanding_cost,
	    i.painting_cost, i.finishing_cost, i.packaging_cost,
	    i.selling_price, i.created_at, i.updated_at,
	    c.name AS category_name`

func scanItem(s scanner, item *models.Item, extra ...interface{}) error {
	var sku sql.NullString
	var categoryName string
	dest := []interface{}{
		&item.ID, &item.Name, &item.CategoryID, &item.Stock, &sku,
		&item.SplittingDrawingCost, &item.CarvingCuttingCost, &item.SandingCost,
		&item.PaintingCost, &item.FinishingCost, &item.PackagingCost,
		&item.SellingPrice, &item.CreatedAt, &item.UpdatedAt,
		&categoryName,
	}
	dest = append(dest, extra...)
	if err := s.Scan(dest...); err != nil {
		return err
	}
	if sku.Valid {
		v := sku.String
		item.SKU = &v
	}
	item.Category = &models.Category{ID: item.CategoryID, Name: categoryName}
	return nil
}

func (r *inventoryRepository) CreateItem(executor SQLExecutor, item *models.Item) (int64, error) {
	// sku is intentionally absent: it is assigned once via AssignSKU
	// after the row exists and carries an id.
	query := `INSERT INTO items
	          (name, category_id, stock, splitting_drawing_cost, carving_cutting_cost,
	           sanding_cost, painting_cost, finishing_cost, packaging_cost,
	           selling_price, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          RETURNING id`
	currentTime := time.Now()
	err := executor.QueryRow(query,
		item.Name, item.CategoryID, item.Stock,
		item.SplittingDrawingCost, item.CarvingCuttingCost, item.SandingCost,
		item.PaintingCost, item.FinishingCost, item.PackagingCost,
		item.SellingPrice, currentTime, currentTime,
	).Scan(&item.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating item: %v", ErrDatabaseError, err)
	}
	return item.ID, nil
}

// AssignSKU writes the SKU for an item that does not have one yet. The
// WHERE clause keeps an existing SKU immutable even if called twice.
func (r *inventoryRepository) AssignSKU(executor SQLExecutor, itemID int64, sku string) error {
	query := `UPDATE items SET sku = $1, updated_at = $2 WHERE id = $3 AND sku IS NULL`
	result, err := executor.Exec(query, sku, time.Now(), itemID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: sku '%s' already exists (constraint: %s)", ErrDuplicateKey, sku, pqErr.Constraint)
		}
		return fmt.Errorf("%w: assigning sku to item %d: %v", ErrDatabaseError, itemID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *inventoryRepository) GetItemByID(id int64) (*models.Item, error) {
	item := &models.Item{}
	query := `SELECT ` + itemColumns + `
	          FROM items i
	          JOIN categories c ON i.category_id = c.id
	          WHERE i.id = $1`
	err := scanItem(r.db.QueryRow(query, id), item)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting item by ID %d: %v", ErrDatabaseError, id, err)
	}
	return item, nil
}

func (r *inventoryRepository) queryItems(conditions []string, args []interface{}, page, pageSize int) ([]models.Item, int, error) {
	items := []models.Item{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + itemColumns + `, COUNT(*) OVER() AS total_count
	  FROM items i
	  JOIN categories c ON i.category_id = c.id`)

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	argCount := len(args) + 1
	queryBuilder.WriteString(" ORDER BY i.name")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.Item
		if err := scanItem(rows, &item, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning item: %v", ErrDatabaseError, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating items: %v", ErrDatabaseError, err)
	}
	return items, totalCount, nil
}

func (r *inventoryRepository) GetItems(search string, page, pageSize int) ([]models.Item, int, error) {
	var conditions []string
	var args []interface{}
	if search != "" {
		conditions = append(conditions, `(i.name ILIKE $1 OR c.name ILIKE $1 OR i.sku ILIKE $1)`)
		args = append(args, "%"+search+"%")
	}
	return r.queryItems(conditions, args, page, pageSize)
}

func (r *inventoryRepository) GetLowStockItems(threshold int, search string, page, pageSize int) ([]models.Item, int, error) {
	conditions := []string{`i.stock < $1`}
	args := []interface{}{threshold}
	if search != "" {
		conditions = append(conditions, `(i.name ILIKE $2 OR c.name ILIKE $2)`)
		args = append(args, "%"+search+"%")
	}
	return r.queryItems(conditions, args, page, pageSize)
}

func (r *inventoryRepository) UpdateItem(executor SQLExecutor, item *models.Item) error {
	// sku never appears in the SET list; it is immutable after assignment.
	query := `UPDATE items SET
	            name = $1, category_id = $2,
	            splitting_drawing_cost = $3, carving_cutting_cost = $4, sanding_cost = $5,
	            painting_cost = $6, finishing_cost = $7, packaging_cost = $8,
	            selling_price = $9, updated_at = $10
	          WHERE id = $11`
	result, err := executor.Exec(query,
		item.Name, item.CategoryID,
		item.SplittingDrawingCost, item.CarvingCuttingCost, item.SandingCost,
		item.PaintingCost, item.FinishingCost, item.PackagingCost,
		item.SellingPrice, time.Now(), item.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating item ID %d: %v", ErrDatabaseError, item.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *inventoryRepository) DeleteItem(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting item ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStock applies a delta to an item's stock and returns the new level.
func (r *inventoryRepository) UpdateStock(executor SQLExecutor, itemID int64, quantityChange int) (int, error) {
	query := `UPDATE items SET stock = stock + $1, updated_at = $2 WHERE id = $3 RETURNING stock`
	var newStock int
	err := executor.QueryRow(query, quantityChange, time.Now(), itemID).Scan(&newStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: updating stock for item %d: %v", ErrDatabaseError, itemID, err)
	}
	return newStock, nil
}

// SetStock replaces an item's stock level and returns the old level.
func (r *inventoryRepository) SetStock(executor SQLExecutor, itemID int64, newStock int) (int, error) {
	query := `UPDATE items SET stock = $1, updated_at = $2 WHERE id = $3
	          RETURNING (SELECT stock FROM items WHERE id = $3)`
	var oldStock int
	err := executor.QueryRow(query, newStock, time.Now(), itemID).Scan(&oldStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: setting stock for item %d: %v", ErrDatabaseError, itemID, err)
	}
	return oldStock, nil
}

// --- InventoryActivity Methods ---

func (r *inventoryRepository) CreateActivity(executor SQLExecutor, activity *models.InventoryActivity) (int64, error) {
	query := `INSERT INTO inventory_activities (item_id, activity_type, quantity, timestamp)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`
	if activity.Timestamp.IsZero() {
		activity.Timestamp = time.Now()
	}
	err := executor.QueryRow(query, activity.ItemID, activity.ActivityType, activity.Quantity, activity.Timestamp).Scan(&activity.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating inventory activity: %v", ErrDatabaseError, err)
	}
	return activity.ID, nil
}

func (r *inventoryRepository) GetActivities(itemID *int64, page, pageSize int) ([]models.InventoryActivity, int, error) {
	activities := []models.InventoryActivity{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    ia.id, ia.item_id, ia.activity_type, ia.quantity, ia.timestamp,
	    i.name AS item_name,
	    COUNT(*) OVER() AS total_count
	  FROM inventory_activities ia
	  JOIN items i ON ia.item_id = i.id`)

	var args []interface{}
	if itemID != nil {
		queryBuilder.WriteString(" WHERE ia.item_id = $1")
		args = append(args, *itemID)
	}
	argCount := len(args) + 1
	queryBuilder.WriteString(" ORDER BY ia.timestamp DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting inventory activities: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var activity models.InventoryActivity
		var itemName string
		if err := rows.Scan(&activity.ID, &activity.ItemID, &activity.ActivityType, &activity.Quantity,
			&activity.Timestamp, &itemName, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning inventory activity: %v", ErrDatabaseError, err)
		}
		activity.Item = &models.Item{ID: activity.ItemID, Name: itemName}
		activities = append(activities, activity)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating inventory activities: %v", ErrDatabaseError, err)
	}
	return activities, totalCount, nil
}
