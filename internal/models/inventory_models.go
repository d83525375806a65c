package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups catalog items and supplies the SKU prefix.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name" db:"name" binding:"required"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Item is a catalog entry with one unit cost per production stage.
// SKU is assigned once on first persist and never changes afterwards.
type Item struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name" db:"name" binding:"required"`
	CategoryID int64   `json:"category_id" db:"category_id" binding:"required"`
	Stock      int     `json:"stock" db:"stock"`
	SKU        *string `json:"sku,omitempty" db:"sku"`

	SplittingDrawingCost decimal.Decimal `json:"splitting_drawing_cost" db:"splitting_drawing_cost"`
	CarvingCuttingCost   decimal.Decimal `json:"carving_cutting_cost" db:"carving_cutting_cost"`
	SandingCost          decimal.Decimal `json:"sanding_cost" db:"sanding_cost"`
	PaintingCost         decimal.Decimal `json:"painting_cost" db:"painting_cost"`
	FinishingCost        decimal.Decimal `json:"finishing_cost" db:"finishing_cost"`
	PackagingCost        decimal.Decimal `json:"packaging_cost" db:"packaging_cost"`

	SellingPrice decimal.Decimal `json:"selling_price" db:"selling_price"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	Category  *Category `json:"category,omitempty"` // For joining with Category
}

// TotalProductionCost is the sum of the six per-stage unit costs.
func (i *Item) TotalProductionCost() decimal.Decimal {
	return i.SplittingDrawingCost.
		Add(i.CarvingCuttingCost).
		Add(i.SandingCost).
		Add(i.PaintingCost).
		Add(i.FinishingCost).
		Add(i.PackagingCost)
}

// StageCost returns the unit cost for a production stage code. Unknown
// stage codes fall back to the splitting cost; that fallback is policy,
// not an error.
func (i *Item) StageCost(stage string) decimal.Decimal {
	switch stage {
	case StageSplitting:
		return i.SplittingDrawingCost
	case StageCarving:
		return i.CarvingCuttingCost
	case StageSanding:
		return i.SandingCost
	case StagePainting:
		return i.PaintingCost
	case StageFinishing:
		return i.FinishingCost
	case StagePackaging:
		return i.PackagingCost
	default:
		return i.SplittingDrawingCost
	}
}

// InventoryActivity is an append-only record of a stock change.
type InventoryActivity struct {
	ID           int64     `json:"id"`
	ItemID       int64     `json:"item_id" db:"item_id" binding:"required"`
	ActivityType string    `json:"activity_type" db:"activity_type"` // ADD, REMOVE, UPDATE
	Quantity     int       `json:"quantity" db:"quantity"`
	Timestamp    time.Time `json:"timestamp" db:"timestamp"`
	Item         *Item     `json:"item,omitempty"` // For joining with Item
}

// Inventory activity types. Quantities on activity rows are always
// positive; the type carries the direction.
const (
	ActivityAdd    = "ADD"
	ActivityRemove = "REMOVE"
)

// StockUpdateResult reports an applied stock adjustment.
type StockUpdateResult struct {
	ItemID   int64  `json:"item_id"`
	ItemName string `json:"item_name"`
	OldStock int    `json:"old_stock"`
	NewStock int    `json:"new_stock"`
	Change   int    `json:"change"`
}
