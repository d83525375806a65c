package models

import "github.com/shopspring/decimal"

// SalesReport is a precomputed daily sales rollup, keyed by date.
type SalesReport struct {
	ID                int64           `json:"id"`
	Date              string          `json:"date" db:"date" binding:"required"`
	TotalSales        decimal.Decimal `json:"total_sales" db:"total_sales"`
	TotalOrders       int             `json:"total_orders" db:"total_orders"`
	AverageOrderValue decimal.Decimal `json:"average_order_value" db:"average_order_value"`
}

// ProductionReport is a precomputed daily production rollup, keyed by date.
type ProductionReport struct {
	ID                  int64   `json:"id"`
	Date                string  `json:"date" db:"date" binding:"required"`
	TotalItemsProduced  int     `json:"total_items_produced" db:"total_items_produced"`
	TotalTasksCompleted int     `json:"total_tasks_completed" db:"total_tasks_completed"`
	QualityPassRate     float64 `json:"quality_pass_rate" db:"quality_pass_rate"`
}
