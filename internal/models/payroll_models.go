package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payroll statuses (shared with AnnualBonus)
const (
	PayrollPending = "PENDING"
	PayrollPaid    = "PAID"
)

// Payroll is one artist's earnings for one period. At most one row may
// exist per (artist, month); the database enforces that.
type Payroll struct {
	ID            int64           `json:"id"`
	ArtistID      int64           `json:"artist_id" db:"artist_id"`
	ItemQty       int             `json:"item_qty" db:"item_qty"`
	TotalEarnings decimal.Decimal `json:"total_earnings" db:"total_earnings"`
	Status        string          `json:"status" db:"status"`
	Month         time.Time       `json:"month" db:"month"` // first day of the period's month
	DateCreated   time.Time       `json:"date_created" db:"date_created"`
	ArtistName    *string         `json:"artist_name,omitempty"`
}

// AnnualBonus is one artist's bonus for one year, recomputed by upsert
// whenever annual stats are recalculated. At most one row per
// (artist, year).
type AnnualBonus struct {
	ID              int64           `json:"id"`
	ArtistID        int64           `json:"artist_id" db:"artist_id"`
	Year            int             `json:"year" db:"year"`
	AnnualEarnings  decimal.Decimal `json:"annual_earnings" db:"annual_earnings"`
	BonusPercentage decimal.Decimal `json:"bonus_percentage" db:"bonus_percentage"`
	BonusAmount     decimal.Decimal `json:"bonus_amount" db:"bonus_amount"`
	Status          string          `json:"status" db:"status"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
	ArtistName      *string         `json:"artist_name,omitempty"`
}

// CompletedTaskEarning is a completed-task fact joined with the item's
// per-stage costs, ready for payroll aggregation.
type CompletedTaskEarning struct {
	ArtistID   int64
	ArtistName string
	Stage      string
	Accepted   int
	StageCost  decimal.Decimal
}

// ArtistPayrollTotal is one artist's booked payrolls summed over a
// year. Bonuses hang off booked payroll, not raw facts.
type ArtistPayrollTotal struct {
	ArtistID      int64
	ArtistName    string
	TotalEarnings decimal.Decimal
	ItemQty       int
}

// MonthlyCompletionStat is one month's production/earnings rollup.
type MonthlyCompletionStat struct {
	Month          time.Time       `json:"month"`
	TotalCompleted int             `json:"total_completed"`
	TotalTasks     int             `json:"total_tasks"`
	TotalEarnings  decimal.Decimal `json:"total_earnings"`
}

// AnnualArtistStat is one artist's aggregate over a year, with the
// bonus computed from it.
type AnnualArtistStat struct {
	ArtistID      int64           `json:"artist_id"`
	ArtistName    string          `json:"artist_name"`
	TotalEarnings decimal.Decimal `json:"total_earnings"`
	TotalItems    int             `json:"total_items"`
	BonusAmount   decimal.Decimal `json:"bonus_amount"`
	BonusStatus   string          `json:"bonus_status"`
}
