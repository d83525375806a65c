package models

import "time"

// Production stage codes. The single-character codes are stored as-is;
// '0' and '7' bracket the six physical stages.
const (
	StageOrdered   = "0"
	StageSplitting = "1"
	StageCarving   = "2"
	StageSanding   = "3"
	StagePainting  = "4"
	StageFinishing = "5"
	StagePackaging = "6"
	StageDone      = "7"
)

// Production task statuses
const (
	TaskStatusPending    = "P"
	TaskStatusInProgress = "I"
	TaskStatusCompleted  = "C"
	TaskStatusCancelled  = "X"
)

// Rejection departments
const (
	DepartmentCarpentry = "C"
	DepartmentSanding   = "S"
	DepartmentPainting  = "P"
)

// Rejection statuses
const (
	RejectionPending = "P"
	RejectionFixed   = "F"
)

// Quality check results
const (
	QualityPass = "PASS"
	QualityFail = "FAIL"
)

// ProductionTask tracks a batch of an item moving through the stages.
type ProductionTask struct {
	ID             int64   `json:"id"`
	ItemID         int64   `json:"item_id" db:"item_id" binding:"required"`
	ArtistID       int64   `json:"artist_id" db:"artist_id" binding:"required"`
	Notes          string  `json:"notes" db:"notes"`
	Quantity       int     `json:"quantity" db:"quantity"`
	StartDate      string  `json:"start_date" db:"start_date"`
	EndDate        string  `json:"end_date" db:"end_date"`
	CurrentStage   string  `json:"current_stage" db:"current_stage"`
	Status         string  `json:"status" db:"status"`
	Accepted       int     `json:"accepted" db:"accepted"`
	RejectionCount int     `json:"rejection_count" db:"rejection_count"`
	ItemName       *string `json:"item_name,omitempty"`
	ArtistName     *string `json:"artist_name,omitempty"`
}

// CompletedTask is an immutable fact: accepted output at a specific
// stage. It is the sole input to payroll aggregation.
type CompletedTask struct {
	ID           int64     `json:"id"`
	ItemID       int64     `json:"item_id" db:"item_id" binding:"required"`
	ArtistID     int64     `json:"artist_id" db:"artist_id" binding:"required"`
	Accepted     int       `json:"accepted" db:"accepted"`
	CurrentStage string    `json:"current_stage" db:"current_stage"`
	Date         time.Time `json:"date" db:"date"`
	ItemName     *string   `json:"item_name,omitempty"`
	ArtistName   *string   `json:"artist_name,omitempty"`
}

// RejectionHistory records a quality rejection raised against a task.
// It transitions Pending -> Fixed exactly once.
type RejectionHistory struct {
	ID               int64     `json:"id"`
	ProductionTaskID *int64    `json:"production_task_id,omitempty" db:"production_task_id"`
	ReferredByID     *int64    `json:"referred_by_id,omitempty" db:"referred_by_id"`
	Stage            *string   `json:"stage,omitempty" db:"stage"`
	Department       *string   `json:"department,omitempty" db:"department"`
	Status           string    `json:"status" db:"status"`
	Date             time.Time `json:"date" db:"date"`
	ProductName      *string   `json:"product_name,omitempty"`
	ArtistName       *string   `json:"artist_name,omitempty"`
	ReferredByName   *string   `json:"referred_by_name,omitempty"`
}

// QualityCheck is an inspection record against a production task.
type QualityCheck struct {
	ID               int64     `json:"id"`
	ProductionTaskID int64     `json:"production_task_id" db:"production_task_id" binding:"required"`
	CheckedByID      int64     `json:"checked_by_id" db:"checked_by_id" binding:"required"`
	CheckDate        time.Time `json:"check_date" db:"check_date"`
	Result           string    `json:"result" db:"result" binding:"required"`
	Notes            string    `json:"notes" db:"notes"`
}
