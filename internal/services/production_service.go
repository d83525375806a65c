package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Lusimba/kichaka/internal/models"
	"github.com/Lusimba/kichaka/internal/repositories"
)

var (
	ErrTaskNotFound          = errors.New("production task not found")
	ErrCompletedTaskNotFound = errors.New("completed task not found")
	ErrTaskNotPending        = errors.New("task is not pending")
	ErrTaskNotInProgress     = errors.New("task is not in progress")
	ErrTaskClosed            = errors.New("task is already closed")
	ErrInvalidStage          = errors.New("invalid production stage")
	ErrRejectionNotFound     = errors.New("rejection record not found")
	ErrRejectionFixed        = errors.New("rejection is already fixed")
)

// --- DTOs ---

// CreateTaskRequest DTO
type CreateTaskRequest struct {
	ItemID   int64  `json:"item_id" binding:"required"`
	ArtistID int64  `json:"artist_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
	Notes    string `json:"notes"`
}

// UpdateTaskRequest DTO. A stage change snapshots the work done at the
// stage being left; a rejection adds a history row and bumps the
// task's rejection counter.
type UpdateTaskRequest struct {
	Notes        *string `json:"notes"`
	Quantity     *int    `json:"quantity"`
	Accepted     *int    `json:"accepted"`
	CurrentStage *string `json:"current_stage"`
	IsRejected   bool    `json:"is_rejected"`
	Department   *string `json:"department"`
	ReferredByID *int64  `json:"referred_by_id"`
}

// ReassignTaskRequest DTO
type ReassignTaskRequest struct {
	ArtistID int64 `json:"artist_id" binding:"required"`
}

// RecordOutputRequest DTO
type RecordOutputRequest struct {
	Accepted int `json:"accepted" binding:"required,gt=0"`
}

// CreateRejectionRequest DTO
type CreateRejectionRequest struct {
	ProductionTaskID int64   `json:"production_task_id" binding:"required"`
	ReferredByID     *int64  `json:"referred_by_id"`
	Department       *string `json:"department"`
}

// CreateQualityCheckRequest DTO
type CreateQualityCheckRequest struct {
	CheckedByID int64  `json:"checked_by_id" binding:"required"`
	Result      string `json:"result" binding:"required"`
	Notes       string `json:"notes"`
}

// --- ProductionService Interface ---
type ProductionService interface {
	CreateTask(req CreateTaskRequest) (*models.ProductionTask, error)
	GetTaskByID(id int64) (*models.ProductionTask, error)
	GetTasks(filters repositories.TaskFilters) ([]models.ProductionTask, int, error)
	AcceptTask(taskID int64) (*models.ProductionTask, error)
	UpdateTask(taskID int64, req UpdateTaskRequest) (*models.ProductionTask, error)
	RecordOutput(taskID int64, req RecordOutputRequest) (*models.CompletedTask, error)
	CompleteTask(taskID int64) (*models.ProductionTask, error)
	CancelTask(taskID int64) (*models.ProductionTask, error)
	ReassignTask(taskID int64, req ReassignTaskRequest) (*models.ProductionTask, error)

	GetCompletedTasks(artistID *int64, from, to *time.Time, page, pageSize int) ([]models.CompletedTask, int, error)
	GetCompletedTaskByID(id int64) (*models.CompletedTask, error)

	CreateRejection(req CreateRejectionRequest) (*models.RejectionHistory, error)
	GetRejections(status *string, page, pageSize int) ([]models.RejectionHistory, int, error)
	MarkDefectFixed(rejectionID int64) (*models.RejectionHistory, error)

	CreateQualityCheck(taskID int64, req CreateQualityCheckRequest) (*models.QualityCheck, error)
	GetQualityChecks(taskID int64) ([]models.QualityCheck, error)
}

type productionService struct {
	productionRepo repositories.ProductionRepository
	inventoryRepo  repositories.InventoryRepository
	db             *sql.DB // For managing transactions
}

// NewProductionService creates a new instance of ProductionService.
func NewProductionService(pr repositories.ProductionRepository, ir repositories.InventoryRepository, db *sql.DB) ProductionService {
	return &productionService{productionRepo: pr, inventoryRepo: ir, db: db}
}

func isValidStage(stage string) bool {
	switch stage {
	case models.StageOrdered, models.StageSplitting, models.StageCarving, models.StageSanding,
		models.StagePainting, models.StageFinishing, models.StagePackaging, models.StageDone:
		return true
	}
	return false
}

func isValidDepartment(dept string) bool {
	switch dept {
	case models.DepartmentCarpentry, models.DepartmentSanding, models.DepartmentPainting:
		return true
	}
	return false
}

// CreateTask opens a new batch at the ordered stage.
func (s *productionService) CreateTask(req CreateTaskRequest) (*models.ProductionTask, error) {
	if _, err := s.inventoryRepo.GetItemByID(req.ItemID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to check item: %w", err)
	}

	task := models.ProductionTask{
		ItemID:       req.ItemID,
		ArtistID:     req.ArtistID,
		Notes:        req.Notes,
		Quantity:     req.Quantity,
		StartDate:    time.Now().Format("2006-01-02"),
		CurrentStage: models.StageOrdered,
		Status:       models.TaskStatusPending,
	}
	taskID, err := s.productionRepo.CreateTask(s.db, &task)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return nil, fmt.Errorf("failed to create production task: %w", err)
	}
	return s.productionRepo.GetTaskByID(taskID)
}

func (s *productionService) GetTaskByID(id int64) (*models.ProductionTask, error) {
	task, err := s.productionRepo.GetTaskByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get production task: %w", err)
	}
	return task, nil
}

func (s *productionService) GetTasks(filters repositories.TaskFilters) ([]models.ProductionTask, int, error) {
	filters.Page, filters.PageSize = normalizePagination(filters.Page, filters.PageSize)
	tasks, totalCount, err := s.productionRepo.GetTasks(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get production tasks: %w", err)
	}
	return tasks, totalCount, nil
}

// AcceptTask moves a pending task into progress at the first physical
// stage.
func (s *productionService) AcceptTask(taskID int64) (*models.ProductionTask, error) {
	task, err := s.GetTaskByID(taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != models.TaskStatusPending {
		return nil, fmt.Errorf("%w: task %d has status %s", ErrTaskNotPending, taskID, task.Status)
	}

	task.Status = models.TaskStatusInProgress
	task.CurrentStage = models.StageSplitting
	if err := s.productionRepo.UpdateTask(s.db, task); err != nil {
		return nil, fmt.Errorf("failed to accept task: %w", err)
	}
	return s.productionRepo.GetTaskByID(taskID)
}

// UpdateTask applies edits to an in-progress task. Moving to another
// stage records a completed-task fact for the stage being left, which
// is what payroll later pays out. A rejection is recorded against the
// current stage.
func (s *productionService) UpdateTask(taskID int64, req UpdateTaskRequest) (*models.ProductionTask, error) {
	task, err := s.GetTaskByID(taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != models.TaskStatusInProgress {
		return nil, fmt.Errorf("%w: task %d has status %s", ErrTaskNotInProgress, taskID, task.Status)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	if req.Notes != nil {
		task.Notes = *req.Notes
	}
	if req.Quantity != nil {
		if *req.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
		}
		task.Quantity = *req.Quantity
	}
	if req.Accepted != nil {
		if *req.Accepted < 0 || *req.Accepted > task.Quantity {
			return nil, fmt.Errorf("%w: accepted must be between 0 and quantity %d", ErrValidation, task.Quantity)
		}
		task.Accepted = *req.Accepted
	}

	if req.IsRejected {
		if req.Department != nil && !isValidDepartment(*req.Department) {
			return nil, fmt.Errorf("%w: unknown department '%s'", ErrValidation, *req.Department)
		}
		stage := task.CurrentStage
		rejection := models.RejectionHistory{
			ProductionTaskID: &task.ID,
			ReferredByID:     req.ReferredByID,
			Stage:            &stage,
			Department:       req.Department,
			Status:           models.RejectionPending,
		}
		if _, err := s.productionRepo.CreateRejection(tx, &rejection); err != nil {
			return nil, fmt.Errorf("failed to record rejection: %w", err)
		}
		if err := s.productionRepo.IncrementRejectionCount(tx, task.ID, 1); err != nil {
			return nil, fmt.Errorf("failed to bump rejection count: %w", err)
		}
		task.RejectionCount++
	}

	if req.CurrentStage != nil && *req.CurrentStage != task.CurrentStage {
		if !isValidStage(*req.CurrentStage) {
			return nil, fmt.Errorf("%w: '%s'", ErrInvalidStage, *req.CurrentStage)
		}
		// Pay for the stage being left before moving on.
		if task.Accepted > 0 {
			completed := models.CompletedTask{
				ItemID:       task.ItemID,
				ArtistID:     task.ArtistID,
				Accepted:     task.Accepted,
				CurrentStage: task.CurrentStage,
			}
			if _, err := s.productionRepo.CreateCompletedTask(tx, &completed); err != nil {
				return nil, fmt.Errorf("failed to snapshot completed stage: %w", err)
			}
		}
		task.CurrentStage = *req.CurrentStage
		if req.Accepted == nil {
			// Fresh stage, nothing accepted yet.
			task.Accepted = 0
		}
	}

	if err := s.productionRepo.UpdateTask(tx, task); err != nil {
		return nil, fmt.Errorf("failed to update production task: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit task update: %w", err)
	}
	return s.productionRepo.GetTaskByID(taskID)
}

// RecordOutput books a partial batch: a completed-task fact at the
// task's current stage for the given count. The task itself is left
// untouched, so the remainder keeps moving through the pipeline.
func (s *productionService) RecordOutput(taskID int64, req RecordOutputRequest) (*models.CompletedTask, error) {
	task, err := s.GetTaskByID(taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != models.TaskStatusInProgress {
		return nil, fmt.Errorf("%w: task %d has status %s", ErrTaskNotInProgress, taskID, task.Status)
	}
	if req.Accepted > task.Quantity {
		return nil, fmt.Errorf("%w: accepted %d exceeds task quantity %d", ErrValidation, req.Accepted, task.Quantity)
	}

	completed := models.CompletedTask{
		ItemID:       task.ItemID,
		ArtistID:     task.ArtistID,
		Accepted:     req.Accepted,
		CurrentStage: task.CurrentStage,
	}
	if _, err := s.productionRepo.CreateCompletedTask(s.db, &completed); err != nil {
		return nil, fmt.Errorf("failed to record accepted output: %w", err)
	}
	return &completed, nil
}

// CompleteTask closes an in-progress task: the whole batch lands in
// stock and the task is marked done. Stage work is paid through the
// facts recorded on stage moves and partial accepts, not here.
func (s *productionService) CompleteTask(taskID int64) (*models.ProductionTask, error) {
	task, err := s.GetTaskByID(taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != models.TaskStatusInProgress {
		return nil, fmt.Errorf("%w: task %d has status %s", ErrTaskNotInProgress, taskID, task.Status)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.inventoryRepo.UpdateStock(tx, task.ItemID, task.Quantity); err != nil {
		return nil, fmt.Errorf("failed to add finished goods to stock: %w", err)
	}
	activity := models.InventoryActivity{
		ItemID:       task.ItemID,
		ActivityType: models.ActivityAdd,
		Quantity:     task.Quantity,
	}
	if _, err := s.inventoryRepo.CreateActivity(tx, &activity); err != nil {
		return nil, fmt.Errorf("failed to record production intake: %w", err)
	}

	task.Status = models.TaskStatusCompleted
	task.CurrentStage = models.StageDone
	task.EndDate = time.Now().Format("2006-01-02")
	if err := s.productionRepo.UpdateTask(tx, task); err != nil {
		return nil, fmt.Errorf("failed to close production task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit task completion: %w", err)
	}
	return s.productionRepo.GetTaskByID(taskID)
}

// CancelTask abandons a task. Completed-task facts already recorded
// stay: work done at earlier stages is still owed.
func (s *productionService) CancelTask(taskID int64) (*models.ProductionTask, error) {
	task, err := s.GetTaskByID(taskID)
	if err != nil {
		return nil, err
	}
	if task.Status == models.TaskStatusCompleted || task.Status == models.TaskStatusCancelled {
		return nil, fmt.Errorf("%w: task %d has status %s", ErrTaskClosed, taskID, task.Status)
	}

	task.Status = models.TaskStatusCancelled
	task.EndDate = time.Now().Format("2006-01-02")
	if err := s.productionRepo.UpdateTask(s.db, task); err != nil {
		return nil, fmt.Errorf("failed to cancel production task: %w", err)
	}
	return s.productionRepo.GetTaskByID(taskID)
}

func (s *productionService) ReassignTask(taskID int64, req ReassignTaskRequest) (*models.ProductionTask, error) {
	task, err := s.GetTaskByID(taskID)
	if err != nil {
		return nil, err
	}
	if task.Status == models.TaskStatusCompleted || task.Status == models.TaskStatusCancelled {
		return nil, fmt.Errorf("%w: cannot reassign a closed task", ErrTaskClosed)
	}

	if err := s.productionRepo.UpdateTaskArtist(s.db, taskID, req.ArtistID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrArtistNotFound
		}
		return nil, fmt.Errorf("failed to reassign task: %w", err)
	}
	return s.productionRepo.GetTaskByID(taskID)
}

func (s *productionService) GetCompletedTasks(artistID *int64, from, to *time.Time, page, pageSize int) ([]models.CompletedTask, int, error) {
	page, pageSize = normalizePagination(page, pageSize)
	completed, totalCount, err := s.productionRepo.GetCompletedTasks(artistID, from, to, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get completed tasks: %w", err)
	}
	return completed, totalCount, nil
}

func (s *productionService) GetCompletedTaskByID(id int64) (*models.CompletedTask, error) {
	completed, err := s.productionRepo.GetCompletedTaskByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCompletedTaskNotFound
		}
		return nil, fmt.Errorf("failed to get completed task: %w", err)
	}
	return completed, nil
}

// CreateRejection files a standalone defect report against a task at
// its current stage and bumps the task's rejection counter.
func (s *productionService) CreateRejection(req CreateRejectionRequest) (*models.RejectionHistory, error) {
	if req.Department != nil && !isValidDepartment(*req.Department) {
		return nil, fmt.Errorf("%w: unknown department '%s'", ErrValidation, *req.Department)
	}
	task, err := s.GetTaskByID(req.ProductionTaskID)
	if err != nil {
		return nil, err
	}
	if task.Status != models.TaskStatusInProgress {
		return nil, fmt.Errorf("%w: task %d has status %s", ErrTaskNotInProgress, task.ID, task.Status)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	stage := task.CurrentStage
	rejection := models.RejectionHistory{
		ProductionTaskID: &task.ID,
		ReferredByID:     req.ReferredByID,
		Stage:            &stage,
		Department:       req.Department,
		Status:           models.RejectionPending,
	}
	if _, err := s.productionRepo.CreateRejection(tx, &rejection); err != nil {
		return nil, fmt.Errorf("failed to record rejection: %w", err)
	}
	if err := s.productionRepo.IncrementRejectionCount(tx, task.ID, 1); err != nil {
		return nil, fmt.Errorf("failed to bump rejection count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit rejection: %w", err)
	}
	return s.productionRepo.GetRejectionByID(rejection.ID)
}

func (s *productionService) GetRejections(status *string, page, pageSize int) ([]models.RejectionHistory, int, error) {
	page, pageSize = normalizePagination(page, pageSize)
	rejections, totalCount, err := s.productionRepo.GetRejections(status, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get rejections: %w", err)
	}
	return rejections, totalCount, nil
}

// MarkDefectFixed resolves a pending rejection, compensates the
// task's rejection counter and puts the task back in progress. The
// repository guard makes the fix one-shot under concurrency.
func (s *productionService) MarkDefectFixed(rejectionID int64) (*models.RejectionHistory, error) {
	rejection, err := s.productionRepo.GetRejectionByID(rejectionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRejectionNotFound
		}
		return nil, fmt.Errorf("failed to get rejection: %w", err)
	}
	if rejection.Status == models.RejectionFixed {
		return nil, ErrRejectionFixed
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.productionRepo.MarkRejectionFixed(tx, rejectionID); err != nil {
		if errors.Is(err, repositories.ErrInvalidInput) {
			return nil, ErrRejectionFixed
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRejectionNotFound
		}
		return nil, fmt.Errorf("failed to mark rejection fixed: %w", err)
	}
	if rejection.ProductionTaskID != nil {
		if err := s.productionRepo.IncrementRejectionCount(tx, *rejection.ProductionTaskID, -1); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to compensate rejection count: %w", err)
		}
		if err := s.productionRepo.UpdateTaskStatus(tx, *rejection.ProductionTaskID, models.TaskStatusInProgress); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to return task to work: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit defect fix: %w", err)
	}
	return s.productionRepo.GetRejectionByID(rejectionID)
}

func (s *productionService) CreateQualityCheck(taskID int64, req CreateQualityCheckRequest) (*models.QualityCheck, error) {
	if req.Result != models.QualityPass && req.Result != models.QualityFail {
		return nil, fmt.Errorf("%w: result must be %s or %s", ErrValidation, models.QualityPass, models.QualityFail)
	}
	if _, err := s.GetTaskByID(taskID); err != nil {
		return nil, err
	}

	check := models.QualityCheck{
		ProductionTaskID: taskID,
		CheckedByID:      req.CheckedByID,
		Result:           req.Result,
		Notes:            req.Notes,
	}
	if _, err := s.productionRepo.CreateQualityCheck(s.db, &check); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return nil, fmt.Errorf("failed to create quality check: %w", err)
	}
	return &check, nil
}

func (s *productionService) GetQualityChecks(taskID int64) ([]models.QualityCheck, error) {
	checks, err := s.productionRepo.GetQualityChecks(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quality checks: %w", err)
	}
	return checks, nil
}
