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

// TaskFilters narrows production task listings.
type TaskFilters struct {
	ArtistID *int64
	ItemID   *int64
	Status   *string
	Stage    *string
	Search   string
	Page     int
	PageSize int
}

// ProductionRepository defines the interface for production pipeline
// database operations.
type ProductionRepository interface {
	// ProductionTask methods
	CreateTask(executor SQLExecutor, task *models.ProductionTask) (int64, error)
	GetTaskByID(id int64) (*models.ProductionTask, error)
	GetTasks(filters TaskFilters) ([]models.ProductionTask, int, error)
	UpdateTask(executor SQLExecutor, task *models.ProductionTask) error
	UpdateTaskArtist(executor SQLExecutor, taskID, artistID int64) error
	UpdateTaskStatus(executor SQLExecutor, taskID int64, status string) error
	IncrementRejectionCount(executor SQLExecutor, taskID int64, delta int) error
	DeleteTask(executor SQLExecutor, id int64) error

	// CompletedTask methods
	CreateCompletedTask(executor SQLExecutor, completed *models.CompletedTask) (int64, error)
	GetCompletedTaskByID(id int64) (*models.CompletedTask, error)
	GetCompletedTasks(artistID *int64, from, to *time.Time, page, pageSize int) ([]models.CompletedTask, int, error)

	// RejectionHistory methods
	CreateRejection(executor SQLExecutor, rejection *models.RejectionHistory) (int64, error)
	GetRejectionByID(id int64) (*models.RejectionHistory, error)
	GetRejections(status *string, page, pageSize int) ([]models.RejectionHistory, int, error)
	MarkRejectionFixed(executor SQLExecutor, id int64) error

	// QualityCheck methods
	CreateQualityCheck(executor SQLExecutor, check *models.QualityCheck) (int64, error)
	GetQualityChecks(taskID int64) ([]models.QualityCheck, error)
}

type productionRepository struct {
	db *sql.DB
}

// NewProductionRepository creates a new instance of ProductionRepository.
func NewProductionRepository(db *sql.DB) ProductionRepository {
	return &productionRepository{db: db}
}

// --- ProductionTask Methods ---

func (r *productionRepository) CreateTask(executor SQLExecutor, task *models.ProductionTask) (int64, error) {
	query := `INSERT INTO production_tasks
	          (item_id, artist_id, notes, quantity, start_date, end_date,
	           current_stage, status, accepted, rejection_count)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING id`
	err := executor.QueryRow(query,
		task.ItemID, task.ArtistID, task.Notes, task.Quantity,
		task.StartDate, models.NewNullString(task.EndDate),
		task.CurrentStage, task.Status, task.Accepted, task.RejectionCount,
	).Scan(&task.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return 0, fmt.Errorf("%w: item or artist does not exist (constraint: %s)", ErrNotFound, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating production task: %v", ErrDatabaseError, err)
	}
	return task.ID, nil
}

const taskColumns = `pt.id, pt.item_id, pt.artist_id, pt.notes, pt.quantity,
	    pt.start_date, COALESCE(pt.end_date, ''), pt.current_stage, pt.status,
	    pt.accepted, pt.rejection_count,
	    i.name AS item_name, a.name AS artist_name`

func scanTask(s scanner, task *models.ProductionTask, extra ...interface{}) error {
	var itemName, artistName string
	dest := []interface{}{
		&task.ID, &task.ItemID, &task.ArtistID, &task.Notes, &task.Quantity,
		&task.StartDate, &task.EndDate, &task.CurrentStage, &task.Status,
		&task.Accepted, &task.RejectionCount,
		&itemName, &artistName,
	}
	dest = append(dest, extra...)
	if err := s.Scan(dest...); err != nil {
		return err
	}
	task.ItemName = &itemName
	task.ArtistName = &artistName
	return nil
}

func (r *productionRepository) GetTaskByID(id int64) (*models.ProductionTask, error) {
	task := &models.ProductionTask{}
	query := `SELECT ` + taskColumns + `
	          FROM production_tasks pt
	          JOIN items i ON pt.item_id = i.id
	          JOIN artists a ON pt.artist_id = a.id
	          WHERE pt.id = $1`
	err := scanTask(r.db.QueryRow(query, id), task)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting production task by ID %d: %v", ErrDatabaseError, id, err)
	}
	return task, nil
}

func (r *productionRepository) GetTasks(filters TaskFilters) ([]models.ProductionTask, int, error) {
	tasks := []models.ProductionTask{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + taskColumns + `, COUNT(*) OVER() AS total_count
	  FROM production_tasks pt
	  JOIN items i ON pt.item_id = i.id
	  JOIN artists a ON pt.artist_id = a.id`)

	var conditions []string
	var args []interface{}
	argCount := 1
	if filters.ArtistID != nil {
		conditions = append(conditions, fmt.Sprintf("pt.artist_id = $%d", argCount))
		args = append(args, *filters.ArtistID)
		argCount++
	}
	if filters.ItemID != nil {
		conditions = append(conditions, fmt.Sprintf("pt.item_id = $%d", argCount))
		args = append(args, *filters.ItemID)
		argCount++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("pt.status = $%d", argCount))
		args = append(args, *filters.Status)
		argCount++
	}
	if filters.Stage != nil && *filters.Stage != "" {
		conditions = append(conditions, fmt.Sprintf("pt.current_stage = $%d", argCount))
		args = append(args, *filters.Stage)
		argCount++
	}
	if filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(i.name ILIKE $%d OR a.name ILIKE $%d)", argCount, argCount))
		args = append(args, "%"+filters.Search+"%")
		argCount++
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY pt.id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting production tasks: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var task models.ProductionTask
		if err := scanTask(rows, &task, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning production task: %v", ErrDatabaseError, err)
		}
		tasks = append(tasks, task)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating production tasks: %v", ErrDatabaseError, err)
	}
	return tasks, totalCount, nil
}

func (r *productionRepository) UpdateTask(executor SQLExecutor, task *models.ProductionTask) error {
	query := `UPDATE production_tasks SET
	            notes = $1, quantity = $2, end_date = $3,
	            current_stage = $4, status = $5, accepted = $6
	          WHERE id = $7`
	result, err := executor.Exec(query,
		task.Notes, task.Quantity, models.NewNullString(task.EndDate),
		task.CurrentStage, task.Status, task.Accepted, task.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating production task ID %d: %v", ErrDatabaseError, task.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productionRepository) UpdateTaskArtist(executor SQLExecutor, taskID, artistID int64) error {
	result, err := executor.Exec(`UPDATE production_tasks SET artist_id = $1 WHERE id = $2`, artistID, taskID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return fmt.Errorf("%w: artist %d does not exist", ErrNotFound, artistID)
		}
		return fmt.Errorf("%w: reassigning task %d: %v", ErrDatabaseError, taskID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productionRepository) UpdateTaskStatus(executor SQLExecutor, taskID int64, status string) error {
	result, err := executor.Exec(`UPDATE production_tasks SET status = $1 WHERE id = $2`, status, taskID)
	if err != nil {
		return fmt.Errorf("%w: updating status for task %d: %v", ErrDatabaseError, taskID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementRejectionCount adjusts the running rejection counter. A
// negative delta compensates when a rejection is marked fixed.
func (r *productionRepository) IncrementRejectionCount(executor SQLExecutor, taskID int64, delta int) error {
	result, err := executor.Exec(
		`UPDATE production_tasks SET rejection_count = GREATEST(rejection_count + $1, 0) WHERE id = $2`,
		delta, taskID)
	if err != nil {
		return fmt.Errorf("%w: adjusting rejection count for task %d: %v", ErrDatabaseError, taskID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productionRepository) DeleteTask(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM production_tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting production task ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- CompletedTask Methods ---

func (r *productionRepository) CreateCompletedTask(executor SQLExecutor, completed *models.CompletedTask) (int64, error) {
	query := `INSERT INTO completed_tasks (item_id, artist_id, accepted, current_stage, date)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`
	if completed.Date.IsZero() {
		completed.Date = time.Now()
	}
	err := executor.QueryRow(query, completed.ItemID, completed.ArtistID,
		completed.Accepted, completed.CurrentStage, completed.Date).Scan(&completed.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating completed task: %v", ErrDatabaseError, err)
	}
	return completed.ID, nil
}

func (r *productionRepository) GetCompletedTaskByID(id int64) (*models.CompletedTask, error) {
	completed := &models.CompletedTask{}
	query := `SELECT ct.id, ct.item_id, ct.artist_id, ct.accepted, ct.current_stage, ct.date,
	            i.name AS item_name, a.name AS artist_name
	          FROM completed_tasks ct
	          JOIN items i ON ct.item_id = i.id
	          JOIN artists a ON ct.artist_id = a.id
	          WHERE ct.id = $1`
	err := r.db.QueryRow(query, id).Scan(&completed.ID, &completed.ItemID, &completed.ArtistID,
		&completed.Accepted, &completed.CurrentStage, &completed.Date,
		&completed.ItemName, &completed.ArtistName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: completed task with ID %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: getting completed task ID %d: %v", ErrDatabaseError, id, err)
	}
	return completed, nil
}

func (r *productionRepository) GetCompletedTasks(artistID *int64, from, to *time.Time, page, pageSize int) ([]models.CompletedTask, int, error) {
	completed := []models.CompletedTask{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ct.id, ct.item_id, ct.artist_id, ct.accepted, ct.current_stage, ct.date,
	    i.name AS item_name, a.name AS artist_name,
	    COUNT(*) OVER() AS total_count
	  FROM completed_tasks ct
	  JOIN items i ON ct.item_id = i.id
	  JOIN artists a ON ct.artist_id = a.id`)

	var conditions []string
	var args []interface{}
	argCount := 1
	if artistID != nil {
		conditions = append(conditions, fmt.Sprintf("ct.artist_id = $%d", argCount))
		args = append(args, *artistID)
		argCount++
	}
	if from != nil {
		conditions = append(conditions, fmt.Sprintf("ct.date >= $%d", argCount))
		args = append(args, *from)
		argCount++
	}
	if to != nil {
		conditions = append(conditions, fmt.Sprintf("ct.date < $%d", argCount))
		args = append(args, *to)
		argCount++
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY ct.date DESC, ct.id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting completed tasks: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var ct models.CompletedTask
		var itemName, artistName string
		if err := rows.Scan(&ct.ID, &ct.ItemID, &ct.ArtistID, &ct.Accepted, &ct.CurrentStage,
			&ct.Date, &itemName, &artistName, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning completed task: %v", ErrDatabaseError, err)
		}
		ct.ItemName = &itemName
		ct.ArtistName = &artistName
		completed = append(completed, ct)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating completed tasks: %v", ErrDatabaseError, err)
	}
	return completed, totalCount, nil
}

// --- RejectionHistory Methods ---

func (r *productionRepository) CreateRejection(executor SQLExecutor, rejection *models.RejectionHistory) (int64, error) {
	query := `INSERT INTO rejection_history (production_task_id, referred_by_id, stage, department, status, date)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	if rejection.Date.IsZero() {
		rejection.Date = time.Now()
	}
	if rejection.Status == "" {
		rejection.Status = models.RejectionPending
	}
	err := executor.QueryRow(query, rejection.ProductionTaskID, rejection.ReferredByID,
		rejection.Stage, rejection.Department, rejection.Status, rejection.Date).Scan(&rejection.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating rejection record: %v", ErrDatabaseError, err)
	}
	return rejection.ID, nil
}

const rejectionColumns = `rh.id, rh.production_task_id, rh.referred_by_id, rh.stage,
	    rh.department, rh.status, rh.date,
	    i.name AS product_name, a.name AS artist_name, ref.name AS referred_by_name`

func scanRejection(s scanner, rejection *models.RejectionHistory, extra ...interface{}) error {
	var productName, artistName, referredByName sql.NullString
	dest := []interface{}{
		&rejection.ID, &rejection.ProductionTaskID, &rejection.ReferredByID, &rejection.Stage,
		&rejection.Department, &rejection.Status, &rejection.Date,
		&productName, &artistName, &referredByName,
	}
	dest = append(dest, extra...)
	if err := s.Scan(dest...); err != nil {
		return err
	}
	if productName.Valid {
		rejection.ProductName = &productName.String
	}
	if artistName.Valid {
		rejection.ArtistName = &artistName.String
	}
	if referredByName.Valid {
		rejection.ReferredByName = &referredByName.String
	}
	return nil
}

func (r *productionRepository) GetRejectionByID(id int64) (*models.RejectionHistory, error) {
	rejection := &models.RejectionHistory{}
	query := `SELECT ` + rejectionColumns + `
	          FROM rejection_history rh
	          LEFT JOIN production_tasks pt ON rh.production_task_id = pt.id
	          LEFT JOIN items i ON pt.item_id = i.id
	          LEFT JOIN artists a ON pt.artist_id = a.id
	          LEFT JOIN artists ref ON rh.referred_by_id = ref.id
	          WHERE rh.id = $1`
	err := scanRejection(r.db.QueryRow(query, id), rejection)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting rejection by ID %d: %v", ErrDatabaseError, id, err)
	}
	return rejection, nil
}

func (r *productionRepository) GetRejections(status *string, page, pageSize int) ([]models.RejectionHistory, int, error) {
	rejections := []models.RejectionHistory{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + rejectionColumns + `, COUNT(*) OVER() AS total_count
	  FROM rejection_history rh
	  LEFT JOIN production_tasks pt ON rh.production_task_id = pt.id
	  LEFT JOIN items i ON pt.item_id = i.id
	  LEFT JOIN artists a ON pt.artist_id = a.id
	  LEFT JOIN artists ref ON rh.referred_by_id = ref.id`)

	var args []interface{}
	if status != nil && *status != "" {
		queryBuilder.WriteString(" WHERE rh.status = $1")
		args = append(args, *status)
	}
	argCount := len(args) + 1
	queryBuilder.WriteString(" ORDER BY rh.date DESC, rh.id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting rejections: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var rejection models.RejectionHistory
		if err := scanRejection(rows, &rejection, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning rejection: %v", ErrDatabaseError, err)
		}
		rejections = append(rejections, rejection)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating rejections: %v", ErrDatabaseError, err)
	}
	return rejections, totalCount, nil
}

// MarkRejectionFixed flips a pending rejection to fixed. The WHERE
// clause makes the transition one-way; a second call reports the row
// as already fixed.
func (r *productionRepository) MarkRejectionFixed(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(
		`UPDATE rejection_history SET status = $1 WHERE id = $2 AND status = $3`,
		models.RejectionFixed, id, models.RejectionPending)
	if err != nil {
		return fmt.Errorf("%w: marking rejection %d fixed: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		var exists bool
		if err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM rejection_history WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("%w: checking rejection %d: %v", ErrDatabaseError, id, err)
		}
		if !exists {
			return ErrNotFound
		}
		return fmt.Errorf("%w: rejection %d is already fixed", ErrInvalidInput, id)
	}
	return nil
}

// --- QualityCheck Methods ---

func (r *productionRepository) CreateQualityCheck(executor SQLExecutor, check *models.QualityCheck) (int64, error) {
	query := `INSERT INTO quality_checks (production_task_id, checked_by_id, check_date, result, notes)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`
	if check.CheckDate.IsZero() {
		check.CheckDate = time.Now()
	}
	err := executor.QueryRow(query, check.ProductionTaskID, check.CheckedByID,
		check.CheckDate, check.Result, check.Notes).Scan(&check.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return 0, fmt.Errorf("%w: task or checker does not exist (constraint: %s)", ErrNotFound, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating quality check: %v", ErrDatabaseError, err)
	}
	return check.ID, nil
}

func (r *productionRepository) GetQualityChecks(taskID int64) ([]models.QualityCheck, error) {
	checks := []models.QualityCheck{}
	query := `SELECT id, production_task_id, checked_by_id, check_date, result, notes
	          FROM quality_checks
	          WHERE production_task_id = $1
	          ORDER BY check_date DESC`
	rows, err := r.db.Query(query, taskID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting quality checks for task %d: %v", ErrDatabaseError, taskID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var check models.QualityCheck
		if err := rows.Scan(&check.ID, &check.ProductionTaskID, &check.CheckedByID,
			&check.CheckDate, &check.Result, &check.Notes); err != nil {
			return nil, fmt.Errorf("%w: scanning quality check: %v", ErrDatabaseError, err)
		}
		checks = append(checks, check)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating quality checks: %v", ErrDatabaseError, err)
	}
	return checks, nil
}
