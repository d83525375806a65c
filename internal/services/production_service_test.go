package services

import (
	"testing"
	"time"

	"github.com/Lusimba/kichaka/internal/models"
	"github.com/Lusimba/kichaka/internal/repositories"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProductionRepo implements repositories.ProductionRepository with
// overridable function fields; unset methods panic.
type fakeProductionRepo struct {
	createTask              func(executor repositories.SQLExecutor, task *models.ProductionTask) (int64, error)
	getTaskByID             func(id int64) (*models.ProductionTask, error)
	updateTask              func(executor repositories.SQLExecutor, task *models.ProductionTask) error
	updateTaskArtist        func(executor repositories.SQLExecutor, taskID, artistID int64) error
	updateTaskStatus        func(executor repositories.SQLExecutor, taskID int64, status string) error
	incrementRejectionCount func(executor repositories.SQLExecutor, taskID int64, delta int) error
	createCompletedTask     func(executor repositories.SQLExecutor, completed *models.CompletedTask) (int64, error)
	createRejection         func(executor repositories.SQLExecutor, rejection *models.RejectionHistory) (int64, error)
	getRejectionByID        func(id int64) (*models.RejectionHistory, error)
	markRejectionFixed      func(executor repositories.SQLExecutor, id int64) error
}

func (f *fakeProductionRepo) CreateTask(executor repositories.SQLExecutor, task *models.ProductionTask) (int64, error) {
	return f.createTask(executor, task)
}

func (f *fakeProductionRepo) GetTaskByID(id int64) (*models.ProductionTask, error) {
	return f.getTaskByID(id)
}

func (f *fakeProductionRepo) GetTasks(filters repositories.TaskFilters) ([]models.ProductionTask, int, error) {
	panic("not implemented")
}

func (f *fakeProductionRepo) UpdateTask(executor repositories.SQLExecutor, task *models.ProductionTask) error {
	return f.updateTask(executor, task)
}

func (f *fakeProductionRepo) UpdateTaskArtist(executor repositories.SQLExecutor, taskID, artistID int64) error {
	return f.updateTaskArtist(executor, taskID, artistID)
}

func (f *fakeProductionRepo) UpdateTaskStatus(executor repositories.SQLExecutor, taskID int64, status string) error {
	return f.updateTaskStatus(executor, taskID, status)
}

func (f *fakeProductionRepo) IncrementRejectionCount(executor repositories.SQLExecutor, taskID int64, delta int) error {
	return f.incrementRejectionCount(executor, taskID, delta)
}

func (f *fakeProductionRepo) DeleteTask(executor repositories.SQLExecutor, id int64) error {
	panic("not implemented")
}

func (f *fakeProductionRepo) CreateCompletedTask(executor repositories.SQLExecutor, completed *models.CompletedTask) (int64, error) {
	return f.createCompletedTask(executor, completed)
}

func (f *fakeProductionRepo) GetCompletedTasks(artistID *int64, from, to *time.Time, page, pageSize int) ([]models.CompletedTask, int, error) {
	panic("not implemented")
}

func (f *fakeProductionRepo) GetCompletedTaskByID(id int64) (*models.CompletedTask, error) {
	panic("not implemented")
}

func (f *fakeProductionRepo) CreateRejection(executor repositories.SQLExecutor, rejection *models.RejectionHistory) (int64, error) {
	return f.createRejection(executor, rejection)
}

func (f *fakeProductionRepo) GetRejectionByID(id int64) (*models.RejectionHistory, error) {
	return f.getRejectionByID(id)
}

func (f *fakeProductionRepo) GetRejections(status *string, page, pageSize int) ([]models.RejectionHistory, int, error) {
	panic("not implemented")
}

func (f *fakeProductionRepo) MarkRejectionFixed(executor repositories.SQLExecutor, id int64) error {
	return f.markRejectionFixed(executor, id)
}

func (f *fakeProductionRepo) CreateQualityCheck(executor repositories.SQLExecutor, check *models.QualityCheck) (int64, error) {
	panic("not implemented")
}

func (f *fakeProductionRepo) GetQualityChecks(taskID int64) ([]models.QualityCheck, error) {
	panic("not implemented")
}

// taskFixture returns a deep copy per call so mutations inside the
// service do not leak between assertions.
func taskFixture(status, stage string) func(id int64) (*models.ProductionTask, error) {
	return func(id int64) (*models.ProductionTask, error) {
		return &models.ProductionTask{
			ID:           id,
			ItemID:       3,
			ArtistID:     7,
			Quantity:     20,
			Accepted:     12,
			CurrentStage: stage,
			Status:       status,
			StartDate:    "2026-02-01",
		}, nil
	}
}

func TestAcceptTask(t *testing.T) {
	var updated *models.ProductionTask
	repo := &fakeProductionRepo{
		getTaskByID: taskFixture(models.TaskStatusPending, models.StageOrdered),
		updateTask: func(executor repositories.SQLExecutor, task *models.ProductionTask) error {
			updated = task
			return nil
		},
	}
	svc := NewProductionService(repo, &fakeInventoryRepo{}, nil)

	_, err := svc.AcceptTask(1)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, models.TaskStatusInProgress, updated.Status)
	assert.Equal(t, models.StageSplitting, updated.CurrentStage)
}

func TestAcceptTaskNotPending(t *testing.T) {
	repo := &fakeProductionRepo{
		getTaskByID: taskFixture(models.TaskStatusInProgress, models.StageSplitting),
	}
	svc := NewProductionService(repo, &fakeInventoryRepo{}, nil)

	_, err := svc.AcceptTask(1)
	assert.ErrorIs(t, err, ErrTaskNotPending)
}

func TestUpdateTaskStageChangeSnapshotsOldStage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	var snapshots []models.CompletedTask
	var updated *models.ProductionTask
	repo := &fakeProductionRepo{
		getTaskByID: taskFixture(models.TaskStatusInProgress, models.StageSplitting),
		createCompletedTask: func(executor repositories.SQLExecutor, completed *models.CompletedTask) (int64, error) {
			snapshots = append(snapshots, *completed)
			return 1, nil
		},
		updateTask: func(executor repositories.SQLExecutor, task *models.ProductionTask) error {
			updated = task
			return nil
		},
	}
	svc := NewProductionService(repo, &fakeInventoryRepo{}, db)

	nextStage := models.StageCarving
	_, err = svc.UpdateTask(1, UpdateTaskRequest{CurrentStage: &nextStage})
	require.NoError(t, err)

	// The fact is recorded against the stage being left, with the count
	// accepted there.
	require.Len(t, snapshots, 1)
	assert.Equal(t, models.StageSplitting, snapshots[0].CurrentStage)
	assert.Equal(t, 12, snapshots[0].Accepted)
	assert.Equal(t, int64(7), snapshots[0].ArtistID)

	require.NotNil(t, updated)
	assert.Equal(t, models.StageCarving, updated.CurrentStage)
	assert.Equal(t, 0, updated.Accepted, "accepted resets for the fresh stage")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTaskStageChangeWithNothingAccepted(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	repo := &fakeProductionRepo{
		getTaskByID: func(id int64) (*models.ProductionTask, error) {
			return &models.ProductionTask{
				ID: id, ItemID: 3, ArtistID: 7, Quantity: 20,
				CurrentStage: models.StageSplitting, Status: models.TaskStatusInProgress,
			}, nil
		},
		createCompletedTask: func(executor repositories.SQLExecutor, completed *models.CompletedTask) (int64, error) {
			t.Fatal("no completed-task fact should be recorded when accepted is zero")
			return 0, nil
		},
		updateTask: func(executor repositories.SQLExecutor, task *models.ProductionTask) error {
			return nil
		},
	}
	svc := NewProductionService(repo, &fakeInventoryRepo{}, db)

	nextStage := models.StageCarving
	_, err = svc.UpdateTask(1, UpdateTaskRequest{CurrentStage: &nextStage})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTaskInvalidStage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	repo := &fakeProductionRepo{
		getTaskByID: taskFixture(models.TaskStatusInProgress, models.StageSplitting),
	}
	svc := NewProductionService(repo, &fakeInventoryRepo{}, db)

	badStage := "9"
	_, err = svc.UpdateTask(1, UpdateTaskRequest{CurrentStage: &badStage})
	assert.ErrorIs(t, err, ErrInvalidStage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTaskRejection(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	var rejection *models.RejectionHistory
	var bumped int
	repo := &fakeProductionRepo{
		getTaskByID: taskFixture(models.TaskStatusInProgress, models.StageSanding),
		createRejection: func(executor repositories.SQLExecutor, r *models.RejectionHistory) (int64, error) {
			rejection = r
			return 1, nil
		},
		incrementRejectionCount: func(executor repositories.SQLExecutor, taskID int64, delta int) error {
			bumped += delta
			return nil
		},
		updateTask: func(executor repositories.SQLExecutor, task *models.ProductionTask) error {
			return nil
		},
	}
	svc := NewProductionService(repo, &fakeInventoryRepo{}, db)

	dept := models.DepartmentSanding
	_, err = svc.UpdateTask(1, UpdateTaskRequest{IsRejected: true, Department: &dept})
	require.NoError(t, err)

	require.NotNil(t, rejection)
	require.NotNil(t, rejection.Stage)
	assert.Equal(t, models.StageSanding, *rejection.Stage)
	assert.Equal(t, models.RejectionPending, rejection.Status)
	assert.Equal(t, 1, bumped)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTaskNotInProgress(t *testing.T) {
	repo := &fakeProductionRepo{
		getTaskByID: taskFixture(models.TaskStatusPending, models.StageOrdered),
	}
	svc := NewProductionService(repo, &fakeInventoryRepo{}, nil)

	notes := "late"
	_, err := svc.UpdateTask(1, UpdateTaskRequest{Notes: &notes})
	assert.ErrorIs(t, err, ErrTaskNotInProgress)
}

func TestCompleteTaskAddsBatchToStock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	var stockDelta int
	var activity *models.InventoryActivity
	var updated *models.ProductionTask

	repo := &fakeProductionRepo{
		getTaskByID: taskFixture(models.TaskStatusInProgress, models.StagePackaging),
		createCompletedTask: func(executor repositories.SQLExecutor, completed *models.CompletedTask) (int64, error) {
			t.Fatal("completion must not book a stage fact")
			return 0, nil
		},
		updateTask: func(executor repositories.SQLExecutor, task *models.ProductionTask) error {
			updated = task
			return nil
		},
	}
	inv := &fakeInventoryRepo{
		updateStock: func(executor repositories.SQLExecutor, itemID int64, quantityChange int) (int, error) {
			stockDelta = quantityChange
			return 40 + quantityChange, nil
		},
		createActivity: func(executor repositories.SQLExecutor, a *models.InventoryActivity) (int64, error) {
			activity = a
			return 1, nil
		},
	}
	svc := NewProductionService(repo, inv, db)

	_, err = svc.CompleteTask(1)
	require.NoError(t, err)

	assert.Equal(t, 20, stockDelta, "the whole batch lands in stock")
	require.NotNil(t, activity)
	assert.Equal(t, models.ActivityAdd, activity.ActivityType)
	assert.Equal(t, 20, activity.Quantity)

	require.NotNil(t, updated)
	assert.Equal(t, models.TaskStatusCompleted, updated.Status)
	assert.Equal(t, models.StageDone, updated.CurrentStage)
	assert.NotEmpty(t, updated.EndDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelTaskClosed(t *testing.T) {
	repo := &fakeProductionRepo{
		getTaskByID: taskFixture(models.TaskStatusCompleted, models.StageDone),
	}
	svc := NewProductionService(repo, &fakeInventoryRepo{}, nil)

	_, err := svc.CancelTask(1)
	assert.ErrorIs(t, err, ErrTaskClosed)
}

func TestReassignClosedTask(t *testing.T) {
	repo := &fakeProductionRepo{
		getTaskByID: taskFixture(models.TaskStatusCancelled, models.StageSanding),
	}
	svc := NewProductionService(repo, &fakeInventoryRepo{}, nil)

	_, err := svc.ReassignTask(1, ReassignTaskRequest{ArtistID: 9})
	assert.ErrorIs(t, err, ErrTaskClosed)
}

func TestMarkDefectFixed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	taskID := int64(5)
	var fixed bool
	var delta int
	var reopened string
	repo := &fakeProductionRepo{
		getRejectionByID: func(id int64) (*models.RejectionHistory, error) {
			status := models.RejectionPending
			if fixed {
				status = models.RejectionFixed
			}
			return &models.RejectionHistory{ID: id, ProductionTaskID: &taskID, Status: status}, nil
		},
		markRejectionFixed: func(executor repositories.SQLExecutor, id int64) error {
			fixed = true
			return nil
		},
		incrementRejectionCount: func(executor repositories.SQLExecutor, id int64, d int) error {
			assert.Equal(t, taskID, id)
			delta = d
			return nil
		},
		updateTaskStatus: func(executor repositories.SQLExecutor, id int64, status string) error {
			assert.Equal(t, taskID, id)
			reopened = status
			return nil
		},
	}
	svc := NewProductionService(repo, &fakeInventoryRepo{}, db)

	result, err := svc.MarkDefectFixed(2)
	require.NoError(t, err)
	assert.True(t, fixed)
	assert.Equal(t, -1, delta, "fixing a defect compensates the counter")
	assert.Equal(t, models.TaskStatusInProgress, reopened, "the task goes back to work")
	assert.Equal(t, models.RejectionFixed, result.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkDefectFixedTwice(t *testing.T) {
	repo := &fakeProductionRepo{
		getRejectionByID: func(id int64) (*models.RejectionHistory, error) {
			return &models.RejectionHistory{ID: id, Status: models.RejectionFixed}, nil
		},
	}
	svc := NewProductionService(repo, &fakeInventoryRepo{}, nil)

	_, err := svc.MarkDefectFixed(2)
	assert.ErrorIs(t, err, ErrRejectionFixed)
}

func TestMarkDefectFixedLosesRace(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	repo := &fakeProductionRepo{
		getRejectionByID: func(id int64) (*models.RejectionHistory, error) {
			return &models.RejectionHistory{ID: id, Status: models.RejectionPending}, nil
		},
		markRejectionFixed: func(executor repositories.SQLExecutor, id int64) error {
			return repositories.ErrInvalidInput
		},
	}
	svc := NewProductionService(repo, &fakeInventoryRepo{}, db)

	_, err = svc.MarkDefectFixed(2)
	assert.ErrorIs(t, err, ErrRejectionFixed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRejectionBumpsCounter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	var created *models.RejectionHistory
	var delta int
	repo := &fakeProductionRepo{
		getTaskByID: taskFixture(models.TaskStatusInProgress, models.StageSanding),
		createRejection: func(executor repositories.SQLExecutor, rejection *models.RejectionHistory) (int64, error) {
			created = rejection
			rejection.ID = 9
			return 9, nil
		},
		incrementRejectionCount: func(executor repositories.SQLExecutor, taskID int64, d int) error {
			assert.Equal(t, int64(1), taskID)
			delta = d
			return nil
		},
		getRejectionByID: func(id int64) (*models.RejectionHistory, error) {
			return &models.RejectionHistory{ID: id, Status: models.RejectionPending}, nil
		},
	}
	svc := NewProductionService(repo, &fakeInventoryRepo{}, db)

	dept := models.DepartmentSanding
	result, err := svc.CreateRejection(CreateRejectionRequest{ProductionTaskID: 1, Department: &dept})
	require.NoError(t, err)
	require.NotNil(t, created)
	require.NotNil(t, created.Stage)
	assert.Equal(t, models.StageSanding, *created.Stage)
	assert.Equal(t, models.RejectionPending, created.Status)
	assert.Equal(t, 1, delta)
	assert.Equal(t, int64(9), result.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRejectionUnknownDepartment(t *testing.T) {
	svc := NewProductionService(&fakeProductionRepo{}, &fakeInventoryRepo{}, nil)

	dept := "logistics"
	_, err := svc.CreateRejection(CreateRejectionRequest{ProductionTaskID: 1, Department: &dept})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRecordOutputBooksFactAtCurrentStage(t *testing.T) {
	var captured *models.CompletedTask
	repo := &fakeProductionRepo{
		getTaskByID: taskFixture(models.TaskStatusInProgress, models.StageSanding),
		createCompletedTask: func(executor repositories.SQLExecutor, completed *models.CompletedTask) (int64, error) {
			captured = completed
			completed.ID = 77
			return 77, nil
		},
	}
	svc := NewProductionService(repo, &fakeInventoryRepo{}, nil)

	completed, err := svc.RecordOutput(1, RecordOutputRequest{Accepted: 5})
	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Equal(t, models.StageSanding, captured.CurrentStage)
	assert.Equal(t, 5, captured.Accepted)
	assert.Equal(t, int64(77), completed.ID)
}

func TestRecordOutputExceedsQuantity(t *testing.T) {
	repo := &fakeProductionRepo{
		getTaskByID: taskFixture(models.TaskStatusInProgress, models.StageSanding),
	}
	svc := NewProductionService(repo, &fakeInventoryRepo{}, nil)

	_, err := svc.RecordOutput(1, RecordOutputRequest{Accepted: 25})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRecordOutputNotInProgress(t *testing.T) {
	repo := &fakeProductionRepo{
		getTaskByID: taskFixture(models.TaskStatusPending, models.StageOrdered),
	}
	svc := NewProductionService(repo, &fakeInventoryRepo{}, nil)

	_, err := svc.RecordOutput(1, RecordOutputRequest{Accepted: 5})
	assert.ErrorIs(t, err, ErrTaskNotInProgress)
}
