package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Lusimba/kichaka/internal/models"
	"github.com/Lusimba/kichaka/internal/repositories"
	"github.com/Lusimba/kichaka/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProductionService lets each test plug in just the methods it
// needs. Calling an unset method panics, which surfaces as a test
// failure.
type fakeProductionService struct {
	createRejection func(req services.CreateRejectionRequest) (*models.RejectionHistory, error)
	getRejections   func(status *string, page, pageSize int) ([]models.RejectionHistory, int, error)
}

func (f *fakeProductionService) CreateTask(req services.CreateTaskRequest) (*models.ProductionTask, error) {
	panic("not implemented")
}

func (f *fakeProductionService) GetTaskByID(id int64) (*models.ProductionTask, error) {
	panic("not implemented")
}

func (f *fakeProductionService) GetTasks(filters repositories.TaskFilters) ([]models.ProductionTask, int, error) {
	panic("not implemented")
}

func (f *fakeProductionService) AcceptTask(taskID int64) (*models.ProductionTask, error) {
	panic("not implemented")
}

func (f *fakeProductionService) UpdateTask(taskID int64, req services.UpdateTaskRequest) (*models.ProductionTask, error) {
	panic("not implemented")
}

func (f *fakeProductionService) RecordOutput(taskID int64, req services.RecordOutputRequest) (*models.CompletedTask, error) {
	panic("not implemented")
}

func (f *fakeProductionService) CompleteTask(taskID int64) (*models.ProductionTask, error) {
	panic("not implemented")
}

func (f *fakeProductionService) CancelTask(taskID int64) (*models.ProductionTask, error) {
	panic("not implemented")
}

func (f *fakeProductionService) ReassignTask(taskID int64, req services.ReassignTaskRequest) (*models.ProductionTask, error) {
	panic("not implemented")
}

func (f *fakeProductionService) GetCompletedTasks(artistID *int64, from, to *time.Time, page, pageSize int) ([]models.CompletedTask, int, error) {
	panic("not implemented")
}

func (f *fakeProductionService) GetCompletedTaskByID(id int64) (*models.CompletedTask, error) {
	panic("not implemented")
}

func (f *fakeProductionService) CreateRejection(req services.CreateRejectionRequest) (*models.RejectionHistory, error) {
	return f.createRejection(req)
}

func (f *fakeProductionService) GetRejections(status *string, page, pageSize int) ([]models.RejectionHistory, int, error) {
	return f.getRejections(status, page, pageSize)
}

func (f *fakeProductionService) MarkDefectFixed(rejectionID int64) (*models.RejectionHistory, error) {
	panic("not implemented")
}

func (f *fakeProductionService) CreateQualityCheck(taskID int64, req services.CreateQualityCheckRequest) (*models.QualityCheck, error) {
	panic("not implemented")
}

func (f *fakeProductionService) GetQualityChecks(taskID int64) ([]models.QualityCheck, error) {
	panic("not implemented")
}

func productionTestRouter(svc services.ProductionService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewProductionHandler(svc)
	r := gin.New()
	r.POST("/rejections", h.CreateRejection)
	r.GET("/rejections", h.GetRejections)
	return r
}

func TestGetRejectionsDefaultsToPending(t *testing.T) {
	var requested *string
	svc := &fakeProductionService{
		getRejections: func(status *string, page, pageSize int) ([]models.RejectionHistory, int, error) {
			requested = status
			return []models.RejectionHistory{}, 0, nil
		},
	}
	router := productionTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/rejections", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, requested)
	assert.Equal(t, models.RejectionPending, *requested)
}

func TestGetRejectionsStatusAll(t *testing.T) {
	called := false
	svc := &fakeProductionService{
		getRejections: func(status *string, page, pageSize int) ([]models.RejectionHistory, int, error) {
			called = true
			assert.Nil(t, status)
			return []models.RejectionHistory{}, 0, nil
		},
	}
	router := productionTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/rejections?status=all", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, called)
}

func TestCreateRejectionHTTP(t *testing.T) {
	svc := &fakeProductionService{
		createRejection: func(req services.CreateRejectionRequest) (*models.RejectionHistory, error) {
			assert.Equal(t, int64(4), req.ProductionTaskID)
			return &models.RejectionHistory{ID: 9, Status: models.RejectionPending}, nil
		},
	}
	router := productionTestRouter(svc)

	w := httptest.NewRecorder()
	body := `{"production_task_id": 4, "department": "S"}`
	req := httptest.NewRequest(http.MethodPost, "/rejections", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}
