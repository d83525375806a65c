package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Lusimba/kichaka/internal/models"
	"github.com/Lusimba/kichaka/internal/repositories"
	"github.com/Lusimba/kichaka/internal/services"
	"github.com/Lusimba/kichaka/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ProductionHandler holds the production service.
type ProductionHandler struct {
	productionService services.ProductionService
}

// NewProductionHandler creates a new ProductionHandler.
func NewProductionHandler(ps services.ProductionService) *ProductionHandler {
	return &ProductionHandler{productionService: ps}
}

// --- Tasks ---

// CreateTask handles creating a production task.
func (h *ProductionHandler) CreateTask(c *gin.Context) {
	var req services.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	task, err := h.productionService.CreateTask(req)
	if err != nil {
		utils.LogError(err, "CreateTask: Error from productionService.CreateTask")
		if errors.Is(err, services.ErrItemNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Item does not exist.", err.Error()))
		} else if errors.Is(err, services.ErrArtistNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Artist does not exist.", err.Error()))
		} else if errors.Is(err, services.ErrValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create task.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, task)
}

// GetTasks handles listing tasks with filters.
func (h *ProductionHandler) GetTasks(c *gin.Context) {
	page, pageSize := parsePagination(c)
	filters := repositories.TaskFilters{
		Search:   c.Query("search"),
		Page:     page,
		PageSize: pageSize,
	}
	if raw := c.Query("artist_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid artist_id format.", err.Error()))
			return
		}
		filters.ArtistID = &parsed
	}
	if raw := c.Query("item_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid item_id format.", err.Error()))
			return
		}
		filters.ItemID = &parsed
	}
	if raw := c.Query("status"); raw != "" {
		filters.Status = &raw
	}
	if raw := c.Query("stage"); raw != "" {
		filters.Stage = &raw
	}

	tasks, totalCount, err := h.productionService.GetTasks(filters)
	if err != nil {
		utils.LogError(err, "GetTasks: Error from productionService.GetTasks")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch tasks.", "Internal error"))
		return
	}
	listResponse(c, tasks, totalCount, page, pageSize)
}

// GetTaskByID handles fetching a single task.
func (h *ProductionHandler) GetTaskByID(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	task, err := h.productionService.GetTaskByID(id)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Task not found.", ""))
		} else {
			utils.LogError(err, "GetTaskByID: Error from productionService.GetTaskByID")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch task.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, task)
}

// AcceptTask handles moving a pending task into progress.
func (h *ProductionHandler) AcceptTask(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	task, err := h.productionService.AcceptTask(id)
	if err != nil {
		utils.LogError(err, "AcceptTask: Error from productionService.AcceptTask")
		if errors.Is(err, services.ErrTaskNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Task not found.", ""))
		} else if errors.Is(err, services.ErrTaskNotPending) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInvalidState, "Task is not pending.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to accept task.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, task)
}

// UpdateTask handles progress updates on an in-progress task: notes,
// accepted counts, stage advancement and defect reports.
func (h *ProductionHandler) UpdateTask(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req services.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	task, err := h.productionService.UpdateTask(id, req)
	if err != nil {
		utils.LogError(err, "UpdateTask: Error from productionService.UpdateTask")
		if errors.Is(err, services.ErrTaskNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Task not found.", ""))
		} else if errors.Is(err, services.ErrTaskNotInProgress) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInvalidState, "Task is not in progress.", err.Error()))
		} else if errors.Is(err, services.ErrInvalidStage) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid production stage.", err.Error()))
		} else if errors.Is(err, services.ErrValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update task.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, task)
}

// CompleteTask handles finishing a task and adding accepted units to
// stock.
func (h *ProductionHandler) CompleteTask(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	task, err := h.productionService.CompleteTask(id)
	if err != nil {
		utils.LogError(err, "CompleteTask: Error from productionService.CompleteTask")
		if errors.Is(err, services.ErrTaskNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Task not found.", ""))
		} else if errors.Is(err, services.ErrTaskNotInProgress) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInvalidState, "Task is not in progress.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to complete task.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, task)
}

// RecordOutput handles booking a partial accepted batch against a
// task without touching the task itself.
func (h *ProductionHandler) RecordOutput(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req services.RecordOutputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	completed, err := h.productionService.RecordOutput(id, req)
	if err != nil {
		utils.LogError(err, "RecordOutput: Error from productionService.RecordOutput")
		if errors.Is(err, services.ErrTaskNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Task not found.", ""))
		} else if errors.Is(err, services.ErrTaskNotInProgress) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInvalidState, "Task is not in progress.", err.Error()))
		} else if errors.Is(err, services.ErrValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to record output.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, completed)
}

// CancelTask handles cancelling a task.
func (h *ProductionHandler) CancelTask(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	task, err := h.productionService.CancelTask(id)
	if err != nil {
		utils.LogError(err, "CancelTask: Error from productionService.CancelTask")
		if errors.Is(err, services.ErrTaskNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Task not found.", ""))
		} else if errors.Is(err, services.ErrTaskClosed) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInvalidState, "Task is already closed.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to cancel task.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, task)
}

// ReassignTask handles moving a task to another artist.
func (h *ProductionHandler) ReassignTask(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req services.ReassignTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	task, err := h.productionService.ReassignTask(id, req)
	if err != nil {
		utils.LogError(err, "ReassignTask: Error from productionService.ReassignTask")
		if errors.Is(err, services.ErrTaskNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Task not found.", ""))
		} else if errors.Is(err, services.ErrArtistNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Artist does not exist.", err.Error()))
		} else if errors.Is(err, services.ErrTaskClosed) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInvalidState, "Task is already closed.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to reassign task.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, task)
}

// --- Completed tasks ---

// GetCompletedTaskByID handles fetching a single completion fact.
func (h *ProductionHandler) GetCompletedTaskByID(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	completed, err := h.productionService.GetCompletedTaskByID(id)
	if err != nil {
		if errors.Is(err, services.ErrCompletedTaskNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Completed task not found.", ""))
		} else {
			utils.LogError(err, "GetCompletedTaskByID: Error from productionService.GetCompletedTaskByID")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch completed task.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, completed)
}

// GetCompletedTasks handles listing piecework completion facts.
func (h *ProductionHandler) GetCompletedTasks(c *gin.Context) {
	page, pageSize := parsePagination(c)

	var artistID *int64
	if raw := c.Query("artist_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid artist_id format.", err.Error()))
			return
		}
		artistID = &parsed
	}

	var from, to *time.Time
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid from date, expected YYYY-MM-DD.", err.Error()))
			return
		}
		from = &parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid to date, expected YYYY-MM-DD.", err.Error()))
			return
		}
		to = &parsed
	}

	completed, totalCount, err := h.productionService.GetCompletedTasks(artistID, from, to, page, pageSize)
	if err != nil {
		utils.LogError(err, "GetCompletedTasks: Error from productionService.GetCompletedTasks")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch completed tasks.", "Internal error"))
		return
	}
	listResponse(c, completed, totalCount, page, pageSize)
}

// --- Rejections ---

// CreateRejection handles filing a defect report against a task.
func (h *ProductionHandler) CreateRejection(c *gin.Context) {
	var req services.CreateRejectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request body.", err.Error()))
		return
	}

	rejection, err := h.productionService.CreateRejection(req)
	if err != nil {
		utils.LogError(err, "CreateRejection: Error from productionService.CreateRejection")
		if errors.Is(err, services.ErrTaskNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Production task not found.", ""))
		} else if errors.Is(err, services.ErrTaskNotInProgress) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInvalidState, "Task is not in progress.", err.Error()))
		} else if errors.Is(err, services.ErrValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid rejection.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to record rejection.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, rejection)
}

// GetRejections handles listing defect reports. Without a status
// filter only pending defects are shown; status=all lists everything.
func (h *ProductionHandler) GetRejections(c *gin.Context) {
	page, pageSize := parsePagination(c)

	pending := models.RejectionPending
	status := &pending
	switch raw := c.Query("status"); raw {
	case "":
	case "all":
		status = nil
	default:
		status = &raw
	}

	rejections, totalCount, err := h.productionService.GetRejections(status, page, pageSize)
	if err != nil {
		utils.LogError(err, "GetRejections: Error from productionService.GetRejections")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch rejections.", "Internal error"))
		return
	}
	listResponse(c, rejections, totalCount, page, pageSize)
}

// MarkDefectFixed handles marking a pending defect as fixed. The
// operation succeeds at most once per rejection.
func (h *ProductionHandler) MarkDefectFixed(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	rejection, err := h.productionService.MarkDefectFixed(id)
	if err != nil {
		utils.LogError(err, "MarkDefectFixed: Error from productionService.MarkDefectFixed")
		if errors.Is(err, services.ErrRejectionNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Rejection not found.", ""))
		} else if errors.Is(err, services.ErrRejectionFixed) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInvalidState, "Rejection is already fixed.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to mark rejection as fixed.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, rejection)
}

// --- Quality checks ---

// CreateQualityCheck handles recording a quality check on a task.
func (h *ProductionHandler) CreateQualityCheck(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req services.CreateQualityCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	check, err := h.productionService.CreateQualityCheck(id, req)
	if err != nil {
		utils.LogError(err, "CreateQualityCheck: Error from productionService.CreateQualityCheck")
		if errors.Is(err, services.ErrTaskNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Task not found.", ""))
		} else if errors.Is(err, services.ErrValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create quality check.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, check)
}

// GetQualityChecks handles listing quality checks for a task.
func (h *ProductionHandler) GetQualityChecks(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	checks, err := h.productionService.GetQualityChecks(id)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Task not found.", ""))
		} else {
			utils.LogError(err, "GetQualityChecks: Error from productionService.GetQualityChecks")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch quality checks.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": checks})
}
